// Package grpcserver exposes the TaskKeeper gRPC health endpoint.
package grpcserver

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the service reported alongside the overall ("") status.
const ServiceName = "taskkeeper.v1.TaskKeeper"

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configure transport security and reflection.
type Options struct {
	CertFile   string // TLS is enabled when both files are set
	KeyFile    string
	Reflection bool // dev only
}

// Server wraps a grpc.Server with health reporting backed by a Pinger.
type Server struct {
	gs     *grpc.Server
	health *health.Server
	db     Pinger
	log    *zap.Logger
}

// New constructs the gRPC server with recover and logging interceptors.
func New(log *zap.Logger, db Pinger, opts Options) (*Server, error) {
	sopts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			RecoverUnary(log),
			LoggingUnary(log),
		),
		grpc.ChainStreamInterceptor(
			RecoverStream(log),
			LoggingStream(log),
		),
	}
	if opts.CertFile != "" && opts.KeyFile != "" {
		creds, err := credentials.NewServerTLSFromFile(opts.CertFile, opts.KeyFile)
		if err != nil {
			return nil, err
		}
		sopts = append(sopts, grpc.Creds(creds))
	}
	gs := grpc.NewServer(sopts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	if opts.Reflection {
		reflection.Register(gs)
	}
	return &Server{gs: gs, health: hs, db: db, log: log}, nil
}

// Refresh pings storage once and publishes the result.
func (s *Server) Refresh(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if err := s.db.Ping(ctx); err != nil {
		s.log.Warn("health: storage unreachable", zap.Error(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Watch refreshes health every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	s.Refresh(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Refresh(ctx)
		}
	}
}

// Serve accepts connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error { return s.gs.Serve(lis) }

// Stop drains in-flight calls, forcing a stop after timeout.
func (s *Server) Stop(timeout time.Duration) {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() {
		s.gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.gs.Stop()
	}
}
