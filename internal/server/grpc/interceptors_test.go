package grpcserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const (
	checkMethod = "/grpc.health.v1.Health/Check"
	watchMethod = "/grpc.health.v1.Health/Watch"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func callLines(logs *observer.ObservedLogs, method string) []observer.LoggedEntry {
	return logs.FilterMessage("grpc").FilterField(zap.String("method", method)).All()
}

// checkHandler adapts a health server's Check to a unary handler.
func checkHandler(hs *health.Server) grpc.UnaryHandler {
	return func(ctx context.Context, req any) (any, error) {
		return hs.Check(ctx, req.(*healthpb.HealthCheckRequest))
	}
}

func TestLoggingUnary_HealthCheck(t *testing.T) {
	log, logs := observed()
	ic := LoggingUnary(log)
	info := &grpc.UnaryServerInfo{FullMethod: checkMethod}

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	resp, err := ic(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName}, info, checkHandler(hs))
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.(*healthpb.HealthCheckResponse).GetStatus())

	_, err = ic(context.Background(), &healthpb.HealthCheckRequest{Service: "nope"}, info, checkHandler(hs))
	require.Equal(t, codes.NotFound, status.Code(err))

	lines := callLines(logs, checkMethod)
	require.Len(t, lines, 2)
	require.Equal(t, zapcore.InfoLevel, lines[0].Level)
	require.Equal(t, "OK", lines[0].ContextMap()["code"])
	require.Equal(t, zapcore.WarnLevel, lines[1].Level)
	require.Equal(t, "NotFound", lines[1].ContextMap()["code"])
	require.Contains(t, lines[1].ContextMap(), "error")
}

func TestRecoverUnary_HealthCheckPanic(t *testing.T) {
	log, logs := observed()
	ic := RecoverUnary(log)
	info := &grpc.UnaryServerInfo{FullMethod: checkMethod}

	// a nil request makes the type assertion in checkHandler panic
	_, err := ic(context.Background(), nil, info, checkHandler(health.NewServer()))
	require.Equal(t, codes.Internal, status.Code(err))

	panics := logs.FilterMessage("panic").All()
	require.Len(t, panics, 1)
	require.Equal(t, checkMethod, panics[0].ContextMap()["method"])
}

type panicWatch struct {
	grpc.ServerStream
	ctx context.Context
}

func (w panicWatch) Context() context.Context                 { return w.ctx }
func (w panicWatch) Send(*healthpb.HealthCheckResponse) error { panic("send on torn stream") }

func TestRecoverStream_HealthWatchPanic(t *testing.T) {
	log, logs := observed()
	ic := RecoverStream(log)
	info := &grpc.StreamServerInfo{FullMethod: watchMethod, IsServerStream: true}

	hs := health.NewServer()
	ss := panicWatch{ctx: context.Background()}
	err := ic(hs, ss, info, func(srv any, stream grpc.ServerStream) error {
		return srv.(*health.Server).Watch(&healthpb.HealthCheckRequest{}, stream.(panicWatch))
	})
	require.Equal(t, codes.Internal, status.Code(err))
	require.Equal(t, 1, logs.FilterMessage("panic").Len())
}

func TestServer_LogsHealthCalls(t *testing.T) {
	log, logs := observed()
	p := &fakePinger{}
	srv, err := New(log, p, Options{})
	require.NoError(t, err)
	cc, stop := startBufGRPC(t, srv)
	defer stop()
	srv.Refresh(context.Background())

	require.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, cc, ServiceName))
	require.Len(t, callLines(logs, checkMethod), 1)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := healthpb.NewHealthClient(cc).Watch(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	first, err := stream.Recv()
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, first.GetStatus())
	cancel()

	require.Eventually(t, func() bool { return len(callLines(logs, watchMethod)) == 1 }, 2*time.Second, 10*time.Millisecond)
	line := callLines(logs, watchMethod)[0]
	require.Equal(t, zapcore.InfoLevel, line.Level)
	require.Equal(t, "Canceled", line.ContextMap()["code"])
	require.NotEmpty(t, line.ContextMap()["peer"])
}
