package grpcserver

import (
	"context"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}

// logCall writes one line per call; metadata only, never payloads.
func logCall(log *zap.Logger, ctx context.Context, method string, start time.Time, err error) {
	code := status.Code(err)
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("code", code.String()),
		zap.Duration("dur", time.Since(start)),
		zap.String("peer", peerAddr(ctx)),
	}
	if code == codes.OK || code == codes.Canceled {
		log.Info("grpc", fields...)
		return
	}
	log.Warn("grpc", append(fields, zap.Error(err))...)
}

// LoggingUnary returns a unary server interceptor for structured logging.
func LoggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		logCall(log, ctx, info.FullMethod, start, err)
		return resp, err
	}
}

// LoggingStream logs streaming calls such as health Watch when they end.
func LoggingStream(log *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		start := time.Now()
		err := next(srv, ss)
		logCall(log, ss.Context(), info.FullMethod, start, err)
		return err
	}
}

func recovered(log *zap.Logger, method string, r any) error {
	log.Error("panic",
		zap.Any("reason", r),
		zap.ByteString("stack", debug.Stack()),
		zap.String("method", method),
	)
	return status.Error(codes.Internal, "internal")
}

// RecoverUnary returns a unary server interceptor that recovers from panics.
func RecoverUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = recovered(log, info.FullMethod, r)
			}
		}()
		return next(ctx, req)
	}
}

// RecoverStream is RecoverUnary for streaming handlers.
func RecoverStream(log *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = recovered(log, info.FullMethod, r)
			}
		}()
		return next(srv, ss)
	}
}
