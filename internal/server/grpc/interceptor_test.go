package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/habitkeeper/internal/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newObservedServer() (*GRPCServer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGRPCServer("127.0.0.1:0", logging.NewZapLogger(zap.New(core)), nil), logs
}

func TestInterceptor_PassesThrough(t *testing.T) {
	s, logs := newObservedServer()
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	resp, err := s.loggingInterceptor(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}

	entries := logs.FilterMessage("grpc call").All()
	if len(entries) != 1 || entries[0].Level != zapcore.DebugLevel {
		t.Fatalf("expected one debug entry, got %v", entries)
	}
	if got := entries[0].ContextMap()["code"]; got != "OK" {
		t.Fatalf("code = %v, want OK", got)
	}
}

func TestInterceptor_LogsFailures(t *testing.T) {
	s, logs := newObservedServer()
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	want := status.Error(codes.NotFound, "unknown service")

	_, err := s.loggingInterceptor(context.Background(), nil, info, func(ctx context.Context, req any) (any, error) {
		return nil, want
	})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}

	entries := logs.FilterMessage("grpc call").All()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected one warn entry, got %v", entries)
	}
	if got := entries[0].ContextMap()["code"]; got != "NotFound" {
		t.Fatalf("code = %v, want NotFound", got)
	}
}
