package grpc

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	corehealth "github.com/msto63/robbot/pkg/core/health"
	"github.com/msto63/robbot/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func startTestServer(t *testing.T) (*Server, context.CancelFunc) {
	t.Helper()
	cfg := DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.Logger = logging.NewNop()

	srv := NewServer(cfg)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return srv, cancel
}

func clientConfig(srv *Server) ClientConfig {
	cfg := DefaultClientConfig(srv.Address())
	cfg.Logger = logging.NewNop()
	return cfg
}

func TestServer_HealthService(t *testing.T) {
	srv, _ := startTestServer(t)
	ctx := context.Background()

	got, err := CheckHealth(ctx, clientConfig(srv), "robbot")
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	if got != "NOT_SERVING" {
		t.Errorf("status before update = %s, want NOT_SERVING", got)
	}

	srv.SetServing(true)
	for _, service := range []string{"", "robbot"} {
		got, err := CheckHealth(ctx, clientConfig(srv), service)
		if err != nil {
			t.Fatalf("CheckHealth(%q) error = %v", service, err)
		}
		if got != "SERVING" {
			t.Errorf("CheckHealth(%q) = %s, want SERVING", service, got)
		}
	}
}

func TestServer_WatchHealth(t *testing.T) {
	srv, _ := startTestServer(t)

	var healthy atomic.Bool
	registry := corehealth.NewRegistry("robbot", "test")
	registry.RegisterFunc("store", func(ctx context.Context) corehealth.CheckResult {
		if healthy.Load() {
			return corehealth.CheckResult{Status: corehealth.StatusHealthy}
		}
		return corehealth.CheckResult{Status: corehealth.StatusUnhealthy}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.WatchHealth(ctx, registry, 20*time.Millisecond)

	waitFor := func(want string) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if got, _ := CheckHealth(context.Background(), clientConfig(srv), ""); got == want {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		t.Fatalf("health never became %s", want)
	}

	waitFor("NOT_SERVING")
	healthy.Store(true)
	waitFor("SERVING")
}

func TestRecoveryInterceptor(t *testing.T) {
	interceptor := RecoveryInterceptor(logging.NewNop())
	info := &grpc.UnaryServerInfo{FullMethod: "/test/Panic"}

	_, err := interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("boom")
	})
	if status.Code(err) != codes.Internal {
		t.Errorf("code = %v, want Internal", status.Code(err))
	}
}

func TestRequestIDInterceptor(t *testing.T) {
	interceptor := RequestIDInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/test/ID"}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDHeader, "req-123"))
	var seen string
	_, err := interceptor(ctx, nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = GetRequestID(ctx)
		return nil, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if seen != "req-123" {
		t.Errorf("request id = %q, want req-123", seen)
	}

	_, _ = interceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = GetRequestID(ctx)
		return nil, errors.New("ignored")
	})
	if len(seen) != 36 {
		t.Errorf("generated request id = %q, want uuid", seen)
	}
}
