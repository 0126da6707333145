package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/msto63/robbot/pkg/core/grpc"
	"github.com/msto63/robbot/pkg/core/logging"
)

func TestAdminHealth(t *testing.T) {
	cfg := grpc.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.ServiceName = "robbot"
	cfg.Logger = logging.NewNop()
	srv := grpc.NewServer(cfg)
	if err := srv.Listen(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	got, err := adminHealth(context.Background(), srv.Address(), "robbot", time.Second)
	if err != nil || got != "NOT_SERVING" {
		t.Errorf("adminHealth() before ready = %q, %v; want NOT_SERVING", got, err)
	}

	srv.SetServing(true)
	got, err = adminHealth(context.Background(), srv.Address(), "robbot", time.Second)
	if err != nil || got != "SERVING" {
		t.Errorf("adminHealth() = %q, %v; want SERVING", got, err)
	}

	if _, err := adminHealth(context.Background(), srv.Address(), "okänd", time.Second); err == nil {
		t.Error("adminHealth() expected error for an unknown service")
	}
}

func TestDialAddress(t *testing.T) {
	tests := []struct {
		listen string
		want   string
	}{
		{"0.0.0.0:9090", "127.0.0.1:9090"},
		{":9090", "127.0.0.1:9090"},
		{"[::]:9090", "127.0.0.1:9090"},
		{"10.0.0.5:9090", "10.0.0.5:9090"},
		{"robbot-admin", "robbot-admin"},
	}

	for _, tt := range tests {
		if got := dialAddress(tt.listen); got != tt.want {
			t.Errorf("dialAddress(%q) = %q, want %q", tt.listen, got, tt.want)
		}
	}
}
