package httpserver

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestNewAppliesOptions(t *testing.T) {
	srv := New(8081, http.NotFoundHandler(), WithWriteTimeout(5*time.Minute), WithReadTimeout(0))

	if srv.Addr() != ":8081" {
		t.Fatalf("unexpected addr %q", srv.Addr())
	}
	if srv.inner.WriteTimeout != 5*time.Minute {
		t.Fatalf("expected write timeout override got %s", srv.inner.WriteTimeout)
	}
	if srv.inner.ReadTimeout != 0 {
		t.Fatalf("expected zero read timeout to be ignored got %s", srv.inner.ReadTimeout)
	}
}

func TestStartReturnsNilAfterShutdown(t *testing.T) {
	srv := New(0, http.NotFoundHandler())

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil after graceful shutdown got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
