package httpserver

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestNewServerAddrAndShutdown(t *testing.T) {
	srv := New(0, http.NotFoundHandler())
	if srv.Addr() != ":0" {
		t.Fatalf("unexpected addr %q", srv.Addr())
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("start: %v", err)
	}
}
