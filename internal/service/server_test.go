package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServerRunDrainsOnCancel(t *testing.T) {
	srv := NewServer("127.0.0.1:0", http.NewServeMux(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	// Give the listener a moment to come up before asking it to drain.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down after cancel")
	}
}

func TestServerRunReturnsListenError(t *testing.T) {
	srv := NewServer("127.0.0.1:-1", http.NewServeMux(), zap.NewNop())
	err := srv.Run(context.Background())
	require.Error(t, err)
}
