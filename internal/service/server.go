package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server runs the portal HTTP API and owns its shutdown lifecycle: callers
// cancel the context and in-flight requests get a bounded drain window.
type Server struct {
	httpServer   *http.Server
	drainTimeout time.Duration
	logger       *zap.Logger
}

func NewServer(addr string, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		drainTimeout: 10 * time.Second,
		logger:       logger,
	}
}

// Run serves until ctx is cancelled, then drains. A listener failure returns
// immediately; a clean shutdown returns nil.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.logger.Info("Portal HTTP server listening", zap.String("addr", s.httpServer.Addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Portal HTTP server draining", zap.Duration("timeout", s.drainTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
