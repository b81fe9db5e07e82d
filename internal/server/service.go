package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// defaultShutdownTimeout bounds graceful shutdown when the config leaves it unset.
const defaultShutdownTimeout = 10 * time.Second

// Listener is the part of [http.Server] a [Service] drives.
type Listener interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// Service runs an HTTP listener under a suture supervisor.
type Service struct {
	listener Listener
	timeout  time.Duration
}

// NewService wraps listener; a non-positive timeout uses the default.
func NewService(listener Listener, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	return &Service{listener: listener, timeout: timeout}
}

// Service returns the supervised listener for this server's configuration.
func (s *Server) Service() *Service {
	return NewService(s.HTTPServer(), s.cfg.Server.ShutdownTimeout)
}

// Serve blocks until the listener fails or ctx is cancelled, then shuts down gracefully.
func (svc *Service) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := svc.listener.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), svc.timeout)
		defer cancel()
		if err := svc.listener.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (svc *Service) String() string { return "http-server" }
