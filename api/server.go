package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/worldleaderio/worldleader-backend/pkg/logger"
)

const shutdownGrace = 15 * time.Second

// Server wraps http.Server with context-driven graceful shutdown.
type Server struct {
	inner *http.Server
	logg  *logger.Logger
}

func NewServer(addr string, handler http.Handler, logg *logger.Logger) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logg: logg,
	}
}

// Run serves until the context is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.inner.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.logg != nil {
		s.logg.Info(context.Background(), "shutting down api server")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.inner.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
