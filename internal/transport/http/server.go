package httpt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"streamnotifier/internal/config"
	"streamnotifier/pkg/logger"
)

type HTTPServer struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	log             logger.Logger
}

func NewHTTPServer(h *Handler, cfg *config.HTTP, log logger.Logger) (*HTTPServer, error) {
	if h == nil {
		return nil, errors.New("httpt.NewHTTPServer: handler must be non-nil")
	}
	if cfg == nil {
		return nil, errors.New("httpt.NewHTTPServer: config must be non-nil")
	}

	return &HTTPServer{
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           h.Engine(),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             log,
	}, nil
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	const op = "httpt.HTTPServer.Start"

	errCh := make(chan error, 1)
	go func() {
		s.log.LogAttrs(ctx, logger.InfoLevel, "http server listening",
			logger.String("addr", s.srv.Addr),
		)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	s.log.LogAttrs(ctx, logger.InfoLevel, "http server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: shutdown: %w", op, err)
	}
	return nil
}
