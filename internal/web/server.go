package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"marktime/internal/config"
	appLog "marktime/internal/log"
)

// Schedule registers Refresh on the configured cron schedule. The returned
// cron is already started; stop it when the server goes away.
func (s *Server) Schedule(ctx context.Context) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(s.cfg.Location()))
	_, err := c.AddFunc(s.cfg.RefreshCron, func() {
		if err := s.Refresh(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("web: refresh schedule %q: %w", s.cfg.RefreshCron, err)
	}
	c.Start()
	appLog.Info("refresh scheduled", "cron", s.cfg.RefreshCron, "documents", len(s.cfg.Documents))
	return c, nil
}

// StartServer serves the API on cfg.Listen until ctx is canceled, then
// shuts down gracefully. Documents are loaded once up front and then on
// the refresh schedule.
func StartServer(ctx context.Context, cfg *config.Config) error {
	s := NewServer(cfg)
	if err := s.Refresh(ctx); err != nil {
		// Requests retry lazily; a bad first load should not stop the server.
		appLog.Error("initial refresh failed", err)
	}

	sched, err := s.Schedule(ctx)
	if err != nil {
		return err
	}
	defer func() { <-sched.Stop().Done() }()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}
