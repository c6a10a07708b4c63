package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/scout/internal/adapters/http/api"
	app "github.com/okian/scout/internal/app"
	"github.com/okian/scout/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newHTTPServer(addr string, maxLimit int, svc *app.Service) *http.Server {
	mux := http.NewServeMux()
	api.NewServer(svc, maxLimit).Register(mux)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// serve runs the API until SIGINT/SIGTERM or ctx is done.
func serve(ctx context.Context, rt *env, svc *app.Service) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := newHTTPServer(rt.cfg.Addr, rt.cfg.MaxUniverseLimit, svc)
	errCh := make(chan error, 1)
	go func() {
		rt.log.Info(ctx, "starting HTTP server", logger.String("addr", rt.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	rt.log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	rt.log.Info(ctx, "server stopped")
	return nil
}
