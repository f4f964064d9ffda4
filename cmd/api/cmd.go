package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GregMSThompson/dashboard-builder/internal/bootstrap"
	"github.com/GregMSThompson/dashboard-builder/internal/config"
	"github.com/GregMSThompson/dashboard-builder/internal/handlers"
	"github.com/GregMSThompson/dashboard-builder/internal/response"
	"github.com/GregMSThompson/dashboard-builder/internal/router"
	"github.com/GregMSThompson/dashboard-builder/internal/services"
	"github.com/GregMSThompson/dashboard-builder/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg, err := config.New()
	exitOnError("invalid configuration", err, slog.Default())
	bs, err := bootstrap.Run(cfg)
	if err != nil {
		closeBootstrap(bs)
		exitOnError("bootstrap failed", err, bs.Log)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, bs)
	stop()
	// os.Exit skips deferred calls, so release the store before exiting.
	closeBootstrap(bs)
	exitOnError("server failed", err, bs.Log)
}

func closeBootstrap(bs *bootstrap.Bootstrap) {
	if err := bs.Close(); err != nil {
		bs.Log.Error("failed to release resources", "error", err)
	}
}

// run serves the gateway until ctx is cancelled, then shuts the server down
// gracefully.
func run(ctx context.Context, cfg *config.Config, bs *bootstrap.Bootstrap) error {
	ctx = logger.ToContext(ctx, bs.Log)

	if bs.Watcher != nil {
		go func() {
			if err := bs.Watcher.Run(ctx); err != nil {
				bs.Log.Error("document watcher stopped", "error", err)
			}
		}()
	}

	// services
	wserv := services.NewWidgetService(bs.Store, bs.Metrics)

	// response handler
	rh := response.New(bs.Log)

	// dependencies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.WidgetSvc = wserv
	deps.Metrics = bs.Metrics
	deps.CORSOrigins = cfg.CORSOrigins

	// router
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		bs.Log.Info("server listening", "addr", srv.Addr, "storage", cfg.Storage)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server start failed: %w", err)
	case <-ctx.Done():
		bs.Log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	}
}
