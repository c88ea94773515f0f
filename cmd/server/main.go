package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/navcore/internal/api"
	"github.com/dgallion1/navcore/internal/catalog"
	"github.com/dgallion1/navcore/internal/config"
	"github.com/dgallion1/navcore/internal/observer"
	"github.com/dgallion1/navcore/internal/observer/fswatch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("load configuration", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.SlogLevel()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Source catalog, reloaded through a shared fsnotify observer.
	var pool *observer.Pool
	if cfg.WatchSources {
		pool = observer.NewPool(fswatch.Factory(log), observer.WithLogger(log))
	} else {
		pool = observer.NewPool(observer.Noop, observer.WithLogger(log))
	}
	cat := catalog.New(
		catalog.WithLogger(log),
		catalog.WithMaxBytes(cfg.MaxUploadBytes),
		catalog.WithStats(catalog.NewReloadStats(cfg.ReloadStatsWindow)),
		catalog.WithObserver(pool, observer.Options{
			fswatch.OptionDebounce: cfg.WatchDebounce.String(),
		}),
	)
	if cfg.SourcesDir != "" {
		n, err := cat.LoadDir(cfg.SourcesDir)
		if err != nil {
			log.Warn("some navigation sources failed to load", "error", err)
		}
		log.Info("navigation sources loaded", "dir", cfg.SourcesDir, "count", n)
		if err := cat.Watch(ctx); err != nil {
			log.Warn("source watching disabled", "error", err)
		}
	}

	srv := api.NewServer(cat, pool, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()
		pool.Reset()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting navcore", "port", cfg.Port, "watch", pool.Supported())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
