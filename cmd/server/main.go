// Command server runs the weave knowledge-graph engine: the REST surface,
// the background agent loops and periodic snapshot saves.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"weave-backend/internal/config"
	"weave-backend/internal/di"
)

func main() {
	cfg := config.MustLoad()

	container, err := di.InitializeContainer(cfg)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	logger := container.Logger

	watcher, err := config.NewWatcher(cfg, logger)
	if err != nil {
		logger.Fatal("failed to start config watcher", zap.Error(err))
	}
	defer watcher.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container.Loop.Start(ctx)
	go snapshotLoop(ctx, container, cfg.Graph.SaveInterval)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      container.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("environment", string(cfg.Environment)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", zap.Error(err))
	}

	container.Loop.Wait()
	container.Shutdown()
}

// snapshotLoop saves the graph on a fixed cadence. A zero interval disables
// periodic saves; the shutdown save still runs.
func snapshotLoop(ctx context.Context, container *di.Container, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := container.Store.Save(); err != nil {
				container.Logger.Warn("periodic snapshot save failed", zap.Error(err))
			}
		}
	}
}
