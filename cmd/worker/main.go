// Package main runs the headless catalog monitor: it keeps an admin surface open
// against the shared store, exports status gauges on /metrics and logs a periodic summary.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hapsayhub/backend/config"
	"github.com/hapsayhub/backend/internal/app"
	"github.com/hapsayhub/backend/internal/surface"
	"github.com/hapsayhub/backend/internal/worker"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if _, err := app.UseTimezone(cfg.Server); err != nil {
		logger.Fatal("timezone", zap.Error(err))
	}
	if cfg.Store.Driver == config.DriverMemory {
		logger.Warn("monitor is watching a private in-memory store; set STORE_DRIVER to share the server's catalog")
	}

	ctx := context.Background()
	backends, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store", zap.Error(err))
	}
	defer backends.Close()

	hub := backends.NewHub()
	if err := hub.Start(); err != nil {
		logger.Fatal("sync subscription", zap.Error(err))
	}
	defer hub.Stop()

	// Read-only: the monitor never writes, so the catalog gets no notifier.
	catalog := app.NewCatalog(backends.Medium, nil, logger)
	surfaces := surface.NewManager(catalog.Surfaces(), hub, nil, app.SurfaceConfig(cfg.Sync), logger)
	if err := surfaces.Start(); err != nil {
		logger.Fatal("surface reaper", zap.Error(err))
	}
	defer surfaces.Stop()

	s, err := surfaces.Open(ctx, surface.KindAdmin)
	if err != nil {
		logger.Fatal("open admin surface", zap.Error(err))
	}
	surfaceID := s.ID

	report := worker.NewRefresher(time.Duration(cfg.Monitor.ReportSec)*time.Second, func(_ context.Context, trigger string) error {
		cur, err := surfaces.Get(surfaceID)
		if err != nil {
			logger.Error("monitor surface lost", zap.String("surface_id", surfaceID), zap.Error(err))
			return err
		}
		sum := cur.Summary()
		logger.Info("catalog status",
			zap.String("trigger", trigger),
			zap.Any("status_counts", sum.StatusCount),
			zap.Int("categories", len(sum.Categories)),
			zap.Time("refreshed_at", sum.RefreshedAt),
			zap.String("last_error", sum.LastError),
		)
		return nil
	}, logger)
	if err := report.Start(); err != nil {
		logger.Fatal("report schedule", zap.Error(err))
	}
	defer report.Stop()
	_ = report.Trigger(worker.TriggerManual)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: ":" + cfg.Monitor.Port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("monitor metrics listening", zap.String("port", cfg.Monitor.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("monitor stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
