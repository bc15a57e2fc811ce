package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/northwind-sec/siemflow/internal/batchcorr"
	"github.com/northwind-sec/siemflow/internal/config"
	"github.com/northwind-sec/siemflow/internal/healthz"
	"github.com/northwind-sec/siemflow/internal/logging"
	"github.com/northwind-sec/siemflow/internal/rules"
	"github.com/northwind-sec/siemflow/internal/store"
	"github.com/northwind-sec/siemflow/internal/telemetry"
)

func main() {
	cfg := config.LoadBatchCorrConfig()

	logger, err := logging.New("batchcorr", logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); otelEndpoint != "" {
		tp, err := telemetry.InitTracer(ctx, "siemflow-batchcorr", otelEndpoint)
		if err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	if overlay, err := config.MaybeLoadSecretOverlay(); err != nil {
		logger.Error("vault secret overlay init failed", zap.Error(err))
	} else if overlay != nil {
		if err := overlay.ApplyStorePassword(&cfg.Store, "secret/data/siemflow/batchcorr"); err != nil {
			logger.Warn("vault store password overlay failed", zap.Error(err))
		}
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("store connection failed", zap.Error(err))
	}
	defer st.Close()

	repo := rules.NewBatchCorrRepository(st, logger)
	worker := batchcorr.NewWorker(cfg, st, repo, logger)

	go func() {
		if err := worker.Run(ctx); err != nil {
			logger.Error("batch correlator worker exited", zap.Error(err))
			stop()
		}
	}()

	e := echo.New()
	e.HideBanner = true
	healthz.RegisterRoutes(e, st)

	go func() {
		logger.Info("batchcorr health server listening", zap.String("addr", cfg.HealthAddr))
		if err := e.Start(cfg.HealthAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failure", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down batch correlator")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", zap.Error(err))
	}
}
