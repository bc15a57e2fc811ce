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

	"github.com/northwind-sec/siemflow/internal/broker"
	"github.com/northwind-sec/siemflow/internal/config"
	"github.com/northwind-sec/siemflow/internal/healthz"
	"github.com/northwind-sec/siemflow/internal/logging"
	"github.com/northwind-sec/siemflow/internal/rules"
	"github.com/northwind-sec/siemflow/internal/store"
	"github.com/northwind-sec/siemflow/internal/streamcorr"
	"github.com/northwind-sec/siemflow/internal/telemetry"
)

func main() {
	cfg := config.LoadStreamCorrConfig()

	logger, err := logging.New("streamcorr", logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); otelEndpoint != "" {
		tp, err := telemetry.InitTracer(ctx, "siemflow-streamcorr", otelEndpoint)
		if err != nil {
			logger.Error("failed to init OTel tracer", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	if overlay, err := config.MaybeLoadSecretOverlay(); err != nil {
		logger.Error("vault secret overlay init failed", zap.Error(err))
	} else if overlay != nil {
		if err := overlay.ApplyBrokerPassword(&cfg.Broker, "secret/data/siemflow/streamcorr"); err != nil {
			logger.Warn("vault broker password overlay failed", zap.Error(err))
		}
		if err := overlay.ApplyStorePassword(&cfg.Store, "secret/data/siemflow/streamcorr"); err != nil {
			logger.Warn("vault store password overlay failed", zap.Error(err))
		}
	}

	b := broker.NewClient(cfg.Broker, logger)
	defer b.Close()

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("store connection failed", zap.Error(err))
	}
	defer st.Close()

	repo := rules.NewStreamCorrRepository(st, logger)
	worker := streamcorr.NewWorker(cfg, b, st, repo, logger)

	go func() {
		if err := worker.Run(ctx); err != nil {
			logger.Error("stream correlator worker exited", zap.Error(err))
			stop()
		}
	}()

	e := echo.New()
	e.HideBanner = true
	healthz.RegisterRoutes(e, b, st)

	go func() {
		logger.Info("streamcorr health server listening", zap.String("addr", cfg.HealthAddr))
		if err := e.Start(cfg.HealthAddr); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failure", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down stream correlator")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", zap.Error(err))
	}
}
