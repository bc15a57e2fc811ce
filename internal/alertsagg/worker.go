// Package alertsagg periodically rebuilds the alerts_agg rollup table
// from alerts_raw.
package alertsagg

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/northwind-sec/siemflow/internal/config"
	"github.com/northwind-sec/siemflow/internal/store"
)

// Worker truncates and rebuilds alerts_agg on a fixed schedule.
type Worker struct {
	cfg   config.AlertsAggConfig
	store *store.Store
	log   *zap.Logger
	cron  *cron.Cron
}

func NewWorker(cfg config.AlertsAggConfig, st *store.Store, log *zap.Logger) *Worker {
	return &Worker{cfg: cfg, store: st, log: log, cron: cron.New()}
}

func (w *Worker) Run(ctx context.Context) error {
	spec := fmt.Sprintf("@every %ds", w.cfg.IntervalSec)
	if _, err := w.cron.AddFunc(spec, func() { w.tick(ctx) }); err != nil {
		return fmt.Errorf("alertsagg: schedule %q: %w", spec, err)
	}

	w.cron.Start()
	defer func() {
		stopCtx := w.cron.Stop()
		<-stopCtx.Done()
	}()

	w.tick(ctx)

	<-ctx.Done()
	return nil
}

func (w *Worker) tick(ctx context.Context) {
	if err := w.store.RebuildAlertsAgg(ctx); err != nil {
		w.log.Error("alerts_agg rebuild failed", zap.Error(err))
		return
	}
	w.log.Info("alerts_agg rebuilt")
}
