// Package batchcorr runs batch correlation rules on a schedule: each
// rule's SQL template has {WINDOW_S} substituted with its configured
// window and is executed directly against the column store.
package batchcorr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/northwind-sec/siemflow/internal/config"
	"github.com/northwind-sec/siemflow/internal/rules"
	"github.com/northwind-sec/siemflow/internal/store"
	"github.com/northwind-sec/siemflow/internal/telemetry"
)

const windowSToken = "{WINDOW_S}"

// Worker periodically reloads the batch correlation rule set and
// executes each rule's templated SQL statement.
type Worker struct {
	cfg    config.BatchCorrConfig
	store  *store.Store
	repo   *rules.BatchCorrRepository
	log    *zap.Logger
	cron   *cron.Cron
	tracer trace.Tracer
}

func NewWorker(cfg config.BatchCorrConfig, st *store.Store, repo *rules.BatchCorrRepository, log *zap.Logger) *Worker {
	return &Worker{
		cfg:    cfg,
		store:  st,
		repo:   repo,
		log:    log,
		cron:   cron.New(),
		tracer: telemetry.Tracer("siemflow-batchcorr"),
	}
}

// Run starts the cron schedule and blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	spec := fmt.Sprintf("@every %ds", w.cfg.IntervalSec)
	if _, err := w.cron.AddFunc(spec, func() { w.tick(ctx) }); err != nil {
		return fmt.Errorf("batchcorr: schedule %q: %w", spec, err)
	}

	w.cron.Start()
	defer func() {
		stopCtx := w.cron.Stop()
		<-stopCtx.Done()
	}()

	w.tick(ctx) // run once immediately so a fresh deploy doesn't wait a full interval

	<-ctx.Done()
	return nil
}

func (w *Worker) tick(ctx context.Context) {
	ctx, span := w.tracer.Start(ctx, "batchcorr.tick")
	defer span.End()

	if err := w.repo.Reload(ctx); err != nil {
		w.log.Error("batch correlation rule reload failed", zap.Error(err))
		return
	}

	for _, rule := range w.repo.Rules() {
		sql := substituteWindow(rule.SQLTemplate, rule.WindowS)
		if err := w.store.ExecBatchCorrelationSQL(ctx, sql); err != nil {
			w.log.Error("batch correlation rule execution failed",
				zap.Int32("rule_id", rule.ID), zap.String("name", rule.Name), zap.Error(err))
			continue
		}
	}
}

// substituteWindow replaces the literal {WINDOW_S} token with the
// rule's configured window, in seconds.
func substituteWindow(template string, windowS uint32) string {
	return strings.ReplaceAll(template, windowSToken, strconv.FormatUint(uint64(windowS), 10))
}
