package filter

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/northwind-sec/siemflow/internal/broker"
	"github.com/northwind-sec/siemflow/internal/config"
	"github.com/northwind-sec/siemflow/internal/rules"
	"github.com/northwind-sec/siemflow/internal/uem"
)

// Worker consumes the normalized stream in cursor mode, applies the
// filter rule set, and publishes surviving events to the filtered
// stream. The rule set is reloaded on a background tick independent of
// the consume loop.
type Worker struct {
	cfg    config.FilterConfig
	broker *broker.Client
	repo   *rules.FilterRepository
	log    *zap.Logger

	lastID string
}

func NewWorker(cfg config.FilterConfig, b *broker.Client, repo *rules.FilterRepository, log *zap.Logger) *Worker {
	return &Worker{cfg: cfg, broker: b, repo: repo, log: log}
}

// Run reloads the rule set once synchronously, starts the periodic
// reloader, then consumes until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.repo.Reload(ctx); err != nil {
		return err
	}

	go w.reloadLoop(ctx)

	lastID, err := w.broker.GetCursor(ctx, w.cfg.InstanceName+":filter:last_id")
	if err != nil {
		return err
	}
	w.lastID = lastID

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msgs, err := w.broker.ReadAfter(ctx, w.cfg.NormalizedStreamKey, w.lastID, w.cfg.BatchSize, w.cfg.BlockTimeout)
		if err != nil {
			w.log.Error("filter read failed", zap.Error(err))
			sleep(ctx, time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		w.processBatch(ctx, msgs)
	}
}

// reloadLoop reloads the filter rule set on the configured interval.
// A failed reload logs and leaves the previous rule set in place — the
// repository's pointer is only swapped on success.
func (w *Worker) reloadLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.ReloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.repo.Reload(ctx); err != nil {
				w.log.Error("filter rule reload failed", zap.Error(err))
			}
		}
	}
}

func (w *Worker) processBatch(ctx context.Context, msgs []broker.Message) {
	ruleset := w.repo.Rules()

	for _, m := range msgs {
		event := uem.Event(m.Fields).Clone()
		decision := Evaluate(event, ruleset, w.log)

		if decision != DecisionDrop {
			if _, err := w.broker.Publish(ctx, w.cfg.FilteredStreamKey, map[string]string(event)); err != nil {
				w.log.Error("filter publish failed", zap.String("message_id", m.ID), zap.Error(err))
				return
			}
		}

		w.lastID = m.ID
		if err := w.broker.SetCursor(ctx, w.cfg.InstanceName+":filter:last_id", w.lastID); err != nil {
			w.log.Error("filter cursor persist failed", zap.Error(err))
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
