package normalizer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/northwind-sec/siemflow/internal/broker"
	"github.com/northwind-sec/siemflow/internal/config"
	"github.com/northwind-sec/siemflow/internal/rules"
	"github.com/northwind-sec/siemflow/internal/uem"
)

// Worker consumes RawEvents from the raw stream in cursor mode and
// publishes UEM events to the normalized stream.
type Worker struct {
	cfg    config.NormalizerConfig
	broker *broker.Client
	repo   *rules.NormalizerRepository
	log    *zap.Logger

	lastID string
}

func NewWorker(cfg config.NormalizerConfig, b *broker.Client, repo *rules.NormalizerRepository, log *zap.Logger) *Worker {
	return &Worker{cfg: cfg, broker: b, repo: repo, log: log}
}

// Run loads rules once (startup-only reload, per spec) then consumes
// until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.repo.Reload(ctx); err != nil {
		return err
	}

	lastID, err := w.broker.GetCursor(ctx, w.cfg.InstanceName+":normalizer:last_id")
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

		msgs, err := w.broker.ReadAfter(ctx, w.cfg.RawStreamKey, w.lastID, w.cfg.BatchSize, w.cfg.BlockTimeout)
		if err != nil {
			w.log.Error("normalizer read failed", zap.Error(err))
			sleep(ctx, time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		w.processBatch(ctx, msgs)
	}
}

func (w *Worker) processBatch(ctx context.Context, msgs []broker.Message) {
	ruleset := w.repo.Rules()

	for _, m := range msgs {
		raw := uem.RawEvent(m.Fields)
		event := Apply(raw, ruleset)

		if _, err := w.broker.Publish(ctx, w.cfg.NormalizedStreamKey, map[string]string(event)); err != nil {
			w.log.Error("normalizer publish failed", zap.String("message_id", m.ID), zap.Error(err))
			return // do not advance cursor past a failed publish
		}

		w.lastID = m.ID
		if err := w.broker.SetCursor(ctx, w.cfg.InstanceName+":normalizer:last_id", w.lastID); err != nil {
			w.log.Error("normalizer cursor persist failed", zap.Error(err))
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
