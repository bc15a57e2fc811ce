package writer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/northwind-sec/siemflow/internal/broker"
	"github.com/northwind-sec/siemflow/internal/config"
	"github.com/northwind-sec/siemflow/internal/store"
	"github.com/northwind-sec/siemflow/internal/telemetry"
	"github.com/northwind-sec/siemflow/internal/uem"
)

// Worker consumes the filtered stream in cursor mode and bulk-inserts
// mapped rows into the column store.
type Worker struct {
	cfg    config.WriterConfig
	broker *broker.Client
	store  *store.Store
	log    *zap.Logger
	tracer trace.Tracer

	lastID string
}

func NewWorker(cfg config.WriterConfig, b *broker.Client, st *store.Store, log *zap.Logger) *Worker {
	return &Worker{cfg: cfg, broker: b, store: st, log: log, tracer: telemetry.Tracer("siemflow-writer")}
}

func (w *Worker) Run(ctx context.Context) error {
	lastID, err := w.broker.GetCursor(ctx, w.cfg.LastIDKey)
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

		msgs, err := w.broker.ReadAfter(ctx, w.cfg.FilteredStreamKey, w.lastID, w.cfg.BatchSize, w.cfg.BlockTimeout)
		if err != nil {
			w.log.Error("writer read failed", zap.Error(err))
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
	ctx, span := w.tracer.Start(ctx, "writer.processBatch")
	defer span.End()

	now := time.Now().UTC()

	rows := make([]store.EventRow, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, ToRow(uem.Event(m.Fields), now))
	}

	if _, err := w.store.InsertEventsBatch(ctx, rows); err != nil {
		w.log.Error("writer insert failed, retrying without advancing cursor", zap.Error(err))
		return
	}

	maxID := msgs[len(msgs)-1].ID
	if err := w.broker.SetCursor(ctx, w.cfg.LastIDKey, maxID); err != nil {
		w.log.Error("writer cursor persist failed", zap.Error(err))
		return
	}
	w.lastID = maxID
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
