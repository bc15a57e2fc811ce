package streamcorr

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/northwind-sec/siemflow/internal/broker"
	"github.com/northwind-sec/siemflow/internal/config"
	"github.com/northwind-sec/siemflow/internal/rules"
	"github.com/northwind-sec/siemflow/internal/store"
	"github.com/northwind-sec/siemflow/internal/telemetry"
	"github.com/northwind-sec/siemflow/internal/uem"
)

// Worker consumes the filtered stream in consumer-group mode, evaluates
// threshold rules, and bulk-inserts any resulting alerts. A batch's
// message ids are acknowledged only after the alert insert succeeds —
// a failed insert leaves the batch unacknowledged for redelivery.
type Worker struct {
	cfg        config.StreamCorrConfig
	broker     *broker.Client
	store      *store.Store
	repo       *rules.StreamCorrRepository
	correlator *Correlator
	log        *zap.Logger
	tracer     trace.Tracer
}

func NewWorker(cfg config.StreamCorrConfig, b *broker.Client, st *store.Store, repo *rules.StreamCorrRepository, log *zap.Logger) *Worker {
	return &Worker{
		cfg:        cfg,
		broker:     b,
		store:      st,
		repo:       repo,
		correlator: NewCorrelator(b, log),
		log:        log,
		tracer:     telemetry.Tracer("siemflow-streamcorr"),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	if err := w.repo.Reload(ctx); err != nil {
		return err
	}
	if err := w.broker.EnsureGroup(ctx, w.cfg.FilteredStreamKey, w.cfg.Group); err != nil {
		return err
	}

	go w.reloadLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msgs, err := w.broker.ReadGroup(ctx, w.cfg.FilteredStreamKey, w.cfg.Group, w.cfg.Consumer, w.cfg.BatchSize, w.cfg.BlockTimeout)
		if err != nil {
			w.log.Error("stream correlator read failed", zap.Error(err))
			sleep(ctx, time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		w.processBatch(ctx, msgs)
	}
}

func (w *Worker) reloadLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.ReloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.repo.Reload(ctx); err != nil {
				w.log.Error("stream correlation rule reload failed", zap.Error(err))
			}
		}
	}
}

func (w *Worker) processBatch(ctx context.Context, msgs []broker.Message) {
	ctx, span := w.tracer.Start(ctx, "streamcorr.processBatch")
	defer span.End()

	ruleset := w.repo.Rules()
	now := time.Now().UTC()

	var alerts []store.AlertRow
	ids := make([]string, 0, len(msgs))

	for _, m := range msgs {
		event := uem.Event(m.Fields)
		got, err := w.correlator.Evaluate(ctx, event, m.ID, ruleset, now)
		if err != nil {
			w.log.Error("stream correlator evaluate failed", zap.String("message_id", m.ID), zap.Error(err))
			continue
		}
		alerts = append(alerts, got...)
		ids = append(ids, m.ID)
	}

	if len(alerts) > 0 {
		if _, err := w.store.InsertAlertsBatch(ctx, alerts); err != nil {
			w.log.Error("stream correlator alert insert failed", zap.Error(err))
			return // do not ack — the batch is redelivered
		}
	}

	if err := w.broker.Ack(ctx, w.cfg.FilteredStreamKey, w.cfg.Group, ids...); err != nil {
		w.log.Error("stream correlator ack failed", zap.Error(err))
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
