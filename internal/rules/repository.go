package rules

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/northwind-sec/siemflow/internal/store"
)

// NormalizerRepository holds the current immutable normalizer rule set,
// swapped atomically on each reload.
type NormalizerRepository struct {
	ptr   atomic.Pointer[[]NormalizerRule]
	store *store.Store
	log   *zap.Logger
}

func NewNormalizerRepository(s *store.Store, log *zap.Logger) *NormalizerRepository {
	r := &NormalizerRepository{store: s, log: log}
	empty := []NormalizerRule{}
	r.ptr.Store(&empty)
	return r
}

// Rules returns the currently published rule set, ordered
// (priority asc, id asc) as loaded.
func (r *NormalizerRepository) Rules() []NormalizerRule {
	return *r.ptr.Load()
}

// Reload fetches rows from the store, compiles them, and publishes the
// whole new list in one atomic swap. A row whose mapping fails to
// compile is still included, with only the failing mapping entries
// dropped — per-field failure, not per-rule.
func (r *NormalizerRepository) Reload(ctx context.Context) error {
	rows, err := r.store.LoadNormalizerRules(ctx)
	if err != nil {
		return err
	}

	out := make([]NormalizerRule, 0, len(rows))
	for _, row := range rows {
		rule, errs := compileNormalizerRow(row)
		for _, e := range errs {
			r.log.Warn("normalizer rule mapping compile failed",
				zap.Int32("rule_id", row.ID), zap.Error(e))
		}
		out = append(out, rule)
	}
	r.ptr.Store(&out)
	r.log.Info("normalizer rules reloaded", zap.Int("count", len(out)))
	return nil
}

// FilterRepository holds the current immutable filter rule set.
type FilterRepository struct {
	ptr   atomic.Pointer[[]FilterRule]
	store *store.Store
	log   *zap.Logger
}

func NewFilterRepository(s *store.Store, log *zap.Logger) *FilterRepository {
	r := &FilterRepository{store: s, log: log}
	empty := []FilterRule{}
	r.ptr.Store(&empty)
	return r
}

func (r *FilterRepository) Rules() []FilterRule {
	return *r.ptr.Load()
}

// Reload fetches and compiles filter rules. A rule whose expression
// fails to parse is kept in the set with AST == nil — evaluators skip
// it — rather than dropped, so its id/priority position is preserved
// for diagnostics and the previous rule set is not needed as fallback.
func (r *FilterRepository) Reload(ctx context.Context) error {
	rows, err := r.store.LoadFilterRules(ctx)
	if err != nil {
		return err
	}

	out := make([]FilterRule, 0, len(rows))
	for _, row := range rows {
		fr, perr := compileFilterRow(row)
		if perr != nil {
			r.log.Warn("filter rule expression parse failed",
				zap.Int32("rule_id", row.ID), zap.Error(perr))
		}
		out = append(out, fr)
	}
	r.ptr.Store(&out)
	r.log.Info("filter rules reloaded", zap.Int("count", len(out)))
	return nil
}

// StreamCorrRepository holds the current immutable stream correlation
// rule set.
type StreamCorrRepository struct {
	ptr   atomic.Pointer[[]StreamCorrelationRule]
	store *store.Store
	log   *zap.Logger
}

func NewStreamCorrRepository(s *store.Store, log *zap.Logger) *StreamCorrRepository {
	r := &StreamCorrRepository{store: s, log: log}
	empty := []StreamCorrelationRule{}
	r.ptr.Store(&empty)
	return r
}

func (r *StreamCorrRepository) Rules() []StreamCorrelationRule {
	return *r.ptr.Load()
}

func (r *StreamCorrRepository) Reload(ctx context.Context) error {
	rows, err := r.store.LoadStreamCorrelationRules(ctx)
	if err != nil {
		return err
	}

	out := make([]StreamCorrelationRule, 0, len(rows))
	for _, row := range rows {
		sr, perr := compileStreamCorrRow(row)
		if perr != nil {
			r.log.Warn("stream correlation rule expression parse failed",
				zap.Int32("rule_id", row.ID), zap.Error(perr))
		}
		out = append(out, sr)
	}
	r.ptr.Store(&out)
	r.log.Info("stream correlation rules reloaded", zap.Int("count", len(out)))
	return nil
}

// BatchCorrRepository holds the current immutable batch correlation
// rule set. Its rows need no compile step, only the template
// substitution applied at execution time, but it follows the same
// atomic-publish shape as the others for consistency with the
// scheduler that reloads it.
type BatchCorrRepository struct {
	ptr   atomic.Pointer[[]BatchCorrelationRule]
	store *store.Store
	log   *zap.Logger
}

func NewBatchCorrRepository(s *store.Store, log *zap.Logger) *BatchCorrRepository {
	r := &BatchCorrRepository{store: s, log: log}
	empty := []BatchCorrelationRule{}
	r.ptr.Store(&empty)
	return r
}

func (r *BatchCorrRepository) Rules() []BatchCorrelationRule {
	return *r.ptr.Load()
}

func (r *BatchCorrRepository) Reload(ctx context.Context) error {
	rows, err := r.store.LoadBatchCorrelationRules(ctx)
	if err != nil {
		return err
	}

	out := make([]BatchCorrelationRule, 0, len(rows))
	for _, row := range rows {
		out = append(out, compileBatchCorrRow(row))
	}
	r.ptr.Store(&out)
	r.log.Info("batch correlation rules reloaded", zap.Int("count", len(out)))
	return nil
}
