package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// AlertRow is a single alerts_raw row, produced either by the stream
// correlator at insert time or by a batch correlation scan.
type AlertRow struct {
	AlertID     string
	RuleID      int32
	RuleName    string
	Severity    string
	Source      string // "stream" or "batch"
	EntityKey   string
	WindowS     int32
	Hits        int32
	FirstSeen   time.Time
	LastSeen    time.Time
	ContextJSON string
	CreatedAt   time.Time
}

// InsertAlertsBatch bulk-inserts alerts_raw rows. Alert ids are
// caller-generated UUIDs, so ON CONFLICT DO NOTHING makes redelivery of
// an already-inserted alert (the stream correlator's at-least-once
// worker loop) a no-op rather than a duplicate row.
func (s *Store) InsertAlertsBatch(ctx context.Context, rows []AlertRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO alerts_raw
				(alert_id, rule_id, rule_name, severity, source, entity_key, window_s, hits, first_seen, last_seen, context_json, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			ON CONFLICT (alert_id) DO NOTHING
		`, r.AlertID, r.RuleID, r.RuleName, r.Severity, r.Source, r.EntityKey, r.WindowS, r.Hits, r.FirstSeen, r.LastSeen, r.ContextJSON, r.CreatedAt)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for range rows {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("store: insert alert row: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// RebuildAlertsAgg truncates and repopulates alerts_agg from alerts_raw —
// the periodic rollup the alerts aggregator stage runs on its schedule.
// Truncate-then-rebuild is simple and correct for a rollup over the full
// history; it is not incremental. The truncate and the reinsert run in
// one transaction and commit together.
func (s *Store) RebuildAlertsAgg(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin alerts_agg rebuild: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE TABLE alerts_agg`); err != nil {
		return fmt.Errorf("store: truncate alerts_agg: %w", err)
	}

	// One row per (rule_id, entity_key), with up to 3 sample
	// context_json values and an open/closed status derived from
	// whether any underlying alert is still open. Samples are picked
	// via a row-numbered CTE since plain GROUP BY has no "first N rows
	// per group" aggregate in Postgres.
	if _, err := tx.Exec(ctx, `
		WITH ranked AS (
			SELECT
				rule_id, rule_name, severity, entity_key, first_seen, last_seen, status, context_json,
				ROW_NUMBER() OVER (PARTITION BY rule_id, entity_key ORDER BY last_seen DESC) AS rn
			FROM alerts_raw
		)
		INSERT INTO alerts_agg
			(agg_id, rule_id, rule_name, severity_agg, first_seen, last_seen, alert_count, unique_entities, entity_key, group_key_json, samples_json, status)
		SELECT
			gen_random_uuid(),
			rule_id,
			MIN(rule_name),
			MAX(severity),
			MIN(first_seen),
			MAX(last_seen),
			COUNT(*),
			COUNT(DISTINCT entity_key),
			entity_key,
			jsonb_build_object('entity_key', entity_key),
			(SELECT jsonb_agg(r2.context_json::jsonb) FROM ranked r2 WHERE r2.rule_id = ranked.rule_id AND r2.entity_key = ranked.entity_key AND r2.rn <= 3),
			CASE WHEN BOOL_OR(status = 'open') THEN 'open' ELSE 'closed' END
		FROM ranked
		GROUP BY rule_id, entity_key
	`); err != nil {
		return fmt.Errorf("store: rebuild alerts_agg: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("store: commit alerts_agg rebuild: %w", err)
	}
	return nil
}

// ExecBatchCorrelationSQL runs a fully-substituted batch correlation
// statement (the {WINDOW_S} template with its placeholder already
// replaced). These are idempotent "INSERT INTO alerts_raw SELECT ..."
// statements executed directly — there is no result set for the
// caller to consume.
func (s *Store) ExecBatchCorrelationSQL(ctx context.Context, sql string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("store: exec batch correlation sql: %w", err)
	}
	return nil
}
