package store

import (
	"context"
	"fmt"
)

// NormalizerRuleRow is a raw normalizer_rules row, compiled into an
// executable rule by internal/rules.
type NormalizerRuleRow struct {
	ID           int32
	Priority     int32
	SourceType   string
	EventMatcher string
	MappingJSON  string
}

// FilterRuleRow is a raw filter_rules row.
type FilterRuleRow struct {
	ID         int32
	Priority   int32
	Action     string
	TagsCSV    string
	Expression string
}

// StreamCorrelationRuleRow is a raw correlation_rules_stream row.
type StreamCorrelationRuleRow struct {
	ID          int32
	Priority    int32
	Name        string
	Severity    string
	WindowS     int32
	Threshold   int32
	EntityField string
	Expression  string
}

// BatchCorrelationRuleRow is a raw correlation_rules_batch row.
type BatchCorrelationRuleRow struct {
	ID          int32
	Name        string
	WindowS     int32
	SQLTemplate string
}

// LoadNormalizerRules returns normalizer_rules rows ordered
// (priority ASC, id ASC), matching the first-match-wins evaluation order.
func (s *Store) LoadNormalizerRules(ctx context.Context) ([]NormalizerRuleRow, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, priority, source_type, event_matcher, mapping_json
		FROM normalizer_rules
		WHERE enabled
		ORDER BY priority ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: load normalizer rules: %w", err)
	}
	defer rows.Close()

	var out []NormalizerRuleRow
	for rows.Next() {
		var r NormalizerRuleRow
		if err := rows.Scan(&r.ID, &r.Priority, &r.SourceType, &r.EventMatcher, &r.MappingJSON); err != nil {
			return nil, fmt.Errorf("store: scan normalizer rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadFilterRules returns filter_rules rows ordered (priority ASC, id ASC).
func (s *Store) LoadFilterRules(ctx context.Context) ([]FilterRuleRow, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, priority, action, tags, expression
		FROM filter_rules
		WHERE enabled
		ORDER BY priority ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: load filter rules: %w", err)
	}
	defer rows.Close()

	var out []FilterRuleRow
	for rows.Next() {
		var r FilterRuleRow
		if err := rows.Scan(&r.ID, &r.Priority, &r.Action, &r.TagsCSV, &r.Expression); err != nil {
			return nil, fmt.Errorf("store: scan filter rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadStreamCorrelationRules returns correlation_rules_stream rows ordered
// (priority ASC, id ASC).
func (s *Store) LoadStreamCorrelationRules(ctx context.Context) ([]StreamCorrelationRuleRow, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, priority, name, severity, window_s, threshold, entity_field, expression
		FROM correlation_rules_stream
		WHERE enabled
		ORDER BY priority ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: load stream correlation rules: %w", err)
	}
	defer rows.Close()

	var out []StreamCorrelationRuleRow
	for rows.Next() {
		var r StreamCorrelationRuleRow
		if err := rows.Scan(&r.ID, &r.Priority, &r.Name, &r.Severity, &r.WindowS, &r.Threshold, &r.EntityField, &r.Expression); err != nil {
			return nil, fmt.Errorf("store: scan stream correlation rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LoadBatchCorrelationRules returns correlation_rules_batch rows ordered by
// id ASC only — batch rules have no priority column since each runs
// independently on its own schedule rather than competing for first match.
func (s *Store) LoadBatchCorrelationRules(ctx context.Context) ([]BatchCorrelationRuleRow, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, window_s, sql_template
		FROM correlation_rules_batch
		WHERE enabled
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: load batch correlation rules: %w", err)
	}
	defer rows.Close()

	var out []BatchCorrelationRuleRow
	for rows.Next() {
		var r BatchCorrelationRuleRow
		if err := rows.Scan(&r.ID, &r.Name, &r.WindowS, &r.SQLTemplate); err != nil {
			return nil, fmt.Errorf("store: scan batch correlation rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
