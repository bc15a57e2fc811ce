// Package rules is the shared rule repository: it loads rule rows from
// the column store, compiles their expressions once, and publishes
// them as immutable slices that workers read without locking. Every
// stage (normalizer, filter, stream correlator, batch correlator) uses
// the same load-compile-publish shape, varying only in row type and
// ordering.
package rules

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/northwind-sec/siemflow/internal/dslfilter"
	"github.com/northwind-sec/siemflow/internal/pathexpr"
	"github.com/northwind-sec/siemflow/internal/store"
)

const (
	ActionPass = "pass"
	ActionDrop = "drop"
	ActionTag  = "tag"
)

// NormalizerRule is a compiled normalizer_rules row: a raw-event path
// expression per UEM target field.
type NormalizerRule struct {
	ID           int32
	Priority     int32
	SourceType   string
	EventMatcher string
	Mappings     map[string]*pathexpr.Expr
}

// FilterRule is a compiled filter_rules row.
type FilterRule struct {
	ID         int32
	Priority   int32
	Action     string
	Tags       []string
	AST        dslfilter.Node // nil if the stored expression failed to parse
}

// StreamCorrelationRule is a compiled correlation_rules_stream row.
type StreamCorrelationRule struct {
	ID          int32
	Priority    int32
	Name        string
	Severity    string
	WindowS     uint32
	Threshold   uint32
	EntityField string
	AST         dslfilter.Node
}

// BatchCorrelationRule is a correlation_rules_batch row. Its SQL
// template is opaque and substituted at execution time, not compiled.
type BatchCorrelationRule struct {
	ID          int32
	Name        string
	WindowS     uint32
	SQLTemplate string
}

// compileMapping parses a normalizer rule's uem_mapping JSON object and
// compiles each expression. A malformed mapping entry is logged by the
// caller and dropped; it does not invalidate the whole rule.
func compileMapping(raw string) (map[string]*pathexpr.Expr, []error) {
	var fields map[string]string
	out := make(map[string]*pathexpr.Expr)
	if strings.TrimSpace(raw) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return out, []error{fmt.Errorf("uem_mapping: invalid json: %w", err)}
	}

	var errs []error
	for uemField, exprText := range fields {
		expr, err := pathexpr.Compile(exprText)
		if err != nil {
			errs = append(errs, fmt.Errorf("uem_mapping[%s]=%q: %w", uemField, exprText, err))
			continue
		}
		out[uemField] = expr
	}
	return out, errs
}

func splitTags(csv string) []string {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func compileNormalizerRow(r store.NormalizerRuleRow) (NormalizerRule, []error) {
	mappings, errs := compileMapping(r.MappingJSON)
	return NormalizerRule{
		ID:           r.ID,
		Priority:     r.Priority,
		SourceType:   r.SourceType,
		EventMatcher: r.EventMatcher,
		Mappings:     mappings,
	}, errs
}

func compileFilterRow(r store.FilterRuleRow) (FilterRule, error) {
	fr := FilterRule{
		ID:       r.ID,
		Priority: r.Priority,
		Action:   r.Action,
		Tags:     splitTags(r.TagsCSV),
	}
	ast, err := dslfilter.Parse(r.Expression)
	if err != nil {
		return fr, err
	}
	fr.AST = ast
	return fr, nil
}

func compileStreamCorrRow(r store.StreamCorrelationRuleRow) (StreamCorrelationRule, error) {
	sr := StreamCorrelationRule{
		ID:          r.ID,
		Priority:    r.Priority,
		Name:        r.Name,
		Severity:    r.Severity,
		WindowS:     uint32(r.WindowS),
		Threshold:   uint32(r.Threshold),
		EntityField: r.EntityField,
	}
	ast, err := dslfilter.Parse(r.Expression)
	if err != nil {
		return sr, err
	}
	sr.AST = ast
	return sr, nil
}

func compileBatchCorrRow(r store.BatchCorrelationRuleRow) BatchCorrelationRule {
	return BatchCorrelationRule{
		ID:          r.ID,
		Name:        r.Name,
		WindowS:     uint32(r.WindowS),
		SQLTemplate: r.SQLTemplate,
	}
}
