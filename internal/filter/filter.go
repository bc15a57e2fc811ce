// Package filter implements the tag/drop/pass decision procedure
// against the UEM event stream.
package filter

import (
	"strings"

	"go.uber.org/zap"

	"github.com/northwind-sec/siemflow/internal/dslfilter"
	"github.com/northwind-sec/siemflow/internal/rules"
	"github.com/northwind-sec/siemflow/internal/uem"
)

// Decision is the outcome of evaluating an event against a filter rule
// set.
type Decision string

const (
	DecisionPass Decision = "pass"
	DecisionDrop Decision = "drop"
	DecisionTag  Decision = "tag"
)

// Evaluate walks ruleset in priority order: skip rules with a nil AST
// or an evaluator error, return drop immediately on a matching drop
// rule, and stop iterating at the first matching tag or pass rule.
// When a tag rule stops iteration and has tags to apply, they are
// merged into event's existing "tags" field (comma-joined) and
// Decision is tag; a tag rule with no tags, or a pass rule, leaves the
// event unmodified and returns pass.
func Evaluate(event uem.Event, ruleset []rules.FilterRule, log *zap.Logger) Decision {
	for _, rule := range ruleset {
		if rule.AST == nil {
			continue
		}

		matched, err := dslfilter.Eval(rule.AST, event)
		if err != nil {
			log.Warn("filter rule evaluation failed", zap.Int32("rule_id", rule.ID), zap.Error(err))
			continue
		}
		if !matched {
			continue
		}

		switch rule.Action {
		case rules.ActionDrop:
			return DecisionDrop
		case rules.ActionTag:
			if len(rule.Tags) == 0 {
				return DecisionPass
			}
			mergeTags(event, rule.Tags)
			return DecisionTag
		case rules.ActionPass:
			return DecisionPass
		}
	}
	return DecisionPass
}

func mergeTags(event uem.Event, tags []string) {
	if len(tags) == 0 {
		return
	}
	joined := strings.Join(tags, ",")
	if existing := event[uem.FieldTags]; existing != "" {
		event[uem.FieldTags] = existing + "," + joined
	} else {
		event[uem.FieldTags] = joined
	}
}
