// Package streamcorr implements threshold-based stream correlation:
// detecting >= threshold matches of a rule for the same entity within a
// rolling window, emitting one alert per window and suppressing
// re-alerts until the window has elapsed since the last emission.
package streamcorr

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/northwind-sec/siemflow/internal/broker"
	"github.com/northwind-sec/siemflow/internal/rules"
	"github.com/northwind-sec/siemflow/internal/store"
	"github.com/northwind-sec/siemflow/internal/uem"
)

// Correlator evaluates events against the current stream correlation
// rule set, maintaining sliding-window state in the broker.
type Correlator struct {
	broker *broker.Client
	log    *zap.Logger
}

func NewCorrelator(b *broker.Client, log *zap.Logger) *Correlator {
	return &Correlator{broker: b, log: log}
}

// alertContext is the context_json payload for a stream-produced alert.
type alertContext struct {
	RuleID      int32  `json:"rule_id"`
	EntityKey   string `json:"entity_key"`
	Description string `json:"description"`
}

// Evaluate applies every rule in ruleset to event independently,
// returning one AlertRow per rule that crosses its threshold and is not
// currently suppressed. A rule whose expression does not match, or
// whose entity field is empty on this event, contributes nothing.
func (c *Correlator) Evaluate(ctx context.Context, event uem.Event, messageID string, ruleset []rules.StreamCorrelationRule, now time.Time) ([]store.AlertRow, error) {
	var alerts []store.AlertRow

	for _, rule := range ruleset {
		if rule.AST == nil {
			continue
		}

		matched, err := matchRule(rule, event)
		if err != nil {
			c.log.Warn("stream correlation rule evaluation failed", zap.Int32("rule_id", rule.ID), zap.Error(err))
			continue
		}
		if !matched {
			continue
		}

		entityKey := event.Get(rule.EntityField)
		if entityKey == "" {
			continue
		}

		alert, err := c.touchAndDecide(ctx, rule, entityKey, messageID, now)
		if err != nil {
			return alerts, err
		}
		if alert != nil {
			alerts = append(alerts, *alert)
		}
	}

	return alerts, nil
}

func (c *Correlator) touchAndDecide(ctx context.Context, rule rules.StreamCorrelationRule, entityKey, messageID string, now time.Time) (*store.AlertRow, error) {
	ruleIDKey := fmt.Sprint(rule.ID)

	state, err := c.broker.TouchWindow(ctx, ruleIDKey, entityKey, messageID, now, rule.WindowS)
	if err != nil {
		return nil, err
	}

	if state.Size < int64(rule.Threshold) {
		return nil, nil
	}

	if state.HasLastAlert {
		elapsed := now.Sub(time.Unix(int64(state.LastAlertTS), 0))
		if elapsed < time.Duration(rule.WindowS)*time.Second {
			return nil, nil
		}
	}

	if err := c.broker.SetLastAlert(ctx, ruleIDKey, entityKey, now); err != nil {
		return nil, err
	}

	ctxJSON, err := json.Marshal(alertContext{RuleID: rule.ID, EntityKey: entityKey, Description: ""})
	if err != nil {
		return nil, fmt.Errorf("streamcorr: marshal context_json: %w", err)
	}

	return &store.AlertRow{
		AlertID:     uuid.NewString(),
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		Severity:    rule.Severity,
		Source:      "stream",
		EntityKey:   entityKey,
		WindowS:     int32(rule.WindowS),
		Hits:        int32(state.Size),
		FirstSeen:   now.Add(-time.Duration(rule.WindowS) * time.Second),
		LastSeen:    now,
		ContextJSON: string(ctxJSON),
		CreatedAt:   now,
	}, nil
}
