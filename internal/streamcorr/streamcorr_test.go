package streamcorr

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/northwind-sec/siemflow/internal/broker"
	"github.com/northwind-sec/siemflow/internal/dslfilter"
	"github.com/northwind-sec/siemflow/internal/rules"
	"github.com/northwind-sec/siemflow/internal/uem"
)

func newTestCorrelator(t *testing.T) *Correlator {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := broker.NewFromRedisClient(rdb, zap.NewNop())
	return NewCorrelator(b, zap.NewNop())
}

func thresholdRule(t *testing.T) rules.StreamCorrelationRule {
	ast, err := dslfilter.Parse("event.category == 'authentication'")
	require.NoError(t, err)
	return rules.StreamCorrelationRule{
		ID: 1, Name: "ssh-bruteforce", Severity: "high",
		WindowS: 60, Threshold: 3, EntityField: "user", AST: ast,
	}
}

// TestEvaluate_ThresholdWindowTimeline walks a full window-fill,
// threshold-cross, suppression, and re-alert timeline through the
// correlator's public Evaluate entrypoint.
func TestEvaluate_ThresholdWindowTimeline(t *testing.T) {
	c := newTestCorrelator(t)
	ctx := context.Background()
	rule := thresholdRule(t)
	ruleset := []rules.StreamCorrelationRule{rule}
	base := time.Unix(1_700_000_000, 0)
	at := func(sec int) time.Time { return base.Add(time.Duration(sec) * time.Second) }

	event := uem.Event{"event.category": "authentication", "user": "u1"}

	alerts, err := c.Evaluate(ctx, event, "m0", ruleset, at(0))
	require.NoError(t, err)
	require.Empty(t, alerts)

	alerts, err = c.Evaluate(ctx, event, "m1", ruleset, at(10))
	require.NoError(t, err)
	require.Empty(t, alerts)

	alerts, err = c.Evaluate(ctx, event, "m2", ruleset, at(20))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, int32(3), alerts[0].Hits)
	require.Equal(t, at(20).Add(-60*time.Second), alerts[0].FirstSeen)
	require.Equal(t, at(20), alerts[0].LastSeen)
	require.Equal(t, "stream", alerts[0].Source)

	// t=30: within the suppression window since the t=20 alert.
	alerts, err = c.Evaluate(ctx, event, "m3", ruleset, at(30))
	require.NoError(t, err)
	require.Empty(t, alerts)

	// t=80: window has evicted down to size 2 — below threshold.
	alerts, err = c.Evaluate(ctx, event, "m4", ruleset, at(80))
	require.NoError(t, err)
	require.Empty(t, alerts)

	// t=90: still size 2.
	alerts, err = c.Evaluate(ctx, event, "m5", ruleset, at(90))
	require.NoError(t, err)
	require.Empty(t, alerts)

	// t=100: size back to 3, and 80s since the last alert exceeds the
	// 60s window — a new alert fires.
	alerts, err = c.Evaluate(ctx, event, "m6", ruleset, at(100))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, int32(3), alerts[0].Hits)
}

func TestEvaluate_EmptyEntityFieldSkipsRule(t *testing.T) {
	c := newTestCorrelator(t)
	rule := thresholdRule(t)
	event := uem.Event{"event.category": "authentication"} // no "user" field

	alerts, err := c.Evaluate(context.Background(), event, "m0", []rules.StreamCorrelationRule{rule}, time.Now())
	require.NoError(t, err)
	require.Empty(t, alerts)
}

func TestEvaluate_NonMatchingEventProducesNoAlert(t *testing.T) {
	c := newTestCorrelator(t)
	rule := thresholdRule(t)
	event := uem.Event{"event.category": "network", "user": "u1"}

	alerts, err := c.Evaluate(context.Background(), event, "m0", []rules.StreamCorrelationRule{rule}, time.Now())
	require.NoError(t, err)
	require.Empty(t, alerts)
}

func TestEvaluate_NilASTRuleIsSkipped(t *testing.T) {
	c := newTestCorrelator(t)
	rule := rules.StreamCorrelationRule{ID: 1, EntityField: "user", AST: nil}
	event := uem.Event{"user": "u1"}

	alerts, err := c.Evaluate(context.Background(), event, "m0", []rules.StreamCorrelationRule{rule}, time.Now())
	require.NoError(t, err)
	require.Empty(t, alerts)
}
