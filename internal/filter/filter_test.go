package filter

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/northwind-sec/siemflow/internal/dslfilter"
	"github.com/northwind-sec/siemflow/internal/rules"
	"github.com/northwind-sec/siemflow/internal/uem"
)

func mustParse(t *testing.T, expr string) dslfilter.Node {
	t.Helper()
	ast, err := dslfilter.Parse(expr)
	require.NoError(t, err)
	return ast
}

// TestEvaluate_TagStopsAtFirstMatch checks that when two tag rules
// both match, only the first rule's tags apply.
func TestEvaluate_TagStopsAtFirstMatch(t *testing.T) {
	first := rules.FilterRule{ID: 1, Priority: 1, Action: rules.ActionTag, Tags: []string{"a"}, AST: mustParse(t, "x == '1'")}
	second := rules.FilterRule{ID: 2, Priority: 2, Action: rules.ActionTag, Tags: []string{"b"}, AST: mustParse(t, "x == '1'")}

	event := uem.Event{"x": "1"}
	decision := Evaluate(event, []rules.FilterRule{first, second}, zap.NewNop())

	require.Equal(t, DecisionTag, decision)
	require.Equal(t, "a", event[uem.FieldTags])
}

// TestEvaluate_DropPrecedence checks that whichever matching rule comes
// first in the rule slice wins, regardless of action; Evaluate takes the
// slice order as given and does not sort by Priority.
func TestEvaluate_DropPrecedence(t *testing.T) {
	tag := rules.FilterRule{ID: 1, Priority: 1, Action: rules.ActionTag, Tags: []string{"a"}, AST: mustParse(t, "x == '1'")}
	drop := rules.FilterRule{ID: 2, Priority: 2, Action: rules.ActionDrop, AST: mustParse(t, "x == '1'")}

	event := uem.Event{"x": "1"}
	decision := Evaluate(event, []rules.FilterRule{tag, drop}, zap.NewNop())
	require.Equal(t, DecisionTag, decision)

	event2 := uem.Event{"x": "1"}
	decision2 := Evaluate(event2, []rules.FilterRule{drop, tag}, zap.NewNop())
	require.Equal(t, DecisionDrop, decision2)
}

func TestEvaluate_NonMatchingRulesAreSkipped(t *testing.T) {
	rule := rules.FilterRule{ID: 1, Action: rules.ActionDrop, AST: mustParse(t, "x == '2'")}
	event := uem.Event{"x": "1"}
	require.Equal(t, DecisionPass, Evaluate(event, []rules.FilterRule{rule}, zap.NewNop()))
	require.Equal(t, uem.Event{"x": "1"}, event)
}

func TestEvaluate_NilASTRuleIsSkipped(t *testing.T) {
	rule := rules.FilterRule{ID: 1, Action: rules.ActionDrop, AST: nil}
	event := uem.Event{"x": "1"}
	require.Equal(t, DecisionPass, Evaluate(event, []rules.FilterRule{rule}, zap.NewNop()))
}

func TestEvaluate_TagMergesWithExistingTags(t *testing.T) {
	rule := rules.FilterRule{ID: 1, Action: rules.ActionTag, Tags: []string{"b"}, AST: mustParse(t, "x == '1'")}
	event := uem.Event{"x": "1", uem.FieldTags: "a"}
	Evaluate(event, []rules.FilterRule{rule}, zap.NewNop())
	require.Equal(t, "a,b", event[uem.FieldTags])
}

func TestEvaluate_TagRuleWithNoTagsReturnsPass(t *testing.T) {
	rule := rules.FilterRule{ID: 1, Action: rules.ActionTag, Tags: nil, AST: mustParse(t, "x == '1'")}
	event := uem.Event{"x": "1"}
	require.Equal(t, DecisionPass, Evaluate(event, []rules.FilterRule{rule}, zap.NewNop()))
	require.Equal(t, uem.Event{"x": "1"}, event)
}

func TestEvaluate_PassStopsIteration(t *testing.T) {
	pass := rules.FilterRule{ID: 1, Action: rules.ActionPass, AST: mustParse(t, "x == '1'")}
	drop := rules.FilterRule{ID: 2, Action: rules.ActionDrop, AST: mustParse(t, "x == '1'")}
	event := uem.Event{"x": "1"}
	require.Equal(t, DecisionPass, Evaluate(event, []rules.FilterRule{pass, drop}, zap.NewNop()))
}
