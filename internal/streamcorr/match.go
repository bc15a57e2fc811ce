package streamcorr

import (
	"github.com/northwind-sec/siemflow/internal/dslfilter"
	"github.com/northwind-sec/siemflow/internal/rules"
	"github.com/northwind-sec/siemflow/internal/uem"
)

// matchRule evaluates a stream correlation rule's expression using the
// same evaluator the filter stage uses.
func matchRule(rule rules.StreamCorrelationRule, event uem.Event) (bool, error) {
	return dslfilter.Eval(rule.AST, event)
}
