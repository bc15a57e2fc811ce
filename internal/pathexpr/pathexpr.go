// Package pathexpr implements the normalizer's mapping expression
// language: a small subset of JMESPath-equivalent path extraction used to
// pull a value out of a raw event. An expression is compiled once when a
// normalizer rule is loaded and evaluated once per matching event.
package pathexpr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyExpression is returned by Compile for an empty or whitespace-only
// expression string.
var ErrEmptyExpression = errors.New("pathexpr: empty expression")

// Expr is a compiled mapping expression.
type Expr struct {
	raw      string
	segments []string
}

// Compile parses expr into a reusable Expr. The grammar supported is
// intentionally small: a bare field name ("message"), a dotted path
// ("event.original"), or a raw field name that itself contains dots
// ("x-forwarded.for") which is tried as an opaque key before any path
// traversal is attempted.
func Compile(expr string) (*Expr, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, ErrEmptyExpression
	}
	return &Expr{
		raw:      trimmed,
		segments: strings.Split(trimmed, "."),
	}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// static expressions, never for rule loading at runtime.
func MustCompile(expr string) *Expr {
	e, err := Compile(expr)
	if err != nil {
		panic(fmt.Sprintf("pathexpr: %v", err))
	}
	return e
}

// String returns the original, uncompiled expression text.
func (e *Expr) String() string {
	return e.raw
}

// Search evaluates the expression against doc. Raw field names containing
// dots are opaque keys: the full expression text is tried as a literal key
// first. Only if that misses does Search fall back to segment-by-segment
// traversal, descending into nested map[string]interface{} values — this
// is a no-op for the flat map[string]string raw events this pipeline
// actually sees today, but keeps the evaluator correct if a future source
// produces nested documents.
//
// Returns (value, true) on a hit, (nil, false) if the path does not
// resolve.
func Search(e *Expr, doc map[string]interface{}) (interface{}, bool) {
	if v, ok := doc[e.raw]; ok {
		return v, true
	}

	var cur interface{} = doc
	for i, seg := range e.segments {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		if i == len(e.segments)-1 {
			return v, true
		}
		cur = v
	}
	return nil, false
}

// SearchString is Search specialized for string-valued raw events: it
// converts the flat uem.RawEvent-shaped map into the generic document
// Search expects, then stringifies the result. A missing path returns
// ("", false); the caller decides whether that means "use a default".
func SearchString(e *Expr, event map[string]string) (string, bool) {
	doc := make(map[string]interface{}, len(event))
	for k, v := range event {
		doc[k] = v
	}
	v, ok := Search(e, doc)
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	default:
		return fmt.Sprint(t), true
	}
}
