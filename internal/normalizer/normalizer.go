// Package normalizer turns RawEvent records into UEM events by applying
// the first enabled normalizer rule's field mappings.
package normalizer

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/northwind-sec/siemflow/internal/pathexpr"
	"github.com/northwind-sec/siemflow/internal/rules"
	"github.com/northwind-sec/siemflow/internal/uem"
)

// Apply evaluates the first entry of ruleset against raw and returns the
// resulting UEM event. ruleset is assumed already ordered
// (priority asc, id asc); there is no source_type or event_matcher
// filtering — rule selection is "first rule, period" per spec.
func Apply(raw uem.RawEvent, ruleset []rules.NormalizerRule) uem.Event {
	out := make(uem.Event)

	if len(ruleset) > 0 {
		applyMappings(raw, ruleset[0], out)
	}
	applyDefaults(raw, out)
	return out
}

func applyMappings(raw uem.RawEvent, rule rules.NormalizerRule, out uem.Event) {
	doc := toDoc(raw)
	for uemField, expr := range rule.Mappings {
		v, ok := pathexpr.Search(expr, doc)
		if !ok {
			out[uemField] = ""
			continue
		}
		out[uemField] = stringify(v)
	}
}

func applyDefaults(raw uem.RawEvent, out uem.Event) {
	if out.Get(uem.FieldEventProvider) == "" {
		out[uem.FieldEventProvider] = raw[uem.FieldSourceType]
	}
	if out.Get(uem.FieldEventOriginal) == "" {
		if msg := raw[uem.FieldMessage]; msg != "" {
			out[uem.FieldEventOriginal] = msg
		} else {
			out[uem.FieldEventOriginal] = stringifyRaw(raw)
		}
	}
}

func toDoc(raw uem.RawEvent) map[string]interface{} {
	doc := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		doc[k] = v
	}
	return doc
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case fmt.Stringer:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// stringifyRaw renders a raw event as a deterministic fallback string
// when no message field is available — keys sorted so the output is
// stable across calls, which matters for tests and for log readability.
func stringifyRaw(raw uem.RawEvent) string {
	if len(raw) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := "{"
	for i, k := range keys {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%q:%q", k, raw[k])
	}
	s += "}"
	return s
}
