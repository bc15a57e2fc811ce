package normalizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/northwind-sec/siemflow/internal/pathexpr"
	"github.com/northwind-sec/siemflow/internal/rules"
	"github.com/northwind-sec/siemflow/internal/uem"
)

func TestApply_NoRulesStillFillsDefaults(t *testing.T) {
	raw := uem.RawEvent{uem.FieldSourceType: "http_json", uem.FieldMessage: "x"}
	out := Apply(raw, nil)
	require.Equal(t, "http_json", out[uem.FieldEventProvider])
	require.Equal(t, "x", out[uem.FieldEventOriginal])
}

func TestApply_EmptyMappingUsesDefaultsOnly(t *testing.T) {
	raw := uem.RawEvent{uem.FieldSourceType: "http_json", uem.FieldMessage: "x"}
	rule := rules.NormalizerRule{ID: 1, Mappings: map[string]*pathexpr.Expr{}}
	out := Apply(raw, []rules.NormalizerRule{rule})
	require.Equal(t, uem.Event{
		uem.FieldEventProvider: "http_json",
		uem.FieldEventOriginal: "x",
	}, out)
}

func TestApply_MappingFieldsArePopulated(t *testing.T) {
	raw := uem.RawEvent{
		"source_type": "syslog",
		"message":     "auth failed",
		"src_ip":      "10.0.0.5",
	}
	rule := rules.NormalizerRule{
		ID: 1,
		Mappings: map[string]*pathexpr.Expr{
			uem.FieldSourceIP: pathexpr.MustCompile("src_ip"),
		},
	}
	out := Apply(raw, []rules.NormalizerRule{rule})
	require.Equal(t, "10.0.0.5", out[uem.FieldSourceIP])
	require.Equal(t, "syslog", out[uem.FieldEventProvider])
	require.Equal(t, "auth failed", out[uem.FieldEventOriginal])
}

func TestApply_MissingMessageFallsBackToStringifiedRaw(t *testing.T) {
	raw := uem.RawEvent{uem.FieldSourceType: "http_json"}
	out := Apply(raw, nil)
	require.Equal(t, "http_json", out[uem.FieldEventProvider])
	require.NotEmpty(t, out[uem.FieldEventOriginal])
	require.Contains(t, out[uem.FieldEventOriginal], "source_type")
}

func TestApply_MissingPathStoresEmptyString(t *testing.T) {
	raw := uem.RawEvent{uem.FieldSourceType: "syslog", uem.FieldMessage: "x"}
	rule := rules.NormalizerRule{
		ID: 1,
		Mappings: map[string]*pathexpr.Expr{
			uem.FieldSourceIP: pathexpr.MustCompile("src_ip"),
		},
	}
	out := Apply(raw, []rules.NormalizerRule{rule})
	v, ok := out[uem.FieldSourceIP]
	require.True(t, ok)
	require.Equal(t, "", v)
}

func TestApply_OnlyFirstRuleIsUsed(t *testing.T) {
	raw := uem.RawEvent{"a": "1", "b": "2"}
	first := rules.NormalizerRule{ID: 1, Mappings: map[string]*pathexpr.Expr{
		uem.FieldEventCategory: pathexpr.MustCompile("a"),
	}}
	second := rules.NormalizerRule{ID: 2, Mappings: map[string]*pathexpr.Expr{
		uem.FieldEventType: pathexpr.MustCompile("b"),
	}}
	out := Apply(raw, []rules.NormalizerRule{first, second})
	require.Equal(t, "1", out[uem.FieldEventCategory])
	require.Empty(t, out[uem.FieldEventType])
}
