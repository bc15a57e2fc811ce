package dslfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimpleComparison(t *testing.T) {
	ast, err := Parse("event.provider == 'http_json'")
	require.NoError(t, err)
	assert.Equal(t, Cmp{Field: "event.provider", Op: OpEq, Literal: "http_json"}, ast)
}

func TestParse_AndChain(t *testing.T) {
	// Two comparisons joined by 'and' parse into a single And node.
	ast, err := Parse("event.provider == 'http_json' and event.category == 'test'")
	require.NoError(t, err)
	want := And{
		Left:  Cmp{Field: "event.provider", Op: OpEq, Literal: "http_json"},
		Right: Cmp{Field: "event.category", Op: OpEq, Literal: "test"},
	}
	assert.Equal(t, want, ast)
}

func TestParse_MixedAndOrLeftToRight(t *testing.T) {
	ast, err := Parse("a == '1' and b == '2' or c == '3'")
	require.NoError(t, err)
	want := Or{
		Left: And{
			Left:  Cmp{Field: "a", Op: OpEq, Literal: "1"},
			Right: Cmp{Field: "b", Op: OpEq, Literal: "2"},
		},
		Right: Cmp{Field: "c", Op: OpEq, Literal: "3"},
	}
	assert.Equal(t, want, ast)
}

func TestParse_NotEqual(t *testing.T) {
	ast, err := Parse("x != 'y'")
	require.NoError(t, err)
	assert.Equal(t, Cmp{Field: "x", Op: OpNe, Literal: "y"}, ast)
}

func TestParse_EmptyExpressionIsError(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)

	_, err = Parse("   ")
	assert.Error(t, err)
}

func TestParse_TrailingTokensIsError(t *testing.T) {
	_, err := Parse("a == 'b' c")
	assert.Error(t, err)
}

func TestParse_UnterminatedStringIsError(t *testing.T) {
	_, err := Parse("a == 'b")
	assert.Error(t, err)
}

func TestParse_MissingOperatorIsError(t *testing.T) {
	_, err := Parse("a 'b'")
	assert.Error(t, err)
}

func TestParse_DottedFieldNames(t *testing.T) {
	ast, err := Parse("source.ip == '10.0.0.1'")
	require.NoError(t, err)
	assert.Equal(t, Cmp{Field: "source.ip", Op: OpEq, Literal: "10.0.0.1"}, ast)
}
