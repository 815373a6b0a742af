package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/hanpama/blueprint/internal/value"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		tag  string
		want Kind
	}{
		{"EVENT_BEGIN_PLAY", Begin()},
		{"ACTION_PRINT_STRING", Print()},
		{"BRANCH", Branch()},
		{"FOR_LOOP", ForLoop()},
		{"MATH_ADD_INT", AddInt()},
		{"LITERAL_BOOLEAN", LiteralBoolean()},
		{"GET_VAR_abc-123", GetVariable("abc-123")},
		{"SET_VAR_abc-123", SetVariable("abc-123")},
	}
	for _, tc := range cases {
		t.Run(tc.tag, func(t *testing.T) {
			got := ParseKind(tc.tag)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.tag, got.String())
		})
	}
}

func TestParseKind_Unknown(t *testing.T) {
	k := ParseKind("SPAWN_ACTOR")
	assert.Equal(t, OpUnknown, k.Op)
	assert.Equal(t, "SPAWN_ACTOR", k.String())

	// A bare prefix references no variable.
	assert.Equal(t, OpUnknown, ParseKind("GET_VAR_").Op)
}

func TestKindIsLiteral(t *testing.T) {
	assert.True(t, LiteralString().IsLiteral())
	assert.True(t, LiteralFloat().IsLiteral())
	assert.False(t, AddInt().IsLiteral())
	assert.False(t, GetVariable("x").IsLiteral())
}

func TestDataTypeAccepts(t *testing.T) {
	assert.True(t, Integer.Accepts(Integer))
	assert.True(t, Integer.Accepts(Any))
	assert.True(t, Any.Accepts(String))
	assert.False(t, Integer.Accepts(Float))
}

func TestDataTypeConform(t *testing.T) {
	got, err := Integer.Conform(cty.NumberFloatVal(-3.75))
	require.NoError(t, err)
	assert.True(t, got.RawEquals(cty.NumberIntVal(-3)))

	got, err = Integer.Conform(cty.NullVal(cty.DynamicPseudoType))
	require.NoError(t, err)
	assert.True(t, got.IsNull())

	got, err = Float.Conform(cty.StringVal("0.5"))
	require.NoError(t, err)
	assert.True(t, got.RawEquals(cty.NumberFloatVal(0.5)))

	_, err = Integer.Conform(cty.PositiveInfinity)
	require.ErrorIs(t, err, value.ErrNotNumber)

	_, err = Boolean.Conform(cty.StringVal("maybe"))
	require.ErrorIs(t, err, value.ErrNotConvertible)
}
