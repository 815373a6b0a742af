package value

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestInt(t *testing.T) {
	cases := []struct {
		name string
		in   cty.Value
		want int64
	}{
		{"integer", cty.NumberIntVal(42), 42},
		{"truncates fraction", cty.NumberFloatVal(3.7), 3},
		{"truncates negative toward zero", cty.NumberFloatVal(-3.7), -3},
		{"numeric string", cty.StringVal("12"), 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Int(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIntRejectsNonNumbers(t *testing.T) {
	for _, in := range []cty.Value{Null, cty.NilVal, cty.True, cty.StringVal("twelve")} {
		_, err := Int(in)
		require.ErrorIs(t, err, ErrNotNumber, "input %#v", in)
	}
}

func TestIntRejectsOutOfRange(t *testing.T) {
	for _, in := range []cty.Value{
		cty.NumberFloatVal(1e30),
		cty.StringVal("-1e30"),
		IntVal(new(big.Int).Add(big.NewInt(math.MaxInt64), big.NewInt(1))),
	} {
		_, err := Int(in)
		require.ErrorIs(t, err, ErrOutOfRange, "input %#v", in)
	}

	got, err := Int(cty.NumberIntVal(math.MinInt64))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), got)
}

func TestWhole(t *testing.T) {
	got, err := Whole(cty.NumberFloatVal(1e30))
	require.NoError(t, err)
	want, _ := new(big.Int).SetString("1000000000000000019884624838656", 10)
	assert.Equal(t, 0, want.Cmp(got), "got %s", got)

	got, err = Whole(cty.NumberFloatVal(-2.5))
	require.NoError(t, err)
	assert.Equal(t, int64(-2), got.Int64())

	_, err = Whole(cty.PositiveInfinity)
	require.ErrorIs(t, err, ErrNotNumber)
}

func TestIntValKeepsPrecision(t *testing.T) {
	i, _ := new(big.Int).SetString("9223372036854775808", 10)
	assert.Equal(t, "9223372036854775808", String(IntVal(i)))
}

func TestFloat(t *testing.T) {
	got, err := Float(cty.StringVal("1.5"))
	require.NoError(t, err)
	assert.Equal(t, 1.5, got)
}

func TestTruthy(t *testing.T) {
	assert.True(t, Truthy(cty.True))
	assert.False(t, Truthy(cty.False))
	assert.False(t, Truthy(Null))
	assert.False(t, Truthy(cty.NilVal))
	assert.False(t, Truthy(cty.NumberIntVal(0)))
	assert.True(t, Truthy(cty.NumberIntVal(-1)))
	assert.False(t, Truthy(cty.StringVal("")))
	assert.True(t, Truthy(cty.StringVal("false")))
}

func TestString(t *testing.T) {
	assert.Equal(t, "6", String(cty.NumberIntVal(6)))
	assert.Equal(t, "0.5", String(cty.NumberFloatVal(0.5)))
	assert.Equal(t, "true", String(cty.True))
	assert.Equal(t, "Hello", String(cty.StringVal("Hello")))
	assert.Equal(t, "", String(Null))
}

func TestConform(t *testing.T) {
	got, err := Conform(cty.StringVal("7"), cty.Number)
	require.NoError(t, err)
	require.Equal(t, cty.Number, got.Type())
	n, err := Int(got)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	kept, err := Conform(cty.True, cty.DynamicPseudoType)
	require.NoError(t, err)
	assert.True(t, kept.RawEquals(cty.True))

	_, err = Conform(cty.StringVal("yes please"), cty.Bool)
	require.ErrorIs(t, err, ErrNotConvertible)
}
