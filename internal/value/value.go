// Package value holds the coercion rules the engine applies to pin and
// variable values. Values are cty.Value throughout; this package decides how
// they behave when a node needs a number, a condition or a printable string.
package value

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Null is the value of an unset pin or variable.
var Null = cty.NullVal(cty.DynamicPseudoType)

var (
	// ErrNotNumber reports a value that cannot take part in arithmetic.
	ErrNotNumber = errors.New("value is not a number")
	// ErrNotConvertible reports a value that does not fit a declared type.
	ErrNotConvertible = errors.New("value does not fit declared type")
	// ErrOutOfRange reports a whole number that does not fit in an int64.
	ErrOutOfRange = errors.New("value out of integer range")
)

// OrNull turns the zero cty.Value into Null so callers never hold NilVal.
func OrNull(v cty.Value) cty.Value {
	if v.Type() == cty.NilType {
		return Null
	}
	return v
}

// Whole coerces v to a whole number, truncating toward zero. The result is
// exact at any magnitude. Strings holding a decimal number are accepted.
func Whole(v cty.Value) (*big.Int, error) {
	n, err := number(v)
	if err != nil {
		return nil, err
	}
	bf := n.AsBigFloat()
	if bf.IsInf() {
		return nil, fmt.Errorf("%w: %s", ErrNotNumber, bf.Text('g', -1))
	}
	i, _ := bf.Int(nil)
	return i, nil
}

// Int is Whole narrowed to an int64. Values outside the int64 range are
// rejected with ErrOutOfRange rather than clamped.
func Int(v cty.Value) (int64, error) {
	i, err := Whole(v)
	if err != nil {
		return 0, err
	}
	if !i.IsInt64() {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, i)
	}
	return i.Int64(), nil
}

// IntVal wraps a whole number as a cty number without losing precision.
func IntVal(i *big.Int) cty.Value {
	return cty.NumberVal(new(big.Float).SetInt(i))
}

// Float coerces v to a float64.
func Float(v cty.Value) (float64, error) {
	n, err := number(v)
	if err != nil {
		return 0, err
	}
	f, _ := n.AsBigFloat().Float64()
	return f, nil
}

func number(v cty.Value) (cty.Value, error) {
	v = OrNull(v)
	if v.IsNull() || !v.IsKnown() {
		return cty.NilVal, fmt.Errorf("%w: null", ErrNotNumber)
	}
	n, err := convert.Convert(v, cty.Number)
	if err != nil {
		return cty.NilVal, fmt.Errorf("%w: %s", ErrNotNumber, describe(v))
	}
	return n, nil
}

// Truthy reports whether v selects the True side of a condition.
// Null, false, zero and the empty string are false; everything else is true.
func Truthy(v cty.Value) bool {
	v = OrNull(v)
	if v.IsNull() || !v.IsKnown() {
		return false
	}
	switch v.Type() {
	case cty.Bool:
		return v.True()
	case cty.Number:
		return v.AsBigFloat().Sign() != 0
	case cty.String:
		return v.AsString() != ""
	default:
		return true
	}
}

// String renders v the way a print node shows it. Null renders empty.
func String(v cty.Value) string {
	v = OrNull(v)
	if v.IsNull() || !v.IsKnown() {
		return ""
	}
	switch v.Type() {
	case cty.String:
		return v.AsString()
	case cty.Bool:
		return strconv.FormatBool(v.True())
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return v.GoString()
	}
	return s.AsString()
}

// Conform converts v to want. cty.DynamicPseudoType accepts any value as is.
func Conform(v cty.Value, want cty.Type) (cty.Value, error) {
	v = OrNull(v)
	if want == cty.DynamicPseudoType || want == cty.NilType {
		return v, nil
	}
	out, err := convert.Convert(v, want)
	if err != nil {
		return cty.NilVal, fmt.Errorf("%w: %s to %s", ErrNotConvertible, describe(v), want.FriendlyName())
	}
	return out, nil
}

func describe(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	return v.Type().FriendlyName()
}
