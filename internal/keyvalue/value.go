// Package keyvalue implements the tagged-union key domain the splitter
// partitions over: integers, decimals, floats, strings, dates and
// timestamps, with type-aware compare/minus/plus operations.
package keyvalue

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the concrete domain a Value was constructed from.
type Kind int

const (
	KindInt64 Kind = iota
	KindUint64
	KindDecimal
	KindFloat32
	KindFloat64
	KindString
	KindDate
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindDecimal:
		return "decimal"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Value is an immutable key drawn from the split column's domain.
type Value struct {
	kind Kind
	i64  int64
	u64  uint64
	dec  decimal.Decimal
	f32  float32
	f64  float64
	str  string
	t    time.Time
}

func NewInt64(v int64) Value         { return Value{kind: KindInt64, i64: v} }
func NewUint64(v uint64) Value       { return Value{kind: KindUint64, u64: v} }
func NewDecimal(v decimal.Decimal) Value { return Value{kind: KindDecimal, dec: v} }
func NewFloat32(v float32) Value     { return Value{kind: KindFloat32, f32: v} }
func NewFloat64(v float64) Value     { return Value{kind: KindFloat64, f64: v} }
func NewString(v string) Value       { return Value{kind: KindString, str: v} }
func NewDate(v time.Time) Value      { return Value{kind: KindDate, t: v.Truncate(24 * time.Hour)} }
func NewTimestamp(v time.Time) Value { return Value{kind: KindTimestamp, t: v} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Int64() (int64, bool)   { return v.i64, v.kind == KindInt64 }
func (v Value) Uint64() (uint64, bool) { return v.u64, v.kind == KindUint64 }
func (v Value) String() string {
	switch v.kind {
	case KindInt64:
		return fmt.Sprintf("%d", v.i64)
	case KindUint64:
		return fmt.Sprintf("%d", v.u64)
	case KindDecimal:
		return v.dec.String()
	case KindFloat32:
		return fmt.Sprintf("%v", v.f32)
	case KindFloat64:
		return fmt.Sprintf("%v", v.f64)
	case KindString:
		return v.str
	case KindDate:
		return v.t.Format("2006-01-02")
	case KindTimestamp:
		return v.t.Format(time.RFC3339Nano)
	default:
		return "<invalid>"
	}
}

// Raw returns the underlying driver-facing value for query binding.
func (v Value) Raw() interface{} {
	switch v.kind {
	case KindInt64:
		return v.i64
	case KindUint64:
		return v.u64
	case KindDecimal:
		return v.dec.String()
	case KindFloat32:
		return v.f32
	case KindFloat64:
		return v.f64
	case KindString:
		return v.str
	case KindDate, KindTimestamp:
		return v.t
	default:
		return nil
	}
}

// EvenlySplittable reports whether the domain admits a meaningful
// plus(stride) operation usable for arithmetic-stride chunking. Strings
// are the only non-evenly-splittable domain this module models; wide
// temporal types (anything needing sub-day precision loss handling
// beyond what time.Time already gives us) are treated the same as
// narrow ones, since Go has no separate wide/narrow time type — see
// DESIGN.md Open Question decisions.
func (v Value) EvenlySplittable() bool {
	return v.kind != KindString
}

// KeyTypeMismatchError is returned when two Values being compared or
// subtracted were constructed from incompatible domains.
type KeyTypeMismatchError struct {
	Left, Right Kind
}

func (e *KeyTypeMismatchError) Error() string {
	return fmt.Sprintf("key type mismatch: %s vs %s", e.Left, e.Right)
}

// Compare returns -1, 0 or 1 as a is less than, equal to, or greater
// than b. Returns KeyTypeMismatchError if a and b are different Kinds.
func Compare(a, b Value) (int, error) {
	if a.kind != b.kind {
		return 0, &KeyTypeMismatchError{Left: a.kind, Right: b.kind}
	}
	switch a.kind {
	case KindInt64:
		return cmpInt64(a.i64, b.i64), nil
	case KindUint64:
		return cmpUint64(a.u64, b.u64), nil
	case KindDecimal:
		return a.dec.Cmp(b.dec), nil
	case KindFloat32:
		return cmpFloat64(float64(a.f32), float64(b.f32)), nil
	case KindFloat64:
		return cmpFloat64(a.f64, b.f64), nil
	case KindString:
		return cmpString(a.str, b.str), nil
	case KindDate, KindTimestamp:
		if a.t.Before(b.t) {
			return -1, nil
		}
		if a.t.After(b.t) {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("compare: unsupported kind %s", a.kind)
	}
}

// Equal reports whether a and b compare equal. Values of mismatched
// kinds are never equal.
func Equal(a, b Value) bool {
	c, err := Compare(a, b)
	return err == nil && c == 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Minus returns b - a as an arbitrary-precision decimal. Used by the
// distribution-factor calculation, which needs exact arithmetic as the
// difference approaches the bounds of int64. Returns
// KeyTypeMismatchError if a and b are different Kinds, or an error if
// the Kind has no meaningful notion of subtraction (string).
func Minus(a, b Value) (decimal.Decimal, error) {
	if a.kind != b.kind {
		return decimal.Zero, &KeyTypeMismatchError{Left: a.kind, Right: b.kind}
	}
	switch a.kind {
	case KindInt64:
		return decimal.NewFromInt(b.i64).Sub(decimal.NewFromInt(a.i64)), nil
	case KindUint64:
		bb := new(big.Int).SetUint64(b.u64)
		ba := new(big.Int).SetUint64(a.u64)
		return decimal.NewFromBigInt(bb, 0).Sub(decimal.NewFromBigInt(ba, 0)), nil
	case KindDecimal:
		return b.dec.Sub(a.dec), nil
	case KindFloat32:
		return decimal.NewFromFloat32(b.f32).Sub(decimal.NewFromFloat32(a.f32)), nil
	case KindFloat64:
		return decimal.NewFromFloat(b.f64).Sub(decimal.NewFromFloat(a.f64)), nil
	case KindDate:
		days := b.t.Sub(a.t).Hours() / 24
		return decimal.NewFromFloat(days), nil
	case KindTimestamp:
		return decimal.NewFromInt(b.t.UnixNano()).Sub(decimal.NewFromInt(a.t.UnixNano())), nil
	default:
		return decimal.Zero, fmt.Errorf("minus: unsupported kind %s", a.kind)
	}
}

// ArithmeticOverflowError is returned by Plus when advancing by n would
// exceed the domain's maximum representable value.
type ArithmeticOverflowError struct {
	Kind Kind
}

func (e *ArithmeticOverflowError) Error() string {
	return fmt.Sprintf("arithmetic overflow advancing a %s key", e.Kind)
}

// Plus returns v advanced by n (n must be >= 0; the splitter only ever
// advances forward). Returns ArithmeticOverflowError if the result would
// exceed the domain's maximum representable value, and an error if the
// Kind has no notion of addition (string). Only the Int64 and Uint64
// kinds are checked for overflow; Decimal, Float, Date and Timestamp
// values are advanced without an overflow check.
func Plus(v Value, n int64) (Value, error) {
	if n < 0 {
		return Value{}, fmt.Errorf("plus: negative stride %d not supported", n)
	}
	switch v.kind {
	case KindInt64:
		if n > 0 && v.i64 > maxInt64-n {
			return Value{}, &ArithmeticOverflowError{Kind: v.kind}
		}
		return NewInt64(v.i64 + n), nil
	case KindUint64:
		un := uint64(n)
		if un > maxUint64-v.u64 {
			return Value{}, &ArithmeticOverflowError{Kind: v.kind}
		}
		return NewUint64(v.u64 + un), nil
	case KindDecimal:
		return NewDecimal(v.dec.Add(decimal.NewFromInt(n))), nil
	case KindFloat32:
		return NewFloat32(v.f32 + float32(n)), nil
	case KindFloat64:
		return NewFloat64(v.f64 + float64(n)), nil
	case KindDate:
		return NewDate(v.t.AddDate(0, 0, int(n))), nil
	case KindTimestamp:
		return NewTimestamp(v.t.Add(time.Duration(n))), nil
	default:
		return Value{}, fmt.Errorf("plus: unsupported kind %s", v.kind)
	}
}

const (
	maxInt64  = int64(1<<63 - 1)
	maxUint64 = uint64(1<<64 - 1)
)
