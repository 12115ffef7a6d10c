package domain

import (
	"fmt"

	"github.com/corefin/ledgercore/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Rounding selects how MulRatio and ToFixed resolve excess fractional digits.
type Rounding int

const (
	// RoundHalfUp rounds halves away from zero. Default for monetary amounts.
	RoundHalfUp Rounding = iota
	// RoundHalfEven rounds halves to the nearest even digit (banker's rounding).
	RoundHalfEven
	// RoundDown truncates toward zero.
	RoundDown
)

// Money is an exact decimal amount with a fixed number of fractional digits.
// The zero value is 0 at scale 0. Arithmetic preserves scale; re-quantization
// happens only through ToFixed. Money is never backed by a binary float.
type Money struct {
	value decimal.Decimal
	scale int32
}

// NewMoney builds a Money from an already-quantized decimal. The value is
// rounded half-up to scale, so callers that need strict input validation
// should use ParseMoney instead.
func NewMoney(value decimal.Decimal, scale int32) Money {
	return Money{value: value.Round(scale), scale: scale}
}

// ZeroMoney returns 0 at the given scale.
func ZeroMoney(scale int32) Money {
	return Money{value: decimal.Zero, scale: scale}
}

// ParseMoney parses a decimal string at the given scale. It fails with
// ErrInvalidAmount when the input is not numeric or carries more fractional
// digits than the scale allows.
func ParseMoney(s string, scale int32) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a decimal number", apperrors.ErrInvalidAmount, s)
	}
	if !d.Equal(d.Truncate(scale)) {
		return Money{}, fmt.Errorf("%w: %q exceeds scale %d", apperrors.ErrInvalidAmount, s, scale)
	}
	return Money{value: d, scale: scale}, nil
}

// MustMoney is ParseMoney that panics on error. Intended for tests and constants.
func MustMoney(s string, scale int32) Money {
	m, err := ParseMoney(s, scale)
	if err != nil {
		panic(err)
	}
	return m
}

// Scale returns the number of fractional digits this amount is quantized to.
func (m Money) Scale() int32 {
	return m.scale
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.value
}

// Add returns m + other at m's scale. Both operands are expected to share the
// same currency scale; addition at equal scale is exact.
func (m Money) Add(other Money) Money {
	return Money{value: m.value.Add(other.value), scale: m.scale}
}

// Sub returns m - other at m's scale.
func (m Money) Sub(other Money) Money {
	return Money{value: m.value.Sub(other.value), scale: m.scale}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{value: m.value.Neg(), scale: m.scale}
}

// Abs returns |m|.
func (m Money) Abs() Money {
	return Money{value: m.value.Abs(), scale: m.scale}
}

// MulRatio multiplies by a rational factor (an exchange rate or a percentage
// already divided by 100) and re-quantizes to m's scale with the given
// rounding mode. This is the single multiplication path for rates.
func (m Money) MulRatio(ratio decimal.Decimal, mode Rounding) Money {
	return Money{value: m.value.Mul(ratio), scale: m.scale}.ToFixed(m.scale, mode)
}

// ToFixed re-quantizes to the given scale. This is the only place rounding
// occurs; applying it twice at the same scale is a no-op.
func (m Money) ToFixed(scale int32, mode Rounding) Money {
	var v decimal.Decimal
	switch mode {
	case RoundHalfEven:
		v = m.value.RoundBank(scale)
	case RoundDown:
		v = m.value.Truncate(scale)
	default:
		v = m.value.Round(scale)
	}
	return Money{value: v, scale: scale}
}

// Cmp compares two amounts: -1 if m < other, 0 if equal, +1 if m > other.
func (m Money) Cmp(other Money) int {
	return m.value.Cmp(other.value)
}

// Equal reports whether two amounts have the same numeric value.
func (m Money) Equal(other Money) bool {
	return m.value.Equal(other.value)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.value.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.value.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m.value.IsPositive()
}

// String renders the amount with exactly Scale fractional digits, the
// canonical wire form for every boundary crossing (e.g. "1234.50").
func (m Money) String() string {
	return m.value.StringFixed(m.scale)
}

// MarshalJSON encodes the amount as a fixed-scale decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON decodes a decimal string, inferring scale from the fractional
// digits present in the input.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %q is not a decimal number", apperrors.ErrInvalidAmount, s)
	}
	scale := -d.Exponent()
	if scale < 0 {
		scale = 0
	}
	m.value = d
	m.scale = scale
	return nil
}
