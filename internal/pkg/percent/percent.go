// Package percent converts between stored ownership fractions (0..1) and the percentage units
// (0..100) used by validation and the API. All storage boundaries go through here.
package percent

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance, in percentage units, used for total comparisons.
const Epsilon = 0.01

// fractionPlaces matches the decimal(7,6) ownership columns.
const fractionPlaces = 6

var hundred = decimal.NewFromInt(100)

// ToFraction converts a percentage (e.g. 37.5) to a stored fraction (0.375).
func ToFraction(pct float64) decimal.Decimal {
	return decimal.NewFromFloat(pct).Div(hundred).Round(fractionPlaces)
}

// ToNullFraction converts an optional percentage; nil stays NULL.
func ToNullFraction(pct *float64) decimal.NullDecimal {
	if pct == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(ToFraction(*pct))
}

// ToPercent converts a stored fraction to percentage units, rounded to 4 places.
func ToPercent(fraction decimal.Decimal) float64 {
	return fraction.Mul(hundred).Round(4).InexactFloat64()
}

// FromNullable returns the percentage for a nullable fraction, 0 when NULL.
func FromNullable(fraction decimal.NullDecimal) float64 {
	if !fraction.Valid {
		return 0
	}
	return ToPercent(fraction.Decimal)
}

// PtrFromNullable returns nil for NULL, otherwise the percentage.
func PtrFromNullable(fraction decimal.NullDecimal) *float64 {
	if !fraction.Valid {
		return nil
	}
	v := ToPercent(fraction.Decimal)
	return &v
}

// Equal reports whether a and b are within Epsilon.
func Equal(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

// Format renders a percentage with two decimals ("40.00%").
func Format(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}
