// Package money converts between stored minor units and display amounts.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// minorExponent is the number of decimal places stored in minor units.
const minorExponent = 2

// FromMinor returns the decimal value of an amount stored in minor units.
func FromMinor(amount int64) decimal.Decimal {
	return decimal.New(amount, -minorExponent)
}

// ToMinor converts a decimal amount into minor units. Amounts with more
// precision than the currency supports are rejected rather than rounded.
func ToMinor(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(minorExponent)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d.String(), minorExponent)
	}
	return shifted.IntPart(), nil
}

// Parse reads a decimal string such as "12.50" into minor units.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return ToMinor(d)
}

// Format renders an amount in minor units with its currency code, e.g. "12.50 USD".
func Format(amount int64, currency string) string {
	s := FromMinor(amount).StringFixed(minorExponent)
	if currency == "" {
		return s
	}
	return s + " " + currency
}
