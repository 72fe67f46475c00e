package money

import (
	"fmt"
	"strings"

	"github.com/orchidcraft/orchid-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// minorExponent is the number of minor-unit digits for every supported currency.
const minorExponent = 2

// ToMinor converts a major-unit decimal string ("1499.50") into minor units.
// More precision than the currency allows is rejected.
func ToMinor(major string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(major))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", major)
	}
	return DecimalToMinor(d)
}

// DecimalToMinor converts a major-unit decimal into minor units.
func DecimalToMinor(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative")
	}
	scaled := d.Shift(minorExponent)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has too many decimal places", d.String())
	}
	if !scaled.IsInteger() || scaled.GreaterThan(decimal.NewFromInt(1<<53)) {
		return 0, fmt.Errorf("amount %s out of range", d.String())
	}
	return scaled.IntPart(), nil
}

// FromMinor converts minor units back into a major-unit decimal.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorExponent)
}

// Format renders minor units as "INR 1499.50".
func Format(minor int64, currency enums.Currency) string {
	return fmt.Sprintf("%s %s", currency, FromMinor(minor).StringFixed(minorExponent))
}

// Multiply returns unit*qty, failing on overflow.
func Multiply(unit int64, qty int) (int64, error) {
	if unit < 0 || qty < 0 {
		return 0, fmt.Errorf("negative operand")
	}
	if qty == 0 || unit == 0 {
		return 0, nil
	}
	total := unit * int64(qty)
	if total/int64(qty) != unit {
		return 0, fmt.Errorf("amount overflow")
	}
	return total, nil
}
