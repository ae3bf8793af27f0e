// file: internals/features/finance/fees/money/money.go
package money

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// ErrOutOfRange: hasil konversi tidak muat di int64.
var ErrOutOfRange = errors.New("amount out of minor-unit range")

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// ToMinor converts a major-unit amount to gateway minor units (exponent 2 → paise/cents),
// rounding half away from zero. Values beyond int64 are ErrOutOfRange.
func ToMinor(amount decimal.Decimal, exponent int32) (int64, error) {
	shifted := amount.Shift(exponent).Round(0)
	if shifted.GreaterThan(maxMinor) || shifted.LessThan(maxMinor.Neg()) {
		return 0, ErrOutOfRange
	}
	return shifted.IntPart(), nil
}

// FromMinor is the inverse of ToMinor.
func FromMinor(minor int64, exponent int32) decimal.Decimal {
	return decimal.New(minor, -exponent)
}

// ParseMajor parses a gateway string amount ("150000.00").
func ParseMajor(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
