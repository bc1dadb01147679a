package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DestinationAmount converts a source amount into destination minor units
// at the locked rate and deducts the fee. The conversion is floored so
// rounding always favours the bridge operator.
func DestinationAmount(sourceAmount int64, rate decimal.Decimal, fee int64) int64 {
	converted := rate.Mul(decimal.NewFromInt(sourceAmount)).Floor().IntPart()
	return converted - fee
}

// SourceAmount inverts DestinationAmount: the smallest source amount
// whose conversion at the locked rate still covers destination plus fee.
func SourceAmount(destinationAmount int64, rate decimal.Decimal, fee int64) int64 {
	return decimal.NewFromInt(destinationAmount + fee).Div(rate).Ceil().IntPart()
}

// FormatMinorUnits renders an amount of minor units as a decimal string,
// e.g. 8950 -> "89.50".
func FormatMinorUnits(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

// ParseMinorUnits parses a decimal string like "89.5" into minor units,
// rejecting more than two fractional digits.
func ParseMinorUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	scaled := d.Mul(decimal.NewFromInt(100))
	if !scaled.Equal(scaled.Floor()) {
		return 0, fmt.Errorf("amount %q has sub-cent precision", s)
	}
	return scaled.IntPart(), nil
}
