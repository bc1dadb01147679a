package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestinationAmount(t *testing.T) {
	rate := decimal.RequireFromString("0.9")

	assert.EqualValues(t, 89, DestinationAmount(100, rate, 1))
	assert.EqualValues(t, 899, DestinationAmount(1000, rate, 1))

	// Fractional cents are floored, never rounded up.
	assert.EqualValues(t, 89, DestinationAmount(99, rate, 0))

	// A fee larger than the conversion leaves nothing to pay out.
	assert.Negative(t, DestinationAmount(10, rate, 100))
}

func TestSourceAmountCoversDestination(t *testing.T) {
	rate := decimal.RequireFromString("0.9")

	src := SourceAmount(89, rate, 1)
	assert.EqualValues(t, 100, src)

	// The inverse always covers the requested destination amount.
	for _, destination := range []int64{1, 7, 89, 1234567} {
		src := SourceAmount(destination, rate, 25)
		assert.GreaterOrEqual(t, DestinationAmount(src, rate, 25), destination)
	}
}

func TestFormatMinorUnits(t *testing.T) {
	assert.Equal(t, "89.50", FormatMinorUnits(8950))
	assert.Equal(t, "0.05", FormatMinorUnits(5))
	assert.Equal(t, "-1.23", FormatMinorUnits(-123))
}

func TestParseMinorUnits(t *testing.T) {
	amount, err := ParseMinorUnits("89.5")
	require.NoError(t, err)
	assert.EqualValues(t, 8950, amount)

	amount, err = ParseMinorUnits("100")
	require.NoError(t, err)
	assert.EqualValues(t, 10000, amount)

	_, err = ParseMinorUnits("1.234")
	assert.Error(t, err)

	_, err = ParseMinorUnits("not-a-number")
	assert.Error(t, err)
}
