package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestUSDToBecoin(t *testing.T) {
	rate := dec("0.05")

	assert.True(t, dec("200").Equal(USDToBecoin(dec("10"), rate)))
	assert.True(t, dec("1").Equal(USDToBecoin(dec("0.05"), rate)))
	assert.True(t, dec("0.2").Equal(USDToBecoin(dec("0.01"), rate)))
}

func TestBecoinToUSD(t *testing.T) {
	rate := dec("0.05")

	assert.True(t, dec("0.05").Equal(BecoinToUSD(dec("1"), rate)))
	assert.True(t, dec("2.50").Equal(BecoinToUSD(dec("50"), rate)))
}

func TestConversionRoundsHalfToEven(t *testing.T) {
	rate := dec("0.05")

	// 1.50 * 0.05 = 0.075 and 0.50 * 0.05 = 0.025: both midpoints, rounded to
	// the even cent.
	assert.True(t, dec("0.08").Equal(BecoinToUSD(dec("1.50"), rate)))
	assert.True(t, dec("0.02").Equal(BecoinToUSD(dec("0.50"), rate)))

	// 0.01 / 0.08 = 0.125 becoin, midpoint again.
	assert.True(t, dec("0.12").Equal(USDToBecoin(dec("0.01"), dec("0.08"))))
}

func TestConversionIsDeterministic(t *testing.T) {
	rate := dec("0.03")
	amount := dec("7.77")

	first := USDToBecoin(amount, rate)
	for i := 0; i < 100; i++ {
		assert.True(t, first.Equal(USDToBecoin(amount, rate)))
	}
}
