package utils

import (
	"github.com/shopspring/decimal"
)

// Monetary conversion between US dollars and becoin. The rate is USD per one
// becoin and comes from configuration; it is passed in explicitly so the
// arithmetic stays testable. Rounding is half-to-even at the currency's two
// minor digits and happens only at this boundary, never on internal becoin
// movements.

// USDToBecoin converts a USD amount to becoin at the given rate.
func USDToBecoin(amountUSD, rateUSDPerBecoin decimal.Decimal) decimal.Decimal {
	return amountUSD.Div(rateUSDPerBecoin).RoundBank(2)
}

// BecoinToUSD converts a becoin amount to USD at the given rate.
func BecoinToUSD(amountBecoin, rateUSDPerBecoin decimal.Decimal) decimal.Decimal {
	return amountBecoin.Mul(rateUSDPerBecoin).RoundBank(2)
}
