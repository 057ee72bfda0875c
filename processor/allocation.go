package processor

import (
	"github.com/shopspring/decimal"
)

// PositionSize splits a portfolio equally across the given number of
// positions. Returns zero when the inputs cannot produce an allocation.
func PositionSize(portfolio float64, positions int) decimal.Decimal {
	if portfolio <= 0 || positions <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(portfolio).Div(decimal.NewFromInt(int64(positions)))
}

// SharesToBuy floors the whole number of shares an equal-weight position
// buys at the given price. Non-positive prices allocate nothing.
func SharesToBuy(position decimal.Decimal, price float64) int64 {
	if price <= 0 || position.Sign() <= 0 {
		return 0
	}
	return position.Div(decimal.NewFromFloat(price)).Floor().IntPart()
}
