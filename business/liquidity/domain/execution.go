package domain

import "github.com/shopspring/decimal"

// Fill is the part of a simulated execution taken from one entry.
type Fill struct {
	Owner     string
	IsAMM     bool
	AmountIn  decimal.Decimal
	AmountOut decimal.Decimal
	Fee       decimal.Decimal
	Quality   decimal.Decimal
}

// ExecutionResult is the outcome of walking a snapshot with a spend amount.
// Realized amounts only cover what was actually matched.
type ExecutionResult struct {
	RealizedAmountIn      decimal.Decimal
	RealizedAmountOut     decimal.Decimal
	AverageRate           decimal.Decimal
	InsufficientLiquidity bool
	TotalFeesPaid         decimal.Decimal
	Shortfall             decimal.Decimal
	Fills                 []Fill
}

// PriceImpact returns how far the average rate fell below the best fill's
// rate, as a percentage. Zero without fills.
func (r ExecutionResult) PriceImpact() decimal.Decimal {
	if len(r.Fills) == 0 || r.Fills[0].AmountIn.IsZero() {
		return decimal.Zero
	}
	first := r.Fills[0]
	best := first.AmountOut.Add(first.Fee).Div(first.AmountIn)
	if best.IsZero() {
		return decimal.Zero
	}
	return best.Sub(r.AverageRate).Div(best).Mul(decimal.NewFromInt(100))
}
