package app

import (
	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// AdjustEffectiveRate folds the reserve a new offer locks into its rate. The
// raw factor reserve/rate is squashed into [0, 1) as raw/(1+raw), then a buy
// becomes rate*(1+factor) and a sell rate*(1-factor).
func AdjustEffectiveRate(rate, reserve decimal.Decimal, side domain.Side) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, apperror.Validation(apperror.CodeInvalidInput, "rate must be positive")
	}
	if reserve.IsNegative() {
		return decimal.Zero, apperror.Validation(apperror.CodeInvalidInput, "reserve must not be negative")
	}

	raw := reserve.Div(rate)
	factor := raw.Div(one.Add(raw))

	switch side {
	case domain.SideBuy:
		return rate.Mul(one.Add(factor)), nil
	case domain.SideSell:
		return rate.Mul(one.Sub(factor)), nil
	default:
		return decimal.Zero, apperror.Validation(apperror.CodeInvalidInput, "unknown side "+side.String())
	}
}
