package domain

import "github.com/shopspring/decimal"

// MarketStatistics summarises the liquidity available in one direction.
// Rates are expressed as TakerGets per unit of TakerPays.
type MarketStatistics struct {
	VWAP                decimal.Decimal
	SimpleAverage       decimal.Decimal
	BestRate            decimal.Decimal
	WorstRate           decimal.Decimal
	DepthAtSlippage     decimal.Decimal // receivable volume within the tolerance
	DepthAtSlippageCost decimal.Decimal // spend needed to take that volume
	Volatility          decimal.Decimal
	VolatilityPercent   decimal.Decimal
	BidAskSpread        decimal.Decimal
	SpreadPercent       decimal.Decimal
	LiquidityRatio      decimal.Decimal
	EntryCount          int
}

// IsZero reports whether no usable liquidity contributed to the statistics.
func (s MarketStatistics) IsZero() bool {
	return s.EntryCount == 0 &&
		s.VWAP.IsZero() &&
		s.BidAskSpread.IsZero() &&
		s.LiquidityRatio.IsZero()
}
