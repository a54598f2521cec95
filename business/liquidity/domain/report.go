package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Probe is a simulated execution of a fixed spend size.
type Probe struct {
	Spend  decimal.Decimal
	Result ExecutionResult
}

// MarketReport is everything computed for a pair from one snapshot.
type MarketReport struct {
	Pair        Pair
	Direction   Direction
	Statistics  MarketStatistics
	Probes      []Probe
	HasPool     bool
	PoolFeeRate decimal.Decimal

	// best rate corrected for the reserve a new offer would lock
	EffectiveBuyRate  decimal.Decimal
	EffectiveSellRate decimal.Decimal

	LedgerIndex uint32
	FetchedAt   time.Time
	GeneratedAt time.Time
}
