// Package domain contains the core domain types for the liquidity context.
package domain

import (
	"github.com/fd1az/xrpl-liquidity/internal/asset"
	"github.com/shopspring/decimal"
)

// AMMPoolOwner marks the synthetic entry built from a pool.
const AMMPoolOwner = "AMM_POOL"

// OrderBookEntry is a standing offer: the taker receives TakerGets in exchange
// for TakerPays. Quality is TakerPays/TakerGets; lower is better for the taker.
type OrderBookEntry struct {
	TakerGets asset.CurrencyAmount
	TakerPays asset.CurrencyAmount
	Quality   decimal.Decimal
	IsAMM     bool
	Owner     string
}

// NewOrderBookEntry creates an entry and derives its quality.
func NewOrderBookEntry(gets, pays asset.CurrencyAmount, owner string) OrderBookEntry {
	return OrderBookEntry{
		TakerGets: gets,
		TakerPays: pays,
		Quality:   Quality(gets.Value(), pays.Value()),
		Owner:     owner,
	}
}

// Usable reports whether both sides are positive. Entries that are not usable
// are left out of every computation.
func (e OrderBookEntry) Usable() bool {
	return e.TakerGets.Value().IsPositive() && e.TakerPays.Value().IsPositive()
}

// ForwardRate returns TakerGets per unit of TakerPays, or zero.
func (e OrderBookEntry) ForwardRate() decimal.Decimal {
	return SafeDiv(e.TakerGets.Value(), e.TakerPays.Value())
}

// InverseRate returns TakerPays per unit of TakerGets, or zero.
func (e OrderBookEntry) InverseRate() decimal.Decimal {
	return SafeDiv(e.TakerPays.Value(), e.TakerGets.Value())
}

// Quality returns pays/gets, zero when gets is zero.
func Quality(gets, pays decimal.Decimal) decimal.Decimal {
	return SafeDiv(pays, gets)
}

// SafeDiv divides and maps division by zero to zero.
func SafeDiv(numerator, denominator decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return decimal.Zero
	}
	return numerator.Div(denominator)
}
