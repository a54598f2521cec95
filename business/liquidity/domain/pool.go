package domain

import (
	"fmt"

	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/fd1az/xrpl-liquidity/internal/asset"
	"github.com/shopspring/decimal"
)

// FeeScale is the denominator of PoolSnapshot.TradingFee (parts per million).
const FeeScale = 1_000_000

var feeScale = decimal.NewFromInt(FeeScale)

// PoolSnapshot is the state of an AMM pool at fetch time.
type PoolSnapshot struct {
	Asset1     asset.CurrencyAmount
	Asset2     asset.CurrencyAmount
	TradingFee uint32 // parts per million
	Account    string
}

// NewPoolSnapshot validates the fee range and the pool's two assets.
func NewPoolSnapshot(asset1, asset2 asset.CurrencyAmount, tradingFee uint32, account string) (PoolSnapshot, error) {
	if tradingFee > FeeScale {
		return PoolSnapshot{}, apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("trading fee %d exceeds %d", tradingFee, FeeScale))
	}
	if asset1.Asset() == asset2.Asset() {
		return PoolSnapshot{}, apperror.Validation(apperror.CodeInvalidInput, "pool assets must differ")
	}
	return PoolSnapshot{
		Asset1:     asset1,
		Asset2:     asset2,
		TradingFee: tradingFee,
		Account:    account,
	}, nil
}

// FeeRate returns the trading fee as a fraction.
func (p PoolSnapshot) FeeRate() decimal.Decimal {
	return decimal.NewFromInt(int64(p.TradingFee)).Div(feeScale)
}

// Entry turns the pool into a synthetic order book entry oriented so that the
// taker receives dir.Gets. No fee is applied here.
func (p PoolSnapshot) Entry(dir Direction) (OrderBookEntry, error) {
	var gets, pays asset.CurrencyAmount
	switch {
	case p.Asset1.Asset() == dir.Gets && p.Asset2.Asset() == dir.Pays:
		gets, pays = p.Asset1, p.Asset2
	case p.Asset2.Asset() == dir.Gets && p.Asset1.Asset() == dir.Pays:
		gets, pays = p.Asset2, p.Asset1
	default:
		return OrderBookEntry{}, apperror.Validation(apperror.CodeInvalidInput,
			fmt.Sprintf("pool %s/%s does not trade %s", p.Asset1.Asset(), p.Asset2.Asset(), dir))
	}

	entry := NewOrderBookEntry(gets, pays, AMMPoolOwner)
	entry.IsAMM = true
	return entry, nil
}
