package app_test

import (
	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/asset"
	"github.com/shopspring/decimal"
)

// takers spend XRP and receive Bitstamp USD
var (
	pair      = domain.Pair{Base: asset.USDBitstamp, Quote: asset.XRP}
	direction = pair.Buy()
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func xrp(v string) asset.CurrencyAmount {
	return asset.MustNative(d(v))
}

func usd(v string) asset.CurrencyAmount {
	return asset.MustIssued("USD", asset.IssuerBitstamp, d(v))
}

// offer receives gets USD for pays XRP.
func offer(gets, pays, owner string) domain.OrderBookEntry {
	return domain.NewOrderBookEntry(usd(gets), xrp(pays), owner)
}

// counterOffer receives gets XRP for pays USD.
func counterOffer(gets, pays, owner string) domain.OrderBookEntry {
	return domain.NewOrderBookEntry(xrp(gets), usd(pays), owner)
}

func pool(xrpReserve, usdReserve string, fee uint32) *domain.PoolSnapshot {
	p, err := domain.NewPoolSnapshot(xrp(xrpReserve), usd(usdReserve), fee, "rPoolAccount")
	if err != nil {
		panic(err)
	}
	return &p
}
