package domain

import (
	"strings"

	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/fd1az/xrpl-liquidity/internal/asset"
)

// Pair is a tradable market, quoted as Base/Quote.
type Pair struct {
	Base  asset.Asset
	Quote asset.Asset
}

// ParsePair parses "BASE/QUOTE" where each side is a registry alias or a
// literal asset.
func ParsePair(s string, registry *asset.Registry) (Pair, error) {
	base, quote, ok := strings.Cut(s, "/")
	if !ok {
		return Pair{}, apperror.Validation(apperror.CodeInvalidPair, s)
	}

	b, err := registry.Resolve(base)
	if err != nil {
		return Pair{}, err
	}
	q, err := registry.Resolve(quote)
	if err != nil {
		return Pair{}, err
	}
	if b == q {
		return Pair{}, apperror.Validation(apperror.CodeInvalidPair, "base and quote are the same asset")
	}
	return Pair{Base: b, Quote: q}, nil
}

// String returns "BASE/QUOTE" using currency codes.
func (p Pair) String() string {
	return p.Base.Currency + "/" + p.Quote.Currency
}

// Buy is the direction of a taker acquiring the base asset with quote.
func (p Pair) Buy() Direction {
	return Direction{Gets: p.Base, Pays: p.Quote}
}

// Sell is the direction of a taker giving up the base asset for quote.
func (p Pair) Sell() Direction {
	return Direction{Gets: p.Quote, Pays: p.Base}
}

// Direction says which asset the taker receives and which it spends.
type Direction struct {
	Gets asset.Asset
	Pays asset.Asset
}

// Reverse swaps the two sides.
func (d Direction) Reverse() Direction {
	return Direction{Gets: d.Pays, Pays: d.Gets}
}

func (d Direction) String() string {
	return "pay " + d.Pays.Currency + " get " + d.Gets.Currency
}
