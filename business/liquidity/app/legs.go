// Package app contains the liquidity engine and the application services
// built around it.
package app

import (
	"fmt"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/fd1az/xrpl-liquidity/internal/asset"
	"github.com/shopspring/decimal"
)

// leg is a usable entry with its normalized figures.
type leg struct {
	entry   domain.OrderBookEntry
	gets    decimal.Decimal
	pays    decimal.Decimal
	quality decimal.Decimal // pays/gets
	rate    decimal.Decimal // gets/pays
	feeRate decimal.Decimal // pool only
}

// workingLegs merges book entries with the pool's synthetic entry for dir and
// drops everything with a zero side. Every entry must trade dir.
func workingLegs(entries []domain.OrderBookEntry, pool *domain.PoolSnapshot, dir domain.Direction) ([]leg, error) {
	legs := make([]leg, 0, len(entries)+1)

	for _, e := range entries {
		l, ok, err := newLeg(e)
		if err != nil {
			return nil, err
		}
		if e.TakerGets.Asset() != dir.Gets || e.TakerPays.Asset() != dir.Pays {
			return nil, apperror.Validation(apperror.CodeInvalidInput,
				fmt.Sprintf("offer from %s trades %s for %s, not %s", e.Owner, e.TakerPays.Asset(), e.TakerGets.Asset(), dir))
		}
		if ok {
			legs = append(legs, l)
		}
	}

	if pool != nil {
		e, err := pool.Entry(dir)
		if err != nil {
			return nil, err
		}
		l, ok, err := newLeg(e)
		if err != nil {
			return nil, err
		}
		if ok {
			l.feeRate = pool.FeeRate()
			legs = append(legs, l)
		}
	}

	return legs, nil
}

func newLeg(e domain.OrderBookEntry) (leg, bool, error) {
	gets, err := asset.Normalize(e.TakerGets)
	if err != nil {
		return leg{}, false, err
	}
	pays, err := asset.Normalize(e.TakerPays)
	if err != nil {
		return leg{}, false, err
	}
	if gets.IsZero() || pays.IsZero() {
		return leg{}, false, nil
	}

	return leg{
		entry:   e,
		gets:    gets,
		pays:    pays,
		quality: pays.Div(gets),
		rate:    gets.Div(pays),
	}, true, nil
}

// compareQuality orders legs by pays/gets without dividing, so qualities
// that differ past the decimal division precision still compare correctly.
func compareQuality(a, b leg) int {
	return a.pays.Mul(b.gets).Cmp(b.pays.Mul(a.gets))
}

// bestLeg returns the leg with the lowest quality, the first one on ties.
func bestLeg(legs []leg) leg {
	best := legs[0]
	for _, l := range legs[1:] {
		if compareQuality(l, best) < 0 {
			best = l
		}
	}
	return best
}

func snapshotPool(snap domain.LiquiditySnapshot) *domain.PoolSnapshot {
	if p, ok := snap.Pool(); ok {
		return &p
	}
	return nil
}
