package app

import (
	"math"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/shopspring/decimal"
)

// DefaultSlippageTolerance is the depth window used when none is given (5%).
var DefaultSlippageTolerance = decimal.RequireFromString("0.05")

const sqrtPrecision = 16

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

type statisticsConfig struct {
	slippage decimal.Decimal
}

// StatisticsOption configures ComputeStatistics.
type StatisticsOption func(*statisticsConfig)

// WithSlippageTolerance sets the depth window as a fraction (0.05 = 5%).
func WithSlippageTolerance(p decimal.Decimal) StatisticsOption {
	return func(c *statisticsConfig) {
		c.slippage = p
	}
}

// ComputeStatistics summarises the liquidity a taker trading in dir would face.
// Pool fees are not applied to quoted figures. Degenerate markets produce zero
// values rather than errors.
func ComputeStatistics(snap domain.LiquiditySnapshot, dir domain.Direction, opts ...StatisticsOption) (domain.MarketStatistics, error) {
	cfg := statisticsConfig{slippage: DefaultSlippageTolerance}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.slippage.IsNegative() {
		return domain.MarketStatistics{}, apperror.Validation(apperror.CodeInvalidInput, "slippage tolerance must not be negative")
	}

	pool := snapshotPool(snap)
	primary, err := workingLegs(snap.Entries(), pool, dir)
	if err != nil {
		return domain.MarketStatistics{}, err
	}
	counter, err := workingLegs(snap.CounterEntries(), pool, dir.Reverse())
	if err != nil {
		return domain.MarketStatistics{}, err
	}

	stats := domain.MarketStatistics{EntryCount: len(primary)}
	if len(primary) > 0 {
		applyRates(&stats, primary)
		applyDepth(&stats, primary, cfg.slippage)
		applyVolatility(&stats, primary)
	}
	applySpread(&stats, primary, counter)
	stats.LiquidityRatio = liquidityRatio(primary, counter)

	return stats, nil
}

func applyRates(stats *domain.MarketStatistics, legs []leg) {
	var sumGets, sumPays, sumRates decimal.Decimal
	bestLegSeen, worstLegSeen := legs[0], legs[0]

	for _, l := range legs {
		sumGets = sumGets.Add(l.gets)
		sumPays = sumPays.Add(l.pays)
		sumRates = sumRates.Add(l.rate)
		if compareQuality(l, bestLegSeen) < 0 {
			bestLegSeen = l
		}
		if compareQuality(l, worstLegSeen) > 0 {
			worstLegSeen = l
		}
	}
	best, worst := bestLegSeen.rate, worstLegSeen.rate

	mean := sumRates.Div(decimal.NewFromInt(int64(len(legs))))
	// rounding in the division can land a hair outside the observed range
	mean = decimal.Min(decimal.Max(mean, worst), best)

	stats.VWAP = domain.SafeDiv(sumGets, sumPays)
	stats.SimpleAverage = mean
	stats.BestRate = best
	stats.WorstRate = worst
}

// applyDepth sums the legs whose quality lies within p of the best quality.
func applyDepth(stats *domain.MarketStatistics, legs []leg, p decimal.Decimal) {
	best := bestLeg(legs)
	window := decimal.NewFromInt(1).Add(p)

	var gets, pays decimal.Decimal
	for _, l := range legs {
		// l.pays/l.gets <= best.pays/best.gets * (1+p), cross-multiplied
		if l.pays.Mul(best.gets).LessThanOrEqual(best.pays.Mul(l.gets).Mul(window)) {
			gets = gets.Add(l.gets)
			pays = pays.Add(l.pays)
		}
	}
	stats.DepthAtSlippage = gets
	stats.DepthAtSlippageCost = pays
}

// applyVolatility uses the population standard deviation of forward rates.
func applyVolatility(stats *domain.MarketStatistics, legs []leg) {
	n := decimal.NewFromInt(int64(len(legs)))

	var sum decimal.Decimal
	for _, l := range legs {
		sum = sum.Add(l.rate)
	}
	mean := sum.Div(n)

	var squares decimal.Decimal
	for _, l := range legs {
		d := l.rate.Sub(mean)
		squares = squares.Add(d.Mul(d))
	}

	stats.Volatility = sqrt(squares.Div(n))
	stats.VolatilityPercent = domain.SafeDiv(stats.Volatility.Mul(hundred), stats.SimpleAverage)
}

// applySpread compares the best forward rate of the primary book with the
// best counter rate expressed in the same units.
func applySpread(stats *domain.MarketStatistics, primary, counter []leg) {
	if len(primary) == 0 || len(counter) == 0 {
		return
	}

	bestBuy := bestLeg(primary).rate

	// best counter offer = lowest quality, which is its forward rate inverted
	bestSellInverted := bestLeg(counter).quality

	spread := bestBuy.Sub(bestSellInverted).Abs()
	mid := bestBuy.Add(bestSellInverted).Div(two)

	stats.BidAskSpread = spread
	stats.SpreadPercent = domain.SafeDiv(spread.Mul(hundred), mid)
}

// liquidityRatio compares the volume of the received asset offered on the
// primary side with the volume of it the counter side asks for.
func liquidityRatio(primary, counter []leg) decimal.Decimal {
	var offered, wanted decimal.Decimal
	for _, l := range primary {
		offered = offered.Add(l.gets)
	}
	for _, l := range counter {
		wanted = wanted.Add(l.pays)
	}
	return domain.SafeDiv(offered, wanted)
}

// sqrt is Newton's method seeded from float64.
func sqrt(d decimal.Decimal) decimal.Decimal {
	if !d.IsPositive() {
		return decimal.Zero
	}

	x := d
	if f := math.Sqrt(d.InexactFloat64()); f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f) {
		x = decimal.NewFromFloat(f)
	}

	epsilon := decimal.New(1, -sqrtPrecision)
	for i := 0; i < 64; i++ {
		next := x.Add(d.DivRound(x, sqrtPrecision+4)).DivRound(two, sqrtPrecision+4)
		if next.Sub(x).Abs().LessThan(epsilon) {
			return next.Round(sqrtPrecision)
		}
		x = next
	}
	return x.Round(sqrtPrecision)
}
