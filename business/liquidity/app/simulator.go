package app

import (
	"slices"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/shopspring/decimal"
)

type simulationConfig struct {
	feeAdjusted bool
}

// SimulationOption configures SimulateExecution.
type SimulationOption func(*simulationConfig)

// WithFeeAdjustment controls whether the pool's trading fee is withheld from
// the output. Enabled by default.
func WithFeeAdjustment(enabled bool) SimulationOption {
	return func(c *simulationConfig) {
		c.feeAdjusted = enabled
	}
}

// SimulateExecution spends up to spend of dir.Pays against the snapshot,
// taking the best quality first. Ties keep their input order. The realized
// figures only cover what was matched; a shortfall sets InsufficientLiquidity.
func SimulateExecution(snap domain.LiquiditySnapshot, spend decimal.Decimal, dir domain.Direction, opts ...SimulationOption) (domain.ExecutionResult, error) {
	if !spend.IsPositive() {
		return domain.ExecutionResult{}, apperror.Validation(apperror.CodeInvalidInput, "spend amount must be positive")
	}

	cfg := simulationConfig{feeAdjusted: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	legs, err := workingLegs(snap.Entries(), snapshotPool(snap), dir)
	if err != nil {
		return domain.ExecutionResult{}, err
	}
	slices.SortStableFunc(legs, compareQuality)

	var (
		result    domain.ExecutionResult
		remaining = spend
	)
	for _, l := range legs {
		if !remaining.IsPositive() {
			break
		}

		use := decimal.Min(remaining, l.pays)
		gross := l.gets
		if use.LessThan(l.pays) {
			gross = use.Mul(l.gets).Div(l.pays)
		}

		fee := decimal.Zero
		if cfg.feeAdjusted && l.entry.IsAMM {
			fee = gross.Mul(l.feeRate)
		}
		received := gross.Sub(fee)

		result.RealizedAmountIn = result.RealizedAmountIn.Add(use)
		result.RealizedAmountOut = result.RealizedAmountOut.Add(received)
		result.TotalFeesPaid = result.TotalFeesPaid.Add(fee)
		result.Fills = append(result.Fills, domain.Fill{
			Owner:     l.entry.Owner,
			IsAMM:     l.entry.IsAMM,
			AmountIn:  use,
			AmountOut: received,
			Fee:       fee,
			Quality:   l.quality,
		})

		remaining = remaining.Sub(use)
	}

	if remaining.IsPositive() {
		result.InsufficientLiquidity = true
		result.Shortfall = remaining
	}
	result.AverageRate = domain.SafeDiv(result.RealizedAmountOut, result.RealizedAmountIn)

	return result, nil
}
