package app

import (
	"context"
	"time"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/apm"
	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/fd1az/xrpl-liquidity/internal/asset"
	"github.com/fd1az/xrpl-liquidity/internal/logger"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	engineTracerName = "liquidity.engine"
	engineMeterName  = "liquidity.engine"
)

// EngineConfig holds the engine's tunables.
type EngineConfig struct {
	SlippageTolerance decimal.Decimal
	FeeAdjusted       bool
}

// DefaultEngineConfig returns a 5% depth window with pool fees applied.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SlippageTolerance: DefaultSlippageTolerance,
		FeeAdjusted:       true,
	}
}

type engineMetrics struct {
	calls       metric.Int64Counter
	rejected    metric.Int64Counter
	shortfalls  metric.Int64Counter
	feesPaid    metric.Float64Counter
	computeTime metric.Float64Histogram
}

// Engine exposes the pure liquidity functions with tracing, metrics and
// logging around them. It holds no market state.
type Engine struct {
	config  EngineConfig
	log     logger.LoggerInterface
	tracer  apm.Tracer
	metrics engineMetrics
}

// NewEngine creates an Engine.
func NewEngine(config EngineConfig, log logger.LoggerInterface) (*Engine, error) {
	e := &Engine{
		config: config,
		log:    log,
		tracer: apm.NewTracer(engineTracerName),
	}
	if err := e.initMetrics(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternal, "engine metrics")
	}
	return e, nil
}

func (e *Engine) initMetrics() error {
	meter := otel.Meter(engineMeterName)

	var err error
	e.metrics.calls, err = meter.Int64Counter(
		"liquidity_engine_calls_total",
		metric.WithDescription("Engine operations by name"),
	)
	if err != nil {
		return err
	}

	e.metrics.rejected, err = meter.Int64Counter(
		"liquidity_engine_rejected_total",
		metric.WithDescription("Engine operations rejected for invalid input"),
	)
	if err != nil {
		return err
	}

	e.metrics.shortfalls, err = meter.Int64Counter(
		"liquidity_simulation_shortfalls_total",
		metric.WithDescription("Simulations that ran out of liquidity"),
	)
	if err != nil {
		return err
	}

	e.metrics.feesPaid, err = meter.Float64Counter(
		"liquidity_simulation_fees",
		metric.WithDescription("Pool fees withheld in simulations, in received units"),
	)
	if err != nil {
		return err
	}

	e.metrics.computeTime, err = meter.Float64Histogram(
		"liquidity_engine_duration",
		metric.WithDescription("Engine operation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

// ComputeStatistics summarises the liquidity in snap for dir.
func (e *Engine) ComputeStatistics(ctx context.Context, snap domain.LiquiditySnapshot, dir domain.Direction) (domain.MarketStatistics, error) {
	ctx, span := e.tracer.StartSpanFromContext(ctx, "liquidity.compute_statistics")
	defer span.End()
	start := time.Now()

	stats, err := ComputeStatistics(snap, dir, WithSlippageTolerance(e.config.SlippageTolerance))
	e.record(ctx, "compute_statistics", start, err)
	if err != nil {
		span.NoticeError(err)
		return domain.MarketStatistics{}, err
	}

	span.SetAttributes(
		attribute.String("direction", dir.String()),
		attribute.Int("entries", stats.EntryCount),
		attribute.String("vwap", stats.VWAP.String()),
		attribute.String("spread_pct", stats.SpreadPercent.StringFixed(4)),
	)
	return stats, nil
}

// SimulateExecution walks snap with spend units of dir.Pays.
func (e *Engine) SimulateExecution(ctx context.Context, snap domain.LiquiditySnapshot, spend decimal.Decimal, dir domain.Direction) (domain.ExecutionResult, error) {
	ctx, span := e.tracer.StartSpanFromContext(ctx, "liquidity.simulate_execution")
	defer span.End()
	start := time.Now()

	result, err := SimulateExecution(snap, spend, dir, WithFeeAdjustment(e.config.FeeAdjusted))
	e.record(ctx, "simulate_execution", start, err)
	if err != nil {
		span.NoticeError(err)
		e.log.Debug(ctx, "simulation rejected", "spend", spend.String(), "error", err)
		return domain.ExecutionResult{}, err
	}

	span.SetAttributes(
		attribute.String("spend", spend.String()),
		attribute.String("realized_in", result.RealizedAmountIn.String()),
		attribute.String("realized_out", result.RealizedAmountOut.String()),
		attribute.Int("fills", len(result.Fills)),
		attribute.Bool("insufficient_liquidity", result.InsufficientLiquidity),
	)

	if result.InsufficientLiquidity {
		e.metrics.shortfalls.Add(ctx, 1)
		e.log.Debug(ctx, "simulation ran out of liquidity",
			"direction", dir.String(),
			"spend", spend.String(),
			"shortfall", result.Shortfall.String(),
		)
	}
	if fees := result.TotalFeesPaid.InexactFloat64(); fees > 0 {
		e.metrics.feesPaid.Add(ctx, fees)
	}
	return result, nil
}

// AdjustEffectiveRate corrects rate for the reserve a new offer locks.
func (e *Engine) AdjustEffectiveRate(ctx context.Context, rate, reserve decimal.Decimal, side domain.Side) (decimal.Decimal, error) {
	start := time.Now()
	adjusted, err := AdjustEffectiveRate(rate, reserve, side)
	e.record(ctx, "adjust_effective_rate", start, err)
	return adjusted, err
}

// EncodeCurrency converts a currency code to its ledger wire form.
func (e *Engine) EncodeCurrency(ctx context.Context, code string) (string, error) {
	start := time.Now()
	encoded, err := asset.EncodeCurrency(code)
	e.record(ctx, "encode_currency", start, err)
	return encoded, err
}

// DecodeCurrency converts a ledger wire currency code to its readable form.
func (e *Engine) DecodeCurrency(ctx context.Context, code string) (string, error) {
	start := time.Now()
	decoded, err := asset.DecodeCurrency(code)
	e.record(ctx, "decode_currency", start, err)
	return decoded, err
}

func (e *Engine) record(ctx context.Context, op string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", op))
	e.metrics.calls.Add(ctx, 1, attrs)
	e.metrics.computeTime.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	if err != nil {
		e.metrics.rejected.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("code", string(apperror.GetCode(err))),
		))
	}
}
