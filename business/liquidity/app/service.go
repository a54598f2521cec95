package app

import (
	"context"
	"time"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/apm"
	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/fd1az/xrpl-liquidity/internal/logger"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// MarketConfig configures report generation.
type MarketConfig struct {
	// TakerSide picks the reported direction: SideSell quotes a taker selling
	// the base asset (rates read as quote per base), SideBuy the opposite.
	TakerSide    domain.Side
	ProbeSizes   []decimal.Decimal
	OwnerReserve decimal.Decimal
}

// MarketService turns ledger reads into market reports.
type MarketService struct {
	source SnapshotSource
	engine *Engine
	config MarketConfig
	log    logger.LoggerInterface
	tracer apm.Tracer
	now    func() time.Time
}

// NewMarketService creates a new MarketService.
func NewMarketService(source SnapshotSource, engine *Engine, config MarketConfig, log logger.LoggerInterface) *MarketService {
	return &MarketService{
		source: source,
		engine: engine,
		config: config,
		log:    log,
		tracer: apm.NewTracer("liquidity.market"),
		now:    time.Now,
	}
}

// Direction returns the direction reports for pair are quoted in.
func (s *MarketService) Direction(pair domain.Pair) domain.Direction {
	if s.config.TakerSide == domain.SideBuy {
		return pair.Buy()
	}
	return pair.Sell()
}

// Snapshot reads the book for dir, the counter book and the pool at the same
// time. The three reads are separate requests and may land on adjacent
// ledgers, so the result is a best-effort composite that can be momentarily
// stale. Callers that need fresher data take a new snapshot.
func (s *MarketService) Snapshot(ctx context.Context, dir domain.Direction) (domain.LiquiditySnapshot, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "liquidity.snapshot")
	defer span.End()

	var (
		primary, counter Book
		pool             *domain.PoolSnapshot
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.source.FetchOffers(gctx, dir)
		primary = b
		return err
	})
	g.Go(func() error {
		b, err := s.source.FetchOffers(gctx, dir.Reverse())
		counter = b
		return err
	})
	g.Go(func() error {
		p, err := s.source.FetchPool(gctx, dir.Gets, dir.Pays)
		if apperror.IsCode(err, apperror.CodePoolNotFound) {
			return nil
		}
		pool = p
		return err
	})

	if err := g.Wait(); err != nil {
		span.NoticeError(err)
		return domain.LiquiditySnapshot{}, err
	}

	ledger := max(primary.LedgerIndex, counter.LedgerIndex)
	span.SetAttributes(
		attribute.Int("entries", len(primary.Entries)),
		attribute.Int("counter_entries", len(counter.Entries)),
		attribute.Bool("pool", pool != nil),
		attribute.Int64("ledger_index", int64(ledger)),
	)

	return domain.NewLiquiditySnapshot(primary.Entries, pool,
		domain.WithCounterBook(counter.Entries),
		domain.WithLedgerIndex(ledger),
		domain.WithFetchedAt(s.now()),
	), nil
}

// Report takes a fresh snapshot for pair and computes statistics, one
// simulation per probe size and the reserve-adjusted best rates.
func (s *MarketService) Report(ctx context.Context, pair domain.Pair) (*domain.MarketReport, error) {
	ctx, span := s.tracer.StartSpanFromContext(ctx, "liquidity.report")
	defer span.End()
	span.SetAttribute(attribute.String("pair", pair.String()))

	dir := s.Direction(pair)
	snap, err := s.Snapshot(ctx, dir)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	report, err := s.Analyze(ctx, pair, dir, snap)
	if err != nil {
		span.NoticeError(err)
		return nil, err
	}

	s.log.Debug(ctx, "market report ready",
		"pair", pair.String(),
		"ledger", report.LedgerIndex,
		"entries", report.Statistics.EntryCount,
		"pool", report.HasPool,
		"vwap", report.Statistics.VWAP.StringFixed(6),
	)
	return report, nil
}

// Analyze computes a report from an existing snapshot without any I/O.
func (s *MarketService) Analyze(ctx context.Context, pair domain.Pair, dir domain.Direction, snap domain.LiquiditySnapshot) (*domain.MarketReport, error) {
	stats, err := s.engine.ComputeStatistics(ctx, snap, dir)
	if err != nil {
		return nil, err
	}

	report := &domain.MarketReport{
		Pair:        pair,
		Direction:   dir,
		Statistics:  stats,
		Probes:      make([]domain.Probe, 0, len(s.config.ProbeSizes)),
		LedgerIndex: snap.LedgerIndex(),
		FetchedAt:   snap.FetchedAt(),
		GeneratedAt: s.now(),
	}
	if p, ok := snap.Pool(); ok {
		report.HasPool = true
		report.PoolFeeRate = p.FeeRate()
	}

	for _, size := range s.config.ProbeSizes {
		result, err := s.engine.SimulateExecution(ctx, snap, size, dir)
		if err != nil {
			return nil, err
		}
		report.Probes = append(report.Probes, domain.Probe{Spend: size, Result: result})
	}

	if stats.BestRate.IsPositive() {
		if report.EffectiveBuyRate, err = s.engine.AdjustEffectiveRate(ctx, stats.BestRate, s.config.OwnerReserve, domain.SideBuy); err != nil {
			return nil, err
		}
		if report.EffectiveSellRate, err = s.engine.AdjustEffectiveRate(ctx, stats.BestRate, s.config.OwnerReserve, domain.SideSell); err != nil {
			return nil, err
		}
	}

	return report, nil
}
