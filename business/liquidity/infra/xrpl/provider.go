package xrpl

import (
	"context"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/app"
	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/asset"
	"github.com/fd1az/xrpl-liquidity/internal/logger"
)

// amm_info reports trading fees in 1/100,000; pools carry parts per million.
const ammFeeToPPM = 10

// ProviderConfig configures what the provider reads.
type ProviderConfig struct {
	BookLimit   int
	LedgerIndex string
}

// Provider reads liquidity snapshots over JSON-RPC.
type Provider struct {
	client *Client
	config ProviderConfig
	ledger ledgerSelector
	logger logger.LoggerInterface
}

var _ app.SnapshotSource = (*Provider)(nil)

// NewProvider creates a Provider on top of client.
func NewProvider(client *Client, cfg ProviderConfig, log logger.LoggerInterface) *Provider {
	if cfg.BookLimit <= 0 {
		cfg.BookLimit = 50
	}
	return &Provider{
		client: client,
		config: cfg,
		ledger: parseLedgerSelector(cfg.LedgerIndex),
		logger: log,
	}
}

// FetchOffers reads the book where takers receive dir.Gets for dir.Pays.
// Partially funded offers are reduced to what their owner can deliver, and
// offers that cannot deliver anything are dropped.
func (p *Provider) FetchOffers(ctx context.Context, dir domain.Direction) (app.Book, error) {
	ctx, span := p.client.tracer.Start(ctx, "xrpl.fetch_offers",
		trace.WithAttributes(attribute.String("direction", dir.String())),
	)
	defer span.End()

	var result bookOffersResult
	err := p.client.Call(ctx, "book_offers", bookOffersParams{
		TakerGets:   specOf(dir.Gets),
		TakerPays:   specOf(dir.Pays),
		Limit:       p.config.BookLimit,
		LedgerIndex: p.ledger,
	}, &result)
	if err != nil {
		return app.Book{}, err
	}

	entries := make([]domain.OrderBookEntry, 0, len(result.Offers))
	skipped := 0
	for _, o := range result.Offers {
		gets, pays, err := o.amounts()
		if err != nil {
			return app.Book{}, err
		}
		if gets.Asset() != dir.Gets || pays.Asset() != dir.Pays {
			return app.Book{}, invalidResponse("book_offers returned an offer from another book", nil)
		}

		entry := domain.NewOrderBookEntry(gets, pays, o.Account)
		if !entry.Usable() {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}

	span.SetAttributes(
		attribute.Int("offers", len(entries)),
		attribute.Int("unfunded", skipped),
		attribute.Int64("ledger_index", int64(result.ledger())),
	)
	p.logger.Debug(ctx, "fetched order book",
		"direction", dir.String(),
		"offers", len(entries),
		"unfunded", skipped,
		"ledger", result.ledger(),
	)

	return app.Book{Entries: entries, LedgerIndex: result.ledger()}, nil
}

// FetchPool reads the AMM pool trading a against b.
func (p *Provider) FetchPool(ctx context.Context, a, b asset.Asset) (*domain.PoolSnapshot, error) {
	ctx, span := p.client.tracer.Start(ctx, "xrpl.fetch_pool",
		trace.WithAttributes(
			attribute.String("asset", a.String()),
			attribute.String("asset2", b.String()),
		),
	)
	defer span.End()

	var result ammInfoResult
	err := p.client.Call(ctx, "amm_info", ammInfoParams{
		Asset:       specOf(a),
		Asset2:      specOf(b),
		LedgerIndex: p.ledger,
	}, &result)
	if err != nil {
		return nil, err
	}

	amount1, err := parseAmount(result.AMM.Amount)
	if err != nil {
		return nil, err
	}
	amount2, err := parseAmount(result.AMM.Amount2)
	if err != nil {
		return nil, err
	}

	pool, err := domain.NewPoolSnapshot(amount1, amount2, result.AMM.TradingFee*ammFeeToPPM, result.AMM.Account)
	if err != nil {
		return nil, invalidResponse("amm_info", err)
	}

	span.SetAttributes(
		attribute.String("pool_account", pool.Account),
		attribute.Int64("trading_fee_ppm", int64(pool.TradingFee)),
	)
	return &pool, nil
}

// BreakerState exposes the RPC circuit breaker for health checks.
func (p *Provider) BreakerState() gobreaker.State {
	return p.client.BreakerState()
}
