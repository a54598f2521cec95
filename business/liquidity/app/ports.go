package app

import (
	"context"
	"time"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/asset"
)

// Book is one page of offers read from a ledger.
type Book struct {
	Entries     []domain.OrderBookEntry
	LedgerIndex uint32
}

// SnapshotSource reads raw liquidity from the ledger.
type SnapshotSource interface {
	// FetchOffers returns the offers where the taker receives dir.Gets and
	// spends dir.Pays, best quality first.
	FetchOffers(ctx context.Context, dir domain.Direction) (Book, error)

	// FetchPool returns the AMM pool trading a against b. A missing pool is
	// reported as an error with code POOL_NOT_FOUND.
	FetchPool(ctx context.Context, a, b asset.Asset) (*domain.PoolSnapshot, error)
}

// LedgerSubscriber streams validated ledgers.
type LedgerSubscriber interface {
	// Subscribe starts listening and returns a channel of ledger closes.
	Subscribe(ctx context.Context) (<-chan domain.LedgerClose, error)

	// State returns the current connection state.
	State() domain.ConnectionState
}

// Reporter receives everything the watcher produces.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report publishes a fresh market report.
	Report(report *domain.MarketReport)

	// UpdateLedger publishes the latest validated ledger.
	UpdateLedger(ledger domain.LedgerClose)

	// UpdateConnectionStatus updates a connection status display.
	UpdateConnectionStatus(name string, connected bool, latency time.Duration)

	// ReportError publishes a failure that did not stop the watcher.
	ReportError(err error)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
