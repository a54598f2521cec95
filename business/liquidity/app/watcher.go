package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/logger"
)

// WatcherConfig holds configuration for the market watcher.
type WatcherConfig struct {
	Pairs []domain.Pair
	// RefreshInterval drives refreshes while no ledger stream is connected.
	RefreshInterval time.Duration
	// StreamName labels the ledger stream in connection status updates.
	StreamName string
}

// latencyProvider is implemented by subscribers that measure round trips.
type latencyProvider interface {
	Latency() time.Duration
}

// Watcher refreshes market reports on every validated ledger.
type Watcher struct {
	market     *MarketService
	ledgers    LedgerSubscriber
	reporter   Reporter
	config     WatcherConfig
	log        logger.LoggerInterface
	refreshing atomic.Bool
	lastLedger atomic.Uint32

	cancel  context.CancelFunc
	workers sync.WaitGroup // run loop and in-flight refreshes
}

// NewWatcher creates a new Watcher.
func NewWatcher(
	market *MarketService,
	ledgers LedgerSubscriber,
	reporter Reporter,
	config WatcherConfig,
	log logger.LoggerInterface,
) *Watcher {
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = 10 * time.Second
	}
	if config.StreamName == "" {
		config.StreamName = "XRPL"
	}
	return &Watcher{
		market:   market,
		ledgers:  ledgers,
		reporter: reporter,
		config:   config,
		log:      log,
	}
}

// Start begins the refresh loop. A failing ledger subscription is not fatal:
// the watcher falls back to its refresh interval.
func (w *Watcher) Start(ctx context.Context) error {
	w.log.Info(ctx, "starting market watcher", "pairs", len(w.config.Pairs))

	if err := w.reporter.Start(ctx); err != nil {
		return err
	}

	closes, err := w.ledgers.Subscribe(ctx)
	if err != nil {
		w.log.Warn(ctx, "ledger stream unavailable, polling instead", "error", err, "interval", w.config.RefreshInterval)
		w.reporter.ReportError(err)
		closes = nil
	}
	w.reportConnection()

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.workers.Add(1)
	go func() {
		defer w.workers.Done()
		w.run(runCtx, closes)
	}()
	return nil
}

func (w *Watcher) run(ctx context.Context, closes <-chan domain.LedgerClose) {
	ticker := time.NewTicker(w.config.RefreshInterval)
	defer ticker.Stop()

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info(ctx, "watcher stopping", "reason", ctx.Err())
			return

		case ledger, ok := <-closes:
			if !ok {
				w.log.Warn(ctx, "ledger stream closed, polling instead")
				closes = nil
				continue
			}
			w.onLedgerClose(ctx, ledger)

		case <-ticker.C:
			if !w.reportConnection() {
				w.refresh(ctx)
			}
		}
	}
}

// reportConnection publishes the stream state and reports whether it is
// connected.
func (w *Watcher) reportConnection() bool {
	connected := w.ledgers.State() == domain.StateConnected
	var latency time.Duration
	if lp, ok := w.ledgers.(latencyProvider); ok && connected {
		latency = lp.Latency()
	}
	w.reporter.UpdateConnectionStatus(w.config.StreamName, connected, latency)
	return connected
}

func (w *Watcher) onLedgerClose(ctx context.Context, ledger domain.LedgerClose) {
	if ledger.Index <= w.lastLedger.Load() {
		return
	}
	w.lastLedger.Store(ledger.Index)
	w.reporter.UpdateLedger(ledger)
	w.log.Debug(ctx, "ledger closed", "index", ledger.Index, "txns", ledger.TxnCount)

	// one refresh at a time; ledgers closing during a refresh are skipped
	w.workers.Add(1)
	go func() {
		defer w.workers.Done()
		w.refresh(ctx)
	}()
}

func (w *Watcher) refresh(ctx context.Context) {
	if !w.refreshing.CompareAndSwap(false, true) {
		return
	}
	defer w.refreshing.Store(false)

	w.RefreshAll(ctx)
}

// RefreshAll builds a report for every configured pair and hands each one to
// the reporter. Failures are reported per pair and do not stop the others.
func (w *Watcher) RefreshAll(ctx context.Context) []*domain.MarketReport {
	reports := make([]*domain.MarketReport, 0, len(w.config.Pairs))
	for _, pair := range w.config.Pairs {
		if ctx.Err() != nil {
			break
		}

		report, err := w.market.Report(ctx, pair)
		if err != nil {
			w.log.Error(ctx, "market report failed", "pair", pair.String(), "error", err)
			w.reporter.ReportError(err)
			continue
		}
		w.reporter.Report(report)
		reports = append(reports, report)
	}
	return reports
}

// Stop cancels the refresh loop and waits for in-flight refreshes, bounded by
// ctx, before stopping the reporter.
func (w *Watcher) Stop(ctx context.Context) error {
	w.log.Info(ctx, "stopping market watcher")
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		w.log.Warn(ctx, "refresh still running at shutdown", "error", ctx.Err())
	}

	return w.reporter.Stop()
}
