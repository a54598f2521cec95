package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/app"
	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/fd1az/xrpl-liquidity/internal/asset"
	"github.com/fd1az/xrpl-liquidity/internal/logger"
	"github.com/shopspring/decimal"
)

type fakeSource struct {
	mu      sync.Mutex
	books   map[domain.Direction]app.Book
	pool    *domain.PoolSnapshot
	poolErr error
	bookErr error
	calls   int
}

func (f *fakeSource) FetchOffers(_ context.Context, dir domain.Direction) (app.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.bookErr != nil {
		return app.Book{}, f.bookErr
	}
	return f.books[dir], nil
}

func (f *fakeSource) FetchPool(_ context.Context, _, _ asset.Asset) (*domain.PoolSnapshot, error) {
	if f.poolErr != nil {
		return nil, f.poolErr
	}
	if f.pool == nil {
		return nil, apperror.New(apperror.CodePoolNotFound)
	}
	return f.pool, nil
}

func newService(t *testing.T, source app.SnapshotSource, cfg app.MarketConfig) *app.MarketService {
	t.Helper()
	engine, err := app.NewEngine(app.DefaultEngineConfig(), logger.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return app.NewMarketService(source, engine, cfg, logger.NewNop())
}

func buyConfig(probes ...string) app.MarketConfig {
	sizes := make([]decimal.Decimal, len(probes))
	for i, p := range probes {
		sizes[i] = d(p)
	}
	return app.MarketConfig{
		TakerSide:    domain.SideBuy,
		ProbeSizes:   sizes,
		OwnerReserve: d("10"),
	}
}

func TestMarketService_Direction(t *testing.T) {
	svc := newService(t, &fakeSource{}, app.MarketConfig{TakerSide: domain.SideSell})
	if got := svc.Direction(pair); got != pair.Sell() {
		t.Errorf("Direction = %s, want %s", got, pair.Sell())
	}

	svc = newService(t, &fakeSource{}, buyConfig())
	if got := svc.Direction(pair); got != pair.Buy() {
		t.Errorf("Direction = %s, want %s", got, pair.Buy())
	}
}

func TestMarketService_Snapshot(t *testing.T) {
	source := &fakeSource{
		books: map[domain.Direction]app.Book{
			direction: {
				Entries:     []domain.OrderBookEntry{offer("100", "10", "rA")},
				LedgerIndex: 90,
			},
			direction.Reverse(): {
				Entries:     []domain.OrderBookEntry{counterOffer("9", "100", "rC")},
				LedgerIndex: 91,
			},
		},
		pool: pool("1000", "5000", 1000),
	}

	svc := newService(t, source, buyConfig())
	snap, err := svc.Snapshot(context.Background(), direction)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := len(snap.Entries()); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
	if n := len(snap.CounterEntries()); n != 1 {
		t.Errorf("counter entries = %d, want 1", n)
	}
	if _, ok := snap.Pool(); !ok {
		t.Error("expected the pool in the snapshot")
	}
	if snap.LedgerIndex() != 91 {
		t.Errorf("LedgerIndex = %d, want the newest of the reads (91)", snap.LedgerIndex())
	}
	if snap.FetchedAt().IsZero() {
		t.Error("expected FetchedAt to be set")
	}
	if source.calls != 2 {
		t.Errorf("book reads = %d, want 2", source.calls)
	}
}

func TestMarketService_SnapshotWithoutPool(t *testing.T) {
	source := &fakeSource{
		books: map[domain.Direction]app.Book{
			direction: {Entries: []domain.OrderBookEntry{offer("100", "10", "rA")}},
		},
	}

	svc := newService(t, source, buyConfig())
	snap, err := svc.Snapshot(context.Background(), direction)
	if err != nil {
		t.Fatalf("a missing pool must not fail the snapshot: %v", err)
	}
	if _, ok := snap.Pool(); ok {
		t.Error("expected no pool")
	}
}

func TestMarketService_SnapshotErrors(t *testing.T) {
	tests := []struct {
		name   string
		source *fakeSource
		code   apperror.Code
	}{
		{
			name:   "book read fails",
			source: &fakeSource{bookErr: apperror.New(apperror.CodeLedgerRequestFailed)},
			code:   apperror.CodeLedgerRequestFailed,
		},
		{
			name:   "pool read fails",
			source: &fakeSource{poolErr: apperror.New(apperror.CodeCircuitOpen)},
			code:   apperror.CodeCircuitOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(t, tt.source, buyConfig())
			_, err := svc.Snapshot(context.Background(), direction)
			if !apperror.IsCode(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestMarketService_Report(t *testing.T) {
	source := &fakeSource{
		books: map[domain.Direction]app.Book{
			direction: {
				Entries: []domain.OrderBookEntry{
					offer("100", "10", "rA"),
					offer("180", "20", "rB"),
				},
				LedgerIndex: 7,
			},
		},
	}

	svc := newService(t, source, buyConfig("15", "50"))
	report, err := svc.Report(context.Background(), pair)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Pair != pair || report.Direction != direction {
		t.Errorf("unexpected pair/direction: %s %s", report.Pair, report.Direction)
	}
	if report.LedgerIndex != 7 {
		t.Errorf("LedgerIndex = %d, want 7", report.LedgerIndex)
	}
	if report.HasPool {
		t.Error("expected no pool")
	}
	if report.Statistics.EntryCount != 2 {
		t.Errorf("EntryCount = %d, want 2", report.Statistics.EntryCount)
	}
	if !report.Statistics.BestRate.Equal(d("10")) {
		t.Errorf("BestRate = %s, want 10", report.Statistics.BestRate)
	}

	if len(report.Probes) != 2 {
		t.Fatalf("probes = %d, want 2", len(report.Probes))
	}
	if got := report.Probes[0].Result.RealizedAmountOut; !got.Equal(d("145")) {
		t.Errorf("probe 15 out = %s, want 145", got)
	}
	if !report.Probes[1].Result.InsufficientLiquidity {
		t.Error("probe 50 should exceed the book")
	}

	if report.EffectiveBuyRate.LessThan(report.Statistics.BestRate) {
		t.Errorf("EffectiveBuyRate %s below best rate", report.EffectiveBuyRate)
	}
	if report.EffectiveSellRate.GreaterThan(report.Statistics.BestRate) {
		t.Errorf("EffectiveSellRate %s above best rate", report.EffectiveSellRate)
	}
}

func TestMarketService_ReportEmptyBook(t *testing.T) {
	svc := newService(t, &fakeSource{}, buyConfig("10"))
	report, err := svc.Report(context.Background(), pair)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Statistics.IsZero() {
		t.Errorf("expected zero statistics, got %+v", report.Statistics)
	}
	if !report.Probes[0].Result.InsufficientLiquidity {
		t.Error("expected the probe to report insufficient liquidity")
	}
	if !report.EffectiveBuyRate.IsZero() || !report.EffectiveSellRate.IsZero() {
		t.Error("effective rates must stay zero without a best rate")
	}
}

func TestMarketService_ReportPropagatesSourceError(t *testing.T) {
	svc := newService(t, &fakeSource{bookErr: errors.New("dial tcp: refused")}, buyConfig())
	if _, err := svc.Report(context.Background(), pair); err == nil {
		t.Fatal("expected an error")
	}
}

// fakeLedgers is a LedgerSubscriber driven by the test.
type fakeLedgers struct {
	ch    chan domain.LedgerClose
	err   error
	state domain.ConnectionState
}

func (f *fakeLedgers) Subscribe(context.Context) (<-chan domain.LedgerClose, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

func (f *fakeLedgers) State() domain.ConnectionState { return f.state }

// recordingReporter collects everything it is given.
type recordingReporter struct {
	mu      sync.Mutex
	reports []*domain.MarketReport
	ledgers []domain.LedgerClose
	errs    []error
	status  map[string]bool
	started bool
	stopped bool
	// calls received after Stop
	late int
}

func (r *recordingReporter) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	return nil
}

func (r *recordingReporter) Report(report *domain.MarketReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		r.late++
	}
	r.reports = append(r.reports, report)
}

func (r *recordingReporter) UpdateLedger(ledger domain.LedgerClose) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledgers = append(r.ledgers, ledger)
}

func (r *recordingReporter) UpdateConnectionStatus(name string, connected bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == nil {
		r.status = make(map[string]bool)
	}
	r.status[name] = connected
}

func (r *recordingReporter) connection(name string) (connected, seen bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	connected, seen = r.status[name]
	return connected, seen
}

func (r *recordingReporter) ReportError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		r.late++
	}
	r.errs = append(r.errs, err)
}

func (r *recordingReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

func (r *recordingReporter) counts() (reports, ledgers, errs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports), len(r.ledgers), len(r.errs)
}
