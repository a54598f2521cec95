package domain

import "time"

// LiquiditySnapshot is one read-only view of the liquidity for a direction:
// the primary book, an optional complementary book and an optional pool.
//
// The parts may have been fetched at slightly different moments; a snapshot is
// a best-effort composite, not an atomic read of the ledger. It is never
// mutated after construction and is safe for concurrent use.
type LiquiditySnapshot struct {
	entries     []OrderBookEntry
	counter     []OrderBookEntry
	pool        *PoolSnapshot
	ledgerIndex uint32
	fetchedAt   time.Time
}

// SnapshotOption configures optional parts of a snapshot.
type SnapshotOption func(*LiquiditySnapshot)

// WithCounterBook attaches the complementary book, used for spread and
// liquidity ratio.
func WithCounterBook(entries []OrderBookEntry) SnapshotOption {
	return func(s *LiquiditySnapshot) {
		s.counter = cloneEntries(entries)
	}
}

// WithLedgerIndex records the validated ledger the data was read from.
func WithLedgerIndex(index uint32) SnapshotOption {
	return func(s *LiquiditySnapshot) {
		s.ledgerIndex = index
	}
}

// WithFetchedAt records when the data was fetched.
func WithFetchedAt(t time.Time) SnapshotOption {
	return func(s *LiquiditySnapshot) {
		s.fetchedAt = t
	}
}

// NewLiquiditySnapshot copies its inputs so later changes by the caller do not
// leak into the snapshot.
func NewLiquiditySnapshot(entries []OrderBookEntry, pool *PoolSnapshot, opts ...SnapshotOption) LiquiditySnapshot {
	s := LiquiditySnapshot{
		entries: cloneEntries(entries),
	}
	if pool != nil {
		p := *pool
		s.pool = &p
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Entries returns a copy of the primary book.
func (s LiquiditySnapshot) Entries() []OrderBookEntry {
	return cloneEntries(s.entries)
}

// CounterEntries returns a copy of the complementary book.
func (s LiquiditySnapshot) CounterEntries() []OrderBookEntry {
	return cloneEntries(s.counter)
}

// Pool returns a copy of the pool, if any.
func (s LiquiditySnapshot) Pool() (PoolSnapshot, bool) {
	if s.pool == nil {
		return PoolSnapshot{}, false
	}
	return *s.pool, true
}

// LedgerIndex returns the ledger the snapshot was read from, 0 when unknown.
func (s LiquiditySnapshot) LedgerIndex() uint32 { return s.ledgerIndex }

// FetchedAt returns the fetch time, zero when unknown.
func (s LiquiditySnapshot) FetchedAt() time.Time { return s.fetchedAt }

// IsEmpty reports whether the snapshot holds no liquidity at all.
func (s LiquiditySnapshot) IsEmpty() bool {
	return len(s.entries) == 0 && len(s.counter) == 0 && s.pool == nil
}

func cloneEntries(entries []OrderBookEntry) []OrderBookEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]OrderBookEntry, len(entries))
	copy(out, entries)
	return out
}
