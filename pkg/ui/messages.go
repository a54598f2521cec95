package ui

import (
	"time"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
)

// ReportMsg is sent when a market report is ready.
type ReportMsg struct {
	Report *domain.MarketReport
}

// LedgerMsg is sent when a validated ledger is received.
type LedgerMsg struct {
	Ledger domain.LedgerClose
}

// ConnectionStatusMsg is sent when connection status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step   string // "config", "stream", "books"
	Status string // "connecting", "connected", "done", "failed"
}
