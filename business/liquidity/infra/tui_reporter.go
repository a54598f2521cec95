package infra

import (
	"context"
	"time"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/app"
	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/pkg/ui"
)

// TUIReporter implements Reporter by forwarding to the Bubble Tea program.
type TUIReporter struct {
	send func(msg any)
}

var _ app.Reporter = (*TUIReporter)(nil)

// NewTUIReporter creates a TUIReporter that sends to the running program.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{send: func(msg any) { ui.Send(msg) }}
}

// Start marks the book reading step as started.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.StartupMsg{Step: "books", Status: "connecting"})
	return nil
}

// Report sends a market report to the TUI.
func (r *TUIReporter) Report(report *domain.MarketReport) {
	r.send(ui.ReportMsg{Report: report})
}

// UpdateLedger sends a ledger close to the TUI.
func (r *TUIReporter) UpdateLedger(ledger domain.LedgerClose) {
	r.send(ui.LedgerMsg{Ledger: ledger})
}

// UpdateConnectionStatus sends connection status to the TUI.
func (r *TUIReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.send(ui.ConnectionStatusMsg{Name: name, Connected: connected, Latency: latency})
}

// ReportError sends an error to the TUI.
func (r *TUIReporter) ReportError(err error) {
	if err != nil {
		r.send(ui.ErrorMsg{Error: err})
	}
}

// Stop is a no-op; the program is stopped by main.
func (r *TUIReporter) Stop() error {
	return nil
}
