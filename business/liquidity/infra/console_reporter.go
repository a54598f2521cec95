// Package infra contains infrastructure adapters for the liquidity context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/app"
	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

var _ app.Reporter = (*ConsoleReporter)(nil)

// NewConsoleReporter creates a ConsoleReporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout)
}

// NewConsoleReporterTo creates a ConsoleReporter writing to w.
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{
		out: w,
		now: time.Now,
	}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "XRPL Liquidity Monitor Started")
	fmt.Fprintln(r.out, "==============================")
	return nil
}

// Report writes a market report.
func (r *ConsoleReporter) Report(report *domain.MarketReport) {
	if report == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s := report.Statistics
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "MARKET %s (%s)\n", report.Pair.String(), report.Direction.String())
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "Ledger:         #%d\n", report.LedgerIndex)
	fmt.Fprintf(r.out, "Fetched:        %s\n", report.FetchedAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Offers:         %d\n", s.EntryCount)
	if report.HasPool {
		fmt.Fprintf(r.out, "AMM pool:       yes (fee %s%%)\n", report.PoolFeeRate.Shift(2).StringFixed(3))
	} else {
		fmt.Fprintln(r.out, "AMM pool:       no")
	}
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "STATISTICS")
	fmt.Fprintf(r.out, "  Best rate:      %s\n", s.BestRate.StringFixed(8))
	fmt.Fprintf(r.out, "  Worst rate:     %s\n", s.WorstRate.StringFixed(8))
	fmt.Fprintf(r.out, "  VWAP:           %s\n", s.VWAP.StringFixed(8))
	fmt.Fprintf(r.out, "  Simple average: %s\n", s.SimpleAverage.StringFixed(8))
	fmt.Fprintf(r.out, "  Spread:         %s (%s%%)\n", s.BidAskSpread.StringFixed(8), s.SpreadPercent.StringFixed(4))
	fmt.Fprintf(r.out, "  Volatility:     %s (%s%%)\n", s.Volatility.StringFixed(8), s.VolatilityPercent.StringFixed(4))
	fmt.Fprintf(r.out, "  Depth:          %s %s for %s %s\n",
		s.DepthAtSlippage.StringFixed(4), report.Direction.Gets.Currency,
		s.DepthAtSlippageCost.StringFixed(4), report.Direction.Pays.Currency)
	fmt.Fprintf(r.out, "  Liquidity ratio: %s\n", s.LiquidityRatio.StringFixed(4))
	fmt.Fprintf(r.out, "  Effective buy:  %s\n", report.EffectiveBuyRate.StringFixed(8))
	fmt.Fprintf(r.out, "  Effective sell: %s\n", report.EffectiveSellRate.StringFixed(8))

	if len(report.Probes) > 0 {
		fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
		fmt.Fprintln(r.out, "EXECUTION PROBES")
		for _, p := range report.Probes {
			res := p.Result
			status := "filled"
			if res.InsufficientLiquidity {
				status = "insufficient, short " + res.Shortfall.StringFixed(4)
			}
			fmt.Fprintf(r.out, "  %14s %s -> %14s %s  avg %s  impact %s%%  fills %d  %s\n",
				p.Spend.StringFixed(4), report.Direction.Pays.Currency,
				res.RealizedAmountOut.StringFixed(4), report.Direction.Gets.Currency,
				res.AverageRate.StringFixed(8),
				res.PriceImpact().StringFixed(2),
				len(res.Fills),
				status,
			)
		}
	}
	fmt.Fprintln(r.out, "================================================================================")
}

// UpdateLedger writes a ledger close line.
func (r *ConsoleReporter) UpdateLedger(ledger domain.LedgerClose) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] ledger #%d closed (%d txns)\n", r.now().Format("15:04:05"), ledger.Index, ledger.TxnCount)
}

// UpdateConnectionStatus outputs connection status changes.
func (r *ConsoleReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "disconnected"
	if connected {
		status = fmt.Sprintf("connected (%s)", latency)
	}
	fmt.Fprintf(r.out, "[%s] %s: %s\n", r.now().Format("15:04:05"), name, status)
}

// ReportError writes a failure line.
func (r *ConsoleReporter) ReportError(err error) {
	if err == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "[%s] error: %v\n", r.now().Format("15:04:05"), err)
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "XRPL Liquidity Monitor Stopped")
	return nil
}
