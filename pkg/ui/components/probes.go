package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// ProbeRow is one simulated execution.
type ProbeRow struct {
	Spend        decimal.Decimal
	Received     decimal.Decimal
	AverageRate  decimal.Decimal
	PriceImpact  decimal.Decimal
	Fees         decimal.Decimal
	Shortfall    decimal.Decimal
	Fills        int
	Insufficient bool
}

// ProbesComponent renders the probe table of the selected pair.
type ProbesComponent struct {
	pair string
	pays string
	gets string
	rows []ProbeRow
}

// NewProbesComponent creates a new probes component.
func NewProbesComponent() *ProbesComponent {
	return &ProbesComponent{}
}

// Set replaces the table contents.
func (p *ProbesComponent) Set(pair, pays, gets string, rows []ProbeRow) {
	p.pair = pair
	p.pays = pays
	p.gets = gets
	p.rows = rows
}

// Clear empties the table.
func (p *ProbesComponent) Clear() {
	p.rows = nil
}

// View renders the probes component.
func (p *ProbesComponent) View() string {
	if len(p.rows) == 0 {
		return "No simulated executions yet..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	shortStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("EXECUTION PROBES (%s)", p.pair)))
	sb.WriteString("\n")
	sb.WriteString("┌──────────────┬──────────────┬──────────────┬─────────┬───────┬──────────────┐\n")
	fmt.Fprintf(&sb, "│ %-12s │ %-12s │ %-12s │ Impact  │ Fills │ Status       │\n",
		"Spend "+p.pays, "Get "+p.gets, "Avg rate")
	sb.WriteString("├──────────────┼──────────────┼──────────────┼─────────┼───────┼──────────────┤\n")

	for _, row := range p.rows {
		status := okStyle.Render(fmt.Sprintf("%-12s", "filled"))
		if row.Insufficient {
			status = shortStyle.Render(fmt.Sprintf("%-12s", "short "+row.Shortfall.StringFixed(2)))
		}
		fmt.Fprintf(&sb, "│ %12s │ %12s │ %12s │ %6s%% │ %5d │ %s │\n",
			row.Spend.StringFixed(2),
			row.Received.StringFixed(4),
			row.AverageRate.StringFixed(6),
			row.PriceImpact.StringFixed(2),
			row.Fills,
			status,
		)
	}

	sb.WriteString("└──────────────┴──────────────┴──────────────┴─────────┴───────┴──────────────┘")
	return sb.String()
}
