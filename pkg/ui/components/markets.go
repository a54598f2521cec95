// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// MarketRow is the latest summary for one pair.
type MarketRow struct {
	Pair              string
	Direction         string
	BestRate          decimal.Decimal
	VWAP              decimal.Decimal
	SpreadPercent     decimal.Decimal
	VolatilityPercent decimal.Decimal
	Depth             decimal.Decimal
	LiquidityRatio    decimal.Decimal
	EffectiveBuy      decimal.Decimal
	EffectiveSell     decimal.Decimal
	Entries           int
	HasPool           bool
	PoolFeePercent    decimal.Decimal
	LedgerIndex       uint32
}

// MarketsComponent renders one line per pair and tracks the selected pair.
type MarketsComponent struct {
	rows     map[string]MarketRow
	order    []string
	selected int
}

// NewMarketsComponent creates a new markets component.
func NewMarketsComponent() *MarketsComponent {
	return &MarketsComponent{
		rows: make(map[string]MarketRow),
	}
}

// Update replaces the row for row.Pair, keeping first-seen order.
func (m *MarketsComponent) Update(row MarketRow) {
	if _, ok := m.rows[row.Pair]; !ok {
		m.order = append(m.order, row.Pair)
	}
	m.rows[row.Pair] = row
}

// Next moves the selection down, wrapping around.
func (m *MarketsComponent) Next() {
	if len(m.order) > 0 {
		m.selected = (m.selected + 1) % len(m.order)
	}
}

// Prev moves the selection up, wrapping around.
func (m *MarketsComponent) Prev() {
	if len(m.order) > 0 {
		m.selected = (m.selected - 1 + len(m.order)) % len(m.order)
	}
}

// Selected returns the selected pair, or "" when there is none.
func (m *MarketsComponent) Selected() string {
	if len(m.order) == 0 {
		return ""
	}
	return m.order[m.selected]
}

// Len returns the number of pairs shown.
func (m *MarketsComponent) Len() int {
	return len(m.order)
}

// View renders the markets component.
func (m *MarketsComponent) View() string {
	if len(m.order) == 0 {
		return "Waiting for the first market report..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("MARKETS"))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "  %-14s %14s %14s %9s %9s %8s\n",
		"Pair", "Best", "VWAP", "Spread", "Vol", "Offers")
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 74)) + "\n")

	for i, pair := range m.order {
		row := m.rows[pair]
		marker := " "
		style := dimStyle
		if i == m.selected {
			marker = "▸"
			style = selectedStyle
		}

		offers := fmt.Sprintf("%d", row.Entries)
		if row.HasPool {
			offers += "+AMM"
		}

		line := fmt.Sprintf("%s %-14s %14s %14s %8s%% %8s%% %8s",
			marker,
			row.Pair,
			row.BestRate.StringFixed(6),
			row.VWAP.StringFixed(6),
			row.SpreadPercent.StringFixed(2),
			row.VolatilityPercent.StringFixed(2),
			offers,
		)
		if row.Entries == 0 && !row.HasPool {
			line = fmt.Sprintf("%s %-14s %s", marker, row.Pair, warnStyle.Render("no liquidity"))
		}
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}

	if row, ok := m.rows[m.Selected()]; ok {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 74)) + "\n")
		fmt.Fprintf(&sb, "  %s  %s  ledger #%d\n", headerStyle.Render(row.Pair), dimStyle.Render(row.Direction), row.LedgerIndex)
		fmt.Fprintf(&sb, "  Depth at tolerance: %s\n", row.Depth.StringFixed(4))
		fmt.Fprintf(&sb, "  Liquidity ratio:    %s\n", row.LiquidityRatio.StringFixed(4))
		fmt.Fprintf(&sb, "  Effective buy:      %s\n", row.EffectiveBuy.StringFixed(6))
		fmt.Fprintf(&sb, "  Effective sell:     %s\n", row.EffectiveSell.StringFixed(6))
		if row.HasPool {
			fmt.Fprintf(&sb, "  AMM fee:            %s%%\n", row.PoolFeePercent.StringFixed(3))
		}
	}

	return sb.String()
}
