package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds counters for display.
type Stats struct {
	LedgersSeen  int64
	Reports      int64
	Probes       int64
	Insufficient int64
	Errors       int64
}

// StatsComponent renders counters.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current counters.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	filledRate := float64(0)
	if s.stats.Probes > 0 {
		filledRate = float64(s.stats.Probes-s.stats.Insufficient) / float64(s.stats.Probes) * 100
	}

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Ledgers: %s  │  Reports: %s  │  Probes filled: %s (%.1f%%)  │  Errors: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.LedgersSeen)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Reports)),
			valueStyle.Render(fmt.Sprintf("%d/%d", s.stats.Probes-s.stats.Insufficient, s.stats.Probes)),
			filledRate,
			errorsDisplay,
		)
}
