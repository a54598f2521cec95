// Package ui provides the Bubble Tea dashboard for the liquidity monitor.
package ui

import "github.com/charmbracelet/lipgloss"

// Palette shared by the dashboard and its components.
var (
	ColorPrimary = lipgloss.Color("#7C3AED")
	ColorOK      = lipgloss.Color("#10B981")
	ColorDanger  = lipgloss.Color("#EF4444")
	ColorWarning = lipgloss.Color("#F59E0B")
	ColorLedger  = lipgloss.Color("#60A5FA")
	ColorMuted   = lipgloss.Color("#6B7280")
	ColorBorder  = lipgloss.Color("#374151")
)

var (
	// PanelStyle frames the markets and probes columns.
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	BannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorPrimary).
			Padding(0, 2)

	SectionStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	LedgerStyle  = lipgloss.NewStyle().Foreground(ColorLedger)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorDanger)
	PausedStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
	ReadyStyle   = lipgloss.NewStyle().Foreground(ColorOK)
	mutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1)
)
