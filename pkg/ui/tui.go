// Package ui provides the Bubble Tea TUI for the liquidity monitor.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/pkg/ui/components"
)

// StreamConnection is the connection name used for the ledger stream.
const StreamConnection = "XRPL"

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "done", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"   // Initial welcome screen
	PhaseStartup   Phase = "startup"   // Loading/connecting
	PhaseDashboard Phase = "dashboard" // Main dashboard
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

var startupOrder = []string{"config", "stream", "books"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	markets *components.MarketsComponent
	probes  *components.ProbesComponent
	status  *components.StatusComponent
	stats   *components.StatsComponent
	keys    KeyMap
	help    help.Model

	// Phase state
	phase        Phase
	welcomeStart time.Time

	// State
	ready        bool
	quitting     bool
	paused       bool
	width        int
	height       int
	ledger       domain.LedgerClose
	reports      map[string]*domain.MarketReport
	lastUpdate   time.Time
	lastReport   time.Time
	errors       []ErrorEntry // last 3
	logs         []string
	activityFeed []string

	// Startup state
	startupSteps map[string]*StartupStep
	startupTime  time.Time
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		markets:      components.NewMarketsComponent(),
		probes:       components.NewProbesComponent(),
		status:       components.NewStatusComponent(),
		stats:        components.NewStatsComponent(),
		keys:         DefaultKeyMap(),
		help:         help.New(),
		phase:        PhaseWelcome,
		welcomeStart: now,
		reports:      make(map[string]*domain.MarketReport),
		errors:       make([]ErrorEntry, 0, 3),
		logs:         make([]string, 0, 5),
		activityFeed: make([]string, 0, 6),
		startupSteps: map[string]*StartupStep{
			"config": {Name: "Loading configuration", Status: "pending"},
			"stream": {Name: "Connecting to the ledger stream", Status: "pending"},
			"books":  {Name: "Reading order books", Status: "pending"},
		},
		startupTime: now,
	}
}

// Phase returns the current phase.
func (m Model) Phase() Phase {
	return m.phase
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		// any other key skips the welcome screen
		if m.phase == PhaseWelcome {
			m.enterStartup()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Clear):
			m.probes.Clear()
			m.activityFeed = m.activityFeed[:0]
		case key.Matches(msg, m.keys.Up):
			m.markets.Prev()
			m.refreshProbes()
		case key.Matches(msg, m.keys.Down):
			m.markets.Next()
			m.refreshProbes()
		case key.Matches(msg, m.keys.Errors):
			m.errors = make([]ErrorEntry, 0, 3)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m.enterStartup()
		}
		return m, tickCmd()

	case ReportMsg:
		if msg.Report == nil {
			break
		}
		m.markStep("books", "done")
		if m.phase == PhaseStartup {
			m.phase = PhaseDashboard
		}
		if m.paused {
			break
		}
		m.applyReport(msg.Report)

	case LedgerMsg:
		m.ledger = msg.Ledger
		m.lastUpdate = time.Now()
		stats := m.stats.Stats()
		stats.LedgersSeen++
		m.stats.Update(stats)
		m.status.Update(components.ConnectionStatus{
			Name:       StreamConnection,
			Connected:  true,
			LastLedger: msg.Ledger.Index,
			LastUpdate: time.Now(),
		})
		m.activityFeed = addActivity(m.activityFeed,
			fmt.Sprintf("Ledger #%d closed (%d txns)", msg.Ledger.Index, msg.Ledger.TxnCount))

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:       msg.Name,
			Connected:  msg.Connected,
			Latency:    msg.Latency,
			LastUpdate: time.Now(),
		})
		m.lastUpdate = time.Now()
		if msg.Name == StreamConnection {
			if msg.Connected {
				m.markStep("stream", "connected")
			} else {
				m.markStep("stream", "connecting")
			}
		}
		m.markStep("config", "done")

	case ErrorMsg:
		if msg.Error == nil {
			break
		}
		stats := m.stats.Stats()
		stats.Errors++
		m.stats.Update(stats)
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		m.errors = append(m.errors, ErrorEntry{
			Message:   msg.Error.Error(),
			Timestamp: time.Now(),
		})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)

	case StartupMsg:
		m.markStep(msg.Step, msg.Status)
	}

	return m, nil
}

func (m *Model) enterStartup() {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// call directly, Send() must not be used from within Update
	if OnStartModules != nil {
		go OnStartModules()
	}
}

func (m *Model) markStep(name, status string) {
	if step, ok := m.startupSteps[name]; ok {
		step.Status = status
	}
}

func (m *Model) applyReport(report *domain.MarketReport) {
	pair := report.Pair.String()
	m.reports[pair] = report
	m.markets.Update(marketRow(report))
	m.refreshProbes()

	stats := m.stats.Stats()
	stats.Reports++
	for _, probe := range report.Probes {
		stats.Probes++
		if probe.Result.InsufficientLiquidity {
			stats.Insufficient++
		}
	}
	m.stats.Update(stats)

	m.lastReport = time.Now()
	m.lastUpdate = m.lastReport
	m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("%s best %s vwap %s (%d offers)",
		pair,
		report.Statistics.BestRate.StringFixed(6),
		report.Statistics.VWAP.StringFixed(6),
		report.Statistics.EntryCount,
	))
}

func (m *Model) refreshProbes() {
	report, ok := m.reports[m.markets.Selected()]
	if !ok {
		return
	}
	rows := make([]components.ProbeRow, 0, len(report.Probes))
	for _, p := range report.Probes {
		rows = append(rows, probeRow(p))
	}
	m.probes.Set(report.Pair.String(), report.Direction.Pays.Currency, report.Direction.Gets.Currency, rows)
}

func marketRow(r *domain.MarketReport) components.MarketRow {
	s := r.Statistics
	return components.MarketRow{
		Pair:              r.Pair.String(),
		Direction:         r.Direction.String(),
		BestRate:          s.BestRate,
		VWAP:              s.VWAP,
		SpreadPercent:     s.SpreadPercent,
		VolatilityPercent: s.VolatilityPercent,
		Depth:             s.DepthAtSlippage,
		LiquidityRatio:    s.LiquidityRatio,
		EffectiveBuy:      r.EffectiveBuyRate,
		EffectiveSell:     r.EffectiveSellRate,
		Entries:           s.EntryCount,
		HasPool:           r.HasPool,
		PoolFeePercent:    r.PoolFeeRate.Mul(decimal.NewFromInt(100)),
		LedgerIndex:       r.LedgerIndex,
	}
}

func probeRow(p domain.Probe) components.ProbeRow {
	return components.ProbeRow{
		Spend:        p.Spend,
		Received:     p.Result.RealizedAmountOut,
		AverageRate:  p.Result.AverageRate,
		PriceImpact:  p.Result.PriceImpact(),
		Fees:         p.Result.TotalFeesPaid,
		Shortfall:    p.Result.Shortfall,
		Fills:        len(p.Result.Fills),
		Insufficient: p.Result.InsufficientLiquidity,
	}
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	logs = append(logs, fmt.Sprintf("[%s] %s: %s", timestamp, level, message))
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// addActivity adds an activity message and returns the updated slice (keeps last 6).
func addActivity(feed []string, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	feed = append(feed, fmt.Sprintf("[%s] %s", timestamp, message))
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder

	b.WriteString(BannerStyle.Render(" XRPL Liquidity Monitor "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.markets.View()

	var rightContent strings.Builder
	rightContent.WriteString(m.probes.View())
	rightContent.WriteString("\n\n")
	rightContent.WriteString(m.renderActivityFeed())
	rightCol := rightContent.String()

	width := max(m.width, 40)
	if width > 120 {
		left := PanelStyle.Width(width/2 - 2).Render(leftCol)
		right := PanelStyle.Width(width/2 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	} else {
		b.WriteString(PanelStyle.Width(width - 4).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(PanelStyle.Width(width - 4).Render(rightCol))
	}
	b.WriteString("\n\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(ErrorStyle.Bold(true).Render("ERRORS"))
		b.WriteString(mutedStyle.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(ErrorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(mutedStyle.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(PausedStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m Model) renderActivityFeed() string {
	var sb strings.Builder
	sb.WriteString(SectionStyle.Render("LIVE ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activityFeed) == 0 {
		sb.WriteString(mutedStyle.Render("  Waiting for ledgers..."))
		return sb.String()
	}
	for _, activity := range m.activityFeed {
		if strings.Contains(activity, "Ledger #") {
			sb.WriteString(LedgerStyle.Render("  " + activity))
		} else {
			sb.WriteString(mutedStyle.Render("  " + activity))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderWelcomeScreen() string {
	dotCount := int(time.Since(m.welcomeStart).Milliseconds()/300) % 4
	dots := strings.Repeat(".", dotCount)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")

	logo := `
   ██╗  ██╗██████╗ ██████╗ ██╗
   ╚██╗██╔╝██╔══██╗██╔══██╗██║
    ╚███╔╝ ██████╔╝██████╔╝██║
    ██╔██╗ ██╔══██╗██╔═══╝ ██║
   ██╔╝ ██╗██║  ██║██║     ███████╗
   ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝     ╚══════╝
`
	sb.WriteString(SectionStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("        L I Q U I D I T Y   M O N I T O R"))
	sb.WriteString("\n\n\n")
	sb.WriteString(ReadyStyle.Render(fmt.Sprintf("               Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("         Press any key to skip, or wait..."))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStartupScreen() string {
	connectingStyle := lipgloss.NewStyle().Foreground(ColorWarning)

	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(SectionStyle.Render("  XRPL Liquidity Monitor"))
	sb.WriteString("\n\n")
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("  Starting up..."))
	sb.WriteString("\n\n")

	for _, name := range startupOrder {
		step, ok := m.startupSteps[name]
		if !ok {
			continue
		}

		var icon, statusText string
		var style lipgloss.Style
		switch step.Status {
		case "connected", "done":
			icon, statusText, style = "✓", "Ready", ReadyStyle
		case "connecting":
			spinners := []string{"◐", "◓", "◑", "◒"}
			idx := int(time.Since(m.startupTime).Milliseconds()/200) % len(spinners)
			icon, statusText, style = spinners[idx], "Connecting...", connectingStyle
		case "failed":
			icon, statusText, style = "✗", "Failed", ErrorStyle
		default:
			icon, statusText, style = "○", "Pending", mutedStyle
		}

		fmt.Fprintf(&sb, "  %s %s %s\n",
			style.Render(icon),
			mutedStyle.Render(step.Name),
			style.Render(statusText),
		)
	}

	sb.WriteString("\n")
	elapsed := time.Since(m.startupTime).Round(time.Second)
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("  Elapsed: %s", elapsed)))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("  Waiting for the first market report..."))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if time.Since(m.lastReport) < 500*time.Millisecond {
		spinners := []string{"⟳", "◐", "◓", "◑", "◒"}
		idx := int(time.Now().UnixMilli()/100) % len(spinners)
		parts = append(parts, ReadyStyle.Bold(true).Render(spinners[idx]+" Refreshing"))
	}

	if m.ledger.Index > 0 {
		parts = append(parts, fmt.Sprintf("Ledger: #%d", m.ledger.Index))
		if !m.ledger.CloseTime.IsZero() {
			parts = append(parts, mutedStyle.Render("closed "+m.ledger.CloseTime.Format("15:04:05")))
		}
	} else {
		parts = append(parts, mutedStyle.Render("Ledger: polling"))
	}

	parts = append(parts, m.status.View())

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
// main sets it to begin loading modules.
var OnStartModules func()

// Run starts the Bubble Tea program.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
	if _, ok := msg.(StartModulesMsg); ok && OnStartModules != nil {
		OnStartModules()
	}
}
