// Package main is the entry point for the XRPL liquidity monitor.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/xrpl-liquidity/business/liquidity"
	liquidityDI "github.com/fd1az/xrpl-liquidity/business/liquidity/di"
	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/apm"
	"github.com/fd1az/xrpl-liquidity/internal/config"
	"github.com/fd1az/xrpl-liquidity/internal/di"
	"github.com/fd1az/xrpl-liquidity/internal/health"
	"github.com/fd1az/xrpl-liquidity/internal/logger"
	"github.com/fd1az/xrpl-liquidity/internal/metrics"
	"github.com/fd1az/xrpl-liquidity/internal/monolith"
	"github.com/fd1az/xrpl-liquidity/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

type runMode int

const (
	modeTUI runMode = iota
	modeCLI
	modeOnce
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	once := flag.Bool("once", false, "Print one report per pair and exit")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("xrpl-liquidity %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// TUI is the default, CLI is for debugging
	mode := modeTUI
	switch {
	case *once:
		mode = modeOnce
	case *cliMode:
		mode = modeCLI
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if mode != modeTUI {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, mode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, mode runMode) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Market.TUIMode = mode == modeTUI

	var out io.Writer = os.Stderr
	if mode == modeTUI {
		// logs would corrupt the alt screen
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting XRPL liquidity monitor",
		"version", version,
		"environment", cfg.App.Environment,
	)

	shutdownTelemetry, metricsHandler, err := setupTelemetry(ctx, cfg, mode, log)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}

	modules := []monolith.Module{
		&liquidity.Module{},
	}
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	stop := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mono.StopModules(stopCtx, modules...); err != nil {
			log.Error(stopCtx, "error stopping modules", "error", err)
		}
	}

	if mode == modeOnce {
		if err := mono.StartModules(ctx, modules...); err != nil {
			return fmt.Errorf("failed to start modules: %w", err)
		}
		defer stop()
		return runOnce(ctx, cfg, mono.Services())
	}

	healthServer := newHealthServer(cfg, mono.Services(), metricsHandler, log)
	if err := healthServer.Start(ctx); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	}
	defer healthServer.Stop(context.Background())

	if mode == modeTUI {
		start := func() error {
			ui.Send(ui.StartupMsg{Step: "config", Status: "done"})
			ui.Send(ui.StartupMsg{Step: "stream", Status: "connecting"})
			if err := mono.StartModules(ctx, modules...); err != nil {
				return fmt.Errorf("failed to start modules: %w", err)
			}
			return liquidityDI.GetWatcher(mono.Services()).Start(ctx)
		}
		return runTUI(ctx, start, stop)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}
	return runCLI(ctx, mono.Services(), stop, log)
}

// setupTelemetry installs tracing and metrics. The returned handler serves
// Prometheus metrics, or nil when metrics are off.
func setupTelemetry(ctx context.Context, cfg *config.Config, mode runMode, log logger.LoggerInterface) (func(), http.Handler, error) {
	var (
		traceProvider  apm.TraceProvider
		metricProvider *metrics.Provider
	)

	if cfg.Telemetry.Enabled {
		provider := apm.Provider(cfg.Telemetry.TraceProvider)
		if provider == apm.ConsoleProvider && mode == modeTUI {
			// stdout belongs to the TUI
			provider = apm.EmptyProvider
		}

		tp, err := apm.NewTraceProvider(ctx, apm.Settings{
			Provider:    provider,
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			Headers:     cfg.Telemetry.OTLPHeaders,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init tracing: %w", err)
		}
		traceProvider = tp
	}

	if cfg.Telemetry.MetricsEnabled {
		settings := metrics.Settings{
			ServiceName: cfg.Telemetry.ServiceName,
			Prometheus:  true,
		}
		if cfg.Telemetry.Enabled && apm.Provider(cfg.Telemetry.TraceProvider) == apm.OTLPGRPCProvider {
			settings.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
			settings.OTLPHeaders = apm.ParseHeaders(cfg.Telemetry.OTLPHeaders)
		}

		mp, err := metrics.NewMetricProvider(ctx, settings)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init metrics: %w", err)
		}
		metricProvider = mp
		log.Info(ctx, "metrics initialized", "prometheus", true, "otlp", settings.OTLPEndpoint != "")
	}

	shutdown := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if traceProvider != nil {
			if err := traceProvider.Stop(); err != nil {
				log.Error(stopCtx, "error stopping trace provider", "error", err)
			}
		}
		if metricProvider != nil {
			if err := metricProvider.Shutdown(stopCtx); err != nil {
				log.Error(stopCtx, "error stopping metric provider", "error", err)
			}
		}
	}

	var handler http.Handler
	if metricProvider != nil {
		handler = metricProvider.Handler()
	}
	return shutdown, handler, nil
}

// newHealthServer exposes liveness, readiness and metrics. Readiness follows
// the ledger stream and the RPC circuit breaker.
func newHealthServer(cfg *config.Config, services di.ServiceRegistry, metricsHandler http.Handler, log logger.LoggerInterface) *health.Server {
	server := health.NewServer(cfg.Health.Port, version, log)

	server.RegisterCheck("ledger_stream", func(ctx context.Context) (bool, string) {
		state := liquidityDI.GetLedgerStream(services).State()
		return state == domain.StateConnected, string(state)
	})
	server.RegisterCheck("xrpl_rpc", func(ctx context.Context) (bool, string) {
		state := liquidityDI.GetProvider(services).BreakerState()
		return state != gobreaker.StateOpen, "circuit " + state.String()
	})

	if metricsHandler != nil {
		server.Handle("/metrics", metricsHandler)
	}
	return server
}

// runOnce reports every configured market a single time.
func runOnce(ctx context.Context, cfg *config.Config, services di.ServiceRegistry) error {
	reports := liquidityDI.GetWatcher(services).RefreshAll(ctx)
	if failed := len(cfg.Market.Pairs) - len(reports); failed > 0 {
		return fmt.Errorf("%d of %d markets could not be read", failed, len(cfg.Market.Pairs))
	}
	return nil
}

func runCLI(ctx context.Context, services di.ServiceRegistry, stop func(), log *logger.Logger) error {
	log.Info(ctx, "all modules started, watching markets")

	watcher := liquidityDI.GetWatcher(services)
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	<-ctx.Done()
	log.Info(ctx, "shutting down")
	stop()
	return nil
}

func runTUI(ctx context.Context, start func() error, stop func()) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	// show the welcome screen right away
	p := tea.NewProgram(ui.New(), tea.WithAltScreen())
	ui.Program = p

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		if err := start(); err != nil {
			ui.Send(ui.StartupMsg{Step: "stream", Status: "failed"})
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}

		<-ctx.Done()
		stop()
		errCh <- nil
	}()

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, runErr := p.Run()

	// quitting from the keyboard leaves ctx alive; wind the modules down here
	cancel()
	err := <-errCh
	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return err
}
