// Package liquidity implements the liquidity bounded context: order book and
// AMM reads, market statistics and execution simulation.
package liquidity

import (
	"context"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/app"
	liquidityDI "github.com/fd1az/xrpl-liquidity/business/liquidity/di"
	"github.com/fd1az/xrpl-liquidity/business/liquidity/infra"
	"github.com/fd1az/xrpl-liquidity/business/liquidity/infra/xrpl"
	"github.com/fd1az/xrpl-liquidity/internal/asset"
	"github.com/fd1az/xrpl-liquidity/internal/config"
	"github.com/fd1az/xrpl-liquidity/internal/di"
	"github.com/fd1az/xrpl-liquidity/internal/logger"
	"github.com/fd1az/xrpl-liquidity/internal/monolith"
)

// Module implements the liquidity bounded context.
type Module struct{}

// RegisterServices registers all liquidity services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Engine (public)
	di.RegisterToken(c, liquidityDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		engine, err := app.NewEngine(app.EngineConfig{
			SlippageTolerance: cfg.Market.SlippageToleranceDecimal(),
			FeeAdjusted:       cfg.Market.FeeAdjusted,
		}, log)
		if err != nil {
			panic("failed to create engine: " + err.Error())
		}
		return engine
	})

	// JSON-RPC client (private)
	di.RegisterToken(c, liquidityDI.RPCClient, func(sr di.ServiceRegistry) *xrpl.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		clientCfg := xrpl.DefaultClientConfig(cfg.XRPL.RPCURL)
		clientCfg.RequestTimeout = cfg.XRPL.RequestTimeout
		clientCfg.RateLimitRPS = cfg.XRPL.RateLimitRPS
		clientCfg.RateLimitBurst = cfg.XRPL.RateLimitBurst

		client, err := xrpl.NewClient(clientCfg, log)
		if err != nil {
			panic("failed to create xrpl client: " + err.Error())
		}
		return client
	})

	// Snapshot source (private)
	di.RegisterToken(c, liquidityDI.Provider, func(sr di.ServiceRegistry) *xrpl.Provider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return xrpl.NewProvider(liquidityDI.GetRPCClient(sr), xrpl.ProviderConfig{
			BookLimit:   cfg.XRPL.BookLimit,
			LedgerIndex: cfg.XRPL.LedgerIndex,
		}, log)
	})

	// Ledger stream (private)
	di.RegisterToken(c, liquidityDI.LedgerStream, func(sr di.ServiceRegistry) *xrpl.LedgerStream {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		streamCfg := xrpl.DefaultStreamConfig(cfg.XRPL.WebSocketURL)
		streamCfg.MaxReconnects = cfg.XRPL.MaxReconnects
		streamCfg.InitialBackoff = cfg.XRPL.InitialBackoff
		streamCfg.MaxBackoff = cfg.XRPL.MaxBackoff

		stream, err := xrpl.NewLedgerStream(streamCfg, log)
		if err != nil {
			panic("failed to create ledger stream: " + err.Error())
		}
		return stream
	})

	// Reporter (private) - TUI or console depending on mode
	di.RegisterToken(c, liquidityDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Market.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter()
	})

	// MarketService (public)
	di.RegisterToken(c, liquidityDI.MarketService, func(sr di.ServiceRegistry) *app.MarketService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewMarketService(
			liquidityDI.GetProvider(sr),
			liquidityDI.GetEngine(sr),
			app.MarketConfig{
				TakerSide:    cfg.Market.Side(),
				ProbeSizes:   cfg.Market.ProbeSizesDecimal(),
				OwnerReserve: cfg.Market.OwnerReserveDecimal(),
			},
			log,
		)
	})

	// Watcher (public)
	di.RegisterToken(c, liquidityDI.Watcher, func(sr di.ServiceRegistry) *app.Watcher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		pairs, err := cfg.Market.ParsedPairs(registry)
		if err != nil {
			panic("failed to parse pairs: " + err.Error())
		}

		return app.NewWatcher(
			liquidityDI.GetMarketService(sr),
			liquidityDI.GetLedgerStream(sr),
			liquidityDI.GetReporter(sr),
			app.WatcherConfig{
				Pairs:           pairs,
				RefreshInterval: cfg.Market.RefreshInterval,
			},
			log,
		)
	})

	return nil
}

// Startup checks that every configured pair resolves. The watcher is started
// by main once the UI is ready.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	pairs, err := cfg.Market.ParsedPairs(mono.AssetRegistry())
	if err != nil {
		return err
	}
	for _, p := range pairs {
		log.Info(ctx, "watching market", "pair", p.String(), "base", p.Base.String(), "quote", p.Quote.String())
	}

	log.Info(ctx, "liquidity module started", "rpc", cfg.XRPL.RPCURL, "stream", cfg.XRPL.WebSocketURL)
	return nil
}

// Shutdown stops the watcher and closes the ledger stream.
func (m *Module) Shutdown(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	if err := liquidityDI.GetWatcher(mono.Services()).Stop(ctx); err != nil {
		log.Error(ctx, "error stopping watcher", "error", err)
	}
	if err := liquidityDI.GetLedgerStream(mono.Services()).Close(); err != nil {
		log.Error(ctx, "error closing ledger stream", "error", err)
		return err
	}
	return nil
}
