// Package di contains dependency injection tokens for the liquidity context.
package di

import (
	"github.com/fd1az/xrpl-liquidity/business/liquidity/app"
	"github.com/fd1az/xrpl-liquidity/business/liquidity/infra/xrpl"
	"github.com/fd1az/xrpl-liquidity/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Engine        = di.NewToken[*app.Engine]("liquidity.Engine")
	MarketService = di.NewToken[*app.MarketService]("liquidity.MarketService")
	Watcher       = di.NewToken[*app.Watcher]("liquidity.Watcher")
)

// Private dependency tokens - internal to the liquidity module
var (
	RPCClient    = di.NewToken[*xrpl.Client]("liquidity:rpcClient")
	Provider     = di.NewToken[*xrpl.Provider]("liquidity:provider")
	LedgerStream = di.NewToken[*xrpl.LedgerStream]("liquidity:ledgerStream")
	Reporter     = di.NewToken[app.Reporter]("liquidity:reporter")
)

// Helper functions for type-safe access
func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}

func GetMarketService(c di.ServiceRegistry) *app.MarketService {
	return di.GetToken(c, MarketService)
}

func GetWatcher(c di.ServiceRegistry) *app.Watcher {
	return di.GetToken(c, Watcher)
}

func GetRPCClient(c di.ServiceRegistry) *xrpl.Client {
	return di.GetToken(c, RPCClient)
}

func GetProvider(c di.ServiceRegistry) *xrpl.Provider {
	return di.GetToken(c, Provider)
}

func GetLedgerStream(c di.ServiceRegistry) *xrpl.LedgerStream {
	return di.GetToken(c, LedgerStream)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
