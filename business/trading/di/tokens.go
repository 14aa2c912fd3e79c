// Package di contains dependency injection tokens for the trading context.
package di

import (
	"github.com/fd1az/triangular-arbitrage/business/trading/app"
	"github.com/fd1az/triangular-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Executor = di.NewToken[*app.Executor]("trading.Executor")
)

// Private dependency tokens - internal to trading module
var (
	Driver = di.NewToken[*app.Driver]("trading:driver")
)

func GetExecutor(c di.ServiceRegistry) *app.Executor {
	return di.GetToken(c, Executor)
}

func GetDriver(c di.ServiceRegistry) *app.Driver {
	return di.GetToken(c, Driver)
}
