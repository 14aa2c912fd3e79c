// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/triangular-arbitrage/business/arbitrage/app"
	"github.com/fd1az/triangular-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Scanner = di.NewToken[*app.Scanner]("arbitrage.Scanner")
	Ranker  = di.NewToken[*app.Ranker]("arbitrage.Ranker")
	Planner = di.NewToken[*app.Planner]("arbitrage.Planner")
)

// Private dependency tokens - internal to arbitrage module
var (
	Finder   = di.NewToken[*app.Finder]("arbitrage:finder")
	RankSink = di.NewToken[app.RankSink]("arbitrage:rankSink")
)

func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetRanker(c di.ServiceRegistry) *app.Ranker {
	return di.GetToken(c, Ranker)
}

func GetPlanner(c di.ServiceRegistry) *app.Planner {
	return di.GetToken(c, Planner)
}

func GetFinder(c di.ServiceRegistry) *app.Finder {
	return di.GetToken(c, Finder)
}

func GetRankSink(c di.ServiceRegistry) app.RankSink {
	return di.GetToken(c, RankSink)
}
