package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

// Level is one price level of a book.
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderBook holds the top levels of a pair; bids descending, asks ascending.
type OrderBook struct {
	Pair      asset.Pair
	Bids      []Level
	Asks      []Level
	Timestamp time.Time
}

func (ob *OrderBook) BestBid() (Level, bool) {
	if ob == nil || len(ob.Bids) == 0 {
		return Level{}, false
	}
	return ob.Bids[0], true
}

func (ob *OrderBook) BestAsk() (Level, bool) {
	if ob == nil || len(ob.Asks) == 0 {
		return Level{}, false
	}
	return ob.Asks[0], true
}

// Ticker is the best bid and ask of a pair.
type Ticker struct {
	Pair      asset.Pair
	Bid       decimal.Decimal
	BidSize   decimal.Decimal
	Ask       decimal.Decimal
	AskSize   decimal.Decimal
	Timestamp time.Time
}

// Usable reports whether both sides carry a positive price.
func (t Ticker) Usable() bool {
	return t.Bid.IsPositive() && t.Ask.IsPositive()
}
