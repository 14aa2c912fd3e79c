// Package binance is the Binance spot venue: REST through go-binance and the
// all-market ticker stream through wsconn.
package binance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventType24hrTicker tags the entries of the all-market ticker stream.
const EventType24hrTicker = "24hrTicker"

// allTickersPath is the raw stream carrying every symbol's 24h ticker, best bid/ask included.
const allTickersPath = "/ws/!ticker@arr"

// TickerEvent is one entry of the !ticker@arr array.
type TickerEvent struct {
	EventType string `json:"e"` // "24hrTicker"
	EventTime int64  `json:"E"` // Event time (ms)
	Symbol    string `json:"s"`
	LastPrice string `json:"c"`
	BidPrice  string `json:"b"`
	BidQty    string `json:"B"`
	AskPrice  string `json:"a"`
	AskQty    string `json:"A"`
	LowPrice  string `json:"l"`
}

// Timestamp returns the event time.
func (e *TickerEvent) Timestamp() time.Time {
	return time.UnixMilli(e.EventTime)
}

// Quote parses the best bid and ask with their sizes.
func (e *TickerEvent) Quote() (bid, bidQty, ask, askQty decimal.Decimal, err error) {
	if bid, err = decimal.NewFromString(e.BidPrice); err != nil {
		return
	}
	if bidQty, err = decimal.NewFromString(e.BidQty); err != nil {
		return
	}
	if ask, err = decimal.NewFromString(e.AskPrice); err != nil {
		return
	}
	askQty, err = decimal.NewFromString(e.AskQty)
	return
}

// Exchange-info filter types and the keys read from them.
const (
	filterLotSize     = "LOT_SIZE"
	filterPrice       = "PRICE_FILTER"
	filterNotional    = "NOTIONAL"
	filterMinNotional = "MIN_NOTIONAL"
)

// decimalField reads a string-encoded number from an exchange-info filter.
func decimalField(f map[string]interface{}, key string) (decimal.Decimal, bool) {
	s, ok := f[key].(string)
	if !ok || s == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// stepPrecision turns a step such as "0.00010000" into decimal places (4).
func stepPrecision(step decimal.Decimal) int32 {
	if !step.IsPositive() {
		return 8
	}
	for p := int32(0); p < 18; p++ {
		if step.Shift(p).IsInteger() {
			return p
		}
	}
	return 18
}

func streamURL(base string) string {
	return strings.TrimSuffix(base, "/") + allTickersPath
}
