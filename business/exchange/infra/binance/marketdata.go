package binance

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"

	arbdomain "github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

// FetchOrderBook returns the top depth levels of pair.
func (c *Client) FetchOrderBook(ctx context.Context, pair asset.Pair, depth int) (*arbdomain.OrderBook, error) {
	if depth < 1 {
		depth = 1
	}
	symbol := c.exchangeSymbol(pair)
	res, err := call(ctx, c, "depth", apperror.CodeOrderbookFetchFailed, depthWeight(depth),
		func(ctx context.Context) (*binance.DepthResponse, error) {
			return c.api.NewDepthService().Symbol(symbol).Limit(depth).Do(ctx)
		})
	if err != nil {
		return nil, err
	}

	bids, err := parseLevels(res.Bids)
	if err != nil {
		return nil, apperror.New(apperror.CodeOrderbookFetchFailed, apperror.WithContext(symbol), apperror.WithCause(err))
	}
	asks, err := parseLevels(res.Asks)
	if err != nil {
		return nil, apperror.New(apperror.CodeOrderbookFetchFailed, apperror.WithContext(symbol), apperror.WithCause(err))
	}
	return &arbdomain.OrderBook{Pair: pair, Bids: bids, Asks: asks, Timestamp: c.now()}, nil
}

// Tickers returns the best bid and ask of every loaded market.
func (c *Client) Tickers(ctx context.Context) ([]arbdomain.Ticker, error) {
	if _, err := c.Markets(ctx); err != nil {
		return nil, apperror.New(apperror.CodeTickersFetchFailed, apperror.WithCause(err))
	}

	books, err := call(ctx, c, "book_ticker", apperror.CodeTickersFetchFailed, 4,
		func(ctx context.Context) ([]*binance.BookTicker, error) {
			return c.api.NewListBookTickersService().Do(ctx)
		})
	if err != nil {
		return nil, err
	}

	now := c.now()
	out := make([]arbdomain.Ticker, 0, len(books))
	for _, b := range books {
		pair, ok := c.symbols.Pair(b.Symbol)
		if !ok {
			continue
		}
		t, err := bookTicker(pair, b.BidPrice, b.BidQuantity, b.AskPrice, b.AskQuantity)
		if err != nil {
			c.logger.Debug(ctx, "skipping malformed book ticker", "symbol", b.Symbol, "error", err)
			continue
		}
		t.Timestamp = now
		out = append(out, t)
	}
	return out, nil
}

func bookTicker(pair asset.Pair, bid, bidQty, ask, askQty string) (arbdomain.Ticker, error) {
	t := arbdomain.Ticker{Pair: pair}
	var err error
	if t.Bid, err = decimal.NewFromString(bid); err != nil {
		return t, err
	}
	if t.BidSize, err = decimal.NewFromString(bidQty); err != nil {
		return t, err
	}
	if t.Ask, err = decimal.NewFromString(ask); err != nil {
		return t, err
	}
	t.AskSize, err = decimal.NewFromString(askQty)
	return t, err
}

// parseLevels converts depth levels; binance.Bid and binance.Ask alias common.PriceLevel.
func parseLevels(raw []common.PriceLevel) ([]arbdomain.Level, error) {
	levels := make([]arbdomain.Level, 0, len(raw))
	for _, r := range raw {
		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, err
		}
		size, err := decimal.NewFromString(r.Quantity)
		if err != nil {
			return nil, err
		}
		if size.IsZero() {
			continue
		}
		levels = append(levels, arbdomain.Level{Price: price, Size: size})
	}
	return levels, nil
}

// depthWeight follows the published weight table of /api/v3/depth.
func depthWeight(limit int) int {
	switch {
	case limit <= 100:
		return 5
	case limit <= 500:
		return 25
	case limit <= 1000:
		return 50
	default:
		return 250
	}
}
