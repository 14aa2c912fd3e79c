package binance

import (
	"context"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	arbdomain "github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

const symbolStatusTrading = "TRADING"

// Markets returns precision, limits, maker fee and 24h low per trading pair.
// The result is cached for MarketsTTL; concurrent misses load once.
func (c *Client) Markets(ctx context.Context) (arbdomain.Markets, error) {
	if m, ok := c.markets.Get(ctx, marketsKey); ok {
		return m, nil
	}

	c.marketsMu.Lock()
	defer c.marketsMu.Unlock()
	if m, ok := c.markets.Get(ctx, marketsKey); ok {
		return m, nil
	}

	m, err := c.LoadMarkets(ctx)
	if err != nil {
		return nil, err
	}
	c.markets.Set(ctx, marketsKey, m, c.config.MarketsTTL)
	return m, nil
}

// LoadMarkets reads exchange info and registers every trading symbol. The 24h
// lows and the account's maker fees are best effort: without them MinCost
// falls back to the other limits and the simulator to the default fee.
func (c *Client) LoadMarkets(ctx context.Context) (arbdomain.Markets, error) {
	info, err := call(ctx, c, "exchange_info", apperror.CodeMarketsFetchFailed, 20,
		func(ctx context.Context) (*binance.ExchangeInfo, error) {
			return c.api.NewExchangeInfoService().Do(ctx)
		})
	if err != nil {
		return nil, err
	}

	lows := c.fetchLows(ctx)
	fees := c.fetchMakerFees(ctx)
	quotes := quoteFilter(c.config.QuoteAssets)

	markets := make(arbdomain.Markets, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != symbolStatusTrading {
			continue
		}
		pair := asset.NewPair(s.BaseAsset, s.QuoteAsset)
		if len(quotes) > 0 {
			if _, ok := quotes[pair.Quote]; !ok {
				continue
			}
		}

		m := marketFromFilters(pair, s.Filters)
		m.Low = lows[s.Symbol]
		if fee, ok := fees[s.Symbol]; ok {
			m.MakerFee = decimal.NewNullDecimal(fee)
		}
		markets[pair] = m
		c.symbols.Register(s.Symbol, pair)
	}

	c.metrics.markets.Record(ctx, int64(len(markets)))
	c.logger.Info(ctx, "binance markets loaded", "markets", len(markets), "symbols", len(info.Symbols), "fees", len(fees))
	return markets, nil
}

func (c *Client) fetchLows(ctx context.Context) map[string]decimal.Decimal {
	stats, err := call(ctx, c, "ticker_24hr", apperror.CodeMarketsFetchFailed, 80,
		func(ctx context.Context) ([]*binance.PriceChangeStats, error) {
			return c.api.NewListPriceChangeStatsService().Do(ctx)
		})
	if err != nil {
		c.logger.Warn(ctx, "24h stats unavailable, minimum costs fall back to exchange limits", "error", err)
		return nil
	}

	lows := make(map[string]decimal.Decimal, len(stats))
	for _, st := range stats {
		if low, err := decimal.NewFromString(st.LowPrice); err == nil {
			lows[st.Symbol] = low
		}
	}
	return lows
}

// fetchMakerFees needs a signed request, so it is skipped without credentials.
func (c *Client) fetchMakerFees(ctx context.Context) map[string]decimal.Decimal {
	if c.config.APIKey == "" || c.config.APISecret == "" {
		return nil
	}
	details, err := call(ctx, c, "trade_fee", apperror.CodeMarketsFetchFailed, 1,
		func(ctx context.Context) ([]*binance.TradeFeeDetails, error) {
			return c.api.NewTradeFeeService().Do(ctx)
		})
	if err != nil {
		c.logger.Warn(ctx, "trade fees unavailable, using default maker fee", "error", err)
		return nil
	}

	fees := make(map[string]decimal.Decimal, len(details))
	for _, f := range details {
		if fee, err := decimal.NewFromString(f.MakerCommission); err == nil {
			fees[f.Symbol] = fee
		}
	}
	return fees
}

// marketFromFilters maps LOT_SIZE, PRICE_FILTER and (MIN_)NOTIONAL. Precision
// stays nil unless both step sizes are published.
func marketFromFilters(pair asset.Pair, filters []map[string]interface{}) arbdomain.MarketInfo {
	m := arbdomain.MarketInfo{Pair: pair}
	var (
		amountPlaces, pricePlaces int32
		hasLot, hasPrice          bool
	)

	for _, f := range filters {
		kind, _ := f["filterType"].(string)
		switch kind {
		case filterLotSize:
			if step, ok := decimalField(f, "stepSize"); ok {
				amountPlaces, hasLot = stepPrecision(step), true
			}
			m.Limits.MinAmount, _ = decimalField(f, "minQty")
		case filterPrice:
			if tick, ok := decimalField(f, "tickSize"); ok {
				pricePlaces, hasPrice = stepPrecision(tick), true
			}
			m.Limits.MinPrice, _ = decimalField(f, "minPrice")
		case filterNotional, filterMinNotional:
			if v, ok := decimalField(f, "minNotional"); ok && v.IsPositive() {
				m.Limits.MinCost = v
			}
		}
	}

	if hasLot && hasPrice {
		m.Precision = &arbdomain.Precision{Amount: amountPlaces, Price: pricePlaces}
	}
	return m
}

func quoteFilter(quotes []string) map[asset.Symbol]struct{} {
	if len(quotes) == 0 {
		return nil
	}
	out := make(map[asset.Symbol]struct{}, len(quotes))
	for _, q := range quotes {
		if q = strings.TrimSpace(q); q != "" {
			out[asset.NormalizeSymbol(q)] = struct{}{}
		}
	}
	return out
}
