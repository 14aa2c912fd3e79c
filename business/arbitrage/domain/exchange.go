package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/triangular-arbitrage/internal/apperror"
	"github.com/fd1az/triangular-arbitrage/internal/asset"
)

// ExchangeID identifies a venue.
type ExchangeID string

const (
	Kucoin    ExchangeID = "kucoin"
	Binance   ExchangeID = "binance"
	Bitbank   ExchangeID = "bitbank"
	Bittrex   ExchangeID = "bittrex"
	Cryptopia ExchangeID = "cryptopia"
	Hitbtc    ExchangeID = "hitbtc"
	Hitbtc2   ExchangeID = "hitbtc2"
	Cobinhood ExchangeID = "cobinhood"
	Livecoin  ExchangeID = "livecoin"
	Okex      ExchangeID = "okex"
	Huobipro  ExchangeID = "huobipro"
	Poloniex  ExchangeID = "poloniex"
)

var knownExchanges = map[ExchangeID]struct{}{
	Kucoin: {}, Binance: {}, Bitbank: {}, Bittrex: {}, Cryptopia: {}, Hitbtc: {},
	Hitbtc2: {}, Cobinhood: {}, Livecoin: {}, Okex: {}, Huobipro: {}, Poloniex: {},
}

// ParseExchangeID normalizes s and rejects unknown venues.
func ParseExchangeID(s string) (ExchangeID, error) {
	id := ExchangeID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownExchanges[id]; !ok {
		return "", apperror.New(apperror.CodeExchangeUnsupported, apperror.WithContextf("exchange %q", s))
	}
	return id, nil
}

func (id ExchangeID) String() string {
	return string(id)
}

// QueryNeedsSide reports whether order lookups on this venue must carry the order side.
func (id ExchangeID) QueryNeedsSide() bool {
	return id == Kucoin
}

// Profile is the per-exchange trading configuration.
type Profile struct {
	FeeTiers      []decimal.Decimal
	Blacklist     map[asset.Symbol]struct{}
	AmountHaircut decimal.Decimal
}

// NewProfile builds a Profile, normalizing the blacklist symbols.
func NewProfile(tiers []decimal.Decimal, blacklist []string, haircut decimal.Decimal) Profile {
	p := Profile{
		FeeTiers:      tiers,
		Blacklist:     make(map[asset.Symbol]struct{}, len(blacklist)),
		AmountHaircut: haircut,
	}
	for _, s := range blacklist {
		p.Blacklist[asset.NormalizeSymbol(s)] = struct{}{}
	}
	return p
}

// Tiers returns the fee tiers, [0, 0] when none are configured.
func (p Profile) Tiers() []decimal.Decimal {
	if len(p.FeeTiers) == 0 {
		return []decimal.Decimal{decimal.Zero, decimal.Zero}
	}
	return p.FeeTiers
}

func (p Profile) IsBlacklisted(s asset.Symbol) bool {
	_, ok := p.Blacklist[s]
	return ok
}

// Profiles maps exchanges to their profile.
type Profiles map[ExchangeID]Profile

// For returns the profile of id, or the zero profile.
func (ps Profiles) For(id ExchangeID) Profile {
	return ps[id]
}
