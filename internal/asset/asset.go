// Package asset models exchange asset symbols and trading pairs.
package asset

import (
	"strings"

	"github.com/fd1az/triangular-arbitrage/internal/apperror"
)

// Symbol is an upper-case asset ticker such as "BTC".
type Symbol string

// NormalizeSymbol trims and upper-cases s.
func NormalizeSymbol(s string) Symbol {
	return Symbol(strings.ToUpper(strings.TrimSpace(s)))
}

func (s Symbol) String() string {
	return string(s)
}

// Pair is a BASE/QUOTE market.
type Pair struct {
	Base  Symbol
	Quote Symbol
}

// NewPair builds a pair from raw symbols.
func NewPair(base, quote string) Pair {
	return Pair{Base: NormalizeSymbol(base), Quote: NormalizeSymbol(quote)}
}

// ParsePair parses "BASE/QUOTE".
func ParsePair(s string) (Pair, error) {
	base, quote, ok := strings.Cut(s, "/")
	if !ok || strings.TrimSpace(base) == "" || strings.TrimSpace(quote) == "" || strings.Contains(quote, "/") {
		return Pair{}, apperror.New(apperror.CodeInvalidFormat, apperror.WithContextf("pair %q", s))
	}
	return NewPair(base, quote), nil
}

// MustParsePair panics on malformed input. Intended for tests and constants.
func MustParsePair(s string) Pair {
	p, err := ParsePair(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders "BASE/QUOTE".
func (p Pair) String() string {
	return string(p.Base) + "/" + string(p.Quote)
}

// Compact renders "BASEQUOTE", the symbol form used by Binance-style APIs.
func (p Pair) Compact() string {
	return string(p.Base) + string(p.Quote)
}

// Has reports whether s is one side of the pair.
func (p Pair) Has(s Symbol) bool {
	return p.Base == s || p.Quote == s
}

// Other returns the side opposite s.
func (p Pair) Other(s Symbol) (Symbol, bool) {
	switch s {
	case p.Base:
		return p.Quote, true
	case p.Quote:
		return p.Base, true
	}
	return "", false
}

// IsZero reports an unset pair.
func (p Pair) IsZero() bool {
	return p.Base == "" && p.Quote == ""
}
