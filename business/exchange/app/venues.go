package app

import (
	"sort"
	"strings"

	arbdomain "github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
)

// VenueFactory builds the venue for one exchange.
type VenueFactory func() (Venue, error)

// Connectors maps exchange ids to the factories that can serve them.
type Connectors map[arbdomain.ExchangeID]VenueFactory

// Open builds the venue for id. Exchanges without a connector fail with
// EXCHANGE_UNSUPPORTED even when the id itself is known.
func (c Connectors) Open(id arbdomain.ExchangeID) (Venue, error) {
	f, ok := c[id]
	if !ok {
		return nil, apperror.New(apperror.CodeExchangeUnsupported,
			apperror.WithContextf("%s (available: %s)", id, strings.Join(c.ids(), ", ")))
	}
	return f()
}

func (c Connectors) ids() []string {
	out := make([]string, 0, len(c))
	for id := range c {
		out = append(out, id.String())
	}
	sort.Strings(out)
	return out
}
