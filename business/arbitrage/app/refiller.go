package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/fd1az/triangular-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/triangular-arbitrage/internal/apperror"
)

// Refiller fills missing edge quantities from the top of the book.
type Refiller struct {
	books OrderBookSource
}

func NewRefiller(books OrderBookSource) *Refiller {
	return &Refiller{books: books}
}

// Refill sets every edge quantity from depth-1 books. It returns false when a
// required level is missing, in which case the cycle is left unchanged. A cycle
// whose quantities are all set is returned as is without touching the books.
func (r *Refiller) Refill(ctx context.Context, cycle *domain.Cycle) (bool, error) {
	if cycle.HasQuantities() {
		return true, nil
	}

	edges := cycle.Edges()
	var books [3]*domain.OrderBook

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range edges {
		g.Go(func() error {
			ob, err := r.books.FetchOrderBook(gctx, e.Pair, 1)
			if err != nil {
				return apperror.Wrap(err, apperror.CodeOrderbookFetchFailed, e.Pair.String())
			}
			books[i] = ob
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	var sizes [3]domain.Level
	for i, e := range edges {
		bid, hasBid := books[i].BestBid()
		ask, hasAsk := books[i].BestAsk()
		if !hasBid || !hasAsk {
			return false, nil
		}
		if e.Side == domain.SideBuy {
			sizes[i] = ask
		} else {
			sizes[i] = bid
		}
	}

	for i, e := range edges {
		e.SetQuantity(sizes[i].Size)
	}
	return true, nil
}
