package app

import (
	"context"
	"time"
)

// IntervalTrigger fires once immediately and then every Interval.
type IntervalTrigger struct {
	Interval time.Duration
}

func (t IntervalTrigger) Triggers(ctx context.Context) (<-chan struct{}, error) {
	out := make(chan struct{}, 1)
	out <- struct{}{}

	go func() {
		defer close(out)
		ticker := time.NewTicker(t.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}
