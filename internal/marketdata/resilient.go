package marketdata

import (
	"context"
	"fmt"

	"crypto-trader/internal/events"
	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

// ResilientFetcher wraps a primary and a secondary venue. Each call makes
// exactly two attempts at most: primary first, secondary only after the
// primary fails. Failover is per-call; no state is carried between calls
// and the primary is never retried within the same call.
type ResilientFetcher struct {
	primary   Fetcher
	secondary Fetcher
	bus       *events.Bus
}

// NewResilientFetcher wraps two fetchers with per-call failover.
func NewResilientFetcher(primary, secondary Fetcher, bus *events.Bus) *ResilientFetcher {
	return &ResilientFetcher{primary: primary, secondary: secondary, bus: bus}
}

// FetchPrice tries the primary, then the secondary. A primary failure is
// reported on the bus as an Error event before the secondary attempt.
func (r *ResilientFetcher) FetchPrice(ctx context.Context, symbol string) (types.PriceEvent, error) {
	event, primaryErr := r.primary.FetchPrice(ctx, symbol)
	if primaryErr == nil {
		return event, nil
	}

	r.bus.Publish(events.Error{Message: fmt.Sprintf("Primary feed failed: %v", primaryErr)})

	event, secondaryErr := r.secondary.FetchPrice(ctx, symbol)
	if secondaryErr != nil {
		return types.PriceEvent{}, errs.MarketDataf("Secondary feed failed: %v", secondaryErr)
	}
	return event, nil
}

// ExchangeName identifies the failover wrapper.
func (r *ResilientFetcher) ExchangeName() string { return "Resilient" }
