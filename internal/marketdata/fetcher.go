// Package marketdata implements the market-data ingestion layer: venue
// ticker adapters, primary/secondary failover, duplicate and gap detection,
// and tick normalization.
//
// The pipeline per tick is: a Fetcher produces a PriceEvent (publishing
// PriceUpdated on the shared bus), the Monitor drops retransmissions and
// rejects suspicious gaps, and Normalize rounds the price to the engine's
// fixed precision before anything downstream consumes it.
package marketdata

import (
	"context"
	"fmt"
	"log/slog"

	"crypto-trader/internal/events"
	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

// Fetcher produces a PriceEvent for a symbol from one venue. On success the
// implementation publishes PriceUpdated on the shared bus before returning.
type Fetcher interface {
	FetchPrice(ctx context.Context, symbol string) (types.PriceEvent, error)
	ExchangeName() string
}

// Exchange names accepted by the factory.
const (
	ExchangeBinance = "binance"
	ExchangeBybit   = "bybit"
)

// Endpoints carries per-venue base URLs. Zero values select the public
// production endpoints; tests point them at local servers.
type Endpoints struct {
	BinanceBaseURL string
	BybitBaseURL   string
}

// New builds a single-venue fetcher by exchange name.
func New(exchange string, eps Endpoints, bus *events.Bus, logger *slog.Logger) (Fetcher, error) {
	switch exchange {
	case ExchangeBinance:
		return NewBinanceFetcher(eps.BinanceBaseURL, bus, logger), nil
	case ExchangeBybit:
		return NewBybitFetcher(eps.BybitBaseURL, bus, logger), nil
	}
	return nil, errs.Config(fmt.Sprintf("unknown exchange %q (want %s or %s)", exchange, ExchangeBinance, ExchangeBybit))
}

// NewResilientPair builds a failover fetcher from two exchange names.
func NewResilientPair(primary, secondary string, eps Endpoints, bus *events.Bus, logger *slog.Logger) (Fetcher, error) {
	p, err := New(primary, eps, bus, logger)
	if err != nil {
		return nil, err
	}
	s, err := New(secondary, eps, bus, logger)
	if err != nil {
		return nil, err
	}
	return NewResilientFetcher(p, s, bus), nil
}
