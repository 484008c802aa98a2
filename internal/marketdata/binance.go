package marketdata

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"crypto-trader/internal/events"
	"crypto-trader/internal/money"
	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

// DefaultBinanceBaseURL is the public Binance spot REST endpoint.
const DefaultBinanceBaseURL = "https://api.binance.com/api/v3"

// binanceTicker is the 24hr ticker response shape. Prices arrive as decimal
// strings so precision survives the wire.
type binanceTicker struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
	Volume    string `json:"volume"`
}

// BinanceFetcher reads last-traded price and rolling volume from the
// Binance spot ticker endpoint.
type BinanceFetcher struct {
	http   *resty.Client
	bus    *events.Bus
	bucket *TokenBucket
	logger *slog.Logger
}

// NewBinanceFetcher creates a Binance adapter. An empty baseURL selects the
// production endpoint.
func NewBinanceFetcher(baseURL string, bus *events.Bus, logger *slog.Logger) *BinanceFetcher {
	if baseURL == "" {
		baseURL = DefaultBinanceBaseURL
	}
	return &BinanceFetcher{
		http:   newVenueClient(baseURL),
		bus:    bus,
		bucket: binanceBucket(),
		logger: logger.With("component", "binance"),
	}
}

// FetchPrice fetches the ticker for a symbol, publishes PriceUpdated, and
// returns the event. The symbol is passed to the venue as-is; Binance spot
// symbols are already in BASEQUOTE form (e.g. BTCUSDT).
func (f *BinanceFetcher) FetchPrice(ctx context.Context, symbol string) (types.PriceEvent, error) {
	if err := f.bucket.Wait(ctx); err != nil {
		return types.PriceEvent{}, errs.Wrap(errs.KindNetwork, "rate limit wait", err)
	}

	var ticker binanceTicker
	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&ticker).
		Get("/ticker/24hr")
	if err != nil {
		return types.PriceEvent{}, errs.Network("binance ticker", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return types.PriceEvent{}, errs.MarketDataf("binance ticker status %d: %s", resp.StatusCode(), resp.String())
	}

	price, err := money.Parse(ticker.LastPrice)
	if err != nil {
		return types.PriceEvent{}, err
	}
	volume, err := money.Parse(ticker.Volume)
	if err != nil {
		return types.PriceEvent{}, err
	}

	event, err := types.NewPriceEvent(symbol, price, volume)
	if err != nil {
		return types.PriceEvent{}, err
	}

	f.bus.Publish(events.PriceUpdated{Tick: event})
	return event, nil
}

// ExchangeName identifies the venue.
func (f *BinanceFetcher) ExchangeName() string { return "Binance" }

// newVenueClient builds the shared resty configuration for venue REST
// calls: short timeout, retry on transport errors and 5xx.
func newVenueClient(baseURL string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Accept", "application/json")
}
