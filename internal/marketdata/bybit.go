package marketdata

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"crypto-trader/internal/events"
	"crypto-trader/internal/money"
	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

// DefaultBybitBaseURL is the public Bybit v5 market REST endpoint.
const DefaultBybitBaseURL = "https://api.bybit.com/v5/market"

// bybitTickers is the category-ticker response shape: the payload nests a
// result list and the first element carries the quote.
type bybitTickers struct {
	Result struct {
		List []bybitTicker `json:"list"`
	} `json:"result"`
}

type bybitTicker struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
	Volume24h string `json:"volume24h"`
}

// BybitFetcher reads last-traded price and 24h volume from the Bybit spot
// tickers endpoint.
type BybitFetcher struct {
	http   *resty.Client
	bus    *events.Bus
	bucket *TokenBucket
	logger *slog.Logger
}

// NewBybitFetcher creates a Bybit adapter. An empty baseURL selects the
// production endpoint.
func NewBybitFetcher(baseURL string, bus *events.Bus, logger *slog.Logger) *BybitFetcher {
	if baseURL == "" {
		baseURL = DefaultBybitBaseURL
	}
	return &BybitFetcher{
		http:   newVenueClient(baseURL),
		bus:    bus,
		bucket: bybitBucket(),
		logger: logger.With("component", "bybit"),
	}
}

// FetchPrice fetches the spot ticker, publishes PriceUpdated, and returns
// the event. Bybit spot symbols carry a USDT suffix; a bare base asset like
// BTC is translated to BTCUSDT on the wire, but the returned event keeps
// the symbol the caller supplied.
func (f *BybitFetcher) FetchPrice(ctx context.Context, symbol string) (types.PriceEvent, error) {
	if err := f.bucket.Wait(ctx); err != nil {
		return types.PriceEvent{}, errs.Wrap(errs.KindNetwork, "rate limit wait", err)
	}

	venueSymbol := symbol
	if !strings.Contains(venueSymbol, "USDT") {
		venueSymbol += "USDT"
	}

	var tickers bybitTickers
	resp, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("category", "spot").
		SetQueryParam("symbol", venueSymbol).
		SetResult(&tickers).
		Get("/tickers")
	if err != nil {
		return types.PriceEvent{}, errs.Network("bybit tickers", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return types.PriceEvent{}, errs.MarketDataf("bybit tickers status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(tickers.Result.List) == 0 {
		return types.PriceEvent{}, errs.MarketData("no ticker data from Bybit")
	}

	ticker := tickers.Result.List[0]
	price, err := money.Parse(ticker.LastPrice)
	if err != nil {
		return types.PriceEvent{}, err
	}
	volume, err := money.Parse(ticker.Volume24h)
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
func (f *BybitFetcher) ExchangeName() string { return "Bybit" }
