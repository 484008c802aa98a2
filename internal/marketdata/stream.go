// stream.go implements the live WebSocket ingestion path: a reconnecting
// feed on the Binance combined trade stream that turns trade messages into
// PriceEvents. It is an alternative to REST polling; both paths converge on
// the same monitor → normalizer gate downstream.
//
// The feed auto-reconnects with exponential backoff (1s → 30s max) and
// resubscribes to all tracked symbols on reconnection. A read deadline
// ensures silent server failures are detected instead of hanging forever.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"crypto-trader/internal/money"
	"crypto-trader/pkg/types"
)

// DefaultBinanceStreamURL is the public Binance combined-stream endpoint.
const DefaultBinanceStreamURL = "wss://stream.binance.com:9443/stream"

const (
	streamReadTimeout      = 5 * time.Minute  // quiet symbols may tick rarely
	streamWriteTimeout     = 10 * time.Second // deadline for outgoing messages
	streamMaxReconnectWait = 30 * time.Second // cap on exponential backoff
	streamTickBuffer       = 256              // buffered ticks before drops
)

// streamEnvelope wraps every combined-stream message.
type streamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// streamTrade is the per-trade payload on <symbol>@trade streams.
type streamTrade struct {
	EventType string `json:"e"` // always "trade"
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	Quantity  string `json:"q"`
	TradeTime int64  `json:"T"` // epoch milliseconds
}

// StreamFeed maintains one WebSocket connection to the combined trade
// stream and emits PriceEvents on Ticks. Malformed or unparseable messages
// are logged and skipped; they never stop the feed.
type StreamFeed struct {
	url     string
	symbols map[string]string // lowercase venue symbol → symbol as requested

	conn   *websocket.Conn
	connMu sync.Mutex // protects conn reads/writes

	ticks  chan types.PriceEvent
	logger *slog.Logger
}

// NewStreamFeed creates a feed for the given symbols. An empty wsURL
// selects the production endpoint.
func NewStreamFeed(wsURL string, symbols []string, logger *slog.Logger) *StreamFeed {
	if wsURL == "" {
		wsURL = DefaultBinanceStreamURL
	}
	bySymbol := make(map[string]string, len(symbols))
	for _, s := range symbols {
		bySymbol[strings.ToLower(s)] = s
	}
	return &StreamFeed{
		url:     wsURL,
		symbols: bySymbol,
		ticks:   make(chan types.PriceEvent, streamTickBuffer),
		logger:  logger.With("component", "stream"),
	}
}

// Ticks returns the read-only channel of live price events.
func (f *StreamFeed) Ticks() <-chan types.PriceEvent { return f.ticks }

// Run connects and maintains the stream with auto-reconnect. Blocks until
// ctx is cancelled.
func (f *StreamFeed) Run(ctx context.Context) error {
	backoff := time.Second

	for {
		err := f.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.Warn("stream disconnected, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > streamMaxReconnectWait {
			backoff = streamMaxReconnectWait
		}
	}
}

// Close gracefully closes the connection.
func (f *StreamFeed) Close() error {
	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}

func (f *StreamFeed) connectAndRead(ctx context.Context) error {
	streams := make([]string, 0, len(f.symbols))
	for venueSymbol := range f.symbols {
		streams = append(streams, venueSymbol+"@trade")
	}
	url := f.url + "?streams=" + strings.Join(streams, "/")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	f.connMu.Lock()
	f.conn = conn
	f.connMu.Unlock()

	defer func() {
		f.connMu.Lock()
		conn.Close()
		f.conn = nil
		f.connMu.Unlock()
	}()

	// The venue pings periodically; answer so the server keeps the
	// connection open, and push the read deadline out on each ping.
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(streamWriteTimeout))
	})

	f.logger.Info("stream connected", "streams", len(streams))

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		f.dispatchMessage(msg)
	}
}

func (f *StreamFeed) dispatchMessage(data []byte) {
	var envelope streamEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		f.logger.Debug("ignoring non-json stream message", "data", string(data))
		return
	}

	var trade streamTrade
	if err := json.Unmarshal(envelope.Data, &trade); err != nil || trade.EventType != "trade" {
		return
	}

	symbol, ok := f.symbols[strings.ToLower(trade.Symbol)]
	if !ok {
		return
	}

	price, err := money.Parse(trade.Price)
	if err != nil {
		f.logger.Warn("bad trade price", "symbol", trade.Symbol, "error", err)
		return
	}
	volume, err := money.Parse(trade.Quantity)
	if err != nil {
		f.logger.Warn("bad trade quantity", "symbol", trade.Symbol, "error", err)
		return
	}
	if trade.TradeTime < 0 {
		return
	}

	event := types.NewPriceEventAt(symbol, price, volume, uint64(trade.TradeTime))

	select {
	case f.ticks <- event:
	default:
		f.logger.Warn("tick channel full, dropping", "symbol", symbol)
	}
}
