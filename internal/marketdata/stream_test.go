package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestStreamFeedEmitsTrades(t *testing.T) {
	t.Parallel()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("streams"); got != "btcusdt@trade" {
			t.Errorf("streams param = %q, want btcusdt@trade", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		messages := []string{
			`not json at all`,
			`{"stream":"btcusdt@trade","data":{"e":"trade","s":"BTCUSDT","p":"bad","q":"1","T":1700000000000}}`,
			`{"stream":"btcusdt@trade","data":{"e":"trade","s":"BTCUSDT","p":"50000.5","q":"0.25","T":1700000000000}}`,
		}
		for _, msg := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	feed := NewStreamFeed(wsURL, []string{"BTCUSDT"}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = feed.Run(ctx) }()

	select {
	case event := <-feed.Ticks():
		if event.Symbol != "BTCUSDT" {
			t.Errorf("symbol = %q, want BTCUSDT", event.Symbol)
		}
		if event.Price.String() != "50000.5" {
			t.Errorf("price = %s, want 50000.5 (bad messages skipped)", event.Price)
		}
		if event.Volume.String() != "0.25" {
			t.Errorf("volume = %s, want 0.25", event.Volume)
		}
		if event.Timestamp != 1700000000000 {
			t.Errorf("timestamp = %d, want the trade time", event.Timestamp)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no tick arrived")
	}
}
