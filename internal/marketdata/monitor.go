package marketdata

import (
	"github.com/shopspring/decimal"

	"crypto-trader/pkg/errs"
	"crypto-trader/pkg/types"
)

// Monitor is the single gate that enforces temporal continuity on the tick
// stream. It idempotently drops retransmissions and rejects suspicious time
// gaps loudly rather than silently imputing prices.
//
// The monitor is single-owner state: the ingest loop that feeds it must
// serialize calls.
type Monitor struct {
	lastSeen       map[string]tickRecord
	gapThresholdMs uint64
}

type tickRecord struct {
	timestamp uint64
	price     decimal.Decimal
}

// NewMonitor creates a monitor that rejects forward jumps larger than
// gapThresholdMs milliseconds.
func NewMonitor(gapThresholdMs uint64) *Monitor {
	return &Monitor{
		lastSeen:       make(map[string]tickRecord),
		gapThresholdMs: gapThresholdMs,
	}
}

// Process inspects one tick against the per-symbol memory.
//
// Returns (nil, nil) for a duplicate: same price with a timestamp at or
// before the last seen. Returns an error for a gap beyond the threshold;
// the stored record is NOT advanced in that case, so a later in-range tick
// is still judged against the pre-gap state. Otherwise the tick is stored
// and returned.
func (m *Monitor) Process(event types.PriceEvent) (*types.PriceEvent, error) {
	if rec, ok := m.lastSeen[event.Symbol]; ok {
		if event.Timestamp <= rec.timestamp && event.Price.Equal(rec.price) {
			return nil, nil
		}
		if event.Timestamp > rec.timestamp && event.Timestamp-rec.timestamp > m.gapThresholdMs {
			return nil, errs.MarketDataf("Price gap detected for %s: %dms", event.Symbol, event.Timestamp-rec.timestamp)
		}
	}

	m.lastSeen[event.Symbol] = tickRecord{timestamp: event.Timestamp, price: event.Price}
	return &event, nil
}
