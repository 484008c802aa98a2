// ratelimit.go implements token-bucket throttling for venue ticker polls.
//
// Public ticker endpoints enforce request-weight budgets per rolling window
// (Binance: 1200 weight/min on /api/v3; Bybit: 120 requests/5s on public
// market data). The buckets refill continuously rather than in window-sized
// bursts so a tight poll loop smooths out instead of slamming the limit.
package marketdata

import (
	"context"
	"sync"
	"time"
)

// TokenBucket implements a token-bucket rate limiter with continuous
// refill. Callers block in Wait until a token is available or the context
// is cancelled.
type TokenBucket struct {
	mu       sync.Mutex
	tokens   float64   // current available tokens (fractional allowed)
	capacity float64   // maximum burst size
	rate     float64   // tokens refilled per second
	lastTime time.Time // last time tokens were calculated
}

// NewTokenBucket creates a rate limiter with the given capacity and refill
// rate.
func NewTokenBucket(capacity, ratePerSecond float64) *TokenBucket {
	return &TokenBucket{
		tokens:   capacity,
		capacity: capacity,
		rate:     ratePerSecond,
		lastTime: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is cancelled.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(tb.lastTime).Seconds()
		tb.tokens += elapsed * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastTime = now

		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}

		// Wait long enough for the next token to accrue
		wait := time.Duration((1 - tb.tokens) / tb.rate * float64(time.Second))
		tb.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			// retry
		}
	}
}

// binanceBucket sizes the limiter for Binance's 1200 weight/min budget; the
// 24hr ticker costs 1 weight per symbol.
func binanceBucket() *TokenBucket {
	return NewTokenBucket(100, 20)
}

// bybitBucket sizes the limiter for Bybit's 120 requests per 5s public
// market-data budget.
func bybitBucket() *TokenBucket {
	return NewTokenBucket(60, 24)
}
