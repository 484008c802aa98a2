// Package errs defines the typed error taxonomy used across the trading
// engine. Every failure is classified by a Kind so callers can branch on the
// failure class (risk rejection vs. market-data fault vs. bad input) without
// string matching. Errors wrap an optional cause and work with errors.Is/As.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The display prefix matches the error messages
// emitted throughout the engine, e.g. "Market data error: empty ticker list".
type Kind string

const (
	KindMarketData   Kind = "Market data"
	KindNetwork      Kind = "Network"
	KindDecimal      Kind = "Decimal conversion"
	KindDecimalParse Kind = "Decimal parse"
	KindValidation   Kind = "Validation"
	KindRisk         Kind = "Risk management"
	KindExecution    Kind = "Execution"
	KindTime         Kind = "Time"
	KindConfig       Kind = "Configuration"
	KindStrategy     Kind = "Strategy"
	KindEventBus     Kind = "Event bus"
)

// Error is a classified engine error. Message carries the human-readable
// detail; Err is the optional underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error under the given kind.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// IsKind reports whether err (or anything it wraps) is an engine error of
// the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MarketData reports a fetch/parse failure or malformed venue response.
func MarketData(msg string) error { return New(KindMarketData, msg) }

// MarketDataf is MarketData with a formatted message.
func MarketDataf(format string, args ...any) error { return Newf(KindMarketData, format, args...) }

// Network wraps a transport-level failure.
func Network(msg string, err error) error { return Wrap(KindNetwork, msg, err) }

// Decimal wraps a fixed-point conversion failure.
func Decimal(msg string, err error) error { return Wrap(KindDecimal, msg, err) }

// DecimalParse reports a rejected decimal input.
func DecimalParse(msg string) error { return New(KindDecimalParse, msg) }

// Validation reports a precondition failure on inputs.
func Validation(msg string) error { return New(KindValidation, msg) }

// Risk reports a risk-invariant violation.
func Risk(msg string) error { return New(KindRisk, msg) }

// Riskf is Risk with a formatted message.
func Riskf(format string, args ...any) error { return Newf(KindRisk, format, args...) }

// Execution reports an order-lookup or state-transition failure.
func Execution(msg string) error { return New(KindExecution, msg) }

// Executionf is Execution with a formatted message.
func Executionf(format string, args ...any) error { return Newf(KindExecution, format, args...) }

// Time reports a clock anomaly.
func Time(msg string) error { return New(KindTime, msg) }

// Config reports a configuration failure.
func Config(msg string) error { return New(KindConfig, msg) }

// Strategy reports a strategy-specific failure.
func Strategy(msg string) error { return New(KindStrategy, msg) }
