package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure produced by input collection, price retrieval or
// evaluation wraps exactly one of these, so callers branch with errors.Is.
var (
	// ErrConfiguration - missing or malformed user input
	ErrConfiguration = errors.New("configuration error")
	// ErrDataUnavailable - provider returned no usable data for a required ticker or window
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInsufficientHistory - no row has complete price coverage to serve as normalization base
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrDataIntegrity - a zero or negative reference price makes drawdown undefined
	ErrDataIntegrity = errors.New("data integrity error")
)

// Error is a tagged evaluation failure.
type Error struct {
	Kind    error    // one of the Err* sentinels
	Tickers []string // tickers the failure refers to, may be empty
	Message string
}

// NewError builds an Error for a single ticker (or none when ticker is "").
func NewError(kind error, ticker, message string) *Error {
	var tickers []string
	if ticker != "" {
		tickers = []string{ticker}
	}
	return &Error{Kind: kind, Tickers: tickers, Message: message}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if len(e.Tickers) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Tickers, ", "))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap returns the kind so errors.Is(err, ErrDataUnavailable) works.
func (e *Error) Unwrap() error {
	return e.Kind
}

// KindName returns a stable machine-readable name for an error, or "internal"
// when it wraps none of the known kinds.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, ErrDataIntegrity):
		return "data_integrity"
	default:
		return "internal"
	}
}
