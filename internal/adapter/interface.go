// Package adapter fetches raw odds data from external sources and normalizes
// it into canonical quote records.
package adapter

import (
	"context"
	"time"

	"github.com/yourusername/sharpline/internal/models"
)

// SourceAdapter defines the interface for fetching odds from one source.
// Each adapter runs on its own schedule and failure domain: a failed fetch
// returns a SourceError and never affects other sources.
type SourceAdapter interface {
	// FetchQuotes retrieves the source's current quote records. The records
	// carry team names and start times; event correlation happens in the
	// matcher, not here.
	FetchQuotes(ctx context.Context) ([]QuoteRecord, error)

	// Name returns the source identifier.
	Name() string

	// IsEnabled returns whether this source is currently enabled.
	IsEnabled() bool
}

// QuoteRecord is a normalized quote before event correlation. Prices are
// always American odds by the time a record leaves an adapter; converting
// decimal or fractional formats is the adapter's job.
type QuoteRecord struct {
	Source     string            `json:"source"`
	Sport      string            `json:"sport"`
	HomeTeam   string            `json:"home_team"`
	AwayTeam   string            `json:"away_team"`
	StartTime  time.Time         `json:"start_time"`
	MarketKind models.MarketKind `json:"market_kind"`
	Side       models.Side       `json:"side"`
	Line       *float64          `json:"line,omitempty"`
	Price      int               `json:"price"`
	ObservedAt time.Time         `json:"observed_at"`
}

// SourceError represents errors from source operations
type SourceError struct {
	Source  string // Source name
	Code    string // Error code (e.g., "timeout")
	Message string // Error message
	Err     error  // Underlying error
}

func (e SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e SourceError) Unwrap() error {
	return models.ErrSourceUnavailable
}

// Common error codes
const (
	ErrCodeTimeout              = "timeout"
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// NewSourceError creates a new source error
func NewSourceError(source, code, message string, err error) SourceError {
	return SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// DefaultFetchTimeout bounds a single fetch when the source config does not
// set one.
const DefaultFetchTimeout = 5 * time.Second
