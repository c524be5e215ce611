package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MarketKind discriminates the supported market shapes. Spread and total
// quotes carry a line; moneyline quotes must not.
type MarketKind string

const (
	MarketMoneyline MarketKind = "moneyline"
	MarketSpread    MarketKind = "spread"
	MarketTotal     MarketKind = "total"
)

// Valid reports whether the market kind is one of the supported values.
func (k MarketKind) Valid() bool {
	switch k {
	case MarketMoneyline, MarketSpread, MarketTotal:
		return true
	}
	return false
}

// Side identifies the outcome a quote prices.
type Side string

const (
	SideHome  Side = "home"
	SideAway  Side = "away"
	SideDraw  Side = "draw"
	SideOver  Side = "over"
	SideUnder Side = "under"
)

// Opposes reports whether two sides are mutually exclusive outcomes of the
// same two-way market.
func (s Side) Opposes(other Side) bool {
	switch {
	case s == SideHome && other == SideAway, s == SideAway && other == SideHome:
		return true
	case s == SideOver && other == SideUnder, s == SideUnder && other == SideOver:
		return true
	}
	return false
}

// Quote is one priced outcome from one source at one instant. Quotes are
// immutable: a newer quote from the same source supersedes the prior one in
// the store, it never mutates it.
type Quote struct {
	Source     string     `json:"source"`
	EventID    uuid.UUID  `json:"event_id"`
	MarketKind MarketKind `json:"market_kind"`
	Side       Side       `json:"side"`
	Line       *float64   `json:"line,omitempty"` // nil for moneyline
	Price      int        `json:"price"`          // American odds
	ObservedAt time.Time  `json:"observed_at"`

	// Annotated by the probability engine before detection.
	DecimalOdds        float64 `json:"decimal_odds"`
	ImpliedProbability float64 `json:"implied_probability"`
}

// Key uniquely identifies the slot a quote occupies within a market group.
func (q Quote) Key() string {
	if q.Line != nil {
		return fmt.Sprintf("%s|%s|%s|%s|%.1f", q.Source, q.EventID, q.MarketKind, q.Side, *q.Line)
	}
	return fmt.Sprintf("%s|%s|%s|%s|-", q.Source, q.EventID, q.MarketKind, q.Side)
}

// IsStale reports whether the quote is older than maxAge relative to now.
func (q Quote) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(q.ObservedAt) > maxAge
}

// Event is a single scheduled game. The canonical ID is minted by the
// matcher; sources never share an ID scheme.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Sport     string    `json:"sport"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartTime time.Time `json:"start_time"`
}

// TeamPairKey returns an order-independent key for the event's team pair.
// Team names must already be normalized by the caller.
func TeamPairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
