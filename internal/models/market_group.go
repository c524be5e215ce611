package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// GroupKey identifies a market group: one event, one market kind.
type GroupKey struct {
	EventID    uuid.UUID
	MarketKind MarketKind
}

// MarketGroup holds the live set of quotes for one event and market kind,
// at most one per (source, side, line) slot. A newer quote from the same
// source replaces the prior one.
type MarketGroup struct {
	Key    GroupKey
	Event  Event
	Quotes map[string]Quote // keyed by Quote.Key()
}

// NewMarketGroup creates an empty group for the given event and market kind.
func NewMarketGroup(event Event, kind MarketKind) *MarketGroup {
	return &MarketGroup{
		Key:    GroupKey{EventID: event.ID, MarketKind: kind},
		Event:  event,
		Quotes: make(map[string]Quote),
	}
}

// Upsert stores the quote, replacing any prior quote in the same slot unless
// the prior one is more recent.
func (g *MarketGroup) Upsert(q Quote) {
	key := q.Key()
	if prev, ok := g.Quotes[key]; ok && prev.ObservedAt.After(q.ObservedAt) {
		return
	}
	g.Quotes[key] = q
}

// Fresh returns the quotes observed within maxAge of now, ordered by slot
// key. The order is deterministic so repeated scans of unchanged quotes
// enumerate pairs, and therefore publish opportunities, identically.
func (g *MarketGroup) Fresh(now time.Time, maxAge time.Duration) []Quote {
	fresh := make([]Quote, 0, len(g.Quotes))
	for _, q := range g.Quotes {
		if !q.IsStale(now, maxAge) {
			fresh = append(fresh, q)
		}
	}
	sort.Slice(fresh, func(i, j int) bool { return fresh[i].Key() < fresh[j].Key() })
	return fresh
}

// SourceCount returns the number of distinct sources among the given quotes.
func SourceCount(quotes []Quote) int {
	sources := make(map[string]struct{}, len(quotes))
	for _, q := range quotes {
		sources[q.Source] = struct{}{}
	}
	return len(sources)
}

// MarketConsensus summarizes one market group for readers: the best
// available price per quoted side across fresh sources.
type MarketConsensus struct {
	EventID     uuid.UUID  `json:"event_id"`
	HomeTeam    string     `json:"home_team"`
	AwayTeam    string     `json:"away_team"`
	StartTime   time.Time  `json:"start_time"`
	MarketKind  MarketKind `json:"market_kind"`
	BestQuotes  []Quote    `json:"best_quotes"`
	SourceCount int        `json:"source_count"`
}

// Consensus builds the best-price summary over the given fresh quotes.
func (g *MarketGroup) Consensus(fresh []Quote) MarketConsensus {
	c := MarketConsensus{
		EventID:     g.Key.EventID,
		HomeTeam:    g.Event.HomeTeam,
		AwayTeam:    g.Event.AwayTeam,
		StartTime:   g.Event.StartTime,
		MarketKind:  g.Key.MarketKind,
		SourceCount: SourceCount(fresh),
	}
	for _, side := range []Side{SideHome, SideDraw, SideAway, SideOver, SideUnder} {
		if best, ok := BestPrice(fresh, side); ok {
			c.BestQuotes = append(c.BestQuotes, best)
		}
	}
	return c
}

// BestPrice returns the highest-priced quote for the given side, and whether
// any quote for that side exists. For American odds a numerically higher
// price always pays more.
func BestPrice(quotes []Quote, side Side) (Quote, bool) {
	var best Quote
	found := false
	for _, q := range quotes {
		if q.Side != side {
			continue
		}
		if !found || q.Price > best.Price {
			best = q
			found = true
		}
	}
	return best, found
}
