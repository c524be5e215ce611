package models

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StakeLeg is one leg of a recommended stake split.
type StakeLeg struct {
	Source string          `json:"source"`
	Side   Side            `json:"side"`
	Stake  decimal.Decimal `json:"stake"`
}

// ArbitrageOpportunity is a combination of quotes from different sources
// whose implied probabilities sum to less than 1.
type ArbitrageOpportunity struct {
	Legs                       []Quote    `json:"legs"`
	CombinedImpliedProbability float64    `json:"combined_implied_probability"`
	GuaranteedReturnRate       float64    `json:"guaranteed_return_rate"`
	StakeSplit                 []StakeLeg `json:"stake_split"`

	// SourceCount is the number of sources with fresh quotes in the market
	// group at detection time, used as a liquidity proxy when ranking.
	SourceCount int `json:"source_count"`
}

// ObservedAt returns the most recent observation time across the legs.
func (a ArbitrageOpportunity) ObservedAt() time.Time {
	var latest time.Time
	for _, leg := range a.Legs {
		if leg.ObservedAt.After(latest) {
			latest = leg.ObservedAt
		}
	}
	return latest
}

// Fingerprint returns an order-independent identity for deduplication:
// two opportunities that differ only by leg ordering share a fingerprint.
func (a ArbitrageOpportunity) Fingerprint() string {
	keys := make([]string, len(a.Legs))
	for i, leg := range a.Legs {
		keys[i] = leg.Key()
	}
	sort.Strings(keys)
	return strings.Join(keys, "~")
}

// MiddleOpportunity is a pair of quotes on opposite sides with different
// lines, producing a score range in which both legs pay.
type MiddleOpportunity struct {
	Legs                      []Quote    `json:"legs"`
	WindowLow                 float64    `json:"window_low"`
	WindowHigh                float64    `json:"window_high"`
	WorstCaseLossRate         float64    `json:"worst_case_loss_rate"`
	RequiredWindowProbability float64    `json:"required_window_probability"`
	EdgeRatio                 float64    `json:"edge_ratio"`
	StakeSplit                []StakeLeg `json:"stake_split"`

	// SourceCount is the number of sources with fresh quotes in the market
	// group at detection time, used as a liquidity proxy when ranking.
	SourceCount int `json:"source_count"`
}

// ObservedAt returns the most recent observation time across the legs.
func (m MiddleOpportunity) ObservedAt() time.Time {
	var latest time.Time
	for _, leg := range m.Legs {
		if leg.ObservedAt.After(latest) {
			latest = leg.ObservedAt
		}
	}
	return latest
}

// Fingerprint returns an order-independent identity for deduplication.
func (m MiddleOpportunity) Fingerprint() string {
	keys := make([]string, len(m.Legs))
	for i, leg := range m.Legs {
		keys[i] = leg.Key()
	}
	sort.Strings(keys)
	return strings.Join(keys, "~")
}

// OpportunitySet is the fully-replaced output of one scan cycle. Markets
// carries the best-price consensus for every group that passed the
// freshness and source-count filters, whether or not it produced an
// opportunity.
type OpportunitySet struct {
	Arbitrages  []ArbitrageOpportunity `json:"arbitrages"`
	Middles     []MiddleOpportunity    `json:"middles"`
	Markets     []MarketConsensus      `json:"markets"`
	PublishedAt time.Time              `json:"published_at"`
	Cycle       uint64                 `json:"cycle"`
}
