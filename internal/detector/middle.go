package detector

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/yourusername/sharpline/internal/models"
)

// MiddleDetector finds spread/total pairs on opposite sides whose lines
// leave a score range in which both legs pay. Missing the range costs only
// the vig, so the engine reports the breakeven window probability and leaves
// the judgment of whether the window clears it to the caller.
type MiddleDetector struct {
	Bankroll decimal.Decimal
}

// NewMiddleDetector creates a detector with the given bankroll for
// equal-risk stake splits.
func NewMiddleDetector(bankroll decimal.Decimal) *MiddleDetector {
	return &MiddleDetector{Bankroll: bankroll}
}

// Detect scans the fresh quotes of one spread or total market group. The
// caller guarantees the group has at least the minimum number of sources.
func (d *MiddleDetector) Detect(group *models.MarketGroup, fresh []models.Quote) []models.MiddleOpportunity {
	kind := group.Key.MarketKind
	if kind != models.MarketSpread && kind != models.MarketTotal {
		return nil
	}
	if len(fresh) < 2 {
		return nil
	}

	sourceCount := models.SourceCount(fresh)

	var found []models.MiddleOpportunity
	for i := 0; i < len(fresh); i++ {
		for j := i + 1; j < len(fresh); j++ {
			a, b := fresh[i], fresh[j]
			if a.Source == b.Source {
				continue
			}
			if !a.Side.Opposes(b.Side) || a.Line == nil || b.Line == nil {
				continue
			}

			low, high, ok := middleWindow(kind, a, b)
			if !ok {
				continue
			}

			opp := buildMiddle(a, b, low, high, d.Bankroll, sourceCount)
			found = append(found, opp)
		}
	}

	return found
}

// middleWindow computes the integer score range in which both legs win, and
// whether such a range exists. Pushes sit just outside the window: a leg
// that pushes refunds rather than pays, so the boundary score is excluded.
func middleWindow(kind models.MarketKind, a, b models.Quote) (low, high float64, ok bool) {
	switch kind {
	case models.MarketTotal:
		over, under := a, b
		if over.Side != models.SideOver {
			over, under = under, over
		}
		if over.Side != models.SideOver || under.Side != models.SideUnder {
			return 0, 0, false
		}
		// Over 45.5 / Under 51 → both win for totals in [46, 50].
		low = math.Floor(*over.Line) + 1
		high = math.Ceil(*under.Line) - 1

	case models.MarketSpread:
		home, away := a, b
		if home.Side != models.SideHome {
			home, away = away, home
		}
		if home.Side != models.SideHome || away.Side != models.SideAway {
			return 0, 0, false
		}
		// Home -7.5 / Away +10 → both win for home margins in [8, 9].
		low = math.Floor(-*home.Line) + 1
		high = math.Ceil(*away.Line) - 1

	default:
		return 0, 0, false
	}

	if low > high {
		return 0, 0, false
	}
	return low, high, true
}

// buildMiddle assembles the opportunity for a qualifying pair. All rates are
// derived from implied probabilities, not stake amounts: with an equal-risk
// split the outcome-independent numbers below hold for any bankroll.
func buildMiddle(a, b models.Quote, low, high float64, bankroll decimal.Decimal, sourceCount int) models.MiddleOpportunity {
	combined := a.ImpliedProbability + b.ImpliedProbability

	// Missing the window wins one leg and loses the other; with equal-risk
	// stakes the net loss is the vig. Hitting it wins both.
	worstLoss := (combined - 1.0) / combined
	if worstLoss < 0 {
		worstLoss = 0 // the legs themselves contain an arbitrage
	}
	payout := (2.0 - combined) / combined

	required := 0.0
	if worstLoss+payout > 0 {
		required = worstLoss / (worstLoss + payout)
	}

	legs := []models.Quote{a, b}
	return models.MiddleOpportunity{
		Legs:                      legs,
		WindowLow:                 low,
		WindowHigh:                high,
		WorstCaseLossRate:         worstLoss,
		RequiredWindowProbability: required,
		EdgeRatio:                 1.0 - required,
		StakeSplit:                EqualRiskStakes(legs, bankroll),
		SourceCount:               sourceCount,
	}
}
