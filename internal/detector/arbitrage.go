// Package detector scans matched market groups for arbitrage and middle
// opportunities. Detection is exhaustive small-N combinatorics: the number of
// active sources per market is small, so a plain O(N²)/O(N³) scan per group
// per cycle is simpler and more auditable than any pruning heuristic.
package detector

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/sharpline/internal/models"
)

// ArbitrageDetector finds combinations of cross-source quotes on mutually
// exclusive sides whose implied probabilities sum to less than 1.
type ArbitrageDetector struct {
	// SafetyMargin absorbs execution slippage: a combination must clear
	// 1 - margin, not just 1, before it is reported.
	SafetyMargin float64
	Bankroll     decimal.Decimal
}

// NewArbitrageDetector creates a detector with the given safety margin and
// bankroll for stake splits.
func NewArbitrageDetector(safetyMargin float64, bankroll decimal.Decimal) *ArbitrageDetector {
	return &ArbitrageDetector{SafetyMargin: safetyMargin, Bankroll: bankroll}
}

// Detect scans the fresh quotes of one market group. Moneyline groups with
// draw quotes are scanned as three-way markets; everything else as two-way.
// The caller guarantees the group has at least the minimum number of
// sources.
func (d *ArbitrageDetector) Detect(group *models.MarketGroup, fresh []models.Quote) []models.ArbitrageOpportunity {
	if len(fresh) < 2 {
		return nil
	}

	sourceCount := models.SourceCount(fresh)

	if group.Key.MarketKind == models.MarketMoneyline && hasDraw(fresh) {
		return d.scanThreeWay(fresh, sourceCount)
	}
	return d.scanTwoWay(group.Key.MarketKind, fresh, sourceCount)
}

// scanTwoWay checks every cross-source pair of quotes on opposing sides.
// Spread and total pairs must reference complementary lines: the same total,
// or point spreads that cancel out, otherwise the two legs are not mutually
// exclusive and the pair belongs to the middle detector instead.
func (d *ArbitrageDetector) scanTwoWay(kind models.MarketKind, fresh []models.Quote, sourceCount int) []models.ArbitrageOpportunity {
	var found []models.ArbitrageOpportunity

	for i := 0; i < len(fresh); i++ {
		for j := i + 1; j < len(fresh); j++ {
			a, b := fresh[i], fresh[j]
			if a.Source == b.Source {
				continue
			}
			if !a.Side.Opposes(b.Side) {
				continue
			}
			if kind != models.MarketMoneyline && !complementaryLines(a, b) {
				continue
			}

			combined := a.ImpliedProbability + b.ImpliedProbability
			if combined >= 1.0-d.SafetyMargin {
				continue
			}

			legs := []models.Quote{a, b}
			found = append(found, models.ArbitrageOpportunity{
				Legs:                       legs,
				CombinedImpliedProbability: combined,
				GuaranteedReturnRate:       1.0/combined - 1.0,
				StakeSplit:                 EqualReturnStakes(legs, d.Bankroll),
				SourceCount:                sourceCount,
			})
		}
	}

	return found
}

// scanThreeWay checks every cross-source triple covering home, draw, and
// away in a three-outcome moneyline.
func (d *ArbitrageDetector) scanThreeWay(fresh []models.Quote, sourceCount int) []models.ArbitrageOpportunity {
	var homes, draws, aways []models.Quote
	for _, q := range fresh {
		switch q.Side {
		case models.SideHome:
			homes = append(homes, q)
		case models.SideDraw:
			draws = append(draws, q)
		case models.SideAway:
			aways = append(aways, q)
		}
	}

	var found []models.ArbitrageOpportunity
	for _, h := range homes {
		for _, x := range draws {
			for _, a := range aways {
				if h.Source == x.Source || h.Source == a.Source || x.Source == a.Source {
					continue
				}

				combined := h.ImpliedProbability + x.ImpliedProbability + a.ImpliedProbability
				if combined >= 1.0-d.SafetyMargin {
					continue
				}

				legs := []models.Quote{h, x, a}
				found = append(found, models.ArbitrageOpportunity{
					Legs:                       legs,
					CombinedImpliedProbability: combined,
					GuaranteedReturnRate:       1.0/combined - 1.0,
					StakeSplit:                 EqualReturnStakes(legs, d.Bankroll),
					SourceCount:                sourceCount,
				})
			}
		}
	}

	return found
}

// complementaryLines reports whether two opposing spread/total quotes are
// mutually exclusive: totals must quote the same number, spreads must
// cancel out (home -3.5 against away +3.5).
func complementaryLines(a, b models.Quote) bool {
	if a.Line == nil || b.Line == nil {
		return false
	}
	switch a.MarketKind {
	case models.MarketTotal:
		return *a.Line == *b.Line
	case models.MarketSpread:
		return *a.Line+*b.Line == 0
	}
	return false
}

func hasDraw(quotes []models.Quote) bool {
	for _, q := range quotes {
		if q.Side == models.SideDraw {
			return true
		}
	}
	return false
}
