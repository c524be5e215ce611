package detector

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/sharpline/internal/models"
)

// splitByImpliedProbability divides the bankroll across legs in proportion
// to each leg's implied probability, rounding to cents. The final leg takes
// the rounding remainder so the splits always sum to the bankroll exactly.
func splitByImpliedProbability(legs []models.Quote, bankroll decimal.Decimal) []models.StakeLeg {
	if len(legs) == 0 || bankroll.Sign() <= 0 {
		return nil
	}

	total := decimal.Zero
	probs := make([]decimal.Decimal, len(legs))
	for i, leg := range legs {
		probs[i] = decimal.NewFromFloat(leg.ImpliedProbability)
		total = total.Add(probs[i])
	}
	if total.Sign() <= 0 {
		return nil
	}

	out := make([]models.StakeLeg, len(legs))
	allocated := decimal.Zero
	for i, leg := range legs {
		var stake decimal.Decimal
		if i == len(legs)-1 {
			stake = bankroll.Sub(allocated)
		} else {
			stake = bankroll.Mul(probs[i]).Div(total).Round(2)
			allocated = allocated.Add(stake)
		}
		out[i] = models.StakeLeg{
			Source: leg.Source,
			Side:   leg.Side,
			Stake:  stake,
		}
	}
	return out
}

// EqualReturnStakes splits the bankroll so every outcome of an arbitrage
// returns the same amount. Staking proportional to implied probability makes
// each leg's payout equal to bankroll divided by the combined probability.
func EqualReturnStakes(legs []models.Quote, bankroll decimal.Decimal) []models.StakeLeg {
	return splitByImpliedProbability(legs, bankroll)
}

// EqualRiskStakes splits the bankroll across a middle's legs so the net
// loss when the score lands outside the window is the same regardless of
// which leg wins. The proportional split that equalizes arbitrage returns
// equalizes middle risk for the same reason.
func EqualRiskStakes(legs []models.Quote, bankroll decimal.Decimal) []models.StakeLeg {
	return splitByImpliedProbability(legs, bankroll)
}
