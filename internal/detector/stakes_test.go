package detector

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/models"
)

func TestEqualReturnStakesSumToBankroll(t *testing.T) {
	eventID := uuid.New()
	legs := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketMoneyline, models.SideAway, nil, +110),
		quoteFor(t, "draftkings", eventID, models.MarketMoneyline, models.SideHome, nil, +105),
	}
	bankroll := decimal.NewFromInt(1000)

	split := EqualReturnStakes(legs, bankroll)
	require.Len(t, split, 2)

	total := decimal.Zero
	for _, leg := range split {
		total = total.Add(leg.Stake)
		assert.True(t, leg.Stake.Sign() > 0)
	}
	assert.True(t, total.Equal(bankroll), "got %s", total)
}

func TestEqualReturnStakesEqualizePayouts(t *testing.T) {
	eventID := uuid.New()
	legs := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketMoneyline, models.SideAway, nil, +110),
		quoteFor(t, "draftkings", eventID, models.MarketMoneyline, models.SideHome, nil, +105),
	}

	split := EqualReturnStakes(legs, decimal.NewFromInt(1000))
	require.Len(t, split, 2)

	payout0, _ := split[0].Stake.Mul(decimal.NewFromFloat(legs[0].DecimalOdds)).Float64()
	payout1, _ := split[1].Stake.Mul(decimal.NewFromFloat(legs[1].DecimalOdds)).Float64()

	// Cent rounding allows a few cents of drift between payouts.
	assert.InDelta(t, payout0, payout1, 0.05)

	// Both payouts must exceed the bankroll for a genuine arbitrage.
	assert.Greater(t, payout0, 1000.0)
	assert.Greater(t, payout1, 1000.0)
}

func TestEqualReturnStakesFavorTheShorterPrice(t *testing.T) {
	eventID := uuid.New()
	legs := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketMoneyline, models.SideHome, nil, -200),
		quoteFor(t, "draftkings", eventID, models.MarketMoneyline, models.SideAway, nil, +250),
	}

	split := EqualReturnStakes(legs, decimal.NewFromInt(1000))
	require.Len(t, split, 2)

	// The favorite's implied probability is higher, so it takes the larger
	// stake.
	assert.True(t, split[0].Stake.GreaterThan(split[1].Stake))
}

func TestStakesDegenerateInputs(t *testing.T) {
	eventID := uuid.New()
	legs := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketMoneyline, models.SideHome, nil, +110),
	}

	assert.Nil(t, EqualReturnStakes(nil, decimal.NewFromInt(1000)))
	assert.Nil(t, EqualReturnStakes(legs, decimal.Zero))
	assert.Nil(t, EqualRiskStakes(legs, decimal.NewFromInt(-5)))
}

func TestEqualRiskStakesCentPrecision(t *testing.T) {
	eventID := uuid.New()
	over, under := 45.5, 51.0
	legs := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketTotal, models.SideOver, &over, -115),
		quoteFor(t, "draftkings", eventID, models.MarketTotal, models.SideUnder, &under, -105),
	}

	split := EqualRiskStakes(legs, decimal.NewFromInt(1000))
	require.Len(t, split, 2)
	for _, leg := range split {
		assert.LessOrEqual(t, int(leg.Stake.Exponent()*-1), 2, "stake %s has sub-cent precision", leg.Stake)
	}
}
