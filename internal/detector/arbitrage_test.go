package detector

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/oddsmath"
)

func quoteFor(t *testing.T, source string, eventID uuid.UUID, kind models.MarketKind, side models.Side, line *float64, price int) models.Quote {
	t.Helper()
	prob, err := oddsmath.ImpliedProbability(price)
	require.NoError(t, err)
	dec, err := oddsmath.DecimalOdds(price)
	require.NoError(t, err)
	return models.Quote{
		Source:             source,
		EventID:            eventID,
		MarketKind:         kind,
		Side:               side,
		Line:               line,
		Price:              price,
		ObservedAt:         time.Now(),
		DecimalOdds:        dec,
		ImpliedProbability: prob,
	}
}

func moneylineGroup(eventID uuid.UUID) *models.MarketGroup {
	event := models.Event{ID: eventID, Sport: "americanfootball_nfl", HomeTeam: "buffalo bills", AwayTeam: "jacksonville jaguars"}
	return models.NewMarketGroup(event, models.MarketMoneyline)
}

func TestDetectTwoWayArbitrage(t *testing.T) {
	eventID := uuid.New()
	group := moneylineGroup(eventID)
	d := NewArbitrageDetector(0.005, decimal.NewFromInt(1000))

	// Jaguars +110 at one book, Bills +105 at another: combined implied
	// probability 0.96399, comfortably under the threshold.
	fresh := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketMoneyline, models.SideAway, nil, +110),
		quoteFor(t, "draftkings", eventID, models.MarketMoneyline, models.SideHome, nil, +105),
	}

	opps := d.Detect(group, fresh)
	require.Len(t, opps, 1)

	opp := opps[0]
	assert.InDelta(t, 100.0/210.0+100.0/205.0, opp.CombinedImpliedProbability, 1e-9)
	assert.InDelta(t, 1.0/opp.CombinedImpliedProbability-1.0, opp.GuaranteedReturnRate, 1e-12)
	assert.Greater(t, opp.GuaranteedReturnRate, 0.037)
	assert.Equal(t, 2, opp.SourceCount)
	require.Len(t, opp.StakeSplit, 2)
}

func TestDetectSkipsSameSourcePairs(t *testing.T) {
	eventID := uuid.New()
	group := moneylineGroup(eventID)
	d := NewArbitrageDetector(0.005, decimal.NewFromInt(1000))

	fresh := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketMoneyline, models.SideAway, nil, +110),
		quoteFor(t, "fanduel", eventID, models.MarketMoneyline, models.SideHome, nil, +105),
	}

	assert.Empty(t, d.Detect(group, fresh))
}

func TestDetectHonorsSafetyMargin(t *testing.T) {
	eventID := uuid.New()
	group := moneylineGroup(eventID)

	// +100/+100 gives combined probability exactly 1.0: never an arb.
	// +102/+102 gives 0.990099, an arb only if the margin allows it.
	fresh := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketMoneyline, models.SideAway, nil, +102),
		quoteFor(t, "draftkings", eventID, models.MarketMoneyline, models.SideHome, nil, +102),
	}

	loose := NewArbitrageDetector(0.005, decimal.NewFromInt(1000))
	assert.Len(t, loose.Detect(group, fresh), 1)

	tight := NewArbitrageDetector(0.02, decimal.NewFromInt(1000))
	assert.Empty(t, tight.Detect(group, fresh))
}

func TestDetectThreeWayArbitrage(t *testing.T) {
	eventID := uuid.New()
	event := models.Event{ID: eventID, Sport: "soccer_epl", HomeTeam: "arsenal", AwayTeam: "chelsea"}
	group := models.NewMarketGroup(event, models.MarketMoneyline)
	d := NewArbitrageDetector(0.005, decimal.NewFromInt(1000))

	// Implied: +250 → 0.2857, +260 → 0.2778, +270 → 0.2703; sum 0.8338.
	fresh := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketMoneyline, models.SideHome, nil, +250),
		quoteFor(t, "draftkings", eventID, models.MarketMoneyline, models.SideDraw, nil, +260),
		quoteFor(t, "betmgm", eventID, models.MarketMoneyline, models.SideAway, nil, +270),
	}

	opps := d.Detect(group, fresh)
	require.Len(t, opps, 1)
	require.Len(t, opps[0].Legs, 3)
	assert.Less(t, opps[0].CombinedImpliedProbability, 0.84)
	assert.Greater(t, opps[0].GuaranteedReturnRate, 0.19)
}

func TestDetectThreeWayRequiresDistinctSources(t *testing.T) {
	eventID := uuid.New()
	event := models.Event{ID: eventID, Sport: "soccer_epl", HomeTeam: "arsenal", AwayTeam: "chelsea"}
	group := models.NewMarketGroup(event, models.MarketMoneyline)
	d := NewArbitrageDetector(0.005, decimal.NewFromInt(1000))

	fresh := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketMoneyline, models.SideHome, nil, +250),
		quoteFor(t, "fanduel", eventID, models.MarketMoneyline, models.SideDraw, nil, +260),
		quoteFor(t, "betmgm", eventID, models.MarketMoneyline, models.SideAway, nil, +270),
	}

	assert.Empty(t, d.Detect(group, fresh))
}

func TestDetectTotalsRequireSameLine(t *testing.T) {
	eventID := uuid.New()
	event := models.Event{ID: eventID, Sport: "americanfootball_nfl", HomeTeam: "buffalo bills", AwayTeam: "jacksonville jaguars"}
	group := models.NewMarketGroup(event, models.MarketTotal)
	d := NewArbitrageDetector(0.005, decimal.NewFromInt(1000))

	same, other := 45.5, 47.5

	// Different lines are a middle candidate, not an arbitrage.
	mismatched := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketTotal, models.SideOver, &same, +110),
		quoteFor(t, "draftkings", eventID, models.MarketTotal, models.SideUnder, &other, +105),
	}
	assert.Empty(t, d.Detect(group, mismatched))

	matched := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketTotal, models.SideOver, &same, +110),
		quoteFor(t, "draftkings", eventID, models.MarketTotal, models.SideUnder, &same, +105),
	}
	assert.Len(t, d.Detect(group, matched), 1)
}

func TestDetectSpreadsRequireCancellingLines(t *testing.T) {
	eventID := uuid.New()
	event := models.Event{ID: eventID, Sport: "americanfootball_nfl", HomeTeam: "buffalo bills", AwayTeam: "jacksonville jaguars"}
	group := models.NewMarketGroup(event, models.MarketSpread)
	d := NewArbitrageDetector(0.005, decimal.NewFromInt(1000))

	home, away, off := -3.5, 3.5, 4.5

	matched := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketSpread, models.SideHome, &home, +110),
		quoteFor(t, "draftkings", eventID, models.MarketSpread, models.SideAway, &away, +105),
	}
	assert.Len(t, d.Detect(group, matched), 1)

	mismatched := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketSpread, models.SideHome, &home, +110),
		quoteFor(t, "draftkings", eventID, models.MarketSpread, models.SideAway, &off, +105),
	}
	assert.Empty(t, d.Detect(group, mismatched))
}

func TestDetectNothingAtFairPrices(t *testing.T) {
	eventID := uuid.New()
	group := moneylineGroup(eventID)
	d := NewArbitrageDetector(0.005, decimal.NewFromInt(1000))

	// Standard vigged prices: combined probability 1.0476.
	fresh := []models.Quote{
		quoteFor(t, "fanduel", eventID, models.MarketMoneyline, models.SideHome, nil, -110),
		quoteFor(t, "draftkings", eventID, models.MarketMoneyline, models.SideAway, nil, -110),
	}

	assert.Empty(t, d.Detect(group, fresh))
}
