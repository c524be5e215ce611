package matcher

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/adapter"
	"github.com/yourusername/sharpline/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func record(source, home, away string, start time.Time) adapter.QuoteRecord {
	return adapter.QuoteRecord{
		Source:     source,
		Sport:      "americanfootball_nfl",
		HomeTeam:   home,
		AwayTeam:   away,
		StartTime:  start,
		MarketKind: models.MarketMoneyline,
		Side:       models.SideHome,
		Price:      -110,
		ObservedAt: time.Now(),
	}
}

func TestResolveCorrelatesAcrossNamingVariants(t *testing.T) {
	m := New(10*time.Minute, testLogger())
	start := time.Now().Add(4 * time.Hour)

	a := m.Resolve(record("fanduel", "Buffalo Bills", "Jacksonville Jaguars", start))
	b := m.Resolve(record("draftkings", "Bills", "Jaguars", start.Add(2*time.Minute)))
	c := m.Resolve(record("betmgm", "buffalo bills", "JAX", start))

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.ID, c.ID)
}

func TestResolveSeparatesEventsOutsideTolerance(t *testing.T) {
	m := New(10*time.Minute, testLogger())
	start := time.Now().Add(4 * time.Hour)

	early := m.Resolve(record("fanduel", "Buffalo Bills", "Jacksonville Jaguars", start))
	late := m.Resolve(record("draftkings", "Buffalo Bills", "Jacksonville Jaguars", start.Add(7*24*time.Hour)))

	assert.NotEqual(t, early.ID, late.ID)
}

func TestResolveIsTeamOrderIndependent(t *testing.T) {
	m := New(10*time.Minute, testLogger())
	start := time.Now().Add(time.Hour)

	a := m.Resolve(record("fanduel", "Buffalo Bills", "Jacksonville Jaguars", start))

	rec := record("draftkings", "Jacksonville Jaguars", "Buffalo Bills", start)
	b := m.Resolve(rec)

	assert.Equal(t, a.ID, b.ID)
}

func TestResolveAmbiguityPicksNearestStart(t *testing.T) {
	m := New(10*time.Minute, testLogger())
	start := time.Now().Add(4 * time.Hour)

	first := m.Resolve(record("fanduel", "Buffalo Bills", "Jacksonville Jaguars", start))
	second := m.Resolve(record("fanduel", "Buffalo Bills", "Jacksonville Jaguars", start.Add(15*time.Minute)))
	require.NotEqual(t, first.ID, second.ID)

	// A record 2 minutes after the second event's start is inside both
	// windows; the nearer start must win.
	resolved := m.Resolve(record("draftkings", "Bills", "Jaguars", start.Add(17*time.Minute)))
	assert.Equal(t, second.ID, resolved.ID)
}

func TestResolveIsIdempotent(t *testing.T) {
	m := New(10*time.Minute, testLogger())
	start := time.Now().Add(time.Hour)
	rec := record("fanduel", "Buffalo Bills", "Jacksonville Jaguars", start)

	first := m.Resolve(rec)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first.ID, m.Resolve(rec).ID)
	}
}

func TestGroupQuotesAnnotatesAndGroups(t *testing.T) {
	m := New(10*time.Minute, testLogger())
	start := time.Now().Add(time.Hour)

	recHome := record("fanduel", "Buffalo Bills", "Jacksonville Jaguars", start)
	recAway := record("draftkings", "Bills", "Jaguars", start)
	recAway.Side = models.SideAway
	recAway.Price = +105

	line := 45.5
	recTotal := record("fanduel", "Buffalo Bills", "Jacksonville Jaguars", start)
	recTotal.MarketKind = models.MarketTotal
	recTotal.Side = models.SideOver
	recTotal.Line = &line

	groups := m.GroupQuotes([]adapter.QuoteRecord{recHome, recAway, recTotal})
	require.Len(t, groups, 2)

	for key, group := range groups {
		switch key.MarketKind {
		case models.MarketMoneyline:
			require.Len(t, group.Quotes, 2)
			for _, q := range group.Quotes {
				assert.Greater(t, q.ImpliedProbability, 0.0)
				assert.Greater(t, q.DecimalOdds, 1.0)
				assert.Equal(t, key.EventID, q.EventID)
			}
		case models.MarketTotal:
			require.Len(t, group.Quotes, 1)
		default:
			t.Fatalf("unexpected market kind %s", key.MarketKind)
		}
	}
}

func TestGroupQuotesDropsInvalidPrices(t *testing.T) {
	m := New(10*time.Minute, testLogger())
	start := time.Now().Add(time.Hour)

	bad := record("fanduel", "Buffalo Bills", "Jacksonville Jaguars", start)
	bad.Price = 50

	groups := m.GroupQuotes([]adapter.QuoteRecord{bad})
	assert.Empty(t, groups)
}
