package matcher

import (
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/adapter"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/oddsmath"
)

// registryGrace keeps an event resolvable a little past its start so
// late-arriving quotes from slow sources still correlate.
const registryGrace = time.Hour

// Matcher assigns quotes to canonical events. The event registry is the one
// piece of state that survives across scan cycles: it keeps event IDs stable
// so a quote from source A at cycle N and source B at cycle N+1 land in the
// same market group.
type Matcher struct {
	tolerance time.Duration
	registry  *cache.Cache
	log       *logrus.Logger
	mu        sync.Mutex
}

// New creates a matcher with the given start-time tolerance window.
func New(tolerance time.Duration, log *logrus.Logger) *Matcher {
	return &Matcher{
		tolerance: tolerance,
		registry:  cache.New(cache.NoExpiration, 10*time.Minute),
		log:       log,
	}
}

// Resolve finds the canonical event for a quote record, spawning a new event
// when no existing one falls inside the tolerance window. When more than one
// candidate is in the window, the closest start time wins; the ambiguity is
// counted and logged, never surfaced as an error.
func (m *Matcher) Resolve(rec adapter.QuoteRecord) models.Event {
	home := NormalizeTeam(rec.HomeTeam)
	away := NormalizeTeam(rec.AwayTeam)

	primaryKey := rec.Sport + "|" + models.TeamPairKey(home, away)
	nickKey := rec.Sport + "|" + models.TeamPairKey(Nickname(home), Nickname(away))

	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := m.lookup(primaryKey)
	if len(candidates) == 0 && nickKey != primaryKey {
		candidates = m.lookup(nickKey)
	}

	var best *models.Event
	inWindow := 0
	for i := range candidates {
		diff := absDuration(candidates[i].StartTime.Sub(rec.StartTime))
		if diff > m.tolerance {
			continue
		}
		inWindow++
		if best == nil || diff < absDuration(best.StartTime.Sub(rec.StartTime)) {
			best = &candidates[i]
		}
	}

	if best != nil {
		if inWindow > 1 {
			metrics.AmbiguousMatchesTotal.Inc()
			m.log.WithFields(logrus.Fields{
				"home":       home,
				"away":       away,
				"candidates": inWindow,
				"chosen":     best.ID,
			}).Debug("ambiguous event match resolved by nearest start time")
		}
		return *best
	}

	event := models.Event{
		ID:        uuid.New(),
		Sport:     rec.Sport,
		HomeTeam:  home,
		AwayTeam:  away,
		StartTime: rec.StartTime,
	}

	ttl := time.Until(rec.StartTime) + m.tolerance + registryGrace
	if ttl < time.Minute {
		ttl = time.Minute
	}
	m.store(primaryKey, event, ttl)
	if nickKey != primaryKey {
		m.store(nickKey, event, ttl)
	}

	return event
}

// GroupQuotes correlates a snapshot of quote records into market groups,
// annotating each quote with its decimal odds and implied probability.
// Records with prices outside the American-odds domain are dropped and
// counted; adapters should have caught them already.
func (m *Matcher) GroupQuotes(records []adapter.QuoteRecord) map[models.GroupKey]*models.MarketGroup {
	groups := make(map[models.GroupKey]*models.MarketGroup)

	for _, rec := range records {
		prob, err := oddsmath.ImpliedProbability(rec.Price)
		if err != nil {
			metrics.RecordQuoteRejected(rec.Source, "invalid_price")
			continue
		}
		dec, err := oddsmath.DecimalOdds(rec.Price)
		if err != nil {
			metrics.RecordQuoteRejected(rec.Source, "invalid_price")
			continue
		}

		event := m.Resolve(rec)
		quote := models.Quote{
			Source:             rec.Source,
			EventID:            event.ID,
			MarketKind:         rec.MarketKind,
			Side:               rec.Side,
			Line:               rec.Line,
			Price:              rec.Price,
			ObservedAt:         rec.ObservedAt,
			DecimalOdds:        dec,
			ImpliedProbability: prob,
		}

		key := models.GroupKey{EventID: event.ID, MarketKind: rec.MarketKind}
		group, ok := groups[key]
		if !ok {
			group = models.NewMarketGroup(event, rec.MarketKind)
			groups[key] = group
		}
		group.Upsert(quote)
	}

	return groups
}

// lookup returns the registered candidate events for a pair key.
func (m *Matcher) lookup(key string) []models.Event {
	if v, ok := m.registry.Get(key); ok {
		return v.([]models.Event)
	}
	return nil
}

// store appends an event to a pair key's candidate list.
func (m *Matcher) store(key string, event models.Event, ttl time.Duration) {
	candidates := m.lookup(key)
	candidates = append(candidates, event)
	m.registry.Set(key, candidates, ttl)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
