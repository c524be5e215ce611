// Package scanner runs the scan cycle: ingest, match, filter, scan, rank,
// publish. Cycles never overlap and either complete whole or are discarded
// whole, so readers only ever observe the output of a finished cycle.
package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/sharpline/internal/adapter"
	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/detector"
	"github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/matcher"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/quotes"
)

// Phase labels the stage a cycle is in, for logging and introspection.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseIngesting Phase = "ingesting"
	PhaseMatching  Phase = "matching"
	PhaseFiltering Phase = "filtering"
	PhaseScanning  Phase = "scanning"
	PhaseRanking   Phase = "ranking"
	PhasePublished Phase = "published"
)

// Sink receives each published opportunity set. Sink failures are logged,
// never propagated: publication to readers has already happened.
type Sink interface {
	Publish(ctx context.Context, set models.OpportunitySet) error
}

// Engine owns the scan cycle. Construct with New, trigger cycles with Scan.
type Engine struct {
	cfg      config.EngineConfig
	adapters []adapter.SourceAdapter
	store    *quotes.Store
	matcher  *matcher.Matcher
	ingestor *Ingestor
	arb      *detector.ArbitrageDetector
	middle   *detector.MiddleDetector
	sinks    []Sink
	log      *logrus.Logger

	// pollDriven marks that per-source polling jobs keep the store current,
	// so the cycle reads the store instead of fetching.
	pollDriven bool

	// now is swappable for tests that exercise staleness behavior.
	now func() time.Time

	runMu sync.Mutex // serializes cycles; an overlapping trigger is skipped

	mu        sync.RWMutex
	phase     Phase
	cycle     uint64
	published models.OpportunitySet
}

// New wires an engine from its collaborators.
func New(cfg config.EngineConfig, adapters []adapter.SourceAdapter, store *quotes.Store, m *matcher.Matcher, log *logrus.Logger) *Engine {
	bankroll := decimal.NewFromFloat(cfg.Bankroll)
	return &Engine{
		cfg:      cfg,
		adapters: adapters,
		store:    store,
		matcher:  m,
		ingestor: NewIngestor(store, log),
		arb:      detector.NewArbitrageDetector(cfg.ArbitrageSafetyMargin, bankroll),
		middle:   detector.NewMiddleDetector(bankroll),
		log:      log,
		now:      time.Now,
		phase:    PhaseIdle,
	}
}

// UsePollDrivenIngestion switches the engine to read the store without
// fetching during cycles. Callers schedule per-source polling jobs that keep
// the store current between cycles.
func (e *Engine) UsePollDrivenIngestion() {
	e.pollDriven = true
}

// AddSink registers a sink for published opportunity sets. Not safe to call
// once cycles are running.
func (e *Engine) AddSink(s Sink) {
	e.sinks = append(e.sinks, s)
}

// Published returns the output of the most recently completed cycle.
func (e *Engine) Published() models.OpportunitySet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.published
}

// Phase returns the engine's current cycle stage.
func (e *Engine) Phase() Phase {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.phase
}

// Scan runs one full cycle. If a cycle is already in flight the trigger is
// skipped rather than queued: the next interval will see fresher quotes
// anyway. A cycle that exceeds the configured timeout is discarded and the
// previously published set stays in place.
func (e *Engine) Scan(ctx context.Context) error {
	if !e.runMu.TryLock() {
		e.log.Debug("scan trigger skipped, cycle already in flight")
		return nil
	}
	defer e.runMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.ScanTimeout())
	defer cancel()

	started := e.now()
	cycle := e.nextCycle()
	log := logger.ForCycle(e.log, cycle)

	set, err := e.runCycle(ctx, cycle)
	if err != nil {
		e.setPhase(PhaseIdle)
		metrics.ScanCyclesDiscardedTotal.Inc()
		log.WithError(err).Warn("scan cycle discarded")
		return err
	}

	e.publish(set)
	elapsed := e.now().Sub(started)
	metrics.RecordScanCycle(elapsed.Seconds())
	metrics.RecordOpportunities(len(set.Arbitrages), len(set.Middles))

	log.WithFields(logrus.Fields{
		"arbitrages": len(set.Arbitrages),
		"middles":    len(set.Middles),
		"elapsed_ms": elapsed.Milliseconds(),
	}).Info("scan cycle published")

	e.notifySinks(ctx, set)
	return nil
}

func (e *Engine) runCycle(ctx context.Context, cycle uint64) (models.OpportunitySet, error) {
	var empty models.OpportunitySet

	e.setPhase(PhaseIngesting)
	if !e.pollDriven {
		if err := e.ingest(ctx); err != nil {
			return empty, err
		}
	}

	now := e.now()
	e.store.Prune(now, e.cfg.QuoteStaleness())
	snapshot := e.store.Snapshot()

	e.setPhase(PhaseMatching)
	if err := checkDeadline(ctx); err != nil {
		return empty, err
	}
	groups := e.matcher.GroupQuotes(snapshot)
	metrics.ActiveMarketGroups.Set(float64(len(groups)))

	e.setPhase(PhaseFiltering)
	eligible, freshQuotes := e.filter(groups, now)
	metrics.FreshQuotes.Set(float64(freshQuotes))

	e.setPhase(PhaseScanning)
	if err := checkDeadline(ctx); err != nil {
		return empty, err
	}
	arbs, middles, err := e.detect(ctx, eligible)
	if err != nil {
		return empty, err
	}

	e.setPhase(PhaseRanking)
	if err := checkDeadline(ctx); err != nil {
		return empty, err
	}
	return models.OpportunitySet{
		Arbitrages:  detector.RankArbitrages(arbs),
		Middles:     detector.RankMiddles(middles),
		Markets:     consensus(eligible),
		PublishedAt: e.now(),
		Cycle:       cycle,
	}, nil
}

// consensus builds the best-price summary for every eligible group, ordered
// by event and market kind.
func consensus(eligible []eligibleGroup) []models.MarketConsensus {
	if len(eligible) == 0 {
		return nil
	}
	markets := make([]models.MarketConsensus, 0, len(eligible))
	for _, eg := range eligible {
		markets = append(markets, eg.group.Consensus(eg.fresh))
	}
	sort.Slice(markets, func(i, j int) bool {
		a, b := markets[i], markets[j]
		if a.EventID != b.EventID {
			return a.EventID.String() < b.EventID.String()
		}
		return a.MarketKind < b.MarketKind
	})
	return markets
}

// ingest fetches all enabled adapters in parallel through the ingestor.
// A failing source keeps its prior quotes; only a dead deadline fails the
// cycle.
func (e *Engine) ingest(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, a := range e.adapters {
		if !a.IsEnabled() {
			continue
		}
		a := a
		g.Go(func() error {
			if err := e.ingestor.Fetch(ctx, a); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.ErrScanTimeout
	}
	return nil
}

type eligibleGroup struct {
	group *models.MarketGroup
	fresh []models.Quote
}

// filter keeps groups with fresh quotes from at least the minimum number of
// distinct sources. Returns the eligible groups and the total fresh quote
// count across all groups.
func (e *Engine) filter(groups map[models.GroupKey]*models.MarketGroup, now time.Time) ([]eligibleGroup, int) {
	staleness := e.cfg.QuoteStaleness()
	var eligible []eligibleGroup
	freshTotal := 0

	for _, g := range groups {
		fresh := g.Fresh(now, staleness)
		freshTotal += len(fresh)
		if models.SourceCount(fresh) < e.cfg.MinSourcesPerMarket {
			continue
		}
		eligible = append(eligible, eligibleGroup{group: g, fresh: fresh})
	}
	return eligible, freshTotal
}

// detect runs the arbitrage and middle scans concurrently over the eligible
// groups. Each detector walks its own slice of results, so the only shared
// state is the read-only group data.
func (e *Engine) detect(ctx context.Context, eligible []eligibleGroup) ([]models.ArbitrageOpportunity, []models.MiddleOpportunity, error) {
	var (
		arbs    []models.ArbitrageOpportunity
		middles []models.MiddleOpportunity
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for _, eg := range eligible {
			if err := checkDeadline(ctx); err != nil {
				return err
			}
			arbs = append(arbs, e.arb.Detect(eg.group, eg.fresh)...)
		}
		return nil
	})
	g.Go(func() error {
		for _, eg := range eligible {
			if err := checkDeadline(ctx); err != nil {
				return err
			}
			middles = append(middles, e.middle.Detect(eg.group, eg.fresh)...)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return arbs, middles, nil
}

// publish atomically replaces the visible opportunity set. The published
// gauges are updated by RecordOpportunities in Scan, not here.
func (e *Engine) publish(set models.OpportunitySet) {
	e.mu.Lock()
	e.published = set
	e.phase = PhasePublished
	e.mu.Unlock()
}

func (e *Engine) notifySinks(ctx context.Context, set models.OpportunitySet) {
	for _, s := range e.sinks {
		if err := s.Publish(ctx, set); err != nil {
			e.log.WithError(err).Warn("opportunity sink publish failed")
		}
	}
}

func (e *Engine) setPhase(p Phase) {
	e.mu.Lock()
	e.phase = p
	e.mu.Unlock()
}

func (e *Engine) nextCycle() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cycle++
	return e.cycle
}

func checkDeadline(ctx context.Context) error {
	if ctx.Err() != nil {
		return models.ErrScanTimeout
	}
	return nil
}
