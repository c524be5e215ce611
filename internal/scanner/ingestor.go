package scanner

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/adapter"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/quotes"
)

// Ingestor fetches sources and merges their quotes into the store. The
// engine fetches through it on demand during a cycle; when the daemon
// schedules per-source polling jobs, those jobs drive it instead and the
// cycle reads whatever the store holds.
type Ingestor struct {
	store *quotes.Store
	log   *logrus.Logger
}

// NewIngestor creates an ingestor writing into the given store.
func NewIngestor(store *quotes.Store, log *logrus.Logger) *Ingestor {
	return &Ingestor{store: store, log: log}
}

// Fetch pulls one adapter and applies its records to the store. Latency,
// failures, and ingest counts are recorded here so each fetch is counted
// exactly once no matter who drives it. A failed fetch leaves the source's
// prior quotes in place until staleness evicts them.
func (i *Ingestor) Fetch(ctx context.Context, a adapter.SourceAdapter) error {
	start := time.Now()
	records, err := a.FetchQuotes(ctx)
	metrics.FetchLatency.WithLabelValues(a.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		if ctx.Err() == nil {
			metrics.RecordSourceFailure(a.Name())
			i.log.WithError(err).WithField("source", a.Name()).Warn("source fetch failed, keeping prior quotes")
		}
		return err
	}

	i.store.Apply(a.Name(), records)
	for range records {
		metrics.RecordQuoteIngested(a.Name())
	}
	return nil
}
