// Package metrics provides the centralized Prometheus metrics registry for
// the odds engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	QuotesIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "quotes_ingested_total",
		Help:      "Total number of quotes accepted into the store",
	}, []string{"source"})
	QuotesRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "quotes_rejected_total",
		Help:      "Total number of malformed records dropped during ingestion",
	}, []string{"source", "reason"})
	SourceFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "source_failures_total",
		Help:      "Total number of failed or timed-out source fetches",
	}, []string{"source"})
	ScanCyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "scan_cycles_total",
		Help:      "Total number of completed scan cycles",
	})
	ScanCyclesDiscardedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "scan_cycles_discarded_total",
		Help:      "Total number of scan cycles discarded for exceeding the time budget",
	})
	OpportunitiesDetectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "opportunities_detected_total",
		Help:      "Total number of opportunities detected, by kind",
	}, []string{"kind"})
	AmbiguousMatchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharpline",
		Name:      "ambiguous_event_matches_total",
		Help:      "Total number of quotes matched to more than one candidate event",
	})
)

// Gauge metrics
var (
	FreshQuotes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "fresh_quotes",
		Help:      "Number of fresh quotes in the last scan snapshot",
	})
	ActiveMarketGroups = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "active_market_groups",
		Help:      "Number of market groups holding at least one fresh quote",
	})
	PublishedArbitrages = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "published_arbitrages",
		Help:      "Number of arbitrage opportunities in the published set",
	})
	PublishedMiddles = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "published_middles",
		Help:      "Number of middle opportunities in the published set",
	})
	ProviderQuotaRemaining = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sharpline",
		Name:      "provider_quota_remaining",
		Help:      "Remaining request quota reported by a provider, when the provider exposes one",
	}, []string{"source"})
)

// Histogram metrics
var (
	FetchLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sharpline",
		Name:      "fetch_latency_seconds",
		Help:      "Latency of source fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
	ScanCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sharpline",
		Name:      "scan_cycle_duration_seconds",
		Help:      "Duration of a full scan cycle in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(QuotesIngestedTotal)
		registry.MustRegister(QuotesRejectedTotal)
		registry.MustRegister(SourceFailuresTotal)
		registry.MustRegister(ScanCyclesTotal)
		registry.MustRegister(ScanCyclesDiscardedTotal)
		registry.MustRegister(OpportunitiesDetectedTotal)
		registry.MustRegister(AmbiguousMatchesTotal)

		registry.MustRegister(FreshQuotes)
		registry.MustRegister(ActiveMarketGroups)
		registry.MustRegister(PublishedArbitrages)
		registry.MustRegister(PublishedMiddles)
		registry.MustRegister(ProviderQuotaRemaining)

		registry.MustRegister(FetchLatency)
		registry.MustRegister(ScanCycleDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordQuoteIngested records a quote accepted from a source.
func RecordQuoteIngested(source string) {
	QuotesIngestedTotal.WithLabelValues(source).Inc()
}

// RecordQuoteRejected records a malformed record dropped during ingestion.
func RecordQuoteRejected(source, reason string) {
	QuotesRejectedTotal.WithLabelValues(source, reason).Inc()
}

// RecordSourceFailure records a failed or timed-out fetch.
func RecordSourceFailure(source string) {
	SourceFailuresTotal.WithLabelValues(source).Inc()
}

// RecordScanCycle records a completed scan cycle and its duration.
func RecordScanCycle(durationSeconds float64) {
	ScanCyclesTotal.Inc()
	ScanCycleDuration.Observe(durationSeconds)
}

// SetProviderQuota records a provider's reported remaining request quota.
func SetProviderQuota(source string, remaining float64) {
	ProviderQuotaRemaining.WithLabelValues(source).Set(remaining)
}

// RecordOpportunities updates the detection counters and published gauges.
func RecordOpportunities(arbitrages, middles int) {
	OpportunitiesDetectedTotal.WithLabelValues("arbitrage").Add(float64(arbitrages))
	OpportunitiesDetectedTotal.WithLabelValues("middle").Add(float64(middles))
	PublishedArbitrages.Set(float64(arbitrages))
	PublishedMiddles.Set(float64(middles))
}
