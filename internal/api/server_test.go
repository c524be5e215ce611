package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/matcher"
	"github.com/yourusername/sharpline/internal/models"
	"github.com/yourusername/sharpline/internal/quotes"
	"github.com/yourusername/sharpline/internal/repository"
	"github.com/yourusername/sharpline/internal/scanner"
)

func testServer(t *testing.T, published bool) *httptest.Server {
	return testServerWithAudit(t, published, nil)
}

func testServerWithAudit(t *testing.T, published bool, audit AuditLog) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := config.EngineConfig{
		EventMatchToleranceMinutes: 10,
		QuoteStalenessSeconds:      120,
		ScanIntervalSeconds:        30,
		MinSourcesPerMarket:        2,
		ScanTimeoutSeconds:         5,
		Bankroll:                   1000,
	}
	engine := scanner.New(cfg, nil, quotes.NewStore(), matcher.New(cfg.MatchTolerance(), log), log)
	if published {
		// No adapters configured: the cycle completes and publishes an
		// empty set.
		require.NoError(t, engine.Scan(context.Background()))
	}

	s := NewServer(Config{Port: 0, Version: "test", Engine: engine, Audit: audit, Logger: log})
	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)
	return server
}

// fakeAuditLog serves canned audit records keyed by fingerprint.
type fakeAuditLog struct {
	records map[string][]repository.AuditRecord
}

func (f *fakeAuditLog) Recent(ctx context.Context, limit int) ([]repository.AuditRecord, error) {
	var all []repository.AuditRecord
	for _, recs := range f.records {
		all = append(all, recs...)
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeAuditLog) History(ctx context.Context, fingerprint string) ([]repository.AuditRecord, error) {
	recs, ok := f.records[fingerprint]
	if !ok {
		return nil, models.ErrNotFound
	}
	return recs, nil
}

func TestHealthEndpoint(t *testing.T) {
	server := testServer(t, false)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "sharpline", body["service"])
}

func TestReadyEndpointBeforeFirstCycle(t *testing.T) {
	server := testServer(t, false)

	resp, err := http.Get(server.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestReadyEndpointAfterPublish(t *testing.T) {
	server := testServer(t, true)

	resp, err := http.Get(server.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOpportunitiesEndpoint(t *testing.T) {
	server := testServer(t, true)

	resp, err := http.Get(server.URL + "/api/v1/opportunities")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var set models.OpportunitySet
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&set))
	assert.Equal(t, uint64(1), set.Cycle)
	assert.False(t, set.PublishedAt.IsZero())
}

func TestStatusEndpoint(t *testing.T) {
	server := testServer(t, true)

	resp, err := http.Get(server.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "published", body["phase"])
	assert.Equal(t, float64(1), body["cycle"])
}

func TestMarketsEndpoint(t *testing.T) {
	server := testServer(t, true)

	resp, err := http.Get(server.URL + "/api/v1/markets")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body, "markets")
	assert.Equal(t, float64(1), body["cycle"])
}

func TestAuditRecentEndpoint(t *testing.T) {
	audit := &fakeAuditLog{records: map[string][]repository.AuditRecord{
		"abc": {{ID: 1, Cycle: 7, Kind: "arbitrage", Fingerprint: "abc"}},
	}}
	server := testServerWithAudit(t, true, audit)

	resp, err := http.Get(server.URL + "/api/v1/audit/recent")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Records []repository.AuditRecord `json:"records"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Records, 1)
	assert.Equal(t, "abc", body.Records[0].Fingerprint)
}

func TestAuditRecentRejectsBadLimit(t *testing.T) {
	server := testServerWithAudit(t, true, &fakeAuditLog{})

	resp, err := http.Get(server.URL + "/api/v1/audit/recent?limit=nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuditHistoryEndpoint(t *testing.T) {
	audit := &fakeAuditLog{records: map[string][]repository.AuditRecord{
		"abc": {
			{ID: 1, Cycle: 7, Kind: "arbitrage", Fingerprint: "abc"},
			{ID: 2, Cycle: 8, Kind: "arbitrage", Fingerprint: "abc"},
		},
	}}
	server := testServerWithAudit(t, true, audit)

	resp, err := http.Get(server.URL + "/api/v1/audit/history/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Fingerprint string                   `json:"fingerprint"`
		Records     []repository.AuditRecord `json:"records"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "abc", body.Fingerprint)
	assert.Len(t, body.Records, 2)
}

func TestAuditHistoryUnknownFingerprint(t *testing.T) {
	server := testServerWithAudit(t, true, &fakeAuditLog{records: map[string][]repository.AuditRecord{}})

	resp, err := http.Get(server.URL + "/api/v1/audit/history/nosuch")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAuditRoutesAbsentWithoutAuditLog(t *testing.T) {
	server := testServer(t, true)

	resp, err := http.Get(server.URL + "/api/v1/audit/recent")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	server := testServer(t, true)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
