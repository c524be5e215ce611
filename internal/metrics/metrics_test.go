package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRegistryIsIdempotent(t *testing.T) {
	first := InitRegistry()
	second := InitRegistry()
	assert.Same(t, first, second)
	assert.Same(t, first, GetRegistry())
}

func TestRecordQuoteCounters(t *testing.T) {
	InitRegistry()

	before := testutil.ToFloat64(QuotesIngestedTotal.WithLabelValues("fanduel"))
	RecordQuoteIngested("fanduel")
	RecordQuoteIngested("fanduel")
	assert.Equal(t, before+2, testutil.ToFloat64(QuotesIngestedTotal.WithLabelValues("fanduel")))

	beforeRejected := testutil.ToFloat64(QuotesRejectedTotal.WithLabelValues("fanduel", "invalid_price"))
	RecordQuoteRejected("fanduel", "invalid_price")
	assert.Equal(t, beforeRejected+1, testutil.ToFloat64(QuotesRejectedTotal.WithLabelValues("fanduel", "invalid_price")))
}

func TestRecordOpportunitiesSetsGauges(t *testing.T) {
	InitRegistry()

	RecordOpportunities(3, 1)
	assert.Equal(t, 3.0, testutil.ToFloat64(PublishedArbitrages))
	assert.Equal(t, 1.0, testutil.ToFloat64(PublishedMiddles))

	RecordOpportunities(0, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(PublishedArbitrages))
}

func TestSetProviderQuota(t *testing.T) {
	InitRegistry()

	SetProviderQuota("oddsapi", 450)
	assert.Equal(t, 450.0, testutil.ToFloat64(ProviderQuotaRemaining.WithLabelValues("oddsapi")))
}

func TestHandlerServesMetrics(t *testing.T) {
	InitRegistry()
	RecordScanCycle(0.25)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sharpline_scan_cycles_total")
}