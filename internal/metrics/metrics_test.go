package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordNetworkRequest(t *testing.T) {
	before := testutil.ToFloat64(networkRequestsTotal.WithLabelValues("record", "ok"))
	beforeBytes := testutil.ToFloat64(networkBytesTotal.WithLabelValues("record"))

	RecordNetworkRequest("record", "ok", 128)

	assert.Equal(t, before+1, testutil.ToFloat64(networkRequestsTotal.WithLabelValues("record", "ok")))
	assert.Equal(t, beforeBytes+128, testutil.ToFloat64(networkBytesTotal.WithLabelValues("record")))
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("character", "hit"))
	misses := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("character", "miss"))

	RecordCacheLookup("character", true)
	RecordCacheLookup("character", false)
	RecordCacheLookup("character", false)

	assert.Equal(t, hits+1, testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("character", "hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("character", "miss")))
}

func TestGaugesAndTransitions(t *testing.T) {
	SetFallbackIndexSize(3)
	SetRecordCountEstimate(10)
	assert.Equal(t, 3.0, testutil.ToFloat64(fallbackIndexSize))
	assert.Equal(t, 10.0, testutil.ToFloat64(recordCountEstimate))

	offline := testutil.ToFloat64(connectivityTransitionsTotal.WithLabelValues("offline"))
	RecordTransition("offline", false)
	assert.Equal(t, offline+1, testutil.ToFloat64(connectivityTransitionsTotal.WithLabelValues("offline")))
	assert.Equal(t, 0.0, testutil.ToFloat64(connectivityOnline))

	RecordTransition("online", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(connectivityOnline))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordOfflineLookup(SourceIndex)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rickmorty_offline_lookups_total")
}
