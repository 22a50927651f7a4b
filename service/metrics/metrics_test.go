package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordSubmission(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordSubmission("native_transfer", "confirmed", "", 1.2)
	m.RecordSubmission("native_transfer", "failed", "cancelled", 0.3)
	m.RecordSubmission("native_transfer", "failed", "cancelled", 0.1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissionsTotal.WithLabelValues("native_transfer", "confirmed", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissionsTotal.WithLabelValues("native_transfer", "failed", "cancelled")))
}

func TestRecordRPCCall(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRPCCall("GetAccountInfo", "success", "devnet", 0.05)
	m.RecordRPCCall("GetAccountInfo", "error", "devnet", 0.05)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.solanaRPCCallsTotal.WithLabelValues("GetAccountInfo", "success", "devnet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.solanaRPCCallsTotal.WithLabelValues("GetAccountInfo", "error", "devnet")))
}

func TestRecordAirdropRequested(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordAirdropRequested(2_000_000_000)
	assert.Equal(t, 2e9, testutil.ToFloat64(m.airdropLamportsRequested))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	handler := HTTPMetricsMiddleware(m, "/api/v1/airdrop")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/airdrop", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/api/v1/airdrop", "POST", "5xx")))
}

func TestStatusCodeToString(t *testing.T) {
	assert.Equal(t, "2xx", statusCodeToString(200))
	assert.Equal(t, "4xx", statusCodeToString(422))
	assert.Equal(t, "5xx", statusCodeToString(502))
	assert.Equal(t, "unknown", statusCodeToString(99))
}
