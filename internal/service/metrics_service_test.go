package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *MetricsService) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMetricsServiceCountsDomainEvents(t *testing.T) {
	m := NewMetricsService()
	m.RecordSubmission(true)
	m.RecordSubmission(true)
	m.RecordSubmission(false)
	m.RecordImportRows("error", 2)
	m.RecordImportRows("success", 0)
	m.RecordRecompute(true)
	m.RecordCacheOperation(true, time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `quiz_submissions_total{passed="true"} 2`)
	assert.Contains(t, body, `quiz_submissions_total{passed="false"} 1`)
	assert.Contains(t, body, `offline_import_rows_total{outcome="error"} 2`)
	assert.NotContains(t, body, `offline_import_rows_total{outcome="success"}`)
	assert.Contains(t, body, `grade_statistics_recomputes_total{persisted="true"} 1`)
	assert.Contains(t, body, `cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, body, `http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.RecordSubmission(true)
	m.ObserveDBQuery("x", time.Second)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
