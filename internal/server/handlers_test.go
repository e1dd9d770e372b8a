package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, refreshed bool) *Server {
	t.Helper()
	srv, err := New(Config{
		CORSOrigin:      "*",
		Iterations:      2,
		Workloads:       []string{"hash", "alloc"},
		RefreshInterval: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	if refreshed {
		require.NoError(t, srv.Feed().Refresh())
	}
	return srv
}

func newTestMux(t *testing.T, refreshed bool) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	newTestServer(t, refreshed).SetupRoutes(mux)
	return mux
}

func TestNewRejectsUnknownWorkload(t *testing.T) {
	_, err := New(Config{Workloads: []string{"nope"}, Iterations: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope")
}

func TestNewRejectsNegativeIterations(t *testing.T) {
	_, err := New(Config{Iterations: -1})
	assert.Error(t, err)
}

func TestHealthHandler(t *testing.T) {
	mux := newTestMux(t, false)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestHealthHandlerRejectsPost(t *testing.T) {
	mux := newTestMux(t, false)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestReportHandlerBeforeFirstRefresh(t *testing.T) {
	mux := newTestMux(t, false)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReportHandlerReturnsResults(t *testing.T) {
	mux := newTestMux(t, true)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var report ReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Results, 2)
	assert.Equal(t, "hash", report.Results[0].Stats.Name)
	assert.Equal(t, "alloc", report.Results[1].Stats.Name)
	assert.Equal(t, 2, report.Results[0].Stats.Count)
	assert.NotEmpty(t, report.Updated)
}

func TestReportTSVHandler(t *testing.T) {
	mux := newTestMux(t, true)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report/tsv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "tab-separated-values")

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 4, "header, clock, hash, alloc")
	assert.Contains(t, lines[0], "Timer")
	assert.True(t, strings.HasPrefix(lines[1], "clock "))
	assert.True(t, strings.HasPrefix(lines[2], "hash "))
	assert.True(t, strings.HasPrefix(lines[3], "alloc "))
}

func TestCORSHeadersAndPreflight(t *testing.T) {
	mux := newTestMux(t, false)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	mux := newTestMux(t, true)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lapse_feed_refreshes_total")
}
