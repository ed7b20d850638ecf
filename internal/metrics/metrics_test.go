package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/DeafMist/mundus/backend/internal/metrics"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Get("/api/sources/{country}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.RequestsTotal.WithLabelValues("/api/sources/{country}", http.MethodGet, "418")
	before := testutil.ToFloat64(counter)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sources/swe", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/sources/fin", nil))

	require.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRecordHelpers(t *testing.T) {
	preview := metrics.PreviewsTotal.WithLabelValues("unavailable")
	before := testutil.ToFloat64(preview)
	metrics.RecordPreview("unavailable")
	require.Equal(t, before+1, testutil.ToFloat64(preview))

	summary := metrics.SummariesTotal.WithLabelValues("merged", "ok")
	before = testutil.ToFloat64(summary)
	metrics.RecordSummary("merged", "ok")
	require.Equal(t, before+1, testutil.ToFloat64(summary))
}

func TestHandlerExposesMetrics(t *testing.T) {
	metrics.RecordSkippedArticle()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "mundus_merged_skipped_articles_total"))
}
