// Package metrics provides Prometheus metrics for the news API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by route and status code.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mundus",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// RequestDuration measures HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mundus",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// PreviewsTotal counts preview extractions by outcome.
	PreviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mundus",
			Name:      "previews_total",
			Help:      "Total number of article preview extractions",
		},
		[]string{"outcome"},
	)

	// SummariesTotal counts summarization requests by kind and outcome.
	SummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mundus",
			Name:      "summaries_total",
			Help:      "Total number of summarization requests",
		},
		[]string{"kind", "outcome"},
	)

	// SkippedArticlesTotal counts articles dropped from merged summaries after a failed fetch.
	SkippedArticlesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mundus",
			Name:      "merged_skipped_articles_total",
			Help:      "Articles skipped in merged summaries because their page could not be fetched",
		},
	)
)

// RecordPreview records a preview attempt; outcome is "ok" or "unavailable".
func RecordPreview(outcome string) {
	PreviewsTotal.WithLabelValues(outcome).Inc()
}

// RecordSummary records a summarization request; kind is "single" or "merged".
func RecordSummary(kind, outcome string) {
	SummariesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordSkippedArticle records an article left out of a merged summary.
func RecordSkippedArticle() {
	SkippedArticlesTotal.Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
