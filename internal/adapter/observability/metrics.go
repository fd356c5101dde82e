package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider, operation and outcome",
		},
		[]string{"provider", "operation", "outcome"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "operation"},
	)

	ScrapeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_requests_total",
			Help: "Keyword scrape attempts by HTTP outcome",
		},
		[]string{"outcome"},
	)

	RetrievalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrievals_total",
			Help: "Keyword retrievals by keyword source (vector_store or scrape)",
		},
		[]string{"source"},
	)
	RelevanceHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retrieval_relevance",
			Help:    "Distribution of relevance scores 1/(1+distance) of vector hits",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_generations_total",
			Help: "Profile generations by outcome",
		},
		[]string{"outcome"},
	)
	EvaluationScoreHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evaluation_score",
			Help:    "Distribution of judge scores per rubric axis ([1,100])",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"axis"},
	)
)

var registerOnce sync.Once

// InitMetrics registers all collectors with the default registry. Safe to call twice.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(AIRequestsTotal)
		prometheus.MustRegister(AIRequestDuration)
		prometheus.MustRegister(ScrapeRequestsTotal)
		prometheus.MustRegister(RetrievalsTotal)
		prometheus.MustRegister(RelevanceHistogram)
		prometheus.MustRegister(GenerationsTotal)
		prometheus.MustRegister(EvaluationScoreHistogram)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveAIRequest records one provider call.
func ObserveAIRequest(provider, operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	AIRequestsTotal.WithLabelValues(provider, operation, outcome).Inc()
	AIRequestDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
}

// ObserveEvaluation records the judge scores of one evaluation.
func ObserveEvaluation(keywordsQuality, relevance, hallucination, overall int) {
	for axis, v := range map[string]int{
		"keywords_quality": keywordsQuality,
		"relevance":        relevance,
		"hallucination":    hallucination,
		"overall_quality":  overall,
	} {
		if v >= 1 && v <= 100 {
			EvaluationScoreHistogram.WithLabelValues(axis).Observe(float64(v))
		}
	}
}
