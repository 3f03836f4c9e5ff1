package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	requestsTotal         *prometheus.CounterVec
	requestLatencySeconds *prometheus.HistogramVec
	requestErrorsTotal    *prometheus.CounterVec
	reviewsCompletedTotal prometheus.Counter
	commentsCreatedTotal  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		requestLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "compass_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		requestErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_request_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		reviewsCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "compass_reviews_completed_total",
			Help: "Total number of essay reviews that passed the completion gate.",
		})

		commentsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_comments_created_total",
			Help: "Total number of essay comments created, by kind.",
		}, []string{"kind"})

		prometheus.MustRegister(
			requestsTotal,
			requestLatencySeconds,
			requestErrorsTotal,
			reviewsCompletedTotal,
			commentsCreatedTotal,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// RequestLatency exposes the latency histogram for API requests.
func RequestLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return requestLatencySeconds
}

// RequestErrors exposes the counter for API error responses.
func RequestErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return requestErrorsTotal
}

// ReviewsCompleted exposes the counter for completed reviews.
func ReviewsCompleted() prometheus.Counter {
	RegisterMetrics()
	return reviewsCompletedTotal
}

// CommentsCreated exposes the counter for created comments.
func CommentsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return commentsCreatedTotal
}
