// Package metrics exposes Prometheus collectors for the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 5},
		},
		[]string{"method", "endpoint", "status"},
	)
	productMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_product_mutations_total",
			Help: "Product create, update and delete attempts by outcome.",
		},
		[]string{"operation", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, productMutationsTotal)
}

// RecordRequest records one served HTTP request.
func RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := ClassifyStatus(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordMutation counts a create/update/delete attempt.
func RecordMutation(operation, outcome string) {
	productMutationsTotal.WithLabelValues(operation, outcome).Inc()
}

// ClassifyStatus buckets an HTTP status code into 2xx..5xx.
func ClassifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
