package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	dbConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_connect_attempts_total",
			Help: "Database connection attempts by result",
		},
		[]string{"result"},
	)

	dbConnectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_connect_duration_seconds",
			Help:    "Duration of database connection attempts",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_cache_lookups_total",
			Help: "Event cache lookups by key kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	bookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveConnectAttempt records one database connection attempt.
func ObserveConnectAttempt(err error, d time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	dbConnectAttempts.WithLabelValues(result).Inc()
	dbConnectDuration.Observe(d.Seconds())
}

// ObserveCacheLookup records a cache hit, miss or error for kind ("list" or "slug").
func ObserveCacheLookup(kind, outcome string) {
	cacheLookups.WithLabelValues(kind, outcome).Inc()
}

// ObserveBooking records the outcome of a booking attempt.
func ObserveBooking(outcome string) {
	bookingsCreated.WithLabelValues(outcome).Inc()
}
