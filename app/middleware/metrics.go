// Package middleware contains HTTP middleware and the bot's Prometheus metrics
package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Total HTTP requests partitioned by method, route, and status code
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "route", "status"},
	)

	// Request duration in seconds partitioned by method, route, and status code
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// In-flight HTTP requests
	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Inbound bot updates partitioned by kind (command, callback, text)
	botUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_updates_total",
			Help: "Total number of chat updates processed",
		},
		[]string{"kind"},
	)

	// Scores recorded across all rating rounds
	botScoresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_scores_recorded_total",
			Help: "Total number of scores recorded",
		},
	)

	// Archive attempts partitioned by outcome (success, failure)
	botArchivesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_archives_total",
			Help: "Total number of archive attempts",
		},
		[]string{"outcome"},
	)

	// Broadcast deliveries partitioned by outcome (delivered, failed, pruned)
	botBroadcastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_broadcast_deliveries_total",
			Help: "Total number of broadcast delivery attempts",
		},
		[]string{"outcome"},
	)
)

// Metrics returns a Fiber v3 middleware that records basic Prometheus metrics.
// Labels are kept low-cardinality by using the matched route path when available.
func Metrics() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		method := c.Method()
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path // Use route template to avoid high cardinality
		}

		labels := prometheus.Labels{
			"method": method,
			"route":  route,
			"status": strconv.Itoa(status),
		}
		httpRequestsTotal.With(labels).Inc()
		httpRequestDuration.With(labels).Observe(time.Since(start).Seconds())

		return err
	}
}

// ObserveUpdate counts one processed chat update
func ObserveUpdate(kind string) {
	botUpdatesTotal.WithLabelValues(kind).Inc()
}

// ObserveScore counts one recorded score
func ObserveScore() {
	botScoresTotal.Inc()
}

// ObserveArchive counts one archive attempt
func ObserveArchive(outcome string) {
	botArchivesTotal.WithLabelValues(outcome).Inc()
}

// ObserveBroadcast counts broadcast delivery outcomes
func ObserveBroadcast(delivered, failed, pruned int) {
	botBroadcastTotal.WithLabelValues("delivered").Add(float64(delivered))
	botBroadcastTotal.WithLabelValues("failed").Add(float64(failed))
	botBroadcastTotal.WithLabelValues("pruned").Add(float64(pruned))
}
