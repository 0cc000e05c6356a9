package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// gRPC metrics
var (
	// GRPCRequestDuration tracks request latency by method and status code.
	GRPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "status_code"},
	)

	// GRPCRequestsTotal counts gRPC requests by method and status code.
	GRPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "status_code"},
	)

	// RateLimitRejections counts admission rejections by identifier category.
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"identifier_type"},
	)
)

// Payment metrics
var (
	// PaymentDuration tracks authorization processing time by outcome.
	PaymentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_duration_seconds",
			Help:    "Duration of payment authorization processing in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"status"},
	)

	// PaymentsAuthorized counts authorization outcomes by status and error code.
	PaymentsAuthorized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Total number of payment authorization outcomes",
		},
		[]string{"status", "error_code"},
	)
)

// Outbox metrics
var (
	// OutboxPublished counts events successfully published to the broker.
	OutboxPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outbox_published_total",
			Help: "Total number of outbox events published to the broker",
		},
	)

	// OutboxPublishFailures counts failed publish attempts.
	OutboxPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outbox_publish_failures_total",
			Help: "Total number of failed outbox publish attempts",
		},
	)

	// OutboxDeadLettered counts events routed to the dead-letter topic.
	OutboxDeadLettered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outbox_dead_lettered_total",
			Help: "Total number of outbox events routed to the DLQ",
		},
	)

	// OutboxPendingDepth gauges the number of unpublished outbox rows.
	OutboxPendingDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "outbox_pending_depth",
			Help: "Number of unpublished events in the outbox",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordGRPCRequest records duration and count for a finished RPC.
// Side effects: records Prometheus metrics.
func RecordGRPCRequest(method, statusCode string, duration time.Duration) {
	GRPCRequestDuration.WithLabelValues(method, statusCode).Observe(duration.Seconds())
	GRPCRequestsTotal.WithLabelValues(method, statusCode).Inc()
}

// RecordRateLimitRejection increments the rejection counter.
// Side effects: records a Prometheus metric.
func RecordRateLimitRejection(identifierType string) {
	RateLimitRejections.WithLabelValues(identifierType).Inc()
}

// RecordPayment records an authorization outcome.
// Side effects: records Prometheus metrics.
func RecordPayment(status, errorCode string, duration time.Duration) {
	PaymentDuration.WithLabelValues(status).Observe(duration.Seconds())
	PaymentsAuthorized.WithLabelValues(status, errorCode).Inc()
}
