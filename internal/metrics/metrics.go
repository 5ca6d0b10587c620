package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchtickets_operations_total",
			Help: "Ticket operations by the source that served them",
		},
		[]string{"operation", "source", "outcome"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchtickets_fallbacks_total",
			Help: "Operations served from the local store after a remote failure",
		},
		[]string{"operation"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "matchtickets_breaker_state",
			Help: "Remote API circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TicketEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchtickets_ticket_events_published_total",
			Help: "Ticket lifecycle events written to kafka",
		},
		[]string{"type", "result"},
	)
)
