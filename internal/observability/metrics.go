// AngelaMos | 2026
// metrics.go

// Package observability holds the process wide Prometheus collectors.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coach"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	HTTPInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served.",
	})

	WorkoutLogsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workout",
		Name:      "logs_created_total",
		Help:      "Workout logs accepted, labelled by whether the request was an idempotent replay.",
	}, []string{"replay"})

	PointsAwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gamification",
		Name:      "points_awarded_total",
		Help:      "Points granted, labelled by source type.",
	}, []string{"source"})

	DuplicateAwards = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gamification",
		Name:      "duplicate_awards_total",
		Help:      "Award attempts skipped because the ledger already held the source.",
	}, []string{"source"})

	AchievementsUnlocked = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gamification",
		Name:      "achievements_unlocked_total",
		Help:      "Achievements unlocked across all users.",
	})

	WSConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "connections",
		Help:      "Open WebSocket connections on this instance.",
	})

	WSDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "messages_dropped_total",
		Help:      "Messages dropped because a client's outbound buffer was full.",
	})

	OutboxDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "events_delivered_total",
		Help:      "Outbox events published to Kafka, labelled by topic.",
	}, []string{"topic"})

	OutboxFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "events_failed_total",
		Help:      "Outbox publish attempts that failed, labelled by topic.",
	}, []string{"topic"})

	OutboxBatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time spent claiming, delivering and marking one outbox batch.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	EventsConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "consumed_total",
		Help:      "Kafka events handled by the consumer, labelled by event type and outcome.",
	}, []string{"type", "outcome"})

	JobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "runs_total",
		Help:      "Scheduled job executions by job name and outcome.",
	}, []string{"job", "outcome"})
)

func init() {
	prometheus.MustRegister(
		HTTPRequests,
		HTTPDuration,
		HTTPInFlight,
		WorkoutLogsCreated,
		PointsAwarded,
		DuplicateAwards,
		AchievementsUnlocked,
		WSConnections,
		WSDropped,
		OutboxDelivered,
		OutboxFailed,
		OutboxBatchDuration,
		EventsConsumed,
		JobRuns,
	)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
