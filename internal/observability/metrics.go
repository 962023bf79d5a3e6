package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsCreated counts successfully created game requests.
	RequestsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backlog_requests_created_total",
		Help: "Total number of game requests created",
	})

	// DuplicateRequests counts submissions rejected as duplicates.
	DuplicateRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backlog_requests_duplicate_total",
		Help: "Total number of submissions rejected as duplicate pending requests",
	})

	// RequestTransitions counts request transitions by terminal status.
	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backlog_request_transitions_total",
		Help: "Total number of request status transitions by target status",
	}, []string{"status"})

	// NotificationFailures counts failed notification deliveries by channel.
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backlog_notification_failures_total",
		Help: "Total number of failed notification deliveries by channel",
	}, []string{"channel"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backlog_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CatalogLookups counts IGDB catalog calls by endpoint and outcome.
	CatalogLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backlog_catalog_lookups_total",
		Help: "Total number of IGDB catalog lookups by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
)
