package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure|locked).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// Signups counts account registrations by result (success|invalid).
	Signups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_signups_total",
			Help: "Total number of signup submissions",
		},
		[]string{"result"},
	)

	// OfferingAccess counts offering detail lookups by outcome (allow|deny|not_found).
	OfferingAccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_offering_access_total",
			Help: "Offering detail access decisions",
		},
		[]string{"result"},
	)

	// AllocationRequests counts allocation intake submissions by result.
	AllocationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_allocation_requests_total",
			Help: "Allocation request intake submissions",
		},
		[]string{"result"},
	)

	// Referrals counts referral intake submissions by result.
	Referrals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_referrals_total",
			Help: "Referral intake submissions",
		},
		[]string{"result"},
	)

	// ExpiredOfferings counts offerings deactivated by maintenance after their end date.
	ExpiredOfferings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_offerings_expired_total",
			Help: "Offerings deactivated after their end date",
		},
	)

	// MaintenanceRuns counts background maintenance job executions by job and result.
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_maintenance_runs_total",
			Help: "Maintenance job executions",
		},
		[]string{"job", "result"},
	)

	// MaintenanceDuration measures how long maintenance jobs take.
	MaintenanceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_maintenance_duration_seconds",
			Help:    "Maintenance job duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	// RequestsInFlight tracks requests currently being served.
	RequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_http_requests_in_flight",
			Help: "Requests currently being served",
		},
	)

	// RateLimited counts requests rejected by the rate limiter per route.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_latency_seconds",
			Help:    "HTTP endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
