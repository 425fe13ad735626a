// Package metrics exposes Prometheus counters for the scoring subsystem.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BadgesAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mathlearn_badges_awarded_total",
			Help: "Badges newly awarded, by badge id",
		},
		[]string{"badge"},
	)

	BadgeRuleFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mathlearn_badge_rule_failures_total",
			Help: "Badge rules that panicked during evaluation",
		},
		[]string{"badge"},
	)

	BadgeEvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mathlearn_badge_evaluation_duration_seconds",
			Help:    "Time to load history and evaluate all badge rules for one user",
			Buckets: prometheus.DefBuckets,
		},
	)

	ChampionsFrozen = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mathlearn_champions_frozen_total",
			Help: "Champion records created, by period type",
		},
		[]string{"period"},
	)

	ReconcileErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mathlearn_champion_reconcile_errors_total",
			Help: "Failed champion reconciliations, by period type",
		},
		[]string{"period"},
	)

	LeaderboardCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mathlearn_leaderboard_cache_total",
			Help: "Leaderboard cache lookups, by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mathlearn_http_requests_total",
			Help: "HTTP requests, by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mathlearn_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"method", "route"},
	)

	ProfileSyncs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mathlearn_profile_sync_records_total",
			Help: "Profiles mirrored from the profile service, by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
