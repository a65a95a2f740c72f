// Package metrics holds the Prometheus collectors of the student interface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIFailures counts backend calls that failed, by endpoint.
	APIFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flashmind_api_failures_total",
			Help: "Backend API calls that failed or returned a non-2xx status",
		},
		[]string{"endpoint"},
	)

	// Logins counts login attempts by outcome (success/failure/invalid).
	Logins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flashmind_login_attempts_total",
			Help: "Login form submissions",
		},
		[]string{"status"},
	)

	AttemptsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flashmind_quiz_attempts_started_total",
			Help: "Quiz attempts started, replays included",
		},
	)

	AttemptsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flashmind_quiz_attempts_completed_total",
			Help: "Quiz attempts that reached the results screen",
		},
	)

	// ActiveAttempts tracks attempts with a live timer.
	ActiveAttempts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flashmind_quiz_attempts_active",
			Help: "Quiz attempts currently running",
		},
	)
)
