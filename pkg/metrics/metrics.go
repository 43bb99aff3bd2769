package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Classification metrics
	ErrorsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mend_errors_detected_total",
			Help: "Total number of classified errors by kind and severity",
		},
		[]string{"kind", "severity"},
	)

	ErrorsUnresolved = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mend_errors_unresolved",
			Help: "Number of recorded errors not yet resolved",
		},
	)

	// Recovery metrics
	RecoveryAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mend_recovery_attempts_total",
			Help: "Total number of recovery attempts by error kind",
		},
		[]string{"kind"},
	)

	RecoveryActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mend_recovery_actions_total",
			Help: "Total number of executed recovery actions by type and outcome",
		},
		[]string{"action", "outcome"},
	)

	RecoverySucceeded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mend_recovery_succeeded_total",
			Help: "Total number of successful recoveries by error kind",
		},
		[]string{"kind"},
	)

	RecoveryExhausted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mend_recovery_exhausted_total",
			Help: "Total number of recoveries that ran out of actions by error kind",
		},
		[]string{"kind"},
	)

	RecoveryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mend_recovery_duration_seconds",
			Help:    "Duration of recovery attempts in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecoveryInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mend_recovery_in_flight",
			Help: "Number of recovery attempts currently executing",
		},
	)

	// Health polling metrics
	HealthChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mend_health_checks_total",
			Help: "Total number of health polls by service and outcome",
		},
		[]string{"service", "outcome"},
	)

	HealthConsecutiveFailures = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mend_health_consecutive_failures",
			Help: "Current consecutive failed polls per service",
		},
		[]string{"service"},
	)

	HealthCheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mend_health_check_duration_seconds",
			Help:    "Health poll duration in seconds per service",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)
)

func init() {
	prometheus.MustRegister(ErrorsDetected)
	prometheus.MustRegister(ErrorsUnresolved)
	prometheus.MustRegister(RecoveryAttempts)
	prometheus.MustRegister(RecoveryActionsTotal)
	prometheus.MustRegister(RecoverySucceeded)
	prometheus.MustRegister(RecoveryExhausted)
	prometheus.MustRegister(RecoveryDuration)
	prometheus.MustRegister(RecoveryInFlight)
	prometheus.MustRegister(HealthChecksTotal)
	prometheus.MustRegister(HealthConsecutiveFailures)
	prometheus.MustRegister(HealthCheckDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
