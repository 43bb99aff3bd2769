/*
Package metrics provides Prometheus metrics and component health for Mend.

Metrics are package-level collectors registered in init(), so any package
can observe without plumbing a registry. The API server mounts Handler()
at /metrics. A separate HealthRegistry aggregates component health for the
/v1/health/summary endpoint.

# Exported Metrics

Error metrics:

	mend_errors_detected_total{kind,severity}    counter
	mend_errors_unresolved                       gauge

Recovery metrics:

	mend_recovery_attempts_total{kind}           counter
	mend_recovery_actions_total{action,outcome}  counter
	mend_recovery_succeeded_total{kind}          counter
	mend_recovery_exhausted_total{kind}          counter
	mend_recovery_duration_seconds               histogram
	mend_recovery_in_flight                      gauge

Health metrics:

	mend_health_checks_total{service,outcome}       counter
	mend_health_consecutive_failures{service}       gauge
	mend_health_check_duration_seconds{service}     histogram

# Collector

Collector samples the history store on an interval and keeps the derived
gauges (unresolved errors) current, so scrape values do not depend on
event delivery.

# HealthRegistry

Components (engine, broker, archive, each service) report their state via
Update(name, healthy, message). Summary() folds them into one status:
healthy when every component is healthy, degraded when any is down,
unhealthy when more than half are down.

# Timer

A tiny helper for observing durations:

	t := metrics.NewTimer()
	defer t.ObserveDuration(metrics.RecoveryDuration)

# See Also

  - pkg/api for the /metrics and /v1/health/summary routes
  - pkg/engine and pkg/poller for the main metric writers
*/
package metrics
