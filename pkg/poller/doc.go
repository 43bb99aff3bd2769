/*
Package poller provides per-service health polling for Mend.

Each supervised service gets its own Poller running on a fixed interval.
A poll combines several probes into one snapshot, classifies any failures
through the taxonomy, and escalates through the event broker: degraded on
every failed poll, critical exactly once when the consecutive-failure
threshold is reached, restored when the service comes back.

# Architecture

	┌──────────────────── POLLER (one per service) ─────────────┐
	│                                                           │
	│  ticker (interval, default 30s)                           │
	│        │                                                  │
	│        ▼                                                  │
	│  ┌──────────────────────────────────────────────┐         │
	│  │                 Probe                        │         │
	│  │                                              │         │
	│  │  process     container running?              │         │
	│  │  responsive  service answers? (redis PING,   │         │
	│  │              postgres query, HTTP, TCP)      │         │
	│  │  dependency  upstream reachable?             │         │
	│  │  config      configuration sane? (exec)      │         │
	│  │                                              │         │
	│  │  absent probes default to healthy            │         │
	│  └──────────────────┬───────────────────────────┘         │
	│                     ▼                                     │
	│            HealthSnapshot (ring, cap 100)                 │
	│                     │                                     │
	│        healthy ─────┼───── unhealthy                      │
	│           │         │          │                          │
	│           ▼         │          ▼                          │
	│  reset counter      │   counter++                         │
	│  health.restored    │   classify failures                 │
	│  (if was failing)   │   health.degraded                   │
	│                     │          │                          │
	│                     │   counter == threshold              │
	│                     │          ▼                          │
	│                     │   health.critical + direct repair   │
	└───────────────────────────────────────────────────────────┘

# Escalation

ConsecutiveFailures counts unhealthy polls since the last healthy one. The
critical event and the direct repair fire exactly when the counter equals
the service's failure threshold (default 3), once per degradation episode;
further failed polls keep publishing degraded without re-firing the repair.
A healthy poll resets the counter and, when the service had been failing,
publishes health.restored.

Failures are pushed through the classifier on every unhealthy poll, so the
recovery engine sees them as ordinary classified errors; the direct repair
(typically a service restart) is the belt-and-suspenders path for the case
where classification alone does not resolve the outage.

# Usage

	p := poller.New(svc, poller.Options{
		Process:    probe,
		Responsive: health.NewRedisChecker(svc.Addr),
		Classifier: clf,
		Broker:     broker,
		Repair:     repair,
	})
	p.Start()
	defer p.Stop()

	snap := p.Last()
	recent := p.Recent(20)

Snapshots are never mutated after they are recorded, so callers can hold
the results of Last and Recent without racing the poll loop.

# See Also

  - pkg/health for the Checker implementations behind the probes
  - pkg/classifier for how probe failures become typed errors
  - pkg/api for the HTTP view over Last/Recent/ConsecutiveFailures
*/
package poller
