/*
Package classifier provides pattern-based error classification for Mend.

The classifier turns raw failure text from container operations, health
probes, and daemon logs into structured, typed errors. Each classified error
carries a kind, a severity, an auto-recoverability flag, and context extracted
from the text itself (ports, container names, plugin names), giving the
recovery engine everything it needs to pick a strategy.

# Architecture

Classification is a single pass over an ordered taxonomy of compiled
regular expressions:

	┌──────────────────── CLASSIFIER ───────────────────────┐
	│                                                        │
	│  Raw failure text + caller context                     │
	│        │                                               │
	│        ▼                                               │
	│  ┌──────────────────────────────────────┐              │
	│  │        Ordered Taxonomy              │              │
	│  │                                      │              │
	│  │   1. port_conflict                   │              │
	│  │   2. name_conflict                   │              │
	│  │   3. image_pull_failed               │              │
	│  │   4. volume_mount_error              │              │
	│  │   5. database_config_error           │              │
	│  │   6. plugin_missing                  │              │
	│  │   7. daemon_error                    │              │
	│  │   8. permission_denied               │              │
	│  │   9. resource_exhausted              │              │
	│  │  10. container_start_failed          │              │
	│  │  11. network_error                   │              │
	│  │  12. health_check_failed             │              │
	│  │      (first match wins)              │              │
	│  └──────────────┬───────────────────────┘              │
	│                 │ no match                             │
	│                 ▼                                      │
	│          unknown (not auto-recoverable)                │
	│                 │                                      │
	│                 ▼                                      │
	│  ClassifiedError{ID, Kind, Severity, Context}          │
	│        │                  │                            │
	│        ▼                  ▼                            │
	│  history.Store      events.Broker                      │
	│  (durable record)   (error.detected)                   │
	└────────────────────────────────────────────────────────┘

# Taxonomy Ordering

The taxonomy is ordered from most specific to least specific, and the first
matching entry wins. Ordering is load-bearing: "bind: address already in use"
inside a container start failure must classify as port_conflict, not as the
generic container_start_failed; "cannot connect to the containerd socket"
must win over network_error. health_check_failed sits last so that probe
failures which embed a root cause ("connection refused", "no space left on
device") classify by the cause instead of the wrapper.

Patterns also extract context with named capture groups. A port conflict
captures the contended port, a name conflict captures the conflicting
container name, a missing plugin captures the plugin name. Extracted context
merges with caller-provided context; caller keys win on collision.

# Severity and Recoverability

Each kind maps to a fixed severity (low, medium, high, critical) and an
auto-recoverable flag. The engine only acts on auto-recoverable errors;
everything else is recorded for operators. Unknown errors are never
auto-recoverable and carry medium severity.

# Usage

	clf := classifier.New(store, broker)

	cerr := clf.Classify(
		"failed to start container: bind: address already in use",
		map[string]string{"service": "cache", "container": "mend-cache"},
	)

	fmt.Println(cerr.Kind)            // port_conflict
	fmt.Println(cerr.Context["port"]) // extracted from the text when present

Classify records the error in the history store and publishes error.detected
before returning, so callers normally just fire and forget.

# Integration Points

  - pkg/poller classifies health probe failures
  - pkg/executor failure text loops back through classification via the poller
  - pkg/engine subscribes to error.detected and dispatches recovery
  - pkg/strategy maps each kind to an ordered action list

# See Also

  - pkg/types for ErrorKind, Severity, and ClassifiedError
  - pkg/strategy for the kind → action mapping
*/
package classifier
