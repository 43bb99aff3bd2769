/*
Package types defines Mend's core data structures.

Every package speaks these types: the classifier produces them, the engine
and history store mutate and record them, the API serializes them. Record and
observation types carry JSON tags for the wire and the bbolt archive; the
fleet types carry YAML tags for the config file.

# Type Groups

Error model:
  - ErrorKind: the classification taxonomy (port_conflict, name_conflict,
    image_pull_failed, permission_denied, resource_exhausted,
    network_error, daemon_error, container_start_failed,
    volume_mount_error, health_check_failed, database_config_error,
    plugin_missing, unknown)
  - Severity: low, medium, high, critical
  - ClassifiedError: a classified failure with ID, kind, severity, raw
    text, extracted context, attempt count, and resolution state

Recovery model:
  - ActionType: the action vocabulary (restart-service, restart-daemon,
    cleanup-conflicting-containers, cleanup-fuzzy-match,
    find-alternative-port, pull-image-retry, prune-disk-space,
    repair-volume-permissions, disable-durability, disable-plugin,
    verify-datastore)
  - RecoveryStrategy: ordered actions, attempt budget, retry delay
  - RecoveryAction: one executed action with outcome, detail, duration

Fleet model:
  - ServiceType: cache, database, reports, c2
  - Service: a supervised service (container name, image, port and port
    range, data directory, volume owner, health endpoint)
  - PortRange: inclusive start/end bounds for port reassignment

Observation model:
  - HealthSnapshot: one poll's view of a service (process, responsive,
    dependency, config sub-checks, errors, latency)
  - Performance: latency and resource readings attached to a snapshot
  - CommandResult: exit code and combined output from a host command

# Conventions

IDs are UUIDs assigned at classification time. Timestamps are time.Time,
serialized RFC 3339. Context maps are string-to-string so they survive
JSON round-trips without type surprises. Structs here hold no behavior
beyond small accessors; logic lives in the packages that use them.
*/
package types
