/*
Package strategy maps error kinds to recovery strategies.

A strategy is an ordered action list, an attempt budget, and a retry delay.
The registry ships a built-in table covering every classifiable kind except
unknown, and supports per-kind overrides from configuration.

# Default Table

	kind                    attempts  actions (in order)             delay
	─────────────────────── ────────  ─────────────────────────────  ─────
	port_conflict              3      find-alternative-port,           5s
	                                  cleanup-conflicting-containers
	name_conflict              3      cleanup-conflicting-containers,  5s
	                                  cleanup-fuzzy-match
	image_pull_failed          2      prune-disk-space,               10s
	                                  pull-image-retry
	permission_denied          2      repair-volume-permissions        5s
	resource_exhausted         2      prune-disk-space,               10s
	                                  disable-durability
	network_error              3      verify-datastore,                5s
	                                  restart-service
	daemon_error               3      restart-daemon                  10s
	container_start_failed     3      cleanup-conflicting-containers, 10s
	                                  repair-volume-permissions,
	                                  restart-service
	volume_mount_error         2      repair-volume-permissions,       5s
	                                  restart-service
	health_check_failed        3      restart-service                 15s
	database_config_error      2      repair-volume-permissions,      10s
	                                  restart-service
	plugin_missing             1      disable-plugin                   0

Within a strategy, actions escalate: earlier actions are cheaper and less
disruptive, and the engine stops at the first success. unknown has no entry
on purpose; unclassifiable errors are for operators, not automation.

# Overrides

NewRegistryWithOverrides starts from the default table and replaces only
the kinds the caller names, which is how per-deployment tuning from the
config file lands without restating the whole table:

	reg := strategy.NewRegistryWithOverrides(cfg.StrategyTable())

NewRegistryWith replaces the table wholesale; tests use it to pin a tiny
table around a stub action.

# See Also

  - pkg/engine for how a strategy is executed
  - pkg/executor for the action implementations
  - pkg/config for the override file format
*/
package strategy
