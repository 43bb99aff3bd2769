/*
Package executor provides Mend's recovery action implementations.

Each action in the strategy tables maps to an Action here: a small, focused
unit that knows how to repair one class of fault against the containerd
runtime, the host, or the service itself. The engine runs them in strategy
order; an action returning nil means the fault is repaired.

# Architecture

	┌──────────────────── ACTION REGISTRY ──────────────────────┐
	│                                                           │
	│  engine ── Get(ActionType) ──► Action.Execute(ctx, cerr)  │
	│                                                           │
	│  ┌───────────────────────┬───────────────────────────┐    │
	│  │ Container actions     │ Host actions              │    │
	│  │                       │                           │    │
	│  │ restart-service       │ restart-daemon            │    │
	│  │ cleanup-conflicting-  │ prune-disk-space          │    │
	│  │   containers          │ repair-volume-permissions │    │
	│  │ cleanup-fuzzy-match   │                           │    │
	│  │ find-alternative-port │                           │    │
	│  │ pull-image-retry      │                           │    │
	│  ├───────────────────────┼───────────────────────────┤    │
	│  │ Service actions       │ Verification              │    │
	│  │                       │                           │    │
	│  │ disable-durability    │ verify-datastore          │    │
	│  │ disable-plugin        │                           │    │
	│  └───────────────────────┴───────────────────────────┘    │
	│                                                           │
	│  Dependencies:                                            │
	│    ContainerRuntime  (pkg/runtime, containerd client)     │
	│    command.Runner    (host command execution)             │
	│    []*types.Service  (the supervised fleet)               │
	└───────────────────────────────────────────────────────────┘

# Action Catalog

restart-service:
  - Stops, removes, recreates, and starts the service's container
  - Waits for the service's health probe before reporting success

restart-daemon:
  - systemctl restart containerd, then waits for the socket to accept
    connections again

cleanup-conflicting-containers:
  - Removes the container named in the error context, falling back to the
    service's configured container name
  - Succeeds when the target is already gone

cleanup-fuzzy-match:
  - Removes every container whose name contains the service name, for the
    cases where a crashed run left a renamed or suffixed container behind

find-alternative-port:
  - Walks the service's configured port range, skipping the contended port
    and anything occupied on the host, and records the free port in the
    error context for the restart that follows

pull-image-retry:
  - Re-pulls the service image (or the image named in the error context)
    with backoff

prune-disk-space:
  - Prunes unused images and snapshots through the containerd client,
    falling back to nerdctl system prune when the client path fails

repair-volume-permissions:
  - Clears stale lock and pid files, chown/chmods the service's data
    directory to its configured owner, and verifies writability with a
    probe file

disable-durability:
  - Cache tier only: turns off persistence (appendonly/save) so a service
    wedged on a corrupt AOF can come back up

disable-plugin:
  - Reports tier: uninstalls the plugin named in the error context through
    grafana-cli so the service can start without it

verify-datastore:
  - Confirms the database answers queries, falling back to a TCP dial when
    no DSN is configured

# Execution Contract

Execute returns nil only when the repair is verified, not merely attempted.
Actions read their target from the error context ("service", "container",
"port", "plugin") and resolve the service through the fleet; an error with
no resolvable service fails fast. Host commands go through command.Runner,
which retries once with privilege escalation on permission failures, and
which tests replace with a command.Fake.

# Usage

	reg := executor.NewRegistry(rt, runner, services)

	act, ok := reg.Get(types.ActionRestartService)
	if ok {
		err := act.Execute(ctx, cerr)
	}

	// Tests swap implementations
	reg.Override(&stubAction{})

# See Also

  - pkg/engine for how actions are sequenced and retried
  - pkg/strategy for which actions run for which error kind
  - pkg/runtime for the containerd client behind ContainerRuntime
  - pkg/command for host command execution and the test fake
*/
package executor
