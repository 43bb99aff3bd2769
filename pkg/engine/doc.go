/*
Package engine provides Mend's recovery orchestration.

The engine turns classified errors into recovery attempts. For each
auto-recoverable error it looks up the strategy for the error's kind, runs
the strategy's actions in order, stops at the first success, and records
every attempt in the history store. It is the component that closes the loop
between detection and repair.

# Architecture

	┌──────────────────── RECOVERY ENGINE ──────────────────────┐
	│                                                           │
	│  events.Broker ── error.detected ──┐                      │
	│                                    ▼                      │
	│  ┌─────────────────────────────────────────────┐          │
	│  │              Dispatch                       │          │
	│  │  - skip non-auto-recoverable errors         │          │
	│  │  - skip errors already in flight            │          │
	│  │  - skip errors past their attempt budget    │          │
	│  └──────────────────┬──────────────────────────┘          │
	│                     ▼                                     │
	│  ┌─────────────────────────────────────────────┐          │
	│  │          Strategy Execution                 │          │
	│  │                                             │          │
	│  │  strategy.Registry.Lookup(kind)             │          │
	│  │       │                                     │          │
	│  │       ▼                                     │          │
	│  │  for each action, in order:                 │          │
	│  │    executor.Registry.Get(action)            │          │
	│  │    run with timeout + panic recovery        │          │
	│  │    record RecoveryAction in history         │          │
	│  │    success → stop, mark resolved            │          │
	│  │    failure → wait RetryDelay, next action   │          │
	│  └──────────────────┬──────────────────────────┘          │
	│                     ▼                                     │
	│  recovery.success + error.resolved                        │
	│            or                                             │
	│  recovery.failed (all actions exhausted)                  │
	└───────────────────────────────────────────────────────────┘

# Dispatch Rules

Start() subscribes the engine to the broker and dispatches each
error.detected event in its own goroutine. Handle(errorID) is the same entry
point for direct callers.

Before running anything the engine checks three gates:

  - AutoRecoverable: errors the taxonomy marks manual-only are left for
    operators.
  - In-flight dedup: a second detection of an error already being recovered
    is dropped, so flapping services do not stack concurrent recoveries.
  - Attempt budget: an error whose recorded attempts already meet the
    strategy's MaxAttempts is not retried; the budget is incremented at the
    start of each recovery run so a crash mid-recovery still counts.

An auto-recoverable error whose kind has no registered strategy is terminal
immediately: logged, never attempted. recovery.failed is published when a
run exhausts every action in the strategy.

# Action Semantics

Actions run strictly in strategy order. The first action that returns nil
resolves the error; remaining actions are skipped. Each action gets its own
context with DefaultActionTimeout, and panics inside an action are recovered
and recorded as that action failing, so one bad action cannot take down the
daemon or skip the rest of the strategy.

Every action run, success or failure, is recorded as a RecoveryAction in the
history store with its duration and detail text.

# Usage

	eng := engine.New(store, strategies, actions, broker)
	eng.Start()
	defer eng.Stop()

	// Direct dispatch, outside the event path
	go eng.Handle(cerr.ID)

# Integration Points

  - pkg/classifier produces the error.detected events the engine consumes
  - pkg/strategy supplies the per-kind action order and retry policy
  - pkg/executor supplies the action implementations
  - pkg/history records attempts, outcomes, and resolution
  - pkg/metrics observes recovery counters and durations

# See Also

  - pkg/strategy for the default strategy table
  - pkg/executor for what each action actually does
*/
package engine
