/*
Package events provides an in-memory event broker for Mend's pub/sub messaging.

The events package implements a lightweight event bus for broadcasting
supervision events to interested subscribers. It supports asynchronous event
delivery with bounded buffers, enabling loose coupling between the classifier,
recovery engine, health pollers, and API consumers.

# Architecture

Mend's event system provides non-blocking pub/sub messaging with buffered
channels:

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                           │
	│  ┌────────────────────────────────────────────┐           │
	│  │              Event Broker                  │           │
	│  │  - In-memory message bus                   │           │
	│  │  - Topic-agnostic (all events broadcast)   │           │
	│  │  - Non-blocking publish                    │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │          Event Distribution                │           │
	│  │                                            │           │
	│  │  Publisher → Event Channel (buffer: 100)   │           │
	│  │       ↓                                    │           │
	│  │  Broadcast Loop                            │           │
	│  │       ↓                                    │           │
	│  │  Subscriber Channels (buffer: 50 each)     │           │
	│  └──────────────────┬─────────────────────────┘           │
	│                     │                                     │
	│  ┌──────────────────▼─────────────────────────┐           │
	│  │           Event Types                      │           │
	│  │                                            │           │
	│  │  Error Events:                             │           │
	│  │    - error.detected                        │           │
	│  │    - error.resolved                        │           │
	│  │                                            │           │
	│  │  Recovery Events:                          │           │
	│  │    - recovery.success                      │           │
	│  │    - recovery.failed                       │           │
	│  │                                            │           │
	│  │  Health Events:                            │           │
	│  │    - health.degraded                       │           │
	│  │    - health.critical                       │           │
	│  │    - health.restored                       │           │
	│  └────────────────────────────────────────────┘           │
	│                                                           │
	│  ┌────────────────────────────────────────────┐           │
	│  │            Subscribers                     │           │
	│  │                                            │           │
	│  │  - Recovery engine (dispatch on detect)    │           │
	│  │  - Metrics collector                       │           │
	│  │  - Tests and debugging tools               │           │
	│  └────────────────────────────────────────────┘           │
	└───────────────────────────────────────────────────────────┘

# Core Components

Broker:
  - Central message bus for all supervision events
  - Single broadcast goroutine started via Start()
  - Thread-safe subscribe/unsubscribe
  - Drops events for slow subscribers rather than blocking

Event:
  - Type (error.detected, recovery.success, ...)
  - Timestamp (filled by Publish when zero)
  - Message (human-readable summary)
  - Error (*types.ClassifiedError, error-scoped events)
  - Snapshot (*types.HealthSnapshot, health-scoped events)
  - Metadata (extra key/value detail, e.g. the succeeding action)

Subscriber:
  - Receive-only view of a buffered channel (capacity 50)
  - Created by Subscribe(), released by Unsubscribe()

# Event Flow

Error path:

 1. Classifier matches raw text against the taxonomy
 2. Classifier publishes error.detected with the classified error
 3. Recovery engine receives the event and dispatches a recovery
 4. Engine publishes recovery.success or recovery.failed
 5. On success the engine also publishes error.resolved

Health path:

 1. Poller probes a service and builds a snapshot
 2. On failure the poller publishes health.degraded
 3. At the failure threshold it publishes health.critical
 4. When the service recovers it publishes health.restored

# Usage

Creating and starting a broker:

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

Publishing events:

	broker.Publish(&events.Event{
		Type:    events.EventErrorDetected,
		Message: "port conflict on cache",
		Error:   cerr,
	})

	// Convenience helpers fill the timestamp
	broker.PublishError(events.EventErrorResolved, cerr, "recovered")
	broker.PublishHealth(events.EventHealthDegraded, snap, "cache unresponsive")

Subscribing to events:

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	go func() {
		for event := range sub {
			if event.Type != events.EventRecoveryFailed {
				continue
			}
			log.Warn().Str("error_id", event.Error.ID).Msg("recovery failed")
		}
	}()

# Delivery Semantics

Publish never blocks. The broker channel holds 100 events; if it is full the
event is dropped and a warning is logged. Each subscriber channel holds 50
events; a subscriber that stops draining loses events but never stalls the
broadcast loop or other subscribers.

Events are delivered in publish order per subscriber. There is no delivery
guarantee across process restarts: durable records live in pkg/history, not
in the broker.

# Limitations

  - In-memory only (no persistence)
  - No event replay
  - Best-effort delivery (drop on full buffer)
  - No topic filtering (subscribers filter by Type)

# Best Practices

Do:
  - Always defer broker.Unsubscribe(sub)
  - Drain subscriber channels in a dedicated goroutine
  - Filter events by Type at the subscriber
  - Start the broker before publishing

Don't:
  - Block inside the subscriber loop
  - Publish before Start()
  - Rely on event delivery for durable state (use pkg/history)

# See Also

  - pkg/classifier for error.detected producers
  - pkg/engine for recovery event producers and the dispatch subscriber
  - pkg/poller for health event producers
  - pkg/history for the durable record of errors and recoveries
*/
package events
