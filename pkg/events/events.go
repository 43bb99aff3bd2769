package events

import (
	"sync"
	"time"

	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/types"
)

// EventType represents the type of event
type EventType string

const (
	EventErrorDetected   EventType = "error.detected"
	EventErrorResolved   EventType = "error.resolved"
	EventRecoverySuccess EventType = "recovery.success"
	EventRecoveryFailed  EventType = "recovery.failed"
	EventHealthDegraded  EventType = "health.degraded"
	EventHealthCritical  EventType = "health.critical"
	EventHealthRestored  EventType = "health.restored"
)

// Event represents a supervision event. Error-scoped events carry the
// ClassifiedError; health-scoped events carry the HealthSnapshot.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Message   string
	Error     *types.ClassifiedError
	Snapshot  *types.HealthSnapshot
	Metadata  map[string]string
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Broker manages event subscriptions and distribution
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100), // Buffer up to 100 events
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50) // Buffer per subscriber
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, sub)
	close(sub)
}

// Publish publishes an event to all subscribers
func (b *Broker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	default:
		logger := log.WithComponent("events")
		logger.Warn().
			Str("type", string(event.Type)).
			Msg("event buffer full, dropping event")
	}
}

// PublishError is a convenience for error-scoped events
func (b *Broker) PublishError(t EventType, cerr *types.ClassifiedError, msg string) {
	b.Publish(&Event{Type: t, Error: cerr, Message: msg})
}

// PublishHealth is a convenience for health-scoped events
func (b *Broker) PublishHealth(t EventType, snap *types.HealthSnapshot, msg string) {
	b.Publish(&Event{Type: t, Snapshot: snap, Message: msg})
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			logger := log.WithComponent("events")
			logger.Debug().
				Str("type", string(event.Type)).
				Msg("subscriber buffer full, skipping delivery")
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
