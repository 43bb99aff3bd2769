package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mendhq/mend/pkg/events"
	"github.com/mendhq/mend/pkg/executor"
	"github.com/mendhq/mend/pkg/history"
	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/metrics"
	"github.com/mendhq/mend/pkg/strategy"
	"github.com/mendhq/mend/pkg/types"
)

// DefaultActionTimeout bounds a single recovery action so a hung repair
// cannot stall the engine
const DefaultActionTimeout = 2 * time.Minute

// Engine consumes classified errors and drives their recovery: look up
// the strategy for the kind, execute its actions in order, record every
// outcome. One error instance recovers at most once at a time; the
// in-flight set is the only mutual exclusion in the system.
type Engine struct {
	history    *history.Store
	strategies *strategy.Registry
	actions    *executor.Registry
	broker     *events.Broker

	mu       sync.Mutex
	inFlight map[string]bool

	actionTimeout time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

// New creates a recovery engine
func New(store *history.Store, strategies *strategy.Registry, actions *executor.Registry, broker *events.Broker) *Engine {
	return &Engine{
		history:       store,
		strategies:    strategies,
		actions:       actions,
		broker:        broker,
		inFlight:      make(map[string]bool),
		actionTimeout: DefaultActionTimeout,
		stopCh:        make(chan struct{}),
	}
}

// Start subscribes to error.detected events and begins dispatching
func (e *Engine) Start() {
	sub := e.broker.Subscribe()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.broker.Unsubscribe(sub)
		for {
			select {
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if ev.Type == events.EventErrorDetected && ev.Error != nil {
					e.Handle(ev.Error.ID)
				}
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop stops dispatching and waits for in-progress recoveries to finish.
// Attempts are never interrupted mid-way: a partially applied repair is
// worse than either endpoint.
func (e *Engine) Stop() {
	close(e.stopCh)
	e.wg.Wait()
}

// Handle evaluates one classified error for recovery. It returns
// immediately; the recovery sequence runs in its own goroutine.
func (e *Engine) Handle(errorID string) {
	cerr, ok := e.history.Get(errorID)
	if !ok {
		return
	}

	logger := log.WithErrorID(errorID)

	if !cerr.AutoRecoverable {
		logger.Debug().Str("kind", string(cerr.Kind)).Msg("error not auto-recoverable")
		return
	}
	if cerr.Resolved {
		return
	}

	strat, ok := e.strategies.Lookup(cerr.Kind)
	if !ok {
		// Same terminal outcome as a failed attempt sequence
		logger.Error().Str("kind", string(cerr.Kind)).Msg("no recovery strategy defined")
		return
	}
	if cerr.RecoveryAttempts >= strat.MaxAttempts {
		logger.Warn().
			Int("attempts", cerr.RecoveryAttempts).
			Int("max_attempts", strat.MaxAttempts).
			Msg("recovery attempt budget exhausted")
		return
	}

	if !e.begin(errorID) {
		logger.Debug().Msg("recovery already in flight for this error")
		return
	}

	// Re-read under the in-flight claim: a recovery that held the slot
	// between our first look and begin may have resolved the error or
	// spent the last attempt
	cerr, ok = e.history.Get(errorID)
	if !ok || cerr.Resolved || cerr.RecoveryAttempts >= strat.MaxAttempts {
		e.finish(errorID)
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.finish(errorID)
		e.runRecovery(cerr, strat)
	}()
}

// begin adds the error id to the in-flight set; false means a recovery
// for this exact instance is already running
func (e *Engine) begin(errorID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[errorID] {
		return false
	}
	e.inFlight[errorID] = true
	metrics.RecoveryInFlight.Inc()
	return true
}

func (e *Engine) finish(errorID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, errorID)
	metrics.RecoveryInFlight.Dec()
}

// InFlight reports whether a recovery is currently running for the id
func (e *Engine) InFlight(errorID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight[errorID]
}

// runRecovery runs one recovery attempt: the strategy's actions in strict
// order, stopping at the first success
func (e *Engine) runRecovery(cerr *types.ClassifiedError, strat types.RecoveryStrategy) {
	logger := log.WithErrorID(cerr.ID)
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RecoveryDuration)

	attempt, ok := e.history.IncrementAttempts(cerr.ID)
	if !ok {
		// Evicted from the ring before recovery began
		return
	}
	metrics.RecoveryAttempts.WithLabelValues(string(cerr.Kind)).Inc()

	logger.Info().
		Str("kind", string(cerr.Kind)).
		Int("attempt", attempt).
		Int("actions", len(strat.Actions)).
		Msg("starting recovery")

	for i, actionType := range strat.Actions {
		success, detail := e.runAction(actionType, cerr)

		e.history.RecordAction(&types.RecoveryAction{
			ID:         uuid.New().String(),
			ErrorID:    cerr.ID,
			ActionType: actionType,
			Timestamp:  time.Now(),
			Success:    success,
			Details:    detail,
		})

		outcome := "failure"
		if success {
			outcome = "success"
		}
		metrics.RecoveryActionsTotal.WithLabelValues(string(actionType), outcome).Inc()

		if success {
			// Actions annotate their working copy (an alternate port,
			// a reclaimed path); fold that back before anyone reads it
			e.history.MergeContext(cerr.ID, cerr.Context)
			e.history.MarkResolved(cerr.ID)
			metrics.RecoverySucceeded.WithLabelValues(string(cerr.Kind)).Inc()

			resolved, _ := e.history.Get(cerr.ID)
			logger.Info().
				Str("action", string(actionType)).
				Msg("recovery succeeded")
			e.broker.Publish(&events.Event{
				Type:     events.EventRecoverySuccess,
				Error:    resolved,
				Message:  detail,
				Metadata: map[string]string{"action": string(actionType)},
			})
			e.broker.PublishError(events.EventErrorResolved, resolved, detail)
			return
		}

		logger.Warn().
			Str("action", string(actionType)).
			Str("detail", detail).
			Msg("recovery action failed")

		// Give the repair time to settle before the next, more drastic
		// action judges it insufficient
		if i < len(strat.Actions)-1 && strat.RetryDelay > 0 {
			select {
			case <-time.After(strat.RetryDelay):
			case <-e.stopCh:
				// Finish the remaining actions rather than abandon a
				// half-applied repair
			}
		}
	}

	metrics.RecoveryExhausted.WithLabelValues(string(cerr.Kind)).Inc()
	logger.Error().
		Str("kind", string(cerr.Kind)).
		Int("attempt", attempt).
		Msg("all recovery actions exhausted")

	exhausted, _ := e.history.Get(cerr.ID)
	e.broker.PublishError(events.EventRecoveryFailed, exhausted, "all recovery actions exhausted")
}

// runAction executes one action with a timeout, converting panics and
// missing executors into ordinary failures. The engine loop must never
// die to a faulty executor.
func (e *Engine) runAction(actionType types.ActionType, cerr *types.ClassifiedError) (success bool, detail string) {
	action, ok := e.actions.Get(actionType)
	if !ok {
		return false, fmt.Sprintf("no executor registered for %s", actionType)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.actionTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			success = false
			detail = fmt.Sprintf("executor panic: %v", r)
			logger := log.WithComponent("engine")
			logger.Error().
				Str("action", string(actionType)).
				Str("error_id", cerr.ID).
				Msgf("recovered executor panic: %v", r)
		}
	}()

	if err := action.Execute(ctx, cerr); err != nil {
		return false, err.Error()
	}
	return true, fmt.Sprintf("%s succeeded", actionType)
}
