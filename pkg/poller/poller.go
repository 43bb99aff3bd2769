package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mendhq/mend/pkg/classifier"
	"github.com/mendhq/mend/pkg/events"
	"github.com/mendhq/mend/pkg/health"
	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/metrics"
	"github.com/mendhq/mend/pkg/types"
)

const (
	// DefaultInterval between polls when the service doesn't set one
	DefaultInterval = 30 * time.Second

	// DefaultFailureThreshold of consecutive unhealthy polls before the
	// direct repair fast path fires
	DefaultFailureThreshold = 3

	// snapshotHistoryCap bounds the per-service snapshot ring
	snapshotHistoryCap = 100
)

// ProcessProbe reports whether the service's container is running
type ProcessProbe interface {
	IsRunning(ctx context.Context, name string) bool
}

// RepairFunc is the direct repair sequence invoked at the failure
// threshold, scoped to one service. It exists as a fast path for the
// most operationally critical services and runs independently of the
// general recovery engine.
type RepairFunc func(ctx context.Context, svc *types.Service) error

// Poller runs the periodic health loop for one service. Pollers own
// their snapshot history independently and share no mutable state with
// each other.
type Poller struct {
	svc        *types.Service
	process    ProcessProbe
	responsive health.Checker
	dependency health.Checker // may be nil
	configs    health.Checker // may be nil
	classifier *classifier.Classifier
	broker     *events.Broker
	healthReg  *metrics.HealthRegistry
	repair     RepairFunc

	mu                  sync.RWMutex
	consecutiveFailures int
	lastSnapshot        *types.HealthSnapshot
	snapshots           []*types.HealthSnapshot

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Options carries the poller's collaborators
type Options struct {
	Process    ProcessProbe
	Responsive health.Checker
	Dependency health.Checker
	Config     health.Checker
	Classifier *classifier.Classifier
	Broker     *events.Broker
	HealthReg  *metrics.HealthRegistry
	Repair     RepairFunc
}

// New creates a poller for the given service
func New(svc *types.Service, opts Options) *Poller {
	return &Poller{
		svc:        svc,
		process:    opts.Process,
		responsive: opts.Responsive,
		dependency: opts.Dependency,
		configs:    opts.Config,
		classifier: opts.Classifier,
		broker:     opts.Broker,
		healthReg:  opts.HealthReg,
		repair:     opts.Repair,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the polling loop
func (p *Poller) Start() {
	p.wg.Add(1)
	go p.run()
}

// Stop stops the polling loop
func (p *Poller) Stop() {
	close(p.stopCh)
	p.wg.Wait()
}

func (p *Poller) run() {
	defer p.wg.Done()

	interval := p.svc.PollInterval
	if interval == 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Poll immediately on start
	p.Poll(context.Background())

	for {
		select {
		case <-ticker.C:
			p.Poll(context.Background())
		case <-p.stopCh:
			return
		}
	}
}

// Poll runs one health cycle: probe, classify failures, escalate
func (p *Poller) Poll(ctx context.Context) *types.HealthSnapshot {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.HealthCheckDuration, p.svc.Name)

	snap := p.probe(ctx)
	p.fold(snap)

	logger := log.WithService(p.svc.Name)

	if snap.Healthy() {
		metrics.HealthChecksTotal.WithLabelValues(p.svc.Name, "healthy").Inc()
		p.onHealthy(snap, logger)
		return snap
	}

	metrics.HealthChecksTotal.WithLabelValues(p.svc.Name, "unhealthy").Inc()
	p.onUnhealthy(ctx, snap, logger)
	return snap
}

// probe runs the sub-checks and assembles a fresh snapshot
func (p *Poller) probe(ctx context.Context) *types.HealthSnapshot {
	snap := &types.HealthSnapshot{
		Service:   p.svc.Name,
		Timestamp: time.Now(),
		// Absent probes don't count against the service
		DependencyConnected: true,
		ConfigValid:         true,
	}

	snap.ProcessRunning = p.process.IsRunning(ctx, p.svc.ContainerName)
	if !snap.ProcessRunning {
		snap.Errors = append(snap.Errors,
			fmt.Sprintf("health check failed: service %s container %s not running", p.svc.Name, p.svc.ContainerName))
	}

	result := p.responsive.Check(ctx)
	snap.Responsive = result.Healthy
	snap.Performance.LatencyMS = float64(result.Duration.Milliseconds())
	if !result.Healthy {
		snap.Errors = append(snap.Errors,
			fmt.Sprintf("service %s unresponsive: %s", p.svc.Name, result.Message))
	}

	if p.dependency != nil {
		depResult := p.dependency.Check(ctx)
		snap.DependencyConnected = depResult.Healthy
		if !depResult.Healthy {
			snap.Errors = append(snap.Errors,
				fmt.Sprintf("service %s dependency unreachable: %s", p.svc.Name, depResult.Message))
		}
	}

	if p.configs != nil {
		cfgResult := p.configs.Check(ctx)
		snap.ConfigValid = cfgResult.Healthy
		if !cfgResult.Healthy {
			snap.Errors = append(snap.Errors,
				fmt.Sprintf("service %s configuration invalid: %s", p.svc.Name, cfgResult.Message))
		}
	}

	return snap
}

func (p *Poller) onHealthy(snap *types.HealthSnapshot, logger zerolog.Logger) {
	p.mu.Lock()
	hadFailures := p.consecutiveFailures > 0
	p.consecutiveFailures = 0
	p.mu.Unlock()

	metrics.HealthConsecutiveFailures.WithLabelValues(p.svc.Name).Set(0)
	if p.healthReg != nil {
		p.healthReg.Update(p.svc.Name, true, "")
	}

	if hadFailures {
		logger.Info().Msg("service health restored")
		p.broker.PublishHealth(events.EventHealthRestored, snap,
			fmt.Sprintf("service %s healthy again", p.svc.Name))
	}
}

func (p *Poller) onUnhealthy(ctx context.Context, snap *types.HealthSnapshot, logger zerolog.Logger) {
	p.mu.Lock()
	p.consecutiveFailures++
	failures := p.consecutiveFailures
	p.mu.Unlock()

	metrics.HealthConsecutiveFailures.WithLabelValues(p.svc.Name).Set(float64(failures))
	if p.healthReg != nil {
		p.healthReg.Update(p.svc.Name, false, firstError(snap))
	}

	// Every failing sub-check goes through the classifier so nothing is
	// silently dropped; the engine picks up what is auto-recoverable
	for _, text := range snap.Errors {
		p.classifier.Classify(text, map[string]string{
			"service":   p.svc.Name,
			"container": p.svc.ContainerName,
		})
	}

	logger.Warn().
		Int("consecutive_failures", failures).
		Strs("errors", snap.Errors).
		Msg("service degraded")
	p.broker.PublishHealth(events.EventHealthDegraded, snap, firstError(snap))

	threshold := p.svc.FailureThreshold
	if threshold == 0 {
		threshold = DefaultFailureThreshold
	}

	// Fire the fast path exactly at the threshold so one degradation
	// episode triggers one direct repair
	if failures == threshold {
		logger.Error().
			Int("threshold", threshold).
			Msg("failure threshold reached")
		p.broker.PublishHealth(events.EventHealthCritical, snap,
			fmt.Sprintf("service %s failed %d consecutive polls", p.svc.Name, failures))

		if p.repair != nil {
			if err := p.repair(ctx, p.svc); err != nil {
				logger.Error().Err(err).Msg("direct repair failed")
			} else {
				logger.Info().Msg("direct repair completed")
			}
		}
	}
}

// fold adds the snapshot to the bounded history ring
func (p *Poller) fold(snap *types.HealthSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastSnapshot = snap
	p.snapshots = append(p.snapshots, snap)
	if len(p.snapshots) > snapshotHistoryCap {
		p.snapshots = p.snapshots[1:]
	}
}

// Last returns the most recent snapshot
func (p *Poller) Last() *types.HealthSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSnapshot
}

// Recent returns up to limit snapshots, most-recent-first
func (p *Poller) Recent(limit int) []*types.HealthSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if limit <= 0 || limit > len(p.snapshots) {
		limit = len(p.snapshots)
	}
	out := make([]*types.HealthSnapshot, 0, limit)
	for i := len(p.snapshots) - 1; i >= len(p.snapshots)-limit; i-- {
		out = append(out, p.snapshots[i])
	}
	return out
}

// ConsecutiveFailures returns the current failure streak
func (p *Poller) ConsecutiveFailures() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.consecutiveFailures
}

// Service returns the monitored service
func (p *Poller) Service() *types.Service {
	return p.svc
}

func firstError(snap *types.HealthSnapshot) string {
	if len(snap.Errors) > 0 {
		return snap.Errors[0]
	}
	return ""
}
