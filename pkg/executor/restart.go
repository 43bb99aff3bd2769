package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/mendhq/mend/pkg/command"
	"github.com/mendhq/mend/pkg/health"
	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/types"
)

const (
	readyRetries  = 10
	readyInterval = 2 * time.Second
)

// restartService stops the owning service's container, recreates it from
// its image, waits for it to report running, then runs a lightweight
// internal probe appropriate to the service type
type restartService struct {
	runtime  ContainerRuntime
	registry *Registry
}

func (a *restartService) Name() types.ActionType {
	return types.ActionRestartService
}

func (a *restartService) Execute(ctx context.Context, cerr *types.ClassifiedError) error {
	logger := log.WithComponent("executor")
	svc, err := a.registry.serviceFor(cerr)
	if err != nil {
		return err
	}

	if err := a.runtime.StopContainer(ctx, svc.ContainerName); err != nil {
		logger.Warn().Err(err).
			Str("service", svc.Name).
			Msg("stop before restart failed, continuing")
	}

	if err := a.runtime.StartService(ctx, svc); err != nil {
		return fmt.Errorf("failed to start service %s: %w", svc.Name, err)
	}

	if err := a.runtime.WaitRunning(ctx, svc.ContainerName, readyRetries, readyInterval); err != nil {
		return fmt.Errorf("service %s not running after restart: %w", svc.Name, err)
	}

	if checker := probeFor(svc); checker != nil {
		result := checker.Check(ctx)
		if !result.Healthy {
			return fmt.Errorf("service %s restarted but probe failed: %s", svc.Name, result.Message)
		}
	}

	logger.Info().
		Str("service", svc.Name).
		Msg("service restarted")
	return nil
}

// probeFor builds the post-restart probe for a service type. Reports and
// C2 frameworks expose HTTP health endpoints; the datastores get native
// pings.
func probeFor(svc *types.Service) health.Checker {
	switch svc.Type {
	case types.ServiceTypeCache:
		return health.NewRedisChecker(svc.Addr)
	case types.ServiceTypeDatabase:
		return health.NewPostgresChecker(svc.Addr)
	default:
		if svc.HealthEndpoint != "" {
			return health.NewHTTPChecker(fmt.Sprintf("http://localhost:%d%s", svc.Port, svc.HealthEndpoint))
		}
		if svc.Port != 0 {
			return health.NewTCPChecker(fmt.Sprintf("localhost:%d", svc.Port))
		}
	}
	return nil
}

// restartDaemon restarts containerd itself and waits for it to come back
type restartDaemon struct {
	runner command.Runner
}

func (a *restartDaemon) Name() types.ActionType {
	return types.ActionRestartDaemon
}

func (a *restartDaemon) Execute(ctx context.Context, cerr *types.ClassifiedError) error {
	logger := log.WithComponent("executor")
	result, err := a.runner.Run(ctx, "systemctl", "restart", "containerd")
	if err != nil {
		return fmt.Errorf("failed to restart containerd: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("systemctl restart containerd exited %d: %s", result.ExitCode, result.Stderr)
	}

	for i := 0; i < readyRetries; i++ {
		result, err = a.runner.Run(ctx, "systemctl", "is-active", "--quiet", "containerd")
		if err == nil && result.ExitCode == 0 {
			logger.Info().Msg("containerd restarted")
			return nil
		}
		select {
		case <-time.After(readyInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("containerd not active after restart")
}
