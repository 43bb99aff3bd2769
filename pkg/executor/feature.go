package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/mendhq/mend/pkg/command"
	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/types"
)

// disableDurability is the last-resort degradation for the cache: turn
// off append-only persistence so Redis can serve again when its disk is
// full or its AOF is corrupt. Availability over durability.
type disableDurability struct {
	runner   command.Runner
	registry *Registry
}

func (a *disableDurability) Name() types.ActionType {
	return types.ActionDisableDurability
}

func (a *disableDurability) Execute(ctx context.Context, cerr *types.ClassifiedError) error {
	logger := log.WithComponent("executor")
	svc, err := a.registry.serviceFor(cerr)
	if err != nil {
		return err
	}
	if svc.Type != types.ServiceTypeCache {
		return fmt.Errorf("durability degradation only applies to the cache, not %s", svc.Type)
	}

	host, port := splitAddr(svc.Addr)
	result, runErr := a.runner.Run(ctx, "redis-cli", "-h", host, "-p", port,
		"CONFIG", "SET", "appendonly", "no")
	if runErr != nil {
		return fmt.Errorf("failed to disable appendonly: %w", runErr)
	}
	if result.ExitCode != 0 || !strings.Contains(result.Stdout, "OK") {
		return fmt.Errorf("redis refused durability change: %s%s", result.Stdout, result.Stderr)
	}

	logger.Warn().
		Str("service", svc.Name).
		Msg("disabled append-only persistence to restore availability")
	return nil
}

// disablePlugin removes a named report-app plugin that fails to load so
// the application can boot without it
type disablePlugin struct {
	runner   command.Runner
	registry *Registry
}

func (a *disablePlugin) Name() types.ActionType {
	return types.ActionDisablePlugin
}

func (a *disablePlugin) Execute(ctx context.Context, cerr *types.ClassifiedError) error {
	logger := log.WithComponent("executor")
	plugin := cerr.Context["plugin"]
	if plugin == "" {
		return fmt.Errorf("no plugin named in error context")
	}

	args := []string{"plugins", "uninstall", plugin}
	if svc, err := a.registry.serviceFor(cerr); err == nil && svc.VolumePath != "" {
		args = append([]string{"--pluginsDir", svc.VolumePath + "/plugins"}, args...)
	}

	result, runErr := a.runner.Run(ctx, "grafana-cli", args...)
	if runErr != nil {
		return fmt.Errorf("failed to uninstall plugin %s: %w", plugin, runErr)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("plugin uninstall exited %d: %s", result.ExitCode, result.Stderr)
	}

	logger.Warn().
		Str("plugin", plugin).
		Msg("disabled failing plugin")
	return nil
}

func splitAddr(addr string) (host, port string) {
	host, port = "localhost", "6379"
	if i := strings.LastIndex(addr, ":"); i > 0 {
		host, port = addr[:i], addr[i+1:]
	} else if addr != "" {
		host = addr
	}
	return host, port
}
