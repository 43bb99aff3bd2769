package executor

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mendhq/mend/pkg/command"
	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/types"
)

// repairPermissions restores ownership and mode on the service's storage
// volume. Stale lock and temp files are removed first: a crashed service
// frequently leaves a postmaster.pid or .lock behind that blocks the
// next start regardless of ownership.
type repairPermissions struct {
	runner   command.Runner
	registry *Registry
}

func (a *repairPermissions) Name() types.ActionType {
	return types.ActionRepairPermissions
}

func (a *repairPermissions) Execute(ctx context.Context, cerr *types.ClassifiedError) error {
	logger := log.WithComponent("executor")
	path := cerr.Context["path"]
	owner := ""

	svc, err := a.registry.serviceFor(cerr)
	if err == nil {
		if path == "" {
			path = svc.VolumePath
		}
		owner = svc.VolumeOwner
	}
	if path == "" {
		return fmt.Errorf("no volume path to repair: %w", err)
	}

	// Stale locks first
	result, runErr := a.runner.Run(ctx, "find", path,
		"-maxdepth", "2",
		"(", "-name", "*.lock", "-o", "-name", "*.pid", "-o", "-name", ".tmp*", ")",
		"-delete")
	if runErr != nil {
		return fmt.Errorf("failed to clear stale lock files under %s: %w", path, runErr)
	}
	if result.ExitCode != 0 {
		logger.Warn().
			Str("path", path).
			Str("stderr", result.Stderr).
			Msg("lock file cleanup exited non-zero, continuing")
	}

	if owner != "" {
		result, runErr = a.runner.Run(ctx, "chown", "-R", owner, path)
		if runErr != nil {
			return fmt.Errorf("chown %s %s: %w", owner, path, runErr)
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("chown %s %s exited %d: %s", owner, path, result.ExitCode, result.Stderr)
		}
	}

	result, runErr = a.runner.Run(ctx, "chmod", "-R", "u+rwX", path)
	if runErr != nil {
		return fmt.Errorf("chmod %s: %w", path, runErr)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("chmod %s exited %d: %s", path, result.ExitCode, result.Stderr)
	}

	// Verify the volume is writable again
	probe := filepath.Join(path, ".mend-writecheck")
	result, runErr = a.runner.Run(ctx, "sh", "-c", fmt.Sprintf("touch %s && rm -f %s", probe, probe))
	if runErr != nil || result.ExitCode != 0 {
		return fmt.Errorf("volume %s still not writable after repair", path)
	}

	logger.Info().
		Str("path", path).
		Str("owner", owner).
		Msg("repaired volume permissions")
	return nil
}
