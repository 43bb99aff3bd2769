package executor

import (
	"context"
	"fmt"

	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/types"
)

// cleanupContainers removes the conflicting container named in the error
// context and verifies it is gone. Removing an already-absent container
// succeeds, which keeps redundant invocations harmless.
type cleanupContainers struct {
	runtime  ContainerRuntime
	registry *Registry
}

func (a *cleanupContainers) Name() types.ActionType {
	return types.ActionCleanupContainers
}

func (a *cleanupContainers) Execute(ctx context.Context, cerr *types.ClassifiedError) error {
	logger := log.WithComponent("executor")
	target := cerr.Context["conflicting_name"]
	if target == "" {
		target = cerr.Context["container"]
	}
	if target == "" {
		// Fall back to the owning service's container
		svc, err := a.registry.serviceFor(cerr)
		if err != nil {
			return fmt.Errorf("no container to clean up: %w", err)
		}
		target = svc.ContainerName
	}

	if err := a.runtime.RemoveContainer(ctx, target); err != nil {
		return fmt.Errorf("failed to remove container %s: %w", target, err)
	}

	if a.runtime.Exists(ctx, target) {
		return fmt.Errorf("container %s still present after removal", target)
	}

	logger.Info().
		Str("container", target).
		Msg("removed conflicting container")
	return nil
}

// cleanupFuzzy removes every container whose name contains the
// conflicting name stem, then verifies absence
type cleanupFuzzy struct {
	runtime ContainerRuntime
}

func (a *cleanupFuzzy) Name() types.ActionType {
	return types.ActionCleanupFuzzy
}

func (a *cleanupFuzzy) Execute(ctx context.Context, cerr *types.ClassifiedError) error {
	logger := log.WithComponent("executor")
	stem := cerr.Context["conflicting_name"]
	if stem == "" {
		stem = cerr.Context["service"]
	}
	if stem == "" {
		return fmt.Errorf("no name stem in error context")
	}

	matches, err := a.runtime.FindMatching(ctx, stem)
	if err != nil {
		return fmt.Errorf("failed to list containers matching %q: %w", stem, err)
	}
	if len(matches) == 0 {
		// Nothing matching is already the desired state
		return nil
	}

	var failed []string
	for _, name := range matches {
		if err := a.runtime.RemoveContainer(ctx, name); err != nil {
			failed = append(failed, name)
			logger.Warn().Err(err).
				Str("container", name).
				Msg("failed to remove matching container")
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("failed to remove %d of %d matching containers", len(failed), len(matches))
	}

	remaining, err := a.runtime.FindMatching(ctx, stem)
	if err != nil {
		return fmt.Errorf("failed to verify cleanup of %q: %w", stem, err)
	}
	if len(remaining) > 0 {
		return fmt.Errorf("%d containers matching %q still present", len(remaining), stem)
	}

	logger.Info().
		Str("stem", stem).
		Int("removed", len(matches)).
		Msg("removed matching containers")
	return nil
}
