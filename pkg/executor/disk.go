package executor

import (
	"context"
	"fmt"

	"github.com/mendhq/mend/pkg/command"
	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/types"
)

// pruneDiskSpace reclaims disk space by deleting unused images. When the
// containerd client call fails (e.g. the daemon itself is sick) it falls
// back to the nerdctl CLI through the command runner.
type pruneDiskSpace struct {
	runtime ContainerRuntime
	runner  command.Runner
}

func (a *pruneDiskSpace) Name() types.ActionType {
	return types.ActionPruneDiskSpace
}

func (a *pruneDiskSpace) Execute(ctx context.Context, cerr *types.ClassifiedError) error {
	logger := log.WithComponent("executor")
	pruned, err := a.runtime.PruneImages(ctx)
	if err == nil {
		logger.Info().
			Int("images_pruned", pruned).
			Msg("reclaimed disk space")
		return nil
	}

	logger.Warn().Err(err).
		Msg("image prune via client failed, falling back to nerdctl")

	result, runErr := a.runner.Run(ctx, "nerdctl", "--namespace", "mend", "system", "prune", "--force")
	if runErr != nil {
		return fmt.Errorf("disk prune fallback failed: %w", runErr)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("disk prune fallback exited %d: %s", result.ExitCode, result.Stderr)
	}
	return nil
}

// pullImageRetry re-pulls the owning service's image, used after a prune
// freed space or a transient registry failure
type pullImageRetry struct {
	runtime  ContainerRuntime
	registry *Registry
}

func (a *pullImageRetry) Name() types.ActionType {
	return types.ActionPullImageRetry
}

func (a *pullImageRetry) Execute(ctx context.Context, cerr *types.ClassifiedError) error {
	logger := log.WithComponent("executor")
	image := cerr.Context["image"]
	if image == "" {
		svc, err := a.registry.serviceFor(cerr)
		if err != nil {
			return fmt.Errorf("no image to pull: %w", err)
		}
		image = svc.Image
	}

	if err := a.runtime.PullImage(ctx, image); err != nil {
		return fmt.Errorf("retry pull of %s failed: %w", image, err)
	}

	logger.Info().
		Str("image", image).
		Msg("image pulled")
	return nil
}
