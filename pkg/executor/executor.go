package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/mendhq/mend/pkg/command"
	"github.com/mendhq/mend/pkg/types"
)

// ContainerRuntime is the subset of runtime operations executors need
type ContainerRuntime interface {
	IsRunning(ctx context.Context, name string) bool
	Exists(ctx context.Context, name string) bool
	StopContainer(ctx context.Context, name string) error
	RemoveContainer(ctx context.Context, name string) error
	FindMatching(ctx context.Context, stem string) ([]string, error)
	PullImage(ctx context.Context, imageRef string) error
	StartService(ctx context.Context, svc *types.Service) error
	WaitRunning(ctx context.Context, name string, retries int, interval time.Duration) error
	PruneImages(ctx context.Context) (int, error)
}

// Action is one named, independently invokable repair operation. A nil
// error from Execute means the repair succeeded. Every action must be
// safe to invoke when its precondition no longer holds.
type Action interface {
	Name() types.ActionType
	Execute(ctx context.Context, cerr *types.ClassifiedError) error
}

// Registry holds the action catalogue and the fleet description the
// actions operate on
type Registry struct {
	actions  map[types.ActionType]Action
	services map[string]*types.Service
}

// NewRegistry builds the full catalogue wired to the given runtime,
// command runner, and fleet
func NewRegistry(rt ContainerRuntime, runner command.Runner, services []*types.Service) *Registry {
	r := &Registry{
		actions:  make(map[types.ActionType]Action),
		services: make(map[string]*types.Service, len(services)),
	}
	for _, svc := range services {
		r.services[svc.Name] = svc
	}

	r.register(&cleanupContainers{runtime: rt, registry: r})
	r.register(&cleanupFuzzy{runtime: rt})
	r.register(&findAlternatePort{registry: r})
	r.register(&pruneDiskSpace{runtime: rt, runner: runner})
	r.register(&pullImageRetry{runtime: rt, registry: r})
	r.register(&repairPermissions{runner: runner, registry: r})
	r.register(&restartService{runtime: rt, registry: r})
	r.register(&restartDaemon{runner: runner})
	r.register(&verifyDatastore{registry: r})
	r.register(&disableDurability{runner: runner, registry: r})
	r.register(&disablePlugin{runner: runner, registry: r})

	return r
}

func (r *Registry) register(a Action) {
	r.actions[a.Name()] = a
}

// Get returns the action for the given type
func (r *Registry) Get(t types.ActionType) (Action, bool) {
	a, ok := r.actions[t]
	return a, ok
}

// Override replaces an action, used by tests
func (r *Registry) Override(a Action) {
	r.actions[a.Name()] = a
}

// serviceFor resolves the fleet service an error belongs to from its
// context, falling back to matching the container name
func (r *Registry) serviceFor(cerr *types.ClassifiedError) (*types.Service, error) {
	if name, ok := cerr.Context["service"]; ok {
		if svc, ok := r.services[name]; ok {
			return svc, nil
		}
	}
	if name, ok := cerr.Context["container"]; ok {
		for _, svc := range r.services {
			if svc.ContainerName == name {
				return svc, nil
			}
		}
	}
	return nil, fmt.Errorf("no service resolved from error %s context", cerr.ID)
}
