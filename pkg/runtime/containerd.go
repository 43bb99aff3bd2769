package runtime

import (
	"context"
	"fmt"
	"strings"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/types"
)

const (
	// DefaultNamespace is the containerd namespace for supervised services
	DefaultNamespace = "mend"

	// DefaultSocketPath is the default containerd socket
	DefaultSocketPath = "/run/containerd/containerd.sock"

	// stopTimeout is the grace period between SIGTERM and SIGKILL
	stopTimeout = 10 * time.Second
)

// ContainerdRuntime wraps the containerd client with the operations the
// pollers and recovery executors need
type ContainerdRuntime struct {
	client    *containerd.Client
	namespace string
}

// NewContainerdRuntime connects to containerd
func NewContainerdRuntime(socketPath string) (*ContainerdRuntime, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}

	client, err := containerd.New(socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to containerd: %w", err)
	}

	return &ContainerdRuntime{
		client:    client,
		namespace: DefaultNamespace,
	}, nil
}

// WithNamespace switches the runtime to a non-default namespace
func (r *ContainerdRuntime) WithNamespace(namespace string) *ContainerdRuntime {
	if namespace != "" {
		r.namespace = namespace
	}
	return r
}

// Close closes the containerd client connection
func (r *ContainerdRuntime) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// IsRunning reports whether the named container has a running task
func (r *ContainerdRuntime) IsRunning(ctx context.Context, name string) bool {
	ctx = namespaces.WithNamespace(ctx, r.namespace)

	container, err := r.client.LoadContainer(ctx, name)
	if err != nil {
		return false
	}

	task, err := container.Task(ctx, nil)
	if err != nil {
		return false
	}

	status, err := task.Status(ctx)
	if err != nil {
		return false
	}
	return status.Status == containerd.Running || status.Status == containerd.Paused
}

// ListContainers returns the names of all containers in the namespace
func (r *ContainerdRuntime) ListContainers(ctx context.Context) ([]string, error) {
	ctx = namespaces.WithNamespace(ctx, r.namespace)

	containers, err := r.client.Containers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	ids := make([]string, 0, len(containers))
	for _, c := range containers {
		ids = append(ids, c.ID())
	}
	return ids, nil
}

// FindMatching returns container names containing the given stem
func (r *ContainerdRuntime) FindMatching(ctx context.Context, stem string) ([]string, error) {
	ids, err := r.ListContainers(ctx)
	if err != nil {
		return nil, err
	}

	var matched []string
	for _, id := range ids {
		if strings.Contains(id, stem) {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

// StopContainer stops the named container's task, escalating from
// SIGTERM to SIGKILL after the grace period
func (r *ContainerdRuntime) StopContainer(ctx context.Context, name string) error {
	ctx = namespaces.WithNamespace(ctx, r.namespace)

	container, err := r.client.LoadContainer(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load container %s: %w", name, err)
	}

	task, err := container.Task(ctx, nil)
	if err != nil {
		// No task means the container is not running
		return nil
	}

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	if err := task.Kill(stopCtx, syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal task: %w", err)
	}

	statusC, err := task.Wait(stopCtx)
	if err != nil {
		return fmt.Errorf("failed to wait for task: %w", err)
	}

	select {
	case <-statusC:
		// Task exited
	case <-stopCtx.Done():
		if err := task.Kill(ctx, syscall.SIGKILL); err != nil {
			return fmt.Errorf("failed to force kill task: %w", err)
		}
	}

	if _, err := task.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// RemoveContainer stops and deletes the named container with its
// snapshot. Removing an absent container is not an error.
func (r *ContainerdRuntime) RemoveContainer(ctx context.Context, name string) error {
	nsCtx := namespaces.WithNamespace(ctx, r.namespace)

	container, err := r.client.LoadContainer(nsCtx, name)
	if err != nil {
		// Already gone
		return nil
	}

	if err := r.StopContainer(ctx, name); err != nil {
		logger := log.WithComponent("runtime")
		logger.Warn().Err(err).
			Str("container", name).
			Msg("failed to stop container before removal")
	}

	if err := container.Delete(nsCtx, containerd.WithSnapshotCleanup); err != nil {
		return fmt.Errorf("failed to delete container %s: %w", name, err)
	}
	return nil
}

// Exists reports whether the named container is present (running or not)
func (r *ContainerdRuntime) Exists(ctx context.Context, name string) bool {
	ctx = namespaces.WithNamespace(ctx, r.namespace)
	_, err := r.client.LoadContainer(ctx, name)
	return err == nil
}

// PullImage pulls a container image from a registry
func (r *ContainerdRuntime) PullImage(ctx context.Context, imageRef string) error {
	ctx = namespaces.WithNamespace(ctx, r.namespace)

	_, err := r.client.Pull(ctx, imageRef, containerd.WithPullUnpack)
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", imageRef, err)
	}
	return nil
}

// StartService creates and starts a container for the service, bind
// mounting its storage volume when configured. Any stale container with
// the same name is removed first so the call is safe to repeat.
func (r *ContainerdRuntime) StartService(ctx context.Context, svc *types.Service) error {
	nsCtx := namespaces.WithNamespace(ctx, r.namespace)

	if err := r.RemoveContainer(ctx, svc.ContainerName); err != nil {
		return err
	}

	image, err := r.client.GetImage(nsCtx, svc.Image)
	if err != nil {
		return fmt.Errorf("failed to get image %s: %w", svc.Image, err)
	}

	opts := []oci.SpecOpts{
		oci.WithImageConfig(image),
	}

	if svc.VolumePath != "" {
		opts = append(opts, oci.WithMounts([]specs.Mount{
			{
				Source:      svc.VolumePath,
				Destination: "/data",
				Type:        "bind",
				Options:     []string{"rw", "bind"},
			},
		}))
	}

	container, err := r.client.NewContainer(
		nsCtx,
		svc.ContainerName,
		containerd.WithImage(image),
		containerd.WithNewSnapshot(svc.ContainerName+"-snapshot", image),
		containerd.WithNewSpec(opts...),
	)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	task, err := container.NewTask(nsCtx, cio.NullIO)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := task.Start(nsCtx); err != nil {
		return fmt.Errorf("failed to start task: %w", err)
	}
	return nil
}

// WaitRunning polls until the named container reports running, with
// bounded retries
func (r *ContainerdRuntime) WaitRunning(ctx context.Context, name string, retries int, interval time.Duration) error {
	for i := 0; i < retries; i++ {
		if r.IsRunning(ctx, name) {
			return nil
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("container %s did not report running after %d checks", name, retries)
}

// PruneImages deletes images no container references and returns how
// many were removed
func (r *ContainerdRuntime) PruneImages(ctx context.Context) (int, error) {
	ctx = namespaces.WithNamespace(ctx, r.namespace)

	containers, err := r.client.Containers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list containers: %w", err)
	}

	inUse := make(map[string]bool)
	for _, c := range containers {
		info, err := c.Info(ctx)
		if err != nil {
			continue
		}
		inUse[info.Image] = true
	}

	imageService := r.client.ImageService()
	images, err := imageService.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list images: %w", err)
	}

	pruned := 0
	for _, img := range images {
		if inUse[img.Name] {
			continue
		}
		if err := imageService.Delete(ctx, img.Name); err != nil {
			logger := log.WithComponent("runtime")
			logger.Warn().Err(err).
				Str("image", img.Name).
				Msg("failed to delete unused image")
			continue
		}
		pruned++
	}
	return pruned, nil
}
