/*
Package runtime provides Mend's containerd client.

ContainerdRuntime wraps the containerd Go client with the operations the
recovery actions need: inspect, stop, remove, pull, recreate, and prune.
All operations run inside a single configurable namespace so Mend never
touches containers it does not supervise.

# Architecture

	┌──────────────────── CONTAINERD RUNTIME ───────────────────┐
	│                                                           │
	│  ContainerdRuntime                                        │
	│    socket: /run/containerd/containerd.sock (default)      │
	│    namespace: mend (default)                              │
	│       │                                                   │
	│       ├── Inspection                                      │
	│       │     IsRunning, Exists, ListContainers,            │
	│       │     FindMatching (substring over names)           │
	│       │                                                   │
	│       ├── Lifecycle                                       │
	│       │     StopContainer  (SIGTERM, wait, SIGKILL)       │
	│       │     RemoveContainer (task teardown + snapshot)    │
	│       │     StartService   (OCI spec from types.Service)  │
	│       │     WaitRunning    (poll with retries)            │
	│       │                                                   │
	│       └── Images                                          │
	│             PullImage, PruneImages (unreferenced only)    │
	└───────────────────────────────────────────────────────────┘

# Lifecycle Semantics

StopContainer sends SIGTERM, waits for the task to exit with a timeout,
then escalates to SIGKILL. RemoveContainer tears down the task first when
one exists and cleans up the snapshot. StartService removes any stale
container first, then builds the OCI spec from the service definition:
image config plus a bind mount of the service's data directory at /data.
WaitRunning polls IsRunning with a retry budget so callers can verify a
restart actually took.

IsRunning and Exists swallow lookup errors and report false; recovery
actions treat "cannot tell" the same as "not there" and let verification
catch lies.

# Usage

	rt, err := runtime.NewContainerdRuntime(cfg.ContainerdSocket)
	if err != nil {
		return err
	}
	rt = rt.WithNamespace(cfg.Namespace)
	defer rt.Close()

	if !rt.IsRunning(ctx, svc.ContainerName) {
		err = rt.StartService(ctx, svc)
	}

# See Also

  - pkg/executor for the actions driving this client
  - pkg/executor ContainerRuntime, the interface this type satisfies
*/
package runtime
