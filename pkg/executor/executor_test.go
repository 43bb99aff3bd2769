package executor

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendhq/mend/pkg/command"
	"github.com/mendhq/mend/pkg/health"
	"github.com/mendhq/mend/pkg/types"
)

// fakeRuntime is an in-memory ContainerRuntime
type fakeRuntime struct {
	mu       sync.Mutex
	existing map[string]bool
	running  map[string]bool

	removeErr error
	startErr  error
	waitErr   error
	pruneErr  error
	pruned    int

	pulled  []string
	started []string
	stopped []string
}

func newFakeRuntime(containers ...string) *fakeRuntime {
	rt := &fakeRuntime{
		existing: make(map[string]bool),
		running:  make(map[string]bool),
	}
	for _, name := range containers {
		rt.existing[name] = true
		rt.running[name] = true
	}
	return rt
}

func (f *fakeRuntime) IsRunning(_ context.Context, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running[name]
}

func (f *fakeRuntime) Exists(_ context.Context, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[name]
}

func (f *fakeRuntime) StopContainer(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, name)
	delete(f.running, name)
	return nil
}

func (f *fakeRuntime) RemoveContainer(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.existing, name)
	delete(f.running, name)
	return nil
}

func (f *fakeRuntime) FindMatching(_ context.Context, stem string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matches []string
	for name := range f.existing {
		if strings.Contains(name, stem) {
			matches = append(matches, name)
		}
	}
	return matches, nil
}

func (f *fakeRuntime) PullImage(_ context.Context, imageRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulled = append(f.pulled, imageRef)
	return nil
}

func (f *fakeRuntime) StartService(_ context.Context, svc *types.Service) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, svc.Name)
	f.existing[svc.ContainerName] = true
	f.running[svc.ContainerName] = true
	return nil
}

func (f *fakeRuntime) WaitRunning(_ context.Context, name string, retries int, interval time.Duration) error {
	return f.waitErr
}

func (f *fakeRuntime) PruneImages(_ context.Context) (int, error) {
	if f.pruneErr != nil {
		return 0, f.pruneErr
	}
	return f.pruned, nil
}

func testFleet() []*types.Service {
	return []*types.Service{
		{
			Name:          "cache",
			Type:          types.ServiceTypeCache,
			ContainerName: "mend-cache",
			Image:         "redis:7-alpine",
			Port:          6379,
			PortRange:     types.PortRange{Start: 6379, End: 6382},
			VolumePath:    "/var/lib/mend/cache",
			VolumeOwner:   "999:999",
			Addr:          "localhost:6379",
		},
		{
			Name:          "reports",
			Type:          types.ServiceTypeReports,
			ContainerName: "mend-reports",
			Image:         "grafana:11",
			VolumePath:    "/var/lib/mend/reports",
		},
	}
}

func TestCleanupContainersRemovesNamedTarget(t *testing.T) {
	rt := newFakeRuntime("mend-cache", "other")
	reg := NewRegistry(rt, command.NewFake(), testFleet())

	action, _ := reg.Get(types.ActionCleanupContainers)
	err := action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"conflicting_name": "mend-cache"},
	})

	require.NoError(t, err)
	assert.False(t, rt.Exists(context.Background(), "mend-cache"))
	assert.True(t, rt.Exists(context.Background(), "other"))
}

func TestCleanupContainersFallsBackToService(t *testing.T) {
	rt := newFakeRuntime("mend-cache")
	reg := NewRegistry(rt, command.NewFake(), testFleet())

	action, _ := reg.Get(types.ActionCleanupContainers)
	err := action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"service": "cache"},
	})

	require.NoError(t, err)
	assert.False(t, rt.Exists(context.Background(), "mend-cache"))
}

func TestCleanupContainersAbsentTargetSucceeds(t *testing.T) {
	rt := newFakeRuntime()
	reg := NewRegistry(rt, command.NewFake(), testFleet())

	action, _ := reg.Get(types.ActionCleanupContainers)
	err := action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"conflicting_name": "long-gone"},
	})
	assert.NoError(t, err)
}

func TestCleanupFuzzyRemovesAllMatches(t *testing.T) {
	rt := newFakeRuntime("mend-cache", "mend-cache-old", "mend-database")
	reg := NewRegistry(rt, command.NewFake(), testFleet())

	action, _ := reg.Get(types.ActionCleanupFuzzy)
	err := action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"conflicting_name": "mend-cache"},
	})

	require.NoError(t, err)
	assert.False(t, rt.Exists(context.Background(), "mend-cache"))
	assert.False(t, rt.Exists(context.Background(), "mend-cache-old"))
	assert.True(t, rt.Exists(context.Background(), "mend-database"))
}

func TestFindAlternatePortSkipsOccupied(t *testing.T) {
	rt := newFakeRuntime()
	reg := NewRegistry(rt, command.NewFake(), testFleet())

	busy := map[string]bool{":6379": true, ":6380": true}
	reg.Override(&findAlternatePort{
		registry: reg,
		listen: func(network, addr string) (net.Listener, error) {
			if busy[addr] {
				return nil, fmt.Errorf("address already in use")
			}
			return nopListener{}, nil
		},
	})

	cerr := &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"service": "cache", "port": "6379"},
	}
	action, _ := reg.Get(types.ActionFindAlternatePort)
	err := action.Execute(context.Background(), cerr)

	require.NoError(t, err)
	assert.Equal(t, "6381", cerr.Context["alternate_port"])
}

func TestFindAlternatePortExhaustedRange(t *testing.T) {
	rt := newFakeRuntime()
	reg := NewRegistry(rt, command.NewFake(), testFleet())

	reg.Override(&findAlternatePort{
		registry: reg,
		listen: func(network, addr string) (net.Listener, error) {
			return nil, fmt.Errorf("address already in use")
		},
	})

	action, _ := reg.Get(types.ActionFindAlternatePort)
	err := action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"service": "cache"},
	})
	assert.Error(t, err)
}

type nopListener struct{}

func (nopListener) Accept() (net.Conn, error) { return nil, fmt.Errorf("not implemented") }
func (nopListener) Close() error              { return nil }
func (nopListener) Addr() net.Addr            { return &net.TCPAddr{} }

func TestPruneDiskSpaceFallsBackToCLI(t *testing.T) {
	rt := newFakeRuntime()
	rt.pruneErr = fmt.Errorf("client broken")
	runner := command.NewFake()
	reg := NewRegistry(rt, runner, testFleet())

	action, _ := reg.Get(types.ActionPruneDiskSpace)
	err := action.Execute(context.Background(), &types.ClassifiedError{ID: "e-1"})

	require.NoError(t, err)
	assert.True(t, runner.CalledWith("nerdctl --namespace mend system prune"))
}

func TestPruneDiskSpacePrefersClient(t *testing.T) {
	rt := newFakeRuntime()
	rt.pruned = 3
	runner := command.NewFake()
	reg := NewRegistry(rt, runner, testFleet())

	action, _ := reg.Get(types.ActionPruneDiskSpace)
	err := action.Execute(context.Background(), &types.ClassifiedError{ID: "e-1"})

	require.NoError(t, err)
	assert.Empty(t, runner.Calls())
}

func TestPullImageRetryUsesContextImage(t *testing.T) {
	rt := newFakeRuntime()
	reg := NewRegistry(rt, command.NewFake(), testFleet())

	action, _ := reg.Get(types.ActionPullImageRetry)
	err := action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"image": "docker.io/library/postgres:16"},
	})

	require.NoError(t, err)
	require.Len(t, rt.pulled, 1)
	assert.Equal(t, "docker.io/library/postgres:16", rt.pulled[0])
}

func TestPullImageRetryFallsBackToServiceImage(t *testing.T) {
	rt := newFakeRuntime()
	reg := NewRegistry(rt, command.NewFake(), testFleet())

	action, _ := reg.Get(types.ActionPullImageRetry)
	err := action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"service": "cache"},
	})

	require.NoError(t, err)
	require.Len(t, rt.pulled, 1)
	assert.Equal(t, "redis:7-alpine", rt.pulled[0])
}

func TestRepairPermissionsSequence(t *testing.T) {
	runner := command.NewFake()
	reg := NewRegistry(newFakeRuntime(), runner, testFleet())

	action, _ := reg.Get(types.ActionRepairPermissions)
	err := action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"service": "cache"},
	})

	require.NoError(t, err)
	assert.True(t, runner.CalledWith("find /var/lib/mend/cache"))
	assert.True(t, runner.CalledWith("chown -R 999:999 /var/lib/mend/cache"))
	assert.True(t, runner.CalledWith("chmod -R u+rwX /var/lib/mend/cache"))
	assert.True(t, runner.CalledWith("sh -c touch /var/lib/mend/cache/.mend-writecheck"))
}

func TestRepairPermissionsFailsWhenStillUnwritable(t *testing.T) {
	runner := command.NewFake()
	runner.Respond("sh -c touch", types.CommandResult{ExitCode: 1, Stderr: "permission denied"})
	reg := NewRegistry(newFakeRuntime(), runner, testFleet())

	action, _ := reg.Get(types.ActionRepairPermissions)
	err := action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"service": "cache"},
	})
	assert.Error(t, err)
}

func TestRestartServiceRecreatesContainer(t *testing.T) {
	rt := newFakeRuntime("mend-reports")
	reg := NewRegistry(rt, command.NewFake(), testFleet())

	action, _ := reg.Get(types.ActionRestartService)
	err := action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"service": "reports"},
	})

	require.NoError(t, err)
	assert.Contains(t, rt.stopped, "mend-reports")
	assert.Contains(t, rt.started, "reports")
}

func TestRestartServiceFailsWhenNotRunning(t *testing.T) {
	rt := newFakeRuntime("mend-reports")
	rt.waitErr = fmt.Errorf("never came up")
	reg := NewRegistry(rt, command.NewFake(), testFleet())

	action, _ := reg.Get(types.ActionRestartService)
	err := action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"service": "reports"},
	})
	assert.Error(t, err)
}

func TestRestartDaemonWaitsForActive(t *testing.T) {
	runner := command.NewFake()
	reg := NewRegistry(newFakeRuntime(), runner, testFleet())

	action, _ := reg.Get(types.ActionRestartDaemon)
	err := action.Execute(context.Background(), &types.ClassifiedError{ID: "e-1"})

	require.NoError(t, err)
	assert.True(t, runner.CalledWith("systemctl restart containerd"))
	assert.True(t, runner.CalledWith("systemctl is-active --quiet containerd"))
}

func TestVerifyDatastoreTCPFallback(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	fleet := testFleet()
	fleet[1].Addr = l.Addr().String()
	reg := NewRegistry(newFakeRuntime(), command.NewFake(), fleet)

	action, _ := reg.Get(types.ActionVerifyDatastore)
	err = action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"service": "reports"},
	})
	assert.NoError(t, err)
}

func TestVerifyDatastoreUnreachable(t *testing.T) {
	fleet := testFleet()
	// Reserved port that nothing listens on
	fleet[1].Addr = "127.0.0.1:1"
	reg := NewRegistry(newFakeRuntime(), command.NewFake(), fleet)

	action, _ := reg.Get(types.ActionVerifyDatastore)
	err := action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"service": "reports"},
	})
	assert.Error(t, err)
}

func TestDisableDurabilityCacheOnly(t *testing.T) {
	runner := command.NewFake()
	runner.Respond("redis-cli", types.CommandResult{Stdout: "OK"})
	reg := NewRegistry(newFakeRuntime(), runner, testFleet())

	action, _ := reg.Get(types.ActionDisableDurability)

	err := action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"service": "cache"},
	})
	require.NoError(t, err)
	assert.True(t, runner.CalledWith("redis-cli -h localhost -p 6379 CONFIG SET appendonly no"))

	// Refused for anything that isn't the cache
	err = action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-2",
		Context: map[string]string{"service": "reports"},
	})
	assert.Error(t, err)
}

func TestDisablePluginRequiresName(t *testing.T) {
	runner := command.NewFake()
	reg := NewRegistry(newFakeRuntime(), runner, testFleet())

	action, _ := reg.Get(types.ActionDisablePlugin)

	err := action.Execute(context.Background(), &types.ClassifiedError{ID: "e-1"})
	assert.Error(t, err)

	err = action.Execute(context.Background(), &types.ClassifiedError{
		ID:      "e-2",
		Context: map[string]string{"service": "reports", "plugin": "piechart-panel"},
	})
	require.NoError(t, err)
	assert.True(t, runner.CalledWith("grafana-cli --pluginsDir /var/lib/mend/reports/plugins plugins uninstall piechart-panel"))
}

func TestServiceResolutionFromContainerName(t *testing.T) {
	reg := NewRegistry(newFakeRuntime(), command.NewFake(), testFleet())

	svc, err := reg.serviceFor(&types.ClassifiedError{
		ID:      "e-1",
		Context: map[string]string{"container": "mend-cache"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cache", svc.Name)

	_, err = reg.serviceFor(&types.ClassifiedError{ID: "e-2"})
	assert.Error(t, err)
}

func TestProbeForComposesEndpointURL(t *testing.T) {
	svc := &types.Service{
		Name:           "reports",
		Type:           types.ServiceTypeReports,
		Port:           3000,
		HealthEndpoint: "/api/health",
	}

	probe := probeFor(svc)
	checker, ok := probe.(*health.HTTPChecker)
	require.True(t, ok, "endpoint-bearing service should get an HTTP probe")
	assert.Equal(t, "http://localhost:3000/api/health", checker.URL)
}
