package classifier

import (
	"testing"

	"github.com/mendhq/mend/pkg/events"
	"github.com/mendhq/mend/pkg/history"
	"github.com/mendhq/mend/pkg/types"
)

func newTestClassifier() (*Classifier, *history.Store) {
	store := history.NewStore()
	return New(store, nil), store
}

func TestClassifyKinds(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind types.ErrorKind
	}{
		{
			name: "port bind conflict",
			text: `Error: failed to bind to port 6379: address already in use`,
			kind: types.ErrorKindPortConflict,
		},
		{
			name: "listen tcp bind",
			text: `listen tcp 0.0.0.0:5432: bind: address already in use`,
			kind: types.ErrorKindPortConflict,
		},
		{
			name: "container name in use",
			text: `Conflict. The container name "mend-cache" is already in use by container "ab12cd"`,
			kind: types.ErrorKindNameConflict,
		},
		{
			name: "image pull failure",
			text: `failed to pull image "docker.io/library/redis:7-alpine": connection timed out`,
			kind: types.ErrorKindImagePullFailed,
		},
		{
			name: "manifest not found",
			text: `manifest for grafana/grafana:99.0 not found`,
			kind: types.ErrorKindImagePullFailed,
		},
		{
			name: "permission denied on path",
			text: `open /var/lib/mend/database/postgresql.conf: permission denied`,
			kind: types.ErrorKindPermissionDenied,
		},
		{
			name: "disk full",
			text: `write /data/dump.rdb: no space left on device`,
			kind: types.ErrorKindResourceExhausted,
		},
		{
			name: "oom",
			text: `fork: cannot allocate memory`,
			kind: types.ErrorKindResourceExhausted,
		},
		{
			name: "connection refused",
			text: `dial tcp 127.0.0.1:3000: connect: connection refused`,
			kind: types.ErrorKindNetworkError,
		},
		{
			name: "containerd socket down",
			text: `dial unix /run/containerd/containerd.sock: connect: connection refused`,
			kind: types.ErrorKindDaemonError,
		},
		{
			name: "daemon not running",
			text: `Cannot connect to the Docker daemon at unix:///var/run/docker.sock`,
			kind: types.ErrorKindDaemonError,
		},
		{
			name: "container start failure",
			text: `failed to start container "mend-reports": oci runtime error`,
			kind: types.ErrorKindContainerStartFailed,
		},
		{
			name: "oci runtime create",
			text: `oci runtime create failed: container_linux.go:380`,
			kind: types.ErrorKindContainerStartFailed,
		},
		{
			name: "volume mount failure",
			text: `error mounting volume "/var/lib/mend/cache": not a directory`,
			kind: types.ErrorKindVolumeMountError,
		},
		{
			name: "health check failure",
			text: `health check failed: service reports container mend-reports not running`,
			kind: types.ErrorKindHealthCheckFailed,
		},
		{
			name: "postgres role missing",
			text: `FATAL:  role "mend" does not exist`,
			kind: types.ErrorKindDatabaseConfigError,
		},
		{
			name: "postgres shutting down",
			text: `FATAL:  the database system is shutting down`,
			kind: types.ErrorKindDatabaseConfigError,
		},
		{
			name: "plugin missing",
			text: `Plugin "piechart-panel" not found`,
			kind: types.ErrorKindPluginMissing,
		},
		{
			name: "unmatched text",
			text: `something completely unexpected happened`,
			kind: types.ErrorKindUnknown,
		},
		{
			name: "bare failed does not match",
			text: `operation failed`,
			kind: types.ErrorKindUnknown,
		},
	}

	c, _ := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cerr := c.Classify(tt.text, nil)
			if cerr.Kind != tt.kind {
				t.Errorf("Classify(%q) kind = %s, want %s", tt.text, cerr.Kind, tt.kind)
			}
		})
	}
}

// Texts matching multiple kinds must resolve to the most specific one.
func TestClassifyPrecedence(t *testing.T) {
	tests := []struct {
		name string
		text string
		kind types.ErrorKind
	}{
		{
			name: "daemon socket beats generic network",
			text: `failed to connect: dial unix /run/containerd/containerd.sock: connect: connection refused`,
			kind: types.ErrorKindDaemonError,
		},
		{
			name: "port conflict beats container start",
			text: `failed to start container "mend-cache": bind to port 6379 failed: address already in use`,
			kind: types.ErrorKindPortConflict,
		},
		{
			name: "network cause beats health check wrapper",
			text: `health check failed: dial tcp 127.0.0.1:6379: connect: connection refused`,
			kind: types.ErrorKindNetworkError,
		},
		{
			name: "pull failure beats embedded disk detail",
			text: `failed to pull image "postgres:16": write /var/lib/containerd: no space left on device`,
			kind: types.ErrorKindImagePullFailed,
		},
	}

	c, _ := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cerr := c.Classify(tt.text, nil)
			if cerr.Kind != tt.kind {
				t.Errorf("Classify(%q) kind = %s, want %s", tt.text, cerr.Kind, tt.kind)
			}
		})
	}
}

func TestClassifyContextExtraction(t *testing.T) {
	c, _ := newTestClassifier()

	cerr := c.Classify(`listen tcp 0.0.0.0:6379: bind: address already in use`, nil)
	if got := cerr.Context["port"]; got != "6379" {
		t.Errorf("port = %q, want 6379", got)
	}

	cerr = c.Classify(`Conflict. The container name "mend-cache" is already in use by container "ab12"`, nil)
	if got := cerr.Context["conflicting_name"]; got != "mend-cache" {
		t.Errorf("conflicting_name = %q, want mend-cache", got)
	}

	cerr = c.Classify(`Plugin "piechart-panel" not found`, nil)
	if got := cerr.Context["plugin"]; got != "piechart-panel" {
		t.Errorf("plugin = %q, want piechart-panel", got)
	}
}

// Caller context survives classification and merges with extracted keys.
func TestClassifyContextMerge(t *testing.T) {
	c, _ := newTestClassifier()

	cerr := c.Classify(`listen tcp 0.0.0.0:6379: bind: address already in use`,
		map[string]string{"service": "cache"})

	if cerr.Context["service"] != "cache" {
		t.Errorf("service = %q, want cache", cerr.Context["service"])
	}
	if cerr.Context["port"] != "6379" {
		t.Errorf("port = %q, want 6379", cerr.Context["port"])
	}
}

func TestClassifyUnknownNotAutoRecoverable(t *testing.T) {
	c, _ := newTestClassifier()

	cerr := c.Classify(`gibberish nobody has seen before`, nil)
	if cerr.Kind != types.ErrorKindUnknown {
		t.Fatalf("kind = %s, want %s", cerr.Kind, types.ErrorKindUnknown)
	}
	if cerr.AutoRecoverable {
		t.Error("unknown errors must not be auto-recoverable")
	}
	if cerr.Severity != types.SeverityMedium {
		t.Errorf("severity = %s, want %s", cerr.Severity, types.SeverityMedium)
	}
}

func TestClassifyRecordsHistory(t *testing.T) {
	c, store := newTestClassifier()

	cerr := c.Classify(`no space left on device`, nil)

	stored, ok := store.Get(cerr.ID)
	if !ok {
		t.Fatal("classified error not in history")
	}
	if stored.Kind != types.ErrorKindResourceExhausted {
		t.Errorf("stored kind = %s, want %s", stored.Kind, types.ErrorKindResourceExhausted)
	}
}

func TestClassifyPublishesEvent(t *testing.T) {
	store := history.NewStore()
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	c := New(store, broker)
	cerr := c.Classify(`no space left on device`, nil)

	ev := <-sub
	if ev.Type != events.EventErrorDetected {
		t.Errorf("event type = %s, want %s", ev.Type, events.EventErrorDetected)
	}
	if ev.Error == nil || ev.Error.ID != cerr.ID {
		t.Error("event should carry the classified error")
	}
}
