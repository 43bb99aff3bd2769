package types

import (
	"time"
)

// ErrorKind classifies an infrastructure failure into the fixed taxonomy
type ErrorKind string

const (
	ErrorKindPortConflict         ErrorKind = "port_conflict"
	ErrorKindNameConflict         ErrorKind = "name_conflict"
	ErrorKindImagePullFailed      ErrorKind = "image_pull_failed"
	ErrorKindPermissionDenied     ErrorKind = "permission_denied"
	ErrorKindResourceExhausted    ErrorKind = "resource_exhausted"
	ErrorKindNetworkError         ErrorKind = "network_error"
	ErrorKindDaemonError          ErrorKind = "daemon_error"
	ErrorKindContainerStartFailed ErrorKind = "container_start_failed"
	ErrorKindVolumeMountError     ErrorKind = "volume_mount_error"
	ErrorKindHealthCheckFailed    ErrorKind = "health_check_failed"
	ErrorKindDatabaseConfigError  ErrorKind = "database_config_error"
	ErrorKindPluginMissing        ErrorKind = "plugin_missing"
	ErrorKindUnknown              ErrorKind = "unknown"
)

// Severity indicates how badly a classified error impacts the fleet
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ClassifiedError is a structured record produced from raw diagnostic text
type ClassifiedError struct {
	ID              string            `json:"id"`
	Timestamp       time.Time         `json:"timestamp"`
	Kind            ErrorKind         `json:"kind"`
	Severity        Severity          `json:"severity"`
	Message         string            `json:"message"`
	Context         map[string]string `json:"context,omitempty"`
	AutoRecoverable bool              `json:"auto_recoverable"`

	// RecoveryAttempts and Resolved are owned by the history store;
	// the recovery engine is their only writer.
	RecoveryAttempts int  `json:"recovery_attempts"`
	Resolved         bool `json:"resolved"`
}

// ActionType names one concrete, independently invokable repair operation
type ActionType string

const (
	ActionCleanupContainers ActionType = "cleanup-conflicting-containers"
	ActionCleanupFuzzy      ActionType = "cleanup-fuzzy-matches"
	ActionFindAlternatePort ActionType = "find-alternative-port"
	ActionPruneDiskSpace    ActionType = "prune-disk-space"
	ActionPullImageRetry    ActionType = "pull-image-retry"
	ActionRepairPermissions ActionType = "repair-volume-permissions"
	ActionRestartService    ActionType = "restart-service"
	ActionRestartDaemon     ActionType = "restart-daemon"
	ActionVerifyDatastore   ActionType = "verify-datastore-connection"
	ActionDisableDurability ActionType = "disable-durability"
	ActionDisablePlugin     ActionType = "disable-plugin"
)

// RecoveryStrategy is the ordered action plan and retry budget for one kind
type RecoveryStrategy struct {
	// MaxAttempts bounds how many recovery attempts one error instance gets
	MaxAttempts int

	// Actions are tried strictly in listed order within an attempt
	Actions []ActionType

	// RetryDelay is waited between actions so a repair can take effect
	// before the next action judges it insufficient
	RetryDelay time.Duration
}

// RecoveryAction records one executed repair operation. Append-only;
// never mutated after creation.
type RecoveryAction struct {
	ID         string     `json:"id"`
	ErrorID    string     `json:"error_id"`
	ActionType ActionType `json:"action_type"`
	Timestamp  time.Time  `json:"timestamp"`
	Success    bool       `json:"success"`
	Details    string     `json:"details,omitempty"`
}

// ServiceType identifies which member of the fleet a service is
type ServiceType string

const (
	ServiceTypeCache    ServiceType = "cache"    // Redis
	ServiceTypeDatabase ServiceType = "database" // PostgreSQL
	ServiceTypeReports  ServiceType = "reports"  // report-generation web app
	ServiceTypeC2       ServiceType = "c2"       // command-and-control framework
)

// Service describes one monitored containerized service
type Service struct {
	Name          string      `yaml:"name"`
	Type          ServiceType `yaml:"type"`
	ContainerName string      `yaml:"container_name"`
	Image         string      `yaml:"image"`

	// Port is the service's primary listening port; PortRange bounds the
	// find-alternative-port executor
	Port      int       `yaml:"port"`
	PortRange PortRange `yaml:"port_range"`

	// VolumePath is the host path of the service's storage volume
	VolumePath string `yaml:"volume_path"`
	// VolumeOwner is the uid:gid expected on the volume (e.g. "999:999")
	VolumeOwner string `yaml:"volume_owner"`

	// Addr is the dependency probe address (Redis addr or Postgres DSN)
	Addr string `yaml:"addr"`

	// HealthEndpoint is an optional HTTP path for responsiveness checks
	HealthEndpoint string `yaml:"health_endpoint"`

	// PollInterval between health polls; FailureThreshold is the number of
	// consecutive unhealthy polls before the direct repair fast path fires
	PollInterval     time.Duration `yaml:"poll_interval"`
	FailureThreshold int           `yaml:"failure_threshold"`
}

// PortRange bounds alternative port selection for a service
type PortRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// CommandResult is the outcome of one external process invocation
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Performance captures the lightweight perf block sampled each poll
type Performance struct {
	LatencyMS   float64 `json:"latency_ms"`
	MemoryBytes int64   `json:"memory_bytes"`
	CPUPercent  float64 `json:"cpu_percent"`
}

// HealthSnapshot is produced fresh each poll cycle and never mutated
// after being folded into the poller's bounded history
type HealthSnapshot struct {
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`

	ProcessRunning      bool `json:"process_running"`
	Responsive          bool `json:"responsive"`
	DependencyConnected bool `json:"dependency_connected"`
	ConfigValid         bool `json:"config_valid"`

	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	Performance Performance `json:"performance"`
}

// Healthy reports whether every sub-check passed
func (s *HealthSnapshot) Healthy() bool {
	return s.ProcessRunning && s.Responsive && s.DependencyConnected && s.ConfigValid
}
