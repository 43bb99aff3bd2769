package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mendhq/mend/pkg/types"
)

// Config is the top-level daemon configuration
type Config struct {
	// DataDir holds the error archive and runtime state
	DataDir string `yaml:"data_dir"`

	// APIAddr is the listen address of the query API
	APIAddr string `yaml:"api_addr"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level"`

	// LogJSON switches from console to JSON output
	LogJSON bool `yaml:"log_json"`

	// ContainerdSocket overrides the default containerd socket path
	ContainerdSocket string `yaml:"containerd_socket"`

	// Namespace is the containerd namespace the fleet runs in
	Namespace string `yaml:"namespace"`

	// HistoryCapacity bounds the in-memory error ring
	HistoryCapacity int `yaml:"history_capacity"`

	// Services is the fleet under supervision
	Services []types.Service `yaml:"services"`

	// Strategies overrides the built-in recovery table per error kind
	Strategies map[string]StrategyOverride `yaml:"strategies"`
}

// StrategyOverride adjusts one error kind's recovery strategy
type StrategyOverride struct {
	MaxAttempts       int      `yaml:"max_attempts"`
	Actions           []string `yaml:"actions"`
	RetryDelaySeconds int      `yaml:"retry_delay_seconds"`
}

// Default returns the standard four-service fleet configuration
func Default() *Config {
	return &Config{
		DataDir:         "/var/lib/mend",
		APIAddr:         ":8400",
		LogLevel:        "info",
		Namespace:       "mend",
		HistoryCapacity: 1000,
		Services: []types.Service{
			{
				Name:             "cache",
				Type:             types.ServiceTypeCache,
				ContainerName:    "mend-cache",
				Image:            "docker.io/library/redis:7-alpine",
				Port:             6379,
				PortRange:        types.PortRange{Start: 6379, End: 6389},
				VolumePath:       "/var/lib/mend/cache",
				VolumeOwner:      "999:999",
				Addr:             "localhost:6379",
				PollInterval:     15 * time.Second,
				FailureThreshold: 3,
			},
			{
				Name:             "database",
				Type:             types.ServiceTypeDatabase,
				ContainerName:    "mend-database",
				Image:            "docker.io/library/postgres:16-alpine",
				Port:             5432,
				PortRange:        types.PortRange{Start: 5432, End: 5442},
				VolumePath:       "/var/lib/mend/database",
				VolumeOwner:      "70:70",
				Addr:             "postgres://mend@localhost:5432/mend",
				PollInterval:     15 * time.Second,
				FailureThreshold: 3,
			},
			{
				Name:             "reports",
				Type:             types.ServiceTypeReports,
				ContainerName:    "mend-reports",
				Image:            "docker.io/grafana/grafana:11.2.0",
				Port:             3000,
				PortRange:        types.PortRange{Start: 3000, End: 3010},
				VolumePath:       "/var/lib/mend/reports",
				VolumeOwner:      "472:472",
				HealthEndpoint:   "/api/health",
				PollInterval:     30 * time.Second,
				FailureThreshold: 3,
			},
			{
				Name:             "c2",
				Type:             types.ServiceTypeC2,
				ContainerName:    "mend-c2",
				Image:            "docker.io/sliverarmory/sliver:latest",
				Port:             31337,
				PortRange:        types.PortRange{Start: 31337, End: 31347},
				VolumePath:       "/var/lib/mend/c2",
				VolumeOwner:      "0:0",
				HealthEndpoint:   "",
				Addr:             "localhost:31337",
				PollInterval:     30 * time.Second,
				FailureThreshold: 3,
			},
		},
	}
}

// Load reads configuration from path, falling back to defaults for any
// field the file leaves unset. A missing file is not an error; the
// defaults apply as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				applyEnv(cfg)
				return cfg, nil
			}
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets environment variables override file values
func applyEnv(cfg *Config) {
	if v := os.Getenv("MEND_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MEND_API_ADDR"); v != "" {
		cfg.APIAddr = v
	}
	if v := os.Getenv("MEND_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MEND_CONTAINERD_SOCKET"); v != "" {
		cfg.ContainerdSocket = v
	}
}

// Validate rejects configurations that can't be supervised
func (c *Config) Validate() error {
	if len(c.Services) == 0 {
		return fmt.Errorf("no services configured")
	}
	seen := make(map[string]bool, len(c.Services))
	for i := range c.Services {
		svc := &c.Services[i]
		if svc.Name == "" {
			return fmt.Errorf("service %d has no name", i)
		}
		if seen[svc.Name] {
			return fmt.Errorf("duplicate service name %q", svc.Name)
		}
		seen[svc.Name] = true
		if svc.ContainerName == "" {
			return fmt.Errorf("service %s has no container name", svc.Name)
		}
		if svc.PortRange.Start > svc.PortRange.End {
			return fmt.Errorf("service %s has inverted port range %d-%d",
				svc.Name, svc.PortRange.Start, svc.PortRange.End)
		}
		// Health checkers compose the URL from the service port
		if svc.HealthEndpoint != "" && !strings.HasPrefix(svc.HealthEndpoint, "/") {
			return fmt.Errorf("service %s health endpoint %q must be a path",
				svc.Name, svc.HealthEndpoint)
		}
	}
	if c.HistoryCapacity < 0 {
		return fmt.Errorf("history capacity must be non-negative")
	}
	for kind, ov := range c.Strategies {
		if ov.MaxAttempts < 0 {
			return fmt.Errorf("strategy %s: max_attempts must be non-negative", kind)
		}
	}
	return nil
}

// StrategyTable converts the overrides into the engine's strategy map,
// keyed by error kind
func (c *Config) StrategyTable() map[types.ErrorKind]types.RecoveryStrategy {
	if len(c.Strategies) == 0 {
		return nil
	}
	table := make(map[types.ErrorKind]types.RecoveryStrategy, len(c.Strategies))
	for kind, ov := range c.Strategies {
		actions := make([]types.ActionType, 0, len(ov.Actions))
		for _, a := range ov.Actions {
			actions = append(actions, types.ActionType(a))
		}
		table[types.ErrorKind(kind)] = types.RecoveryStrategy{
			MaxAttempts: ov.MaxAttempts,
			Actions:     actions,
			RetryDelay:  time.Duration(ov.RetryDelaySeconds) * time.Second,
		}
	}
	return table
}

// Service looks up a configured service by name
func (c *Config) Service(name string) (*types.Service, bool) {
	for i := range c.Services {
		if c.Services[i].Name == name {
			return &c.Services[i], true
		}
	}
	return nil, false
}
