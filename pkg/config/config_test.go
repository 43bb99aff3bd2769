package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendhq/mend/pkg/types"
)

func TestDefaultFleet(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.Services, 4)

	names := make(map[string]types.ServiceType)
	for _, svc := range cfg.Services {
		names[svc.Name] = svc.Type
	}
	assert.Equal(t, types.ServiceTypeCache, names["cache"])
	assert.Equal(t, types.ServiceTypeDatabase, names["database"])
	assert.Equal(t, types.ServiceTypeReports, names["reports"])
	assert.Equal(t, types.ServiceTypeC2, names["c2"])

	for _, svc := range cfg.Services {
		assert.NotEmpty(t, svc.ContainerName, svc.Name)
		assert.NotZero(t, svc.PollInterval, svc.Name)
		assert.NotZero(t, svc.FailureThreshold, svc.Name)
	}

	// Checkers compose the probe URL from the service port
	reports, ok := cfg.Service("reports")
	require.True(t, ok)
	assert.Equal(t, "/api/health", reports.HealthEndpoint)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Len(t, cfg.Services, 4)
	assert.Equal(t, ":8400", cfg.APIAddr)
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api_addr: ":9999"
log_level: debug
history_capacity: 50
services:
  - name: cache
    type: cache
    container_name: custom-cache
    image: redis:7
    port: 6380
    port_range:
      start: 6380
      end: 6390
    addr: localhost:6380
strategies:
  port_conflict:
    max_attempts: 5
    actions: [cleanup-conflicting-containers]
    retry_delay_seconds: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.APIAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 50, cfg.HistoryCapacity)
	require.Len(t, cfg.Services, 1)
	assert.Equal(t, "custom-cache", cfg.Services[0].ContainerName)

	table := cfg.StrategyTable()
	require.NotNil(t, table)
	strat, ok := table[types.ErrorKindPortConflict]
	require.True(t, ok)
	assert.Equal(t, 5, strat.MaxAttempts)
	assert.Equal(t, []types.ActionType{types.ActionCleanupContainers}, strat.Actions)
	assert.Equal(t, 2*time.Second, strat.RetryDelay)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MEND_API_ADDR", ":7777")
	t.Setenv("MEND_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.APIAddr)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no services", func(c *Config) { c.Services = nil }},
		{"unnamed service", func(c *Config) { c.Services[0].Name = "" }},
		{"duplicate names", func(c *Config) { c.Services[1].Name = c.Services[0].Name }},
		{"missing container name", func(c *Config) { c.Services[0].ContainerName = "" }},
		{"inverted port range", func(c *Config) {
			c.Services[0].PortRange = types.PortRange{Start: 9, End: 1}
		}},
		{"negative history capacity", func(c *Config) { c.HistoryCapacity = -1 }},
		{"health endpoint not a path", func(c *Config) {
			c.Services[0].HealthEndpoint = "http://localhost:3000/api/health"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestServiceLookup(t *testing.T) {
	cfg := Default()

	svc, ok := cfg.Service("database")
	require.True(t, ok)
	assert.Equal(t, types.ServiceTypeDatabase, svc.Type)

	_, ok = cfg.Service("nope")
	assert.False(t, ok)
}

func TestStrategyTableEmptyWhenNoOverrides(t *testing.T) {
	assert.Nil(t, Default().StrategyTable())
}
