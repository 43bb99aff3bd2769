/*
Package config provides Mend's daemon configuration.

Configuration layers, lowest precedence first: built-in defaults, an
optional YAML file, then MEND_* environment variables. A missing config
file is not an error; the defaults describe a complete four-service fleet
and a deployment only writes the file to change something.

# File Format

	data_dir: /var/lib/mend
	api_addr: :8400
	log_level: info
	containerd_socket: /run/containerd/containerd.sock
	namespace: mend
	history_capacity: 1000

	services:
	  - name: cache
	    type: cache
	    container_name: mend-cache
	    image: redis:7-alpine
	    port: 6379
	    port_range: {start: 6379, end: 6389}
	    volume_path: /var/lib/mend/cache
	    volume_owner: "999:999"

	strategies:
	  port_conflict:
	    max_attempts: 5
	    retry_delay_seconds: 10
	    actions: [find-alternative-port]

Services listed in the file replace the default fleet entirely. Strategy
entries override only the kinds they name; StrategyTable() converts them
for strategy.NewRegistryWithOverrides.

# Environment Overrides

	MEND_DATA_DIR           data_dir
	MEND_API_ADDR           api_addr
	MEND_LOG_LEVEL          log_level
	MEND_CONTAINERD_SOCKET  containerd_socket

# Default Fleet

The defaults supervise cache (redis:7-alpine, :6379), database
(postgres:16-alpine, :5432), reports (grafana:11.2.0, :3000, HTTP health
endpoint), and c2 (:31337). Each service carries the volume owner uid:gid
its image expects, which repair-volume-permissions relies on.

# Validation

Validate rejects configurations the daemon cannot act on: an empty fleet,
unnamed or duplicate services, a service without a container name, an
inverted port range, negative history capacity, or a strategy override
with negative attempts.

# Usage

	cfg, err := config.Load("/etc/mend/config.yaml")
	if err != nil {
		return err
	}
	reg := strategy.NewRegistryWithOverrides(cfg.StrategyTable())

# See Also

  - pkg/types for the Service shape
  - cmd/mend for where configuration is wired into the daemon
*/
package config
