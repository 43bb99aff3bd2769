package strategy

import (
	"time"

	"github.com/mendhq/mend/pkg/types"
)

// Registry is the static table mapping error kinds to recovery
// strategies. It is populated at startup and immutable thereafter;
// a lookup miss means no automated recovery is defined for that kind.
type Registry struct {
	strategies map[types.ErrorKind]types.RecoveryStrategy
}

// NewRegistry creates a registry with the default strategy table
func NewRegistry() *Registry {
	return &Registry{strategies: defaults()}
}

// NewRegistryWith creates a registry from an explicit table, used when
// the config file overrides the defaults
func NewRegistryWith(table map[types.ErrorKind]types.RecoveryStrategy) *Registry {
	strategies := make(map[types.ErrorKind]types.RecoveryStrategy, len(table))
	for kind, s := range table {
		strategies[kind] = s
	}
	return &Registry{strategies: strategies}
}

// NewRegistryWithOverrides starts from the default table and replaces
// the entries the config file overrides
func NewRegistryWithOverrides(overrides map[types.ErrorKind]types.RecoveryStrategy) *Registry {
	strategies := defaults()
	for kind, s := range overrides {
		strategies[kind] = s
	}
	return &Registry{strategies: strategies}
}

// Lookup returns the strategy for a kind. The second return is false
// when no automated recovery is defined.
func (r *Registry) Lookup(kind types.ErrorKind) (types.RecoveryStrategy, bool) {
	s, ok := r.strategies[kind]
	return s, ok
}

// Kinds returns every kind with a registered strategy
func (r *Registry) Kinds() []types.ErrorKind {
	kinds := make([]types.ErrorKind, 0, len(r.strategies))
	for kind := range r.strategies {
		kinds = append(kinds, kind)
	}
	return kinds
}

// defaults is the built-in strategy table. Within a strategy, later
// actions are more drastic and must never run before earlier ones.
// Unknown deliberately has no entry.
func defaults() map[types.ErrorKind]types.RecoveryStrategy {
	return map[types.ErrorKind]types.RecoveryStrategy{
		types.ErrorKindPortConflict: {
			MaxAttempts: 3,
			Actions:     []types.ActionType{types.ActionFindAlternatePort, types.ActionCleanupContainers},
			RetryDelay:  5 * time.Second,
		},
		types.ErrorKindNameConflict: {
			MaxAttempts: 3,
			Actions:     []types.ActionType{types.ActionCleanupContainers, types.ActionCleanupFuzzy},
			RetryDelay:  5 * time.Second,
		},
		types.ErrorKindImagePullFailed: {
			MaxAttempts: 2,
			Actions:     []types.ActionType{types.ActionPruneDiskSpace, types.ActionPullImageRetry},
			RetryDelay:  10 * time.Second,
		},
		types.ErrorKindPermissionDenied: {
			MaxAttempts: 2,
			Actions:     []types.ActionType{types.ActionRepairPermissions},
			RetryDelay:  5 * time.Second,
		},
		types.ErrorKindResourceExhausted: {
			MaxAttempts: 2,
			Actions:     []types.ActionType{types.ActionPruneDiskSpace, types.ActionDisableDurability},
			RetryDelay:  10 * time.Second,
		},
		types.ErrorKindNetworkError: {
			MaxAttempts: 3,
			Actions:     []types.ActionType{types.ActionVerifyDatastore, types.ActionRestartService},
			RetryDelay:  5 * time.Second,
		},
		types.ErrorKindDaemonError: {
			MaxAttempts: 3,
			Actions:     []types.ActionType{types.ActionRestartDaemon},
			RetryDelay:  10 * time.Second,
		},
		types.ErrorKindContainerStartFailed: {
			MaxAttempts: 3,
			Actions: []types.ActionType{
				types.ActionCleanupContainers,
				types.ActionRepairPermissions,
				types.ActionRestartService,
			},
			RetryDelay: 10 * time.Second,
		},
		types.ErrorKindVolumeMountError: {
			MaxAttempts: 2,
			Actions:     []types.ActionType{types.ActionRepairPermissions, types.ActionRestartService},
			RetryDelay:  5 * time.Second,
		},
		types.ErrorKindHealthCheckFailed: {
			MaxAttempts: 3,
			Actions:     []types.ActionType{types.ActionRestartService},
			RetryDelay:  15 * time.Second,
		},
		types.ErrorKindDatabaseConfigError: {
			MaxAttempts: 2,
			Actions:     []types.ActionType{types.ActionRepairPermissions, types.ActionRestartService},
			RetryDelay:  10 * time.Second,
		},
		types.ErrorKindPluginMissing: {
			MaxAttempts: 1,
			Actions:     []types.ActionType{types.ActionDisablePlugin},
			RetryDelay:  0,
		},
	}
}
