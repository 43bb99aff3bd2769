package executor

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/mendhq/mend/pkg/health"
	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/types"
)

// verifyDatastore confirms the downstream data store is reachable. The
// primary probe is the native client ping; if that probe itself fails, a
// plain TCP dial is used as the secondary method so a broken client
// library or auth problem is distinguished from a dead endpoint.
type verifyDatastore struct {
	registry *Registry
}

func (a *verifyDatastore) Name() types.ActionType {
	return types.ActionVerifyDatastore
}

func (a *verifyDatastore) Execute(ctx context.Context, cerr *types.ClassifiedError) error {
	logger := log.WithComponent("executor")
	svc, err := a.registry.serviceFor(cerr)
	if err != nil {
		return err
	}

	var primary health.Checker
	switch svc.Type {
	case types.ServiceTypeCache:
		primary = health.NewRedisChecker(svc.Addr)
	case types.ServiceTypeDatabase:
		primary = health.NewPostgresChecker(svc.Addr)
	default:
		// The app-tier services verify their own datastore dependency
		primary = health.NewTCPChecker(dialAddr(svc))
	}

	result := primary.Check(ctx)
	if result.Healthy {
		logger.Info().
			Str("service", svc.Name).
			Str("probe", string(primary.Type())).
			Msg("datastore connection verified")
		return nil
	}

	// Secondary probe: raw TCP reachability
	fallback := health.NewTCPChecker(dialAddr(svc))
	fbResult := fallback.Check(ctx)
	if fbResult.Healthy {
		logger.Warn().
			Str("service", svc.Name).
			Str("primary_failure", result.Message).
			Msg("datastore reachable over TCP but client probe failed")
		return nil
	}

	return fmt.Errorf("datastore for %s unreachable: %s; fallback: %s",
		svc.Name, result.Message, fbResult.Message)
}

// dialAddr derives a host:port dial target from the service's addr,
// which may be a plain host:port or a connection URL
func dialAddr(svc *types.Service) string {
	if u, err := url.Parse(svc.Addr); err == nil && u.Host != "" {
		return u.Host
	}
	if _, _, err := net.SplitHostPort(svc.Addr); err == nil {
		return svc.Addr
	}
	return fmt.Sprintf("localhost:%d", svc.Port)
}
