package executor

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/types"
)

// findAlternatePort probes the service's configured range for a free
// port and records the choice in the error context. It does not restart
// anything; a later restart action picks the port up.
type findAlternatePort struct {
	registry *Registry

	// listen is swappable for tests
	listen func(network, addr string) (net.Listener, error)
}

func (a *findAlternatePort) Name() types.ActionType {
	return types.ActionFindAlternatePort
}

func (a *findAlternatePort) Execute(ctx context.Context, cerr *types.ClassifiedError) error {
	logger := log.WithComponent("executor")
	svc, err := a.registry.serviceFor(cerr)
	if err != nil {
		return err
	}

	rng := svc.PortRange
	if rng.Start == 0 || rng.End < rng.Start {
		return fmt.Errorf("service %s has no usable port range", svc.Name)
	}

	listen := a.listen
	if listen == nil {
		listen = net.Listen
	}

	occupied, _ := strconv.Atoi(cerr.Context["port"])
	for port := rng.Start; port <= rng.End; port++ {
		if port == occupied {
			continue
		}
		l, err := listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			continue
		}
		l.Close()

		if cerr.Context == nil {
			cerr.Context = make(map[string]string)
		}
		cerr.Context["alternate_port"] = strconv.Itoa(port)

		logger.Info().
			Str("service", svc.Name).
			Int("port", port).
			Msg("selected alternative port")
		return nil
	}

	return fmt.Errorf("no free port in %d-%d for service %s", rng.Start, rng.End, svc.Name)
}
