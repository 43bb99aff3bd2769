package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mendhq/mend/pkg/api"
	"github.com/mendhq/mend/pkg/classifier"
	"github.com/mendhq/mend/pkg/command"
	"github.com/mendhq/mend/pkg/config"
	"github.com/mendhq/mend/pkg/engine"
	"github.com/mendhq/mend/pkg/events"
	"github.com/mendhq/mend/pkg/executor"
	"github.com/mendhq/mend/pkg/health"
	"github.com/mendhq/mend/pkg/history"
	"github.com/mendhq/mend/pkg/log"
	"github.com/mendhq/mend/pkg/metrics"
	"github.com/mendhq/mend/pkg/poller"
	"github.com/mendhq/mend/pkg/runtime"
	"github.com/mendhq/mend/pkg/strategy"
	"github.com/mendhq/mend/pkg/types"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the supervision daemon",
	Long: `Start the supervision daemon: health pollers for every configured
service, the error classifier, the recovery engine, and the query API.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().String("config", "/etc/mend/config.yaml", "Path to config file")
}

func runServer(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})
	logger := log.WithComponent("main")
	logger.Info().Str("version", Version).Msg("starting mend")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// Archive failures degrade to in-memory-only history
	var storeOpts []history.Option
	if cfg.HistoryCapacity > 0 {
		storeOpts = append(storeOpts, history.WithCapacity(cfg.HistoryCapacity))
	}
	archive, err := history.NewArchive(cfg.DataDir)
	if err != nil {
		logger.Warn().Err(err).Msg("error archive unavailable, history is in-memory only")
	} else {
		storeOpts = append(storeOpts, history.WithArchive(archive))
		defer archive.Close()
	}
	store := history.NewStore(storeOpts...)
	if err := store.Rehydrate(); err != nil {
		logger.Warn().Err(err).Msg("failed to restore archived history")
	} else if n := store.Len(); n > 0 {
		logger.Info().Int("errors", n).Msg("restored error history from archive")
	}

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	cls := classifier.New(store, broker)
	runner := command.NewRunner()

	rt, err := runtime.NewContainerdRuntime(cfg.ContainerdSocket)
	if err != nil {
		return fmt.Errorf("failed to connect to container runtime: %w", err)
	}
	rt.WithNamespace(cfg.Namespace)
	defer rt.Close()

	services := make([]*types.Service, 0, len(cfg.Services))
	for i := range cfg.Services {
		services = append(services, &cfg.Services[i])
	}

	execReg := executor.NewRegistry(rt, runner, services)

	strategies := strategy.NewRegistry()
	if table := cfg.StrategyTable(); table != nil {
		strategies = strategy.NewRegistryWithOverrides(table)
	}

	eng := engine.New(store, strategies, execReg, broker)
	eng.Start()
	defer eng.Stop()

	collector := metrics.NewCollector(store)
	collector.Start()
	defer collector.Stop()

	healthReg := metrics.NewHealthRegistry(Version)

	repair := func(ctx context.Context, svc *types.Service) error {
		action, ok := execReg.Get(types.ActionRestartService)
		if !ok {
			return fmt.Errorf("restart action not registered")
		}
		return action.Execute(ctx, &types.ClassifiedError{
			Context: map[string]string{"service": svc.Name},
		})
	}

	pollers := make([]*poller.Poller, 0, len(services))
	for _, svc := range services {
		p := poller.New(svc, poller.Options{
			Process:    rt,
			Responsive: responsiveChecker(svc),
			Dependency: dependencyChecker(svc, cfg),
			Config:     configChecker(svc, runner),
			Classifier: cls,
			Broker:     broker,
			HealthReg:  healthReg,
			Repair:     repair,
		})
		pollers = append(pollers, p)
		p.Start()
		logger.Info().Str("service", svc.Name).Msg("health poller started")
	}
	defer func() {
		for _, p := range pollers {
			p.Stop()
		}
	}()

	apiServer := api.NewServer(store, pollers, healthReg, Version)
	errCh := make(chan error, 1)
	go func() {
		if err := apiServer.Start(cfg.APIAddr); err != nil {
			errCh <- fmt.Errorf("API server error: %w", err)
		}
	}()
	defer apiServer.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		return err
	}

	return nil
}

// responsiveChecker picks the type-appropriate probe for a service
func responsiveChecker(svc *types.Service) health.Checker {
	switch svc.Type {
	case types.ServiceTypeCache:
		return health.NewRedisChecker(svc.Addr)
	case types.ServiceTypeDatabase:
		return health.NewPostgresChecker(svc.Addr)
	default:
		if svc.HealthEndpoint != "" {
			return health.NewHTTPChecker(
				fmt.Sprintf("http://localhost:%d%s", svc.Port, svc.HealthEndpoint))
		}
		addr := svc.Addr
		if addr == "" {
			addr = fmt.Sprintf("localhost:%d", svc.Port)
		}
		return health.NewTCPChecker(addr)
	}
}

// dependencyChecker probes the datastore an application service relies
// on. The datastores themselves have no upstream dependency.
func dependencyChecker(svc *types.Service, cfg *config.Config) health.Checker {
	switch svc.Type {
	case types.ServiceTypeReports, types.ServiceTypeC2:
		if db, ok := cfg.Service("database"); ok {
			return health.NewPostgresChecker(db.Addr)
		}
	}
	return nil
}

// configChecker validates service configuration where a cheap probe
// exists
func configChecker(svc *types.Service, runner command.Runner) health.Checker {
	switch svc.Type {
	case types.ServiceTypeDatabase:
		return health.NewExecChecker(runner, []string{
			"pg_isready", "-h", "localhost", "-p", fmt.Sprintf("%d", svc.Port),
		})
	case types.ServiceTypeCache:
		host, port := "localhost", fmt.Sprintf("%d", svc.Port)
		return health.NewExecChecker(runner, []string{
			"redis-cli", "-h", host, "-p", port, "CONFIG", "GET", "dir",
		})
	}
	return nil
}
