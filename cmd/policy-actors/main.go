// Command policy-actors hosts the policy actors behind the northbound API,
// or runs a single operation from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/thc1006/onap-policy-actors/internal/config"
	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/actor/httpop"
	"github.com/thc1006/onap-policy-actors/pkg/actor/topic"
	"github.com/thc1006/onap-policy-actors/pkg/actors"
	"github.com/thc1006/onap-policy-actors/pkg/logging"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "policy-actors",
		Short: "Control-loop actors for SDNC, SO, XACML, APPC, VF-C, CDS and A&AI",
		Long: `policy-actors maps control-loop operations onto the ONAP components
that carry them out, over HTTP, gRPC or topics.

The configuration file lists the HTTP clients, the topic bus, the guard
operation and the per-actor parameters. POLICY_ACTORS_* environment
variables override it.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv(config.EnvPrefix+"CONFIG"), "Path to the configuration file")

	rootCmd.AddCommand(newServeCmd(&configPath), newRunCmd(&configPath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// runtime is everything an actor service needs, built from a Config.
type runtime struct {
	log      logging.Logger
	registry *prometheus.Registry
	clients  *httpop.ClientFactory
	bus      topic.Bus
	service  *actor.Service
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	// Component loggers read their level from the environment.
	if cfg.Logging.Level != "" {
		_ = os.Setenv("LOG_LEVEL", string(cfg.Logging.Level))
	}
	return cfg, nil
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{
		log:      logging.New(cfg.Logging).WithComponent("policy-actors"),
		registry: prometheus.NewRegistry(),
	}
	rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(rt.registry)

	bus, err := newBus(ctx, cfg.Topics)
	if err != nil {
		return nil, err
	}
	rt.bus = bus

	rt.clients = httpop.NewClientFactory(m)
	if err := rt.clients.Build(cfg.HTTPClients...); err != nil {
		rt.close()
		return nil, err
	}

	svc, err := actors.NewService(actors.Deps{Clients: rt.clients, Bus: bus, Metrics: m},
		actor.WithLogger(rt.log.WithComponent(logging.ComponentActorService)),
		actor.WithGuard(cfg.Guard))
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.service = svc

	if err := svc.Configure(cfg.Actors); err != nil {
		rt.close()
		return nil, fmt.Errorf("configure actors: %w", err)
	}
	if err := svc.Start(ctx); err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

// reconfigure applies a reloaded configuration. The service is stopped
// while the clients and actors are rebuilt, then started again with
// whatever did configure. Actors missing from cfg stay down.
func (rt *runtime) reconfigure(ctx context.Context, cfg *config.Config) error {
	if err := rt.service.Stop(); err != nil {
		rt.log.ErrorEvent(err, "Errors while stopping actors for reload")
	}

	var errs []error
	rt.clients.Destroy()
	for _, c := range cfg.HTTPClients {
		if err := rt.clients.Build(c); err != nil {
			errs = append(errs, err)
		}
	}

	rt.service.SetGuard(cfg.Guard)
	if err := rt.service.Configure(cfg.Actors); err != nil {
		errs = append(errs, fmt.Errorf("configure actors: %w", err))
	}
	if err := rt.service.Start(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (rt *runtime) close() {
	if rt.service != nil {
		rt.service.Shutdown()
	}
	if rt.clients != nil {
		rt.clients.Destroy()
	}
	if rt.bus != nil {
		if err := rt.bus.Close(); err != nil {
			rt.log.ErrorEvent(err, "Failed to close topic bus")
		}
	}
}

func newBus(ctx context.Context, cfg config.TopicsConfig) (topic.Bus, error) {
	switch cfg.Bus {
	case config.BusRedis:
		return topic.NewRedisBus(ctx, cfg.Redis)
	case config.BusMemory, "":
		return topic.NewMemoryBus(), nil
	default:
		return nil, fmt.Errorf("unknown topic bus %q", cfg.Bus)
	}
}
