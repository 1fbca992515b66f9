// Command policy-sim serves the SDNC, SO, XACML, VF-C, A&AI, APPC and CDS
// simulators used for local runs of policy-actors.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thc1006/onap-policy-actors/internal/simulators"
	"github.com/thc1006/onap-policy-actors/pkg/actor/topic"
	"github.com/thc1006/onap-policy-actors/pkg/logging"
)

func main() {
	cfg := simulators.DefaultConfig()
	var redisCfg topic.RedisConfig

	rootCmd := &cobra.Command{
		Use:   "policy-sim",
		Short: "ONAP component simulators for policy-actors",
		Long: `policy-sim answers the HTTP APIs of SDNC, SO, XACML, VF-C and A&AI
on one listener and the CDS blueprint processor on a gRPC listener. The APPC
simulator reads LCM requests from the topic bus, which is in-memory unless
--redis-address is set.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.NewLogger(logging.ComponentSimulator)

			var bus topic.Bus = topic.NewMemoryBus()
			if redisCfg.Address != "" {
				rb, err := topic.NewRedisBus(cmd.Context(), redisCfg)
				if err != nil {
					return err
				}
				bus = rb
			}
			defer func() {
				if err := bus.Close(); err != nil {
					log.ErrorEvent(err, "Failed to close topic bus")
				}
			}()

			return simulators.Run(cmd.Context(), cfg, bus)
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&cfg.HTTPAddr, "http-address", cfg.HTTPAddr, "Listen address of the HTTP simulators")
	f.StringVar(&cfg.GRPCAddr, "grpc-address", cfg.GRPCAddr, "Listen address of the CDS simulator")
	f.StringVar(&cfg.AppcRequestTopic, "appc-request-topic", cfg.AppcRequestTopic, "Topic the APPC simulator reads requests from")
	f.StringVar(&cfg.AppcResponseTopic, "appc-response-topic", cfg.AppcResponseTopic, "Topic the APPC simulator writes responses to")
	f.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown budget")
	f.StringVar(&redisCfg.Address, "redis-address", "", "Redis address of the topic bus")
	f.StringVar(&redisCfg.Password, "redis-password", os.Getenv("REDIS_PASSWORD"), "Redis password")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
