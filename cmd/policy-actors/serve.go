package main

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thc1006/onap-policy-actors/internal/config"
	"github.com/thc1006/onap-policy-actors/internal/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	var (
		address string
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the actors behind the northbound API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}

			ctx := cmd.Context()
			rt, err := newRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.close()

			srv := server.New(server.Config{
				Address:         cfg.Server.Address,
				ShutdownTimeout: cfg.Server.ShutdownTimeout(),
			}, rt.service, rt.registry)

			g, gCtx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Start(gCtx) })

			if watch && *configPath != "" {
				g.Go(func() error {
					return config.Watch(gCtx, *configPath, func(next *config.Config) {
						if err := rt.reconfigure(gCtx, next); err != nil {
							rt.log.ErrorEvent(err, "Failed to apply reloaded configuration")
							return
						}
						rt.log.InfoEvent("Actors reconfigured", "actors", rt.service.Names())
					})
				})
			}

			rt.log.InfoEvent("policy-actors started", "addr", cfg.Server.Address, "actors", rt.service.Names())
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Listen address, overriding server.address")
	cmd.Flags().BoolVar(&watch, "watch", true, "Reconfigure the actors when the configuration file changes")
	return cmd
}
