package cmd

import (
	"context"
	"time"

	"github.com/michaelpento.lv/defidex/api"
	"github.com/michaelpento.lv/defidex/events"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr   string
		source string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pool state, quotes and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			b, err := a.bind(ctx)
			if err != nil {
				return err
			}
			engine, err := a.quoteEngine(b, source)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.API.Addr
			}

			public := api.PublicConfig{
				Network:        a.cfg.Network,
				ChainID:        a.cfg.ChainID,
				BalloonAddress: b.balloon.Address().Hex(),
				DEXAddress:     b.dex.Address().Hex(),
				ProjectID:      a.cfg.ProjectID,
			}
			server := api.NewServer(addr, b.pool, engine, public, a.registry, a.logger)

			if watch {
				watcher, err := events.NewWatcher(a.client, b.dex, a.cfg.Watch, a.logger, a.metrics)
				if err != nil {
					return err
				}
				go func() {
					_ = watcher.Run(ctx, logEvent(a.logger))
				}()
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("Shutting down API")
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if err := server.Stop(stopCtx); err != nil {
				a.logger.Error("Failed to stop API", zap.Error(err))
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&source, "source", "", "quote source: local or contract (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "also follow DEX events for the events metric")
	return cmd
}
