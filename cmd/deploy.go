package cmd

import (
	"fmt"

	"github.com/michaelpento.lv/defidex/config"
	"github.com/michaelpento.lv/defidex/deploy"
	"github.com/spf13/cobra"
)

func newDeployCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Deploy Balloon and DEX, write the ABI modules and seed the pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := a.transactor(cmd.Context())
			if err != nil {
				return err
			}

			deployer := deploy.NewDeployer(tx, a.cfg.Network, a.cfg.Deploy, a.logger, a.metrics)
			result, err := deployer.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("deployment failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s=%s\n", config.EnvBalloonAddress, result.Balloon.Hex())
			fmt.Fprintf(out, "%s=%s\n", config.EnvDEXAddress, result.DEX.Hex())
			for _, path := range result.ABIFiles {
				fmt.Fprintf(out, "# wrote %s\n", path)
			}
			return nil
		},
	}
}
