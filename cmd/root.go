// Package cmd wires the defidex command line.
package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	cfgFile string
	envFile string
	debug   bool
}

// newRootCmd builds the command tree around a.
func newRootCmd(a *app) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "defidex",
		Short: "Deploy and trade on the Balloon/ETH DEX",
		Long: `A CLI for the Balloon/ETH constant-product exchange. It deploys and seeds
the contracts, quotes swaps, submits swaps and liquidity changes, and serves
pool state over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			a.close()
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file, JSON or YAML")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "env file (default is ./.env)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newDeployCmd(a),
		newQuoteCmd(a),
		newSwapCmd(a),
		newDepositCmd(a),
		newWithdrawCmd(a),
		newInfoCmd(a),
		newTradeCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
		newKeygenCmd(),
	)
	return rootCmd
}

// Execute runs the CLI until ctx is cancelled or the command returns
func Execute(ctx context.Context, args []string) error {
	a := &app{}
	defer a.close()

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
