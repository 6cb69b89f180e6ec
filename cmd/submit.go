package cmd

import (
	"github.com/michaelpento.lv/defidex/types"
	"github.com/spf13/cobra"
)

func newSwapCmd(a *app) *cobra.Command {
	var sell, amount string

	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Swap ETH for BAL or BAL for ETH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sellToken, err := types.ParseToken(sell)
			if err != nil {
				return err
			}

			b, err := a.bind(cmd.Context())
			if err != nil {
				return err
			}
			trader, _, err := a.trader(cmd.Context(), b, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return trader.Swap(cmd.Context(), sellToken, amount)
		},
	}

	cmd.Flags().StringVar(&sell, "sell", "ETH", "token to sell (ETH or BAL)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to sell in ether units")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newDepositCmd(a *app) *cobra.Command {
	var eth string

	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Add liquidity; the matching BAL amount is approved first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.bind(cmd.Context())
			if err != nil {
				return err
			}
			trader, _, err := a.trader(cmd.Context(), b, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return trader.Deposit(cmd.Context(), eth)
		},
	}

	cmd.Flags().StringVar(&eth, "eth", "", "ETH to deposit")
	_ = cmd.MarkFlagRequired("eth")
	return cmd
}

func newWithdrawCmd(a *app) *cobra.Command {
	var lpt string

	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Remove liquidity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.bind(cmd.Context())
			if err != nil {
				return err
			}
			trader, _, err := a.trader(cmd.Context(), b, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return trader.Withdraw(cmd.Context(), lpt)
		},
	}

	cmd.Flags().StringVar(&lpt, "lpt", "", "liquidity shares to withdraw")
	_ = cmd.MarkFlagRequired("lpt")
	return cmd
}
