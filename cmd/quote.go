package cmd

import (
	"errors"
	"fmt"

	"github.com/michaelpento.lv/defidex/types"
	"github.com/spf13/cobra"
)

func newQuoteCmd(a *app) *cobra.Command {
	var (
		sell   string
		amount string
		buy    bool
		source string
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap against the live pool reserves",
		Example: `  defidex quote --sell ETH --amount 1
  defidex quote --sell BAL --amount 0.5 --buy`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sellToken, err := types.ParseToken(sell)
			if err != nil {
				return err
			}

			b, err := a.bind(cmd.Context())
			if err != nil {
				return err
			}
			engine, err := a.quoteEngine(b, source)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if buy {
				in := engine.RequiredInput(cmd.Context(), sellToken, amount)
				if in == "" {
					return errors.New("no quote available")
				}
				fmt.Fprintf(out, "%s %s -> %s %s (local)\n", in, sellToken, amount, sellToken.Other())
				return nil
			}

			result := engine.Output(cmd.Context(), sellToken, amount)
			if result == "" {
				return errors.New("no quote available")
			}
			fmt.Fprintf(out, "%s %s -> %s %s (%s)\n", amount, sellToken, result, sellToken.Other(), engine.Source())
			return nil
		},
	}

	cmd.Flags().StringVar(&sell, "sell", "ETH", "token to sell (ETH or BAL)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount in ether units")
	cmd.Flags().BoolVar(&buy, "buy", false, "treat amount as the wanted output and quote the input")
	cmd.Flags().StringVar(&source, "source", "", "quote source: local or contract (default from config)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
