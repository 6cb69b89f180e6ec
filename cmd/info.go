package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/michaelpento.lv/defidex/api"
	"github.com/michaelpento.lv/defidex/config"
	"github.com/michaelpento.lv/defidex/dex"
	"github.com/michaelpento.lv/defidex/utils"
	"github.com/spf13/cobra"
)

const displayPlaces = 4

func newInfoCmd(a *app) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show pool reserves and an account's balances",
		Long: `Show pool reserves and total liquidity. Balances are shown for --address,
or for the PRIVATE_KEY account when no address is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			who, err := infoAccount(address)
			if err != nil {
				return err
			}

			b, err := a.bind(cmd.Context())
			if err != nil {
				return err
			}
			return printInfo(cmd.Context(), cmd.OutOrStdout(), b.pool, who)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "account to show")
	return cmd
}

// infoAccount resolves the account to show. A nil result means pool only.
func infoAccount(address string) (*common.Address, error) {
	if address != "" {
		if !common.IsHexAddress(address) {
			return nil, fmt.Errorf("invalid address %q", address)
		}
		who := common.HexToAddress(address)
		return &who, nil
	}

	secure, err := config.LoadSecureConfig()
	if err != nil {
		return nil, nil
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(secure.PrivateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	who := crypto.PubkeyToAddress(key.PublicKey)
	return &who, nil
}

func printInfo(ctx context.Context, out io.Writer, pool api.PoolReader, who *common.Address) error {
	info, err := pool.Info(ctx)
	if err != nil {
		return err
	}
	writePoolInfo(out, pool.Address(), info)

	if who == nil {
		return nil
	}
	acct, err := pool.Account(ctx, *who)
	if err != nil {
		return err
	}
	writeAccount(out, acct)
	return nil
}

func writePoolInfo(out io.Writer, address common.Address, info *dex.PoolInfo) {
	fmt.Fprintf(out, "DEX %s\n", address.Hex())
	fmt.Fprintf(out, "  ETH reserve:     %s\n", utils.FormatEtherFixed(info.Reserves.Eth, displayPlaces))
	fmt.Fprintf(out, "  BAL reserve:     %s\n", utils.FormatEtherFixed(info.Reserves.Token, displayPlaces))
	fmt.Fprintf(out, "  Total liquidity: %s\n", utils.FormatEtherFixed(info.TotalLiquidity, displayPlaces))
}

func writeAccount(out io.Writer, acct *dex.Account) {
	fmt.Fprintf(out, "Account %s\n", acct.Address.Hex())
	fmt.Fprintf(out, "  ETH:       %s\n", utils.FormatEtherFixed(acct.Eth, displayPlaces))
	fmt.Fprintf(out, "  BAL:       %s\n", utils.FormatEtherFixed(acct.Balloon, displayPlaces))
	fmt.Fprintf(out, "  Liquidity: %s\n", utils.FormatEtherFixed(acct.Liquidity, displayPlaces))
}
