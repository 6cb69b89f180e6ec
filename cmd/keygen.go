package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/michaelpento.lv/defidex/config"
	"github.com/spf13/cobra"
)

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a deployer key pair for PRIVATE_KEY",
		Args:  cobra.NoArgs,
		// Needs neither config nor a node
		PersistentPreRunE:  func(cmd *cobra.Command, args []string) error { return nil },
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			privateKey, err := crypto.GenerateKey()
			if err != nil {
				return fmt.Errorf("failed to generate key: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s=%s\n", config.EnvPrivateKey, hexutil.Encode(crypto.FromECDSA(privateKey)))
			fmt.Fprintf(out, "# address %s\n", crypto.PubkeyToAddress(privateKey.PublicKey).Hex())
			return nil
		},
	}
}
