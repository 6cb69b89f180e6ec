package cmd

import (
	"github.com/michaelpento.lv/defidex/dex/contracts"
	"github.com/michaelpento.lv/defidex/events"
	"github.com/michaelpento.lv/defidex/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(a *app) *cobra.Command {
	var fromBlock uint64

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow swap and liquidity events from the DEX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.bind(cmd.Context())
			if err != nil {
				return err
			}

			cfg := a.cfg.Watch
			if cmd.Flags().Changed("from-block") {
				cfg.StartBlock = fromBlock
			}

			watcher, err := events.NewWatcher(a.client, b.dex, cfg, a.logger, a.metrics)
			if err != nil {
				return err
			}
			return watcher.Run(cmd.Context(), logEvent(a.logger))
		},
	}

	cmd.Flags().Uint64Var(&fromBlock, "from-block", 0, "first block to scan (default is the current head)")
	return cmd
}

// logEvent logs each DEX event with its amounts in ether units
func logEvent(logger *zap.Logger) events.Handler {
	return func(e contracts.Event) {
		raw := e.RawLog()
		fields := []zap.Field{
			zap.Uint64("block", raw.BlockNumber),
			zap.String("tx", raw.TxHash.Hex()),
		}

		switch ev := e.(type) {
		case *contracts.EthToTokenSwap:
			fields = append(fields,
				zap.String("swapper", ev.Swapper.Hex()),
				zap.String("ethIn", utils.FormatEther(ev.EthInput)),
				zap.String("balOut", utils.FormatEther(ev.TokenOutput)))
		case *contracts.TokenToEthSwap:
			fields = append(fields,
				zap.String("swapper", ev.Swapper.Hex()),
				zap.String("balIn", utils.FormatEther(ev.TokensInput)),
				zap.String("ethOut", utils.FormatEther(ev.EthOutput)))
		case *contracts.LiquidityProvided:
			fields = append(fields,
				zap.String("provider", ev.LiquidityProvider.Hex()),
				zap.String("minted", utils.FormatEther(ev.LiquidityMinted)),
				zap.String("ethIn", utils.FormatEther(ev.EthInput)),
				zap.String("balIn", utils.FormatEther(ev.TokensInput)))
		case *contracts.LiquidityRemoved:
			fields = append(fields,
				zap.String("remover", ev.LiquidityRemover.Hex()),
				zap.String("withdrawn", utils.FormatEther(ev.LiquidityWithdrawn)),
				zap.String("ethOut", utils.FormatEther(ev.EthOutput)),
				zap.String("balOut", utils.FormatEther(ev.TokensOutput)))
		}

		logger.Info(e.EventName(), fields...)
	}
}
