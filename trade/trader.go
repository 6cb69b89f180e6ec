// Package trade submits swaps and liquidity changes against the DEX.
package trade

import (
	"context"
	"fmt"
	"math/big"

	"github.com/michaelpento.lv/defidex/chain"
	"github.com/michaelpento.lv/defidex/dex"
	"github.com/michaelpento.lv/defidex/dex/amm"
	"github.com/michaelpento.lv/defidex/types"
	"github.com/michaelpento.lv/defidex/utils"
	"github.com/michaelpento.lv/defidex/utils/metrics"
	"go.uber.org/zap"
)

// ErrReverted is returned when a submitted transaction fails on chain
var ErrReverted = chain.ErrReverted

// Flow names used in notifications and metrics
const (
	FlowSwap     = "swap"
	FlowDeposit  = "deposit"
	FlowWithdraw = "withdraw"
)

// Notifier reports the outcome of a flow to the user
type Notifier interface {
	Success(title string)
	Failure(title string, err error)
}

// Exchange performs the individual write calls. Each call returns once its
// transaction is mined.
type Exchange interface {
	ApproveToken(ctx context.Context, amount *big.Int) error
	EthToToken(ctx context.Context, value *big.Int) error
	TokenToEth(ctx context.Context, tokenInput *big.Int) error
	Deposit(ctx context.Context, value *big.Int) error
	Withdraw(ctx context.Context, lptAmount *big.Int) error
}

// Trader runs the swap, deposit and withdraw flows
type Trader struct {
	reserves dex.ReserveReader
	exchange Exchange
	notifier Notifier
	logger   *zap.Logger
	metrics  *metrics.DexMetrics
}

// NewTrader creates a new trader. m may be nil.
func NewTrader(reserves dex.ReserveReader, exchange Exchange, notifier Notifier, logger *zap.Logger, m *metrics.DexMetrics) *Trader {
	return &Trader{
		reserves: reserves,
		exchange: exchange,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
	}
}

// Swap sells amount of sell. Selling BAL approves the DEX first and only
// swaps once the approval is mined.
func (t *Trader) Swap(ctx context.Context, sell types.Token, amount string) error {
	return t.run(FlowSwap, "Swap", func() error {
		wei, err := utils.ParseEther(amount)
		if err != nil {
			return err
		}

		if sell == types.BAL {
			if err := t.exchange.ApproveToken(ctx, wei); err != nil {
				return fmt.Errorf("failed to approve %s BAL: %w", amount, err)
			}
			if err := t.exchange.TokenToEth(ctx, wei); err != nil {
				return fmt.Errorf("failed to swap BAL for ETH: %w", err)
			}
			return nil
		}

		if err := t.exchange.EthToToken(ctx, wei); err != nil {
			return fmt.Errorf("failed to swap ETH for BAL: %w", err)
		}
		return nil
	})
}

// Deposit adds ethAmount of liquidity with the matching Balloon amount at
// the current pool ratio
func (t *Trader) Deposit(ctx context.Context, ethAmount string) error {
	return t.run(FlowDeposit, "Deposit", func() error {
		wei, err := utils.ParseEther(ethAmount)
		if err != nil {
			return err
		}

		reserves, err := t.reserves.Reserves(ctx)
		if err != nil {
			return fmt.Errorf("failed to read reserves: %w", err)
		}
		if reserves.Empty() {
			return dex.ErrEmptyReserves
		}

		tokens, err := amm.TokenRequired(wei, reserves.Eth, reserves.Token)
		if err != nil {
			return fmt.Errorf("failed to compute token deposit: %w", err)
		}

		t.logger.Debug("Depositing liquidity",
			zap.String("eth", ethAmount),
			zap.String("balloon", utils.FormatEther(tokens)))

		if err := t.exchange.ApproveToken(ctx, tokens); err != nil {
			return fmt.Errorf("failed to approve %s BAL: %w", utils.FormatEther(tokens), err)
		}
		if err := t.exchange.Deposit(ctx, wei); err != nil {
			return fmt.Errorf("failed to deposit: %w", err)
		}
		return nil
	})
}

// Withdraw burns lptAmount liquidity shares
func (t *Trader) Withdraw(ctx context.Context, lptAmount string) error {
	return t.run(FlowWithdraw, "Withdraw", func() error {
		wei, err := utils.ParseEther(lptAmount)
		if err != nil {
			return err
		}
		if err := t.exchange.Withdraw(ctx, wei); err != nil {
			return fmt.Errorf("failed to withdraw: %w", err)
		}
		return nil
	})
}

func (t *Trader) run(flow, title string, fn func() error) error {
	err := fn()
	if t.metrics != nil {
		t.metrics.Submissions.WithLabelValues(flow, metrics.Result(err)).Inc()
	}

	if err != nil {
		t.logger.Error("Submission failed", zap.String("flow", flow), zap.Error(err))
		t.notifier.Failure(title+" failed", err)
		return err
	}

	t.logger.Info("Submission succeeded", zap.String("flow", flow))
	t.notifier.Success(title + " successful")
	return nil
}
