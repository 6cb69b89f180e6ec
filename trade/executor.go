package trade

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/michaelpento.lv/defidex/dex/contracts"
	"go.uber.org/zap"
)

// Signer builds transaction options and waits for receipts.
// *chain.Transactor implements it.
type Signer interface {
	Opts(ctx context.Context, value *big.Int) (*bind.TransactOpts, error)
	Wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// ChainExecutor sends the write calls through the contract bindings
type ChainExecutor struct {
	dex     *contracts.DEX
	balloon *contracts.Balloon
	signer  Signer
	logger  *zap.Logger
}

// NewChainExecutor creates a new executor
func NewChainExecutor(dex *contracts.DEX, balloon *contracts.Balloon, signer Signer, logger *zap.Logger) *ChainExecutor {
	return &ChainExecutor{
		dex:     dex,
		balloon: balloon,
		signer:  signer,
		logger:  logger,
	}
}

// ApproveToken lets the DEX pull amount of Balloon from the signer
func (e *ChainExecutor) ApproveToken(ctx context.Context, amount *big.Int) error {
	return e.send(ctx, "approve", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return e.balloon.Approve(opts, e.dex.Address(), amount)
	})
}

// EthToToken sells value wei for Balloon
func (e *ChainExecutor) EthToToken(ctx context.Context, value *big.Int) error {
	return e.send(ctx, "ethToToken", value, e.dex.EthToToken)
}

// TokenToEth sells tokenInput Balloon for ETH
func (e *ChainExecutor) TokenToEth(ctx context.Context, tokenInput *big.Int) error {
	return e.send(ctx, "tokenToEth", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return e.dex.TokenToEth(opts, tokenInput)
	})
}

// Deposit adds value wei of liquidity
func (e *ChainExecutor) Deposit(ctx context.Context, value *big.Int) error {
	return e.send(ctx, "deposit", value, e.dex.Deposit)
}

// Withdraw burns lptAmount liquidity shares
func (e *ChainExecutor) Withdraw(ctx context.Context, lptAmount *big.Int) error {
	return e.send(ctx, "withdraw", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return e.dex.Withdraw(opts, lptAmount)
	})
}

func (e *ChainExecutor) send(ctx context.Context, method string, value *big.Int, call func(*bind.TransactOpts) (*types.Transaction, error)) error {
	opts, err := e.signer.Opts(ctx, value)
	if err != nil {
		return err
	}

	tx, err := call(opts)
	if err != nil {
		return err
	}
	e.logger.Info("Transaction sent", zap.String("method", method), zap.String("hash", tx.Hash().Hex()))

	_, err = e.signer.Wait(ctx, tx)
	return err
}
