package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/michaelpento.lv/defidex/utils"
	"go.uber.org/zap"
)

// ErrReverted is returned when a mined transaction has a failed status
var ErrReverted = errors.New("transaction reverted")

// FeeEstimator suggests EIP-1559 fee caps. Nil caps mean legacy pricing.
type FeeEstimator interface {
	FeeCaps(ctx context.Context) (feeCap, tipCap *big.Int, err error)
}

// CostEstimator bounds what gasLimit can cost at the current fee cap
type CostEstimator interface {
	EstimateGasCost(ctx context.Context, gasLimit uint64) (*big.Int, error)
}

// Transactor signs and tracks transactions for a single account
type Transactor struct {
	backend        Backend
	key            *ecdsa.PrivateKey
	from           common.Address
	chainID        *big.Int
	fees           FeeEstimator
	receiptTimeout time.Duration
	logger         *zap.Logger
}

// NewTransactor creates a new transactor for the hex-encoded private key.
// fees may be nil.
func NewTransactor(backend Backend, privateKeyHex string, chainID *big.Int, fees FeeEstimator, receiptTimeout time.Duration, logger *zap.Logger) (*Transactor, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	if chainID == nil {
		return nil, fmt.Errorf("chain id is required")
	}

	return &Transactor{
		backend:        backend,
		key:            key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		chainID:        chainID,
		fees:           fees,
		receiptTimeout: receiptTimeout,
		logger:         logger,
	}, nil
}

// From returns the signing address
func (t *Transactor) From() common.Address {
	return t.from
}

// ChainID returns the chain id transactions are signed for
func (t *Transactor) ChainID() *big.Int {
	return t.chainID
}

// Backend returns the node connection used for calls and waits
func (t *Transactor) Backend() Backend {
	return t.backend
}

// Opts returns signing options carrying value. Nonce and gas limit are left
// to bind.
func (t *Transactor) Opts(ctx context.Context, value *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(t.key, t.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	opts.Value = value

	if t.fees != nil {
		feeCap, tipCap, err := t.fees.FeeCaps(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate fees: %w", err)
		}
		opts.GasFeeCap = feeCap
		opts.GasTipCap = tipCap
	}
	return opts, nil
}

// Wait blocks until tx is mined and fails if it reverted
func (t *Transactor) Wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if t.receiptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.receiptTimeout)
		defer cancel()
	}

	t.logger.Debug("Waiting for transaction", zap.String("hash", tx.Hash().Hex()))
	receipt, err := bind.WaitMined(ctx, t.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for %s: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: %s in block %s", ErrReverted, tx.Hash().Hex(), receipt.BlockNumber)
	}

	t.logger.Debug("Transaction mined", t.feeFields(ctx, tx, receipt)...)
	return receipt, nil
}

// feeFields reports what the transaction paid next to what the same gas
// would cost at the current cap
func (t *Transactor) feeFields(ctx context.Context, tx *types.Transaction, receipt *types.Receipt) []zap.Field {
	fields := []zap.Field{
		zap.String("hash", tx.Hash().Hex()),
		zap.Uint64("gasUsed", receipt.GasUsed),
	}
	if receipt.EffectiveGasPrice != nil {
		paid := new(big.Int).Mul(receipt.EffectiveGasPrice, new(big.Int).SetUint64(receipt.GasUsed))
		fields = append(fields, zap.String("fee", utils.FormatEther(paid)))
	}

	costs, ok := t.fees.(CostEstimator)
	if !ok {
		return fields
	}
	maxFee, err := costs.EstimateGasCost(ctx, receipt.GasUsed)
	if err != nil {
		t.logger.Debug("Fee ceiling unavailable", zap.Error(err))
		return fields
	}
	return append(fields, zap.String("maxFee", utils.FormatEther(maxFee)))
}

// Deploy creates a contract from bytecode and waits until its code is
// on chain
func (t *Transactor) Deploy(ctx context.Context, contractABI abi.ABI, bytecode []byte, args ...interface{}) (common.Address, *types.Transaction, error) {
	opts, err := t.Opts(ctx, nil)
	if err != nil {
		return common.Address{}, nil, err
	}

	address, tx, _, err := bind.DeployContract(opts, contractABI, bytecode, t.backend, args...)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("failed to send deployment: %w", err)
	}

	if _, err := t.Wait(ctx, tx); err != nil {
		return common.Address{}, tx, err
	}
	if _, err := bind.WaitDeployed(ctx, t.backend, tx); err != nil {
		return common.Address{}, tx, fmt.Errorf("failed to confirm deployment: %w", err)
	}
	return address, tx, nil
}
