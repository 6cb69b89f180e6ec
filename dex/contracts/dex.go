package contracts

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// DEX is a binding to the deployed constant-product exchange
type DEX struct {
	address  common.Address
	contract *bind.BoundContract
	abi      abi.ABI
}

// NewDEX binds the DEX contract at address
func NewDEX(address common.Address, backend bind.ContractBackend) (*DEX, error) {
	parsedABI, err := abi.JSON(strings.NewReader(DEXABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse DEX ABI: %w", err)
	}

	return &DEX{
		address:  address,
		contract: bind.NewBoundContract(address, parsedABI, backend, backend, backend),
		abi:      parsedABI,
	}, nil
}

// Address returns the contract address
func (d *DEX) Address() common.Address {
	return d.address
}

// ABI returns the parsed contract interface
func (d *DEX) ABI() abi.ABI {
	return d.abi
}

// Price calls the contract's pure pricing function
func (d *DEX) Price(ctx context.Context, xInput, xReserves, yReserves *big.Int) (*big.Int, error) {
	return callUint(ctx, d.contract, "price", xInput, xReserves, yReserves)
}

// Liquidity returns the liquidity shares held by who
func (d *DEX) Liquidity(ctx context.Context, who common.Address) (*big.Int, error) {
	return callUint(ctx, d.contract, "liquidity", who)
}

// TotalLiquidity returns the total liquidity shares minted
func (d *DEX) TotalLiquidity(ctx context.Context) (*big.Int, error) {
	return callUint(ctx, d.contract, "totalLiquidity")
}

// Init seeds the pool. opts.Value carries the ETH side.
func (d *DEX) Init(opts *bind.TransactOpts, tokenAmount *big.Int) (*types.Transaction, error) {
	return d.contract.Transact(opts, "init", tokenAmount)
}

// Deposit adds liquidity. opts.Value carries the ETH side; the token side is
// pulled from the caller's allowance.
func (d *DEX) Deposit(opts *bind.TransactOpts) (*types.Transaction, error) {
	return d.contract.Transact(opts, "deposit")
}

// Withdraw burns lptAmount liquidity shares
func (d *DEX) Withdraw(opts *bind.TransactOpts, lptAmount *big.Int) (*types.Transaction, error) {
	return d.contract.Transact(opts, "withdraw", lptAmount)
}

// EthToToken sells opts.Value ETH for tokens
func (d *DEX) EthToToken(opts *bind.TransactOpts) (*types.Transaction, error) {
	return d.contract.Transact(opts, "ethToToken")
}

// TokenToEth sells tokenInput tokens for ETH
func (d *DEX) TokenToEth(opts *bind.TransactOpts, tokenInput *big.Int) (*types.Transaction, error) {
	return d.contract.Transact(opts, "tokenToEth", tokenInput)
}

// callUint performs a read-only call returning a single uint256
func callUint(ctx context.Context, contract *bind.BoundContract, method string, args ...interface{}) (*big.Int, error) {
	var out []interface{}
	err := contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty result from %s", method)
	}

	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to parse %s result", method)
	}
	return value, nil
}
