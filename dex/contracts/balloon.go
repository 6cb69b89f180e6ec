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

// Balloon is a binding to the pool's ERC-20 token
type Balloon struct {
	address  common.Address
	contract *bind.BoundContract
}

// NewBalloon binds the Balloon token at address
func NewBalloon(address common.Address, backend bind.ContractBackend) (*Balloon, error) {
	parsedABI, err := abi.JSON(strings.NewReader(BalloonABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Balloon ABI: %w", err)
	}

	return &Balloon{
		address:  address,
		contract: bind.NewBoundContract(address, parsedABI, backend, backend, backend),
	}, nil
}

func (b *Balloon) Address() common.Address {
	return b.address
}

// BalanceOf returns the token balance of who
func (b *Balloon) BalanceOf(ctx context.Context, who common.Address) (*big.Int, error) {
	return callUint(ctx, b.contract, "balanceOf", who)
}

// Allowance returns how much spender may pull from owner
func (b *Balloon) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return callUint(ctx, b.contract, "allowance", owner, spender)
}

// Approve sets spender's allowance to exactly amount
func (b *Balloon) Approve(opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Transaction, error) {
	return b.contract.Transact(opts, "approve", spender, amount)
}

// Transfer moves amount tokens to to
func (b *Balloon) Transfer(opts *bind.TransactOpts, to common.Address, amount *big.Int) (*types.Transaction, error) {
	return b.contract.Transact(opts, "transfer", to, amount)
}
