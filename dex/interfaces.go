package dex

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/defidex/types"
)

// ErrEmptyReserves is returned when the pool has not been initialized
var ErrEmptyReserves = errors.New("pool reserves are empty")

// ReserveReader reads the current pool reserves
type ReserveReader interface {
	Reserves(ctx context.Context) (types.Reserves, error)
}

// BalanceReader reads native-currency balances
type BalanceReader interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// TokenReader reads token balances
type TokenReader interface {
	BalanceOf(ctx context.Context, who common.Address) (*big.Int, error)
}

// LiquidityReader reads liquidity share accounting from the exchange
type LiquidityReader interface {
	Liquidity(ctx context.Context, who common.Address) (*big.Int, error)
	TotalLiquidity(ctx context.Context) (*big.Int, error)
}

// PoolInfo is a snapshot of the exchange
type PoolInfo struct {
	Reserves       types.Reserves
	TotalLiquidity *big.Int
}

// Account is a snapshot of one user's holdings
type Account struct {
	Address   common.Address
	Eth       *big.Int
	Balloon   *big.Int
	Liquidity *big.Int
}
