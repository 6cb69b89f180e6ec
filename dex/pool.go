package dex

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/defidex/types"
)

// Pool reads live state of the Balloon/ETH exchange. Nothing is cached
// beyond a single call.
type Pool struct {
	address   common.Address
	balances  BalanceReader
	token     TokenReader
	liquidity LiquidityReader
}

// NewPool creates a reader for the exchange at address
func NewPool(address common.Address, balances BalanceReader, token TokenReader, liquidity LiquidityReader) *Pool {
	return &Pool{
		address:   address,
		balances:  balances,
		token:     token,
		liquidity: liquidity,
	}
}

// Address returns the exchange address
func (p *Pool) Address() common.Address {
	return p.address
}

// Reserves returns the exchange's ETH balance and its Balloon balance
func (p *Pool) Reserves(ctx context.Context) (types.Reserves, error) {
	eth, err := p.balances.BalanceAt(ctx, p.address, nil)
	if err != nil {
		return types.Reserves{}, fmt.Errorf("failed to get ETH reserve: %w", err)
	}

	tokens, err := p.token.BalanceOf(ctx, p.address)
	if err != nil {
		return types.Reserves{}, fmt.Errorf("failed to get token reserve: %w", err)
	}

	return types.Reserves{Eth: eth, Token: tokens}, nil
}

// Info returns reserves together with the total liquidity supply
func (p *Pool) Info(ctx context.Context) (*PoolInfo, error) {
	reserves, err := p.Reserves(ctx)
	if err != nil {
		return nil, err
	}

	total, err := p.liquidity.TotalLiquidity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get total liquidity: %w", err)
	}

	return &PoolInfo{Reserves: reserves, TotalLiquidity: total}, nil
}

// Account returns who's ETH, Balloon and liquidity share balances
func (p *Pool) Account(ctx context.Context, who common.Address) (*Account, error) {
	eth, err := p.balances.BalanceAt(ctx, who, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get ETH balance: %w", err)
	}

	tokens, err := p.token.BalanceOf(ctx, who)
	if err != nil {
		return nil, fmt.Errorf("failed to get token balance: %w", err)
	}

	shares, err := p.liquidity.Liquidity(ctx, who)
	if err != nil {
		return nil, fmt.Errorf("failed to get liquidity: %w", err)
	}

	return &Account{
		Address:   who,
		Eth:       eth,
		Balloon:   tokens,
		Liquidity: shares,
	}, nil
}
