// Package chain connects to an Ethereum node and signs transactions for the
// configured account.
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is what contract bindings and transaction waits need
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Client defines the node operations used across commands
type Client interface {
	Backend
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	Close()
}

// Dial connects to the node at rawURL and checks it answers on the
// expected chain. A nil expected chain id skips the check.
func Dial(ctx context.Context, rawURL string, expected *big.Int) (*ethclient.Client, *big.Int, error) {
	client, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", rawURL, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to get chain id: %w", err)
	}

	if expected != nil && expected.Sign() > 0 && expected.Cmp(chainID) != 0 {
		client.Close()
		return nil, nil, fmt.Errorf("node at %s is on chain %s, expected %s", rawURL, chainID, expected)
	}
	return client, chainID, nil
}
