// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"math/big"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/michaelpento.lv/defidex/config"
	"github.com/stretchr/testify/require"
)

// Hardhat's first default account and the addresses its first two
// deployments land on
const (
	HardhatKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	HardhatAccount = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	BalloonAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	DEXAddress     = "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512"
)

var weiPerEther = big.NewInt(1_000_000_000_000_000_000)

// Ether returns v ether in wei
func Ether(v int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(v), weiPerEther)
}

// IsolateEnv unsets every variable the CLI reads for the duration of the
// test. Variables are unset rather than emptied so env files still apply.
func IsolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvBalloonAddress, config.EnvDEXAddress, config.EnvProjectID, config.EnvRPCURL,
		config.EnvChainID, config.EnvNetwork, config.EnvInfuraKey, config.EnvPrivateKey,
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// NoSendOpts returns transact options signed by the Hardhat account that
// build transactions without touching a backend
func NoSendOpts(t *testing.T, nonce uint64, value *big.Int) *bind.TransactOpts {
	t.Helper()
	key, err := crypto.HexToECDSA(HardhatKey[2:])
	require.NoError(t, err)

	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(31337))
	require.NoError(t, err)
	opts.NoSend = true
	opts.Nonce = new(big.Int).SetUint64(nonce)
	opts.GasPrice = big.NewInt(1)
	opts.GasLimit = 100_000
	opts.Value = value
	return opts
}

// Address parses a hex address constant
func Address(hex string) common.Address {
	return common.HexToAddress(hex)
}
