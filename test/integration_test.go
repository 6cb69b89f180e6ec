//go:build integration

// Package test runs the full deploy and trade cycle against a live node.
// Start a Hardhat node and compile the contracts, then:
//
//	go test -tags integration ./test/...
package test

import (
	"bytes"
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/michaelpento.lv/defidex/chain"
	"github.com/michaelpento.lv/defidex/config"
	"github.com/michaelpento.lv/defidex/deploy"
	"github.com/michaelpento.lv/defidex/dex"
	"github.com/michaelpento.lv/defidex/dex/contracts"
	"github.com/michaelpento.lv/defidex/gas"
	"github.com/michaelpento.lv/defidex/quote"
	"github.com/michaelpento.lv/defidex/trade"
	"github.com/michaelpento.lv/defidex/types"
	"github.com/michaelpento.lv/defidex/utils/metrics"
	"github.com/michaelpento.lv/defidex/utils/testutils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func loadConfig(t *testing.T) *config.Config {
	require.NoError(t, config.LoadEnv(""))
	cfg, err := config.Load("")
	require.NoError(t, err)

	if !filepath.IsAbs(cfg.Deploy.ArtifactsDir) {
		cfg.Deploy.ArtifactsDir = filepath.Join("..", cfg.Deploy.ArtifactsDir)
	}
	if _, err := deploy.LoadArtifact(cfg.Deploy.ArtifactsDir, deploy.DEXContract); err != nil {
		t.Skipf("contracts not compiled: %v", err)
	}
	cfg.Deploy.ABIDir = t.TempDir()
	return cfg
}

func product(r types.Reserves) *big.Int {
	return new(big.Int).Mul(r.Eth, r.Token)
}

func TestFullIntegration(t *testing.T) {
	cfg := loadConfig(t)
	logger := zaptest.NewLogger(t)
	m := metrics.NewDexMetrics("integration", prometheus.NewRegistry())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, chainID, err := chain.Dial(ctx, cfg.RPCEndpoint, new(big.Int).SetUint64(cfg.ChainID))
	if err != nil {
		t.Skipf("node not reachable: %v", err)
	}
	defer client.Close()

	key := config.GetEnvWithDefault(config.EnvPrivateKey, testutils.HardhatKey)
	fees := gas.NewEstimator(client, logger, cfg.Tx.MaxGasPrice(), cfg.Tx.FeeCacheTTL)
	tx, err := chain.NewTransactor(client, key, chainID, fees, cfg.Tx.ReceiptTimeout, logger)
	require.NoError(t, err)

	// Deploy and seed
	result, err := deploy.NewDeployer(tx, cfg.Network, cfg.Deploy, logger, m).Run(ctx)
	require.NoError(t, err)
	assert.Len(t, result.ABIFiles, 2)

	exchange, err := contracts.NewDEX(result.DEX, client)
	require.NoError(t, err)
	balloon, err := contracts.NewBalloon(result.Balloon, client)
	require.NoError(t, err)
	pool := dex.NewPool(result.DEX, client, balloon, exchange)

	info, err := pool.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, testutils.Ether(5).String(), info.Reserves.Eth.String())
	assert.Equal(t, testutils.Ether(5).String(), info.Reserves.Token.String())

	// Quotes from both sources
	local := quote.NewEngine(pool, nil, logger, m)
	onChain := quote.NewEngine(pool, exchange, logger, m)
	assert.Equal(t, "0.831248957812239453", local.Output(ctx, types.ETH, "1"))
	assert.Equal(t, local.Output(ctx, types.ETH, "1"), onChain.Output(ctx, types.ETH, "1"))

	// Swaps and liquidity
	var notes bytes.Buffer
	executor := trade.NewChainExecutor(exchange, balloon, tx, logger)
	trader := trade.NewTrader(pool, executor, trade.NewConsoleNotifier(&notes, logger), logger, m)

	before := product(info.Reserves)
	require.NoError(t, trader.Swap(ctx, types.ETH, "1"))
	require.NoError(t, trader.Swap(ctx, types.BAL, "0.5"))

	reserves, err := pool.Reserves(ctx)
	require.NoError(t, err)
	assert.True(t, product(reserves).Cmp(before) >= 0, "constant product decreased")

	require.NoError(t, trader.Deposit(ctx, "1"))
	deposited, err := pool.Account(ctx, tx.From())
	require.NoError(t, err)

	require.NoError(t, trader.Withdraw(ctx, "1"))
	withdrawn, err := pool.Account(ctx, tx.From())
	require.NoError(t, err)
	assert.Equal(t, testutils.Ether(1).String(), new(big.Int).Sub(deposited.Liquidity, withdrawn.Liquidity).String())

	assert.Contains(t, notes.String(), "Swap successful")
	assert.Contains(t, notes.String(), "Withdraw successful")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Submissions.WithLabelValues(trade.FlowSwap, "success")))
}
