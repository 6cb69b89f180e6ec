// Package deploy publishes the Balloon token and the DEX, exports their ABIs
// for the frontend, and seeds the pool.
package deploy

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/michaelpento.lv/defidex/chain"
	"github.com/michaelpento.lv/defidex/config"
	"github.com/michaelpento.lv/defidex/dex/contracts"
	"github.com/michaelpento.lv/defidex/utils"
	"github.com/michaelpento.lv/defidex/utils/metrics"
	"go.uber.org/zap"
)

// Contract names as compiled by Hardhat
const (
	BalloonContract = "Balloon"
	DEXContract     = "DEX"
)

// Chain deploys contracts and signs calls for the deployer account.
// *chain.Transactor implements it.
type Chain interface {
	From() common.Address
	ChainID() *big.Int
	Backend() chain.Backend
	Opts(ctx context.Context, value *big.Int) (*bind.TransactOpts, error)
	Wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	Deploy(ctx context.Context, contractABI abi.ABI, bytecode []byte, args ...interface{}) (common.Address, *types.Transaction, error)
}

// Result lists what a deployment produced
type Result struct {
	Balloon      common.Address
	DEX          common.Address
	ABIFiles     []string
	Transactions map[string]common.Hash
}

// Deployer runs the deployment steps in order, each one mined before the
// next is sent
type Deployer struct {
	chain   Chain
	network string
	cfg     config.DeployConfig
	logger  *zap.Logger
	metrics *metrics.DexMetrics
}

// NewDeployer creates a new deployer. m may be nil.
func NewDeployer(c Chain, network string, cfg config.DeployConfig, logger *zap.Logger, m *metrics.DexMetrics) *Deployer {
	return &Deployer{
		chain:   c,
		network: network,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

type seedAmounts struct {
	deployerTokens *big.Int
	poolTokens     *big.Int
	poolEth        *big.Int
}

func (d *Deployer) seeds() (*seedAmounts, error) {
	var s seedAmounts
	var err error
	if s.deployerTokens, err = utils.ParseEther(d.cfg.DeployerTokens); err != nil {
		return nil, fmt.Errorf("invalid deployer token amount: %w", err)
	}
	if s.poolTokens, err = utils.ParseEther(d.cfg.PoolTokens); err != nil {
		return nil, fmt.Errorf("invalid pool token amount: %w", err)
	}
	if s.poolEth, err = utils.ParseEther(d.cfg.PoolEth); err != nil {
		return nil, fmt.Errorf("invalid pool ETH amount: %w", err)
	}
	return &s, nil
}

// Run deploys both contracts and initializes the pool
func (d *Deployer) Run(ctx context.Context) (*Result, error) {
	seeds, err := d.seeds()
	if err != nil {
		return nil, err
	}

	deployer := d.chain.From()
	d.logger.Info("Starting deployment",
		zap.String("network", d.network),
		zap.Stringer("chainId", d.chain.ChainID()),
		zap.String("deployer", deployer.Hex()))

	result := &Result{Transactions: make(map[string]common.Hash)}

	balloonAddr, err := d.deployContract(ctx, result, BalloonContract, "balloon.ts", "balloonAbi")
	if err != nil {
		return nil, err
	}
	result.Balloon = balloonAddr

	dexAddr, err := d.deployContract(ctx, result, DEXContract, "dex.ts", "dexAbi", balloonAddr)
	if err != nil {
		return nil, err
	}
	result.DEX = dexAddr

	balloon, err := contracts.NewBalloon(balloonAddr, d.chain.Backend())
	if err != nil {
		return nil, err
	}
	exchange, err := contracts.NewDEX(dexAddr, d.chain.Backend())
	if err != nil {
		return nil, err
	}

	d.logger.Info("Transferring BAL to the deployer", zap.String("amount", d.cfg.DeployerTokens))
	if err := d.send(ctx, result, "transfer", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return balloon.Transfer(opts, deployer, seeds.deployerTokens)
	}); err != nil {
		return nil, err
	}

	d.logger.Info("Approving the DEX to spend BAL", zap.String("amount", d.cfg.PoolTokens))
	if err := d.send(ctx, result, "approve", nil, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return balloon.Approve(opts, dexAddr, seeds.poolTokens)
	}); err != nil {
		return nil, err
	}

	d.logger.Info("Initializing the DEX",
		zap.String("balloon", d.cfg.PoolTokens),
		zap.String("eth", d.cfg.PoolEth))
	if err := d.send(ctx, result, "init", seeds.poolEth, func(opts *bind.TransactOpts) (*types.Transaction, error) {
		return exchange.Init(opts, seeds.poolTokens)
	}); err != nil {
		return nil, err
	}

	d.logger.Info("Contracts deployed and initialized successfully",
		zap.String(config.EnvBalloonAddress, balloonAddr.Hex()),
		zap.String(config.EnvDEXAddress, dexAddr.Hex()))
	return result, nil
}

func (d *Deployer) deployContract(ctx context.Context, result *Result, name, moduleFile, constName string, args ...interface{}) (common.Address, error) {
	artifact, err := LoadArtifact(d.cfg.ArtifactsDir, name)
	if err != nil {
		return common.Address{}, err
	}
	parsed, err := artifact.ParsedABI()
	if err != nil {
		return common.Address{}, err
	}
	code, err := artifact.Code()
	if err != nil {
		return common.Address{}, err
	}

	d.logger.Info("Deploying contract", zap.String("contract", name))
	address, tx, err := d.chain.Deploy(ctx, parsed, code, args...)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to deploy %s: %w", name, err)
	}
	result.Transactions["deploy"+name] = tx.Hash()
	d.step("deploy" + name)
	d.logger.Info("Contract deployed", zap.String("contract", name), zap.String("address", address.Hex()))

	path, err := WriteABIModule(d.cfg.ABIDir, moduleFile, constName, artifact.ABI)
	if err != nil {
		return common.Address{}, err
	}
	result.ABIFiles = append(result.ABIFiles, path)
	d.logger.Info("ABI written", zap.String("path", path))

	return address, nil
}

func (d *Deployer) send(ctx context.Context, result *Result, step string, value *big.Int, call func(*bind.TransactOpts) (*types.Transaction, error)) error {
	opts, err := d.chain.Opts(ctx, value)
	if err != nil {
		return err
	}

	tx, err := call(opts)
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", step, err)
	}
	if _, err := d.chain.Wait(ctx, tx); err != nil {
		return fmt.Errorf("failed to confirm %s: %w", step, err)
	}

	result.Transactions[step] = tx.Hash()
	d.step(step)
	return nil
}

func (d *Deployer) step(name string) {
	if d.metrics != nil {
		d.metrics.DeploySteps.WithLabelValues(name).Inc()
	}
}
