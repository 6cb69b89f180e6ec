package cmd

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/michaelpento.lv/defidex/chain"
	"github.com/michaelpento.lv/defidex/config"
	"github.com/michaelpento.lv/defidex/dex"
	"github.com/michaelpento.lv/defidex/dex/contracts"
	"github.com/michaelpento.lv/defidex/gas"
	"github.com/michaelpento.lv/defidex/quote"
	"github.com/michaelpento.lv/defidex/trade"
	"github.com/michaelpento.lv/defidex/utils"
	"github.com/michaelpento.lv/defidex/utils/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// app holds what every command shares. It is built once per invocation and
// the node connection is opened on first use.
type app struct {
	logger   *zap.Logger
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *metrics.DexMetrics

	client  *ethclient.Client
	chainID *big.Int
}

func (a *app) init(opts *rootOptions) error {
	if err := config.LoadEnv(opts.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := utils.NewLogger(opts.debug, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.registry = metrics.NewRegistry()
	a.metrics = metrics.NewDexMetrics(cfg.MetricsNamespace, a.registry)
	return nil
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
		a.client = nil
	}
	utils.SyncLogger(a.logger)
}

func (a *app) dial(ctx context.Context) (*ethclient.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	client, chainID, err := chain.Dial(ctx, a.cfg.RPCEndpoint, new(big.Int).SetUint64(a.cfg.ChainID))
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Connected to node",
		zap.String("network", a.cfg.Network),
		zap.Stringer("chainId", chainID))

	a.client = client
	a.chainID = chainID
	return client, nil
}

// bindings holds the contract bindings and the pool reader over them
type bindings struct {
	dex     *contracts.DEX
	balloon *contracts.Balloon
	pool    *dex.Pool
}

func (a *app) bind(ctx context.Context) (*bindings, error) {
	balloonAddr, dexAddr, err := a.cfg.RequireContracts()
	if err != nil {
		return nil, err
	}

	client, err := a.dial(ctx)
	if err != nil {
		return nil, err
	}

	exchange, err := contracts.NewDEX(dexAddr, client)
	if err != nil {
		return nil, err
	}
	balloon, err := contracts.NewBalloon(balloonAddr, client)
	if err != nil {
		return nil, err
	}

	return &bindings{
		dex:     exchange,
		balloon: balloon,
		pool:    dex.NewPool(dexAddr, client, balloon, exchange),
	}, nil
}

func (a *app) transactor(ctx context.Context) (*chain.Transactor, error) {
	secure, err := config.LoadSecureConfig()
	if err != nil {
		return nil, err
	}

	client, err := a.dial(ctx)
	if err != nil {
		return nil, err
	}

	fees := gas.NewEstimator(client, a.logger, a.cfg.Tx.MaxGasPrice(), a.cfg.Tx.FeeCacheTTL)
	return chain.NewTransactor(client, secure.PrivateKey, a.chainID, fees, a.cfg.Tx.ReceiptTimeout, a.logger)
}

// quoteEngine builds an engine over b using source, or the configured
// source when empty.
func (a *app) quoteEngine(b *bindings, source string) (*quote.Engine, error) {
	if source == "" {
		source = a.cfg.Quote.Source
	}

	switch source {
	case config.QuoteSourceLocal:
		return quote.NewEngine(b.pool, nil, a.logger, a.metrics), nil
	case config.QuoteSourceContract:
		return quote.NewEngine(b.pool, b.dex, a.logger, a.metrics), nil
	default:
		return nil, fmt.Errorf("unknown quote source %q", source)
	}
}

func (a *app) trader(ctx context.Context, b *bindings, out io.Writer) (*trade.Trader, *chain.Transactor, error) {
	tx, err := a.transactor(ctx)
	if err != nil {
		return nil, nil, err
	}

	executor := trade.NewChainExecutor(b.dex, b.balloon, tx, a.logger)
	notifier := trade.NewConsoleNotifier(out, a.logger)
	return trade.NewTrader(b.pool, executor, notifier, a.logger, a.metrics), tx, nil
}
