package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/defidex/utils"
	"gopkg.in/yaml.v2"
)

// ErrMissingContracts is returned when a command needs the deployed
// addresses and they are not configured
var ErrMissingContracts = errors.New("contract addresses not configured")

// Supported networks
const (
	NetworkHardhat = "hardhat"
	NetworkSepolia = "sepolia"
)

// Quote sources
const (
	QuoteSourceLocal    = "local"
	QuoteSourceContract = "contract"
)

type Config struct {
	// Chain and network settings
	Network      string `json:"network" yaml:"network"`
	RPCEndpoint  string `json:"rpc_endpoint" yaml:"rpc_endpoint"`
	ChainID      uint64 `json:"chain_id" yaml:"chain_id"`
	InfuraAPIKey string `json:"-" yaml:"-"`

	Contracts ContractsConfig `json:"contracts" yaml:"contracts"`
	ProjectID string          `json:"project_id" yaml:"project_id"`

	Deploy DeployConfig `json:"deploy" yaml:"deploy"`
	Quote  QuoteConfig  `json:"quote" yaml:"quote"`
	Tx     TxConfig     `json:"tx" yaml:"tx"`
	Watch  WatchConfig  `json:"watch" yaml:"watch"`
	API    APIConfig    `json:"api" yaml:"api"`

	MetricsNamespace string `json:"metrics_namespace" yaml:"metrics_namespace"`
	LogFile          string `json:"log_file" yaml:"log_file"`
}

type ContractsConfig struct {
	Balloon string `json:"balloon" yaml:"balloon"`
	DEX     string `json:"dex" yaml:"dex"`
}

type DeployConfig struct {
	ArtifactsDir string `json:"artifacts_dir" yaml:"artifacts_dir"`
	ABIDir       string `json:"abi_dir" yaml:"abi_dir"`

	// Amounts in ether
	DeployerTokens string `json:"deployer_tokens" yaml:"deployer_tokens"`
	PoolTokens     string `json:"pool_tokens" yaml:"pool_tokens"`
	PoolEth        string `json:"pool_eth" yaml:"pool_eth"`
}

type QuoteConfig struct {
	Source   string        `json:"source" yaml:"source"`
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

type TxConfig struct {
	MaxGasPriceGwei uint64        `json:"max_gas_price_gwei" yaml:"max_gas_price_gwei"`
	ReceiptTimeout  time.Duration `json:"receipt_timeout" yaml:"receipt_timeout"`
	FeeCacheTTL     time.Duration `json:"fee_cache_ttl" yaml:"fee_cache_ttl"`
}

// MaxGasPrice returns the fee cap bound in wei, or nil when unbounded
func (t TxConfig) MaxGasPrice() *big.Int {
	if t.MaxGasPriceGwei == 0 {
		return nil
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(t.MaxGasPriceGwei), big.NewInt(1_000_000_000))
}

type WatchConfig struct {
	PollInterval      time.Duration `json:"poll_interval" yaml:"poll_interval"`
	MaxBlockRange     uint64        `json:"max_block_range" yaml:"max_block_range"`
	StartBlock        uint64        `json:"start_block" yaml:"start_block"`
	DedupeSize        int           `json:"dedupe_size" yaml:"dedupe_size"`
	RequestsPerSecond float64       `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `json:"burst" yaml:"burst"`
}

type APIConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

type SecureConfig struct {
	PrivateKey string
}

// DefaultConfig returns the settings for a local Hardhat node
func DefaultConfig() *Config {
	return &Config{
		Network: NetworkHardhat,
		Deploy: DeployConfig{
			ArtifactsDir:   "packages/hardhat/artifacts",
			ABIDir:         "packages/web/src/abis",
			DeployerTokens: "10",
			PoolTokens:     "5",
			PoolEth:        "5",
		},
		Quote: QuoteConfig{
			Source:   QuoteSourceLocal,
			Debounce: 300 * time.Millisecond,
		},
		Tx: TxConfig{
			MaxGasPriceGwei: 500,
			ReceiptTimeout:  2 * time.Minute,
			FeeCacheTTL:     12 * time.Second,
		},
		Watch: WatchConfig{
			PollInterval:      2 * time.Second,
			MaxBlockRange:     1000,
			DedupeSize:        4096,
			RequestsPerSecond: 5,
			Burst:             1,
		},
		API: APIConfig{
			Addr: ":8080",
		},
		MetricsNamespace: "defidex",
	}
}

// Load builds the configuration: defaults, then the optional file, then
// the environment.
func Load(cfgFile string) (*Config, error) {
	cfg := DefaultConfig()
	if cfgFile != "" {
		if err := cfg.LoadFile(cfgFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.ResolveEndpoint(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the settings in cfgFile. Files ending in .yaml or .yml
// are read as YAML, everything else as JSON.
func (c *Config) LoadFile(cfgFile string) error {
	data, err := os.ReadFile(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(cfgFile)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides settings from the environment
func (c *Config) ApplyEnv() error {
	c.Network = GetEnvWithDefault(EnvNetwork, c.Network)
	c.RPCEndpoint = GetEnvWithDefault(EnvRPCURL, c.RPCEndpoint)
	c.InfuraAPIKey = GetEnvWithDefault(EnvInfuraKey, c.InfuraAPIKey)
	c.Contracts.Balloon = GetEnvWithDefault(EnvBalloonAddress, c.Contracts.Balloon)
	c.Contracts.DEX = GetEnvWithDefault(EnvDEXAddress, c.Contracts.DEX)
	c.ProjectID = GetEnvWithDefault(EnvProjectID, c.ProjectID)

	if raw := os.Getenv(EnvChainID); raw != "" {
		chainID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvChainID, err)
		}
		c.ChainID = chainID
	}
	return nil
}

// ResolveEndpoint fills the RPC endpoint and chain id from the network name
// when they are not set explicitly
func (c *Config) ResolveEndpoint() error {
	endpoint, chainID, err := NetworkEndpoint(c.Network, c.InfuraAPIKey)
	if err != nil {
		if c.RPCEndpoint != "" && c.ChainID != 0 {
			return nil
		}
		return err
	}

	if c.RPCEndpoint == "" {
		c.RPCEndpoint = endpoint
	}
	if c.ChainID == 0 {
		c.ChainID = chainID
	}
	return nil
}

// NetworkEndpoint returns the default RPC endpoint and chain id of network
func NetworkEndpoint(network, infuraKey string) (string, uint64, error) {
	switch network {
	case NetworkHardhat:
		return "http://127.0.0.1:8545", 31337, nil
	case NetworkSepolia:
		if infuraKey == "" {
			return "", 0, fmt.Errorf("required environment variable %s not set", EnvInfuraKey)
		}
		return fmt.Sprintf("https://sepolia.infura.io/v3/%s", infuraKey), 11155111, nil
	default:
		return "", 0, fmt.Errorf("unsupported network: %s", network)
	}
}

func (c *Config) Validate() error {
	var errors []string

	if c.RPCEndpoint == "" {
		errors = append(errors, "rpc_endpoint must be specified")
	}
	if c.ChainID == 0 {
		errors = append(errors, "chain_id must be specified")
	}

	if c.Contracts.Balloon != "" && !common.IsHexAddress(c.Contracts.Balloon) {
		errors = append(errors, fmt.Sprintf("invalid balloon address %q", c.Contracts.Balloon))
	}
	if c.Contracts.DEX != "" && !common.IsHexAddress(c.Contracts.DEX) {
		errors = append(errors, fmt.Sprintf("invalid dex address %q", c.Contracts.DEX))
	}

	if err := c.Deploy.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("deploy config error: %v", err))
	}
	if err := c.Quote.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("quote config error: %v", err))
	}
	if err := c.Watch.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("watch config error: %v", err))
	}
	if c.Tx.ReceiptTimeout <= 0 {
		errors = append(errors, "receipt_timeout must be positive")
	}
	if c.API.Addr == "" {
		errors = append(errors, "api addr must be specified")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}
	return nil
}

func (d *DeployConfig) Validate() error {
	if d.ArtifactsDir == "" {
		return fmt.Errorf("artifacts dir must be specified")
	}
	if d.ABIDir == "" {
		return fmt.Errorf("abi dir must be specified")
	}
	for name, amount := range map[string]string{
		"deployer_tokens": d.DeployerTokens,
		"pool_tokens":     d.PoolTokens,
		"pool_eth":        d.PoolEth,
	} {
		if _, err := utils.ParseEther(amount); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (q *QuoteConfig) Validate() error {
	if q.Source != QuoteSourceLocal && q.Source != QuoteSourceContract {
		return fmt.Errorf("unknown quote source %q", q.Source)
	}
	if q.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}
	return nil
}

func (w *WatchConfig) Validate() error {
	if w.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if w.MaxBlockRange == 0 {
		return fmt.Errorf("max block range must be positive")
	}
	if w.DedupeSize <= 0 {
		return fmt.Errorf("dedupe size must be positive")
	}
	if w.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	if w.Burst <= 0 {
		return fmt.Errorf("burst size must be positive")
	}
	return nil
}

// RequireContracts returns the configured contract addresses
func (c *Config) RequireContracts() (balloon, dex common.Address, err error) {
	if c.Contracts.Balloon == "" || c.Contracts.DEX == "" {
		return common.Address{}, common.Address{}, fmt.Errorf("%w: set %s and %s", ErrMissingContracts, EnvBalloonAddress, EnvDEXAddress)
	}
	return common.HexToAddress(c.Contracts.Balloon), common.HexToAddress(c.Contracts.DEX), nil
}

// LoadSecureConfig reads secrets, which only ever come from the environment
func LoadSecureConfig() (*SecureConfig, error) {
	privateKey, err := GetRequiredEnv(EnvPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("private key not found: %w", err)
	}

	return &SecureConfig{
		PrivateKey: privateKey,
	}, nil
}
