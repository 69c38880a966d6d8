package config

import (
	"errors"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"

	oplog "github.com/mantlenetworkio/mantle-token-factory/op-service/log"
	opmetrics "github.com/mantlenetworkio/mantle-token-factory/op-service/metrics"
	"github.com/mantlenetworkio/mantle-token-factory/op-service/predeploys"
)

var (
	ErrMissingBridge       = errors.New("bridge address must be set when running the local factory")
	ErrMissingFactory      = errors.New("factory address must be set")
	ErrInvalidRPCPort      = errors.New("invalid RPC port")
	ErrInvalidPollInterval = errors.New("indexer poll interval must be positive")
	ErrInvalidBlockRange   = errors.New("indexer max block range must be positive")
	ErrInvalidRequestRate  = errors.New("indexer request rate must not be negative")

	// ErrPersistentLocalIndex is returned for an on-disk index of the in-memory chain,
	// which restarts at genesis and recreates the token addresses of stored records.
	ErrPersistentLocalIndex = errors.New("indexer data dir cannot be used with the local in-memory chain")
)

type RPCConfig struct {
	ListenAddr string
	ListenPort int
}

func (c RPCConfig) Check() error {
	if c.ListenPort < 0 || c.ListenPort > math.MaxUint16 {
		return ErrInvalidRPCPort
	}
	return nil
}

type IndexerConfig struct {
	DataDir       string
	StartBlock    uint64
	MaxBlockRange uint64
	PollInterval  time.Duration
	// RequestsPerSecond limits log queries against the L2 node. Zero means unlimited.
	RequestsPerSecond float64
}

func (c IndexerConfig) Check() error {
	var result error
	if c.PollInterval <= 0 {
		result = errors.Join(result, ErrInvalidPollInterval)
	}
	if c.MaxBlockRange == 0 {
		result = errors.Join(result, ErrInvalidBlockRange)
	}
	if c.RequestsPerSecond < 0 {
		result = errors.Join(result, ErrInvalidRequestRate)
	}
	return result
}

type Config struct {
	Version string

	LogConfig     oplog.CLIConfig
	MetricsConfig opmetrics.CLIConfig
	RPC           RPCConfig
	Indexer       IndexerConfig

	// FactoryAddress is where the factory lives, locally or on the remote L2.
	FactoryAddress common.Address
	// BridgeAddress configures the local factory. Unused in indexer-only mode.
	BridgeAddress common.Address

	// L2RPC switches the service to indexer-only mode against an existing L2 node.
	L2RPC string
}

// LocalMode reports whether the service runs its own in-memory chain with a factory on it.
func (c *Config) LocalMode() bool {
	return c.L2RPC == ""
}

func (c *Config) Check() error {
	var result error
	result = errors.Join(result, c.MetricsConfig.Check())
	result = errors.Join(result, c.RPC.Check())
	result = errors.Join(result, c.Indexer.Check())
	if c.LocalMode() && c.BridgeAddress == (common.Address{}) {
		result = errors.Join(result, ErrMissingBridge)
	}
	if c.LocalMode() && c.Indexer.DataDir != "" {
		result = errors.Join(result, ErrPersistentLocalIndex)
	}
	if c.FactoryAddress == (common.Address{}) {
		result = errors.Join(result, ErrMissingFactory)
	}
	return result
}

func DefaultCLIConfig() *Config {
	return &Config{
		Version:       "dev",
		LogConfig:     oplog.DefaultCLIConfig(),
		MetricsConfig: opmetrics.DefaultCLIConfig(),
		RPC: RPCConfig{
			ListenAddr: "0.0.0.0",
			ListenPort: 8545,
		},
		Indexer: IndexerConfig{
			MaxBlockRange: 1000,
			PollInterval:  2 * time.Second,
		},
		FactoryAddress: predeploys.OptimismMintableERC20FactoryAddr,
		BridgeAddress:  predeploys.L2StandardBridgeAddr,
	}
}
