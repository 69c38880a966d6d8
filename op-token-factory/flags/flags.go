package flags

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/common"

	oplog "github.com/mantlenetworkio/mantle-token-factory/op-service/log"
	opmetrics "github.com/mantlenetworkio/mantle-token-factory/op-service/metrics"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/config"
)

const EnvVarPrefix = "OP_TOKEN_FACTORY"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + strings.ToUpper(name)}
}

var defaults = config.DefaultCLIConfig()

var (
	BridgeFlag = &cli.StringFlag{
		Name:    "bridge",
		Usage:   "Address of the bridge every deployed token is bound to",
		EnvVars: prefixEnvVars("BRIDGE"),
		Value:   defaults.BridgeAddress.Hex(),
	}
	FactoryFlag = &cli.StringFlag{
		Name:    "factory",
		Usage:   "Address of the OptimismMintableERC20Factory",
		EnvVars: prefixEnvVars("FACTORY"),
		Value:   defaults.FactoryAddress.Hex(),
	}
	L2RPCFlag = &cli.StringFlag{
		Name:    "l2-rpc",
		Usage:   "L2 node RPC to index factory events from. When set, no local factory is run",
		EnvVars: prefixEnvVars("L2_RPC"),
	}
	RPCListenAddrFlag = &cli.StringFlag{
		Name:    "rpc.addr",
		Usage:   "RPC listening address",
		EnvVars: prefixEnvVars("RPC_ADDR"),
		Value:   defaults.RPC.ListenAddr,
	}
	RPCListenPortFlag = &cli.IntFlag{
		Name:    "rpc.port",
		Usage:   "RPC listening port",
		EnvVars: prefixEnvVars("RPC_PORT"),
		Value:   defaults.RPC.ListenPort,
	}
	DataDirFlag = &cli.StringFlag{
		Name:    "indexer.datadir",
		Usage:   "Directory of the deployment index. Empty keeps the index in memory",
		EnvVars: prefixEnvVars("INDEXER_DATADIR"),
	}
	StartBlockFlag = &cli.Uint64Flag{
		Name:    "indexer.start-block",
		Usage:   "First block to index when the index is empty",
		EnvVars: prefixEnvVars("INDEXER_START_BLOCK"),
	}
	MaxBlockRangeFlag = &cli.Uint64Flag{
		Name:    "indexer.max-block-range",
		Usage:   "Maximum number of blocks per log query",
		EnvVars: prefixEnvVars("INDEXER_MAX_BLOCK_RANGE"),
		Value:   defaults.Indexer.MaxBlockRange,
	}
	PollIntervalFlag = &cli.DurationFlag{
		Name:    "indexer.poll-interval",
		Usage:   "How often the indexer polls for new blocks",
		EnvVars: prefixEnvVars("INDEXER_POLL_INTERVAL"),
		Value:   defaults.Indexer.PollInterval,
	}
	RequestsPerSecondFlag = &cli.Float64Flag{
		Name:    "indexer.rps",
		Usage:   "Maximum log queries per second against the L2 node. 0 disables the limit",
		EnvVars: prefixEnvVars("INDEXER_RPS"),
		Value:   defaults.Indexer.RequestsPerSecond,
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	BridgeFlag,
	FactoryFlag,
	L2RPCFlag,
	RPCListenAddrFlag,
	RPCListenPortFlag,
	DataDirFlag,
	StartBlockFlag,
	MaxBlockRangeFlag,
	PollIntervalFlag,
	RequestsPerSecondFlag,
}

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(Flags, requiredFlags...)
	Flags = append(Flags, optionalFlags...)
}

// Flags contains the list of configuration options available to the binary.
var Flags []cli.Flag

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}

func parseAddress(ctx *cli.Context, flag *cli.StringFlag) (common.Address, error) {
	v := ctx.String(flag.Name)
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("invalid --%s address %q", flag.Name, v)
	}
	return common.HexToAddress(v), nil
}

func ConfigFromCLI(ctx *cli.Context, version string) (*config.Config, error) {
	if err := CheckRequired(ctx); err != nil {
		return nil, err
	}
	bridge, err := parseAddress(ctx, BridgeFlag)
	if err != nil {
		return nil, err
	}
	factoryAddr, err := parseAddress(ctx, FactoryFlag)
	if err != nil {
		return nil, err
	}
	logCfg, err := oplog.ReadCLIConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &config.Config{
		Version:       version,
		LogConfig:     logCfg,
		MetricsConfig: opmetrics.ReadCLIConfig(ctx),
		RPC: config.RPCConfig{
			ListenAddr: ctx.String(RPCListenAddrFlag.Name),
			ListenPort: ctx.Int(RPCListenPortFlag.Name),
		},
		Indexer: config.IndexerConfig{
			DataDir:       ctx.String(DataDirFlag.Name),
			StartBlock:    ctx.Uint64(StartBlockFlag.Name),
			MaxBlockRange: ctx.Uint64(MaxBlockRangeFlag.Name),
			PollInterval:  ctx.Duration(PollIntervalFlag.Name),

			RequestsPerSecond: ctx.Float64(RequestsPerSecondFlag.Name),
		},
		FactoryAddress: factoryAddr,
		BridgeAddress:  bridge,
		L2RPC:          ctx.String(L2RPCFlag.Name),
	}, nil
}
