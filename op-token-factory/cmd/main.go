package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	opservice "github.com/mantlenetworkio/mantle-token-factory/op-service"
	oplog "github.com/mantlenetworkio/mantle-token-factory/op-service/log"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/bindings"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/flags"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/indexer"
	"github.com/mantlenetworkio/mantle-token-factory/op-token-factory/service"
)

var (
	Version   = "v0.0.0"
	GitCommit = ""
	GitDate   = ""
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args)
	stop()
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx context.Context, w io.Writer, ew io.Writer, args []string) error {
	oplog.SetupDefaults()

	app := cli.NewApp()
	app.Writer = w
	app.ErrWriter = ew
	app.Flags = flags.Flags
	app.Version = opservice.FormatVersion(Version, GitCommit, GitDate, "")
	app.Name = "op-token-factory"
	app.Usage = "Serves an OptimismMintableERC20Factory and indexes the tokens it creates."
	app.Description = "Runs a local token factory behind a JSON-RPC API, or indexes the creation\n" +
		" events of a factory on an existing L2 when --l2-rpc is set."
	app.Action = serve
	app.Commands = []*cli.Command{
		{
			Name:  "calldata",
			Usage: "Prints the ABI-encoded calldata of a factory create call",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "remote", Usage: "Address of the remote token", Required: true},
				&cli.StringFlag{Name: "name", Usage: "Token name"},
				&cli.StringFlag{Name: "symbol", Usage: "Token symbol"},
				&cli.BoolFlag{Name: "legacy", Usage: "Encode a createStandardL2Token call"},
			},
			Action: calldata,
		},
		{
			Name:  "deployments",
			Usage: "Lists the indexed tokens created for a remote token by a running service",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "rpc", Usage: "RPC endpoint of the token factory service", Value: "http://127.0.0.1:8545"},
				&cli.StringFlag{Name: "remote", Usage: "Address of the remote token", Required: true},
			},
			Action: deployments,
		},
	}
	return app.RunContext(ctx, args)
}

// serve runs the service until the context is cancelled.
func serve(cliCtx *cli.Context) error {
	cfg, err := flags.ConfigFromCLI(cliCtx, cliCtx.App.Version)
	if err != nil {
		return err
	}
	logger := oplog.NewLogger(cliCtx.App.Writer, cfg.LogConfig)
	oplog.SetGlobalLogHandler(logger.Handler())

	ctx := cliCtx.Context
	s, err := service.FromConfig(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to set up service: %w", err)
	}
	if err := s.Start(ctx); err != nil {
		return errors.Join(fmt.Errorf("failed to start service: %w", err), s.Stop(context.Background()))
	}
	logger.Info("Token factory service started", "version", cfg.Version, "rpc", s.RPCEndpoint())

	<-ctx.Done()
	logger.Info("Shutting down")
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Stop(stopCtx)
}

func calldata(cliCtx *cli.Context) error {
	remote := cliCtx.String("remote")
	if !common.IsHexAddress(remote) {
		return fmt.Errorf("invalid --remote address %q", remote)
	}
	data, err := bindings.CreateCalldata(cliCtx.Bool("legacy"), common.HexToAddress(remote), cliCtx.String("name"), cliCtx.String("symbol"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cliCtx.App.Writer, hexutil.Encode(data))
	return err
}

func deployments(cliCtx *cli.Context) error {
	remote := cliCtx.String("remote")
	if !common.IsHexAddress(remote) {
		return fmt.Errorf("invalid --remote address %q", remote)
	}
	ctx := cliCtx.Context
	client, err := rpc.DialContext(ctx, cliCtx.String("rpc"))
	if err != nil {
		return fmt.Errorf("failed to dial token factory service: %w", err)
	}
	defer client.Close()

	var result []*indexer.Deployment
	if err := client.CallContext(ctx, &result, service.Namespace+"_deploymentsByRemote", common.HexToAddress(remote)); err != nil {
		return fmt.Errorf("failed to fetch deployments: %w", err)
	}

	table := tablewriter.NewWriter(cliCtx.App.Writer)
	table.SetHeader([]string{"Local token", "Deployer", "Block", "Transaction", "Events"})
	for _, d := range result {
		table.Append([]string{
			d.LocalToken.Hex(),
			d.Deployer.Hex(),
			fmt.Sprint(d.BlockNumber),
			d.TxHash.Hex(),
			eventsLabel(d),
		})
	}
	table.Render()
	return nil
}

func eventsLabel(d *indexer.Deployment) string {
	switch {
	case d.LegacyEvent && d.CurrentEvent:
		return "both"
	case d.LegacyEvent:
		return "legacy"
	default:
		return "current"
	}
}
