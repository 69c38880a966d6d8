package log

import (
	"bytes"
	"encoding/json"
	"flag"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
)

func cliContext(t *testing.T, args ...string) *cli.Context {
	app := cli.NewApp()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range CLIFlags("TEST") {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func TestReadCLIConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := ReadCLIConfig(cliContext(t))
		require.NoError(t, err)
		require.Equal(t, log.LevelInfo, cfg.Level)
		require.Equal(t, FormatText, cfg.Format)
	})
	t.Run("Custom", func(t *testing.T) {
		cfg, err := ReadCLIConfig(cliContext(t, "--log.level=debug", "--log.format=json", "--log.color"))
		require.NoError(t, err)
		require.Equal(t, log.LevelDebug, cfg.Level)
		require.Equal(t, FormatJSON, cfg.Format)
		require.True(t, cfg.Color)
	})
	t.Run("InvalidLevel", func(t *testing.T) {
		_, err := ReadCLIConfig(cliContext(t, "--log.level=verbose"))
		require.ErrorContains(t, err, "--log.level")
	})
	t.Run("InvalidFormat", func(t *testing.T) {
		_, err := ReadCLIConfig(cliContext(t, "--log.format=xml"))
		require.ErrorContains(t, err, "--log.format")
	})
}

func TestLevelFromString(t *testing.T) {
	lvl, err := LevelFromString("WARN")
	require.NoError(t, err)
	require.Equal(t, log.LevelWarn, lvl)
	_, err = LevelFromString("nope")
	require.Error(t, err)
}

func TestJSONHandlerRendersValues(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, CLIConfig{Level: log.LevelInfo, Format: FormatJSON})
	addr := common.HexToAddress("0x4200000000000000000000000000000000000012")
	var nilAddr *common.Address
	logger.Info("created", "token", addr, "missing", nilAddr, "big", big.NewInt(42), "u256", uint256.NewInt(7))
	logger.Debug("filtered out")

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, "created", out["msg"])
	require.Equal(t, "info", out["lvl"])
	require.Equal(t, addr.String(), out["token"])
	require.Equal(t, "<nil>", out["missing"])
	require.Equal(t, "42", out["big"])
	require.Equal(t, "7", out["u256"])
	require.Contains(t, out, "t")
}
