package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"
)

const (
	LevelFlagName  = "log.level"
	FormatFlagName = "log.format"
	ColorFlagName  = "log.color"
)

// FormatType defines a type of log format.
type FormatType string

const (
	FormatText     FormatType = "text"
	FormatTerminal FormatType = "terminal"
	FormatLogFmt   FormatType = "logfmt"
	FormatJSON     FormatType = "json"
)

var formatTypes = []FormatType{FormatText, FormatTerminal, FormatLogFmt, FormatJSON}

func (ft FormatType) String() string {
	return string(ft)
}

func (ft *FormatType) Set(value string) error {
	for _, t := range formatTypes {
		if string(t) == value {
			*ft = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized log-format: %q", value)
}

// LevelFromString parses a log level name, case-insensitive.
func LevelFromString(lvlString string) (slog.Level, error) {
	switch strings.ToLower(lvlString) {
	case "trace":
		return log.LevelTrace, nil
	case "debug", "dbug":
		return log.LevelDebug, nil
	case "info":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error", "eror":
		return log.LevelError, nil
	case "crit":
		return log.LevelCrit, nil
	default:
		return log.LevelDebug, fmt.Errorf("unknown level: %v", lvlString)
	}
}

func prefixEnvVars(prefix, name string) []string {
	return []string{strings.ToUpper(prefix) + "_" + name}
}

// CLIFlags creates the log flags, with env vars under the given prefix.
func CLIFlags(envPrefix string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    LevelFlagName,
			Usage:   "The lowest log level that will be output",
			Value:   "info",
			EnvVars: prefixEnvVars(envPrefix, "LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    FormatFlagName,
			Usage:   "Format the log output. Supported formats: 'text', 'terminal', 'logfmt', 'json'",
			Value:   FormatText.String(),
			EnvVars: prefixEnvVars(envPrefix, "LOG_FORMAT"),
		},
		&cli.BoolFlag{
			Name:    ColorFlagName,
			Usage:   "Color the log output if in terminal mode",
			EnvVars: prefixEnvVars(envPrefix, "LOG_COLOR"),
		},
	}
}

type CLIConfig struct {
	Level  slog.Level
	Color  bool
	Format FormatType
}

func DefaultCLIConfig() CLIConfig {
	return CLIConfig{
		Level:  log.LevelInfo,
		Format: FormatText,
		Color:  isatty.IsTerminal(os.Stdout.Fd()),
	}
}

// ReadCLIConfig reads the log config from the CLI context.
func ReadCLIConfig(ctx *cli.Context) (CLIConfig, error) {
	cfg := DefaultCLIConfig()
	lvl, err := LevelFromString(ctx.String(LevelFlagName))
	if err != nil {
		return cfg, fmt.Errorf("invalid --%s: %w", LevelFlagName, err)
	}
	cfg.Level = lvl
	if err := cfg.Format.Set(ctx.String(FormatFlagName)); err != nil {
		return cfg, fmt.Errorf("invalid --%s: %w", FormatFlagName, err)
	}
	if ctx.IsSet(ColorFlagName) {
		cfg.Color = ctx.Bool(ColorFlagName)
	}
	return cfg, nil
}

// Handler builds the slog handler described by the config.
func (cfg CLIConfig) Handler(w io.Writer) slog.Handler {
	switch cfg.Format {
	case FormatJSON:
		return JSONMsHandlerWithLevel(w, cfg.Level)
	case FormatLogFmt:
		return LogfmtMsHandlerWithLevel(w, cfg.Level)
	default:
		return log.NewTerminalHandlerWithLevel(w, cfg.Level, cfg.Color)
	}
}

// NewLogger creates a new configured logger.
func NewLogger(wr io.Writer, cfg CLIConfig) log.Logger {
	return log.NewLogger(cfg.Handler(wr))
}

// SetGlobalLogHandler sets the log handler of the global geth logger.
func SetGlobalLogHandler(h slog.Handler) {
	log.SetDefault(log.NewLogger(h))
}

// SetupDefaults sets up terminal logging to stdout at info level until a configured logger is set.
func SetupDefaults() {
	SetGlobalLogHandler(log.NewTerminalHandlerWithLevel(os.Stdout, log.LevelInfo, isatty.IsTerminal(os.Stdout.Fd())))
}
