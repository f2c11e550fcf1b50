package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/lcsc-lookup/cmd/lookup"
	"github.com/lepinkainen/lcsc-lookup/internal/config"
	lookuperrors "github.com/lepinkainen/lcsc-lookup/internal/errors"
	"github.com/lepinkainen/lcsc-lookup/internal/progress"
)

var runLookup = lookup.Run

const description = `Look up LCSC product codes and write their details to a CSV report.

Product codes are given as C######,C######,... either inline or in a file.
In 'file' mode the report is written to <path>.csv, in 'inline' mode to output.csv.`

// CLI represents the complete command structure for the lcsc-lookup application
type CLI struct {
	Mode   string `arg:"" enum:"file,inline" help:"Mode to operate in: 'file' reads codes from a file, 'inline' takes them from the next argument"`
	Source string `arg:"" help:"Path to a file of product codes (file mode) or product_code[,product_code...] (inline mode)"`

	Output string `short:"o" help:"Write the report here instead of the mode's default path"`

	// Lookup tuning; zero values leave the configured value in place
	Workers   int    `help:"Maximum number of lookups in flight"`
	Stagger   string `help:"Delay between successive lookups (e.g. 100ms, 0 to disable)"`
	Timeout   string `help:"Per-lookup timeout (e.g. 30s)"`
	UserAgent string `help:"User-Agent header sent to the catalog"`
	Endpoint  string `help:"Catalog product detail endpoint"`

	NoProgress bool   `help:"Disable the progress indicator"`
	NoMemo     bool   `help:"Request repeated product codes again instead of reusing the first answer"`
	LogLevel   string `help:"Log level (debug, info, warn, error)"`
}

// Run executes the lookup with the resolved configuration.
func (c *CLI) Run(ctx context.Context, cfg config.Config) error {
	return runLookup(ctx, lookup.Options{
		Mode:   c.Mode,
		Source: c.Source,
		Output: c.Output,
		Config: cfg,
	})
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	return kong.New(cli, append([]kong.Option{
		kong.Name("lcsc-lookup"),
		kong.Description(description),
		kong.UsageOnError(),
	}, options...)...)
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging(slog.LevelInfo)

	if err := initConfig(); err != nil {
		slog.Error("Fatal error config file", "error", err)
		os.Exit(1)
	}

	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		slog.Error("Failed to build command line parser", "error", err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := updateGlobalConfig(&cli); err != nil {
		failUsage(kctx, err)
	}

	cfg := config.Load()
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		failUsage(kctx, err)
	}
	initLogging(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = cli.Run(ctx, cfg)
	stop()

	if err != nil {
		if lookuperrors.IsUsageError(err) {
			failUsage(kctx, err)
		}
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// failUsage prints the error followed by usage text and exits non-zero.
func failUsage(kctx *kong.Context, err error) {
	kctx.Errorf("%s", err)
	_ = kctx.PrintUsage(false)
	kctx.Exit(2)
}

func initConfig() error {
	config.SetDefaults()

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Debug("Config file not found, using defaults")
			return nil
		}
		return err
	}

	slog.Debug("Using config file", "path", viper.ConfigFileUsed())
	return nil
}

// updateGlobalConfig applies explicitly given flags on top of config and environment.
func updateGlobalConfig(cli *CLI) error {
	if cli.Workers < 0 {
		return lookuperrors.NewUsageError(fmt.Sprintf("--workers must be positive, got %d", cli.Workers))
	}
	if cli.Workers > 0 {
		viper.Set(config.KeyWorkers, cli.Workers)
	}

	if cli.Stagger != "" {
		d, err := parseDuration("--stagger", cli.Stagger)
		if err != nil {
			return err
		}
		viper.Set(config.KeyStagger, d)
	}

	if cli.Timeout != "" {
		d, err := parseDuration("--timeout", cli.Timeout)
		if err != nil {
			return err
		}
		viper.Set(config.KeyTimeout, d)
	}

	if cli.UserAgent != "" {
		viper.Set(config.KeyUserAgent, cli.UserAgent)
	}
	if cli.Endpoint != "" {
		viper.Set(config.KeyEndpoint, cli.Endpoint)
	}
	if cli.NoProgress {
		viper.Set(config.KeyProgress, false)
	}
	if cli.NoMemo {
		viper.Set(config.KeyMemo, false)
	}

	if cli.LogLevel != "" {
		if _, err := parseLevel(cli.LogLevel); err != nil {
			return err
		}
		viper.Set(config.KeyLogLevel, cli.LogLevel)
	}

	return nil
}

func parseDuration(flag, value string) (time.Duration, error) {
	// A bare 0 is accepted so "--stagger 0" disables spacing.
	if value == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, lookuperrors.NewUsageError(fmt.Sprintf("%s: invalid duration %q", flag, value))
	}
	return d, nil
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, lookuperrors.NewUsageError(fmt.Sprintf("invalid log level %q", value))
	}
	return level, nil
}

func initLogging(level slog.Level) {
	// Logs go to stderr, above the progress bar while one is drawn; stdout
	// carries the summary.
	handler := humanlog.NewHandler(progress.Logs, &humanlog.Options{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
