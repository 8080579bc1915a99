package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gnolang/banimports/lint"
)

const defaultTimeout = 5 * time.Minute

// errIssuesFound makes the process exit with status 1 after check has
// printed its report.
var errIssuesFound = errors.New("banned imports found")

type rootOptions struct {
	cfgFile string
	timeout time.Duration
	verbose bool

	logger *zap.Logger
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	genOpts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "banimports",
		Short: "banimports - list the Python 2 imports that Python 3 removed or moved",
		Long: `banimports prints a flake8 "banned-modules" configuration that bans every
Python 2 module and name which is gone or renamed in Python 3, with a message
pointing at the replacement.

Run without a subcommand to generate from ./six-moves.tsv to stdout.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logger != nil {
				return nil
			}
			logger, err := newLogger(opts.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, genOpts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", lint.DefaultConfigPath, "Path to the configuration file")
	flags.DurationVar(&opts.timeout, "timeout", defaultTimeout, "Timeout for checking files")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newGenerateCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newInitCmd(opts))
	return cmd
}

// newLogger logs to stderr, keeping stdout for the generated configuration.
func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

// loadConfig reads the configuration file. A missing file is an error only
// when --config was given explicitly.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (lint.Config, error) {
	cfg, err := lint.ParseConfigurationFile(opts.cfgFile)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		opts.logger.Debug("no configuration file, using defaults", zap.String("path", opts.cfgFile))
		return lint.DefaultConfig(), nil
	}
	return cfg, err
}

func Execute() error {
	opts := &rootOptions{}
	err := newRootCmd(opts).Execute()
	if err == nil || errors.Is(err, errIssuesFound) {
		return err
	}

	if opts.logger != nil {
		opts.logger.Error("banimports failed", zap.Error(err))
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return err
}
