package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/banimports/formatter"
	"github.com/gnolang/banimports/lint"
)

type generateOptions struct {
	table  string
	output string
}

// generateCmd: banimports generate
func newGenerateCmd(opts *rootOptions) *cobra.Command {
	genOpts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print the flake8 banned-modules configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, genOpts)
		},
	}
	cmd.Flags().StringVar(&genOpts.table, "table", "", "Path to the six.moves table (default from config, six-moves.tsv)")
	cmd.Flags().StringVarP(&genOpts.output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

// runGenerate builds the whole catalog before writing anything, so a
// failed run leaves no partial output.
func runGenerate(cmd *cobra.Command, opts *rootOptions, genOpts *generateOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if genOpts.table != "" {
		cfg.Table = genOpts.table
	}
	if genOpts.output != "" {
		cfg.Output = genOpts.output
	}

	entries, err := lint.Generate(cfg, opts.logger)
	if err != nil {
		return err
	}

	if cfg.Output == "" {
		return formatter.RenderFlake8(cmd.OutOrStdout(), entries)
	}

	var buf bytes.Buffer
	if err := formatter.RenderFlake8(&buf, entries); err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Output, err)
	}
	opts.logger.Info("wrote banned-modules configuration",
		zap.String("path", cfg.Output),
		zap.Int("entries", len(entries)))
	return nil
}
