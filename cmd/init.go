package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/banimports/lint"
)

// initCmd: banimports init
func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfigurationFile(opts.cfgFile); err != nil {
				return fmt.Errorf("initializing config file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created/updated: %s\n", opts.cfgFile)
			return nil
		},
	}
}

func initConfigurationFile(configurationPath string) error {
	if configurationPath == "" {
		configurationPath = lint.DefaultConfigPath
	}

	d, err := yaml.Marshal(lint.DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(configurationPath, d, 0o644)
}
