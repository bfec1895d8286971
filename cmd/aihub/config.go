package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/aihub/internal/config"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Manage the configuration file",
	Annotations: map[string]string{skipConfig: "true"},
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration",
	Long: `Write the default configuration to --config, or to
~/.config/aihub/config.toml when no path is given. An existing file is
overwritten.`,
	Args: cobra.NoArgs,
	RunE: runConfigGenerate,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where the configuration is read from",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), configPath())
	},
}

func init() {
	configCmd.AddCommand(configGenCmd, configPathCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

func runConfigGenerate(cmd *cobra.Command, _ []string) error {
	path := configPath()
	if err := config.GenerateDefaultConfig(path); err != nil {
		return fmt.Errorf("generating config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
	return nil
}
