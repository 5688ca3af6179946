package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/charti/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage charti configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  charti config init -o charti.yaml
  charti config validate -f charti.yaml`,
	}

	cmd.AddCommand(newConfigInitCmd(), newConfigValidateCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(out, "\nEdit the file and run with:")
			fmt.Fprintf(out, "  charti --config %s --download ...\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "charti.yaml", "output config file path")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration valid: %s\n", path)
			fmt.Fprintf(out, "  Intervals: %v\n", cfg.Download.Intervals)
			fmt.Fprintf(out, "  Output: %s (batch size %d)\n", cfg.Download.OutputFile, cfg.Download.BatchSize)
			fmt.Fprintf(out, "  Rate limit: %t, timeout %s\n", cfg.Exchange.RateLimit, cfg.Exchange.Timeout)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (required)")
	cmd.MarkFlagRequired("file")
	return cmd
}
