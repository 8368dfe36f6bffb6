package main

import (
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "healthwatch",
		Short: "Health and alert monitor for service dependencies",
		Long: `healthwatch probes service dependencies on a schedule, aggregates
their status, evaluates metric thresholds and raises deduplicated alerts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultConfig := os.Getenv("HEALTHWATCH_CONFIG")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfig, "path to the YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the configuration")

	cmd.AddCommand(
		newServeCmd(opts),
		newCheckCmd(opts),
		newValidateCmd(opts),
	)
	return cmd
}
