package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/healthwatch/config"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath, root.envFile)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration ok: %d probes, %d thresholds, notifications %s\n",
				cfg.Probes.Count(), len(cfg.Thresholds), enabled(cfg.Notify.Enabled()))
			return nil
		},
	}
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
