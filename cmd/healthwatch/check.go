package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/healthwatch/alert"
	"github.com/jonwraymond/healthwatch/config"
	"github.com/jonwraymond/healthwatch/health"
)

// Exit codes of the check command.
const (
	exitHealthy  = 0
	exitWarning  = 1
	exitCritical = 2
)

// checkOutput is the JSON printed by the check command.
type checkOutput struct {
	Status health.StatusResponse `json:"status"`
	Alerts []alert.Alert          `json:"alerts"`
}

func newCheckCmd(root *rootOptions) *cobra.Command {
	var withNotify bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one tick, print the status and exit 0, 1 or 2 for healthy, warning or critical",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath, root.envFile)
			if err != nil {
				return err
			}
			code, err := check(cmd.Context(), cfg, withNotify, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if code != exitHealthy {
				return exitError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withNotify, "notify", false, "deliver alerts raised by the tick")
	return cmd
}

func check(ctx context.Context, cfg config.Config, withNotify bool, out io.Writer) (code int, err error) {
	// One-shot runs should not spam stderr with info logs.
	if cfg.Observe.Logging.Level == "info" {
		cfg.Observe.Logging.Level = "warn"
	}

	a, err := newApp(ctx, cfg, withNotify)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := a.close(context.Background()); err == nil {
			err = cerr
		}
	}()

	report, err := a.monitor.RunTick(ctx)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(checkOutput{
		Status: health.NewStatusResponse(report.Status),
		Alerts: append([]alert.Alert{}, report.Alerts.Open...),
	}); err != nil {
		return 0, err
	}

	switch report.Status.Overall {
	case health.StatusCritical:
		return exitCritical, nil
	case health.StatusWarning:
		return exitWarning, nil
	default:
		return exitHealthy, nil
	}
}
