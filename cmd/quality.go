package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/leaderboard/internal/export"
	"github.com/sells-group/leaderboard/internal/monitoring"
)

var (
	qualityOutput outputFlags
	qualityAlert  bool
)

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Report evaluation data quality",
	Long:  "Counts glitchy and incomplete jobs, fallback selections, and unresolved duplicate or base-model references.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "cli")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snap, err := newService(cfg, st, nil).Quality(ctx)
		if err != nil {
			return err
		}

		if qualityAlert {
			alerter := monitoring.NewAlerter(cfg.Monitoring)
			alerter.SendAlerts(ctx, alerter.Evaluate(snap))
		}
		return qualityOutput.write(cmd.OutOrStdout(), export.QualityTable(snap), snap)
	},
}

func init() {
	qualityCmd.Flags().BoolVar(&qualityAlert, "alert", false, "send threshold alerts to monitoring.webhook_url")
	qualityOutput.register(qualityCmd)
	rootCmd.AddCommand(qualityCmd)
}
