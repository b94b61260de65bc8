package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/leaderboard/internal/export"
)

var (
	resultsOutput outputFlags
	resultsFilter filterFlags
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Print one selected result per agent, model, and canonical benchmark",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "cli")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		results, err := newService(cfg, st, nil).FlatResults(ctx, resultsFilter.filter())
		if err != nil {
			return err
		}
		return resultsOutput.write(cmd.OutOrStdout(), export.ResultsTable(results), results)
	},
}

func init() {
	resultsOutput.register(resultsCmd)
	resultsFilter.register(resultsCmd)
	rootCmd.AddCommand(resultsCmd)
}
