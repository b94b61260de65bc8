package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/leaderboard/internal/export"
)

var benchmarksOutput outputFlags

var benchmarksCmd = &cobra.Command{
	Use:   "benchmarks",
	Short: "List canonical benchmarks and their duplicates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "cli")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		groups, err := newService(cfg, st, nil).Benchmarks(ctx)
		if err != nil {
			return err
		}
		return benchmarksOutput.write(cmd.OutOrStdout(), export.BenchmarksTable(groups), groups)
	},
}

func init() {
	benchmarksOutput.register(benchmarksCmd)
	rootCmd.AddCommand(benchmarksCmd)
}
