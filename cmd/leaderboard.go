package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/leaderboard/internal/export"
	"github.com/sells-group/leaderboard/internal/pivot"
)

var (
	leaderboardOutput outputFlags
	leaderboardFilter filterFlags

	showDupModels     bool
	showDupBenchmarks bool
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Print the pivoted leaderboard with improvement over each base model",
	Long: `Print one row per model and agent with a column per benchmark.

Improvement is measured against the base model accuracy chosen by the
duplicate toggles: with both off, duplicates are folded into their
canonical model and benchmark before the base is looked up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, "cli")
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		opts := pivot.Options{ShowDupModels: showDupModels, ShowDupBenchmarks: showDupBenchmarks}
		rows, err := newService(cfg, st, nil).Pivoted(ctx, opts, leaderboardFilter.filter())
		if err != nil {
			return err
		}
		return leaderboardOutput.write(cmd.OutOrStdout(), export.LeaderboardTable(rows), rows)
	},
}

func init() {
	leaderboardCmd.Flags().BoolVar(&showDupModels, "show-dup-models", false, "measure improvement against the base model as registered, without folding duplicate models")
	leaderboardCmd.Flags().BoolVar(&showDupBenchmarks, "show-dup-benchmarks", false, "measure improvement against the base model's result on the exact benchmark, without merging duplicate benchmarks")
	leaderboardOutput.register(leaderboardCmd)
	leaderboardFilter.register(leaderboardCmd)
	rootCmd.AddCommand(leaderboardCmd)
}
