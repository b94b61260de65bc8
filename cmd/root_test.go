package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every subcommand flag to its default; cobra keeps
// parsed values on the package-level commands between executions.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil); rootCmd.SetErr(nil) })
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "results", "leaderboard", "benchmarks", "quality", "migrate"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "leaderboard", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestLeaderboardCommand_Flags(t *testing.T) {
	for _, name := range []string{"show-dup-models", "show-dup-benchmarks"} {
		flag := leaderboardCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "leaderboard should have --%s flag", name)
		assert.Equal(t, "false", flag.DefValue)
		assert.Contains(t, flag.Usage, "improvement against the base model")
		assert.NotContains(t, flag.Usage, "own rows")
		assert.NotContains(t, flag.Usage, "own columns")
	}
	for _, name := range []string{"format", "out", "agent", "model", "benchmark"} {
		assert.NotNil(t, leaderboardCmd.Flags().Lookup(name), "leaderboard should have --%s flag", name)
	}
	assert.Equal(t, "table", leaderboardCmd.Flags().Lookup("format").DefValue)
}

func TestViewCommands_HaveFormatFlag(t *testing.T) {
	assert.NotNil(t, resultsCmd.Flags().Lookup("format"))
	assert.NotNil(t, resultsCmd.Flags().Lookup("agent"))
	assert.NotNil(t, benchmarksCmd.Flags().Lookup("format"))
	assert.NotNil(t, qualityCmd.Flags().Lookup("format"))
	assert.NotNil(t, qualityCmd.Flags().Lookup("alert"))
}
