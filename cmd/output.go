package main

import (
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leaderboard/internal/export"
	"github.com/sells-group/leaderboard/internal/leaderboard"
)

// outputFlags are shared by every command that prints a view.
type outputFlags struct {
	format string
	out    string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	names := make([]string, len(export.Formats))
	for i, f := range export.Formats {
		names[i] = string(f)
	}
	cmd.Flags().StringVar(&o.format, "format", string(export.FormatTable), "output format: "+strings.Join(names, "|"))
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "write to file instead of stdout")
}

// write encodes the view to stdout or the --out file.
func (o *outputFlags) write(stdout io.Writer, t *export.Table, v any) error {
	f, err := export.ParseFormat(o.format)
	if err != nil {
		return err
	}
	if o.out == "" {
		if f.Binary() {
			return eris.Errorf("--format %s requires --out", f)
		}
		return export.Write(stdout, f, t, v)
	}

	file, err := os.Create(o.out)
	if err != nil {
		return eris.Wrapf(err, "create %s", o.out)
	}
	if err := export.Write(file, f, t, v); err != nil {
		file.Close() //nolint:errcheck
		return err
	}
	return eris.Wrapf(file.Close(), "close %s", o.out)
}

// filterFlags narrow a view by name after derivation.
type filterFlags struct {
	agent     string
	model     string
	benchmark string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.agent, "agent", "", "only rows for this agent name")
	cmd.Flags().StringVar(&f.model, "model", "", "only rows for this model name")
	cmd.Flags().StringVar(&f.benchmark, "benchmark", "", "only this canonical benchmark")
}

func (f *filterFlags) filter() leaderboard.Filter {
	return leaderboard.Filter{Agent: f.agent, Model: f.model, Benchmark: f.benchmark}
}
