package export

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/leaderboard/internal/model"
	"github.com/sells-group/leaderboard/internal/monitoring"
)

// Table is a rectangular rendering of a view. Empty cells mean "no value".
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

// ResultsTable renders flat results, one row per triple.
func ResultsTable(results []model.CanonicalResult) *Table {
	t := &Table{
		Title:  "results",
		Header: []string{"AGENT", "MODEL", "BENCHMARK", "SOURCE_BENCHMARK", "ACCURACY", "STDERR", "POOL", "MEETS_THRESHOLD", "BASE_MODEL", "ENDED_AT", "JOB_ID"},
	}
	for _, r := range results {
		t.Rows = append(t.Rows, []string{
			r.AgentName,
			r.ModelName,
			r.CanonicalBenchmarkName,
			r.SourceBenchmarkName,
			pct(r.Accuracy),
			pct(r.Stderr),
			strconv.Itoa(r.PoolSize),
			strconv.FormatBool(r.MeetsThreshold),
			r.BaseModelName,
			timestamp(r.EndedAt),
			r.JobID,
		})
	}
	return t
}

// LeaderboardTable renders pivoted rows with an accuracy and an improvement
// column per benchmark. Benchmark columns are sorted by name.
func LeaderboardTable(rows []model.PivotedRow) *Table {
	benchmarks := BenchmarkColumns(rows)

	t := &Table{
		Title:  "leaderboard",
		Header: []string{"MODEL", "AGENT", "BASE_MODEL", "CANONICAL_MODEL", "DUPLICATE"},
	}
	for _, b := range benchmarks {
		t.Header = append(t.Header, b, b+" Δ")
	}
	t.Header = append(t.Header, "FIRST_EVAL", "LATEST_EVAL")

	for _, r := range rows {
		out := []string{
			r.ModelName,
			r.AgentName,
			r.BaseModelName,
			r.CanonicalModelName,
			strconv.FormatBool(r.IsDuplicateModel),
		}
		for _, b := range benchmarks {
			cell, ok := r.Benchmarks[b]
			if !ok {
				out = append(out, "", "")
				continue
			}
			out = append(out, pct(cell.Accuracy), signed(cell.Improvement))
		}
		out = append(out, optTimestamp(r.FirstEvalEndedAt), optTimestamp(r.LatestEvalEndedAt))
		t.Rows = append(t.Rows, out)
	}
	return t
}

// BenchmarkColumns returns the sorted union of benchmark keys across rows.
func BenchmarkColumns(rows []model.PivotedRow) []string {
	seen := map[string]struct{}{}
	for _, r := range rows {
		for name := range r.Benchmarks {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// BenchmarksTable renders canonical benchmarks and their duplicates.
func BenchmarksTable(groups []model.BenchmarkGroup) *Table {
	t := &Table{Title: "benchmarks", Header: []string{"ID", "NAME", "DUPLICATES"}}
	for _, g := range groups {
		t.Rows = append(t.Rows, []string{g.ID, g.Name, strings.Join(g.Duplicates, ", ")})
	}
	return t
}

// QualityTable renders a data-quality snapshot as metric/value pairs
// followed by one row per unresolved reference and skipped job.
func QualityTable(q *monitoring.Snapshot) *Table {
	t := &Table{Title: "quality", Header: []string{"METRIC", "VALUE"}}
	add := func(k, v string) { t.Rows = append(t.Rows, []string{k, v}) }

	add("jobs", strconv.Itoa(q.Jobs))
	add("jobs_missing_accuracy", strconv.Itoa(q.JobsMissingAccuracy))
	add("jobs_missing_stderr", strconv.Itoa(q.JobsMissingStderr))
	add("glitchy_jobs", strconv.Itoa(q.GlitchyJobs))
	add("glitch_rate", strconv.FormatFloat(q.GlitchRate, 'f', 4, 64))
	add("triples", strconv.Itoa(q.Triples))
	add("fallback_selections", strconv.Itoa(q.FallbackSelections))
	add("models", strconv.Itoa(q.Models))
	add("zero_eval_models", strconv.Itoa(q.ZeroEvalModels))
	add("duplicate_models", strconv.Itoa(q.DuplicateModels))
	add("duplicate_benchmarks", strconv.Itoa(q.DuplicateBenchmarks))
	add("unresolved_references", strconv.Itoa(q.UnresolvedReferences))
	add("dangling_jobs", strconv.Itoa(q.DanglingJobs))

	for _, is := range q.Issues {
		add(string(is.Kind), fmt.Sprintf("%s %s -> %s", is.Entity, is.ID, is.Target))
	}
	for _, s := range q.Skipped {
		add("skipped_job", fmt.Sprintf("%s (%s %s)", s.JobID, s.Entity, s.Target))
	}
	return t
}

func pct(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func signed(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%+.2f", *v)
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func optTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return timestamp(*t)
}
