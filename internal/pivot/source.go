package pivot

import "github.com/sells-group/leaderboard/internal/model"

// BaseSource names which base-accuracy variant improvement is measured
// against.
type BaseSource int

const (
	SourceBaseModel BaseSource = iota
	SourceCanonicalBenchmark
	SourceCanonicalModel
	SourceCanonicalBoth
)

var sourceNames = [...]string{
	SourceBaseModel:          "base_model_accuracy",
	SourceCanonicalBenchmark: "canonical_benchmark_base_model_accuracy",
	SourceCanonicalModel:     "canonical_base_model_accuracy",
	SourceCanonicalBoth:      "canonical_both_base_model_accuracy",
}

func (s BaseSource) String() string {
	if int(s) < len(sourceNames) {
		return sourceNames[s]
	}
	return "unknown"
}

// sourceMatrix is indexed by [showDupModels][showDupBenchmarks].
var sourceMatrix = [2][2]BaseSource{
	{SourceCanonicalBoth, SourceCanonicalModel},
	{SourceCanonicalBenchmark, SourceBaseModel},
}

func idx(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SourceFor maps the two duplicate-display toggles to a base-accuracy
// variant. Showing duplicates means they are not collapsed, so the
// uncollapsed base accuracy is used on that axis.
func SourceFor(showDupModels, showDupBenchmarks bool) BaseSource {
	return sourceMatrix[idx(showDupModels)][idx(showDupBenchmarks)]
}

// Pick returns the variant s selects from acc.
func (s BaseSource) Pick(acc model.BaseAccuracies) *float64 {
	switch s {
	case SourceBaseModel:
		return acc.BaseModel
	case SourceCanonicalBenchmark:
		return acc.CanonicalBenchmarkBaseModel
	case SourceCanonicalModel:
		return acc.CanonicalBaseModel
	case SourceCanonicalBoth:
		return acc.CanonicalBothBaseModel
	default:
		return nil
	}
}

// Improvement returns accuracy minus the chosen base accuracy in percentage
// points, or nil when either side is absent.
func Improvement(accuracy *float64, acc model.BaseAccuracies, s BaseSource) *float64 {
	base := s.Pick(acc)
	if accuracy == nil || base == nil {
		return nil
	}
	d := *accuracy - *base
	return &d
}
