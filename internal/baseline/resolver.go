// Package baseline computes a result's base-model accuracy under the four
// combinations of model and benchmark canonicalization.
package baseline

import (
	"github.com/sells-group/leaderboard/internal/canon"
	"github.com/sells-group/leaderboard/internal/model"
	"github.com/sells-group/leaderboard/internal/selection"
)

type memoKey struct {
	modelID  string
	grouping selection.Grouping
}

// Resolver looks up base-model accuracies for one snapshot. Base-model pools
// span every agent. Lookups are memoised for the life of the Resolver.
type Resolver struct {
	engine   *selection.Engine
	resolver *canon.Resolver
	memo     map[memoKey]*float64
}

// NewResolver wraps a selection engine and canonical index built from the
// same snapshot.
func NewResolver(engine *selection.Engine, resolver *canon.Resolver) *Resolver {
	return &Resolver{
		engine:   engine,
		resolver: resolver,
		memo:     make(map[memoKey]*float64),
	}
}

// Resolve returns the base model's name and its four accuracy variants for r.
// A foundation model, or a model whose base cannot be resolved, yields an
// empty name and all-nil accuracies.
//
// Base jobs are selected from every agent, not only r's agent: a fine-tune
// evaluated by one agent is compared against the base model's run by any
// agent. The threshold and ordering rules are the same as for r itself.
func (b *Resolver) Resolve(r model.CanonicalResult) (string, string, model.BaseAccuracies) {
	baseID, ok := b.resolver.BaseModelID(r.ModelID)
	if !ok {
		return "", "", model.BaseAccuracies{}
	}
	base, _ := b.resolver.Model(baseID)
	canonicalBase := b.resolver.CanonicalModelID(baseID)

	exact := selection.Exact(r.SourceBenchmarkID)
	merged := selection.Canonical(r.CanonicalBenchmarkID)

	return baseID, base.Name, model.BaseAccuracies{
		BaseModel:                   b.accuracy(baseID, exact),
		CanonicalBenchmarkBaseModel: b.accuracy(baseID, merged),
		CanonicalBaseModel:          b.accuracy(canonicalBase, exact),
		CanonicalBothBaseModel:      b.accuracy(canonicalBase, merged),
	}
}

// Annotate fills the base-model fields of every result in place.
func (b *Resolver) Annotate(results []model.CanonicalResult) {
	for i := range results {
		id, name, acc := b.Resolve(results[i])
		results[i].BaseModelID = id
		results[i].BaseModelName = name
		results[i].BaseAccuracies = acc
	}
}

// accuracy selects across all agents for modelID under g.
func (b *Resolver) accuracy(modelID string, g selection.Grouping) *float64 {
	key := memoKey{modelID: modelID, grouping: g}
	if v, ok := b.memo[key]; ok {
		return v
	}
	var acc *float64
	if winner, ok := b.engine.SelectFor("", modelID, g); ok {
		acc = winner.AccuracyPct()
	}
	b.memo[key] = acc
	return acc
}
