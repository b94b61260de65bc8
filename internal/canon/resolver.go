// Package canon resolves duplicate models and benchmarks to their canonical
// identities.
package canon

import (
	"sort"

	"github.com/sells-group/leaderboard/internal/model"
)

// maxHops bounds duplicate_of resolution. Real chains are one hop deep.
const maxHops = 16

// IssueKind classifies an unresolvable reference.
type IssueKind string

const (
	IssueDanglingDuplicate IssueKind = "dangling_duplicate_of"
	IssueCyclicDuplicate   IssueKind = "cyclic_duplicate_of"
	IssueDanglingBaseModel IssueKind = "dangling_base_model_id"
)

// Issue records a reference that could not be followed. The entity is
// treated as having no such relation.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	Entity string    `json:"entity"`
	ID     string    `json:"id"`
	Target string    `json:"target"`
}

// Resolver indexes one snapshot of models and benchmarks.
type Resolver struct {
	models     map[string]model.Model
	benchmarks map[string]model.Benchmark

	canonicalModel     map[string]string
	canonicalBenchmark map[string]string
	duplicates         map[string][]string

	issues []Issue
}

// NewResolver builds the indexes. It never fails: bad references are
// recorded as issues and resolved to the entity itself.
func NewResolver(models []model.Model, benchmarks []model.Benchmark) *Resolver {
	r := &Resolver{
		models:             make(map[string]model.Model, len(models)),
		benchmarks:         make(map[string]model.Benchmark, len(benchmarks)),
		canonicalModel:     make(map[string]string, len(models)),
		canonicalBenchmark: make(map[string]string, len(benchmarks)),
		duplicates:         make(map[string][]string),
	}
	for _, m := range models {
		r.models[m.ID] = m
	}
	for _, b := range benchmarks {
		r.benchmarks[b.ID] = b
	}

	modelNext := func(id string) (string, bool) {
		m, ok := r.models[id]
		if !ok || m.DuplicateOf == nil {
			return "", false
		}
		return *m.DuplicateOf, true
	}
	modelExists := func(id string) bool { _, ok := r.models[id]; return ok }

	benchNext := func(id string) (string, bool) {
		b, ok := r.benchmarks[id]
		if !ok || b.DuplicateOf == nil {
			return "", false
		}
		return *b.DuplicateOf, true
	}
	benchExists := func(id string) bool { _, ok := r.benchmarks[id]; return ok }

	for _, m := range models {
		r.canonicalModel[m.ID] = r.follow("model", m.ID, modelNext, modelExists)
		if m.BaseModelID != nil && !modelExists(*m.BaseModelID) {
			r.issues = append(r.issues, Issue{
				Kind:   IssueDanglingBaseModel,
				Entity: "model",
				ID:     m.ID,
				Target: *m.BaseModelID,
			})
		}
	}
	for _, b := range benchmarks {
		c := r.follow("benchmark", b.ID, benchNext, benchExists)
		r.canonicalBenchmark[b.ID] = c
		r.duplicates[c] = append(r.duplicates[c], b.ID)
	}
	for c := range r.duplicates {
		sort.Strings(r.duplicates[c])
	}
	return r
}

// follow walks duplicate_of edges from id. A dangling edge stops at the last
// existing entity; a cycle stops at the entity where the walk started.
func (r *Resolver) follow(entity, id string, next func(string) (string, bool), exists func(string) bool) string {
	cur := id
	seen := map[string]bool{id: true}
	for hop := 0; hop < maxHops; hop++ {
		target, ok := next(cur)
		if !ok {
			return cur
		}
		if !exists(target) {
			r.issues = append(r.issues, Issue{Kind: IssueDanglingDuplicate, Entity: entity, ID: cur, Target: target})
			return cur
		}
		if seen[target] {
			r.issues = append(r.issues, Issue{Kind: IssueCyclicDuplicate, Entity: entity, ID: id, Target: target})
			return id
		}
		seen[target] = true
		cur = target
	}
	r.issues = append(r.issues, Issue{Kind: IssueCyclicDuplicate, Entity: entity, ID: id, Target: cur})
	return id
}

// Model returns the model row for id.
func (r *Resolver) Model(id string) (model.Model, bool) {
	m, ok := r.models[id]
	return m, ok
}

// Benchmark returns the benchmark row for id.
func (r *Resolver) Benchmark(id string) (model.Benchmark, bool) {
	b, ok := r.benchmarks[id]
	return b, ok
}

// CanonicalModelID returns the canonical model id. Unknown ids map to themselves.
func (r *Resolver) CanonicalModelID(id string) string {
	if c, ok := r.canonicalModel[id]; ok {
		return c
	}
	return id
}

// CanonicalModelName returns the name of m's canonical model, or m.Name.
func (r *Resolver) CanonicalModelName(m model.Model) string {
	if c, ok := r.models[r.CanonicalModelID(m.ID)]; ok {
		return c.Name
	}
	return m.Name
}

// IsDuplicateModel reports whether id resolves to a different canonical model.
func (r *Resolver) IsDuplicateModel(id string) bool {
	return r.CanonicalModelID(id) != id
}

// CanonicalBenchmarkID returns the canonical benchmark id. Unknown ids map
// to themselves.
func (r *Resolver) CanonicalBenchmarkID(id string) string {
	if c, ok := r.canonicalBenchmark[id]; ok {
		return c
	}
	return id
}

// CanonicalBenchmarkName returns the name of b's canonical benchmark, or b.Name.
func (r *Resolver) CanonicalBenchmarkName(b model.Benchmark) string {
	if c, ok := r.benchmarks[r.CanonicalBenchmarkID(b.ID)]; ok {
		return c.Name
	}
	return b.Name
}

// DuplicatesOf returns every benchmark id that resolves to canonicalID,
// including canonicalID itself, sorted.
func (r *Resolver) DuplicatesOf(canonicalID string) []string {
	ids := r.duplicates[canonicalID]
	if len(ids) == 0 {
		return []string{canonicalID}
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// BaseModelID returns the model's base model id when it is set and points at
// a known model.
func (r *Resolver) BaseModelID(modelID string) (string, bool) {
	m, ok := r.models[modelID]
	if !ok || m.BaseModelID == nil {
		return "", false
	}
	if _, ok := r.models[*m.BaseModelID]; !ok {
		return "", false
	}
	return *m.BaseModelID, true
}

// BenchmarkGroups lists canonical benchmarks with the names of their
// duplicates, sorted by canonical name.
func (r *Resolver) BenchmarkGroups() []model.BenchmarkGroup {
	groups := make([]model.BenchmarkGroup, 0, len(r.duplicates))
	for c, ids := range r.duplicates {
		b := r.benchmarks[c]
		g := model.BenchmarkGroup{ID: c, Name: b.Name}
		for _, id := range ids {
			if id == c {
				continue
			}
			g.Duplicates = append(g.Duplicates, r.benchmarks[id].Name)
		}
		sort.Strings(g.Duplicates)
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups
}

// Issues returns the unresolvable references found while indexing.
func (r *Resolver) Issues() []Issue {
	return r.issues
}
