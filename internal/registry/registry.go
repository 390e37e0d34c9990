// Package registry merges loader records into canonical entities. It is
// the single merge point of the pipeline: loaders never see each other's
// output, and everything downstream operates on the graph built here. The
// registry is rebuilt from scratch every build; no state survives between
// invocations.
package registry

import (
	"context"
	"sort"

	"github.com/archgraph-dev/archgraph/internal/ctxlog"
	"github.com/archgraph-dev/archgraph/internal/diag"
	"github.com/archgraph-dev/archgraph/internal/model"
)

// Registry accumulates records into merged entities.
type Registry struct {
	entities map[model.Ref]*model.Entity

	// claims tracks authoritative registrations per identity and source,
	// for duplicate-identity detection.
	claims map[model.Ref]map[model.Source]model.Provenance

	diags diag.List
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entities: make(map[model.Ref]*model.Entity),
		claims:   make(map[model.Ref]map[model.Source]model.Provenance),
	}
}

// Merge registers all records. Records are merged in ascending
// (path, line) order so elaboration precedence is deterministic no matter
// how the loaders were scheduled.
func (r *Registry) Merge(ctx context.Context, records []model.Record) {
	logger := ctxlog.FromContext(ctx)

	sorted := make([]model.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Prov, sorted[j].Prov
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		return a.Line < b.Line
	})

	for i := range sorted {
		r.add(&sorted[i])
	}
	logger.Debug("registry merged records", "records", len(records), "entities", len(r.entities))
}

// add applies one record: the first record for an identity creates the
// entity, later records elaborate it.
func (r *Registry) add(rec *model.Record) {
	ref := rec.Ref()

	if rec.Prov.Source.Authoritative() {
		if prev, dup := r.claims[ref][rec.Prov.Source]; dup {
			r.diags = append(r.diags, diag.Diagnostic{
				Severity: diag.SeverityError,
				Rule:     diag.RuleDuplicateIdentity,
				Location: provLocation(rec.Prov),
				Related:  []diag.Location{provLocation(prev)},
				Message: "duplicate " + rec.Prov.Source.String() + " for " + ref.String() +
					", already claimed at " + provLocation(prev).String(),
			})
			// The colliding record still elaborates; the Error blocks the
			// build regardless.
		} else {
			if r.claims[ref] == nil {
				r.claims[ref] = make(map[model.Source]model.Provenance)
			}
			r.claims[ref][rec.Prov.Source] = rec.Prov
		}
	}

	e, ok := r.entities[ref]
	if !ok {
		e = model.NewEntity(ref)
		r.entities[ref] = e
	}

	for _, name := range sortedKeys(rec.Attrs) {
		value := rec.Attrs[name]
		if prev, set := e.Attrs[name]; set && prev != value {
			prevProv := e.AttrProv[name]
			r.diags = append(r.diags, diag.Diagnostic{
				Severity: diag.SeverityWarning,
				Rule:     diag.RuleSchemaViolation,
				Location: provLocation(rec.Prov),
				Related:  []diag.Location{provLocation(prevProv)},
				Message: "conflicting values for attribute " + name + " on " + ref.String() +
					" (also set at " + provLocation(prevProv).String() + "); later value wins",
			})
		}
		e.Attrs[name] = value
		e.AttrProv[name] = rec.Prov
	}

	for _, field := range sortedRefKeys(rec.Refs) {
		for _, target := range rec.Refs[field] {
			if !containsRef(e.Refs[field], target) {
				e.Refs[field] = append(e.Refs[field], target)
			}
		}
	}

	e.Prov = append(e.Prov, rec.Prov)
}

// Graph returns the merged graph view, edge-free until the resolver runs.
func (r *Registry) Graph() *model.Graph {
	return model.NewGraph(r.entities)
}

// Diagnostics returns the duplicate and conflict findings recorded during
// merging.
func (r *Registry) Diagnostics() diag.List {
	return r.diags
}

func provLocation(p model.Provenance) diag.Location {
	return diag.Location{Path: p.Path, Line: p.Line}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedRefKeys(m map[string][]model.Ref) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsRef(refs []model.Ref, target model.Ref) bool {
	for _, r := range refs {
		if r == target {
			return true
		}
	}
	return false
}
