// Package resolver turns symbolic (kind, id) references into resolved
// graph edges. Resolution is a single pass: mention stubs guarantee every
// forward-referenced id already exists in the registry, so a reference
// that fails to resolve here is genuinely absent from every source.
package resolver

import (
	"context"

	"github.com/archgraph-dev/archgraph/internal/ctxlog"
	"github.com/archgraph-dev/archgraph/internal/diag"
	"github.com/archgraph-dev/archgraph/internal/model"
	"github.com/archgraph-dev/archgraph/internal/schema"
)

// Unresolved is one reference whose target is not registered. Required
// references become ReferenceErrors in the validator; optional ones become
// ReferenceWarnings.
type Unresolved struct {
	From     model.Ref
	Field    string
	Target   model.Ref
	Required bool
	Location diag.Location
}

// Result is the resolved view: the graph with edge indexes attached plus
// every reference that failed to resolve.
type Result struct {
	Graph      *model.Graph
	Unresolved []Unresolved
}

// Resolve walks every declared reference field of every entity, in
// deterministic graph order, and classifies each target as an edge or an
// unresolved reference.
func Resolve(ctx context.Context, g *model.Graph) Result {
	logger := ctxlog.FromContext(ctx)

	var edges []model.Edge
	var unresolved []Unresolved

	for _, ref := range g.Refs() {
		entity, _ := g.Get(ref)
		spec, ok := schema.ForKind(ref.Kind)
		if !ok {
			continue
		}
		for _, field := range spec.Refs {
			for _, target := range entity.Refs[field.Name] {
				if _, found := g.Get(target); found {
					edges = append(edges, model.Edge{From: ref, Field: field.Name, To: target})
					continue
				}
				unresolved = append(unresolved, Unresolved{
					From:     ref,
					Field:    field.Name,
					Target:   target,
					Required: field.Required,
					Location: entityLocation(entity),
				})
			}
		}
	}

	logger.Debug("resolver finished", "edges", len(edges), "unresolved", len(unresolved))
	return Result{Graph: g.WithEdges(edges), Unresolved: unresolved}
}

// entityLocation picks the location cited for an entity's unresolved
// references: the authoritative source that declared it, falling back to
// whatever registered it first.
func entityLocation(e *model.Entity) diag.Location {
	for _, p := range e.Prov {
		if p.Source.Authoritative() {
			return diag.Location{Path: p.Path, Line: p.Line}
		}
	}
	if len(e.Prov) > 0 {
		return diag.Location{Path: e.Prov[0].Path, Line: e.Prov[0].Line}
	}
	return diag.Location{}
}
