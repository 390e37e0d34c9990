// Package validate runs the fixed rule table over the resolved graph.
// Rules fire independently and collect into a single diagnostics list;
// validation never mutates the graph, and an Error here blocks only the
// generator stage, never diagnostic collection.
package validate

import (
	"context"
	"strings"

	"github.com/archgraph-dev/archgraph/internal/ctxlog"
	"github.com/archgraph-dev/archgraph/internal/dag"
	"github.com/archgraph-dev/archgraph/internal/diag"
	"github.com/archgraph-dev/archgraph/internal/model"
	"github.com/archgraph-dev/archgraph/internal/resolver"
	"github.com/archgraph-dev/archgraph/internal/schema"
)

// rule is one entry of the validation table.
type rule struct {
	name string
	run  func(res resolver.Result) diag.List
}

// rules is the fixed rule table. Order only affects log output; the
// combined list is sorted by the caller before reporting.
var rules = []rule{
	{"unresolved-references", unresolvedReferences},
	{"composition-cycles", compositionCycles},
	{"story-without-scenario", storyWithoutScenario},
	{"application-without-story", applicationWithoutStory},
	{"accelerator-without-declaration", acceleratorWithoutDeclaration},
	{"orphaned-entities", orphanedEntities},
}

// Run applies every rule and returns the combined findings.
func Run(ctx context.Context, res resolver.Result) diag.List {
	logger := ctxlog.FromContext(ctx)

	var out diag.List
	for _, r := range rules {
		found := r.run(res)
		logger.Debug("validation rule finished", "rule", r.name, "findings", len(found))
		out = append(out, found...)
	}
	return out
}

// unresolvedReferences reports every reference the resolver could not
// satisfy: required ones are fatal, optional ones are elaboration gaps.
func unresolvedReferences(res resolver.Result) diag.List {
	var out diag.List
	for _, u := range res.Unresolved {
		if u.Required {
			out = append(out, diag.Errorf(diag.RuleReferenceError, u.Location,
				"%s: unknown %s %q (option %q)", u.From, u.Target.Kind, u.Target.ID, u.Field))
			continue
		}
		out = append(out, diag.Warnf(diag.RuleReferenceWarning, u.Location,
			"%s: unknown %s %q (option %q)", u.From, u.Target.Kind, u.Target.ID, u.Field))
	}
	return out
}

// compositionCycles detects cycles in the Journey→Epic→Story composition
// edge set.
func compositionCycles(res resolver.Result) diag.List {
	g := res.Graph

	composition := dag.New()
	for _, ref := range g.Refs() {
		spec, ok := schema.ForKind(ref.Kind)
		if !ok {
			continue
		}
		compositionFields := make(map[string]bool)
		for _, field := range spec.Refs {
			if field.Composition {
				compositionFields[field.Name] = true
			}
		}
		if len(compositionFields) == 0 {
			continue
		}
		for _, edge := range g.Outgoing(ref) {
			if !compositionFields[edge.Field] {
				continue
			}
			composition.AddNode(edge.From.String())
			composition.AddNode(edge.To.String())
			// Both nodes were just added; the edge cannot fail.
			_ = composition.AddEdge(edge.From.String(), edge.To.String())
		}
	}

	cycle := composition.FindCycle()
	if cycle == nil {
		return nil
	}
	return diag.List{diag.Errorf(diag.RuleCycleError, locationOf(g, cycle[0]),
		"circular composition: %s", strings.Join(cycle, " -> "))}
}

// storyWithoutScenario warns about stories that are Defined but carry no
// Testable evidence.
func storyWithoutScenario(res resolver.Result) diag.List {
	var out diag.List
	for _, story := range res.Graph.ListByKind(model.KindStory) {
		if story.Derived == model.StateDefined {
			out = append(out, diag.Warnf(diag.RuleCoverageWarning, entityLocation(story),
				"%s is defined but declares no scenario file", story.Ref()))
		}
	}
	return out
}

// applicationWithoutStory warns about applications no story refers to.
func applicationWithoutStory(res resolver.Result) diag.List {
	var out diag.List
	for _, app := range res.Graph.ListByKind(model.KindApplication) {
		inbound := 0
		for _, edge := range res.Graph.Incoming(app.Ref()) {
			if edge.From.Kind == model.KindStory {
				inbound++
			}
		}
		if inbound == 0 {
			out = append(out, diag.Warnf(diag.RuleCoverageWarning, entityLocation(app),
				"%s has no associated story", app.Ref()))
		}
	}
	return out
}

// acceleratorWithoutDeclaration warns about discovered accelerator stubs
// that no document-first declaration elaborates.
func acceleratorWithoutDeclaration(res resolver.Result) diag.List {
	var out diag.List
	for _, acc := range res.Graph.ListByKind(model.KindAccelerator) {
		if acc.HasSource(model.SourceDirectory) && !acc.HasSource(model.SourceDeclaration) {
			out = append(out, diag.Warnf(diag.RuleCoverageWarning, entityLocation(acc),
				"%s was discovered from the directory layout but has no declaration", acc.Ref()))
		}
	}
	return out
}

// orphanedEntities warns about entities unreachable from every traversal
// root. Roots are all Journeys plus all SoftwareSystems; Relationship
// entities are reached through either endpoint and carry reachability to
// the other.
func orphanedEntities(res resolver.Result) diag.List {
	g := res.Graph

	visited := make(map[model.Ref]bool)
	var queue []model.Ref
	for _, ref := range g.Refs() {
		if ref.Kind == model.KindJourney || ref.Kind == model.KindSoftwareSystem {
			visited[ref] = true
			queue = append(queue, ref)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, edge := range g.Outgoing(current) {
			if !visited[edge.To] {
				visited[edge.To] = true
				queue = append(queue, edge.To)
			}
		}
		for _, edge := range g.Incoming(current) {
			if edge.From.Kind == model.KindRelationship && !visited[edge.From] {
				visited[edge.From] = true
				queue = append(queue, edge.From)
			}
		}
	}

	var out diag.List
	for _, ref := range g.Refs() {
		if visited[ref] {
			continue
		}
		entity, _ := g.Get(ref)
		out = append(out, diag.Warnf(diag.RuleCoverageWarning, entityLocation(entity),
			"%s is not reachable from any journey or software system", ref))
	}
	return out
}

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

func locationOf(g *model.Graph, refString string) diag.Location {
	for _, ref := range g.Refs() {
		if ref.String() == refString {
			entity, _ := g.Get(ref)
			return entityLocation(entity)
		}
	}
	return diag.Location{}
}
