// Package index produces the ordered views rendering collaborators
// consume: per-kind entity listings and grouped edge lists. Output is a
// pure function of the validated graph; two runs over identical inputs
// produce byte-identical output.
package index

import (
	"fmt"
	"io"

	"github.com/archgraph-dev/archgraph/internal/model"
)

// Entry is one entity in a kind listing.
type Entry struct {
	ID    string
	Name  string
	State model.State
}

// KindListing is every entity of one kind, id ascending.
type KindListing struct {
	Kind    model.Kind
	Entries []Entry
}

// EdgeGroup is the outgoing edges of one entity, ordered by field then
// target.
type EdgeGroup struct {
	From  model.Ref
	Edges []model.Edge
}

// View is the full ordered index of the resolved graph.
type View struct {
	Kinds []KindListing
	Edges []EdgeGroup
}

// Build constructs the view. Kinds appear in canonical order; kinds with
// no entities are omitted.
func Build(g *model.Graph) *View {
	v := &View{}

	for _, kind := range model.Kinds() {
		entities := g.ListByKind(kind)
		if len(entities) == 0 {
			continue
		}
		listing := KindListing{Kind: kind}
		for _, e := range entities {
			listing.Entries = append(listing.Entries, Entry{
				ID:    e.ID,
				Name:  e.Attr("name"),
				State: e.Derived,
			})
		}
		v.Kinds = append(v.Kinds, listing)
	}

	for _, ref := range g.Refs() {
		edges := g.Outgoing(ref)
		if len(edges) == 0 {
			continue
		}
		v.Edges = append(v.Edges, EdgeGroup{From: ref, Edges: edges})
	}

	return v
}

// Render writes the view as plain text.
func (v *View) Render(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "# Entities"); err != nil {
		return err
	}
	for _, listing := range v.Kinds {
		if _, err := fmt.Fprintf(w, "\n## %s\n", listing.Kind); err != nil {
			return err
		}
		for _, entry := range listing.Entries {
			line := "- " + entry.ID
			if entry.Name != "" {
				line += " (" + entry.Name + ")"
			}
			if entry.State != model.StateNone {
				line += " [" + string(entry.State) + "]"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintln(w, "\n# Edges"); err != nil {
		return err
	}
	for _, group := range v.Edges {
		if _, err := fmt.Fprintf(w, "\n%s\n", group.From); err != nil {
			return err
		}
		for _, edge := range group.Edges {
			if _, err := fmt.Fprintf(w, "  %s -> %s\n", edge.Field, edge.To); err != nil {
				return err
			}
		}
	}
	return nil
}
