package model

import "sort"

// Edge is one resolved reference: From's named field points at To.
type Edge struct {
	From  Ref
	Field string
	To    Ref
}

// Graph is the merged, resolved view of all entities. The registry
// constructs it without edges; the resolver returns a copy with the edge
// indexes attached. Stages never mutate a graph they received.
type Graph struct {
	entities map[Ref]*Entity
	order    []Ref
	out      map[Ref][]Edge
	in       map[Ref][]Edge
}

// NewGraph builds a graph over the given entities. The traversal order is
// fixed at construction: canonical kind order, id ascending within kind.
func NewGraph(entities map[Ref]*Entity) *Graph {
	order := make([]Ref, 0, len(entities))
	for ref := range entities {
		order = append(order, ref)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Less(order[j]) })
	return &Graph{entities: entities, order: order}
}

// WithEdges returns a new graph view sharing this graph's entities with
// the given resolved edges indexed by source and target.
func (g *Graph) WithEdges(edges []Edge) *Graph {
	out := make(map[Ref][]Edge)
	in := make(map[Ref][]Edge)
	for _, e := range edges {
		out[e.From] = append(out[e.From], e)
		in[e.To] = append(in[e.To], e)
	}
	return &Graph{entities: g.entities, order: g.order, out: out, in: in}
}

// Len returns the number of entities.
func (g *Graph) Len() int {
	return len(g.order)
}

// Refs returns every entity identity in deterministic order.
func (g *Graph) Refs() []Ref {
	return g.order
}

// Get looks up an entity by identity.
func (g *Graph) Get(ref Ref) (*Entity, bool) {
	e, ok := g.entities[ref]
	return e, ok
}

// ListByKind returns all entities of one kind, id ascending.
func (g *Graph) ListByKind(kind Kind) []*Entity {
	var out []*Entity
	for _, ref := range g.order {
		if ref.Kind == kind {
			out = append(out, g.entities[ref])
		}
	}
	return out
}

// Outgoing returns the resolved edges declared by the given entity,
// ordered by field name then target.
func (g *Graph) Outgoing(ref Ref) []Edge {
	return sortedEdges(g.out[ref])
}

// Incoming returns the resolved edges pointing at the given entity,
// ordered by source then field name.
func (g *Graph) Incoming(ref Ref) []Edge {
	return sortedEdges(g.in[ref])
}

// DerivedState returns the derived state for an entity, if it has one.
func (g *Graph) DerivedState(ref Ref) (State, bool) {
	e, ok := g.entities[ref]
	if !ok || e.Derived == StateNone {
		return StateNone, false
	}
	return e.Derived, true
}

func sortedEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.From != b.From {
			return a.From.Less(b.From)
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		return a.To.Less(b.To)
	})
	return out
}
