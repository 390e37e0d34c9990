// Package dag provides cycle detection for the composition edge set. The
// traversal is an explicit stack-based three-color depth-first search, so
// a pathologically deep composition chain cannot exhaust the call stack.
package dag

import (
	"fmt"
	"sort"
)

// Graph is a directed graph over string node ids.
type Graph struct {
	nodes map[string]map[string]struct{}
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]map[string]struct{})}
}

// AddNode adds a node with the given id. Adding an existing node does
// nothing.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		g.nodes[id] = make(map[string]struct{})
	}
}

// AddEdge creates a directed edge from fromID to toID. Both nodes must
// exist. Self-edges are allowed; they are one-node cycles and FindCycle
// reports them as such.
func (g *Graph) AddEdge(fromID, toID string) error {
	from, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	if _, ok := g.nodes[toID]; !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}
	from[toID] = struct{}{}
	return nil
}

// Three-color DFS state.
const (
	white = iota // unvisited
	gray         // on the current traversal path
	black        // fully explored, known cycle-free
)

// frame is one explicit stack entry: a node plus the index of the next
// neighbor to explore.
type frame struct {
	id        string
	neighbors []string
	next      int
}

// FindCycle returns the node ids of the first cycle found, in path order
// ending where it started, or nil when the graph is acyclic. Nodes and
// neighbors are visited in sorted order, so the reported cycle is stable
// across runs.
func (g *Graph) FindCycle() []string {
	color := make(map[string]int, len(g.nodes))

	for _, root := range g.sortedNodes() {
		if color[root] != white {
			continue
		}

		stack := []frame{{id: root, neighbors: g.sortedNeighbors(root)}}
		color[root] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			if top.next >= len(top.neighbors) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}

			neighbor := top.neighbors[top.next]
			top.next++

			switch color[neighbor] {
			case white:
				color[neighbor] = gray
				stack = append(stack, frame{id: neighbor, neighbors: g.sortedNeighbors(neighbor)})
			case gray:
				// Found a back edge; the cycle is the stack suffix from the
				// neighbor onward, closed by the neighbor itself.
				var cycle []string
				for i := range stack {
					if stack[i].id == neighbor {
						for _, f := range stack[i:] {
							cycle = append(cycle, f.id)
						}
						break
					}
				}
				return append(cycle, neighbor)
			}
		}
	}

	return nil
}

func (g *Graph) sortedNodes() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (g *Graph) sortedNeighbors(id string) []string {
	out := make([]string, 0, len(g.nodes[id]))
	for n := range g.nodes[id] {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
