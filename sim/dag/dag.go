// Package dag models the directed acyclic tool graph of one request class:
// nodes keyed by name, each bound to a tool-template name, with
// predecessor → successor edges. The structure is backed by a gonum directed
// graph; name ↔ id mapping and deterministic ordering live here.
package dag

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Graph is a DAG template over named tool nodes.
// All node listings (Nodes, Roots, Predecessors, Successors) come back in
// insertion order so that callers never observe map-iteration order.
type Graph struct {
	g         *simple.DirectedGraph
	ids       map[string]int64
	names     map[int64]string
	templates map[string]string
	order     []string
	next      int64
}

// NewGraph returns an empty DAG template.
func NewGraph() *Graph {
	return &Graph{
		g:         simple.NewDirectedGraph(),
		ids:       make(map[string]int64),
		names:     make(map[int64]string),
		templates: make(map[string]string),
	}
}

// AddNode registers a named node bound to a tool template.
func (d *Graph) AddNode(name, templateName string) error {
	if name == "" {
		return errors.New("node name must not be empty")
	}
	if _, ok := d.ids[name]; ok {
		return fmt.Errorf("duplicate node %q", name)
	}
	id := d.next
	d.next++
	d.g.AddNode(simple.Node(id))
	d.ids[name] = id
	d.names[id] = name
	d.templates[name] = templateName
	d.order = append(d.order, name)
	return nil
}

// AddEdge records that `from` must complete before `to` may start.
// Both endpoints must already be nodes.
func (d *Graph) AddEdge(from, to string) error {
	fid, ok := d.ids[from]
	if !ok {
		return fmt.Errorf("dependency %q of node %q is not a known node", from, to)
	}
	tid, ok := d.ids[to]
	if !ok {
		return fmt.Errorf("edge target %q is not a known node", to)
	}
	if fid == tid {
		return fmt.Errorf("node %q depends on itself", from)
	}
	d.g.SetEdge(simple.Edge{F: simple.Node(fid), T: simple.Node(tid)})
	return nil
}

// Validate checks the graph is non-empty and acyclic. Acyclicity implies
// every node is reachable from at least one root.
func (d *Graph) Validate() error {
	if len(d.order) == 0 {
		return errors.New("graph has no nodes")
	}
	if _, err := topo.Sort(d.g); err != nil {
		var unorderable topo.Unorderable
		if errors.As(err, &unorderable) && len(unorderable) > 0 && len(unorderable[0]) > 0 {
			return fmt.Errorf("cycle detected involving node %q", d.names[unorderable[0][0].ID()])
		}
		return fmt.Errorf("cycle detected: %v", err)
	}
	return nil
}

// Len returns the number of nodes.
func (d *Graph) Len() int { return len(d.order) }

// Has reports whether a node exists.
func (d *Graph) Has(name string) bool {
	_, ok := d.ids[name]
	return ok
}

// Nodes returns all node names in insertion order.
func (d *Graph) Nodes() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// TemplateName returns the tool-template name bound to a node.
func (d *Graph) TemplateName(node string) (string, bool) {
	t, ok := d.templates[node]
	return t, ok
}

// Roots returns the names of nodes with no predecessors, in insertion order.
func (d *Graph) Roots() []string {
	var roots []string
	for _, name := range d.order {
		if d.g.To(d.ids[name]).Len() == 0 {
			roots = append(roots, name)
		}
	}
	return roots
}

// Predecessors returns the nodes that must complete before `node` starts.
func (d *Graph) Predecessors(node string) []string {
	return d.sortedNeighbors(d.g.To(d.ids[node]))
}

// Successors returns the nodes that depend on `node`.
func (d *Graph) Successors(node string) []string {
	return d.sortedNeighbors(d.g.From(d.ids[node]))
}

// TopologicalOrder returns a deterministic topological ordering of the nodes.
func (d *Graph) TopologicalOrder() ([]string, error) {
	sorted, err := topo.SortStabilized(d.g, func(ns []graph.Node) {
		sort.Slice(ns, func(i, j int) bool { return ns[i].ID() < ns[j].ID() })
	})
	if err != nil {
		return nil, fmt.Errorf("not a DAG: %v", err)
	}
	out := make([]string, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, d.names[n.ID()])
	}
	return out, nil
}

func (d *Graph) sortedNeighbors(it graph.Nodes) []string {
	var ids []int64
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	// Node ids are assigned in insertion order, so sorting by id restores it.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.names[id])
	}
	return out
}
