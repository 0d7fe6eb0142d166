// Package graph implements the generic directed-graph primitives §4.1
// specifies: nodes with opaque payloads, edges with opaque payloads,
// in/out adjacency iteration, topological sort with cycle reporting,
// and b-level (longest weighted path to an exit). It is grounded on
// `agl/directedgraph.c`'s index-based node/edge arrays (adapted to a
// Go generic container instead of realloc'd C arrays) and on
// `internal/application/dag.go`'s `Graph.TopologicalSort`, whose
// Kahn's-algorithm structure this package reuses keyed by integer
// index rather than string ID.
package graph

import "fmt"

// Edge is a directed connection from Src to Dst carrying an opaque
// weight. Edge.Data is float64 rather than `any` because every user of
// this graph (the task-graph source) needs a numeric edge cost for
// b-level; a generic payload would just be type-asserted back to
// float64 at every call site.
type Edge struct {
	Src, Dst int
	Data     float64
}

type node[T any] struct {
	data T
	out  []Edge
	in   []Edge
}

// Graph is a directed graph over nodes of type T, indexed by
// insertion order starting at 0. It is not safe for concurrent use;
// the task-graph source that owns one builds it single-threaded while
// parsing and then only reads it from the scheduler goroutine.
type Graph[T any] struct {
	nodes []*node[T]
}

// New creates an empty graph.
func New[T any]() *Graph[T] { return &Graph[T]{} }

// AddNode appends a node carrying data and returns its 0-based index.
func (g *Graph[T]) AddNode(data T) int {
	g.nodes = append(g.nodes, &node[T]{data: data})
	return len(g.nodes) - 1
}

// AddEdge appends a directed edge from src to dst carrying weight.
// AddEdge returns an error if either index is out of range.
func (g *Graph[T]) AddEdge(src, dst int, weight float64) error {
	if err := g.checkIndex(src); err != nil {
		return err
	}
	if err := g.checkIndex(dst); err != nil {
		return err
	}
	e := Edge{Src: src, Dst: dst, Data: weight}
	g.nodes[src].out = append(g.nodes[src].out, e)
	g.nodes[dst].in = append(g.nodes[dst].in, e)
	return nil
}

func (g *Graph[T]) checkIndex(i int) error {
	if i < 0 || i >= len(g.nodes) {
		return fmt.Errorf("graph: node index %d out of range [0,%d)", i, len(g.nodes))
	}
	return nil
}

// Len returns the number of nodes in the graph.
func (g *Graph[T]) Len() int { return len(g.nodes) }

// Node returns the payload stored at index i.
func (g *Graph[T]) Node(i int) T { return g.nodes[i].data }

// Out returns the outgoing edges of node i, in insertion order.
func (g *Graph[T]) Out(i int) []Edge { return g.nodes[i].out }

// In returns the incoming edges of node i, in insertion order.
func (g *Graph[T]) In(i int) []Edge { return g.nodes[i].in }

// ErrCycle is returned by TopoSort and BLevel when the graph contains
// a cycle, since both require acyclicity (§4.1, §4.3).
var ErrCycle = fmt.Errorf("graph: contains a cycle")

// TopoSort returns the node indices in ancestor-first (topological)
// order using Kahn's algorithm, the same approach
// `internal/application/dag.go`'s `Graph.TopologicalSort` uses keyed
// by string ID. It returns ErrCycle if the graph is not a DAG.
func (g *Graph[T]) TopoSort() ([]int, error) {
	inDegree := make([]int, len(g.nodes))
	for i, n := range g.nodes {
		inDegree[i] = len(n.in)
	}

	queue := make([]int, 0, len(g.nodes))
	for i, d := range inDegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, len(g.nodes))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)

		for _, e := range g.nodes[i].out {
			inDegree[e.Dst]--
			if inDegree[e.Dst] == 0 {
				queue = append(queue, e.Dst)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, ErrCycle
	}
	return order, nil
}

// BLevel computes the b-level of every node: the maximum weighted
// path length from that node to any exit node. nodeWeight and
// edgeWeight supply the per-node and per-edge weights (§4.1); for an
// exit node v (no outgoing edges), B(v) = nodeWeight(v). Otherwise
// B(v) = nodeWeight(v) + max over outgoing edges (v->u) of
// (B(u) + edgeWeight(edge)).
//
// Computation proceeds in reverse topological order so every child is
// resolved before its parent, which is why BLevel requires an acyclic
// graph and returns ErrCycle otherwise.
func (g *Graph[T]) BLevel(nodeWeight func(i int) float64, edgeWeight func(e Edge) float64) ([]float64, error) {
	order, err := g.TopoSort()
	if err != nil {
		return nil, err
	}

	b := make([]float64, len(g.nodes))
	for i := len(order) - 1; i >= 0; i-- {
		v := order[i]
		best := 0.0
		for _, e := range g.nodes[v].out {
			candidate := b[e.Dst] + edgeWeight(e)
			if candidate > best {
				best = candidate
			}
		}
		b[v] = nodeWeight(v) + best
	}
	return b, nil
}
