package order

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrIllegalIndex is returned when an edge or clique names a vertex outside
// [0, Len()).
var ErrIllegalIndex = errors.New("illegal vertex index")

// Graph is an undirected simple graph over vertices 0..n-1. Self loops and
// repeated edges are ignored.
type Graph struct {
	adj []map[int]struct{}
}

// NewGraph returns a graph with n vertices and no edges.
func NewGraph(n int) *Graph {
	g := &Graph{adj: make([]map[int]struct{}, n)}
	for v := range g.adj {
		g.adj[v] = make(map[int]struct{})
	}
	return g
}

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.adj) }

func (g *Graph) check(v int) error {
	if v < 0 || v >= len(g.adj) {
		return fmt.Errorf("%w: %d (graph has %d vertices)", ErrIllegalIndex, v, len(g.adj))
	}
	return nil
}

// AddEdge connects u and v.
func (g *Graph) AddEdge(u, v int) error {
	if err := g.check(u); err != nil {
		return err
	}
	if err := g.check(v); err != nil {
		return err
	}
	if u != v {
		g.adj[u][v] = struct{}{}
		g.adj[v][u] = struct{}{}
	}
	return nil
}

// AddClique connects every pair of the given vertices.
func (g *Graph) AddClique(vs []int) error {
	for _, v := range vs {
		if err := g.check(v); err != nil {
			return err
		}
	}
	for i, u := range vs {
		for _, v := range vs[i+1:] {
			_ = g.AddEdge(u, v)
		}
	}
	return nil
}

// HasEdge reports whether u and v are adjacent.
func (g *Graph) HasEdge(u, v int) bool {
	if g.check(u) != nil || g.check(v) != nil {
		return false
	}
	_, ok := g.adj[u][v]
	return ok
}

// Degree returns the number of neighbours of v, or 0 for an illegal index.
func (g *Graph) Degree(v int) int {
	if g.check(v) != nil {
		return 0
	}
	return len(g.adj[v])
}

// Neighbors returns the neighbours of v in ascending order.
func (g *Graph) Neighbors(v int) []int {
	if g.check(v) != nil {
		return nil
	}
	return slices.Sorted(maps.Keys(g.adj[v]))
}

// Edges returns the number of edges.
func (g *Graph) Edges() int {
	n := 0
	for _, a := range g.adj {
		n += len(a)
	}
	return n / 2
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	c := &Graph{adj: make([]map[int]struct{}, len(g.adj))}
	for v, a := range g.adj {
		c.adj[v] = maps.Clone(a)
	}
	return c
}
