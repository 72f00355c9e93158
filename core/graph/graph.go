// Package graph provides the precedence DAG used by the scheduling model:
// roots and leaves for the dummy bracketing constraints and a topological
// check that rejects cyclic precedence before any solver work.
package graph

import (
	"fmt"
	"sort"

	"github.com/earnor/look-ahead-planning/core/model"
)

// Precedence is the installation precedence DAG over module indices.
type Precedence struct {
	nodes  []int
	adj    map[int][]int
	revAdj map[int][]int
}

// New builds a Precedence graph from modules and edges. Duplicate edges are
// collapsed. Edge endpoints must reference known module indices; the caller
// is expected to have validated that (Project.Validate).
func New(modules []model.Module, edges []model.Edge) *Precedence {
	g := &Precedence{
		nodes:  make([]int, 0, len(modules)),
		adj:    make(map[int][]int, len(modules)),
		revAdj: make(map[int][]int, len(modules)),
	}
	for _, m := range modules {
		g.nodes = append(g.nodes, m.Index)
	}
	sort.Ints(g.nodes)

	seen := make(map[[2]int]bool, len(edges))
	for _, e := range edges {
		key := [2]int{e.Pred, e.Succ}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.adj[e.Pred] = append(g.adj[e.Pred], e.Succ)
		g.revAdj[e.Succ] = append(g.revAdj[e.Succ], e.Pred)
	}
	for _, l := range g.adj {
		sort.Ints(l)
	}
	for _, l := range g.revAdj {
		sort.Ints(l)
	}
	return g
}

// Successors returns the direct successors of a module, sorted.
func (g *Precedence) Successors(idx int) []int { return g.adj[idx] }

// Predecessors returns the direct predecessors of a module, sorted.
func (g *Precedence) Predecessors(idx int) []int { return g.revAdj[idx] }

// Roots returns modules with no predecessor, sorted.
func (g *Precedence) Roots() []int {
	var roots []int
	for _, n := range g.nodes {
		if len(g.revAdj[n]) == 0 {
			roots = append(roots, n)
		}
	}
	return roots
}

// Leaves returns modules with no successor, sorted.
func (g *Precedence) Leaves() []int {
	var leaves []int
	for _, n := range g.nodes {
		if len(g.adj[n]) == 0 {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// Edges returns the deduplicated edge list in deterministic order.
func (g *Precedence) Edges() []model.Edge {
	var out []model.Edge
	for _, n := range g.nodes {
		for _, s := range g.adj[n] {
			out = append(out, model.Edge{Pred: n, Succ: s})
		}
	}
	return out
}

// TopoOrder runs Kahn's algorithm and returns a topological order of the
// module indices. A cycle yields an error naming one module stuck on it.
func (g *Precedence) TopoOrder() ([]int, error) {
	inDegree := make(map[int]int, len(g.nodes))
	for _, n := range g.nodes {
		inDegree[n] = len(g.revAdj[n])
	}

	var queue []int
	for _, n := range g.nodes {
		if inDegree[n] == 0 {
			queue = append(queue, n)
		}
	}
	sort.Ints(queue)

	order := make([]int, 0, len(g.nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)

		var ready []int
		for _, s := range g.adj[n] {
			inDegree[s]--
			if inDegree[s] == 0 {
				ready = append(ready, s)
			}
		}
		sort.Ints(ready)
		queue = append(queue, ready...)
	}

	if len(order) != len(g.nodes) {
		for _, n := range g.nodes {
			if inDegree[n] > 0 {
				return nil, fmt.Errorf("precedence graph has a cycle involving module %d", n)
			}
		}
		return nil, fmt.Errorf("precedence graph has a cycle")
	}
	return order, nil
}
