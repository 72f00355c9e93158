package graph

import (
	"testing"

	"github.com/earnor/look-ahead-planning/core/model"
)

func modules(n int) []model.Module {
	out := make([]model.Module, n)
	for i := range out {
		out[i] = model.Module{Index: i + 1, ID: "M", ProductionHours: 1, TransportHours: 1, InstallationHours: 1}
	}
	return out
}

func TestRootsAndLeaves(t *testing.T) {
	// 1 -> 2 -> 4, 3 -> 4
	g := New(modules(4), []model.Edge{{Pred: 1, Succ: 2}, {Pred: 2, Succ: 4}, {Pred: 3, Succ: 4}})

	roots := g.Roots()
	if len(roots) != 2 || roots[0] != 1 || roots[1] != 3 {
		t.Fatalf("roots = %v, want [1 3]", roots)
	}
	leaves := g.Leaves()
	if len(leaves) != 1 || leaves[0] != 4 {
		t.Fatalf("leaves = %v, want [4]", leaves)
	}
}

func TestNoEdgesEveryModuleIsRootAndLeaf(t *testing.T) {
	g := New(modules(3), nil)
	if got := len(g.Roots()); got != 3 {
		t.Fatalf("roots = %d, want 3", got)
	}
	if got := len(g.Leaves()); got != 3 {
		t.Fatalf("leaves = %d, want 3", got)
	}
}

func TestTopoOrder(t *testing.T) {
	g := New(modules(4), []model.Edge{{Pred: 2, Succ: 1}, {Pred: 1, Succ: 3}, {Pred: 1, Succ: 4}})
	order, err := g.TopoOrder()
	if err != nil {
		t.Fatalf("TopoOrder: %v", err)
	}
	pos := make(map[int]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	for _, e := range g.Edges() {
		if pos[e.Pred] >= pos[e.Succ] {
			t.Fatalf("order %v violates edge %d -> %d", order, e.Pred, e.Succ)
		}
	}
}

func TestTopoOrderCycle(t *testing.T) {
	g := New(modules(3), []model.Edge{{Pred: 1, Succ: 2}, {Pred: 2, Succ: 3}, {Pred: 3, Succ: 1}})
	if _, err := g.TopoOrder(); err == nil {
		t.Fatalf("cycle not detected")
	}
}

func TestDuplicateEdgesCollapse(t *testing.T) {
	g := New(modules(2), []model.Edge{{Pred: 1, Succ: 2}, {Pred: 1, Succ: 2}})
	if got := len(g.Edges()); got != 1 {
		t.Fatalf("edges = %d, want 1", got)
	}
	if got := len(g.Successors(1)); got != 1 {
		t.Fatalf("successors = %d, want 1", got)
	}
}
