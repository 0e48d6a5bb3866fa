package ast

import (
	"testing"
)

func newTestPackage() *Package {
	// mod m ( function g() = (); );
	// function main() = loop ( break );
	g := &FnItem{
		ItemBase: ItemBase{Name: "g"},
		Body:     &EmptyExpr{},
	}
	m := &ModItem{
		ItemBase: ItemBase{Name: "m"},
		Items:    []Item{g},
	}
	main := &FnItem{
		ItemBase: ItemBase{Name: "main"},
		Body: &LoopExpr{
			Loop: NoLoopID,
			Body: &BlockExpr{Exprs: []Expr{&BreakExpr{Target: NoLoopID}}},
		},
	}
	return &Package{
		ID:    1,
		Name:  "main",
		Phase: PhaseParsed,
		Root: &ModItem{
			ItemBase: ItemBase{Name: "main"},
			Items:    []Item{m, main},
		},
	}
}

func TestBuildAssignsItemIDs(t *testing.T) {
	pkg := newTestPackage()
	Build(pkg)

	if pkg.Phase != PhaseBuilt {
		t.Fatalf("phase: %v", pkg.Phase)
	}
	if pkg.Root.ID != (ItemID{Pkg: 1, Item: RootItemIdx}) {
		t.Fatalf("root id: %v", pkg.Root.ID)
	}

	m := pkg.Root.Items[0].(*ModItem)
	g := m.Items[0].(*FnItem)
	main := pkg.Root.Items[1].(*FnItem)

	// depth-first, counter starts at 1
	if m.ID.Item != 1 || g.ID.Item != 2 || main.ID.Item != 3 {
		t.Fatalf("item indices: m=%d g=%d main=%d", m.ID.Item, g.ID.Item, main.ID.Item)
	}

	// every assigned id must be pairwise distinct and indexed
	seen := map[ItemIdx]bool{}
	for idx, it := range pkg.ByID {
		if seen[idx] {
			t.Fatalf("duplicate index %d", idx)
		}
		seen[idx] = true
		if it.Base().ID.Item != idx {
			t.Fatalf("index mismatch: %d vs %d", it.Base().ID.Item, idx)
		}
	}
	if len(pkg.ByID) != 4 {
		t.Fatalf("expected 4 indexed items, got %d", len(pkg.ByID))
	}
}

func TestBuildAssignsLoopIDs(t *testing.T) {
	pkg := newTestPackage()
	Build(pkg)

	main := pkg.Root.Items[1].(*FnItem)
	loop := main.Body.(*LoopExpr)
	if loop.Loop != 0 {
		t.Fatalf("first loop id must be 0, got %d", loop.Loop)
	}
	if pkg.LoopCount != 1 {
		t.Fatalf("loop count: %d", pkg.LoopCount)
	}
}

type fieldIdxProbe struct {
	got int
}

func (p *fieldIdxProbe) FoldItem(it Item) Item { return SuperItem(p, it) }
func (p *fieldIdxProbe) FoldExpr(e Expr) Expr {
	if fa, ok := e.(*FieldAccessExpr); ok {
		p.got = fa.FieldIdx
	}
	return SuperExpr(p, e)
}
func (p *fieldIdxProbe) FoldType(t TypeExpr) TypeExpr { return SuperType(p, t) }

func TestSuperExprPreservesFieldIdx(t *testing.T) {
	fa := &FieldAccessExpr{
		Lhs:      &IdentExpr{Name: "p"},
		Field:    FieldName{Name: "x"},
		FieldIdx: 1,
	}
	probe := &fieldIdxProbe{got: NoFieldIdx}
	probe.FoldExpr(fa)
	if probe.got != 1 {
		t.Fatalf("field index lost across fold: %d", probe.got)
	}
	if fa.FieldIdx != 1 {
		t.Fatalf("field index mutated: %d", fa.FieldIdx)
	}
}
