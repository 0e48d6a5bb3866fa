package ast

import (
	"fmt"
)

// Build assigns stable identifiers to every item and loop of a parsed
// package (parsed → built). The item counter starts at 1 because index 0
// is the package root module; the loop counter starts at 0.
func Build(pkg *Package) {
	if pkg.Phase != PhaseParsed {
		panic(fmt.Sprintf("build: package %q is already %s", pkg.Name, pkg.Phase))
	}
	b := &builder{
		pkg:      pkg,
		nextItem: RootItemIdx + 1,
		seen:     make(map[ItemIdx]struct{}),
	}
	if pkg.Root != nil {
		pkg.Root.ID = ItemID{Pkg: pkg.ID, Item: RootItemIdx}
		b.seen[RootItemIdx] = struct{}{}
		for i := range pkg.Root.Items {
			pkg.Root.Items[i] = b.FoldItem(pkg.Root.Items[i])
		}
	}
	pkg.LoopCount = uint32(b.nextLoop)
	pkg.Phase = PhaseBuilt
	pkg.Reindex()
}

type builder struct {
	pkg      *Package
	nextItem ItemIdx
	nextLoop LoopID
	seen     map[ItemIdx]struct{}
}

func (b *builder) FoldItem(it Item) Item {
	idx := b.nextItem
	b.nextItem++
	if _, dup := b.seen[idx]; dup {
		panic(fmt.Sprintf("build: duplicate item index %d in package %q", idx, b.pkg.Name))
	}
	b.seen[idx] = struct{}{}
	it.Base().ID = ItemID{Pkg: b.pkg.ID, Item: idx}
	return SuperItem(b, it)
}

func (b *builder) FoldExpr(e Expr) Expr {
	if loop, ok := e.(*LoopExpr); ok {
		loop.Loop = b.nextLoop
		b.nextLoop++
	}
	return SuperExpr(b, e)
}

func (b *builder) FoldType(t TypeExpr) TypeExpr {
	return SuperType(b, t)
}
