package ast

import (
	"fmt"

	"wisp/internal/source"
	"wisp/internal/types"
)

// Package is one compilation unit: a tree of modules rooted at the
// implicit root module (item index 0).
type Package struct {
	ID       PackageID
	Name     string
	RootFile source.FileID
	Phase    Phase

	// Root is the package root module; its Items are the root items.
	Root *ModItem
	// ByID maps every item in the package by its index. Built phase and
	// later; rebuilt by FoldPackage.
	ByID map[ItemIdx]Item

	// LoopCount is the number of loop ids handed out by the builder.
	LoopCount uint32

	// Fatal marks a package whose parse was aborted; later phases skip it.
	Fatal bool

	// Sigs caches per-item type signatures. Typecked phase.
	Sigs map[ItemIdx]types.TypeID
}

// RootItems returns the package's root item list.
func (p *Package) RootItems() []Item {
	if p.Root == nil {
		return nil
	}
	return p.Root.Items
}

// Item returns the item with the given index.
func (p *Package) Item(idx ItemIdx) (Item, bool) {
	it, ok := p.ByID[idx]
	return it, ok
}

// MustPhase asserts the package has reached at least the given phase.
func (p *Package) MustPhase(min Phase) {
	if p.Phase < min {
		panic(fmt.Sprintf("package %q is %s, need at least %s", p.Name, p.Phase, min))
	}
}

// Reindex rebuilds ByID from the item tree.
func (p *Package) Reindex() {
	p.ByID = make(map[ItemIdx]Item)
	if p.Root == nil {
		return
	}
	var walk func(it Item)
	walk = func(it Item) {
		p.ByID[it.Base().ID.Item] = it
		if mod, ok := it.(*ModItem); ok {
			for _, child := range mod.Items {
				walk(child)
			}
		}
	}
	walk(p.Root)
}
