package ast

import "fmt"

type (
	// PackageID identifies a package within one compilation, in load order.
	PackageID uint32
	// ItemIdx numbers items inside a package. Index 0 is reserved for the
	// package root module.
	ItemIdx uint32
	// LoopID numbers loop expressions inside a package, starting at 0.
	LoopID uint32
)

// RootItemIdx is the item index of every package's root module.
const RootItemIdx ItemIdx = 0

// NoLoopID marks an unassigned loop target.
const NoLoopID LoopID = ^LoopID(0)

// ItemID is the globally unique, phase-stable identifier of an item.
type ItemID struct {
	Pkg  PackageID
	Item ItemIdx
}

func (id ItemID) String() string {
	return fmt.Sprintf("%d.%d", id.Pkg, id.Item)
}

// IsRoot reports whether the id names a package root module.
func (id ItemID) IsRoot() bool { return id.Item == RootItemIdx }
