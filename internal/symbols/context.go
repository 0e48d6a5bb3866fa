package symbols

import (
	"wisp/internal/ast"
	"wisp/internal/source"
)

// Context exposes the package graph to the resolver and the type checker.
// The loader in internal/project implements it; tests provide fakes.
type Context interface {
	// FindItem returns the item for an id anywhere in the graph, together
	// with its owning package.
	FindItem(id ast.ItemID) (ast.Item, *ast.Package, bool)

	// PackageByName returns a finalized dependency package by name.
	PackageByName(name string) (*ast.Package, bool)

	// LoadPackage loads (and fully checks) the named dependency package,
	// memoized per name. A failed load reports its own diagnostic and
	// returns false.
	LoadPackage(name string, span source.Span) (*ast.Package, bool)
}
