package ast

import (
	"wisp/internal/diag"
	"wisp/internal/source"
	"wisp/internal/types"
)

// Item is one top-level or module-nested declaration.
type Item interface {
	itemNode()
	Base() *ItemBase
}

// ItemBase carries the slots shared by every item kind.
type ItemBase struct {
	Span source.Span
	ID   ItemID
	Name string
	// DefPath is the sequence of module names from the package root down to
	// and including this item's name. Filled by the resolver.
	DefPath []string
}

func (b *ItemBase) itemNode()       {}
func (b *ItemBase) Base() *ItemBase { return b }

// PathSeg is one dotted segment in a use declaration or path expression.
type PathSeg struct {
	Name string
	Span source.Span
}

// Param is a named function or import parameter.
type Param struct {
	Name string
	Span source.Span
	Type TypeExpr
}

// FnItem is a function definition. Ty is the function type after checking.
type FnItem struct {
	ItemBase
	Params []Param
	Ret    TypeExpr // nil means unit
	Body   Expr
	Ty     types.TypeID
}

// FieldDef is one declared struct field.
type FieldDef struct {
	Name string
	Span source.Span
	Type TypeExpr
}

// StructDef is the struct form of a type definition.
type StructDef struct {
	Fields []FieldDef
}

// TypeItem declares a nominal type: either a struct or an alias.
// Exactly one of Struct and Alias is set.
type TypeItem struct {
	ItemBase
	Generics []string
	Struct   *StructDef
	Alias    TypeExpr
}

// ImportItem declares a foreign function brought in from the host.
type ImportItem struct {
	ItemBase
	Module string // wasm import module string
	Func   string // wasm import function string
	Params []Param
	Ret    TypeExpr // nil means unit
	Ty     types.TypeID
}

// ModItem is a module: an ordered list of contained items. FromFile marks
// the `mod NAME;` form whose items the loader reads from NAME.wisp before
// the build phase.
type ModItem struct {
	ItemBase
	Items    []Item
	FromFile bool
}

// ExternItem references another package by name; resolving it loads the
// package eagerly.
type ExternItem struct {
	ItemBase
}

// GlobalItem is a module-level variable. Assignment requires Mut.
type GlobalItem struct {
	ItemBase
	Mut  bool
	Type TypeExpr
	Init Expr
	Ty   types.TypeID
}

// UseItem brings a dotted path into scope. Its Name equals the last
// segment's name; Res points at the final segment after resolution.
type UseItem struct {
	ItemBase
	Segments []PathSeg
	Res      Resolution
}

// ErrorItem replaces an item that failed to parse.
type ErrorItem struct {
	ItemBase
	Err diag.Emitted
}
