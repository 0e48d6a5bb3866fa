package ast

import (
	"wisp/internal/diag"
	"wisp/internal/source"
)

// TypeExpr is a type as written in source, before lowering to a semantic
// type.
type TypeExpr interface {
	typeNode()
	TypeBase() *TypeExprBase
}

// TypeExprBase carries the span shared by every type form.
type TypeExprBase struct {
	Span source.Span
}

func (b *TypeExprBase) typeNode()                {}
func (b *TypeExprBase) TypeBase() *TypeExprBase { return b }

// IdentType names a type, optionally with generic arguments `Name[A, B]`.
// Res is filled by the resolver.
type IdentType struct {
	TypeExprBase
	Name string
	Args []TypeExpr
	Res  Resolution
}

// TupleType is `(T1, T2, …)`; the empty tuple is the unit type.
type TupleType struct {
	TypeExprBase
	Elems []TypeExpr
}

// RawPtrType is `*T`.
type RawPtrType struct {
	TypeExprBase
	Elem TypeExpr
}

// NeverType is the empty type `!`.
type NeverType struct {
	TypeExprBase
}

// ErrorType replaces a type that failed to parse.
type ErrorType struct {
	TypeExprBase
	Err diag.Emitted
}
