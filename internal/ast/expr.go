package ast

import (
	"wisp/internal/diag"
	"wisp/internal/source"
	"wisp/internal/types"
)

// Expr is one expression node. Every expression carries a span; after type
// checking it also carries a type in its base.
type Expr interface {
	exprNode()
	Base() *ExprBase
}

// ExprBase carries the slots shared by every expression kind.
type ExprBase struct {
	Span source.Span
	// Ty is the inferred type. Filled by the checker; never a residual
	// unification variable unless a diagnostic was emitted for this node.
	Ty types.TypeID
}

func (b *ExprBase) exprNode()       {}
func (b *ExprBase) Base() *ExprBase { return b }

// EmptyExpr is the unit expression `()`.
type EmptyExpr struct {
	ExprBase
}

// LetExpr binds a new local. LocalTy is the binding's resolved type after
// checking; the binding is visible from the next expression of the
// enclosing block.
type LetExpr struct {
	ExprBase
	Name     string
	NameSpan source.Span
	Ascribed TypeExpr // optional
	Rhs      Expr
	LocalTy  types.TypeID
}

// AssignExpr stores Rhs into the l-value Lhs.
type AssignExpr struct {
	ExprBase
	Lhs Expr
	Rhs Expr
}

// BlockExpr is `( e1; e2; …; en )`. Its type is the last element's type,
// or unit when empty. Locals lists the let bindings introduced directly in
// this block, in order; the resolver fills it.
type BlockExpr struct {
	ExprBase
	Exprs  []Expr
	Locals []*LetExpr
}

// LitKind discriminates literal forms.
type LitKind uint8

const (
	LitString LitKind = iota
	LitInt            // 64-bit, no suffix or _Int suffix
	LitI32            // _I32 suffix
)

// LitExpr is a string or integer literal.
type LitExpr struct {
	ExprBase
	Lit LitKind
	Str string
	Int uint64
}

// IdentExpr is a single-name reference. Res is filled by the resolver.
type IdentExpr struct {
	ExprBase
	Name string
	Res  Resolution
}

// PathExpr is a dotted module path collapsed by the resolver; the parser
// never produces one. Res points at the final segment's item.
type PathExpr struct {
	ExprBase
	Segments []PathSeg
	Res      Resolution
}

// BinaryExpr applies a binary operator.
type BinaryExpr struct {
	ExprBase
	Op     BinOp
	OpSpan source.Span
	Lhs    Expr
	Rhs    Expr
}

// UnaryExpr applies a unary operator.
type UnaryExpr struct {
	ExprBase
	Op      UnOp
	Operand Expr
}

// CallExpr calls Callee with Args.
type CallExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// FieldName is the member in a field access: either an identifier or a
// numeric tuple index.
type FieldName struct {
	Name  string
	Num   uint32
	IsNum bool
	Span  source.Span
}

// NoFieldIdx marks a field index not yet elaborated.
const NoFieldIdx = -1

// FieldAccessExpr is `lhs.field`. FieldIdx is the resolved field position
// after checking (NoFieldIdx before).
type FieldAccessExpr struct {
	ExprBase
	Lhs      Expr
	Field    FieldName
	FieldIdx int
}

// IfExpr is `if cond then e [else e]`.
type IfExpr struct {
	ExprBase
	Cond Expr
	Then Expr
	Else Expr // optional
}

// LoopExpr repeats Body forever. Loop is assigned by the builder.
type LoopExpr struct {
	ExprBase
	Loop LoopID
	Body Expr
}

// BreakExpr exits the innermost enclosing loop. Target is recorded by the
// checker.
type BreakExpr struct {
	ExprBase
	Target LoopID
}

// StructLitField is one `name: value` entry in a struct literal.
// FieldIdx is the declared field position after checking.
type StructLitField struct {
	Name     string
	Span     source.Span
	Value    Expr
	FieldIdx int
}

// StructLitExpr constructs a struct value: `Name { f: e, … }`.
type StructLitExpr struct {
	ExprBase
	Name     string
	NameSpan source.Span
	Res      Resolution
	Fields   []StructLitField
}

// TupleLitExpr constructs a tuple value.
type TupleLitExpr struct {
	ExprBase
	Elems []Expr
}

// AsmExpr carries inline codegen instructions, one per line.
type AsmExpr struct {
	ExprBase
	Instrs []string
}

// ErrorExpr replaces an expression that failed to parse or check.
type ErrorExpr struct {
	ExprBase
	Err diag.Emitted
}
