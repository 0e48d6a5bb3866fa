package sema

import (
	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/types"
)

// finish runs the resolver pass over a checked body: every expression type
// and local type is deep-resolved, and any type still containing an
// unbound variable becomes an error with a "cannot infer type" diagnostic.
func (bc *bodyCheck) finish(body ast.Expr) {
	p := &varResolver{bc: bc}
	p.FoldExpr(body)
}

type varResolver struct {
	bc *bodyCheck
}

func (p *varResolver) FoldItem(it ast.Item) ast.Item { return ast.SuperItem(p, it) }
func (p *varResolver) FoldType(t ast.TypeExpr) ast.TypeExpr {
	return ast.SuperType(p, t)
}

func (p *varResolver) FoldExpr(e ast.Expr) ast.Expr {
	base := e.Base()
	base.Ty = p.resolve(base.Ty, e)

	if let, ok := e.(*ast.LetExpr); ok {
		let.LocalTy = p.resolve(let.LocalTy, e)
	}
	return ast.SuperExpr(p, e)
}

func (p *varResolver) resolve(ty types.TypeID, e ast.Expr) types.TypeID {
	resolved := p.bc.ic.Apply(ty)
	if !p.bc.ic.HasVars(resolved) {
		return resolved
	}
	if _, isErr := e.(*ast.ErrorExpr); !isErr {
		p.bc.c.errorf(diag.SemaCannotInfer, e.Base().Span, "cannot infer type")
	}
	return types.ErrorTypeID
}
