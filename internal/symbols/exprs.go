package symbols

import (
	"wisp/internal/ast"
	"wisp/internal/diag"
)

// expr resolves one expression and returns the (possibly replaced) node:
// field accesses over modules collapse into path expressions.
func (r *resolver) expr(e ast.Expr) ast.Expr {
	switch n := e.(type) {
	case *ast.EmptyExpr, *ast.LitExpr, *ast.BreakExpr, *ast.AsmExpr,
		*ast.ErrorExpr, *ast.PathExpr:
		return e

	case *ast.IdentExpr:
		n.Res = r.lookupName(n.Name, n.Span, r.cur)
		return n

	case *ast.LetExpr:
		if n.Ascribed != nil {
			n.Ascribed = r.typeExpr(n.Ascribed, nil)
		}
		// the binding becomes visible only after its rhs
		n.Rhs = r.expr(n.Rhs)
		r.locals = append(r.locals, n.Name)
		return n

	case *ast.AssignExpr:
		n.Lhs = r.expr(n.Lhs)
		n.Rhs = r.expr(n.Rhs)
		return n

	case *ast.BlockExpr:
		depth := len(r.locals)
		for i := range n.Exprs {
			n.Exprs[i] = r.expr(n.Exprs[i])
			if let, ok := n.Exprs[i].(*ast.LetExpr); ok {
				n.Locals = append(n.Locals, let)
			}
		}
		r.locals = r.locals[:depth]
		return n

	case *ast.BinaryExpr:
		n.Lhs = r.expr(n.Lhs)
		n.Rhs = r.expr(n.Rhs)
		return n

	case *ast.UnaryExpr:
		n.Operand = r.expr(n.Operand)
		return n

	case *ast.CallExpr:
		n.Callee = r.expr(n.Callee)
		for i := range n.Args {
			n.Args[i] = r.expr(n.Args[i])
		}
		return n

	case *ast.FieldAccessExpr:
		return r.fieldAccess(n)

	case *ast.IfExpr:
		n.Cond = r.expr(n.Cond)
		n.Then = r.expr(n.Then)
		if n.Else != nil {
			n.Else = r.expr(n.Else)
		}
		return n

	case *ast.LoopExpr:
		n.Body = r.expr(n.Body)
		return n

	case *ast.StructLitExpr:
		n.Res = r.lookupName(n.Name, n.NameSpan, r.cur)
		for i := range n.Fields {
			n.Fields[i].Value = r.expr(n.Fields[i].Value)
		}
		return n

	case *ast.TupleLitExpr:
		for i := range n.Elems {
			n.Elems[i] = r.expr(n.Elems[i])
		}
		return n
	}
	return e
}

// fieldAccess resolves the left side first; when it now denotes a module
// or extern package, the access collapses into a path expression pointing
// at the member.
func (r *resolver) fieldAccess(n *ast.FieldAccessExpr) ast.Expr {
	n.Lhs = r.expr(n.Lhs)

	var (
		lhsRes  ast.Resolution
		lhsSegs []ast.PathSeg
	)
	switch lhs := n.Lhs.(type) {
	case *ast.IdentExpr:
		lhsRes = lhs.Res
		lhsSegs = []ast.PathSeg{{Name: lhs.Name, Span: lhs.Span}}
	case *ast.PathExpr:
		lhsRes = lhs.Res
		lhsSegs = lhs.Segments
	default:
		return n
	}
	if !r.denotesModule(lhsRes) {
		return n
	}

	if n.Field.IsNum {
		err := r.errorf(diag.SemaNumericModuleMember, n.Field.Span,
			"modules have no numeric members")
		return &ast.ErrorExpr{ExprBase: ast.ExprBase{Span: n.Span}, Err: err}
	}

	res, ok := r.member(lhsRes, n.Field.Name, n.Field.Span)
	if !ok {
		return n
	}
	segs := append(append([]ast.PathSeg(nil), lhsSegs...),
		ast.PathSeg{Name: n.Field.Name, Span: n.Field.Span})
	return &ast.PathExpr{
		ExprBase: ast.ExprBase{Span: n.Span},
		Segments: segs,
		Res:      res,
	}
}

// denotesModule reports whether a resolution names a mod or extern item.
func (r *resolver) denotesModule(res ast.Resolution) bool {
	if res.Kind != ast.ResItem {
		return false
	}
	it, _, ok := r.findItem(res.Item)
	if !ok {
		return false
	}
	switch it.(type) {
	case *ast.ModItem, *ast.ExternItem:
		return true
	}
	return false
}
