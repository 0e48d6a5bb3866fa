package parser

import (
	"wisp/internal/ast"
	"wisp/internal/diag"
)

// validateClasses walks a freshly parsed expression and rejects binary
// chains that mix precedence classes without parentheses: a parenthesized
// operand parses as a block, so only a direct BinaryExpr child can violate
// the rule.
func (p *Parser) validateClasses(e ast.Expr) {
	v := &classValidator{p: p}
	v.FoldExpr(e)
}

type classValidator struct {
	p *Parser
}

func (v *classValidator) FoldItem(it ast.Item) ast.Item { return ast.SuperItem(v, it) }
func (v *classValidator) FoldType(t ast.TypeExpr) ast.TypeExpr {
	return ast.SuperType(v, t)
}

func (v *classValidator) FoldExpr(e ast.Expr) ast.Expr {
	if bin, ok := e.(*ast.BinaryExpr); ok {
		v.checkChild(bin, bin.Lhs)
		v.checkChild(bin, bin.Rhs)
	}
	return ast.SuperExpr(v, e)
}

func (v *classValidator) checkChild(parent *ast.BinaryExpr, child ast.Expr) {
	sub, ok := child.(*ast.BinaryExpr)
	if !ok || sub.Op.Class() == parent.Op.Class() {
		return
	}
	v.p.report(diag.SynMixedPrecedence, sub.OpSpan,
		"operators '"+parent.Op.String()+"' and '"+sub.Op.String()+
			"' need parentheses to combine")
}
