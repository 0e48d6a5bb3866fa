package symbols

import (
	"wisp/internal/ast"
)

// typeExpr resolves names inside a source type. generics holds the
// enclosing type item's parameter names; those shadow everything else.
// Locals never apply in type position.
func (r *resolver) typeExpr(t ast.TypeExpr, generics []string) ast.TypeExpr {
	switch n := t.(type) {
	case *ast.IdentType:
		n.Res = r.lookupTypeName(n.Name, n, generics)
		for i := range n.Args {
			n.Args[i] = r.typeExpr(n.Args[i], generics)
		}
	case *ast.TupleType:
		for i := range n.Elems {
			n.Elems[i] = r.typeExpr(n.Elems[i], generics)
		}
	case *ast.RawPtrType:
		n.Elem = r.typeExpr(n.Elem, generics)
	case *ast.NeverType, *ast.ErrorType:
		// leaves
	}
	return t
}

func (r *resolver) lookupTypeName(name string, n *ast.IdentType, generics []string) ast.Resolution {
	for i, g := range generics {
		if g == name {
			return ast.TyParamRes(uint32(i), g)
		}
	}
	return r.lookupItemName(name, n.Span, r.cur)
}
