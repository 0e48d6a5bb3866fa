package ast

// Folder is a visitor that maps every item, expression, and source type of
// a package from one phase to the next. Hooks may elaborate nodes in place
// or return replacements; SuperItem/SuperExpr/SuperType provide the default
// structural recursion a hook delegates to.
type Folder interface {
	FoldItem(it Item) Item
	FoldExpr(e Expr) Expr
	FoldType(t TypeExpr) TypeExpr
}

// FoldPackage applies the folder to every root item and rebuilds the
// package's by-id table.
func FoldPackage(f Folder, pkg *Package) {
	if pkg.Root == nil {
		return
	}
	root := f.FoldItem(pkg.Root)
	mod, ok := root.(*ModItem)
	if !ok {
		panic("fold: package root must remain a module")
	}
	pkg.Root = mod
	pkg.Reindex()
}

// SuperItem recurses structurally into an item's children.
func SuperItem(f Folder, it Item) Item {
	switch n := it.(type) {
	case *FnItem:
		for i := range n.Params {
			if n.Params[i].Type != nil {
				n.Params[i].Type = f.FoldType(n.Params[i].Type)
			}
		}
		if n.Ret != nil {
			n.Ret = f.FoldType(n.Ret)
		}
		if n.Body != nil {
			n.Body = f.FoldExpr(n.Body)
		}
	case *TypeItem:
		if n.Struct != nil {
			for i := range n.Struct.Fields {
				n.Struct.Fields[i].Type = f.FoldType(n.Struct.Fields[i].Type)
			}
		}
		if n.Alias != nil {
			n.Alias = f.FoldType(n.Alias)
		}
	case *ImportItem:
		for i := range n.Params {
			if n.Params[i].Type != nil {
				n.Params[i].Type = f.FoldType(n.Params[i].Type)
			}
		}
		if n.Ret != nil {
			n.Ret = f.FoldType(n.Ret)
		}
	case *ModItem:
		for i := range n.Items {
			n.Items[i] = f.FoldItem(n.Items[i])
		}
	case *GlobalItem:
		if n.Type != nil {
			n.Type = f.FoldType(n.Type)
		}
		if n.Init != nil {
			n.Init = f.FoldExpr(n.Init)
		}
	case *ExternItem, *UseItem, *ErrorItem:
		// leaves
	}
	return it
}

// SuperExpr recurses structurally into an expression's children.
// Elaboration already present on the node (resolutions, field indices,
// loop targets) is preserved.
func SuperExpr(f Folder, e Expr) Expr {
	switch n := e.(type) {
	case *LetExpr:
		if n.Ascribed != nil {
			n.Ascribed = f.FoldType(n.Ascribed)
		}
		n.Rhs = f.FoldExpr(n.Rhs)
	case *AssignExpr:
		n.Lhs = f.FoldExpr(n.Lhs)
		n.Rhs = f.FoldExpr(n.Rhs)
	case *BlockExpr:
		for i := range n.Exprs {
			n.Exprs[i] = f.FoldExpr(n.Exprs[i])
		}
	case *BinaryExpr:
		n.Lhs = f.FoldExpr(n.Lhs)
		n.Rhs = f.FoldExpr(n.Rhs)
	case *UnaryExpr:
		n.Operand = f.FoldExpr(n.Operand)
	case *CallExpr:
		n.Callee = f.FoldExpr(n.Callee)
		for i := range n.Args {
			n.Args[i] = f.FoldExpr(n.Args[i])
		}
	case *FieldAccessExpr:
		n.Lhs = f.FoldExpr(n.Lhs)
	case *IfExpr:
		n.Cond = f.FoldExpr(n.Cond)
		n.Then = f.FoldExpr(n.Then)
		if n.Else != nil {
			n.Else = f.FoldExpr(n.Else)
		}
	case *LoopExpr:
		n.Body = f.FoldExpr(n.Body)
	case *StructLitExpr:
		for i := range n.Fields {
			n.Fields[i].Value = f.FoldExpr(n.Fields[i].Value)
		}
	case *TupleLitExpr:
		for i := range n.Elems {
			n.Elems[i] = f.FoldExpr(n.Elems[i])
		}
	case *EmptyExpr, *LitExpr, *IdentExpr, *PathExpr, *BreakExpr, *AsmExpr, *ErrorExpr:
		// leaves
	}
	return e
}

// SuperType recurses structurally into a source type's children.
func SuperType(f Folder, t TypeExpr) TypeExpr {
	switch n := t.(type) {
	case *IdentType:
		for i := range n.Args {
			n.Args[i] = f.FoldType(n.Args[i])
		}
	case *TupleType:
		for i := range n.Elems {
			n.Elems[i] = f.FoldType(n.Elems[i])
		}
	case *RawPtrType:
		n.Elem = f.FoldType(n.Elem)
	case *NeverType, *ErrorType:
		// leaves
	}
	return t
}
