package sema

import (
	"strconv"
	"strings"

	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/source"
	"wisp/internal/types"
)

// bodyCheck infers types inside one function body or global initializer.
// It owns the inference context and the local type stack, which mirrors
// the resolver's local name stack exactly.
type bodyCheck struct {
	c        *checker
	ic       *InferCtx
	localTys []types.TypeID
	loops    []loopState
}

type loopState struct {
	id       ast.LoopID
	hasBreak bool
}

func newBodyCheck(c *checker) *bodyCheck {
	return &bodyCheck{
		c:  c,
		ic: c.ic,
	}
}

func (bc *bodyCheck) errorExpr(span source.Span, err diag.Emitted) (ast.Expr, types.TypeID) {
	e := &ast.ErrorExpr{ExprBase: ast.ExprBase{Span: span, Ty: types.ErrorTypeID}, Err: err}
	return e, types.ErrorTypeID
}

// check infers the type of e, records it on the node, and returns the
// (possibly rewritten) node together with its type.
func (bc *bodyCheck) check(e ast.Expr) (ast.Expr, types.TypeID) {
	e, ty := bc.checkInner(e)
	e.Base().Ty = ty
	return e, ty
}

func (bc *bodyCheck) checkInner(e ast.Expr) (ast.Expr, types.TypeID) {
	b := bc.c.in.Builtins()
	switch n := e.(type) {
	case *ast.EmptyExpr:
		return n, b.Unit

	case *ast.LetExpr:
		var declared types.TypeID
		if n.Ascribed != nil {
			declared = bc.c.lowerAstTy(n.Ascribed)
		} else {
			declared = bc.ic.NewVar()
		}
		var rhsTy types.TypeID
		n.Rhs, rhsTy = bc.check(n.Rhs)
		bc.ic.Assign(declared, rhsTy, n.Rhs.Base().Span)
		bc.localTys = append(bc.localTys, declared)
		n.LocalTy = declared
		return n, b.Unit

	case *ast.BlockExpr:
		depth := len(bc.localTys)
		ty := b.Unit
		for i := range n.Exprs {
			n.Exprs[i], ty = bc.check(n.Exprs[i])
		}
		bc.localTys = bc.localTys[:depth]
		return n, ty

	case *ast.LitExpr:
		switch n.Lit {
		case ast.LitString:
			return n, b.String
		case ast.LitI32:
			return n, b.I32
		default:
			return n, b.Int
		}

	case *ast.IdentExpr:
		return n, bc.typeOfValue(n.Res, n.Span)

	case *ast.PathExpr:
		return n, bc.typeOfValue(n.Res, n.Span)

	case *ast.BinaryExpr:
		return bc.binary(n)

	case *ast.UnaryExpr:
		return bc.unary(n)

	case *ast.CallExpr:
		return bc.call(n)

	case *ast.FieldAccessExpr:
		return bc.fieldAccess(n)

	case *ast.IfExpr:
		var condTy types.TypeID
		n.Cond, condTy = bc.check(n.Cond)
		bc.ic.Assign(b.Bool, condTy, n.Cond.Base().Span)
		var thenTy types.TypeID
		n.Then, thenTy = bc.check(n.Then)
		if n.Else == nil {
			bc.ic.Assign(b.Unit, thenTy, n.Then.Base().Span)
			return n, b.Unit
		}
		var elseTy types.TypeID
		n.Else, elseTy = bc.check(n.Else)
		bc.ic.Assign(thenTy, elseTy, n.Else.Base().Span)
		// a diverging branch adopts the other branch's type
		resolved := bc.ic.ResolveIfPossible(thenTy)
		if bc.c.in.MustLookup(resolved).Kind == types.KindNever {
			return n, elseTy
		}
		return n, thenTy

	case *ast.LoopExpr:
		bc.loops = append(bc.loops, loopState{id: n.Loop})
		var bodyTy types.TypeID
		n.Body, bodyTy = bc.check(n.Body)
		bc.ic.Assign(b.Unit, bodyTy, n.Body.Base().Span)
		state := bc.loops[len(bc.loops)-1]
		bc.loops = bc.loops[:len(bc.loops)-1]
		if state.hasBreak {
			return n, b.Unit
		}
		return n, b.Never

	case *ast.BreakExpr:
		if len(bc.loops) == 0 {
			err := bc.c.errorf(diag.SemaBreakOutsideLoop, n.Span, "break outside of loop")
			return bc.errorExpr(n.Span, err)
		}
		bc.loops[len(bc.loops)-1].hasBreak = true
		n.Target = bc.loops[len(bc.loops)-1].id
		return n, b.Never

	case *ast.StructLitExpr:
		return bc.structLit(n)

	case *ast.TupleLitExpr:
		elems := make([]types.TypeID, len(n.Elems))
		for i := range n.Elems {
			n.Elems[i], elems[i] = bc.check(n.Elems[i])
		}
		return n, bc.c.in.RegisterTuple(elems)

	case *ast.AssignExpr:
		return bc.assign(n)

	case *ast.AsmExpr:
		// only the checker itself builds these; the type is carried
		return n, n.Ty

	case *ast.ErrorExpr:
		return n, types.ErrorTypeID
	}
	return e, types.ErrorTypeID
}

// typeOfValue yields the type of a resolved value reference.
func (bc *bodyCheck) typeOfValue(res ast.Resolution, span source.Span) types.TypeID {
	switch res.Kind {
	case ast.ResLocal:
		idx := len(bc.localTys) - 1 - int(res.Local)
		if idx < 0 || idx >= len(bc.localTys) {
			return types.ErrorTypeID
		}
		return bc.localTys[idx]

	case ast.ResItem:
		it, _, ok := bc.c.findItem(res.Item)
		if !ok {
			return types.ErrorTypeID
		}
		switch it.(type) {
		case *ast.FnItem, *ast.ImportItem, *ast.GlobalItem:
			// generic argument substitution is trivial for now
			return bc.c.typeOfItem(res.Item)
		default:
			bc.c.errorf(diag.SemaTypeAsValue, span,
				"'"+it.Base().Name+"' is not a value")
			return types.ErrorTypeID
		}

	case ast.ResBuiltin:
		return bc.builtinType(res.Builtin, span)

	case ast.ResTyParam:
		bc.c.errorf(diag.SemaTypeParamAsValue, span,
			"type parameter '"+res.Name+"' cannot be used as value")
		return types.ErrorTypeID

	default:
		return types.ErrorTypeID
	}
}

// builtinType is the fixed value-type table for builtins.
func (bc *bodyCheck) builtinType(builtin ast.Builtin, span source.Span) types.TypeID {
	in := bc.c.in
	b := in.Builtins()
	switch builtin {
	case ast.BuiltinPrint:
		return in.RegisterFn([]types.TypeID{b.String}, b.Unit)
	case ast.BuiltinTrue, ast.BuiltinFalse:
		return b.Bool
	case ast.BuiltinTrap:
		return in.RegisterFn(nil, b.Never)
	case ast.BuiltinNull:
		return in.RawPtr(bc.ic.NewVar())
	case ast.BuiltinI32Store:
		return in.RegisterFn([]types.TypeID{b.I32, b.I32}, b.Unit)
	case ast.BuiltinI64Store:
		return in.RegisterFn([]types.TypeID{b.I32, b.Int}, b.Unit)
	case ast.BuiltinI32Load:
		return in.RegisterFn([]types.TypeID{b.I32}, b.I32)
	case ast.BuiltinI64Load:
		return in.RegisterFn([]types.TypeID{b.I32}, b.Int)
	case ast.BuiltinI32ExtendToI64U:
		return in.RegisterFn([]types.TypeID{b.I32}, b.Int)
	case ast.BuiltinLocals:
		return in.RegisterFn(nil, b.Unit)
	case ast.BuiltinString, ast.BuiltinInt, ast.BuiltinI32, ast.BuiltinBool:
		bc.c.errorf(diag.SemaTypeAsValue, span, "type cannot be used as value")
		return types.ErrorTypeID
	case ast.BuiltinTransmute, ast.BuiltinAsm:
		bc.c.errorf(diag.SemaIntrinsicMisuse, span, "intrinsic must be called directly")
		return types.ErrorTypeID
	default:
		return types.ErrorTypeID
	}
}

// calleeBuiltin detects a call whose callee names a builtin directly.
func calleeBuiltin(callee ast.Expr) (ast.Builtin, bool) {
	switch n := callee.(type) {
	case *ast.IdentExpr:
		if n.Res.Kind == ast.ResBuiltin {
			return n.Res.Builtin, true
		}
	case *ast.PathExpr:
		if n.Res.Kind == ast.ResBuiltin {
			return n.Res.Builtin, true
		}
	}
	return ast.BuiltinNone, false
}

func (bc *bodyCheck) call(n *ast.CallExpr) (ast.Expr, types.TypeID) {
	if builtin, ok := calleeBuiltin(n.Callee); ok {
		switch builtin {
		case ast.BuiltinTransmute:
			// argument types are checked but otherwise ignored
			for i := range n.Args {
				n.Args[i], _ = bc.check(n.Args[i])
			}
			return n, bc.ic.NewVar()
		case ast.BuiltinAsm:
			return bc.asm(n)
		}
	}

	var calleeTy types.TypeID
	n.Callee, calleeTy = bc.check(n.Callee)
	calleeTy = bc.ic.ResolveIfPossible(calleeTy)

	tt := bc.c.in.MustLookup(calleeTy)
	if tt.Kind == types.KindError {
		for i := range n.Args {
			n.Args[i], _ = bc.check(n.Args[i])
		}
		return n, types.ErrorTypeID
	}
	info, ok := bc.c.in.FnInfo(calleeTy)
	if !ok {
		for i := range n.Args {
			n.Args[i], _ = bc.check(n.Args[i])
		}
		bc.c.errorf(diag.SemaNotCallable, n.Callee.Base().Span,
			"expression of type "+bc.c.in.Format(calleeTy)+" is not callable")
		return n, types.ErrorTypeID
	}

	if len(n.Args) != len(info.Params) {
		bc.c.errorf(diag.SemaArityMismatch, n.Span,
			"expected "+strconv.Itoa(len(info.Params))+" arguments, found "+strconv.Itoa(len(n.Args)))
	}
	for i := range n.Args {
		var argTy types.TypeID
		n.Args[i], argTy = bc.check(n.Args[i])
		if i < len(info.Params) {
			bc.ic.Assign(info.Params[i], argTy, n.Args[i].Base().Span)
		}
	}
	return n, info.Result
}

// asm lowers a ___asm(...) call into an inline-instruction node. Every
// argument must be a string literal.
func (bc *bodyCheck) asm(n *ast.CallExpr) (ast.Expr, types.TypeID) {
	var instrs []string
	for _, arg := range n.Args {
		lit, ok := arg.(*ast.LitExpr)
		if !ok || lit.Lit != ast.LitString {
			err := bc.c.errorf(diag.SemaIntrinsicMisuse, arg.Base().Span,
				"___asm arguments must be string literals")
			return bc.errorExpr(n.Span, err)
		}
		for _, line := range strings.Split(lit.Str, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				instrs = append(instrs, line)
			}
		}
	}
	return &ast.AsmExpr{
		ExprBase: ast.ExprBase{Span: n.Span},
		Instrs:   instrs,
	}, bc.ic.NewVar()
}

func (bc *bodyCheck) fieldAccess(n *ast.FieldAccessExpr) (ast.Expr, types.TypeID) {
	var lhsTy types.TypeID
	n.Lhs, lhsTy = bc.check(n.Lhs)
	lhsTy = bc.ic.ResolveIfPossible(lhsTy)

	tt := bc.c.in.MustLookup(lhsTy)
	if tt.Kind == types.KindError {
		return n, types.ErrorTypeID
	}

	// field access through a raw pointer reaches the pointee struct
	target := lhsTy
	if tt.Kind == types.KindRawPtr {
		target = bc.ic.ResolveIfPossible(tt.Elem)
		tt = bc.c.in.MustLookup(target)
		if tt.Kind != types.KindStruct {
			bc.c.errorf(diag.SemaBadFieldAccess, n.Field.Span,
				"cannot access field of "+bc.c.in.Format(lhsTy))
			return n, types.ErrorTypeID
		}
	}

	switch tt.Kind {
	case types.KindTuple:
		info, _ := bc.c.in.TupleInfo(target)
		if !n.Field.IsNum {
			bc.c.errorf(diag.SemaBadFieldAccess, n.Field.Span,
				"tuple fields are numeric")
			return n, types.ErrorTypeID
		}
		if int(n.Field.Num) >= len(info.Elems) {
			bc.c.errorf(diag.SemaUnknownField, n.Field.Span,
				"tuple index "+strconv.Itoa(int(n.Field.Num))+" out of range")
			return n, types.ErrorTypeID
		}
		n.FieldIdx = int(n.Field.Num)
		return n, info.Elems[n.FieldIdx]

	case types.KindStruct:
		info, _ := bc.c.in.StructInfo(target)
		if n.Field.IsNum {
			bc.c.errorf(diag.SemaBadFieldAccess, n.Field.Span,
				"struct fields are named")
			return n, types.ErrorTypeID
		}
		for i, f := range info.Fields {
			if f.Name == n.Field.Name {
				n.FieldIdx = i
				return n, f.Type
			}
		}
		bc.c.errorf(diag.SemaUnknownField, n.Field.Span,
			"no field '"+n.Field.Name+"' in "+info.Name)
		return n, types.ErrorTypeID

	default:
		bc.c.errorf(diag.SemaBadFieldAccess, n.Field.Span,
			"cannot access field of "+bc.c.in.Format(lhsTy))
		return n, types.ErrorTypeID
	}
}

func (bc *bodyCheck) structLit(n *ast.StructLitExpr) (ast.Expr, types.TypeID) {
	if n.Res.Kind == ast.ResError {
		for i := range n.Fields {
			n.Fields[i].Value, _ = bc.check(n.Fields[i].Value)
		}
		return n, types.ErrorTypeID
	}

	var structTy types.TypeID = types.ErrorTypeID
	if n.Res.Kind == ast.ResItem {
		if it, _, ok := bc.c.findItem(n.Res.Item); ok {
			if tyIt, isType := it.(*ast.TypeItem); isType {
				lowered := bc.c.typeOfItem(n.Res.Item)
				if tt := bc.c.in.MustLookup(bc.ic.ResolveIfPossible(lowered)); tt.Kind == types.KindStruct {
					structTy = bc.ic.ResolveIfPossible(lowered)
				} else if tt.Kind != types.KindError {
					bc.c.errorf(diag.SemaNotAStruct, n.NameSpan,
						"'"+tyIt.Name+"' is not a struct")
				}
			} else {
				bc.c.errorf(diag.SemaNotAStruct, n.NameSpan,
					"'"+n.Name+"' is not a struct")
			}
		}
	}
	if structTy == types.ErrorTypeID && n.Res.Kind != ast.ResError {
		if n.Res.Kind != ast.ResItem {
			bc.c.errorf(diag.SemaNotAStruct, n.NameSpan, "'"+n.Name+"' is not a struct")
		}
		for i := range n.Fields {
			n.Fields[i].Value, _ = bc.check(n.Fields[i].Value)
		}
		return n, types.ErrorTypeID
	}

	info, _ := bc.c.in.StructInfo(structTy)
	assigned := make(map[string]bool, len(n.Fields))
	for i := range n.Fields {
		field := &n.Fields[i]
		var valTy types.TypeID
		field.Value, valTy = bc.check(field.Value)

		declIdx := -1
		for j, decl := range info.Fields {
			if decl.Name == field.Name {
				declIdx = j
				break
			}
		}
		if declIdx < 0 {
			bc.c.errorf(diag.SemaUnknownField, field.Span,
				"no field '"+field.Name+"' in "+info.Name)
			continue
		}
		field.FieldIdx = declIdx
		assigned[field.Name] = true
		bc.ic.Assign(info.Fields[declIdx].Type, valTy, field.Value.Base().Span)
	}

	var missing []string
	for _, decl := range info.Fields {
		if !assigned[decl.Name] {
			missing = append(missing, decl.Name)
		}
	}
	if len(missing) > 0 {
		bc.c.errorf(diag.SemaMissingFields, n.Span,
			"missing fields in literal: "+strings.Join(missing, ", "))
	}
	return n, structTy
}

func (bc *bodyCheck) assign(n *ast.AssignExpr) (ast.Expr, types.TypeID) {
	var lhsTy, rhsTy types.TypeID
	n.Lhs, lhsTy = bc.check(n.Lhs)
	n.Rhs, rhsTy = bc.check(n.Rhs)
	bc.ic.Assign(lhsTy, rhsTy, n.Rhs.Base().Span)
	bc.checkLValue(n.Lhs)
	return n, bc.c.in.Builtins().Unit
}

// checkLValue enforces the l-value discipline: locals, mutable globals,
// and field chains rooted at either.
func (bc *bodyCheck) checkLValue(e ast.Expr) {
	switch n := e.(type) {
	case *ast.IdentExpr:
		bc.checkLValueRes(n.Res, n.Span)
	case *ast.PathExpr:
		bc.checkLValueRes(n.Res, n.Span)
	case *ast.FieldAccessExpr:
		bc.checkLValue(n.Lhs)
	case *ast.ErrorExpr:
		// silent
	default:
		bc.c.errorf(diag.SemaNotAssignable, e.Base().Span,
			"expression is not assignable")
	}
}

func (bc *bodyCheck) checkLValueRes(res ast.Resolution, span source.Span) {
	switch res.Kind {
	case ast.ResLocal, ast.ResError:
		// fine
	case ast.ResItem:
		it, _, ok := bc.c.findItem(res.Item)
		if !ok {
			return
		}
		if g, isGlobal := it.(*ast.GlobalItem); isGlobal {
			if !g.Mut {
				bc.c.errorf(diag.SemaImmutableGlobal, span,
					"global '"+g.Name+"' is not declared mut")
			}
			return
		}
		bc.c.errorf(diag.SemaNotAssignable, span, "item is not assignable")
	default:
		bc.c.errorf(diag.SemaNotAssignable, span, "expression is not assignable")
	}
}

