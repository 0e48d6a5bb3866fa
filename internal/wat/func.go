package wat

import (
	"bytes"
	"fmt"

	"wisp/internal/ast"
	"wisp/internal/types"
)

// funcEmitter lowers one function body (or global initializer) into flat
// wat instructions.
type funcEmitter struct {
	e   *Emitter
	pkg *ast.Package
	fn  *ast.FnItem
	body bytes.Buffer

	// stack mirrors the checker's locals stack; de-Bruijn references
	// index into it from the top.
	stack []localSlot

	// extraLocals are wasm locals beyond the parameters, in declaration
	// order: let bindings first (letLocals), then scratch slots.
	extraLocals []string
	letLocals   map[*ast.LetExpr]int
	nextLocal   int
	scratch     int // lazily allocated address scratch local, -1 if none
}

type localSlot struct {
	wasmIdx int // -1 for unit-typed bindings that hold no wasm local
}

func newFuncEmitter(e *Emitter, pkg *ast.Package, fn *ast.FnItem) *funcEmitter {
	fe := &funcEmitter{
		e:         e,
		pkg:       pkg,
		fn:        fn,
		letLocals: make(map[*ast.LetExpr]int),
		scratch:   -1,
	}
	if fn != nil {
		info, _ := e.in.FnInfo(fn.Ty)
		for range info.Params {
			fe.stack = append(fe.stack, localSlot{wasmIdx: fe.nextLocal})
			fe.nextLocal++
		}
		fe.collectLets(fn.Body)
	}
	return fe
}

// collectLets pre-declares a wasm local for every let binding in the body,
// since wat wants all locals up front.
func (fe *funcEmitter) collectLets(body ast.Expr) {
	c := &letCollector{fe: fe}
	c.FoldExpr(body)
}

type letCollector struct {
	fe *funcEmitter
}

func (c *letCollector) FoldItem(it ast.Item) ast.Item { return ast.SuperItem(c, it) }
func (c *letCollector) FoldType(t ast.TypeExpr) ast.TypeExpr {
	return ast.SuperType(c, t)
}

func (c *letCollector) FoldExpr(e ast.Expr) ast.Expr {
	if let, ok := e.(*ast.LetExpr); ok {
		if vt := valueType(c.fe.e.in, let.LocalTy); vt != "" {
			c.fe.letLocals[let] = c.fe.nextLocal
			c.fe.extraLocals = append(c.fe.extraLocals, vt)
			c.fe.nextLocal++
		}
	}
	return ast.SuperExpr(c, e)
}

// scratchLocal returns an i32 local reserved for object addresses.
func (fe *funcEmitter) scratchLocal() int {
	if fe.scratch < 0 {
		fe.scratch = fe.nextLocal
		fe.extraLocals = append(fe.extraLocals, "i32")
		fe.nextLocal++
	}
	return fe.scratch
}

func (fe *funcEmitter) op(format string, args ...any) {
	fmt.Fprintf(&fe.body, format+"\n", args...)
}

// dropValue discards an expression's value when it has one.
func (fe *funcEmitter) dropValue(ty types.TypeID) {
	if valueType(fe.e.in, ty) != "" {
		fe.op("drop")
	}
}

// expr emits instructions that leave the expression's value on the stack
// (nothing for unit, never, and error types). Code after a never-typed
// expression is unreachable, and the trailing `unreachable` keeps the
// wasm type checker polymorphic there.
func (fe *funcEmitter) expr(e ast.Expr) {
	fe.exprInner(e)
	if tt, ok := fe.e.in.Lookup(e.Base().Ty); ok && tt.Kind == types.KindNever {
		fe.op("unreachable")
	}
}

func (fe *funcEmitter) exprInner(e ast.Expr) {
	switch n := e.(type) {
	case *ast.EmptyExpr:
		// unit: no value

	case *ast.LetExpr:
		fe.expr(n.Rhs)
		if idx, ok := fe.letLocals[n]; ok {
			fe.op("local.set %d", idx)
			fe.stack = append(fe.stack, localSlot{wasmIdx: idx})
		} else {
			fe.dropValue(n.Rhs.Base().Ty)
			fe.stack = append(fe.stack, localSlot{wasmIdx: -1})
		}

	case *ast.BlockExpr:
		depth := len(fe.stack)
		for i, sub := range n.Exprs {
			fe.expr(sub)
			if i != len(n.Exprs)-1 {
				fe.dropValue(sub.Base().Ty)
			}
		}
		fe.stack = fe.stack[:depth]

	case *ast.LitExpr:
		switch n.Lit {
		case ast.LitString:
			fe.op("i32.const %d", fe.e.internString(n.Str))
		case ast.LitI32:
			fe.op("i32.const %d", int32(n.Int))
		default:
			fe.op("i64.const %d", int64(n.Int))
		}

	case *ast.IdentExpr:
		fe.value(n.Res, n.Base().Ty)

	case *ast.PathExpr:
		fe.value(n.Res, n.Base().Ty)

	case *ast.BinaryExpr:
		fe.binary(n)

	case *ast.UnaryExpr:
		fe.unary(n)

	case *ast.CallExpr:
		fe.call(n)

	case *ast.FieldAccessExpr:
		fe.fieldAccess(n)

	case *ast.IfExpr:
		fe.expr(n.Cond)
		if vt := valueType(fe.e.in, n.Ty); vt != "" && n.Else != nil {
			fe.op("if (result %s)", vt)
		} else {
			fe.op("if")
		}
		fe.expr(n.Then)
		if n.Else != nil {
			if valueType(fe.e.in, n.Ty) == "" {
				fe.dropValue(n.Then.Base().Ty)
			}
			fe.op("else")
			fe.expr(n.Else)
			if valueType(fe.e.in, n.Ty) == "" {
				fe.dropValue(n.Else.Base().Ty)
			}
		} else {
			fe.dropValue(n.Then.Base().Ty)
		}
		fe.op("end")

	case *ast.LoopExpr:
		fe.op("block $B%d", n.Loop)
		fe.op("loop $L%d", n.Loop)
		fe.expr(n.Body)
		fe.dropValue(n.Body.Base().Ty)
		fe.op("br $L%d", n.Loop)
		fe.op("end")
		fe.op("end")

	case *ast.BreakExpr:
		fe.op("br $B%d", n.Target)

	case *ast.StructLitExpr:
		fe.structLit(n)

	case *ast.TupleLitExpr:
		fe.tupleLit(n)

	case *ast.AssignExpr:
		fe.assign(n)

	case *ast.AsmExpr:
		for _, instr := range n.Instrs {
			fe.op("%s", instr)
		}

	case *ast.ErrorExpr:
		// never reached: codegen runs only on error-free packages
		fe.op("unreachable")
	}
}

// value materializes a resolved reference.
func (fe *funcEmitter) value(res ast.Resolution, ty types.TypeID) {
	switch res.Kind {
	case ast.ResLocal:
		slot := fe.stack[len(fe.stack)-1-int(res.Local)]
		if slot.wasmIdx >= 0 {
			fe.op("local.get %d", slot.wasmIdx)
		}

	case ast.ResItem:
		it, owner, ok := fe.findItem(res.Item)
		if !ok {
			return
		}
		switch target := it.(type) {
		case *ast.GlobalItem:
			fe.op("global.get $%s", fe.e.funcName(owner, &target.ItemBase))
		case *ast.FnItem, *ast.ImportItem:
			// first-class function reference: its table slot
			name := fe.e.funcName(owner, it.Base())
			fe.op("i32.const %d", fe.e.tableSlot(name))
		}

	case ast.ResBuiltin:
		switch res.Builtin {
		case ast.BuiltinTrue:
			fe.op("i32.const 1")
		case ast.BuiltinFalse:
			fe.op("i32.const 0")
		case ast.BuiltinNull:
			fe.op("i32.const 0")
		}
	}
}

func (fe *funcEmitter) findItem(id ast.ItemID) (ast.Item, *ast.Package, bool) {
	if id.Pkg == fe.pkg.ID {
		it, ok := fe.pkg.Item(id.Item)
		return it, fe.pkg, ok
	}
	if fe.e.ctx == nil {
		return nil, nil, false
	}
	return fe.e.ctx.FindItem(id)
}

func (fe *funcEmitter) binary(n *ast.BinaryExpr) {
	fe.expr(n.Lhs)
	fe.expr(n.Rhs)

	operand := fe.e.in.MustLookup(n.Lhs.Base().Ty)
	switch operand.Kind {
	case types.KindInt:
		fe.op("i64.%s", intOp(n.Op))
	case types.KindI32, types.KindRawPtr:
		fe.op("i32.%s", intOp(n.Op))
	case types.KindBool:
		switch n.Op {
		case ast.OpAnd:
			fe.op("i32.and")
		case ast.OpOr:
			fe.op("i32.or")
		case ast.OpEq:
			fe.op("i32.eq")
		case ast.OpNe:
			fe.op("i32.ne")
		}
	case types.KindString:
		switch n.Op {
		case ast.OpEq:
			fe.op("call $wisp.str.eq")
		case ast.OpNe:
			fe.op("call $wisp.str.eq")
			fe.op("i32.eqz")
		case ast.OpLt:
			fe.op("call $wisp.str.lt")
		case ast.OpGt:
			fe.op("call $wisp.str.gt")
		case ast.OpLe:
			fe.op("call $wisp.str.gt")
			fe.op("i32.eqz")
		case ast.OpGe:
			fe.op("call $wisp.str.lt")
			fe.op("i32.eqz")
		}
	}
}

// intOp maps an operator to the shared integer mnemonic. The language
// integers are unsigned.
func intOp(op ast.BinOp) string {
	switch op {
	case ast.OpAdd:
		return "add"
	case ast.OpSub:
		return "sub"
	case ast.OpMul:
		return "mul"
	case ast.OpDiv:
		return "div_u"
	case ast.OpRem:
		return "rem_u"
	case ast.OpLt:
		return "lt_u"
	case ast.OpGt:
		return "gt_u"
	case ast.OpLe:
		return "le_u"
	case ast.OpGe:
		return "ge_u"
	case ast.OpEq:
		return "eq"
	case ast.OpNe:
		return "ne"
	}
	return "nop"
}

func (fe *funcEmitter) unary(n *ast.UnaryExpr) {
	fe.expr(n.Operand)
	tt := fe.e.in.MustLookup(n.Operand.Base().Ty)
	switch tt.Kind {
	case types.KindBool:
		fe.op("i32.eqz")
	case types.KindI32:
		fe.op("i32.const -1")
		fe.op("i32.xor")
	case types.KindInt:
		fe.op("i64.const -1")
		fe.op("i64.xor")
	}
}

func (fe *funcEmitter) call(n *ast.CallExpr) {
	if builtin, ok := calleeBuiltin(n.Callee); ok {
		fe.builtinCall(builtin, n)
		return
	}

	// direct call when the callee names a function item
	if res, ok := calleeItem(n.Callee); ok {
		if it, owner, found := fe.findItem(res.Item); found {
			switch it.(type) {
			case *ast.FnItem, *ast.ImportItem:
				for _, arg := range n.Args {
					fe.expr(arg)
				}
				fe.op("call $%s", fe.e.funcName(owner, it.Base()))
				return
			}
		}
	}

	// indirect call through the funcref table
	for _, arg := range n.Args {
		fe.expr(arg)
	}
	fe.expr(n.Callee)
	fe.op("call_indirect (type $sig%d)", fe.e.sigFor(fe.calleeType(n)))
}

func (fe *funcEmitter) calleeType(n *ast.CallExpr) types.TypeID {
	return n.Callee.Base().Ty
}

func calleeItem(callee ast.Expr) (ast.Resolution, bool) {
	switch n := callee.(type) {
	case *ast.IdentExpr:
		if n.Res.Kind == ast.ResItem {
			return n.Res, true
		}
	case *ast.PathExpr:
		if n.Res.Kind == ast.ResItem {
			return n.Res, true
		}
	}
	return ast.Resolution{}, false
}

func (fe *funcEmitter) builtinCall(builtin ast.Builtin, n *ast.CallExpr) {
	for _, arg := range n.Args {
		fe.expr(arg)
	}
	switch builtin {
	case ast.BuiltinPrint:
		fe.op("call $wisp.print")
	case ast.BuiltinTrap:
		fe.op("unreachable")
	case ast.BuiltinI32Store:
		fe.op("i32.store")
	case ast.BuiltinI64Store:
		fe.op("i64.store")
	case ast.BuiltinI32Load:
		fe.op("i32.load")
	case ast.BuiltinI64Load:
		fe.op("i64.load")
	case ast.BuiltinI32ExtendToI64U:
		fe.op("i64.extend_i32_u")
	case ast.BuiltinTransmute:
		fe.transmute(n)
	case ast.BuiltinLocals:
		// debug intrinsic, nothing at runtime
	}
}

// transmute reinterprets its argument as the call's result type, bridging
// the two wasm value widths when they differ.
func (fe *funcEmitter) transmute(n *ast.CallExpr) {
	var argVt string
	if len(n.Args) > 0 {
		argVt = valueType(fe.e.in, n.Args[0].Base().Ty)
	}
	resVt := valueType(fe.e.in, n.Ty)
	switch {
	case argVt == resVt:
		// same representation
	case argVt == "i64" && resVt == "i32":
		fe.op("i32.wrap_i64")
	case argVt == "i32" && resVt == "i64":
		fe.op("i64.extend_i32_u")
	case argVt != "" && resVt == "":
		fe.op("drop")
	case argVt == "" && resVt != "":
		fe.op("%s.const 0", resVt)
	}
}

func (fe *funcEmitter) fieldAccess(n *ast.FieldAccessExpr) {
	fe.expr(n.Lhs)
	l, fields, ok := fe.e.objectLayout(n.Lhs.Base().Ty)
	if !ok || n.FieldIdx < 0 || n.FieldIdx >= len(fields) {
		return
	}
	fieldTy := fields[n.FieldIdx]
	if valueType(fe.e.in, fieldTy) == "" {
		fe.op("drop")
		return
	}
	fe.op("%s offset=%d", fieldLoad(fe.e.in, fieldTy), l.FieldOffsets[n.FieldIdx])
}

func (fe *funcEmitter) structLit(n *ast.StructLitExpr) {
	l, fields, ok := fe.e.objectLayout(n.Ty)
	if !ok {
		return
	}
	scratch := fe.scratchLocal()
	fe.op("i32.const %d", l.Size)
	fe.op("call $wisp.alloc")
	fe.op("local.set %d", scratch)
	for i := range n.Fields {
		f := &n.Fields[i]
		if f.FieldIdx < 0 || f.FieldIdx >= len(fields) {
			continue
		}
		if valueType(fe.e.in, fields[f.FieldIdx]) == "" {
			fe.expr(f.Value)
			continue
		}
		fe.op("local.get %d", scratch)
		fe.expr(f.Value)
		fe.op("%s offset=%d", fieldStore(fe.e.in, fields[f.FieldIdx]), l.FieldOffsets[f.FieldIdx])
	}
	fe.op("local.get %d", scratch)
}

func (fe *funcEmitter) tupleLit(n *ast.TupleLitExpr) {
	l, fields, ok := fe.e.objectLayout(n.Ty)
	if !ok {
		return
	}
	scratch := fe.scratchLocal()
	fe.op("i32.const %d", l.Size)
	fe.op("call $wisp.alloc")
	fe.op("local.set %d", scratch)
	for i, elem := range n.Elems {
		if valueType(fe.e.in, fields[i]) == "" {
			fe.expr(elem)
			continue
		}
		fe.op("local.get %d", scratch)
		fe.expr(elem)
		fe.op("%s offset=%d", fieldStore(fe.e.in, fields[i]), l.FieldOffsets[i])
	}
	fe.op("local.get %d", scratch)
}

func (fe *funcEmitter) assign(n *ast.AssignExpr) {
	switch lhs := n.Lhs.(type) {
	case *ast.IdentExpr:
		fe.assignTo(lhs.Res, n.Rhs)
	case *ast.PathExpr:
		fe.assignTo(lhs.Res, n.Rhs)
	case *ast.FieldAccessExpr:
		l, fields, ok := fe.e.objectLayout(lhs.Lhs.Base().Ty)
		if !ok || lhs.FieldIdx < 0 {
			return
		}
		fe.expr(lhs.Lhs)
		fe.expr(n.Rhs)
		if valueType(fe.e.in, fields[lhs.FieldIdx]) == "" {
			fe.op("drop")
			return
		}
		fe.op("%s offset=%d", fieldStore(fe.e.in, fields[lhs.FieldIdx]), l.FieldOffsets[lhs.FieldIdx])
	}
}

func (fe *funcEmitter) assignTo(res ast.Resolution, rhs ast.Expr) {
	switch res.Kind {
	case ast.ResLocal:
		slot := fe.stack[len(fe.stack)-1-int(res.Local)]
		fe.expr(rhs)
		if slot.wasmIdx >= 0 {
			fe.op("local.set %d", slot.wasmIdx)
		} else {
			fe.dropValue(rhs.Base().Ty)
		}
	case ast.ResItem:
		it, owner, ok := fe.findItem(res.Item)
		if !ok {
			return
		}
		if g, isGlobal := it.(*ast.GlobalItem); isGlobal {
			fe.expr(rhs)
			fe.op("global.set $%s", fe.e.funcName(owner, &g.ItemBase))
		}
	}
}
