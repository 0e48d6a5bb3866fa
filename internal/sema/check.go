package sema

import (
	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/source"
	"wisp/internal/symbols"
	"wisp/internal/types"
)

// Options configures a type-check pass over one package.
type Options struct {
	Reporter diag.Reporter
	Ctx      symbols.Context
	// Types is the interner shared by every package of the compilation;
	// a fresh one is created when nil.
	Types *types.Interner
}

// Check infers and checks types for a resolved package
// (resolved → typecked). Dependency packages must already be final.
func Check(pkg *ast.Package, opts Options) {
	pkg.MustPhase(ast.PhaseResolved)
	in := opts.Types
	if in == nil {
		in = types.NewInterner()
	}
	c := &checker{
		pkg:      pkg,
		reporter: opts.Reporter,
		ctx:      opts.Ctx,
		in:       in,
		lowering: make(map[ast.ItemID]bool),
	}
	c.ic = NewInferCtx(in, opts.Reporter)
	if pkg.Sigs == nil {
		pkg.Sigs = make(map[ast.ItemIdx]types.TypeID)
	}
	if pkg.Root != nil {
		c.items(pkg.Root)
	}
	pkg.Phase = ast.PhaseTypecked
}

type checker struct {
	pkg      *ast.Package
	reporter diag.Reporter
	ctx      symbols.Context
	in       *types.Interner

	// ic is the package's single substitution store; each body checker
	// takes ownership of it in turn.
	ic *InferCtx

	// lowering tracks in-flight signature lowering for cycle detection.
	lowering map[ast.ItemID]bool
}

func (c *checker) errorf(code diag.Code, span source.Span, msg string) diag.Emitted {
	return diag.ReportError(c.reporter, code, span, msg).Emit()
}

func (c *checker) findItem(id ast.ItemID) (ast.Item, *ast.Package, bool) {
	if id.Pkg == c.pkg.ID {
		it, ok := c.pkg.Item(id.Item)
		return it, c.pkg, ok
	}
	if c.ctx == nil {
		return nil, nil, false
	}
	return c.ctx.FindItem(id)
}

// items checks a module's items in source order: signatures first per
// item, then the bodies that depend on them.
func (c *checker) items(mod *ast.ModItem) {
	for _, it := range mod.Items {
		switch n := it.(type) {
		case *ast.ModItem:
			c.items(n)
		case *ast.FnItem:
			n.Ty = c.typeOfItem(n.ID)
			c.checkFnBody(n)
		case *ast.ImportItem:
			n.Ty = c.typeOfItem(n.ID)
		case *ast.GlobalItem:
			n.Ty = c.typeOfItem(n.ID)
			c.checkGlobalInit(n)
		case *ast.TypeItem:
			// force lowering so alias cycles surface even when unused
			_ = c.typeOfItem(n.ID)
		case *ast.ExternItem, *ast.UseItem, *ast.ErrorItem:
			// nothing to check
		}
	}
}

// typeOfItem computes (and memoizes) an item's signature type.
func (c *checker) typeOfItem(id ast.ItemID) types.TypeID {
	it, owner, ok := c.findItem(id)
	if !ok {
		return types.ErrorTypeID
	}
	if owner.Sigs != nil {
		if sig, done := owner.Sigs[id.Item]; done {
			return sig
		}
	}
	if c.lowering[id] {
		c.errorf(diag.SemaAliasCycle, it.Base().Span,
			"type alias cycle through '"+it.Base().Name+"'")
		return types.ErrorTypeID
	}
	c.lowering[id] = true
	sig := c.lowerItem(it, owner)
	delete(c.lowering, id)

	if owner.Sigs == nil {
		owner.Sigs = make(map[ast.ItemIdx]types.TypeID)
	}
	owner.Sigs[id.Item] = sig
	return sig
}

func (c *checker) lowerItem(it ast.Item, owner *ast.Package) types.TypeID {
	switch n := it.(type) {
	case *ast.FnItem:
		// a function without a declared return type gets a fresh variable
		// that the body check resolves
		return c.lowerSignature(n.Params, n.Ret, true)
	case *ast.ImportItem:
		return c.lowerSignature(n.Params, n.Ret, false)
	case *ast.GlobalItem:
		return c.lowerAstTy(n.Type)
	case *ast.TypeItem:
		if n.Struct != nil {
			return c.lowerStruct(n, owner)
		}
		return c.lowerAstTy(n.Alias)
	default:
		// mod/extern/use/error items carry no direct type
		return types.ErrorTypeID
	}
}

func (c *checker) lowerSignature(params []ast.Param, ret ast.TypeExpr, inferRet bool) types.TypeID {
	paramTys := make([]types.TypeID, len(params))
	for i, p := range params {
		paramTys[i] = c.lowerAstTy(p.Type)
	}
	var result types.TypeID
	switch {
	case ret != nil:
		result = c.lowerAstTy(ret)
	case inferRet:
		result = c.ic.NewVar()
	default:
		result = c.in.Builtins().Unit
	}
	return c.in.RegisterFn(paramTys, result)
}

// lowerStruct registers the nominal type before lowering its fields so
// self-references through raw pointers terminate.
func (c *checker) lowerStruct(n *ast.TypeItem, owner *ast.Package) types.TypeID {
	structID := c.in.RegisterStruct(n.Name, types.ItemRef{
		Pkg:  uint32(n.ID.Pkg),
		Item: uint32(n.ID.Item),
	})
	if owner.Sigs == nil {
		owner.Sigs = make(map[ast.ItemIdx]types.TypeID)
	}
	owner.Sigs[n.ID.Item] = structID
	delete(c.lowering, n.ID)

	fields := make([]types.StructField, len(n.Struct.Fields))
	for i, f := range n.Struct.Fields {
		fields[i] = types.StructField{Name: f.Name, Type: c.lowerAstTy(f.Type)}
	}
	// fields are stored without generic substitution
	c.in.SetStructFields(structID, fields)
	return structID
}

// lowerAstTy maps a resolved source type to a semantic type.
func (c *checker) lowerAstTy(t ast.TypeExpr) types.TypeID {
	b := c.in.Builtins()
	switch n := t.(type) {
	case *ast.IdentType:
		switch n.Res.Kind {
		case ast.ResTyParam:
			return c.in.Param(n.Res.Param)
		case ast.ResBuiltin:
			switch n.Res.Builtin {
			case ast.BuiltinString:
				return b.String
			case ast.BuiltinInt:
				return b.Int
			case ast.BuiltinI32:
				return b.I32
			case ast.BuiltinBool:
				return b.Bool
			default:
				c.errorf(diag.SemaNotAType, n.Span, "'"+n.Name+"' is not a type")
				return types.ErrorTypeID
			}
		case ast.ResItem:
			it, _, ok := c.findItem(n.Res.Item)
			if !ok {
				return types.ErrorTypeID
			}
			if _, isType := it.(*ast.TypeItem); !isType {
				c.errorf(diag.SemaNotAType, n.Span, "'"+n.Name+"' is not a type")
				return types.ErrorTypeID
			}
			// generic arguments resolve but stay opaque for now
			return c.typeOfItem(n.Res.Item)
		case ast.ResError:
			return types.ErrorTypeID
		default:
			c.errorf(diag.SemaNotAType, n.Span, "'"+n.Name+"' is not a type")
			return types.ErrorTypeID
		}
	case *ast.TupleType:
		if len(n.Elems) == 0 {
			return b.Unit
		}
		elems := make([]types.TypeID, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = c.lowerAstTy(e)
		}
		return c.in.RegisterTuple(elems)
	case *ast.RawPtrType:
		return c.in.RawPtr(c.lowerAstTy(n.Elem))
	case *ast.NeverType:
		return b.Never
	case *ast.ErrorType:
		return types.ErrorTypeID
	}
	return types.ErrorTypeID
}

// checkFnBody infers types inside one function body.
func (c *checker) checkFnBody(fn *ast.FnItem) {
	info, ok := c.in.FnInfo(fn.Ty)
	if !ok || fn.Body == nil {
		return
	}
	bc := newBodyCheck(c)
	bc.localTys = append(bc.localTys, info.Params...)

	var bodyTy types.TypeID
	fn.Body, bodyTy = bc.check(fn.Body)
	bc.ic.Assign(info.Result, bodyTy, fn.Body.Base().Span)
	bc.finish(fn.Body)

	// settle the signature now that the body bound the result variable
	fn.Ty = c.ic.Apply(fn.Ty)
	c.pkg.Sigs[fn.ID.Item] = fn.Ty
}

// checkGlobalInit checks a global's initializer against its declared type.
func (c *checker) checkGlobalInit(g *ast.GlobalItem) {
	if g.Init == nil {
		return
	}
	bc := newBodyCheck(c)
	var initTy types.TypeID
	g.Init, initTy = bc.check(g.Init)
	bc.ic.Assign(g.Ty, initTy, g.Init.Base().Span)
	bc.finish(g.Init)
}
