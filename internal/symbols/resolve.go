package symbols

import (
	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/source"
)

// Options configures a resolve pass over one package.
type Options struct {
	Reporter diag.Reporter
	Ctx      Context
}

// Resolve maps every identifier occurrence of a built package to a
// Resolution, assigns definition paths, and collapses module-valued field
// accesses into path expressions (built → resolved).
func Resolve(pkg *ast.Package, opts Options) {
	pkg.MustPhase(ast.PhaseBuilt)
	r := &resolver{
		pkg:      pkg,
		reporter: opts.Reporter,
		ctx:      opts.Ctx,
		contents: make(map[ast.ItemID]map[string]ast.ItemID),
		externs:  make(map[ast.ItemID]map[string]ast.ItemID),
		owner:    make(map[ast.ItemID]*ast.ModItem),
	}
	if pkg.Root != nil {
		r.module(pkg.Root, nil)
	}
	pkg.Phase = ast.PhaseResolved
}

type resolver struct {
	pkg      *ast.Package
	reporter diag.Reporter
	ctx      Context

	// cur is the module whose items are currently being resolved.
	cur *ast.ModItem

	// locals is the single stack of local names threaded through
	// expression traversal. Lookup distance is de-Bruijn style.
	locals []string

	// contents caches each module's direct name → item map, keyed by the
	// module's item id.
	contents map[ast.ItemID]map[string]ast.ItemID
	// externs caches a loaded dependency's root item map, keyed by the
	// referring extern item's id.
	externs map[ast.ItemID]map[string]ast.ItemID
	// owner records the module that directly contains an item.
	owner map[ast.ItemID]*ast.ModItem
}

func (r *resolver) errorf(code diag.Code, span source.Span, msg string) diag.Emitted {
	return diag.ReportError(r.reporter, code, span, msg).Emit()
}

// module resolves one module: gather the direct-contents map, diagnose
// duplicate names, then recurse into each item in source order.
func (r *resolver) module(mod *ast.ModItem, defPath []string) {
	mod.DefPath = defPath
	r.moduleContents(mod)

	prev := r.cur
	r.cur = mod
	for _, it := range mod.Items {
		base := it.Base()
		base.DefPath = append(append([]string(nil), defPath...), base.Name)
		r.item(it)
	}
	r.cur = prev
}

// moduleContents builds (and caches) the direct name → item map of a
// module, reporting duplicates on first construction.
func (r *resolver) moduleContents(mod *ast.ModItem) map[string]ast.ItemID {
	if m, ok := r.contents[mod.ID]; ok {
		return m
	}
	m := make(map[string]ast.ItemID, len(mod.Items))
	for _, it := range mod.Items {
		base := it.Base()
		r.owner[base.ID] = mod
		if base.Name == "" {
			continue
		}
		if prev, dup := m[base.Name]; dup {
			prevItem, _, _ := r.findItem(prev)
			b := diag.ReportError(r.reporter, diag.SemaDuplicateItem, base.Span,
				"duplicate item '"+base.Name+"'")
			if prevItem != nil {
				b.WithNote(prevItem.Base().Span, "previous definition here")
			}
			b.Emit()
			continue
		}
		m[base.Name] = base.ID
	}
	r.contents[mod.ID] = m
	return m
}

func (r *resolver) findItem(id ast.ItemID) (ast.Item, *ast.Package, bool) {
	if id.Pkg == r.pkg.ID {
		it, ok := r.pkg.Item(id.Item)
		return it, r.pkg, ok
	}
	if r.ctx == nil {
		return nil, nil, false
	}
	return r.ctx.FindItem(id)
}

func (r *resolver) item(it ast.Item) {
	switch n := it.(type) {
	case *ast.ModItem:
		r.module(n, n.DefPath)
	case *ast.ExternItem:
		// eager load so later path references can see the package
		if r.ctx != nil {
			if dep, ok := r.ctx.LoadPackage(n.Name, n.Span); ok {
				r.externContents(n.ID, dep)
			}
		}
	case *ast.FnItem:
		for i := range n.Params {
			n.Params[i].Type = r.typeExpr(n.Params[i].Type, nil)
		}
		if n.Ret != nil {
			n.Ret = r.typeExpr(n.Ret, nil)
		}
		depth := len(r.locals)
		for _, param := range n.Params {
			r.locals = append(r.locals, param.Name)
		}
		n.Body = r.expr(n.Body)
		r.locals = r.locals[:depth]
	case *ast.TypeItem:
		if n.Struct != nil {
			for i := range n.Struct.Fields {
				n.Struct.Fields[i].Type = r.typeExpr(n.Struct.Fields[i].Type, n.Generics)
			}
		}
		if n.Alias != nil {
			n.Alias = r.typeExpr(n.Alias, n.Generics)
		}
	case *ast.ImportItem:
		for i := range n.Params {
			n.Params[i].Type = r.typeExpr(n.Params[i].Type, nil)
		}
		if n.Ret != nil {
			n.Ret = r.typeExpr(n.Ret, nil)
		}
	case *ast.GlobalItem:
		n.Type = r.typeExpr(n.Type, nil)
		depth := len(r.locals)
		n.Init = r.expr(n.Init)
		r.locals = r.locals[:depth]
	case *ast.UseItem:
		r.useItem(n)
	case *ast.ErrorItem:
		// nothing to resolve
	}
}

// externContents caches a dependency's root item map under the referring
// extern item's id.
func (r *resolver) externContents(externID ast.ItemID, dep *ast.Package) map[string]ast.ItemID {
	if m, ok := r.externs[externID]; ok {
		return m
	}
	m := make(map[string]ast.ItemID, len(dep.RootItems()))
	for _, it := range dep.RootItems() {
		base := it.Base()
		if base.Name != "" {
			m[base.Name] = base.ID
		}
	}
	r.externs[externID] = m
	return m
}

// lookupName resolves a value-position identifier. The search order is
// locals, the current module's items, package names, builtins.
func (r *resolver) lookupName(name string, span source.Span, mod *ast.ModItem) ast.Resolution {
	for i := len(r.locals) - 1; i >= 0; i-- {
		if r.locals[i] == name {
			return ast.LocalRes(uint32(len(r.locals) - 1 - i))
		}
	}
	return r.lookupItemName(name, span, mod)
}

// lookupItemName is lookupName without the locals scan; use declarations
// resolve through it so an active function body cannot capture them.
func (r *resolver) lookupItemName(name string, span source.Span, mod *ast.ModItem) ast.Resolution {
	if mod != nil {
		if id, ok := r.moduleContents(mod)[name]; ok {
			return r.chaseUses(ast.ItemRes(id), span, 0)
		}
	}
	if name == r.pkg.Name {
		return ast.ItemRes(ast.ItemID{Pkg: r.pkg.ID, Item: ast.RootItemIdx})
	}
	if r.ctx != nil {
		if dep, ok := r.ctx.PackageByName(name); ok {
			return ast.ItemRes(ast.ItemID{Pkg: dep.ID, Item: ast.RootItemIdx})
		}
	}
	if b, ok := ast.LookupBuiltin(name); ok {
		return ast.BuiltinRes(b)
	}
	return ast.ErrorRes(r.errorf(diag.SemaUnresolvedName, span, "cannot find "+name))
}

// chaseUses replaces a resolution pointing at a use item with the use's
// own resolution, bounded against use-chains that loop.
func (r *resolver) chaseUses(res ast.Resolution, span source.Span, depth int) ast.Resolution {
	if res.Kind != ast.ResItem {
		return res
	}
	it, _, ok := r.findItem(res.Item)
	if !ok {
		return res
	}
	use, isUse := it.(*ast.UseItem)
	if !isUse {
		return res
	}
	if depth > 16 {
		return ast.ErrorRes(r.errorf(diag.SemaUnresolvedName, span,
			"use declaration cycle through '"+use.Name+"'"))
	}
	if use.Res.Kind == ast.ResNone {
		r.useItem(use)
	}
	return r.chaseUses(use.Res, span, depth+1)
}

// useItem resolves `use a.b.c;` segment by segment. The first segment uses
// item lookup in the use's own module; the rest are member lookups.
func (r *resolver) useItem(use *ast.UseItem) {
	if use.Res.Kind != ast.ResNone {
		return
	}
	res := r.lookupItemName(use.Segments[0].Name, use.Segments[0].Span, r.owner[use.ID])
	for _, seg := range use.Segments[1:] {
		if res.Kind == ast.ResError {
			break
		}
		next, ok := r.member(res, seg.Name, seg.Span)
		if !ok {
			res = ast.ErrorRes(r.errorf(diag.SemaModuleMemberNotFound, seg.Span,
				"'"+seg.Name+"' is not a module member"))
			break
		}
		res = next
	}
	use.Res = res
}

// member resolves `container.name` when container denotes a module or an
// extern package. ok is false when the container is not module-like; a
// missing member resolves to an error resolution with ok true.
func (r *resolver) member(container ast.Resolution, name string, span source.Span) (ast.Resolution, bool) {
	if container.Kind != ast.ResItem {
		return ast.Resolution{}, false
	}
	it, _, found := r.findItem(container.Item)
	if !found {
		return ast.Resolution{}, false
	}

	var m map[string]ast.ItemID
	switch n := it.(type) {
	case *ast.ModItem:
		m = r.moduleContents(n)
	case *ast.ExternItem:
		if r.ctx == nil {
			return ast.Resolution{}, false
		}
		dep, ok := r.ctx.LoadPackage(n.Name, span)
		if !ok {
			return ast.ErrorRes(diag.Emitted{Code: diag.PrjMissingPackage}), true
		}
		m = r.externContents(n.ID, dep)
	default:
		return ast.Resolution{}, false
	}

	id, ok := m[name]
	if !ok {
		return ast.ErrorRes(r.errorf(diag.SemaModuleMemberNotFound, span,
			"no member '"+name+"' in module")), true
	}
	return r.chaseUses(ast.ItemRes(id), span, 0), true
}
