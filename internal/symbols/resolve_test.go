package symbols

import (
	"testing"

	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/parser"
	"wisp/internal/source"
)

// graphContext is a test Context over pre-built packages.
type graphContext struct {
	packages map[string]*ast.Package
}

func (c *graphContext) FindItem(id ast.ItemID) (ast.Item, *ast.Package, bool) {
	for _, pkg := range c.packages {
		if pkg.ID == id.Pkg {
			it, ok := pkg.Item(id.Item)
			return it, pkg, ok
		}
	}
	return nil, nil, false
}

func (c *graphContext) PackageByName(name string) (*ast.Package, bool) {
	pkg, ok := c.packages[name]
	return pkg, ok
}

func (c *graphContext) LoadPackage(name string, _ source.Span) (*ast.Package, bool) {
	pkg, ok := c.packages[name]
	return pkg, ok
}

func buildPackage(t *testing.T, id ast.PackageID, name, src string, bag *diag.Bag) *ast.Package {
	t.Helper()
	fs := source.NewFileSet()
	fileID := fs.AddVirtual(name+".wisp", []byte(src))
	items, _ := parser.ParseFile(fs.Get(fileID), diag.BagReporter{Bag: bag})
	pkg := &ast.Package{
		ID:    id,
		Name:  name,
		Phase: ast.PhaseParsed,
		Root:  &ast.ModItem{ItemBase: ast.ItemBase{Name: name}, Items: items},
	}
	ast.Build(pkg)
	return pkg
}

func resolveSource(t *testing.T, src string, ctx Context) (*ast.Package, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(32)
	pkg := buildPackage(t, 1, "main", src, bag)
	if bag.HasErrors() {
		t.Fatalf("parse errors: %v", bag.Items())
	}
	Resolve(pkg, Options{Reporter: diag.BagReporter{Bag: bag}, Ctx: ctx})
	return pkg, bag
}

func fnBody(t *testing.T, pkg *ast.Package, name string) ast.Expr {
	t.Helper()
	for _, it := range pkg.RootItems() {
		if fn, ok := it.(*ast.FnItem); ok && fn.Name == name {
			return fn.Body
		}
	}
	t.Fatalf("no function %q", name)
	return nil
}

func TestLocalDeBruijnIndices(t *testing.T) {
	pkg, bag := resolveSource(t, "function f(a: Int, b: Int) = (let c = a; b);", nil)
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	block := fnBody(t, pkg, "f").(*ast.BlockExpr)

	// inside `let c = a`: stack is [a b], a is at distance 1
	let := block.Exprs[0].(*ast.LetExpr)
	aRef := let.Rhs.(*ast.IdentExpr)
	if aRef.Res.Kind != ast.ResLocal || aRef.Res.Local != 1 {
		t.Fatalf("a: %+v", aRef.Res)
	}

	// after the let: stack is [a b c], b is at distance 1
	bRef := block.Exprs[1].(*ast.IdentExpr)
	if bRef.Res.Kind != ast.ResLocal || bRef.Res.Local != 1 {
		t.Fatalf("b: %+v", bRef.Res)
	}
}

func TestShadowingResolvesToInnermost(t *testing.T) {
	pkg, bag := resolveSource(t, "function f(a: Int) = (let a = 2; a);", nil)
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	block := fnBody(t, pkg, "f").(*ast.BlockExpr)
	ref := block.Exprs[1].(*ast.IdentExpr)
	if ref.Res.Kind != ast.ResLocal || ref.Res.Local != 0 {
		t.Fatalf("shadowed a must have distance 0, got %+v", ref.Res)
	}
	if len(block.Locals) != 1 || block.Locals[0].Name != "a" {
		t.Fatalf("block locals: %+v", block.Locals)
	}
}

func TestBlockScopeTruncation(t *testing.T) {
	// the inner block's binding must not leak into the outer block
	_, bag := resolveSource(t, "function f() = ((let x = 1; x); x);", nil)
	if !bag.HasErrors() {
		t.Fatal("expected 'cannot find x' after inner block")
	}
	if bag.Items()[0].Message != "cannot find x" {
		t.Fatalf("message: %q", bag.Items()[0].Message)
	}
}

func TestModulePathCollapse(t *testing.T) {
	pkg, bag := resolveSource(t,
		"mod m (function g() = (););\nfunction main() = m.g();", nil)
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}

	call := fnBody(t, pkg, "main").(*ast.CallExpr)
	path, ok := call.Callee.(*ast.PathExpr)
	if !ok {
		t.Fatalf("callee must be a path, got %T", call.Callee)
	}
	if len(path.Segments) != 2 || path.Segments[0].Name != "m" || path.Segments[1].Name != "g" {
		t.Fatalf("segments: %+v", path.Segments)
	}

	m := pkg.Root.Items[0].(*ast.ModItem)
	g := m.Items[0].(*ast.FnItem)
	if path.Res.Kind != ast.ResItem || path.Res.Item != g.ID {
		t.Fatalf("path resolution: %+v, want %v", path.Res, g.ID)
	}

	// property: no field access keeps a module-valued left side
	assertNoModuleFieldAccess(t, pkg, nil)
}

// assertNoModuleFieldAccess walks every expression and fails when a field
// access still has a mod/extern item resolution on its left.
func assertNoModuleFieldAccess(t *testing.T, pkg *ast.Package, ctx Context) {
	t.Helper()
	probe := &moduleAccessProbe{t: t, pkg: pkg, ctx: ctx}
	ast.FoldPackage(probe, pkg)
}

type moduleAccessProbe struct {
	t   *testing.T
	pkg *ast.Package
	ctx Context
}

func (p *moduleAccessProbe) FoldItem(it ast.Item) ast.Item { return ast.SuperItem(p, it) }
func (p *moduleAccessProbe) FoldType(ty ast.TypeExpr) ast.TypeExpr {
	return ast.SuperType(p, ty)
}

func (p *moduleAccessProbe) FoldExpr(e ast.Expr) ast.Expr {
	fa, ok := e.(*ast.FieldAccessExpr)
	if !ok {
		return ast.SuperExpr(p, e)
	}
	var res ast.Resolution
	switch lhs := fa.Lhs.(type) {
	case *ast.IdentExpr:
		res = lhs.Res
	case *ast.PathExpr:
		res = lhs.Res
	default:
		return ast.SuperExpr(p, e)
	}
	if res.Kind == ast.ResItem {
		var target ast.Item
		if res.Item.Pkg == p.pkg.ID {
			target, _ = p.pkg.Item(res.Item.Item)
		} else if p.ctx != nil {
			target, _, _ = p.ctx.FindItem(res.Item)
		}
		switch target.(type) {
		case *ast.ModItem, *ast.ExternItem:
			p.t.Fatalf("field access over module survived resolution: %+v", fa)
		}
	}
	return ast.SuperExpr(p, e)
}

func TestExternPathCollapse(t *testing.T) {
	depBag := diag.NewBag(8)
	dep := buildPackage(t, 2, "dep", "function h() = ();", depBag)
	Resolve(dep, Options{Reporter: diag.BagReporter{Bag: depBag}})
	if depBag.HasErrors() {
		t.Fatalf("dep errors: %v", depBag.Items())
	}
	ctx := &graphContext{packages: map[string]*ast.Package{"dep": dep}}

	pkg, bag := resolveSource(t,
		"extern mod dep;\nfunction main() = dep.h();", ctx)
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}

	call := fnBody(t, pkg, "main").(*ast.CallExpr)
	path, ok := call.Callee.(*ast.PathExpr)
	if !ok {
		t.Fatalf("callee must be a path, got %T", call.Callee)
	}
	h := dep.RootItems()[0].(*ast.FnItem)
	if path.Res.Kind != ast.ResItem || path.Res.Item != h.ID {
		t.Fatalf("resolution: %+v, want %v", path.Res, h.ID)
	}
	assertNoModuleFieldAccess(t, pkg, ctx)
}

func TestUseDeclaration(t *testing.T) {
	pkg, bag := resolveSource(t,
		"mod m (function g() = (););\nuse m.g;\nfunction main() = g();", nil)
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}

	use := pkg.Root.Items[1].(*ast.UseItem)
	m := pkg.Root.Items[0].(*ast.ModItem)
	g := m.Items[0].(*ast.FnItem)
	if use.Name != "g" {
		t.Fatalf("use name: %q", use.Name)
	}
	if use.Res.Kind != ast.ResItem || use.Res.Item != g.ID {
		t.Fatalf("use resolution: %+v", use.Res)
	}

	call := fnBody(t, pkg, "main").(*ast.CallExpr)
	ref := call.Callee.(*ast.IdentExpr)
	if ref.Res.Kind != ast.ResItem || ref.Res.Item != g.ID {
		t.Fatalf("ident through use: %+v", ref.Res)
	}
}

func TestBuiltinsAndErrors(t *testing.T) {
	pkg, bag := resolveSource(t, `function main() = print("hi");`, nil)
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	call := fnBody(t, pkg, "main").(*ast.CallExpr)
	ref := call.Callee.(*ast.IdentExpr)
	if ref.Res.Kind != ast.ResBuiltin || ref.Res.Builtin != ast.BuiltinPrint {
		t.Fatalf("print: %+v", ref.Res)
	}

	_, bag = resolveSource(t, "function main() = nosuch;", nil)
	if !bag.HasErrors() || bag.Items()[0].Message != "cannot find nosuch" {
		t.Fatalf("expected 'cannot find nosuch', got %v", bag.Items())
	}
}

func TestDuplicateItemsDiagnosed(t *testing.T) {
	_, bag := resolveSource(t, "function f() = ();\nfunction f() = ();", nil)
	if !bag.HasErrors() {
		t.Fatal("expected duplicate diagnostic")
	}
	if bag.Items()[0].Code != diag.SemaDuplicateItem {
		t.Fatalf("code: %v", bag.Items()[0].Code)
	}
}

func TestDefPaths(t *testing.T) {
	pkg, bag := resolveSource(t,
		"mod outer (mod inner (function deep() = ();););", nil)
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	outer := pkg.Root.Items[0].(*ast.ModItem)
	inner := outer.Items[0].(*ast.ModItem)
	deep := inner.Items[0].(*ast.FnItem)

	want := []string{"outer", "inner", "deep"}
	if len(deep.DefPath) != 3 {
		t.Fatalf("def path: %v", deep.DefPath)
	}
	for i := range want {
		if deep.DefPath[i] != want[i] {
			t.Fatalf("def path: %v, want %v", deep.DefPath, want)
		}
	}
}

func TestItemIDUniqueness(t *testing.T) {
	depBag := diag.NewBag(8)
	dep := buildPackage(t, 2, "dep", "function h() = ();", depBag)
	pkg := buildPackage(t, 1, "main", "mod m (function g() = (););", depBag)

	seen := make(map[ast.ItemID]bool)
	for _, p := range []*ast.Package{dep, pkg} {
		for idx, it := range p.ByID {
			id := ast.ItemID{Pkg: p.ID, Item: idx}
			if seen[id] {
				t.Fatalf("duplicate item id %v", id)
			}
			seen[id] = true
			if it.Base().ID != id {
				t.Fatalf("id mismatch: %v vs %v", it.Base().ID, id)
			}
		}
	}
}

func TestTypeParamResolution(t *testing.T) {
	pkg, bag := resolveSource(t, "type Box[T] = struct { value: T };", nil)
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	box := pkg.Root.Items[0].(*ast.TypeItem)
	field := box.Struct.Fields[0].Type.(*ast.IdentType)
	if field.Res.Kind != ast.ResTyParam || field.Res.Param != 0 || field.Res.Name != "T" {
		t.Fatalf("type param: %+v", field.Res)
	}
}
