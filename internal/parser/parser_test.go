package parser

import (
	"testing"

	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/source"
)

func parseSource(t *testing.T, src string) ([]ast.Item, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.wisp", []byte(src))
	bag := diag.NewBag(32)
	items, _ := ParseFile(fs.Get(id), diag.BagReporter{Bag: bag})
	return items, bag
}

func parseCleanExpr(t *testing.T, src string) ast.Expr {
	t.Helper()
	items, bag := parseSource(t, "function f() = "+src+";")
	if bag.HasErrors() {
		t.Fatalf("%q: unexpected errors: %v", src, bag.Items())
	}
	if len(items) != 1 {
		t.Fatalf("%q: expected 1 item, got %d", src, len(items))
	}
	return items[0].(*ast.FnItem).Body
}

func TestParseFunction(t *testing.T) {
	items, bag := parseSource(t, "function main() = (let a: Int = 1; a);")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	fn, ok := items[0].(*ast.FnItem)
	if !ok || fn.Name != "main" || len(fn.Params) != 0 || fn.Ret != nil {
		t.Fatalf("bad function item: %+v", items[0])
	}
	block, ok := fn.Body.(*ast.BlockExpr)
	if !ok || len(block.Exprs) != 2 {
		t.Fatalf("bad body: %+v", fn.Body)
	}
	let, ok := block.Exprs[0].(*ast.LetExpr)
	if !ok || let.Name != "a" || let.Ascribed == nil {
		t.Fatalf("bad let: %+v", block.Exprs[0])
	}
	if _, ok := block.Exprs[1].(*ast.IdentExpr); !ok {
		t.Fatalf("bad trailing expr: %+v", block.Exprs[1])
	}
}

func TestParseFunctionSignature(t *testing.T) {
	items, bag := parseSource(t, "function add(a: Int, b: Int) -> Int = a;")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	fn := items[0].(*ast.FnItem)
	if len(fn.Params) != 2 || fn.Params[0].Name != "a" || fn.Params[1].Name != "b" {
		t.Fatalf("params: %+v", fn.Params)
	}
	ret, ok := fn.Ret.(*ast.IdentType)
	if !ok || ret.Name != "Int" {
		t.Fatalf("ret: %+v", fn.Ret)
	}
}

func TestParseTypeItems(t *testing.T) {
	items, bag := parseSource(t,
		"type Pair = struct { x: Int, y: Int };\ntype Ptr[T] = *T;\ntype Alias = Pair;")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	pair := items[0].(*ast.TypeItem)
	if pair.Struct == nil || len(pair.Struct.Fields) != 2 || pair.Struct.Fields[1].Name != "y" {
		t.Fatalf("pair: %+v", pair)
	}
	ptr := items[1].(*ast.TypeItem)
	if len(ptr.Generics) != 1 || ptr.Generics[0] != "T" || ptr.Alias == nil {
		t.Fatalf("ptr: %+v", ptr)
	}
	if _, ok := ptr.Alias.(*ast.RawPtrType); !ok {
		t.Fatalf("ptr alias: %+v", ptr.Alias)
	}
	alias := items[2].(*ast.TypeItem)
	if alias.Alias == nil || alias.Struct != nil {
		t.Fatalf("alias: %+v", alias)
	}
}

func TestParseModForms(t *testing.T) {
	items, bag := parseSource(t, "mod m (function g() = (););\nmod disk;")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	inline := items[0].(*ast.ModItem)
	if inline.FromFile || len(inline.Items) != 1 {
		t.Fatalf("inline mod: %+v", inline)
	}
	disk := items[1].(*ast.ModItem)
	if !disk.FromFile || len(disk.Items) != 0 {
		t.Fatalf("file mod: %+v", disk)
	}
}

func TestParseUseAndExternAndGlobal(t *testing.T) {
	items, bag := parseSource(t,
		"use a.b.c;\nextern mod dep;\nglobal mut counter: Int = 0;\nglobal fixed: Int = 1;")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	use := items[0].(*ast.UseItem)
	if use.Name != "c" || len(use.Segments) != 3 {
		t.Fatalf("use: %+v", use)
	}
	ext := items[1].(*ast.ExternItem)
	if ext.Name != "dep" {
		t.Fatalf("extern: %+v", ext)
	}
	if g := items[2].(*ast.GlobalItem); !g.Mut {
		t.Fatalf("counter must be mut")
	}
	if g := items[3].(*ast.GlobalItem); g.Mut {
		t.Fatalf("fixed must not be mut")
	}
}

func TestParseImport(t *testing.T) {
	items, bag := parseSource(t, `import ("wasi" "fd_write") fdWrite(fd: I32, iov: I32) -> I32;`)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	imp := items[0].(*ast.ImportItem)
	if imp.Module != "wasi" || imp.Func != "fd_write" || imp.Name != "fdWrite" || len(imp.Params) != 2 {
		t.Fatalf("import: %+v", imp)
	}
}

func TestParenDisambiguation(t *testing.T) {
	if _, ok := parseCleanExpr(t, "()").(*ast.EmptyExpr); !ok {
		t.Error("() must be the unit expression")
	}
	if b, ok := parseCleanExpr(t, "(1; 2)").(*ast.BlockExpr); !ok || len(b.Exprs) != 2 {
		t.Error("(1; 2) must be a block of two")
	}
	if tp, ok := parseCleanExpr(t, "(1, 2)").(*ast.TupleLitExpr); !ok || len(tp.Elems) != 2 {
		t.Error("(1, 2) must be a 2-tuple")
	}
	if tp, ok := parseCleanExpr(t, "(1,)").(*ast.TupleLitExpr); !ok || len(tp.Elems) != 1 {
		t.Error("(1,) must be a 1-tuple")
	}
	if b, ok := parseCleanExpr(t, "(1)").(*ast.BlockExpr); !ok || len(b.Exprs) != 1 {
		t.Error("(1) must be a block of one")
	}
}

func TestArithPrecedence(t *testing.T) {
	e := parseCleanExpr(t, "1 + 2 * 3")
	add, ok := e.(*ast.BinaryExpr)
	if !ok || add.Op != ast.OpAdd {
		t.Fatalf("root: %+v", e)
	}
	mul, ok := add.Rhs.(*ast.BinaryExpr)
	if !ok || mul.Op != ast.OpMul {
		t.Fatalf("rhs must be the multiplication: %+v", add.Rhs)
	}
}

func TestMixedClassesRejected(t *testing.T) {
	_, bag := parseSource(t, "function f() = 1 + 2 < 3;")
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.SynMixedPrecedence {
			found = true
		}
	}
	if !found {
		t.Fatal("expected SynMixedPrecedence diagnostic")
	}

	_, bag = parseSource(t, "function f() = (1 + 2) < 3;")
	for _, d := range bag.Items() {
		if d.Code == diag.SynMixedPrecedence {
			t.Fatal("parenthesized mixing must be accepted")
		}
	}
}

func TestStructLiteralAndFieldAccess(t *testing.T) {
	lit, ok := parseCleanExpr(t, "Pair { x: 1, y: 2 }").(*ast.StructLitExpr)
	if !ok || lit.Name != "Pair" || len(lit.Fields) != 2 {
		t.Fatalf("struct literal: %+v", lit)
	}
	if lit.Fields[0].FieldIdx != ast.NoFieldIdx {
		t.Fatal("field indices must be unassigned after parsing")
	}

	fa, ok := parseCleanExpr(t, "p.x.0").(*ast.FieldAccessExpr)
	if !ok || !fa.Field.IsNum || fa.Field.Num != 0 {
		t.Fatalf("outer access: %+v", fa)
	}
	inner, ok := fa.Lhs.(*ast.FieldAccessExpr)
	if !ok || inner.Field.Name != "x" {
		t.Fatalf("inner access: %+v", fa.Lhs)
	}
}

func TestLoopBreakIfAssign(t *testing.T) {
	loop, ok := parseCleanExpr(t, "loop ( break )").(*ast.LoopExpr)
	if !ok {
		t.Fatal("loop must parse")
	}
	body := loop.Body.(*ast.BlockExpr)
	if _, ok := body.Exprs[0].(*ast.BreakExpr); !ok {
		t.Fatalf("break: %+v", body.Exprs[0])
	}

	iff, ok := parseCleanExpr(t, "if c then 1 else 2").(*ast.IfExpr)
	if !ok || iff.Else == nil {
		t.Fatalf("if: %+v", iff)
	}

	asg, ok := parseCleanExpr(t, "x = 1").(*ast.AssignExpr)
	if !ok {
		t.Fatalf("assign: %+v", asg)
	}
}

func TestParseErrorRecovery(t *testing.T) {
	items, bag := parseSource(t, "function = ;\nfunction ok() = 1;")
	if !bag.HasErrors() {
		t.Fatal("expected diagnostics from the malformed item")
	}
	var names []string
	for _, it := range items {
		if fn, ok := it.(*ast.FnItem); ok {
			names = append(names, fn.Name)
		}
	}
	if len(names) != 1 || names[0] != "ok" {
		t.Fatalf("recovery failed, parsed fns: %v", names)
	}
}
