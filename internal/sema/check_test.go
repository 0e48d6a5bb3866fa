package sema

import (
	"strings"
	"testing"

	"wisp/internal/ast"
	"wisp/internal/diag"
	"wisp/internal/parser"
	"wisp/internal/source"
	"wisp/internal/symbols"
	"wisp/internal/types"
)

func checkSource(t *testing.T, src string) (*ast.Package, *types.Interner, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("main.wisp", []byte(src))
	bag := diag.NewBag(32)
	reporter := diag.BagReporter{Bag: bag}

	items, _ := parser.ParseFile(fs.Get(fileID), reporter)
	pkg := &ast.Package{
		ID:    1,
		Name:  "main",
		Phase: ast.PhaseParsed,
		Root:  &ast.ModItem{ItemBase: ast.ItemBase{Name: "main"}, Items: items},
	}
	ast.Build(pkg)
	symbols.Resolve(pkg, symbols.Options{Reporter: reporter})

	in := types.NewInterner()
	Check(pkg, Options{Reporter: reporter, Types: in})
	return pkg, in, bag
}

func mustFn(t *testing.T, pkg *ast.Package, name string) *ast.FnItem {
	t.Helper()
	for _, it := range pkg.RootItems() {
		if fn, ok := it.(*ast.FnItem); ok && fn.Name == name {
			return fn
		}
	}
	t.Fatalf("no function %q", name)
	return nil
}

func findCode(bag *diag.Bag, code diag.Code) (diag.Diagnostic, bool) {
	for _, d := range bag.Items() {
		if d.Code == code {
			return d, true
		}
	}
	return diag.Diagnostic{}, false
}

func TestInferLetAndReturn(t *testing.T) {
	pkg, in, bag := checkSource(t, "function main() = (let a: Int = 1; a);")
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	main := mustFn(t, pkg, "main")
	if got := in.Format(main.Ty); got != "fn() -> int" {
		t.Fatalf("main type: %s", got)
	}
	if got := in.Format(main.Body.Base().Ty); got != "int" {
		t.Fatalf("body type: %s", got)
	}
}

func TestLetAscriptionMismatch(t *testing.T) {
	_, _, bag := checkSource(t, `function main() = (let a: Int = ""; a);`)
	d, ok := findCode(bag, diag.SemaTypeMismatch)
	if !ok {
		t.Fatalf("expected a type mismatch, got %v", bag.Items())
	}
	if d.Message != "expected int, found string" {
		t.Fatalf("message: %q", d.Message)
	}
}

func TestStructLiteralMissingFields(t *testing.T) {
	_, _, bag := checkSource(t,
		"type Pair = struct { x: Int, y: Int };\nfunction f() = Pair { x: 1 };")
	d, ok := findCode(bag, diag.SemaMissingFields)
	if !ok {
		t.Fatalf("expected missing-fields diagnostic, got %v", bag.Items())
	}
	if !strings.Contains(d.Message, "y") {
		t.Fatalf("message must name the missing field: %q", d.Message)
	}
}

func TestStructLiteralElaboratesIndices(t *testing.T) {
	pkg, in, bag := checkSource(t,
		"type Pair = struct { x: Int, y: Int };\nfunction f() = Pair { y: 2, x: 1 };")
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	f := mustFn(t, pkg, "f")
	lit := f.Body.(*ast.StructLitExpr)
	if lit.Fields[0].Name != "y" || lit.Fields[0].FieldIdx != 1 {
		t.Fatalf("y index: %+v", lit.Fields[0])
	}
	if lit.Fields[1].Name != "x" || lit.Fields[1].FieldIdx != 0 {
		t.Fatalf("x index: %+v", lit.Fields[1])
	}
	if got := in.Format(lit.Ty); got != "Pair" {
		t.Fatalf("literal type: %s", got)
	}
}

func TestLoopWithBreakIsUnit(t *testing.T) {
	pkg, in, bag := checkSource(t, "function main() = loop ( break );")
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	main := mustFn(t, pkg, "main")
	if got := in.Format(main.Ty); got != "fn() -> ()" {
		t.Fatalf("main type: %s", got)
	}
}

func TestLoopWithoutBreakIsNever(t *testing.T) {
	pkg, in, bag := checkSource(t, "function main() = loop ( () );")
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	main := mustFn(t, pkg, "main")
	if got := in.Format(main.Ty); got != "fn() -> !" {
		t.Fatalf("main type: %s", got)
	}

	// never unifies with anything: the loop result feeds an int local
	_, _, bag = checkSource(t,
		"function main() = (let a: Int = loop ( () ); ());")
	if bag.HasErrors() {
		t.Fatalf("never must unify with int: %v", bag.Items())
	}
}

func TestBreakPairing(t *testing.T) {
	pkg, _, bag := checkSource(t,
		"function main() = loop ( loop ( break ); break );")
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	main := mustFn(t, pkg, "main")
	outer := main.Body.(*ast.LoopExpr)
	block := outer.Body.(*ast.BlockExpr)
	inner := block.Exprs[0].(*ast.LoopExpr)
	innerBreak := inner.Body.(*ast.BlockExpr).Exprs[0].(*ast.BreakExpr)
	outerBreak := block.Exprs[1].(*ast.BreakExpr)

	if innerBreak.Target != inner.Loop {
		t.Fatalf("inner break targets %d, want %d", innerBreak.Target, inner.Loop)
	}
	if outerBreak.Target != outer.Loop {
		t.Fatalf("outer break targets %d, want %d", outerBreak.Target, outer.Loop)
	}
	if inner.Loop == outer.Loop {
		t.Fatal("loop ids must be distinct")
	}
}

func TestBreakOutsideLoop(t *testing.T) {
	_, _, bag := checkSource(t, "function main() = break;")
	if _, ok := findCode(bag, diag.SemaBreakOutsideLoop); !ok {
		t.Fatalf("expected break-outside-loop, got %v", bag.Items())
	}
}

// Phase completeness: after checking, no expression type contains an
// unbound variable unless the node is an error expression.
func TestPhaseCompleteness(t *testing.T) {
	pkg, in, bag := checkSource(t, `
type Pair = struct { x: Int, y: Int };
function pick(p: Pair) -> Int = p.x;
function main() = (
	let p = Pair { x: 1, y: 2 };
	let n = pick(p);
	let f = if n < 3 then true else false;
	print("done")
);`)
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}

	probe := &varProbe{t: t, in: in}
	ast.FoldPackage(probe, pkg)
	if probe.exprs == 0 {
		t.Fatal("probe saw no expressions")
	}
}

type varProbe struct {
	t     *testing.T
	in    *types.Interner
	exprs int
}

func (p *varProbe) FoldItem(it ast.Item) ast.Item { return ast.SuperItem(p, it) }
func (p *varProbe) FoldType(ty ast.TypeExpr) ast.TypeExpr {
	return ast.SuperType(p, ty)
}

func (p *varProbe) FoldExpr(e ast.Expr) ast.Expr {
	p.exprs++
	if _, isErr := e.(*ast.ErrorExpr); !isErr {
		if p.hasVar(e.Base().Ty) {
			p.t.Fatalf("expression %T carries a residual variable: %s", e, p.in.Format(e.Base().Ty))
		}
	}
	return ast.SuperExpr(p, e)
}

func (p *varProbe) hasVar(id types.TypeID) bool {
	tt, ok := p.in.Lookup(id)
	if !ok {
		return false
	}
	switch tt.Kind {
	case types.KindVar:
		return true
	case types.KindRawPtr:
		return p.hasVar(tt.Elem)
	case types.KindTuple:
		info, _ := p.in.TupleInfo(id)
		for _, e := range info.Elems {
			if p.hasVar(e) {
				return true
			}
		}
	case types.KindFn:
		info, _ := p.in.FnInfo(id)
		for _, prm := range info.Params {
			if p.hasVar(prm) {
				return true
			}
		}
		return p.hasVar(info.Result)
	}
	return false
}

func TestCannotInferDiagnostic(t *testing.T) {
	_, _, bag := checkSource(t, "function main() = (let a = ___transmute(0); ());")
	if _, ok := findCode(bag, diag.SemaCannotInfer); !ok {
		t.Fatalf("expected cannot-infer, got %v", bag.Items())
	}
}

func TestTransmuteAdoptsAscription(t *testing.T) {
	pkg, in, bag := checkSource(t,
		"function main() = (let a: I32 = ___transmute(1); ());")
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	main := mustFn(t, pkg, "main")
	let := main.Body.(*ast.BlockExpr).Exprs[0].(*ast.LetExpr)
	if got := in.Format(let.LocalTy); got != "i32" {
		t.Fatalf("local type: %s", got)
	}
}

func TestAliasCycle(t *testing.T) {
	_, _, bag := checkSource(t, "type A = B;\ntype B = A;")
	if _, ok := findCode(bag, diag.SemaAliasCycle); !ok {
		t.Fatalf("expected alias cycle, got %v", bag.Items())
	}
}

func TestAliasLowering(t *testing.T) {
	pkg, in, bag := checkSource(t,
		"type Pair = struct { x: Int, y: Int };\ntype P = Pair;\nfunction f(p: P) -> Int = p.x;")
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	f := mustFn(t, pkg, "f")
	info, _ := in.FnInfo(f.Ty)
	if tt := in.MustLookup(info.Params[0]); tt.Kind != types.KindStruct {
		t.Fatalf("alias must lower to the struct, got %v", tt.Kind)
	}
}

func TestRawPtrFieldAccess(t *testing.T) {
	pkg, _, bag := checkSource(t,
		"type Pair = struct { x: Int, y: Int };\nfunction f(p: *Pair) -> Int = p.y;")
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	f := mustFn(t, pkg, "f")
	fa := f.Body.(*ast.FieldAccessExpr)
	if fa.FieldIdx != 1 {
		t.Fatalf("field index through rawptr: %d", fa.FieldIdx)
	}
}

func TestTupleFieldAccess(t *testing.T) {
	pkg, in, bag := checkSource(t,
		"function f(t: (Int, Bool)) -> Bool = t.1;")
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Items())
	}
	f := mustFn(t, pkg, "f")
	fa := f.Body.(*ast.FieldAccessExpr)
	if fa.FieldIdx != 1 || in.Format(fa.Ty) != "bool" {
		t.Fatalf("tuple access: idx=%d ty=%s", fa.FieldIdx, in.Format(fa.Ty))
	}

	_, _, bag = checkSource(t, "function f(t: (Int, Bool)) = t.7;")
	if _, ok := findCode(bag, diag.SemaUnknownField); !ok {
		t.Fatalf("expected out-of-range tuple index, got %v", bag.Items())
	}
}

func TestBinaryOperatorTable(t *testing.T) {
	if _, _, bag := checkSource(t, "function f(a: Int, b: Int) -> Bool = a < b;"); bag.HasErrors() {
		t.Fatalf("int comparison: %v", bag.Items())
	}
	if _, _, bag := checkSource(t, "function f(a: I32, b: I32) -> I32 = a + b;"); bag.HasErrors() {
		t.Fatalf("i32 arithmetic: %v", bag.Items())
	}
	if _, _, bag := checkSource(t, `function f(a: String, b: String) -> Bool = a == b;`); bag.HasErrors() {
		t.Fatalf("string comparison: %v", bag.Items())
	}
	if _, _, bag := checkSource(t, "function f(a: Bool, b: Bool) -> Bool = a & b;"); bag.HasErrors() {
		t.Fatalf("bool and: %v", bag.Items())
	}

	_, _, bag := checkSource(t, "function f(a: Int, b: I32) = (a + b; ());")
	if _, ok := findCode(bag, diag.SemaInvalidBinaryOperands); !ok {
		t.Fatalf("mixing int and i32 must be rejected, got %v", bag.Items())
	}

	_, _, bag = checkSource(t, "function f(a: Bool, b: Bool) = (a < b; ());")
	if _, ok := findCode(bag, diag.SemaInvalidBinaryOperands); !ok {
		t.Fatalf("bool ordering must be rejected, got %v", bag.Items())
	}
}

func TestUnaryOperators(t *testing.T) {
	if _, _, bag := checkSource(t, "function f(a: Bool) -> Bool = !a;"); bag.HasErrors() {
		t.Fatalf("!bool: %v", bag.Items())
	}
	if _, _, bag := checkSource(t, "function f(a: Int) -> Int = !a;"); bag.HasErrors() {
		t.Fatalf("!int: %v", bag.Items())
	}

	_, _, bag := checkSource(t, "function f(a: Int) -> Int = -a;")
	if _, ok := findCode(bag, diag.SemaInvalidUnaryOperand); !ok {
		t.Fatalf("unary minus must be rejected, got %v", bag.Items())
	}
}

func TestCallChecks(t *testing.T) {
	_, _, bag := checkSource(t,
		"function g(a: Int) = ();\nfunction main() = g(1, 2);")
	if _, ok := findCode(bag, diag.SemaArityMismatch); !ok {
		t.Fatalf("expected arity mismatch, got %v", bag.Items())
	}

	_, _, bag = checkSource(t, "function main() = (let x = 1; x(2));")
	if _, ok := findCode(bag, diag.SemaNotCallable); !ok {
		t.Fatalf("expected not-callable, got %v", bag.Items())
	}

	_, _, bag = checkSource(t,
		`function g(a: String) = ();`+"\nfunction main() = g(3);")
	if _, ok := findCode(bag, diag.SemaTypeMismatch); !ok {
		t.Fatalf("expected argument mismatch, got %v", bag.Items())
	}
}

func TestAssignability(t *testing.T) {
	if _, _, bag := checkSource(t,
		"function f() = (let x = 1; x = 2);"); bag.HasErrors() {
		t.Fatalf("assigning a local: %v", bag.Items())
	}
	if _, _, bag := checkSource(t,
		"global mut counter: Int = 0;\nfunction f() = (counter = 1);"); bag.HasErrors() {
		t.Fatalf("assigning a mut global: %v", bag.Items())
	}

	_, _, bag := checkSource(t,
		"global fixed: Int = 0;\nfunction f() = (fixed = 1);")
	if _, ok := findCode(bag, diag.SemaImmutableGlobal); !ok {
		t.Fatalf("expected immutable-global, got %v", bag.Items())
	}

	_, _, bag = checkSource(t, "function f() = (1 = 2);")
	if _, ok := findCode(bag, diag.SemaNotAssignable); !ok {
		t.Fatalf("expected not-assignable, got %v", bag.Items())
	}

	if _, _, bag := checkSource(t,
		"type Pair = struct { x: Int, y: Int };\n"+
			"function f(p: Pair) = (p.x = 3);"); bag.HasErrors() {
		t.Fatalf("field chain rooted at a local: %v", bag.Items())
	}
}

func TestIfTyping(t *testing.T) {
	pkg, in, bag := checkSource(t,
		"function f(c: Bool) -> Int = if c then 1 else 2;")
	if bag.HasErrors() {
		t.Fatalf("if/else: %v", bag.Items())
	}
	f := mustFn(t, pkg, "f")
	if got := in.Format(f.Body.Base().Ty); got != "int" {
		t.Fatalf("if type: %s", got)
	}

	_, _, bag = checkSource(t, "function f(c: Bool) = if c then 1;")
	if _, ok := findCode(bag, diag.SemaTypeMismatch); !ok {
		t.Fatalf("else-less if with non-unit then must fail, got %v", bag.Items())
	}

	_, _, bag = checkSource(t, "function f() = if 1 then () else ();")
	if _, ok := findCode(bag, diag.SemaTypeMismatch); !ok {
		t.Fatalf("non-bool condition must fail, got %v", bag.Items())
	}
}

func TestUnusedGenericAccepted(t *testing.T) {
	_, _, bag := checkSource(t, "type Box[T] = struct { v: Int };\nfunction f() = ();")
	if bag.HasErrors() {
		t.Fatalf("unused generic: %v", bag.Items())
	}
}

func TestAsmLowering(t *testing.T) {
	pkg, _, bag := checkSource(t,
		"function f() -> I32 = ___asm(\"i32.const 7\");")
	if bag.HasErrors() {
		t.Fatalf("asm: %v", bag.Items())
	}
	f := mustFn(t, pkg, "f")
	asm, ok := f.Body.(*ast.AsmExpr)
	if !ok || len(asm.Instrs) != 1 || asm.Instrs[0] != "i32.const 7" {
		t.Fatalf("asm node: %+v", f.Body)
	}
}
