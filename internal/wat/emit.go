// Package wat lowers fully typed packages to the WebAssembly text format.
package wat

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"wisp/internal/ast"
	"wisp/internal/layout"
	"wisp/internal/symbols"
	"wisp/internal/types"
)

// Emitter assembles one WebAssembly module from the main package and its
// dependencies.
type Emitter struct {
	in   *types.Interner
	ctx  symbols.Context
	pkgs []*ast.Package // dependencies first, main package last

	funcs   bytes.Buffer // emitted function bodies
	globals bytes.Buffer
	imports bytes.Buffer
	inits   bytes.Buffer // global initializer instructions

	data       []byte
	strOffsets map[string]uint32

	// initLocals accumulates the wasm locals the global initializers
	// need inside the synthesized init function.
	initLocals []string

	table    []string       // funcref table, for indirect calls
	tableIdx map[string]int // name -> table slot

	sigs    []string       // named function types for call_indirect
	sigIdx  map[string]int // signature text -> index
}

// Emit writes a complete module. Packages must be typecked; dependencies
// come before the main package.
func Emit(w io.Writer, pkgs []*ast.Package, in *types.Interner, ctx symbols.Context) error {
	for _, pkg := range pkgs {
		pkg.MustPhase(ast.PhaseTypecked)
	}
	e := &Emitter{
		in:         in,
		ctx:        ctx,
		pkgs:       pkgs,
		strOffsets: make(map[string]uint32),
		tableIdx:   make(map[string]int),
		sigIdx:     make(map[string]int),
	}

	for _, pkg := range pkgs {
		e.items(pkg, pkg.Root)
	}

	return e.assemble(w)
}

func (e *Emitter) mainPkg() *ast.Package {
	return e.pkgs[len(e.pkgs)-1]
}

// funcName builds the stable symbolic name of an item.
func (e *Emitter) funcName(pkg *ast.Package, base *ast.ItemBase) string {
	parts := append([]string{pkg.Name}, base.DefPath...)
	return strings.Join(parts, ".")
}

func (e *Emitter) items(pkg *ast.Package, mod *ast.ModItem) {
	if mod == nil {
		return
	}
	for _, it := range mod.Items {
		switch n := it.(type) {
		case *ast.ModItem:
			e.items(pkg, n)
		case *ast.ImportItem:
			e.importItem(pkg, n)
		case *ast.GlobalItem:
			e.globalItem(pkg, n)
		case *ast.FnItem:
			e.fnItem(pkg, n)
		}
	}
}

func (e *Emitter) importItem(pkg *ast.Package, n *ast.ImportItem) {
	info, ok := e.in.FnInfo(n.Ty)
	if !ok {
		return
	}
	fmt.Fprintf(&e.imports, "(import %q %q (func $%s", n.Module, n.Func, e.funcName(pkg, &n.ItemBase))
	for _, p := range info.Params {
		fmt.Fprintf(&e.imports, " (param %s)", valueType(e.in, p))
	}
	if vt := valueType(e.in, info.Result); vt != "" {
		fmt.Fprintf(&e.imports, " (result %s)", vt)
	}
	fmt.Fprintf(&e.imports, "))\n")
}

func (e *Emitter) globalItem(pkg *ast.Package, n *ast.GlobalItem) {
	vt := valueType(e.in, n.Ty)
	if vt == "" {
		return
	}
	name := e.funcName(pkg, &n.ItemBase)
	// every global is a mutable wasm global; the language-level mut marker
	// is enforced by the checker
	fmt.Fprintf(&e.globals, "(global $%s (mut %s) (%s.const 0))\n", name, vt, vt)

	if n.Init != nil {
		fe := newFuncEmitter(e, pkg, nil)
		// initializers share the init function's local space
		fe.nextLocal = len(e.initLocals)
		fe.collectLets(n.Init)
		fe.expr(n.Init)
		e.initLocals = append(e.initLocals, fe.extraLocals...)
		e.inits.Write(fe.body.Bytes())
		fmt.Fprintf(&e.inits, "global.set $%s\n", name)
	}
}

func (e *Emitter) fnItem(pkg *ast.Package, n *ast.FnItem) {
	info, ok := e.in.FnInfo(n.Ty)
	if !ok || n.Body == nil {
		return
	}
	name := e.funcName(pkg, &n.ItemBase)

	fe := newFuncEmitter(e, pkg, n)
	fe.expr(n.Body)
	resultVt := valueType(e.in, info.Result)

	fmt.Fprintf(&e.funcs, "(func $%s", name)
	for i, p := range info.Params {
		fmt.Fprintf(&e.funcs, " (param $p%d %s)", i, valueType(e.in, p))
	}
	if resultVt != "" {
		fmt.Fprintf(&e.funcs, " (result %s)", resultVt)
	}
	for _, vt := range fe.extraLocals {
		fmt.Fprintf(&e.funcs, " (local %s)", vt)
	}
	fmt.Fprintf(&e.funcs, "\n")

	body := fe.body.Bytes()
	e.funcs.Write(body)

	// reconcile the body's value with the declared result; a diverging
	// body already ends in unreachable
	bodyVt := valueType(e.in, e.bodyType(n))
	if resultVt == "" && bodyVt != "" {
		fmt.Fprintf(&e.funcs, "drop\n")
	}
	fmt.Fprintf(&e.funcs, ")\n")
}

func (e *Emitter) bodyType(n *ast.FnItem) types.TypeID {
	return n.Body.Base().Ty
}

// internString places a literal in the data segment: a 4-byte little
// endian length followed by the bytes. Returns its address.
func (e *Emitter) internString(s string) uint32 {
	if off, ok := e.strOffsets[s]; ok {
		return off
	}
	// align each entry so the length field loads naturally
	for len(e.data)%4 != 0 {
		e.data = append(e.data, 0)
	}
	off := uint32(len(e.data)) + dataBase
	n := uint32(len(s))
	e.data = append(e.data, byte(n), byte(n>>8), byte(n>>16), byte(n>>24))
	e.data = append(e.data, s...)
	e.strOffsets[s] = off
	return off
}

// dataBase keeps the null address and a small scratch area reserved.
const dataBase = 16

// tableSlot assigns (or reuses) a funcref table slot for a function name.
func (e *Emitter) tableSlot(name string) int {
	if idx, ok := e.tableIdx[name]; ok {
		return idx
	}
	idx := len(e.table)
	e.table = append(e.table, name)
	e.tableIdx[name] = idx
	return idx
}

// sigFor returns the named type index used by call_indirect for a fn type.
func (e *Emitter) sigFor(fnTy types.TypeID) int {
	info, _ := e.in.FnInfo(fnTy)
	var sb strings.Builder
	sb.WriteString("(func")
	for _, p := range info.Params {
		fmt.Fprintf(&sb, " (param %s)", valueType(e.in, p))
	}
	if vt := valueType(e.in, info.Result); vt != "" {
		fmt.Fprintf(&sb, " (result %s)", vt)
	}
	sb.WriteString(")")
	text := sb.String()
	if idx, ok := e.sigIdx[text]; ok {
		return idx
	}
	idx := len(e.sigs)
	e.sigs = append(e.sigs, text)
	e.sigIdx[text] = idx
	return idx
}

func (e *Emitter) assemble(w io.Writer) error {
	var out bytes.Buffer
	fmt.Fprintf(&out, "(module\n")

	for i, sig := range e.sigs {
		fmt.Fprintf(&out, "(type $sig%d %s)\n", i, sig)
	}

	fmt.Fprintf(&out, "(import \"env\" \"print\" (func $wisp.print (param i32)))\n")
	out.Write(e.imports.Bytes())

	fmt.Fprintf(&out, "(memory (export \"memory\") 16)\n")

	if len(e.table) > 0 {
		fmt.Fprintf(&out, "(table %d funcref)\n", len(e.table))
		fmt.Fprintf(&out, "(elem (i32.const 0) func")
		for _, name := range e.table {
			fmt.Fprintf(&out, " $%s", name)
		}
		fmt.Fprintf(&out, ")\n")
	}

	heapStart := dataBase + uint32(len(e.data))
	heapStart = (heapStart + 7) &^ 7
	fmt.Fprintf(&out, "(global $heap (mut i32) (i32.const %d))\n", heapStart)
	out.Write(e.globals.Bytes())

	out.WriteString(runtimeHelpers)
	out.Write(e.funcs.Bytes())

	fmt.Fprintf(&out, "(func $wisp.init")
	for _, vt := range e.initLocals {
		fmt.Fprintf(&out, " (local %s)", vt)
	}
	fmt.Fprintf(&out, "\n")
	out.Write(e.inits.Bytes())
	fmt.Fprintf(&out, ")\n(start $wisp.init)\n")

	if len(e.data) > 0 {
		fmt.Fprintf(&out, "(data (i32.const %d) \"%s\")\n", dataBase, escapeData(e.data))
	}

	if mainFn := e.findMain(); mainFn != "" {
		fmt.Fprintf(&out, "(export \"main\" (func $%s))\n", mainFn)
	}

	fmt.Fprintf(&out, ")\n")
	return indent(w, out.Bytes())
}

func (e *Emitter) findMain() string {
	main := e.mainPkg()
	for _, it := range main.RootItems() {
		if fn, ok := it.(*ast.FnItem); ok && fn.Name == "main" {
			return e.funcName(main, &fn.ItemBase)
		}
	}
	return ""
}

// escapeData renders raw bytes for a (data ...) string. %q then unquotes
// would mangle bytes, so escape by hand.
func escapeData(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		switch {
		case b == '"' || b == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(b)
		case b >= 0x20 && b < 0x7f:
			sb.WriteByte(b)
		default:
			fmt.Fprintf(&sb, "\\%02x", b)
		}
	}
	return sb.String()
}

// valueType maps a semantic type to its wasm value type. Unit, never and
// error produce no value.
func valueType(in *types.Interner, ty types.TypeID) string {
	tt, ok := in.Lookup(ty)
	if !ok {
		return ""
	}
	switch tt.Kind {
	case types.KindInt:
		return "i64"
	case types.KindI32, types.KindBool, types.KindString, types.KindRawPtr,
		types.KindStruct, types.KindTuple, types.KindFn:
		return "i32"
	default:
		return ""
	}
}

// fieldLoad picks the load instruction for a stored field.
func fieldLoad(in *types.Interner, ty types.TypeID) string {
	if valueType(in, ty) == "i64" {
		return "i64.load"
	}
	return "i32.load"
}

func fieldStore(in *types.Interner, ty types.TypeID) string {
	if valueType(in, ty) == "i64" {
		return "i64.store"
	}
	return "i32.store"
}

// objectLayout computes the layout behind a struct, tuple, or raw pointer
// to either.
func (e *Emitter) objectLayout(ty types.TypeID) (layout.Layout, []types.TypeID, bool) {
	tt, ok := e.in.Lookup(ty)
	if !ok {
		return layout.Layout{}, nil, false
	}
	if tt.Kind == types.KindRawPtr {
		return e.objectLayout(tt.Elem)
	}
	switch tt.Kind {
	case types.KindStruct:
		info, _ := e.in.StructInfo(ty)
		fields := make([]types.TypeID, len(info.Fields))
		for i, f := range info.Fields {
			fields[i] = f.Type
		}
		l, _ := layout.OfStruct(e.in, ty)
		return l, fields, true
	case types.KindTuple:
		info, _ := e.in.TupleInfo(ty)
		l, _ := layout.OfTuple(e.in, ty)
		return l, info.Elems, true
	}
	return layout.Layout{}, nil, false
}

// indent pretty-prints the flat module with two-space nesting.
func indent(w io.Writer, src []byte) error {
	depth := 0
	for _, line := range bytes.Split(src, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		opens := bytes.Count(trimmed, []byte("("))
		closes := bytes.Count(trimmed, []byte(")"))
		lead := depth
		if bytes.HasPrefix(trimmed, []byte(")")) || isBlockEnd(trimmed) {
			lead--
		}
		if lead < 0 {
			lead = 0
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", lead), trimmed); err != nil {
			return err
		}
		depth += opens - closes
		if isBlockStart(trimmed) {
			depth++
		}
		if isBlockEnd(trimmed) {
			depth--
		}
		if depth < 0 {
			depth = 0
		}
	}
	return nil
}

func isBlockStart(line []byte) bool {
	s := string(line)
	return s == "if" || strings.HasPrefix(s, "if ") || strings.HasPrefix(s, "block") ||
		strings.HasPrefix(s, "loop") || s == "else"
}

func isBlockEnd(line []byte) bool {
	s := string(line)
	return s == "end" || s == "else"
}
