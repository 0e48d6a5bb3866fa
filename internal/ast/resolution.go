package ast

import (
	"wisp/internal/diag"
)

// ResKind discriminates the outcome of name lookup.
type ResKind uint8

const (
	ResNone ResKind = iota
	// ResLocal is a reference to a local binding, by de-Bruijn distance:
	// the most recently pushed local has index 0.
	ResLocal
	// ResItem points at an item anywhere in the package graph.
	ResItem
	// ResBuiltin names a compiler-provided value or type.
	ResBuiltin
	// ResTyParam references a generic parameter of the enclosing type.
	ResTyParam
	// ResError records that lookup failed and a diagnostic was emitted.
	ResError
)

// Resolution is the outcome of resolving one identifier occurrence.
type Resolution struct {
	Kind    ResKind
	Local   uint32 // ResLocal: distance from the top of the locals stack
	Item    ItemID // ResItem
	Builtin Builtin
	Param   uint32 // ResTyParam: parameter index
	Name    string // ResTyParam: parameter name
	Err     diag.Emitted
}

func LocalRes(index uint32) Resolution { return Resolution{Kind: ResLocal, Local: index} }
func ItemRes(id ItemID) Resolution     { return Resolution{Kind: ResItem, Item: id} }
func BuiltinRes(b Builtin) Resolution  { return Resolution{Kind: ResBuiltin, Builtin: b} }
func TyParamRes(index uint32, name string) Resolution {
	return Resolution{Kind: ResTyParam, Param: index, Name: name}
}
func ErrorRes(err diag.Emitted) Resolution { return Resolution{Kind: ResError, Err: err} }

// Builtin enumerates the closed set of names implemented by the compiler.
type Builtin uint8

const (
	BuiltinNone Builtin = iota
	BuiltinPrint
	BuiltinString
	BuiltinInt
	BuiltinI32
	BuiltinBool
	BuiltinTrue
	BuiltinFalse
	BuiltinTrap
	BuiltinNull
	BuiltinI32Store
	BuiltinI64Store
	BuiltinI32Load
	BuiltinI64Load
	BuiltinI32ExtendToI64U
	BuiltinTransmute
	BuiltinAsm
	BuiltinLocals
)

var builtinNames = map[string]Builtin{
	"print":                 BuiltinPrint,
	"String":                BuiltinString,
	"Int":                   BuiltinInt,
	"I32":                   BuiltinI32,
	"Bool":                  BuiltinBool,
	"true":                  BuiltinTrue,
	"false":                 BuiltinFalse,
	"trap":                  BuiltinTrap,
	"__NULL":                BuiltinNull,
	"__i32_store":           BuiltinI32Store,
	"__i64_store":           BuiltinI64Store,
	"__i32_load":            BuiltinI32Load,
	"__i64_load":            BuiltinI64Load,
	"__i32_extend_to_i64_u": BuiltinI32ExtendToI64U,
	"___transmute":          BuiltinTransmute,
	"___asm":                BuiltinAsm,
	"__locals":              BuiltinLocals,
}

// LookupBuiltin maps a source name onto the builtin set.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtinNames[name]
	return b, ok
}

func (b Builtin) String() string {
	for name, v := range builtinNames {
		if v == b {
			return name
		}
	}
	return "<none>"
}
