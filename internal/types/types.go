package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// ErrorTypeID is the shared error sentinel type. It is always slot 0.
const ErrorTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	// KindError is the sentinel produced after a diagnostic; it absorbs
	// unification silently.
	KindError Kind = iota
	KindUnit
	KindBool
	KindString
	KindInt // 64-bit integer
	KindI32 // 32-bit integer
	KindNever
	KindFn
	KindStruct
	KindTuple
	KindRawPtr
	KindVar   // unification variable
	KindParam // generic type parameter reference
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindI32:
		return "i32"
	case KindNever:
		return "never"
	case KindFn:
		return "fn"
	case KindStruct:
		return "struct"
	case KindTuple:
		return "tuple"
	case KindRawPtr:
		return "rawptr"
	case KindVar:
		return "var"
	case KindParam:
		return "param"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ItemRef mirrors an item identifier (package id + item index) without
// depending on the AST package. Struct types unify by this identity.
type ItemRef struct {
	Pkg  uint32
	Item uint32
}

// Type is a compact descriptor for any supported type.
// Elem is the pointee for rawptr; Payload is the info-table slot for
// fn/tuple/struct, the variable id for var, and the index for param.
type Type struct {
	Kind    Kind
	Elem    TypeID
	Payload uint32
}
