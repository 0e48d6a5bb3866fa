package types

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for the primitive types.
type Builtins struct {
	Error  TypeID
	Unit   TypeID
	Bool   TypeID
	String TypeID
	Int    TypeID
	I32    TypeID
	Never  TypeID
}

// FnInfo stores metadata for function types.
type FnInfo struct {
	Params []TypeID
	Result TypeID
}

// TupleInfo stores the element types for a tuple type.
type TupleInfo struct {
	Elems []TypeID
}

// StructField describes a single field inside a nominal struct type.
type StructField struct {
	Name string
	Type TypeID
}

// StructInfo stores metadata for a nominal struct type. Item is the
// declaring item; struct types unify when their Items match.
type StructInfo struct {
	Name   string
	Item   ItemRef
	Fields []StructField
}

// Interner provides stable TypeIDs by hashing structural descriptors.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
	fns      []FnInfo
	tuples   []TupleInfo
	structs  []StructInfo
	nextVar  uint32
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Payload uint32
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 64),
	}
	in.builtins.Error = in.internRaw(Type{Kind: KindError}) // slot 0
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.I32 = in.Intern(Type{Kind: KindI32})
	in.builtins.Never = in.Intern(Type{Kind: KindNever})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// RawPtr creates or finds a raw pointer type over elem.
func (in *Interner) RawPtr(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindRawPtr, Elem: elem})
}

// Param creates or finds a type-parameter reference by index.
func (in *Interner) Param(index uint32) TypeID {
	return in.Intern(Type{Kind: KindParam, Payload: index})
}

// NewVar allocates a fresh unification variable. Variables are never
// deduplicated; every call yields a distinct TypeID.
func (in *Interner) NewVar() TypeID {
	v := in.nextVar
	in.nextVar++
	return in.internRaw(Type{Kind: KindVar, Payload: v})
}

// VarCount returns the number of variables allocated so far.
func (in *Interner) VarCount() uint32 {
	return in.nextVar
}

// RegisterFn creates or finds a function type.
func (in *Interner) RegisterFn(params []TypeID, result TypeID) TypeID {
	for id := TypeID(0); int(id) < len(in.types); id++ {
		tt := in.types[id]
		if tt.Kind != KindFn {
			continue
		}
		info := in.fns[tt.Payload]
		if info.Result == result && slices.Equal(info.Params, params) {
			return id
		}
	}
	slot, err := safecast.Conv[uint32](len(in.fns))
	if err != nil {
		panic(fmt.Errorf("fn info overflow: %w", err))
	}
	in.fns = append(in.fns, FnInfo{Params: slices.Clone(params), Result: result})
	return in.internRaw(Type{Kind: KindFn, Payload: slot})
}

// FnInfo retrieves function type metadata by TypeID.
func (in *Interner) FnInfo(id TypeID) (*FnInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFn {
		return nil, false
	}
	return &in.fns[tt.Payload], true
}

// RegisterTuple creates a tuple type with the given elements.
func (in *Interner) RegisterTuple(elems []TypeID) TypeID {
	slot, err := safecast.Conv[uint32](len(in.tuples))
	if err != nil {
		panic(fmt.Errorf("tuple info overflow: %w", err))
	}
	in.tuples = append(in.tuples, TupleInfo{Elems: slices.Clone(elems)})
	return in.internRaw(Type{Kind: KindTuple, Payload: slot})
}

// TupleInfo returns the element types for a tuple TypeID.
func (in *Interner) TupleInfo(id TypeID) (*TupleInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindTuple {
		return nil, false
	}
	return &in.tuples[tt.Payload], true
}

// RegisterStruct allocates a nominal struct type slot. Fields are attached
// later through SetStructFields because signature lowering may recurse.
func (in *Interner) RegisterStruct(name string, item ItemRef) TypeID {
	for id := TypeID(0); int(id) < len(in.types); id++ {
		tt := in.types[id]
		if tt.Kind == KindStruct && in.structs[tt.Payload].Item == item {
			return id
		}
	}
	slot, err := safecast.Conv[uint32](len(in.structs))
	if err != nil {
		panic(fmt.Errorf("struct info overflow: %w", err))
	}
	in.structs = append(in.structs, StructInfo{Name: name, Item: item})
	return in.internRaw(Type{Kind: KindStruct, Payload: slot})
}

// SetStructFields stores the field descriptors for the struct type.
// Fields are kept without generic substitution.
func (in *Interner) SetStructFields(id TypeID, fields []StructField) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindStruct {
		return
	}
	in.structs[tt.Payload].Fields = slices.Clone(fields)
}

// StructInfo returns metadata for the provided struct TypeID.
func (in *Interner) StructInfo(id TypeID) (*StructInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindStruct {
		return nil, false
	}
	return &in.structs[tt.Payload], true
}

// Format renders a type for diagnostics.
func (in *Interner) Format(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch tt.Kind {
	case KindError:
		return "<error>"
	case KindUnit:
		return "()"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindI32:
		return "i32"
	case KindNever:
		return "!"
	case KindRawPtr:
		return "*" + in.Format(tt.Elem)
	case KindVar:
		return fmt.Sprintf("?%d", tt.Payload)
	case KindParam:
		return fmt.Sprintf("#%d", tt.Payload)
	case KindFn:
		info := in.fns[tt.Payload]
		parts := make([]string, len(info.Params))
		for i, p := range info.Params {
			parts[i] = in.Format(p)
		}
		return "fn(" + strings.Join(parts, ", ") + ") -> " + in.Format(info.Result)
	case KindTuple:
		info := in.tuples[tt.Payload]
		parts := make([]string, len(info.Elems))
		for i, e := range info.Elems {
			parts[i] = in.Format(e)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindStruct:
		return in.structs[tt.Payload].Name
	}
	return "<unknown>"
}
