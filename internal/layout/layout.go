// Package layout computes the in-memory shape of heap values. Every heap
// object starts with a 4-byte refcount header; fields follow in
// declaration order at their natural alignment.
package layout

import (
	"wisp/internal/types"
)

// HeaderSize is the refcount header every heap object carries.
const HeaderSize = 4

// Layout describes one heap object shape.
type Layout struct {
	Size         uint32
	Align        uint32
	FieldOffsets []uint32
}

// FieldSize returns the size and alignment of one stored field.
func FieldSize(in *types.Interner, ty types.TypeID) (size, align uint32) {
	tt, ok := in.Lookup(ty)
	if !ok {
		return 0, 1
	}
	switch tt.Kind {
	case types.KindInt:
		return 8, 8
	case types.KindI32, types.KindBool:
		return 4, 4
	case types.KindString, types.KindRawPtr, types.KindStruct, types.KindTuple, types.KindFn:
		// references and pointers are 32-bit addresses
		return 4, 4
	case types.KindUnit, types.KindNever:
		return 0, 1
	default:
		return 0, 1
	}
}

// Of computes the layout for an ordered field-type list.
func Of(in *types.Interner, fields []types.TypeID) Layout {
	offset := uint32(HeaderSize)
	align := uint32(HeaderSize)
	offsets := make([]uint32, len(fields))

	for i, f := range fields {
		size, fieldAlign := FieldSize(in, f)
		if fieldAlign > 1 {
			offset = roundUp(offset, fieldAlign)
		}
		offsets[i] = offset
		offset += size
		if fieldAlign > align {
			align = fieldAlign
		}
	}

	return Layout{
		Size:         roundUp(offset, align),
		Align:        align,
		FieldOffsets: offsets,
	}
}

// OfStruct computes the layout of a nominal struct type.
func OfStruct(in *types.Interner, structTy types.TypeID) (Layout, bool) {
	info, ok := in.StructInfo(structTy)
	if !ok {
		return Layout{}, false
	}
	fields := make([]types.TypeID, len(info.Fields))
	for i, f := range info.Fields {
		fields[i] = f.Type
	}
	return Of(in, fields), true
}

// OfTuple computes the layout of a tuple type.
func OfTuple(in *types.Interner, tupleTy types.TypeID) (Layout, bool) {
	info, ok := in.TupleInfo(tupleTy)
	if !ok {
		return Layout{}, false
	}
	return Of(in, info.Elems), true
}

func roundUp(n, align uint32) uint32 {
	return (n + align - 1) &^ (align - 1)
}
