package layout

import (
	"testing"

	"wisp/internal/types"
)

func TestI32IntLayout(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()

	got := Of(in, []types.TypeID{b.I32, b.Int})
	if got.Size != 16 || got.Align != 8 {
		t.Fatalf("size/align: %d/%d, want 16/8", got.Size, got.Align)
	}
	if got.FieldOffsets[0] != 4 || got.FieldOffsets[1] != 8 {
		t.Fatalf("offsets: %v, want [4 8]", got.FieldOffsets)
	}
}

func TestHeaderOnly(t *testing.T) {
	in := types.NewInterner()
	got := Of(in, nil)
	if got.Size != 4 || got.Align != 4 {
		t.Fatalf("empty layout: %+v", got)
	}
}

func TestPointerFields(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	ptr := in.RawPtr(b.Int)

	got := Of(in, []types.TypeID{ptr, b.String, b.Bool})
	// three 4-byte slots after the header
	want := []uint32{4, 8, 12}
	for i, off := range want {
		if got.FieldOffsets[i] != off {
			t.Fatalf("offsets: %v, want %v", got.FieldOffsets, want)
		}
	}
	if got.Size != 16 || got.Align != 4 {
		t.Fatalf("size/align: %d/%d", got.Size, got.Align)
	}
}

func TestStructLayout(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	s := in.RegisterStruct("Pair", types.ItemRef{Pkg: 1, Item: 1})
	in.SetStructFields(s, []types.StructField{
		{Name: "x", Type: b.I32},
		{Name: "y", Type: b.Int},
	})

	got, ok := OfStruct(in, s)
	if !ok {
		t.Fatal("layout must resolve")
	}
	if got.Size != 16 || got.Align != 8 {
		t.Fatalf("size/align: %d/%d", got.Size, got.Align)
	}
}
