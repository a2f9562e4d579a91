package registry

import (
	"bytes"
	"testing"
)

func TestObjectTable_Variants(t *testing.T) {
	objs := NewObjectTable(nil)

	hs := objs.NewString("hello")
	hb := objs.NewBuffer([]byte{1, 2, 3})
	hr := objs.NewRecord()

	s, ok := objs.String(hs)
	if !ok || s != "hello" {
		t.Fatalf("String = %q, %v", s, ok)
	}

	b, ok := objs.Buffer(hb)
	if !ok || !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Fatalf("Buffer = %v, %v", b, ok)
	}

	// Variant mismatches are diagnostics, not panics.
	if _, ok := objs.String(hb); ok {
		t.Error("buffer read as string")
	}
	if _, ok := objs.Buffer(hr); ok {
		t.Error("record read as buffer")
	}
}

func TestObjectTable_Fields(t *testing.T) {
	objs := NewObjectTable(nil)

	rec := objs.NewRecord()
	name := objs.NewString("player.png")
	if !objs.SetField(rec, "path", name) {
		t.Fatal("SetField failed")
	}

	got := objs.Field(rec, "path")
	if got != name {
		t.Fatalf("Field = %d, want %d", got, name)
	}
	if objs.Field(rec, "missing") != 0 {
		t.Error("missing field should resolve to 0")
	}

	// Field access on non-records resolves to 0.
	if objs.Field(name, "path") != 0 {
		t.Error("field access on string should resolve to 0")
	}
}

func TestObjectTable_Free(t *testing.T) {
	objs := NewObjectTable(nil)

	h := objs.NewString("gone")
	objs.Free(h)
	if _, ok := objs.String(h); ok {
		t.Fatal("freed object still readable")
	}
	if objs.Len() != 0 {
		t.Fatalf("Len = %d after free", objs.Len())
	}
}
