package guestmem

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/quadkit/quadhost/internal/wasmtest"
)

func instantiate(t *testing.T, wasm []byte) api.Module {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })
	mod, err := r.Instantiate(ctx, wasm)
	if err != nil {
		t.Fatal(err)
	}
	return mod
}

func TestWrap_ReadWrite(t *testing.T) {
	mod := instantiate(t, wasmtest.NewModule().ExportMemory(1).Build())
	mem := Wrap(mod.Memory())

	if err := mem.WriteU32(8, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	v, err := mem.ReadU32(8)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("ReadU32 = %#x", v)
	}

	if _, err := mem.Read(1<<16, 4); err == nil {
		t.Fatal("read past the page should fail")
	}
	if err := mem.WriteU8(1<<16, 1); err == nil {
		t.Fatal("write past the page should fail")
	}
}

func TestWrap_Nil(t *testing.T) {
	if Wrap(nil) != nil {
		t.Fatal("wrapping nil memory should yield nil")
	}
}

func TestWrapAllocator(t *testing.T) {
	mod := instantiate(t, wasmtest.NewModule().
		ExportMemory(1).
		ExportConstFunc("allocate_vec_data", 128, api.ValueTypeI32).
		Build())

	alloc := WrapAllocator(context.Background(), mod.ExportedFunction("allocate_vec_data"))
	ptr, err := alloc.Alloc(16)
	if err != nil {
		t.Fatal(err)
	}
	if ptr != 128 {
		t.Fatalf("Alloc = %d, want 128", ptr)
	}
}

func TestWrapAllocator_Nil(t *testing.T) {
	if WrapAllocator(context.Background(), nil) != nil {
		t.Fatal("wrapping nil function should yield nil")
	}
}
