package registry

import (
	"testing"
)

func TestTable_AllocateLookup(t *testing.T) {
	table := NewTable(nil)

	h := table.Allocate("tex")
	if h == 0 {
		t.Fatal("expected non-zero handle")
	}

	v, ok := table.Lookup(h)
	if !ok {
		t.Fatal("Lookup failed")
	}
	if v != "tex" {
		t.Fatalf("expected 'tex', got %v", v)
	}
}

func TestTable_IdsNeverReused(t *testing.T) {
	table := NewTable(nil)

	seen := make(map[Handle]bool)
	var handles []Handle
	for i := 0; i < 100; i++ {
		h := table.Allocate(i)
		if seen[h] {
			t.Fatalf("handle %d issued twice", h)
		}
		seen[h] = true
		handles = append(handles, h)

		// Free every other handle as we go; freed ids must not come back.
		if i%2 == 0 {
			table.Free(h)
		}
	}

	for i := 1; i < len(handles); i++ {
		if handles[i] <= handles[i-1] {
			t.Fatalf("ids not monotonic: %d after %d", handles[i], handles[i-1])
		}
	}
}

func TestTable_LookupAfterFree(t *testing.T) {
	table := NewTable(nil)

	h := table.Allocate("buf")
	table.Free(h)

	if _, ok := table.Lookup(h); ok {
		t.Fatal("expected invalid-handle after Free, got live object")
	}

	// A later allocation must not revive the freed id.
	h2 := table.Allocate("buf2")
	if h2 == h {
		t.Fatalf("freed id %d was recycled", h)
	}
	if _, ok := table.Lookup(h); ok {
		t.Fatal("freed handle became valid again")
	}
}

func TestTable_NilValueIsLive(t *testing.T) {
	table := NewTable(nil)

	// Allocated-but-pending: live slot holding nil.
	h := table.Allocate(nil)
	v, ok := table.Lookup(h)
	if !ok {
		t.Fatal("pending slot should be live")
	}
	if v != nil {
		t.Fatalf("expected nil value, got %v", v)
	}

	if !table.Set(h, "ready") {
		t.Fatal("Set on live handle failed")
	}
	v, _ = table.Lookup(h)
	if v != "ready" {
		t.Fatalf("expected 'ready', got %v", v)
	}
}

func TestTable_InvalidOps(t *testing.T) {
	table := NewTable(nil)

	if _, ok := table.Lookup(0); ok {
		t.Error("handle 0 must be invalid")
	}
	if _, ok := table.Lookup(999); ok {
		t.Error("out-of-range handle must be invalid")
	}

	// Double free and free of never-allocated ids are no-ops.
	h := table.Allocate(1)
	table.Free(h)
	table.Free(h)
	table.Free(999)

	if table.Set(h, 2) {
		t.Error("Set on freed handle must fail")
	}
}

func TestTable_Reserve(t *testing.T) {
	table := NewTable(nil)

	table.Allocate("a") // id 1
	if got := table.Reserve(5); got != 5 {
		t.Fatalf("Reserve(5) = %d", got)
	}
	if _, ok := table.Lookup(5); !ok {
		t.Fatal("reserved slot should be live")
	}

	// Slots 2..4 are padding, not live.
	if _, ok := table.Lookup(3); ok {
		t.Fatal("padding slot should be invalid")
	}

	// Counter moved past the reservation.
	if h := table.Allocate("b"); h != 6 {
		t.Fatalf("expected next id 6, got %d", h)
	}

	// Reserving at or below the counter is rejected.
	if got := table.Reserve(2); got != 0 {
		t.Fatalf("Reserve below counter = %d, want 0", got)
	}
}

func TestTable_Len(t *testing.T) {
	table := NewTable(nil)
	h1 := table.Allocate(1)
	table.Allocate(2)
	if table.Len() != 2 {
		t.Fatalf("Len = %d, want 2", table.Len())
	}
	table.Free(h1)
	if table.Len() != 1 {
		t.Fatalf("Len = %d, want 1", table.Len())
	}
}
