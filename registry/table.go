package registry

import (
	"sync"

	"go.uber.org/zap"
)

// Handle is an opaque reference to an object in a table.
// Handle 0 is reserved and always invalid.
type Handle uint32

type entry struct {
	value any
	live  bool
}

// Table is a dense slot table mapping handles to host objects.
//
// Ids come from a free-running counter and are never reused: Free clears the
// slot in place rather than returning the id to a free list. A live slot may
// hold a nil value, which marks an object that is allocated but not yet
// usable (for example a sound still decoding); that state is distinct from a
// freed slot, which Lookup reports as an invalid handle.
type Table struct {
	entries []entry
	next    Handle
	log     *zap.Logger
	mu      sync.RWMutex
}

// NewTable creates an empty table. A nil logger disables diagnostics.
func NewTable(log *zap.Logger) *Table {
	if log == nil {
		log = zap.NewNop()
	}
	return &Table{
		entries: make([]entry, 0, 64),
		next:    1,
		log:     log,
	}
}

// Allocate stores value and returns a fresh handle. A nil value is legal and
// marks the slot as allocated-but-pending until Set fills it in.
func (t *Table) Allocate(value any) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.next
	t.next++
	t.grow(h)
	t.entries[h-1] = entry{value: value, live: true}
	return h
}

// Reserve grows the table with empty padding so that id becomes addressable,
// marks it live and returns it. Ids at or below the current counter are
// rejected as 0 to preserve uniqueness.
func (t *Table) Reserve(id Handle) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id < t.next {
		t.log.Warn("handle reserve below counter",
			zap.Uint32("id", uint32(id)),
			zap.Uint32("next", uint32(t.next)))
		return 0
	}
	t.grow(id)
	t.entries[id-1] = entry{live: true}
	t.next = id + 1
	return id
}

// grow pads entries with dead slots up to and including id. Callers hold mu.
func (t *Table) grow(id Handle) {
	for uint32(len(t.entries)) < uint32(id) {
		t.entries = append(t.entries, entry{})
	}
}

// Lookup returns the stored value. An out-of-range or freed handle is an
// invalid-handle diagnostic: logged, never fatal, and the caller must treat
// the result as "use default / no-op".
func (t *Table) Lookup(h Handle) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if h == 0 || uint32(h) > uint32(len(t.entries)) || !t.entries[h-1].live {
		t.log.Warn("invalid handle", zap.Uint32("id", uint32(h)))
		return nil, false
	}
	return t.entries[h-1].value, true
}

// Set replaces the value at a live handle, typically to fill in an object
// whose async creation has completed.
func (t *Table) Set(h Handle, value any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h == 0 || uint32(h) > uint32(len(t.entries)) || !t.entries[h-1].live {
		t.log.Warn("set on invalid handle", zap.Uint32("id", uint32(h)))
		return false
	}
	t.entries[h-1].value = value
	return true
}

// Free clears the slot. The object's own teardown (detaching GPU resources
// and the like) is the caller's responsibility before calling Free. Freeing
// an already-dead handle is a logged no-op.
func (t *Table) Free(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h == 0 || uint32(h) > uint32(len(t.entries)) || !t.entries[h-1].live {
		t.log.Warn("free of invalid handle", zap.Uint32("id", uint32(h)))
		return
	}
	t.entries[h-1] = entry{}
}

// Len returns the number of live slots.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for i := range t.entries {
		if t.entries[i].live {
			n++
		}
	}
	return n
}

// Each calls fn for every live slot until fn returns false.
func (t *Table) Each(fn func(h Handle, value any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i := range t.entries {
		if t.entries[i].live {
			if !fn(Handle(i+1), t.entries[i].value) {
				return
			}
		}
	}
}
