package registry

import (
	"go.uber.org/zap"
)

// Kind tags the variant stored in an ObjectTable slot.
type Kind uint8

const (
	KindString Kind = iota
	KindBuffer
	KindRecord
)

// Object is a tagged variant value exchanged with the guest by handle.
// Exactly one of Str, Buf or Fields is meaningful, selected by Kind.
type Object struct {
	Fields map[string]Handle
	Str    string
	Buf    []byte
	Kind   Kind
}

// ObjectTable reifies dynamically-typed host values as explicit tagged
// variants behind a second, independent handle table. Field access is an
// explicit (handle, fieldName) -> handle call pair, never reflection.
type ObjectTable struct {
	table *Table
	log   *zap.Logger
}

// NewObjectTable creates an empty object table.
func NewObjectTable(log *zap.Logger) *ObjectTable {
	if log == nil {
		log = zap.NewNop()
	}
	return &ObjectTable{
		table: NewTable(log),
		log:   log,
	}
}

// NewString stores a string variant.
func (o *ObjectTable) NewString(s string) Handle {
	return o.table.Allocate(&Object{Kind: KindString, Str: s})
}

// NewBuffer stores a byte-buffer variant. The table takes ownership of buf.
func (o *ObjectTable) NewBuffer(buf []byte) Handle {
	return o.table.Allocate(&Object{Kind: KindBuffer, Buf: buf})
}

// NewRecord stores an empty structured record.
func (o *ObjectTable) NewRecord() Handle {
	return o.table.Allocate(&Object{Kind: KindRecord, Fields: make(map[string]Handle)})
}

// Get returns the variant at h, or nil for an invalid handle.
func (o *ObjectTable) Get(h Handle) *Object {
	v, ok := o.table.Lookup(h)
	if !ok {
		return nil
	}
	return v.(*Object)
}

// String returns the string variant at h. A non-string variant is an
// invalid-handle diagnostic and returns the empty string.
func (o *ObjectTable) String(h Handle) (string, bool) {
	obj := o.Get(h)
	if obj == nil || obj.Kind != KindString {
		o.log.Warn("object is not a string", zap.Uint32("id", uint32(h)))
		return "", false
	}
	return obj.Str, true
}

// Buffer returns the byte-buffer variant at h.
func (o *ObjectTable) Buffer(h Handle) ([]byte, bool) {
	obj := o.Get(h)
	if obj == nil || obj.Kind != KindBuffer {
		o.log.Warn("object is not a buffer", zap.Uint32("id", uint32(h)))
		return nil, false
	}
	return obj.Buf, true
}

// Field resolves a record field by name. Missing fields and non-record
// handles return 0.
func (o *ObjectTable) Field(h Handle, name string) Handle {
	obj := o.Get(h)
	if obj == nil || obj.Kind != KindRecord {
		o.log.Warn("object is not a record", zap.Uint32("id", uint32(h)))
		return 0
	}
	child, ok := obj.Fields[name]
	if !ok {
		return 0
	}
	return child
}

// SetField binds a record field to another object handle.
func (o *ObjectTable) SetField(h Handle, name string, child Handle) bool {
	obj := o.Get(h)
	if obj == nil || obj.Kind != KindRecord {
		o.log.Warn("object is not a record", zap.Uint32("id", uint32(h)))
		return false
	}
	obj.Fields[name] = child
	return true
}

// Free releases the object. Record fields are not freed transitively; the
// guest owns each handle it was given.
func (o *ObjectTable) Free(h Handle) {
	o.table.Free(h)
}

// Len returns the number of live objects.
func (o *ObjectTable) Len() int {
	return o.table.Len()
}
