// Package wasmtest assembles minimal core wasm binaries for tests. It emits
// just enough of the binary format to give tests real guest modules:
// imports, exported memory, constant-returning functions and no-op
// functions.
package wasmtest

import (
	"github.com/tetratelabs/wazero/api"
)

type funcType struct {
	params  []api.ValueType
	results []api.ValueType
}

type importEntry struct {
	module string
	name   string
	typ    int
}

type localFunc struct {
	name string
	typ  int
	body []byte
}

// Builder assembles one wasm module.
type Builder struct {
	types   []funcType
	imports []importEntry
	funcs   []localFunc
	memory  uint32
}

// NewModule starts an empty module.
func NewModule() *Builder {
	return &Builder{}
}

func (b *Builder) typeIndex(params, results []api.ValueType) int {
	for i, t := range b.types {
		if typesEqual(t.params, params) && typesEqual(t.results, results) {
			return i
		}
	}
	b.types = append(b.types, funcType{params: params, results: results})
	return len(b.types) - 1
}

func typesEqual(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Import declares a function import.
func (b *Builder) Import(module, name string, params, results []api.ValueType) *Builder {
	b.imports = append(b.imports, importEntry{
		module: module,
		name:   name,
		typ:    b.typeIndex(params, results),
	})
	return b
}

// ExportMemory declares and exports a memory named "memory".
func (b *Builder) ExportMemory(pages uint32) *Builder {
	b.memory = pages
	return b
}

// ExportConstFunc exports a params -> i32 function returning value and
// ignoring any arguments.
func (b *Builder) ExportConstFunc(name string, value uint32, params ...api.ValueType) *Builder {
	body := []byte{0x00, 0x41} // no locals, i32.const
	body = append(body, sleb128(int64(int32(value)))...)
	body = append(body, 0x0B)
	b.funcs = append(b.funcs, localFunc{
		name: name,
		typ:  b.typeIndex(params, []api.ValueType{api.ValueTypeI32}),
		body: body,
	})
	return b
}

// ExportNopFunc exports a params -> () function with an empty body.
func (b *Builder) ExportNopFunc(name string, params ...api.ValueType) *Builder {
	b.funcs = append(b.funcs, localFunc{
		name: name,
		typ:  b.typeIndex(params, nil),
		body: []byte{0x00, 0x0B},
	})
	return b
}

// ExportCallFunc exports a () -> () function whose body calls the given
// import index. The target must take no parameters; any results it
// returns are dropped.
func (b *Builder) ExportCallFunc(name string, importIndex uint32) *Builder {
	body := []byte{0x00, 0x10} // no locals, call
	body = append(body, uleb128(uint64(importIndex))...)
	if int(importIndex) < len(b.imports) {
		for range b.types[b.imports[importIndex].typ].results {
			body = append(body, 0x1A) // drop
		}
	}
	body = append(body, 0x0B)
	b.funcs = append(b.funcs, localFunc{
		name: name,
		typ:  b.typeIndex(nil, nil),
		body: body,
	})
	return b
}

// Build emits the module bytes.
func (b *Builder) Build() []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

	// Type section.
	var sec []byte
	sec = append(sec, uleb128(uint64(len(b.types)))...)
	for _, t := range b.types {
		sec = append(sec, 0x60)
		sec = append(sec, uleb128(uint64(len(t.params)))...)
		for _, p := range t.params {
			sec = append(sec, valType(p))
		}
		sec = append(sec, uleb128(uint64(len(t.results)))...)
		for _, r := range t.results {
			sec = append(sec, valType(r))
		}
	}
	out = appendSection(out, 0x01, sec)

	// Import section.
	if len(b.imports) > 0 {
		sec = sec[:0]
		sec = append(sec, uleb128(uint64(len(b.imports)))...)
		for _, imp := range b.imports {
			sec = appendName(sec, imp.module)
			sec = appendName(sec, imp.name)
			sec = append(sec, 0x00)
			sec = append(sec, uleb128(uint64(imp.typ))...)
		}
		out = appendSection(out, 0x02, sec)
	}

	// Function section.
	if len(b.funcs) > 0 {
		sec = sec[:0]
		sec = append(sec, uleb128(uint64(len(b.funcs)))...)
		for _, f := range b.funcs {
			sec = append(sec, uleb128(uint64(f.typ))...)
		}
		out = appendSection(out, 0x03, sec)
	}

	// Memory section.
	if b.memory > 0 {
		sec = sec[:0]
		sec = append(sec, 0x01, 0x00)
		sec = append(sec, uleb128(uint64(b.memory))...)
		out = appendSection(out, 0x05, sec)
	}

	// Export section.
	count := len(b.funcs)
	if b.memory > 0 {
		count++
	}
	if count > 0 {
		sec = sec[:0]
		sec = append(sec, uleb128(uint64(count))...)
		for i, f := range b.funcs {
			sec = appendName(sec, f.name)
			sec = append(sec, 0x00)
			sec = append(sec, uleb128(uint64(len(b.imports)+i))...)
		}
		if b.memory > 0 {
			sec = appendName(sec, "memory")
			sec = append(sec, 0x02, 0x00)
		}
		out = appendSection(out, 0x07, sec)
	}

	// Code section.
	if len(b.funcs) > 0 {
		sec = sec[:0]
		sec = append(sec, uleb128(uint64(len(b.funcs)))...)
		for _, f := range b.funcs {
			sec = append(sec, uleb128(uint64(len(f.body)))...)
			sec = append(sec, f.body...)
		}
		out = appendSection(out, 0x0A, sec)
	}

	return out
}

func appendSection(out []byte, id byte, content []byte) []byte {
	out = append(out, id)
	out = append(out, uleb128(uint64(len(content)))...)
	return append(out, content...)
}

func appendName(out []byte, name string) []byte {
	out = append(out, uleb128(uint64(len(name)))...)
	return append(out, name...)
}

func valType(t api.ValueType) byte {
	switch t {
	case api.ValueTypeI32:
		return 0x7F
	case api.ValueTypeI64:
		return 0x7E
	case api.ValueTypeF32:
		return 0x7D
	case api.ValueTypeF64:
		return 0x7C
	}
	return 0x7F
}

func uleb128(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

func sleb128(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7F)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		out = append(out, b)
		if done {
			return out
		}
	}
}
