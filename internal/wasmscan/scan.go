// Package wasmscan reads the type and import sections of a core wasm
// binary. The bridge uses it to learn each function import's real
// signature before instantiation, so that entries missing from the call
// table can be stubbed with matching types.
package wasmscan

import (
	"github.com/tetratelabs/wazero/api"
)

// FuncImport is one function import with its resolved signature.
type FuncImport struct {
	Module  string
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

type funcType struct {
	params  []api.ValueType
	results []api.ValueType
}

// DecodeULEB128 decodes an unsigned LEB128 value, returning it and the
// number of bytes consumed.
func DecodeULEB128(data []byte) (uint32, int) {
	var result uint32
	var shift uint32
	for i, b := range data {
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, i + 1
		}
		shift += 7
		if shift > 35 {
			return result, i + 1
		}
	}
	return result, len(data)
}

// ParseValType maps a wasm value type byte to the wazero representation.
func ParseValType(b byte) api.ValueType {
	switch b {
	case 0x7F:
		return api.ValueTypeI32
	case 0x7E:
		return api.ValueTypeI64
	case 0x7D:
		return api.ValueTypeF32
	case 0x7C:
		return api.ValueTypeF64
	default:
		return api.ValueTypeI32
	}
}

// FuncImports lists every function import of the binary with its
// signature. Malformed input yields a short or empty list, never a panic;
// real validation happens later at compile time.
func FuncImports(wasmBytes []byte) []FuncImport {
	if len(wasmBytes) < 8 {
		return nil
	}

	pos := 8
	var typeStart, typeEnd int
	var importStart, importEnd int
	for pos < len(wasmBytes) {
		sectionID := wasmBytes[pos]
		pos++
		if pos >= len(wasmBytes) {
			return nil
		}
		size, n := DecodeULEB128(wasmBytes[pos:])
		pos += n
		end := pos + int(size)
		if end > len(wasmBytes) {
			return nil
		}
		switch sectionID {
		case 0x01:
			typeStart, typeEnd = pos, end
		case 0x02:
			importStart, importEnd = pos, end
		}
		pos = end
	}
	if importStart == 0 {
		return nil
	}

	types := parseTypes(wasmBytes, typeStart, typeEnd)
	return parseImports(wasmBytes, importStart, importEnd, types)
}

func parseTypes(data []byte, start, end int) []funcType {
	if start == 0 {
		return nil
	}
	pos := start
	count, n := DecodeULEB128(data[pos:])
	pos += n

	types := make([]funcType, 0, count)
	for i := uint32(0); i < count && pos < end; i++ {
		if data[pos] != 0x60 {
			return types
		}
		pos++

		var ft funcType
		paramCount, n := DecodeULEB128(data[pos:])
		pos += n
		for j := uint32(0); j < paramCount && pos < end; j++ {
			ft.params = append(ft.params, ParseValType(data[pos]))
			pos++
		}
		resultCount, n := DecodeULEB128(data[pos:])
		pos += n
		for j := uint32(0); j < resultCount && pos < end; j++ {
			ft.results = append(ft.results, ParseValType(data[pos]))
			pos++
		}
		types = append(types, ft)
	}
	return types
}

func parseImports(data []byte, start, end int, types []funcType) []FuncImport {
	pos := start
	count, n := DecodeULEB128(data[pos:])
	pos += n

	var out []FuncImport
	for i := uint32(0); i < count && pos < end; i++ {
		modLen, n := DecodeULEB128(data[pos:])
		pos += n
		if pos+int(modLen) > end {
			return out
		}
		module := string(data[pos : pos+int(modLen)])
		pos += int(modLen)

		nameLen, n := DecodeULEB128(data[pos:])
		pos += n
		if pos+int(nameLen) > end {
			return out
		}
		name := string(data[pos : pos+int(nameLen)])
		pos += int(nameLen)

		if pos >= end {
			return out
		}
		kind := data[pos]
		pos++

		switch kind {
		case 0x00: // function
			typeIdx, n := DecodeULEB128(data[pos:])
			pos += n
			imp := FuncImport{Module: module, Name: name}
			if int(typeIdx) < len(types) {
				imp.Params = types[typeIdx].params
				imp.Results = types[typeIdx].results
			}
			out = append(out, imp)
		case 0x01: // table
			pos++ // elem type
			pos = skipLimits(data, pos)
		case 0x02: // memory
			pos = skipLimits(data, pos)
		case 0x03: // global
			pos += 2
		default:
			return out
		}
	}
	return out
}

func skipLimits(data []byte, pos int) int {
	if pos >= len(data) {
		return pos
	}
	flags := data[pos]
	pos++
	_, n := DecodeULEB128(data[pos:])
	pos += n
	if flags&0x01 != 0 {
		_, n := DecodeULEB128(data[pos:])
		pos += n
	}
	return pos
}
