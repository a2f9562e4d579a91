package guestmem

import (
	"encoding/binary"
	"math"
	"unicode/utf16"

	"github.com/quadkit/quadhost"
)

// Bytes returns a copy of the (ptr, len) region of guest memory.
func Bytes(mem quadhost.Memory, ptr, length uint32) ([]byte, error) {
	data, err := mem.Read(ptr, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// String reads a UTF-8 string from a (ptr, len) pair over guest memory.
func String(mem quadhost.Memory, ptr, length uint32) (string, error) {
	data, err := mem.Read(ptr, length)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteString writes s into guest memory at ptr, truncated to maxLen bytes.
// It returns the number of bytes written.
func WriteString(mem quadhost.Memory, ptr uint32, s string, maxLen uint32) (uint32, error) {
	b := []byte(s)
	if uint32(len(b)) > maxLen {
		b = b[:maxLen]
	}
	if err := mem.Write(ptr, b); err != nil {
		return 0, err
	}
	return uint32(len(b)), nil
}

// Float32s decodes count little-endian float32 values starting at ptr.
func Float32s(mem quadhost.Memory, ptr, count uint32) ([]float32, error) {
	data, err := mem.Read(ptr, count*4)
	if err != nil {
		return nil, err
	}
	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// Uint32s decodes count little-endian uint32 values starting at ptr.
func Uint32s(mem quadhost.Memory, ptr, count uint32) ([]uint32, error) {
	data, err := mem.Read(ptr, count*4)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return out, nil
}

// Uint16s decodes count little-endian uint16 values starting at ptr.
func Uint16s(mem quadhost.Memory, ptr, count uint32) ([]uint16, error) {
	data, err := mem.Read(ptr, count*2)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return out, nil
}

// DecodeUTF16 converts little-endian UTF-16 code units read from guest
// memory into a Go string. Surrogate pairs are combined; unpaired surrogates
// decode to U+FFFD rather than failing.
func DecodeUTF16(mem quadhost.Memory, ptr, unitCount uint32) (string, error) {
	units, err := Uint16s(mem, ptr, unitCount)
	if err != nil {
		return "", err
	}
	return string(utf16.Decode(units)), nil
}

// EncodeUTF16 writes s as little-endian UTF-16 code units at ptr, truncated
// to maxUnits. Code points above the BMP encode as surrogate pairs; a pair
// that would be split by truncation is dropped whole. Returns units written.
func EncodeUTF16(mem quadhost.Memory, ptr uint32, s string, maxUnits uint32) (uint32, error) {
	units := utf16.Encode([]rune(s))
	if uint32(len(units)) > maxUnits {
		units = units[:maxUnits]
		// Never split a surrogate pair at the truncation point.
		if len(units) > 0 && utf16.IsSurrogate(rune(units[len(units)-1])) &&
			units[len(units)-1] >= 0xD800 && units[len(units)-1] < 0xDC00 {
			units = units[:len(units)-1]
		}
	}
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[i*2:], u)
	}
	if err := mem.Write(ptr, buf); err != nil {
		return 0, err
	}
	return uint32(len(units)), nil
}
