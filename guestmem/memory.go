package guestmem

import (
	"context"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/quadkit/quadhost"
	"github.com/quadkit/quadhost/errors"
)

// Wrap adapts a wazero api.Memory to the quadhost.Memory interface.
func Wrap(mem api.Memory) quadhost.Memory {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem}
}

// Wrapper adapts wazero api.Memory to quadhost.Memory.
type Wrapper struct {
	Mem api.Memory
}

// Read reads bytes from memory.
func (m *Wrapper) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseDecode, offset, length)
	}
	return data, nil
}

// Write writes bytes to memory.
func (m *Wrapper) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseDecode, offset, uint32(len(data)))
	}
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (m *Wrapper) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.Mem.ReadByte(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseDecode, offset, 1)
	}
	return v, nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (m *Wrapper) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.Mem.ReadUint16Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseDecode, offset, 2)
	}
	return v, nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Wrapper) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.Mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseDecode, offset, 4)
	}
	return v, nil
}

// ReadF32 reads a 32-bit little-endian float.
func (m *Wrapper) ReadF32(offset uint32) (float32, error) {
	v, ok := m.Mem.ReadUint32Le(offset)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseDecode, offset, 4)
	}
	return math.Float32frombits(v), nil
}

// WriteU8 writes an unsigned 8-bit value.
func (m *Wrapper) WriteU8(offset uint32, value uint8) error {
	if !m.Mem.WriteByte(offset, value) {
		return errors.OutOfBounds(errors.PhaseDecode, offset, 1)
	}
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (m *Wrapper) WriteU16(offset uint32, value uint16) error {
	if !m.Mem.WriteUint16Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseDecode, offset, 2)
	}
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Wrapper) WriteU32(offset uint32, value uint32) error {
	if !m.Mem.WriteUint32Le(offset, value) {
		return errors.OutOfBounds(errors.PhaseDecode, offset, 4)
	}
	return nil
}

// WriteF32 writes a 32-bit little-endian float.
func (m *Wrapper) WriteF32(offset uint32, value float32) error {
	if !m.Mem.WriteUint32Le(offset, math.Float32bits(value)) {
		return errors.OutOfBounds(errors.PhaseDecode, offset, 4)
	}
	return nil
}

// WrapAllocator wraps a guest-exported allocation function
// (size: u32) -> ptr: u32 as a quadhost.Allocator.
func WrapAllocator(ctx context.Context, fn api.Function) quadhost.Allocator {
	if fn == nil {
		return nil
	}
	return &allocatorWrapper{ctx: ctx, fn: fn}
}

type allocatorWrapper struct {
	ctx context.Context
	fn  api.Function
}

func (a *allocatorWrapper) Alloc(size uint32) (uint32, error) {
	res, err := a.fn.Call(a.ctx, uint64(size))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseRuntime, errors.KindAsyncFailure, err, "guest allocator")
	}
	if len(res) == 0 {
		return 0, errors.New(errors.PhaseRuntime, errors.KindInvalidData).
			Detail("guest allocator returned no value").Build()
	}
	return uint32(res[0]), nil
}
