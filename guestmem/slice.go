package guestmem

import (
	"encoding/binary"
	"math"

	"github.com/quadkit/quadhost"
	"github.com/quadkit/quadhost/errors"
)

// SliceMemory implements quadhost.Memory over a plain byte slice. It backs
// tests and headless tooling that run bridge code without a guest instance.
type SliceMemory []byte

var _ quadhost.Memory = SliceMemory(nil)

func (m SliceMemory) check(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(m)) {
		return errors.OutOfBounds(errors.PhaseDecode, offset, length)
	}
	return nil
}

func (m SliceMemory) Read(offset uint32, length uint32) ([]byte, error) {
	if err := m.check(offset, length); err != nil {
		return nil, err
	}
	return m[offset : offset+length], nil
}

func (m SliceMemory) Write(offset uint32, data []byte) error {
	if err := m.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m[offset:], data)
	return nil
}

func (m SliceMemory) ReadU8(offset uint32) (uint8, error) {
	if err := m.check(offset, 1); err != nil {
		return 0, err
	}
	return m[offset], nil
}

func (m SliceMemory) ReadU16(offset uint32) (uint16, error) {
	if err := m.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m[offset:]), nil
}

func (m SliceMemory) ReadU32(offset uint32) (uint32, error) {
	if err := m.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m[offset:]), nil
}

func (m SliceMemory) ReadF32(offset uint32) (float32, error) {
	v, err := m.ReadU32(offset)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (m SliceMemory) WriteU8(offset uint32, value uint8) error {
	if err := m.check(offset, 1); err != nil {
		return err
	}
	m[offset] = value
	return nil
}

func (m SliceMemory) WriteU16(offset uint32, value uint16) error {
	if err := m.check(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m[offset:], value)
	return nil
}

func (m SliceMemory) WriteU32(offset uint32, value uint32) error {
	if err := m.check(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m[offset:], value)
	return nil
}

func (m SliceMemory) WriteF32(offset uint32, value float32) error {
	return m.WriteU32(offset, math.Float32bits(value))
}
