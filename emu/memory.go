package emu

import (
	"fmt"

	"github.com/rv32emu/sim/loader"
)

// DefaultMemorySize is the simulator's default flat address space: 4 MiB.
const DefaultMemorySize = 4 * 1024 * 1024

// Memory is a fixed-size, zero-initialised byte image addressed by virtual
// address. All accesses are bounds-checked; alignment is never enforced.
type Memory struct {
	bytes []byte
}

// NewMemory allocates a zero-initialised image of the given size.
func NewMemory(size uint32) *Memory {
	return &Memory{bytes: make([]byte, size)}
}

// Size returns the memory image's byte size.
func (m *Memory) Size() uint32 { return uint32(len(m.bytes)) }

// LoadSegments overlays each PT_LOAD segment's payload at its virtual
// address. Segments are applied in iteration order, so overlapping
// segments overwrite each other in that order. A segment that would write
// past the end of the image is a load-time error.
func (m *Memory) LoadSegments(segs []loader.Segment) error {
	for _, seg := range segs {
		end := uint64(seg.VirtAddr) + uint64(len(seg.Data))
		if end > uint64(m.Size()) {
			return fmt.Errorf("%w: segment at %#x (%d bytes) exceeds memory size %d",
				ErrSegmentOverflow, seg.VirtAddr, len(seg.Data), m.Size())
		}
		copy(m.bytes[seg.VirtAddr:end], seg.Data)
	}
	return nil
}

func (m *Memory) checkRange(addr uint32, width uint32) error {
	if uint64(addr)+uint64(width) > uint64(len(m.bytes)) {
		// Report the first byte of the access that falls outside the image.
		bad := addr
		if uint64(addr) < uint64(len(m.bytes)) {
			bad = uint32(len(m.bytes))
		}
		return fmt.Errorf("%w: addr=%#x", ErrMemoryFault, bad)
	}
	return nil
}

// ReadU8 reads an unsigned byte.
func (m *Memory) ReadU8(addr uint32) (uint8, error) {
	if err := m.checkRange(addr, 1); err != nil {
		return 0, err
	}
	return m.bytes[addr], nil
}

// ReadI8 reads a byte and sign-extends it.
func (m *Memory) ReadI8(addr uint32) (int8, error) {
	v, err := m.ReadU8(addr)
	return int8(v), err
}

// ReadU16 reads a little-endian unsigned halfword.
func (m *Memory) ReadU16(addr uint32) (uint16, error) {
	if err := m.checkRange(addr, 2); err != nil {
		return 0, err
	}
	return uint16(m.bytes[addr]) | uint16(m.bytes[addr+1])<<8, nil
}

// ReadI16 reads a little-endian halfword and sign-extends it.
func (m *Memory) ReadI16(addr uint32) (int16, error) {
	v, err := m.ReadU16(addr)
	return int16(v), err
}

// ReadU32 reads a little-endian unsigned word.
func (m *Memory) ReadU32(addr uint32) (uint32, error) {
	if err := m.checkRange(addr, 4); err != nil {
		return 0, err
	}
	return uint32(m.bytes[addr]) |
		uint32(m.bytes[addr+1])<<8 |
		uint32(m.bytes[addr+2])<<16 |
		uint32(m.bytes[addr+3])<<24, nil
}

// ReadI32 reads a little-endian word as a signed value.
func (m *Memory) ReadI32(addr uint32) (int32, error) {
	v, err := m.ReadU32(addr)
	return int32(v), err
}

// WriteU8 writes a byte.
func (m *Memory) WriteU8(addr uint32, v uint8) error {
	if err := m.checkRange(addr, 1); err != nil {
		return err
	}
	m.bytes[addr] = v
	return nil
}

// WriteU16 writes a little-endian halfword.
func (m *Memory) WriteU16(addr uint32, v uint16) error {
	if err := m.checkRange(addr, 2); err != nil {
		return err
	}
	m.bytes[addr] = byte(v)
	m.bytes[addr+1] = byte(v >> 8)
	return nil
}

// WriteU32 writes a little-endian word.
func (m *Memory) WriteU32(addr uint32, v uint32) error {
	if err := m.checkRange(addr, 4); err != nil {
		return err
	}
	m.bytes[addr] = byte(v)
	m.bytes[addr+1] = byte(v >> 8)
	m.bytes[addr+2] = byte(v >> 16)
	m.bytes[addr+3] = byte(v >> 24)
	return nil
}
