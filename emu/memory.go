// Package emu provides functional emulation of a simplified 64-bit core
// driven by text mnemonics.
package emu

// Memory is a fixed-capacity, byte-addressable memory unit. Every
// access is bounds-checked; a failing access returns an
// *OutOfBoundsError and leaves the contents untouched.
type Memory struct {
	data []byte
}

// DefaultMemorySize is the capacity used when none is configured.
const DefaultMemorySize = 1 << 20 // 1 MiB

// NewMemory creates a memory unit with the given capacity in bytes.
func NewMemory(capacity uint64) *Memory {
	return &Memory{data: make([]byte, capacity)}
}

// Capacity returns the memory size in bytes.
func (m *Memory) Capacity() uint64 {
	return uint64(len(m.data))
}

// ReadByte reads one byte at addr.
func (m *Memory) ReadByte(addr uint64) (byte, error) {
	if addr >= uint64(len(m.data)) {
		return 0, &OutOfBoundsError{Addr: addr, Length: 1, Capacity: uint64(len(m.data))}
	}
	return m.data[addr], nil
}

// WriteByte writes one byte at addr.
func (m *Memory) WriteByte(addr uint64, value byte) error {
	if addr >= uint64(len(m.data)) {
		return &OutOfBoundsError{Addr: addr, Length: 1, Capacity: uint64(len(m.data))}
	}
	m.data[addr] = value
	return nil
}

// ReadBlock returns a copy of length bytes starting at addr.
func (m *Memory) ReadBlock(addr, length uint64) ([]byte, error) {
	if err := m.checkBlock(addr, length); err != nil {
		return nil, err
	}
	block := make([]byte, length)
	copy(block, m.data[addr:addr+length])
	return block, nil
}

// WriteBlock copies data into memory starting at addr. On failure
// nothing is written.
func (m *Memory) WriteBlock(addr uint64, data []byte) error {
	if err := m.checkBlock(addr, uint64(len(data))); err != nil {
		return err
	}
	copy(m.data[addr:], data)
	return nil
}

// checkBlock validates addr+length against the capacity without
// overflowing the sum.
func (m *Memory) checkBlock(addr, length uint64) error {
	capacity := uint64(len(m.data))
	if addr > capacity || length > capacity-addr {
		return &OutOfBoundsError{Addr: addr, Length: length, Capacity: capacity}
	}
	return nil
}
