package emu

// RegFile represents the simulated register file. It holds 32
// general-purpose 64-bit integer registers (X0-X31), 32 floating-point
// registers addressed through the same canonical names, and the scalar
// processor state.
//
// Register indices are validated at decode time; the accessors index
// directly.
type RegFile struct {
	// X holds the general-purpose registers X0-X31. X30 is used as
	// the link register by BL; X31 is conventionally available as a
	// zero or scratch register but is not hardwired.
	X [32]int64

	// F holds the floating-point bank, selected by floating-point
	// opcodes over the same X0..X31 operand names.
	F [32]float64

	// PC is the program counter, an offset into an abstract
	// instruction address space.
	PC uint64

	// SP is the stack pointer.
	SP uint64

	// ELR is the exception link register.
	ELR uint64

	// CycleCount counts completed cycles. It never decreases.
	CycleCount uint64

	// EL is the current exception level.
	EL Level

	// BigEndian is the data endianness flag. This architecture is
	// little-endian, so it stays false.
	BigEndian bool

	// SVEEnabled reports whether the vector extension has been
	// switched on. Only the SVE opcode sets it.
	SVEEnabled bool
}

// ReadX reads a general-purpose register.
func (r *RegFile) ReadX(reg uint8) int64 {
	return r.X[reg]
}

// WriteX writes a general-purpose register.
func (r *RegFile) WriteX(reg uint8, value int64) {
	r.X[reg] = value
}

// ReadF reads a floating-point register.
func (r *RegFile) ReadF(reg uint8) float64 {
	return r.F[reg]
}

// WriteF writes a floating-point register.
func (r *RegFile) WriteF(reg uint8, value float64) {
	r.F[reg] = value
}
