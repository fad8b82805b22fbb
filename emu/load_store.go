package emu

// LoadStoreUnit implements the memory-access and atomic-style opcodes.
//
// Transfers are single-byte despite the 64-bit registers: loads
// zero-extend one byte, stores write the register's low byte. This
// mirrors the modeled architecture and is a documented limitation, not
// a bug to widen.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// EffectiveAddress computes base register value plus signed byte
// offset. A negative result is out of bounds by definition.
func (lsu *LoadStoreUnit) EffectiveAddress(base uint8, offset int64) (uint64, error) {
	addr := lsu.regFile.ReadX(base) + offset
	if addr < 0 {
		return 0, &OutOfBoundsError{Addr: uint64(addr), Length: 1, Capacity: lsu.memory.Capacity()}
	}
	return uint64(addr), nil
}

// LoadByte performs LDR/LDUR: Xd = zero_extend(mem[addr])
func (lsu *LoadStoreUnit) LoadByte(rd uint8, addr uint64) error {
	value, err := lsu.memory.ReadByte(addr)
	if err != nil {
		return err
	}
	lsu.regFile.WriteX(rd, int64(value))
	return nil
}

// StoreByte performs STR/STUR: mem[addr] = Xs[7:0]
func (lsu *LoadStoreUnit) StoreByte(rs uint8, addr uint64) error {
	return lsu.memory.WriteByte(addr, byte(lsu.regFile.ReadX(rs)))
}

// AddByte performs LDADD: mem[addr] += Xs[7:0], as one uninterruptible
// step from the engine's perspective.
func (lsu *LoadStoreUnit) AddByte(rs uint8, addr uint64) error {
	current, err := lsu.memory.ReadByte(addr)
	if err != nil {
		return err
	}
	return lsu.memory.WriteByte(addr, current+byte(lsu.regFile.ReadX(rs)))
}

// ClearByte performs LDCLR: mem[addr] = 0
func (lsu *LoadStoreUnit) ClearByte(addr uint64) error {
	return lsu.memory.WriteByte(addr, 0)
}

// SetByte performs LDSET: mem[addr] = 1
func (lsu *LoadStoreUnit) SetByte(addr uint64) error {
	return lsu.memory.WriteByte(addr, 1)
}
