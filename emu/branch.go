package emu

// LinkRegister is the general register that BL stores the return
// program counter into.
const LinkRegister = 30

// BranchUnit implements the control-flow opcodes.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given
// register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// B performs an unconditional branch to an absolute target.
func (b *BranchUnit) B(target uint64) {
	b.regFile.PC = target
}

// BL stores the current program counter into X30, then branches.
func (b *BranchUnit) BL(target uint64) {
	b.regFile.WriteX(LinkRegister, int64(b.regFile.PC))
	b.regFile.PC = target
}

// CBZ branches only when the named register holds zero; otherwise the
// program counter is left unchanged.
func (b *BranchUnit) CBZ(rn uint8, target uint64) {
	if b.regFile.ReadX(rn) == 0 {
		b.regFile.PC = target
	}
}
