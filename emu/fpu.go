package emu

// FPU implements the floating-point bank operations.
type FPU struct {
	regFile *RegFile
}

// NewFPU creates a new FPU connected to the given register file.
func NewFPU(regFile *RegFile) *FPU {
	return &FPU{regFile: regFile}
}

// FADD performs floating-point addition: Fd = Fn + Fm
func (u *FPU) FADD(rd, rn, rm uint8) {
	u.regFile.WriteF(rd, u.regFile.ReadF(rn)+u.regFile.ReadF(rm))
}

// FCMPE compares two floating-point registers and returns the
// three-way result (-1, 0, or 1). No condition-flag state exists to
// receive it, so the engine discards the value; the computation is
// kept for parity with a future flag model.
func (u *FPU) FCMPE(rn, rm uint8) int {
	a := u.regFile.ReadF(rn)
	b := u.regFile.ReadF(rm)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
