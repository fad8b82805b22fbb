package emu

// ALU implements the data move and integer arithmetic/logic
// operations. All arithmetic is 64-bit signed with wrapping overflow.
//
// Callers resolve source operands before invoking an operation, so a
// destination is only ever written after every source resolved.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// MOV writes a resolved value: Xd = v
func (a *ALU) MOV(rd uint8, v int64) {
	a.regFile.WriteX(rd, v)
}

// ADD performs addition: Xd = op1 + op2
func (a *ALU) ADD(rd uint8, op1, op2 int64) {
	a.regFile.WriteX(rd, op1+op2)
}

// SUB performs subtraction: Xd = op1 - op2
func (a *ALU) SUB(rd uint8, op1, op2 int64) {
	a.regFile.WriteX(rd, op1-op2)
}

// MUL performs multiplication: Xd = op1 * op2
func (a *ALU) MUL(rd uint8, op1, op2 int64) {
	a.regFile.WriteX(rd, op1*op2)
}

// AND performs bitwise conjunction: Xd = op1 & op2
func (a *ALU) AND(rd uint8, op1, op2 int64) {
	a.regFile.WriteX(rd, op1&op2)
}

// ORR performs bitwise disjunction: Xd = op1 | op2
func (a *ALU) ORR(rd uint8, op1, op2 int64) {
	a.regFile.WriteX(rd, op1|op2)
}

// EOR performs bitwise exclusive or: Xd = op1 ^ op2
func (a *ALU) EOR(rd uint8, op1, op2 int64) {
	a.regFile.WriteX(rd, op1^op2)
}
