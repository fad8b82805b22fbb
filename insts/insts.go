// Package insts provides mnemonic-text instruction definitions and decoding.
//
// This package implements decoding of one-line textual mnemonics into
// structured instruction representations. It supports:
//   - Data move / ALU: MOV, ADD, SUB, MUL, AND, ORR, EOR
//   - Memory access: LDR, STR, LDUR, STUR (byte granularity)
//   - Atomic-style memory: LDADD, LDCLR, LDSET
//   - Floating point: FADD, FCMPE
//   - Control flow: B, BL, CBZ
//   - Barriers: ISB, DSB, DMB
//   - Feature toggle: SVE
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode("ADD X1, X0, #42")
//	fmt.Printf("Op: %v, operands: %d\n", inst.Op, len(inst.Operands))
package insts

// Op represents an opcode.
type Op uint8

// Opcodes.
const (
	OpUnknown Op = iota
	OpMOV
	OpADD
	OpSUB
	OpMUL
	OpAND
	OpORR
	OpEOR
	OpLDR
	OpSTR
	OpLDUR
	OpSTUR
	OpLDADD
	OpLDCLR
	OpLDSET
	OpFADD
	OpFCMPE
	OpB
	OpBL
	OpCBZ
	OpISB
	OpDSB
	OpDMB
	OpSVE
)

var opNames = map[Op]string{
	OpUnknown: "UNKNOWN",
	OpMOV:     "MOV",
	OpADD:     "ADD",
	OpSUB:     "SUB",
	OpMUL:     "MUL",
	OpAND:     "AND",
	OpORR:     "ORR",
	OpEOR:     "EOR",
	OpLDR:     "LDR",
	OpSTR:     "STR",
	OpLDUR:    "LDUR",
	OpSTUR:    "STUR",
	OpLDADD:   "LDADD",
	OpLDCLR:   "LDCLR",
	OpLDSET:   "LDSET",
	OpFADD:    "FADD",
	OpFCMPE:   "FCMPE",
	OpB:       "B",
	OpBL:      "BL",
	OpCBZ:     "CBZ",
	OpISB:     "ISB",
	OpDSB:     "DSB",
	OpDMB:     "DMB",
	OpSVE:     "SVE",
}

// String returns the canonical mnemonic for the opcode.
func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// Category classifies opcodes by the execution unit that handles them.
type Category uint8

// Opcode categories.
const (
	CategoryUnknown Category = iota
	CategoryALU              // Data move and integer arithmetic/logic
	CategoryMemory           // Byte loads and stores
	CategoryAtomic           // Read-modify-write at an effective address
	CategoryFloat            // Floating-point bank operations
	CategoryBranch           // Control-flow transfers
	CategoryBarrier          // Pipeline drain/invalidate
	CategoryFeature          // Feature flag toggles
)

// OperandKind identifies the variant held by an Operand.
type OperandKind uint8

// Operand variants.
const (
	OperandRegister  OperandKind = iota // Bare register name (X0..X31)
	OperandImmediate                    // #-prefixed or bare numeric literal
	OperandMemory                       // [Xn, #offset]
	OperandTarget                       // Hex branch target address
)

// Operand is one decoded operand token. Only the fields for its Kind
// are meaningful.
type Operand struct {
	Kind OperandKind

	// Reg is the register index for OperandRegister.
	Reg uint8

	// Imm is the value for OperandImmediate.
	Imm int64

	// Base and Offset describe an OperandMemory effective address:
	// base register value plus signed byte offset.
	Base   uint8
	Offset int64

	// Target is the absolute address for OperandTarget.
	Target uint64
}

// Instruction represents one decoded mnemonic. Instances are built per
// decode call and discarded once the effect has been applied.
type Instruction struct {
	Op       Op
	Category Category
	Operands []Operand

	// Text is the raw mnemonic line the instruction was decoded from.
	Text string
}
