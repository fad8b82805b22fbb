package emu

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/armlet/insts"
)

// AccessTimer estimates the cycle cost of an instruction category. It
// feeds the estimated-cycles statistic only; the architectural
// CycleCount always advances one unit per RunCycle.
type AccessTimer interface {
	Cycles(category insts.Category) uint64
}

// DataCache observes data-memory accesses for timing accounting. The
// data path stays in Memory; a cache model only reports hit state and
// access latency.
type DataCache interface {
	Access(addr uint64, write bool) (hit bool, cycles uint64)
}

// Stats accumulates execution statistics.
type Stats struct {
	// Executed counts instructions that applied their effect.
	Executed uint64

	// Skipped counts undecodable lines that were logged and dropped.
	Skipped uint64

	// EstimatedCycles is the cost sum reported by the AccessTimer.
	EstimatedCycles uint64

	// CacheHits and CacheMisses count DataCache observations.
	CacheHits   uint64
	CacheMisses uint64
}

// Snapshot is a read-only view of the register file and counters,
// exposed to rendering/diagnostic collaborators.
type Snapshot struct {
	X          [32]int64
	F          [32]float64
	PC         uint64
	SP         uint64
	ELR        uint64
	CycleCount uint64
	EL         Level
	SVEEnabled bool
}

// CPU executes text-mnemonic instructions against its register file
// and memory. One caller drives one CPU serially; there is no
// background execution.
type CPU struct {
	regFile    *RegFile
	memory     *Memory
	decoder    *insts.Decoder
	pipeline   *Pipeline
	exceptions *ExceptionController

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	fpu        *FPU
	branchUnit *BranchUnit

	// Timing observers (optional)
	timer  AccessTimer
	dcache DataCache

	logger io.Writer
	trace  bool

	memorySize uint64
	stats      Stats
}

// Option is a functional option for configuring the CPU.
type Option func(*CPU)

// WithMemorySize sets the memory capacity in bytes.
func WithMemorySize(size uint64) Option {
	return func(c *CPU) {
		c.memorySize = size
	}
}

// WithLogger sets the writer for invalid-instruction, barrier, and
// exception logging.
func WithLogger(w io.Writer) Option {
	return func(c *CPU) {
		c.logger = w
	}
}

// WithTrace enables per-instruction trace logging.
func WithTrace(trace bool) Option {
	return func(c *CPU) {
		c.trace = trace
	}
}

// WithAccessTimer attaches a cycle-cost model.
func WithAccessTimer(t AccessTimer) Option {
	return func(c *CPU) {
		c.timer = t
	}
}

// WithDataCache attaches a data-cache timing model.
func WithDataCache(d DataCache) Option {
	return func(c *CPU) {
		c.dcache = d
	}
}

// NewCPU creates a CPU with its own register file, memory, pipeline
// queue, and exception controller.
func NewCPU(opts ...Option) *CPU {
	c := &CPU{
		decoder:    insts.NewDecoder(),
		pipeline:   NewPipeline(),
		logger:     os.Stderr,
		memorySize: DefaultMemorySize,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.regFile = &RegFile{}
	c.memory = NewMemory(c.memorySize)
	c.exceptions = NewExceptionController(c.regFile, c.logger)

	c.alu = NewALU(c.regFile)
	c.lsu = NewLoadStoreUnit(c.regFile, c.memory)
	c.fpu = NewFPU(c.regFile)
	c.branchUnit = NewBranchUnit(c.regFile)

	return c
}

// RegFile returns the CPU's register file.
func (c *CPU) RegFile() *RegFile {
	return c.regFile
}

// Memory returns the CPU's memory unit.
func (c *CPU) Memory() *Memory {
	return c.memory
}

// Pipeline returns the CPU's pending-instruction queue.
func (c *CPU) Pipeline() *Pipeline {
	return c.pipeline
}

// Exceptions returns the CPU's exception controller.
func (c *CPU) Exceptions() *ExceptionController {
	return c.exceptions
}

// Stats returns the accumulated execution statistics.
func (c *CPU) Stats() Stats {
	return c.stats
}

// Snapshot returns a read-only copy of the observable state surface.
func (c *CPU) Snapshot() Snapshot {
	return Snapshot{
		X:          c.regFile.X,
		F:          c.regFile.F,
		PC:         c.regFile.PC,
		SP:         c.regFile.SP,
		ELR:        c.regFile.ELR,
		CycleCount: c.regFile.CycleCount,
		EL:         c.regFile.EL,
		SVEEnabled: c.regFile.SVEEnabled,
	}
}

// Fetch appends a mnemonic to the pipeline queue without executing it.
// Only barrier opcodes consume the queue.
func (c *CPU) Fetch(line string) {
	c.pipeline.Push(line)
}

// Execute decodes and applies one mnemonic line.
//
// Undecodable lines (unknown opcode, malformed operand) are logged and
// skipped with a nil return: a malformed program must not halt the
// core. Invalid register names and out-of-bounds accesses are returned
// to the caller; in every error case no state was modified.
func (c *CPU) Execute(line string) error {
	inst, err := c.decoder.Decode(line)
	if err != nil {
		var decodeErr *insts.DecodeError
		if errors.As(err, &decodeErr) {
			fmt.Fprintf(c.logger, "armlet: invalid instruction: %v\n", decodeErr)
			c.stats.Skipped++
			return nil
		}
		return err
	}

	if c.trace {
		fmt.Fprintf(c.logger, "armlet: exec %s\n", inst.Text)
	}

	if err := c.dispatch(inst); err != nil {
		return err
	}

	c.stats.Executed++
	if c.timer != nil {
		c.stats.EstimatedCycles += c.timer.Cycles(inst.Category)
	}
	return nil
}

// RunCycle advances the processor state by one cycle. When an
// exception is pending it delegates to the exception controller
// instead of normal advancement.
func (c *CPU) RunCycle() {
	if c.exceptions.Pending() {
		c.exceptions.Service()
		return
	}
	c.regFile.PC++
	c.regFile.CycleCount++
}

// dispatch routes a decoded instruction to the handler for its
// category.
func (c *CPU) dispatch(inst *insts.Instruction) error {
	switch inst.Category {
	case insts.CategoryALU:
		c.executeALU(inst)
	case insts.CategoryMemory, insts.CategoryAtomic:
		return c.executeMemory(inst)
	case insts.CategoryFloat:
		c.executeFloat(inst)
	case insts.CategoryBranch:
		c.executeBranch(inst)
	case insts.CategoryBarrier:
		c.executeBarrier(inst)
	case insts.CategoryFeature:
		c.regFile.SVEEnabled = true
	}
	return nil
}

// operandValue resolves a register or immediate source operand.
func (c *CPU) operandValue(op insts.Operand) int64 {
	if op.Kind == insts.OperandRegister {
		return c.regFile.ReadX(op.Reg)
	}
	return op.Imm
}

func (c *CPU) executeALU(inst *insts.Instruction) {
	rd := inst.Operands[0].Reg

	if inst.Op == insts.OpMOV {
		c.alu.MOV(rd, c.operandValue(inst.Operands[1]))
		return
	}

	// Sources resolve left to right before the destination is
	// written.
	op1 := c.operandValue(inst.Operands[1])
	op2 := c.operandValue(inst.Operands[2])

	switch inst.Op {
	case insts.OpADD:
		c.alu.ADD(rd, op1, op2)
	case insts.OpSUB:
		c.alu.SUB(rd, op1, op2)
	case insts.OpMUL:
		c.alu.MUL(rd, op1, op2)
	case insts.OpAND:
		c.alu.AND(rd, op1, op2)
	case insts.OpORR:
		c.alu.ORR(rd, op1, op2)
	case insts.OpEOR:
		c.alu.EOR(rd, op1, op2)
	}
}

func (c *CPU) executeMemory(inst *insts.Instruction) error {
	// The memory operand is the last one; LDCLR/LDSET may omit the
	// register.
	mem := inst.Operands[len(inst.Operands)-1]
	var reg uint8
	if len(inst.Operands) == 2 {
		reg = inst.Operands[0].Reg
	}

	addr, err := c.lsu.EffectiveAddress(mem.Base, mem.Offset)
	if err != nil {
		return err
	}

	write := inst.Op != insts.OpLDR && inst.Op != insts.OpLDUR

	switch inst.Op {
	case insts.OpLDR, insts.OpLDUR:
		err = c.lsu.LoadByte(reg, addr)
	case insts.OpSTR, insts.OpSTUR:
		err = c.lsu.StoreByte(reg, addr)
	case insts.OpLDADD:
		err = c.lsu.AddByte(reg, addr)
	case insts.OpLDCLR:
		err = c.lsu.ClearByte(addr)
	case insts.OpLDSET:
		err = c.lsu.SetByte(addr)
	}
	if err != nil {
		return err
	}

	if c.dcache != nil {
		hit, cycles := c.dcache.Access(addr, write)
		if hit {
			c.stats.CacheHits++
		} else {
			c.stats.CacheMisses++
		}
		c.stats.EstimatedCycles += cycles
	}

	return nil
}

func (c *CPU) executeFloat(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpFADD:
		c.fpu.FADD(inst.Operands[0].Reg, inst.Operands[1].Reg, inst.Operands[2].Reg)
	case insts.OpFCMPE:
		// Computed and discarded: no condition-flag register
		// exists to persist the result yet.
		_ = c.fpu.FCMPE(inst.Operands[0].Reg, inst.Operands[1].Reg)
	}
}

func (c *CPU) executeBranch(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpB:
		c.branchUnit.B(inst.Operands[0].Target)
	case insts.OpBL:
		c.branchUnit.BL(inst.Operands[0].Target)
	case insts.OpCBZ:
		c.branchUnit.CBZ(inst.Operands[0].Reg, inst.Operands[1].Target)
	}
}

func (c *CPU) executeBarrier(inst *insts.Instruction) {
	switch inst.Op {
	case insts.OpDMB, insts.OpDSB:
		c.pipeline.Drain(func(mnemonic string) {
			fmt.Fprintf(c.logger, "armlet: %v retires %q\n", inst.Op, mnemonic)
		})
	case insts.OpISB:
		if n := c.pipeline.Len(); n > 0 {
			fmt.Fprintf(c.logger, "armlet: ISB invalidates %d pending entries\n", n)
		}
		c.pipeline.Invalidate()
	}
}
