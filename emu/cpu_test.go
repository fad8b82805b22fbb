package emu_test

import (
	"bytes"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armlet/emu"
	"github.com/sarchlab/armlet/insts"
)

// fixedTimer charges the same cost for every category.
type fixedTimer struct {
	cost uint64
}

func (t fixedTimer) Cycles(_ insts.Category) uint64 {
	return t.cost
}

// toggleCache alternates miss, hit, miss, hit.
type toggleCache struct {
	accesses int
}

func (c *toggleCache) Access(_ uint64, _ bool) (bool, uint64) {
	c.accesses++
	if c.accesses%2 == 1 {
		return false, 40
	}
	return true, 3
}

var _ = Describe("CPU", func() {
	var (
		cpu *emu.CPU
		log *bytes.Buffer
	)

	BeforeEach(func() {
		log = &bytes.Buffer{}
		cpu = emu.NewCPU(
			emu.WithMemorySize(1024),
			emu.WithLogger(log),
		)
	})

	run := func(lines ...string) {
		for _, line := range lines {
			Expect(cpu.Execute(line)).To(Succeed())
		}
	}

	Context("ALU instructions", func() {
		It("should move, add, subtract, and multiply", func() {
			run(
				"MOV X0, 5",
				"MOV X1, X0",
				"ADD X1, X1, X0",
				"SUB X2, X1, X0",
				"MUL X3, X2, X1",
			)

			regFile := cpu.RegFile()
			Expect(regFile.ReadX(0)).To(Equal(int64(5)))
			Expect(regFile.ReadX(1)).To(Equal(int64(10)))
			Expect(regFile.ReadX(2)).To(Equal(int64(5)))
			Expect(regFile.ReadX(3)).To(Equal(int64(50)))
		})

		It("should apply the bitwise operations", func() {
			run(
				"MOV X0, #0b1100",
				"MOV X1, #0b1010",
				"AND X2, X0, X1",
				"ORR X3, X0, X1",
				"EOR X4, X0, X1",
			)

			regFile := cpu.RegFile()
			Expect(regFile.ReadX(2)).To(Equal(int64(0b1000)))
			Expect(regFile.ReadX(3)).To(Equal(int64(0b1110)))
			Expect(regFile.ReadX(4)).To(Equal(int64(0b0110)))
		})

		It("should treat X31 as an ordinary register", func() {
			run("MOV X31, 7", "ADD X0, X31, X31")

			Expect(cpu.RegFile().ReadX(31)).To(Equal(int64(7)))
			Expect(cpu.RegFile().ReadX(0)).To(Equal(int64(14)))
		})

		It("should handle negative immediates", func() {
			run("MOV X0, #-5", "ADD X1, X0, #3")

			Expect(cpu.RegFile().ReadX(1)).To(Equal(int64(-2)))
		})
	})

	Context("memory instructions", func() {
		It("should store the low byte and load it zero-extended", func() {
			run(
				"MOV X0, #0x1ff",
				"MOV X1, #0x100",
				"STR X0, [X1, #8]",
				"LDR X2, [X1, #8]",
			)

			value, err := cpu.Memory().ReadByte(0x108)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal(byte(0xff)))
			Expect(cpu.RegFile().ReadX(2)).To(Equal(int64(0xff)))
		})

		It("should treat LDUR and STUR like LDR and STR", func() {
			run(
				"MOV X0, 42",
				"MOV X1, #0x40",
				"STUR X0, [X1, #-8]",
				"LDUR X2, [X1, #-8]",
			)

			Expect(cpu.RegFile().ReadX(2)).To(Equal(int64(42)))
		})

		It("should reject negative effective addresses", func() {
			err := cpu.Execute("STR X0, [X1, #-4]")

			var oob *emu.OutOfBoundsError
			Expect(errors.As(err, &oob)).To(BeTrue())
		})

		It("should reject accesses past the capacity and change nothing", func() {
			before := cpu.Snapshot()

			run("MOV X1, #0x400")
			before.X[1] = 0x400

			err := cpu.Execute("LDR X0, [X1]")

			var oob *emu.OutOfBoundsError
			Expect(errors.As(err, &oob)).To(BeTrue())
			Expect(cpu.Snapshot()).To(Equal(before))
		})
	})

	Context("atomic instructions", func() {
		BeforeEach(func() {
			run("MOV X1, #0x80")
		})

		It("should set, add to, and clear a byte", func() {
			run("LDSET X9, [X1]")
			value, _ := cpu.Memory().ReadByte(0x80)
			Expect(value).To(Equal(byte(1)))

			run("MOV X0, 4", "LDADD X0, [X1]")
			value, _ = cpu.Memory().ReadByte(0x80)
			Expect(value).To(Equal(byte(5)))

			run("LDCLR [X1]")
			value, _ = cpu.Memory().ReadByte(0x80)
			Expect(value).To(Equal(byte(0)))
		})

		It("should wrap LDADD at the byte boundary", func() {
			run("MOV X0, #0xff", "LDADD X0, [X1]", "LDADD X0, [X1]")

			value, _ := cpu.Memory().ReadByte(0x80)
			Expect(value).To(Equal(byte(0xfe)))
		})
	})

	Context("floating-point instructions", func() {
		It("should add in the float bank", func() {
			cpu.RegFile().WriteF(1, 1.5)
			cpu.RegFile().WriteF(2, 2.25)

			run("FADD X0, X1, X2")

			Expect(cpu.RegFile().ReadF(0)).To(Equal(3.75))
		})

		It("should leave no observable change after FCMPE", func() {
			cpu.RegFile().WriteF(2, 1.0)
			cpu.RegFile().WriteF(3, 2.0)
			before := cpu.Snapshot()

			run("FCMPE X2, X3")

			Expect(cpu.Snapshot()).To(Equal(before))
		})

		It("should not disturb the integer bank", func() {
			run("MOV X1, 9")
			cpu.RegFile().WriteF(1, 4.0)
			cpu.RegFile().WriteF(2, 4.0)

			run("FADD X1, X1, X2")

			Expect(cpu.RegFile().ReadX(1)).To(Equal(int64(9)))
			Expect(cpu.RegFile().ReadF(1)).To(Equal(8.0))
		})
	})

	Context("branch instructions", func() {
		It("should jump to an absolute target", func() {
			run("B 0x1000")

			Expect(cpu.Snapshot().PC).To(Equal(uint64(0x1000)))
		})

		It("should link the return address in X30", func() {
			cpu.RegFile().PC = 0x40

			run("BL 0x2000")

			Expect(cpu.RegFile().ReadX(emu.LinkRegister)).To(Equal(int64(0x40)))
			Expect(cpu.Snapshot().PC).To(Equal(uint64(0x2000)))
		})

		It("should take CBZ only when the register is zero", func() {
			run("CBZ X5, 0x3000")
			Expect(cpu.Snapshot().PC).To(Equal(uint64(0x3000)))

			run("MOV X5, 1", "CBZ X5, 0x4000")
			Expect(cpu.Snapshot().PC).To(Equal(uint64(0x3000)))
		})
	})

	Context("barrier instructions", func() {
		It("should be a no-op on an empty pipeline", func() {
			run("DMB", "DSB", "ISB")

			Expect(log.String()).To(BeEmpty())
		})

		It("should retire pending entries in order on DMB", func() {
			cpu.Fetch("STR X0, [X1]")
			cpu.Fetch("LDR X2, [X1]")

			run("DMB")

			Expect(cpu.Pipeline().Len()).To(Equal(0))
			Expect(log.String()).To(ContainSubstring(`DMB retires "STR X0, [X1]"`))
			Expect(log.String()).To(ContainSubstring(`DMB retires "LDR X2, [X1]"`))
		})

		It("should drain on DSB as well", func() {
			cpu.Fetch("MOV X0, 1")

			run("DSB")

			Expect(cpu.Pipeline().Len()).To(Equal(0))
			Expect(log.String()).To(ContainSubstring(`DSB retires "MOV X0, 1"`))
		})

		It("should invalidate without retiring on ISB", func() {
			cpu.Fetch("MOV X0, 1")
			cpu.Fetch("MOV X1, 2")

			run("ISB")

			Expect(cpu.Pipeline().Len()).To(Equal(0))
			Expect(log.String()).To(ContainSubstring("ISB invalidates 2 pending entries"))
			Expect(log.String()).NotTo(ContainSubstring("retires"))
		})
	})

	Context("feature instructions", func() {
		It("should enable SVE", func() {
			Expect(cpu.Snapshot().SVEEnabled).To(BeFalse())

			run("SVE")

			Expect(cpu.Snapshot().SVEEnabled).To(BeTrue())
		})
	})

	Context("undecodable lines", func() {
		It("should log and skip unknown opcodes without failing", func() {
			before := cpu.Snapshot()

			Expect(cpu.Execute("FROB X0, X1")).To(Succeed())

			Expect(cpu.Snapshot()).To(Equal(before))
			Expect(cpu.Stats().Skipped).To(Equal(uint64(1)))
			Expect(cpu.Stats().Executed).To(Equal(uint64(0)))
			Expect(log.String()).To(ContainSubstring("invalid instruction"))
		})

		It("should return invalid register names to the caller", func() {
			before := cpu.Snapshot()

			err := cpu.Execute("MOV X40, 1")

			var invalid *insts.InvalidRegisterError
			Expect(errors.As(err, &invalid)).To(BeTrue())
			Expect(cpu.Snapshot()).To(Equal(before))
			Expect(cpu.Stats().Skipped).To(Equal(uint64(0)))
		})
	})

	Context("cycle advancement", func() {
		It("should advance PC and CycleCount together", func() {
			cpu.RunCycle()
			cpu.RunCycle()

			snapshot := cpu.Snapshot()
			Expect(snapshot.PC).To(Equal(uint64(2)))
			Expect(snapshot.CycleCount).To(Equal(uint64(2)))
		})

		It("should delegate to the exception controller while pending", func() {
			cpu.Exceptions().Raise()

			cpu.RunCycle()
			cpu.RunCycle()

			snapshot := cpu.Snapshot()
			Expect(snapshot.PC).To(Equal(uint64(0)))
			Expect(snapshot.CycleCount).To(Equal(uint64(0)))
			Expect(strings.Count(log.String(), "handling exception at EL0")).To(Equal(2))
		})

		It("should resume normal advancement after Clear", func() {
			cpu.Exceptions().Raise()
			cpu.RunCycle()
			cpu.Exceptions().Clear()

			cpu.RunCycle()

			Expect(cpu.Snapshot().CycleCount).To(Equal(uint64(1)))
		})

		It("should dispatch to the handler for the current level", func() {
			serviced := emu.Level(0xff)
			cpu.Exceptions().SetHandler(emu.EL2, func(regFile *emu.RegFile) {
				serviced = regFile.EL
			})
			cpu.RegFile().EL = emu.EL2
			cpu.Exceptions().Raise()

			cpu.RunCycle()

			Expect(serviced).To(Equal(emu.EL2))
		})
	})

	Context("timing observers", func() {
		It("should accumulate estimated cycles from the timer", func() {
			cpu = emu.NewCPU(
				emu.WithLogger(log),
				emu.WithAccessTimer(fixedTimer{cost: 3}),
			)

			run("MOV X0, 1", "MOV X1, 2")

			Expect(cpu.Stats().EstimatedCycles).To(Equal(uint64(6)))
		})

		It("should count data-cache hits and misses", func() {
			cpu = emu.NewCPU(
				emu.WithLogger(log),
				emu.WithDataCache(&toggleCache{}),
			)

			run(
				"MOV X1, #0x80",
				"STR X0, [X1]",
				"LDR X2, [X1]",
			)

			stats := cpu.Stats()
			Expect(stats.CacheMisses).To(Equal(uint64(1)))
			Expect(stats.CacheHits).To(Equal(uint64(1)))
			Expect(stats.EstimatedCycles).To(Equal(uint64(43)))
		})
	})

	Context("snapshots", func() {
		It("should reflect the architectural state", func() {
			run("MOV X7, 77", "SVE")
			cpu.RegFile().SP = 0x800
			cpu.RunCycle()

			snapshot := cpu.Snapshot()
			Expect(snapshot.X[7]).To(Equal(int64(77)))
			Expect(snapshot.SP).To(Equal(uint64(0x800)))
			Expect(snapshot.CycleCount).To(Equal(uint64(1)))
			Expect(snapshot.SVEEnabled).To(BeTrue())
		})
	})
})
