package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armlet/emu"
)

var _ = Describe("Memory", func() {
	var memory *emu.Memory

	BeforeEach(func() {
		memory = emu.NewMemory(64)
	})

	It("should report its capacity", func() {
		Expect(memory.Capacity()).To(Equal(uint64(64)))
	})

	It("should read back a written byte", func() {
		Expect(memory.WriteByte(10, 0xab)).To(Succeed())

		value, err := memory.ReadByte(10)

		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal(byte(0xab)))
	})

	It("should read zero from untouched addresses", func() {
		value, err := memory.ReadByte(0)

		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal(byte(0)))
	})

	It("should reject a byte read past the capacity", func() {
		_, err := memory.ReadByte(64)

		var oob *emu.OutOfBoundsError
		Expect(errors.As(err, &oob)).To(BeTrue())
	})

	It("should read back a written block", func() {
		Expect(memory.WriteBlock(8, []byte{1, 2, 3, 4})).To(Succeed())

		block, err := memory.ReadBlock(8, 4)

		Expect(err).NotTo(HaveOccurred())
		Expect(block).To(Equal([]byte{1, 2, 3, 4}))
	})

	It("should allow a block that ends exactly at the capacity", func() {
		Expect(memory.WriteBlock(60, []byte{9, 9, 9, 9})).To(Succeed())
	})

	It("should reject a block that crosses the capacity", func() {
		err := memory.WriteBlock(62, []byte{1, 2, 3, 4})

		var oob *emu.OutOfBoundsError
		Expect(errors.As(err, &oob)).To(BeTrue())
	})

	It("should leave contents untouched after a failing write", func() {
		Expect(memory.WriteByte(62, 0x11)).To(Succeed())
		Expect(memory.WriteByte(63, 0x22)).To(Succeed())

		err := memory.WriteBlock(62, []byte{1, 2, 3, 4})
		Expect(err).To(HaveOccurred())

		value, _ := memory.ReadByte(62)
		Expect(value).To(Equal(byte(0x11)))
		value, _ = memory.ReadByte(63)
		Expect(value).To(Equal(byte(0x22)))
	})

	It("should not wrap around on huge addresses", func() {
		err := memory.WriteBlock(^uint64(0)-1, []byte{1, 2, 3, 4})

		var oob *emu.OutOfBoundsError
		Expect(errors.As(err, &oob)).To(BeTrue())
	})

	It("should return an independent copy from ReadBlock", func() {
		Expect(memory.WriteBlock(0, []byte{5, 6})).To(Succeed())

		block, err := memory.ReadBlock(0, 2)
		Expect(err).NotTo(HaveOccurred())

		block[0] = 0xff
		value, _ := memory.ReadByte(0)
		Expect(value).To(Equal(byte(5)))
	})
})
