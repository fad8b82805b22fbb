package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armlet/emu"
)

var _ = Describe("Pipeline", func() {
	var pipeline *emu.Pipeline

	BeforeEach(func() {
		pipeline = emu.NewPipeline()
	})

	It("should start empty", func() {
		Expect(pipeline.Len()).To(Equal(0))
		Expect(pipeline.Pending()).To(BeEmpty())
	})

	It("should keep FIFO order", func() {
		pipeline.Push("first")
		pipeline.Push("second")

		Expect(pipeline.Pending()).To(Equal([]string{"first", "second"}))
	})

	It("should drain in FIFO order", func() {
		pipeline.Push("a")
		pipeline.Push("b")
		pipeline.Push("c")

		var drained []string
		pipeline.Drain(func(mnemonic string) {
			drained = append(drained, mnemonic)
		})

		Expect(drained).To(Equal([]string{"a", "b", "c"}))
		Expect(pipeline.Len()).To(Equal(0))
	})

	It("should drain an empty queue without calling process", func() {
		pipeline.Drain(func(string) {
			Fail("process must not be called")
		})
	})

	It("should invalidate without processing", func() {
		pipeline.Push("a")

		pipeline.Invalidate()

		Expect(pipeline.Len()).To(Equal(0))
	})

	It("should hand out copies of the pending entries", func() {
		pipeline.Push("a")

		pending := pipeline.Pending()
		pending[0] = "mutated"

		Expect(pipeline.Pending()).To(Equal([]string{"a"}))
	})
})
