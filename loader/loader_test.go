package loader_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armlet/emu"
	"github.com/sarchlab/armlet/loader"
)

func writeFile(dir, name string, data []byte) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, data, 0644)).To(Succeed())
	return path
}

var _ = Describe("Loader", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	Context("LoadFile", func() {
		It("should read a blob from disk", func() {
			path := writeFile(dir, "fw.bin", []byte{0xde, 0xad})

			image, err := loader.LoadFile("firmware", path, 0x100)

			Expect(err).NotTo(HaveOccurred())
			Expect(image.Name).To(Equal("firmware"))
			Expect(image.Offset).To(Equal(uint64(0x100)))
			Expect(image.Data).To(Equal([]byte{0xde, 0xad}))
		})

		It("should fail on a missing file", func() {
			_, err := loader.LoadFile("keys", filepath.Join(dir, "nope.bin"), 0)

			Expect(err).To(HaveOccurred())
		})
	})

	Context("Manifest", func() {
		It("should load blobs in keys, firmware, ROM order", func() {
			writeFile(dir, "keys.bin", []byte{1})
			writeFile(dir, "fw.bin", []byte{2})
			writeFile(dir, "rom.bin", []byte{3})
			manifestPath := writeFile(dir, "manifest.json", []byte(`{
				"rom": {"path": "rom.bin", "offset": 512},
				"keys": {"path": "keys.bin", "offset": 0},
				"firmware": {"path": "fw.bin", "offset": 256}
			}`))

			manifest, err := loader.LoadManifest(manifestPath)
			Expect(err).NotTo(HaveOccurred())

			images, err := manifest.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(images).To(HaveLen(3))
			Expect(images[0].Name).To(Equal("keys"))
			Expect(images[1].Name).To(Equal("firmware"))
			Expect(images[2].Name).To(Equal("rom"))
		})

		It("should resolve blob paths relative to the manifest", func() {
			sub := filepath.Join(dir, "blobs")
			Expect(os.Mkdir(sub, 0755)).To(Succeed())
			writeFile(sub, "fw.bin", []byte{7})
			manifestPath := writeFile(dir, "manifest.json",
				[]byte(`{"firmware": {"path": "blobs/fw.bin", "offset": 64}}`))

			manifest, err := loader.LoadManifest(manifestPath)
			Expect(err).NotTo(HaveOccurred())

			images, err := manifest.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(images).To(HaveLen(1))
			Expect(images[0].Data).To(Equal([]byte{7}))
		})

		It("should allow omitted entries", func() {
			manifestPath := writeFile(dir, "manifest.json", []byte(`{}`))

			manifest, err := loader.LoadManifest(manifestPath)
			Expect(err).NotTo(HaveOccurred())

			images, err := manifest.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(images).To(BeEmpty())
		})

		It("should fail on malformed manifest JSON", func() {
			manifestPath := writeFile(dir, "manifest.json", []byte(`{`))

			_, err := loader.LoadManifest(manifestPath)

			Expect(err).To(HaveOccurred())
		})

		It("should fail when a named blob is missing", func() {
			manifestPath := writeFile(dir, "manifest.json",
				[]byte(`{"keys": {"path": "missing.bin", "offset": 0}}`))

			manifest, err := loader.LoadManifest(manifestPath)
			Expect(err).NotTo(HaveOccurred())

			_, err = manifest.Load()
			Expect(err).To(HaveOccurred())
		})
	})

	Context("Stage", func() {
		It("should place every image at its offset", func() {
			memory := emu.NewMemory(1024)

			err := loader.Stage(memory,
				&loader.Image{Name: "keys", Offset: 0, Data: []byte{1, 2}},
				&loader.Image{Name: "firmware", Offset: 0x100, Data: []byte{3, 4}},
			)

			Expect(err).NotTo(HaveOccurred())
			block, err := memory.ReadBlock(0x100, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(block).To(Equal([]byte{3, 4}))
		})

		It("should fail when an image does not fit", func() {
			memory := emu.NewMemory(16)

			err := loader.Stage(memory,
				&loader.Image{Name: "rom", Offset: 12, Data: []byte{1, 2, 3, 4, 5, 6}},
			)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("rom"))
		})
	})
})
