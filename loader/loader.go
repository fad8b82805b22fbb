// Package loader stages raw key, firmware, and ROM byte blobs into the
// simulated memory before execution begins.
//
// Blobs arrive already validated; the loader never parses their
// contents. It only places bytes at the offsets a manifest names.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Image is one byte blob and the address it loads at.
type Image struct {
	// Name identifies the blob in errors and logs.
	Name string
	// Offset is the load address in the memory unit.
	Offset uint64
	// Data contains the blob bytes.
	Data []byte
}

// LoadFile reads a blob from disk.
func LoadFile(name, path string, offset uint64) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s blob: %w", name, err)
	}

	return &Image{
		Name:   name,
		Offset: offset,
		Data:   data,
	}, nil
}

// Blob locates one blob within a manifest.
type Blob struct {
	// Path to the blob file, relative to the manifest.
	Path string `json:"path"`
	// Offset is the load address.
	Offset uint64 `json:"offset"`
}

// Manifest describes the key, firmware, and ROM blobs to stage. Any
// entry may be omitted.
type Manifest struct {
	Keys     *Blob `json:"keys,omitempty"`
	Firmware *Blob `json:"firmware,omitempty"`
	ROM      *Blob `json:"rom,omitempty"`

	// dir is the manifest's directory, used to resolve blob paths.
	dir string
}

// LoadManifest parses a JSON manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	manifest := &Manifest{dir: filepath.Dir(path)}
	if err := json.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return manifest, nil
}

// Load reads every blob the manifest names, in keys, firmware, ROM
// order.
func (m *Manifest) Load() ([]*Image, error) {
	var images []*Image

	entries := []struct {
		name string
		blob *Blob
	}{
		{"keys", m.Keys},
		{"firmware", m.Firmware},
		{"rom", m.ROM},
	}

	for _, entry := range entries {
		if entry.blob == nil {
			continue
		}
		path := entry.blob.Path
		if !filepath.IsAbs(path) && m.dir != "" {
			path = filepath.Join(m.dir, path)
		}
		image, err := LoadFile(entry.name, path, entry.blob.Offset)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}

	return images, nil
}

// BlockWriter accepts staged blocks; emu.Memory satisfies it.
type BlockWriter interface {
	WriteBlock(addr uint64, data []byte) error
}

// Stage writes every image into memory at its offset. Staging stops at
// the first failing image.
func Stage(memory BlockWriter, images ...*Image) error {
	for _, image := range images {
		if err := memory.WriteBlock(image.Offset, image.Data); err != nil {
			return fmt.Errorf("failed to stage %s at %#x: %w", image.Name, image.Offset, err)
		}
	}
	return nil
}
