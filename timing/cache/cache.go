// Package cache provides a data-cache timing model built on Akita
// cache components.
//
// The model tracks tags only: data stays in emu.Memory, so attaching a
// cache never changes functional results, only the hit/miss and
// latency statistics reported to the CPU.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache geometry and latency parameters.
type Config struct {
	// Size in bytes
	Size int
	// Associativity (number of ways)
	Associativity int
	// BlockSize in bytes (cache line size)
	BlockSize int
	// HitLatency in cycles
	HitLatency uint64
	// MissLatency in cycles (includes backing memory access time)
	MissLatency uint64
}

// DefaultL1DConfig returns a modest L1 data cache configuration
// suitable for the simulated core's byte-granularity accesses.
func DefaultL1DConfig() Config {
	return Config{
		Size:          32 * 1024, // 32KB
		Associativity: 4,         // 4-way
		BlockSize:     64,        // 64B cache line
		HitLatency:    3,
		MissLatency:   40,
	}
}

// Statistics holds cache performance counters.
type Statistics struct {
	Reads     uint64
	Writes    uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is a directory-only timing cache. It implements the
// emu.DataCache interface.
type Cache struct {
	config    Config
	directory *akitacache.DirectoryImpl
	stats     Statistics
}

// New creates a cache with the given configuration.
func New(config Config) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns the cache counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Access looks up addr, allocating its line on a miss, and returns the
// hit state and access latency.
func (c *Cache) Access(addr uint64, write bool) (bool, uint64) {
	if write {
		c.stats.Writes++
	} else {
		c.stats.Reads++
	}

	blockAddr := (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		if write {
			block.IsDirty = true
		}
		return true, c.config.HitLatency
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return false, c.config.MissLatency
	}
	if victim.IsValid {
		c.stats.Evictions++
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = write
	c.directory.Visit(victim)

	return false, c.config.MissLatency
}

// Invalidate marks the line holding addr as invalid.
func (c *Cache) Invalidate(addr uint64) {
	blockAddr := (addr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Reset invalidates every line and clears the counters.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
