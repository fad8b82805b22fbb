package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds cycle costs for each instruction category.
type Config struct {
	// ALUCycles is the cost of data move and integer ALU
	// instructions. Default: 1 cycle.
	ALUCycles uint64 `json:"alu_cycles"`

	// MemoryCycles is the cost of byte loads and stores. Default: 4
	// cycles.
	MemoryCycles uint64 `json:"memory_cycles"`

	// AtomicCycles is the cost of the read-modify-write opcodes.
	// Default: 6 cycles.
	AtomicCycles uint64 `json:"atomic_cycles"`

	// FloatCycles is the cost of floating-point instructions.
	// Default: 3 cycles.
	FloatCycles uint64 `json:"float_cycles"`

	// BranchCycles is the cost of control-flow instructions.
	// Default: 1 cycle.
	BranchCycles uint64 `json:"branch_cycles"`

	// BarrierCycles is the base cost of a barrier, not counting the
	// entries it drains. Default: 8 cycles.
	BarrierCycles uint64 `json:"barrier_cycles"`

	// FeatureCycles is the cost of feature-toggle instructions.
	// Default: 1 cycle.
	FeatureCycles uint64 `json:"feature_cycles"`
}

// DefaultConfig returns a Config with default costs.
func DefaultConfig() *Config {
	return &Config{
		ALUCycles:     1,
		MemoryCycles:  4,
		AtomicCycles:  6,
		FloatCycles:   3,
		BranchCycles:  1,
		BarrierCycles: 8,
		FeatureCycles: 1,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the
// file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read latency config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse latency config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize latency config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write latency config file: %w", err)
	}

	return nil
}

// Validate checks that all costs are valid (> 0).
func (c *Config) Validate() error {
	if c.ALUCycles == 0 {
		return fmt.Errorf("alu_cycles must be > 0")
	}
	if c.MemoryCycles == 0 {
		return fmt.Errorf("memory_cycles must be > 0")
	}
	if c.AtomicCycles == 0 {
		return fmt.Errorf("atomic_cycles must be > 0")
	}
	if c.FloatCycles == 0 {
		return fmt.Errorf("float_cycles must be > 0")
	}
	if c.BranchCycles == 0 {
		return fmt.Errorf("branch_cycles must be > 0")
	}
	if c.BarrierCycles == 0 {
		return fmt.Errorf("barrier_cycles must be > 0")
	}
	if c.FeatureCycles == 0 {
		return fmt.Errorf("feature_cycles must be > 0")
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
