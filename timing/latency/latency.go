// Package latency provides per-category instruction cycle costs.
package latency

import (
	"github.com/sarchlab/armlet/insts"
)

// Table maps opcode categories to cycle costs. It implements the
// emu.AccessTimer interface.
type Table struct {
	costs map[insts.Category]uint64
}

// NewTable creates a table with default costs.
func NewTable() *Table {
	return NewTableWithConfig(DefaultConfig())
}

// NewTableWithConfig creates a table from a configuration.
func NewTableWithConfig(config *Config) *Table {
	return &Table{
		costs: map[insts.Category]uint64{
			insts.CategoryALU:     config.ALUCycles,
			insts.CategoryMemory:  config.MemoryCycles,
			insts.CategoryAtomic:  config.AtomicCycles,
			insts.CategoryFloat:   config.FloatCycles,
			insts.CategoryBranch:  config.BranchCycles,
			insts.CategoryBarrier: config.BarrierCycles,
			insts.CategoryFeature: config.FeatureCycles,
		},
	}
}

// Cycles returns the cost for a category. Unknown categories cost one
// cycle.
func (t *Table) Cycles(category insts.Category) uint64 {
	if cycles, ok := t.costs[category]; ok {
		return cycles
	}
	return 1
}
