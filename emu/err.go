package emu

import (
	"github.com/sarchlab/armlet/translate"
)

var f = translate.From

// OutOfBoundsError reports a memory access outside the unit's
// capacity. The access has no effect; memory is never partially
// written.
type OutOfBoundsError struct {
	Addr     uint64
	Length   uint64
	Capacity uint64
}

func (e *OutOfBoundsError) Error() string {
	if e.Length > 1 {
		return f("address %#x length %d outside memory of %d bytes", e.Addr, e.Length, e.Capacity)
	}
	return f("address %#x outside memory of %d bytes", e.Addr, e.Capacity)
}
