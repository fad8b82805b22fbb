package insts

import (
	"github.com/sarchlab/armlet/translate"
)

var f = translate.From

// DecodeError reports an unrecognized opcode or malformed operand text.
// Callers are expected to log it and skip the instruction; a malformed
// program must not halt the simulated core.
type DecodeError struct {
	Line   string
	Reason string
}

func (e *DecodeError) Error() string {
	return f("cannot decode %q: %v", e.Line, e.Reason)
}

// InvalidRegisterError reports a register name outside the canonical
// X0..X31 set. It is raised at decode time, before any register file
// mutation can occur.
type InvalidRegisterError struct {
	Name string
}

func (e *InvalidRegisterError) Error() string {
	return f("invalid register %q", e.Name)
}
