package emu

import (
	"fmt"
	"io"
)

// Level represents an exception/privilege level. Higher numbers denote
// more privileged contexts.
type Level uint8

// Exception levels.
const (
	EL0 Level = iota // Application
	EL1              // OS kernel
	EL2              // Hypervisor
	EL3              // Secure monitor
)

// String returns the conventional level name.
func (l Level) String() string {
	switch l {
	case EL0:
		return "EL0"
	case EL1:
		return "EL1"
	case EL2:
		return "EL2"
	case EL3:
		return "EL3"
	default:
		return fmt.Sprintf("EL?(%d)", uint8(l))
	}
}

// ExceptionHandler services a pending exception at one level. Handlers
// may mutate the register file (including EL); the controller itself
// never changes the level.
type ExceptionHandler func(regFile *RegFile)

// ExceptionController tracks the current exception level and, while an
// exception is pending, intercepts cycle advancement to run
// level-specific handling. It borrows the register file from the
// owning CPU and runs for the CPU's lifetime.
type ExceptionController struct {
	regFile  *RegFile
	handlers map[Level]ExceptionHandler
	logger   io.Writer
	pending  bool
}

// NewExceptionController creates a controller with logging default
// handlers for every level.
func NewExceptionController(regFile *RegFile, logger io.Writer) *ExceptionController {
	c := &ExceptionController{
		regFile:  regFile,
		handlers: make(map[Level]ExceptionHandler),
		logger:   logger,
	}

	for _, level := range []Level{EL0, EL1, EL2, EL3} {
		c.handlers[level] = c.defaultHandler(level)
	}

	return c
}

func (c *ExceptionController) defaultHandler(level Level) ExceptionHandler {
	return func(_ *RegFile) {
		fmt.Fprintf(c.logger, "armlet: handling exception at %v\n", level)
	}
}

// SetHandler replaces the handler for one level.
func (c *ExceptionController) SetHandler(level Level, handler ExceptionHandler) {
	c.handlers[level] = handler
}

// Raise marks an exception as pending. The flag stays set until Clear
// is called, so every intervening cycle is intercepted.
func (c *ExceptionController) Raise() {
	c.pending = true
}

// Clear releases a pending exception.
func (c *ExceptionController) Clear() {
	c.pending = false
}

// Pending reports whether an exception is awaiting service.
func (c *ExceptionController) Pending() bool {
	return c.pending
}

// Service runs the handler registered for the current exception level.
func (c *ExceptionController) Service() {
	if handler, ok := c.handlers[c.regFile.EL]; ok {
		handler(c.regFile)
		return
	}
	fmt.Fprintf(c.logger, "armlet: no handler for %v\n", c.regFile.EL)
}
