package emu

// Pipeline is the FIFO of fetched-but-not-yet-retired instruction
// mnemonics. It is owned by one CPU instance; barrier opcodes are its
// only consumers. An empty queue is valid and barriers on it are
// no-ops.
type Pipeline struct {
	entries []string
}

// NewPipeline creates an empty pipeline queue.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Push appends a fetched mnemonic to the queue.
func (p *Pipeline) Push(mnemonic string) {
	p.entries = append(p.entries, mnemonic)
}

// Len returns the number of pending entries.
func (p *Pipeline) Len() int {
	return len(p.entries)
}

// Pending returns a copy of the pending entries in FIFO order.
func (p *Pipeline) Pending() []string {
	pending := make([]string, len(p.entries))
	copy(pending, p.entries)
	return pending
}

// Drain processes and removes every pending entry in FIFO order,
// modeling completion of prior memory operations (DMB/DSB).
func (p *Pipeline) Drain(process func(mnemonic string)) {
	for _, entry := range p.entries {
		process(entry)
	}
	p.entries = p.entries[:0]
}

// Invalidate clears all pending entries without processing any,
// modeling pipeline invalidation and refetch (ISB).
func (p *Pipeline) Invalidate() {
	p.entries = p.entries[:0]
}
