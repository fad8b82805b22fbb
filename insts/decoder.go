package insts

import (
	"errors"
	"strconv"
	"strings"
)

type opInfo struct {
	op       Op
	category Category
}

// opTable maps upper-cased mnemonics to opcode and category. Lookup is
// case-insensitive; decoding upper-cases the opcode token first.
var opTable = map[string]opInfo{
	"MOV":   {OpMOV, CategoryALU},
	"ADD":   {OpADD, CategoryALU},
	"SUB":   {OpSUB, CategoryALU},
	"MUL":   {OpMUL, CategoryALU},
	"AND":   {OpAND, CategoryALU},
	"ORR":   {OpORR, CategoryALU},
	"EOR":   {OpEOR, CategoryALU},
	"LDR":   {OpLDR, CategoryMemory},
	"STR":   {OpSTR, CategoryMemory},
	"LDUR":  {OpLDUR, CategoryMemory},
	"STUR":  {OpSTUR, CategoryMemory},
	"LDADD": {OpLDADD, CategoryAtomic},
	"LDCLR": {OpLDCLR, CategoryAtomic},
	"LDSET": {OpLDSET, CategoryAtomic},
	"FADD":  {OpFADD, CategoryFloat},
	"FCMPE": {OpFCMPE, CategoryFloat},
	"B":     {OpB, CategoryBranch},
	"BL":    {OpBL, CategoryBranch},
	"CBZ":   {OpCBZ, CategoryBranch},
	"ISB":   {OpISB, CategoryBarrier},
	"DSB":   {OpDSB, CategoryBarrier},
	"DMB":   {OpDMB, CategoryBarrier},
	"SVE":   {OpSVE, CategoryFeature},
}

// Decoder decodes mnemonic text lines into instructions.
type Decoder struct{}

// NewDecoder creates a new mnemonic decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes one line of mnemonic text. It is pure: no state is
// read or written beyond the returned instruction.
//
// Failures are either a *DecodeError (unrecognized opcode, malformed
// operand, wrong operand count) or an *InvalidRegisterError (register
// name outside X0..X31).
func (d *Decoder) Decode(line string) (*Instruction, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, &DecodeError{Line: line, Reason: f("empty instruction")}
	}

	opText := trimmed
	rest := ""
	if i := strings.IndexAny(trimmed, " \t"); i >= 0 {
		opText = trimmed[:i]
		rest = strings.TrimSpace(trimmed[i+1:])
	}

	info, ok := opTable[strings.ToUpper(opText)]
	if !ok {
		return nil, &DecodeError{Line: trimmed, Reason: f("unrecognized opcode %q", opText)}
	}

	operands, err := parseOperands(info.op, splitOperands(rest))
	if err != nil {
		var invalid *InvalidRegisterError
		if errors.As(err, &invalid) {
			return nil, err
		}
		return nil, &DecodeError{Line: trimmed, Reason: err.Error()}
	}

	return &Instruction{
		Op:       info.op,
		Category: info.category,
		Operands: operands,
		Text:     trimmed,
	}, nil
}

// splitOperands splits operand text on commas and whitespace, keeping
// bracketed memory references intact as single tokens.
func splitOperands(s string) []string {
	var tokens []string
	depth := 0
	start := -1

	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, s[start:end])
			start = -1
		}
	}

	for i, r := range s {
		switch {
		case r == '[':
			depth++
			if start < 0 {
				start = i
			}
		case r == ']':
			depth--
		case depth == 0 && (r == ',' || r == ' ' || r == '\t'):
			flush(i)
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(s))

	return tokens
}

// parseOperands validates operand count and shape for the opcode and
// parses each token into its variant.
func parseOperands(op Op, tokens []string) ([]Operand, error) {
	switch op {
	case OpMOV:
		return destAndSources(tokens, 1)
	case OpADD, OpSUB, OpMUL, OpAND, OpORR, OpEOR:
		return destAndSources(tokens, 2)
	case OpLDR, OpLDUR, OpSTR, OpSTUR, OpLDADD:
		return registerAndMemory(tokens)
	case OpLDCLR, OpLDSET:
		// The written value is fixed, so the source register is
		// optional and ignored when present.
		if len(tokens) == 2 {
			return registerAndMemory(tokens)
		}
		if len(tokens) != 1 {
			return nil, errors.New(f("expected a memory operand, got %d operands", len(tokens)))
		}
		mem, err := parseMemory(tokens[0])
		if err != nil {
			return nil, err
		}
		return []Operand{mem}, nil
	case OpFADD:
		return registers(tokens, 3)
	case OpFCMPE:
		return registers(tokens, 2)
	case OpB, OpBL:
		if len(tokens) != 1 {
			return nil, errors.New(f("expected 1 operand, got %d", len(tokens)))
		}
		target, err := parseTarget(tokens[0])
		if err != nil {
			return nil, err
		}
		return []Operand{target}, nil
	case OpCBZ:
		if len(tokens) != 2 {
			return nil, errors.New(f("expected 2 operands, got %d", len(tokens)))
		}
		reg, err := parseRegister(tokens[0])
		if err != nil {
			return nil, err
		}
		target, err := parseTarget(tokens[1])
		if err != nil {
			return nil, err
		}
		return []Operand{reg, target}, nil
	case OpISB, OpDSB, OpDMB, OpSVE:
		if len(tokens) != 0 {
			return nil, errors.New(f("expected no operands, got %d", len(tokens)))
		}
		return nil, nil
	}

	return nil, errors.New(f("unhandled opcode %v", op))
}

// destAndSources parses a destination register followed by n source
// operands, each either a register or an immediate.
func destAndSources(tokens []string, n int) ([]Operand, error) {
	if len(tokens) != n+1 {
		return nil, errors.New(f("expected %d operands, got %d", n+1, len(tokens)))
	}

	operands := make([]Operand, 0, n+1)
	dest, err := parseRegister(tokens[0])
	if err != nil {
		return nil, err
	}
	operands = append(operands, dest)

	for _, tok := range tokens[1:] {
		src, err := parseSource(tok)
		if err != nil {
			return nil, err
		}
		operands = append(operands, src)
	}

	return operands, nil
}

// registerAndMemory parses the "Xt, [Xn, #offset]" shape shared by the
// load, store, and atomic opcodes.
func registerAndMemory(tokens []string) ([]Operand, error) {
	if len(tokens) != 2 {
		return nil, errors.New(f("expected a register and a memory operand, got %d operands", len(tokens)))
	}

	reg, err := parseRegister(tokens[0])
	if err != nil {
		return nil, err
	}
	mem, err := parseMemory(tokens[1])
	if err != nil {
		return nil, err
	}

	return []Operand{reg, mem}, nil
}

// registers parses exactly n register operands.
func registers(tokens []string, n int) ([]Operand, error) {
	if len(tokens) != n {
		return nil, errors.New(f("expected %d register operands, got %d", n, len(tokens)))
	}

	operands := make([]Operand, 0, n)
	for _, tok := range tokens {
		reg, err := parseRegister(tok)
		if err != nil {
			return nil, err
		}
		operands = append(operands, reg)
	}

	return operands, nil
}

// isRegisterToken reports whether the token has the shape of a general
// register name. Range checking happens in parseRegister.
func isRegisterToken(tok string) bool {
	if len(tok) < 2 || (tok[0] != 'X' && tok[0] != 'x') {
		return false
	}
	for _, r := range tok[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseRegister resolves a canonical register name to its index.
func parseRegister(tok string) (Operand, error) {
	if !isRegisterToken(tok) {
		return Operand{}, &InvalidRegisterError{Name: tok}
	}
	n, err := strconv.ParseUint(tok[1:], 10, 8)
	if err != nil || n > 31 {
		return Operand{}, &InvalidRegisterError{Name: tok}
	}
	return Operand{Kind: OperandRegister, Reg: uint8(n)}, nil
}

// parseSource parses a register-or-immediate source operand.
func parseSource(tok string) (Operand, error) {
	if isRegisterToken(tok) {
		return parseRegister(tok)
	}
	return parseImmediate(tok)
}

// parseImmediate parses a numeric literal, optionally #-prefixed.
// Base 10 and 0x-prefixed base 16 are accepted.
func parseImmediate(tok string) (Operand, error) {
	v, err := strconv.ParseInt(strings.TrimPrefix(tok, "#"), 0, 64)
	if err != nil {
		return Operand{}, errors.New(f("%q is not a register or immediate", tok))
	}
	return Operand{Kind: OperandImmediate, Imm: v}, nil
}

// parseMemory parses a bracketed memory reference "[Xn, #offset]".
// The offset may be omitted, in which case it is zero.
func parseMemory(tok string) (Operand, error) {
	if !strings.HasPrefix(tok, "[") || !strings.HasSuffix(tok, "]") {
		return Operand{}, errors.New(f("%q is not a memory operand", tok))
	}

	inner := tok[1 : len(tok)-1]
	parts := strings.Split(inner, ",")
	if len(parts) > 2 {
		return Operand{}, errors.New(f("%q has too many fields for a memory operand", tok))
	}

	base, err := parseRegister(strings.TrimSpace(parts[0]))
	if err != nil {
		return Operand{}, err
	}

	var offset int64
	if len(parts) == 2 {
		imm, err := parseImmediate(strings.TrimSpace(parts[1]))
		if err != nil {
			return Operand{}, err
		}
		offset = imm.Imm
	}

	return Operand{Kind: OperandMemory, Base: base.Reg, Offset: offset}, nil
}

// parseTarget parses a branch target, a hex literal with or without
// the 0x prefix.
func parseTarget(tok string) (Operand, error) {
	s := tok
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return Operand{}, errors.New(f("%q is not a hex branch target", tok))
	}
	return Operand{Kind: OperandTarget, Target: v}, nil
}
