// Package program loads assembly listing files for the simulated core.
//
// A listing holds one mnemonic per line, plus a little assembler-style
// sugar handled here so the decoder only ever sees the fixed mnemonic
// grammar:
//
//	; comments and // comments
//	loop:              labels, mapped to listing indexes
//	.equ NAME VALUE    equates, substituted into operand text
//	MOV X0, $(N * 8)   compile-time constant expressions
//
// Expressions are evaluated with Starlark against the integer-valued
// equates and folded into immediates.
package program

import (
	"bufio"
	"errors"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/sarchlab/armlet/translate"
)

var f = translate.From

var (
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrExprUnclosed    = errors.New(f("$( without )"))
)

// SyntaxError reports a malformed listing line.
type SyntaxError struct {
	LineNo int
	Line   string
	Err    error
}

func (e *SyntaxError) Error() string {
	return f("line %d '%v' %v", e.LineNo, e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// ErrExpression reports a $(...) expression that did not evaluate to
// an integer.
type ErrExpression string

func (e ErrExpression) Error() string {
	return f("$(%v) is not a valid expression", string(e))
}

// Line is one executable mnemonic with its source line number.
type Line struct {
	Text   string
	LineNo int
}

// Program is a parsed listing ready to feed the CPU line by line.
type Program struct {
	// Lines holds the executable mnemonics in listing order.
	Lines []Line

	// Labels maps label names to the index of the following line.
	Labels map[string]int

	// Equates maps .equ names to their raw replacement text.
	Equates map[string]string
}

// Load parses a listing file.
func Load(path string) (*Program, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	return Parse(file)
}

// Parse parses a listing from a reader.
func Parse(r io.Reader) (*Program, error) {
	prog := &Program{
		Labels:  map[string]int{},
		Equates: map[string]string{},
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()

		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}

		if name, ok := strings.CutSuffix(line, ":"); ok && isIdent(name) {
			if _, dup := prog.Labels[name]; dup {
				return nil, &SyntaxError{LineNo: lineNo, Line: raw, Err: ErrLabelDuplicate}
			}
			prog.Labels[name] = len(prog.Lines)
			continue
		}

		if strings.HasPrefix(line, ".equ") {
			if err := prog.parseEquate(line); err != nil {
				return nil, &SyntaxError{LineNo: lineNo, Line: raw, Err: err}
			}
			continue
		}

		expanded, err := prog.expand(line)
		if err != nil {
			return nil, &SyntaxError{LineNo: lineNo, Line: raw, Err: err}
		}
		prog.Lines = append(prog.Lines, Line{Text: expanded, LineNo: lineNo})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return prog, nil
}

func (prog *Program) parseEquate(line string) error {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return ErrEquateSyntax
	}
	name := fields[1]
	if !isIdent(name) {
		return ErrEquateSyntax
	}
	if _, dup := prog.Equates[name]; dup {
		return ErrEquateDuplicate
	}
	prog.Equates[name] = fields[2]
	return nil
}

// expand folds $(...) expressions and substitutes equate names.
func (prog *Program) expand(line string) (string, error) {
	for {
		start := strings.Index(line, "$(")
		if start < 0 {
			break
		}
		end := matchParen(line, start+1)
		if end < 0 {
			return "", ErrExprUnclosed
		}
		expr := line[start+2 : end]
		value, err := prog.evalExpr(expr)
		if err != nil {
			return "", err
		}
		line = line[:start] + "#" + strconv.FormatInt(value, 10) + line[end+1:]
	}

	for name, value := range prog.Equates {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		line = re.ReplaceAllString(line, value)
	}

	return line, nil
}

// evalExpr does compile-time $(...) evaluations against the
// integer-valued equates.
func (prog *Program) evalExpr(expr string) (int64, error) {
	thread := &starlark.Thread{Name: "program"}
	opts := &syntax.FileOptions{}

	pred := starlark.StringDict{}
	for name, text := range prog.Equates {
		value, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			// Non-integer equates may be registers or other
			// raw text; they are not visible to expressions.
			continue
		}
		pred[name] = starlark.MakeInt64(value)
	}

	source := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(opts, thread, "expr", source, pred)
	if err != nil {
		return 0, ErrExpression(expr)
	}
	rc, ok := dict["rc"]
	if !ok {
		return 0, ErrExpression(expr)
	}
	rcInt, ok := rc.(starlark.Int)
	if !ok {
		return 0, ErrExpression(expr)
	}
	value, ok := rcInt.Int64()
	if !ok {
		return 0, ErrExpression(expr)
	}
	return value, nil
}

// matchParen returns the index of the ) closing the ( at open, or -1.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func stripComment(line string) string {
	if i := strings.Index(line, ";"); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return line
}

func isIdent(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}
