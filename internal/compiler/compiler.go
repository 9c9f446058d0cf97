// Package compiler implements the single-pass C-subset compiler:
// preprocessor -> lexer -> macro expander -> recursive-descent parser
// emitting bytecode directly, with no intermediate AST. Grounded on the
// teacher's vm/compile.go line-oriented assembler, generalized from
// assembling one instruction per source line to compiling full C-subset
// statement and expression grammars.
package compiler

import (
	"github.com/golang/glog"

	"github.com/optimuspime123/optimus-core/internal/isa"
)

// state holds one compiler's mutable working set. A fresh state is
// allocated per Compile call rather than reused and reset, per spec.md
// §9's "allocate a fresh instance per compile call" guidance.
type state struct {
	toks []Token
	pos  int

	instrs []isa.Instruction
	data   []byte
	interned map[string]float64

	sym  *symtab
	ctrl *controlStack

	warnings []string
	haveMain bool
}

func newState() *state {
	return &state{
		sym:      newSymtab(),
		ctrl:     &controlStack{},
		interned: make(map[string]float64),
	}
}

// Compile runs the full pipeline over source text and returns the
// resulting bytecode program, per spec.md §6:
// compile(source) -> {bytecode, data, warnings}.
func Compile(source string) (prog isa.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*compileError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()

	lines := splitLines(source)

	preprocessed, defines, perr := preprocess(lines)
	if perr != nil {
		return isa.Program{}, perr
	}

	text := joinLines(preprocessed)

	toks, lerr := Tokenize(text, 1)
	if lerr != nil {
		return isa.Program{}, lerr
	}

	toks, merr := expandMacros(toks, defines)
	if merr != nil {
		return isa.Program{}, merr
	}

	c := newState()
	c.toks = toks

	c.parseProgram()

	return isa.Program{
		Instructions: c.instrs,
		Data:         c.data,
		Warnings:     c.warnings,
	}, nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func joinLines(lines []string) string {
	out := make([]byte, 0, len(lines)*16)
	for i, l := range lines {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, l...)
	}
	return string(out)
}

// --- emission helpers ---

func (c *state) emit(op isa.Bytecode) int {
	idx := len(c.instrs)
	c.instrs = append(c.instrs, isa.NewInstruction(op))
	return idx
}

func (c *state) emitArg(op isa.Bytecode, arg float64) int {
	idx := len(c.instrs)
	c.instrs = append(c.instrs, isa.NewInstructionArg(op, arg))
	return idx
}

func (c *state) here() float64 {
	return float64(len(c.instrs))
}

// patch backfills a forward jump's target once it is known, the same
// remember-the-index-then-backpatch technique the teacher uses for its
// assembly labels (vm/compile.go).
func (c *state) patch(idx int, target float64) {
	c.instrs[idx].Arg = target
}

// internString stores a NUL-terminated string in the data segment and
// returns its starting byte address, deduping identical literals the way
// string interning implies.
func (c *state) internString(s string) float64 {
	if addr, ok := c.interned[s]; ok {
		return addr
	}
	addr := float64(len(c.data))
	c.data = append(c.data, s...)
	c.data = append(c.data, 0)
	c.interned[s] = addr
	return addr
}

func (c *state) warnf(line int, format string, args ...any) {
	msg := sprintWarning(line, format, args...)
	c.warnings = append(c.warnings, msg)
	glog.Warningf("%s", msg)
}
