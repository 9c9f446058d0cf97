package isa

import "fmt"

// Instruction is a pair (opcode, optional argument) - the compiler's
// emission unit and the VM's execution unit. Arg is a float64 rather than
// an integer type: the spec's evaluation stack and literal constants are
// conceptually doubles uniformly (a jump target or frame offset is just a
// double that happens to hold a whole number), so the instruction record
// uses the same representation instead of a second narrower type.
// Laid out as two fixed-width fields rather than an interface{} payload
// so a Program's instruction slice is a flat, cache-friendly array,
// following the teacher's fixed-size Instruction record (vm/compile.go).
type Instruction struct {
	Op  Bytecode
	Arg float64
}

// NewInstruction builds an instruction with no argument.
func NewInstruction(op Bytecode) Instruction {
	return Instruction{Op: op}
}

// NewInstructionArg builds an instruction carrying a numeric argument.
func NewInstructionArg(op Bytecode, arg float64) Instruction {
	return Instruction{Op: op, Arg: arg}
}

// String renders an instruction for disassembly/debug output, mirroring
// the teacher's Instruction.String().
func (i Instruction) String() string {
	if i.Op.HasArg() {
		return fmt.Sprintf("%s %g", i.Op, i.Arg)
	}
	return i.Op.String()
}

// Program is the compiler's output artifact: the flat instruction
// stream, the byte-addressed static data segment, and any accumulated
// (non-fatal) warnings. Corresponds to spec.md's
// compile(source) -> {bytecode, data, warnings}.
type Program struct {
	Instructions []Instruction
	Data         []byte
	Warnings     []string
}
