// Package isa defines the closed instruction set shared by the compiler
// and the process VM: the tagged opcode set and the flat instruction
// record produced by compilation and consumed by execution.
package isa

// Bytecode is a single opcode in the closed instruction set. The set is
// closed at compile time - the VM treats any opcode it doesn't recognize
// as a no-op by design (see spec §7).
type Bytecode byte

const (
	Nop Bytecode = iota

	// Control
	Halt
	Jmp
	Jz

	// Stack
	Lit
	Pop
	Dup

	// Arithmetic
	Add
	Sub
	Mul
	Div
	Mod

	// Comparison
	Eq
	Neq
	Lt
	Gt
	Le
	Ge

	// Locals, 32-bit
	Load
	Store

	// Locals, 64-bit
	Load64
	Store64

	// Addressing
	PPush

	// Indirect, 32-bit
	LInd
	SInd

	// Indirect, 64-bit
	LInd64
	SInd64

	// Heap
	Malloc
	Free

	// Math
	Sin
	Cos
	Tan
	Sqrt
	Pow
	Abs

	// I/O
	Print
	Scanf
)

var opcodeNames = map[Bytecode]string{
	Nop:     "NOP",
	Halt:    "HALT",
	Jmp:     "JMP",
	Jz:      "JZ",
	Lit:     "LIT",
	Pop:     "POP",
	Dup:     "DUP",
	Add:     "ADD",
	Sub:     "SUB",
	Mul:     "MUL",
	Div:     "DIV",
	Mod:     "MOD",
	Eq:      "EQ",
	Neq:     "NEQ",
	Lt:      "LT",
	Gt:      "GT",
	Le:      "LE",
	Ge:      "GE",
	Load:    "LOAD",
	Store:   "STORE",
	Load64:  "LOAD64",
	Store64: "STORE64",
	PPush:   "P_PUSH",
	LInd:    "L_IND",
	SInd:    "S_IND",
	LInd64:  "L_IND64",
	SInd64:  "S_IND64",
	Malloc:  "MALLOC",
	Free:    "FREE",
	Sin:     "SIN",
	Cos:     "COS",
	Tan:     "TAN",
	Sqrt:    "SQRT",
	Pow:     "POW",
	Abs:     "ABS",
	Print:   "PRINT",
	Scanf:   "SCANF",
}

var nameToOpcode map[string]Bytecode

// String renders the opcode the way disassembly/debug output wants it -
// mirrors the teacher's Bytecode.String() built from a reversed map.
func (b Bytecode) String() string {
	if s, ok := opcodeNames[b]; ok {
		return s
	}
	return "?unknown?"
}

// HasArg reports whether this opcode carries a numeric argument (address,
// offset, literal, or arg count).
func (b Bytecode) HasArg() bool {
	switch b {
	case Jmp, Jz, Lit, Load, Store, Load64, Store64, PPush, Print, Scanf:
		return true
	default:
		return false
	}
}

func init() {
	nameToOpcode = make(map[string]Bytecode, len(opcodeNames))
	for code, name := range opcodeNames {
		nameToOpcode[name] = code
	}
}

// Lookup resolves an opcode by its canonical mnemonic, for disassembler
// round-tripping and tests.
func Lookup(name string) (Bytecode, bool) {
	b, ok := nameToOpcode[name]
	return b, ok
}
