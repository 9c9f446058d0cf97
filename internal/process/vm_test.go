package process

import (
	"testing"

	"github.com/optimuspime123/optimus-core/internal/isa"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

// prog builds a tiny isa.Program directly from instructions, bypassing
// the compiler, so this package's tests exercise the VM in isolation.
func prog(instrs ...isa.Instruction) isa.Program {
	return isa.Program{Instructions: instrs}
}

func runAll(t *testing.T, p *Process) {
	t.Helper()
	for i := 0; i < 1000 && p.State() == Running; i++ {
		p.Step(1000)
	}
}

func TestArithmeticPopsRHSFirst(t *testing.T) {
	// 10 - 3 should be 7, not -7: SUB must pop RHS then LHS.
	p := New(1, prog(
		isa.NewInstructionArg(isa.Lit, 10),
		isa.NewInstructionArg(isa.Lit, 3),
		isa.NewInstruction(isa.Sub),
		isa.NewInstructionArg(isa.Store, 0),
		isa.NewInstruction(isa.Halt),
	), func(string) {})
	runAll(t, p)
	assert(t, p.State() == Terminated, "expected Terminated")
	got := loadFloat32(p.mem[:], framePtr+0)
	assert(t, got == 7, "expected 10-3 == 7, got %v", got)
}

func TestDivisionByZeroFaults(t *testing.T) {
	var out string
	p := New(1, prog(
		isa.NewInstructionArg(isa.Lit, 1),
		isa.NewInstructionArg(isa.Lit, 0),
		isa.NewInstruction(isa.Div),
		isa.NewInstruction(isa.Halt),
	), func(s string) { out += s })

	runAll(t, p)
	assert(t, p.State() == Terminated, "expected Terminated")
	assert(t, p.Fault() == ErrDivisionByZero, "expected ErrDivisionByZero, got %v", p.Fault())
	assert(t, len(out) > 0, "expected fault diagnostic written to stdout")
}

func TestOutOfRangeMemoryAccessSegfaults(t *testing.T) {
	p := New(1, prog(
		isa.NewInstructionArg(isa.Lit, 1e9), // far out of range
		isa.NewInstruction(isa.LInd),
		isa.NewInstruction(isa.Halt),
	), func(string) {})

	runAll(t, p)
	assert(t, p.State() == Terminated, "expected Terminated")
	assert(t, p.Fault() == ErrSegmentationFault, "expected ErrSegmentationFault, got %v", p.Fault())
}

func TestStepReturnsFalseExactlyOnSuspendOrTerminate(t *testing.T) {
	p := New(1, prog(isa.NewInstruction(isa.Halt)), func(string) {})
	assert(t, !p.Step(10), "expected Step to return false on immediate Halt")
	assert(t, p.State() == Terminated, "expected Terminated")

	s := New(2, isa.Program{
		Instructions: []isa.Instruction{
			isa.NewInstructionArg(isa.Lit, framePtr), // address argument
			isa.NewInstructionArg(isa.Lit, 0),        // format string address
			isa.NewInstructionArg(isa.Scanf, 1),
			isa.NewInstruction(isa.Halt),
		},
		Data: []byte("%d\x00"),
	}, func(string) {})
	assert(t, !s.Step(10), "expected Step to return false on suspending in SCANF")
	assert(t, s.State() == WaitingInput, "expected WaitingInput")
}

func TestUnknownOpcodeIsANoOp(t *testing.T) {
	p := New(1, prog(
		isa.NewInstruction(isa.Bytecode(250)), // not in the closed set
		isa.NewInstruction(isa.Halt),
	), func(string) {})
	runAll(t, p)
	assert(t, p.State() == Terminated, "expected the unknown opcode to be skipped and Halt to still run")
}

func TestKillForcesTerminated(t *testing.T) {
	p := New(1, prog(
		isa.NewInstructionArg(isa.Jmp, 0), // infinite loop
	), func(string) {})
	p.Kill()
	assert(t, p.State() == Terminated, "expected Terminated after Kill")
	assert(t, !p.Step(10), "expected a killed process to refuse to step")
}
