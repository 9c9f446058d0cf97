// Package process implements the C-subset's runtime: a single process's
// flat memory, evaluation stack, and cooperative instruction stepper.
// Grounded on the teacher's vm/vm.go (memory access helpers, fault
// sentinels) and vm/run.go (recover-wrapped execution, debug.SetGCPercent
// disabled during a hot step loop), generalized from GVM's register
// machine to this spec's stack machine operating on a uniform float64
// evaluation stack.
package process

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/optimuspime123/optimus-core/internal/isa"
)

// State is the process state machine of spec.md §3: Running -> {Running,
// WaitingInput, Terminated}; WaitingInput -> {Running, Terminated};
// Terminated is absorbing.
type State int

const (
	Running State = iota
	WaitingInput
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case WaitingInput:
		return "WaitingInput"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Runtime fault sentinels, mirroring the teacher's errSegmentationFault /
// errIllegalOperation package-level error values (vm/vm.go), generalized
// to this ISA's fault taxonomy (spec.md §7).
var (
	ErrSegmentationFault = errors.New("segmentation fault")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrStackUnderflow    = errors.New("stack underflow")
)

// scanContext is captured while a process is suspended in WaitingInput,
// per spec.md §3/§4.5.
type scanContext struct {
	format    string
	addresses []int
}

// Process is one running instance of a compiled program: its own flat
// memory image, evaluation stack, and program counter. Grounded on the
// teacher's VM struct (vm/vm.go) but holding a float64 evaluation stack
// instead of a byte stack, per SPEC_FULL.md's Data Model section.
type Process struct {
	PID int

	instrs []isa.Instruction
	mem    [memSize]byte
	stack  []float64

	pc      int
	heapPtr int

	state State
	fault error
	scan  *scanContext

	stdout func(string)
}

// New builds a fresh process from a compiled program. The data segment is
// copied into the low end of memory; the heap bump pointer starts 1024
// bytes past its end, rounded up to a 4-byte boundary, per spec.md §3.
func New(pid int, prog isa.Program, stdout func(string)) *Process {
	p := &Process{
		PID:     pid,
		instrs:  prog.Instructions,
		heapPtr: align4(len(prog.Data) + 1024),
		state:   Running,
		stdout:  stdout,
	}
	copy(p.mem[:], prog.Data)
	return p
}

// State reports the process's current state machine value.
func (p *Process) State() State { return p.state }

// Kill forces the process to Terminated, per spec.md §4.6's kill(pid):
// "marks VM Terminated". Idempotent.
func (p *Process) Kill() {
	p.state = Terminated
}

// Fault reports the runtime fault that terminated the process, if any.
func (p *Process) Fault() error { return p.fault }

// MemoryUsage reports a hint of the process's current memory footprint:
// the heap bump pointer, i.e. the data segment, the 1024-byte gap after
// it, and whatever MALLOC has handed out so far, per spec.md §4.6's
// process entry "memory_usage_hint" field.
func (p *Process) MemoryUsage() int { return p.heapPtr }

func (p *Process) push(v float64) { p.stack = append(p.stack, v) }

func (p *Process) pop() float64 {
	if len(p.stack) == 0 {
		panic(ErrStackUnderflow)
	}
	v := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	return v
}

// checkAddr faults (via panic, caught by Step's recover) if addr..addr+n
// falls outside [0, memSize).
func (p *Process) checkAddr(addr, n int) {
	if addr < 0 || addr+n > memSize {
		panic(ErrSegmentationFault)
	}
}

// terminate writes the fault diagnostic to the stdout sink and marks the
// process Terminated, per spec.md §7's "all faults write a Segmentation
// Fault (Core Dumped): <reason> line to stdout" rule - applied uniformly
// to every fault, not literally only segfaults, matching the teacher's
// single fault-printing path in getDefaultRecoverFuncForVM.
func (p *Process) terminate(err error) {
	p.fault = err
	p.state = Terminated
	p.stdout(fmt.Sprintf("Segmentation Fault (Core Dumped): %s\n", err))
	glog.Warningf("process %d terminated on fault: %v", p.PID, err)
}

// Step executes up to maxCycles instructions and returns whether the
// caller should invoke Step again. It returns false exactly when the
// process becomes Terminated or WaitingInput, mirroring spec.md §4.5's
// step(max_cycles). Any panic raised by an out-of-range memory access or
// stack underflow is recovered here and converted into the fault path,
// the same role the teacher's getDefaultRecoverFuncForVM plays around
// execInstructions.
func (p *Process) Step(maxCycles int) bool {
	if p.state != Running {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				p.terminate(err)
				return
			}
			panic(r)
		}
	}()

	for i := 0; i < maxCycles; i++ {
		if p.pc < 0 || p.pc >= len(p.instrs) {
			p.state = Terminated
			return false
		}

		p.execOne()

		if p.state != Running {
			return false
		}
	}

	return true
}

func (p *Process) execOne() {
	ins := p.instrs[p.pc]
	p.pc++

	switch ins.Op {
	case isa.Nop:
		// no-op by design; also the fallback for any opcode this switch
		// does not recognize (spec.md §7: "closed at compile time").

	case isa.Halt:
		p.state = Terminated

	case isa.Jmp:
		p.pc = int(ins.Arg)

	case isa.Jz:
		if p.pop() == 0 {
			p.pc = int(ins.Arg)
		}

	case isa.Lit:
		p.push(ins.Arg)

	case isa.Pop:
		p.pop()

	case isa.Dup:
		v := p.pop()
		p.push(v)
		p.push(v)

	case isa.Add:
		r, l := p.pop(), p.pop()
		p.push(l + r)
	case isa.Sub:
		r, l := p.pop(), p.pop()
		p.push(l - r)
	case isa.Mul:
		r, l := p.pop(), p.pop()
		p.push(l * r)
	case isa.Div:
		r, l := p.pop(), p.pop()
		if r == 0 {
			panic(ErrDivisionByZero)
		}
		p.push(l / r)
	case isa.Mod:
		r, l := p.pop(), p.pop()
		if r == 0 {
			panic(ErrDivisionByZero)
		}
		p.push(math.Mod(l, r))

	case isa.Eq:
		r, l := p.pop(), p.pop()
		p.push(boolFloat(l == r))
	case isa.Neq:
		r, l := p.pop(), p.pop()
		p.push(boolFloat(l != r))
	case isa.Lt:
		r, l := p.pop(), p.pop()
		p.push(boolFloat(l < r))
	case isa.Gt:
		r, l := p.pop(), p.pop()
		p.push(boolFloat(l > r))
	case isa.Le:
		r, l := p.pop(), p.pop()
		p.push(boolFloat(l <= r))
	case isa.Ge:
		r, l := p.pop(), p.pop()
		p.push(boolFloat(l >= r))

	case isa.Load:
		addr := framePtr + int(ins.Arg)
		p.checkAddr(addr, 4)
		p.push(float64(loadFloat32(p.mem[:], addr)))
	case isa.Store:
		addr := framePtr + int(ins.Arg)
		p.checkAddr(addr, 4)
		storeFloat32(p.mem[:], addr, float32(p.pop()))
	case isa.Load64:
		addr := framePtr + int(ins.Arg)
		p.checkAddr(addr, 8)
		p.push(loadFloat64(p.mem[:], addr))
	case isa.Store64:
		addr := framePtr + int(ins.Arg)
		p.checkAddr(addr, 8)
		storeFloat64(p.mem[:], addr, p.pop())

	case isa.PPush:
		p.push(float64(framePtr + int(ins.Arg)))

	case isa.LInd:
		addr := int(p.pop())
		p.checkAddr(addr, 4)
		p.push(float64(loadFloat32(p.mem[:], addr)))
	case isa.SInd:
		value := p.pop()
		addr := int(p.pop())
		p.checkAddr(addr, 4)
		storeFloat32(p.mem[:], addr, float32(value))
	case isa.LInd64:
		addr := int(p.pop())
		p.checkAddr(addr, 8)
		p.push(loadFloat64(p.mem[:], addr))
	case isa.SInd64:
		value := p.pop()
		addr := int(p.pop())
		p.checkAddr(addr, 8)
		storeFloat64(p.mem[:], addr, value)

	case isa.Malloc:
		size := int(p.pop())
		addr := p.heapPtr
		p.heapPtr += align4(size) // no bounds check against the frame region, by design - see spec.md §9
		p.push(float64(addr))
	case isa.Free:
		p.pop() // reserved, intentionally a no-op - the heap never reclaims

	case isa.Sin:
		p.push(math.Sin(p.pop()))
	case isa.Cos:
		p.push(math.Cos(p.pop()))
	case isa.Tan:
		p.push(math.Tan(p.pop()))
	case isa.Sqrt:
		p.push(math.Sqrt(p.pop()))
	case isa.Abs:
		p.push(math.Abs(p.pop()))
	case isa.Pow:
		exp, base := p.pop(), p.pop()
		p.push(math.Pow(base, exp))

	case isa.Print:
		p.execPrint(int(ins.Arg))
	case isa.Scanf:
		p.execScanf(int(ins.Arg))

	default:
		// Unrecognized opcode: no-op, per spec.md §7.
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// readCString reads a NUL-terminated byte string starting at addr.
func (p *Process) readCString(addr int) string {
	end := addr
	for end < memSize && p.mem[end] != 0 {
		end++
	}
	p.checkAddr(addr, end-addr)
	return string(p.mem[addr:end])
}
