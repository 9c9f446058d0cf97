package process

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// printSpec matches one printf conversion, identical in shape to the
// compiler's conversion-counting pattern (internal/compiler/codegen.go)
// so the same format string is interpreted consistently at compile time
// (arg count) and run time (substitution), per spec.md §4.5.
var printSpec = regexp.MustCompile(`%[-+ #0-9.]*l?[dfcsxX]`)

// scanSpec matches the narrower set spec.md §4.5 describes resolve_input
// accepting: %d, %f, %lf, %c, %s.
var scanSpec = regexp.MustCompile(`%l?[dfcs]`)

// execPrint implements PRINT n per spec.md §4.5: pop the format address,
// pop n value arguments (reversing them back to declaration order, since
// the compiler pushed them left to right and the stack popped them in
// reverse), then interpret the format string.
func (p *Process) execPrint(n int) {
	formatAddr := int(p.pop())
	args := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = p.pop()
	}
	format := p.readCString(formatAddr)

	idx := 0
	out := printSpec.ReplaceAllStringFunc(format, func(spec string) string {
		if idx >= len(args) {
			return spec
		}
		v := args[idx]
		idx++
		return p.formatValue(spec, v)
	})
	p.stdout(out)
}

func (p *Process) formatValue(spec string, v float64) string {
	verb := spec[len(spec)-1]
	switch verb {
	case 'd':
		// floor, not C's truncation toward zero: -2.5 prints as -3.
		return strconv.Itoa(int(math.Floor(v)))
	case 'f':
		prec := 6
		if dot := strings.IndexByte(spec, '.'); dot >= 0 {
			digits := spec[dot+1 : len(spec)-1]
			digits = strings.TrimSuffix(digits, "l")
			if n, err := strconv.Atoi(digits); err == nil {
				prec = n
			}
		}
		return strconv.FormatFloat(v, 'f', prec, 64)
	case 'x', 'X':
		return strconv.FormatInt(int64(math.Floor(v)), 16)
	case 'c':
		return string(rune(int(math.Floor(v))))
	case 's':
		return p.readCString(int(v))
	default:
		return spec
	}
}

// execScanf implements SCANF n per spec.md §4.5: pop the format address,
// pop n address arguments (reversed to declaration order), suspend the
// process in WaitingInput with the scan context captured for
// ResolveInput.
func (p *Process) execScanf(n int) {
	formatAddr := int(p.pop())
	addrs := make([]int, n)
	for i := n - 1; i >= 0; i-- {
		addrs[i] = int(p.pop())
	}
	format := p.readCString(formatAddr)

	p.state = WaitingInput
	p.scan = &scanContext{format: format, addresses: addrs}
}

// ResolveInput implements resolve_input(line) per spec.md §4.5: the line
// is split on whitespace, and each conversion in the captured format
// consumes one token and writes it to the corresponding address. When the
// scan exits, state returns to Running and stepping resumes. A no-op if
// the process is not currently WaitingInput.
func (p *Process) ResolveInput(line string) {
	if p.state != WaitingInput {
		return
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

	scan := p.scan
	tokens := strings.Fields(line)
	specs := scanSpec.FindAllString(scan.format, -1)

	for i, spec := range specs {
		if i >= len(scan.addresses) || i >= len(tokens) {
			break
		}
		addr := scan.addresses[i]
		tok := tokens[i]

		switch spec {
		case "%d", "%f":
			v, _ := strconv.ParseFloat(tok, 64)
			p.checkAddr(addr, 4)
			storeFloat32(p.mem[:], addr, float32(v))
		case "%lf":
			v, _ := strconv.ParseFloat(tok, 64)
			p.checkAddr(addr, 8)
			storeFloat64(p.mem[:], addr, v)
		case "%c":
			var ch byte
			if len(tok) > 0 {
				ch = tok[0]
			}
			p.checkAddr(addr, 4)
			storeFloat32(p.mem[:], addr, float32(ch))
		case "%s":
			p.checkAddr(addr, len(tok)+1)
			copy(p.mem[addr:], tok)
			p.mem[addr+len(tok)] = 0
		}
	}

	p.scan = nil
	p.state = Running
}
