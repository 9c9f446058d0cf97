package compiler

import (
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/optimuspime123/optimus-core/internal/isa"
	"github.com/optimuspime123/optimus-core/internal/process"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

// compileAndCheck compiles source and fails the test (with the compile
// error) if it doesn't compile cleanly - the same shape as the teacher's
// compileAndCheckSource (vm/vm_test.go).
func compileAndCheck(t *testing.T, source string) isa.Program {
	t.Helper()
	prog, err := Compile(source)
	assert(t, err == nil, "failed to compile: %v", err)
	return prog
}

// runToCompletion runs a compiled program to Terminated (or fails after
// too many chunks, as a stuck-program guard) and returns everything
// written to its stdout sink.
func runToCompletion(t *testing.T, prog isa.Program) string {
	t.Helper()
	var out string
	proc := process.New(1, prog, func(s string) { out += s })

	for i := 0; i < 1000; i++ {
		if !proc.Step(1000) {
			if proc.State() == process.WaitingInput {
				t.Fatalf("program suspended on SCANF with no input queued")
			}
			return out
		}
	}
	t.Fatalf("program did not terminate within step budget")
	return out
}

// checkOutput compares got against want, rendering a readable diff on
// mismatch the way google-kati/run_test.go's check() does with
// diffmatchpatch, instead of a bare string inequality failure.
func checkOutput(t *testing.T, got, want string) {
	t.Helper()
	if got == want {
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, true)
	diffs = dmp.DiffCleanupSemantic(diffs)
	t.Errorf("output mismatch (red = missing, green = extra):\n%s", dmp.DiffPrettyText(diffs))
}
