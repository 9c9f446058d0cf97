package compiler

import (
	"testing"

	"github.com/optimuspime123/optimus-core/internal/process"
)

func TestEndToEndScenarios(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "hello world",
			source: `int main(){ printf("Hello, Optimus-OS!\n"); }`,
			want:   "Hello, Optimus-OS!\n",
		},
		{
			name:   "for loop counting",
			source: `int main(){ int i; for(i=1;i<=5;i=i+1) printf("%d ", i); printf("\n"); }`,
			want:   "1 2 3 4 5 \n",
		},
		{
			name:   "macro-bounded loop",
			source: "#define MAX 3\nint main(){ int i; for(i=0;i<MAX;i=i+1) printf(\"%d,\", i); }",
			want:   "0,1,2,",
		},
		{
			name:   "sqrt intrinsic",
			source: `int main(){ int a=9; printf("%f\n", sqrt(a)); }`,
			want:   "3.000000\n",
		},
		{
			name:   "continue and break",
			source: `int main(){ int i; for(i=0;i<5;i=i+1){ if(i==2) continue; if(i==4) break; printf("%d", i);} }`,
			want:   "013",
		},
		{
			name:   "switch fall-through",
			source: `int main(){ int x=2; switch(x){ case 1: printf("a"); break; case 2: printf("b"); case 3: printf("c"); break; default: printf("d"); } }`,
			want:   "bc",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prog := compileAndCheck(t, tc.source)
			got := runToCompletion(t, prog)
			checkOutput(t, got, tc.want)
		})
	}
}

func TestScanfSuspendsAndResumes(t *testing.T) {
	prog := compileAndCheck(t, `int main(){ int d; scanf("%d", &d); if(d<18) printf("minor"); else printf("adult"); }`)

	var out string
	proc := process.New(1, prog, func(s string) { out += s })

	assert(t, !proc.Step(10000), "expected Step to return false once the process suspends on SCANF")
	assert(t, proc.State() == process.WaitingInput, "expected WaitingInput, got %v", proc.State())

	proc.ResolveInput("21")
	assert(t, proc.State() == process.Running, "expected Running after resolve_input, got %v", proc.State())

	for i := 0; i < 100 && proc.State() == process.Running; i++ {
		proc.Step(1000)
	}

	checkOutput(t, out, "adult")
}

func TestEmptySourceTerminatesImmediately(t *testing.T) {
	prog := compileAndCheck(t, "")
	assert(t, len(prog.Instructions) == 0, "expected no instructions for empty source")
	assert(t, len(prog.Data) == 0, "expected no data for empty source")

	proc := process.New(1, prog, func(string) {})
	proc.Step(10)
	assert(t, proc.State() == process.Terminated, "expected immediate Terminated, got %v", proc.State())
}

func TestCompileIsIdempotent(t *testing.T) {
	source := `int main(){ return 0; }`
	p1 := compileAndCheck(t, source)
	p2 := compileAndCheck(t, source)

	assert(t, len(p1.Instructions) == len(p2.Instructions), "instruction count differs between identical compiles")
	for i := range p1.Instructions {
		assert(t, p1.Instructions[i] == p2.Instructions[i], "instruction %d differs between identical compiles", i)
	}
	assert(t, string(p1.Data) == string(p2.Data), "data segment differs between identical compiles")
}

func TestStringLiteralPrintsExactly(t *testing.T) {
	prog := compileAndCheck(t, `int main(){ printf("%s", "abc"); }`)
	checkOutput(t, runToCompletion(t, prog), "abc")
}

func TestNegativeCaseConstant(t *testing.T) {
	prog := compileAndCheck(t, `int main(){ int x=0; x=x-1; switch(x){ case -1: printf("neg"); break; default: printf("other"); } }`)
	checkOutput(t, runToCompletion(t, prog), "neg")
}

func TestScanfFewerTokensLeavesRestUntouched(t *testing.T) {
	prog := compileAndCheck(t, `int main(){ int a=7; int b=8; scanf("%d %d", &a, &b); printf("%d %d", a, b); }`)

	var out string
	proc := process.New(1, prog, func(s string) { out += s })
	proc.Step(10000)
	assert(t, proc.State() == process.WaitingInput, "expected WaitingInput")

	proc.ResolveInput("3")
	for i := 0; i < 100 && proc.State() == process.Running; i++ {
		proc.Step(1000)
	}

	checkOutput(t, out, "3 8")
}

func TestDivisionByZeroFaults(t *testing.T) {
	prog := compileAndCheck(t, `int main(){ int z=0; printf("%d", 1/z); }`)
	out := runToCompletion(t, prog)
	assert(t, len(out) > 0, "expected a fault diagnostic on stdout")
}

func TestBreakOutsideLoopIsACompileError(t *testing.T) {
	_, err := Compile(`int main(){ break; }`)
	assert(t, err != nil, "expected a compile error for break outside a loop")
}

func TestSecondFunctionDefinitionIsRejected(t *testing.T) {
	_, err := Compile(`int main(){ } int other(){ }`)
	assert(t, err != nil, "expected a compile error for a second function definition")
}

func TestUnterminatedIfdefIsRejected(t *testing.T) {
	_, err := Compile("#ifdef X\nint main(){}\n")
	assert(t, err != nil, "expected unterminated #ifdef to fail compilation")
}
