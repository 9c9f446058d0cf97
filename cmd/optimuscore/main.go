// Command optimuscore is a minimal shell-like host for the process core:
// it compiles a named source file, creates a process through the
// manager, and pumps Step in chunks while wiring stdout/stdin to the
// terminal, exactly as spec.md §5/§6 describes. Grounded on the
// teacher's main.go (flag-based CLI, buffered stdin reader) and
// vm/run.go's step loop.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/optimuspime123/optimus-core/internal/compiler"
	"github.com/optimuspime123/optimus-core/internal/procmgr"
	"github.com/optimuspime123/optimus-core/internal/process"
)

var chunkSize = flag.Int("chunk", 2000, "instructions executed per step() chunk")

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: optimuscore <source file>")
		os.Exit(1)
	}

	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	prog, err := compiler.Compile(string(source))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, w := range prog.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	mgr := procmgr.NewManager()
	pid := mgr.NextPID()
	proc := process.New(pid, prog, func(s string) { fmt.Print(s) })
	mgr.CreateProcess(args[0], proc)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT)
	go func() {
		<-sigc
		glog.Infof("SIGINT received, killing foreground process %d", pid)
		mgr.Kill(pid)
	}()

	stdin := bufio.NewScanner(os.Stdin)

	for {
		if proc.State() == process.Terminated {
			return
		}

		if proc.State() == process.WaitingInput {
			if !stdin.Scan() {
				return
			}
			proc.ResolveInput(stdin.Text())
			continue
		}

		if !proc.Step(*chunkSize) {
			continue // re-check state: WaitingInput or Terminated
		}
	}
}
