package compiler

import "fmt"

// compileError is a fatal compile-time error carrying a 1-based source
// line, per spec.md §7: "Line <n>: <message>". Parser/codegen methods
// panic with this type rather than threading an error return through
// every recursive-descent call; Compile recovers it at the top level.
type compileError struct {
	line int
	msg  string
}

func (e *compileError) Error() string {
	return fmt.Sprintf("Line %d: %s", e.line, e.msg)
}

func (c *state) fail(line int, format string, args ...any) {
	panic(&compileError{line: line, msg: fmt.Sprintf(format, args...)})
}

func sprintWarning(line int, format string, args ...any) string {
	return fmt.Sprintf("line %d: %s", line, fmt.Sprintf(format, args...))
}
