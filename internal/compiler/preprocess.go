package compiler

import (
	"fmt"
	"strings"
)

// preprocess runs the #define/#ifdef/#ifndef/#endif pass described in
// spec.md §4.1. It returns text with the same line count as the input,
// directive lines (and anything currently suppressed) replaced by blank
// lines, plus the macro table built up along the way.
//
// Styled after the teacher's preprocessLine (vm/compile.go): a pure
// function folding an accumulator forward line by line, rather than a
// stateful preprocessor object.
func preprocess(lines []string) ([]string, map[string]string, error) {
	defines := make(map[string]string)
	// Emission stack - "all true" means currently emitting. A frame is
	// pushed false when the enclosing scope is already suppressed, so
	// nesting behaves correctly without re-deriving parent state.
	emitStack := []bool{true}
	out := make([]string, 0, len(lines))

	emitting := func() bool {
		for _, e := range emitStack {
			if !e {
				return false
			}
		}
		return true
	}

	for lineNo, raw := range lines {
		trimmed := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(trimmed, "#define"):
			if emitting() {
				fields := strings.Fields(trimmed)
				if len(fields) < 2 {
					return nil, nil, fmt.Errorf("Line %d: malformed #define", lineNo+1)
				}
				name := fields[1]
				value := "1"
				if len(fields) > 2 {
					value = strings.Join(fields[2:], " ")
				}
				defines[name] = value
			}
			out = append(out, "")

		case strings.HasPrefix(trimmed, "#ifdef"):
			fields := strings.Fields(trimmed)
			if len(fields) < 2 {
				return nil, nil, fmt.Errorf("Line %d: malformed #ifdef", lineNo+1)
			}
			_, defined := defines[fields[1]]
			emitStack = append(emitStack, emitting() && defined)
			out = append(out, "")

		case strings.HasPrefix(trimmed, "#ifndef"):
			fields := strings.Fields(trimmed)
			if len(fields) < 2 {
				return nil, nil, fmt.Errorf("Line %d: malformed #ifndef", lineNo+1)
			}
			_, defined := defines[fields[1]]
			emitStack = append(emitStack, emitting() && !defined)
			out = append(out, "")

		case strings.HasPrefix(trimmed, "#endif"):
			if len(emitStack) <= 1 {
				return nil, nil, fmt.Errorf("Line %d: #endif without matching #ifdef/#ifndef", lineNo+1)
			}
			emitStack = emitStack[:len(emitStack)-1]
			out = append(out, "")

		case strings.HasPrefix(trimmed, "#include"):
			// Inert - intentionally unsupported per spec.md §4.1.
			out = append(out, "")

		default:
			if emitting() {
				out = append(out, raw)
			} else {
				out = append(out, "")
			}
		}
	}

	if len(emitStack) != 1 {
		return nil, nil, fmt.Errorf("Line %d: unterminated conditional block (missing #endif)", len(lines))
	}

	return out, defines, nil
}
