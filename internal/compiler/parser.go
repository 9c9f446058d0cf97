package compiler

import (
	"strconv"

	"github.com/optimuspime123/optimus-core/internal/isa"
)

// --- token cursor helpers ---

func (c *state) cur() Token {
	return c.toks[c.pos]
}

func (c *state) curLine() int {
	return c.cur().Line
}

func (c *state) atEOF() bool {
	return c.cur().Kind == TokEOF
}

func (c *state) advance() Token {
	t := c.toks[c.pos]
	if c.pos < len(c.toks)-1 {
		c.pos++
	}
	return t
}

func (c *state) peekIsSymbol(offset int, s string) bool {
	idx := c.pos + offset
	if idx >= len(c.toks) {
		return false
	}
	t := c.toks[idx]
	return t.Kind == TokSymbol && t.Value == s
}

func (c *state) checkSymbol(s string) bool {
	t := c.cur()
	return t.Kind == TokSymbol && t.Value == s
}

func (c *state) checkKeyword(k string) bool {
	t := c.cur()
	return t.Kind == TokKeyword && t.Value == k
}

func (c *state) matchSymbol(s string) bool {
	if c.checkSymbol(s) {
		c.advance()
		return true
	}
	return false
}

func (c *state) expectSymbol(s string) {
	if !c.matchSymbol(s) {
		c.fail(c.curLine(), "expected '%s' but found '%s'", s, c.cur().Value)
	}
}

// expectSemicolon special-cases the common typo of a missing semicolon
// before the next statement keyword, so the error points at the real
// mistake instead of just "expected ';'".
func (c *state) expectSemicolon() {
	if c.matchSymbol(";") {
		return
	}
	if c.cur().Kind == TokKeyword {
		c.fail(c.curLine(), "missing ';' before '%s'", c.cur().Value)
	}
	c.fail(c.curLine(), "expected ';' but found '%s'", c.cur().Value)
}

var typeKeywords = map[string]bool{
	"int": true, "void": true, "char": true, "float": true, "double": true,
}

func isTypeKeyword(s string) bool { return typeKeywords[s] }

var mathIntrinsics = map[string]bool{
	"sin": true, "cos": true, "tan": true, "sqrt": true, "pow": true, "abs": true,
}

// --- program / function structure ---

// parseProgram implements spec.md §4.4's program structure. Only a single
// function definition (main) is supported - see the symbol-table-reset
// Open Question resolved in symtab.go's doc comment; parseFunction
// rejects a second definition.
func (c *state) parseProgram() {
	for !c.atEOF() {
		c.parseFunction()
	}
}

func (c *state) parseFunction() {
	line := c.curLine()
	if c.cur().Kind != TokKeyword || !isTypeKeyword(c.cur().Value) {
		c.fail(line, "expected a function return type")
	}
	c.advance() // return type - unchecked against actual return statements

	if c.cur().Kind != TokIdentifier {
		c.fail(c.curLine(), "expected a function name")
	}
	c.advance() // function name - only ever meaningfully "main"

	if c.haveMain {
		c.fail(line, "only a single function definition (main) is supported")
	}
	c.haveMain = true

	c.expectSymbol("(")
	for !c.checkSymbol(")") {
		if c.atEOF() {
			c.fail(c.curLine(), "unterminated parameter list")
		}
		c.advance() // parameter lists are accepted but not bound to anything
	}
	c.expectSymbol(")")

	c.expectSymbol("{")
	c.parseBlockStatements()
	c.expectSymbol("}")

	c.emit(isa.Halt)
}

func (c *state) parseBlockStatements() {
	for !c.checkSymbol("}") && !c.atEOF() {
		c.parseStatement()
	}
}

// parseBody parses a control-flow construct's body: a braced block if the
// current token is '{', otherwise a single statement - C allows both
// "if (x) { ... }" and "if (x) stmt;" and spec.md §8's scenarios rely on
// the brace-less form (e.g. "for(...) printf(...);").
func (c *state) parseBody() {
	if c.checkSymbol("{") {
		c.advance()
		c.parseBlockStatements()
		c.expectSymbol("}")
		return
	}
	c.parseStatement()
}

// --- statements ---

func (c *state) parseStatement() {
	switch {
	case c.cur().Kind == TokKeyword && isTypeKeyword(c.cur().Value):
		c.parseDeclaration()
	case c.checkKeyword("if"):
		c.parseIf()
	case c.checkKeyword("while"):
		c.parseWhile()
	case c.checkKeyword("do"):
		c.parseDoWhile()
	case c.checkKeyword("for"):
		c.parseFor()
	case c.checkKeyword("switch"):
		c.parseSwitch()
	case c.checkKeyword("break"):
		c.parseBreak()
	case c.checkKeyword("continue"):
		c.parseContinue()
	case c.checkKeyword("printf"):
		c.parsePrintfScanf(true)
	case c.checkKeyword("scanf"):
		c.parsePrintfScanf(false)
	case c.checkKeyword("return"):
		c.parseReturn()
	case c.checkKeyword("free"):
		c.parseFreeCall()
	case c.checkSymbol("{"):
		c.advance()
		c.parseBlockStatements()
		c.expectSymbol("}")
	case c.checkSymbol(";"):
		c.advance()
	default:
		c.parseExpressionStatement()
	}
}

func (c *state) parseDeclaration() {
	line := c.curLine()
	typeName := c.advance().Value

	for {
		isPointer := false
		for c.matchSymbol("*") {
			isPointer = true
		}

		if c.cur().Kind != TokIdentifier {
			c.fail(c.curLine(), "expected an identifier in declaration")
		}
		name := c.advance().Value

		isArray := false
		arraySize := 0
		if c.matchSymbol("[") {
			isArray = true
			if c.cur().Kind != TokNumber {
				c.fail(c.curLine(), "expected an array size")
			}
			arraySize = parseIntLiteral(c.advance().Value)
			c.expectSymbol("]")
		}

		sym := c.sym.declare(name, typeName, isPointer, isArray, arraySize)

		if c.matchSymbol("=") {
			if isArray {
				c.fail(line, "arrays cannot have initializers")
			}
			c.parseAssignment()
			c.emitStoreLocal(sym)
		}

		if c.matchSymbol(",") {
			continue
		}
		break
	}

	c.expectSemicolon()
}

func (c *state) parseIf() {
	c.advance() // 'if'
	c.expectSymbol("(")
	c.parseExpression()
	c.expectSymbol(")")

	jz := c.emitArg(isa.Jz, 0)

	c.parseBody()

	if c.checkKeyword("else") {
		c.advance()
		jmp := c.emitArg(isa.Jmp, 0)
		c.patch(jz, c.here())

		c.parseBody()

		c.patch(jmp, c.here())
	} else {
		c.patch(jz, c.here())
	}
}

func (c *state) parseWhile() {
	c.advance() // 'while'
	condTarget := c.here()

	c.expectSymbol("(")
	c.parseExpression()
	c.expectSymbol(")")

	jz := c.emitArg(isa.Jz, 0)

	frame := c.ctrl.pushLoop()
	frame.hasContinueTarget = true
	frame.continueTarget = condTarget

	c.parseBody()

	c.emitArg(isa.Jmp, condTarget)
	end := c.here()
	c.patch(jz, end)
	c.patchAll(frame.breakPatches, end)
	c.ctrl.pop()
}

func (c *state) parseDoWhile() {
	c.advance() // 'do'
	body := c.here()

	frame := c.ctrl.pushLoop()

	c.parseBody()

	if !c.checkKeyword("while") {
		c.fail(c.curLine(), "expected 'while' after do-block")
	}
	c.advance()

	condTarget := c.here()
	frame.hasContinueTarget = true
	frame.continueTarget = condTarget
	c.patchAll(frame.pendingContinues, condTarget)

	c.expectSymbol("(")
	c.parseExpression()
	c.expectSymbol(")")
	c.expectSemicolon()

	jz := c.emitArg(isa.Jz, 0)    // condition false -> fall out of the loop
	c.emitArg(isa.Jmp, body)      // condition true -> loop again
	end := c.here()
	c.patch(jz, end)

	c.patchAll(frame.breakPatches, end)
	c.ctrl.pop()
}

func (c *state) parseFor() {
	c.advance() // 'for'
	c.expectSymbol("(")

	switch {
	case c.checkSymbol(";"):
		c.advance()
	case c.cur().Kind == TokKeyword && isTypeKeyword(c.cur().Value):
		c.parseDeclaration() // consumes its own trailing ';'
	default:
		c.parseExpression()
		c.emit(isa.Pop)
		c.expectSemicolon()
	}

	condTarget := c.here()
	if c.checkSymbol(";") {
		c.emitArg(isa.Lit, 1) // empty condition is literal 1
	} else {
		c.parseExpression()
	}
	c.expectSymbol(";")

	jz := c.emitArg(isa.Jz, 0)
	jmpBody := c.emitArg(isa.Jmp, 0)
	incTarget := c.here()

	if !c.checkSymbol(")") {
		c.parseExpression()
		c.emit(isa.Pop)
	}
	c.expectSymbol(")")
	c.emitArg(isa.Jmp, condTarget)

	body := c.here()
	c.patch(jmpBody, body)

	frame := c.ctrl.pushLoop()
	frame.hasContinueTarget = true
	frame.continueTarget = incTarget

	c.parseBody()

	c.emitArg(isa.Jmp, incTarget)
	end := c.here()
	c.patch(jz, end)
	c.patchAll(frame.breakPatches, end)
	c.ctrl.pop()
}

func (c *state) parseSwitch() {
	c.advance() // 'switch'
	c.expectSymbol("(")
	c.parseExpression()
	c.expectSymbol(")")

	dispatchJmp := c.emitArg(isa.Jmp, 0)

	frame := c.ctrl.pushSwitch()

	type caseEntry struct {
		value  float64
		target float64
	}
	var cases []caseEntry
	var defaultTarget float64
	haveDefault := false

	c.expectSymbol("{")
	for !c.checkSymbol("}") {
		switch {
		case c.checkKeyword("case"):
			c.advance()
			v := c.parseCaseConstant()
			c.expectSymbol(":")
			cases = append(cases, caseEntry{value: v, target: c.here()})
		case c.checkKeyword("default"):
			c.advance()
			c.expectSymbol(":")
			defaultTarget = c.here()
			haveDefault = true
		default:
			if c.atEOF() {
				c.fail(c.curLine(), "unterminated switch body")
			}
			c.parseStatement()
		}
	}
	c.expectSymbol("}")

	exitJmp := c.emitArg(isa.Jmp, 0)

	dispatch := c.here()
	c.patch(dispatchJmp, dispatch)

	for _, ce := range cases {
		c.emit(isa.Dup)
		c.emitArg(isa.Lit, ce.value)
		c.emit(isa.Eq)
		jzNext := c.emitArg(isa.Jz, 0)
		c.emit(isa.Pop)
		c.emitArg(isa.Jmp, ce.target)
		c.patch(jzNext, c.here())
	}

	if haveDefault {
		c.emit(isa.Pop)
		c.emitArg(isa.Jmp, defaultTarget)
	} else {
		c.emit(isa.Pop)
	}

	exit := c.here()
	c.patch(exitJmp, exit)
	c.patchAll(frame.breakPatches, exit)
	c.ctrl.pop()
}

func (c *state) parseCaseConstant() float64 {
	neg := false
	if c.matchSymbol("-") {
		neg = true
	}
	t := c.cur()
	switch t.Kind {
	case TokNumber:
		c.advance()
		v := float64(parseIntLiteral(t.Value))
		if neg {
			v = -v
		}
		return v
	case TokChar:
		c.advance()
		v := float64(0)
		if len(t.Value) > 0 {
			v = float64(t.Value[0])
		}
		if neg {
			v = -v
		}
		return v
	default:
		c.fail(t.Line, "expected a case constant")
		return 0
	}
}

func (c *state) parseBreak() {
	line := c.curLine()
	c.advance()
	top := c.ctrl.top()
	if top == nil {
		c.fail(line, "'break' outside of a loop or switch")
	}
	idx := c.emitArg(isa.Jmp, 0)
	top.breakPatches = append(top.breakPatches, idx)
	c.expectSemicolon()
}

func (c *state) parseContinue() {
	line := c.curLine()
	c.advance()
	frame := c.ctrl.innermostLoop()
	if frame == nil {
		c.fail(line, "'continue' outside of a loop")
	}
	if frame.hasContinueTarget {
		c.emitArg(isa.Jmp, frame.continueTarget)
	} else {
		idx := c.emitArg(isa.Jmp, 0)
		frame.pendingContinues = append(frame.pendingContinues, idx)
	}
	c.expectSemicolon()
}

func (c *state) parsePrintfScanf(isPrintf bool) {
	c.advance() // 'printf' / 'scanf'
	c.expectSymbol("(")

	if c.cur().Kind != TokString {
		c.fail(c.curLine(), "expected a format string literal")
	}
	format := c.advance().Value

	count := countConversions(format)
	for i := 0; i < count; i++ {
		c.expectSymbol(",")
		c.parseAssignment()
	}
	c.expectSymbol(")")

	addr := c.internString(format)
	c.emitArg(isa.Lit, addr)
	if isPrintf {
		c.emitArg(isa.Print, float64(count))
	} else {
		c.emitArg(isa.Scanf, float64(count))
	}
	c.expectSemicolon()
}

// parseFreeCall accepts free(p) as a no-op: evaluate the argument for its
// side effects, discard the result, emit nothing else. free/malloc share
// the heap's no-bounds-check, no-deallocation design (spec.md §4.5).
func (c *state) parseFreeCall() {
	c.advance() // 'free'
	c.expectSymbol("(")
	if !c.checkSymbol(")") {
		c.parseAssignment()
		c.emit(isa.Pop)
	}
	c.expectSymbol(")")
	c.expectSemicolon()
}

func (c *state) parseReturn() {
	c.advance() // 'return'
	if !c.checkSymbol(";") {
		c.parseExpression()
	}
	c.emit(isa.Halt)
	c.expectSemicolon()
}

func (c *state) parseExpressionStatement() {
	c.parseExpression()
	c.emit(isa.Pop)
	c.expectSemicolon()
}

func parseIntLiteral(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			break
		}
		n = n*10 + int(s[i]-'0')
	}
	return n
}

func parseFloatLiteral(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
