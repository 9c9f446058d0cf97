package compiler

import (
	"regexp"

	"github.com/optimuspime123/optimus-core/internal/isa"
)

// --- expression grammar (spec.md §4.4's seven precedence levels) ---

// parseExpression is the grammar's entry point; assignment binds loosest.
func (c *state) parseExpression() {
	c.parseAssignment()
}

// parseAssignment handles "identifier = expr" at the top level, right
// associative. Every other form falls through to equality and below.
func (c *state) parseAssignment() {
	if c.cur().Kind == TokIdentifier && c.peekIsSymbol(1, "=") {
		nameTok := c.advance()
		c.advance() // '='

		sym, ok := c.sym.lookup(nameTok.Value)
		if !ok {
			c.fail(nameTok.Line, "undefined identifier: %s", nameTok.Value)
		}
		if sym.isArray {
			c.fail(nameTok.Line, "cannot assign directly to array '%s'", nameTok.Value)
		}

		c.parseAssignment() // right-associative: a = b = c
		c.emitStoreLocal(sym)
		c.emitLoadLocal(sym) // assignment is itself an expression - reload the stored value
		return
	}

	c.parseEquality()
}

func (c *state) parseEquality() {
	c.parseRelational()
	for {
		switch {
		case c.matchSymbol("=="):
			c.parseRelational()
			c.emit(isa.Eq)
		case c.matchSymbol("!="):
			c.parseRelational()
			c.emit(isa.Neq)
		default:
			return
		}
	}
}

func (c *state) parseRelational() {
	c.parseAdditive()
	for {
		switch {
		case c.matchSymbol("<="):
			c.parseAdditive()
			c.emit(isa.Le)
		case c.matchSymbol(">="):
			c.parseAdditive()
			c.emit(isa.Ge)
		case c.matchSymbol("<"):
			c.parseAdditive()
			c.emit(isa.Lt)
		case c.matchSymbol(">"):
			c.parseAdditive()
			c.emit(isa.Gt)
		default:
			return
		}
	}
}

func (c *state) parseAdditive() {
	c.parseMultiplicative()
	for {
		switch {
		case c.matchSymbol("+"):
			c.parseMultiplicative()
			c.emit(isa.Add)
		case c.matchSymbol("-"):
			c.parseMultiplicative()
			c.emit(isa.Sub)
		default:
			return
		}
	}
}

func (c *state) parseMultiplicative() {
	c.parseUnary()
	for {
		switch {
		case c.matchSymbol("*"):
			c.parseUnary()
			c.emit(isa.Mul)
		case c.matchSymbol("/"):
			c.parseUnary()
			c.emit(isa.Div)
		case c.matchSymbol("%"):
			c.parseUnary()
			c.emit(isa.Mod)
		default:
			return
		}
	}
}

// parseUnary handles ! - + as prefix operators, plus * (deref) and &
// (address-of), per spec.md §4.4.
func (c *state) parseUnary() {
	switch {
	case c.matchSymbol("!"):
		c.parseUnary()
		c.emitArg(isa.Lit, 0)
		c.emit(isa.Eq)
	case c.matchSymbol("-"):
		c.parseUnary()
		c.emitArg(isa.Lit, -1)
		c.emit(isa.Mul)
	case c.matchSymbol("+"):
		c.parseUnary() // no-op, evaluates the operand and discards the sign
	case c.matchSymbol("*"):
		c.parseDerefTarget()
	case c.matchSymbol("&"):
		c.parseAddressOf()
	default:
		c.parsePostfix()
	}
}

// parseDerefTarget compiles *e, both as a load and - per spec.md §4.4's
// "pointer-target assignment is handled at the primary level" - as an
// assignment target for "*e = expr". If e is a bare identifier, the
// pointee's width is known from the symbol table (so *dp where dp is
// declared "double *dp" uses the 64-bit opcodes); otherwise it defaults
// to 32-bit, matching spec.md §9's "no type checking beyond element-size
// selection".
func (c *state) parseDerefTarget() {
	wide := c.identSizeHint()
	c.parseUnary() // pushes the target address

	if c.matchSymbol("=") {
		// Same DUP-then-store-then-reload shape as array-element
		// assignment (parsePostfix): [addr, addr] -> rhs -> [addr, addr,
		// value] -> S_IND pops (value, addr) -> [addr] -> L_IND -> [value].
		c.emit(isa.Dup)
		c.parseAssignment()
		if wide {
			c.emit(isa.SInd64)
			c.emit(isa.LInd64)
		} else {
			c.emit(isa.SInd)
			c.emit(isa.LInd)
		}
		return
	}

	if wide {
		c.emit(isa.LInd64)
	} else {
		c.emit(isa.LInd)
	}
}

func (c *state) parseAddressOf() {
	line := c.curLine()
	if c.cur().Kind != TokIdentifier {
		c.fail(line, "'&' must be followed by an identifier")
	}
	nameTok := c.advance()
	sym, ok := c.sym.lookup(nameTok.Value)
	if !ok {
		c.fail(nameTok.Line, "undefined identifier: %s", nameTok.Value)
	}
	c.emitArg(isa.PPush, float64(sym.offset))
}

// identSizeHint peeks at the next token: if it is a declared pointer
// identifier, reports whether its pointee is 64-bit (double). Used by the
// dereference (*) codegen to pick the indirect opcode width without a
// type checker.
func (c *state) identSizeHint() bool {
	if c.cur().Kind != TokIdentifier {
		return false
	}
	sym, ok := c.sym.lookup(c.cur().Value)
	if !ok {
		return false
	}
	return sym.isPointer && sym.pointeeSize == 8
}

// parsePostfix handles primary expressions plus trailing [index] and
// handles array-element load/assignment (the only postfix operator in
// this grammar).
func (c *state) parsePostfix() {
	if c.cur().Kind == TokIdentifier && c.peekIsSymbol(1, "[") {
		nameTok := c.advance()
		sym, ok := c.sym.lookup(nameTok.Value)
		if !ok {
			c.fail(nameTok.Line, "undefined identifier: %s", nameTok.Value)
		}

		c.advance() // '['
		c.emitArg(isa.PPush, float64(sym.offset))
		c.parseExpression()
		c.emitArg(isa.Lit, float64(sym.elementSize))
		c.emit(isa.Mul)
		c.emit(isa.Add)
		c.expectSymbol("]")

		wide := sym.elementSize == 8

		if c.matchSymbol("=") {
			// Stack after the address is computed: [addr]. DUP it so the
			// store can consume one copy while the other survives to be
			// reloaded - this is what makes "arr[i] = v" usable as an
			// expression (net stack delta zero, final value is the one
			// stored): [addr, addr] -> parse rhs -> [addr, addr, value]
			// -> S_IND pops (value, addr) -> [addr] -> L_IND -> [value].
			c.emit(isa.Dup)
			c.parseAssignment()
			if wide {
				c.emit(isa.SInd64)
				c.emit(isa.LInd64)
			} else {
				c.emit(isa.SInd)
				c.emit(isa.LInd)
			}
			return
		}

		if wide {
			c.emit(isa.LInd64)
		} else {
			c.emit(isa.LInd)
		}
		return
	}

	c.parsePrimary()
}

func (c *state) parsePrimary() {
	t := c.cur()

	switch {
	case c.matchSymbol("("):
		c.parseExpression()
		c.expectSymbol(")")
		return

	case t.Kind == TokKeyword && mathIntrinsics[t.Value]:
		c.advance()
		c.expectSymbol("(")
		c.parseAssignment()
		switch t.Value {
		case "sin":
			c.emit(isa.Sin)
		case "cos":
			c.emit(isa.Cos)
		case "tan":
			c.emit(isa.Tan)
		case "sqrt":
			c.emit(isa.Sqrt)
		case "abs":
			c.emit(isa.Abs)
		case "pow":
			c.expectSymbol(",")
			c.parseAssignment()
			c.emit(isa.Pow)
		}
		c.expectSymbol(")")
		return

	case t.Kind == TokKeyword && t.Value == "malloc":
		c.advance()
		c.expectSymbol("(")
		c.parseAssignment()
		c.expectSymbol(")")
		c.emit(isa.Malloc)
		return

	case t.Kind == TokNumber:
		c.advance()
		c.emitArg(isa.Lit, parseFloatLiteral(t.Value))
		return

	case t.Kind == TokChar:
		c.advance()
		v := float64(0)
		if len(t.Value) > 0 {
			v = float64(t.Value[0])
		}
		c.emitArg(isa.Lit, v)
		return

	case t.Kind == TokString:
		c.advance()
		addr := c.internString(t.Value)
		c.emitArg(isa.Lit, addr)
		return

	case t.Kind == TokIdentifier:
		c.advance()
		sym, ok := c.sym.lookup(t.Value)
		if !ok {
			c.fail(t.Line, "undefined identifier: %s", t.Value)
		}
		c.emitLoadLocal(sym)
		return

	default:
		c.fail(t.Line, "unexpected token '%s' in expression", t.Value)
	}
}

// --- local load/store helpers, width-selected by the symbol's element size ---

func (c *state) emitLoadLocal(sym symbol) {
	if sym.elementSize == 8 {
		c.emitArg(isa.Load64, float64(sym.offset))
	} else {
		c.emitArg(isa.Load, float64(sym.offset))
	}
}

func (c *state) emitStoreLocal(sym symbol) {
	if sym.elementSize == 8 {
		c.emitArg(isa.Store64, float64(sym.offset))
	} else {
		c.emitArg(isa.Store, float64(sym.offset))
	}
}

func (c *state) patchAll(idxs []int, target float64) {
	for _, idx := range idxs {
		c.patch(idx, target)
	}
}

var conversionSpec = regexp.MustCompile(`%[-+ #0-9.]*l?[dfcsxX]`)

// countConversions counts printf/scanf conversion specifiers in a format
// string, per spec.md §4.4's printf/scanf codegen rule.
func countConversions(format string) int {
	return len(conversionSpec.FindAllString(format, -1))
}
