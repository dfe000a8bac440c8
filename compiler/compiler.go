// Package compiler is the single-pass recursive-descent parser and code
// generator for XPL0. It reads tokens from a lexer.Lexer, enters
// declarations into a symtab.Table, and emits instructions into a
// code.Buffer while it parses — there is no intermediate AST.
//
// The parser-struct-plus-backpatch-bookkeeping shape (capture an index
// just before a forward-reference Gen call, patch it once the real
// target is known) follows the teacher repository's asm.parser; the
// grammar itself and its error texts follow original_source/xpl0.c's
// parse_* functions.
package compiler

import (
	"io"

	"github.com/pkg/errors"

	"github.com/mukaiizawa/XPL0/code"
	"github.com/mukaiizawa/XPL0/lexer"
	"github.com/mukaiizawa/XPL0/symtab"
	"github.com/mukaiizawa/XPL0/token"
)

// MaxLevel is the deepest lexical nesting a procedure declaration may
// reach (spec.md §4.5, §9.3). Exceeding it at a `procedure` declaration
// is a fatal error.
const MaxLevel = 3

// Error is a compile-time error: lexical, syntactic, semantic, or
// capacity, reported with the lexer position current when it was
// detected (spec.md §7).
type Error struct {
	Pos token.Pos
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

func errAt(pos token.Pos, format string, args ...interface{}) error {
	return &Error{Pos: pos, Msg: errors.Errorf(format, args...).Error()}
}

// Result is everything a debug build wants to inspect after a
// successful compile: the generated code plus the symbol table that
// produced it. Normal builds only ever look at Instructions.
type Result struct {
	Instructions []code.Instruction
	Symbols      *symtab.Table
}

// Compile reads one complete XPL0 program from r and compiles it. The
// first returned error is fatal; there is no panic-mode recovery
// (spec.md §7).
func Compile(r io.Reader) (*Result, error) {
	p := &parser{
		lex: lexer.New(r),
		sym: symtab.New(),
		buf: code.NewBuffer(),
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.block(0); err != nil {
		return nil, err
	}
	if p.tok.Kind != token.PERIOD {
		return nil, errAt(p.tok.Pos, "'.' expected")
	}
	return &Result{Instructions: p.buf.Instructions(), Symbols: p.sym}, nil
}

// parser holds one compile's mutable state: the current lookahead
// token, the lexer it came from, the symbol table, and the code buffer
// being generated into.
type parser struct {
	lex *lexer.Lexer
	tok token.Token
	sym *symtab.Table
	buf *code.Buffer
}

// next reads the next token into p.tok, translating a lexer error into a
// compiler Error carrying the same position.
func (p *parser) next() error {
	tok, err := p.lex.Next()
	if err != nil {
		if lerr, ok := err.(*lexer.Error); ok {
			return &Error{Pos: lerr.Pos, Msg: lerr.Msg}
		}
		return err
	}
	p.tok = tok
	return nil
}

// expect verifies the current token's kind, then advances past it.
func (p *parser) expect(k token.Kind, msg string) error {
	if p.tok.Kind != k {
		return errAt(p.tok.Pos, "%s", msg)
	}
	return p.next()
}

// block parses one `block` production at lexical level lev: a JMP
// placeholder, optional const/var sections, zero or more nested
// procedures, then (with the JMP patched to land here) the
// frame-allocating INT, a single statement, and the closing RET
// (spec.md §4.5).
func (p *parser) block(lev int) error {
	if lev > MaxLevel {
		return errAt(p.tok.Pos, "nesting too deep (max level %d)", MaxLevel)
	}

	dx := 3 // activation-record offsets start after the three linkage slots
	jmpIdx, err := p.buf.Gen(code.JMP, 0, 0)
	if err != nil {
		return err
	}

	if err := p.constDecls(); err != nil {
		return err
	}
	if err := p.varDecls(lev, &dx); err != nil {
		return err
	}
	if err := p.procDecls(lev); err != nil {
		return err
	}

	p.buf.Patch(jmpIdx, p.buf.Len())
	if err := p.patchOwningProcedure(lev); err != nil {
		return err
	}
	if _, err := p.buf.Gen(code.INT, 0, dx); err != nil {
		return err
	}
	if err := p.statement(lev); err != nil {
		return err
	}
	if _, err := p.buf.Gen(code.OPR, 0, int(code.RET)); err != nil {
		return err
	}
	return nil
}

// patchOwningProcedure backpatches the most recently entered Procedure
// entry at lev-1 whose addr has not yet been set, pointing it at the
// INT instruction about to be emitted for this block. The outermost
// block (lev == 0) owns no procedure entry.
func (p *parser) patchOwningProcedure(lev int) error {
	if lev == 0 {
		return nil
	}
	for i := p.sym.Len() - 1; i >= 0; i-- {
		e := p.sym.At(i)
		if e.Kind == symtab.Procedure && e.Level == lev-1 && e.Addr == 0 {
			p.sym.PatchAddr(i, p.buf.Len())
			return nil
		}
	}
	return errors.New("internal error: no pending procedure entry to patch")
}

func (p *parser) constDecls() error {
	if p.tok.Kind != token.CONST {
		return nil
	}
	if err := p.next(); err != nil {
		return err
	}
	for {
		if p.tok.Kind != token.IDENT {
			return errAt(p.tok.Pos, "identifier expected after 'const'")
		}
		name := p.tok.Literal
		if err := p.next(); err != nil {
			return err
		}
		if err := p.expect(token.EQL, "'=' expected"); err != nil {
			return err
		}
		if p.tok.Kind != token.NUMBER {
			return errAt(p.tok.Pos, "number expected after '='")
		}
		val := p.tok.Num
		if err := p.next(); err != nil {
			return err
		}
		if err := p.sym.EnterConstant(name, val); err != nil {
			return err
		}
		if p.tok.Kind != token.COMMA {
			break
		}
		if err := p.next(); err != nil {
			return err
		}
	}
	return p.expect(token.SEMICOLON, "';' expected")
}

func (p *parser) varDecls(lev int, dx *int) error {
	if p.tok.Kind != token.VAR {
		return nil
	}
	if err := p.next(); err != nil {
		return err
	}
	for {
		if p.tok.Kind != token.IDENT {
			return errAt(p.tok.Pos, "identifier expected after 'var'")
		}
		name := p.tok.Literal
		if err := p.next(); err != nil {
			return err
		}
		if err := p.sym.EnterVariable(name, lev, dx); err != nil {
			return err
		}
		if p.tok.Kind != token.COMMA {
			break
		}
		if err := p.next(); err != nil {
			return err
		}
	}
	return p.expect(token.SEMICOLON, "';' expected")
}

// procDecls parses zero or more `procedure ident ; block(lev+1) ;`
// declarations. The procedure name is entered before recursing so it is
// visible to itself and to later sibling procedures (spec.md §4.5.3).
func (p *parser) procDecls(lev int) error {
	for p.tok.Kind == token.PROCEDURE {
		if err := p.next(); err != nil {
			return err
		}
		if p.tok.Kind != token.IDENT {
			return errAt(p.tok.Pos, "identifier expected after 'procedure'")
		}
		name := p.tok.Literal
		if err := p.next(); err != nil {
			return err
		}
		if err := p.sym.EnterProcedure(name, lev); err != nil {
			return err
		}
		if err := p.expect(token.SEMICOLON, "';' expected"); err != nil {
			return err
		}
		if err := p.block(lev + 1); err != nil {
			return err
		}
		if err := p.expect(token.SEMICOLON, "';' expected"); err != nil {
			return err
		}
	}
	return nil
}

// statement dispatches on the current token per spec.md §4.5. Any token
// that starts none of the known statement forms is treated as the empty
// statement, so that `begin S ; end` with a trailing empty parses.
func (p *parser) statement(lev int) error {
	switch p.tok.Kind {
	case token.IDENT:
		return p.assignStatement(lev)
	case token.CALL:
		return p.callStatement(lev)
	case token.IF:
		return p.ifStatement(lev)
	case token.BEGIN:
		return p.beginStatement(lev)
	case token.WHILE:
		return p.whileStatement(lev)
	default:
		return nil
	}
}

func (p *parser) assignStatement(lev int) error {
	name := p.tok.Literal
	pos := p.tok.Pos
	e, _, err := p.sym.Find(name)
	if err != nil {
		return &Error{Pos: pos, Msg: err.Error()}
	}
	if e.Kind != symtab.Variable {
		return errAt(pos, "assignment to constant or procedure: %s", name)
	}
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expect(token.BECOMES, "':=' expected"); err != nil {
		return err
	}
	if err := p.expression(lev); err != nil {
		return err
	}
	_, err = p.buf.Gen(code.STO, lev-e.Level, e.Addr)
	return err
}

func (p *parser) callStatement(lev int) error {
	if err := p.next(); err != nil {
		return err
	}
	if p.tok.Kind != token.IDENT {
		return errAt(p.tok.Pos, "identifier expected after 'call'")
	}
	name := p.tok.Literal
	pos := p.tok.Pos
	e, _, err := p.sym.Find(name)
	if err != nil {
		return &Error{Pos: pos, Msg: err.Error()}
	}
	if e.Kind != symtab.Procedure {
		return errAt(pos, "call of non-procedure: %s", name)
	}
	if err := p.next(); err != nil {
		return err
	}
	_, err = p.buf.Gen(code.CAL, lev-e.Level, e.Addr)
	return err
}

func (p *parser) ifStatement(lev int) error {
	if err := p.next(); err != nil {
		return err
	}
	if err := p.condition(lev); err != nil {
		return err
	}
	if err := p.expect(token.THEN, "'then' expected"); err != nil {
		return err
	}
	jpcIdx, err := p.buf.Gen(code.JPC, 0, 0)
	if err != nil {
		return err
	}
	if err := p.statement(lev); err != nil {
		return err
	}
	p.buf.Patch(jpcIdx, p.buf.Len())
	return nil
}

func (p *parser) beginStatement(lev int) error {
	if err := p.next(); err != nil {
		return err
	}
	if err := p.statement(lev); err != nil {
		return err
	}
	for p.tok.Kind != token.END {
		if err := p.expect(token.SEMICOLON, "';' expected"); err != nil {
			return err
		}
		if err := p.statement(lev); err != nil {
			return err
		}
	}
	return p.expect(token.END, "'end' expected")
}

func (p *parser) whileStatement(lev int) error {
	if err := p.next(); err != nil {
		return err
	}
	loopTop := p.buf.Len()
	if err := p.condition(lev); err != nil {
		return err
	}
	jpcIdx, err := p.buf.Gen(code.JPC, 0, 0)
	if err != nil {
		return err
	}
	if err := p.expect(token.DO, "'do' expected"); err != nil {
		return err
	}
	if err := p.statement(lev); err != nil {
		return err
	}
	if _, err := p.buf.Gen(code.JMP, 0, loopTop); err != nil {
		return err
	}
	p.buf.Patch(jpcIdx, p.buf.Len())
	return nil
}

// relOps maps relational tokens to their OPR operator code (spec.md §3).
var relOps = map[token.Kind]code.Op{
	token.EQL: code.EQ,
	token.NEQ: code.NEQ,
	token.LSS: code.LT,
	token.LEQ: code.LEQ,
	token.GTR: code.GT,
	token.GEQ: code.GEQ,
}

func (p *parser) condition(lev int) error {
	if p.tok.Kind == token.ODD {
		if err := p.next(); err != nil {
			return err
		}
		if err := p.expression(lev); err != nil {
			return err
		}
		_, err := p.buf.Gen(code.OPR, 0, int(code.ODD))
		return err
	}

	if err := p.expression(lev); err != nil {
		return err
	}
	op, ok := relOps[p.tok.Kind]
	if !ok {
		return errAt(p.tok.Pos, "relational operator expected")
	}
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expression(lev); err != nil {
		return err
	}
	_, err := p.buf.Gen(code.OPR, 0, int(op))
	return err
}

func (p *parser) expression(lev int) error {
	negate := false
	if p.tok.Kind == token.PLUS || p.tok.Kind == token.MINUS {
		negate = p.tok.Kind == token.MINUS
		if err := p.next(); err != nil {
			return err
		}
	}
	if err := p.term(lev); err != nil {
		return err
	}
	if negate {
		if _, err := p.buf.Gen(code.OPR, 0, int(code.NEGATE)); err != nil {
			return err
		}
	}

	for p.tok.Kind == token.PLUS || p.tok.Kind == token.MINUS {
		isAdd := p.tok.Kind == token.PLUS
		if err := p.next(); err != nil {
			return err
		}
		if err := p.term(lev); err != nil {
			return err
		}
		op := code.SUB
		if isAdd {
			op = code.ADD
		}
		if _, err := p.buf.Gen(code.OPR, 0, int(op)); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) term(lev int) error {
	if err := p.factor(lev); err != nil {
		return err
	}
	for p.tok.Kind == token.TIMES || p.tok.Kind == token.SLASH {
		isMul := p.tok.Kind == token.TIMES
		if err := p.next(); err != nil {
			return err
		}
		if err := p.factor(lev); err != nil {
			return err
		}
		op := code.DIV
		if isMul {
			op = code.MUL
		}
		if _, err := p.buf.Gen(code.OPR, 0, int(op)); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) factor(lev int) error {
	switch p.tok.Kind {
	case token.IDENT:
		name := p.tok.Literal
		pos := p.tok.Pos
		e, _, err := p.sym.Find(name)
		if err != nil {
			return &Error{Pos: pos, Msg: err.Error()}
		}
		if err := p.next(); err != nil {
			return err
		}
		switch e.Kind {
		case symtab.Constant:
			_, err = p.buf.Gen(code.LIT, 0, e.Val)
		case symtab.Variable:
			_, err = p.buf.Gen(code.LOD, lev-e.Level, e.Addr)
		default:
			return errAt(pos, "procedure in expression: %s", name)
		}
		return err
	case token.NUMBER:
		n := p.tok.Num
		if err := p.next(); err != nil {
			return err
		}
		_, err := p.buf.Gen(code.LIT, 0, n)
		return err
	case token.LPAREN:
		if err := p.next(); err != nil {
			return err
		}
		if err := p.expression(lev); err != nil {
			return err
		}
		return p.expect(token.RPAREN, "')' expected")
	default:
		return errAt(p.tok.Pos, "factor expected")
	}
}
