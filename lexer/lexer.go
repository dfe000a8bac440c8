// Package lexer groups the XPL0 character stream into tokens.
//
// Unlike the reference implementation this lexer threads the current
// token and its value through a Token returned by value from Next,
// instead of process-wide variables the parser reads behind the lexer's
// back (see DESIGN.md, "lexer").
package lexer

import (
	"io"

	"github.com/pkg/errors"

	"github.com/mukaiizawa/XPL0/source"
	"github.com/mukaiizawa/XPL0/token"
)

// MaxIdentifier is the maximum number of characters in an identifier
// (spec.md §3). A longer run of letters/digits is a lexical error.
const MaxIdentifier = 10

// Error is a lexical or positional error, reported with the (line,
// column) the lexer had reached when it was detected.
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

// Lexer turns a character Source into a stream of Tokens.
type Lexer struct {
	src *source.Source
	ch  byte
	pos token.Pos
	eof bool
}

// New creates a Lexer reading from r.
func New(r io.Reader) *Lexer {
	l := &Lexer{src: source.New(r)}
	l.advance()
	return l
}

// advance reads the next raw character into l.ch, tracking EOF.
func (l *Lexer) advance() {
	ch, pos, err := l.src.Next()
	l.pos = pos
	if err != nil {
		l.eof = true
		l.ch = 0
		return
	}
	l.ch = ch
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isLetter(ch byte) bool {
	return ch >= 'A' && ch <= 'Z' || ch >= 'a' && ch <= 'z'
}

func isAlnum(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}

// Next returns the next Token. At end of input it returns a token with
// Kind token.EOF forever after; it is the parser's job to treat an
// unexpected EOF token as the fatal error spec.md §4.1 requires, the same
// way it treats any other unexpected token.
func (l *Lexer) Next() (token.Token, error) {
	for !l.eof && isSpace(l.ch) {
		l.advance()
	}
	start := l.pos
	if l.eof {
		return token.Token{Kind: token.EOF, Pos: start}, nil
	}

	switch {
	case isLetter(l.ch):
		return l.scanIdentifier(start)
	case isDigit(l.ch):
		return l.scanNumber(start)
	default:
		return l.scanPunctuation(start)
	}
}

func (l *Lexer) scanIdentifier(start token.Pos) (token.Token, error) {
	var buf []byte
	for !l.eof && isAlnum(l.ch) {
		if len(buf) == MaxIdentifier {
			return token.Token{}, errAt(start, "identifier too long")
		}
		buf = append(buf, l.ch)
		l.advance()
	}
	name := string(buf)
	return token.Token{Kind: token.Lookup(name), Literal: name, Pos: start}, nil
}

func (l *Lexer) scanNumber(start token.Pos) (token.Token, error) {
	var buf []byte
	for !l.eof && isDigit(l.ch) {
		buf = append(buf, l.ch)
		l.advance()
	}
	n := 0
	for _, d := range buf {
		n = n*10 + int(d-'0')
	}
	return token.Token{Kind: token.NUMBER, Literal: string(buf), Num: n, Pos: start}, nil
}

func (l *Lexer) scanPunctuation(start token.Pos) (token.Token, error) {
	ch := l.ch
	l.advance()
	switch ch {
	case '+':
		return token.Token{Kind: token.PLUS, Pos: start}, nil
	case '-':
		return token.Token{Kind: token.MINUS, Pos: start}, nil
	case '*':
		return token.Token{Kind: token.TIMES, Pos: start}, nil
	case '/':
		return token.Token{Kind: token.SLASH, Pos: start}, nil
	case '(':
		return token.Token{Kind: token.LPAREN, Pos: start}, nil
	case ')':
		return token.Token{Kind: token.RPAREN, Pos: start}, nil
	case '=':
		return token.Token{Kind: token.EQL, Pos: start}, nil
	case ',':
		return token.Token{Kind: token.COMMA, Pos: start}, nil
	case '.':
		return token.Token{Kind: token.PERIOD, Pos: start}, nil
	case '#':
		return token.Token{Kind: token.NEQ, Pos: start}, nil
	case '<':
		return token.Token{Kind: token.LSS, Pos: start}, nil
	case '>':
		return token.Token{Kind: token.GTR, Pos: start}, nil
	case '[': // alias for <=, per spec.md §4.2
		return token.Token{Kind: token.LEQ, Pos: start}, nil
	case ']': // alias for >=, per spec.md §4.2
		return token.Token{Kind: token.GEQ, Pos: start}, nil
	case ';':
		return token.Token{Kind: token.SEMICOLON, Pos: start}, nil
	case ':':
		if l.ch == '=' {
			l.advance()
			return token.Token{Kind: token.BECOMES, Pos: start}, nil
		}
		return token.Token{}, errAt(start, "':=' expected")
	default:
		return token.Token{}, errAt(start, "illegal character %q", ch)
	}
}
