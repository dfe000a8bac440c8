package lexer_test

import (
	"strings"
	"testing"

	"github.com/mukaiizawa/XPL0/lexer"
	"github.com/mukaiizawa/XPL0/token"
)

func tokenize(t *testing.T, src string) []token.Token {
	t.Helper()
	l := lexer.New(strings.NewReader(src))
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("unexpected lex error: %v", err)
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func eqKinds(t *testing.T, got []token.Kind, want ...token.Kind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestKeywordsAndIdents(t *testing.T) {
	toks := tokenize(t, "const var begin end odd r2")
	eqKinds(t, kinds(toks),
		token.CONST, token.VAR, token.BEGIN, token.END, token.ODD, token.IDENT, token.EOF)
	if toks[5].Literal != "r2" {
		t.Errorf("expected literal r2, got %q", toks[5].Literal)
	}
}

func TestNumber(t *testing.T) {
	toks := tokenize(t, "1234")
	if toks[0].Kind != token.NUMBER || toks[0].Num != 1234 {
		t.Errorf("got %+v", toks[0])
	}
}

func TestRelationalAliases(t *testing.T) {
	toks := tokenize(t, "< [ > ] # =")
	eqKinds(t, kinds(toks), token.LSS, token.LEQ, token.GTR, token.GEQ, token.NEQ, token.EQL, token.EOF)
}

func TestBecomes(t *testing.T) {
	toks := tokenize(t, ":=")
	eqKinds(t, kinds(toks), token.BECOMES, token.EOF)
}

func TestBadBecomes(t *testing.T) {
	l := lexer.New(strings.NewReader(":x"))
	if _, err := l.Next(); err == nil {
		t.Fatal("expected an error for ':' not followed by '='")
	}
}

func TestIdentifierTooLong(t *testing.T) {
	l := lexer.New(strings.NewReader("abcdefghijk")) // 11 letters
	if _, err := l.Next(); err == nil {
		t.Fatal("expected identifier-too-long error")
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := lexer.New(strings.NewReader("@"))
	if _, err := l.Next(); err == nil {
		t.Fatal("expected illegal character error")
	}
}

func TestPositionTracking(t *testing.T) {
	toks := tokenize(t, "a\n  b")
	if toks[0].Pos.Line != 1 || toks[0].Pos.Column != 1 {
		t.Errorf("got pos %+v for 'a'", toks[0].Pos)
	}
	if toks[1].Pos.Line != 2 || toks[1].Pos.Column != 3 {
		t.Errorf("got pos %+v for 'b'", toks[1].Pos)
	}
}
