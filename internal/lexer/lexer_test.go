package lexer

import (
	"testing"

	"github.com/silica-lang/silica/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `uN[N] sN[32] (a, b)[4] -> N * 2 + clog2(M) << 1 <= >= == != 0x1f 0b1010 1_000 %`

	expected := []struct {
		typ    token.TokenType
		lexeme string
	}{
		{token.UN, "uN"},
		{token.LBRACKET, "["},
		{token.IDENT, "N"},
		{token.RBRACKET, "]"},
		{token.SN, "sN"},
		{token.LBRACKET, "["},
		{token.INT, "32"},
		{token.RBRACKET, "]"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.LBRACKET, "["},
		{token.INT, "4"},
		{token.RBRACKET, "]"},
		{token.ARROW, "->"},
		{token.IDENT, "N"},
		{token.ASTERISK, "*"},
		{token.INT, "2"},
		{token.PLUS, "+"},
		{token.IDENT, "clog2"},
		{token.LPAREN, "("},
		{token.IDENT, "M"},
		{token.RPAREN, ")"},
		{token.SHL, "<<"},
		{token.INT, "1"},
		{token.LE, "<="},
		{token.GE, ">="},
		{token.EQ, "=="},
		{token.NOT_EQ, "!="},
		{token.INT, "0x1f"},
		{token.INT, "0b1010"},
		{token.INT, "1_000"},
		{token.PERCENT, "%"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, exp := range expected {
		tok := l.NextToken()
		if tok.Type != exp.typ {
			t.Fatalf("token %d: type = %q, want %q (lexeme %q)", i, tok.Type, exp.typ, tok.Lexeme)
		}
		if tok.Lexeme != exp.lexeme {
			t.Fatalf("token %d: lexeme = %q, want %q", i, tok.Lexeme, exp.lexeme)
		}
	}
}

func TestPositions(t *testing.T) {
	l := New("uN[8]\nN")

	tok := l.NextToken()
	if tok.Line != 1 || tok.Column != 1 {
		t.Errorf("uN at %d:%d, want 1:1", tok.Line, tok.Column)
	}
	l.NextToken() // [
	tok = l.NextToken()
	if tok.Line != 1 || tok.Column != 4 {
		t.Errorf("8 at %d:%d, want 1:4", tok.Line, tok.Column)
	}
	l.NextToken() // ]
	tok = l.NextToken()
	if tok.Line != 2 || tok.Column != 1 {
		t.Errorf("N at %d:%d, want 2:1", tok.Line, tok.Column)
	}
}

func TestIllegal(t *testing.T) {
	l := New("@")
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Errorf("type = %q, want ILLEGAL", tok.Type)
	}
}
