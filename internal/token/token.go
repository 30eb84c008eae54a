package token

import "fmt"

type TokenType string

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	IDENT TokenType = "IDENT" // N, Opcode, clog2
	INT   TokenType = "INT"   // 42, 0x1f, 0b1010

	// Bit-vector keywords.
	UN TokenType = "uN"
	SN TokenType = "sN"

	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"
	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	COMMA    TokenType = ","
	COLON    TokenType = ":"
	ARROW    TokenType = "->"

	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	PERCENT  TokenType = "%"
	SHL      TokenType = "<<"
	SHR      TokenType = ">>"

	LT     TokenType = "<"
	LE     TokenType = "<="
	GT     TokenType = ">"
	GE     TokenType = ">="
	EQ     TokenType = "=="
	NOT_EQ TokenType = "!="
)

// Token is a single lexeme with its source position.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Column int
}

// Pos identifies a source location for diagnostics. File may be empty for
// in-memory input (e.g. scenario fields).
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Pos returns the token's position (without file attribution).
func (t Token) Pos() Pos {
	return Pos{Line: t.Line, Column: t.Column}
}

var keywords = map[string]TokenType{
	"uN": UN,
	"sN": SN,
}

// LookupIdent distinguishes keywords from plain identifiers.
func LookupIdent(ident string) TokenType {
	if tt, ok := keywords[ident]; ok {
		return tt
	}
	return IDENT
}
