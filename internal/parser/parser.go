// Package parser turns type-annotation and constraint-expression text into
// typesystem types and ast expressions. The grammar is deliberately small:
//
//	Type    := Primary Suffix*
//	Primary := "uN" "[" Dim "]" | "sN" "[" Dim "]"
//	         | "(" Type ("," Type)* ")"
//	         | IDENT                      // struct or enum reference
//	Suffix  := "[" Dim "]"                // array of the preceding type
//	Dim     := INT | IDENT                // concrete or parametric
//
// Constraint expressions use ordinary precedence climbing over
// == != < <= > >= << >> + - * / % with unary minus, calls and parens.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/silica-lang/silica/internal/ast"
	"github.com/silica-lang/silica/internal/lexer"
	"github.com/silica-lang/silica/internal/token"
	"github.com/silica-lang/silica/internal/typesystem"
)

// Scope resolves struct and enum names referenced by type annotations.
type Scope struct {
	structs map[string]*StructEntry
	enums   map[string]*ast.EnumDecl
}

// StructEntry pairs a struct declaration with its member types (members are
// declared separately from the nominal identity so annotations can reference
// the struct by name alone).
type StructEntry struct {
	Decl    *ast.StructDecl
	Members []typesystem.ConcreteType
}

func NewScope() *Scope {
	return &Scope{
		structs: map[string]*StructEntry{},
		enums:   map[string]*ast.EnumDecl{},
	}
}

func (s *Scope) AddStruct(decl *ast.StructDecl, members []typesystem.ConcreteType) {
	s.structs[decl.Name] = &StructEntry{Decl: decl, Members: members}
}

func (s *Scope) AddEnum(decl *ast.EnumDecl) {
	s.enums[decl.Name] = decl
}

func (s *Scope) Struct(name string) (*StructEntry, bool) {
	e, ok := s.structs[name]
	return e, ok
}

func (s *Scope) Enum(name string) (*ast.EnumDecl, bool) {
	d, ok := s.enums[name]
	return d, ok
}

// Parser is a recursive-descent parser over the lexer's token stream.
type Parser struct {
	l     *lexer.Lexer
	scope *Scope

	curToken  token.Token
	peekToken token.Token
}

func New(input string, scope *Scope) *Parser {
	if scope == nil {
		scope = NewScope()
	}
	p := &Parser{l: lexer.New(input), scope: scope}
	// Prime curToken and peekToken.
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) expect(tt token.TokenType) error {
	if p.curToken.Type != tt {
		return fmt.Errorf("expected %q, got %q at %d:%d", tt, p.curToken.Lexeme, p.curToken.Line, p.curToken.Column)
	}
	p.nextToken()
	return nil
}

// ParseType parses a single type annotation and requires the whole input to
// be consumed.
func ParseType(input string, scope *Scope) (typesystem.ConcreteType, error) {
	p := New(input, scope)
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != token.EOF {
		return nil, fmt.Errorf("unexpected trailing input at %q", p.curToken.Lexeme)
	}
	return t, nil
}

// ParseExpr parses a single constraint expression and requires the whole
// input to be consumed.
func ParseExpr(input string) (ast.Expression, error) {
	p := New(input, nil)
	e, err := p.parseExpr(lowestPrec)
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != token.EOF {
		return nil, fmt.Errorf("unexpected trailing input at %q", p.curToken.Lexeme)
	}
	return e, nil
}

func (p *Parser) parseType() (typesystem.ConcreteType, error) {
	t, err := p.parsePrimaryType()
	if err != nil {
		return nil, err
	}
	// Array suffixes bind left to right: uN[8][4][2] is a 2-array of
	// 4-arrays of uN[8].
	for p.curToken.Type == token.LBRACKET {
		p.nextToken()
		dim, err := p.parseDim()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		t = &typesystem.ArrayType{Element: t, Size: dim}
	}
	return t, nil
}

func (p *Parser) parsePrimaryType() (typesystem.ConcreteType, error) {
	switch p.curToken.Type {
	case token.UN, token.SN:
		signed := p.curToken.Type == token.SN
		p.nextToken()
		if err := p.expect(token.LBRACKET); err != nil {
			return nil, err
		}
		dim, err := p.parseDim()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		return &typesystem.BitsType{Signed: signed, Size: dim}, nil

	case token.LPAREN:
		p.nextToken()
		var members []typesystem.ConcreteType
		for p.curToken.Type != token.RPAREN {
			m, err := p.parseType()
			if err != nil {
				return nil, err
			}
			members = append(members, m)
			if p.curToken.Type != token.COMMA {
				break
			}
			p.nextToken()
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return &typesystem.TupleType{Members: members}, nil

	case token.IDENT:
		name := p.curToken.Lexeme
		p.nextToken()
		if entry, ok := p.scope.Struct(name); ok {
			return &typesystem.TupleType{Members: entry.Members, Nominal: entry.Decl}, nil
		}
		if decl, ok := p.scope.Enum(name); ok {
			return &typesystem.EnumType{Nominal: decl, Size: typesystem.ConcreteDim{Value: decl.Width}}, nil
		}
		return nil, fmt.Errorf("unknown type name: %s", name)
	}

	return nil, fmt.Errorf("unexpected token %q in type annotation", p.curToken.Lexeme)
}

// parseDim parses one dimension: an integer literal or a parametric name.
// More complex dimension expressions are not bindable by the engine and are
// rejected here rather than failing obscurely later.
func (p *Parser) parseDim() (typesystem.Dim, error) {
	switch p.curToken.Type {
	case token.INT:
		value, err := parseIntLexeme(p.curToken.Lexeme)
		if err != nil {
			return nil, err
		}
		p.nextToken()
		return typesystem.ConcreteDim{Value: value}, nil
	case token.IDENT:
		ident := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
		p.nextToken()
		return typesystem.SymbolicDim{Name: ident.Value, Expr: ident}, nil
	}
	return nil, fmt.Errorf("dimension must be an integer or a parametric name, got %q", p.curToken.Lexeme)
}

const (
	lowestPrec = iota
	equalityPrec
	relationalPrec
	shiftPrec
	sumPrec
	productPrec
)

var precedences = map[token.TokenType]int{
	token.EQ:       equalityPrec,
	token.NOT_EQ:   equalityPrec,
	token.LT:       relationalPrec,
	token.LE:       relationalPrec,
	token.GT:       relationalPrec,
	token.GE:       relationalPrec,
	token.SHL:      shiftPrec,
	token.SHR:      shiftPrec,
	token.PLUS:     sumPrec,
	token.MINUS:    sumPrec,
	token.ASTERISK: productPrec,
	token.SLASH:    productPrec,
	token.PERCENT:  productPrec,
}

func (p *Parser) parseExpr(minPrec int) (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec, ok := precedences[p.curToken.Type]
		if !ok || prec <= minPrec {
			return left, nil
		}
		opTok := p.curToken
		p.nextToken()
		right, err := p.parseExpr(prec)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Token: opTok, Op: string(opTok.Type), Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.curToken.Type == token.MINUS {
		opTok := p.curToken
		p.nextToken()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Token: opTok, Op: "-", Operand: operand}, nil
	}
	return p.parsePrimaryExpr()
}

func (p *Parser) parsePrimaryExpr() (ast.Expression, error) {
	switch p.curToken.Type {
	case token.INT:
		value, err := parseIntLexeme(p.curToken.Lexeme)
		if err != nil {
			return nil, err
		}
		lit := &ast.IntLiteral{Token: p.curToken, Value: value}
		p.nextToken()
		return lit, nil

	case token.IDENT:
		ident := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
		p.nextToken()
		if p.curToken.Type != token.LPAREN {
			return ident, nil
		}
		call := &ast.CallExpr{Token: p.curToken, Callee: ident}
		p.nextToken()
		for p.curToken.Type != token.RPAREN {
			arg, err := p.parseExpr(lowestPrec)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.curToken.Type != token.COMMA {
				break
			}
			p.nextToken()
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return call, nil

	case token.LPAREN:
		p.nextToken()
		e, err := p.parseExpr(lowestPrec)
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	}

	return nil, fmt.Errorf("unexpected token %q in expression", p.curToken.Lexeme)
}

func parseIntLexeme(lexeme string) (int64, error) {
	clean := strings.ReplaceAll(lexeme, "_", "")
	v, err := strconv.ParseInt(clean, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer literal %q", lexeme)
	}
	return v, nil
}
