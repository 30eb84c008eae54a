package ast

import (
	"fmt"
	"strings"

	"github.com/silica-lang/silica/internal/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	String() string
}

// Expression is a Node usable as a constraint or dimension expression.
// The instantiation engine treats these as opaque handles and hands them to
// the evaluator; only String() is used for diagnostics.
type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
}

// Identifier refers to a parametric name, e.g. N.
type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()       {}
func (i *Identifier) TokenLiteral() string  { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token { return i.Token }
func (i *Identifier) String() string        { return i.Value }

// IntLiteral is an integer literal, e.g. 32 or 0x20.
type IntLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntLiteral) expressionNode()       {}
func (il *IntLiteral) TokenLiteral() string  { return il.Token.Lexeme }
func (il *IntLiteral) GetToken() token.Token { return il.Token }
func (il *IntLiteral) String() string        { return fmt.Sprintf("%d", il.Value) }

// BinaryExpr is an infix expression, e.g. M * 2 or N + 1.
type BinaryExpr struct {
	Token token.Token // the operator token
	Op    string
	Left  Expression
	Right Expression
}

func (be *BinaryExpr) expressionNode()       {}
func (be *BinaryExpr) TokenLiteral() string  { return be.Token.Lexeme }
func (be *BinaryExpr) GetToken() token.Token { return be.Token }
func (be *BinaryExpr) String() string {
	return fmt.Sprintf("%s %s %s", be.Left.String(), be.Op, be.Right.String())
}

// UnaryExpr is a prefix expression, e.g. -N.
type UnaryExpr struct {
	Token   token.Token // the operator token
	Op      string
	Operand Expression
}

func (ue *UnaryExpr) expressionNode()       {}
func (ue *UnaryExpr) TokenLiteral() string  { return ue.Token.Lexeme }
func (ue *UnaryExpr) GetToken() token.Token { return ue.Token }
func (ue *UnaryExpr) String() string        { return ue.Op + ue.Operand.String() }

// CallExpr invokes a named function inside a constraint, e.g. clog2(N).
type CallExpr struct {
	Token  token.Token // the '(' token
	Callee *Identifier
	Args   []Expression
}

func (ce *CallExpr) expressionNode()       {}
func (ce *CallExpr) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *CallExpr) GetToken() token.Token { return ce.Token }
func (ce *CallExpr) String() string {
	args := make([]string, len(ce.Args))
	for i, a := range ce.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", ce.Callee.Value, strings.Join(args, ", "))
}

// StructDecl declares a named aggregate. Its pointer identity is the nominal
// identity of every tuple type built from it: two structurally identical
// structs declared separately are distinct types.
type StructDecl struct {
	Token token.Token
	Name  string
}

func (sd *StructDecl) TokenLiteral() string { return sd.Token.Lexeme }
func (sd *StructDecl) String() string       { return sd.Name }

// EnumDecl declares a named enum with a fixed underlying width. As with
// StructDecl, pointer identity is nominal identity.
type EnumDecl struct {
	Token  token.Token
	Name   string
	Width  int64
	Signed bool
}

func (ed *EnumDecl) TokenLiteral() string { return ed.Token.Lexeme }
func (ed *EnumDecl) String() string       { return ed.Name }

// ParametricDecl declares one value-level type parameter of a formal
// signature: its name, the bit width of its own type (used when evaluating
// constraint expressions), and an optional constraint expression.
// Declaration order matters: constraints are verified in this order.
type ParametricDecl struct {
	Token token.Token
	Name  string
	Width int64
	Expr  Expression // nil when the parametric carries no constraint
}

func (pd *ParametricDecl) TokenLiteral() string { return pd.Token.Lexeme }
func (pd *ParametricDecl) String() string {
	if pd.Expr == nil {
		return fmt.Sprintf("%s: uN[%d]", pd.Name, pd.Width)
	}
	return fmt.Sprintf("%s: uN[%d] = %s", pd.Name, pd.Width, pd.Expr.String())
}
