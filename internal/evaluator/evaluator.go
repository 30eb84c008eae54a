// Package evaluator executes constraint expressions over parametric
// bindings, producing int64 results for the instantiation engine.
//
// Failures the engine must treat as "not yet resolvable" are reported with
// dedicated error types (UnboundIdentifierError, UnboundCalleeError) so that
// callers classify them structurally via errors.As rather than by matching
// on message text.
package evaluator

import (
	"fmt"
	"math/bits"

	"github.com/silica-lang/silica/internal/ast"
)

// UnboundIdentifierError reports an identifier with no binding yet. During
// constraint verification this means too few bindings have accumulated to
// evaluate the expression on this pass, not that the expression is wrong.
type UnboundIdentifierError struct {
	Name string
}

func (e *UnboundIdentifierError) Error() string {
	return fmt.Sprintf("could not find bindings entry for identifier: %s", e.Name)
}

// UnboundCalleeError reports a call to a function the evaluator has no
// binding for. Like UnboundIdentifierError it is a deferred-not-fatal
// condition for constraint verification.
type UnboundCalleeError struct {
	Name string
}

func (e *UnboundCalleeError) Error() string {
	return fmt.Sprintf("could not find callee bindings for: %s", e.Name)
}

// EvalError is any other evaluation failure: bad arithmetic, unknown
// operator, malformed expression. Never skipped by the verifier.
type EvalError struct {
	Msg string
}

func (e *EvalError) Error() string { return e.Msg }

func evalErrorf(format string, args ...any) *EvalError {
	return &EvalError{Msg: fmt.Sprintf(format, args...)}
}

// FnContext is the ambient function-call context a constraint expression is
// evaluated in: the enclosing module and function, plus the symbolic
// bindings of the enclosing call. Identifier lookup falls back to the
// enclosing bindings, which is what lets a constraint reference parametrics
// of the caller.
type FnContext struct {
	Module   string
	Function string
	Bindings map[string]int64
}

// Func is a named function callable from constraint expressions.
type Func func(args []int64) (int64, error)

// Evaluator evaluates constraint expressions against a registry of named
// functions. The zero value is not usable; construct with New.
type Evaluator struct {
	funcs map[string]Func
}

func New() *Evaluator {
	e := &Evaluator{funcs: map[string]Func{}}
	e.Register("clog2", builtinClog2)
	e.Register("min", builtinMin)
	e.Register("max", builtinMax)
	return e
}

// Register makes fn callable from constraint expressions under name.
// Registering an existing name replaces it.
func (e *Evaluator) Register(name string, fn Func) {
	e.funcs[name] = fn
}

// EvalToInt evaluates expr to an integer. Identifiers resolve against
// bindings first, then against the enclosing call's bindings in fctx; the
// result of an identifier lookup is masked to the identifier's declared
// width when widths carries an entry for it.
func (e *Evaluator) EvalToInt(expr ast.Expression, bindings map[string]int64, widths map[string]int64, fctx *FnContext) (int64, error) {
	switch expr := expr.(type) {
	case *ast.IntLiteral:
		return expr.Value, nil

	case *ast.Identifier:
		v, ok := bindings[expr.Value]
		if !ok && fctx != nil {
			v, ok = fctx.Bindings[expr.Value]
		}
		if !ok {
			return 0, &UnboundIdentifierError{Name: expr.Value}
		}
		return maskToWidth(v, widths[expr.Value]), nil

	case *ast.UnaryExpr:
		operand, err := e.EvalToInt(expr.Operand, bindings, widths, fctx)
		if err != nil {
			return 0, err
		}
		switch expr.Op {
		case "-":
			return -operand, nil
		default:
			return 0, evalErrorf("unknown unary operator: %s", expr.Op)
		}

	case *ast.BinaryExpr:
		lhs, err := e.EvalToInt(expr.Left, bindings, widths, fctx)
		if err != nil {
			return 0, err
		}
		rhs, err := e.EvalToInt(expr.Right, bindings, widths, fctx)
		if err != nil {
			return 0, err
		}
		return applyBinary(expr.Op, lhs, rhs)

	case *ast.CallExpr:
		fn, ok := e.funcs[expr.Callee.Value]
		if !ok {
			return 0, &UnboundCalleeError{Name: expr.Callee.Value}
		}
		args := make([]int64, len(expr.Args))
		for i, arg := range expr.Args {
			v, err := e.EvalToInt(arg, bindings, widths, fctx)
			if err != nil {
				return 0, err
			}
			args[i] = v
		}
		return fn(args)
	}

	return 0, evalErrorf("cannot evaluate expression: %s", expr.String())
}

func applyBinary(op string, lhs, rhs int64) (int64, error) {
	switch op {
	case "+":
		return lhs + rhs, nil
	case "-":
		return lhs - rhs, nil
	case "*":
		return lhs * rhs, nil
	case "/":
		if rhs == 0 {
			return 0, evalErrorf("division by zero: %d / %d", lhs, rhs)
		}
		return lhs / rhs, nil
	case "%":
		if rhs == 0 {
			return 0, evalErrorf("modulo by zero: %d %% %d", lhs, rhs)
		}
		return lhs % rhs, nil
	case "<<":
		if rhs < 0 || rhs >= 64 {
			return 0, evalErrorf("shift amount out of range: %d", rhs)
		}
		return lhs << uint(rhs), nil
	case ">>":
		if rhs < 0 || rhs >= 64 {
			return 0, evalErrorf("shift amount out of range: %d", rhs)
		}
		return lhs >> uint(rhs), nil
	case "<":
		return boolToInt(lhs < rhs), nil
	case "<=":
		return boolToInt(lhs <= rhs), nil
	case ">":
		return boolToInt(lhs > rhs), nil
	case ">=":
		return boolToInt(lhs >= rhs), nil
	case "==":
		return boolToInt(lhs == rhs), nil
	case "!=":
		return boolToInt(lhs != rhs), nil
	}
	return 0, evalErrorf("unknown binary operator: %s", op)
}

// maskToWidth truncates v to the low w bits. A width of zero (no declared
// width) or >= 64 leaves the value untouched.
func maskToWidth(v, w int64) int64 {
	if w <= 0 || w >= 64 {
		return v
	}
	return v & ((1 << uint(w)) - 1)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func builtinClog2(args []int64) (int64, error) {
	if len(args) != 1 {
		return 0, evalErrorf("clog2 expects 1 argument, got %d", len(args))
	}
	n := args[0]
	if n < 0 {
		return 0, evalErrorf("clog2 of negative value: %d", n)
	}
	if n <= 1 {
		return 0, nil
	}
	return int64(bits.Len64(uint64(n - 1))), nil
}

func builtinMin(args []int64) (int64, error) {
	if len(args) == 0 {
		return 0, evalErrorf("min expects at least 1 argument")
	}
	m := args[0]
	for _, v := range args[1:] {
		if v < m {
			m = v
		}
	}
	return m, nil
}

func builtinMax(args []int64) (int64, error) {
	if len(args) == 0 {
		return 0, evalErrorf("max expects at least 1 argument")
	}
	m := args[0]
	for _, v := range args[1:] {
		if v > m {
			m = v
		}
	}
	return m, nil
}
