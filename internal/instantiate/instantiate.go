// Package instantiate implements parametric type instantiation: matching a
// formal signature containing value-level type parameters against concrete
// argument types, discovering the integer bound to each parametric name,
// verifying user-written constraint expressions, and producing a fully
// resolved type.
//
// One instantiation owns its binder state exclusively for the call's
// duration; every call site gets a fresh binder and there is no shared or
// global state. The only reentrancy is logical: evaluating a constraint may
// recursively re-enter type checking through the evaluator, as ordinary
// call-stack recursion.
package instantiate

import (
	"errors"

	"github.com/silica-lang/silica/internal/ast"
	"github.com/silica-lang/silica/internal/diagnostics"
	"github.com/silica-lang/silica/internal/evaluator"
	"github.com/silica-lang/silica/internal/token"
	"github.com/silica-lang/silica/internal/typesystem"
)

// SymbolicBindings maps parametric names to the concrete integers observed
// for them during one instantiation.
type SymbolicBindings map[string]int64

func (b SymbolicBindings) clone() SymbolicBindings {
	out := make(SymbolicBindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// TypeAndBindings is the result of a successful instantiation: the resolved
// type with every parametric dimension replaced by its bound integer, plus
// the final bindings. Owned by the caller.
type TypeAndBindings struct {
	Type     typesystem.ConcreteType
	Bindings SymbolicBindings
}

// ExprEvaluator is the external expression evaluator port. Errors must be
// classifiable as "identifier/callee binding not yet available"
// (evaluator.UnboundIdentifierError / evaluator.UnboundCalleeError) versus
// any other evaluation failure.
type ExprEvaluator interface {
	EvalToInt(expr ast.Expression, bindings map[string]int64, widths map[string]int64, fctx *evaluator.FnContext) (int64, error)
}

// Context is the ambient deduction context an instantiation runs in: the
// current module and function, the symbolic bindings of the enclosing call
// (constraint expressions may reference them), and the evaluator.
type Context struct {
	Module    string
	Function  string
	Enclosing SymbolicBindings
	Eval      ExprEvaluator
}

// instantiator holds the per-call binder state: accumulated bindings, the
// declared constraint expressions keyed by name, declared bit widths, and
// the declaration order constraints are verified in.
type instantiator struct {
	pos token.Pos
	ctx *Context

	bindings        SymbolicBindings
	constraintOrder []string
	constraints     map[string]ast.Expression
	bitWidths       map[string]int64
}

func newInstantiator(pos token.Pos, ctx *Context, parametrics []*ast.ParametricDecl, explicit map[string]int64) *instantiator {
	if ctx == nil {
		ctx = &Context{}
	}
	inst := &instantiator{
		pos:         pos,
		ctx:         ctx,
		bindings:    SymbolicBindings{},
		constraints: map[string]ast.Expression{},
		bitWidths:   map[string]int64{},
	}
	for name, value := range explicit {
		inst.bindings[name] = value
	}
	for _, decl := range parametrics {
		inst.constraintOrder = append(inst.constraintOrder, decl.Name)
		inst.bitWidths[decl.Name] = decl.Width
		inst.constraints[decl.Name] = decl.Expr
	}
	return inst
}

// instantiateOneArg runs the per-position pipeline: coarse shape check,
// structural bind, then resolution of the formal type under the bindings
// accumulated so far.
func (inst *instantiator) instantiateOneArg(i int, formal, actual typesystem.ConcreteType) (typesystem.ConcreteType, error) {
	if !typesystem.SameKind(formal, actual) {
		return nil, diagnostics.NewShapeMismatch(inst.pos,
			"parameter %d and argument types are different kinds (%s vs %s)",
			i, typesystem.KindName(formal), typesystem.KindName(actual))
	}
	if err := inst.symbolicBind(formal, actual); err != nil {
		return nil, err
	}
	return inst.resolve(formal)
}

// symbolicBind recursively reconciles the formal type's symbolic dimensions
// against the actual type's concrete ones, recording bindings as it goes.
// The caller has already established that formal and actual are the same
// shape variant at the top level.
func (inst *instantiator) symbolicBind(formal, actual typesystem.ConcreteType) error {
	switch formal := formal.(type) {
	case *typesystem.BitsType:
		actualBits, ok := actual.(*typesystem.BitsType)
		if !ok {
			return diagnostics.NewInternal(inst.pos, "symbolic bind: bits formal against %s actual", typesystem.KindName(actual))
		}
		return inst.bindDims(formal.Size, actualBits.Size, formal, actualBits)

	case *typesystem.EnumType:
		actualEnum, ok := actual.(*typesystem.EnumType)
		if !ok {
			return diagnostics.NewInternal(inst.pos, "symbolic bind: enum formal against %s actual", typesystem.KindName(actual))
		}
		if formal.Nominal != actualEnum.Nominal {
			return diagnostics.NewNominalMismatch(inst.pos,
				"parameter type name: '%s'; argument type name: '%s'",
				formal.Nominal.Name, actualEnum.Nominal.Name)
		}
		// Same enum declaration: reconcile underlying sizes as for bits.
		return inst.bindDims(formal.Size, actualEnum.Size, formal, actualEnum)

	case *typesystem.TupleType:
		actualTuple, ok := actual.(*typesystem.TupleType)
		if !ok {
			return diagnostics.NewInternal(inst.pos, "symbolic bind: tuple formal against %s actual", typesystem.KindName(actual))
		}
		return inst.symbolicBindTuple(formal, actualTuple)

	case *typesystem.ArrayType:
		actualArray, ok := actual.(*typesystem.ArrayType)
		if !ok {
			return diagnostics.NewInternal(inst.pos, "symbolic bind: array formal against %s actual", typesystem.KindName(actual))
		}
		return inst.symbolicBindArray(formal, actualArray)

	case *typesystem.FunctionType:
		return diagnostics.NewUnimplemented(inst.pos, "symbolic binding of function-typed parameters")
	}

	return diagnostics.NewInternal(inst.pos, "unhandled parameter type for symbolic binding: %s", formal)
}

func (inst *instantiator) symbolicBindTuple(formal, actual *typesystem.TupleType) error {
	if formal.Nominal != actual.Nominal {
		return diagnostics.NewNominalMismatch(inst.pos,
			"parameter type name: '%s'; argument type name: '%s'",
			nominalName(formal.Nominal), nominalName(actual.Nominal))
	}
	if len(formal.Members) != len(actual.Members) {
		return diagnostics.NewShapeMismatch(inst.pos,
			"tuple member count mismatch: %d vs %d", len(formal.Members), len(actual.Members))
	}
	for i := range formal.Members {
		if err := inst.symbolicBind(formal.Members[i], actual.Members[i]); err != nil {
			return err
		}
	}
	return nil
}

// Element types are bound first so symbolic dims nested inside them are
// captured before the array's own size dimension is reconciled.
func (inst *instantiator) symbolicBindArray(formal, actual *typesystem.ArrayType) error {
	if err := inst.symbolicBind(formal.Element, actual.Element); err != nil {
		return err
	}
	return inst.bindDims(formal.Size, actual.Size, formal, actual)
}

// bindDims reconciles one formal dimension against the corresponding actual
// dimension. Concrete formal dims carry nothing to bind; actual dims must
// always be concrete since argument types are fully resolved by the caller.
func (inst *instantiator) bindDims(formalDim, actualDim typesystem.Dim, formal, actual typesystem.ConcreteType) error {
	sym, ok := formalDim.(typesystem.SymbolicDim)
	if !ok {
		return nil
	}
	conc, ok := actualDim.(typesystem.ConcreteDim)
	if !ok {
		return diagnostics.NewInternal(inst.pos,
			"argument type %s carries an unresolved dimension %s", actual, actualDim)
	}

	name := sym.Name
	argDim := conc.Value
	if seen, bound := inst.bindings[name]; bound && seen != argDim {
		if expr := inst.constraints[name]; expr != nil {
			return diagnostics.NewConstraintViolation(inst.pos,
				"parametric constraint violated, saw %s = %d; then %s = %s = %d",
				name, seen, name, expr.String(), argDim)
		}
		return diagnostics.NewConflictingBinding(inst.pos, name, seen, argDim)
	}

	inst.bindings[name] = argDim
	return nil
}

// verifyConstraints walks every declared parametric in declaration order and
// evaluates its constraint expression, reconciling the result against any
// value already bound. Evaluation failures caused by a binding that simply
// is not available yet are skipped: a later pass (the caller's
// retry-by-reinstantiation pattern) will see more bindings.
func (inst *instantiator) verifyConstraints() error {
	fctx := &evaluator.FnContext{
		Module:   inst.ctx.Module,
		Function: inst.ctx.Function,
		Bindings: inst.ctx.Enclosing,
	}
	for _, name := range inst.constraintOrder {
		expr := inst.constraints[name]
		if expr == nil { // e.g. <X: u32> carries no constraint
			continue
		}
		if inst.ctx.Eval == nil {
			return diagnostics.NewInternal(inst.pos,
				"constraint %s = %s declared but no expression evaluator configured", name, expr.String())
		}
		result, err := inst.ctx.Eval.EvalToInt(expr, inst.bindings, inst.bitWidths, fctx)
		if err != nil {
			var unboundIdent *evaluator.UnboundIdentifierError
			var unboundCallee *evaluator.UnboundCalleeError
			if errors.As(err, &unboundIdent) || errors.As(err, &unboundCallee) {
				// Not enough bindings accumulated to evaluate this
				// constraint yet.
				continue
			}
			return err
		}
		if seen, bound := inst.bindings[name]; bound {
			if result != seen {
				return diagnostics.NewConstraintViolation(inst.pos,
					"parametric constraint violated, first saw %s = %d; then saw %s = %s = %d",
					name, seen, name, expr.String(), result)
			}
		} else {
			inst.bindings[name] = result
		}
	}
	return nil
}

// resolve verifies constraints and then rewrites t with every symbolic
// dimension replaced by its bound integer. A dimension whose name never got
// bound is left symbolic; downstream consumers surface it as a malformed
// type.
func (inst *instantiator) resolve(t typesystem.ConcreteType) (typesystem.ConcreteType, error) {
	if err := inst.verifyConstraints(); err != nil {
		return nil, err
	}
	return t.MapSize(func(d typesystem.Dim) (typesystem.Dim, error) {
		sym, ok := d.(typesystem.SymbolicDim)
		if !ok {
			return d, nil
		}
		if value, bound := inst.bindings[sym.Name]; bound {
			return typesystem.ConcreteDim{Value: value}, nil
		}
		return d, nil
	})
}

func nominalName(decl *ast.StructDecl) string {
	if decl == nil {
		return "<none>"
	}
	return decl.Name
}

// InstantiateFunction matches argTypes against fnType's parameters, binds
// and verifies the declared parametrics, and returns the resolved return
// type together with the final bindings. explicit carries parametric values
// pinned syntactically at the call site; it may be nil.
func InstantiateFunction(pos token.Pos, fnType *typesystem.FunctionType, argTypes []typesystem.ConcreteType, ctx *Context, parametrics []*ast.ParametricDecl, explicit map[string]int64) (*TypeAndBindings, error) {
	if len(argTypes) != len(fnType.Params) {
		return nil, diagnostics.NewArityMismatch(pos, len(fnType.Params), len(argTypes))
	}
	inst := newInstantiator(pos, ctx, parametrics, explicit)

	// Walk through all the params/args to collect symbolic bindings.
	for i := range argTypes {
		formal := fnType.Params[i]
		actual := argTypes[i]
		resolved, err := inst.instantiateOneArg(i, formal, actual)
		if err != nil {
			return nil, err
		}
		if !typesystem.Equal(resolved, actual) {
			return nil, diagnostics.NewPostResolutionMismatch(pos, resolved.String(), actual.String())
		}
	}

	// Resolve the return type according to the bindings we collected.
	resolved, err := inst.resolve(fnType.Return)
	if err != nil {
		return nil, err
	}
	return &TypeAndBindings{Type: resolved, Bindings: inst.bindings.clone()}, nil
}

// InstantiateStruct matches argTypes against the declared member types of a
// struct under construction and returns the resolved struct type together
// with the final bindings. memberTypes and argTypes are built together by
// the caller and must have equal length.
func InstantiateStruct(pos token.Pos, structType *typesystem.TupleType, argTypes, memberTypes []typesystem.ConcreteType, ctx *Context, parametrics []*ast.ParametricDecl) (*TypeAndBindings, error) {
	if len(argTypes) != len(memberTypes) {
		return nil, diagnostics.NewInternal(pos,
			"struct instantiation: %d member type(s) but %d argument type(s)",
			len(memberTypes), len(argTypes))
	}
	inst := newInstantiator(pos, ctx, parametrics, nil)

	for i := range memberTypes {
		member := memberTypes[i]
		actual := argTypes[i]
		resolved, err := inst.instantiateOneArg(i, member, actual)
		if err != nil {
			return nil, err
		}
		if !typesystem.Equal(resolved, actual) {
			return nil, diagnostics.NewPostResolutionMismatch(pos, resolved.String(), actual.String())
		}
	}

	resolved, err := inst.resolve(structType)
	if err != nil {
		return nil, err
	}
	return &TypeAndBindings{Type: resolved, Bindings: inst.bindings.clone()}, nil
}
