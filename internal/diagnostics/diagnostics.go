// Package diagnostics defines the typed, positional errors the type
// instantiation engine returns. Every failure is terminal to the current
// instantiation attempt; rendering is left to the caller.
package diagnostics

import (
	"errors"
	"fmt"

	"github.com/silica-lang/silica/internal/token"
)

type Code string

const (
	ArityMismatch          Code = "arity-mismatch"
	ShapeMismatch          Code = "shape-mismatch"
	NominalMismatch        Code = "nominal-mismatch"
	ConflictingBinding     Code = "conflicting-binding"
	ConstraintViolation    Code = "constraint-violation"
	PostResolutionMismatch Code = "post-resolution-mismatch"
	Unimplemented          Code = "unimplemented"
	Internal               Code = "internal"
)

// Diagnostic is a typed error carrying the call-site position it was raised
// for. Callers classify with errors.As plus the Code field.
type Diagnostic struct {
	Code Code
	Pos  token.Pos
	Msg  string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Code, d.Msg)
}

// CodeOf extracts the diagnostic code from an error, or "" when the error is
// not a Diagnostic.
func CodeOf(err error) Code {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d.Code
	}
	return ""
}

func NewArityMismatch(pos token.Pos, want, got int) *Diagnostic {
	return &Diagnostic{
		Code: ArityMismatch,
		Pos:  pos,
		Msg:  fmt.Sprintf("expected %d parameter(s) but got %d argument(s)", want, got),
	}
}

func NewShapeMismatch(pos token.Pos, format string, args ...any) *Diagnostic {
	return &Diagnostic{Code: ShapeMismatch, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func NewNominalMismatch(pos token.Pos, format string, args ...any) *Diagnostic {
	return &Diagnostic{Code: NominalMismatch, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func NewConflictingBinding(pos token.Pos, name string, seen, got int64) *Diagnostic {
	return &Diagnostic{
		Code: ConflictingBinding,
		Pos:  pos,
		Msg: fmt.Sprintf("parametric value %s was bound to different values at different places in invocation; saw: %d; then: %d",
			name, seen, got),
	}
}

func NewConstraintViolation(pos token.Pos, format string, args ...any) *Diagnostic {
	return &Diagnostic{Code: ConstraintViolation, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func NewPostResolutionMismatch(pos token.Pos, formal, actual string) *Diagnostic {
	return &Diagnostic{
		Code: PostResolutionMismatch,
		Pos:  pos,
		Msg:  fmt.Sprintf("mismatch between parameter and argument types after instantiation: %s vs %s", formal, actual),
	}
}

func NewUnimplemented(pos token.Pos, what string) *Diagnostic {
	return &Diagnostic{Code: Unimplemented, Pos: pos, Msg: what + " is not implemented"}
}

func NewInternal(pos token.Pos, format string, args ...any) *Diagnostic {
	return &Diagnostic{Code: Internal, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
