package evaluator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silica-lang/silica/internal/parser"
)

func eval(t *testing.T, input string, bindings, widths map[string]int64, fctx *FnContext) (int64, error) {
	t.Helper()
	expr, err := parser.ParseExpr(input)
	require.NoError(t, err, "parsing %q", input)
	return New().EvalToInt(expr, bindings, widths, fctx)
}

func TestArithmetic(t *testing.T) {
	bindings := map[string]int64{"N": 8, "M": 3}

	tests := []struct {
		input string
		want  int64
	}{
		{"42", 42},
		{"N", 8},
		{"N * 2", 16},
		{"N + M", 11},
		{"N - M", 5},
		{"N / M", 2},
		{"N % M", 2},
		{"1 << N", 256},
		{"N >> 1", 4},
		{"-N + 10", 2},
		{"N < M", 0},
		{"N > M", 1},
		{"N <= 8", 1},
		{"N >= 9", 0},
		{"N == 8", 1},
		{"N != 8", 0},
		{"(N + M) * 2", 22},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := eval(t, tt.input, bindings, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltins(t *testing.T) {
	bindings := map[string]int64{"N": 9}

	tests := []struct {
		input string
		want  int64
	}{
		{"clog2(1)", 0},
		{"clog2(2)", 1},
		{"clog2(8)", 3},
		{"clog2(N)", 4},
		{"min(3, 1, 2)", 1},
		{"max(3, 1, 2)", 3},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := eval(t, tt.input, bindings, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegisteredFunc(t *testing.T) {
	expr, err := parser.ParseExpr("double(4)")
	require.NoError(t, err)

	e := New()
	e.Register("double", func(args []int64) (int64, error) { return args[0] * 2, nil })

	got, err := e.EvalToInt(expr, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(8), got)
}

func TestUnboundIdentifier(t *testing.T) {
	_, err := eval(t, "P * 2", map[string]int64{"N": 8}, nil, nil)
	require.Error(t, err)

	var unbound *UnboundIdentifierError
	require.ErrorAs(t, err, &unbound)
	assert.Equal(t, "P", unbound.Name)
}

func TestUnboundCallee(t *testing.T) {
	_, err := eval(t, "width_of(N)", map[string]int64{"N": 8}, nil, nil)
	require.Error(t, err)

	var unbound *UnboundCalleeError
	require.ErrorAs(t, err, &unbound)
	assert.Equal(t, "width_of", unbound.Name)
}

func TestEnclosingBindingsFallback(t *testing.T) {
	fctx := &FnContext{
		Module:   "examples",
		Function: "caller",
		Bindings: map[string]int64{"W": 16},
	}
	got, err := eval(t, "W + 1", map[string]int64{}, nil, fctx)
	require.NoError(t, err)
	assert.Equal(t, int64(17), got)

	// Local bindings shadow the enclosing call's.
	got, err = eval(t, "W", map[string]int64{"W": 4}, nil, fctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got)
}

func TestWidthMasking(t *testing.T) {
	bindings := map[string]int64{"N": 0x1ff}
	widths := map[string]int64{"N": 8}

	got, err := eval(t, "N", bindings, widths, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0xff), got)

	// No declared width leaves the value untouched.
	got, err = eval(t, "N", bindings, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0x1ff), got)
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"division_by_zero", "8 / 0"},
		{"modulo_by_zero", "8 % 0"},
		{"shift_out_of_range", "1 << 64"},
		{"negative_shift", "1 << (0 - 1)"},
		{"clog2_negative", "clog2(0 - 4)"},
		{"clog2_arity", "clog2(1, 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eval(t, tt.input, nil, nil, nil)
			require.Error(t, err)

			// Real evaluation failures must not look like the deferred
			// "not yet resolvable" class.
			var evalErr *EvalError
			assert.True(t, errors.As(err, &evalErr), "want *EvalError, got %T: %v", err, err)
			var unboundIdent *UnboundIdentifierError
			assert.False(t, errors.As(err, &unboundIdent))
		})
	}
}
