// Package scenario loads instantiation scenarios from YAML files and
// compiles them into the inputs the instantiation engine consumes: concrete
// formal/argument types, parametric declarations, and explicit bindings.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/silica-lang/silica/internal/ast"
	"github.com/silica-lang/silica/internal/instantiate"
	"github.com/silica-lang/silica/internal/parser"
	"github.com/silica-lang/silica/internal/token"
	"github.com/silica-lang/silica/internal/typesystem"
)

// StructDef declares a named aggregate available to type annotations.
type StructDef struct {
	// Name is the nominal identity; two scenarios declaring the same name
	// still produce distinct declarations.
	Name string `yaml:"name"`

	// Members are type annotations, e.g. ["uN[N]", "uN[8]"].
	Members []string `yaml:"members"`
}

// EnumDef declares a named enum over a fixed-width bit vector.
type EnumDef struct {
	Name   string `yaml:"name"`
	Width  int64  `yaml:"width"`
	Signed bool   `yaml:"signed,omitempty"`
}

// Parametric declares one value-level type parameter of the signature.
type Parametric struct {
	Name string `yaml:"name"`

	// Width is the bit width of the parametric's own type (e.g. 32 for a
	// u32 parametric), used when evaluating constraint expressions.
	Width int64 `yaml:"width"`

	// Expr is an optional constraint expression, e.g. "M * 2".
	Expr string `yaml:"expr,omitempty"`
}

// Scenario is the YAML schema for one instantiation. Exactly one of the two
// modes applies: function instantiation (Function/Params/Return) or struct
// construction (Struct naming an entry of Structs).
type Scenario struct {
	Module   string `yaml:"module"`
	Function string `yaml:"function,omitempty"`

	Structs []StructDef `yaml:"structs,omitempty"`
	Enums   []EnumDef   `yaml:"enums,omitempty"`

	Parametrics []Parametric `yaml:"parametrics,omitempty"`

	Params []string `yaml:"params,omitempty"`
	Return string   `yaml:"return,omitempty"`
	Struct string   `yaml:"struct,omitempty"`

	Args     []string         `yaml:"args"`
	Explicit map[string]int64 `yaml:"explicit,omitempty"`

	path string
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	s.path = path
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks structural consistency before any annotation is parsed.
func (s *Scenario) Validate() error {
	if s.Struct != "" {
		if s.Return != "" || len(s.Params) > 0 {
			return fmt.Errorf("field struct is mutually exclusive with params/return")
		}
		found := false
		for _, sd := range s.Structs {
			if sd.Name == s.Struct {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("field struct names %q but structs declares no such entry", s.Struct)
		}
	} else {
		if s.Return == "" {
			return fmt.Errorf("field return is required for function instantiation")
		}
	}
	seen := map[string]bool{}
	for _, p := range s.Parametrics {
		if p.Name == "" {
			return fmt.Errorf("parametric with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("parametric %q declared twice", p.Name)
		}
		seen[p.Name] = true
		if p.Width <= 0 {
			return fmt.Errorf("parametric %q needs a positive width", p.Name)
		}
	}
	return nil
}

// Mode distinguishes function instantiation from struct construction.
type Mode int

const (
	FunctionMode Mode = iota
	StructMode
)

// Compiled holds the engine-ready form of a scenario.
type Compiled struct {
	Pos  token.Pos
	Mode Mode

	Module   string
	Function string

	FnType      *typesystem.FunctionType // FunctionMode
	StructType  *typesystem.TupleType    // StructMode
	MemberTypes []typesystem.ConcreteType

	ArgTypes    []typesystem.ConcreteType
	Parametrics []*ast.ParametricDecl
	Explicit    map[string]int64
}

// Compile parses every annotation and expression in the scenario. Struct and
// enum declarations are brought into scope in order, so later declarations
// may reference earlier ones.
func (s *Scenario) Compile() (*Compiled, error) {
	scope := parser.NewScope()
	for _, ed := range s.Enums {
		scope.AddEnum(&ast.EnumDecl{Name: ed.Name, Width: ed.Width, Signed: ed.Signed})
	}
	for _, sd := range s.Structs {
		members := make([]typesystem.ConcreteType, len(sd.Members))
		for i, annot := range sd.Members {
			t, err := parser.ParseType(annot, scope)
			if err != nil {
				return nil, fmt.Errorf("struct %s member %d: %w", sd.Name, i, err)
			}
			members[i] = t
		}
		scope.AddStruct(&ast.StructDecl{Name: sd.Name}, members)
	}

	c := &Compiled{
		Pos:      token.Pos{File: s.path, Line: 1, Column: 1},
		Module:   s.Module,
		Function: s.Function,
		Explicit: s.Explicit,
	}

	for _, p := range s.Parametrics {
		decl := &ast.ParametricDecl{Name: p.Name, Width: p.Width}
		if p.Expr != "" {
			expr, err := parser.ParseExpr(p.Expr)
			if err != nil {
				return nil, fmt.Errorf("parametric %s constraint: %w", p.Name, err)
			}
			decl.Expr = expr
		}
		c.Parametrics = append(c.Parametrics, decl)
	}

	for i, annot := range s.Args {
		t, err := parser.ParseType(annot, scope)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		c.ArgTypes = append(c.ArgTypes, t)
	}

	if s.Struct != "" {
		c.Mode = StructMode
		entry, _ := scope.Struct(s.Struct)
		c.StructType = &typesystem.TupleType{Members: entry.Members, Nominal: entry.Decl}
		c.MemberTypes = entry.Members
		return c, nil
	}

	c.Mode = FunctionMode
	params := make([]typesystem.ConcreteType, len(s.Params))
	for i, annot := range s.Params {
		t, err := parser.ParseType(annot, scope)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		params[i] = t
	}
	ret, err := parser.ParseType(s.Return, scope)
	if err != nil {
		return nil, fmt.Errorf("return type: %w", err)
	}
	c.FnType = &typesystem.FunctionType{Params: params, Return: ret}
	return c, nil
}

// Run instantiates the compiled scenario with the given evaluator.
func (c *Compiled) Run(eval instantiate.ExprEvaluator) (*instantiate.TypeAndBindings, error) {
	ctx := &instantiate.Context{
		Module:   c.Module,
		Function: c.Function,
		Eval:     eval,
	}
	if c.Mode == StructMode {
		return instantiate.InstantiateStruct(c.Pos, c.StructType, c.ArgTypes, c.MemberTypes, ctx, c.Parametrics)
	}
	return instantiate.InstantiateFunction(c.Pos, c.FnType, c.ArgTypes, ctx, c.Parametrics, c.Explicit)
}
