package typesystem

import (
	"fmt"
	"strings"

	"github.com/silica-lang/silica/internal/ast"
)

// Dim is a type dimension: a bit width or an array length. It is either a
// concrete integer or a symbolic reference to a parametric name that the
// instantiation engine must bind at each call site.
type Dim interface {
	dimNode()
	String() string
}

// ConcreteDim is a fixed integer dimension.
type ConcreteDim struct {
	Value int64
}

func (d ConcreteDim) dimNode()       {}
func (d ConcreteDim) String() string { return fmt.Sprintf("%d", d.Value) }

// SymbolicDim references a parametric name, e.g. the N in uN[N]. Expr is the
// opaque expression handle carried for diagnostics; the engine binds by Name.
type SymbolicDim struct {
	Name string
	Expr ast.Expression
}

func (d SymbolicDim) dimNode()       {}
func (d SymbolicDim) String() string { return d.Name }

// DimEqual reports whether two dimensions are equal. Symbolic dimensions
// compare by name, not by expression handle.
func DimEqual(a, b Dim) bool {
	switch a := a.(type) {
	case ConcreteDim:
		b, ok := b.(ConcreteDim)
		return ok && a.Value == b.Value
	case SymbolicDim:
		b, ok := b.(SymbolicDim)
		return ok && a.Name == b.Name
	}
	return false
}

// ConcreteType is the closed set of type shapes the instantiation engine
// matches over. Values are immutable once constructed: substitution produces
// new types via MapSize, never mutation in place.
type ConcreteType interface {
	typeNode()
	String() string

	// MapSize returns a copy of the type with f applied to every dimension,
	// outermost structure preserved. The resolver uses it to substitute
	// symbolic dimensions with bound integers.
	MapSize(f func(Dim) (Dim, error)) (ConcreteType, error)
}

// BitsType is a fixed-width bit vector, uN[w] or sN[w].
type BitsType struct {
	Signed bool
	Size   Dim
}

func (t *BitsType) typeNode() {}
func (t *BitsType) String() string {
	if t.Signed {
		return fmt.Sprintf("sN[%s]", t.Size)
	}
	return fmt.Sprintf("uN[%s]", t.Size)
}

func (t *BitsType) MapSize(f func(Dim) (Dim, error)) (ConcreteType, error) {
	size, err := f(t.Size)
	if err != nil {
		return nil, err
	}
	return &BitsType{Signed: t.Signed, Size: size}, nil
}

// UBits is a convenience constructor for an unsigned bits type of fixed
// width, used mostly in diagnostics.
func UBits(width int64) *BitsType {
	return &BitsType{Signed: false, Size: ConcreteDim{Value: width}}
}

// EnumType is a named enum over an underlying bit vector. Nominal identity
// is the identity of the originating declaration.
type EnumType struct {
	Nominal *ast.EnumDecl
	Size    Dim
}

func (t *EnumType) typeNode()      {}
func (t *EnumType) String() string { return t.Nominal.Name }

func (t *EnumType) MapSize(f func(Dim) (Dim, error)) (ConcreteType, error) {
	size, err := f(t.Size)
	if err != nil {
		return nil, err
	}
	return &EnumType{Nominal: t.Nominal, Size: size}, nil
}

// TupleType is an ordered aggregate. Nominal is nil for anonymous tuples;
// for struct types it is the originating declaration, and two tuples with
// identical members but different declarations are distinct types.
type TupleType struct {
	Members []ConcreteType
	Nominal *ast.StructDecl
}

func (t *TupleType) typeNode() {}
func (t *TupleType) String() string {
	members := make([]string, len(t.Members))
	for i, m := range t.Members {
		members[i] = m.String()
	}
	body := "(" + strings.Join(members, ", ") + ")"
	if t.Nominal != nil {
		return t.Nominal.Name + " " + body
	}
	return body
}

func (t *TupleType) MapSize(f func(Dim) (Dim, error)) (ConcreteType, error) {
	members := make([]ConcreteType, len(t.Members))
	for i, m := range t.Members {
		mapped, err := m.MapSize(f)
		if err != nil {
			return nil, err
		}
		members[i] = mapped
	}
	return &TupleType{Members: members, Nominal: t.Nominal}, nil
}

// ArrayType is a fixed-length array. Size is the element count.
type ArrayType struct {
	Element ConcreteType
	Size    Dim
}

func (t *ArrayType) typeNode() {}
func (t *ArrayType) String() string {
	return fmt.Sprintf("%s[%s]", t.Element, t.Size)
}

func (t *ArrayType) MapSize(f func(Dim) (Dim, error)) (ConcreteType, error) {
	elem, err := t.Element.MapSize(f)
	if err != nil {
		return nil, err
	}
	size, err := f(t.Size)
	if err != nil {
		return nil, err
	}
	return &ArrayType{Element: elem, Size: size}, nil
}

// FunctionType is a function signature: ordered parameters and a return type.
type FunctionType struct {
	Params []ConcreteType
	Return ConcreteType
}

func (t *FunctionType) typeNode() {}
func (t *FunctionType) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), t.Return)
}

func (t *FunctionType) MapSize(f func(Dim) (Dim, error)) (ConcreteType, error) {
	params := make([]ConcreteType, len(t.Params))
	for i, p := range t.Params {
		mapped, err := p.MapSize(f)
		if err != nil {
			return nil, err
		}
		params[i] = mapped
	}
	ret, err := t.Return.MapSize(f)
	if err != nil {
		return nil, err
	}
	return &FunctionType{Params: params, Return: ret}, nil
}

// Equal reports full structural equality, including dimensions and nominal
// identity. Two named aggregates are equal only when built from the same
// declaration.
func Equal(a, b ConcreteType) bool {
	switch a := a.(type) {
	case *BitsType:
		b, ok := b.(*BitsType)
		return ok && a.Signed == b.Signed && DimEqual(a.Size, b.Size)
	case *EnumType:
		b, ok := b.(*EnumType)
		return ok && a.Nominal == b.Nominal && DimEqual(a.Size, b.Size)
	case *TupleType:
		b, ok := b.(*TupleType)
		if !ok || a.Nominal != b.Nominal || len(a.Members) != len(b.Members) {
			return false
		}
		for i := range a.Members {
			if !Equal(a.Members[i], b.Members[i]) {
				return false
			}
		}
		return true
	case *ArrayType:
		b, ok := b.(*ArrayType)
		return ok && DimEqual(a.Size, b.Size) && Equal(a.Element, b.Element)
	case *FunctionType:
		b, ok := b.(*FunctionType)
		if !ok || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return Equal(a.Return, b.Return)
	}
	return false
}

// SameKind reports whether two types are the same shape variant, ignoring
// dimensions and members. The instantiators use this as the coarse check
// before structural binding.
func SameKind(a, b ConcreteType) bool {
	switch a.(type) {
	case *BitsType:
		_, ok := b.(*BitsType)
		return ok
	case *EnumType:
		_, ok := b.(*EnumType)
		return ok
	case *TupleType:
		_, ok := b.(*TupleType)
		return ok
	case *ArrayType:
		_, ok := b.(*ArrayType)
		return ok
	case *FunctionType:
		_, ok := b.(*FunctionType)
		return ok
	}
	return false
}

// KindName names a type's shape variant for diagnostics.
func KindName(t ConcreteType) string {
	switch t.(type) {
	case *BitsType:
		return "bits"
	case *EnumType:
		return "enum"
	case *TupleType:
		return "tuple"
	case *ArrayType:
		return "array"
	case *FunctionType:
		return "function"
	}
	return "unknown"
}

// IsConcrete reports whether the type contains no symbolic dimensions. A
// fully resolved type returned to a caller always satisfies this.
func IsConcrete(t ConcreteType) bool {
	concrete := true
	_, _ = t.MapSize(func(d Dim) (Dim, error) {
		if _, ok := d.(SymbolicDim); ok {
			concrete = false
		}
		return d, nil
	})
	return concrete
}
