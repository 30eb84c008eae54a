// Package flatten computes the packed bit layout of a fully resolved type:
// the total bit count and the offset/width of every bits-typed leaf.
//
// Packing follows hardware convention: a tuple's leading member occupies the
// most significant bits, and an array's index-0 element likewise. Offsets
// are reported from bit 0 (least significant).
package flatten

import (
	"fmt"

	"github.com/silica-lang/silica/internal/typesystem"
)

// Field is one bits-typed leaf in the layout. Path is the access path from
// the root, e.g. ".1[2]" for element 2 of the array in tuple member 1.
type Field struct {
	Path   string
	Offset int64
	Width  int64
}

// Layout describes the packed representation of a type.
type Layout struct {
	TotalBits int64
	Fields    []Field
}

// BitCount returns the number of bits the type flattens to. Types with
// unresolved symbolic dimensions and function types cannot be flattened.
func BitCount(t typesystem.ConcreteType) (int64, error) {
	switch t := t.(type) {
	case *typesystem.BitsType:
		return dimValue(t.Size)
	case *typesystem.EnumType:
		return dimValue(t.Size)
	case *typesystem.TupleType:
		var total int64
		for _, m := range t.Members {
			n, err := BitCount(m)
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	case *typesystem.ArrayType:
		elem, err := BitCount(t.Element)
		if err != nil {
			return 0, err
		}
		size, err := dimValue(t.Size)
		if err != nil {
			return 0, err
		}
		return elem * size, nil
	case *typesystem.FunctionType:
		return 0, fmt.Errorf("function type %s has no bit representation", t)
	}
	return 0, fmt.Errorf("cannot flatten type %s", t)
}

// Compute returns the full layout of t.
func Compute(t typesystem.ConcreteType) (*Layout, error) {
	total, err := BitCount(t)
	if err != nil {
		return nil, err
	}
	layout := &Layout{TotalBits: total}
	// Walk from the most significant end downward; high keeps the first
	// unoccupied bit above the current node.
	if err := walk(t, "", total, layout); err != nil {
		return nil, err
	}
	return layout, nil
}

func walk(t typesystem.ConcreteType, path string, high int64, layout *Layout) error {
	switch t := t.(type) {
	case *typesystem.BitsType, *typesystem.EnumType:
		width, err := BitCount(t)
		if err != nil {
			return err
		}
		layout.Fields = append(layout.Fields, Field{Path: path, Offset: high - width, Width: width})
		return nil
	case *typesystem.TupleType:
		for i, m := range t.Members {
			width, err := BitCount(m)
			if err != nil {
				return err
			}
			if err := walk(m, fmt.Sprintf("%s.%d", path, i), high, layout); err != nil {
				return err
			}
			high -= width
		}
		return nil
	case *typesystem.ArrayType:
		size, err := dimValue(t.Size)
		if err != nil {
			return err
		}
		elemWidth, err := BitCount(t.Element)
		if err != nil {
			return err
		}
		for i := int64(0); i < size; i++ {
			if err := walk(t.Element, fmt.Sprintf("%s[%d]", path, i), high, layout); err != nil {
				return err
			}
			high -= elemWidth
		}
		return nil
	}
	return fmt.Errorf("cannot flatten type %s", t)
}

func dimValue(d typesystem.Dim) (int64, error) {
	c, ok := d.(typesystem.ConcreteDim)
	if !ok {
		return 0, fmt.Errorf("dimension %s is not resolved", d)
	}
	if c.Value < 0 {
		return 0, fmt.Errorf("negative dimension %d", c.Value)
	}
	return c.Value, nil
}
