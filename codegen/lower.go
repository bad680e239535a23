package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir/types"

	"github.com/rfigueror1/decaf-compiler-1/ast"
	"github.com/rfigueror1/decaf-compiler-1/semant"
)

// LowerType maps a Decaf type to its LLVM representation:
//
//	int     i32
//	double  double
//	bool    i1
//	string  i8*
//	void    void
//	null    i8*
//	Class   %Class*
//	Iface   i8*
//	T[]     { i32, T* }*   (length, then elements)
//
// Classes must already be declared. The error type has no representation.
func (g *CodeGenerator) LowerType(t *semant.Type) (types.Type, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot lower a missing type")
	}
	switch t.Kind() {
	case semant.KindInt:
		return types.I32, nil
	case semant.KindDouble:
		return types.Double, nil
	case semant.KindBool:
		return types.I1, nil
	case semant.KindString, semant.KindNull:
		return i8Ptr, nil
	case semant.KindVoid:
		return types.Void, nil
	case semant.KindNamed:
		if st, ok := g.classTypes[t.Name()]; ok {
			return types.NewPointer(st), nil
		}
		if class, ok := g.symbols.LookupClass(t.Name()); ok && class.IsInterface {
			return i8Ptr, nil
		}
		return nil, fmt.Errorf("class %s is not declared", t.Name())
	case semant.KindArray:
		elem, _ := t.Elem()
		elemType, err := g.LowerType(elem)
		if err != nil {
			return nil, fmt.Errorf("element of %s: %w", t, err)
		}
		if elemType.Equal(types.Void) {
			return nil, fmt.Errorf("array %s of void", t)
		}
		return types.NewPointer(types.NewStruct(types.I32, types.NewPointer(elemType))), nil
	}
	return nil, fmt.Errorf("type %s has no LLVM representation", t)
}

// ExprType lowers the type the checker resolved for expr.
func (g *CodeGenerator) ExprType(c *semant.Checker, expr ast.Expression) (types.Type, error) {
	if expr == nil {
		return nil, fmt.Errorf("cannot lower a missing expression")
	}
	t, ok := c.TypeOf(expr)
	if !ok {
		return nil, fmt.Errorf("expression %q has not been checked", expr.TokenLiteral())
	}
	return g.LowerType(t)
}
