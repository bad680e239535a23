package semant

import (
	"github.com/rfigueror1/decaf-compiler-1/ast"
	"github.com/rfigueror1/decaf-compiler-1/diagnostic"
	"github.com/rfigueror1/decaf-compiler-1/lexer"
)

func (c *Checker) checkNew(e *ast.NewExpr) *Type {
	if e.Class == nil || e.Class.Name == nil {
		c.fail("New without a class name")
	}
	name := e.Class.Name.Value
	class, ok := c.resolver.LookupClass(name)
	if !ok || class.IsInterface {
		c.report(e.Class, diagnostic.UndeclaredClass, nil, "No declaration found for class '%s'", name)
		return Error
	}
	return class.Type()
}

// checkNewArray always yields an array type, even when the size or the
// element type is wrong, so enclosing expressions keep checking.
func (c *Checker) checkNewArray(e *ast.NewArrayExpr, ctx *Context) *Type {
	if isNilNode(e.Size) {
		c.fail("NewArray without size")
	}
	st := c.check(e.Size, ctx)
	if !st.IsError() && !st.Equal(Int) {
		c.report(e.Size, diagnostic.TypeMismatch, []*Type{st}, "Size for NewArray must be an integer, not %s", st)
	}
	return c.arrayOf(e.Elem)
}

// arrayOf resolves an element type and wraps it in an array. A void element
// is reported but the array type is still returned.
func (c *Checker) arrayOf(elemRef ast.TypeRef) *Type {
	elem := c.resolveTypeRef(elemRef)
	if elem.Equal(Void) {
		c.report(elemRef, diagnostic.TypeMismatch, []*Type{elem}, "Array elements cannot have type %s", elem)
	}
	return NewArray(elem)
}

// resolveTypeRef turns a written type into a Type. An unknown class name is
// reported but still yields a named type.
func (c *Checker) resolveTypeRef(ref ast.TypeRef) *Type {
	if isNilNode(ref) {
		c.fail("missing type")
	}
	switch r := ref.(type) {
	case *ast.PrimitiveType:
		t, ok := Primitive(r.Token.Literal)
		if !ok {
			c.fail("unknown primitive type %q", r.Token.Literal)
		}
		return t
	case *ast.NamedType:
		if r.Name == nil {
			c.fail("named type without a name")
		}
		if _, ok := c.resolver.LookupClass(r.Name.Value); !ok {
			c.report(r, diagnostic.UndeclaredClass, nil, "No declaration found for class '%s'", r.Name.Value)
		}
		return NewNamed(r.Name.Value)
	case *ast.ArrayType:
		return c.arrayOf(r.Elem)
	default:
		c.fail("unknown type reference %T", ref)
	}
	return nil
}

func (c *Checker) checkPostfix(e *ast.PostfixExpr, ctx *Context) *Type {
	c.requireOp(e.Op, "postfix expression", lexer.INC, lexer.DEC)
	if isNilNode(e.Operand) {
		c.fail("postfix expression without operand")
	}
	ot := c.check(e.Operand, ctx)
	if ot.IsError() {
		return Error
	}

	if _, ok := e.Operand.(ast.LValue); !ok {
		c.report(e, diagnostic.TypeMismatch, []*Type{ot}, "Operand of %s must be a variable", e.Op)
		return Error
	}
	if !c.facts.IsNumeric(ot) {
		c.report(e, diagnostic.TypeMismatch, []*Type{ot}, "Incompatible operand: %s %s", ot, e.Op)
		return Error
	}
	return ot
}
