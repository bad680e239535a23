package semant

import (
	"github.com/rfigueror1/decaf-compiler-1/ast"
	"github.com/rfigueror1/decaf-compiler-1/diagnostic"
)

// arrayLength is the one method arrays answer to.
const arrayLength = "length"

func (c *Checker) checkThis(e *ast.This, ctx *Context) *Type {
	class, ok := c.resolver.EnclosingClass(ctx)
	if !ok {
		c.report(e, diagnostic.InvalidThisContext, nil, "'this' is only valid within class scope")
		return Error
	}
	return class.Type()
}

// checkArrayAccess reports a bad subscript without giving up on the access:
// the element type is still known when the base is an array.
func (c *Checker) checkArrayAccess(e *ast.ArrayAccess, ctx *Context) *Type {
	if isNilNode(e.Base) || isNilNode(e.Subscript) {
		c.fail("array access without base or subscript")
	}
	bt := c.check(e.Base, ctx)
	st := c.check(e.Subscript, ctx)

	if !st.IsError() && !st.Equal(Int) {
		c.report(e.Subscript, diagnostic.TypeMismatch, []*Type{st},
			"Array subscript must be an integer, not %s", st)
	}
	if bt.IsError() {
		return Error
	}
	elem, ok := c.facts.ArrayElementType(bt)
	if !ok {
		c.report(e, diagnostic.NotAnArray, []*Type{bt}, "[] can only be applied to arrays, not %s", bt)
		return Error
	}
	return elem
}

func (c *Checker) checkFieldAccess(e *ast.FieldAccess, ctx *Context) *Type {
	if e.Field == nil {
		c.fail("field access without a name")
	}
	switch recv := e.Recv.(type) {
	case *ast.Qualified:
		if recv == nil {
			c.fail("field access with a nil receiver")
		}
		return c.checkQualifiedField(e, recv.Base, ctx)
	case *ast.Unqualified:
		return c.checkUnqualifiedField(e, ctx)
	default:
		c.fail("field access with receiver %T", e.Recv)
	}
	return nil
}

// classOf resolves the class behind a qualified receiver. A nil class means
// a diagnostic was reported (or the base had already failed).
func (c *Checker) classOf(node ast.Node, bt *Type, member string) *Class {
	if bt.IsError() {
		return nil
	}
	if !bt.IsNamed() {
		c.report(node, diagnostic.NotAClass, []*Type{bt}, "%s is not a class type and has no member '%s'", bt, member)
		return nil
	}
	class, ok := c.resolver.LookupClass(bt.Name())
	if !ok {
		c.report(node, diagnostic.UndeclaredClass, []*Type{bt}, "No declaration found for class '%s'", bt)
		return nil
	}
	return class
}

func (c *Checker) checkQualifiedField(e *ast.FieldAccess, base ast.Expression, ctx *Context) *Type {
	if isNilNode(base) {
		c.fail("qualified field access without base")
	}
	bt := c.check(base, ctx)
	class := c.classOf(e, bt, e.Field.Value)
	if class == nil {
		return Error
	}

	ft, ok := c.resolver.LookupField(class, e.Field.Value)
	if !ok {
		c.report(e, diagnostic.UndeclaredField, []*Type{bt}, "%s has no such field '%s'", bt, e.Field.Value)
		return Error
	}
	c.logger.Printf("field %s.%s: %s", bt, e.Field.Value, ft)
	return ft
}

// checkUnqualifiedField resolves a bare name: locals and parameters first,
// then fields of the enclosing class, then globals.
func (c *Checker) checkUnqualifiedField(e *ast.FieldAccess, ctx *Context) *Type {
	name := e.Field.Value
	if t, ok := c.resolver.LookupVariable(name, ctx); ok {
		return t
	}
	if class, ok := c.resolver.EnclosingClass(ctx); ok {
		if ft, ok := c.resolver.LookupField(class, name); ok {
			c.logger.Printf("field this.%s: %s", name, ft)
			return ft
		}
	}
	if t, ok := c.resolver.LookupGlobal(name); ok {
		return t
	}

	c.report(e, diagnostic.UndeclaredIdentifier, nil, "No declaration found for variable '%s'", name)
	return Error
}

func (c *Checker) checkCall(e *ast.Call, ctx *Context) *Type {
	if e.Method == nil {
		c.fail("call without a method name")
	}
	switch recv := e.Recv.(type) {
	case *ast.Qualified:
		if recv == nil {
			c.fail("call with a nil receiver")
		}
		return c.checkQualifiedCall(e, recv.Base, ctx)
	case *ast.Unqualified:
		return c.checkUnqualifiedCall(e, ctx)
	default:
		c.fail("call with receiver %T", e.Recv)
	}
	return nil
}

func (c *Checker) actuals(e *ast.Call, ctx *Context) []*Type {
	types := make([]*Type, len(e.Actuals))
	for i, actual := range e.Actuals {
		types[i] = c.check(actual, ctx)
	}
	return types
}

func (c *Checker) checkQualifiedCall(e *ast.Call, base ast.Expression, ctx *Context) *Type {
	if isNilNode(base) {
		c.fail("qualified call without base")
	}
	bt := c.check(base, ctx)
	args := c.actuals(e, ctx)
	name := e.Method.Value

	if bt.IsArray() {
		if name != arrayLength {
			c.report(e, diagnostic.UndeclaredMethod, []*Type{bt}, "%s has no such method '%s'", bt, name)
			return Error
		}
		if len(args) != 0 {
			c.report(e, diagnostic.WrongArgumentCount, nil,
				"Function '%s' expects 0 arguments but %d given", name, len(args))
			return Error
		}
		return Int
	}

	class := c.classOf(e, bt, name)
	if class == nil {
		return Error
	}
	method, ok := c.resolver.LookupMethod(class, name)
	if !ok {
		c.report(e, diagnostic.UndeclaredMethod, []*Type{bt}, "%s has no such method '%s'", bt, name)
		return Error
	}
	c.logger.Printf("call %s.%s resolved in %s", bt, name, method.DefiningClass)
	return c.checkSignature(e, method, args)
}

// checkUnqualifiedCall resolves a bare call against the enclosing class,
// then against global functions.
func (c *Checker) checkUnqualifiedCall(e *ast.Call, ctx *Context) *Type {
	args := c.actuals(e, ctx)
	name := e.Method.Value

	if class, ok := c.resolver.EnclosingClass(ctx); ok {
		if method, ok := c.resolver.LookupMethod(class, name); ok {
			c.logger.Printf("call this.%s resolved in %s", name, method.DefiningClass)
			return c.checkSignature(e, method, args)
		}
	}
	if fn, ok := c.resolver.LookupFunction(name); ok {
		return c.checkSignature(e, fn, args)
	}

	c.report(e, diagnostic.UndeclaredMethod, nil, "No declaration found for function '%s'", name)
	return Error
}

// checkSignature matches actual argument types against the formals. A count
// mismatch makes the call an error; a type mismatch on one argument is
// reported but the call keeps its return type.
func (c *Checker) checkSignature(e *ast.Call, method *Method, args []*Type) *Type {
	if len(args) != len(method.Params) {
		c.report(e, diagnostic.WrongArgumentCount, nil,
			"Function '%s' expects %d arguments but %d given", method.Name, len(method.Params), len(args))
		return Error
	}
	for i, at := range args {
		pt := method.Params[i].Type
		if at.IsError() || c.facts.IsAssignableTo(at, pt) {
			continue
		}
		c.report(e.Actuals[i], diagnostic.ArgumentTypeMismatch, []*Type{at, pt},
			"Incompatible argument %d: %s given, %s expected", i+1, at, pt)
	}
	return method.ReturnType
}
