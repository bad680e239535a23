package semant

import (
	"github.com/rfigueror1/decaf-compiler-1/ast"
	"github.com/rfigueror1/decaf-compiler-1/diagnostic"
	"github.com/rfigueror1/decaf-compiler-1/lexer"
)

// operands checks the children of a compound expression, left first. lt is
// nil for unary expressions.
func (c *Checker) operands(e *ast.CompoundExpr, node string, ctx *Context) (lt, rt *Type) {
	if isNilNode(e.Right) {
		c.fail("%s without right operand", node)
	}
	if e.Left != nil {
		lt = c.check(e.Left, ctx)
	}
	rt = c.check(e.Right, ctx)
	return lt, rt
}

func (c *Checker) requireBinary(e *ast.CompoundExpr, node string) {
	if isNilNode(e.Left) {
		c.fail("%s without left operand", node)
	}
}

func (c *Checker) incompatible(e *ast.CompoundExpr, lt, rt *Type) {
	if lt == nil {
		c.report(e, diagnostic.TypeMismatch, []*Type{rt},
			"Incompatible operand: %s %s", e.Op, rt)
		return
	}
	c.report(e, diagnostic.TypeMismatch, []*Type{lt, rt},
		"Incompatible operands: %s %s %s", lt, e.Op, rt)
}

func anyError(types ...*Type) bool {
	for _, t := range types {
		if t != nil && t.IsError() {
			return true
		}
	}
	return false
}

func (c *Checker) checkArithmetic(e *ast.ArithmeticExpr, ctx *Context) *Type {
	if e.IsUnary() {
		c.requireOp(e.Op, "unary arithmetic expression", lexer.MINUS)
	} else {
		c.requireOp(e.Op, "arithmetic expression", lexer.PLUS, lexer.MINUS, lexer.STAR, lexer.SLASH, lexer.PERCENT)
	}
	lt, rt := c.operands(&e.CompoundExpr, "arithmetic expression", ctx)
	if anyError(lt, rt) {
		return Error
	}

	if !c.facts.IsNumeric(rt) || (lt != nil && !lt.Equal(rt)) {
		c.incompatible(&e.CompoundExpr, lt, rt)
		return Error
	}
	return rt
}

func (c *Checker) checkRelational(e *ast.RelationalExpr, ctx *Context) *Type {
	c.requireBinary(&e.CompoundExpr, "relational expression")
	c.requireOp(e.Op, "relational expression", lexer.LT, lexer.LE, lexer.GT, lexer.GE)
	lt, rt := c.operands(&e.CompoundExpr, "relational expression", ctx)
	if anyError(lt, rt) {
		return Error
	}

	if !c.facts.IsNumeric(lt) || !lt.Equal(rt) {
		c.incompatible(&e.CompoundExpr, lt, rt)
		return Error
	}
	return Bool
}

func (c *Checker) checkEquality(e *ast.EqualityExpr, ctx *Context) *Type {
	c.requireBinary(&e.CompoundExpr, "equality expression")
	c.requireOp(e.Op, "equality expression", lexer.EQ, lexer.NE)
	lt, rt := c.operands(&e.CompoundExpr, "equality expression", ctx)
	if anyError(lt, rt) {
		return Error
	}

	// void has no value to compare.
	if lt.Equal(Void) || rt.Equal(Void) ||
		(!c.facts.IsAssignableTo(lt, rt) && !c.facts.IsAssignableTo(rt, lt)) {
		c.incompatible(&e.CompoundExpr, lt, rt)
		return Error
	}
	return Bool
}

func (c *Checker) checkLogical(e *ast.LogicalExpr, ctx *Context) *Type {
	if e.IsUnary() {
		c.requireOp(e.Op, "unary logical expression", lexer.NOT)
	} else {
		c.requireOp(e.Op, "logical expression", lexer.AND, lexer.OR)
	}
	lt, rt := c.operands(&e.CompoundExpr, "logical expression", ctx)
	if anyError(lt, rt) {
		return Error
	}

	if !rt.Equal(Bool) || (lt != nil && !lt.Equal(Bool)) {
		c.incompatible(&e.CompoundExpr, lt, rt)
		return Error
	}
	return Bool
}

// checkAssign types an assignment as its left operand: assignment is an
// expression in Decaf.
func (c *Checker) checkAssign(e *ast.AssignExpr, ctx *Context) *Type {
	c.requireBinary(&e.CompoundExpr, "assignment")
	c.requireOp(e.Op, "assignment", lexer.ASSIGN)
	lt, rt := c.operands(&e.CompoundExpr, "assignment", ctx)
	if anyError(lt, rt) {
		return Error
	}

	if _, ok := e.Left.(ast.LValue); !ok {
		c.report(e, diagnostic.TypeMismatch, []*Type{lt},
			"Invalid assignment target of type %s", lt)
		return Error
	}
	if !c.facts.IsAssignableTo(rt, lt) {
		c.incompatible(&e.CompoundExpr, lt, rt)
		return Error
	}
	return lt
}
