package semant

import (
	"fmt"
	"io"
	"log"

	"github.com/rfigueror1/decaf-compiler-1/ast"
	"github.com/rfigueror1/decaf-compiler-1/diagnostic"
	"github.com/rfigueror1/decaf-compiler-1/lexer"
)

// Resolver answers name lookups. Field and method lookups already include
// inherited members.
type Resolver interface {
	LookupVariable(name string, ctx *Context) (*Type, bool)
	LookupGlobal(name string) (*Type, bool)
	LookupFunction(name string) (*Method, bool)
	LookupClass(name string) (*Class, bool)
	LookupField(class *Class, name string) (*Type, bool)
	LookupMethod(class *Class, name string) (*Method, bool)
	EnclosingClass(ctx *Context) (*Class, bool)
}

// TypeFacts answers questions about types alone.
type TypeFacts interface {
	IsNumeric(t *Type) bool
	IsAssignableTo(from, to *Type) bool
	ArrayElementType(t *Type) (*Type, bool)
}

// Checker type checks expressions. Each node is checked at most once; its
// resolved type is kept in an annotation table keyed by the node, so the
// tree itself is never modified. A Checker is not safe for concurrent use.
type Checker struct {
	resolver Resolver
	facts    TypeFacts
	types    map[ast.Expression]*Type
	diags    *diagnostic.List
	logger   *log.Logger
}

type Option func(*Checker)

// WithLogger traces diagnostics and call/field resolution to logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewChecker(resolver Resolver, facts TypeFacts, opts ...Option) (*Checker, error) {
	if resolver == nil {
		return nil, fmt.Errorf("semant: checker needs a resolver")
	}
	if facts == nil {
		return nil, fmt.Errorf("semant: checker needs type facts")
	}
	c := &Checker{
		resolver: resolver,
		facts:    facts,
		types:    make(map[ast.Expression]*Type),
		diags:    diagnostic.New(),
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewTableChecker builds a Checker backed by a single SymbolTable.
func NewTableChecker(st *SymbolTable, opts ...Option) (*Checker, error) {
	if st == nil {
		return nil, fmt.Errorf("semant: checker needs a symbol table")
	}
	return NewChecker(st, st, opts...)
}

// contractError is raised when the tree is malformed. It is not a user
// diagnostic: Check turns it into an error and the unit is abandoned.
type contractError struct {
	msg string
}

func (c *Checker) fail(format string, args ...interface{}) {
	panic(&contractError{msg: fmt.Sprintf(format, args...)})
}

// Check resolves the type of expr and its subexpressions, appending a
// diagnostic for every rule that fails. The returned error is non-nil only
// for a malformed tree.
func (c *Checker) Check(expr ast.Expression, ctx *Context) (t *Type, err error) {
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(*contractError)
			if !ok {
				panic(r)
			}
			t, err = nil, fmt.Errorf("malformed expression tree: %s", ce.msg)
		}
	}()
	return c.check(expr, ctx), nil
}

// CheckAll checks exprs in order and returns their types.
func (c *Checker) CheckAll(exprs []ast.Expression, ctx *Context) ([]*Type, error) {
	out := make([]*Type, 0, len(exprs))
	for _, expr := range exprs {
		t, err := c.Check(expr, ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// TypeOf returns the resolved type of a checked node.
func (c *Checker) TypeOf(expr ast.Expression) (*Type, bool) {
	t, ok := c.types[expr]
	return t, ok
}

// TypeNameOf returns the name of the resolved type of a checked node, or ""
// if the node has not been checked.
func (c *Checker) TypeNameOf(expr ast.Expression) string {
	if t, ok := c.types[expr]; ok {
		return t.Name()
	}
	return ""
}

func (c *Checker) Diagnostics() *diagnostic.List { return c.diags }

func (c *Checker) Errors() []diagnostic.Diagnostic { return c.diags.Errors() }

func (c *Checker) check(expr ast.Expression, ctx *Context) *Type {
	if isNilNode(expr) {
		c.fail("missing expression")
	}
	if t, ok := c.types[expr]; ok {
		return t
	}

	var t *Type
	switch e := expr.(type) {
	case *ast.IntConstant, *ast.ReadIntegerExpr:
		t = Int
	case *ast.DoubleConstant:
		t = Double
	case *ast.BoolConstant:
		t = Bool
	case *ast.StringConstant, *ast.ReadLineExpr:
		t = String
	case *ast.NullConstant:
		t = Null
	case *ast.EmptyExpr:
		t = Void
	case *ast.ArithmeticExpr:
		t = c.checkArithmetic(e, ctx)
	case *ast.RelationalExpr:
		t = c.checkRelational(e, ctx)
	case *ast.EqualityExpr:
		t = c.checkEquality(e, ctx)
	case *ast.LogicalExpr:
		t = c.checkLogical(e, ctx)
	case *ast.AssignExpr:
		t = c.checkAssign(e, ctx)
	case *ast.This:
		t = c.checkThis(e, ctx)
	case *ast.ArrayAccess:
		t = c.checkArrayAccess(e, ctx)
	case *ast.FieldAccess:
		t = c.checkFieldAccess(e, ctx)
	case *ast.Call:
		t = c.checkCall(e, ctx)
	case *ast.NewExpr:
		t = c.checkNew(e)
	case *ast.NewArrayExpr:
		t = c.checkNewArray(e, ctx)
	case *ast.PostfixExpr:
		t = c.checkPostfix(e, ctx)
	default:
		c.fail("unknown expression node %T", expr)
	}

	c.types[expr] = t
	return t
}

// isNilNode reports whether n is nil or a nil pointer of a known node type.
func isNilNode(n ast.Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *ast.IntConstant:
		return v == nil
	case *ast.DoubleConstant:
		return v == nil
	case *ast.BoolConstant:
		return v == nil
	case *ast.StringConstant:
		return v == nil
	case *ast.NullConstant:
		return v == nil
	case *ast.EmptyExpr:
		return v == nil
	case *ast.ReadIntegerExpr:
		return v == nil
	case *ast.ReadLineExpr:
		return v == nil
	case *ast.ArithmeticExpr:
		return v == nil
	case *ast.RelationalExpr:
		return v == nil
	case *ast.EqualityExpr:
		return v == nil
	case *ast.LogicalExpr:
		return v == nil
	case *ast.AssignExpr:
		return v == nil
	case *ast.This:
		return v == nil
	case *ast.ArrayAccess:
		return v == nil
	case *ast.FieldAccess:
		return v == nil
	case *ast.Call:
		return v == nil
	case *ast.NewExpr:
		return v == nil
	case *ast.NewArrayExpr:
		return v == nil
	case *ast.PostfixExpr:
		return v == nil
	case *ast.PrimitiveType:
		return v == nil
	case *ast.NamedType:
		return v == nil
	case *ast.ArrayType:
		return v == nil
	}
	return false
}

func (c *Checker) report(node ast.Node, kind diagnostic.Kind, types []*Type, format string, args ...interface{}) {
	line, col := node.Pos()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name()
	}
	d := c.diags.Report(kind, line, col, names, format, args...)
	c.logger.Printf("%s: %s", kind, d)
}

// requireOp fails unless op is one of allowed.
func (c *Checker) requireOp(op *ast.Operator, node string, allowed ...lexer.TokenType) {
	if op == nil {
		c.fail("%s without operator", node)
	}
	for _, kind := range allowed {
		if op.Kind() == kind {
			return
		}
	}
	c.fail("operator %q is not valid in %s", op.String(), node)
}
