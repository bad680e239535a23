package ast

import (
	"github.com/rfigueror1/decaf-compiler-1/lexer"
)

type Node interface {
	TokenLiteral() string
	Pos() (line, column int)
}

// Expression is implemented by every expression node. The set of
// implementations is closed: only types in this package can satisfy it.
type Expression interface {
	Node
	expressionNode()
}

// LValue is an expression that denotes a storage location.
type LValue interface {
	Expression
	lvalueNode()
}

type Identifier struct {
	Token lexer.Token
	Value string
}

func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Pos() (int, int)      { return i.Token.Line, i.Token.Column }

// Operator tags an operator token. It carries no semantics; the expression
// that owns it decides what it means.
type Operator struct {
	Token lexer.Token
}

func NewOperator(tok lexer.Token) *Operator { return &Operator{Token: tok} }

func (o *Operator) Kind() lexer.TokenType { return o.Token.Type }
func (o *Operator) String() string        { return o.Token.Literal }

// Type references as written in source.

type TypeRef interface {
	Node
	typeRefNode()
	String() string
}

// PrimitiveType is one of the int, double, bool, string or void keywords.
type PrimitiveType struct {
	Token lexer.Token
}

func (p *PrimitiveType) TokenLiteral() string { return p.Token.Literal }
func (p *PrimitiveType) Pos() (int, int)      { return p.Token.Line, p.Token.Column }
func (p *PrimitiveType) typeRefNode()         {}
func (p *PrimitiveType) String() string       { return p.Token.Literal }

type NamedType struct {
	Token lexer.Token
	Name  *Identifier
}

func (n *NamedType) TokenLiteral() string { return n.Token.Literal }
func (n *NamedType) Pos() (int, int)      { return n.Token.Line, n.Token.Column }
func (n *NamedType) typeRefNode()         {}
func (n *NamedType) String() string       { return n.Name.Value }

type ArrayType struct {
	Token lexer.Token
	Elem  TypeRef
}

func (a *ArrayType) TokenLiteral() string { return a.Token.Literal }
func (a *ArrayType) Pos() (int, int)      { return a.Token.Line, a.Token.Column }
func (a *ArrayType) typeRefNode()         {}
func (a *ArrayType) String() string       { return a.Elem.String() + "[]" }

// Literals

type IntConstant struct {
	Token lexer.Token
	Value int
}

func (ic *IntConstant) TokenLiteral() string { return ic.Token.Literal }
func (ic *IntConstant) Pos() (int, int)      { return ic.Token.Line, ic.Token.Column }
func (ic *IntConstant) expressionNode()      {}

type DoubleConstant struct {
	Token lexer.Token
	Value float64
}

func (dc *DoubleConstant) TokenLiteral() string { return dc.Token.Literal }
func (dc *DoubleConstant) Pos() (int, int)      { return dc.Token.Line, dc.Token.Column }
func (dc *DoubleConstant) expressionNode()      {}

type BoolConstant struct {
	Token lexer.Token
	Value bool
}

func (bc *BoolConstant) TokenLiteral() string { return bc.Token.Literal }
func (bc *BoolConstant) Pos() (int, int)      { return bc.Token.Line, bc.Token.Column }
func (bc *BoolConstant) expressionNode()      {}

type StringConstant struct {
	Token lexer.Token
	Value string
}

func (sc *StringConstant) TokenLiteral() string { return sc.Token.Literal }
func (sc *StringConstant) Pos() (int, int)      { return sc.Token.Line, sc.Token.Column }
func (sc *StringConstant) expressionNode()      {}

type NullConstant struct {
	Token lexer.Token
}

func (nc *NullConstant) TokenLiteral() string { return nc.Token.Literal }
func (nc *NullConstant) Pos() (int, int)      { return nc.Token.Line, nc.Token.Column }
func (nc *NullConstant) expressionNode()      {}

// EmptyExpr stands in where an expression is optional, such as a bare
// return or an omitted for-loop clause.
type EmptyExpr struct {
	Token lexer.Token
}

func (ee *EmptyExpr) TokenLiteral() string { return ee.Token.Literal }
func (ee *EmptyExpr) Pos() (int, int)      { return ee.Token.Line, ee.Token.Column }
func (ee *EmptyExpr) expressionNode()      {}

// Compound expressions. Left is nil only for the unary forms of
// ArithmeticExpr and LogicalExpr.

type CompoundExpr struct {
	Op    *Operator
	Left  Expression
	Right Expression
}

func (ce *CompoundExpr) TokenLiteral() string { return ce.Op.Token.Literal }
func (ce *CompoundExpr) IsUnary() bool        { return ce.Left == nil }

func (ce *CompoundExpr) Pos() (int, int) {
	if ce.Left != nil {
		return ce.Left.Pos()
	}
	return ce.Op.Token.Line, ce.Op.Token.Column
}

type ArithmeticExpr struct{ CompoundExpr }

func (ae *ArithmeticExpr) expressionNode() {}

type RelationalExpr struct{ CompoundExpr }

func (re *RelationalExpr) expressionNode() {}

type EqualityExpr struct{ CompoundExpr }

func (ee *EqualityExpr) expressionNode() {}

type LogicalExpr struct{ CompoundExpr }

func (le *LogicalExpr) expressionNode() {}

type AssignExpr struct{ CompoundExpr }

func (ae *AssignExpr) expressionNode() {}

func NewArithmetic(left Expression, op *Operator, right Expression) *ArithmeticExpr {
	return &ArithmeticExpr{CompoundExpr{Op: op, Left: left, Right: right}}
}

func NewUnaryArithmetic(op *Operator, operand Expression) *ArithmeticExpr {
	return &ArithmeticExpr{CompoundExpr{Op: op, Right: operand}}
}

func NewRelational(left Expression, op *Operator, right Expression) *RelationalExpr {
	return &RelationalExpr{CompoundExpr{Op: op, Left: left, Right: right}}
}

func NewEquality(left Expression, op *Operator, right Expression) *EqualityExpr {
	return &EqualityExpr{CompoundExpr{Op: op, Left: left, Right: right}}
}

func NewLogical(left Expression, op *Operator, right Expression) *LogicalExpr {
	return &LogicalExpr{CompoundExpr{Op: op, Left: left, Right: right}}
}

func NewUnaryLogical(op *Operator, operand Expression) *LogicalExpr {
	return &LogicalExpr{CompoundExpr{Op: op, Right: operand}}
}

func NewAssign(left Expression, op *Operator, right Expression) *AssignExpr {
	return &AssignExpr{CompoundExpr{Op: op, Left: left, Right: right}}
}

// LValues

type This struct {
	Token lexer.Token
}

func (t *This) TokenLiteral() string { return t.Token.Literal }
func (t *This) Pos() (int, int)      { return t.Token.Line, t.Token.Column }
func (t *This) expressionNode()      {}
func (t *This) lvalueNode()          {}

type ArrayAccess struct {
	Token     lexer.Token // the '[' token
	Base      Expression
	Subscript Expression
}

func (aa *ArrayAccess) TokenLiteral() string { return aa.Token.Literal }
func (aa *ArrayAccess) Pos() (int, int)      { return aa.Token.Line, aa.Token.Column }
func (aa *ArrayAccess) expressionNode()      {}
func (aa *ArrayAccess) lvalueNode()          {}

// Receiver says where a field or method name is looked up: on an explicit
// base expression (Qualified) or on the enclosing context (Unqualified).
type Receiver interface {
	receiver()
}

type Qualified struct {
	Base Expression
}

type Unqualified struct{}

func (*Qualified) receiver()   {}
func (*Unqualified) receiver() {}

type FieldAccess struct {
	Recv  Receiver
	Field *Identifier
}

func (fa *FieldAccess) TokenLiteral() string { return fa.Field.Token.Literal }
func (fa *FieldAccess) Pos() (int, int)      { return fa.Field.Pos() }
func (fa *FieldAccess) expressionNode()      {}
func (fa *FieldAccess) lvalueNode()          {}

func NewFieldAccess(base Expression, field *Identifier) *FieldAccess {
	return &FieldAccess{Recv: &Qualified{Base: base}, Field: field}
}

func NewVarAccess(name *Identifier) *FieldAccess {
	return &FieldAccess{Recv: &Unqualified{}, Field: name}
}

type Call struct {
	Recv    Receiver
	Method  *Identifier
	Actuals []Expression
}

func (c *Call) TokenLiteral() string { return c.Method.Token.Literal }
func (c *Call) Pos() (int, int)      { return c.Method.Pos() }
func (c *Call) expressionNode()      {}

func NewCall(base Expression, method *Identifier, actuals ...Expression) *Call {
	return &Call{Recv: &Qualified{Base: base}, Method: method, Actuals: actuals}
}

func NewImplicitCall(method *Identifier, actuals ...Expression) *Call {
	return &Call{Recv: &Unqualified{}, Method: method, Actuals: actuals}
}

// Construction

type NewExpr struct {
	Token lexer.Token
	Class *NamedType
}

func (ne *NewExpr) TokenLiteral() string { return ne.Token.Literal }
func (ne *NewExpr) Pos() (int, int)      { return ne.Token.Line, ne.Token.Column }
func (ne *NewExpr) expressionNode()      {}

type NewArrayExpr struct {
	Token lexer.Token
	Size  Expression
	Elem  TypeRef
}

func (na *NewArrayExpr) TokenLiteral() string { return na.Token.Literal }
func (na *NewArrayExpr) Pos() (int, int)      { return na.Token.Line, na.Token.Column }
func (na *NewArrayExpr) expressionNode()      {}

// Built-ins

type ReadIntegerExpr struct {
	Token lexer.Token
}

func (ri *ReadIntegerExpr) TokenLiteral() string { return ri.Token.Literal }
func (ri *ReadIntegerExpr) Pos() (int, int)      { return ri.Token.Line, ri.Token.Column }
func (ri *ReadIntegerExpr) expressionNode()      {}

type ReadLineExpr struct {
	Token lexer.Token
}

func (rl *ReadLineExpr) TokenLiteral() string { return rl.Token.Literal }
func (rl *ReadLineExpr) Pos() (int, int)      { return rl.Token.Line, rl.Token.Column }
func (rl *ReadLineExpr) expressionNode()      {}

type PostfixExpr struct {
	Operand Expression
	Op      *Operator
}

func (pe *PostfixExpr) TokenLiteral() string { return pe.Op.Token.Literal }
func (pe *PostfixExpr) Pos() (int, int)      { return pe.Operand.Pos() }
func (pe *PostfixExpr) expressionNode()      {}
