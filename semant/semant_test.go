package semant

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/rfigueror1/decaf-compiler-1/ast"
	"github.com/rfigueror1/decaf-compiler-1/diagnostic"
	"github.com/rfigueror1/decaf-compiler-1/lexer"
)

var dummyToken = lexer.Token{Type: lexer.IDENT, Literal: "dummy", Line: 1, Column: 1}

// op lexes a single operator so tests use the same tokens the parser would.
func op(literal string) *ast.Operator {
	tok := lexer.NewLexer(strings.NewReader(literal)).NextToken()
	tok.Line, tok.Column = 1, 1
	return ast.NewOperator(tok)
}

func ident(name string) *ast.Identifier {
	return &ast.Identifier{Token: lexer.Token{Type: lexer.IDENT, Literal: name, Line: 1, Column: 1}, Value: name}
}

func intLit(v int) *ast.IntConstant { return &ast.IntConstant{Token: dummyToken, Value: v} }
func doubleLit(v float64) *ast.DoubleConstant {
	return &ast.DoubleConstant{Token: dummyToken, Value: v}
}
func boolLit(v bool) *ast.BoolConstant    { return &ast.BoolConstant{Token: dummyToken, Value: v} }
func strLit(v string) *ast.StringConstant { return &ast.StringConstant{Token: dummyToken, Value: v} }
func null() *ast.NullConstant             { return &ast.NullConstant{Token: dummyToken} }
func this() *ast.This                     { return &ast.This{Token: dummyToken} }
func varRef(name string) *ast.FieldAccess { return ast.NewVarAccess(ident(name)) }

func field(base ast.Expression, name string) *ast.FieldAccess {
	return ast.NewFieldAccess(base, ident(name))
}

func index(base, subscript ast.Expression) *ast.ArrayAccess {
	return &ast.ArrayAccess{Token: dummyToken, Base: base, Subscript: subscript}
}

func newObj(class string) *ast.NewExpr {
	return &ast.NewExpr{Token: dummyToken, Class: &ast.NamedType{Token: dummyToken, Name: ident(class)}}
}

func primitive(keyword string) *ast.PrimitiveType {
	return &ast.PrimitiveType{Token: lexer.Token{Literal: keyword, Line: 1, Column: 1}}
}

func named(class string) *ast.NamedType {
	return &ast.NamedType{Token: dummyToken, Name: ident(class)}
}

func newArray(size ast.Expression, elem ast.TypeRef) *ast.NewArrayExpr {
	return &ast.NewArrayExpr{Token: dummyToken, Size: size, Elem: elem}
}

func assign(left, right ast.Expression) *ast.AssignExpr {
	return ast.NewAssign(left, op("="), right)
}

// newAnimalTable declares:
//
//	interface Pet { void cuddle(); }
//	class Animal { int age; int compute(int x); string speak(); }
//	class Dog extends Animal { string name; bool fetch(Animal a); }
//	class Cat extends Animal implements Pet {}
//	int counter;
//	double helper(double d);
func newAnimalTable(t *testing.T) *SymbolTable {
	t.Helper()
	st := NewSymbolTable()
	steps := []func() error{
		func() error { _, err := st.AddInterface("Pet"); return err },
		func() error {
			return st.AddMethod("Pet", &Method{Name: "cuddle", ReturnType: Void})
		},
		func() error { _, err := st.AddClass("Animal", ""); return err },
		func() error { return st.AddField("Animal", "age", Int) },
		func() error {
			return st.AddMethod("Animal", &Method{Name: "compute", Params: []Param{{Name: "x", Type: Int}}, ReturnType: Int})
		},
		func() error { return st.AddMethod("Animal", &Method{Name: "speak", ReturnType: String}) },
		func() error { _, err := st.AddClass("Dog", "Animal"); return err },
		func() error { return st.AddField("Dog", "name", String) },
		func() error {
			return st.AddMethod("Dog", &Method{Name: "fetch", Params: []Param{{Name: "a", Type: NewNamed("Animal")}}, ReturnType: Bool})
		},
		func() error { _, err := st.AddClass("Cat", "Animal", "Pet"); return err },
		func() error { return st.DeclareGlobal("counter", Int) },
		func() error {
			return st.AddFunction(&Method{Name: "helper", Params: []Param{{Name: "d", Type: Double}}, ReturnType: Double})
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("building symbol table: %v", err)
		}
	}
	if errs := st.ValidateInheritance(); len(errs) > 0 {
		t.Fatalf("unexpected inheritance errors: %v", errs)
	}
	return st
}

func newChecker(t *testing.T, st *SymbolTable) *Checker {
	t.Helper()
	c, err := NewTableChecker(st)
	if err != nil {
		t.Fatalf("NewTableChecker: %v", err)
	}
	return c
}

func methodContext(t *testing.T, st *SymbolTable, class string, locals map[string]*Type) *Context {
	t.Helper()
	ctx, err := st.MethodContext(class)
	if err != nil {
		t.Fatalf("MethodContext(%s): %v", class, err)
	}
	declareAll(t, ctx, locals)
	return ctx
}

func globalContext(t *testing.T, st *SymbolTable, locals map[string]*Type) *Context {
	t.Helper()
	ctx := st.GlobalContext()
	declareAll(t, ctx, locals)
	return ctx
}

func declareAll(t *testing.T, ctx *Context, locals map[string]*Type) {
	t.Helper()
	for name, typ := range locals {
		if err := ctx.Scope.Declare(name, typ); err != nil {
			t.Fatalf("declare %s: %v", name, err)
		}
	}
}

func mustCheck(t *testing.T, c *Checker, expr ast.Expression, ctx *Context) *Type {
	t.Helper()
	typ, err := c.Check(expr, ctx)
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	return typ
}

func assertType(t *testing.T, got, want *Type) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("expected type %s, got %s", want, got)
	}
}

func assertKinds(t *testing.T, c *Checker, kinds ...diagnostic.Kind) {
	t.Helper()
	errs := c.Errors()
	if len(errs) != len(kinds) {
		t.Fatalf("expected %d diagnostics, got %d: %v", len(kinds), len(errs), c.Diagnostics().Messages())
	}
	for i, kind := range kinds {
		if errs[i].Kind != kind {
			t.Errorf("diagnostic %d: expected %s, got %s (%s)", i, kind, errs[i].Kind, errs[i].Message)
		}
	}
}

func assertNoErrors(t *testing.T, c *Checker) {
	t.Helper()
	if c.Diagnostics().HasErrors() {
		t.Errorf("expected no errors, got: %v", c.Diagnostics().Messages())
	}
}

func assertErrorsContain(t *testing.T, c *Checker, expected string) {
	t.Helper()
	for _, msg := range c.Diagnostics().Messages() {
		if strings.Contains(msg, expected) {
			return
		}
	}
	t.Errorf("expected error containing %q, got: %v", expected, c.Diagnostics().Messages())
}

func TestLiterals(t *testing.T) {
	st := newAnimalTable(t)
	tests := []struct {
		name string
		expr ast.Expression
		want *Type
	}{
		{"int", intLit(7), Int},
		{"double", doubleLit(1.5), Double},
		{"bool", boolLit(true), Bool},
		{"string", strLit("hi"), String},
		{"null", null(), Null},
		{"ReadInteger", &ast.ReadIntegerExpr{Token: dummyToken}, Int},
		{"ReadLine", &ast.ReadLineExpr{Token: dummyToken}, String},
		{"empty", &ast.EmptyExpr{Token: dummyToken}, Void},
	}

	contexts := map[string]*Context{
		"no context": nil,
		"global":     globalContext(t, st, nil),
		"method":     methodContext(t, st, "Dog", nil),
	}
	for _, tt := range tests {
		for ctxName, ctx := range contexts {
			t.Run(tt.name+"/"+ctxName, func(t *testing.T) {
				c := newChecker(t, st)
				assertType(t, mustCheck(t, c, tt.expr, ctx), tt.want)
				assertNoErrors(t, c)
			})
		}
	}
}

func TestArithmetic(t *testing.T) {
	st := newAnimalTable(t)

	t.Run("Scenario A: int plus string", func(t *testing.T) {
		c := newChecker(t, st)
		typ := mustCheck(t, c, ast.NewArithmetic(intLit(3), op("+"), strLit("x")), nil)
		assertType(t, typ, Error)
		assertKinds(t, c, diagnostic.TypeMismatch)
		assertErrorsContain(t, c, "Incompatible operands: int + string")
		if got := c.Errors()[0].Types; len(got) != 2 || got[0] != "int" || got[1] != "string" {
			t.Errorf("expected offending types [int string], got %v", got)
		}
	})

	tests := []struct {
		name    string
		expr    ast.Expression
		want    *Type
		wantErr bool
	}{
		{"int + int", ast.NewArithmetic(intLit(1), op("+"), intLit(2)), Int, false},
		{"int % int", ast.NewArithmetic(intLit(5), op("%"), intLit(2)), Int, false},
		{"double * double", ast.NewArithmetic(doubleLit(1), op("*"), doubleLit(2)), Double, false},
		{"double / double", ast.NewArithmetic(doubleLit(1), op("/"), doubleLit(2)), Double, false},
		{"int - double", ast.NewArithmetic(intLit(1), op("-"), doubleLit(2)), Error, true},
		{"bool + bool", ast.NewArithmetic(boolLit(true), op("+"), boolLit(false)), Error, true},
		{"string + string", ast.NewArithmetic(strLit("a"), op("+"), strLit("b")), Error, true},
		{"-int", ast.NewUnaryArithmetic(op("-"), intLit(4)), Int, false},
		{"-double", ast.NewUnaryArithmetic(op("-"), doubleLit(4)), Double, false},
		{"-bool", ast.NewUnaryArithmetic(op("-"), boolLit(true)), Error, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChecker(t, st)
			assertType(t, mustCheck(t, c, tt.expr, nil), tt.want)
			if tt.wantErr {
				assertKinds(t, c, diagnostic.TypeMismatch)
			} else {
				assertNoErrors(t, c)
			}
		})
	}

	t.Run("unary message names the operand", func(t *testing.T) {
		c := newChecker(t, st)
		mustCheck(t, c, ast.NewUnaryArithmetic(op("-"), boolLit(true)), nil)
		assertErrorsContain(t, c, "Incompatible operand: - bool")
	})
}

func TestRelational(t *testing.T) {
	st := newAnimalTable(t)
	tests := []struct {
		name    string
		expr    ast.Expression
		want    *Type
		wantErr bool
	}{
		{"int < int", ast.NewRelational(intLit(1), op("<"), intLit(2)), Bool, false},
		{"double >= double", ast.NewRelational(doubleLit(1), op(">="), doubleLit(2)), Bool, false},
		{"int <= double", ast.NewRelational(intLit(1), op("<="), doubleLit(2)), Error, true},
		{"string > string", ast.NewRelational(strLit("a"), op(">"), strLit("b")), Error, true},
		{"bool < bool", ast.NewRelational(boolLit(true), op("<"), boolLit(false)), Error, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChecker(t, st)
			assertType(t, mustCheck(t, c, tt.expr, nil), tt.want)
			if tt.wantErr {
				assertKinds(t, c, diagnostic.TypeMismatch)
			} else {
				assertNoErrors(t, c)
			}
		})
	}
}

func TestEquality(t *testing.T) {
	st := newAnimalTable(t)
	locals := map[string]*Type{
		"a":   NewNamed("Animal"),
		"d":   NewNamed("Dog"),
		"cat": NewNamed("Cat"),
		"p":   NewNamed("Pet"),
		"n":   Int,
		"s":   String,
		"arr": NewArray(Int),
	}

	tests := []struct {
		name    string
		left    ast.Expression
		right   ast.Expression
		wantErr bool
	}{
		{"subclass vs superclass", varRef("d"), varRef("a"), false},
		{"superclass vs subclass", varRef("a"), varRef("d"), false},
		{"class vs implemented interface", varRef("cat"), varRef("p"), false},
		{"object vs null", varRef("a"), null(), false},
		{"null vs object", null(), varRef("d"), false},
		{"array vs null", varRef("arr"), null(), false},
		{"null vs null", null(), null(), false},
		{"int vs int", varRef("n"), intLit(3), false},
		{"siblings", varRef("d"), varRef("cat"), true},
		{"int vs string", varRef("n"), varRef("s"), true},
		{"int vs null", varRef("n"), null(), true},
		{"int vs double", intLit(1), doubleLit(1), true},
		{"void vs void", ast.NewCall(newObj("Cat"), ident("cuddle")), ast.NewCall(newObj("Cat"), ident("cuddle")), true},
		{"void vs null", &ast.EmptyExpr{Token: dummyToken}, null(), true},
	}
	for _, tt := range tests {
		for _, literal := range []string{"==", "!="} {
			t.Run(tt.name+" "+literal, func(t *testing.T) {
				c := newChecker(t, st)
				ctx := globalContext(t, st, locals)
				typ := mustCheck(t, c, ast.NewEquality(tt.left, op(literal), tt.right), ctx)
				if tt.wantErr {
					assertType(t, typ, Error)
					assertKinds(t, c, diagnostic.TypeMismatch)
				} else {
					assertType(t, typ, Bool)
					assertNoErrors(t, c)
				}
			})
		}
	}
}

// Equality must accept (A, B) exactly when (B, A) is accepted, and exactly
// when one side is assignable to the other.
func TestEqualityIsSymmetric(t *testing.T) {
	st := newAnimalTable(t)
	types := []*Type{Int, Double, Bool, String, Null, NewNamed("Animal"), NewNamed("Dog"),
		NewNamed("Cat"), NewNamed("Pet"), NewArray(Int), NewArray(Double)}

	for _, a := range types {
		for _, b := range types {
			ctx := globalContext(t, st, map[string]*Type{"x": a, "y": b})
			c := newChecker(t, st)
			forward := mustCheck(t, c, ast.NewEquality(varRef("x"), op("=="), varRef("y")), ctx)
			backward := mustCheck(t, c, ast.NewEquality(varRef("y"), op("=="), varRef("x")), ctx)

			want := st.IsAssignableTo(a, b) || st.IsAssignableTo(b, a)
			if forward.Equal(Bool) != want || backward.Equal(Bool) != want {
				t.Errorf("%s == %s: forward=%s backward=%s, want comparable=%v", a, b, forward, backward, want)
			}
		}
	}
}

func TestLogical(t *testing.T) {
	st := newAnimalTable(t)
	tests := []struct {
		name    string
		expr    ast.Expression
		wantErr bool
	}{
		{"bool && bool", ast.NewLogical(boolLit(true), op("&&"), boolLit(false)), false},
		{"bool || bool", ast.NewLogical(boolLit(true), op("||"), boolLit(false)), false},
		{"!bool", ast.NewUnaryLogical(op("!"), boolLit(true)), false},
		{"!int", ast.NewUnaryLogical(op("!"), intLit(5)), true},
		{"int || bool", ast.NewLogical(intLit(1), op("||"), boolLit(true)), true},
		{"bool && string", ast.NewLogical(boolLit(true), op("&&"), strLit("s")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChecker(t, st)
			typ := mustCheck(t, c, tt.expr, nil)
			if tt.wantErr {
				assertType(t, typ, Error)
				assertKinds(t, c, diagnostic.TypeMismatch)
			} else {
				assertType(t, typ, Bool)
				assertNoErrors(t, c)
			}
		})
	}
}

func TestAssign(t *testing.T) {
	st := newAnimalTable(t)

	pairs := []struct {
		lhs, rhs *Type
	}{
		{Int, Int},
		{Double, Int},
		{NewNamed("Animal"), NewNamed("Dog")},
		{NewNamed("Dog"), NewNamed("Animal")},
		{NewNamed("Pet"), NewNamed("Cat")},
		{NewNamed("Pet"), NewNamed("Dog")},
		{NewNamed("Animal"), Null},
		{Int, Null},
		{NewArray(Int), NewArray(Int)},
		{NewArray(Int), NewArray(Double)},
		{NewArray(NewNamed("Animal")), NewArray(NewNamed("Dog"))},
		{String, String},
	}
	for _, p := range pairs {
		t.Run(p.lhs.Name()+" = "+p.rhs.Name(), func(t *testing.T) {
			c := newChecker(t, st)
			ctx := globalContext(t, st, map[string]*Type{"lhs": p.lhs, "rhs": p.rhs})
			typ := mustCheck(t, c, assign(varRef("lhs"), varRef("rhs")), ctx)

			if st.IsAssignableTo(p.rhs, p.lhs) {
				assertNoErrors(t, c)
				assertType(t, typ, p.lhs)
			} else {
				assertKinds(t, c, diagnostic.TypeMismatch)
				assertType(t, typ, Error)
			}
		})
	}

	t.Run("Scenario B: this.age = 5 inside Animal", func(t *testing.T) {
		c := newChecker(t, st)
		ctx := methodContext(t, st, "Animal", nil)
		typ := mustCheck(t, c, assign(field(this(), "age"), intLit(5)), ctx)
		assertNoErrors(t, c)
		assertType(t, typ, Int)
	})

	t.Run("non-lvalue target", func(t *testing.T) {
		c := newChecker(t, st)
		typ := mustCheck(t, c, assign(intLit(3), intLit(4)), nil)
		assertType(t, typ, Error)
		assertKinds(t, c, diagnostic.TypeMismatch)
		assertErrorsContain(t, c, "Invalid assignment target")
	})

	t.Run("this as target", func(t *testing.T) {
		c := newChecker(t, st)
		ctx := methodContext(t, st, "Animal", nil)
		typ := mustCheck(t, c, assign(this(), newObj("Dog")), ctx)
		assertNoErrors(t, c)
		assertType(t, typ, NewNamed("Animal"))
	})

	t.Run("array element target", func(t *testing.T) {
		c := newChecker(t, st)
		ctx := globalContext(t, st, map[string]*Type{"arr": NewArray(Double)})
		typ := mustCheck(t, c, assign(index(varRef("arr"), intLit(0)), doubleLit(2)), ctx)
		assertNoErrors(t, c)
		assertType(t, typ, Double)
	})
}

func TestErrorSentinelSuppressesCascades(t *testing.T) {
	st := newAnimalTable(t)
	bad := func() ast.Expression { return ast.NewArithmetic(intLit(3), op("+"), strLit("x")) }

	tests := []struct {
		name string
		expr ast.Expression
		kind diagnostic.Kind
	}{
		{"arithmetic", ast.NewArithmetic(bad(), op("*"), intLit(4)), diagnostic.TypeMismatch},
		{"unary arithmetic", ast.NewUnaryArithmetic(op("-"), bad()), diagnostic.TypeMismatch},
		{"relational", ast.NewRelational(bad(), op("<"), intLit(2)), diagnostic.TypeMismatch},
		{"equality", ast.NewEquality(intLit(2), op("=="), bad()), diagnostic.TypeMismatch},
		{"logical", ast.NewUnaryLogical(op("!"), bad()), diagnostic.TypeMismatch},
		{"assign", assign(varRef("n"), bad()), diagnostic.TypeMismatch},
		{"undeclared operand", ast.NewArithmetic(varRef("ghost"), op("+"), intLit(1)), diagnostic.UndeclaredIdentifier},
		{"field of undeclared", field(varRef("ghost"), "age"), diagnostic.UndeclaredIdentifier},
		{"postfix of undeclared", &ast.PostfixExpr{Operand: varRef("ghost"), Op: op("++")}, diagnostic.UndeclaredIdentifier},
		{"call on undeclared", ast.NewCall(varRef("ghost"), ident("speak")), diagnostic.UndeclaredIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChecker(t, st)
			ctx := globalContext(t, st, map[string]*Type{"n": Int})
			assertType(t, mustCheck(t, c, tt.expr, ctx), Error)
			assertKinds(t, c, tt.kind)
		})
	}
}

func TestThis(t *testing.T) {
	st := newAnimalTable(t)

	t.Run("inside a method", func(t *testing.T) {
		c := newChecker(t, st)
		assertType(t, mustCheck(t, c, this(), methodContext(t, st, "Dog", nil)), NewNamed("Dog"))
		assertNoErrors(t, c)
	})

	t.Run("top level", func(t *testing.T) {
		c := newChecker(t, st)
		assertType(t, mustCheck(t, c, this(), globalContext(t, st, nil)), Error)
		assertKinds(t, c, diagnostic.InvalidThisContext)
	})

	t.Run("field through this at top level", func(t *testing.T) {
		c := newChecker(t, st)
		assertType(t, mustCheck(t, c, field(this(), "age"), nil), Error)
		assertKinds(t, c, diagnostic.InvalidThisContext)
	})
}

func TestArrayAccess(t *testing.T) {
	st := newAnimalTable(t)
	locals := map[string]*Type{"arr": NewArray(Int), "grid": NewArray(NewArray(Double)), "n": Int}

	t.Run("Scenario D: arr[0]", func(t *testing.T) {
		c := newChecker(t, st)
		typ := mustCheck(t, c, index(varRef("arr"), intLit(0)), globalContext(t, st, locals))
		assertType(t, typ, Int)
		assertNoErrors(t, c)
	})

	t.Run("Scenario D: arr[\"a\"] keeps the element type", func(t *testing.T) {
		c := newChecker(t, st)
		typ := mustCheck(t, c, index(varRef("arr"), strLit("a")), globalContext(t, st, locals))
		assertType(t, typ, Int)
		assertKinds(t, c, diagnostic.TypeMismatch)
		assertErrorsContain(t, c, "Array subscript must be an integer")
	})

	t.Run("nested arrays", func(t *testing.T) {
		c := newChecker(t, st)
		typ := mustCheck(t, c, index(index(varRef("grid"), intLit(0)), intLit(1)), globalContext(t, st, locals))
		assertType(t, typ, Double)
		assertNoErrors(t, c)
	})

	t.Run("not an array", func(t *testing.T) {
		c := newChecker(t, st)
		typ := mustCheck(t, c, index(varRef("n"), intLit(0)), globalContext(t, st, locals))
		assertType(t, typ, Error)
		assertKinds(t, c, diagnostic.NotAnArray)
	})

	t.Run("bad base and bad subscript are both reported", func(t *testing.T) {
		c := newChecker(t, st)
		typ := mustCheck(t, c, index(varRef("ghost"), strLit("a")), globalContext(t, st, locals))
		assertType(t, typ, Error)
		assertKinds(t, c, diagnostic.UndeclaredIdentifier, diagnostic.TypeMismatch)
	})

	t.Run("errored subscript stays silent", func(t *testing.T) {
		c := newChecker(t, st)
		typ := mustCheck(t, c, index(varRef("arr"), varRef("ghost")), globalContext(t, st, locals))
		assertType(t, typ, Int)
		assertKinds(t, c, diagnostic.UndeclaredIdentifier)
	})
}

func TestFieldAccess(t *testing.T) {
	st := newAnimalTable(t)

	tests := []struct {
		name   string
		class  string // empty for a global context
		locals map[string]*Type
		expr   ast.Expression
		want   *Type
		kinds  []diagnostic.Kind
	}{
		{"own field", "Animal", nil, varRef("age"), Int, nil},
		{"inherited field", "Dog", nil, varRef("age"), Int, nil},
		{"inherited field through this", "Dog", nil, field(this(), "age"), Int, nil},
		{"subclass field", "Dog", nil, varRef("name"), String, nil},
		{"local shadows field", "Dog", map[string]*Type{"age": Double}, varRef("age"), Double, nil},
		{"global from method", "Animal", nil, varRef("counter"), Int, nil},
		{"global", "", nil, varRef("counter"), Int, nil},
		{"qualified on local", "", map[string]*Type{"d": NewNamed("Dog")}, field(varRef("d"), "name"), String, nil},
		{"qualified inherited", "", map[string]*Type{"d": NewNamed("Dog")}, field(varRef("d"), "age"), Int, nil},
		{"qualified on new", "", nil, field(newObj("Dog"), "age"), Int, nil},
		{"no enclosing class", "", nil, varRef("age"), Error, []diagnostic.Kind{diagnostic.UndeclaredIdentifier}},
		{"undeclared in method", "Animal", nil, varRef("name"), Error, []diagnostic.Kind{diagnostic.UndeclaredIdentifier}},
		{"no such field", "", map[string]*Type{"a": NewNamed("Animal")}, field(varRef("a"), "name"), Error, []diagnostic.Kind{diagnostic.UndeclaredField}},
		{"field on interface", "", map[string]*Type{"p": NewNamed("Pet")}, field(varRef("p"), "age"), Error, []diagnostic.Kind{diagnostic.UndeclaredField}},
		{"field on int", "", map[string]*Type{"n": Int}, field(varRef("n"), "age"), Error, []diagnostic.Kind{diagnostic.NotAClass}},
		{"field on array", "", map[string]*Type{"arr": NewArray(Int)}, field(varRef("arr"), "length"), Error, []diagnostic.Kind{diagnostic.NotAClass}},
		{"field on unknown class", "", map[string]*Type{"g": NewNamed("Ghost")}, field(varRef("g"), "x"), Error, []diagnostic.Kind{diagnostic.UndeclaredClass}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChecker(t, st)
			var ctx *Context
			if tt.class == "" {
				ctx = globalContext(t, st, tt.locals)
			} else {
				ctx = methodContext(t, st, tt.class, tt.locals)
			}
			assertType(t, mustCheck(t, c, tt.expr, ctx), tt.want)
			assertKinds(t, c, tt.kinds...)
		})
	}

	t.Run("nested block scope", func(t *testing.T) {
		c := newChecker(t, st)
		ctx := methodContext(t, st, "Animal", map[string]*Type{"x": Int})
		inner := ctx.Enter(SymbolLocal)
		if err := inner.Scope.Declare("y", String); err != nil {
			t.Fatal(err)
		}
		assertType(t, mustCheck(t, c, varRef("x"), inner), Int)
		assertType(t, mustCheck(t, c, varRef("y"), inner), String)
		assertNoErrors(t, c)
	})
}

func TestCall(t *testing.T) {
	st := newAnimalTable(t)
	locals := map[string]*Type{
		"obj": NewNamed("Animal"),
		"d":   NewNamed("Dog"),
		"cat": NewNamed("Cat"),
		"p":   NewNamed("Pet"),
		"arr": NewArray(Int),
		"n":   Int,
	}

	tests := []struct {
		name  string
		class string
		expr  ast.Expression
		want  *Type
		kinds []diagnostic.Kind
	}{
		{"qualified", "", ast.NewCall(varRef("obj"), ident("compute"), intLit(1)), Int, nil},
		{"inherited method", "", ast.NewCall(varRef("d"), ident("speak")), String, nil},
		{"subclass argument", "", ast.NewCall(varRef("d"), ident("fetch"), newObj("Dog")), Bool, nil},
		{"null argument", "", ast.NewCall(varRef("d"), ident("fetch"), null()), Bool, nil},
		{"interface receiver", "", ast.NewCall(varRef("p"), ident("cuddle")), Void, nil},
		{"method from implemented interface", "", ast.NewCall(varRef("cat"), ident("cuddle")), Void, nil},
		{"call on this", "Dog", ast.NewCall(this(), ident("fetch"), this()), Bool, nil},
		{"implicit receiver", "Dog", ast.NewImplicitCall(ident("compute"), intLit(2)), Int, nil},
		{"implicit inherited", "Cat", ast.NewImplicitCall(ident("speak")), String, nil},
		{"global function", "", ast.NewImplicitCall(ident("helper"), doubleLit(1.5)), Double, nil},
		{"global function from method", "Dog", ast.NewImplicitCall(ident("helper"), doubleLit(1.5)), Double, nil},
		{"array length", "", ast.NewCall(varRef("arr"), ident("length")), Int, nil},

		{"Scenario E: wrong count", "", ast.NewCall(varRef("obj"), ident("compute"), intLit(1), intLit(2)), Error,
			[]diagnostic.Kind{diagnostic.WrongArgumentCount}},
		{"wrong count with bad args", "", ast.NewCall(varRef("obj"), ident("compute"), strLit("a"), boolLit(true)), Error,
			[]diagnostic.Kind{diagnostic.WrongArgumentCount}},
		{"too few", "", ast.NewCall(varRef("obj"), ident("compute")), Error,
			[]diagnostic.Kind{diagnostic.WrongArgumentCount}},
		{"argument type", "", ast.NewCall(varRef("obj"), ident("compute"), strLit("a")), Int,
			[]diagnostic.Kind{diagnostic.ArgumentTypeMismatch}},
		{"unrelated argument", "", ast.NewCall(varRef("d"), ident("fetch"), varRef("p")), Bool,
			[]diagnostic.Kind{diagnostic.ArgumentTypeMismatch}},
		{"errored argument", "", ast.NewCall(varRef("obj"), ident("compute"), varRef("ghost")), Int,
			[]diagnostic.Kind{diagnostic.UndeclaredIdentifier}},
		{"no such method", "", ast.NewCall(varRef("obj"), ident("fly")), Error,
			[]diagnostic.Kind{diagnostic.UndeclaredMethod}},
		{"subclass method on superclass", "", ast.NewCall(varRef("obj"), ident("fetch"), null()), Error,
			[]diagnostic.Kind{diagnostic.UndeclaredMethod}},
		{"implicit without class", "", ast.NewImplicitCall(ident("compute"), intLit(1)), Error,
			[]diagnostic.Kind{diagnostic.UndeclaredMethod}},
		{"implicit missing", "Animal", ast.NewImplicitCall(ident("fetch"), null()), Error,
			[]diagnostic.Kind{diagnostic.UndeclaredMethod}},
		{"array other method", "", ast.NewCall(varRef("arr"), ident("size")), Error,
			[]diagnostic.Kind{diagnostic.UndeclaredMethod}},
		{"array length with arguments", "", ast.NewCall(varRef("arr"), ident("length"), intLit(1)), Error,
			[]diagnostic.Kind{diagnostic.WrongArgumentCount}},
		{"call on int", "", ast.NewCall(varRef("n"), ident("compute")), Error,
			[]diagnostic.Kind{diagnostic.NotAClass}},
		{"arguments checked after bad receiver", "", ast.NewCall(varRef("n"), ident("compute"), varRef("ghost")), Error,
			[]diagnostic.Kind{diagnostic.UndeclaredIdentifier, diagnostic.NotAClass}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChecker(t, st)
			var ctx *Context
			if tt.class == "" {
				ctx = globalContext(t, st, locals)
			} else {
				ctx = methodContext(t, st, tt.class, nil)
			}
			assertType(t, mustCheck(t, c, tt.expr, ctx), tt.want)
			assertKinds(t, c, tt.kinds...)
		})
	}

	t.Run("argument mismatch names the position", func(t *testing.T) {
		c := newChecker(t, st)
		mustCheck(t, c, ast.NewCall(varRef("obj"), ident("compute"), strLit("a")), globalContext(t, st, locals))
		assertErrorsContain(t, c, "Incompatible argument 1: string given, int expected")
	})

	t.Run("count mismatch message", func(t *testing.T) {
		c := newChecker(t, st)
		mustCheck(t, c, ast.NewCall(varRef("obj"), ident("compute"), intLit(1), intLit(2)), globalContext(t, st, locals))
		assertErrorsContain(t, c, "Function 'compute' expects 1 arguments but 2 given")
	})
}

func TestNew(t *testing.T) {
	st := newAnimalTable(t)

	t.Run("declared class", func(t *testing.T) {
		c := newChecker(t, st)
		assertType(t, mustCheck(t, c, newObj("Dog"), nil), NewNamed("Dog"))
		assertNoErrors(t, c)
	})

	t.Run("Scenario C: undeclared class", func(t *testing.T) {
		c := newChecker(t, st)
		assertType(t, mustCheck(t, c, newObj("Foo"), nil), Error)
		assertKinds(t, c, diagnostic.UndeclaredClass)
		assertErrorsContain(t, c, "No declaration found for class 'Foo'")
	})

	t.Run("Scenario C: enclosing assignment adds nothing", func(t *testing.T) {
		c := newChecker(t, st)
		ctx := globalContext(t, st, map[string]*Type{"f": NewNamed("Foo")})
		assertType(t, mustCheck(t, c, assign(varRef("f"), newObj("Foo")), ctx), Error)
		assertKinds(t, c, diagnostic.UndeclaredClass)
	})

	t.Run("interface", func(t *testing.T) {
		c := newChecker(t, st)
		assertType(t, mustCheck(t, c, newObj("Pet"), nil), Error)
		assertKinds(t, c, diagnostic.UndeclaredClass)
	})
}

func TestNewArray(t *testing.T) {
	st := newAnimalTable(t)
	tests := []struct {
		name  string
		expr  ast.Expression
		want  *Type
		kinds []diagnostic.Kind
	}{
		{"int elements", newArray(intLit(5), primitive("int")), NewArray(Int), nil},
		{"class elements", newArray(intLit(5), named("Dog")), NewArray(NewNamed("Dog")), nil},
		{"array elements", newArray(intLit(2), &ast.ArrayType{Token: dummyToken, Elem: primitive("double")}), NewArray(NewArray(Double)), nil},
		{"bool size", newArray(boolLit(true), primitive("int")), NewArray(Int), []diagnostic.Kind{diagnostic.TypeMismatch}},
		{"double size", newArray(doubleLit(2), primitive("string")), NewArray(String), []diagnostic.Kind{diagnostic.TypeMismatch}},
		{"unknown element class", newArray(intLit(3), named("Ghost")), NewArray(NewNamed("Ghost")), []diagnostic.Kind{diagnostic.UndeclaredClass}},
		{"errored size", newArray(varRef("ghost"), primitive("int")), NewArray(Int), []diagnostic.Kind{diagnostic.UndeclaredIdentifier}},
		{"void elements", newArray(intLit(3), primitive("void")), NewArray(Void), []diagnostic.Kind{diagnostic.TypeMismatch}},
		{"nested void elements", newArray(intLit(3), &ast.ArrayType{Token: dummyToken, Elem: primitive("void")}),
			NewArray(NewArray(Void)), []diagnostic.Kind{diagnostic.TypeMismatch}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChecker(t, st)
			typ := mustCheck(t, c, tt.expr, nil)
			assertType(t, typ, tt.want)
			assertKinds(t, c, tt.kinds...)
		})
	}

	t.Run("type name", func(t *testing.T) {
		c := newChecker(t, st)
		expr := newArray(intLit(2), &ast.ArrayType{Token: dummyToken, Elem: named("Dog")})
		mustCheck(t, c, expr, nil)
		if got := c.TypeNameOf(expr); got != "Dog[][]" {
			t.Errorf("expected type name Dog[][], got %q", got)
		}
	})
}

func TestPostfix(t *testing.T) {
	st := newAnimalTable(t)
	locals := map[string]*Type{"i": Int, "x": Double, "b": Bool, "arr": NewArray(Int)}

	tests := []struct {
		name  string
		expr  ast.Expression
		want  *Type
		kinds []diagnostic.Kind
	}{
		{"int++", &ast.PostfixExpr{Operand: varRef("i"), Op: op("++")}, Int, nil},
		{"double--", &ast.PostfixExpr{Operand: varRef("x"), Op: op("--")}, Double, nil},
		{"array element", &ast.PostfixExpr{Operand: index(varRef("arr"), intLit(0)), Op: op("++")}, Int, nil},
		{"bool++", &ast.PostfixExpr{Operand: varRef("b"), Op: op("++")}, Error, []diagnostic.Kind{diagnostic.TypeMismatch}},
		{"literal++", &ast.PostfixExpr{Operand: intLit(5), Op: op("++")}, Error, []diagnostic.Kind{diagnostic.TypeMismatch}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChecker(t, st)
			assertType(t, mustCheck(t, c, tt.expr, globalContext(t, st, locals)), tt.want)
			assertKinds(t, c, tt.kinds...)
		})
	}

	t.Run("field of this", func(t *testing.T) {
		c := newChecker(t, st)
		expr := &ast.PostfixExpr{Operand: field(this(), "age"), Op: op("++")}
		assertType(t, mustCheck(t, c, expr, methodContext(t, st, "Dog", nil)), Int)
		assertNoErrors(t, c)
	})
}

func TestCheckingIsIdempotent(t *testing.T) {
	st := newAnimalTable(t)
	c := newChecker(t, st)
	ctx := methodContext(t, st, "Dog", map[string]*Type{"arr": NewArray(Int)})

	// age = arr["a"] + compute(1, 2) + new Foo
	expr := assign(varRef("age"),
		ast.NewArithmetic(
			ast.NewArithmetic(index(varRef("arr"), strLit("a")), op("+"), ast.NewImplicitCall(ident("compute"), intLit(1), intLit(2))),
			op("+"),
			newObj("Foo")))

	first := mustCheck(t, c, expr, ctx)
	firstErrs := c.Diagnostics().Messages()
	second := mustCheck(t, c, expr, ctx)
	secondErrs := c.Diagnostics().Messages()

	if first != second {
		t.Errorf("re-check changed the type: %s then %s", first, second)
	}
	if len(firstErrs) != 3 || len(secondErrs) != len(firstErrs) {
		t.Fatalf("expected 3 diagnostics both times, got %v then %v", firstErrs, secondErrs)
	}
	for i := range firstErrs {
		if firstErrs[i] != secondErrs[i] {
			t.Errorf("diagnostic %d changed: %q vs %q", i, firstErrs[i], secondErrs[i])
		}
	}

	sub := index(varRef("arr"), intLit(0))
	if _, ok := c.TypeOf(sub); ok {
		t.Errorf("unchecked node should have no type")
	}
	if got := c.TypeNameOf(sub); got != "" {
		t.Errorf("unchecked node should have no type name, got %q", got)
	}
	if typ, ok := c.TypeOf(expr); !ok || typ != first {
		t.Errorf("TypeOf should return the annotated type")
	}
}

func TestCheckAll(t *testing.T) {
	st := newAnimalTable(t)
	c := newChecker(t, st)
	types, err := c.CheckAll([]ast.Expression{intLit(1), strLit("s"), newObj("Foo"), newObj("Cat")}, nil)
	if err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	want := []*Type{Int, String, Error, NewNamed("Cat")}
	for i := range want {
		assertType(t, types[i], want[i])
	}
	assertKinds(t, c, diagnostic.UndeclaredClass)
}

func TestMalformedTrees(t *testing.T) {
	st := newAnimalTable(t)
	tests := []struct {
		name string
		expr ast.Expression
	}{
		{"nil expression", nil},
		{"unary relational", &ast.RelationalExpr{CompoundExpr: ast.CompoundExpr{Op: op("<"), Right: intLit(1)}}},
		{"relational with +", ast.NewRelational(intLit(1), op("+"), intLit(2))},
		{"arithmetic with ==", ast.NewArithmetic(intLit(1), op("=="), intLit(2))},
		{"unary +", ast.NewUnaryArithmetic(op("+"), intLit(1))},
		{"missing operator", &ast.ArithmeticExpr{CompoundExpr: ast.CompoundExpr{Left: intLit(1), Right: intLit(2)}}},
		{"missing right operand", ast.NewArithmetic(intLit(1), op("+"), nil)},
		{"postfix with !", &ast.PostfixExpr{Operand: varRef("i"), Op: op("!")}},
		{"field access without receiver", &ast.FieldAccess{Field: ident("x")}},
		{"call without base", ast.NewCall(nil, ident("m"))},
		{"unknown primitive", newArray(intLit(1), primitive("float"))},
		{"nil node pointer", (*ast.Call)(nil)},
		{"nil left operand pointer", ast.NewArithmetic((*ast.IntConstant)(nil), op("+"), intLit(1))},
		{"nil right operand pointer", ast.NewEquality(intLit(1), op("=="), (*ast.IntConstant)(nil))},
		{"nil array base pointer", index((*ast.FieldAccess)(nil), intLit(0))},
		{"nil postfix operand pointer", &ast.PostfixExpr{Operand: (*ast.FieldAccess)(nil), Op: op("++")}},
		{"nil receiver pointer", &ast.Call{Recv: (*ast.Qualified)(nil), Method: ident("m")}},
		{"nil element type pointer", newArray(intLit(1), (*ast.PrimitiveType)(nil))},
		{"nested malformed child", ast.NewArithmetic(intLit(1), op("+"), ast.NewLogical(boolLit(true), op("+"), boolLit(false)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newChecker(t, st)
			typ, err := c.Check(tt.expr, nil)
			if err == nil {
				t.Fatalf("expected an error for a malformed tree, got type %s", typ)
			}
			if !strings.Contains(err.Error(), "malformed expression tree") {
				t.Errorf("unexpected error %v", err)
			}
			if typ != nil {
				t.Errorf("expected nil type on error, got %s", typ)
			}
		})
	}

	t.Run("CheckAll stops on malformed tree", func(t *testing.T) {
		c := newChecker(t, st)
		if _, err := c.CheckAll([]ast.Expression{intLit(1), nil}, nil); err == nil {
			t.Errorf("expected CheckAll to fail")
		}
	})
}

func TestNewCheckerRequiresCollaborators(t *testing.T) {
	st := NewSymbolTable()
	if _, err := NewChecker(nil, st); err == nil {
		t.Errorf("expected error for nil resolver")
	}
	if _, err := NewChecker(st, nil); err == nil {
		t.Errorf("expected error for nil type facts")
	}
	if _, err := NewTableChecker(nil); err == nil {
		t.Errorf("expected error for nil symbol table")
	}
}

func TestDiagnosticPositions(t *testing.T) {
	st := newAnimalTable(t)
	c := newChecker(t, st)
	left := &ast.IntConstant{Token: lexer.Token{Type: lexer.INT_CONST, Literal: "3", Line: 4, Column: 9}, Value: 3}
	mustCheck(t, c, ast.NewArithmetic(left, op("+"), strLit("x")), nil)

	d := c.Errors()[0]
	if d.Line != 4 || d.Column != 9 {
		t.Errorf("expected diagnostic at 4:9, got %d:%d", d.Line, d.Column)
	}
	if !strings.HasPrefix(d.String(), "line 4:9: ") {
		t.Errorf("unexpected rendering %q", d.String())
	}
}

func TestWithLogger(t *testing.T) {
	st := newAnimalTable(t)
	var buf bytes.Buffer
	c, err := NewTableChecker(st, WithLogger(log.New(&buf, "", 0)))
	if err != nil {
		t.Fatal(err)
	}
	ctx := globalContext(t, st, map[string]*Type{"d": NewNamed("Dog")})
	mustCheck(t, c, ast.NewCall(varRef("d"), ident("speak")), ctx)
	mustCheck(t, c, varRef("ghost"), ctx)

	out := buf.String()
	if !strings.Contains(out, "call Dog.speak resolved in Animal") {
		t.Errorf("expected call resolution trace, got %q", out)
	}
	if !strings.Contains(out, "undeclared identifier") {
		t.Errorf("expected diagnostic trace, got %q", out)
	}
}
