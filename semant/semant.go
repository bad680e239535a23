package semant

import (
	"fmt"
	"log"
	"sort"

	"github.com/rfigueror1/decaf-compiler-1/ast"
)

// Body is the expression content of one method or global function: its
// formals, its locals and the expressions its statements evaluate, in
// source order. Class is empty for a global function.
type Body struct {
	Class   string
	Name    string
	Formals []Param
	Locals  []Param
	Exprs   []ast.Expression
}

// SemanticAnalyzer checks every body of a program against one symbol
// table. Declaration errors come first, then expression diagnostics in the
// order the bodies were checked.
type SemanticAnalyzer struct {
	symbolTable *SymbolTable
	checker     *Checker
	logger      *log.Logger
	errors      []string
}

func NewSemanticAnalyzer(st *SymbolTable, opts ...Option) (*SemanticAnalyzer, error) {
	checker, err := NewTableChecker(st, opts...)
	if err != nil {
		return nil, err
	}
	return &SemanticAnalyzer{
		symbolTable: st,
		checker:     checker,
		logger:      checker.logger,
		errors:      []string{},
	}, nil
}

func (sa *SemanticAnalyzer) Errors() []string {
	return sa.errors
}

func (sa *SemanticAnalyzer) Checker() *Checker {
	return sa.checker
}

// classDepth is the number of ancestors of a class; global functions sit
// at depth -1 so they are checked first.
func (sa *SemanticAnalyzer) classDepth(class string) int {
	if class == "" {
		return -1
	}
	return len(sa.symbolTable.Inheritance.Ancestors(class))
}

// topologicalSort orders bodies so that a parent's methods are checked
// before its children's. Bodies of the same depth keep source order.
func (sa *SemanticAnalyzer) topologicalSort(bodies []*Body) []*Body {
	order := make([]*Body, len(bodies))
	copy(order, bodies)
	sort.SliceStable(order, func(i, j int) bool {
		return sa.classDepth(order[i].Class) < sa.classDepth(order[j].Class)
	})
	return order
}

// Analyze validates the class hierarchy and then checks every body. An
// invalid hierarchy stops the analysis, as lookups through it cannot be
// trusted. The returned error is non-nil only for a malformed tree.
func (sa *SemanticAnalyzer) Analyze(bodies []*Body) error {
	sa.logger.Printf("=== Validating class hierarchy ===")
	if errs := sa.symbolTable.ValidateInheritance(); len(errs) > 0 {
		for _, err := range errs {
			sa.errors = append(sa.errors, err.Error())
		}
		return nil
	}

	for _, body := range sa.topologicalSort(bodies) {
		sa.logger.Printf("Analyzing %s", body.qualifiedName())
		if err := sa.analyzeBody(body); err != nil {
			return fmt.Errorf("%s: %w", body.qualifiedName(), err)
		}
	}
	return nil
}

func (sa *SemanticAnalyzer) analyzeBody(body *Body) error {
	var ctx *Context
	if body.Class == "" {
		ctx = sa.symbolTable.GlobalContext()
	} else {
		var err error
		if ctx, err = sa.symbolTable.MethodContext(body.Class); err != nil {
			sa.errors = append(sa.errors, fmt.Sprintf("Method %s belongs to undefined class %s", body.Name, body.Class))
			return nil
		}
	}

	for _, formal := range body.Formals {
		if err := ctx.Scope.Declare(formal.Name, formal.Type); err != nil {
			sa.errors = append(sa.errors, fmt.Sprintf("In %s: %v", body.qualifiedName(), err))
		}
	}
	locals := ctx.Enter(SymbolLocal)
	for _, local := range body.Locals {
		if err := locals.Scope.Declare(local.Name, local.Type); err != nil {
			sa.errors = append(sa.errors, fmt.Sprintf("In %s: %v", body.qualifiedName(), err))
		}
	}

	before := sa.checker.Diagnostics().Len()
	if _, err := sa.checker.CheckAll(body.Exprs, locals); err != nil {
		return err
	}
	for _, d := range sa.checker.Errors()[before:] {
		sa.errors = append(sa.errors, d.String())
	}
	return nil
}

func (b *Body) qualifiedName() string {
	if b.Class == "" {
		return b.Name
	}
	return b.Class + "." + b.Name
}

// Run builds an analyzer for st, checks bodies and returns the collected
// errors.
func Run(st *SymbolTable, bodies []*Body, opts ...Option) ([]string, error) {
	sa, err := NewSemanticAnalyzer(st, opts...)
	if err != nil {
		return nil, err
	}
	if err := sa.Analyze(bodies); err != nil {
		return sa.Errors(), err
	}
	return sa.Errors(), nil
}
