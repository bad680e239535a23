package semant

import (
	"fmt"
	"sort"
)

type SymbolKind int

const (
	SymbolClass SymbolKind = iota
	SymbolInterface
	SymbolMethod
	SymbolField
	SymbolGlobal
	SymbolParam
	SymbolLocal
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolClass:
		return "class"
	case SymbolInterface:
		return "interface"
	case SymbolMethod:
		return "method"
	case SymbolField:
		return "field"
	case SymbolGlobal:
		return "global"
	case SymbolParam:
		return "parameter"
	case SymbolLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Symbol is a variable binding: a global, parameter, local or field.
type Symbol struct {
	Name          string
	Kind          SymbolKind
	Type          *Type
	DefiningClass string // set for fields
}

type Param struct {
	Name string
	Type *Type
}

// Method is a method signature.
type Method struct {
	Name          string
	Params        []Param
	ReturnType    *Type
	DefiningClass string
}

// Class describes a class or interface: its own members and its place in
// the hierarchy. Inherited members are reached through SymbolTable lookups.
type Class struct {
	Name        string
	Parent      string // empty when the class extends nothing
	Interfaces  []string
	IsInterface bool
	Fields      map[string]*Symbol
	FieldOrder  []string
	Methods     map[string]*Method
}

// Type returns the named type of the class.
func (c *Class) Type() *Type { return NewNamed(c.Name) }

// Scope is one level of variable bindings (globals, a method's formals, a
// block's locals).
type Scope struct {
	Kind    SymbolKind
	Symbols map[string]*Symbol
	Parent  *Scope
}

func NewScope(kind SymbolKind, parent *Scope) *Scope {
	return &Scope{
		Kind:    kind,
		Symbols: make(map[string]*Symbol),
		Parent:  parent,
	}
}

// Declare binds name in this scope. Shadowing an outer scope is allowed,
// redeclaring within the same scope is not.
func (s *Scope) Declare(name string, t *Type) error {
	if _, exists := s.Symbols[name]; exists {
		return fmt.Errorf("declaration of '%s' here conflicts with an earlier declaration", name)
	}
	s.Symbols[name] = &Symbol{Name: name, Kind: s.Kind, Type: t}
	return nil
}

// Lookup searches this scope and its parents.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for scope := s; scope != nil; scope = scope.Parent {
		if symbol, exists := scope.Symbols[name]; exists {
			return symbol, true
		}
	}
	return nil, false
}

// Context is where an expression is checked: the enclosing class, if any,
// and the innermost variable scope.
type Context struct {
	Class *Class
	Scope *Scope
}

// Enter returns a context for a nested block of the same class.
func (ctx *Context) Enter(kind SymbolKind) *Context {
	return &Context{Class: ctx.Class, Scope: NewScope(kind, ctx.Scope)}
}

// SymbolTable holds the class hierarchy and global bindings. It is built
// before expression checking and is only read during it.
type SymbolTable struct {
	GlobalScope *Scope
	Functions   map[string]*Method
	Classes     map[string]*Class
	Inheritance *InheritanceGraph
}

// InheritanceGraph maps each class to its parent class.
type InheritanceGraph struct {
	Edges map[string]string

	// For cycle detection
	Visited        map[string]bool
	RecursionStack map[string]bool
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		GlobalScope: NewScope(SymbolGlobal, nil),
		Functions:   make(map[string]*Method),
		Classes:     make(map[string]*Class),
		Inheritance: NewInheritanceGraph(),
	}
}

func NewInheritanceGraph() *InheritanceGraph {
	return &InheritanceGraph{
		Edges:          make(map[string]string),
		Visited:        make(map[string]bool),
		RecursionStack: make(map[string]bool),
	}
}

// AddInheritanceEdge records that child extends parent.
func (g *InheritanceGraph) AddInheritanceEdge(child, parent string) error {
	if child == parent {
		return fmt.Errorf("class %s cannot extend itself", child)
	}
	if _, exists := g.Edges[child]; exists {
		return fmt.Errorf("class %s is redefined", child)
	}
	g.Edges[child] = parent
	return nil
}

// DetectCycles checks for inheritance cycles starting from a given class
func (g *InheritanceGraph) DetectCycles(className string) bool {
	g.RecursionStack = make(map[string]bool)
	g.Visited = make(map[string]bool)
	return g.hasCycle(className)
}

func (g *InheritanceGraph) hasCycle(className string) bool {
	if g.RecursionStack[className] {
		return true
	}
	if g.Visited[className] {
		return false
	}

	g.Visited[className] = true
	g.RecursionStack[className] = true

	if parent, exists := g.Edges[className]; exists {
		if g.hasCycle(parent) {
			return true
		}
	}

	g.RecursionStack[className] = false
	return false
}

// Ancestors returns className's proper ancestors, nearest first. It stops
// at the first repeated class, so a cyclic graph still terminates.
func (g *InheritanceGraph) Ancestors(className string) []string {
	var out []string
	visited := map[string]bool{className: true}
	for current := g.Edges[className]; current != "" && !visited[current]; current = g.Edges[current] {
		visited[current] = true
		out = append(out, current)
	}
	return out
}

// AddClass declares a class. The parent (and the interfaces) may be
// declared later; ValidateInheritance checks them once everything is in.
func (st *SymbolTable) AddClass(name, parent string, interfaces ...string) (*Class, error) {
	if _, exists := st.Classes[name]; exists {
		return nil, fmt.Errorf("class %s is redefined", name)
	}
	if parent != "" {
		if err := st.Inheritance.AddInheritanceEdge(name, parent); err != nil {
			return nil, err
		}
	}
	class := &Class{
		Name:       name,
		Parent:     parent,
		Interfaces: interfaces,
		Fields:     make(map[string]*Symbol),
		Methods:    make(map[string]*Method),
	}
	st.Classes[name] = class
	return class, nil
}

// AddInterface declares an interface. Interfaces only carry methods.
func (st *SymbolTable) AddInterface(name string) (*Class, error) {
	if _, exists := st.Classes[name]; exists {
		return nil, fmt.Errorf("interface %s is redefined", name)
	}
	iface := &Class{
		Name:        name,
		IsInterface: true,
		Fields:      make(map[string]*Symbol),
		Methods:     make(map[string]*Method),
	}
	st.Classes[name] = iface
	return iface, nil
}

// AddField declares a field on className.
func (st *SymbolTable) AddField(className, name string, t *Type) error {
	class, exists := st.Classes[className]
	if !exists {
		return fmt.Errorf("internal error: class %s not found", className)
	}
	if class.IsInterface {
		return fmt.Errorf("interface %s cannot declare field %s", className, name)
	}
	if _, exists := class.Fields[name]; exists {
		return fmt.Errorf("field %s is redefined in class %s", name, className)
	}
	if _, exists := class.Methods[name]; exists {
		return fmt.Errorf("field %s conflicts with method %s in class %s", name, name, className)
	}
	if _, exists := st.findFieldInParents(className, name); exists {
		return fmt.Errorf("field %s is redefined in class %s", name, className)
	}

	class.Fields[name] = &Symbol{
		Name:          name,
		Kind:          SymbolField,
		Type:          t,
		DefiningClass: className,
	}
	class.FieldOrder = append(class.FieldOrder, name)
	return nil
}

// AddMethod declares a method on className. An override must repeat the
// inherited signature exactly.
func (st *SymbolTable) AddMethod(className string, method *Method) error {
	class, exists := st.Classes[className]
	if !exists {
		return fmt.Errorf("internal error: class %s not found", className)
	}
	if _, exists := class.Methods[method.Name]; exists {
		return fmt.Errorf("method %s is redefined in class %s", method.Name, className)
	}
	if _, exists := class.Fields[method.Name]; exists {
		return fmt.Errorf("method %s conflicts with field %s in class %s", method.Name, method.Name, className)
	}

	for _, ancestor := range st.Inheritance.Ancestors(className) {
		parentClass, ok := st.Classes[ancestor]
		if !ok {
			break
		}
		if inherited, ok := parentClass.Methods[method.Name]; ok {
			if err := sameSignature(inherited, method); err != nil {
				return fmt.Errorf("invalid override of method '%s' in class %s: %v", method.Name, className, err)
			}
			break
		}
	}

	m := *method
	m.DefiningClass = className
	class.Methods[method.Name] = &m
	return nil
}

func sameSignature(inherited, method *Method) error {
	if len(inherited.Params) != len(method.Params) {
		return fmt.Errorf("expected %d parameters, got %d", len(inherited.Params), len(method.Params))
	}
	for i, param := range inherited.Params {
		if !param.Type.Equal(method.Params[i].Type) {
			return fmt.Errorf("parameter #%d type mismatch: expected '%s', got '%s'", i+1, param.Type, method.Params[i].Type)
		}
	}
	if !inherited.ReturnType.Equal(method.ReturnType) {
		return fmt.Errorf("return type mismatch: expected '%s', got '%s'", inherited.ReturnType, method.ReturnType)
	}
	return nil
}

// DeclareGlobal binds a global variable.
func (st *SymbolTable) DeclareGlobal(name string, t *Type) error {
	if _, exists := st.Functions[name]; exists {
		return fmt.Errorf("global %s conflicts with function %s", name, name)
	}
	return st.GlobalScope.Declare(name, t)
}

// AddFunction declares a global function.
func (st *SymbolTable) AddFunction(fn *Method) error {
	if _, exists := st.Functions[fn.Name]; exists {
		return fmt.Errorf("function %s is redefined", fn.Name)
	}
	if _, exists := st.GlobalScope.Symbols[fn.Name]; exists {
		return fmt.Errorf("function %s conflicts with global %s", fn.Name, fn.Name)
	}
	st.Functions[fn.Name] = fn
	return nil
}

// ValidateInheritance checks that every parent is a declared class, every
// implemented interface is a declared interface, and there are no cycles.
func (st *SymbolTable) ValidateInheritance() []error {
	var errs []error

	names := make([]string, 0, len(st.Classes))
	for name := range st.Classes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		class := st.Classes[name]
		if class.Parent != "" {
			parent, exists := st.Classes[class.Parent]
			switch {
			case !exists:
				errs = append(errs, fmt.Errorf("class %s extends undefined class %s", name, class.Parent))
			case parent.IsInterface:
				errs = append(errs, fmt.Errorf("class %s cannot extend interface %s", name, class.Parent))
			case st.Inheritance.DetectCycles(name):
				errs = append(errs, fmt.Errorf("inheritance cycle detected involving class %s", name))
			}
		}
		for _, ifaceName := range class.Interfaces {
			iface, exists := st.Classes[ifaceName]
			if !exists || !iface.IsInterface {
				errs = append(errs, fmt.Errorf("class %s implements undefined interface %s", name, ifaceName))
			}
		}
	}
	return errs
}

func (st *SymbolTable) findFieldInParents(className, name string) (*Symbol, bool) {
	for _, ancestor := range st.Inheritance.Ancestors(className) {
		if class, exists := st.Classes[ancestor]; exists {
			if field, exists := class.Fields[name]; exists {
				return field, true
			}
		}
	}
	return nil, false
}

// Resolver methods.

// LookupVariable searches the context's local scope chain. Globals are
// not included; see LookupGlobal.
func (st *SymbolTable) LookupVariable(name string, ctx *Context) (*Type, bool) {
	if ctx == nil || ctx.Scope == nil {
		return nil, false
	}
	if symbol, exists := ctx.Scope.Lookup(name); exists {
		return symbol.Type, true
	}
	return nil, false
}

func (st *SymbolTable) LookupGlobal(name string) (*Type, bool) {
	if symbol, exists := st.GlobalScope.Lookup(name); exists {
		return symbol.Type, true
	}
	return nil, false
}

func (st *SymbolTable) LookupFunction(name string) (*Method, bool) {
	fn, exists := st.Functions[name]
	return fn, exists
}

func (st *SymbolTable) LookupClass(name string) (*Class, bool) {
	class, exists := st.Classes[name]
	return class, exists
}

// LookupField finds a field on class or one of its ancestors.
func (st *SymbolTable) LookupField(class *Class, name string) (*Type, bool) {
	if field, exists := class.Fields[name]; exists {
		return field.Type, true
	}
	if field, exists := st.findFieldInParents(class.Name, name); exists {
		return field.Type, true
	}
	return nil, false
}

// LookupMethod finds a method on class or one of its ancestors. For a
// class, methods of implemented interfaces are found too, which covers
// abstract classes that have not provided them yet.
func (st *SymbolTable) LookupMethod(class *Class, name string) (*Method, bool) {
	chain := append([]string{class.Name}, st.Inheritance.Ancestors(class.Name)...)
	for _, className := range chain {
		c, exists := st.Classes[className]
		if !exists {
			break
		}
		if method, exists := c.Methods[name]; exists {
			return method, true
		}
	}
	for _, className := range chain {
		c, exists := st.Classes[className]
		if !exists {
			break
		}
		for _, ifaceName := range c.Interfaces {
			if iface, exists := st.Classes[ifaceName]; exists {
				if method, exists := iface.Methods[name]; exists {
					return method, true
				}
			}
		}
	}
	return nil, false
}

func (st *SymbolTable) EnclosingClass(ctx *Context) (*Class, bool) {
	if ctx == nil || ctx.Class == nil {
		return nil, false
	}
	return ctx.Class, true
}

// MethodContext returns a fresh context for checking a method body of
// className, with an empty scope for its formals.
func (st *SymbolTable) MethodContext(className string) (*Context, error) {
	class, exists := st.Classes[className]
	if !exists {
		return nil, fmt.Errorf("internal error: class %s not found", className)
	}
	return &Context{Class: class, Scope: NewScope(SymbolParam, nil)}, nil
}

// GlobalContext returns a context outside of any class, such as the body
// of a global function.
func (st *SymbolTable) GlobalContext() *Context {
	return &Context{Scope: NewScope(SymbolParam, nil)}
}

// TypeFacts methods.

func (st *SymbolTable) IsNumeric(t *Type) bool { return t.IsNumeric() }

func (st *SymbolTable) ArrayElementType(t *Type) (*Type, bool) { return t.Elem() }

// IsAssignableTo reports whether a value of type from may be used where to
// is expected. The error type is compatible with everything so that an
// already reported mistake does not produce a second one.
func (st *SymbolTable) IsAssignableTo(from, to *Type) bool {
	if from.IsError() || to.IsError() {
		return true
	}
	if from.Equal(to) {
		return true
	}
	if from.Kind() == KindNull {
		return to.IsReference()
	}
	if from.IsNamed() && to.IsNamed() {
		return st.IsSubtype(from.Name(), to.Name())
	}
	return false
}

// IsSubtype reports whether class sub is super, extends it, or implements
// it (directly or through an ancestor).
func (st *SymbolTable) IsSubtype(sub, super string) bool {
	if sub == super {
		return true
	}
	chain := append([]string{sub}, st.Inheritance.Ancestors(sub)...)
	for _, className := range chain {
		if className == super {
			return true
		}
		if class, exists := st.Classes[className]; exists {
			for _, iface := range class.Interfaces {
				if iface == super {
					return true
				}
			}
		}
	}
	return false
}
