package codegen

import (
	"fmt"
	"io"
	"log"
	"strings"
	"unicode"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/rfigueror1/decaf-compiler-1/semant"
)

const defaultTargetTriple = "arm64-apple-macosx"

var i8Ptr = types.NewPointer(types.I8)

// CodeGenerator lays out a checked program as an LLVM module: one struct
// per class, a vtable per class, and declarations for every method, global
// function and global variable. Bodies are left to later phases.
type CodeGenerator struct {
	module     *ir.Module
	symbols    *semant.SymbolTable
	classTypes map[string]*types.StructType
	classTable ClassTable
	vtables    map[string]*ir.Global
	methods    map[string]*ir.Func
	globals    map[string]*ir.Global
	logger     *log.Logger
}

type Option func(*CodeGenerator)

// WithTargetTriple sets the module's target triple.
func WithTargetTriple(triple string) Option {
	return func(g *CodeGenerator) {
		g.module.TargetTriple = triple
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(g *CodeGenerator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewCodeGenerator(st *semant.SymbolTable, opts ...Option) (*CodeGenerator, error) {
	if st == nil {
		return nil, fmt.Errorf("codegen: generator needs a symbol table")
	}
	module := ir.NewModule()
	module.TargetTriple = defaultTargetTriple
	g := &CodeGenerator{
		module:     module,
		symbols:    st,
		classTypes: make(map[string]*types.StructType),
		classTable: make(ClassTable),
		vtables:    make(map[string]*ir.Global),
		methods:    make(map[string]*ir.Func),
		globals:    make(map[string]*ir.Global),
		logger:     log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate fills the module. The symbol table must describe a valid
// hierarchy.
func (g *CodeGenerator) Generate() (*ir.Module, error) {
	if errs := g.symbols.ValidateInheritance(); len(errs) > 0 {
		return nil, fmt.Errorf("codegen: invalid class hierarchy: %v", errs[0])
	}

	// 1. Inherited layouts and vtable slots.
	if err := g.BuildClassTable(); err != nil {
		return nil, err
	}

	// 2. Struct types, declared before their fields so classes can refer to
	// each other.
	if err := g.DeclareClasses(); err != nil {
		return nil, err
	}

	// 3. Method declarations, then the vtables pointing at them.
	if err := g.DeclareMethods(); err != nil {
		return nil, err
	}
	if err := g.ConstructVTables(); err != nil {
		return nil, err
	}

	// 4. Global functions and variables.
	if err := g.DeclareGlobals(); err != nil {
		return nil, err
	}
	return g.module, nil
}

// DeclareClasses creates one named struct per class: the vtable pointer
// followed by every field, inherited ones first.
func (g *CodeGenerator) DeclareClasses() error {
	names := g.classTable.sortedNames()
	for _, name := range names {
		st := types.NewStruct()
		g.module.NewTypeDef(name, st)
		g.classTypes[name] = st
	}

	for _, name := range names {
		info := g.classTable[name]
		fields := []types.Type{i8Ptr}
		for _, attr := range info.Attributes {
			fieldType, err := g.LowerType(attr.Type)
			if err != nil {
				return fmt.Errorf("field %s.%s: %w", name, attr.Name, err)
			}
			fields = append(fields, fieldType)
		}
		g.classTypes[name].Fields = fields
		g.logger.Printf("Declared class %s with %d fields", name, len(info.Attributes))
	}
	return nil
}

// DeclareMethods declares ClassName.method for every method a class
// defines itself. The receiver comes first.
func (g *CodeGenerator) DeclareMethods() error {
	for _, name := range g.classTable.sortedNames() {
		class, _ := g.symbols.LookupClass(name)
		for _, methodName := range sortedKeys(class.Methods) {
			method := class.Methods[methodName]
			this := ir.NewParam("this", types.NewPointer(g.classTypes[name]))
			fn, err := g.declareFunc(methodSymbol(name, methodName), method, this)
			if err != nil {
				return err
			}
			if _, exists := g.methods[fn.Name()]; exists {
				return fmt.Errorf("function %s is declared twice", fn.Name())
			}
			g.methods[fn.Name()] = fn
		}
	}
	return nil
}

// DeclareGlobals declares global functions and defines global variables,
// zero initialized.
func (g *CodeGenerator) DeclareGlobals() error {
	for _, name := range sortedKeys(g.symbols.Functions) {
		if _, exists := g.methods[name]; exists {
			return fmt.Errorf("function %s is declared twice", name)
		}
		fn, err := g.declareFunc(name, g.symbols.Functions[name])
		if err != nil {
			return err
		}
		g.methods[name] = fn
	}

	for _, name := range sortedKeys(g.symbols.GlobalScope.Symbols) {
		symbol := g.symbols.GlobalScope.Symbols[name]
		typ, err := g.LowerType(symbol.Type)
		if err != nil {
			return fmt.Errorf("global %s: %w", name, err)
		}
		g.globals[name] = g.module.NewGlobalDef(name, constant.NewZeroInitializer(typ))
	}
	return nil
}

func (g *CodeGenerator) declareFunc(name string, method *semant.Method, leading ...*ir.Param) (*ir.Func, error) {
	retType, err := g.LowerType(method.ReturnType)
	if err != nil {
		return nil, fmt.Errorf("return type of %s: %w", name, err)
	}
	params := append([]*ir.Param{}, leading...)
	for _, p := range method.Params {
		paramType, err := g.LowerType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %s of %s: %w", p.Name, name, err)
		}
		if paramType.Equal(types.Void) {
			return nil, fmt.Errorf("parameter %s of %s has type void", p.Name, name)
		}
		params = append(params, ir.NewParam(p.Name, paramType))
	}
	return g.module.NewFunc(name, retType, params...), nil
}

// methodSymbol names the LLVM function for a method. Decaf identifiers
// cannot contain '.', so Class.method never collides with another method,
// a global function or a global variable.
func methodSymbol(className, methodName string) string {
	return fmt.Sprintf("%s.%s", className, methodName)
}

func vtableSymbol(className string) string {
	return fmt.Sprintf("%s.vtable", className)
}

func (g *CodeGenerator) getOrCreateStringConstant(name string) *ir.Global {
	sanitizedName := strings.Map(func(r rune) rune {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return '_'
		}
		return r
	}, name)
	strConstName := fmt.Sprintf(".str.%s", sanitizedName)

	for _, global := range g.module.Globals {
		if global.Name() == strConstName {
			return global
		}
	}
	return g.module.NewGlobalDef(strConstName, constant.NewCharArray([]byte(name+"\x00")))
}

func (g *CodeGenerator) Module() *ir.Module { return g.module }

func (g *CodeGenerator) ClassTable() ClassTable { return g.classTable }

// Func returns a declared method (ClassName.method) or global function.
func (g *CodeGenerator) Func(name string) (*ir.Func, bool) {
	fn, ok := g.methods[name]
	return fn, ok
}

func (g *CodeGenerator) VTable(className string) (*ir.Global, bool) {
	vt, ok := g.vtables[className]
	return vt, ok
}

func (g *CodeGenerator) Global(name string) (*ir.Global, bool) {
	gv, ok := g.globals[name]
	return gv, ok
}
