package semant

// TypeKind identifies the shape of a Type.
type TypeKind int

const (
	KindError TypeKind = iota
	KindVoid
	KindInt
	KindDouble
	KindBool
	KindString
	KindNull
	KindNamed
	KindArray
)

// Type is an immutable Decaf type. Primitive types are the package-level
// values below and are compared by identity; named and array types compare
// structurally through Equal.
type Type struct {
	kind TypeKind
	name string
	elem *Type
}

var (
	Int    = &Type{kind: KindInt, name: "int"}
	Double = &Type{kind: KindDouble, name: "double"}
	Bool   = &Type{kind: KindBool, name: "bool"}
	String = &Type{kind: KindString, name: "string"}
	Null   = &Type{kind: KindNull, name: "null"}
	Void   = &Type{kind: KindVoid, name: "void"}

	// Error marks an expression that has already been reported. Rules that
	// see it as an operand stay silent.
	Error = &Type{kind: KindError, name: "error"}
)

// NewNamed returns the type of a class or interface. The name does not have
// to be declared; resolution happens against the symbol table.
func NewNamed(name string) *Type {
	return &Type{kind: KindNamed, name: name}
}

// NewArray returns the type of arrays of elem. The name is built once here.
func NewArray(elem *Type) *Type {
	return &Type{kind: KindArray, name: elem.name + "[]", elem: elem}
}

// Primitive maps a keyword (int, double, bool, string, void) to its type.
func Primitive(keyword string) (*Type, bool) {
	switch keyword {
	case "int":
		return Int, true
	case "double":
		return Double, true
	case "bool":
		return Bool, true
	case "string":
		return String, true
	case "void":
		return Void, true
	}
	return nil, false
}

func (t *Type) Kind() TypeKind { return t.kind }

// Name is the source spelling of the type: int, Animal, double[][] ...
func (t *Type) Name() string { return t.name }

func (t *Type) String() string { return t.name }

// Elem returns the element type of an array type.
func (t *Type) Elem() (*Type, bool) {
	if t.kind != KindArray {
		return nil, false
	}
	return t.elem, true
}

func (t *Type) IsError() bool   { return t.kind == KindError }
func (t *Type) IsNamed() bool   { return t.kind == KindNamed }
func (t *Type) IsArray() bool   { return t.kind == KindArray }
func (t *Type) IsNumeric() bool { return t.kind == KindInt || t.kind == KindDouble }

// IsReference reports whether null may stand for a value of this type.
func (t *Type) IsReference() bool { return t.kind == KindNamed || t.kind == KindArray }

func (t *Type) Equal(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil || t.kind != other.kind {
		return false
	}
	switch t.kind {
	case KindNamed:
		return t.name == other.name
	case KindArray:
		return t.elem.Equal(other.elem)
	}
	return true
}
