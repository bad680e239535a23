package codegen

import (
	"fmt"
	"sort"

	"github.com/rfigueror1/decaf-compiler-1/semant"
)

// ClassTable maps a class name to its inheritance information.
type ClassTable map[string]*ClassInfo

// ClassInfo holds the layout and dispatch data for a class.
type ClassInfo struct {
	Name       string
	Parent     string
	Depth      int
	Attributes []AttributeInfo
	Methods    map[string]MethodInfo
	ObjectSize int
}

// AttributeInfo represents a field with its type and offset in the object
// layout. Offset 0 is reserved for the vtable pointer.
type AttributeInfo struct {
	Name   string
	Type   *semant.Type
	Offset int
}

// MethodInfo names the implementation behind a vtable slot.
type MethodInfo struct {
	Name  string // symbol of the implementing function
	Index int    // fixed slot in the vtable
}

// BuildClassTable computes layouts and vtable slots for every class,
// parents before children. Interfaces have no objects and are skipped.
func (g *CodeGenerator) BuildClassTable() error {
	g.classTable = make(ClassTable)

	for name, class := range g.symbols.Classes {
		if class.IsInterface {
			continue
		}
		g.classTable[name] = &ClassInfo{
			Name:    name,
			Parent:  class.Parent,
			Depth:   len(g.symbols.Inheritance.Ancestors(name)),
			Methods: make(map[string]MethodInfo),
		}
	}

	for _, name := range g.classTable.sortedNames() {
		info := g.classTable[name]
		class, _ := g.symbols.LookupClass(name)

		// First inherit from parent
		if parentInfo, exists := g.classTable[info.Parent]; exists {
			info.Attributes = append(info.Attributes, parentInfo.Attributes...)
			for methodName, method := range parentInfo.Methods {
				info.Methods[methodName] = method
			}
		}

		offset := len(info.Attributes) + 1
		for _, fieldName := range class.FieldOrder {
			for _, attr := range info.Attributes {
				if attr.Name == fieldName {
					return fmt.Errorf("attribute %s redefined in class %s", fieldName, name)
				}
			}
			info.Attributes = append(info.Attributes, AttributeInfo{
				Name:   fieldName,
				Type:   class.Fields[fieldName].Type,
				Offset: offset,
			})
			offset++
		}
		info.ObjectSize = offset

		methodIndex := len(info.Methods)
		for _, methodName := range sortedKeys(class.Methods) {
			symbol := methodSymbol(name, methodName)
			if inherited, exists := info.Methods[methodName]; exists {
				// Override: keep same vtable slot
				info.Methods[methodName] = MethodInfo{Name: symbol, Index: inherited.Index}
				continue
			}
			info.Methods[methodName] = MethodInfo{Name: symbol, Index: methodIndex}
			methodIndex++
		}
	}
	return nil
}

// FieldOffset returns the struct index of a field, inherited or not.
func (g *CodeGenerator) FieldOffset(className, field string) (int, error) {
	info, exists := g.classTable[className]
	if !exists {
		return 0, fmt.Errorf("class %s not found in class table", className)
	}
	for _, attr := range info.Attributes {
		if attr.Name == field {
			return attr.Offset, nil
		}
	}
	return 0, fmt.Errorf("class %s has no field %s", className, field)
}

// MethodSlot returns the vtable slot of a method, inherited or not.
func (g *CodeGenerator) MethodSlot(className, method string) (int, error) {
	info, exists := g.classTable[className]
	if !exists {
		return 0, fmt.Errorf("class %s not found in class table", className)
	}
	m, exists := info.Methods[method]
	if !exists {
		return 0, fmt.Errorf("class %s has no method %s", className, method)
	}
	return m.Index, nil
}

// sortedNames returns class names with parents before children, and by
// name within a depth.
func (t ClassTable) sortedNames() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		di, dj := t[names[i]].Depth, t[names[j]].Depth
		if di != dj {
			return di < dj
		}
		return names[i] < names[j]
	})
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
