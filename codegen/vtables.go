package codegen

import (
	"fmt"
	"sort"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// ConstructVTables defines ClassName.vtable for every class:
//
//	{ i8* name, i8* parent vtable, [n x i8*] methods }
//
// Parents are built first so children can link to them.
func (g *CodeGenerator) ConstructVTables() error {
	for _, className := range g.classTable.sortedNames() {
		info := g.classTable[className]
		classNameConst := g.getOrCreateStringConstant(info.Name)

		methods := make([]MethodInfo, 0, len(info.Methods))
		for _, method := range info.Methods {
			methods = append(methods, method)
		}
		sort.Slice(methods, func(i, j int) bool {
			return methods[i].Index < methods[j].Index
		})

		var parentVtable constant.Constant
		if info.Parent == "" {
			parentVtable = constant.NewNull(i8Ptr)
		} else {
			parentGlobal := g.vtables[info.Parent]
			if parentGlobal == nil {
				return fmt.Errorf("parent vtable %s not found for class %s", info.Parent, info.Name)
			}
			parentVtable = constant.NewBitCast(parentGlobal, i8Ptr)
		}

		vtableArrayType := types.NewArray(uint64(len(methods)), i8Ptr)
		vtableType := types.NewStruct(
			i8Ptr,           // class name
			i8Ptr,           // parent vtable
			vtableArrayType, // methods array
		)

		methodList := make([]constant.Constant, 0, len(methods))
		for _, method := range methods {
			fn := g.methods[method.Name]
			if fn == nil {
				return fmt.Errorf("method %s not found in methods map", method.Name)
			}
			methodList = append(methodList, constant.NewBitCast(fn, i8Ptr))
		}

		vtableInit := constant.NewStruct(vtableType,
			constant.NewBitCast(classNameConst, i8Ptr),
			parentVtable,
			constant.NewArray(vtableArrayType, methodList...),
		)
		g.vtables[info.Name] = g.module.NewGlobalDef(vtableSymbol(info.Name), vtableInit)
		g.logger.Printf("Constructed vtable for %s with %d slots", info.Name, len(methods))
	}
	return nil
}
