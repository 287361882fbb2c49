package depm

import (
	"kresolve/types"
)

// StdlibModuleName is the name of the module holding the built-in
// declarations.
const StdlibModuleName = "kotlin-stdlib"

// JsIntrinsic is the intrinsic marker of the `js` function which embeds
// JavaScript code.
const JsIntrinsic = "js"

// Universe is the set of built-in declarations entered into every arena.  The
// packages of the universe are imported by default into every file.
type Universe struct {
	// The module holding the built-in declarations.
	Module *ModuleDescriptor

	// The built-in packages.
	Kotlin, Collections, JS *PackageDescriptor

	// The built-in classes by simple name.
	classes map[string]*ClassDescriptor
}

// EnterUniverse enters the built-in declarations into an arena.  This must be
// called before the arena is finalized.
func EnterUniverse(a *Arena) *Universe {
	u := &Universe{
		Module:  a.NewModule(StdlibModuleName),
		classes: make(map[string]*ClassDescriptor),
	}

	u.Kotlin = a.NewPackage(u.Module, "kotlin")
	u.Collections = a.NewPackage(u.Module, "kotlin.collections")
	u.JS = a.NewPackage(u.Module, "kotlin.js")

	for _, ctor := range types.BuiltinConstructors() {
		pkg := u.Kotlin
		if ctor == types.ListCtor || ctor == types.MutableListCtor {
			pkg = u.Collections
		}

		isInterface := ctor == types.ComparableCtor || ctor == types.CharSequenceCtor ||
			ctor == types.ListCtor || ctor == types.MutableListCtor

		u.classes[ctor.Name] = a.newClassFor(pkg, ctor, isInterface)
	}

	u.enterMembers(a)
	u.enterTopLevel(a)

	return u
}

// Class returns the built-in class with the given simple name.
func (u *Universe) Class(name string) (*ClassDescriptor, bool) {
	cd, ok := u.classes[name]
	return cd, ok
}

// DefaultImports returns the packages imported into every file in the order
// they are searched.
func (u *Universe) DefaultImports() []*PackageDescriptor {
	return []*PackageDescriptor{u.Kotlin, u.Collections, u.JS}
}

// -----------------------------------------------------------------------------

// enterMembers enters the members of the built-in classes.
func (u *Universe) enterMembers(a *Arena) {
	nullableAny := types.NullableAnyType

	anyClass := u.classes["Any"]
	newMethod(a, anyClass, "equals", types.BooleanType, param("other", nullableAny))
	newMethod(a, anyClass, "hashCode", types.IntType)
	newMethod(a, anyClass, "toString", types.StringType)

	comparable := u.classes["Comparable"]
	newMethod(a, comparable, "compareTo", types.IntType, param("other", comparable.TypeParams()[0].Type()))

	number := u.classes["Number"]
	newMethod(a, number, "toInt", types.IntType)
	newMethod(a, number, "toLong", types.LongType)
	newMethod(a, number, "toDouble", types.DoubleType)

	// Arithmetic on the numeric types is overloaded by the other operand.
	for _, name := range []string{"Int", "Long", "Double"} {
		class := u.classes[name]
		self := class.DefaultType()

		newMethod(a, class, "compareTo", types.IntType, param("other", self))

		switch name {
		case "Int":
			newMethod(a, class, "plus", types.IntType, param("other", types.IntType))
			newMethod(a, class, "plus", types.LongType, param("other", types.LongType))
			newMethod(a, class, "plus", types.DoubleType, param("other", types.DoubleType))
		case "Long":
			newMethod(a, class, "plus", types.LongType, param("other", types.IntType))
			newMethod(a, class, "plus", types.LongType, param("other", types.LongType))
			newMethod(a, class, "plus", types.DoubleType, param("other", types.DoubleType))
		default:
			newMethod(a, class, "plus", types.DoubleType, param("other", types.IntType))
			newMethod(a, class, "plus", types.DoubleType, param("other", types.LongType))
			newMethod(a, class, "plus", types.DoubleType, param("other", types.DoubleType))
		}
	}

	charSeq := u.classes["CharSequence"]
	a.NewProperty(charSeq, PropertySpec{Name: "length", Type: types.IntType})
	newMethod(a, charSeq, "get", types.CharType, param("index", types.IntType))

	str := u.classes["String"]
	a.NewProperty(str, PropertySpec{Name: "length", Type: types.IntType})
	newMethod(a, str, "plus", types.StringType, param("other", nullableAny))
	newMethod(a, str, "compareTo", types.IntType, param("other", types.StringType))

	list := u.classes["List"]
	listElem := list.TypeParams()[0].Type()
	a.NewProperty(list, PropertySpec{Name: "size", Type: types.IntType})
	newMethod(a, list, "get", listElem, param("index", types.IntType))
	newMethod(a, list, "isEmpty", types.BooleanType)
	newMethod(a, list, "contains", types.BooleanType, param("element", listElem))

	mutableList := u.classes["MutableList"]
	mutableElem := mutableList.TypeParams()[0].Type()
	newMethod(a, mutableList, "add", types.BooleanType, param("element", mutableElem))
	newMethod(a, mutableList, "add", types.UnitType, param("index", types.IntType), param("element", mutableElem))

	array := u.classes["Array"]
	arrayElem := array.TypeParams()[0].Type()
	a.NewProperty(array, PropertySpec{Name: "size", Type: types.IntType})
	newMethod(a, array, "get", arrayElem, param("index", types.IntType))
}

// enterTopLevel enters the built-in top-level functions.
func (u *Universe) enterTopLevel(a *Arena) {
	a.NewFunction(u.Kotlin, FunctionSpec{
		Name:        "println",
		ValueParams: []*ValueParameterDescriptor{param("message", types.NullableAnyType)},
		ReturnType:  types.UnitType,
	})

	a.NewFunction(u.Kotlin, FunctionSpec{
		Name:       "println",
		ReturnType: types.UnitType,
	})

	maxT := &types.TypeParameter{Name: "T"}
	maxT.UpperBounds = []types.Type{types.NewClassType(types.ComparableCtor, maxT.Type())}
	a.NewFunction(u.Kotlin, FunctionSpec{
		Name:        "maxOf",
		TypeParams:  []*types.TypeParameter{maxT},
		ValueParams: []*ValueParameterDescriptor{param("a", maxT.Type()), param("b", maxT.Type())},
		ReturnType:  maxT.Type(),
	})

	arrayT := &types.TypeParameter{Name: "T"}
	a.NewFunction(u.Kotlin, FunctionSpec{
		Name:        "arrayOf",
		TypeParams:  []*types.TypeParameter{arrayT},
		ValueParams: []*ValueParameterDescriptor{varargParam("elements", arrayT.Type())},
		ReturnType:  types.NewClassType(types.ArrayCtor, arrayT.Type()),
	})

	a.NewFunction(u.Kotlin, FunctionSpec{
		Name:              "isBlank",
		ExtensionReceiver: types.CharSequenceType,
		ReturnType:        types.BooleanType,
	})

	for _, name := range []string{"listOf", "mutableListOf"} {
		elemT := &types.TypeParameter{Name: "T"}
		ctor := types.ListCtor
		if name == "mutableListOf" {
			ctor = types.MutableListCtor
		}

		a.NewFunction(u.Collections, FunctionSpec{
			Name:        name,
			TypeParams:  []*types.TypeParameter{elemT},
			ValueParams: []*ValueParameterDescriptor{varargParam("elements", elemT.Type())},
			ReturnType:  types.NewClassType(ctor, elemT.Type()),
		})
	}

	emptyT := &types.TypeParameter{Name: "T"}
	a.NewFunction(u.Collections, FunctionSpec{
		Name:       "emptyList",
		TypeParams: []*types.TypeParameter{emptyT},
		ReturnType: types.NewClassType(types.ListCtor, emptyT.Type()),
	})

	firstT := &types.TypeParameter{Name: "T"}
	a.NewFunction(u.Collections, FunctionSpec{
		Name:              "first",
		TypeParams:        []*types.TypeParameter{firstT},
		ExtensionReceiver: types.NewClassType(types.ListCtor, firstT.Type()),
		ReturnType:        firstT.Type(),
	})

	a.NewFunction(u.JS, FunctionSpec{
		Name:        "js",
		ValueParams: []*ValueParameterDescriptor{param("code", types.StringType)},
		ReturnType:  types.NullableAnyType,
		Intrinsic:   JsIntrinsic,
	})
}

// -----------------------------------------------------------------------------

// newMethod enters a public member function of a built-in class.
func newMethod(a *Arena, class *ClassDescriptor, name string, ret types.Type, params ...*ValueParameterDescriptor) *FunctionDescriptor {
	return a.NewFunction(class, FunctionSpec{
		Name:        name,
		ValueParams: params,
		ReturnType:  ret,
	})
}

// param creates a plain value parameter.
func param(name string, typ types.Type) *ValueParameterDescriptor {
	return NewValueParameter(name, 0, typ)
}

// varargParam creates a vararg value parameter with the given element type.
func varargParam(name string, elemType types.Type) *ValueParameterDescriptor {
	vpd := NewValueParameter(name, 0, elemType)
	vpd.IsVararg = true
	return vpd
}
