package loader

import (
	"os"
	"path/filepath"
	"testing"

	"kresolve/depm"
	"kresolve/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const textLibrary = `
module: textlib
packages:
  - name: lib.text
    classes:
      - name: Box
        type-params: [{name: T, variance: out}]
        supertypes: ["Comparable<Box<T>>"]
        constructors: [{params: [{name: value, type: T}]}]
        functions:
          - name: map
            type-params: [R]
            params: [{name: f, type: "(T) -> R"}]
            returns: Box<R>
        properties: [{name: value, type: T}]
      - name: Shape
        interface: true
    functions:
      - name: shout
        receiver: String
        params: [{name: times, type: Int, default: true}]
        returns: String
        deprecated: use whisper
      - name: wrap
        type-params: [{name: T, bounds: [Shape]}]
        params: [{name: items, type: T, vararg: true}]
        returns: kotlin.collections.List<T>
      - name: inject
        params: [{name: code, type: String}]
        returns: Any?
        intrinsic: js
    properties:
      - {name: greeting, type: "String?", var: true, visibility: internal}
`

func newArena() (*depm.Arena, *depm.Universe) {
	arena := depm.NewArena()
	return arena, depm.EnterUniverse(arena)
}

// packageMember returns the only member of a package with the given name.
func packageMember(t *testing.T, arena *depm.Arena, pkg, name string) depm.Descriptor {
	t.Helper()

	pd, ok := arena.Package(pkg)
	require.True(t, ok, "no package %s", pkg)

	found := arena.LookupPackageMembers(pd, name)
	require.Len(t, found, 1)

	return found[0]
}

func TestDecodeLibrary(t *testing.T) {
	arena, u := newArena()

	md, err := DecodeLibrary(arena, u, []byte(textLibrary), "text.lib.yaml")
	require.NoError(t, err)
	assert.Equal(t, "textlib", md.Name())

	box := packageMember(t, arena, "lib.text", "Box").(*depm.ClassDescriptor)
	assert.Same(t, md, arena.ModuleOf(box))
	assert.Equal(t, "lib.text.Box", box.Ctor.FqName)
	assert.Equal(t, types.Out, box.TypeParams()[0].Variance)
	require.Len(t, box.Ctor.Supertypes, 1)
	assert.Equal(t, "Comparable<Box<T>>", box.Ctor.Supertypes[0].Repr())

	require.Len(t, box.Constructors, 1)
	ctor := arena.Get(box.Constructors[0]).(*depm.FunctionDescriptor)
	assert.Equal(t, "constructor <out T> Box(value: T)", ctor.Repr())

	mapFns := arena.LookupMembers(box, "map")
	require.Len(t, mapFns, 1)
	assert.Equal(t, "fun <R> map(f: (T) -> R): Box<R>", mapFns[0].Repr())

	value := arena.LookupMembers(box, "value")
	require.Len(t, value, 1)
	assert.Equal(t, "T", value[0].(*depm.PropertyDescriptor).Type.Repr())

	shape := packageMember(t, arena, "lib.text", "Shape").(*depm.ClassDescriptor)
	assert.True(t, shape.IsInterface)
	assert.Empty(t, shape.Constructors)

	shout := packageMember(t, arena, "lib.text", "shout").(*depm.FunctionDescriptor)
	assert.Equal(t, "fun String.shout(times: Int = ...): String", shout.Repr())
	assert.True(t, shout.Deprecated)
	assert.Equal(t, "use whisper", shout.DeprecationMessage)

	wrap := packageMember(t, arena, "lib.text", "wrap").(*depm.FunctionDescriptor)
	assert.Equal(t, "fun <T : Shape> wrap(vararg items: T): List<T>", wrap.Repr())
	assert.Same(t, types.ListCtor, wrap.ReturnType.(*types.ClassType).Constructor)

	inject := packageMember(t, arena, "lib.text", "inject").(*depm.FunctionDescriptor)
	assert.Equal(t, depm.JsIntrinsic, inject.Intrinsic)
	assert.True(t, types.Equals(types.NullableAnyType, inject.ReturnType))

	greeting := packageMember(t, arena, "lib.text", "greeting").(*depm.PropertyDescriptor)
	assert.Equal(t, "String?", greeting.Type.Repr())
	assert.True(t, greeting.IsVar)
	assert.Equal(t, depm.Internal, greeting.Visibility())
}

func TestDecodeLibraryForwardReferences(t *testing.T) {
	src := `
module: shapes
packages:
  - name: shapes.api
    functions: [{name: unit, returns: shapes.impl.Square}]
  - name: shapes.impl
    classes: [{name: Square, supertypes: [Shape]}, {name: Shape, interface: true}]
`

	arena, u := newArena()
	_, err := DecodeLibrary(arena, u, []byte(src), "shapes.lib.yaml")
	require.NoError(t, err)

	square := packageMember(t, arena, "shapes.impl", "Square").(*depm.ClassDescriptor)
	unit := packageMember(t, arena, "shapes.api", "unit").(*depm.FunctionDescriptor)
	assert.Same(t, square.Ctor, unit.ReturnType.(*types.ClassType).Constructor)

	assert.True(t, types.IsSubtypeOf(square.DefaultType(), packageMember(t, arena, "shapes.impl", "Shape").(*depm.ClassDescriptor).DefaultType()))
}

func TestDecodeLibraryErrors(t *testing.T) {
	tests := []struct {
		name, src, err string
	}{
		{"no module", "packages: []", "missing field `module`"},
		{"unresolved type", "module: m\npackages: [{name: p, functions: [{name: f, returns: Missing}]}]", "unresolved type `Missing`"},
		{"type argument count", "module: m\npackages: [{name: p, functions: [{name: f, returns: List}]}]", "List expects 1 type arguments but got 0"},
		{"type parameter arguments", "module: m\npackages: [{name: p, functions: [{name: f, type-params: [T], returns: 'T<Int>'}]}]", "type parameter T cannot have type arguments"},
		{"duplicate class", "module: m\npackages: [{name: p, classes: [{name: A}, {name: A}]}]", "class A is declared more than once"},
		{"self inheritance", "module: m\npackages: [{name: p, classes: [{name: A, supertypes: [A]}]}]", "cannot inherit from itself"},
		{"interface constructor", "module: m\npackages: [{name: p, classes: [{name: A, interface: true, constructors: [{}]}]}]", "interface A cannot have constructors"},
		{"untyped parameter", "module: m\npackages: [{name: p, functions: [{name: f, params: [{name: x}]}]}]", "parameter x has no type"},
		{"bad visibility", "module: m\npackages: [{name: p, functions: [{name: f, visibility: open}]}]", "unknown visibility `open`"},
		{"bad variance", "module: m\npackages: [{name: p, classes: [{name: A, type-params: [{name: T, variance: inout}]}]}]", "unknown variance `inout`"},
		{"unknown field", "module: m\npackages: [{name: p, typealiases: []}]", "unknown field `typealiases`"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			arena, u := newArena()

			_, err := DecodeLibrary(arena, u, []byte(test.src), "bad.lib.yaml")
			assert.ErrorContains(t, err, test.err)
		})
	}
}

func TestDecodeLibraryFinalized(t *testing.T) {
	arena, u := newArena()
	arena.Finalize()

	_, err := DecodeLibrary(arena, u, []byte(textLibrary), "text.lib.yaml")
	assert.ErrorContains(t, err, "finalized")
}

func TestLoadLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "text.lib.yaml")
	require.NoError(t, os.WriteFile(path, []byte(textLibrary), 0o644))

	arena, u := newArena()
	md, err := LoadLibrary(arena, u, path)
	require.NoError(t, err)
	assert.Equal(t, "textlib", md.Name())
}
