package depm

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"kresolve/report"
	"kresolve/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArena() (*Arena, *Universe, *PackageDescriptor) {
	a := NewArena()
	u := EnterUniverse(a)

	mod := a.NewModule("app")
	pkg := a.NewPackage(mod, "app")

	return a, u, pkg
}

func TestUniverse(t *testing.T) {
	a, u, _ := newTestArena()

	str, ok := u.Class("String")
	require.True(t, ok)
	assert.Same(t, types.StringCtor, str.Ctor)

	found, ok := a.ClassOf(types.StringCtor)
	require.True(t, ok)
	assert.Same(t, str, found)

	js := a.LookupPackageMembers(u.JS, "js")
	require.Len(t, js, 1)
	assert.Equal(t, JsIntrinsic, js[0].(*FunctionDescriptor).Intrinsic)
	assert.Equal(t, "fun js(code: String): Any?", js[0].Repr())

	assert.Same(t, u.Module, a.ModuleOf(js[0]))
	assert.Equal(t, []*PackageDescriptor{u.Kotlin, u.Collections, u.JS}, u.DefaultImports())
}

func TestLookupMembers(t *testing.T) {
	a, u, _ := newTestArena()
	a.Finalize()

	t.Run("inherited members are substituted", func(t *testing.T) {
		mutableList, _ := u.Class("MutableList")

		gets := a.LookupMembers(mutableList, "get")
		require.Len(t, gets, 1)

		get := gets[0].(*FunctionDescriptor)
		assert.True(t, types.Equals(mutableList.TypeParams()[0].Type(), get.ReturnType))

		list, _ := u.Class("List")
		assert.Same(t, a.LookupMembers(list, "get")[0], get.Original())
	})

	t.Run("declared members hide inherited ones", func(t *testing.T) {
		intClass, _ := u.Class("Int")

		compareTos := a.LookupMembers(intClass, "compareTo")
		require.Len(t, compareTos, 1)
		assert.Equal(t, intClass.ID(), compareTos[0].ContainerID())
	})

	t.Run("members of any", func(t *testing.T) {
		str, _ := u.Class("String")
		assert.Len(t, a.LookupMembers(str, "hashCode"), 1)
		assert.Len(t, a.LookupMembers(str, "length"), 1)
		assert.Empty(t, a.LookupMembers(str, "missing"))
	})

	t.Run("memoized", func(t *testing.T) {
		intClass, _ := u.Class("Int")
		assert.Equal(t, Computed, a.memberTables.State(intClass.ID()))
	})
}

func TestUserDeclarations(t *testing.T) {
	a, u, pkg := newTestArena()

	tp := &types.TypeParameter{Name: "T", Variance: types.Out}
	box := a.NewClass(pkg, "Box", Public, []*types.TypeParameter{tp})
	assert.Equal(t, "app.Box", box.Ctor.FqName)
	assert.Equal(t, "class Box<out T>", box.Repr())

	a.NewProperty(box, PropertySpec{Name: "value", Type: tp.Type()})
	ctor := a.NewFunction(box, FunctionSpec{
		Name:          "Box",
		ValueParams:   []*ValueParameterDescriptor{NewValueParameter("value", 0, tp.Type())},
		IsConstructor: true,
	})
	assert.Equal(t, []*FunctionDescriptor{ctor}, a.LookupConstructors(box))
	assert.Equal(t, ctor.ID(), ctor.ValueParams[0].ContainerID())

	sub := a.NewClass(pkg, "IntBox", Public, nil)
	require.NoError(t, a.SetSupertypes(sub, []types.Type{types.NewClassType(box.Ctor, types.IntType)}))

	// A class can't become its own supertype.
	err := a.SetSupertypes(box, []types.Type{sub.DefaultType()})
	assert.ErrorContains(t, err, "cannot inherit from itself")

	values := a.LookupMembers(sub, "value")
	require.Len(t, values, 1)
	assert.Equal(t, "val value: Int", values[0].Repr())

	f := a.NewFunction(pkg, FunctionSpec{Name: "f", ReturnType: types.UnitType})
	a.NewFunction(pkg, FunctionSpec{Name: "f", ValueParams: []*ValueParameterDescriptor{NewValueParameter("x", 0, types.IntType)}, ReturnType: types.UnitType})

	fs := a.LookupPackageMembers(pkg, "f")
	require.Len(t, fs, 2)
	assert.Same(t, f, fs[0])
	assert.Equal(t, "fun f(x: Int): Unit", fs[1].Repr())
	assert.Empty(t, a.LookupPackageMembers(pkg, "g"))

	found, ok := a.Package("app")
	require.True(t, ok)
	assert.Same(t, pkg, found)
	assert.Same(t, pkg, a.NewPackage(u.Module, "app"))
}

func TestFrozenArena(t *testing.T) {
	a, _, pkg := newTestArena()
	a.Finalize()

	sink := &diagSink{}
	elem := &spanned{span: &report.TextSpan{}}

	func() {
		defer report.CatchErrors(sink, elem)
		a.NewFunction(pkg, FunctionSpec{Name: "late"})
	}()

	require.Len(t, sink.diags, 1)
	assert.Same(t, report.InternalError, sink.diags[0].Factory)
	assert.Contains(t, sink.diags[0].Message(), "descriptors are frozen")
}

func TestSubstitute(t *testing.T) {
	tp := &types.TypeParameter{Name: "T"}
	id := NewLocalFunction(NoDescriptor, FunctionSpec{
		Name:        "id",
		TypeParams:  []*types.TypeParameter{tp},
		ValueParams: []*ValueParameterDescriptor{NewValueParameter("x", 0, tp.Type())},
		ReturnType:  tp.Type(),
	})

	subst := types.NewSubstitutionOf([]*types.TypeParameter{tp}, []types.Type{types.IntType})
	view := id.Substitute(subst)

	assert.Equal(t, "fun <T> id(x: T): T", id.Repr())
	assert.Equal(t, "fun id(x: Int): Int", view.Repr())
	assert.Same(t, id, view.Original())
	assert.Same(t, subst, view.Substitution())
	assert.Same(t, id, id.Substitute(types.NewSubstitution()))

	// The original is untouched.
	assert.Same(t, tp, id.ValueParams[0].Type.(*types.ParamType).Param)
}

func TestLexicalScope(t *testing.T) {
	outer := NewLexicalScope(nil, nil)
	inner := NewLexicalScope(outer, nil)

	x1 := NewLocalVariable(NoDescriptor, PropertySpec{Name: "x", Type: types.IntType})
	x2 := NewLocalVariable(NoDescriptor, PropertySpec{Name: "x", Type: types.StringType})
	outer.Define(x1)
	inner.Define(x2)

	found := LookupLocals(inner, "x")
	require.Len(t, found, 2)
	assert.Equal(t, ScopedDescriptor{Descriptor: x2, Depth: 1}, found[0])
	assert.Equal(t, ScopedDescriptor{Descriptor: x1, Depth: 0}, found[1])

	assert.Empty(t, LookupLocals(inner, "y"))
	assert.Len(t, LookupLocals(outer, "x"), 1)
}

func TestMemo(t *testing.T) {
	var calls atomic.Int32
	failure := errors.New("boom")

	memo := NewMemo(func(id DescriptorID) (int, error) {
		calls.Add(1)
		if id == 13 {
			return 0, failure
		}

		return int(id) * 2, nil
	})

	assert.Equal(t, NotComputed, memo.State(4))

	wg := sync.WaitGroup{}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			v, err := memo.Get(4)
			assert.NoError(t, err)
			assert.Equal(t, 8, v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, Computed, memo.State(4))

	_, err := memo.Get(13)
	assert.ErrorIs(t, err, failure)
	_, err = memo.Get(13)
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, Failed, memo.State(13))
	assert.Equal(t, int32(2), calls.Load())
}

func TestAccessors(t *testing.T) {
	a, _, pkg := newTestArena()

	counter := a.NewProperty(pkg, PropertySpec{Name: "counter", Type: types.IntType, IsVar: true})
	broken := a.NewProperty(pkg, PropertySpec{Name: "broken"})
	a.Finalize()

	assert.Equal(t, NotComputed, a.AccessorsState(counter))

	accessors, err := a.Accessors(counter)
	require.NoError(t, err)
	assert.Equal(t, "fun <get-counter>(): Int", accessors.Getter.Repr())
	require.NotNil(t, accessors.Setter)
	assert.Equal(t, "fun <set-counter>(value: Int): Unit", accessors.Setter.Repr())
	assert.Equal(t, Computed, a.AccessorsState(counter))

	again, err := a.Accessors(counter)
	require.NoError(t, err)
	assert.Same(t, accessors, again)

	_, err = a.Accessors(broken)
	assert.ErrorContains(t, err, "property broken lacks a resolved type")
	assert.Equal(t, Failed, a.AccessorsState(broken))
}

// -----------------------------------------------------------------------------

type diagSink struct {
	diags []*report.Diagnostic
}

func (ds *diagSink) Report(diag *report.Diagnostic) {
	ds.diags = append(ds.diags, diag)
}

type spanned struct {
	span *report.TextSpan
}

func (s *spanned) Span() *report.TextSpan {
	return s.span
}

// -----------------------------------------------------------------------------

func TestImportScope(t *testing.T) {
	a, u, pkg := newTestArena()
	lib := a.NewPackage(a.ModuleOf(pkg), "lib")

	is := NewImportScope(a, u.DefaultImports()...)
	is.ImportName(lib, "helper")
	is.ImportName(lib, "helper")

	// Named imports are looked up lazily so declarations entered after the
	// import are still found.
	helper := a.NewFunction(lib, FunctionSpec{Name: "helper", ReturnType: types.UnitType})
	a.NewFunction(lib, FunctionSpec{Name: "hidden", ReturnType: types.UnitType})

	assert.Equal(t, []Descriptor{helper}, is.Lookup("helper"))
	assert.Empty(t, is.Lookup("hidden"))
	assert.Len(t, is.Lookup("println"), 2)

	is.ImportAll(lib)
	is.ImportAll(lib)
	assert.Equal(t, []Descriptor{helper}, is.Lookup("helper"))
	assert.Len(t, is.Lookup("hidden"), 1)
}
