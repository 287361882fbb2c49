package loader

import (
	"errors"
	"os"
	"strings"

	"kresolve/ast"
	"kresolve/depm"
	"kresolve/types"

	"gopkg.in/yaml.v3"
)

// NOTE: Library files describe precompiled declarations the analyzed module
// depends on.  They only carry signatures:
//
//	module: textlib
//	packages:
//	  - name: lib.text
//	    classes:
//	      - name: Box
//	        type-params: [{name: T, variance: out}]
//	        constructors: [{params: [{name: value, type: T}]}]
//	        properties: [{name: value, type: T}]
//	    functions:
//	      - name: shout
//	        receiver: String
//	        returns: String
//	        deprecated: use whisper
//
// Type names resolve to the type parameters in scope, then the classes of the
// library, then the built-in classes.  A qualified name resolves to a class of
// any package already in the arena.

// LoadLibrary loads the library file at path into the arena.  It returns the
// library's module.
func LoadLibrary(arena *depm.Arena, universe *depm.Universe, path string) (*depm.ModuleDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return DecodeLibrary(arena, universe, data, path)
}

// DecodeLibrary decodes the contents of a library file into the arena.  The
// arena must not be finalized.  If an error is returned, the arena may hold
// part of the library.
func DecodeLibrary(arena *depm.Arena, universe *depm.Universe, data []byte, path string) (md *depm.ModuleDescriptor, err error) {
	if arena.IsFinalized() {
		return nil, errors.New("cannot load a library into a finalized arena")
	}

	ll := &libraryLoader{
		decoder:  decoder{path: path},
		arena:    arena,
		universe: universe,
		classes:  make(map[string]*depm.ClassDescriptor),
	}

	root, err := ll.document(data)
	if err != nil {
		return nil, err
	}

	defer catchDecodeError(&err)

	f := ll.mapping(root, "module", "packages")
	ll.module = arena.NewModule(ll.str(f, "module"))

	// Classes are entered before any signature so that they can refer to each
	// other regardless of their order.
	var pkgs []libPackage
	for _, item := range ll.list(f, "packages") {
		pkgs = append(pkgs, ll.enterPackage(item))
	}

	for _, pkg := range pkgs {
		ll.declarePackage(pkg)
	}

	return ll.module, nil
}

// libraryLoader enters the declarations of a library file.
type libraryLoader struct {
	decoder

	arena    *depm.Arena
	universe *depm.Universe
	module   *depm.ModuleDescriptor

	// The classes of the library by simple name.
	classes map[string]*depm.ClassDescriptor
}

// libPackage is a package whose classes have been entered.
type libPackage struct {
	desc    *depm.PackageDescriptor
	fields  fields
	classes []libClass
}

// libClass is a class whose signature has not been declared yet.
type libClass struct {
	desc   *depm.ClassDescriptor
	fields fields
}

// enterPackage creates a package and enters its classes.
func (ll *libraryLoader) enterPackage(node *yaml.Node) libPackage {
	f := ll.mapping(node, "name", "classes", "functions", "properties")
	pkg := libPackage{desc: ll.arena.NewPackage(ll.module, ll.optStr(f, "name")), fields: f}

	for _, item := range ll.list(f, "classes") {
		cf := ll.mapping(item, "name", "visibility", "interface", "type-params", "supertypes", "constructors", "functions", "properties")

		name := ll.str(cf, "name")
		if _, ok := ll.classes[name]; ok {
			ll.fail(item, "class %s is declared more than once", name)
		}

		typeParams := ll.enterTypeParams(ll.list(cf, "type-params"))
		cd := ll.arena.NewClass(pkg.desc, name, ll.visibility(cf), typeParams)
		cd.IsInterface = ll.optBool(cf, "interface")

		ll.classes[name] = cd
		pkg.classes = append(pkg.classes, libClass{desc: cd, fields: cf})
	}

	return pkg
}

// declarePackage declares the signatures of a package's classes and top-level
// declarations.
func (ll *libraryLoader) declarePackage(pkg libPackage) {
	for _, lc := range pkg.classes {
		ll.declareClass(lc)
	}

	for _, item := range ll.list(pkg.fields, "functions") {
		ll.arena.NewFunction(pkg.desc, ll.functionSpec(item, nil))
	}

	for _, item := range ll.list(pkg.fields, "properties") {
		ll.arena.NewProperty(pkg.desc, ll.propertySpec(item, nil))
	}
}

// declareClass declares the bounds, supertypes, constructors and members of a
// class.
func (ll *libraryLoader) declareClass(lc libClass) {
	cd := lc.desc
	scope := cd.TypeParams()

	ll.resolveBounds(ll.list(lc.fields, "type-params"), cd.TypeParams(), scope)

	var supertypes []types.Type
	for _, item := range ll.list(lc.fields, "supertypes") {
		supertypes = append(supertypes, ll.resolveType(item, scope))
	}

	if err := ll.arena.SetSupertypes(cd, supertypes); err != nil {
		ll.fail(lc.fields.node, "%s", err)
	}

	ctors := ll.list(lc.fields, "constructors")
	if cd.IsInterface && len(ctors) > 0 {
		ll.fail(lc.fields.node, "interface %s cannot have constructors", cd.Name())
	}

	for _, item := range ctors {
		f := ll.mapping(item, "visibility", "params", "deprecated")

		spec := depm.FunctionSpec{
			Name:          cd.Name(),
			Visibility:    ll.visibility(f),
			TypeParams:    cd.TypeParams(),
			ValueParams:   ll.valueParams(ll.list(f, "params"), scope),
			ReturnType:    cd.DefaultType(),
			IsConstructor: true,
		}
		spec.Deprecated, spec.DeprecationMessage = ll.deprecation(f)

		ll.arena.NewFunction(cd, spec)
	}

	for _, item := range ll.list(lc.fields, "functions") {
		ll.arena.NewFunction(cd, ll.functionSpec(item, scope))
	}

	for _, item := range ll.list(lc.fields, "properties") {
		ll.arena.NewProperty(cd, ll.propertySpec(item, scope))
	}
}

// functionSpec decodes the signature of a function.  The outer scope holds
// the type parameters of the enclosing class.
func (ll *libraryLoader) functionSpec(node *yaml.Node, outer []*types.TypeParameter) depm.FunctionSpec {
	f := ll.mapping(node, "name", "visibility", "type-params", "receiver", "params", "returns", "deprecated", "intrinsic")

	typeParams := ll.enterTypeParams(ll.list(f, "type-params"))
	scope := append(append([]*types.TypeParameter(nil), typeParams...), outer...)
	ll.resolveBounds(ll.list(f, "type-params"), typeParams, scope)

	spec := depm.FunctionSpec{
		Name:        ll.str(f, "name"),
		Visibility:  ll.visibility(f),
		TypeParams:  typeParams,
		ValueParams: ll.valueParams(ll.list(f, "params"), scope),
		ReturnType:  types.UnitType,
		Intrinsic:   ll.optStr(f, "intrinsic"),
	}

	if v := f.get("receiver"); v != nil {
		spec.ExtensionReceiver = ll.resolveType(v, scope)
	}

	if v := f.get("returns"); v != nil {
		spec.ReturnType = ll.resolveType(v, scope)
	}

	spec.Deprecated, spec.DeprecationMessage = ll.deprecation(f)
	return spec
}

// propertySpec decodes the signature of a property.
func (ll *libraryLoader) propertySpec(node *yaml.Node, scope []*types.TypeParameter) depm.PropertySpec {
	f := ll.mapping(node, "name", "visibility", "type", "var", "deprecated")

	if f.get("type") == nil {
		ll.fail(node, "library property %s has no type", ll.str(f, "name"))
	}

	spec := depm.PropertySpec{
		Name:       ll.str(f, "name"),
		Visibility: ll.visibility(f),
		Type:       ll.resolveType(f.get("type"), scope),
		IsVar:      ll.optBool(f, "var"),
	}

	spec.Deprecated, spec.DeprecationMessage = ll.deprecation(f)
	return spec
}

// valueParams decodes the value parameters of a function.  Default values
// are not needed in a signature: a parameter only records that it has one.
func (ll *libraryLoader) valueParams(items []*yaml.Node, scope []*types.TypeParameter) []*depm.ValueParameterDescriptor {
	params := make([]*depm.ValueParameterDescriptor, len(items))

	for i, item := range items {
		f := ll.mapping(item, "name", "type", "default", "vararg")

		if f.get("type") == nil {
			ll.fail(item, "parameter %s has no type", ll.str(f, "name"))
		}

		params[i] = depm.NewValueParameter(ll.str(f, "name"), i, ll.resolveType(f.get("type"), scope))
		params[i].HasDefault = ll.optBool(f, "default")
		params[i].IsVararg = ll.optBool(f, "vararg")
	}

	return params
}

// enterTypeParams creates type parameters.  Their bounds are resolved once all
// of the parameters in scope exist.
func (ll *libraryLoader) enterTypeParams(items []*yaml.Node) []*types.TypeParameter {
	params := make([]*types.TypeParameter, len(items))

	for i, item := range items {
		if item.Kind == yaml.ScalarNode {
			params[i] = &types.TypeParameter{Name: item.Value, Index: i}
			continue
		}

		f := ll.mapping(item, "name", "variance", "bounds")
		params[i] = &types.TypeParameter{Name: ll.str(f, "name"), Index: i}

		switch variance := ll.optStr(f, "variance"); variance {
		case "":
		case "in":
			params[i].Variance = types.In
		case "out":
			params[i].Variance = types.Out
		default:
			ll.fail(f.get("variance"), "unknown variance `%s`", variance)
		}
	}

	return params
}

// resolveBounds resolves the upper bounds of type parameters.
func (ll *libraryLoader) resolveBounds(items []*yaml.Node, params, scope []*types.TypeParameter) {
	for i, item := range items {
		if item.Kind != yaml.MappingNode {
			continue
		}

		f := ll.mapping(item, "name", "variance", "bounds")
		for _, bound := range ll.list(f, "bounds") {
			params[i].UpperBounds = append(params[i].UpperBounds, ll.resolveType(bound, scope))
		}
	}
}

// visibility decodes the visibility of a declaration.
func (ll *libraryLoader) visibility(f fields) depm.Visibility {
	vis, ok := depm.ParseVisibility(ll.optStr(f, "visibility"))
	if !ok {
		ll.fail(f.get("visibility"), "unknown visibility `%s`", ll.optStr(f, "visibility"))
	}

	return vis
}

// deprecation decodes the deprecation message of a declaration.
func (ll *libraryLoader) deprecation(f fields) (bool, string) {
	if !f.has("deprecated") {
		return false, ""
	}

	return true, ll.optStr(f, "deprecated")
}

// -----------------------------------------------------------------------------

// resolveType resolves the type written in a scalar node.
func (ll *libraryLoader) resolveType(node *yaml.Node, scope []*types.TypeParameter) types.Type {
	return ll.resolveTypeRef(node, ll.decodeTypeRef(node), scope)
}

// resolveTypeRef converts a parsed type reference into a type.
func (ll *libraryLoader) resolveTypeRef(node *yaml.Node, tr *ast.TypeRef, scope []*types.TypeParameter) types.Type {
	var typ types.Type

	if tr.IsFunction {
		params := make([]types.Type, len(tr.Params))
		for i, param := range tr.Params {
			params[i] = ll.resolveTypeRef(node, param, scope)
		}

		typ = types.NewFunctionType(params, ll.resolveTypeRef(node, tr.Return, scope))
	} else {
		typ = ll.resolveNamedType(node, tr, scope)
	}

	if tr.Nullable {
		return types.MakeNullable(typ)
	}

	return typ
}

// resolveNamedType resolves a reference to a type parameter or a class.
func (ll *libraryLoader) resolveNamedType(node *yaml.Node, tr *ast.TypeRef, scope []*types.TypeParameter) types.Type {
	for _, tp := range scope {
		if tp.Name == tr.Name {
			if len(tr.Args) > 0 {
				ll.fail(node, "type parameter %s cannot have type arguments", tp.Name)
			}

			return tp.Type()
		}
	}

	cd, ok := ll.lookupClass(tr.Name)
	if !ok {
		ll.fail(node, "unresolved type `%s`", tr.Name)
	}

	if len(tr.Args) != len(cd.TypeParams()) {
		ll.fail(node, "%s expects %d type arguments but got %d", cd.Name(), len(cd.TypeParams()), len(tr.Args))
	}

	args := make([]types.Type, len(tr.Args))
	for i, arg := range tr.Args {
		args[i] = ll.resolveTypeRef(node, arg, scope)
	}

	return types.NewClassType(cd.Ctor, args...)
}

// lookupClass looks up a class by simple or qualified name.
func (ll *libraryLoader) lookupClass(name string) (*depm.ClassDescriptor, bool) {
	if pkgName, simple, ok := cutLast(name, "."); ok {
		pkg, ok := ll.arena.Package(pkgName)
		if !ok {
			return nil, false
		}

		for _, d := range ll.arena.LookupPackageMembers(pkg, simple) {
			if cd, ok := d.(*depm.ClassDescriptor); ok {
				return cd, true
			}
		}

		return nil, false
	}

	if cd, ok := ll.classes[name]; ok {
		return cd, true
	}

	return ll.universe.Class(name)
}

// cutLast slices s around the last instance of sep.
func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}

	return s, "", false
}
