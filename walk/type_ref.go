package walk

import (
	"kresolve/ast"
	"kresolve/depm"
	"kresolve/report"
	"kresolve/trace"
	"kresolve/types"
)

// typeContext is the context type references are resolved in.
type typeContext struct {
	arena *depm.Arena
	src   *SourceFile

	// The trace resolution errors are reported to.
	sink *trace.BindingTrace

	// The innermost type scope.
	scope *typeScope
}

// with returns a copy of the context with a different type scope.
func (tc typeContext) with(scope *typeScope) typeContext {
	tc.scope = scope
	return tc
}

// resolveType converts a type reference into a type.  Unresolvable references
// are reported and become the error type.
func (tc typeContext) resolveType(tr *ast.TypeRef) types.Type {
	var typ types.Type

	if tr.IsFunction {
		params := make([]types.Type, len(tr.Params))
		for i, param := range tr.Params {
			params[i] = tc.resolveType(param)
		}

		typ = types.NewFunctionType(params, tc.resolveType(tr.Return))
	} else {
		typ = tc.resolveNamedType(tr)
	}

	if tr.Nullable {
		return types.MakeNullable(typ)
	}

	return typ
}

// resolveNamedType resolves a reference to a type parameter or a class.
func (tc typeContext) resolveNamedType(tr *ast.TypeRef) types.Type {
	if tp, ok := tc.lookupTypeParam(tr.Name); ok {
		if len(tr.Args) > 0 {
			tc.sink.Report(report.WrongNumberOfTypeArguments.On(tr, 0, tp.Name))
			return types.NewErrorType(tr.Name)
		}

		return tp.Type()
	}

	cd, ok := tc.lookupClass(tr.Name)
	if !ok {
		tc.sink.Report(report.UnresolvedReference.On(tr, tr.Name))
		return types.NewErrorType(tr.Name)
	}

	if len(tr.Args) != len(cd.TypeParams()) {
		tc.sink.Report(report.WrongNumberOfTypeArguments.On(tr, len(cd.TypeParams()), cd.Name()))
		return types.NewErrorType(tr.Name)
	}

	args := make([]types.Type, len(tr.Args))
	for i, arg := range tr.Args {
		args[i] = tc.resolveType(arg)
	}

	return types.NewClassType(cd.Ctor, args...)
}

// lookupTypeParam looks up a type parameter in the type scope chain.
func (tc typeContext) lookupTypeParam(name string) (*types.TypeParameter, bool) {
	for s := tc.scope; s != nil; s = s.parent {
		for _, tp := range s.params {
			if tp.Name == name {
				return tp, true
			}
		}
	}

	return nil, false
}

// lookupClass looks up a class by name: nested classes of the enclosing
// classes, then the file's package, then the imports.
func (tc typeContext) lookupClass(name string) (*depm.ClassDescriptor, bool) {
	for s := tc.scope; s != nil; s = s.parent {
		if s.class == nil {
			continue
		}

		if cd, ok := firstClass(tc.arena.LookupMembers(s.class, name)); ok {
			return cd, true
		}
	}

	if cd, ok := firstClass(tc.arena.LookupPackageMembers(tc.src.Package, name)); ok {
		return cd, true
	}

	return firstClass(tc.src.Imports.Lookup(name))
}

// firstClass returns the first class among a list of descriptors.
func firstClass(found []depm.Descriptor) (*depm.ClassDescriptor, bool) {
	for _, d := range found {
		if cd, ok := d.(*depm.ClassDescriptor); ok {
			return cd, true
		}
	}

	return nil, false
}
