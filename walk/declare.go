package walk

import (
	"context"
	"strings"

	"kresolve/ast"
	"kresolve/checkers"
	"kresolve/depm"
	"kresolve/report"
	"kresolve/trace"
	"kresolve/types"
)

// Declarer is responsible for entering the declarations of a module's source
// files into the arena.  This happens in two phases: first, the packages and
// classes of every file are entered as they are added so that all class names
// are known; then, once every file has been added, the imports, supertypes and
// signatures of all files are resolved.  The types of declarations which are
// inferred from their bodies are computed last.  The declaration pass is run
// single-threaded before the arena is finalized.
type Declarer struct {
	env      *Env
	universe *depm.Universe

	// The files in the order they were added.
	files []*SourceFile

	// The named imports to validate once all declarations are entered.
	namedImports []namedImport

	// The declarations whose types are inferred from their bodies.
	pending []*pendingType
}

// namedImport is an import of a single declaration.
type namedImport struct {
	src  *SourceFile
	imp  *ast.Import
	pkg  *depm.PackageDescriptor
	name string
}

// pendingType is a declaration whose type is the type of an expression.
type pendingType struct {
	src    *SourceFile
	scope  *depm.LexicalScope
	tscope *typeScope
	expr   ast.Expr

	// Sets the inferred type on the declaration.
	set func(types.Type)
}

// NewDeclarer creates a new declarer entering declarations into module.  The
// checker chain is run on every call resolved in the module's bodies.
func NewDeclarer(arena *depm.Arena, universe *depm.Universe, module *depm.ModuleDescriptor, chain checkers.Chain) *Declarer {
	return &Declarer{
		env: &Env{
			Arena:        arena,
			Module:       module,
			Checkers:     chain,
			initializers: make(map[*depm.PropertyDescriptor]*initializer),
		},
		universe: universe,
	}
}

// Env returns the environment the bodies of the module's files are walked in.
func (d *Declarer) Env() *Env {
	return d.env
}

// Files returns the added files in the order they were added.
func (d *Declarer) Files() []*SourceFile {
	return d.files
}

// -----------------------------------------------------------------------------

// Enter adds a file to the module: its package and its classes are entered
// into the arena.
func (d *Declarer) Enter(file *ast.File) *SourceFile {
	arena := d.env.Arena

	src := &SourceFile{
		File:    file,
		Package: arena.NewPackage(d.env.Module, file.Package),
		Imports: depm.NewImportScope(arena, d.universe.DefaultImports()...),
		Lines:   report.NewLineIndex(file.Text),
		Trace:   trace.New(),
	}

	for _, decl := range file.Decls {
		if cd, ok := decl.(*ast.ClassDecl); ok {
			d.enterClass(src, src.Package, cd)
		}
	}

	d.files = append(d.files, src)
	return src
}

// enterClass enters a class and its nested classes.
func (d *Declarer) enterClass(src *SourceFile, container depm.Descriptor, cd *ast.ClassDecl) {
	arena := d.env.Arena

	var existing []depm.Descriptor
	if pd, ok := container.(*depm.PackageDescriptor); ok {
		existing = arena.LookupPackageMembers(pd, cd.Name)
	} else {
		existing = arena.LookupMembers(container.(*depm.ClassDescriptor), cd.Name)
	}

	if prev, ok := firstClass(existing); ok {
		src.Trace.Report(report.Redeclaration.On(cd, prev.Repr()))
	}

	class := arena.NewClass(container, cd.Name, declaredVisibility(src.Trace, &cd.Modifiers, cd), newTypeParams(cd.TypeParams))
	class.IsInterface = cd.IsInterface
	trace.Record(src.Trace, cd, trace.Declaration, depm.Descriptor(class))

	for _, member := range cd.Members {
		if nested, ok := member.(*ast.ClassDecl); ok {
			d.enterClass(src, class, nested)
		}
	}
}

// -----------------------------------------------------------------------------

// Declare resolves the imports, supertypes, and signatures of all the added
// files.  This must be called once after all the files have been added and
// before the arena is finalized.  If ctx is cancelled, the context's error is
// returned and the declarations may be incomplete.
func (d *Declarer) Declare(ctx context.Context) (err error) {
	defer report.CatchAbort(&err)

	for _, src := range d.files {
		d.enterImports(src)
	}

	for _, src := range d.files {
		d.declareClassHeaders(src, src.File.Decls, nil)
	}

	for _, src := range d.files {
		for _, decl := range src.File.Decls {
			d.declareDecl(src, src.Package, decl, nil, nil)
		}
	}

	// Named imports can only be checked once every declaration is entered.
	for _, ni := range d.namedImports {
		if len(d.env.Arena.LookupPackageMembers(ni.pkg, ni.name)) == 0 {
			ni.src.Trace.Report(report.UnresolvedReference.On(ni.imp, ni.imp.Path))
		}
	}

	d.inferTypes(ctx)
	return nil
}

// enterImports enters the import directives of a file into its import scope.
func (d *Declarer) enterImports(src *SourceFile) {
	for _, imp := range src.File.Imports {
		if imp.All {
			if pkg, ok := d.env.Arena.Package(imp.Path); ok {
				src.Imports.ImportAll(pkg)
			} else {
				src.Trace.Report(report.UnresolvedReference.On(imp, imp.Path))
			}

			continue
		}

		// Declarations in the root package can't be imported by name.
		dot := strings.LastIndexByte(imp.Path, '.')
		if dot == -1 {
			src.Trace.Report(report.UnresolvedReference.On(imp, imp.Path))
			continue
		}

		pkg, ok := d.env.Arena.Package(imp.Path[:dot])
		if !ok {
			src.Trace.Report(report.UnresolvedReference.On(imp, imp.Path[:dot]))
			continue
		}

		name := imp.Path[dot+1:]
		src.Imports.ImportName(pkg, name)
		d.namedImports = append(d.namedImports, namedImport{src: src, imp: imp, pkg: pkg, name: name})
	}
}

// declareClassHeaders resolves the type parameter bounds and the supertypes of
// the classes among decls and of their nested classes.
func (d *Declarer) declareClassHeaders(src *SourceFile, decls []ast.Decl, outer *typeScope) {
	for _, decl := range decls {
		cd, ok := decl.(*ast.ClassDecl)
		if !ok {
			continue
		}

		func() {
			defer report.CatchErrors(src.Trace, cd)

			class := declaredClass(src, cd)
			ts := newTypeScope(outer, class.TypeParams(), class)
			tc := d.typeContext(src, src.Trace, ts)

			resolveBounds(tc, cd.TypeParams, class.TypeParams())

			var supertypes []types.Type
			for _, tr := range cd.Supertypes {
				super := tc.resolveType(tr)
				if types.IsError(super) {
					continue
				}

				if ct, ok := super.(*types.ClassType); !ok || ct.Nullable || ct.Constructor.IsFunction() {
					src.Trace.Report(report.InvalidSupertype.On(tr, super.Repr()))
					continue
				}

				supertypes = append(supertypes, super)
			}

			if err := d.env.Arena.SetSupertypes(class, supertypes); err != nil {
				src.Trace.Report(report.CyclicInheritance.On(cd, err.Error()))
			}

			d.declareClassHeaders(src, cd.Members, ts)
		}()
	}
}

// declareDecl enters the signature of a declaration.  scope is the lexical
// scope the declaration's body or initializer is walked in.
func (d *Declarer) declareDecl(src *SourceFile, container depm.Descriptor, decl ast.Decl, ts *typeScope, scope *depm.LexicalScope) {
	defer report.CatchErrors(src.Trace, decl)

	switch v := decl.(type) {
	case *ast.FunDecl:
		d.declareFunction(src, container, v, ts, scope)
	case *ast.PropertyDecl:
		d.declareProperty(src, container, v, ts, scope)
	case *ast.ClassDecl:
		d.declareClassMembers(src, v, ts, scope)
	}
}

// declareFunction enters a function declaration.
func (d *Declarer) declareFunction(src *SourceFile, container depm.Descriptor, fd *ast.FunDecl, ts *typeScope, scope *depm.LexicalScope) {
	spec, fts := functionSpec(d.typeContext(src, src.Trace, ts), fd, declaredVisibility(src.Trace, &fd.Modifiers, fd))

	fn := d.env.Arena.NewFunction(container, spec)
	recordFunction(src.Trace, fd, fn)

	if fn.ReturnType == nil {
		d.pending = append(d.pending, &pendingType{
			src:    src,
			scope:  bodyScope(scope, fn),
			tscope: fts,
			expr:   fd.ExprBody,
			set:    func(t types.Type) { fn.ReturnType = t },
		})
	}
}

// declareProperty enters a property declaration.
func (d *Declarer) declareProperty(src *SourceFile, container depm.Descriptor, pd *ast.PropertyDecl, ts *typeScope, scope *depm.LexicalScope) {
	spec := propertySpec(d.typeContext(src, src.Trace, ts), pd, declaredVisibility(src.Trace, &pd.Modifiers, pd))

	prop := d.env.Arena.NewProperty(container, spec)
	trace.Record(src.Trace, pd, trace.Declaration, depm.Descriptor(prop))

	if !pd.IsVar && pd.Initializer != nil {
		d.env.initializers[prop] = &initializer{expr: pd.Initializer, file: src.File}
	}

	if prop.Type == nil {
		d.pending = append(d.pending, &pendingType{
			src:    src,
			scope:  scope,
			tscope: ts,
			expr:   pd.Initializer,
			set:    func(t types.Type) { prop.Type = t },
		})
	}
}

// declareClassMembers enters the constructor and the members of a class.
func (d *Declarer) declareClassMembers(src *SourceFile, cd *ast.ClassDecl, outer *typeScope, outerScope *depm.LexicalScope) {
	arena := d.env.Arena
	class := declaredClass(src, cd)
	ts := newTypeScope(outer, class.TypeParams(), class)
	tc := d.typeContext(src, src.Trace, ts)

	scope := classScope(outerScope, class)
	initScope := scope

	if !cd.IsInterface {
		params := make([]*depm.ValueParameterDescriptor, len(cd.CtorParams))
		for i, param := range cd.CtorParams {
			params[i] = newValueParam(tc, param, i)
		}

		ctor := arena.NewFunction(class, depm.FunctionSpec{
			Name:          class.Name(),
			TypeParams:    class.TypeParams(),
			ValueParams:   params,
			ReturnType:    class.DefaultType(),
			IsConstructor: true,
		})

		for i, param := range cd.CtorParams {
			trace.Record(src.Trace, param, trace.Declaration, depm.Descriptor(ctor.ValueParams[i]))

			if param.Property != "" {
				arena.NewProperty(class, depm.PropertySpec{
					Name:  param.Name,
					Type:  ctor.ValueParams[i].Type,
					IsVar: param.Property == "var",
				})
			}
		}

		initScope = bodyScope(scope, ctor)
	}

	for _, member := range cd.Members {
		if _, ok := member.(*ast.PropertyDecl); ok {
			d.declareDecl(src, class, member, ts, initScope)
		} else {
			d.declareDecl(src, class, member, ts, scope)
		}
	}
}

// -----------------------------------------------------------------------------

// functionSpec builds the signature of a function declaration.  It also
// returns the type scope of the function's type parameters.
func functionSpec(tc typeContext, fd *ast.FunDecl, vis depm.Visibility) (depm.FunctionSpec, *typeScope) {
	typeParams := newTypeParams(fd.TypeParams)
	fts := newTypeScope(tc.scope, typeParams, nil)
	tc = tc.with(fts)

	resolveBounds(tc, fd.TypeParams, typeParams)

	spec := depm.FunctionSpec{
		Name:        fd.Name,
		Visibility:  vis,
		TypeParams:  typeParams,
		ValueParams: make([]*depm.ValueParameterDescriptor, len(fd.Params)),
	}

	if fd.Receiver != nil {
		spec.ExtensionReceiver = tc.resolveType(fd.Receiver)
	}

	for i, param := range fd.Params {
		spec.ValueParams[i] = newValueParam(tc, param, i)
	}

	if fd.ReturnType != nil {
		spec.ReturnType = tc.resolveType(fd.ReturnType)
	} else if fd.ExprBody == nil {
		spec.ReturnType = types.UnitType
	}

	spec.Deprecated, spec.DeprecationMessage = deprecation(&fd.Modifiers)
	return spec, fts
}

// propertySpec builds the signature of a property declaration.  The type is nil
// if it is to be inferred from the initializer.
func propertySpec(tc typeContext, pd *ast.PropertyDecl, vis depm.Visibility) depm.PropertySpec {
	spec := depm.PropertySpec{
		Name:       pd.Name,
		Visibility: vis,
		IsVar:      pd.IsVar,
	}

	if pd.Type != nil {
		spec.Type = tc.resolveType(pd.Type)
	} else if pd.Initializer == nil {
		tc.sink.Report(report.MissingPropertyType.On(pd, pd.Name))
		spec.Type = types.NewErrorType(pd.Name)
	}

	spec.Deprecated, spec.DeprecationMessage = deprecation(&pd.Modifiers)
	return spec
}

// declaredVisibility converts the visibility modifier of a declaration.
func declaredVisibility(sink *trace.BindingTrace, mods *ast.Modifiers, node ast.Node) depm.Visibility {
	vis, ok := depm.ParseVisibility(mods.Visibility)
	if !ok {
		sink.Report(report.IllegalModifier.On(node, mods.Visibility))
	}

	return vis
}

// typeContext creates a type context for a file.
func (d *Declarer) typeContext(src *SourceFile, sink *trace.BindingTrace, ts *typeScope) typeContext {
	return typeContext{arena: d.env.Arena, src: src, sink: sink, scope: ts}
}

// -----------------------------------------------------------------------------

// inferTypes computes the types of the declarations whose types are the types
// of their bodies or initializers.  Since one such declaration may depend on
// another, the pending declarations are retried until no more progress is
// made.  Those still left get the error type: the errors in their bodies are
// reported when the bodies are walked.
func (d *Declarer) inferTypes(ctx context.Context) {
	for progress := true; progress && len(d.pending) > 0; {
		progress = false

		remaining := d.pending[:0]
		for _, p := range d.pending {
			typ := d.inferType(ctx, p)
			if types.ContainsError(typ) {
				remaining = append(remaining, p)
				continue
			}

			p.set(typ)
			progress = true
		}

		d.pending = remaining
	}

	for _, p := range d.pending {
		p.set(types.NewErrorType("cannot infer type"))
	}

	d.pending = nil
}

// inferType computes the type of a pending declaration's expression.  The
// expression is walked in a scratch trace that is always discarded.
func (d *Declarer) inferType(ctx context.Context, p *pendingType) (typ types.Type) {
	scratch := p.src.Trace.Child()
	defer scratch.Discard()

	typ = types.NewErrorType("cannot infer type")
	defer report.CatchErrors(scratch, p.expr)

	w := newWalker(ctx, d.env, p.src, scratch)
	w.checkers = nil
	w.scope, w.tscope = p.scope, p.tscope

	return w.walkExpr(p.expr)
}

// -----------------------------------------------------------------------------

// declaredClass returns the class descriptor entered for a class declaration.
func declaredClass(src *SourceFile, cd *ast.ClassDecl) *depm.ClassDescriptor {
	d, ok := trace.Get(src.Trace, cd, trace.Declaration)
	if !ok {
		report.Raise(cd.Span(), "class %s was never entered", cd.Name)
	}

	return d.(*depm.ClassDescriptor)
}

// recordFunction records the descriptors of a function and its parameters.
func recordFunction(bt *trace.BindingTrace, fd *ast.FunDecl, fn *depm.FunctionDescriptor) {
	trace.Record(bt, fd, trace.Declaration, depm.Descriptor(fn))

	for i, param := range fd.Params {
		trace.Record(bt, param, trace.Declaration, depm.Descriptor(fn.ValueParams[i]))
	}
}

// newTypeParams creates the type parameters of a declaration.  Their bounds
// are resolved separately since they may refer to each other.
func newTypeParams(tps []*ast.TypeParam) []*types.TypeParameter {
	params := make([]*types.TypeParameter, len(tps))
	for i, tp := range tps {
		params[i] = &types.TypeParameter{Name: tp.Name, Index: i}

		switch tp.Variance {
		case "in":
			params[i].Variance = types.In
		case "out":
			params[i].Variance = types.Out
		}
	}

	return params
}

// resolveBounds resolves the declared upper bounds of type parameters.
func resolveBounds(tc typeContext, tps []*ast.TypeParam, params []*types.TypeParameter) {
	for i, tp := range tps {
		for _, bound := range tp.Bounds {
			params[i].UpperBounds = append(params[i].UpperBounds, tc.resolveType(bound))
		}
	}
}

// newValueParam creates the descriptor of a value parameter.
func newValueParam(tc typeContext, param *ast.Param, index int) *depm.ValueParameterDescriptor {
	var typ types.Type
	if param.Type == nil {
		tc.sink.Report(report.MissingPropertyType.On(param, param.Name))
		typ = types.NewErrorType(param.Name)
	} else {
		typ = tc.resolveType(param.Type)
	}

	vpd := depm.NewValueParameter(param.Name, index, typ)
	vpd.IsVararg = param.Vararg
	vpd.HasDefault = param.Default != nil
	return vpd
}

// deprecation returns whether a declaration is annotated `@Deprecated` and
// its deprecation message.
func deprecation(mods *ast.Modifiers) (bool, string) {
	annot, ok := mods.FindAnnotation("Deprecated")
	if !ok {
		return false, ""
	}

	if len(annot.Args) > 0 {
		if value, ok := NewConstEvaluator(nil, nil, nil).Evaluate(annot.Args[0].Expr, types.StringType); ok {
			if msg, ok := value.(string); ok {
				return true, msg
			}
		}
	}

	return true, ""
}

// bodyScope creates the scope of a function's body: it holds the function's
// value parameters.
func bodyScope(parent *depm.LexicalScope, fn *depm.FunctionDescriptor) *depm.LexicalScope {
	scope := depm.NewLexicalScope(parent, fn)
	for _, param := range fn.ValueParams {
		scope.Define(param)
	}

	return scope
}

// classScope creates the scope of a class's body: the class's members are
// implicitly accessible in it.  The parameters of the primary constructor are
// only visible in the scope of the property initializers nested inside it.
func classScope(parent *depm.LexicalScope, class *depm.ClassDescriptor) *depm.LexicalScope {
	scope := depm.NewLexicalScope(parent, class)
	scope.ImplicitReceiver = class
	return scope
}
