package walk

import (
	"context"

	"kresolve/ast"
	"kresolve/checkers"
	"kresolve/depm"
	"kresolve/report"
	"kresolve/resolve"
	"kresolve/trace"
	"kresolve/types"
)

// Walker is responsible for walking the bodies of the declarations of a single
// source file: it types expressions, resolves calls, and runs the call checkers
// on the resolved calls.  A walker is only ever used by one goroutine.
type Walker struct {
	ctx context.Context
	env *Env
	src *SourceFile

	// The trace results and diagnostics are recorded in.
	trace *trace.BindingTrace

	// The checkers run on resolved calls.  This is nil when a body is only
	// walked to infer its type.
	checkers checkers.Chain

	// The evaluator for the file's constants.
	consts *ConstEvaluator

	// The innermost lexical scope and type scope.
	scope  *depm.LexicalScope
	tscope *typeScope

	// The return type of the enclosing function.  If this is nil, then there
	// is no enclosing function: ie. return statements are not valid.
	returnType types.Type

	// Whether the walker is inside an annotation's arguments.
	inAnnotation bool

	// The calls resolved so far in source order.
	calls []*resolve.ResolvedCall
}

// newWalker creates a new walker recording into bt.
func newWalker(ctx context.Context, env *Env, src *SourceFile, bt *trace.BindingTrace) *Walker {
	return &Walker{
		ctx:      ctx,
		env:      env,
		src:      src,
		trace:    bt,
		checkers: env.Checkers,
		consts:   NewConstEvaluator(bt, src.File, env),
	}
}

// WalkFile semantically analyzes the bodies of the declarations of a file.  It
// returns the calls resolved in the file in source order; the diagnostics are
// reported to the file's trace.  If ctx is cancelled, the walk stops, nothing
// it recorded is kept and the context's error is returned.
func WalkFile(ctx context.Context, env *Env, src *SourceFile) (calls []*resolve.ResolvedCall, err error) {
	bt := src.Trace.Child()
	defer func() {
		if err == nil {
			bt.Commit()
		} else {
			bt.Discard()
		}
	}()

	defer report.CatchAbort(&err)

	w := newWalker(ctx, env, src, bt)
	for _, decl := range src.File.Decls {
		w.walkDecl(decl)
	}

	return w.calls, nil
}

// walkDecl walks a declaration and catches any errors that occur.
func (w *Walker) walkDecl(decl ast.Decl) {
	// Catch any errors that occur while walking the declaration.
	defer report.CatchErrors(w.trace, decl)

	// Ensure that the walker is reset.
	scope, tscope := w.scope, w.tscope
	defer func() {
		w.scope, w.tscope = scope, tscope
		w.returnType = nil
		w.inAnnotation = false
	}()

	switch v := decl.(type) {
	case *ast.FunDecl:
		w.walkFunction(v, declaredFunction(w.trace, v))
	case *ast.PropertyDecl:
		w.walkAnnotations(&v.Modifiers)
		w.walkInitializer(v, declaredProperty(w.trace, v))
	case *ast.ClassDecl:
		w.walkClass(v)
	}
}

// walkClass walks the members of a class.
func (w *Walker) walkClass(cd *ast.ClassDecl) {
	w.walkAnnotations(&cd.Modifiers)

	class := declaredClass(w.src, cd)
	w.tscope = newTypeScope(w.tscope, class.TypeParams(), class)
	w.scope = classScope(w.scope, class)
	outer, initScope := w.scope, w.scope

	// The constructor parameters are visible in their defaults and in the
	// property initializers.
	if ctors := w.env.Arena.LookupConstructors(class); len(ctors) > 0 {
		w.walkDefaults(cd.CtorParams, ctors[0])
		initScope = bodyScope(outer, ctors[0])
	}

	for _, member := range cd.Members {
		if _, ok := member.(*ast.PropertyDecl); ok {
			w.scope = initScope
		} else {
			w.scope = outer
		}

		w.walkDecl(member)
	}
}

// walkFunction walks the body of a function.
func (w *Walker) walkFunction(fd *ast.FunDecl, fn *depm.FunctionDescriptor) {
	w.walkAnnotations(&fd.Modifiers)

	w.tscope = newTypeScope(w.tscope, fn.TypeParams, nil)
	w.walkDefaults(fd.Params, fn)
	w.scope = bodyScope(w.scope, fn)

	enclosingReturnType := w.returnType
	w.returnType = fn.ReturnType
	defer func() {
		w.returnType = enclosingReturnType
	}()

	if fd.ExprBody != nil {
		typ := w.walkExpr(fd.ExprBody)

		// The return type of an expression body without a declared return type
		// is the body's type.
		if fd.ReturnType != nil {
			w.checkAssignable(fd.ExprBody, fn.ReturnType, typ)
		}
	} else {
		w.walkBlock(fd.Body)
	}
}

// walkDefaults walks the default values of a function's parameters.
func (w *Walker) walkDefaults(params []*ast.Param, fn *depm.FunctionDescriptor) {
	for i, param := range params {
		if param.Default != nil {
			w.checkAssignable(param.Default, fn.ValueParams[i].Type, w.walkExpr(param.Default))
		}
	}
}

// walkInitializer walks the initializer of a property.
func (w *Walker) walkInitializer(pd *ast.PropertyDecl, prop *depm.PropertyDescriptor) {
	if pd.Initializer == nil {
		return
	}

	typ := w.walkExpr(pd.Initializer)
	if pd.Type != nil {
		w.checkAssignable(pd.Initializer, prop.Type, typ)
	}
}

// walkAnnotations walks the arguments of the annotations of a declaration.
func (w *Walker) walkAnnotations(mods *ast.Modifiers) {
	if len(mods.Annotations) == 0 {
		return
	}

	w.inAnnotation = true
	defer func() {
		w.inAnnotation = false
	}()

	for _, annot := range mods.Annotations {
		for _, arg := range annot.Args {
			w.walkExpr(arg.Expr)
		}
	}
}

// -----------------------------------------------------------------------------

// checkCancelled aborts the walk if its context was cancelled.
func (w *Walker) checkCancelled() {
	if err := w.ctx.Err(); err != nil {
		report.Abort(err)
	}
}

// checkAssignable reports a type mismatch if a value of type actual can't be
// used where a value of type expected is expected.
func (w *Walker) checkAssignable(node ast.Node, expected, actual types.Type) {
	if !types.IsSubtypeOf(actual, expected) {
		w.trace.Report(report.TypeMismatch.On(node, expected.Repr(), actual.Repr()))
	}
}

// typeContext returns the context type references in bodies are resolved in.
func (w *Walker) typeContext() typeContext {
	return typeContext{arena: w.env.Arena, src: w.src, sink: w.trace, scope: w.tscope}
}

// resolveContext returns the context calls are resolved in.
func (w *Walker) resolveContext() *resolve.Context {
	return &resolve.Context{
		Ctx:     w.ctx,
		Arena:   w.env.Arena,
		Trace:   w.trace,
		Scope:   w.scope,
		Package: w.src.Package,
		Imports: w.src.Imports,
	}
}

// checkContext returns the context resolved calls are checked in.
func (w *Walker) checkContext() *checkers.CheckContext {
	return &checkers.CheckContext{
		Ctx:          w.ctx,
		Trace:        w.trace,
		Arena:        w.env.Arena,
		Scope:        w.scope,
		Module:       w.env.Module,
		Package:      w.src.Package,
		InAnnotation: w.inAnnotation,
		Constants:    w.consts,
		Lines:        w.src.Lines,
	}
}

// -----------------------------------------------------------------------------

// declaredFunction returns the function descriptor entered for a declaration.
func declaredFunction(bt *trace.BindingTrace, fd *ast.FunDecl) *depm.FunctionDescriptor {
	d, ok := trace.Get(bt, fd, trace.Declaration)
	if !ok {
		report.Raise(fd.Span(), "function %s was never declared", fd.Name)
	}

	return d.(*depm.FunctionDescriptor)
}

// declaredProperty returns the property descriptor entered for a declaration.
func declaredProperty(bt *trace.BindingTrace, pd *ast.PropertyDecl) *depm.PropertyDescriptor {
	d, ok := trace.Get(bt, pd, trace.Declaration)
	if !ok {
		report.Raise(pd.Span(), "property %s was never declared", pd.Name)
	}

	return d.(*depm.PropertyDescriptor)
}
