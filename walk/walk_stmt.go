package walk

import (
	"kresolve/ast"
	"kresolve/depm"
	"kresolve/report"
	"kresolve/trace"
	"kresolve/types"
)

// walkBlock walks a block of statements in a new scope.
func (w *Walker) walkBlock(stmts []ast.Stmt) {
	enclosing := w.scope
	w.scope = depm.NewLexicalScope(w.scope, nil)
	defer func() {
		w.scope = enclosing
	}()

	for _, stmt := range stmts {
		w.walkStmt(stmt)
	}
}

// walkStmt walks a statement.
func (w *Walker) walkStmt(stmt ast.Stmt) {
	switch v := stmt.(type) {
	case *ast.PropertyDecl:
		w.walkLocalVariable(v)
	case *ast.FunDecl:
		w.walkLocalFunction(v)
	case *ast.ClassDecl:
		report.Raise(v.Span(), "local classes are not supported")
	case *ast.ReturnStmt:
		w.walkReturn(v)
	case ast.Expr:
		w.walkExpr(v)
	default:
		report.Raise(stmt.Span(), "unknown kind of statement: %T", stmt)
	}
}

// walkLocalVariable declares a local variable.  The variable is only visible
// after its declaration.
func (w *Walker) walkLocalVariable(pd *ast.PropertyDecl) {
	w.walkAnnotations(&pd.Modifiers)

	spec := propertySpec(w.typeContext(), pd, declaredVisibility(w.trace, &pd.Modifiers, pd))

	if pd.Initializer != nil {
		typ := w.walkExpr(pd.Initializer)

		if spec.Type == nil {
			spec.Type = typ
		} else {
			w.checkAssignable(pd.Initializer, spec.Type, typ)
		}
	}

	local := depm.NewLocalVariable(w.ownerID(), spec)
	w.scope.Define(local)
	trace.Record(w.trace, pd, trace.Declaration, depm.Descriptor(local))

	if !pd.IsVar && pd.Initializer != nil {
		w.consts.defineLocal(local, pd.Initializer)
	}
}

// walkLocalFunction declares a local function and walks its body.  A local
// function is visible in its own body so it may call itself.
func (w *Walker) walkLocalFunction(fd *ast.FunDecl) {
	spec, fts := functionSpec(
		w.typeContext(),
		fd,
		declaredVisibility(w.trace, &fd.Modifiers, fd),
	)

	fn := depm.NewLocalFunction(w.ownerID(), spec)
	if fn.ReturnType == nil {
		fn.ReturnType = w.inferLocal(fd.ExprBody, bodyScope(w.scope, fn), fts)
	}

	w.scope.Define(fn)
	recordFunction(w.trace, fd, fn)

	enclosingScope, enclosingTScope := w.scope, w.tscope
	defer func() {
		w.scope, w.tscope = enclosingScope, enclosingTScope
	}()

	w.walkFunction(fd, fn)
}

// inferLocal computes the type of a local function's expression body.  The
// body is walked in a scratch trace that is always discarded.  The function
// itself is not in scope yet: a recursive call makes the type uninferable.
func (w *Walker) inferLocal(expr ast.Expr, scope *depm.LexicalScope, tscope *typeScope) (typ types.Type) {
	scratch := w.trace.Child()
	defer scratch.Discard()

	typ = types.NewErrorType("cannot infer type")
	defer report.CatchErrors(scratch, expr)

	iw := newWalker(w.ctx, w.env, w.src, scratch)
	iw.checkers = nil
	iw.consts = w.consts
	iw.scope, iw.tscope = scope, tscope

	typ = iw.walkExpr(expr)
	if types.ContainsError(typ) {
		return types.NewErrorType("cannot infer type")
	}

	return typ
}

// walkReturn walks a return statement.
func (w *Walker) walkReturn(rs *ast.ReturnStmt) {
	if w.returnType == nil {
		report.Raise(rs.Span(), "return outside of a function")
	}

	if rs.Value == nil {
		w.checkAssignable(rs, w.returnType, types.UnitType)
		return
	}

	w.checkAssignable(rs.Value, w.returnType, w.walkExpr(rs.Value))
}

// ownerID returns the ID of the innermost declaration in the arena enclosing
// the walker's position.  Local declarations are contained by it.
func (w *Walker) ownerID() depm.DescriptorID {
	for _, owner := range depm.EnclosingDeclarations(w.scope) {
		if owner.ID() != depm.NoDescriptor {
			return owner.ID()
		}
	}

	return w.src.Package.ID()
}
