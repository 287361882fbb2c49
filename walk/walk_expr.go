package walk

import (
	"strings"

	"kresolve/ast"
	"kresolve/depm"
	"kresolve/report"
	"kresolve/resolve"
	"kresolve/trace"
	"kresolve/types"
)

// walkExpr walks an expression and returns its type.  The type is recorded in
// the trace.
func (w *Walker) walkExpr(expr ast.Expr) types.Type {
	w.checkCancelled()

	var typ types.Type
	switch v := expr.(type) {
	case *ast.Literal:
		typ = literalType(v)
	case *ast.StringTemplate:
		for _, entry := range v.Entries {
			if entry.Expr != nil {
				w.walkExpr(entry.Expr)
			}
		}

		typ = types.StringType
	case *ast.NameRef:
		typ = w.walkNameRef(v)
	case *ast.CallExpr:
		typ = w.walkCall(v)
	case *ast.BinaryExpr:
		typ = w.walkBinaryExpr(v)
	default:
		report.Raise(expr.Span(), "unknown kind of expression: %T", expr)
	}

	trace.Record(w.trace, expr, trace.ExpressionType, typ)
	return typ
}

// literalType returns the type of a literal.
func literalType(lit *ast.Literal) types.Type {
	switch lit.Kind {
	case ast.IntLit:
		if strings.HasSuffix(lit.Value, "L") {
			return types.LongType
		}

		return types.IntType
	case ast.LongLit:
		return types.LongType
	case ast.DoubleLit:
		return types.DoubleType
	case ast.BoolLit:
		return types.BooleanType
	case ast.CharLit:
		return types.CharType
	default:
		return types.NullType
	}
}

// -----------------------------------------------------------------------------

// walkNameRef walks a reference to a value: a local variable, a parameter, or a
// property.
func (w *Walker) walkNameRef(ref *ast.NameRef) types.Type {
	var found depm.Descriptor

	if ref.Receiver != nil {
		recvType := w.walkExpr(ref.Receiver)
		if types.IsError(recvType) {
			return recvType
		}

		if types.IsNullable(recvType) {
			w.trace.Report(report.UnsafeCall.On(ref, recvType.Repr()))
			recvType = types.MakeNotNull(recvType)
		}

		if pd, ok := w.memberProperty(recvType, ref.Name); ok {
			found = pd
		}
	} else {
		found = w.lookupValue(ref.Name)
	}

	if found == nil {
		w.trace.Report(report.UnresolvedReference.On(ref, ref.Name))
		return types.NewErrorType(ref.Name)
	}

	trace.Record(w.trace, ref, trace.Reference, found)

	switch v := found.(type) {
	case *depm.ValueParameterDescriptor:
		// A vararg parameter is an array of its element type in the body.
		if v.IsVararg {
			return types.NewClassType(types.ArrayCtor, v.Type)
		}

		return v.Type
	default:
		return w.propertyType(ref, v.(*depm.PropertyDescriptor))
	}
}

// lookupValue looks up a value by name: locals and parameters first, then the
// properties of the implicit receivers, of the file's package, and of the
// imports.  It returns nil if there is no such value.
func (w *Walker) lookupValue(name string) depm.Descriptor {
	for _, sd := range depm.LookupLocals(w.scope, name) {
		switch sd.Descriptor.(type) {
		case *depm.PropertyDescriptor, *depm.ValueParameterDescriptor:
			return sd.Descriptor
		}
	}

	for _, cd := range depm.ImplicitReceivers(w.scope) {
		if pd, ok := w.memberProperty(cd.DefaultType(), name); ok {
			return pd
		}
	}

	if pd, ok := firstProperty(w.env.Arena.LookupPackageMembers(w.src.Package, name)); ok {
		return pd
	}

	if pd, ok := firstProperty(w.src.Imports.Lookup(name)); ok {
		return pd
	}

	return nil
}

// memberProperty looks up a member property of a receiver type.  The
// receiver's type arguments are substituted into the property's type.
func (w *Walker) memberProperty(receiver types.Type, name string) (*depm.PropertyDescriptor, bool) {
	for _, ct := range memberClassTypes(receiver) {
		cd, ok := w.env.Arena.ClassOf(ct.Constructor)
		if !ok {
			continue
		}

		if pd, ok := firstProperty(w.env.Arena.LookupMembers(cd, name)); ok {
			return pd.Substitute(types.NewSubstitutionOf(ct.Constructor.Params, ct.Args)), true
		}
	}

	return nil, false
}

// propertyType returns the type a property is read as: the return type of its
// getter.
func (w *Walker) propertyType(ref *ast.NameRef, pd *depm.PropertyDescriptor) types.Type {
	// The type of a property declared later in the same scope may not be
	// inferred yet.
	if pd.Type == nil {
		report.Raise(ref.Span(), "type of %s is not known yet", pd.Name())
	}

	accessors, err := w.env.Arena.Accessors(pd)
	if err != nil {
		report.Raise(ref.Span(), "%s", err)
	}

	return accessors.Getter.ReturnType
}

// memberClassTypes returns the class types whose members are accessible on a
// receiver: the receiver itself or the bounds of a type parameter.
func memberClassTypes(receiver types.Type) []*types.ClassType {
	switch v := receiver.(type) {
	case *types.ClassType:
		return []*types.ClassType{v}
	case *types.ParamType:
		var classTypes []*types.ClassType
		for _, bound := range v.Param.Bounds() {
			classTypes = append(classTypes, memberClassTypes(types.MakeNotNull(bound))...)
		}

		return classTypes
	default:
		return nil
	}
}

// firstProperty returns the first property among a list of descriptors.
func firstProperty(found []depm.Descriptor) (*depm.PropertyDescriptor, bool) {
	for _, d := range found {
		if pd, ok := d.(*depm.PropertyDescriptor); ok {
			return pd, true
		}
	}

	return nil, false
}

// -----------------------------------------------------------------------------

// walkCall walks a call expression.
func (w *Walker) walkCall(call *ast.CallExpr) types.Type {
	var receiver types.Type
	if call.Receiver != nil {
		receiver = w.walkExpr(call.Receiver)
	}

	var typeArgs []types.Type
	if len(call.TypeArgs) > 0 {
		tc := w.typeContext()

		typeArgs = make([]types.Type, len(call.TypeArgs))
		for i, tr := range call.TypeArgs {
			typeArgs[i] = tc.resolveType(tr)
		}
	}

	args := make([]*resolve.Argument, len(call.Args))
	for i, arg := range call.Args {
		args[i] = &resolve.Argument{
			Expr: arg.Expr,
			Name: arg.Name,
			Type: w.walkExpr(arg.Expr),
		}
	}

	return w.resolveCall(&resolve.Call{
		Node:     call,
		Callee:   call.Callee,
		Name:     call.Callee.Name,
		Receiver: receiver,
		TypeArgs: typeArgs,
		Args:     args,
	})
}

// walkBinaryExpr walks a binary operator application.  The operator is
// resolved as a call to its operator function on the left operand.
func (w *Walker) walkBinaryExpr(bin *ast.BinaryExpr) types.Type {
	left := w.walkExpr(bin.Left)
	right := w.walkExpr(bin.Right)

	name, ok := ast.OperatorFunctions[bin.Op]
	if !ok {
		w.trace.Report(report.UnsupportedOperator.On(bin, bin.Op))
		return types.NewErrorType(bin.Op)
	}

	return w.resolveCall(&resolve.Call{
		Node:     bin,
		Callee:   bin,
		Name:     name,
		Receiver: left,
		Args:     []*resolve.Argument{{Expr: bin.Right, Type: right}},
	})
}

// resolveCall resolves a call and runs the call checkers on it.  An internal
// error while resolving or checking the call is reported on the call which
// then gets the error type: the walk continues with the next expression.
func (w *Walker) resolveCall(call *resolve.Call) (typ types.Type) {
	typ = types.NewErrorType(call.Name)
	defer report.CatchErrors(w.trace, call.Node)

	result := resolve.ResolveCall(w.resolveContext(), call)
	if result.State == resolve.Resolved {
		trace.Record(w.trace, call.Callee, trace.Reference, depm.Descriptor(result.Call.Candidate))

		if w.checkers != nil {
			w.checkers.Check(result.Call, w.checkContext())
		}

		w.calls = append(w.calls, result.Call)
	}

	return result.Type()
}
