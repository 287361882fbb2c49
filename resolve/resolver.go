package resolve

import (
	"fmt"

	"kresolve/depm"
	"kresolve/report"
	"kresolve/trace"
	"kresolve/types"
)

// resolution is the state of the resolution of a single call.
type resolution struct {
	rctx *Context
	call *Call

	// The current state.
	state State

	// The collected candidates in collection order.
	candidates []*Candidate

	// The descriptors already collected: the same declaration can be visible
	// in more than one way.
	seen map[*depm.FunctionDescriptor]struct{}
}

// ResolveCall resolves a call against the candidates visible at its call site.
// On success, the resolved call is recorded in the trace of rctx.  Failures
// are reported as diagnostics into the trace.  If rctx's context is cancelled,
// resolution aborts with report.Abort and nothing it did is recorded.
func ResolveCall(rctx *Context, call *Call) *Result {
	res := &resolution{
		rctx:  rctx,
		call:  call,
		state: Collecting,
		seen:  make(map[*depm.FunctionDescriptor]struct{}),
	}

	// Candidate traces still open when resolution ends (including when it
	// aborts) hold nothing the caller may see.
	defer func() {
		for _, cand := range res.candidates {
			if cand.trace != nil && cand.trace.IsOpen() {
				cand.trace.Discard()
			}
		}
	}()

	// An error-typed receiver has already been reported.
	if call.Receiver != nil && types.IsError(call.Receiver) {
		res.advance(NoneApplicable)
		return &Result{State: NoneApplicable}
	}

	res.collect()
	if len(res.candidates) == 0 {
		res.advance(NoneApplicable)
		rctx.Trace.Report(report.UnresolvedReference.On(call.Callee, call.Name))
		return &Result{State: NoneApplicable}
	}

	res.advance(Filtering)
	for _, cand := range res.candidates {
		res.filter(cand)
	}

	res.advance(Inferring)
	var applicable []*Candidate
	for _, cand := range res.candidates {
		checkCancelled(rctx)

		if cand.Status == Pending {
			res.infer(cand)

			if cand.Status == Applicable {
				applicable = append(applicable, cand)
			}
		}
	}

	if len(applicable) == 0 {
		res.advance(NoneApplicable)
		res.reportNoneApplicable()
		return &Result{State: NoneApplicable, Candidates: res.candidates}
	}

	res.advance(Scoring)
	winner, tied := res.score(applicable)
	if winner == nil {
		res.advance(Ambiguous)

		reprs := make(report.List, len(tied))
		for i, cand := range tied {
			reprs[i] = cand.Repr()
		}

		rctx.Trace.Report(report.OverloadResolutionAmbiguity.On(call.Callee, reprs))
		return &Result{State: Ambiguous, Candidates: res.candidates, Tied: tied}
	}

	res.advance(Resolved)
	resolved := res.buildResolvedCall(winner)

	winner.trace.Commit()
	trace.Replace(rctx.Trace, call.Node, ResolvedCallSlot, resolved)

	return &Result{State: Resolved, Call: resolved, Candidates: res.candidates}
}

// checkCancelled aborts resolution if its context has been cancelled.
func checkCancelled(rctx *Context) {
	if rctx.Ctx == nil {
		return
	}

	if err := rctx.Ctx.Err(); err != nil {
		report.Abort(err)
	}
}

// -----------------------------------------------------------------------------

// collect gathers the candidates matching the called name in order of
// proximity: locals, members, extensions, the file's package, and imports.
func (res *resolution) collect() {
	rctx, call := res.rctx, res.call

	if call.Receiver != nil {
		res.collectMembers(call.Receiver, ProximityMember, 0)

		// Extensions can be declared locally, in the package, or imported.
		for _, sd := range depm.LookupLocals(rctx.Scope, call.Name) {
			res.addFunctions(sd.Descriptor, Proximity{Level: ProximityExtension, Depth: sd.Depth}, true)
		}

		if rctx.Package != nil {
			for _, d := range rctx.Arena.LookupPackageMembers(rctx.Package, call.Name) {
				res.addFunctions(d, Proximity{Level: ProximityExtension, Depth: -1}, true)
			}
		}

		if rctx.Imports != nil {
			for _, d := range rctx.Imports.Lookup(call.Name) {
				res.addFunctions(d, Proximity{Level: ProximityExtension, Depth: -2}, true)
			}
		}

		return
	}

	for _, sd := range depm.LookupLocals(rctx.Scope, call.Name) {
		res.addFunctions(sd.Descriptor, Proximity{Level: ProximityLocal, Depth: sd.Depth}, false)
	}

	for i, cd := range depm.ImplicitReceivers(rctx.Scope) {
		res.collectMembers(cd.DefaultType(), ProximityMember, -i)
	}

	if rctx.Package != nil {
		for _, d := range rctx.Arena.LookupPackageMembers(rctx.Package, call.Name) {
			res.addFunctions(d, Proximity{Level: ProximityTopLevel}, false)
		}
	}

	if rctx.Imports != nil {
		for _, d := range rctx.Imports.Lookup(call.Name) {
			res.addFunctions(d, Proximity{Level: ProximityImported}, false)
		}
	}
}

// collectMembers gathers the member functions of a receiver type.  The
// receiver's type arguments are substituted into each member.
func (res *resolution) collectMembers(receiver types.Type, level ProximityLevel, depth int) {
	for _, ct := range receiverClassTypes(receiver) {
		cd, ok := res.rctx.Arena.ClassOf(ct.Constructor)
		if !ok {
			continue
		}

		subst := types.NewSubstitutionOf(ct.Constructor.Params, ct.Args)
		for _, member := range res.rctx.Arena.LookupMembers(cd, res.call.Name) {
			if fd, ok := member.(*depm.FunctionDescriptor); ok {
				res.add(fd.Substitute(subst), fd, Proximity{Level: level, Depth: depth})
			}
		}
	}
}

// receiverClassTypes returns the class types whose members are accessible on
// a receiver: the receiver itself or the bounds of a type parameter.
func receiverClassTypes(receiver types.Type) []*types.ClassType {
	switch v := receiver.(type) {
	case *types.ClassType:
		return []*types.ClassType{v}
	case *types.ParamType:
		var classTypes []*types.ClassType
		for _, bound := range v.Param.Bounds() {
			classTypes = append(classTypes, receiverClassTypes(bound)...)
		}

		return classTypes
	default:
		return nil
	}
}

// addFunctions adds the functions a descriptor found by name provides: the
// descriptor itself if it is a function or the constructors of a class.  Only
// extensions are added if extensions is set and only non-extensions
// otherwise.
func (res *resolution) addFunctions(d depm.Descriptor, prox Proximity, extensions bool) {
	switch v := d.(type) {
	case *depm.FunctionDescriptor:
		if v.IsExtension() == extensions {
			res.add(v, v, prox)
		}
	case *depm.ClassDescriptor:
		if !extensions {
			for _, ctor := range res.rctx.Arena.LookupConstructors(v) {
				res.add(ctor, ctor, prox)
			}
		}
	}
}

// add adds a single candidate unless its declaration was already collected.
func (res *resolution) add(fd, declared *depm.FunctionDescriptor, prox Proximity) {
	key := declared.Original()
	if _, ok := res.seen[key]; ok {
		return
	}

	res.seen[key] = struct{}{}
	res.candidates = append(res.candidates, &Candidate{Descriptor: fd, Proximity: prox})
}

// -----------------------------------------------------------------------------

// filter rejects a candidate if the shape of the call does not fit it.  This
// runs before any inference.
func (res *resolution) filter(cand *Candidate) {
	fd := cand.Descriptor

	if res.call.TypeArgs != nil && len(res.call.TypeArgs) != len(fd.TypeParams) {
		cand.reject(
			WrongTypeArgCount,
			fmt.Sprintf("expected %d type arguments but got %d", len(fd.TypeParams), len(res.call.TypeArgs)),
		)
		return
	}

	mapping, usesDefaults, problem := mapArguments(fd, res.call.Args)
	if problem != "" {
		cand.reject(ArityMismatch, problem)
		return
	}

	cand.Mapping = mapping
	cand.UsesDefaults = usesDefaults
}

// infer computes the type arguments of a candidate and checks its arguments
// against its substituted parameters.  The candidate is evaluated in its own
// child trace.
func (res *resolution) infer(cand *Candidate) {
	call, fd := res.call, cand.Descriptor
	cand.trace = res.rctx.Trace.Child()

	var receiverType types.Type
	if fd.IsExtension() {
		receiverType = call.Receiver
	}

	switch {
	case len(fd.TypeParams) == 0:
		cand.Substitution = types.NewSubstitution()
	case call.TypeArgs != nil:
		cand.Substitution = types.NewSubstitutionOf(fd.TypeParams, call.TypeArgs)

		for i, tp := range fd.TypeParams {
			for _, bound := range tp.UpperBounds {
				if bound = cand.Substitution.Apply(bound); !types.IsSubtypeOf(call.TypeArgs[i], bound) {
					cand.reject(
						InferenceFailure,
						fmt.Sprintf("type argument %s does not satisfy the bound %s", call.TypeArgs[i].Repr(), bound.Repr()),
					)
					return
				}
			}
		}
	default:
		constraints := make([]types.ArgumentConstraint, 0, len(call.Args)+1)
		if receiverType != nil {
			constraints = append(constraints, types.ArgumentConstraint{Argument: receiverType, Parameter: fd.ExtensionReceiver})
		}

		for i, arg := range call.Args {
			constraints = append(constraints, types.ArgumentConstraint{
				Argument:  arg.Type,
				Parameter: fd.ValueParams[cand.Mapping[i]].Type,
			})
		}

		result, err := types.Infer(fd.TypeParams, constraints)
		if err != nil {
			cand.Err = err
			cand.reject(InferenceFailure, inferenceDetail(err))
			return
		}

		cand.Substitution = result.Substitution
		for _, ambiguity := range result.Ambiguities {
			cand.trace.Report(report.CannotInferUniquely.On(
				call.Node,
				ambiguity.Param.Name,
				ambiguity.Chosen.Repr(),
				types.ReprList(ambiguity.Among),
			))
		}
	}

	cand.Result = fd.Substitute(cand.Substitution)

	if receiverType != nil && !types.IsSubtypeOf(receiverType, cand.Result.ExtensionReceiver) {
		cand.reject(
			TypeMismatch,
			fmt.Sprintf("receiver: expected %s but got %s", cand.Result.ExtensionReceiver.Repr(), receiverType.Repr()),
		)
		return
	}

	// Members cannot be called on a nullable receiver.
	if call.Receiver != nil && !fd.IsExtension() && types.IsNullable(call.Receiver) {
		cand.reject(TypeMismatch, "receiver: unsafe call on nullable "+call.Receiver.Repr())
		return
	}

	var firstMismatch string
	for i, arg := range call.Args {
		param := cand.Result.ValueParams[cand.Mapping[i]]
		trace.Replace(cand.trace, arg.Expr, trace.ExpectedType, param.Type)

		if arg.Type != nil && !types.IsSubtypeOf(arg.Type, param.Type) {
			cand.Mismatches = append(cand.Mismatches, i)

			if firstMismatch == "" {
				firstMismatch = fmt.Sprintf("argument %d: expected %s but got %s", i+1, param.Type.Repr(), arg.Type.Repr())
			}
		}
	}

	if len(cand.Mismatches) > 0 {
		cand.reject(TypeMismatch, firstMismatch)
		return
	}

	cand.Status = Applicable
}

// inferenceDetail summarizes an inference error on one line.
func inferenceDetail(err error) string {
	if ie, ok := err.(*types.InferenceError); ok {
		return fmt.Sprintf("cannot infer %s: %s", ie.Param.Name, ie.Reason)
	}

	return err.Error()
}

// -----------------------------------------------------------------------------

// reportNoneApplicable reports why no candidate is applicable.  If the only
// candidate got the right number of arguments, the mismatched arguments are
// reported individually.
func (res *resolution) reportNoneApplicable() {
	sink := res.rctx.Trace

	if len(res.candidates) == 1 && res.candidates[0].Rejection == TypeMismatch && len(res.candidates[0].Mismatches) > 0 {
		cand := res.candidates[0]

		for _, i := range cand.Mismatches {
			arg := res.call.Args[i]
			param := cand.Result.ValueParams[cand.Mapping[i]]
			sink.Report(report.TypeMismatch.On(arg.Expr, param.Type.Repr(), arg.Type.Repr()))
		}

		return
	}

	reasons := make(report.List, len(res.candidates))
	for i, cand := range res.candidates {
		reasons[i] = fmt.Sprintf("%s: %s (%s)", cand.Repr(), cand.Rejection, cand.Detail)
	}

	sink.Report(report.NoneApplicable.On(res.call.Callee, reasons))
}

// buildResolvedCall builds the resolved call for the winning candidate.
func (res *resolution) buildResolvedCall(winner *Candidate) *ResolvedCall {
	params := make([]*depm.ValueParameterDescriptor, len(res.call.Args))
	for i := range res.call.Args {
		params[i] = winner.Result.ValueParams[winner.Mapping[i]]
	}

	retType := winner.Result.ReturnType
	if retType == nil {
		report.Raise(nil, "function %s lacks a resolved return type", winner.Descriptor.Name())
	}

	return &ResolvedCall{
		Call:           res.call,
		Candidate:      winner.Descriptor,
		Descriptor:     winner.Result,
		Substitution:   winner.Substitution,
		ArgumentParams: params,
		UsesDefaults:   winner.UsesDefaults,
		ReturnType:     retType,
	}
}
