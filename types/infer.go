package types

// ArgumentConstraint pairs the type of an argument with the declared type of
// the parameter it is passed to.  The argument flows into the parameter so the
// pair requires `Argument <: Parameter`.
type ArgumentConstraint struct {
	// The type of the argument or nil if it is unknown.
	Argument Type

	// The declared parameter type: it may refer to the inferred parameters.
	Parameter Type
}

// InferenceResult is the outcome of a successful inference.
type InferenceResult struct {
	// The inferred substitution for the type parameters.
	Substitution *Substitution

	// The type parameters that could not be inferred uniquely.
	Ambiguities []*InferenceAmbiguity
}

// InferenceAmbiguity records that a type parameter had no unique most
// specific solution and which solution was chosen instead.
type InferenceAmbiguity struct {
	// The ambiguous type parameter.
	Param *TypeParameter

	// The type chosen for it.
	Chosen Type

	// The incomparable solutions.
	Among []Type
}

// InferenceError indicates that inference failed for a type parameter.
type InferenceError struct {
	// The parameter that could not be inferred.
	Param *TypeParameter

	// Why inference failed.
	Reason string

	// The bounds collected for the parameter.
	bounds *variableBounds
}

func (ie *InferenceError) Error() string {
	return buildTraceback(ie)
}

// -----------------------------------------------------------------------------

// variableBounds is the set of bounds collected for a single type variable.
type variableBounds struct {
	// The types the variable must be a supertype of.
	Lower []Type

	// The types the variable must be a subtype of.  This does not include the
	// declared bounds of the variable.
	Upper []Type

	// The types the variable must be equal to.
	Equal []Type
}

// constrained returns whether any argument constrained the variable.
func (vb *variableBounds) constrained() bool {
	return len(vb.Lower) > 0 || len(vb.Upper) > 0 || len(vb.Equal) > 0
}

// constraintSystem collects the bounds of the variables being inferred.
type constraintSystem struct {
	// The inference variables in declaration order.
	vars []*TypeParameter

	// The bounds of each variable.
	bounds map[*TypeParameter]*variableBounds
}

// variableOf returns the inference variable referenced by t, if any.
func (cs *constraintSystem) variableOf(t Type) (*ParamType, *variableBounds) {
	if pt, ok := t.(*ParamType); ok {
		if vb, ok := cs.bounds[pt.Param]; ok {
			return pt, vb
		}
	}

	return nil, nil
}

// addSubtype adds the constraint `sub <: super`, decomposing it structurally
// until it reaches the inference variables.
func (cs *constraintSystem) addSubtype(sub, super Type) {
	if IsError(sub) || IsError(super) {
		return
	}

	if pt, vb := cs.variableOf(super); pt != nil {
		if pt.Nullable || pt.DefinitelyNotNull {
			sub = MakeNotNull(sub)
		}

		vb.Lower = appendUnique(vb.Lower, sub)
		return
	}

	if pt, vb := cs.variableOf(sub); pt != nil {
		if pt.DefinitelyNotNull {
			super = MakeNullable(super)
		}

		vb.Upper = appendUnique(vb.Upper, super)
		return
	}

	superCT, ok := super.(*ClassType)
	if !ok {
		return
	}

	switch v := sub.(type) {
	case *ClassType:
		if v.Constructor == NothingCtor {
			return
		}

		if found := FindSupertype(v, superCT.Constructor); found != nil {
			cs.decompose(found, superCT)
		}
	case *ParamType:
		// A rigid type parameter reaches super through its bounds.
		for _, bound := range v.Param.Bounds() {
			if bct, ok := bound.(*ClassType); ok {
				if found := FindSupertype(bct, superCT.Constructor); found != nil {
					cs.decompose(found, superCT)
					return
				}
			}
		}
	}
}

// decompose adds the constraints between the arguments of two class types
// with the same constructor.
func (cs *constraintSystem) decompose(sub, super *ClassType) {
	for i, param := range super.Constructor.Params {
		switch param.Variance {
		case Out:
			cs.addSubtype(sub.Args[i], super.Args[i])
		case In:
			cs.addSubtype(super.Args[i], sub.Args[i])
		default:
			cs.addEqual(sub.Args[i], super.Args[i])
		}
	}
}

// addEqual adds the constraint `a == b`.
func (cs *constraintSystem) addEqual(a, b Type) {
	if IsError(a) || IsError(b) {
		return
	}

	if pt, vb := cs.variableOf(b); pt != nil {
		if pt.Nullable || pt.DefinitelyNotNull {
			a = MakeNotNull(a)
		}

		vb.Equal = appendUnique(vb.Equal, a)
		return
	}

	if pt, _ := cs.variableOf(a); pt != nil {
		cs.addEqual(b, a)
		return
	}

	act, aok := a.(*ClassType)
	bct, bok := b.(*ClassType)
	if aok && bok && act.Constructor == bct.Constructor && len(act.Args) == len(bct.Args) {
		for i := range act.Args {
			cs.addEqual(act.Args[i], bct.Args[i])
		}
	}
}

// -----------------------------------------------------------------------------

// Infer infers the type arguments for params from the given argument
// constraints.  Each parameter is bound to the most specific type satisfying
// all of its bounds.  A parameter that no argument constrains, or whose
// bounds contradict each other, makes inference fail with an *InferenceError.
func Infer(params []*TypeParameter, constraints []ArgumentConstraint) (*InferenceResult, error) {
	// Inference runs over fresh copies of the parameters so that argument types
	// which mention the same declarations (eg. in a recursive call) are never
	// confused with the variables being solved for.
	fresh := make([]*TypeParameter, len(params))
	for i, param := range params {
		fresh[i] = &TypeParameter{
			Name:     param.Name,
			Index:    param.Index,
			Variance: param.Variance,
			Owner:    param.Owner,
		}
	}

	toFresh := NewSubstitutionOf(params, paramTypes(fresh))
	for i, param := range params {
		fresh[i].UpperBounds = toFresh.ApplyAll(param.UpperBounds)
	}

	cs := &constraintSystem{
		vars:   fresh,
		bounds: make(map[*TypeParameter]*variableBounds),
	}
	for _, v := range fresh {
		cs.bounds[v] = &variableBounds{}
	}

	for _, constraint := range constraints {
		if constraint.Argument == nil {
			continue
		}

		cs.addSubtype(constraint.Argument, toFresh.Apply(constraint.Parameter))
	}

	// Solve each variable independently.
	solution := NewSubstitution()
	result := &InferenceResult{Substitution: NewSubstitution()}
	for i, v := range fresh {
		chosen, ambiguity, err := cs.solve(v)
		if err != nil {
			err.Param = params[i]
			return nil, err
		}

		if ambiguity != nil {
			ambiguity.Param = params[i]
			result.Ambiguities = append(result.Ambiguities, ambiguity)
		}

		solution.Bind(v, chosen)
		result.Substitution.Bind(params[i], chosen)
	}

	// Check the declared bounds which refer to other variables now that every
	// variable has a solution.
	for i, v := range fresh {
		chosen, _ := solution.Get(v)

		for _, bound := range v.UpperBounds {
			if ContainsParams(bound, fresh) && !IsSubtypeOf(chosen, solution.Apply(bound)) {
				return nil, &InferenceError{
					Param:  params[i],
					Reason: chosen.Repr() + " does not satisfy the bound " + solution.Apply(bound).Repr(),
					bounds: cs.bounds[v],
				}
			}
		}
	}

	return result, nil
}

// solve picks the solution for a single variable.
func (cs *constraintSystem) solve(v *TypeParameter) (Type, *InferenceAmbiguity, *InferenceError) {
	vb := cs.bounds[v]
	if !vb.constrained() {
		return nil, nil, &InferenceError{Reason: "no argument constrains it", bounds: vb}
	}

	// The declared bounds which do not mention other variables act as upper
	// bounds right away.
	uppers := append([]Type{}, vb.Upper...)
	for _, bound := range v.UpperBounds {
		if !ContainsParams(bound, cs.vars) {
			uppers = appendUnique(uppers, bound)
		}
	}

	var chosen Type
	var ambiguity *InferenceAmbiguity
	switch {
	case len(vb.Equal) > 1:
		return nil, nil, &InferenceError{Reason: "it must be equal to incompatible types", bounds: vb}
	case len(vb.Equal) == 1:
		chosen = vb.Equal[0]
	case len(vb.Lower) > 0:
		var among []Type
		chosen, among = CommonSupertype(vb.Lower)
		if among != nil {
			ambiguity = &InferenceAmbiguity{Chosen: chosen, Among: among}
		}
	default:
		var among []Type
		chosen, among = CommonSubtype(uppers)
		if among != nil {
			ambiguity = &InferenceAmbiguity{Chosen: chosen, Among: among}
		}
	}

	for _, lower := range vb.Lower {
		if !IsSubtypeOf(lower, chosen) {
			return nil, nil, &InferenceError{
				Reason: "bounds are contradictory: " + lower.Repr() + " is not a subtype of " + chosen.Repr(),
				bounds: vb,
			}
		}
	}

	for _, upper := range uppers {
		if !IsSubtypeOf(chosen, upper) {
			return nil, nil, &InferenceError{
				Reason: "bounds are contradictory: " + chosen.Repr() + " is not a subtype of " + upper.Repr(),
				bounds: vb,
			}
		}
	}

	return chosen, ambiguity, nil
}

// paramTypes returns references to each of the given parameters.
func paramTypes(params []*TypeParameter) []Type {
	typs := make([]Type, len(params))
	for i, param := range params {
		typs[i] = param.Type()
	}

	return typs
}
