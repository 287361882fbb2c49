package resolve

import (
	"kresolve/types"
)

// score picks the best of the applicable candidates: the one preferred over
// every other candidate.  If there is no such candidate, it instead returns the
// candidates that no other candidate is preferred over.
func (res *resolution) score(applicable []*Candidate) (*Candidate, []*Candidate) {
	if len(applicable) == 1 {
		return applicable[0], nil
	}

	for _, a := range applicable {
		bestOfAll := true
		for _, b := range applicable {
			if a != b && !res.preferred(a, b) {
				bestOfAll = false
				break
			}
		}

		if bestOfAll {
			return a, nil
		}
	}

	var tied []*Candidate
	for _, a := range applicable {
		beaten := false
		for _, b := range applicable {
			if a != b && res.preferred(b, a) {
				beaten = true
				break
			}
		}

		if !beaten {
			tied = append(tied, a)
		}
	}

	if len(tied) == 0 {
		tied = applicable
	}

	return nil, tied
}

// preferred returns whether candidate a is preferred over candidate b.  The
// discriminators are applied in order and the first one which separates the
// candidates decides: specificity, proximity, and then not using default
// values.
func (res *resolution) preferred(a, b *Candidate) bool {
	aMore, bMore := res.moreSpecific(a, b), res.moreSpecific(b, a)
	if aMore != bMore {
		return aMore
	}

	if a.Proximity.CloserThan(b.Proximity) {
		return true
	} else if b.Proximity.CloserThan(a.Proximity) {
		return false
	}

	return !a.UsesDefaults && b.UsesDefaults
}

// moreSpecific returns whether each parameter type a binds to an argument is a
// subtype of the parameter type b binds to the same argument.  The type
// parameters of b are inferred from the parameter types of a; those of a are
// left as they are.
func (res *resolution) moreSpecific(a, b *Candidate) bool {
	aTypes, bTypes := res.boundParamTypes(a), res.boundParamTypes(b)
	if len(aTypes) != len(bTypes) {
		return false
	}

	if len(b.Descriptor.TypeParams) > 0 {
		constraints := make([]types.ArgumentConstraint, len(aTypes))
		for i := range aTypes {
			constraints[i] = types.ArgumentConstraint{Argument: aTypes[i], Parameter: bTypes[i]}
		}

		result, err := types.Infer(b.Descriptor.TypeParams, constraints)
		if err != nil {
			return false
		}

		bTypes = result.Substitution.ApplyAll(bTypes)
	}

	for i := range aTypes {
		if !types.IsSubtypeOf(aTypes[i], bTypes[i]) {
			return false
		}
	}

	return true
}

// boundParamTypes returns the declared types of the parameters a candidate
// binds to the call's arguments, in argument order.  An extension's receiver
// type comes first.
func (res *resolution) boundParamTypes(cand *Candidate) []types.Type {
	var typs []types.Type
	if res.call.Receiver != nil && cand.Descriptor.IsExtension() {
		typs = append(typs, cand.Descriptor.ExtensionReceiver)
	}

	for i := range res.call.Args {
		typs = append(typs, cand.Descriptor.ValueParams[cand.Mapping[i]].Type)
	}

	return typs
}
