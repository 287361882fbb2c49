package types

import "kresolve/util"

// CommonSupertype computes the least common supertype of a non-empty list of
// types.  If the least common supertype is not unique, the result is `Any`
// (with the appropriate nullability) and the second return value holds the
// incomparable minimal candidates.
func CommonSupertype(typs []Type) (Type, []Type) {
	for _, typ := range typs {
		if IsError(typ) {
			return typ, nil
		}
	}

	// Separate out nullability: we compute the supertype of the types without
	// their nullable markers and then mark the result if any type was marked.
	nullable, boundNullable := false, false
	var candidates []Type
	for _, typ := range typs {
		if typ.IsMarkedNullable() {
			nullable = true
		}

		if IsNullable(typ) {
			boundNullable = true
		}

		// `Nothing` contributes nothing but its nullability.
		if IsNothing(typ) {
			continue
		}

		candidates = appendUnique(candidates, withoutNullableMarker(typ))
	}

	withNullability := func(t Type) Type {
		if nullable {
			return MakeNullable(t)
		}

		return t
	}

	switch len(candidates) {
	case 0:
		return withNullability(NothingType), nil
	case 1:
		return withNullability(candidates[0]), nil
	}

	// If one candidate is a supertype of all the others, we are done.
	for _, cand := range candidates {
		if util.All(candidates, func(other Type) bool { return IsSubtypeOf(other, cand) }) {
			return withNullability(cand), nil
		}
	}

	// Type parameter references are replaced by their first bound: we have
	// already established none of them subsumes the others.  From here on, a
	// parameter with a nullable bound makes the result nullable.
	nullable = boundNullable

	classTypes := make([]*ClassType, 0, len(candidates))
	for _, cand := range candidates {
		classTypes = append(classTypes, classTypeOf(cand))
	}

	minimal := commonSuperClasses(classTypes)
	if len(minimal) == 1 {
		return withNullability(minimal[0]), nil
	}

	return withNullability(AnyType), minimal
}

// withoutNullableMarker removes the nullable marker from a type.  Unlike
// MakeNotNull, an unmarked type parameter reference is left as it is.
func withoutNullableMarker(t Type) Type {
	if pt, ok := t.(*ParamType); ok {
		if pt.Nullable {
			return &ParamType{Param: pt.Param}
		}

		return pt
	}

	return MakeNotNull(t)
}

// classTypeOf returns the class type standing in for t in a common supertype
// computation.
func classTypeOf(t Type) *ClassType {
	for {
		switch v := t.(type) {
		case *ClassType:
			return MakeNotNull(v).(*ClassType)
		case *ParamType:
			t = v.Param.Bounds()[0]
		default:
			return AnyType
		}
	}
}

// commonSuperClasses returns the minimal common supertypes of a list of class
// types.  There is always at least one: `Any`.
func commonSuperClasses(classTypes []*ClassType) []Type {
	var common []Type

closureLoop:
	for _, cand := range SupertypeClosure(classTypes[0]) {
		args := make([][]Type, len(cand.Args))
		for i, arg := range cand.Args {
			args[i] = []Type{arg}
		}

		for _, other := range classTypes[1:] {
			otherSuper := FindSupertype(other, cand.Constructor)
			if otherSuper == nil {
				continue closureLoop
			}

			for i, arg := range otherSuper.Args {
				args[i] = append(args[i], arg)
			}
		}

		// Merge the type arguments according to variance: equal arguments are
		// kept, covariant arguments are merged recursively, and any other
		// difference rules the constructor out.
		merged := make([]Type, len(args))
		for i, argList := range args {
			if util.All(argList, func(arg Type) bool { return Equals(arg, argList[0]) }) {
				merged[i] = argList[0]
			} else if cand.Constructor.Params[i].Variance == Out {
				merged[i], _ = CommonSupertype(argList)
			} else {
				continue closureLoop
			}
		}

		common = appendUnique(common, &ClassType{Constructor: cand.Constructor, Args: merged})
	}

	// Keep only the minimal elements.
	var minimal []Type
	for _, cand := range common {
		isMinimal := true
		for _, other := range common {
			if !Equals(cand, other) && IsSubtypeOf(other, cand) {
				isMinimal = false
				break
			}
		}

		if isMinimal {
			minimal = append(minimal, cand)
		}
	}

	if len(minimal) == 0 {
		return []Type{AnyType}
	}

	return minimal
}

// CommonSubtype picks the most specific of a non-empty list of upper bounds:
// the bound which is a subtype of all the others.  If there is no such bound,
// the first bound which is not a strict subtype of any other is chosen and the
// second return value holds the bounds which were incomparable.
func CommonSubtype(bounds []Type) (Type, []Type) {
	var unique []Type
	for _, bound := range bounds {
		unique = appendUnique(unique, bound)
	}

	for _, cand := range unique {
		if util.All(unique, func(other Type) bool { return IsSubtypeOf(cand, other) }) {
			return cand, nil
		}
	}

	for _, cand := range unique {
		isMaximal := true
		for _, other := range unique {
			if !Equals(cand, other) && IsSubtypeOf(cand, other) {
				isMaximal = false
				break
			}
		}

		if isMaximal {
			return cand, unique
		}
	}

	return unique[0], unique
}

// -----------------------------------------------------------------------------

// appendUnique appends typ to typs if no equal type is already present.
func appendUnique(typs []Type, typ Type) []Type {
	for _, existing := range typs {
		if Equals(existing, typ) {
			return typs
		}
	}

	return append(typs, typ)
}
