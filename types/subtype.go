package types

// IsSubtypeOf returns whether sub is a subtype of super.  The error type is
// compatible with every type in both directions.
func IsSubtypeOf(sub, super Type) bool {
	if IsError(sub) || IsError(super) {
		return true
	}

	switch v := sub.(type) {
	case *ClassType:
		// `Nothing` is the bottom type and `Nothing?` is the bottom of the
		// nullable types.
		if v.Constructor == NothingCtor {
			return !v.Nullable || super.IsMarkedNullable()
		}

		if v.Nullable && !super.IsMarkedNullable() {
			return false
		}

		switch sv := super.(type) {
		case *ClassType:
			return isClassSubtype(v, sv)
		default:
			// A concrete type is never a subtype of a type parameter: we do
			// not know what the parameter will be substituted with.
			return false
		}
	case *ParamType:
		return isParamSubtype(v, super)
	}

	return false
}

// isClassSubtype checks subtyping between two class types with nullability
// already accounted for.
func isClassSubtype(sub, super *ClassType) bool {
	if super.Constructor == AnyCtor {
		return true
	}

	supAsSuper := FindSupertype(sub, super.Constructor)
	if supAsSuper == nil {
		return false
	}

	for i, param := range super.Constructor.Params {
		if !argumentConforms(param.Variance, supAsSuper.Args[i], super.Args[i]) {
			return false
		}
	}

	return true
}

// argumentConforms checks whether the type argument a in the subtype conforms
// to the type argument b in the supertype given the variance of the parameter.
func argumentConforms(variance Variance, a, b Type) bool {
	switch variance {
	case Out:
		return IsSubtypeOf(a, b)
	case In:
		return IsSubtypeOf(b, a)
	default:
		return IsError(a) || IsError(b) || Equals(a, b)
	}
}

// isParamSubtype checks whether a type parameter reference is a subtype of
// another type.
func isParamSubtype(sub *ParamType, super Type) bool {
	if sub.Nullable && !super.IsMarkedNullable() {
		return false
	}

	if sp, ok := super.(*ParamType); ok && sp.Param == sub.Param {
		switch {
		case sp.Nullable:
			return true
		case sp.DefinitelyNotNull:
			return sub.DefinitelyNotNull || !IsNullable(sub.Param.Type())
		default:
			return !sub.Nullable
		}
	}

	// Otherwise, the parameter is a subtype of super if any of its bounds
	// is.  The bounds carry the nullability of the reference.
	for _, bound := range sub.Param.Bounds() {
		if sub.Nullable {
			bound = MakeNullable(bound)
		} else if sub.DefinitelyNotNull {
			bound = MakeNotNull(bound)
		}

		if IsSubtypeOf(bound, super) {
			return true
		}
	}

	return false
}

// -----------------------------------------------------------------------------

// FindSupertype finds the supertype of t whose constructor is ctor with its
// type arguments expressed in terms of t's type arguments.  The nullability
// of t is not carried over.  It returns nil if ctor is not a supertype of t.
func FindSupertype(t *ClassType, ctor *TypeConstructor) *ClassType {
	if t.Constructor == ctor {
		if t.Nullable {
			return &ClassType{Constructor: ctor, Args: t.Args}
		}

		return t
	}

	for _, super := range Supertypes(t) {
		if found := FindSupertype(super, ctor); found != nil {
			return found
		}
	}

	return nil
}

// Supertypes returns the direct supertypes of a class type with the type
// arguments of t substituted in.
func Supertypes(t *ClassType) []*ClassType {
	ctor := t.Constructor
	if ctor == AnyCtor || ctor == NothingCtor {
		return nil
	}

	if len(ctor.Supertypes) == 0 {
		return []*ClassType{AnyType}
	}

	subst := NewSubstitutionOf(ctor.Params, t.Args)

	supers := make([]*ClassType, 0, len(ctor.Supertypes))
	for _, super := range ctor.Supertypes {
		if sct, ok := subst.Apply(super).(*ClassType); ok {
			supers = append(supers, sct)
		}
	}

	return supers
}

// SupertypeClosure returns t followed by all of its transitive supertypes in
// breadth-first order without duplicates.  Nullability is dropped.
func SupertypeClosure(t *ClassType) []*ClassType {
	closure := []*ClassType{MakeNotNull(t).(*ClassType)}

	for i := 0; i < len(closure); i++ {
	supersLoop:
		for _, super := range Supertypes(closure[i]) {
			for _, seen := range closure {
				if Equals(seen, super) {
					continue supersLoop
				}
			}

			closure = append(closure, super)
		}
	}

	return closure
}
