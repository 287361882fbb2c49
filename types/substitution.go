package types

import "strings"

// Substitution maps type parameters to the types they are replaced with.  A
// substitution is applied simultaneously: the replacement types are never
// themselves substituted again, so type parameters of an enclosing generic
// context appearing in a replacement are never rebound.
type Substitution struct {
	// The substituted parameters in binding order.
	params []*TypeParameter

	// The bindings of the parameters.
	bindings map[*TypeParameter]Type
}

// NewSubstitution creates a new empty substitution.
func NewSubstitution() *Substitution {
	return &Substitution{bindings: make(map[*TypeParameter]Type)}
}

// NewSubstitutionOf creates a substitution binding each parameter to the
// argument at the same position.  Extra parameters or arguments are ignored.
func NewSubstitutionOf(params []*TypeParameter, args []Type) *Substitution {
	subst := NewSubstitution()
	for i, param := range params {
		if i < len(args) {
			subst.Bind(param, args[i])
		}
	}

	return subst
}

// Bind binds a type parameter to a type.  Rebinding a parameter replaces its
// previous binding.  Substitutions must not be modified once they are shared.
func (s *Substitution) Bind(param *TypeParameter, typ Type) {
	if _, ok := s.bindings[param]; !ok {
		s.params = append(s.params, param)
	}

	s.bindings[param] = typ
}

// Get returns the binding of a parameter.
func (s *Substitution) Get(param *TypeParameter) (Type, bool) {
	typ, ok := s.bindings[param]
	return typ, ok
}

// Params returns the bound parameters in binding order.
func (s *Substitution) Params() []*TypeParameter {
	return s.params
}

// IsEmpty returns whether the substitution binds no parameters.
func (s *Substitution) IsEmpty() bool {
	return len(s.params) == 0
}

// Apply applies the substitution to a type.
func (s *Substitution) Apply(t Type) Type {
	if s == nil || len(s.params) == 0 {
		return t
	}

	switch v := t.(type) {
	case *ParamType:
		if bound, ok := s.bindings[v.Param]; ok {
			if v.Nullable {
				return MakeNullable(bound)
			} else if v.DefinitelyNotNull {
				return MakeNotNull(bound)
			}

			return bound
		}

		return v
	case *ClassType:
		var newArgs []Type
		for i, arg := range v.Args {
			newArg := s.Apply(arg)

			// Only copy the arguments once something actually changes.
			if newArgs == nil && newArg != arg {
				newArgs = make([]Type, len(v.Args))
				copy(newArgs, v.Args[:i])
			}

			if newArgs != nil {
				newArgs[i] = newArg
			}
		}

		if newArgs == nil {
			return v
		}

		return &ClassType{Constructor: v.Constructor, Args: newArgs, Nullable: v.Nullable}
	default:
		return t
	}
}

// ApplyAll applies the substitution to each type in a list.
func (s *Substitution) ApplyAll(typs []Type) []Type {
	result := make([]Type, len(typs))
	for i, typ := range typs {
		result[i] = s.Apply(typ)
	}

	return result
}

// Equals returns whether two substitutions bind the same parameters to equal
// types.
func (s *Substitution) Equals(other *Substitution) bool {
	if len(s.params) != len(other.params) {
		return false
	}

	for param, typ := range s.bindings {
		otherTyp, ok := other.bindings[param]
		if !ok || !Equals(typ, otherTyp) {
			return false
		}
	}

	return true
}

// Repr returns the representative string of the substitution: eg. `{T -> Int}`.
func (s *Substitution) Repr() string {
	sb := strings.Builder{}
	sb.WriteRune('{')

	for i, param := range s.params {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(param.Name)
		sb.WriteString(" -> ")
		sb.WriteString(s.bindings[param].Repr())
	}

	sb.WriteRune('}')
	return sb.String()
}
