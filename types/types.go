package types

import (
	"strings"
)

// Type represents a resolved type: a reference to a class-like type
// constructor, a reference to a type parameter, or the error placeholder.
// Types are immutable and may be freely shared between goroutines.
type Type interface {
	// Returns whether this type is equal to the other type.  This should only
	// be called through Equals which handles the error type.
	equals(other Type) bool

	// Returns whether values of this type may be null.  This only considers the
	// type's own marker: a type parameter whose bound is nullable is not itself
	// marked nullable.
	IsMarkedNullable() bool

	// Returns the representative string for this type.
	Repr() string
}

// Variance is the declaration-site variance of a type parameter.
type Variance int

// Enumeration of variances.
const (
	Invariant Variance = iota
	In
	Out
)

func (v Variance) Repr() string {
	switch v {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return ""
	}
}

// Opposite returns the variance of a position nested inside a position of
// this variance where the inner position is contravariant.
func (v Variance) Opposite() Variance {
	switch v {
	case In:
		return Out
	case Out:
		return In
	default:
		return Invariant
	}
}

// -----------------------------------------------------------------------------

// TypeParameter is a declared type parameter of a class or function.  Type
// parameters are identified by pointer: two parameters with the same name
// declared by different declarations are distinct.
type TypeParameter struct {
	// The name of the type parameter.
	Name string

	// The position of the type parameter in its declaration's parameter list.
	Index int

	// The declaration-site variance of the parameter.
	Variance Variance

	// The declared upper bounds.  An empty list means the implicit bound
	// `Any?`.  The bounds may refer to the parameter itself: eg. `T :
	// Comparable<T>`.
	UpperBounds []Type

	// The name of the declaration which owns this parameter.  This is only
	// used for display.
	Owner string
}

// Bounds returns the effective upper bounds of the type parameter.
func (tp *TypeParameter) Bounds() []Type {
	if len(tp.UpperBounds) == 0 {
		return []Type{NullableAnyType}
	}

	return tp.UpperBounds
}

// Type returns a reference to the type parameter.
func (tp *TypeParameter) Type() *ParamType {
	return &ParamType{Param: tp}
}

func (tp *TypeParameter) Repr() string {
	sb := strings.Builder{}
	if tp.Variance != Invariant {
		sb.WriteString(tp.Variance.Repr())
		sb.WriteRune(' ')
	}

	sb.WriteString(tp.Name)

	if len(tp.UpperBounds) > 0 {
		sb.WriteString(" : ")
		for i, bound := range tp.UpperBounds {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(bound.Repr())
		}
	}

	return sb.String()
}

// TypeConstructor is the definition of a class-like type: its name, its type
// parameters, and its declared supertypes.  A type constructor is built once
// when its declaring class is entered and is never modified after the
// descriptor arena is finalized.
type TypeConstructor struct {
	// The display name of the constructor.
	Name string

	// The fully qualified name of the constructor.
	FqName string

	// The declared type parameters.
	Params []*TypeParameter

	// The declared supertypes, expressed in terms of Params.  A constructor with
	// no declared supertypes implicitly extends `Any` (unless it is `Any` or
	// `Nothing`).
	Supertypes []Type

	// The function type arity if this is a `FunctionN` constructor, otherwise
	// -1.
	FunctionArity int
}

// NewTypeConstructor creates a new type constructor with no supertypes.
func NewTypeConstructor(name, fqName string, params ...*TypeParameter) *TypeConstructor {
	return &TypeConstructor{
		Name:          name,
		FqName:        fqName,
		Params:        params,
		FunctionArity: -1,
	}
}

// IsFunction returns whether this is a function type constructor.
func (tc *TypeConstructor) IsFunction() bool {
	return tc.FunctionArity >= 0
}

// DefaultType returns the type of the constructor applied to its own type
// parameters: eg. `List<E>` for `List`.
func (tc *TypeConstructor) DefaultType() *ClassType {
	args := make([]Type, len(tc.Params))
	for i, param := range tc.Params {
		args[i] = param.Type()
	}

	return &ClassType{Constructor: tc, Args: args}
}

// -----------------------------------------------------------------------------

// ClassType is a type constructor applied to type arguments.
type ClassType struct {
	// The type constructor.
	Constructor *TypeConstructor

	// The type arguments: there is always one per constructor parameter.
	Args []Type

	// Whether the type is marked nullable.
	Nullable bool
}

// NewClassType creates a new non-null class type.
func NewClassType(ctor *TypeConstructor, args ...Type) *ClassType {
	return &ClassType{Constructor: ctor, Args: args}
}

func (ct *ClassType) equals(other Type) bool {
	if oct, ok := other.(*ClassType); ok {
		if ct.Constructor != oct.Constructor || ct.Nullable != oct.Nullable || len(ct.Args) != len(oct.Args) {
			return false
		}

		for i, arg := range ct.Args {
			if !Equals(arg, oct.Args[i]) {
				return false
			}
		}

		return true
	}

	return false
}

func (ct *ClassType) IsMarkedNullable() bool {
	return ct.Nullable
}

func (ct *ClassType) Repr() string {
	sb := strings.Builder{}

	if ct.Constructor.IsFunction() && len(ct.Args) == ct.Constructor.FunctionArity+1 {
		if ct.Nullable {
			sb.WriteRune('(')
		}

		sb.WriteRune('(')
		for i, arg := range ct.Args[:len(ct.Args)-1] {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(arg.Repr())
		}
		sb.WriteString(") -> ")
		sb.WriteString(ct.Args[len(ct.Args)-1].Repr())

		if ct.Nullable {
			sb.WriteString(")?")
		}

		return sb.String()
	}

	sb.WriteString(ct.Constructor.Name)

	if len(ct.Args) > 0 {
		sb.WriteRune('<')
		for i, arg := range ct.Args {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(arg.Repr())
		}
		sb.WriteRune('>')
	}

	if ct.Nullable {
		sb.WriteRune('?')
	}

	return sb.String()
}

// -----------------------------------------------------------------------------

// ParamType is a reference to a type parameter.
type ParamType struct {
	// The referenced type parameter.
	Param *TypeParameter

	// Whether the reference is marked nullable: `T?`.
	Nullable bool

	// Whether the reference is definitely not null: `T!!`.
	DefinitelyNotNull bool
}

func (pt *ParamType) equals(other Type) bool {
	if opt, ok := other.(*ParamType); ok {
		return pt.Param == opt.Param && pt.Nullable == opt.Nullable && pt.DefinitelyNotNull == opt.DefinitelyNotNull
	}

	return false
}

func (pt *ParamType) IsMarkedNullable() bool {
	return pt.Nullable
}

func (pt *ParamType) Repr() string {
	if pt.Nullable {
		return pt.Param.Name + "?"
	} else if pt.DefinitelyNotNull {
		return pt.Param.Name + "!!"
	}

	return pt.Param.Name
}

// -----------------------------------------------------------------------------

// ErrorType is the placeholder given to expressions whose type could not be
// determined.  It is compatible with every type in both directions so that one
// error does not cascade into many.
type ErrorType struct {
	// A short description of what could not be resolved.
	Reason string
}

func (et *ErrorType) equals(other Type) bool {
	_, ok := other.(*ErrorType)
	return ok
}

func (et *ErrorType) IsMarkedNullable() bool {
	return false
}

func (et *ErrorType) Repr() string {
	if et.Reason == "" {
		return "<error>"
	}

	return "<error: " + et.Reason + ">"
}

// NewErrorType creates a new error type with the given reason.
func NewErrorType(reason string) *ErrorType {
	return &ErrorType{Reason: reason}
}

// -----------------------------------------------------------------------------

// Equals returns whether two types are equal.
func Equals(a, b Type) bool {
	return a.equals(b)
}

// IsError returns whether the type is the error type.
func IsError(t Type) bool {
	_, ok := t.(*ErrorType)
	return ok
}

// ContainsError returns whether the type or any of its arguments is the error
// type.
func ContainsError(t Type) bool {
	switch v := t.(type) {
	case *ErrorType:
		return true
	case *ClassType:
		for _, arg := range v.Args {
			if ContainsError(arg) {
				return true
			}
		}
	}

	return false
}

// MakeNullable returns the nullable version of a type.
func MakeNullable(t Type) Type {
	switch v := t.(type) {
	case *ClassType:
		if v.Nullable {
			return v
		}

		return &ClassType{Constructor: v.Constructor, Args: v.Args, Nullable: true}
	case *ParamType:
		if v.Nullable {
			return v
		}

		return &ParamType{Param: v.Param, Nullable: true}
	default:
		return t
	}
}

// MakeNotNull returns the non-null version of a type.  For type parameters, this
// is the definitely-not-null projection.
func MakeNotNull(t Type) Type {
	switch v := t.(type) {
	case *ClassType:
		if !v.Nullable {
			return v
		}

		return &ClassType{Constructor: v.Constructor, Args: v.Args}
	case *ParamType:
		if v.DefinitelyNotNull {
			return v
		}

		return &ParamType{Param: v.Param, DefinitelyNotNull: true}
	default:
		return t
	}
}

// IsNullable returns whether null is a possible value of the type: the type is
// either marked nullable or is a type parameter with a nullable bound.
func IsNullable(t Type) bool {
	switch v := t.(type) {
	case *ClassType:
		return v.Nullable
	case *ParamType:
		if v.Nullable {
			return true
		} else if v.DefinitelyNotNull {
			return false
		}

		for _, bound := range v.Param.Bounds() {
			if !IsNullable(bound) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// ContainsParams returns whether the type refers to any of the given type
// parameters.
func ContainsParams(t Type, params []*TypeParameter) bool {
	switch v := t.(type) {
	case *ParamType:
		for _, param := range params {
			if v.Param == param {
				return true
			}
		}
	case *ClassType:
		for _, arg := range v.Args {
			if ContainsParams(arg, params) {
				return true
			}
		}
	}

	return false
}

// ReprList returns the comma-separated representation of a list of types.
func ReprList(typs []Type) string {
	reprs := make([]string, len(typs))
	for i, typ := range typs {
		reprs[i] = typ.Repr()
	}

	return strings.Join(reprs, ", ")
}
