package types

import (
	"fmt"
)

// MaxFunctionArity is the largest number of parameters a function type may
// have.
const MaxFunctionArity = 22

// The built-in type constructors.  These are shared by every analysis session.
var (
	AnyCtor          = NewTypeConstructor("Any", "kotlin.Any")
	NothingCtor      = NewTypeConstructor("Nothing", "kotlin.Nothing")
	UnitCtor         = NewTypeConstructor("Unit", "kotlin.Unit")
	BooleanCtor      = NewTypeConstructor("Boolean", "kotlin.Boolean")
	CharCtor         = NewTypeConstructor("Char", "kotlin.Char")
	NumberCtor       = NewTypeConstructor("Number", "kotlin.Number")
	IntCtor          = NewTypeConstructor("Int", "kotlin.Int")
	LongCtor         = NewTypeConstructor("Long", "kotlin.Long")
	DoubleCtor       = NewTypeConstructor("Double", "kotlin.Double")
	CharSequenceCtor = NewTypeConstructor("CharSequence", "kotlin.CharSequence")
	StringCtor       = NewTypeConstructor("String", "kotlin.String")
	ComparableCtor   = NewTypeConstructor("Comparable", "kotlin.Comparable", &TypeParameter{Name: "T", Variance: In, Owner: "Comparable"})
	ListCtor         = NewTypeConstructor("List", "kotlin.collections.List", &TypeParameter{Name: "E", Variance: Out, Owner: "List"})
	MutableListCtor  = NewTypeConstructor("MutableList", "kotlin.collections.MutableList", &TypeParameter{Name: "E", Owner: "MutableList"})
	ArrayCtor        = NewTypeConstructor("Array", "kotlin.Array", &TypeParameter{Name: "T", Owner: "Array"})

	functionCtors [MaxFunctionArity + 1]*TypeConstructor
)

// Commonly used built-in types.
var (
	AnyType          = NewClassType(AnyCtor)
	NullableAnyType  = &ClassType{Constructor: AnyCtor, Nullable: true}
	NothingType      = NewClassType(NothingCtor)
	NullType         = &ClassType{Constructor: NothingCtor, Nullable: true}
	UnitType         = NewClassType(UnitCtor)
	BooleanType      = NewClassType(BooleanCtor)
	CharType         = NewClassType(CharCtor)
	NumberType       = NewClassType(NumberCtor)
	IntType          = NewClassType(IntCtor)
	LongType         = NewClassType(LongCtor)
	DoubleType       = NewClassType(DoubleCtor)
	CharSequenceType = NewClassType(CharSequenceCtor)
	StringType       = NewClassType(StringCtor)
)

func init() {
	comparableOf := func(t Type) Type {
		return NewClassType(ComparableCtor, t)
	}

	BooleanCtor.Supertypes = []Type{comparableOf(BooleanType)}
	CharCtor.Supertypes = []Type{comparableOf(CharType)}
	IntCtor.Supertypes = []Type{NumberType, comparableOf(IntType)}
	LongCtor.Supertypes = []Type{NumberType, comparableOf(LongType)}
	DoubleCtor.Supertypes = []Type{NumberType, comparableOf(DoubleType)}
	StringCtor.Supertypes = []Type{CharSequenceType, comparableOf(StringType)}
	MutableListCtor.Supertypes = []Type{NewClassType(ListCtor, MutableListCtor.Params[0].Type())}

	for n := 0; n <= MaxFunctionArity; n++ {
		params := make([]*TypeParameter, n+1)
		owner := fmt.Sprintf("Function%d", n)

		for i := 0; i < n; i++ {
			params[i] = &TypeParameter{Name: fmt.Sprintf("P%d", i+1), Index: i, Variance: In, Owner: owner}
		}
		params[n] = &TypeParameter{Name: "R", Index: n, Variance: Out, Owner: owner}

		ctor := NewTypeConstructor(owner, "kotlin."+owner, params...)
		ctor.FunctionArity = n
		functionCtors[n] = ctor
	}
}

// BuiltinConstructors returns all the built-in class constructors other than
// the function type constructors.
func BuiltinConstructors() []*TypeConstructor {
	return []*TypeConstructor{
		AnyCtor, NothingCtor, UnitCtor, BooleanCtor, CharCtor, NumberCtor, IntCtor,
		LongCtor, DoubleCtor, CharSequenceCtor, StringCtor, ComparableCtor, ListCtor,
		MutableListCtor, ArrayCtor,
	}
}

// FunctionCtor returns the `FunctionN` constructor for the given arity.  The
// second return value is false if the arity is out of range.
func FunctionCtor(arity int) (*TypeConstructor, bool) {
	if arity < 0 || arity > MaxFunctionArity {
		return nil, false
	}

	return functionCtors[arity], true
}

// NewFunctionType creates a function type from its parameter types and return
// type.  Function types with too many parameters become the error type.
func NewFunctionType(params []Type, ret Type) Type {
	ctor, ok := FunctionCtor(len(params))
	if !ok {
		return NewErrorType(fmt.Sprintf("function type with %d parameters", len(params)))
	}

	args := make([]Type, len(params)+1)
	copy(args, params)
	args[len(params)] = ret

	return &ClassType{Constructor: ctor, Args: args}
}

// IsNothing returns whether the type is `Nothing` or `Nothing?`.
func IsNothing(t Type) bool {
	ct, ok := t.(*ClassType)
	return ok && ct.Constructor == NothingCtor
}
