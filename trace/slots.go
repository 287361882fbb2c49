package trace

import (
	"kresolve/depm"
	"kresolve/types"
)

// The slots shared by the analysis passes.
var (
	// The type of an expression.  It is replaced when a call is re-resolved.
	ExpressionType = NewRewritableSlot[types.Type]("EXPRESSION_TYPE")

	// The descriptor a name or call refers to.
	Reference = NewSlot[depm.Descriptor]("REFERENCE_TARGET")

	// The descriptor created for a declaration.
	Declaration = NewSlot[depm.Descriptor]("DECLARATION_TO_DESCRIPTOR")

	// The type a value argument is expected to have by the parameter it is
	// passed to.
	ExpectedType = NewRewritableSlot[types.Type]("EXPECTED_EXPRESSION_TYPE")

	// The compile-time value of a constant expression.
	CompileTimeValue = NewSlot[any]("COMPILE_TIME_VALUE")
)
