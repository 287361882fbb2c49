package report

// The diagnostic kinds produced by the resolution core.  Platform checkers
// define their own factories next to the checker.
var (
	UnresolvedReference = NewFactory(
		"UNRESOLVED_REFERENCE", SeverityError,
		"unresolved reference: %s",
	)

	OverloadResolutionAmbiguity = NewFactory(
		"OVERLOAD_RESOLUTION_AMBIGUITY", SeverityError,
		"overload resolution ambiguity between candidates:%s",
	)

	NoneApplicable = NewFactory(
		"NONE_APPLICABLE", SeverityError,
		"none of the following candidates is applicable:%s",
	)

	CannotInferUniquely = NewFactory(
		"CANNOT_INFER_UNIQUELY", SeverityWarning,
		"type argument for %s cannot be inferred uniquely: chose %s among %s",
	)

	TypeMismatch = NewFactory(
		"TYPE_MISMATCH", SeverityError,
		"type mismatch: expected %s but got %s",
	)

	InvisibleMember = NewFactory(
		"INVISIBLE_MEMBER", SeverityError,
		"cannot access %s: it is %s in %s",
	)

	Deprecation = NewFactory(
		"DEPRECATION", SeverityWarning,
		"%s is deprecated: %s",
	)

	WrongNumberOfTypeArguments = NewFactory(
		"WRONG_NUMBER_OF_TYPE_ARGUMENTS", SeverityError,
		"%d type arguments expected for %s",
	)

	UnsafeCall = NewFactory(
		"UNSAFE_CALL", SeverityError,
		"only safe calls are allowed on a nullable receiver of type %s",
	)

	CyclicInheritance = NewFactory(
		"CYCLIC_INHERITANCE_HIERARCHY", SeverityError,
		"%s",
	)

	InvalidSupertype = NewFactory(
		"SUPERTYPE_NOT_A_CLASS", SeverityError,
		"%s cannot be used as a supertype",
	)

	IllegalModifier = NewFactory(
		"ILLEGAL_MODIFIER", SeverityError,
		"illegal visibility modifier: %s",
	)

	Redeclaration = NewFactory(
		"REDECLARATION", SeverityError,
		"conflicting declarations: %s",
	)

	MissingPropertyType = NewFactory(
		"PROPERTY_WITH_NO_TYPE_NO_INITIALIZER", SeverityError,
		"property %s must have a type or be initialized",
	)

	UnsupportedOperator = NewFactory(
		"UNSUPPORTED_OPERATOR", SeverityError,
		"operator %s is not supported",
	)

	InternalError = NewFactory(
		"INTERNAL_ERROR", SeverityError,
		"internal error: %s",
	)
)
