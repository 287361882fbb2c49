package ast

// Expr is the interface for all expressions.
type Expr interface {
	Node

	// Marks the node as an expression.
	exprNode()
}

// ExprBase is the base struct for all expressions.
type ExprBase struct {
	NodeBase
}

func (eb *ExprBase) exprNode() {}

// -----------------------------------------------------------------------------

// LiteralKind is the kind of a literal.
type LiteralKind int

// Enumeration of literal kinds.  String literals are string templates.
const (
	IntLit LiteralKind = iota
	LongLit
	DoubleLit
	BoolLit
	CharLit
	NullLit
)

// Literal is a non-string literal.
type Literal struct {
	ExprBase

	Kind LiteralKind

	// The literal's source text: eg. `12L`, `true`, `'c'`.
	Value string
}

// TemplateEntryKind is the kind of a string template entry.
type TemplateEntryKind int

// Enumeration of template entry kinds.
const (
	LiteralEntry  TemplateEntryKind = iota // Plain text.
	EscapeEntry                            // An escape sequence: eg. `\n`.
	ShortEntry                             // A simple interpolation: `$name`.
	BlockEntry                             // A block interpolation: `${expr}`.
)

// TemplateEntry is one piece of a string template.
type TemplateEntry struct {
	NodeBase

	Kind TemplateEntryKind

	// The source text of a literal or escape entry.
	Text string

	// The interpolated expression of a short or block entry.
	Expr Expr
}

// StringTemplate is a string literal possibly containing escapes and
// interpolations.
type StringTemplate struct {
	ExprBase

	// The quote: `"` or `"""`.
	Quote string

	Entries []*TemplateEntry
}

// NameRef is a reference to a named value, optionally qualified by a receiver:
// eg. `x` or `s.length`.
type NameRef struct {
	ExprBase

	// The receiver or nil.
	Receiver Expr

	Name string
}

// CallExpr is a call: eg. `f(1, x = 2)` or `xs.get<Int>(0)`.
type CallExpr struct {
	ExprBase

	// The receiver or nil.
	Receiver Expr

	// The name of the called function.
	Callee *NameRef

	// The explicit type arguments.
	TypeArgs []*TypeRef

	Args []*ValueArgument
}

// ValueArgument is an argument passed to a call or an annotation.
type ValueArgument struct {
	NodeBase

	// The parameter name for a named argument or empty.
	Name string

	Expr Expr
}

// BinaryExpr is a binary operator application.  Operators are resolved as
// calls to their conventional member functions: eg. `a + b` is `a.plus(b)`.
type BinaryExpr struct {
	ExprBase

	Op          string
	Left, Right Expr
}

// OperatorFunctions maps binary operators to the names of the functions which
// implement them.
var OperatorFunctions = map[string]string{
	"+": "plus",
	"-": "minus",
	"*": "times",
	"/": "div",
	"%": "rem",
}
