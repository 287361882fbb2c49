package ast

// Decl is the interface for all declarations.
type Decl interface {
	Node

	// The declared name.
	DeclName() string
}

// Modifiers are the modifiers common to every declaration.
type Modifiers struct {
	// The visibility modifier: empty, `public`, `internal`, `protected`, or
	// `private`.
	Visibility string

	// The annotations applied to the declaration.
	Annotations []*Annotation
}

// FindAnnotation returns the annotation with the given name, if any.
func (m *Modifiers) FindAnnotation(name string) (*Annotation, bool) {
	for _, annot := range m.Annotations {
		if annot.Name == name {
			return annot, true
		}
	}

	return nil, false
}

// -----------------------------------------------------------------------------

// FunDecl is a function declaration: top-level, member, or local.
type FunDecl struct {
	NodeBase
	Modifiers

	Name       string
	TypeParams []*TypeParam

	// The extension receiver type or nil.
	Receiver *TypeRef

	Params []*Param

	// The declared return type or nil.  A function with a block body and no
	// return type returns `Unit`; a function with an expression body and no
	// return type returns the type of the expression.
	ReturnType *TypeRef

	// Exactly one of Body and ExprBody is set unless the function is abstract
	// (in an interface) in which case neither is.
	Body     []Stmt
	ExprBody Expr
}

func (fd *FunDecl) DeclName() string {
	return fd.Name
}

// ClassDecl is a class or interface declaration.
type ClassDecl struct {
	NodeBase
	Modifiers

	Name        string
	IsInterface bool
	TypeParams  []*TypeParam

	// The parameters of the primary constructor.  Parameters marked `val` or
	// `var` also declare properties.
	CtorParams []*Param

	Supertypes []*TypeRef
	Members    []Decl
}

func (cd *ClassDecl) DeclName() string {
	return cd.Name
}

// PropertyDecl is a property declaration: top-level, member, or local.
type PropertyDecl struct {
	NodeBase
	Modifiers

	Name  string
	IsVar bool

	// The declared type or nil if it is inferred from the initializer.
	Type *TypeRef

	// The initializer or nil.
	Initializer Expr
}

func (pd *PropertyDecl) DeclName() string {
	return pd.Name
}

// TypeParam is a declared type parameter.
type TypeParam struct {
	NodeBase

	Name string

	// The variance modifier: empty, `in`, or `out`.
	Variance string

	Bounds []*TypeRef
}

// Param is a declared value parameter.
type Param struct {
	NodeBase

	Name   string
	Type   *TypeRef
	Vararg bool

	// The default value or nil.
	Default Expr

	// For primary constructor parameters: empty, `val`, or `var`.
	Property string
}

// TypeRef is a reference to a type in source text.
type TypeRef struct {
	NodeBase

	// The referenced class or type parameter name.  This is empty for function
	// types.
	Name string

	Args     []*TypeRef
	Nullable bool

	// For function types: the parameter types and the return type.
	IsFunction bool
	Params     []*TypeRef
	Return     *TypeRef
}

// -----------------------------------------------------------------------------

// Stmt is the interface for all statements: local declarations, returns, and
// expressions.
type Stmt interface {
	Node
}

// ReturnStmt is a return statement.
type ReturnStmt struct {
	NodeBase

	// The returned value or nil.
	Value Expr
}
