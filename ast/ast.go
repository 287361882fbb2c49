package ast

import "kresolve/report"

// Node is the abstract interface for all syntax tree nodes.  Nodes are
// compared by identity: the binding trace uses them as keys.
type Node interface {
	// The text span of the node.
	Span() *report.TextSpan

	// Sets the text span of the node.  This is only called by whatever
	// produced the tree.
	SetSpan(span *report.TextSpan)
}

// NodeBase is a utility base struct for all syntax tree nodes.
type NodeBase struct {
	// The span over which the node occurs.
	span *report.TextSpan
}

// NewNodeBaseOn creates a new node base with the given span.
func NewNodeBaseOn(span *report.TextSpan) NodeBase {
	return NodeBase{span: span}
}

func (nb *NodeBase) Span() *report.TextSpan {
	if nb.span == nil {
		return &report.TextSpan{}
	}

	return nb.span
}

func (nb *NodeBase) SetSpan(span *report.TextSpan) {
	nb.span = span
}

// TextOffset returns the absolute offset at which a node begins.
func TextOffset(node Node) int {
	return node.Span().StartOffset
}

// -----------------------------------------------------------------------------

// File is a parsed source file.
type File struct {
	NodeBase

	// The path of the file used for display.
	Path string

	// The fully qualified name of the file's package.  The root package has an
	// empty name.
	Package string

	// The import directives of the file.
	Imports []*Import

	// The top-level declarations of the file.
	Decls []Decl

	// The source text of the file.
	Text []byte
}

// Import is an import directive: either of a single declaration or, if All is
// set, of all the declarations in a package.
type Import struct {
	NodeBase

	// The imported fully qualified name.
	Path string

	// Whether this is a star import.
	All bool
}

// Annotation is an annotation applied to a declaration: eg.
// `@Deprecated("use g")`.
type Annotation struct {
	NodeBase

	// The annotation class name.
	Name string

	// The annotation arguments.
	Args []*ValueArgument
}
