package walk

import (
	"kresolve/ast"
	"kresolve/checkers"
	"kresolve/depm"
	"kresolve/report"
	"kresolve/trace"
	"kresolve/types"
)

// SourceFile is a file whose declarations have been entered into the arena.
type SourceFile struct {
	// The syntax tree of the file.
	File *ast.File

	// The package the file belongs to.
	Package *depm.PackageDescriptor

	// The declarations imported into the file.
	Imports *depm.ImportScope

	// The line index of the file's text.
	Lines *report.LineIndex

	// The trace holding the file's analysis results: both those of the
	// declaration pass and those of the body walk.
	Trace *trace.BindingTrace
}

// Env is the shared environment of the bodies of all the files of a module.
// It is read-only once the declaration pass is complete.
type Env struct {
	// The arena holding the descriptors.
	Arena *depm.Arena

	// The module being analyzed.
	Module *depm.ModuleDescriptor

	// The checkers run on every resolved call.
	Checkers checkers.Chain

	// The initializers of the non-local read-only properties.
	initializers map[*depm.PropertyDescriptor]*initializer
}

// initializer is the initializer expression of a read-only property along with
// the file it is declared in.
type initializer struct {
	expr ast.Expr
	file *ast.File
}

// -----------------------------------------------------------------------------

// typeScope is one level of type parameters in scope.  Type scopes form a chain
// through their parents.
type typeScope struct {
	parent *typeScope

	// The type parameters declared at this level.
	params []*types.TypeParameter

	// The class whose nested classes are in scope at this level, if any.
	class *depm.ClassDescriptor
}

// newTypeScope creates a new type scope nested inside parent (which may be
// nil).
func newTypeScope(parent *typeScope, params []*types.TypeParameter, class *depm.ClassDescriptor) *typeScope {
	return &typeScope{parent: parent, params: params, class: class}
}
