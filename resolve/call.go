package resolve

import (
	"context"

	"kresolve/ast"
	"kresolve/depm"
	"kresolve/trace"
	"kresolve/types"
)

// Call is a call site to be resolved.
type Call struct {
	// The node the resolved call is recorded for.  This is usually a call
	// expression but may also be an operator application.
	Node ast.Node

	// The node naming the callee: diagnostics about the name are reported on
	// it.
	Callee ast.Node

	// The name of the called function.
	Name string

	// The type of the explicit receiver or nil if there is none.
	Receiver types.Type

	// The explicit type arguments or nil if there are none.
	TypeArgs []types.Type

	// The value arguments in source order.
	Args []*Argument
}

// Argument is a value argument of a call.  Its type is computed before the
// call is resolved.
type Argument struct {
	// The node of the argument expression.
	Expr ast.Node

	// The parameter name for a named argument or empty.
	Name string

	// The type of the argument or nil if it is unknown.
	Type types.Type
}

// Context is the context a call is resolved in.
type Context struct {
	// The context used to cancel resolution.
	Ctx context.Context

	// The arena holding the finalized descriptors.
	Arena *depm.Arena

	// The trace resolution results are recorded in.
	Trace *trace.BindingTrace

	// The innermost lexical scope enclosing the call.
	Scope *depm.LexicalScope

	// The package of the file containing the call.
	Package *depm.PackageDescriptor

	// The declarations imported into the file containing the call.
	Imports *depm.ImportScope
}

// ResolvedCall is the result of successfully resolving a call.
type ResolvedCall struct {
	// The call site.
	Call *Call

	// The chosen candidate as it was declared.
	Candidate *depm.FunctionDescriptor

	// The chosen candidate with its type arguments substituted.
	Descriptor *depm.FunctionDescriptor

	// The type arguments of the call.
	Substitution *types.Substitution

	// The parameter of Descriptor each argument is passed to: this parallels
	// the call's arguments.
	ArgumentParams []*depm.ValueParameterDescriptor

	// Whether any parameter takes its default value.
	UsesDefaults bool

	// The type of the call expression.
	ReturnType types.Type
}

// ResolvedCallSlot records the resolved call of a call site.  The slot is
// rewritable so that a call can be re-resolved.
var ResolvedCallSlot = trace.NewRewritableSlot[*ResolvedCall]("RESOLVED_CALL")

// Result is the outcome of resolving a call.
type Result struct {
	// The terminal state resolution ended in.
	State State

	// The resolved call if the state is Resolved.
	Call *ResolvedCall

	// All the collected candidates in collection order.
	Candidates []*Candidate

	// The tied candidates if the state is Ambiguous.
	Tied []*Candidate
}

// Type returns the type of the call expression: an error type unless the call
// was resolved.
func (r *Result) Type() types.Type {
	if r.State == Resolved {
		return r.Call.ReturnType
	}

	return types.NewErrorType("")
}

// Candidate is a function considered during the resolution of a single call.
type Candidate struct {
	// The candidate function.  For members of a receiver, the receiver's type
	// arguments are already substituted.
	Descriptor *depm.FunctionDescriptor

	// How close the candidate is declared to the call site.
	Proximity Proximity

	// The applicability status of the candidate.
	Status Status

	// Why the candidate was rejected and a description of the problem.
	Rejection Rejection
	Detail    string

	// The error inference failed with if the candidate was rejected for an
	// inference failure.
	Err error

	// The index of the parameter each argument is passed to.
	Mapping []int

	// Whether any parameter takes its default value.
	UsesDefaults bool

	// The inferred type arguments and the substituted function.
	Substitution *types.Substitution
	Result       *depm.FunctionDescriptor

	// The indices of the arguments whose types mismatch their parameters.
	Mismatches []int

	// The trace the candidate was evaluated in.
	trace *trace.BindingTrace
}

// reject marks the candidate as inapplicable.
func (c *Candidate) reject(rejection Rejection, detail string) {
	c.Status = Rejected
	c.Rejection = rejection
	c.Detail = detail
}

// Repr returns the representation of the candidate used in diagnostics.
func (c *Candidate) Repr() string {
	return c.Descriptor.Repr()
}
