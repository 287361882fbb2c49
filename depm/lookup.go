package depm

import (
	"kresolve/types"
)

// LookupMembers returns the members of a class with the given name including
// the members it inherits from its supertypes.  Declared members come first and
// hide inherited members with the same signature.  The result is empty if no
// member has the name.
func (a *Arena) LookupMembers(cd *ClassDescriptor, name string) []Descriptor {
	table := a.memberTable(cd)
	return table[name]
}

// memberTable returns the complete member table of a class.  Once the arena is
// finalized, member tables are computed at most once per class.
func (a *Arena) memberTable(cd *ClassDescriptor) map[string][]Descriptor {
	var table map[string][]Descriptor
	if a.finalized {
		// The computation never fails for a class in the arena.
		table, _ = a.memberTables.Get(cd.id)
	} else {
		table, _ = a.computeMemberTable(cd.id)
	}

	return table
}

// computeMemberTable builds the complete member table of a class.
func (a *Arena) computeMemberTable(id DescriptorID) (map[string][]Descriptor, error) {
	cd := a.Get(id).(*ClassDescriptor)
	table := make(map[string][]Descriptor)

	for name, ids := range cd.members {
		for _, memberID := range ids {
			table[name] = append(table[name], a.Get(memberID))
		}
	}

	// The implicit `Any` supertype is included so that every class has the
	// members of `Any`.
	for _, super := range types.Supertypes(cd.DefaultType()) {
		superClass, ok := a.classes[super.Constructor]
		if !ok {
			continue
		}

		subst := types.NewSubstitutionOf(super.Constructor.Params, super.Args)
		for name, inherited := range a.memberTable(superClass) {
		inheritedLoop:
			for _, member := range inherited {
				member = substituteMember(member, subst)

				for _, existing := range table[name] {
					if sameSignature(existing, member) {
						continue inheritedLoop
					}
				}

				table[name] = append(table[name], member)
			}
		}
	}

	return table, nil
}

// substituteMember creates a view of an inherited member in terms of the
// inheriting class's type parameters.
func substituteMember(member Descriptor, subst *types.Substitution) Descriptor {
	switch v := member.(type) {
	case *FunctionDescriptor:
		return v.Substitute(subst)
	case *PropertyDescriptor:
		return v.Substitute(subst)
	default:
		return member
	}
}

// sameSignature returns whether two members have the same signature: one
// overrides or hides the other.
func sameSignature(a, b Descriptor) bool {
	switch av := a.(type) {
	case *FunctionDescriptor:
		bv, ok := b.(*FunctionDescriptor)
		if !ok || len(av.ValueParams) != len(bv.ValueParams) {
			return false
		}

		for i, param := range av.ValueParams {
			if param.Type == nil || bv.ValueParams[i].Type == nil || !types.Equals(param.Type, bv.ValueParams[i].Type) {
				return false
			}
		}

		return true
	case *PropertyDescriptor:
		_, ok := b.(*PropertyDescriptor)
		return ok
	default:
		return false
	}
}

// LookupPackageMembers returns the top-level declarations of a package with the
// given name in declaration order.
func (a *Arena) LookupPackageMembers(pd *PackageDescriptor, name string) []Descriptor {
	ids := pd.members[name]

	members := make([]Descriptor, len(ids))
	for i, id := range ids {
		members[i] = a.Get(id)
	}

	return members
}

// LookupConstructors returns the constructors of a class.
func (a *Arena) LookupConstructors(cd *ClassDescriptor) []*FunctionDescriptor {
	ctors := make([]*FunctionDescriptor, len(cd.Constructors))
	for i, id := range cd.Constructors {
		ctors[i] = a.Get(id).(*FunctionDescriptor)
	}

	return ctors
}

// -----------------------------------------------------------------------------

// LexicalScope is one level of local declarations: a function body, a block,
// or a class body.  Scopes form a chain through their parents.
type LexicalScope struct {
	// The enclosing scope or nil if this is the outermost scope.
	parent *LexicalScope

	// The declaration whose body this scope belongs to.
	Owner Descriptor

	// The class whose members are implicitly accessible in this scope, if
	// any: set for class bodies.
	ImplicitReceiver *ClassDescriptor

	// The nesting depth of the scope: the outermost scope has depth 0.
	depth int

	// The local declarations by name in declaration order.
	locals map[string][]Descriptor
}

// NewLexicalScope creates a new scope nested inside parent (which may be nil).
func NewLexicalScope(parent *LexicalScope, owner Descriptor) *LexicalScope {
	depth := 0
	if parent != nil {
		depth = parent.depth + 1
	}

	return &LexicalScope{
		parent: parent,
		Owner:  owner,
		depth:  depth,
		locals: make(map[string][]Descriptor),
	}
}

// Parent returns the enclosing scope.
func (ls *LexicalScope) Parent() *LexicalScope {
	return ls.parent
}

// Depth returns the nesting depth of the scope.
func (ls *LexicalScope) Depth() int {
	return ls.depth
}

// Define declares a local descriptor in the scope.
func (ls *LexicalScope) Define(d Descriptor) {
	ls.locals[d.Name()] = append(ls.locals[d.Name()], d)
}

// ScopedDescriptor is a local descriptor together with the depth of the scope
// that declares it.
type ScopedDescriptor struct {
	Descriptor Descriptor
	Depth      int
}

// LookupLocals returns the local declarations named name which are visible
// from scope, innermost scope first.
func LookupLocals(scope *LexicalScope, name string) []ScopedDescriptor {
	var found []ScopedDescriptor

	for s := scope; s != nil; s = s.parent {
		for _, d := range s.locals[name] {
			found = append(found, ScopedDescriptor{Descriptor: d, Depth: s.depth})
		}
	}

	return found
}

// ImplicitReceivers returns the classes whose members are implicitly
// accessible from scope, innermost first.
func ImplicitReceivers(scope *LexicalScope) []*ClassDescriptor {
	var receivers []*ClassDescriptor

	for s := scope; s != nil; s = s.parent {
		if s.ImplicitReceiver != nil {
			receivers = append(receivers, s.ImplicitReceiver)
		}
	}

	return receivers
}

// EnclosingDeclarations returns the owners of scope and its parents, innermost
// first.
func EnclosingDeclarations(scope *LexicalScope) []Descriptor {
	var owners []Descriptor

	for s := scope; s != nil; s = s.parent {
		if s.Owner != nil {
			owners = append(owners, s.Owner)
		}
	}

	return owners
}
