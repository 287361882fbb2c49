package depm

import (
	"fmt"

	"kresolve/report"
	"kresolve/types"
)

// Arena owns every descriptor of an analysis session.  Descriptors refer to
// each other through their IDs which are indices into the arena.  The arena is
// populated single-threaded by the declaration pass and the descriptor loader
// and is then finalized: after finalization it is immutable and may be read
// from any number of goroutines.
type Arena struct {
	// The descriptors by ID.
	descriptors []Descriptor

	// The packages by fully qualified name.
	packages map[string]*PackageDescriptor

	// The classes by type constructor.
	classes map[*types.TypeConstructor]*ClassDescriptor

	// Whether the arena has been finalized.
	finalized bool

	// The memoized member tables (declared and inherited) of classes.
	memberTables *Memo[map[string][]Descriptor]

	// The memoized accessors of properties.
	accessors *Memo[*PropertyAccessors]
}

// NewArena creates a new empty arena.
func NewArena() *Arena {
	a := &Arena{
		packages: make(map[string]*PackageDescriptor),
		classes:  make(map[*types.TypeConstructor]*ClassDescriptor),
	}

	a.memberTables = NewMemo(a.computeMemberTable)
	a.accessors = NewMemo(a.computeAccessors)

	return a
}

// Finalize freezes the arena.  Any attempt to add or modify descriptors after
// this is an internal error.
func (a *Arena) Finalize() {
	a.finalized = true
}

// IsFinalized returns whether the arena has been finalized.
func (a *Arena) IsFinalized() bool {
	return a.finalized
}

// Len returns the number of descriptors in the arena.
func (a *Arena) Len() int {
	return len(a.descriptors)
}

// Get returns the descriptor with the given ID.
func (a *Arena) Get(id DescriptorID) Descriptor {
	if id < 0 || int(id) >= len(a.descriptors) {
		report.Raise(nil, "no descriptor with id %d", id)
	}

	return a.descriptors[id]
}

// Container returns the containing declaration of a descriptor or nil if it
// has none.
func (a *Arena) Container(d Descriptor) Descriptor {
	if d.ContainerID() == NoDescriptor {
		return nil
	}

	return a.Get(d.ContainerID())
}

// ModuleOf returns the module a descriptor is declared in or nil if it is not
// declared in any module.
func (a *Arena) ModuleOf(d Descriptor) *ModuleDescriptor {
	for d != nil {
		if md, ok := d.(*ModuleDescriptor); ok {
			return md
		}

		d = a.Container(d)
	}

	return nil
}

// ClassOf returns the class whose type constructor is ctor.
func (a *Arena) ClassOf(ctor *types.TypeConstructor) (*ClassDescriptor, bool) {
	cd, ok := a.classes[ctor]
	return cd, ok
}

// Package returns the package with the given fully qualified name.
func (a *Arena) Package(fqName string) (*PackageDescriptor, bool) {
	pd, ok := a.packages[fqName]
	return pd, ok
}

// -----------------------------------------------------------------------------

// checkMutable raises an internal error if the arena is finalized.
func (a *Arena) checkMutable(what string) {
	if a.finalized {
		report.Raise(nil, "cannot %s: descriptors are frozen", what)
	}
}

// add stores a new descriptor and returns its ID.
func (a *Arena) add(d Descriptor) DescriptorID {
	a.descriptors = append(a.descriptors, d)
	return DescriptorID(len(a.descriptors) - 1)
}

// NewModule creates a new module descriptor.
func (a *Arena) NewModule(name string) *ModuleDescriptor {
	a.checkMutable("add module " + name)

	md := &ModuleDescriptor{descriptorBase: descriptorBase{name: name, container: NoDescriptor}}
	md.id = a.add(md)
	return md
}

// NewPackage gets or creates the package with the given fully qualified name.
// A new package is contained in the given module.
func (a *Arena) NewPackage(module *ModuleDescriptor, fqName string) *PackageDescriptor {
	if pd, ok := a.packages[fqName]; ok {
		return pd
	}

	a.checkMutable("add package " + fqName)

	name := fqName
	for i := len(fqName) - 1; i >= 0; i-- {
		if fqName[i] == '.' {
			name = fqName[i+1:]
			break
		}
	}

	pd := &PackageDescriptor{
		descriptorBase: descriptorBase{name: name, container: module.id},
		FqName:         fqName,
		members:        make(map[string][]DescriptorID),
	}
	pd.id = a.add(pd)

	a.packages[fqName] = pd
	module.Packages = append(module.Packages, pd.id)
	return pd
}

// NewClass creates a new class descriptor declared in a package or class.  The
// class's type parameters are created by the caller; its supertypes are set
// later via SetSupertypes once they can be resolved.
func (a *Arena) NewClass(container Descriptor, name string, vis Visibility, typeParams []*types.TypeParameter) *ClassDescriptor {
	a.checkMutable("add class " + name)

	fqName := name
	switch v := container.(type) {
	case *PackageDescriptor:
		if v.FqName != "" {
			fqName = v.FqName + "." + name
		}
	case *ClassDescriptor:
		fqName = v.Ctor.FqName + "." + name
	}

	for i, tp := range typeParams {
		tp.Index = i
		tp.Owner = name
	}

	cd := &ClassDescriptor{
		descriptorBase: descriptorBase{name: name, container: container.ID(), visibility: vis},
		Ctor:           types.NewTypeConstructor(name, fqName, typeParams...),
		members:        make(map[string][]DescriptorID),
	}
	cd.id = a.add(cd)

	a.classes[cd.Ctor] = cd
	a.addMember(container, cd)
	return cd
}

// newClassFor creates a class descriptor for an existing type constructor.
// This is used to enter the built-in types.
func (a *Arena) newClassFor(pkg *PackageDescriptor, ctor *types.TypeConstructor, isInterface bool) *ClassDescriptor {
	cd := &ClassDescriptor{
		descriptorBase: descriptorBase{name: ctor.Name, container: pkg.id},
		Ctor:           ctor,
		IsInterface:    isInterface,
		members:        make(map[string][]DescriptorID),
	}
	cd.id = a.add(cd)

	a.classes[ctor] = cd
	a.addMember(pkg, cd)
	return cd
}

// SetSupertypes sets the declared supertypes of a class.  It reports an error
// if the supertypes would make the class its own supertype.
func (a *Arena) SetSupertypes(cd *ClassDescriptor, supertypes []types.Type) error {
	a.checkMutable("set the supertypes of " + cd.name)

	for _, super := range supertypes {
		if sct, ok := super.(*types.ClassType); ok && a.inheritsFrom(sct.Constructor, cd.Ctor) {
			return fmt.Errorf("class %s cannot inherit from itself through %s", cd.name, super.Repr())
		}
	}

	cd.Ctor.Supertypes = supertypes
	return nil
}

// inheritsFrom returns whether ctor is target or transitively declares target
// as a supertype.
func (a *Arena) inheritsFrom(ctor, target *types.TypeConstructor) bool {
	if ctor == target {
		return true
	}

	for _, super := range ctor.Supertypes {
		if sct, ok := super.(*types.ClassType); ok && a.inheritsFrom(sct.Constructor, target) {
			return true
		}
	}

	return false
}

// FunctionSpec is the signature of a new function descriptor.
type FunctionSpec struct {
	Name               string
	Visibility         Visibility
	TypeParams         []*types.TypeParameter
	ValueParams        []*ValueParameterDescriptor
	ReturnType         types.Type
	ExtensionReceiver  types.Type
	IsConstructor      bool
	Deprecated         bool
	DeprecationMessage string
	Intrinsic          string
}

// NewFunction creates a new function descriptor declared in a package or
// class.  Constructors are added to their class's constructor list.
func (a *Arena) NewFunction(container Descriptor, spec FunctionSpec) *FunctionDescriptor {
	a.checkMutable("add function " + spec.Name)

	fd := newFunction(container.ID(), spec)
	fd.id = a.add(fd)

	for _, param := range fd.ValueParams {
		param.container = fd.id
	}

	if spec.IsConstructor {
		cd, ok := container.(*ClassDescriptor)
		if !ok {
			report.Raise(nil, "constructor %s declared outside of a class", spec.Name)
		}

		cd.Constructors = append(cd.Constructors, fd.id)
	} else {
		a.addMember(container, fd)
	}

	return fd
}

// NewLocalFunction creates a function descriptor for a local function.  Local
// functions live outside of the arena and can be created at any time.
func NewLocalFunction(container DescriptorID, spec FunctionSpec) *FunctionDescriptor {
	fd := newFunction(container, spec)
	fd.id = NoDescriptor
	return fd
}

// newFunction builds a function descriptor from its spec.
func newFunction(container DescriptorID, spec FunctionSpec) *FunctionDescriptor {
	for i, tp := range spec.TypeParams {
		tp.Index = i
		tp.Owner = spec.Name
	}

	for i, param := range spec.ValueParams {
		param.Index = i
		param.container = container
	}

	return &FunctionDescriptor{
		descriptorBase:     descriptorBase{name: spec.Name, container: container, visibility: spec.Visibility},
		TypeParams:         spec.TypeParams,
		ValueParams:        spec.ValueParams,
		ReturnType:         spec.ReturnType,
		ExtensionReceiver:  spec.ExtensionReceiver,
		IsConstructor:      spec.IsConstructor,
		Deprecated:         spec.Deprecated,
		DeprecationMessage: spec.DeprecationMessage,
		Intrinsic:          spec.Intrinsic,
	}
}

// PropertySpec is the signature of a new property descriptor.
type PropertySpec struct {
	Name               string
	Visibility         Visibility
	Type               types.Type
	IsVar              bool
	Deprecated         bool
	DeprecationMessage string
}

// NewProperty creates a new property descriptor declared in a package or class.
func (a *Arena) NewProperty(container Descriptor, spec PropertySpec) *PropertyDescriptor {
	a.checkMutable("add property " + spec.Name)

	pd := newProperty(container.ID(), spec)
	pd.id = a.add(pd)

	a.addMember(container, pd)
	return pd
}

// NewLocalVariable creates a property descriptor for a local variable.  Local
// variables live outside of the arena and can be created at any time.
func NewLocalVariable(container DescriptorID, spec PropertySpec) *PropertyDescriptor {
	pd := newProperty(container, spec)
	pd.id = NoDescriptor
	pd.IsLocal = true
	return pd
}

// newProperty builds a property descriptor from its spec.
func newProperty(container DescriptorID, spec PropertySpec) *PropertyDescriptor {
	return &PropertyDescriptor{
		descriptorBase:     descriptorBase{name: spec.Name, container: container, visibility: spec.Visibility},
		Type:               spec.Type,
		IsVar:              spec.IsVar,
		Deprecated:         spec.Deprecated,
		DeprecationMessage: spec.DeprecationMessage,
	}
}

// addMember registers a descriptor as a member of its container.
func (a *Arena) addMember(container Descriptor, member Descriptor) {
	switch v := container.(type) {
	case *PackageDescriptor:
		v.members[member.Name()] = append(v.members[member.Name()], member.ID())
	case *ClassDescriptor:
		v.members[member.Name()] = append(v.members[member.Name()], member.ID())
	default:
		report.Raise(nil, "%s cannot contain declarations", container.Repr())
	}
}
