package depm

// DescriptorID is the stable handle of a descriptor in its arena.
type DescriptorID int

// NoDescriptor is the ID used for a missing container and for descriptors
// which live outside of the arena: locals and synthesized accessors.
const NoDescriptor DescriptorID = -1

// Kind indicates what kind of declaration a descriptor describes.
type Kind int

// Enumeration of descriptor kinds.
const (
	KindModule Kind = iota
	KindPackage
	KindClass
	KindFunction
	KindProperty
	KindValueParameter
)

func (k Kind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindPackage:
		return "package"
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindProperty:
		return "property"
	default:
		return "value parameter"
	}
}

// Visibility is the declared visibility of a descriptor.
type Visibility int

// Enumeration of visibilities.
const (
	Public Visibility = iota
	Internal
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Internal:
		return "internal"
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

// ParseVisibility converts a visibility modifier into a visibility.  The empty
// string is public.
func ParseVisibility(modifier string) (Visibility, bool) {
	switch modifier {
	case "", "public":
		return Public, true
	case "internal":
		return Internal, true
	case "protected":
		return Protected, true
	case "private":
		return Private, true
	default:
		return Public, false
	}
}

// -----------------------------------------------------------------------------

// Descriptor is a resolved semantic symbol for a declaration.
type Descriptor interface {
	// The handle of the descriptor in its arena or NoDescriptor.
	ID() DescriptorID

	// The declared name of the descriptor.
	Name() string

	// What kind of declaration the descriptor describes.
	Kind() Kind

	// The handle of the containing declaration.  This is a non-owning back
	// reference: it is only ever resolved through the arena.
	ContainerID() DescriptorID

	// The declared visibility.
	Visibility() Visibility

	// The representative string used in diagnostics.
	Repr() string
}

// descriptorBase is the common part of every descriptor.
type descriptorBase struct {
	id         DescriptorID
	name       string
	container  DescriptorID
	visibility Visibility
}

func (db *descriptorBase) ID() DescriptorID {
	return db.id
}

func (db *descriptorBase) Name() string {
	return db.name
}

func (db *descriptorBase) ContainerID() DescriptorID {
	return db.container
}

func (db *descriptorBase) Visibility() Visibility {
	return db.visibility
}
