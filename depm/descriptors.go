package depm

import (
	"strings"

	"kresolve/types"
)

// ModuleDescriptor describes a module: the unit of `internal` visibility.
type ModuleDescriptor struct {
	descriptorBase

	// The packages declared in the module.
	Packages []DescriptorID
}

func (md *ModuleDescriptor) Kind() Kind {
	return KindModule
}

func (md *ModuleDescriptor) Repr() string {
	return "module " + md.name
}

// PackageDescriptor describes a package.  A package's container is the module
// which first declared it.
type PackageDescriptor struct {
	descriptorBase

	// The fully qualified name of the package: eg. `kotlin.collections`.  The
	// root package has an empty name.
	FqName string

	// The top-level declarations of the package organized by name.
	members map[string][]DescriptorID
}

func (pd *PackageDescriptor) Kind() Kind {
	return KindPackage
}

func (pd *PackageDescriptor) Repr() string {
	if pd.FqName == "" {
		return "root package"
	}

	return "package " + pd.FqName
}

// -----------------------------------------------------------------------------

// ClassDescriptor describes a class or interface.
type ClassDescriptor struct {
	descriptorBase

	// The type constructor defined by the class.  The class's type parameters
	// and supertypes live on the constructor.
	Ctor *types.TypeConstructor

	// Whether the class is an interface.
	IsInterface bool

	// The member declarations of the class organized by name.  This does not
	// include inherited members or constructors.
	members map[string][]DescriptorID

	// The constructors of the class.
	Constructors []DescriptorID
}

func (cd *ClassDescriptor) Kind() Kind {
	return KindClass
}

// TypeParams returns the class's declared type parameters.
func (cd *ClassDescriptor) TypeParams() []*types.TypeParameter {
	return cd.Ctor.Params
}

// DefaultType returns the class applied to its own type parameters.
func (cd *ClassDescriptor) DefaultType() *types.ClassType {
	return cd.Ctor.DefaultType()
}

func (cd *ClassDescriptor) Repr() string {
	sb := strings.Builder{}

	if cd.IsInterface {
		sb.WriteString("interface ")
	} else {
		sb.WriteString("class ")
	}

	sb.WriteString(cd.name)
	writeTypeParams(&sb, cd.Ctor.Params)

	return sb.String()
}

// -----------------------------------------------------------------------------

// FunctionDescriptor describes a function or a constructor.  A function
// descriptor may also be a substituted view of another function: views are
// never stored in the arena and share the ID of their original.
type FunctionDescriptor struct {
	descriptorBase

	// The declared type parameters.  For a view, only the parameters the view's
	// substitution did not bind remain.
	TypeParams []*types.TypeParameter

	// The value parameters in declaration order.
	ValueParams []*ValueParameterDescriptor

	// The return type.  This is nil until the declaration's signature is
	// resolved.
	ReturnType types.Type

	// The extension receiver type or nil if this is not an extension.
	ExtensionReceiver types.Type

	// Whether this is a constructor.  Constructors are named after their class.
	IsConstructor bool

	// Whether the function is deprecated and the deprecation message.
	Deprecated         bool
	DeprecationMessage string

	// The name of the intrinsic the function stands for, if any: eg. `js`.
	Intrinsic string

	// The function this is a view of or nil if this is an original.
	original *FunctionDescriptor

	// The substitution the view was created with.
	substitution *types.Substitution
}

func (fd *FunctionDescriptor) Kind() Kind {
	return KindFunction
}

// Original returns the function this descriptor is a view of or the function
// itself if it is not a view.
func (fd *FunctionDescriptor) Original() *FunctionDescriptor {
	if fd.original == nil {
		return fd
	}

	return fd.original
}

// Substitution returns the substitution a view was created with.  It is nil
// for original descriptors.
func (fd *FunctionDescriptor) Substitution() *types.Substitution {
	return fd.substitution
}

// IsExtension returns whether the function is an extension function.
func (fd *FunctionDescriptor) IsExtension() bool {
	return fd.ExtensionReceiver != nil
}

// Substitute creates a view of the function with the substitution applied to
// its signature.  The function itself is not modified.
func (fd *FunctionDescriptor) Substitute(subst *types.Substitution) *FunctionDescriptor {
	if subst == nil || subst.IsEmpty() {
		return fd
	}

	view := &FunctionDescriptor{
		descriptorBase:     fd.descriptorBase,
		ValueParams:        make([]*ValueParameterDescriptor, len(fd.ValueParams)),
		IsConstructor:      fd.IsConstructor,
		Deprecated:         fd.Deprecated,
		DeprecationMessage: fd.DeprecationMessage,
		Intrinsic:          fd.Intrinsic,
		original:           fd.Original(),
		substitution:       subst,
	}

	for _, tp := range fd.TypeParams {
		if _, ok := subst.Get(tp); !ok {
			view.TypeParams = append(view.TypeParams, tp)
		}
	}

	for i, param := range fd.ValueParams {
		view.ValueParams[i] = param.substitute(subst)
	}

	if fd.ReturnType != nil {
		view.ReturnType = subst.Apply(fd.ReturnType)
	}

	if fd.ExtensionReceiver != nil {
		view.ExtensionReceiver = subst.Apply(fd.ExtensionReceiver)
	}

	return view
}

// ParamTypes returns the types of the function's value parameters.
func (fd *FunctionDescriptor) ParamTypes() []types.Type {
	typs := make([]types.Type, len(fd.ValueParams))
	for i, param := range fd.ValueParams {
		typs[i] = param.Type
	}

	return typs
}

func (fd *FunctionDescriptor) Repr() string {
	sb := strings.Builder{}

	if fd.IsConstructor {
		sb.WriteString("constructor ")
	} else {
		sb.WriteString("fun ")
	}

	if len(fd.TypeParams) > 0 {
		writeTypeParams(&sb, fd.TypeParams)
		sb.WriteRune(' ')
	}

	if fd.ExtensionReceiver != nil {
		sb.WriteString(fd.ExtensionReceiver.Repr())
		sb.WriteRune('.')
	}

	sb.WriteString(fd.name)
	sb.WriteRune('(')

	for i, param := range fd.ValueParams {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(param.Repr())
	}

	sb.WriteRune(')')

	if fd.ReturnType != nil && !fd.IsConstructor {
		sb.WriteString(": ")
		sb.WriteString(fd.ReturnType.Repr())
	}

	return sb.String()
}

// -----------------------------------------------------------------------------

// PropertyDescriptor describes a member, top-level, or local property.
type PropertyDescriptor struct {
	descriptorBase

	// The type of the property.  This is nil until the declaration is
	// resolved.
	Type types.Type

	// Whether the property is mutable (`var`).
	IsVar bool

	// Whether the property is a local variable.  Local variables live outside
	// of the arena.
	IsLocal bool

	// Whether the property is deprecated and the deprecation message.
	Deprecated         bool
	DeprecationMessage string

	// The property this is a view of or nil if this is an original.
	original *PropertyDescriptor
}

func (pd *PropertyDescriptor) Kind() Kind {
	return KindProperty
}

// Original returns the property this descriptor is a view of or the property
// itself if it is not a view.
func (pd *PropertyDescriptor) Original() *PropertyDescriptor {
	if pd.original == nil {
		return pd
	}

	return pd.original
}

// Substitute creates a view of the property with the substitution applied to
// its type.
func (pd *PropertyDescriptor) Substitute(subst *types.Substitution) *PropertyDescriptor {
	if subst == nil || subst.IsEmpty() || pd.Type == nil {
		return pd
	}

	return &PropertyDescriptor{
		descriptorBase:     pd.descriptorBase,
		Type:               subst.Apply(pd.Type),
		IsVar:              pd.IsVar,
		IsLocal:            pd.IsLocal,
		Deprecated:         pd.Deprecated,
		DeprecationMessage: pd.DeprecationMessage,
		original:           pd.Original(),
	}
}

func (pd *PropertyDescriptor) Repr() string {
	sb := strings.Builder{}

	if pd.IsVar {
		sb.WriteString("var ")
	} else {
		sb.WriteString("val ")
	}

	sb.WriteString(pd.name)

	if pd.Type != nil {
		sb.WriteString(": ")
		sb.WriteString(pd.Type.Repr())
	}

	return sb.String()
}

// -----------------------------------------------------------------------------

// ValueParameterDescriptor describes a value parameter of a function.
type ValueParameterDescriptor struct {
	descriptorBase

	// The position of the parameter in its function's parameter list.
	Index int

	// The declared type of the parameter.  For a vararg parameter, this is the
	// element type: each argument the parameter absorbs is matched against it.
	Type types.Type

	// Whether the parameter declares a default value.
	HasDefault bool

	// Whether the parameter is a vararg parameter.
	IsVararg bool
}

// NewValueParameter creates a new value parameter.  Value parameters belong to
// their function and are not stored in the arena on their own.
func NewValueParameter(name string, index int, typ types.Type) *ValueParameterDescriptor {
	return &ValueParameterDescriptor{
		descriptorBase: descriptorBase{id: NoDescriptor, name: name, container: NoDescriptor},
		Index:          index,
		Type:           typ,
	}
}

func (vpd *ValueParameterDescriptor) Kind() Kind {
	return KindValueParameter
}

// substitute creates a copy of the parameter with its type substituted.
func (vpd *ValueParameterDescriptor) substitute(subst *types.Substitution) *ValueParameterDescriptor {
	copied := *vpd
	if vpd.Type != nil {
		copied.Type = subst.Apply(vpd.Type)
	}

	return &copied
}

func (vpd *ValueParameterDescriptor) Repr() string {
	sb := strings.Builder{}

	if vpd.IsVararg {
		sb.WriteString("vararg ")
	}

	sb.WriteString(vpd.name)
	sb.WriteString(": ")

	if vpd.Type == nil {
		sb.WriteString("<unresolved>")
	} else {
		sb.WriteString(vpd.Type.Repr())
	}

	if vpd.HasDefault {
		sb.WriteString(" = ...")
	}

	return sb.String()
}

// -----------------------------------------------------------------------------

// writeTypeParams writes a type parameter list: eg. `<T, out E>`.
func writeTypeParams(sb *strings.Builder, params []*types.TypeParameter) {
	if len(params) == 0 {
		return
	}

	sb.WriteRune('<')
	for i, param := range params {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(param.Repr())
	}
	sb.WriteRune('>')
}
