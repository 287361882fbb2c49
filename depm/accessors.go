package depm

import (
	"fmt"

	"kresolve/types"
)

// PropertyAccessors are the synthesized getter and setter of a property.
type PropertyAccessors struct {
	// The getter: it takes no parameters and returns the property's type.
	Getter *FunctionDescriptor

	// The setter or nil if the property is not mutable.
	Setter *FunctionDescriptor
}

// Accessors returns the accessors of a property.  They are synthesized on
// first request.  A property whose type was never resolved has no accessors:
// asking for them is an error.
func (a *Arena) Accessors(pd *PropertyDescriptor) (*PropertyAccessors, error) {
	// Views and locals are not in the arena so we can't key them.
	if pd.id == NoDescriptor || pd.original != nil {
		return synthesizeAccessors(pd)
	}

	return a.accessors.Get(pd.id)
}

// AccessorsState returns whether the accessors of an arena property have been
// computed yet.
func (a *Arena) AccessorsState(pd *PropertyDescriptor) MemoState {
	return a.accessors.State(pd.id)
}

// computeAccessors synthesizes the accessors of the property with the given ID.
func (a *Arena) computeAccessors(id DescriptorID) (*PropertyAccessors, error) {
	pd, ok := a.Get(id).(*PropertyDescriptor)
	if !ok {
		return nil, fmt.Errorf("descriptor %d is not a property", id)
	}

	return synthesizeAccessors(pd)
}

// synthesizeAccessors builds the accessors for a property.
func synthesizeAccessors(pd *PropertyDescriptor) (*PropertyAccessors, error) {
	if pd.Type == nil {
		return nil, fmt.Errorf("property %s lacks a resolved type", pd.name)
	}

	getter := NewLocalFunction(pd.container, FunctionSpec{
		Name:               "<get-" + pd.name + ">",
		Visibility:         pd.visibility,
		ReturnType:         pd.Type,
		Deprecated:         pd.Deprecated,
		DeprecationMessage: pd.DeprecationMessage,
	})

	accessors := &PropertyAccessors{Getter: getter}

	if pd.IsVar {
		accessors.Setter = NewLocalFunction(pd.container, FunctionSpec{
			Name:        "<set-" + pd.name + ">",
			Visibility:  pd.visibility,
			ValueParams: []*ValueParameterDescriptor{NewValueParameter("value", 0, pd.Type)},
			ReturnType:  types.UnitType,
		})
	}

	return accessors, nil
}
