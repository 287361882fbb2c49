package checkers

import (
	"kresolve/depm"
	"kresolve/report"
	"kresolve/resolve"
	"kresolve/types"
)

// VisibilityChecker reports calls to declarations which are not visible from
// the call site.
type VisibilityChecker struct{}

func (vc *VisibilityChecker) Check(call *resolve.ResolvedCall, cctx *CheckContext) {
	fd := call.Candidate.Original()

	// Local functions are visible wherever their name is.
	if fd.ID() == depm.NoDescriptor {
		return
	}

	container := cctx.Arena.Container(fd)

	// A constructor is only as visible as its class.
	if cd, ok := container.(*depm.ClassDescriptor); ok && fd.IsConstructor && !isVisible(cctx, cd) {
		cctx.Trace.Report(report.InvisibleMember.On(call.Call.Callee, cd.Name(), cd.Visibility(), cctx.Arena.Container(cd).Repr()))
		return
	}

	if !isVisible(cctx, fd) {
		cctx.Trace.Report(report.InvisibleMember.On(call.Call.Callee, fd.Name(), fd.Visibility(), container.Repr()))
	}
}

// isVisible returns whether a declaration is visible from the call site.
func isVisible(cctx *CheckContext, d depm.Descriptor) bool {
	container := cctx.Arena.Container(d)

	switch d.Visibility() {
	case depm.Private:
		// Private top-level declarations are visible inside their package and
		// private members inside their class.
		if pd, ok := container.(*depm.PackageDescriptor); ok {
			return pd == cctx.Package
		}

		return enclosedBy(cctx, container)
	case depm.Internal:
		return cctx.Arena.ModuleOf(d) == cctx.Module
	case depm.Protected:
		cd, ok := container.(*depm.ClassDescriptor)
		if !ok {
			return false
		}

		for _, enclosing := range enclosingClasses(cctx) {
			if types.FindSupertype(enclosing.DefaultType(), cd.Ctor) != nil {
				return true
			}
		}

		return false
	default:
		return true
	}
}

// enclosedBy returns whether the call site is inside the given declaration.
func enclosedBy(cctx *CheckContext, target depm.Descriptor) bool {
	for _, owner := range depm.EnclosingDeclarations(cctx.Scope) {
		for d := owner; d != nil; d = containerOf(cctx, d) {
			if d == target {
				return true
			}
		}
	}

	return false
}

// enclosingClasses returns the classes enclosing the call site.
func enclosingClasses(cctx *CheckContext) []*depm.ClassDescriptor {
	var classes []*depm.ClassDescriptor

	for _, owner := range depm.EnclosingDeclarations(cctx.Scope) {
		for d := owner; d != nil; d = containerOf(cctx, d) {
			if cd, ok := d.(*depm.ClassDescriptor); ok {
				classes = append(classes, cd)
			}
		}
	}

	return classes
}

// containerOf returns the container of a possibly local descriptor.
func containerOf(cctx *CheckContext, d depm.Descriptor) depm.Descriptor {
	if d.ContainerID() == depm.NoDescriptor {
		return nil
	}

	return cctx.Arena.Get(d.ContainerID())
}
