package depm

// ImportScope is the set of declarations imported into a file: the explicitly
// imported declarations, the packages imported with star imports, and the
// default imports.  Imported names are looked up lazily so that a file's
// imports can be entered before the declarations they name.
type ImportScope struct {
	arena *Arena

	// The packages each explicitly imported simple name is imported from.
	named map[string][]*PackageDescriptor

	// The packages whose declarations are all imported in the order they are
	// searched.
	packages []*PackageDescriptor
}

// NewImportScope creates a new import scope that imports all of the given
// packages.
func NewImportScope(arena *Arena, packages ...*PackageDescriptor) *ImportScope {
	return &ImportScope{
		arena:    arena,
		named:    make(map[string][]*PackageDescriptor),
		packages: append([]*PackageDescriptor(nil), packages...),
	}
}

// ImportName imports the declarations named name from a package.
func (is *ImportScope) ImportName(pkg *PackageDescriptor, name string) {
	for _, existing := range is.named[name] {
		if existing == pkg {
			return
		}
	}

	is.named[name] = append(is.named[name], pkg)
}

// ImportAll imports all the declarations of a package.
func (is *ImportScope) ImportAll(pkg *PackageDescriptor) {
	for _, existing := range is.packages {
		if existing == pkg {
			return
		}
	}

	is.packages = append(is.packages, pkg)
}

// Lookup returns the imported declarations named name: the explicitly imported
// ones first and then those of the star-imported packages.  A declaration
// imported more than one way is returned once.
func (is *ImportScope) Lookup(name string) []Descriptor {
	var found []Descriptor
	seen := make(map[DescriptorID]struct{})

	add := func(d Descriptor) {
		if _, ok := seen[d.ID()]; !ok {
			seen[d.ID()] = struct{}{}
			found = append(found, d)
		}
	}

	for _, pkg := range is.named[name] {
		for _, d := range is.arena.LookupPackageMembers(pkg, name) {
			add(d)
		}
	}

	for _, pkg := range is.packages {
		for _, d := range is.arena.LookupPackageMembers(pkg, name) {
			add(d)
		}
	}

	return found
}
