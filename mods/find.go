package mods

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"kresolve/common"
)

// SourceFiles returns the absolute paths of the module's syntax tree files in
// lexical order.  Hidden directories are skipped.
func (m *Module) SourceFiles() ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	for _, dir := range m.SourceDirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				if path != dir && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}

				return nil
			}

			if !strings.HasSuffix(d.Name(), common.SourceFileExt) {
				return nil
			}

			if _, ok := seen[path]; !ok {
				seen[path] = struct{}{}
				paths = append(paths, path)
			}

			return nil
		})

		if err != nil {
			return nil, err
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// IsModuleFile returns whether a path names a file the module's analysis
// depends on: its module file, a syntax tree file, or a library file.
func (m *Module) IsModuleFile(path string) bool {
	name := filepath.Base(path)
	if name == common.ModuleFileName || strings.HasSuffix(name, common.SourceFileExt) {
		return true
	}

	for _, lib := range m.Libraries {
		if filepath.Clean(path) == lib {
			return true
		}
	}

	return false
}
