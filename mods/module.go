package mods

import (
	"github.com/Masterminds/semver/v3"
)

// Module represents a module: specifically, the module configuration.  The
// files of a module are all analyzed together in one session.
type Module struct {
	// Name is the name of the module.
	Name string

	// ModuleRoot is the path to the root directory of the module.
	ModuleRoot string

	// LanguageVersion is the version of the language the module's sources are
	// written in.
	LanguageVersion *semver.Version

	// SourceDirs are the absolute paths to the directories whose syntax tree
	// files belong to the module.  They are searched recursively.
	SourceDirs []string

	// Libraries are the absolute paths to the library descriptor files loaded
	// before the module is analyzed.
	Libraries []string

	// Checkers is the order the call checkers run in.  If this is empty, the
	// default order is used.
	Checkers []string

	// LogLevel is the name of the log level to analyze the module with.
	LogLevel string

	// Parallelism is the maximum number of files analyzed at once.  If this is
	// zero, there is no limit.
	Parallelism int
}

// IsValidIdentifier returns whether or not a given string would be a valid
// identifier (module name, package name, etc.)
func IsValidIdentifier(idstr string) bool {
	if idstr == "" {
		return false
	}

	if idstr[0] == '_' || ('a' <= idstr[0] && idstr[0] <= 'z') || ('A' <= idstr[0] && idstr[0] <= 'Z') {
		for _, c := range idstr[1:] {
			if c == '_' || c == '-' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
				continue
			}

			return false
		}

		return true
	}

	return false
}
