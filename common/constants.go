package common

// KresVersion is the current kresolve version as a string.
const KresVersion string = "0.3.0"

// SupportedLanguageVersions is the semantic version constraint that a module's
// declared language version must satisfy.
const SupportedLanguageVersions string = ">= 1.0.0, < 1.5.0"

// ModuleFileName is the name for module configuration files.
const ModuleFileName string = "kres-mod.toml"

// SourceFileExt is the file extension for a pre-parsed syntax tree file.
const SourceFileExt string = ".kt.yaml"

// LibraryFileExt is the file extension for a library descriptor file.
const LibraryFileExt string = ".lib.yaml"

// EnvLogLevel is the environment variable overriding the configured log level.
const EnvLogLevel string = "KRES_LOGLEVEL"
