package mods

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"kresolve/checkers"
	"kresolve/common"
	"kresolve/report"

	"github.com/Masterminds/semver/v3"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
)

// tomlModuleFile represents the module file as it is encoded in TOML
type tomlModuleFile struct {
	Module *tomlModule `toml:"module"`
}

// tomlModule represents a module as it is encoded in TOML
type tomlModule struct {
	Name            string   `toml:"name"`
	LanguageVersion string   `toml:"language-version"`
	Sources         []string `toml:"sources,omitempty"`
	Libraries       []string `toml:"libraries,omitempty"`
	Checkers        []string `toml:"checkers,omitempty"`
	LogLevel        string   `toml:"log-level,omitempty"`
	Parallelism     int      `toml:"parallelism,omitempty"`
}

// LoadModule loads and validates the module whose module file is in the
// directory at path.  A `.env` file next to the module file is loaded into
// the environment; the KRES_LOGLEVEL variable overrides the module's log
// level.
func LoadModule(path string) (*Module, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	buff, err := os.ReadFile(filepath.Join(absPath, common.ModuleFileName))
	if err != nil {
		return nil, err
	}

	tmf := &tomlModuleFile{}
	if err := toml.Unmarshal(buff, tmf); err != nil {
		return nil, fmt.Errorf("error decoding module file: %w", err)
	}

	if tmf.Module == nil {
		return nil, fmt.Errorf("missing [module] table in module file at %s", absPath)
	}

	mod := &Module{ModuleRoot: absPath}
	if err := validateModule(mod, tmf.Module); err != nil {
		return nil, err
	}

	if err := loadEnv(mod); err != nil {
		return nil, err
	}

	return mod, nil
}

// validateModule checks that the module contents are valid and moves them over
// to mod.
func validateModule(mod *Module, tmod *tomlModule) error {
	if tmod.Name == "" {
		return fmt.Errorf("missing module name for module at %s", mod.ModuleRoot)
	}

	if !IsValidIdentifier(tmod.Name) {
		return errors.New("module name must be a valid identifier")
	}

	mod.Name = tmod.Name

	if err := checkLanguageVersion(mod, tmod.LanguageVersion); err != nil {
		return err
	}

	if len(tmod.Sources) == 0 {
		mod.SourceDirs = []string{mod.ModuleRoot}
	} else {
		for _, dir := range tmod.Sources {
			mod.SourceDirs = append(mod.SourceDirs, mod.resolvePath(dir))
		}
	}

	for _, lib := range tmod.Libraries {
		mod.Libraries = append(mod.Libraries, mod.resolvePath(lib))
	}

	if _, err := checkers.NewChain(tmod.Checkers); err != nil {
		return fmt.Errorf("module %s: %w", mod.Name, err)
	}

	mod.Checkers = tmod.Checkers

	if tmod.LogLevel == "" {
		mod.LogLevel = "verbose"
	} else if _, err := report.ParseLogLevel(tmod.LogLevel); err != nil {
		return fmt.Errorf("module %s: %w", mod.Name, err)
	} else {
		mod.LogLevel = tmod.LogLevel
	}

	if tmod.Parallelism < 0 {
		return fmt.Errorf("module %s: parallelism must not be negative", mod.Name)
	}

	mod.Parallelism = tmod.Parallelism
	return nil
}

// checkLanguageVersion checks that the module's language version is one the
// analyzer supports.
func checkLanguageVersion(mod *Module, version string) error {
	if version == "" {
		return fmt.Errorf("module %s must specify a language version", mod.Name)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid language version for module %s: %w", mod.Name, err)
	}

	supported, err := semver.NewConstraint(common.SupportedLanguageVersions)
	if err != nil {
		return err
	}

	if !supported.Check(v) {
		return fmt.Errorf(
			"language version of module `%s` (v%s) is not supported: expected %s",
			mod.Name,
			v,
			common.SupportedLanguageVersions,
		)
	}

	mod.LanguageVersion = v
	return nil
}

// loadEnv loads the module's `.env` file if there is one and applies the
// environment overrides.
func loadEnv(mod *Module) error {
	envPath := filepath.Join(mod.ModuleRoot, ".env")
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading %s: %w", envPath, err)
	}

	if level, ok := os.LookupEnv(common.EnvLogLevel); ok && level != "" {
		if _, err := report.ParseLogLevel(level); err != nil {
			return fmt.Errorf("%s: %w", common.EnvLogLevel, err)
		}

		mod.LogLevel = level
	}

	return nil
}

// resolvePath converts a path relative to the module root into an absolute
// path.
func (m *Module) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return filepath.Join(m.ModuleRoot, path)
}
