package mods

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"kresolve/common"

	"github.com/pelletier/go-toml"
)

// DefaultLanguageVersion is the language version new modules are created with.
const DefaultLanguageVersion = "1.4.0"

// InitModule creates a new module with the given name at the given path.
func InitModule(name, path string) error {
	modFilePath := filepath.Join(path, common.ModuleFileName)

	// check to see if a module already exists
	_, err := os.Stat(modFilePath)
	if err == nil {
		return errors.New("module file already exists")
	}

	if !os.IsNotExist(err) {
		return fmt.Errorf("module file error: %w", err)
	}

	if !IsValidIdentifier(name) {
		return errors.New("module name must be a valid identifier")
	}

	mod := &tomlModule{
		Name:            name,
		LanguageVersion: DefaultLanguageVersion,
		Sources:         []string{"src"},
	}

	f, err := os.Create(modFilePath)
	if err != nil {
		return fmt.Errorf("error creating module file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(&tomlModuleFile{Module: mod}); err != nil {
		return fmt.Errorf("error encoding TOML: %w", err)
	}

	return nil
}
