package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"kresolve/ast"
	"kresolve/checkers"
	"kresolve/depm"
	"kresolve/loader"
	"kresolve/mods"
	"kresolve/report"
	"kresolve/resolve"
	"kresolve/syntax"
	"kresolve/walk"
)

// Session represents the state of one analysis of a module: every descriptor,
// file and result belongs to exactly one session.  Sessions are created
// explicitly and passed to whatever needs them.  A session is populated in
// three steps: libraries and files are added, the declarations are resolved,
// and then the files are analyzed (possibly concurrently).
type Session struct {
	// Module is the configuration of the analyzed module.  This is nil for
	// sessions built directly from syntax trees.
	Module *mods.Module

	// Reporter displays the session's diagnostics.
	Reporter *report.Reporter

	// Arena holds the descriptors of the session.
	Arena *depm.Arena

	// Universe is the set of built-in declarations.
	Universe *depm.Universe

	// declarer enters the declarations of the module's files.
	declarer *walk.Declarer

	// files are the session's files in the order they were added.
	files []*sessionFile

	// fileIndex maps syntax trees to the session's files.
	fileIndex map[*ast.File]*sessionFile

	// declared is whether the declaration pass has run.
	declared bool

	// interrupted is the error which stopped the declaration pass, if any.  The
	// declarations of an interrupted session are incomplete and it cannot be
	// used any further.
	interrupted error

	// parallelism is the maximum number of files analyzed at once.  Zero means
	// no limit.
	parallelism int
}

// sessionFile is a file of the session along with the results of its
// analysis.  The mutex serializes analyses of the same file.
type sessionFile struct {
	src *walk.SourceFile

	m        sync.Mutex
	analyzed bool
	calls    []*resolve.ResolvedCall
}

// Config is the configuration of a session.
type Config struct {
	// ModuleName is the name of the analyzed module.
	ModuleName string

	// Checkers is the order the call checkers run in.  If this is empty, the
	// default order is used.
	Checkers []string

	// Parallelism is the maximum number of files analyzed at once.  Zero means
	// no limit.
	Parallelism int
}

// NewSession creates a new session with an empty module.
func NewSession(config Config, reporter *report.Reporter) (*Session, error) {
	if config.ModuleName == "" {
		return nil, errors.New("session needs a module name")
	}

	if config.Parallelism < 0 {
		return nil, errors.New("parallelism must not be negative")
	}

	chain, err := checkers.NewChain(config.Checkers)
	if err != nil {
		return nil, err
	}

	arena := depm.NewArena()
	universe := depm.EnterUniverse(arena)

	return &Session{
		Reporter:    reporter,
		Arena:       arena,
		Universe:    universe,
		declarer:    walk.NewDeclarer(arena, universe, arena.NewModule(config.ModuleName), chain),
		fileIndex:   make(map[*ast.File]*sessionFile),
		parallelism: config.Parallelism,
	}, nil
}

// OpenModule creates a session for a module: its libraries and source files are
// loaded and its declarations are resolved.  The display paths of the files are
// relative to the module root.
func OpenModule(ctx context.Context, mod *mods.Module, reporter *report.Reporter) (*Session, error) {
	s, err := NewSession(Config{
		ModuleName:  mod.Name,
		Checkers:    mod.Checkers,
		Parallelism: mod.Parallelism,
	}, reporter)
	if err != nil {
		return nil, err
	}

	s.Module = mod

	if len(mod.Libraries) > 0 {
		reporter.LogPhase("loading %d libraries", len(mod.Libraries))
	}

	for _, lib := range mod.Libraries {
		if err := s.AddLibrary(lib); err != nil {
			return nil, err
		}
	}

	paths, err := mod.SourceFiles()
	if err != nil {
		return nil, fmt.Errorf("error finding source files: %w", err)
	}

	reporter.LogPhase("loading %d source files", len(paths))

	for _, path := range paths {
		file, err := loader.LoadFile(path)
		if err != nil {
			return nil, err
		}

		if rel, err := filepath.Rel(mod.ModuleRoot, path); err == nil {
			file.Path = rel
		}

		if err := s.AddFile(file); err != nil {
			return nil, err
		}
	}

	reporter.LogPhase("resolving declarations")

	if err := s.Declare(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// -----------------------------------------------------------------------------

// AddLibrary loads a library file into the session.
func (s *Session) AddLibrary(path string) error {
	if s.declared || s.interrupted != nil {
		return errors.New("cannot add a library after the declarations are resolved")
	}

	_, err := loader.LoadLibrary(s.Arena, s.Universe, path)
	return err
}

// AddFile adds a syntax tree to the session.  A tree without source text is
// rendered first so that its nodes have positions.
func (s *Session) AddFile(file *ast.File) error {
	if s.declared || s.interrupted != nil {
		return fmt.Errorf("cannot add %s after the declarations are resolved", file.Path)
	}

	if _, ok := s.fileIndex[file]; ok {
		return fmt.Errorf("%s was added twice", file.Path)
	}

	if file.Text == nil {
		syntax.Render(file)
	}

	sf := &sessionFile{src: s.declarer.Enter(file)}
	s.files = append(s.files, sf)
	s.fileIndex[file] = sf
	return nil
}

// Declare resolves the declarations of all the added files and freezes the
// arena.  No libraries or files can be added afterward.
func (s *Session) Declare(ctx context.Context) error {
	if s.interrupted != nil {
		return fmt.Errorf("declaration pass was interrupted: %w", s.interrupted)
	}

	if s.declared {
		return errors.New("declarations are already resolved")
	}

	if err := s.declarer.Declare(ctx); err != nil {
		s.interrupted = err
		return err
	}

	s.Arena.Finalize()
	s.declared = true
	return nil
}

// Files returns the syntax trees of the session in the order they were added.
func (s *Session) Files() []*ast.File {
	files := make([]*ast.File, len(s.files))
	for i, sf := range s.files {
		files[i] = sf.src.File
	}

	return files
}
