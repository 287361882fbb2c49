package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"kresolve/analysis"
	"kresolve/mods"

	"github.com/ComedicChimera/olive"
	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"
)

// watchDebounce is how long the watcher waits for changes to settle before
// checking the module again.
const watchDebounce = 250 * time.Millisecond

// execWatchCommand executes the watch subcommand: the module is checked once
// and then again after every change to its files until the command is
// interrupted.
func execWatchCommand(ctx context.Context, result *olive.ArgParseResult, logLevel string) int {
	moduleRelPath, _ := result.PrimaryArg()

	mod, reporter, err := loadModule(moduleRelPath, logLevel)
	if err != nil {
		return 1
	}

	runCheck := func() {
		// the module file itself may have changed
		current, currentReporter, err := loadModule(mod.ModuleRoot, logLevel)
		if err != nil {
			return
		}

		mod = current
		s, err := analysis.OpenModule(ctx, current, currentReporter)
		if err != nil {
			currentReporter.ReportStdError("Load Error", err)
			return
		}

		if _, _, err := s.Check(ctx); err != nil && ctx.Err() == nil {
			currentReporter.ReportStdError("Analysis Error", err)
		}
	}

	runCheck()

	err = watchModule(ctx, mod.ModuleRoot, watchDebounce, func(path string) bool {
		return isWatchedFile(mod, path)
	}, func(changed []string) {
		pterm.Info.Println(fmt.Sprintf("%d files changed", len(changed)))
		runCheck()
	})

	if err != nil {
		reporter.ReportStdError("Watch Error", err)
		return 1
	}

	return 0
}

// isWatchedFile returns whether a change to path should trigger a check.
func isWatchedFile(mod *mods.Module, path string) bool {
	return mod.IsModuleFile(path) || filepath.Base(path) == ".env"
}

// -----------------------------------------------------------------------------

// watchModule watches the directory tree at root and calls onChange with the
// sorted paths of the relevant files that changed once no change has occurred
// for the debounce duration.  It returns when ctx is done.
func watchModule(ctx context.Context, root string, debounce time.Duration, relevant func(string) bool, onChange func([]string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root); err != nil {
		return err
	}

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			path := filepath.Clean(event.Name)

			// new directories are watched as well
			if event.Op&fsnotify.Create != 0 {
				if finfo, err := os.Stat(path); err == nil && finfo.IsDir() {
					if err := addWatchDirs(watcher, path); err != nil {
						return err
					}

					continue
				}
			}

			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 || !relevant(path) {
				continue
			}

			pending[path] = struct{}{}

			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}

			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}

			sort.Strings(changed)
			pending = make(map[string]struct{})
			onChange(changed)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			return err
		}
	}
}

// addWatchDirs adds the directory at root and all its non-hidden
// subdirectories to the watcher.
func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
}
