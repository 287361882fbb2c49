package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"kresolve/ast"
	"kresolve/common"
	"kresolve/loader"
	"kresolve/mods"
	"kresolve/report"
	"kresolve/resolve"
	"kresolve/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const textLibrary = `
module: textlib
packages:
  - name: lib.text
    functions:
      - {name: shout, params: [{name: s, type: String}], returns: String, deprecated: use whisper}
      - {name: whisper, params: [{name: s, type: String}], returns: String}
      - {name: secret, visibility: internal, returns: Int}
`

const mainTree = `
package: app
imports: ["lib.text.*"]
decls:
  - kind: fun
    name: main
    body:
      - {call: shout, args: ["hi"]}
      - {call: whisper, args: ["hi"]}
      - {call: secret}
      - {call: js, args: ["var a = ;"]}
      - {call: js, args: ["var a = 1;"]}
      - {call: helper}
`

const helperTree = `
package: app
decls:
  - {kind: fun, name: helper, returns: Int, expr: {op: +, left: 1, right: 2}}
`

func silentReporter() *report.Reporter {
	return report.NewReporter(report.LogLevelSilent, io.Discard)
}

func diagNames(bt *trace.BindingTrace) []string {
	var names []string
	for _, diag := range bt.Diagnostics() {
		names = append(names, diag.Factory.Name)
	}

	return names
}

func callNames(calls []*resolve.ResolvedCall) []string {
	var names []string
	for _, call := range calls {
		names = append(names, call.Descriptor.Name())
	}

	return names
}

func decodeFile(t *testing.T, src, path string) *ast.File {
	t.Helper()

	file, err := loader.DecodeFile([]byte(src), path)
	require.NoError(t, err)

	return file
}

// newSession creates a declared session over the library and the two trees.
func newSession(t *testing.T, config Config) (*Session, *ast.File, *ast.File) {
	t.Helper()

	s, err := NewSession(config, silentReporter())
	require.NoError(t, err)

	libPath := filepath.Join(t.TempDir(), "text.lib.yaml")
	require.NoError(t, os.WriteFile(libPath, []byte(textLibrary), 0o644))
	require.NoError(t, s.AddLibrary(libPath))

	mainFile := decodeFile(t, mainTree, "main.kt.yaml")
	helperFile := decodeFile(t, helperTree, "helper.kt.yaml")
	require.NoError(t, s.AddFile(mainFile))
	require.NoError(t, s.AddFile(helperFile))

	require.NoError(t, s.Declare(context.Background()))
	return s, mainFile, helperFile
}

func TestAnalyzeFile(t *testing.T) {
	s, mainFile, helperFile := newSession(t, Config{ModuleName: "app"})

	bt, calls, err := AnalyzeFile(context.Background(), s, mainFile)
	require.NoError(t, err)

	assert.Equal(t, []string{"shout", "whisper", "secret", "js", "js", "helper"}, callNames(calls))
	assert.Equal(t, []string{"DEPRECATION", "INVISIBLE_MEMBER", "JSCODE_ERROR"}, diagNames(bt))
	assert.NotEmpty(t, mainFile.Text)

	bt, calls, err = AnalyzeFile(context.Background(), s, helperFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"plus"}, callNames(calls))
	assert.Empty(t, bt.Diagnostics())
}

func TestAnalyzeFileOnce(t *testing.T) {
	s, mainFile, _ := newSession(t, Config{ModuleName: "app"})

	bt1, calls1, err := AnalyzeFile(context.Background(), s, mainFile)
	require.NoError(t, err)

	bt2, calls2, err := AnalyzeFile(context.Background(), s, mainFile)
	require.NoError(t, err)

	assert.Same(t, bt1, bt2)
	assert.Equal(t, calls1, calls2)
	assert.Len(t, bt2.Diagnostics(), 3)
}

func TestAnalyzeFileCancelled(t *testing.T) {
	s, mainFile, _ := newSession(t, Config{ModuleName: "app"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := AnalyzeFile(ctx, s, mainFile)
	assert.ErrorIs(t, err, context.Canceled)

	bt, calls, err := AnalyzeFile(context.Background(), s, mainFile)
	require.NoError(t, err)
	assert.Len(t, calls, 6)
	assert.Len(t, bt.Diagnostics(), 3)
}

func TestAnalyzeFileErrors(t *testing.T) {
	s, err := NewSession(Config{ModuleName: "app"}, silentReporter())
	require.NoError(t, err)

	file := decodeFile(t, helperTree, "helper.kt.yaml")
	require.NoError(t, s.AddFile(file))
	assert.ErrorContains(t, s.AddFile(file), "added twice")

	_, _, err = AnalyzeFile(context.Background(), s, file)
	assert.ErrorContains(t, err, "must be resolved before analysis")

	require.NoError(t, s.Declare(context.Background()))
	assert.ErrorContains(t, s.Declare(context.Background()), "already resolved")
	assert.ErrorContains(t, s.AddFile(decodeFile(t, mainTree, "main.kt.yaml")), "after the declarations are resolved")
	assert.ErrorContains(t, s.AddLibrary("text.lib.yaml"), "after the declarations are resolved")

	_, _, err = AnalyzeFile(context.Background(), s, decodeFile(t, helperTree, "other.kt.yaml"))
	assert.ErrorContains(t, err, "other.kt.yaml is not part of the session")
}

func TestNewSessionErrors(t *testing.T) {
	_, err := NewSession(Config{}, silentReporter())
	assert.ErrorContains(t, err, "module name")

	_, err = NewSession(Config{ModuleName: "app", Parallelism: -1}, silentReporter())
	assert.ErrorContains(t, err, "parallelism")

	_, err = NewSession(Config{ModuleName: "app", Checkers: []string{"nullability"}}, silentReporter())
	assert.ErrorContains(t, err, "unknown call checker")
}

func TestCheckerOrder(t *testing.T) {
	s, mainFile, _ := newSession(t, Config{ModuleName: "app", Checkers: []string{"jscode"}})

	bt, _, err := AnalyzeFile(context.Background(), s, mainFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"JSCODE_ERROR"}, diagNames(bt))
}

func TestAnalyzeFiles(t *testing.T) {
	s, err := NewSession(Config{ModuleName: "app", Parallelism: 3}, silentReporter())
	require.NoError(t, err)

	const fileCount = 12
	for i := 0; i < fileCount; i++ {
		src := fmt.Sprintf(`
package: app
decls:
  - {kind: fun, name: f%d, returns: Int, expr: {call: maxOf, args: [%d, 1]}}
  - {kind: val, name: v%d, init: {call: f%d}}
`, i, i, i, i)

		require.NoError(t, s.AddFile(decodeFile(t, src, fmt.Sprintf("f%d.kt.yaml", i))))
	}

	require.NoError(t, s.Declare(context.Background()))

	results, err := s.AnalyzeFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, results, fileCount)

	for i, res := range results {
		assert.Equal(t, fmt.Sprintf("f%d.kt.yaml", i), res.File.Path)
		assert.Equal(t, []string{"maxOf", fmt.Sprintf("f%d", i)}, callNames(res.Calls))
		assert.Empty(t, res.Trace.Diagnostics())
	}
}

func TestAnalyzeFilesCancelled(t *testing.T) {
	s, _, _ := newSession(t, Config{ModuleName: "app", Parallelism: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.AnalyzeFiles(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenModule(t *testing.T) {
	t.Setenv(common.EnvLogLevel, "")

	root := t.TempDir()
	write := func(path, content string) {
		full := filepath.Join(root, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	write(common.ModuleFileName, `
[module]
name = "app"
language-version = "1.4.0"
sources = ["src"]
libraries = ["libs/text.lib.yaml"]
log-level = "warn"
`)
	write("libs/text.lib.yaml", textLibrary)
	write("src/main.kt.yaml", mainTree)
	write("src/util/helper.kt.yaml", helperTree)

	mod, err := mods.LoadModule(root)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	reporter := report.NewReporter(report.LogLevelWarn, out)

	s, err := OpenModule(context.Background(), mod, reporter)
	require.NoError(t, err)
	assert.Same(t, mod, s.Module)

	var paths []string
	for _, file := range s.Files() {
		paths = append(paths, file.Path)
	}

	assert.Equal(t, []string{"src/main.kt.yaml", filepath.Join("src", "util", "helper.kt.yaml")}, paths)

	_, ok, err := s.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	errors, warnings := reporter.Counts()
	assert.Equal(t, 2, errors)
	assert.Equal(t, 1, warnings)
	assert.Contains(t, out.String(), "main.kt.yaml")
	assert.Contains(t, out.String(), "INVISIBLE_MEMBER")
}

func TestOpenModuleLoadErrors(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "bad.kt.yaml"), []byte("decls: [{name: f}]"), 0o644))

	mod := &mods.Module{Name: "app", ModuleRoot: root, SourceDirs: []string{filepath.Join(root, "src")}}
	_, err := OpenModule(context.Background(), mod, silentReporter())
	assert.ErrorContains(t, err, "declaration has no kind")

	mod.Libraries = []string{filepath.Join(root, "missing.lib.yaml")}
	_, err = OpenModule(context.Background(), mod, silentReporter())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
