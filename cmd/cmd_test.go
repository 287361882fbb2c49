package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"kresolve/analysis"
	"kresolve/common"
	"kresolve/loader"
	"kresolve/mods"
	"kresolve/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelOf(t *testing.T) {
	assert.Equal(t, report.LogLevelVerbose, levelOf("", ""))
	assert.Equal(t, report.LogLevelWarn, levelOf("", "warn"))
	assert.Equal(t, report.LogLevelSilent, levelOf("silent", "warn"))
	assert.Equal(t, report.LogLevelVerbose, levelOf("loud", ""))
}

func TestIsWatchedFile(t *testing.T) {
	mod := &mods.Module{Libraries: []string{"/mod/libs/text.lib.yaml"}}

	assert.True(t, isWatchedFile(mod, "/mod/"+common.ModuleFileName))
	assert.True(t, isWatchedFile(mod, "/mod/src/main.kt.yaml"))
	assert.True(t, isWatchedFile(mod, "/mod/libs/text.lib.yaml"))
	assert.True(t, isWatchedFile(mod, "/mod/.env"))
	assert.False(t, isWatchedFile(mod, "/mod/libs/other.lib.yaml"))
	assert.False(t, isWatchedFile(mod, "/mod/README.md"))
}

func TestWatchModule(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "src"), 0o755))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var m sync.Mutex
	var batches [][]string
	changed := make(chan struct{}, 8)

	done := make(chan error, 1)
	go func() {
		done <- watchModule(ctx, root, 50*time.Millisecond, func(path string) bool {
			return strings.HasSuffix(path, common.SourceFileExt)
		}, func(paths []string) {
			m.Lock()
			batches = append(batches, paths)
			m.Unlock()

			changed <- struct{}{}
		})
	}()

	// give the watcher time to register its directories
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "b.kt.yaml"), []byte("package: app"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.kt.yaml"), []byte("package: app"), 0o644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change was reported")
	}

	cancel()
	require.NoError(t, <-done)

	m.Lock()
	defer m.Unlock()

	require.NotEmpty(t, batches)
	assert.Contains(t, batches[0], filepath.Join(root, "src", "a.kt.yaml"))
	for _, batch := range batches {
		assert.NotContains(t, batch, filepath.Join(root, "notes.txt"))
		assert.IsNonDecreasing(t, batch)
	}
}

func TestDumpCalls(t *testing.T) {
	s, err := analysis.NewSession(analysis.Config{ModuleName: "app"}, report.NewReporter(report.LogLevelSilent, &bytes.Buffer{}))
	require.NoError(t, err)

	file, err := loader.DecodeFile([]byte(`
package: app
decls:
  - kind: fun
    name: main
    body:
      - {call: listOf, args: [1, 2]}
`), "main.kt.yaml")
	require.NoError(t, err)

	require.NoError(t, s.AddFile(file))
	require.NoError(t, s.Declare(context.Background()))

	results, err := s.AnalyzeFiles(context.Background())
	require.NoError(t, err)

	out := &bytes.Buffer{}
	dumpCalls(out, results)

	text := out.String()
	assert.Contains(t, text, "main.kt.yaml: 1 calls")
	assert.Contains(t, text, "listOf")
	assert.Contains(t, text, "T -> Int")
	assert.Contains(t, text, "elements")
}

func TestExecuteVersion(t *testing.T) {
	assert.Equal(t, 0, Execute([]string{"kresolve", "version"}))
}
