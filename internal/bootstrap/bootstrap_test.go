package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarian/internal/extract"
	"librarian/internal/store"
)

func writeFixture(t *testing.T, root string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "greeter.go"), []byte(`package pkg

import "fmt"

func Greet(name string) string {
	return format(name)
}

func format(name string) string {
	return fmt.Sprintf("hello %s", name)
}
`), 0o644))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(filepath.Join(dir, "librarian.sqlite"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunIndexesFilesFunctionsAndCallEdges(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)
	st := newTestStore(t)

	result, err := Run(context.Background(), st, Options{
		Workspace: root,
		Registry:  extract.DefaultRegistry(1 << 20),
		Scanner:   ScannerConfig{ExcludeDirs: []string{".librarian"}, MaxFileBytes: 1 << 20},
		Workers:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.IndexedFiles)
	assert.Equal(t, 2, result.Functions)

	funcs, err := st.GetFunctionsByPath("pkg/greeter.go")
	require.NoError(t, err)
	assert.Len(t, funcs, 2)

	edges, err := st.GetGraphEdges(store.EdgeFilter{EdgeKinds: []store.EdgeKind{store.EdgeCalls}})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Contains(t, edges[0].FromID, "Greet")
	assert.Contains(t, edges[0].ToID, "format")

	modules, err := st.GetModules()
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "pkg", modules[0].Path)
	assert.ElementsMatch(t, []string{"Greet", "format"}, modules[0].Exports)

	version, err := st.GetVersion()
	require.NoError(t, err)
	assert.NotZero(t, version.IndexedAt)
}

func TestRunIsIdempotentOnFunctionIDs(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)
	st := newTestStore(t)

	opts := Options{
		Workspace: root,
		Registry:  extract.DefaultRegistry(1 << 20),
		Scanner:   ScannerConfig{MaxFileBytes: 1 << 20},
		Workers:   2,
	}
	_, err := Run(context.Background(), st, opts)
	require.NoError(t, err)
	first, err := st.GetFunctionsByPath("pkg/greeter.go")
	require.NoError(t, err)

	_, err = Run(context.Background(), st, opts)
	require.NoError(t, err)
	second, err := st.GetFunctionsByPath("pkg/greeter.go")
	require.NoError(t, err)

	require.Len(t, first, len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}
