package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarian/internal/store"
)

func TestDiscoverExcludesDirAndSorts(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "dep.go"), []byte("package vendor\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "b.go"), []byte("package src\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "a.go"), []byte("package src\n"), 0o644))

	rels, err := Discover(root, ScannerConfig{ExcludeDirs: []string{"vendor"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.go", "src/b.go"}, rels)
}

func TestCategorizeClassifiesByPathAndExtension(t *testing.T) {
	assert.Equal(t, store.CategoryTest, Categorize("pkg/foo_test.go", true))
	assert.Equal(t, store.CategoryDocs, Categorize("README.md", false))
	assert.Equal(t, store.CategorySchema, Categorize("schema/init.sql", false))
	assert.Equal(t, store.CategoryConfig, Categorize("config.yaml", false))
	assert.Equal(t, store.CategoryCode, Categorize("pkg/foo.go", true))
	assert.Equal(t, store.CategoryOther, Categorize("pkg/foo.unknownext", false))
}
