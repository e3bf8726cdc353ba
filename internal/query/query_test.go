package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarian/internal/bootstrap"
	"librarian/internal/config"
	"librarian/internal/extract"
	"librarian/internal/provider"
	"librarian/internal/store"
)

func newFixtureStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	root := t.TempDir()
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

	dbDir := t.TempDir()
	st, err := store.Open(filepath.Join(dbDir, "librarian.sqlite"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, err = bootstrap.Run(context.Background(), st, bootstrap.Options{
		Workspace: root,
		Registry:  extract.DefaultRegistry(1 << 20),
		Scanner:   bootstrap.ScannerConfig{MaxFileBytes: 1 << 20},
		Workers:   2,
	})
	require.NoError(t, err)
	return st, root
}

func newPipeline(t *testing.T, st *store.Store, root string) *Pipeline {
	t.Helper()
	return &Pipeline{
		Store:        st,
		Workspace:    root,
		LibrarianDir: t.TempDir(),
		Scanner:      bootstrap.ScannerConfig{MaxFileBytes: 1 << 20},
		VCS:          bootstrap.NoopProbe{},
		Providers:    provider.NewRegistry(),
		Config:       config.DefaultConfig().Query,
		ProviderCfg:  config.DefaultConfig().Provider,
	}
}

func TestClassifyModes(t *testing.T) {
	assert.Equal(t, ModeEnumeration, Classify("list all functions"))
	assert.Equal(t, ModeStructural, Classify("who calls Greet"))
	assert.Equal(t, ModeGeneral, Classify("how does authentication work"))
}

func TestRunEnumerationIsDeterministic(t *testing.T) {
	st, root := newFixtureStore(t)
	p := newPipeline(t, st, root)

	resp, err := p.Run(context.Background(), Request{Intent: "list all functions", Deterministic: true})
	require.NoError(t, err)
	require.Len(t, resp.Packs, 2)
	assert.Equal(t, ModeEnumeration, resp.Mode)
	assert.Equal(t, "heuristic", resp.SynthesisMode)
}

func TestRunStructuralFindsCallers(t *testing.T) {
	st, root := newFixtureStore(t)
	p := newPipeline(t, st, root)

	resp, err := p.Run(context.Background(), Request{Intent: "who calls format", Deterministic: true})
	require.NoError(t, err)
	require.Len(t, resp.Packs, 1)
	assert.Contains(t, resp.Packs[0].TargetID, "Greet")
}

func TestRunGeneralRanksByLexicalOverlap(t *testing.T) {
	st, root := newFixtureStore(t)
	p := newPipeline(t, st, root)

	resp, err := p.Run(context.Background(), Request{Intent: "Greet", Deterministic: true, Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Packs)
	assert.Contains(t, resp.Packs[0].TargetID, "Greet")
}

func TestSanitizeStripsTraceMarkers(t *testing.T) {
	assert.Equal(t, "the answer", SanitizeProse("unverified_by_trace(abc123): the answer"))
	assert.Equal(t, "abc123", SanitizeID("unverified_by_trace(abc123): the answer"))
}

func TestRunFailsNotBootstrappedWithoutStore(t *testing.T) {
	root := t.TempDir()
	p := &Pipeline{
		Store:       nil,
		Workspace:   root,
		Scanner:     bootstrap.ScannerConfig{},
		VCS:         bootstrap.NoopProbe{},
		Providers:   provider.NewRegistry(),
		Config:      config.DefaultConfig().Query,
		ProviderCfg: config.DefaultConfig().Provider,
	}
	_, err := p.Run(context.Background(), Request{Intent: "anything"})
	require.Error(t, err)
}
