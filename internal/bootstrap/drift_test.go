package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarian/internal/extract"
)

func TestIsBootstrapRequiredNoStore(t *testing.T) {
	report, err := IsBootstrapRequired(context.Background(), t.TempDir(), nil, ScannerConfig{}, nil)
	require.NoError(t, err)
	assert.True(t, report.Required)
}

func TestIsBootstrapRequiredCleanAfterBootstrap(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)
	st := newTestStore(t)

	cfg := ScannerConfig{MaxFileBytes: 1 << 20}
	_, err := Run(context.Background(), st, Options{
		Workspace: root, Registry: extract.DefaultRegistry(1 << 20), Scanner: cfg, Workers: 2,
	})
	require.NoError(t, err)

	report, err := IsBootstrapRequired(context.Background(), root, st, cfg, NoopProbe{})
	require.NoError(t, err)
	assert.False(t, report.Required)
}

func TestIsBootstrapRequiredDetectsChecksumDrift(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)
	st := newTestStore(t)

	cfg := ScannerConfig{MaxFileBytes: 1 << 20}
	_, err := Run(context.Background(), st, Options{
		Workspace: root, Registry: extract.DefaultRegistry(1 << 20), Scanner: cfg, Workers: 2,
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "greeter.go"), []byte("package pkg\n\nfunc Changed() {}\n"), 0o644))

	report, err := IsBootstrapRequired(context.Background(), root, st, cfg, NoopProbe{})
	require.NoError(t, err)
	assert.True(t, report.Required)
	assert.Contains(t, report.Reason, "--force")
}

type fakeVCS struct {
	head string
}

func (f fakeVCS) IsRepo(ctx context.Context, root string) bool { return true }
func (f fakeVCS) HeadCommit(ctx context.Context, root string) (string, error) {
	return f.head, nil
}

func TestIsBootstrapRequiredDetectsHeadMismatch(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)
	st := newTestStore(t)

	cfg := ScannerConfig{MaxFileBytes: 1 << 20}
	_, err := Run(context.Background(), st, Options{
		Workspace: root, Registry: extract.DefaultRegistry(1 << 20), Scanner: cfg, Workers: 2,
		VCS: fakeVCS{head: "aaaa111"},
	})
	require.NoError(t, err)

	report, err := IsBootstrapRequired(context.Background(), root, st, cfg, fakeVCS{head: "bbbb222"})
	require.NoError(t, err)
	assert.True(t, report.Required)
	assert.Contains(t, report.Reason, "git HEAD")
	assert.Contains(t, report.Reason, "--force")
}
