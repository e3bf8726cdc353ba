package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarian/internal/errs"
	"librarian/internal/query"
)

func TestSplitCSVTrimsAndDropsEmpty(t *testing.T) {
	assert.Equal(t, []string{"a.go", "b.go"}, splitCSV("a.go, b.go,"))
	assert.Nil(t, splitCSV(""))
}

func TestStrategyRequirementsMapsKnownStrategies(t *testing.T) {
	llm, embed, err := strategyRequirements("heuristic")
	require.NoError(t, err)
	assert.Equal(t, query.Disabled, llm)
	assert.Equal(t, query.Disabled, embed)

	llm, embed, err = strategyRequirements("semantic")
	require.NoError(t, err)
	assert.Equal(t, query.Optional, llm)
	assert.Equal(t, query.Required, embed)

	llm, embed, err = strategyRequirements("auto")
	require.NoError(t, err)
	assert.Equal(t, query.Optional, llm)
	assert.Equal(t, query.Optional, embed)
}

func TestStrategyRequirementsRejectsUnknownStrategy(t *testing.T) {
	_, _, err := strategyRequirements("bogus")
	require.Error(t, err)
	assert.Equal(t, errs.InvalidArgument, errs.KindOf(err))
}

func TestExitCodeForMapsStableKinds(t *testing.T) {
	assert.Equal(t, 10, exitCodeFor(errs.New(errs.NotBootstrapped, "x")))
	assert.Equal(t, 11, exitCodeFor(errs.New(errs.InsufficientEmbeddingCover, "x")))
	assert.Equal(t, 12, exitCodeFor(errs.New(errs.InvalidArgument, "x")))
	assert.Equal(t, 13, exitCodeFor(errs.New(errs.Timeout, "x")))
	assert.Equal(t, 14, exitCodeFor(errs.New(errs.ProviderNotReady, "x")))
	assert.Equal(t, 1, exitCodeFor(assertUntypedError{}))
}

type assertUntypedError struct{}

func (assertUntypedError) Error() string { return "untyped" }

func TestCheckOutRequiresJSON(t *testing.T) {
	oldOut, oldJSON := flagOut, flagJSON
	defer func() { flagOut, flagJSON = oldOut, oldJSON }()

	flagOut, flagJSON = "", false
	assert.NoError(t, checkOutRequiresJSON())

	flagOut, flagJSON = "out.json", false
	err := checkOutRequiresJSON()
	require.Error(t, err)
	assert.Equal(t, errs.InvalidArgument, errs.KindOf(err))

	flagOut, flagJSON = "out.json", true
	assert.NoError(t, checkOutRequiresJSON())
}

func TestSanitizeOutStripsTraceMarker(t *testing.T) {
	got := sanitizeOut("unverified_by_trace(abc123): the real message")
	assert.Equal(t, "the real message", got)
}

func TestLoadRepoManifestParsesEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "external-repos.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"repos":[{"name":"a","remote":"/tmp/a","commit":"deadbeef"}]}`), 0o644))

	manifest, err := loadRepoManifest(path)
	require.NoError(t, err)
	require.Len(t, manifest.Repos, 1)
	assert.Equal(t, "a", manifest.Repos[0].Name)
	assert.Equal(t, "deadbeef", manifest.Repos[0].Commit)
}

func TestLoadRepoManifestRejectsMissingFile(t *testing.T) {
	_, err := loadRepoManifest(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, errs.InvalidArgument, errs.KindOf(err))
}

func hasGit(t *testing.T) bool {
	t.Helper()
	_, err := exec.LookPath("git")
	return err == nil
}

func TestSyncRepoClonesAndVerifiesHead(t *testing.T) {
	if !hasGit(t) {
		t.Skip("git not available")
	}
	ctx := context.Background()

	upstream := t.TempDir()
	runGitSetup(t, upstream, "init")
	require.NoError(t, os.WriteFile(filepath.Join(upstream, "README.md"), []byte("hello\n"), 0o644))
	runGitSetup(t, upstream, "add", ".")
	runGitSetup(t, upstream, "-c", "user.email=test@test.com", "-c", "user.name=test", "commit", "-m", "init")
	head := gitOutput(t, upstream, "rev-parse", "HEAD")

	root := t.TempDir()
	res := syncRepo(ctx, root, repoEntry{Name: "fixture", Remote: upstream, Commit: head})
	assert.Empty(t, res.Error)
	assert.True(t, res.Cloned)
	assert.True(t, res.Verified)
	assert.Equal(t, head, res.Head)

	res2 := syncRepo(ctx, root, repoEntry{Name: "fixture", Remote: upstream, Commit: "not-the-real-commit"})
	assert.False(t, res2.Cloned)
	assert.False(t, res2.Verified)
	assert.NotEmpty(t, res2.Error)
}

func runGitSetup(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	require.NoError(t, err)
	return strings.TrimSpace(string(out))
}
