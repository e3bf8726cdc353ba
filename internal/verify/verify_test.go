package verify

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarian/internal/store"
)

func newFixture(t *testing.T) (*Verifier, string) {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "greet.go"), []byte(
		"package greet\n\nfunc Hello(name string) string {\n\treturn \"hi \" + name\n}\n"), 0o644))

	dbPath := filepath.Join(t.TempDir(), "librarian.sqlite")
	st, err := store.Open(dbPath, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.Transaction(func(tx *sql.Tx) error {
		if err := store.UpsertFile(tx, store.File{Path: "greet.go", Checksum: "c1", Category: store.CategoryCode}); err != nil {
			return err
		}
		return store.UpsertFunction(tx, store.Function{
			ID: "greet.go#Hello#3", Name: "Hello", File: "greet.go",
			StartLine: 3, EndLine: 5, Confidence: 0.9, FileChecksum: "c1",
		})
	}))

	return &Verifier{Workspace: dir, Store: st}, dir
}

func TestExtractCitationsFindsPathLineShape(t *testing.T) {
	cites := ExtractCitations("see `greet.go:3` for the signature")
	require.Len(t, cites, 1)
	assert.Equal(t, "greet.go", cites[0].FilePath)
	assert.Equal(t, 3, cites[0].Line)
}

func TestExtractCitationsFindsIdentifierNearKeyword(t *testing.T) {
	cites := ExtractCitations("the function `Hello` builds the greeting")
	require.Len(t, cites, 1)
	assert.Equal(t, "Hello", cites[0].Identifier)
}

func TestVerifyFileExistsAndLineValid(t *testing.T) {
	v, _ := newFixture(t)
	r := v.Verify(Citation{Raw: "`greet.go:3`", FilePath: "greet.go", Line: 3})
	assert.True(t, r.Verified)
	assert.Equal(t, DecisionLineValid, r.Decision)
	assert.InDelta(t, 1.0, r.Confidence, 1e-9)
}

func TestVerifyLineOutOfRangeFails(t *testing.T) {
	v, _ := newFixture(t)
	r := v.Verify(Citation{Raw: "`greet.go:999`", FilePath: "greet.go", Line: 999})
	assert.False(t, r.Verified)
	assert.Equal(t, DecisionLineValid, r.Decision)
}

func TestVerifyUnknownFileFailsFileExists(t *testing.T) {
	v, _ := newFixture(t)
	r := v.Verify(Citation{Raw: "`missing.go:1`", FilePath: "missing.go", Line: 1})
	assert.False(t, r.Verified)
	assert.Equal(t, DecisionFileExists, r.Decision)
}

func TestVerifyIdentifierMatch(t *testing.T) {
	v, _ := newFixture(t)
	r := v.Verify(Citation{Raw: "`Hello`", FilePath: "greet.go", Identifier: "Hello"})
	assert.True(t, r.Verified)
	assert.Equal(t, DecisionIdentifierMatch, r.Decision)
}

func TestVerifyContentMatchIgnoresWhitespace(t *testing.T) {
	v, _ := newFixture(t)
	r := v.Verify(Citation{Raw: "`snippet`", FilePath: "greet.go", Content: "return   \"hi \" +    name"})
	assert.True(t, r.Verified)
	assert.Equal(t, DecisionContentMatch, r.Decision)
}

func TestCorrectSuggestsNearestFilename(t *testing.T) {
	v, _ := newFixture(t)
	alt := v.Correct(Citation{Raw: "`greett.go:3`", FilePath: "greett.go", Line: 3})
	require.NotNil(t, alt)
	assert.Equal(t, "greet.go", *alt)
}

func TestCorrectReturnsNilBelowThreshold(t *testing.T) {
	v, _ := newFixture(t)
	alt := v.Correct(Citation{Raw: "`zzzzzzzzzz.go`", FilePath: "zzzzzzzzzz.go"})
	assert.Nil(t, alt)
}

func TestVerifyBatchEntirelyQuotedTextIsFullyVerified(t *testing.T) {
	v, _ := newFixture(t)
	text := "the function `Hello` at `greet.go:3` returns the greeting"
	result := v.VerifyBatch(text, BatchOptions{})
	assert.InDelta(t, 1.0, result.ValidationRate, 1e-9)
	assert.Empty(t, result.Warnings)
}

func TestVerifyBatchZeroCitationsIsFullyVerified(t *testing.T) {
	v, _ := newFixture(t)
	result := v.VerifyBatch("no code references here at all", BatchOptions{})
	assert.InDelta(t, 1.0, result.ValidationRate, 1e-9)
}

func TestVerifyBatchLowRateEmitsStrictWarning(t *testing.T) {
	v, _ := newFixture(t)
	text := "see `missing.go:1` and `alsoMissing.go:2`"
	result := v.VerifyBatch(text, BatchOptions{MinValidationRate: 0.9, Strict: true})
	assert.Less(t, result.ValidationRate, 0.9)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "strict:")
}

func TestExtractSymbolReferencesSkipsBuiltinsAndShellCommands(t *testing.T) {
	refs := ExtractSymbolReferences("run `git commit` then call Hello(name) and len(x)")
	var names []string
	for _, r := range refs {
		names = append(names, r.Identifier)
	}
	assert.Contains(t, names, "Hello")
	assert.NotContains(t, names, "git")
	assert.NotContains(t, names, "len")
}

func TestVerifySymbolsRunsCascadeOnExtractedReferences(t *testing.T) {
	v, _ := newFixture(t)
	result := v.VerifySymbols("the call to Hello(name) builds the greeting")
	require.NotEmpty(t, result.Results)
	assert.True(t, result.Results[0].Verified)
}

func TestParseDiffCoverageTracksNewLineRange(t *testing.T) {
	diffText := "diff --git a/greet.go b/greet.go\n" +
		"--- a/greet.go\n" +
		"+++ b/greet.go\n" +
		"@@ -1,3 +1,5 @@\n" +
		" package greet\n" +
		"+\n" +
		"+func Hello(name string) string {\n" +
		" func old() {}\n"

	coverage, err := ParseDiffCoverage(diffText)
	require.NoError(t, err)
	require.Len(t, coverage, 1)
	assert.Equal(t, "greet.go", coverage[0].Path)
	assert.True(t, coverage[0].Lines[1])
}

func TestVerifyAgainstDiffDemotesCitationOutsideHunk(t *testing.T) {
	v, _ := newFixture(t)
	coverage := []DiffCoverage{{Path: "greet.go", Lines: map[int]bool{10: true, 11: true}}}
	r := v.VerifyAgainstDiff(Citation{Raw: "`greet.go:3`", FilePath: "greet.go", Line: 3}, coverage)
	assert.False(t, r.Verified)
}

func TestVerifyAgainstDiffKeepsCitationInsideHunk(t *testing.T) {
	v, _ := newFixture(t)
	coverage := []DiffCoverage{{Path: "greet.go", Lines: map[int]bool{3: true}}}
	r := v.VerifyAgainstDiff(Citation{Raw: "`greet.go:3`", FilePath: "greet.go", Line: 3}, coverage)
	assert.True(t, r.Verified)
}
