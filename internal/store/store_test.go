package store

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "librarian.sqlite"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesSchemaAndFingerprint(t *testing.T) {
	s := openTestStore(t)
	fp, err := s.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, SchemaMajor, fp.SchemaMajor)
	assert.Equal(t, SchemaMinor, fp.SchemaMinor)
}

func TestReopenSameSchemaSucceeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "librarian.sqlite")
	s1, err := Open(path, time.Second)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path, time.Second)
	require.NoError(t, err)
	defer s2.Close()
	fp, err := s2.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, SchemaMajor, fp.SchemaMajor)
}

func TestFileRoundTrip(t *testing.T) {
	s := openTestStore(t)
	f := File{Path: "a/b.go", Checksum: "abc123", Category: CategoryCode, Role: "handler", Imports: []string{"fmt"}}
	require.NoError(t, s.Transaction(func(tx *sql.Tx) error { return UpsertFile(tx, f) }))

	got, err := s.GetFileByPath("a/b.go")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.Checksum, got.Checksum)
	assert.Equal(t, []string{"fmt"}, got.Imports)
}

func TestFunctionInvariants(t *testing.T) {
	s := openTestStore(t)
	fn := Function{ID: "fn1", Name: "Do", File: "a.go", StartLine: 3, EndLine: 10, Confidence: 0.9, FileChecksum: "x"}
	require.NoError(t, s.Transaction(func(tx *sql.Tx) error { return UpsertFunction(tx, fn) }))

	funcs, err := s.GetFunctionsByPath("a.go")
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	assert.GreaterOrEqual(t, funcs[0].EndLine, funcs[0].StartLine)
	assert.GreaterOrEqual(t, funcs[0].StartLine, 1)
}

func TestGraphEdgeRoundTrip(t *testing.T) {
	s := openTestStore(t)
	e := GraphEdge{FromID: "a.go", FromKind: EndpointFile, ToID: "b.go", ToKind: EndpointFile, EdgeKind: EdgeImports, Confidence: 1}
	require.NoError(t, s.Transaction(func(tx *sql.Tx) error { return UpsertGraphEdge(tx, e) }))

	edges, err := s.GetGraphEdges(EdgeFilter{EdgeKinds: []EdgeKind{EdgeImports}})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "a.go", edges[0].FromID)
	assert.Equal(t, "b.go", edges[0].ToID)
}

func TestEmbeddingRatioInvariant(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Transaction(func(tx *sql.Tx) error {
		if err := UpsertModule(tx, Module{Path: "pkg/a"}); err != nil {
			return err
		}
		return UpsertModule(tx, Module{Path: "pkg/b"})
	}))
	require.NoError(t, s.Transaction(func(tx *sql.Tx) error {
		return SetEmbedding(tx, "pkg/a", []float32{0.1, 0.2, 0.3})
	}))

	stats, err := s.GetStats()
	require.NoError(t, err)
	assert.LessOrEqual(t, stats.TotalEmbeddings, stats.TotalModules)
	assert.InDelta(t, 0.5, stats.EmbeddingRatio(), 1e-9)

	vec, err := s.GetEmbedding("pkg/a")
	require.NoError(t, err)
	require.Len(t, vec, 3)
	assert.InDelta(t, float64(0.2), float64(vec[1]), 1e-6)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	s := openTestStore(t)
	err := s.Transaction(func(tx *sql.Tx) error {
		if err := UpsertFile(tx, File{Path: "x.go", Checksum: "1", Category: CategoryCode}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	got, err := s.GetFileByPath("x.go")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVacuumDoesNotError(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Vacuum())
}
