// Package store implements the Knowledge Store (spec §4.2, C2): durable,
// versioned SQLite storage for files, functions, modules, directories,
// graph edges, context packs, and embeddings, grounded on the teacher's
// internal/store/local_core.go (SQLite via mattn/go-sqlite3, WAL mode,
// single-writer/many-reader, a vec0 extension probe for embeddings).
package store

import "time"

// FileCategory classifies a File row (spec §3).
type FileCategory string

const (
	CategoryCode   FileCategory = "code"
	CategoryConfig FileCategory = "config"
	CategoryDocs   FileCategory = "docs"
	CategoryTest   FileCategory = "test"
	CategoryData   FileCategory = "data"
	CategorySchema FileCategory = "schema"
	CategoryOther  FileCategory = "other"
)

// File is the owned File entity (spec §3).
type File struct {
	Path       string
	Checksum   string
	Category   FileCategory
	Role       string
	Imports    []string
	ImportedBy []string
	UpdatedAt  time.Time
}

// Function is the owned Function entity (spec §3).
type Function struct {
	ID           string
	Name         string
	File         string
	StartLine    int
	EndLine      int
	Signature    string
	Purpose      string
	Confidence   float64
	FileChecksum string
}

// Module is the owned Module entity (spec §3).
type Module struct {
	Path         string
	Exports      []string
	Dependencies []string
	Purpose      string
}

// DirectoryRole classifies a Directory row (spec §3).
type DirectoryRole string

const (
	RoleFeature DirectoryRole = "feature"
	RoleLayer   DirectoryRole = "layer"
	RoleUtility DirectoryRole = "utility"
	RoleConfig  DirectoryRole = "config"
	RoleTests   DirectoryRole = "tests"
	RoleDocs    DirectoryRole = "docs"
	RoleRoot    DirectoryRole = "root"
	RoleOther   DirectoryRole = "other"
)

// Directory is the owned Directory entity (spec §3).
type Directory struct {
	Path    string
	Role    DirectoryRole
	Purpose string
}

// EdgeKind enumerates Graph Edge kinds (spec §3, §8).
type EdgeKind string

const (
	EdgeImports  EdgeKind = "imports"
	EdgeCalls    EdgeKind = "calls"
	EdgeExtends  EdgeKind = "extends"
	EdgeImplements EdgeKind = "implements"
	EdgeCochange EdgeKind = "cochange"
)

// EndpointKind identifies what kind of node a GraphEdge endpoint refers to.
type EndpointKind string

const (
	EndpointFile     EndpointKind = "file"
	EndpointFunction EndpointKind = "function"
	EndpointModule   EndpointKind = "module"
)

// GraphEdge is the owned Graph Edge entity (spec §3).
type GraphEdge struct {
	ID         int64
	FromID     string
	FromKind   EndpointKind
	ToID       string
	ToKind     EndpointKind
	EdgeKind   EdgeKind
	SourceFile string
	Confidence float64
}

// ContextPack is the owned Context Pack entity (spec §3).
type ContextPack struct {
	PackID       string
	PackType     string
	TargetID     string
	Summary      string
	KeyFacts     []string
	RelatedFiles []string
	CodeSnippets []string
	Confidence   float64
	CreatedAt    time.Time
	Version      VersionFingerprint
}

// QualityTier describes whether an index was fully or partially built.
type QualityTier string

const (
	TierFull    QualityTier = "full"
	TierPartial QualityTier = "partial"
)

// VersionFingerprint is the owned Version Fingerprint entity (spec §3).
type VersionFingerprint struct {
	SchemaMajor int
	SchemaMinor int
	SchemaPatch int
	QualityTier QualityTier
	IndexedAt   time.Time
	HeadCommit  string
}

// Stats summarizes store contents (spec §4.2 get_stats).
type Stats struct {
	TotalFiles       int64
	TotalFunctions   int64
	TotalModules     int64
	TotalDirectories int64
	TotalEdges       int64
	TotalContextPacks int64
	TotalEmbeddings  int64
	VectorExtension  bool
}

// EmbeddingRatio returns TotalEmbeddings/TotalModules, satisfying the
// invariant totalEmbeddings <= totalModules (spec §4.2, §8).
func (s Stats) EmbeddingRatio() float64 {
	if s.TotalModules == 0 {
		return 0
	}
	return float64(s.TotalEmbeddings) / float64(s.TotalModules)
}

// FileFilter narrows get_files results.
type FileFilter struct {
	Category FileCategory // empty = any
	PathLike string       // substring match, empty = any
}

// FunctionFilter narrows get_functions results.
type FunctionFilter struct {
	File     string // empty = any
	NameLike string // substring match, empty = any
}

// EdgeFilter narrows get_graph_edges results (spec §4.2).
type EdgeFilter struct {
	EdgeKinds []EdgeKind
	FromIDs   []string
	ToIDs     []string
	Limit     int
}
