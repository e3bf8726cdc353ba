package store

// Current schema version, tagged into metadata on first open (spec §4.2).
// A major/minor mismatch on subsequent opens fails with SCHEMA_INCOMPATIBLE.
const (
	SchemaMajor = 1
	SchemaMinor = 0
	SchemaPatch = 0
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS files (
		path TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		category TEXT NOT NULL,
		role TEXT,
		imports TEXT,
		imported_by TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_files_category ON files(category)`,

	`CREATE TABLE IF NOT EXISTS functions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		file TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		signature TEXT,
		purpose TEXT,
		confidence REAL NOT NULL DEFAULT 0,
		file_checksum TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_functions_file ON functions(file)`,
	`CREATE INDEX IF NOT EXISTS idx_functions_name ON functions(name)`,

	`CREATE TABLE IF NOT EXISTS modules (
		path TEXT PRIMARY KEY,
		exports TEXT,
		dependencies TEXT,
		purpose TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS directories (
		path TEXT PRIMARY KEY,
		role TEXT,
		purpose TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS graph_edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_id TEXT NOT NULL,
		from_kind TEXT NOT NULL,
		to_id TEXT NOT NULL,
		to_kind TEXT NOT NULL,
		edge_kind TEXT NOT NULL,
		source_file TEXT,
		confidence REAL NOT NULL DEFAULT 0,
		UNIQUE(from_id, from_kind, to_id, to_kind, edge_kind)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_from ON graph_edges(from_id)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_to ON graph_edges(to_id)`,
	`CREATE INDEX IF NOT EXISTS idx_edges_kind ON graph_edges(edge_kind)`,

	`CREATE TABLE IF NOT EXISTS context_packs (
		pack_id TEXT PRIMARY KEY,
		pack_type TEXT NOT NULL,
		target_id TEXT NOT NULL,
		summary TEXT,
		key_facts TEXT,
		related_files TEXT,
		code_snippets TEXT,
		confidence REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		version_fingerprint TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_packs_target ON context_packs(target_id)`,

	`CREATE TABLE IF NOT EXISTS embeddings (
		module_id TEXT PRIMARY KEY,
		vector BLOB NOT NULL,
		dims INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}
