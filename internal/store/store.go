package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"librarian/internal/errs"
	"librarian/internal/logging"
)

const metadataVersionKey = "version_fingerprint"

// Store is the Knowledge Store handle (spec §4.2, C2).
type Store struct {
	db     *sql.DB
	path   string
	vecExt bool

	writeSem      chan struct{} // single-writer token, grounded on teacher's mu sync.RWMutex
	lockTimeout   time.Duration
}

// Open opens (creating if absent) the store at dbPath. On first open it
// creates the schema tagged with the current Version Fingerprint; on
// subsequent opens it verifies the fingerprint's major/minor matches,
// failing with SCHEMA_INCOMPATIBLE on mismatch (spec §4.2).
func Open(dbPath string, lockTimeout time.Duration) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Open")
	defer timer.Stop()

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.Get(logging.CategoryStore).Debugw("failed to set busy_timeout", "error", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.Get(logging.CategoryStore).Debugw("failed to set journal_mode", "error", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.Get(logging.CategoryStore).Debugw("failed to set synchronous", "error", err)
	}

	s := &Store{
		db:          db,
		path:        dbPath,
		writeSem:    make(chan struct{}, 1),
		lockTimeout: lockTimeout,
	}
	s.writeSem <- struct{}{}

	first, err := s.isFreshDatabase()
	if err != nil {
		db.Close()
		return nil, err
	}

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	s.detectVecExtension()

	if first {
		fp := VersionFingerprint{
			SchemaMajor: SchemaMajor,
			SchemaMinor: SchemaMinor,
			SchemaPatch: SchemaPatch,
			QualityTier: TierPartial,
			IndexedAt:   time.Now().UTC(),
		}
		if err := s.writeVersionFingerprint(fp); err != nil {
			db.Close()
			return nil, err
		}
	} else {
		existing, err := s.GetVersion()
		if err != nil {
			db.Close()
			return nil, err
		}
		if existing.SchemaMajor != SchemaMajor || existing.SchemaMinor != SchemaMinor {
			db.Close()
			return nil, errs.Newf(errs.SchemaIncompatible,
				"store schema %d.%d incompatible with expected %d.%d",
				existing.SchemaMajor, existing.SchemaMinor, SchemaMajor, SchemaMinor)
		}
	}

	return s, nil
}

func (s *Store) isFreshDatabase() (bool, error) {
	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='metadata'").Scan(&name)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to probe schema: %w", err)
	}
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM metadata WHERE key = ?", metadataVersionKey).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to probe metadata: %w", err)
	}
	return count == 0, nil
}

// detectVecExtension probes for the sqlite-vec vec0 virtual table,
// mirroring the teacher's detectVecExtension.
func (s *Store) detectVecExtension() {
	if _, err := s.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS vec_probe USING vec0(embedding float[4])"); err == nil {
		s.vecExt = true
		_, _ = s.db.Exec("DROP TABLE IF EXISTS vec_probe")
		return
	}
	s.vecExt = false
	logging.Get(logging.CategoryStore).Warnw("sqlite-vec extension unavailable; embeddings stored without ANN search")
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB, for components (e.g. gates) that need
// direct access for fixture setup.
func (s *Store) DB() *sql.DB { return s.db }

// acquireWrite reserves the single-writer token, failing with
// STORAGE_LOCKED after lockTimeout (spec §4.2 concurrency invariant).
func (s *Store) acquireWrite() error {
	timeout := s.lockTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	select {
	case <-s.writeSem:
		return nil
	case <-time.After(timeout):
		return errs.New(errs.StorageLocked, "could not acquire store write lock before timeout")
	}
}

func (s *Store) releaseWrite() {
	s.writeSem <- struct{}{}
}

// Transaction executes fn under a single atomic unit, holding the
// workspace-scoped write lock for its duration. On error from fn, the
// transaction is rolled back and the error re-raised (spec §4.2).
func (s *Store) Transaction(fn func(tx *sql.Tx) error) error {
	if err := s.acquireWrite(); err != nil {
		return err
	}
	defer s.releaseWrite()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Get(logging.CategoryStore).Warnw("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Vacuum compacts storage (spec §4.2).
func (s *Store) Vacuum() error {
	_, err := s.db.Exec("VACUUM")
	return err
}

func (s *Store) writeVersionFingerprint(fp VersionFingerprint) error {
	data, err := json.Marshal(fp)
	if err != nil {
		return fmt.Errorf("failed to marshal version fingerprint: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT INTO metadata(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		metadataVersionKey, string(data),
	)
	return err
}

// SetVersion persists an updated Version Fingerprint (used by bootstrap at
// the end of a re-index, spec §4.3 step 5).
func (s *Store) SetVersion(fp VersionFingerprint) error {
	return s.writeVersionFingerprint(fp)
}

// GetVersion returns the current Version Fingerprint (spec §4.2 get_version).
func (s *Store) GetVersion() (VersionFingerprint, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", metadataVersionKey).Scan(&value)
	if err != nil {
		return VersionFingerprint{}, fmt.Errorf("failed to read version fingerprint: %w", err)
	}
	var fp VersionFingerprint
	if err := json.Unmarshal([]byte(value), &fp); err != nil {
		return VersionFingerprint{}, fmt.Errorf("failed to parse version fingerprint: %w", err)
	}
	return fp, nil
}

// GetMetadata returns all metadata key/value pairs (spec §4.2 get_metadata).
func (s *Store) GetMetadata() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// GetStats returns aggregate counts satisfying totalEmbeddings <=
// totalModules (spec §3, §8).
func (s *Store) GetStats() (Stats, error) {
	var stats Stats
	counts := []struct {
		table string
		dest  *int64
	}{
		{"files", &stats.TotalFiles},
		{"functions", &stats.TotalFunctions},
		{"modules", &stats.TotalModules},
		{"directories", &stats.TotalDirectories},
		{"graph_edges", &stats.TotalEdges},
		{"context_packs", &stats.TotalContextPacks},
		{"embeddings", &stats.TotalEmbeddings},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", c.table)).Scan(c.dest); err != nil {
			return Stats{}, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}
	stats.VectorExtension = s.vecExt
	return stats, nil
}
