package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// UpsertFile writes f inside tx (spec §4.3 bootstrap step 3: "Persist
// per-file records inside one transaction per file").
func UpsertFile(tx *sql.Tx, f File) error {
	_, err := tx.Exec(`INSERT INTO files(path, checksum, category, role, imports, imported_by, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			checksum=excluded.checksum, category=excluded.category, role=excluded.role,
			imports=excluded.imports, imported_by=excluded.imported_by, updated_at=CURRENT_TIMESTAMP`,
		f.Path, f.Checksum, f.Category, f.Role, marshalList(f.Imports), marshalList(f.ImportedBy))
	if err != nil {
		return fmt.Errorf("failed to upsert file %s: %w", f.Path, err)
	}
	return nil
}

// DeleteFile removes a file and its dependent rows (functions, edges whose
// source_file matches), used on re-bootstrap.
func DeleteFile(tx *sql.Tx, path string) error {
	if _, err := tx.Exec("DELETE FROM functions WHERE file = ?", path); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM graph_edges WHERE source_file = ?", path); err != nil {
		return err
	}
	_, err := tx.Exec("DELETE FROM files WHERE path = ?", path)
	return err
}

// UpsertFunction writes fn inside tx. Invariant (spec §3): exactly one
// function record per (file checksum, id) — the caller is responsible for
// deriving id deterministically from (file, name, start_line) so that
// re-bootstrapping unchanged source yields identical ids (spec §8
// round-trip law).
func UpsertFunction(tx *sql.Tx, fn Function) error {
	_, err := tx.Exec(`INSERT INTO functions(id, name, file, start_line, end_line, signature, purpose, confidence, file_checksum)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, file=excluded.file, start_line=excluded.start_line, end_line=excluded.end_line,
			signature=excluded.signature, purpose=excluded.purpose, confidence=excluded.confidence,
			file_checksum=excluded.file_checksum`,
		fn.ID, fn.Name, fn.File, fn.StartLine, fn.EndLine, fn.Signature, fn.Purpose, fn.Confidence, fn.FileChecksum)
	if err != nil {
		return fmt.Errorf("failed to upsert function %s: %w", fn.ID, err)
	}
	return nil
}

// UpsertModule writes m inside tx.
func UpsertModule(tx *sql.Tx, m Module) error {
	_, err := tx.Exec(`INSERT INTO modules(path, exports, dependencies, purpose) VALUES(?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET exports=excluded.exports, dependencies=excluded.dependencies, purpose=excluded.purpose`,
		m.Path, marshalList(m.Exports), marshalList(m.Dependencies), m.Purpose)
	if err != nil {
		return fmt.Errorf("failed to upsert module %s: %w", m.Path, err)
	}
	return nil
}

// UpsertDirectory writes d inside tx.
func UpsertDirectory(tx *sql.Tx, d Directory) error {
	_, err := tx.Exec(`INSERT INTO directories(path, role, purpose) VALUES(?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET role=excluded.role, purpose=excluded.purpose`,
		d.Path, d.Role, d.Purpose)
	if err != nil {
		return fmt.Errorf("failed to upsert directory %s: %w", d.Path, err)
	}
	return nil
}

// UpsertGraphEdge writes e inside tx. It does not check that the endpoints
// exist: spec §4.2 invariant (a) rests on callers deriving edges only after
// persisting their endpoints.
func UpsertGraphEdge(tx *sql.Tx, e GraphEdge) error {
	_, err := tx.Exec(`INSERT INTO graph_edges(from_id, from_kind, to_id, to_kind, edge_kind, source_file, confidence)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(from_id, from_kind, to_id, to_kind, edge_kind) DO UPDATE SET
			source_file=excluded.source_file, confidence=excluded.confidence`,
		e.FromID, e.FromKind, e.ToID, e.ToKind, e.EdgeKind, e.SourceFile, e.Confidence)
	if err != nil {
		return fmt.Errorf("failed to upsert graph edge: %w", err)
	}
	return nil
}

// UpsertContextPack writes p inside tx.
func UpsertContextPack(tx *sql.Tx, p ContextPack) error {
	versionJSON, err := json.Marshal(p.Version)
	if err != nil {
		return fmt.Errorf("failed to marshal version fingerprint: %w", err)
	}
	_, err = tx.Exec(`INSERT INTO context_packs(pack_id, pack_type, target_id, summary, key_facts, related_files,
			code_snippets, confidence, created_at, version_fingerprint)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pack_id) DO UPDATE SET
			pack_type=excluded.pack_type, target_id=excluded.target_id, summary=excluded.summary,
			key_facts=excluded.key_facts, related_files=excluded.related_files, code_snippets=excluded.code_snippets,
			confidence=excluded.confidence, version_fingerprint=excluded.version_fingerprint`,
		p.PackID, p.PackType, p.TargetID, p.Summary, marshalList(p.KeyFacts), marshalList(p.RelatedFiles),
		marshalList(p.CodeSnippets), p.Confidence, p.CreatedAt, string(versionJSON))
	if err != nil {
		return fmt.Errorf("failed to upsert context pack %s: %w", p.PackID, err)
	}
	return nil
}

// SetEmbedding stores a module's embedding vector. Invariant (spec §3, §8):
// totalEmbeddings <= totalModules — callers must have already upserted the
// module before calling this.
func SetEmbedding(tx *sql.Tx, moduleID string, vec []float32) error {
	_, err := tx.Exec(`INSERT INTO embeddings(module_id, vector, dims) VALUES(?, ?, ?)
		ON CONFLICT(module_id) DO UPDATE SET vector=excluded.vector, dims=excluded.dims`,
		moduleID, encodeFloat32s(vec), len(vec))
	if err != nil {
		return fmt.Errorf("failed to set embedding for %s: %w", moduleID, err)
	}
	return nil
}

func encodeFloat32s(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeFloat32s(blob []byte, dims int) []float32 {
	if dims <= 0 || len(blob) < dims*4 {
		return nil
	}
	out := make([]float32, dims)
	for i := 0; i < dims; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out
}
