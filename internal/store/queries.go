package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

func marshalList(xs []string) string {
	if len(xs) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(xs)
	return string(data)
}

func unmarshalList(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var out []string
	_ = json.Unmarshal([]byte(s.String), &out)
	return out
}

func scanFile(row interface {
	Scan(dest ...any) error
}) (File, error) {
	var f File
	var role sql.NullString
	var imports, importedBy sql.NullString
	if err := row.Scan(&f.Path, &f.Checksum, &f.Category, &role, &imports, &importedBy, &f.UpdatedAt); err != nil {
		return File{}, err
	}
	f.Role = role.String
	f.Imports = unmarshalList(imports)
	f.ImportedBy = unmarshalList(importedBy)
	return f, nil
}

// GetFileByPath returns the File row for path, spec §4.2 get_file_by_path.
func (s *Store) GetFileByPath(path string) (*File, error) {
	row := s.db.QueryRow(`SELECT path, checksum, category, role, imports, imported_by, updated_at
		FROM files WHERE path = ?`, path)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return &f, nil
}

// GetFiles returns files matching filter, ordered by the given column
// ("path" if empty), up to limit rows (0 = unlimited). Spec §4.2 get_files.
func (s *Store) GetFiles(filter FileFilter, order string, limit int) ([]File, error) {
	if order == "" {
		order = "path"
	}
	query := "SELECT path, checksum, category, role, imports, imported_by, updated_at FROM files WHERE 1=1"
	var args []any
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.PathLike != "" {
		query += " AND path LIKE ?"
		args = append(args, "%"+filter.PathLike+"%")
	}
	query += fmt.Sprintf(" ORDER BY %s", sanitizeColumn(order, "path"))
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()
	var out []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func sanitizeColumn(col, fallback string) string {
	allowed := map[string]bool{"path": true, "checksum": true, "updated_at": true, "category": true}
	if allowed[col] {
		return col
	}
	return fallback
}

func scanFunction(row interface{ Scan(dest ...any) error }) (Function, error) {
	var fn Function
	var sig, purpose sql.NullString
	if err := row.Scan(&fn.ID, &fn.Name, &fn.File, &fn.StartLine, &fn.EndLine, &sig, &purpose, &fn.Confidence, &fn.FileChecksum); err != nil {
		return Function{}, err
	}
	fn.Signature = sig.String
	fn.Purpose = purpose.String
	return fn, nil
}

// GetFunctions returns functions matching filter, spec §4.2 get_functions.
func (s *Store) GetFunctions(filter FunctionFilter) ([]Function, error) {
	query := `SELECT id, name, file, start_line, end_line, signature, purpose, confidence, file_checksum
		FROM functions WHERE 1=1`
	var args []any
	if filter.File != "" {
		query += " AND file = ?"
		args = append(args, filter.File)
	}
	if filter.NameLike != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+filter.NameLike+"%")
	}
	query += " ORDER BY file, start_line"
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query functions: %w", err)
	}
	defer rows.Close()
	var out []Function
	for rows.Next() {
		fn, err := scanFunction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fn)
	}
	return out, rows.Err()
}

// GetFunctionsByPath returns functions defined in the given file, spec §4.2
// get_functions_by_path.
func (s *Store) GetFunctionsByPath(path string) ([]Function, error) {
	return s.GetFunctions(FunctionFilter{File: path})
}

// GetModules returns all modules, spec §4.2 get_modules.
func (s *Store) GetModules() ([]Module, error) {
	rows, err := s.db.Query("SELECT path, exports, dependencies, purpose FROM modules ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()
	var out []Module
	for rows.Next() {
		var m Module
		var exports, deps, purpose sql.NullString
		if err := rows.Scan(&m.Path, &exports, &deps, &purpose); err != nil {
			return nil, err
		}
		m.Exports = unmarshalList(exports)
		m.Dependencies = unmarshalList(deps)
		m.Purpose = purpose.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetModuleByPath returns the module at path, spec §4.2 get_module_by_path.
func (s *Store) GetModuleByPath(path string) (*Module, error) {
	row := s.db.QueryRow("SELECT path, exports, dependencies, purpose FROM modules WHERE path = ?", path)
	var m Module
	var exports, deps, purpose sql.NullString
	if err := row.Scan(&m.Path, &exports, &deps, &purpose); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get module: %w", err)
	}
	m.Exports = unmarshalList(exports)
	m.Dependencies = unmarshalList(deps)
	m.Purpose = purpose.String
	return &m, nil
}

// GetDirectories returns all directories, spec §4.2 get_directories.
func (s *Store) GetDirectories() ([]Directory, error) {
	rows, err := s.db.Query("SELECT path, role, purpose FROM directories ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to query directories: %w", err)
	}
	defer rows.Close()
	var out []Directory
	for rows.Next() {
		var d Directory
		var purpose sql.NullString
		if err := rows.Scan(&d.Path, &d.Role, &purpose); err != nil {
			return nil, err
		}
		d.Purpose = purpose.String
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanEdge(row interface{ Scan(dest ...any) error }) (GraphEdge, error) {
	var e GraphEdge
	var src sql.NullString
	if err := row.Scan(&e.ID, &e.FromID, &e.FromKind, &e.ToID, &e.ToKind, &e.EdgeKind, &src, &e.Confidence); err != nil {
		return GraphEdge{}, err
	}
	e.SourceFile = src.String
	return e, nil
}

// GetGraphEdges returns edges matching filter, spec §4.2 get_graph_edges.
func (s *Store) GetGraphEdges(filter EdgeFilter) ([]GraphEdge, error) {
	query := `SELECT id, from_id, from_kind, to_id, to_kind, edge_kind, source_file, confidence
		FROM graph_edges WHERE 1=1`
	var args []any
	if len(filter.EdgeKinds) > 0 {
		placeholders := make([]string, len(filter.EdgeKinds))
		for i, k := range filter.EdgeKinds {
			placeholders[i] = "?"
			args = append(args, k)
		}
		query += " AND edge_kind IN (" + strings.Join(placeholders, ",") + ")"
	}
	if len(filter.FromIDs) > 0 {
		placeholders := make([]string, len(filter.FromIDs))
		for i, id := range filter.FromIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += " AND from_id IN (" + strings.Join(placeholders, ",") + ")"
	}
	if len(filter.ToIDs) > 0 {
		placeholders := make([]string, len(filter.ToIDs))
		for i, id := range filter.ToIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += " AND to_id IN (" + strings.Join(placeholders, ",") + ")"
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query graph edges: %w", err)
	}
	defer rows.Close()
	var out []GraphEdge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetCochangeEdges returns only cochange edges, spec §4.2 get_cochange_edges.
func (s *Store) GetCochangeEdges(limit int) ([]GraphEdge, error) {
	return s.GetGraphEdges(EdgeFilter{EdgeKinds: []EdgeKind{EdgeCochange}, Limit: limit})
}

// GetContextPacks returns context packs whose target is targetID, or all
// packs if targetID is empty. Spec §4.2 get_context_packs.
func (s *Store) GetContextPacks(targetID string) ([]ContextPack, error) {
	query := `SELECT pack_id, pack_type, target_id, summary, key_facts, related_files, code_snippets,
		confidence, created_at, version_fingerprint FROM context_packs WHERE 1=1`
	var args []any
	if targetID != "" {
		query += " AND target_id = ?"
		args = append(args, targetID)
	}
	query += " ORDER BY pack_id"
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query context packs: %w", err)
	}
	defer rows.Close()
	var out []ContextPack
	for rows.Next() {
		var p ContextPack
		var summary, keyFacts, relatedFiles, snippets, versionJSON sql.NullString
		if err := rows.Scan(&p.PackID, &p.PackType, &p.TargetID, &summary, &keyFacts, &relatedFiles, &snippets,
			&p.Confidence, &p.CreatedAt, &versionJSON); err != nil {
			return nil, err
		}
		p.Summary = summary.String
		p.KeyFacts = unmarshalList(keyFacts)
		p.RelatedFiles = unmarshalList(relatedFiles)
		p.CodeSnippets = unmarshalList(snippets)
		if versionJSON.Valid {
			_ = json.Unmarshal([]byte(versionJSON.String), &p.Version)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetEmbedding returns the stored embedding vector for moduleID, or nil if
// none is stored. Spec §4.2 get_embedding.
func (s *Store) GetEmbedding(moduleID string) ([]float32, error) {
	var blob []byte
	var dims int
	err := s.db.QueryRow("SELECT vector, dims FROM embeddings WHERE module_id = ?", moduleID).Scan(&blob, &dims)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}
	return decodeFloat32s(blob, dims), nil
}
