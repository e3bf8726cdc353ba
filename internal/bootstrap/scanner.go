// Package bootstrap implements Bootstrap & Drift Detection (spec §4.3, C3):
// building the Knowledge Store from a workspace and deciding when it must
// be rebuilt, grounded on the teacher's scanner_config.go / incremental
// scan conventions (internal/world in codeNERD).
package bootstrap

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"librarian/internal/store"
)

// ScannerConfig controls workspace discovery (SPEC_FULL.md §13.3, open
// question 3: excluded directories are configurable).
type ScannerConfig struct {
	ExcludeDirs  []string
	MaxFileBytes int64
}

// Discover walks root and returns source file paths (relative to root, in
// lexicographic order), excluding the store directory and configured
// exclude patterns (spec §4.3 step 1).
func Discover(root string, cfg ScannerConfig) ([]string, error) {
	var out []string
	excluded := make(map[string]bool, len(cfg.ExcludeDirs)+1)
	excluded[".librarian"] = true
	for _, d := range cfg.ExcludeDirs {
		excluded[strings.Trim(filepath.ToSlash(d), "/")] = true
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if info.IsDir() {
			base := filepath.Base(rel)
			if excluded[base] || excluded[rel] {
				return filepath.SkipDir
			}
			return nil
		}
		base := filepath.Base(rel)
		for dir := range excluded {
			if dir != "" && (strings.HasPrefix(rel, dir+"/") || rel == dir) {
				return nil
			}
		}
		_ = base
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// Categorize assigns a File category from its path, spec §3.
func Categorize(rel string, recognizedCode bool) store.FileCategory {
	lower := strings.ToLower(rel)
	base := filepath.Base(lower)
	switch {
	case strings.Contains(base, "_test.") || strings.Contains(base, ".test.") || strings.HasPrefix(base, "test_") || strings.Contains(lower, "/tests/") || strings.Contains(lower, "/test/"):
		return store.CategoryTest
	case strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".rst") || strings.HasSuffix(lower, ".txt") || strings.Contains(lower, "/docs/"):
		return store.CategoryDocs
	case strings.HasSuffix(lower, ".sql") || strings.HasSuffix(lower, ".proto"):
		return store.CategorySchema
	case strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".toml") ||
		strings.HasSuffix(lower, ".ini") || base == ".env" || strings.HasSuffix(lower, ".json"):
		return store.CategoryConfig
	case strings.HasSuffix(lower, ".csv"):
		return store.CategoryData
	case recognizedCode:
		return store.CategoryCode
	default:
		return store.CategoryOther
	}
}
