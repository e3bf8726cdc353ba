package bootstrap

import (
	"path/filepath"
	"sort"

	"librarian/internal/extract"
	"librarian/internal/store"
)

// deriveModules groups extracted facts by directory into Module rows (spec
// §3: a Module is the directory-level unit with exports/dependencies).
func deriveModules(records []fileRecord, funcsByFile map[string][]store.Function) []store.Module {
	byDir := map[string]*store.Module{}
	order := []string{}

	get := func(dir string) *store.Module {
		if m, ok := byDir[dir]; ok {
			return m
		}
		m := &store.Module{Path: dir}
		byDir[dir] = m
		order = append(order, dir)
		return m
	}

	for _, rec := range records {
		if len(rec.facts) == 0 {
			continue
		}
		dir := filepath.ToSlash(filepath.Dir(rec.rel))
		if dir == "." {
			dir = ""
		}
		m := get(dir)

		for _, fn := range funcsByFile[rec.rel] {
			m.Exports = append(m.Exports, fn.Name)
		}
		for _, f := range rec.facts {
			if f.Kind == extract.FactClass && f.Details.Exported {
				m.Exports = append(m.Exports, f.Identifier)
			}
			if f.Kind == extract.FactImport && f.Details.Target != "" {
				m.Dependencies = append(m.Dependencies, f.Details.Target)
			}
		}
	}

	sort.Strings(order)
	out := make([]store.Module, 0, len(order))
	for _, dir := range order {
		m := byDir[dir]
		m.Exports = dedupSorted(m.Exports)
		m.Dependencies = dedupSorted(m.Dependencies)
		out = append(out, *m)
	}
	return out
}

func dedupSorted(xs []string) []string {
	if len(xs) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if x == "" || seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	sort.Strings(out)
	return out
}
