package bootstrap

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"librarian/internal/extract"
	"librarian/internal/store"
)

var resolvableExts = []string{"", ".go", ".py", ".ts", ".tsx", ".js", ".jsx", ".rs", "/index.ts", "/index.js"}

// deriveImportEdges resolves relative import targets to other files in the
// same scan (spec §3: imports edges). Package-style imports that do not
// resolve to a workspace-relative path are skipped; they describe external
// dependencies, not intra-repo edges.
func deriveImportEdges(records []fileRecord) []store.GraphEdge {
	known := make(map[string]bool, len(records))
	for _, r := range records {
		known[r.rel] = true
	}

	var edges []store.GraphEdge
	for _, rec := range records {
		dir := filepath.Dir(rec.rel)
		for _, f := range rec.facts {
			if f.Kind != extract.FactImport || f.Details.Target == "" {
				continue
			}
			target := f.Details.Target
			if !strings.HasPrefix(target, ".") && !strings.HasPrefix(target, "/") {
				continue
			}
			resolved := resolveImport(dir, target, known)
			if resolved == "" || resolved == rec.rel {
				continue
			}
			edges = append(edges, store.GraphEdge{
				FromID: rec.rel, FromKind: store.EndpointFile,
				ToID: resolved, ToKind: store.EndpointFile,
				EdgeKind: store.EdgeImports, SourceFile: rec.rel, Confidence: 0.8,
			})
		}
	}
	return edges
}

func resolveImport(fromDir, target string, known map[string]bool) string {
	base := filepath.ToSlash(filepath.Clean(filepath.Join(fromDir, target)))
	for _, ext := range resolvableExts {
		candidate := base + ext
		if known[candidate] {
			return candidate
		}
	}
	return ""
}

// deriveCochangeEdges mines git history for files that were committed
// together across the last limit commits (SPEC_FULL.md §12: supplemented
// cochange edges), grounded on the teacher's git log --name-only parsing in
// internal/world/git_scanner.go.
func deriveCochangeEdges(ctx context.Context, root string, limit int) ([]store.GraphEdge, error) {
	cmd := exec.CommandContext(ctx, "git", "log", "--name-only", "--pretty=format:--commit--", "-n", strconv.Itoa(limit))
	cmd.Dir = root
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, err
	}

	counts := map[[2]string]int{}
	var cur []string
	flush := func() {
		sort.Strings(cur)
		for i := 0; i < len(cur); i++ {
			for j := i + 1; j < len(cur); j++ {
				key := [2]string{cur[i], cur[j]}
				counts[key]++
			}
		}
		cur = cur[:0]
	}

	scanner := bufio.NewScanner(&stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "--commit--" {
			flush()
			continue
		}
		cur = append(cur, filepath.ToSlash(line))
	}
	flush()

	var edges []store.GraphEdge
	for pair, n := range counts {
		if n < 2 {
			continue
		}
		confidence := float64(n) / float64(limit)
		if confidence > 1 {
			confidence = 1
		}
		edges = append(edges, store.GraphEdge{
			FromID: pair[0], FromKind: store.EndpointFile,
			ToID: pair[1], ToKind: store.EndpointFile,
			EdgeKind: store.EdgeCochange, SourceFile: pair[0], Confidence: confidence,
		})
	}
	return edges, nil
}

