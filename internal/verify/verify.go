package verify

import (
	"os"
	"path/filepath"
	"strings"

	"librarian/internal/store"
)

// Verifier checks Citations against a workspace's on-disk files and its
// Knowledge Store (spec §4.5).
type Verifier struct {
	Workspace string
	Store     *store.Store
}

// Verify runs the four-tier decision cascade in priority order (spec
// §4.5): file_exists, line_valid, identifier_match, content_match.
func (v *Verifier) Verify(c Citation) Result {
	confidence := 0.9

	if c.FilePath != "" {
		f, err := v.Store.GetFileByPath(normalizePath(c.FilePath))
		if err != nil || f == nil {
			return Result{Citation: c, Verified: false, Decision: DecisionFileExists, Confidence: clamp(confidence - 0.2)}
		}
		confidence += 0.05 // exact file path match

		if c.Line > 0 {
			maxLine := v.maxLine(f.Path)
			if c.Line < 1 || (maxLine > 0 && c.Line > maxLine) {
				return Result{Citation: c, Verified: false, Decision: DecisionLineValid, Confidence: clamp(confidence - 0.1)}
			}
			confidence += 0.05 // exact line match
			return Result{Citation: c, Verified: true, Decision: DecisionLineValid, Confidence: clamp(confidence)}
		}

		if c.Identifier != "" {
			if v.identifierExistsInFile(f.Path, c.Identifier) {
				return Result{Citation: c, Verified: true, Decision: DecisionIdentifierMatch, Confidence: clamp(confidence)}
			}
			return Result{Citation: c, Verified: false, Decision: DecisionIdentifierMatch, Confidence: clamp(confidence - 0.1)}
		}

		if c.Content != "" {
			if v.contentMatchesFile(f.Path, c.Content) {
				return Result{Citation: c, Verified: true, Decision: DecisionContentMatch, Confidence: clamp(confidence)}
			}
			return Result{Citation: c, Verified: false, Decision: DecisionContentMatch, Confidence: clamp(confidence - 0.1)}
		}

		return Result{Citation: c, Verified: true, Decision: DecisionFileExists, Confidence: clamp(confidence)}
	}

	if c.Identifier != "" {
		if v.identifierExistsAnywhere(c.Identifier) {
			return Result{Citation: c, Verified: true, Decision: DecisionIdentifierMatch, Confidence: clamp(confidence)}
		}
		return Result{Citation: c, Verified: false, Decision: DecisionIdentifierMatch, Confidence: clamp(confidence - 0.1)}
	}

	return Result{Citation: c, Verified: false, Decision: DecisionUnverified, Confidence: 0}
}

func (v *Verifier) maxLine(relPath string) int {
	data, err := os.ReadFile(filepath.Join(v.Workspace, relPath))
	if err != nil {
		return 0
	}
	return strings.Count(string(data), "\n") + 1
}

func (v *Verifier) identifierExistsInFile(relPath, name string) bool {
	funcs, err := v.Store.GetFunctions(store.FunctionFilter{File: relPath})
	if err != nil {
		return false
	}
	for _, fn := range funcs {
		if fn.Name == name {
			return true
		}
	}
	return false
}

func (v *Verifier) identifierExistsAnywhere(name string) bool {
	funcs, err := v.Store.GetFunctions(store.FunctionFilter{NameLike: name})
	if err != nil {
		return false
	}
	for _, fn := range funcs {
		if fn.Name == name {
			return true
		}
	}
	return false
}

func (v *Verifier) contentMatchesFile(relPath, content string) bool {
	data, err := os.ReadFile(filepath.Join(v.Workspace, relPath))
	if err != nil {
		return false
	}
	normalized := normalizeWhitespace(string(data))
	return strings.Contains(normalized, normalizeWhitespace(content))
}

func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
