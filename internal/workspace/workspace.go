// Package workspace resolves the repository root librarian operates on
// (spec §3 Workspace entity).
package workspace

import (
	"os"
	"path/filepath"
)

// markerFiles are canonical project markers that terminate the upward walk.
var markerFiles = []string{
	".git", "go.mod", "package.json", "pyproject.toml", "Cargo.toml", ".librarian",
}

// Resolve returns the absolute workspace root. If explicit is non-empty it
// is used directly (after validation that it exists and is a directory).
// Otherwise Resolve walks upward from the current working directory until a
// marker file/directory is found, falling back to the current directory.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", err
		}
		if !info.IsDir() {
			return "", os.ErrInvalid
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return walkUp(cwd), nil
}

func walkUp(start string) string {
	dir := start
	for {
		for _, marker := range markerFiles {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// LibrarianDir returns <workspace>/.librarian, creating it if needed.
func LibrarianDir(root string) (string, error) {
	dir := filepath.Join(root, ".librarian")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// IsSelfReferential reports whether root appears to be this project itself,
// detected via its own canonical marker file. Used only for C3's reporting
// flag, never to change behavior (spec glossary: Self-referential bootstrap).
func IsSelfReferential(root string) bool {
	if _, err := os.Stat(filepath.Join(root, "go.mod")); err != nil {
		return false
	}
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return false
	}
	return len(data) > 0 && filepath.Base(root) != "" && containsModuleLibrarian(data)
}

func containsModuleLibrarian(data []byte) bool {
	const want = "module librarian"
	s := string(data)
	return len(s) >= len(want) && s[:len(want)] == want
}
