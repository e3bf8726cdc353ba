package extract

// DefaultRegistry builds the Registry covering every extension in spec
// §4.1's recognized set: tree-sitter backed extraction for Go, Python,
// JavaScript, TypeScript, and Rust; heuristic line-scanning for the rest
// (§11.1 of SPEC_FULL.md).
func DefaultRegistry(maxFileBytes int64) *Registry {
	r := NewRegistry(maxFileBytes)
	r.Register(NewGoExtractor())
	r.Register(NewPythonExtractor())
	r.Register(NewJavaScriptExtractor())
	r.Register(NewTypeScriptExtractor())
	r.Register(NewRustExtractor())
	for _, e := range newHeuristicExtractors() {
		r.Register(e)
	}
	return r
}
