package verify

import "regexp"

// Symbol reference shapes, each orthogonal to the backtick-prose patterns
// in extract.go: a call site, a constructor, a method invocation, an
// import, a type annotation, or a CONSTANT_CASE identifier (spec §4.5
// "Symbol verifier").
var (
	callRe       = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\(`)
	constructRe  = regexp.MustCompile(`\bnew\s+([A-Z][A-Za-z0-9_]*)\(`)
	methodCallRe = regexp.MustCompile(`\b([A-Z][A-Za-z0-9_]*)\.([a-zA-Z_][A-Za-z0-9_]*)\(`)
	importRe     = regexp.MustCompile(`\bimport\s+[^\n]*?\b([A-Za-z_][A-Za-z0-9_]*)\b`)
	typeAnnotRe  = regexp.MustCompile(`:\s*([A-Z][A-Za-z0-9_]*)\b`)
	constantRe   = regexp.MustCompile(`\b([A-Z][A-Z0-9]*(?:_[A-Z0-9]+)+)\b`)
)

// builtins are common built-in calls/keywords across the languages the
// extractor is language-neutral for; these never count as citations since
// they do not resolve to anything in a Knowledge Store.
var builtins = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "return": true,
	"print": true, "println": true, "len": true, "append": true, "make": true,
	"range": true, "func": true, "def": true, "class": true, "new": true,
	"require": true, "import": true, "console": true, "true": true, "false": true,
}

// shellCommands are excluded from symbol extraction so that prose quoting
// a shell invocation (e.g. "run `go test(...)`" is rare, but `git commit`,
// `npm install`) is never mistaken for a code symbol.
var shellCommands = map[string]bool{
	"git": true, "npm": true, "go": true, "curl": true, "docker": true,
	"make": true, "bash": true, "sh": true, "python": true, "node": true,
}

// ExtractSymbolReferences finds function/method/constructor/import/type/
// constant references in text using patterns orthogonal to ExtractCitations'
// backtick-prose patterns (spec §4.5).
func ExtractSymbolReferences(text string) []Citation {
	seen := map[string]bool{}
	var out []Citation

	add := func(raw, ident string) {
		if ident == "" || builtins[ident] || shellCommands[ident] || seen[raw] {
			return
		}
		seen[raw] = true
		out = append(out, Citation{Raw: raw, Identifier: ident})
	}

	for _, m := range callRe.FindAllStringSubmatch(text, -1) {
		add(m[0], m[1])
	}
	for _, m := range constructRe.FindAllStringSubmatch(text, -1) {
		add(m[0], m[1])
	}
	for _, m := range methodCallRe.FindAllStringSubmatch(text, -1) {
		add(m[0], m[1])
		add(m[0], m[2])
	}
	for _, m := range importRe.FindAllStringSubmatch(text, -1) {
		add(m[0], m[1])
	}
	for _, m := range typeAnnotRe.FindAllStringSubmatch(text, -1) {
		add(m[0], m[1])
	}
	for _, m := range constantRe.FindAllStringSubmatch(text, -1) {
		add(m[0], m[1])
	}
	return out
}

// VerifySymbols applies the citation cascade to every symbol reference
// found in text, reusing the same decision machinery as VerifyBatch
// (spec §4.5: "Symbol verifier uses the same machinery...").
func (v *Verifier) VerifySymbols(text string) BatchResult {
	refs := ExtractSymbolReferences(text)
	results := make([]Result, 0, len(refs))
	verified := 0
	for _, c := range refs {
		r := v.Verify(c)
		if r.Verified {
			verified++
		}
		results = append(results, r)
	}

	rate := 1.0
	if len(refs) > 0 {
		rate = float64(verified) / float64(len(refs))
	}
	return BatchResult{Results: results, ValidationRate: rate}
}
