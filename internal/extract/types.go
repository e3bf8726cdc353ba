// Package extract implements the Fact Extractor (spec §4.1, C1): turning a
// source file's bytes into a stream of language-neutral Structural Facts.
// It is the single authoritative source of "what the code says" — the rest
// of the system trusts only facts produced here.
package extract

// FactKind enumerates the kinds of Structural Fact the extractor emits.
type FactKind string

const (
	FactFunctionDef FactKind = "function_def"
	FactClass       FactKind = "class"
	FactType        FactKind = "type"
	FactImport      FactKind = "import"
	FactExport      FactKind = "export"
	FactCall        FactKind = "call"
)

// Param is a (name, type) pair; Type may be empty for dynamically typed
// languages.
type Param struct {
	Name string
	Type string
}

// Details is the language-neutral payload carried by a Structural Fact.
// Not every field is populated for every FactKind.
type Details struct {
	// EndLine closes the span for function_def/class facts (1-based,
	// inclusive). Zero means "unknown"/single-line.
	EndLine int

	// Methods lists method signatures-as-strings, populated for class facts.
	Methods []string

	// Params and ReturnType describe a function_def's signature.
	Params     []Param
	ReturnType string

	// Flags.
	Async    bool
	Exported bool
	Abstract bool

	// Receiver is the method receiver type (Go) or containing class name.
	Receiver string

	// Target is the import/export path, or the full callee expression (for
	// example "fmt.Sprintf") for a call fact.
	Target string
}

// StructuralFact is one fact extracted from a source file.
type StructuralFact struct {
	Kind       FactKind
	Identifier string
	File       string
	// Line is 1-based and non-zero.
	Line    int
	Details Details
}

// Finding is a non-fatal extraction warning (spec §4.1 failure semantics,
// §7 PARSE_ERROR scoped to a file).
type Finding struct {
	File    string
	Message string
}
