// Package verify implements the Citation & Symbol Verifier (spec §4.5,
// C5): confirming that textual answers containing code references are
// grounded in the Knowledge Store, grounded on the teacher's patch/diff
// validation machinery (services/code_buddy/validate/patch.go,
// services/trace/diff/parse.go) generalized from patch-application
// checking to citation verification.
package verify

// Decision is the verification tier that produced a result, in priority
// order (spec §4.5).
type Decision string

const (
	DecisionFileExists      Decision = "file_exists"
	DecisionLineValid       Decision = "line_valid"
	DecisionIdentifierMatch Decision = "identifier_match"
	DecisionContentMatch    Decision = "content_match"
	DecisionUnverified      Decision = "unverified"
)

// Citation is a single extracted code reference (spec §4.5).
type Citation struct {
	Raw        string
	FilePath   string
	Line       int
	Identifier string
	Content    string
}

// Result is a single Verification Result (spec §4.5).
type Result struct {
	Citation   Citation
	Verified   bool
	Decision   Decision
	Confidence float64
	Correction *string
}

// BatchResult is the outcome of verifying every citation in a response
// string (spec §4.5 "Batch pipeline").
type BatchResult struct {
	Results        []Result
	ValidationRate float64
	Warnings       []string
}
