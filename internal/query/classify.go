package query

import "strings"

var enumerationPhrases = []string{"list all", "list every", "enumerate all", "enumerate every", "show all"}
var structuralPhrases = []string{"who calls", "who imports", "who depends on", "callers of", "callees of", "what calls", "what imports", "depends on"}

// Classify detects whether intent is an enumeration, a structural
// dependency query, or general retrieval (spec §4.4 step 2).
func Classify(intent string) Mode {
	lower := strings.ToLower(intent)
	for _, p := range enumerationPhrases {
		if strings.Contains(lower, p) {
			return ModeEnumeration
		}
	}
	for _, p := range structuralPhrases {
		if strings.Contains(lower, p) {
			return ModeStructural
		}
	}
	return ModeGeneral
}

// structuralTarget extracts the identifier a structural query is asking
// about, e.g. "who calls Greet" -> "Greet". Returns "" if none found.
func structuralTarget(intent string) string {
	lower := strings.ToLower(intent)
	for _, p := range structuralPhrases {
		if idx := strings.Index(lower, p); idx >= 0 {
			rest := strings.TrimSpace(intent[idx+len(p):])
			rest = strings.TrimSuffix(rest, "?")
			fields := strings.Fields(rest)
			if len(fields) > 0 {
				return fields[0]
			}
		}
	}
	return ""
}

// intentTokens tokenizes an intent into lowercase words for lexical
// scoring, dropping very short stopword-like tokens.
func intentTokens(intent string) []string {
	fields := strings.FieldsFunc(strings.ToLower(intent), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		out = append(out, f)
	}
	return out
}
