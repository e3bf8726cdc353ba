package query

import "regexp"

// traceMarker matches the internal trace-annotation pattern the pipeline
// must strip from any user-visible string (spec §4.4 step 7):
// "unverified_by_trace(<code>): <tail>".
var traceMarker = regexp.MustCompile(`unverified_by_trace\(([^)]*)\):\s*(.*)`)

// SanitizeProse rewrites trace markers to their tail text, for prose
// fields (summaries, synthesis text).
func SanitizeProse(s string) string {
	return traceMarker.ReplaceAllString(s, "$2")
}

// SanitizeID rewrites trace markers to their code, for id-like fields
// (e.g. traceId).
func SanitizeID(s string) string {
	return traceMarker.ReplaceAllString(s, "$1")
}
