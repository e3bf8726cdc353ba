package verify

import (
	"regexp"
	"strconv"
	"strings"
)

// Citation shapes are language-neutral: they key off punctuation and
// keywords common to prose about code, never a source language's own
// grammar (spec §4.5 "Citation extraction").
var (
	pathLineRe        = regexp.MustCompile("`([\\w./-]+\\.\\w+):(\\d+)`")
	pathNearLineRe    = regexp.MustCompile("`([\\w./-]+\\.\\w+)`[^`]{0,20}?line\\s+(\\d+)")
	identifierNearKwRe = regexp.MustCompile(`\b(?:function|method|func)\s+` + "`([A-Za-z_][A-Za-z0-9_]*)`")
	backtickedRe      = regexp.MustCompile("`([A-Za-z_][A-Za-z0-9_.]*)`")
)

// ExtractCitations finds every code reference in text (spec §4.5).
// Each Citation carries the original claim text (Raw).
func ExtractCitations(text string) []Citation {
	var out []Citation
	seen := map[string]bool{}
	// Dedup on what a citation points at, so one reference matched by two
	// patterns (e.g. "function `Hello`" and "`Hello`") is reported once.
	key := func(c Citation) string { return c.FilePath + ":" + strconv.Itoa(c.Line) + "#" + c.Identifier }

	for _, m := range pathLineRe.FindAllStringSubmatch(text, -1) {
		line, _ := strconv.Atoi(m[2])
		c := Citation{Raw: m[0], FilePath: m[1], Line: line}
		if !seen[key(c)] {
			seen[key(c)] = true
			out = append(out, c)
		}
	}
	for _, m := range pathNearLineRe.FindAllStringSubmatch(text, -1) {
		line, _ := strconv.Atoi(m[2])
		c := Citation{Raw: m[0], FilePath: m[1], Line: line}
		if !seen[key(c)] {
			seen[key(c)] = true
			out = append(out, c)
		}
	}
	for _, m := range identifierNearKwRe.FindAllStringSubmatch(text, -1) {
		c := Citation{Raw: m[0], Identifier: m[1]}
		if !seen[key(c)] {
			seen[key(c)] = true
			out = append(out, c)
		}
	}
	for _, m := range backtickedRe.FindAllStringSubmatch(text, -1) {
		if strings.Contains(m[1], ".") && looksLikePath(m[1]) {
			continue // path-shaped: left to the path patterns above, which match only with a line number
		}
		c := Citation{Raw: m[0], Identifier: m[1]}
		if !seen[key(c)] {
			seen[key(c)] = true
			out = append(out, c)
		}
	}
	return out
}

func looksLikePath(s string) bool {
	return strings.Contains(s, "/") || strings.Contains(s, "\\")
}
