package verify

import (
	"path/filepath"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// DiffCoverage reports, for a single changed file, which new-side line
// numbers a unified diff actually touches (spec §4.5 "--verify-against-diff").
type DiffCoverage struct {
	Path  string
	Lines map[int]bool
}

// ParseDiffCoverage parses a unified diff (as produced by `git diff`) into
// per-file line coverage, grounded on the teacher's own go-diff usage
// (services/trace/diff/parse.go's parseUnifiedDiff/ParseMultiFileDiff).
func ParseDiffCoverage(diffText string) ([]DiffCoverage, error) {
	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(diffText))
	if err != nil {
		return nil, err
	}

	out := make([]DiffCoverage, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		path := cleanDiffPath(fd.NewName)
		if path == "" || path == "/dev/null" {
			continue
		}
		lines := map[int]bool{}
		for _, h := range fd.Hunks {
			start := int(h.NewStartLine)
			n := int(h.NewLines)
			for i := 0; i < n; i++ {
				lines[start+i] = true
			}
		}
		out = append(out, DiffCoverage{Path: path, Lines: lines})
	}
	return out, nil
}

func cleanDiffPath(name string) string {
	name = strings.TrimPrefix(name, "a/")
	name = strings.TrimPrefix(name, "b/")
	return filepath.ToSlash(name)
}

func findCoverage(cs []DiffCoverage, path string) (DiffCoverage, bool) {
	for _, c := range cs {
		if c.Path == path || filepath.Base(c.Path) == filepath.Base(path) {
			return c, true
		}
	}
	return DiffCoverage{}, false
}

// VerifyAgainstDiff narrows verification to citations whose line falls
// inside a hunk the diff actually changed (spec §4.5): a citation that
// passes the ordinary four-tier cascade but points at a line the diff never
// touched is demoted to unverified, since the claim is not attributable to
// the change under review.
func (v *Verifier) VerifyAgainstDiff(c Citation, coverage []DiffCoverage) Result {
	r := v.Verify(c)
	if !r.Verified || c.FilePath == "" || c.Line <= 0 {
		return r
	}

	cov, ok := findCoverage(coverage, normalizePath(c.FilePath))
	if !ok {
		return Result{Citation: c, Verified: false, Decision: DecisionUnverified, Confidence: 0}
	}
	if !cov.Lines[c.Line] {
		return Result{Citation: c, Verified: false, Decision: DecisionLineValid, Confidence: clamp(r.Confidence - 0.3)}
	}
	return r
}

// VerifyBatchAgainstDiff runs VerifyAgainstDiff over every citation found in
// text, mirroring VerifyBatch's aggregation.
func (v *Verifier) VerifyBatchAgainstDiff(text, diffText string, opts BatchOptions) (BatchResult, error) {
	coverage, err := ParseDiffCoverage(diffText)
	if err != nil {
		return BatchResult{}, err
	}

	citations := ExtractCitations(text)
	results := make([]Result, 0, len(citations))
	verified := 0
	for _, c := range citations {
		r := v.VerifyAgainstDiff(c, coverage)
		if !r.Verified && opts.ApplyCorrections {
			r.Correction = v.Correct(c)
		}
		if r.Verified {
			verified++
		}
		results = append(results, r)
	}

	rate := 1.0
	if len(citations) > 0 {
		rate = float64(verified) / float64(len(citations))
	}

	var warnings []string
	if opts.MinValidationRate > 0 && rate < opts.MinValidationRate {
		warnings = append(warnings, "citations fall outside the reviewed diff")
	}

	return BatchResult{Results: results, ValidationRate: rate, Warnings: warnings}, nil
}
