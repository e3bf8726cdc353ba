package verify

import "fmt"

// BatchOptions controls VerifyBatch (spec §4.5 "Batch pipeline").
type BatchOptions struct {
	ApplyCorrections bool
	MinValidationRate float64
	Strict           bool
}

// VerifyBatch extracts, verifies, and optionally corrects every citation
// in text, reporting an aggregate validation rate (spec §4.5).
func (v *Verifier) VerifyBatch(text string, opts BatchOptions) BatchResult {
	citations := ExtractCitations(text)
	results := make([]Result, 0, len(citations))
	verified := 0

	for _, c := range citations {
		r := v.Verify(c)
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
		msg := fmt.Sprintf("validation rate %.2f is below minimum %.2f", rate, opts.MinValidationRate)
		if opts.Strict {
			msg = "strict: " + msg
		}
		warnings = append(warnings, msg)
	}
	for _, r := range results {
		if !r.Verified && r.Correction == nil {
			warnings = append(warnings, fmt.Sprintf("uncorrectable citation: %q", r.Citation.Raw))
		}
	}

	return BatchResult{Results: results, ValidationRate: rate, Warnings: warnings}
}
