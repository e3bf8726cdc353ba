package verify

import (
	"path/filepath"
	"strings"

	"librarian/internal/store"
)

const similarityThreshold = 0.5

// Correct suggests at most one replacement for an unverified citation
// (spec §4.5 "Correction strategy"), trying in order: the stored file path
// whose basename is most similar to the cited basename; the file of a
// function in the cited file whose name equals the cited identifier
// (case-insensitive); and the most similar function name in the cited
// file. The first and third tiers use Levenshtein similarity and accept
// only candidates above similarityThreshold. Suggestions carry no line
// number, and the filename tier returns the cited file itself when it is
// stored. Returns nil if no tier yields a candidate.
func (v *Verifier) Correct(c Citation) *string {
	if c.FilePath != "" {
		if alt := v.nearestFilename(c.FilePath); alt != "" {
			return &alt
		}
	}
	if c.Identifier != "" && c.FilePath != "" {
		if alt := v.nearestLineForIdentifier(c.FilePath, c.Identifier); alt != "" {
			return &alt
		}
	}
	if c.Identifier != "" {
		if alt := v.nearestIdentifier(c.Identifier, c.FilePath); alt != "" {
			return &alt
		}
	}
	return nil
}

func (v *Verifier) nearestFilename(target string) string {
	files, err := v.Store.GetFiles(store.FileFilter{}, "path", 0)
	if err != nil {
		return ""
	}
	targetBase := filepath.Base(target)
	best := ""
	bestSim := similarityThreshold
	for _, f := range files {
		sim := similarity(targetBase, filepath.Base(f.Path))
		if sim > bestSim {
			bestSim = sim
			best = f.Path
		}
	}
	return best
}

func (v *Verifier) nearestLineForIdentifier(file, identifier string) string {
	funcs, err := v.Store.GetFunctions(store.FunctionFilter{File: file})
	if err != nil {
		return ""
	}
	for _, fn := range funcs {
		if strings.EqualFold(fn.Name, identifier) {
			return fn.File
		}
	}
	return ""
}

func (v *Verifier) nearestIdentifier(target, file string) string {
	funcs, err := v.Store.GetFunctions(store.FunctionFilter{File: file})
	if err != nil {
		return ""
	}
	best := ""
	bestSim := similarityThreshold
	for _, fn := range funcs {
		sim := similarity(target, fn.Name)
		if sim > bestSim {
			bestSim = sim
			best = fn.Name
		}
	}
	return best
}

func similarity(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

// levenshtein computes classic edit distance via dynamic programming.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
