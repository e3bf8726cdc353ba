package gates

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"librarian/internal/bootstrap"
	"librarian/internal/extract"
	"librarian/internal/query"
	"librarian/internal/store"
)

// RelevanceCase is a single (intent, expected-file-set, expected-concept-set)
// triple evaluated against one fixture (spec §4.6 "Query Relevance").
type RelevanceCase struct {
	Intent          string
	ExpectedFiles   []string
	ExpectedConcepts []string
}

// QueryRelevance runs a fixture through bootstrap, issues every case's
// intent, and asserts file/concept coverage ratios.
func QueryRelevance(ctx context.Context, fx Fixture, cases []RelevanceCase, maxDurationMs int64) Result {
	result := Result{Gate: "query_relevance", Passed: true, MaxDurationMs: maxDurationMs}
	start := time.Now()

	workDir, err := copyFixture(fx.SourceDir)
	if err != nil {
		result.Passed = false
		result.addFinding(SeverityCritical, "copy fixture: %v", err)
		return result
	}
	defer removeAll(workDir)

	st, err := store.Open(filepath.Join(workDir, ".librarian", "librarian.sqlite"), 5*time.Second)
	if err != nil {
		result.Passed = false
		result.addFinding(SeverityCritical, "open store: %v", err)
		return result
	}
	defer st.Close()

	if _, err := bootstrap.Run(ctx, st, bootstrap.Options{
		Workspace: workDir,
		Registry:  extract.DefaultRegistry(2 << 20),
		Scanner:   bootstrap.ScannerConfig{ExcludeDirs: []string{".git", ".librarian"}},
		VCS:       bootstrap.GitProbe{},
		Workers:   2,
	}); err != nil {
		result.Passed = false
		result.addFinding(SeverityCritical, "bootstrap: %v", err)
		return result
	}

	p := &query.Pipeline{Store: st, Workspace: workDir, LibrarianDir: filepath.Join(workDir, ".librarian")}

	for _, c := range cases {
		scenario := ScenarioResult{Name: c.Intent}
		scenStart := time.Now()

		resp, err := p.Run(ctx, query.Request{Intent: c.Intent, Depth: query.DepthL1, Limit: 10})
		scenario.Duration = time.Since(scenStart)
		if err != nil {
			scenario.Passed = false
			scenario.Findings = append(scenario.Findings, Finding{Severity: SeverityCritical, Message: c.Intent + ": " + err.Error()})
			result.Passed = false
			result.Scenarios = append(result.Scenarios, scenario)
			continue
		}

		fileRatio := coverageRatio(c.ExpectedFiles, packFiles(resp.Packs))
		conceptRatio := coverageRatio(c.ExpectedConcepts, packText(resp.Packs))

		scenario.Passed = fileRatio >= 0.5 && conceptRatio >= 0.5
		if fileRatio < 0.5 {
			scenario.Findings = append(scenario.Findings, Finding{Severity: SeverityWarning,
				Message: c.Intent + ": file coverage below 0.5"})
		}
		if conceptRatio < 0.5 {
			scenario.Findings = append(scenario.Findings, Finding{Severity: SeverityWarning,
				Message: c.Intent + ": concept coverage below 0.5"})
		}
		if !scenario.Passed {
			result.Passed = false
		}
		result.Findings = append(result.Findings, scenario.Findings...)
		result.Scenarios = append(result.Scenarios, scenario)
	}

	result.checkBudget(time.Since(start))
	return result
}

func packFiles(packs []store.ContextPack) []string {
	var out []string
	for _, p := range packs {
		out = append(out, p.RelatedFiles...)
		out = append(out, p.TargetID)
	}
	return out
}

func packText(packs []store.ContextPack) []string {
	var out []string
	for _, p := range packs {
		out = append(out, strings.ToLower(p.Summary))
		for _, f := range p.KeyFacts {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}

// coverageRatio reports the fraction of expected items found as a
// substring of any haystack entry.
func coverageRatio(expected []string, haystack []string) float64 {
	if len(expected) == 0 {
		return 1.0
	}
	hit := 0
	for _, want := range expected {
		for _, have := range haystack {
			if strings.Contains(strings.ToLower(have), strings.ToLower(want)) {
				hit++
				break
			}
		}
	}
	return float64(hit) / float64(len(expected))
}
