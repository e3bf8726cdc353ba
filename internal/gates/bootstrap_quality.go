package gates

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"librarian/internal/bootstrap"
	"librarian/internal/extract"
	"librarian/internal/query"
	"librarian/internal/store"
)

// Fixture is a tiny real repo copied into a temp workspace for a gate run
// (spec §4.6: "a real tiny repo per supported language").
type Fixture struct {
	Name             string
	SourceDir        string
	ExpectedFiles    int
	EmbeddingsWanted bool
}

// BootstrapQuality runs the Bootstrap Quality gate: for each fixture, copy
// to a temp workspace, bootstrap, and assert the spec §4.6 invariants.
func BootstrapQuality(ctx context.Context, fixtures []Fixture, maxDurationMs int64, embed bootstrap.EmbeddingProvider) Result {
	result := Result{Gate: "bootstrap_quality", Passed: true, MaxDurationMs: maxDurationMs}

	for _, fx := range fixtures {
		start := time.Now()
		scenario := ScenarioResult{Name: fx.Name}

		ok, findings := runBootstrapFixture(ctx, fx, embed)
		scenario.Passed = ok
		scenario.Findings = findings
		scenario.Duration = time.Since(start)

		result.Scenarios = append(result.Scenarios, scenario)
		result.Findings = append(result.Findings, findings...)
		if !ok {
			result.Passed = false
		}
		result.checkBudget(scenario.Duration)
	}
	return result
}

func runBootstrapFixture(ctx context.Context, fx Fixture, embed bootstrap.EmbeddingProvider) (bool, []Finding) {
	workDir, err := copyFixture(fx.SourceDir)
	if err != nil {
		return false, []Finding{{Severity: SeverityCritical, Message: "copy fixture: " + err.Error()}}
	}
	defer removeAll(workDir)

	st, err := store.Open(filepath.Join(workDir, ".librarian", "librarian.sqlite"), 5*time.Second)
	if err != nil {
		return false, []Finding{{Severity: SeverityCritical, Message: "open store: " + err.Error()}}
	}
	defer st.Close()

	res, err := bootstrap.Run(ctx, st, bootstrap.Options{
		Workspace:       workDir,
		Registry:        extract.DefaultRegistry(2 << 20),
		Scanner:         bootstrap.ScannerConfig{ExcludeDirs: []string{".git", ".librarian"}},
		VCS:             bootstrap.GitProbe{},
		Embedding:       embed,
		Workers:         2,
		SynthesizePacks: true,
	})
	if err != nil {
		return false, []Finding{{Severity: SeverityCritical, Message: "bootstrap: " + err.Error()}}
	}

	var findings []Finding
	ok := true

	if res.IndexedFiles != fx.ExpectedFiles {
		ok = false
		findings = append(findings, Finding{Severity: SeverityCritical,
			Message: fixtureMsg(fx.Name, "expected %d indexed files, got %d", fx.ExpectedFiles, res.IndexedFiles)})
	}
	if calls, err := st.GetGraphEdges(store.EdgeFilter{EdgeKinds: []store.EdgeKind{store.EdgeCalls}, Limit: 1}); err != nil || len(calls) == 0 {
		ok = false
		findings = append(findings, Finding{Severity: SeverityCritical, Message: fixtureMsg(fx.Name, "call graph has no edges")})
	}

	if fx.EmbeddingsWanted && embed != nil {
		modules, err := st.GetModules()
		if err != nil {
			ok = false
			findings = append(findings, Finding{Severity: SeverityCritical, Message: "list modules: " + err.Error()})
		} else {
			for _, m := range modules {
				vec, err := st.GetEmbedding(m.Path)
				if err != nil || len(vec) == 0 || vectorNorm(vec) == 0 {
					ok = false
					findings = append(findings, Finding{Severity: SeverityCritical,
						Message: fixtureMsg(fx.Name, "module %s missing or zero-norm embedding", m.Path)})
				}
			}
		}
	}

	p := &query.Pipeline{Store: st, Workspace: workDir, LibrarianDir: filepath.Join(workDir, ".librarian")}
	resp, err := p.Run(ctx, query.Request{Intent: "what does this project do", Depth: query.DepthL0, Limit: 5})
	if err != nil || len(resp.Packs) == 0 {
		ok = false
		findings = append(findings, Finding{Severity: SeverityCritical, Message: fixtureMsg(fx.Name, "generic intent returned no packs")})
	}

	return ok, findings
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return sum
}

func fixtureMsg(name, format string, args ...any) string {
	return name + ": " + fmt.Sprintf(format, args...)
}
