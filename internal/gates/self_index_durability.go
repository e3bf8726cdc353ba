package gates

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"librarian/internal/bootstrap"
	"librarian/internal/extract"
	"librarian/internal/query"
	"librarian/internal/store"
)

// DurabilityScenario is one of the git-history mutations the Self-Index
// Durability gate rehearses (spec §4.6): {branch_switch, rebase,
// history_rewrite}.
type DurabilityScenario string

const (
	ScenarioBranchSwitch  DurabilityScenario = "branch_switch"
	ScenarioRebase        DurabilityScenario = "rebase"
	ScenarioHistoryRewrite DurabilityScenario = "history_rewrite"
)

// SelfIndexDurability seeds a fixture repo, mutates its git history per
// scenario, and asserts the drift check and re-bootstrap round-trip
// described in spec §4.6.
func SelfIndexDurability(ctx context.Context, fx Fixture, scenarios []DurabilityScenario, maxDurationMs int64) Result {
	result := Result{Gate: "self_index_durability", Passed: true, MaxDurationMs: maxDurationMs}

	for _, scn := range scenarios {
		start := time.Now()
		scenario := ScenarioResult{Name: string(scn)}

		ok, findings := runDurabilityScenario(ctx, fx, scn)
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

func runDurabilityScenario(ctx context.Context, fx Fixture, scn DurabilityScenario) (bool, []Finding) {
	workDir, err := copyFixture(fx.SourceDir)
	if err != nil {
		return false, []Finding{{Severity: SeverityCritical, Message: "copy fixture: " + err.Error()}}
	}
	defer removeAll(workDir)

	if err := seedGitRepo(workDir); err != nil {
		return false, []Finding{{Severity: SeverityCritical, Message: "seed git repo: " + err.Error()}}
	}

	dbPath := filepath.Join(workDir, ".librarian", "librarian.sqlite")
	st, err := store.Open(dbPath, 5*time.Second)
	if err != nil {
		return false, []Finding{{Severity: SeverityCritical, Message: "open store: " + err.Error()}}
	}
	defer st.Close()

	scanner := bootstrap.ScannerConfig{ExcludeDirs: []string{".git", ".librarian"}}
	vcs := bootstrap.GitProbe{}

	if _, err := bootstrap.Run(ctx, st, bootstrap.Options{
		Workspace: workDir, Registry: extract.DefaultRegistry(2 << 20), Scanner: scanner, VCS: vcs, Workers: 2,
	}); err != nil {
		return false, []Finding{{Severity: SeverityCritical, Message: "initial bootstrap: " + err.Error()}}
	}

	if err := mutateGitHistory(workDir, scn); err != nil {
		return false, []Finding{{Severity: SeverityCritical, Message: "mutate history: " + err.Error()}}
	}

	report, err := bootstrap.IsBootstrapRequired(ctx, workDir, st, scanner, vcs)
	if err != nil {
		return false, []Finding{{Severity: SeverityCritical, Message: "drift check: " + err.Error()}}
	}

	var findings []Finding
	ok := true
	if !report.Required {
		ok = false
		findings = append(findings, Finding{Severity: SeverityCritical, Message: "drift check did not detect " + string(scn)})
	} else if !strings.Contains(report.Reason, "git HEAD") || !strings.Contains(report.Reason, "--force") {
		ok = false
		findings = append(findings, Finding{Severity: SeverityCritical, Message: "drift reason missing required phrases: " + report.Reason})
	}

	if _, err := bootstrap.Run(ctx, st, bootstrap.Options{
		Workspace: workDir, Registry: extract.DefaultRegistry(2 << 20), Scanner: scanner, VCS: vcs, Workers: 2,
	}); err != nil {
		ok = false
		findings = append(findings, Finding{Severity: SeverityCritical, Message: "re-bootstrap: " + err.Error()})
	}

	postReport, err := bootstrap.IsBootstrapRequired(ctx, workDir, st, scanner, vcs)
	if err != nil || postReport.Required {
		ok = false
		findings = append(findings, Finding{Severity: SeverityCritical, Message: "post-reindex drift check is not clean"})
	}

	p := &query.Pipeline{Store: st, Workspace: workDir, LibrarianDir: filepath.Join(workDir, ".librarian")}
	if resp, err := p.Run(ctx, query.Request{Intent: "what does this project do", Depth: query.DepthL0, Limit: 5}); err != nil || len(resp.Packs) == 0 {
		ok = false
		findings = append(findings, Finding{Severity: SeverityCritical, Message: "post-reindex query returned no packs"})
	}

	return ok, findings
}

func seedGitRepo(dir string) error {
	cmds := [][]string{
		{"init"},
		{"config", "user.email", "gate@example.com"},
		{"config", "user.name", "gate"},
		{"add", "."},
		{"commit", "-m", "seed"},
	}
	for _, args := range cmds {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmtErr(args, out, err)
		}
	}
	return nil
}

func mutateGitHistory(dir string, scn DurabilityScenario) error {
	switch scn {
	case ScenarioBranchSwitch:
		if err := gitRun(dir, "checkout", "-b", "gate-branch"); err != nil {
			return err
		}
		return touchAndCommit(dir, "GATE_BRANCH.md")
	case ScenarioRebase:
		if err := gitRun(dir, "checkout", "-b", "gate-rebase"); err != nil {
			return err
		}
		if err := touchAndCommit(dir, "GATE_REBASE.md"); err != nil {
			return err
		}
		return gitRun(dir, "rebase", "HEAD~1")
	case ScenarioHistoryRewrite:
		if err := touchAndCommit(dir, "GATE_REWRITE.md"); err != nil {
			return err
		}
		return gitRun(dir, "commit", "--amend", "-m", "rewritten")
	}
	return nil
}

func touchAndCommit(dir, name string) error {
	if err := os.WriteFile(filepath.Join(dir, name), []byte("gate\n"), 0o644); err != nil {
		return err
	}
	if err := gitRun(dir, "add", "."); err != nil {
		return err
	}
	return gitRun(dir, "commit", "-m", "gate change: "+name)
}

func gitRun(dir string, args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmtErr(args, out, err)
	}
	return nil
}

func fmtErr(args []string, out []byte, err error) error {
	return &gitError{args: args, out: string(out), err: err}
}

type gitError struct {
	args []string
	out  string
	err  error
}

func (e *gitError) Error() string {
	return strings.Join(e.args, " ") + ": " + e.err.Error() + ": " + e.out
}

func (e *gitError) Unwrap() error { return e.err }
