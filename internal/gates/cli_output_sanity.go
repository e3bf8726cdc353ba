package gates

import (
	"bytes"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CLIProbe is a single CLI invocation to sanity-check (spec §4.6 "CLI
// Output Sanity"): exit code, single-line errors for unknown commands,
// and JSON parseability for `--json` variants.
type CLIProbe struct {
	Name         string
	Args         []string
	ExpectCode   int
	ExpectJSON   bool
	SingleLineErr bool
}

// CLIOutputSanity runs each probe against the built librarian binary and
// asserts its exit code and output shape.
func CLIOutputSanity(binaryPath string, probes []CLIProbe, maxDurationMs int64) Result {
	result := Result{Gate: "cli_output_sanity", Passed: true, MaxDurationMs: maxDurationMs}

	for _, probe := range probes {
		start := time.Now()
		scenario := ScenarioResult{Name: probe.Name}

		cmd := exec.Command(binaryPath, probe.Args...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		err := cmd.Run()
		scenario.Duration = time.Since(start)

		code := 0
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else if err != nil {
			code = -1
		}

		scenario.Passed = true
		if code != probe.ExpectCode {
			scenario.Passed = false
			scenario.Findings = append(scenario.Findings, Finding{Severity: SeverityCritical,
				Message: probe.Name + ": expected exit code " + strconv.Itoa(probe.ExpectCode) + ", got " + strconv.Itoa(code)})
		}
		if probe.SingleLineErr && strings.Count(strings.TrimRight(stderr.String(), "\n"), "\n") > 0 {
			scenario.Passed = false
			scenario.Findings = append(scenario.Findings, Finding{Severity: SeverityWarning,
				Message: probe.Name + ": expected a single-line error"})
		}
		if probe.ExpectJSON {
			var v any
			if jsonErr := json.Unmarshal(stdout.Bytes(), &v); jsonErr != nil {
				scenario.Passed = false
				scenario.Findings = append(scenario.Findings, Finding{Severity: SeverityCritical,
					Message: probe.Name + ": output is not valid JSON: " + jsonErr.Error()})
			}
		}

		if !scenario.Passed {
			result.Passed = false
		}
		result.Findings = append(result.Findings, scenario.Findings...)
		result.Scenarios = append(result.Scenarios, scenario)
		result.checkBudget(scenario.Duration)
	}
	return result
}
