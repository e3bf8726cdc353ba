package gates

import "time"

// Operator is a single named step in a composed pipeline under test.
type Operator struct {
	Name string
	Run  func() error
}

// CompositionPipeline verifies that sequenced operator composition
// preserves error propagation: the first failure halts the pipeline and
// surfaces errorAt identifying the stage (spec §4.6).
func CompositionPipeline(stages []Operator, maxDurationMs int64) Result {
	result := Result{Gate: "composition_pipeline", Passed: true, MaxDurationMs: maxDurationMs}
	start := time.Now()

	for _, op := range stages {
		scenStart := time.Now()
		scenario := ScenarioResult{Name: op.Name}

		err := op.Run()
		scenario.Duration = time.Since(scenStart)
		scenario.Passed = err == nil

		result.Scenarios = append(result.Scenarios, scenario)
		if err != nil {
			result.Passed = false
			result.addFinding(SeverityCritical, "errorAt=%s: %v", op.Name, err)
			break
		}
	}

	result.checkBudget(time.Since(start))
	return result
}

// ErrorAt extracts the stage name a CompositionPipeline run halted at, or
// "" if it completed without error.
func ErrorAt(r Result) string {
	for _, s := range r.Scenarios {
		if !s.Passed {
			return s.Name
		}
	}
	return ""
}
