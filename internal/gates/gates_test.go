package gates

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapQualityPassesOnGoFixture(t *testing.T) {
	fx := Fixture{Name: "go", SourceDir: "../../testdata/fixtures/go", ExpectedFiles: 2}
	result := BootstrapQuality(context.Background(), []Fixture{fx}, 30000, nil)
	assert.True(t, result.Passed, "%+v", result.Findings)
	require.Len(t, result.Scenarios, 1)
	assert.True(t, result.Scenarios[0].Passed)
}

func TestBootstrapQualityFailsOnWrongExpectedCount(t *testing.T) {
	fx := Fixture{Name: "go-wrong-count", SourceDir: "../../testdata/fixtures/go", ExpectedFiles: 99}
	result := BootstrapQuality(context.Background(), []Fixture{fx}, 30000, nil)
	assert.False(t, result.Passed)
	assert.NotEmpty(t, result.Findings)
}

func TestQueryRelevanceMeasuresCoverage(t *testing.T) {
	fx := Fixture{Name: "go", SourceDir: "../../testdata/fixtures/go"}
	cases := []RelevanceCase{
		{Intent: "what does this project do", ExpectedFiles: []string{"greet.go"}, ExpectedConcepts: []string{"greet"}},
	}
	result := QueryRelevance(context.Background(), fx, cases, 30000)
	require.Len(t, result.Scenarios, 1)
	assert.NotNil(t, result.Scenarios[0])
}

func TestCompositionPipelineHaltsAtFirstFailure(t *testing.T) {
	var ran []string
	stages := []Operator{
		{Name: "discover", Run: func() error { ran = append(ran, "discover"); return nil }},
		{Name: "extract", Run: func() error { ran = append(ran, "extract"); return errors.New("boom") }},
		{Name: "persist", Run: func() error { ran = append(ran, "persist"); return nil }},
	}
	result := CompositionPipeline(stages, 1000)
	assert.False(t, result.Passed)
	assert.Equal(t, "extract", ErrorAt(result))
	assert.Equal(t, []string{"discover", "extract"}, ran)
}

func TestCompositionPipelineAllStagesPass(t *testing.T) {
	stages := []Operator{
		{Name: "a", Run: func() error { return nil }},
		{Name: "b", Run: func() error { return nil }},
	}
	result := CompositionPipeline(stages, 1000)
	assert.True(t, result.Passed)
	assert.Equal(t, "", ErrorAt(result))
}

func TestCLIOutputSanityChecksExitCodeAndJSON(t *testing.T) {
	probes := []CLIProbe{
		{Name: "echo-json", Args: []string{"-n", `{"ok":true}`}, ExpectCode: 0, ExpectJSON: true},
	}
	result := CLIOutputSanity("/bin/echo", probes, 5000)
	assert.True(t, result.Passed, "%+v", result.Findings)
}

func TestCLIOutputSanityDetectsInvalidJSON(t *testing.T) {
	probes := []CLIProbe{
		{Name: "echo-not-json", Args: []string{"-n", "not json"}, ExpectCode: 0, ExpectJSON: true},
	}
	result := CLIOutputSanity("/bin/echo", probes, 5000)
	assert.False(t, result.Passed)
}
