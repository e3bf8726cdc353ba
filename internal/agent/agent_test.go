package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarian/internal/bootstrap"
	"librarian/internal/config"
	"librarian/internal/eventbus"
	"librarian/internal/extract"
	"librarian/internal/provider"
	"librarian/internal/query"
	"librarian/internal/store"
)

func newFixtureSurface(t *testing.T) (*Surface, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "greeter.go"), []byte(`package pkg

func Greet(name string) string {
	return format(name)
}

func format(name string) string {
	return "hello " + name
}
`), 0o644))

	dbDir := t.TempDir()
	st, err := store.Open(filepath.Join(dbDir, "librarian.sqlite"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, err = bootstrap.Run(context.Background(), st, bootstrap.Options{
		Workspace: root,
		Registry:  extract.DefaultRegistry(1 << 20),
		Scanner:   bootstrap.ScannerConfig{MaxFileBytes: 1 << 20},
		Workers:   2,
	})
	require.NoError(t, err)

	p := &query.Pipeline{
		Store:        st,
		Workspace:    root,
		LibrarianDir: t.TempDir(),
		Scanner:      bootstrap.ScannerConfig{MaxFileBytes: 1 << 20},
		VCS:          bootstrap.NoopProbe{},
		Providers:    provider.NewRegistry(),
		Config:       config.DefaultConfig().Query,
		ProviderCfg:  config.DefaultConfig().Provider,
	}

	bus := eventbus.New()
	return NewSurface(p, bus), root
}

func TestGetTaskContextReturnsPacksAndPhase(t *testing.T) {
	s, root := newFixtureSurface(t)
	tc, err := s.GetTaskContext(context.Background(), root, "add a new function for validation", nil, "code", nil, "")
	require.NoError(t, err)
	assert.Equal(t, PhaseImplement, tc.Phase)
	assert.NotEmpty(t, tc.Prompt)
}

func TestGetTaskContextCachesWithinTTL(t *testing.T) {
	s, root := newFixtureSurface(t)
	first, err := s.GetTaskContext(context.Background(), root, "how does this work", nil, "code", nil, "")
	require.NoError(t, err)

	second, err := s.GetTaskContext(context.Background(), root, "how does this work", nil, "code", nil, "")
	require.NoError(t, err)
	assert.Equal(t, first.Prompt, second.Prompt)
}

func TestDetectPhasePrioritizesRecentToolCalls(t *testing.T) {
	assert.Equal(t, PhaseVerify, detectPhase("add a feature", []string{"run_tests"}, ""))
}

func TestDetectPhaseFallsBackToPreviousPhase(t *testing.T) {
	assert.Equal(t, PhaseImplement, detectPhase("something ambiguous entirely", nil, PhaseImplement))
}

func TestDetectPhaseDefaultsUnknown(t *testing.T) {
	assert.Equal(t, PhaseUnknown, detectPhase("something ambiguous entirely", nil, ""))
}

func TestReportTaskOutcomePublishesEvent(t *testing.T) {
	s, _ := newFixtureSurface(t)
	var received eventbus.EventType
	s.Bus.Subscribe(eventbus.TaskFailed, func(ev eventbus.Event) { received = ev.Type })

	s.ReportTaskOutcome(NewTaskID(), Outcome{Success: false, FailureReason: "boom"})
	assert.Equal(t, eventbus.TaskFailed, received)
}

func TestFileMonitoringDetectsContentChange(t *testing.T) {
	s, root := newFixtureSurface(t)
	rel := "pkg/greeter.go"

	taskID := NewTaskID()
	s.StartFileMonitoring(taskID, root, []string{rel})

	data, err := os.ReadFile(filepath.Join(root, rel))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, rel), append(data, []byte("\n// changed\n")...), 0o644))

	changed := s.StopFileMonitoring(taskID)
	assert.Contains(t, changed, rel)
}

func TestFileMonitoringReportsNoChangeWhenUntouched(t *testing.T) {
	s, root := newFixtureSurface(t)
	rel := "pkg/greeter.go"

	taskID := NewTaskID()
	s.StartFileMonitoring(taskID, root, []string{rel})
	changed := s.StopFileMonitoring(taskID)
	assert.Empty(t, changed)
}

func TestWithFileMonitoringStopsOnNormalReturn(t *testing.T) {
	s, root := newFixtureSurface(t)
	rel := "pkg/greeter.go"

	changed, err := s.WithFileMonitoring(NewTaskID(), root, []string{rel}, func() error {
		data, rerr := os.ReadFile(filepath.Join(root, rel))
		require.NoError(t, rerr)
		return os.WriteFile(filepath.Join(root, rel), append(data, []byte("\n// touched\n")...), 0o644)
	})
	require.NoError(t, err)
	assert.Contains(t, changed, rel)
}

func TestParseStackTraceHandlesMultipleFormats(t *testing.T) {
	trace := `at pkg.Greet(greeter.go:3)
File "greeter.py", line 4, in greet
pkg/other.go:9`
	frames := ParseStackTrace(trace)
	require.Len(t, frames, 3)
	assert.Equal(t, "greeter.go", frames[0].File)
	assert.Equal(t, 3, frames[0].Line)
	assert.Equal(t, "greeter.py", frames[1].File)
	assert.Equal(t, "pkg/other.go", frames[2].File)
}

func TestAttributeIncidentResolvesFunctionForLine(t *testing.T) {
	_, root := newFixtureSurface(t)
	dbDir := t.TempDir()
	st, err := store.Open(filepath.Join(dbDir, "librarian.sqlite"), time.Second)
	require.NoError(t, err)
	defer st.Close()
	_, err = bootstrap.Run(context.Background(), st, bootstrap.Options{
		Workspace: root,
		Registry:  extract.DefaultRegistry(1 << 20),
		Scanner:   bootstrap.ScannerConfig{MaxFileBytes: 1 << 20},
		Workers:   2,
	})
	require.NoError(t, err)

	trace := "pkg/greeter.go:4"
	report := AttributeIncident(st, root, trace)
	assert.NotEmpty(t, report.FunctionIDs)
}

func TestAttributeIncidentRejectsURLs(t *testing.T) {
	_, root := newFixtureSurface(t)
	dbDir := t.TempDir()
	st, err := store.Open(filepath.Join(dbDir, "librarian.sqlite"), time.Second)
	require.NoError(t, err)
	defer st.Close()

	report := AttributeIncident(st, root, "https://example.com/file.go:10")
	assert.Empty(t, report.FunctionIDs)
}
