package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"librarian/internal/eventbus"
	"librarian/internal/query"
)

const cacheTTL = 30 * time.Second

// Surface is the Agent Session Surface (spec §4.7): the stable API
// external processes use to pull context, report outcomes, and monitor
// files across a task's lifetime.
type Surface struct {
	Pipeline *query.Pipeline
	Bus      *eventbus.Bus

	mu      sync.Mutex
	cache   map[string]cacheEntry
	monitors map[string]*fileMonitor
}

// NewSurface wires a Surface atop an already-configured query pipeline
// and event bus.
func NewSurface(p *query.Pipeline, bus *eventbus.Bus) *Surface {
	return &Surface{
		Pipeline: p,
		Bus:      bus,
		cache:    map[string]cacheEntry{},
		monitors: map[string]*fileMonitor{},
	}
}

// GetTaskContext returns a Task Context for the given request shape,
// reusing a cached entry when one exists for the same key within the
// cache's 30s TTL (spec §4.7 "Cache").
func (s *Surface) GetTaskContext(ctx context.Context, workspace, intent string, affectedFiles []string, taskType string, recentToolCalls []string, previousPhase Phase) (*TaskContext, error) {
	key := cacheKey{
		workspace:       workspace,
		intent:          intent,
		affectedFiles:   sortedJoin(affectedFiles),
		taskType:        taskType,
		previousPhase:   previousPhase,
		recentToolCalls: sortedJoin(recentToolCalls),
	}
	keyStr := key.String()

	s.mu.Lock()
	if entry, ok := s.cache[keyStr]; ok && time.Now().Before(entry.expiresAt) {
		s.mu.Unlock()
		tc := entry.value
		return &tc, nil
	}
	s.mu.Unlock()

	if s.Bus != nil {
		s.Bus.Publish(eventbus.Event{Type: eventbus.TaskReceived, Payload: intent})
	}

	resp, err := s.Pipeline.Run(ctx, query.Request{
		Intent:        intent,
		Depth:         query.DepthL1,
		AffectedFiles: affectedFiles,
		Limit:         10,
	})
	if err != nil {
		return nil, err
	}

	phase := detectPhase(intent, recentToolCalls, previousPhase)
	tc := TaskContext{
		Prompt:       formatPrompt(intent, resp),
		Packs:        resp.Packs,
		Phase:        phase,
		QualityNorms: qualityNorms(affectedFiles),
	}

	s.mu.Lock()
	s.cache[keyStr] = cacheEntry{key: key, value: tc, expiresAt: time.Now().Add(cacheTTL)}
	s.mu.Unlock()

	return &tc, nil
}

// ReportTaskOutcome records a task's result and notifies subscribers.
func (s *Surface) ReportTaskOutcome(taskID string, outcome Outcome) {
	if s.Bus == nil {
		return
	}
	evType := eventbus.TaskCompleted
	if !outcome.Success {
		evType = eventbus.TaskFailed
	}
	s.Bus.Publish(eventbus.Event{Type: evType, Payload: map[string]any{"task_id": taskID, "outcome": outcome}})
}

// NewTaskID mints a fresh task id (spec §4.7's task identifiers), grounded
// on the teacher's uuid-keyed session ids.
func NewTaskID() string {
	return uuid.New().String()
}

func formatPrompt(intent string, resp *query.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Intent: %s\n\n", intent)
	for _, p := range resp.Packs {
		fmt.Fprintf(&b, "- [%s] %s\n", p.PackType, p.Summary)
	}
	if resp.Synthesis != "" {
		fmt.Fprintf(&b, "\n%s\n", resp.Synthesis)
	}
	return b.String()
}

func qualityNorms(affectedFiles []string) []string {
	norms := []string{"prefer existing patterns over novel ones", "keep changes scoped to the stated task"}
	for _, f := range affectedFiles {
		if strings.HasSuffix(f, "_test.go") || strings.Contains(f, "/test/") {
			norms = append(norms, "test files: mirror the package's existing test style")
			break
		}
	}
	return norms
}

func sortedJoin(items []string) string {
	cp := append([]string(nil), items...)
	sort.Strings(cp)
	return strings.Join(cp, "\x1f")
}

func (k cacheKey) String() string {
	return strings.Join([]string{k.workspace, k.intent, k.affectedFiles, k.taskType, string(k.previousPhase), k.recentToolCalls}, "\x1e")
}
