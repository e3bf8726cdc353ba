// Package agent implements the Agent Session Surface (spec §4.7, C7): the
// stable API external processes drive Librarian through, grounded on the
// teacher's session/task conventions (.codex/skills/rod-builder/scripts/session_manager.go's
// uuid-keyed session map) and its fsnotify-based watcher
// (internal/core/mangle_watcher.go) generalized from mangle-file watching
// to arbitrary affected-file monitoring.
package agent

import (
	"time"

	"librarian/internal/store"
)

// Phase is a task's detected lifecycle stage (spec §4.7).
type Phase string

const (
	PhaseDiscover   Phase = "discover"
	PhaseInvestigate Phase = "investigate"
	PhaseImplement  Phase = "implement"
	PhaseVerify     Phase = "verify"
	PhaseUnknown    Phase = "unknown"
)

// TaskContext is returned by GetTaskContext.
type TaskContext struct {
	Prompt       string
	Packs        []store.ContextPack
	Phase        Phase
	QualityNorms []string
}

// Outcome is recorded by ReportTaskOutcome.
type Outcome struct {
	Success        bool
	ModifiedFiles  []string
	FailureReason  string
	Usefulness     *float64
	MissingContext string
}

// FileSnapshot captures a monitored file's state at task start.
type FileSnapshot struct {
	Exists bool
	ModTime time.Time
	CTime   time.Time
	Size    int64
	Hash    string // only populated for files <= hashutil.SmallFileLimit
}

// Frame is a single parsed stack-trace line (spec §4.7 "Incident attribution").
type Frame struct {
	Raw  string
	File string
	Line int
	Sym  string
}

// IncidentReport is the result of attributing a stack trace to functions.
type IncidentReport struct {
	Frames        []FrameAttribution
	FunctionIDs   []string // de-duplicated global set
}

// FrameAttribution pairs a parsed Frame with the function ids whose span
// straddles its line.
type FrameAttribution struct {
	Frame       Frame
	FunctionIDs []string
}

// cacheEntry is one per-intent cache slot (spec §4.7 "Cache").
type cacheEntry struct {
	key       cacheKey
	value     TaskContext
	expiresAt time.Time
}

type cacheKey struct {
	workspace       string
	intent          string
	affectedFiles   string // sorted, joined
	taskType        string
	previousPhase   Phase
	recentToolCalls string // sorted, joined
}
