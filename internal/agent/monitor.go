package agent

import (
	"os"
	"path/filepath"

	"librarian/internal/hashutil"
)

// fileMonitor snapshots a task's affected files at start so StopFileMonitoring
// can report which ones changed (spec §4.7).
type fileMonitor struct {
	workspace string
	snapshots map[string]FileSnapshot
	live      *liveWatcher
}

// snapshot captures a file's exists/mtime/size and, for files at or under
// hashutil.SmallFileLimit, a content hash (spec §4.7). Go's os.FileInfo
// has no portable ctime; ModTime doubles for both fields here rather than
// reaching for a syscall-specific extension with no precedent elsewhere
// in this codebase.
func snapshot(workspace, rel string) FileSnapshot {
	abs := filepath.Join(workspace, rel)
	info, err := os.Stat(abs)
	if err != nil {
		return FileSnapshot{Exists: false}
	}
	snap := FileSnapshot{
		Exists:  true,
		ModTime: info.ModTime(),
		CTime:   info.ModTime(),
		Size:    info.Size(),
	}
	if info.Size() <= hashutil.SmallFileLimit {
		if h, err := hashutil.ChecksumFile(abs); err == nil {
			snap.Hash = h
		}
	}
	return snap
}

// StartFileMonitoring snapshots the affected files for taskID (spec §4.7).
func (s *Surface) StartFileMonitoring(taskID, workspace string, files []string) {
	snapshots := make(map[string]FileSnapshot, len(files))
	for _, f := range files {
		snapshots[f] = snapshot(workspace, f)
	}

	s.mu.Lock()
	s.monitors[taskID] = &fileMonitor{workspace: workspace, snapshots: snapshots, live: newLiveWatcher(workspace, files)}
	s.mu.Unlock()
}

// StopFileMonitoring reports the subset of monitored files whose snapshot
// changed since StartFileMonitoring, and discards the monitor (spec §4.7).
// The small-file hash comparison defeats same-size rewrites within one
// mtime second, matching the teacher's own small-file-hash rationale.
func (s *Surface) StopFileMonitoring(taskID string) []string {
	s.mu.Lock()
	mon, ok := s.monitors[taskID]
	delete(s.monitors, taskID)
	s.mu.Unlock()
	if !ok {
		return nil
	}

	touched := map[string]bool{}
	if mon.live != nil {
		for _, rel := range mon.live.stop() {
			touched[rel] = true
		}
	}

	for rel, before := range mon.snapshots {
		after := snapshot(mon.workspace, rel)
		if fileChanged(before, after) {
			touched[rel] = true
		}
	}

	changed := make([]string, 0, len(touched))
	for rel := range touched {
		changed = append(changed, rel)
	}
	return changed
}

func fileChanged(before, after FileSnapshot) bool {
	if before.Exists != after.Exists {
		return true
	}
	if !before.Exists {
		return false
	}
	if before.Hash != "" && after.Hash != "" {
		return before.Hash != after.Hash
	}
	return before.Size != after.Size || !before.ModTime.Equal(after.ModTime)
}

// WithFileMonitoring runs fn between a Start/StopFileMonitoring pair,
// guaranteeing Stop runs on any exit path including a panic (spec §4.7
// convenience wrapper). It returns the changed-file set observed at stop
// and fn's error.
func (s *Surface) WithFileMonitoring(taskID, workspace string, files []string, fn func() error) (changed []string, err error) {
	s.StartFileMonitoring(taskID, workspace, files)
	defer func() { changed = s.StopFileMonitoring(taskID) }()
	return nil, fn()
}
