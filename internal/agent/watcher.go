package agent

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"librarian/internal/logging"
)

// liveWatcher coalesces fsnotify events for a task's monitored files into
// a touched-set, so a change that round-trips through the same mtime/size
// (and would otherwise be invisible to a snapshot comparison) is still
// reported at stop. Grounded on the teacher's MangleWatcher
// (internal/core/mangle_watcher.go), narrowed from directory-wide
// validation triggers to a per-task touched-file set.
type liveWatcher struct {
	watcher *fsnotify.Watcher
	targets map[string]string // absolute path -> workspace-relative path
	mu      sync.Mutex
	touched map[string]bool
	done    chan struct{}
}

func newLiveWatcher(workspace string, files []string) *liveWatcher {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Get(logging.CategoryAgent).Warnw("file monitor: fsnotify unavailable, falling back to snapshot-only", "error", err)
		return nil
	}

	lw := &liveWatcher{
		watcher: w,
		targets: make(map[string]string, len(files)),
		touched: map[string]bool{},
		done:    make(chan struct{}),
	}

	dirs := map[string]bool{}
	for _, rel := range files {
		abs := filepath.Join(workspace, rel)
		lw.targets[abs] = rel
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			logging.Get(logging.CategoryAgent).Debugw("file monitor: failed to watch dir", "dir", dir, "error", err)
		}
	}

	go lw.loop()
	return lw
}

func (lw *liveWatcher) loop() {
	for {
		select {
		case ev, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			if rel, tracked := lw.targets[ev.Name]; tracked {
				lw.mu.Lock()
				lw.touched[rel] = true
				lw.mu.Unlock()
			}
		case _, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
		case <-lw.done:
			return
		}
	}
}

func (lw *liveWatcher) stop() []string {
	close(lw.done)
	lw.watcher.Close()
	lw.mu.Lock()
	defer lw.mu.Unlock()
	out := make([]string, 0, len(lw.touched))
	for rel := range lw.touched {
		out = append(out, rel)
	}
	return out
}
