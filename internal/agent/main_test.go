package agent

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures StartFileMonitoring's fsnotify watcher goroutine is
// always torn down by StopFileMonitoring, matching the teacher's
// goroutine-leak discipline for long-lived watchers.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/fsnotify/fsnotify.(*Watcher).readEvents"),
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}
