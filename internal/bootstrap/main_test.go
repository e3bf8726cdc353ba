package bootstrap

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain ensures the errgroup-based extraction worker pool always winds
// down, matching the teacher's goroutine-leak discipline for long-lived
// pools and store connections.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}
