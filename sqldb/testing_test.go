package sqldb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

// sleepRecorder is a Clock which records, rather than performs, sleeps.
type sleepRecorder struct {
	clock.Clock
	sleeps  []time.Duration
	onSleep func(n int)
}

func newSleepRecorder() *sleepRecorder { return &sleepRecorder{Clock: clock.New()} }

func (c *sleepRecorder) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	if c.onSleep != nil {
		c.onSleep(len(c.sleeps))
	}
}

func (c *sleepRecorder) total() (out time.Duration) {
	for _, d := range c.sleeps {
		out += d
	}
	return out
}

// openTestDB opens a Database over a new file of a temporary directory.
func openTestDB(t *testing.T, opts Options) *Database {
	var db = NewDatabase(opts)
	require.NoError(t, db.Open(filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testOptions() Options {
	var opts = DefaultOptions()
	opts.RetryInterval = time.Millisecond
	opts.Clock = newSleepRecorder()
	return opts
}

func mustExec(t *testing.T, db *Database, queries ...string) {
	for _, q := range queries {
		require.NoError(t, db.Exec(q), q)
	}
}

func countRows(t *testing.T, db *Database, table string) int {
	var q = db.Prepare("SELECT COUNT(*) FROM " + table)
	defer q.Close()

	require.NoError(t, q.Exec())
	require.True(t, q.HasNext())
	return q.Int(0)
}
