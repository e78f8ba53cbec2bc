package sqldb

import (
	"database/sql/driver"
	"errors"
	"strings"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"go.browserstore.dev/core/blob"
)

const valuesDDL = "CREATE TABLE vals (i INTEGER, d DOUBLE, s TEXT, b BLOB, n INTEGER)"

func TestBindAndReadRoundTrip(t *testing.T) {
	var db = openTestDB(t, testOptions())
	mustExec(t, db, valuesDDL)

	var ins = db.Prepare("INSERT INTO vals (i, d, s, b, n) VALUES (?, ?, ?, ?, ?)")
	defer ins.Close()

	var icon = blob.New([]byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, ins.BindInt64(1, 1<<40))
	require.NoError(t, ins.BindDouble(2, 3.25))
	require.NoError(t, ins.BindText(3, "hello"))
	require.NoError(t, ins.BindBlob(4, icon))
	require.NoError(t, ins.BindNull(5))
	require.NoError(t, ins.Exec())
	require.False(t, ins.HasNext())

	// BindBlob took ownership of the buffer.
	require.True(t, icon.Empty())

	var sel = db.Prepare("SELECT i, d, s, b, n FROM vals")
	defer sel.Close()

	require.NoError(t, sel.Exec())
	require.True(t, sel.HasNext())
	require.Equal(t, []string{"i", "d", "s", "b", "n"}, sel.ColumnNames())
	require.Equal(t, 5, sel.ColumnCount())

	require.Equal(t, int64(1<<40), sel.Int64(0))
	require.Equal(t, 3.25, sel.Double(1))
	require.Equal(t, "hello", sel.String(2))
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, sel.Blob(3).Data())
	require.Nil(t, sel.Blob(4))
	require.Nil(t, sel.CString(4))
	require.Equal(t, "hello", *sel.CString(2))

	require.Equal(t, FieldInteger, sel.FieldType(0))
	require.Equal(t, FieldFloat, sel.FieldType(1))
	require.Equal(t, FieldText, sel.FieldType(2))
	require.Equal(t, FieldBlob, sel.FieldType(3))
	require.Equal(t, FieldNull, sel.FieldType(4))

	var f, err = sel.Field(3)
	require.NoError(t, err)
	require.Equal(t, FieldBlob, f.Type())
	require.Equal(t, 4, f.Blob().Len())

	f, err = sel.Field(2)
	require.NoError(t, err)
	require.Equal(t, TextField("hello"), f)

	require.True(t, sel.Next())
	require.False(t, sel.HasNext())
}

func TestColumnConversions(t *testing.T) {
	var db = openTestDB(t, testOptions())

	var q = db.Prepare("SELECT '12abc', 7, 2.75, NULL, x'616263'")
	defer q.Close()
	require.NoError(t, q.Exec())
	require.True(t, q.HasNext())

	require.Equal(t, 12, q.Int(0))
	require.Equal(t, 12.0, q.Double(0))
	require.Equal(t, "7", q.String(1))
	require.Equal(t, 7.0, q.Double(1))
	require.Equal(t, 2, q.Int(2))
	require.Equal(t, "2.75", q.String(2))
	require.Equal(t, 0, q.Int(3))
	require.Equal(t, "", q.String(3))
	require.Equal(t, "abc", q.String(4))

	require.Equal(t, 5, q.DataLength(0))
	require.Equal(t, 1, q.DataLength(1))
	require.Equal(t, 4, q.DataLength(2))
	require.Equal(t, 0, q.DataLength(3))
	require.Equal(t, 3, q.DataLength(4))

	// Columns beyond the row read as NULL.
	require.Equal(t, FieldNull, q.FieldType(9))
	require.Equal(t, 0, q.Int(-1))
}

func TestIterationWithNextAndHasNext(t *testing.T) {
	var db = openTestDB(t, testOptions())
	mustExec(t, db, "CREATE TABLE t (v INTEGER)",
		"INSERT INTO t VALUES (1)", "INSERT INTO t VALUES (2)", "INSERT INTO t VALUES (3)")

	var q = db.Prepare("SELECT v FROM t WHERE v >= ? ORDER BY v")
	defer q.Close()
	require.NoError(t, q.BindInt(1, 2))

	var collect = func() (out []int) {
		require.NoError(t, q.Exec())
		for q.HasNext() {
			out = append(out, q.Int(0))
			require.True(t, q.Next())
		}
		return out
	}
	require.Equal(t, []int{2, 3}, collect())

	// Once complete, Next doesn't step again.
	require.False(t, q.Next())
	require.False(t, q.HasNext())

	// Re-execution after Reset yields the same rows.
	q.Reset()
	require.Equal(t, []int{2, 3}, collect())

	// Cleared bindings are NULL, which matches nothing.
	q.ClearBindings()
	require.Empty(t, collect())
}

// busyRows fails every step as busy.
type busyRows struct {
	cols  []string
	steps int
}

func (r *busyRows) Columns() []string { return r.cols }
func (r *busyRows) Close() error      { return nil }
func (r *busyRows) Next([]driver.Value) error {
	r.steps++
	return sqlite3.Error{Code: sqlite3.ErrBusy}
}

func TestNextDoesNotRetryBusyStep(t *testing.T) {
	var opts = testOptions()
	var clk = opts.Clock.(*sleepRecorder)
	var db = openTestDB(t, opts)
	mustExec(t, db, "CREATE TABLE t (v INTEGER)", "INSERT INTO t VALUES (1)", "INSERT INTO t VALUES (2)")

	var q = db.Prepare("SELECT v FROM t ORDER BY v")
	defer q.Close()

	require.NoError(t, q.Exec())
	require.True(t, q.HasNext())
	require.Equal(t, 1, q.Int(0))

	// Substitute a cursor whose next step is busy.
	require.NoError(t, q.rows.Close())
	var rows = &busyRows{cols: []string{"v"}}
	q.rows = rows

	require.False(t, q.Next())
	require.False(t, q.HasNext())
	require.True(t, IsBusy(q.Err()))
	require.Equal(t, 1, rows.steps)
	require.Empty(t, clk.sleeps)

	// The iteration restarts from the first row.
	require.NoError(t, q.Exec())
	require.True(t, q.HasNext())
	require.Equal(t, 1, q.Int(0))
}

func TestBoundValueFaultsSurfaceAtExec(t *testing.T) {
	var db = openTestDB(t, testOptions())
	mustExec(t, db, "CREATE TABLE t (s TEXT)")

	var q = db.Prepare("INSERT INTO t VALUES (?)")
	defer q.Close()

	db.conn.SetLimit(sqlite3.SQLITE_LIMIT_LENGTH, 100)
	require.NoError(t, q.BindText(1, strings.Repeat("x", 200)))
	require.Equal(t, sqlite3.ErrTooBig, Code(q.Exec()))
	require.Equal(t, sqlite3.ErrTooBig, Code(q.Err()))

	require.NoError(t, q.BindText(1, "short"))
	require.NoError(t, q.Exec())
	require.Equal(t, 1, countRows(t, db, "t"))
}

func TestBindOutOfRange(t *testing.T) {
	var db = openTestDB(t, testOptions())

	var q = db.Prepare("SELECT ?, ?")
	defer q.Close()

	for _, n := range []int{0, 3, -1} {
		var err = q.BindInt(n, 1)

		var se *StorageError
		require.True(t, errors.As(err, &se))
		require.Equal(t, sqlite3.ErrRange, se.Code)
	}
	require.NoError(t, q.BindInt(2, 1))
}

func TestPreconditionViolationsPanic(t *testing.T) {
	var db = openTestDB(t, testOptions())

	var q = db.Prepare("SELECT 1 WHERE 0")
	require.NoError(t, q.Exec())
	require.False(t, q.HasNext())

	// Reads require an available row.
	require.Panics(t, func() { q.Int(0) })

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	require.Panics(t, func() { _ = q.BindText(1, "x") })
	require.Panics(t, func() { q.ClearBindings() })

	// Exec of a finalized Query is reported rather than panicking.
	require.Equal(t, sqlite3.ErrMisuse, Code(q.Exec()))
}

func TestBindFieldAndBytes(t *testing.T) {
	var db = openTestDB(t, testOptions())
	mustExec(t, db, valuesDDL)

	var ins = db.Prepare("INSERT INTO vals (i, d, s, b, n) VALUES (?, ?, ?, ?, ?)")
	defer ins.Close()

	var raw = []byte("raw")
	require.NoError(t, ins.BindField(1, IntField(9)))
	require.NoError(t, ins.BindField(2, DoubleField(0.5)))
	require.NoError(t, ins.BindField(3, TextField("t")))
	require.NoError(t, ins.BindBytes(4, raw))
	require.NoError(t, ins.BindField(5, NullField()))
	require.NoError(t, ins.Exec())
	raw[0] = 'R'

	var sel = db.Prepare("SELECT i, d, s, b, n FROM vals")
	defer sel.Close()
	require.NoError(t, sel.Exec())

	require.Equal(t, 9, sel.Int(0))
	require.Equal(t, 0.5, sel.Double(1))
	require.Equal(t, "t", sel.String(2))
	require.Equal(t, "raw", string(sel.Blob(3).Data()))
	require.Equal(t, FieldNull, sel.FieldType(4))
}
