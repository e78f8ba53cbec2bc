package sqldb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"weak"

	"github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
	"go.browserstore.dev/core/blob"
	"go.browserstore.dev/core/metrics"
)

// Query is a compiled statement of a Database, together with its bound
// parameters and its cursor over result rows. A Query doesn't keep its
// Database alive: once the Database is closed or collected, the Query is
// invalid.
//
// Parameters are numbered from 1, and result columns from 0.
type Query struct {
	db    weak.Pointer[Database]
	retry retryPolicy
	sql   string

	stmt *sqlite3.SQLiteStmt
	args []driver.NamedValue

	rows    driver.Rows
	row     []driver.Value
	hasNext bool

	err error
}

// IsValid is true if the Query has a live statement and its Database is open.
func (q *Query) IsValid() bool {
	if q.stmt == nil {
		return false
	}
	var db = q.db.Value()
	return db != nil && db.IsOpen()
}

// Err returns the error which invalidated the Query at Prepare, or the error
// of its most recent failed Exec or Next.
func (q *Query) Err() error { return q.err }

// SQL returns the text of the Query.
func (q *Query) SQL() string { return q.sql }

// BindText binds |v| to parameter |paramNo|. Bind methods return an error
// only if |paramNo| is out of range. Values reach the engine when the Query
// is Exec'd, and Exec returns any fault of the engine in accepting them
// (eg SQLITE_TOOBIG).
func (q *Query) BindText(paramNo int, v string) error { return q.bind(paramNo, v) }

func (q *Query) BindInt(paramNo int, v int) error { return q.bind(paramNo, int64(v)) }

func (q *Query) BindInt64(paramNo int, v int64) error { return q.bind(paramNo, v) }

func (q *Query) BindDouble(paramNo int, v float64) error { return q.bind(paramNo, v) }

func (q *Query) BindNull(paramNo int) error { return q.bind(paramNo, nil) }

// BindBlob binds the buffer of |b|, taking ownership of it: |b| is empty
// upon return. A nil or empty |b| binds NULL.
func (q *Query) BindBlob(paramNo int, b *blob.Blob) error {
	if b == nil || b.Empty() {
		return q.bind(paramNo, nil)
	}
	var err = q.bind(paramNo, b.Data())
	if err == nil {
		_ = b.Transfer()
	}
	return err
}

// BindBytes binds a copy of |p|. A nil |p| binds NULL.
func (q *Query) BindBytes(paramNo int, p []byte) error {
	if p == nil {
		return q.bind(paramNo, nil)
	}
	return q.bind(paramNo, append([]byte{}, p...))
}

// BindField binds the value of |f|.
func (q *Query) BindField(paramNo int, f Field) error {
	switch v := f.Value().(type) {
	case *blob.Blob:
		return q.BindBytes(paramNo, v.Data())
	default:
		return q.bind(paramNo, v)
	}
}

func (q *Query) bind(paramNo int, v driver.Value) error {
	q.mustBeLive("bind")

	if paramNo < 1 || paramNo > len(q.args) {
		return q.fail("bind", &StorageError{
			Code:    sqlite3.ErrRange,
			Message: fmt.Sprintf("bind parameter %d is out of range [1, %d]", paramNo, len(q.args)),
			Query:   q.sql,
		})
	}
	q.args[paramNo-1].Value = v
	return nil
}

// ClearBindings resets all bound parameters to NULL.
func (q *Query) ClearBindings() {
	q.mustBeLive("clear bindings of")

	for i := range q.args {
		q.args[i].Value = nil
	}
}

// Exec runs the Query with its bound parameters, stepping to the first
// result row. A nil error means either a row is available (HasNext is true)
// or the statement ran to completion (HasNext is false).
func (q *Query) Exec() error {
	if q.stmt == nil {
		if q.err != nil {
			return q.err
		}
		return &StorageError{Code: sqlite3.ErrMisuse, Message: "statement not active", Query: q.sql}
	} else if !q.IsValid() {
		return &StorageError{Code: sqlite3.ErrMisuse, Message: "database of statement is not open", Query: q.sql}
	}
	q.Reset()
	q.err = nil

	var rows, err = q.stmt.QueryContext(context.Background(), q.args)
	if err != nil {
		return q.fail("exec", err)
	}
	q.rows = rows
	q.row = make([]driver.Value, len(rows.Columns()))

	return q.step("exec", true)
}

// Next advances to the next result row, if a row is currently available.
// It returns true if the step produced a row or completed the statement,
// and false if it failed (see Err) or if no row was available. HasNext
// reports whether a row is now available.
//
// A busy or locked result of Next isn't retried. It fails the iteration,
// which the caller may restart with Exec.
func (q *Query) Next() bool {
	q.mustBeLive("next")

	if !q.hasNext {
		return false
	}
	return q.step("next", false) == nil
}

// HasNext is true if a result row is available to be read.
func (q *Query) HasNext() bool { return q.hasNext }

// step advances the cursor. Only the first step of an Exec is retried: the
// driver resets the statement when a step fails, so retrying a later step
// would restart the result set from its first row.
func (q *Query) step(op string, retry bool) error {
	var start = q.retry.clock.Now()
	var next = func() error { return q.rows.Next(q.row) }

	var err error
	if retry {
		err = q.retry.do(metrics.OpStep, q.sql, next)
	} else {
		err = next()
	}
	metrics.SQLStepDurationSeconds.Observe(q.retry.clock.Since(start).Seconds())

	switch err {
	case nil:
		q.hasNext = true
		return nil
	case io.EOF:
		q.hasNext = false
		return nil
	default:
		q.hasNext = false
		return q.fail(op, err)
	}
}

// Reset returns the Query to its state prior to Exec, retaining bound
// parameters.
func (q *Query) Reset() {
	if q.rows != nil {
		// Closing resets the statement, which re-reports the error of a
		// failed step. That error was already returned by the step itself.
		_ = q.rows.Close()
	}
	q.rows, q.row, q.hasNext = nil, nil, false
}

// Close finalizes the Query. It's safe to Close a Query more than once,
// and after its Database has closed.
func (q *Query) Close() error {
	if q.stmt == nil {
		return nil
	}
	if db := q.db.Value(); db != nil {
		db.forget(q)
	}
	return q.finalize()
}

func (q *Query) finalize() error {
	q.Reset()
	var err = q.stmt.Close()
	q.stmt, q.args = nil, nil

	if err != nil {
		return storageError(err, q.sql)
	}
	return nil
}

// ColumnCount returns the number of result columns, once executed.
func (q *Query) ColumnCount() int { return len(q.row) }

// ColumnNames returns the names of result columns, once executed.
func (q *Query) ColumnNames() []string {
	if q.rows == nil {
		return nil
	}
	return q.rows.Columns()
}

// CString returns column |col| as text, or nil if it's NULL.
func (q *Query) CString(col int) *string {
	var v = q.value(col)
	if v == nil {
		return nil
	}
	var s = asText(v)
	return &s
}

// String returns column |col| as text. NULL is "".
func (q *Query) String(col int) string { return asText(q.value(col)) }

// Int returns column |col| as an int.
func (q *Query) Int(col int) int { return int(asInt64(q.value(col))) }

// Int64 returns column |col| as an int64.
func (q *Query) Int64(col int) int64 { return asInt64(q.value(col)) }

// Double returns column |col| as a float64.
func (q *Query) Double(col int) float64 { return asDouble(q.value(col)) }

// Blob returns a copy of column |col| as a Blob, or nil if it's NULL.
func (q *Query) Blob(col int) *blob.Blob {
	switch v := q.value(col).(type) {
	case nil:
		return nil
	case []byte:
		return blob.New(v)
	default:
		return blob.New([]byte(asText(v)))
	}
}

// DataLength returns the length in bytes of column |col| as text or blob.
func (q *Query) DataLength(col int) int {
	switch v := q.value(col).(type) {
	case nil:
		return 0
	case []byte:
		return len(v)
	default:
		return len(asText(v))
	}
}

// FieldType returns the type of column |col| in the current row.
func (q *Query) FieldType(col int) FieldType {
	switch q.value(col).(type) {
	case int64:
		return FieldInteger
	case float64:
		return FieldFloat
	case string:
		return FieldText
	case []byte:
		return FieldBlob
	}
	return FieldNull
}

// Field returns column |col| as a Field of its dynamic type.
func (q *Query) Field(col int) (Field, error) {
	switch v := q.value(col).(type) {
	case nil:
		return NullField(), nil
	case int64:
		return IntField(v), nil
	case float64:
		return DoubleField(v), nil
	case string:
		return TextField(v), nil
	case []byte:
		return BlobField(blob.New(v)), nil
	default:
		return NullField(), &StorageError{
			Code:    sqlite3.ErrMismatch,
			Message: fmt.Sprintf("column %d has unsupported type %T", col, v),
			Query:   q.sql,
		}
	}
}

// value returns column |col| of the current row, mapped onto the storage
// classes of SQLite. A column outside of the row reads as NULL.
func (q *Query) value(col int) driver.Value {
	q.mustBeLive("read")

	if !q.hasNext {
		panic(fmt.Sprintf("sqldb: read of column %d without an available row (%q)", col, q.sql))
	} else if col < 0 || col >= len(q.row) {
		return nil
	}

	// The driver produces bool and time.Time for columns having declared
	// types BOOLEAN or DATE/DATETIME/TIMESTAMP.
	switch v := q.row[col].(type) {
	case bool:
		if v {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return v.Format(sqlite3.SQLiteTimestampFormats[0])
	default:
		return v
	}
}

func (q *Query) mustBeLive(op string) {
	if !q.IsValid() {
		panic(fmt.Sprintf("sqldb: %s a finalized Query or a Query of a closed Database (%q)", op, q.sql))
	}
}

// fail records and logs |err| as the error of the Query, returning it as a
// *StorageError.
func (q *Query) fail(op string, err error) error {
	var se = storageError(err, q.sql)
	q.err = se

	metrics.SQLFaultsTotal.WithLabelValues(op, strconv.Itoa(int(se.Code))).Inc()
	log.WithFields(log.Fields{
		"op":    op,
		"code":  int(se.Code),
		"err":   se.Message,
		"query": q.sql,
	}).Error("sqlite statement failed")

	return se
}

// asText follows SQLite's conversion of a storage class to TEXT.
func asText(v driver.Value) string {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		var s = strconv.FormatFloat(v, 'g', 15, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		return s
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

// asInt64 follows SQLite's conversion of a storage class to INTEGER: text
// converts by its longest integer prefix, and reals are truncated.
func asInt64(v driver.Value) int64 {
	switch v := v.(type) {
	case int64:
		return v
	case float64:
		if math.IsNaN(v) {
			return 0
		} else if v >= math.MaxInt64 {
			return math.MaxInt64
		} else if v <= math.MinInt64 {
			return math.MinInt64
		}
		return int64(v)
	case string:
		return leadingInt(v)
	case []byte:
		return leadingInt(string(v))
	}
	return 0
}

// asDouble follows SQLite's conversion of a storage class to REAL.
func asDouble(v driver.Value) float64 {
	switch v := v.(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	case string:
		return leadingFloat(v)
	case []byte:
		return leadingFloat(string(v))
	}
	return 0
}

func leadingInt(s string) int64 {
	s = strings.TrimLeft(s, " \t\n\r")
	var end = 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	var n, err = strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		// Out of range parses saturate; anything else has no integer prefix.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return n
		}
		return 0
	}
	return n
}

func leadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	for end := len(s); end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f
		}
	}
	return 0
}
