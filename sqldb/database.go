package sqldb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"weak"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.browserstore.dev/core/metrics"
)

// Database is a handle to one SQLite database file, owning a single native
// connection. A Database and the Queries prepared from it must be used by
// one goroutine at a time; use CloneForThread to obtain an independent
// connection for another goroutine.
type Database struct {
	opts  Options
	retry retryPolicy

	mu   sync.Mutex
	conn *sqlite3.SQLiteConn
	path string
	// Queries prepared from |conn| and not yet closed. They're finalized
	// before |conn| is released.
	live map[*Query]struct{}
}

// NewDatabase returns a Database which is not yet open.
func NewDatabase(opts Options) *Database {
	return &Database{
		opts:  opts,
		retry: newRetryPolicy(opts),
	}
}

// Open the database file at |path|, creating it if it doesn't exist, and
// enable enforcement of foreign keys. Open panics if the Database is
// already open, and fails if its Options are invalid.
func (db *Database) Open(path string) error {
	db.mu.Lock()
	if db.conn != nil {
		db.mu.Unlock()
		panic(fmt.Sprintf("sqldb: Open(%q) of a Database already open at %q", path, db.path))
	} else if err := db.opts.Validate(); err != nil {
		db.mu.Unlock()
		return errors.WithMessagef(err, "opening %s", path)
	}

	var conn, err = (&sqlite3.SQLiteDriver{}).Open(db.opts.driverDSN(path))
	if err != nil {
		db.mu.Unlock()

		var se = storageError(err, "")
		metrics.SQLFaultsTotal.WithLabelValues("open", strconv.Itoa(int(se.Code))).Inc()
		log.WithFields(log.Fields{"path": path, "code": int(se.Code), "err": se.Message}).
			Error("failed to open database")
		return se
	}
	db.conn = conn.(*sqlite3.SQLiteConn)
	db.path = path
	db.live = make(map[*Query]struct{})
	db.mu.Unlock()

	if err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return err
	}
	log.WithField("path", path).Debug("opened database")
	return nil
}

// Close finalizes outstanding Queries and releases the native connection.
// Close of a Database which isn't open is a no-op.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.conn == nil {
		return nil
	}
	for q := range db.live {
		_ = q.finalize()
	}
	var err = db.conn.Close()
	db.conn, db.live = nil, nil

	if err != nil {
		return storageError(err, "")
	}
	log.WithField("path", db.path).Debug("closed database")
	return nil
}

// IsOpen is true if the Database holds an open native connection.
func (db *Database) IsOpen() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.conn != nil
}

// Path of the database file, as passed to Open.
func (db *Database) Path() string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.path
}

// Prepare compiles |query| into a Query. Prepare never returns nil: if
// compilation fails (or the Database isn't open) the returned Query is
// invalid, its Err returns the cause, and its Exec returns that same error.
// This lets callers tolerate statements over tables which may not exist.
func (db *Database) Prepare(query string) *Query {
	var q = &Query{
		db:    weak.Make(db),
		retry: db.retry,
		sql:   query,
	}

	db.mu.Lock()
	var conn = db.conn
	db.mu.Unlock()

	if conn == nil {
		q.err = ErrNotOpen
		return q
	}

	var stmt driver.Stmt
	var err = db.retry.do(metrics.OpPrepare, query, func() (err error) {
		stmt, err = conn.PrepareContext(context.Background(), query)
		return err
	})
	if err != nil {
		_ = q.fail(metrics.OpPrepare, err)
		return q
	}

	q.stmt = stmt.(*sqlite3.SQLiteStmt)
	q.args = make([]driver.NamedValue, q.stmt.NumInput())
	for i := range q.args {
		q.args[i].Ordinal = i + 1
	}

	db.mu.Lock()
	if db.live != nil {
		db.live[q] = struct{}{}
	}
	db.mu.Unlock()

	return q
}

// forget removes |q| from the set of live Queries.
func (db *Database) forget(q *Query) {
	db.mu.Lock()
	delete(db.live, q)
	db.mu.Unlock()
}

// Exec prepares |query| and runs it once. Returns a *StorageError on any
// result other than a row or completion.
func (db *Database) Exec(query string) error {
	var q = db.Prepare(query)
	defer q.Close()
	return q.Exec()
}

// TableExists is true if a table |name| exists in the database. It's false
// if the Database isn't open.
func (db *Database) TableExists(name string) (bool, error) {
	if !db.IsOpen() {
		return false, nil
	}
	var q = db.Prepare("select count(*) from sqlite_master where type='table' and name=?")
	defer q.Close()

	if err := q.Err(); err != nil {
		return false, err
	} else if err = q.BindText(1, name); err != nil {
		return false, err
	} else if err = q.Exec(); err != nil {
		return false, err
	}
	return q.HasNext() && q.Int(0) > 0, nil
}

// LastInsertID returns the row ID of the most recent successful INSERT
// on this handle, or -1 if the Database isn't open or the ID can't be read.
func (db *Database) LastInsertID() int64 {
	if !db.IsOpen() {
		return -1
	}
	var q = db.Prepare("SELECT last_insert_rowid()")
	defer q.Close()

	if err := q.Exec(); err != nil || !q.HasNext() {
		return -1
	}
	return q.Int64(0)
}

// TableColumnNames returns the names of the columns of |table|, in order.
func (db *Database) TableColumnNames(table string) ([]string, error) {
	var q = db.Prepare("PRAGMA table_info(" + quoteIdentifier(table) + ")")
	defer q.Close()

	if err := q.Exec(); err != nil {
		return nil, err
	}
	var names []string
	for q.HasNext() {
		names = append(names, q.String(1))

		if !q.Next() {
			return nil, q.Err()
		}
	}
	return names, nil
}

// Begin an exclusive transaction.
func (db *Database) Begin() error { return db.Exec("BEGIN EXCLUSIVE TRANSACTION") }

// Commit the current transaction.
func (db *Database) Commit() error { return db.Exec("COMMIT") }

// Rollback the current transaction. Rollback is best-effort: a failure is
// logged and otherwise ignored.
func (db *Database) Rollback() {
	if err := db.Exec("ROLLBACK"); err != nil {
		log.WithFields(log.Fields{"path": db.Path(), "err": err}).Warn("failed to roll back transaction")
	}
}

// CloneForThread opens and returns a new Database for the same file and
// Options, having its own native connection.
func (db *Database) CloneForThread() (*Database, error) {
	var path = db.Path()
	if path == "" {
		return nil, ErrNotOpen
	}
	var clone = NewDatabase(db.opts)
	if err := clone.Open(path); err != nil {
		return nil, err
	}
	return clone, nil
}

func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
