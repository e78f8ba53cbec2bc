package sqldb

import (
	"errors"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.browserstore.dev/core/metrics"
)

func insertInScope(db *Database, fail error, panicking bool) (err error) {
	var scope *TransactionScope
	if scope, err = BeginScope(db); err != nil {
		return err
	}
	defer scope.End(&err)

	if err = db.Exec("INSERT INTO t VALUES (1)"); err != nil {
		return err
	} else if panicking {
		panic("whoops")
	}
	return fail
}

func TestScopeCommitsOnNormalExit(t *testing.T) {
	var db = openTestDB(t, testOptions())
	mustExec(t, db, "CREATE TABLE t (v INTEGER)")
	var commits = testutil.ToFloat64(metrics.SQLTransactionsTotal.WithLabelValues(metrics.Commit, metrics.Ok))

	require.NoError(t, insertInScope(db, nil, false))

	var clone, err = db.CloneForThread()
	require.NoError(t, err)
	defer clone.Close()
	require.Equal(t, 1, countRows(t, clone, "t"))
	require.Equal(t, commits+1,
		testutil.ToFloat64(metrics.SQLTransactionsTotal.WithLabelValues(metrics.Commit, metrics.Ok)))
}

func TestScopeRollsBackOnError(t *testing.T) {
	var db = openTestDB(t, testOptions())
	mustExec(t, db, "CREATE TABLE t (v INTEGER)")

	var failed = errors.New("failed")
	require.Equal(t, failed, insertInScope(db, failed, false))
	require.Equal(t, 0, countRows(t, db, "t"))

	// A new transaction may begin: the prior one ended.
	require.NoError(t, insertInScope(db, nil, false))
	require.Equal(t, 1, countRows(t, db, "t"))
}

func TestScopeRollsBackOnPanic(t *testing.T) {
	var db = openTestDB(t, testOptions())
	mustExec(t, db, "CREATE TABLE t (v INTEGER)")

	require.PanicsWithValue(t, "whoops", func() { _ = insertInScope(db, nil, true) })
	require.Equal(t, 0, countRows(t, db, "t"))
	require.NoError(t, insertInScope(db, nil, false))
}

func TestScopeExplicitCommitAndRollback(t *testing.T) {
	var db = openTestDB(t, testOptions())
	mustExec(t, db, "CREATE TABLE t (v INTEGER)")

	var scope, err = BeginScope(db)
	require.NoError(t, err)
	require.Same(t, db, scope.Database())
	require.True(t, scope.Active())

	mustExec(t, db, "INSERT INTO t VALUES (1)")
	require.NoError(t, scope.Commit())
	require.False(t, scope.Active())

	// Terminal actions of an inactive scope.
	require.Panics(t, func() { _ = scope.Commit() })
	require.NotPanics(t, scope.Rollback)
	scope.End(nil)
	require.Equal(t, 1, countRows(t, db, "t"))

	scope, err = BeginScope(db)
	require.NoError(t, err)
	mustExec(t, db, "INSERT INTO t VALUES (2)")
	scope.Rollback()
	scope.Rollback()
	require.Equal(t, 1, countRows(t, db, "t"))

	require.Panics(t, func() { _, _ = BeginScope(nil) })
}

func TestScopeBeginFailsWithinTransaction(t *testing.T) {
	var db = openTestDB(t, testOptions())

	var scope, err = BeginScope(db)
	require.NoError(t, err)
	defer scope.Rollback()

	_, err = BeginScope(db)
	require.Error(t, err)
	require.Contains(t, err.Error(), "within a transaction")
}

func TestWithTransaction(t *testing.T) {
	var db = openTestDB(t, testOptions())
	mustExec(t, db, "CREATE TABLE t (v INTEGER)")

	require.NoError(t, WithTransaction(db, func(db *Database) error {
		return db.Exec("INSERT INTO t VALUES (1)")
	}))
	require.Error(t, WithTransaction(db, func(db *Database) error {
		mustExec(t, db, "INSERT INTO t VALUES (2)")
		return db.Exec("INSERT INTO missing VALUES (2)")
	}))
	require.Equal(t, 1, countRows(t, db, "t"))
}

func TestFailedCommitIsRolledBack(t *testing.T) {
	var db = openTestDB(t, testOptions())
	mustExec(t, db,
		"CREATE TABLE parent (id INTEGER PRIMARY KEY)",
		"CREATE TABLE child (pid INTEGER REFERENCES parent(id) DEFERRABLE INITIALLY DEFERRED)")

	// The deferred foreign key is checked only by COMMIT, which fails and
	// leaves the transaction open.
	var err = WithTransaction(db, func(db *Database) error {
		return db.Exec("INSERT INTO child VALUES (9)")
	})
	require.Equal(t, sqlite3.ErrConstraint, Code(err))

	require.Equal(t, 0, countRows(t, db, "child"))

	// The Database is no longer within a transaction.
	scope, err := BeginScope(db)
	require.NoError(t, err)
	mustExec(t, db, "INSERT INTO parent VALUES (9)", "INSERT INTO child VALUES (9)")
	require.NoError(t, scope.Commit())
	require.Equal(t, 1, countRows(t, db, "child"))
}
