package common

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.browserstore.dev/core/metrics"
	"go.browserstore.dev/core/sqldb"
)

func newTestDB(t *testing.T) (*sqldb.Registry, *sqldb.Database) {
	var reg = sqldb.NewRegistry(sqldb.DefaultOptions())
	t.Cleanup(func() { _ = reg.Close() })

	var db, err = reg.Get(filepath.Join(t.TempDir(), "common.db"))
	require.NoError(t, err)
	require.NoError(t, db.Exec("create table T (I INTEGER, D DOUBLE, S TEXT, B BLOB)"))
	return reg, db
}

func TestExecBindsArgumentTypes(t *testing.T) {
	var _, db = newTestDB(t)
	const insert = "insert into T (I, D, S, B) values (?, ?, ?, ?)"

	require.NoError(t, ExecOnce(db, insert, 7, 1.5, "seven", []byte("7")))
	require.NoError(t, ExecOnce(db, insert, int64(8), nil, sqldb.TextField("eight"), nil))
	require.NoError(t, ExecOnce(db, insert, true, 0.0, "", []byte{}))

	var n, err = QueryInt(db, "select count(*) from T", -1)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = QueryInt(db, "select I from T where S = ?", -1, "eight")
	require.NoError(t, err)
	require.Equal(t, 8, n)

	n, err = QueryInt(db, "select I from T where S = ?", -1, "missing")
	require.NoError(t, err)
	require.Equal(t, -1, n)

	n, err = QueryInt(db, "select count(*) from T where D is null and B is null", -1)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = QueryInt(db, "select I from T where S = ''", -1)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.PanicsWithValue(t, "common: unsupported argument type struct {}", func() {
		_ = ExecOnce(db, insert, struct{}{}, 0, "", nil)
	})
}

func TestExecPropagatesErrors(t *testing.T) {
	var _, db = newTestDB(t)

	var err = ExecOnce(db, "insert into Missing values (?)", 1)
	require.Error(t, err)
	require.Equal(t, sqlite3.ErrError, sqldb.Code(err))

	err = ExecOnce(db, "insert into T (I) values (?)", 1, 2)
	require.Error(t, err)
}

func TestFaultCounts(t *testing.T) {
	require.NoError(t, Fault("test-store", "op", nil))

	var before = testutil.ToFloat64(metrics.StoreFaultsTotal.WithLabelValues("test-store", "op"))
	var boom = errors.New("boom")
	require.Equal(t, boom, Fault("test-store", "op", boom))
	require.Equal(t, before+1, testutil.ToFloat64(metrics.StoreFaultsTotal.WithLabelValues("test-store", "op")))
}

func TestBootstrap(t *testing.T) {
	var reg, _ = newTestDB(t)
	var dir = t.TempDir()

	var db, err = Bootstrap("good", reg, filepath.Join(dir, "good.db"), func(db *sqldb.Database) error {
		return sqldb.EnsureTable(db, "G", "create table G (X INTEGER)")
	})
	require.NoError(t, err)
	require.True(t, db.IsOpen())
	require.Equal(t, 0.0, testutil.ToFloat64(metrics.StoreDisabled.WithLabelValues("good")))

	var initErr = errors.New("init failed")
	db, err = Bootstrap("bad", reg, filepath.Join(dir, "bad.db"), func(*sqldb.Database) error { return initErr })
	require.Nil(t, db)

	var ie *sqldb.InitError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, "bad", ie.Store)
	require.ErrorIs(t, err, initErr)
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreDisabled.WithLabelValues("bad")))

	// A Database which can't be opened also fails bootstrap.
	_, err = Bootstrap("unopenable", reg, filepath.Join(dir, "missing", "x.db"),
		func(*sqldb.Database) error { return nil })
	require.ErrorAs(t, err, &ie)
}
