// Package common holds helpers shared by the browser's domain stores.
package common

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.browserstore.dev/core/metrics"
	"go.browserstore.dev/core/sqldb"
)

// ErrDisabled is returned by operations of a store whose schema bootstrap
// failed, and which is disabled for the session.
var ErrDisabled = errors.New("store is disabled")

// Fault logs and counts a failed operation |op| of |store|, and returns |err|.
func Fault(store, op string, err error) error {
	if err == nil {
		return nil
	}
	metrics.StoreFaultsTotal.WithLabelValues(store, op).Inc()
	log.WithFields(log.Fields{
		"store": store,
		"op":    op,
		"code":  int(sqldb.Code(err)),
		"err":   err,
	}).Error("store operation failed")
	return err
}

// Bootstrap obtains the Database of |dsn| from |reg| and runs |init| over it,
// returning a *sqldb.InitError on failure.
func Bootstrap(store string, reg *sqldb.Registry, dsn string, init func(*sqldb.Database) error) (*sqldb.Database, error) {
	var db, err = reg.Get(dsn)
	if err == nil {
		err = init(db)
	}
	if err != nil {
		metrics.StoreDisabled.WithLabelValues(store).Set(1)
		log.WithFields(log.Fields{"store": store, "dsn": dsn, "err": err}).
			Error("failed to initialize store")
		return nil, &sqldb.InitError{Store: store, Err: err}
	}
	metrics.StoreDisabled.WithLabelValues(store).Set(0)
	return db, nil
}

// QueryInt runs |query| with |args| over |db| and returns the integer of its
// first column, or |def| if no row results.
func QueryInt(db *sqldb.Database, query string, def int, args ...any) (int, error) {
	var q = db.Prepare(query)
	defer q.Close()

	if err := Exec(q, args...); err != nil {
		return def, err
	} else if !q.HasNext() {
		return def, nil
	}
	return q.Int(0), nil
}

// Exec binds |args| to |q| in order, and executes it. Arguments may be
// string, int, int64, float64, bool, []byte, sqldb.Field, or nil.
func Exec(q *sqldb.Query, args ...any) error {
	if err := q.Err(); err != nil {
		return err
	}
	for i, arg := range args {
		var n = i + 1
		var err error

		switch v := arg.(type) {
		case nil:
			err = q.BindNull(n)
		case string:
			err = q.BindText(n, v)
		case int:
			err = q.BindInt(n, v)
		case int64:
			err = q.BindInt64(n, v)
		case float64:
			err = q.BindDouble(n, v)
		case bool:
			err = q.BindInt(n, boolToInt(v))
		case []byte:
			err = q.BindBytes(n, v)
		case sqldb.Field:
			err = q.BindField(n, v)
		default:
			panic(fmt.Sprintf("common: unsupported argument type %T", arg))
		}
		if err != nil {
			return err
		}
	}
	return q.Exec()
}

// ExecOnce prepares |query|, binds |args| and executes it.
func ExecOnce(db *sqldb.Database, query string, args ...any) error {
	var q = db.Prepare(query)
	defer q.Close()
	return Exec(q, args...)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
