package sqldb

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// EnsureTable creates |table| of |db| by executing |ddl| verbatim, if the
// table doesn't already exist.
func EnsureTable(db *Database, table, ddl string) error {
	var exists, err = db.TableExists(table)
	if err != nil {
		return errors.WithMessagef(err, "checking for table %s", table)
	} else if exists {
		return nil
	}

	log.WithFields(log.Fields{"table": table, "path": db.Path()}).
		Info("table can't be found, it will be recreated")

	if err = db.Exec(ddl); err != nil {
		return errors.WithMessagef(err, "creating table %s", table)
	}
	return nil
}

// EnsureTableAt is EnsureTable of the Database of |dsn| within |reg|.
func EnsureTableAt(reg *Registry, dsn, table, ddl string) error {
	var db, err = reg.Get(dsn)
	if err != nil {
		return err
	}
	return EnsureTable(db, table, ddl)
}

// EnsureTableInScope is EnsureTable of the Database of |scope|.
func EnsureTableInScope(scope *TransactionScope, table, ddl string) error {
	return EnsureTable(scope.Database(), table, ddl)
}
