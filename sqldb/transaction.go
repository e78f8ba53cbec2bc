package sqldb

import (
	log "github.com/sirupsen/logrus"
	"go.browserstore.dev/core/metrics"
)

// TransactionScope guards an exclusive transaction of a Database, and
// ensures it's ended exactly once: it's committed explicitly or on normal
// exit of the enclosing function, and rolled back on error or panic.
//
//	var scope, err = sqldb.BeginScope(db)
//	if err != nil {
//		return err
//	}
//	defer scope.End(&err)
type TransactionScope struct {
	db     *Database
	active bool
}

// BeginScope begins an exclusive transaction of |db|. |db| must be non-nil.
func BeginScope(db *Database) (*TransactionScope, error) {
	if db == nil {
		panic("sqldb: BeginScope of a nil Database")
	}
	if err := db.Begin(); err != nil {
		return nil, err
	}
	return &TransactionScope{db: db, active: true}, nil
}

// Database of the TransactionScope.
func (s *TransactionScope) Database() *Database { return s.db }

// Active is true if the transaction has not yet been committed or rolled back.
func (s *TransactionScope) Active() bool { return s.active }

// Commit the transaction. The scope must be active, and is inactive upon
// return regardless of the outcome. A failed commit is rolled back, so that
// the Database isn't left within the transaction.
func (s *TransactionScope) Commit() error {
	if !s.active {
		panic("sqldb: Commit of an inactive TransactionScope")
	}
	s.active = false

	if err := s.db.Commit(); err != nil {
		metrics.SQLTransactionsTotal.WithLabelValues(metrics.Commit, metrics.Fail).Inc()
		s.db.Rollback()
		return err
	}
	metrics.SQLTransactionsTotal.WithLabelValues(metrics.Commit, metrics.Ok).Inc()
	return nil
}

// Rollback the transaction, if active. Rollback never fails loudly.
func (s *TransactionScope) Rollback() {
	if !s.active {
		return
	}
	s.active = false
	s.db.Rollback()
	metrics.SQLTransactionsTotal.WithLabelValues(metrics.Rollback, metrics.Ok).Inc()
}

// End the transaction. End must be deferred directly by the function which
// began the scope, passing the address of its named error result (or nil).
// If the function is panicking, or |*errp| is non-nil, an active
// transaction is rolled back (and the panic continues). Otherwise an active
// transaction is committed, and a commit error is stored into |*errp|.
func (s *TransactionScope) End(errp *error) {
	if r := recover(); r != nil {
		if s.active {
			log.WithField("panic", r).Warn("rolling back transaction due to panic")
			s.Rollback()
		}
		panic(r)
	}
	if !s.active {
		return
	} else if errp != nil && *errp != nil {
		s.Rollback()
	} else if err := s.Commit(); err != nil && errp != nil {
		*errp = err
	}
}

// WithTransaction invokes |fn| within a TransactionScope of |db|, committing
// if |fn| returns nil and rolling back otherwise.
func WithTransaction(db *Database, fn func(*Database) error) (err error) {
	var scope *TransactionScope
	if scope, err = BeginScope(db); err != nil {
		return err
	}
	defer scope.End(&err)

	return fn(db)
}
