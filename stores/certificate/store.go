// Package certificate persists the user's allow/deny decisions of TLS
// certificates, keyed on host.
package certificate

import (
	"go.browserstore.dev/core/sqldb"
	"go.browserstore.dev/core/stores/common"
)

const (
	storeName = "certificate"
	table     = "CERTIFICATE_TABLE"
	ddl       = " CREATE TABLE " + table +
		" ( host TEXT,   pem TEXT,   allow INTEGER," +
		" CONSTRAINT " + table + "_PK      PRIMARY KEY ( host )       ON CONFLICT REPLACE  ); "
)

// HostCert is the decision |Allow| recorded for the certificate of |Host|.
type HostCert struct {
	Host  string
	Allow int
}

// Store of certificate decisions. A nil *Store is disabled.
type Store struct {
	db *sqldb.Database
}

// New returns a Store of the Database of |dsn| within |reg|, creating its
// table if required.
func New(reg *sqldb.Registry, dsn string) (*Store, error) {
	var db, err = common.Bootstrap(storeName, reg, dsn, func(db *sqldb.Database) error {
		return sqldb.EnsureTable(db, table, ddl)
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// List returns the decisions of all hosts.
func (s *Store) List() ([]HostCert, error) {
	if s == nil {
		return nil, common.ErrDisabled
	}
	var out []HostCert

	var err = sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		var q = db.Prepare("SELECT host, allow FROM " + table + " ORDER BY host;")
		defer q.Close()

		if err := common.Exec(q); err != nil {
			return err
		}
		for q.HasNext() {
			out = append(out, HostCert{Host: q.String(0), Allow: q.Int(1)})

			if !q.Next() {
				return q.Err()
			}
		}
		return nil
	})
	if err != nil {
		return nil, common.Fault(storeName, "list", err)
	}
	return out, nil
}

// Count returns the number of recorded hosts.
func (s *Store) Count() (int, error) {
	if s == nil {
		return 0, common.ErrDisabled
	}
	var n, err = common.QueryInt(s.db, "SELECT COUNT (*) FROM "+table+" ;", 0)
	return n, common.Fault(storeName, "count", err)
}

// AddOrUpdate records certificate |pem| and decision |allow| of |host|,
// replacing any prior record of |host|. It returns the row ID of the record.
func (s *Store) AddOrUpdate(pem, host string, allow int) (id int64, err error) {
	if s == nil {
		return 0, common.ErrDisabled
	}
	err = sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		if err := common.ExecOnce(db, "REPLACE INTO "+table+" ( host, pem, allow ) VALUES ( ?, ?, ? );",
			host, pem, allow); err != nil {
			return err
		}
		id = db.LastInsertID()
		return nil
	})
	if err != nil {
		return 0, common.Fault(storeName, "add or update", err)
	}
	return id, nil
}

// PEM returns the certificate recorded for |host|, or "" if there is none.
func (s *Store) PEM(host string) (string, error) {
	if s == nil {
		return "", common.ErrDisabled
	}
	var q = s.db.Prepare("SELECT pem FROM " + table + " WHERE host = ?;")
	defer q.Close()

	if err := common.Exec(q, host); err != nil {
		return "", common.Fault(storeName, "pem", err)
	} else if !q.HasNext() {
		return "", nil
	}
	return q.String(0), nil
}

// DeleteAll records.
func (s *Store) DeleteAll() error {
	if s == nil {
		return common.ErrDisabled
	}
	return common.Fault(storeName, "delete all", sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		return db.Exec("DELETE FROM " + table + ";")
	}))
}
