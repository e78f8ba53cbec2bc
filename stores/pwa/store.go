// Package pwa persists the user's responses to prompts to install a
// site as a progressive web application.
package pwa

import (
	"go.browserstore.dev/core/sqldb"
	"go.browserstore.dev/core/stores/common"
)

const (
	storeName = "pwa"
	table     = "PWA"
	ddl       = "CREATE TABLE " + table + " ( ID INTEGER PRIMARY KEY AUTOINCREMENT, URL TEXT UNIQUE, EXIST INTEGER, NEVER INTEGER  );"
)

// Entry is the recorded response of a URL.
type Entry struct {
	ID    int64
	URL   string
	Exist int
	Never int
}

// Store of PWA responses. A nil *Store is disabled.
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

// Add the response of |url|, replacing any prior response.
func (s *Store) Add(url string, exist, never int) error {
	if s == nil {
		return common.ErrDisabled
	}
	return common.Fault(storeName, "add", sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		return common.ExecOnce(db, "INSERT OR REPLACE INTO "+table+" (URL, EXIST, NEVER) VALUES (?, ?, ?);",
			url, exist, never)
	}))
}

// DeleteAll responses.
func (s *Store) DeleteAll() error {
	if s == nil {
		return common.ErrDisabled
	}
	return common.Fault(storeName, "delete all", sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		return db.Exec("DELETE FROM " + table + " ;")
	}))
}

// Count returns the number of recorded responses.
func (s *Store) Count() (int, error) {
	if s == nil {
		return 0, common.ErrDisabled
	}
	var n, err = common.QueryInt(s.db, "SELECT COUNT (*) FROM "+table+" ;", 0)
	return n, common.Fault(storeName, "count", err)
}

// Check returns the recorded response of |url|: its NEVER value if
// non-zero, and otherwise its EXIST value. It's zero if |url| has no
// recorded response.
func (s *Store) Check(url string) (int, error) {
	if s == nil {
		return 0, common.ErrDisabled
	}
	var q = s.db.Prepare("SELECT EXIST, NEVER FROM " + table + " WHERE URL = ?;")
	defer q.Close()

	if err := common.Exec(q, url); err != nil {
		return 0, common.Fault(storeName, "check", err)
	} else if !q.HasNext() {
		return 0, nil
	} else if never := q.Int(1); never != 0 {
		return never, nil
	}
	return q.Int(0), nil
}

// List returns all responses, ordered on ID.
func (s *Store) List() ([]Entry, error) {
	if s == nil {
		return nil, common.ErrDisabled
	}
	var q = s.db.Prepare("SELECT ID, URL, EXIST, NEVER FROM " + table + " ORDER BY ID;")
	defer q.Close()

	if err := common.Exec(q); err != nil {
		return nil, common.Fault(storeName, "list", err)
	}
	var out []Entry
	for q.HasNext() {
		out = append(out, Entry{ID: q.Int64(0), URL: q.String(1), Exist: q.Int(2), Never: q.Int(3)})

		if !q.Next() {
			return nil, common.Fault(storeName, "list", q.Err())
		}
	}
	return out, nil
}
