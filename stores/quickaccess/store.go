// Package quickaccess persists the quick-access tiles of the browser's
// start page, including their favicons.
package quickaccess

import (
	"go.browserstore.dev/core/blob"
	"go.browserstore.dev/core/sqldb"
	"go.browserstore.dev/core/stores/common"
)

const (
	storeName = "quickaccess"
	table     = "QUICKACCESS"
	ddl       = "CREATE TABLE " + table + " ( ID INTEGER PRIMARY KEY AUTOINCREMENT, URL TEXT UNIQUE, " +
		"TITLE TEXT, COLOR INTEGER, QA_ORDER INTEGER NOT NULL, HAS_FAVICON INTEGER, FAVICON BLOB, " +
		"WIDTH INTEGER, HEIGHT INTEGER  );"
)

// Item is a quick-access tile. Favicon holds encoded image bytes (typically
// PNG) of Width x Height pixels, and is nil unless HasFavicon.
type Item struct {
	ID         int64
	URL        string
	Title      string
	Color      int
	Order      int
	HasFavicon bool
	Favicon    *blob.Blob
	Width      int
	Height     int
}

// Store of quick-access items. A nil *Store is disabled.
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

// Add |item|, replacing any item having the same URL. Its ID is ignored.
// If |item| HasFavicon, the Store takes ownership of its Favicon buffer.
func (s *Store) Add(item Item) error {
	if s == nil {
		return common.ErrDisabled
	}
	return common.Fault(storeName, "add", sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		var q = db.Prepare("INSERT OR REPLACE INTO " + table +
			" (URL, TITLE, COLOR, QA_ORDER, HAS_FAVICON, FAVICON, WIDTH, HEIGHT) VALUES (?, ?, ?, ?, ?, ?, ?, ?);")
		defer q.Close()

		if err := q.Err(); err != nil {
			return err
		} else if err = bindItem(q, item); err != nil {
			return err
		}
		return q.Exec()
	}))
}

func bindItem(q *sqldb.Query, item Item) error {
	var hasFavicon int
	if item.HasFavicon {
		hasFavicon = 1
	}
	for _, err := range []error{
		q.BindText(1, item.URL),
		q.BindText(2, item.Title),
		q.BindInt(3, item.Color),
		q.BindInt(4, item.Order),
		q.BindInt(5, hasFavicon),
		q.BindInt(7, item.Width),
		q.BindInt(8, item.Height),
	} {
		if err != nil {
			return err
		}
	}
	if item.HasFavicon {
		return q.BindBlob(6, item.Favicon)
	}
	return q.BindNull(6)
}

// Delete the item having |id|.
func (s *Store) Delete(id int64) error {
	if s == nil {
		return common.ErrDisabled
	}
	return common.Fault(storeName, "delete", sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		return common.ExecOnce(db, "DELETE FROM "+table+" WHERE ID = ?;", id)
	}))
}

// Count returns the number of items.
func (s *Store) Count() (int, error) {
	if s == nil {
		return 0, common.ErrDisabled
	}
	var n, err = common.QueryInt(s.db, "SELECT COUNT (*) FROM "+table+" ;", 0)
	return n, common.Fault(storeName, "count", err)
}

// Exists is true if an item of |url| exists.
func (s *Store) Exists(url string) (bool, error) {
	if s == nil {
		return false, common.ErrDisabled
	}
	var n, err = common.QueryInt(s.db, "SELECT COUNT(*) FROM "+table+" WHERE URL = ?;", 0, url)
	if err != nil {
		return false, common.Fault(storeName, "exists", err)
	}
	return n != 0, nil
}

// List returns all items, ordered on QA_ORDER and then ID.
func (s *Store) List() ([]Item, error) {
	if s == nil {
		return nil, common.ErrDisabled
	}
	var out []Item

	var err = sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		var q = db.Prepare("SELECT ID, URL, TITLE, COLOR, QA_ORDER, HAS_FAVICON, FAVICON, WIDTH, HEIGHT FROM " +
			table + " ORDER BY QA_ORDER, ID;")
		defer q.Close()

		if err := common.Exec(q); err != nil {
			return err
		}
		for q.HasNext() {
			var item = Item{
				ID:         q.Int64(0),
				URL:        q.String(1),
				Title:      q.String(2),
				Color:      q.Int(3),
				Order:      q.Int(4),
				HasFavicon: q.Int(5) != 0,
			}
			if item.HasFavicon {
				item.Favicon = q.Blob(6)
				item.Width = q.Int(7)
				item.Height = q.Int(8)
			}
			out = append(out, item)

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
