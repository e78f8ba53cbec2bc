// Package folders persists bookmark folders and their bookmark counts.
//
// Two folders always exist: "All", whose count tracks bookmarks of every
// folder, and a special folder (by default "Mobile") which holds bookmarks
// not filed elsewhere. Neither may be deleted, and "All" may not be renamed.
package folders

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.browserstore.dev/core/sqldb"
	"go.browserstore.dev/core/stores/common"
)

const (
	storeName = "folders"
	table     = "FOLDER_TABLE"
	ddl       = " CREATE TABLE " + table +
		" ( folder_id INTEGER,    name TEXT,   number INTEGER," +
		" CONSTRAINT " + table + "_PK      PRIMARY KEY ( folder_id )       ON CONFLICT REPLACE  ); "

	// AllFolderName is the name of the folder counting all bookmarks.
	AllFolderName = "All"
	// DefaultSpecialFolderName is the default name of the special folder.
	DefaultSpecialFolderName = "Mobile"
)

// Folder is a bookmark folder.
type Folder struct {
	ID    int64
	Name  string
	Count int
}

// Store of bookmark folders. A nil *Store is disabled.
type Store struct {
	db      *sqldb.Database
	all     int64
	special int64
}

// New returns a Store of the Database of |dsn| within |reg|, creating its
// table and the "All" and |specialName| folders if required.
func New(reg *sqldb.Registry, dsn, specialName string) (*Store, error) {
	if specialName == "" {
		specialName = DefaultSpecialFolderName
	}
	var s = new(Store)

	var db, err = common.Bootstrap(storeName, reg, dsn, func(db *sqldb.Database) (err error) {
		s.db = db

		if err = sqldb.EnsureTable(db, table, ddl); err != nil {
			return err
		} else if s.all, err = s.ensureFolder(AllFolderName); err != nil {
			return err
		} else if s.special, err = s.ensureFolder(specialName); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.db = db
	return s, nil
}

// ensureFolder returns the ID of folder |name|, adding it if it doesn't exist.
func (s *Store) ensureFolder(name string) (int64, error) {
	if exists, err := s.Exists(name); err != nil {
		return 0, err
	} else if exists {
		return s.ID(name)
	}
	var id, err = s.Add(name)
	if err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{"name": name, "id": id}).Info("created bookmark folder")
	return id, nil
}

// AllFolderID returns the ID of the "All" folder.
func (s *Store) AllFolderID() int64 {
	if s == nil {
		return 0
	}
	return s.all
}

// SpecialFolderID returns the ID of the special folder.
func (s *Store) SpecialFolderID() int64 {
	if s == nil {
		return 0
	}
	return s.special
}

// Get returns folder |id|, or nil if there's no such folder.
func (s *Store) Get(id int64) (*Folder, error) {
	if s == nil {
		return nil, common.ErrDisabled
	}
	var q = s.db.Prepare("SELECT folder_id, name, number FROM " + table + " WHERE folder_id = ?;")
	defer q.Close()

	if err := common.Exec(q, id); err != nil {
		return nil, common.Fault(storeName, "get", err)
	} else if !q.HasNext() {
		return nil, nil
	}
	return &Folder{ID: q.Int64(0), Name: q.String(1), Count: q.Int(2)}, nil
}

// List returns all folders, ordered on ID.
func (s *Store) List() ([]Folder, error) {
	if s == nil {
		return nil, common.ErrDisabled
	}
	var out []Folder

	var err = sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		var q = db.Prepare("SELECT folder_id, name, number FROM " + table + " ORDER BY folder_id;")
		defer q.Close()

		if err := common.Exec(q); err != nil {
			return err
		}
		for q.HasNext() {
			out = append(out, Folder{ID: q.Int64(0), Name: q.String(1), Count: q.Int(2)})

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

// Count returns the number of folders, including "All" and the special folder.
func (s *Store) Count() (int, error) {
	if s == nil {
		return 0, common.ErrDisabled
	}
	var n, err = common.QueryInt(s.db, "SELECT COUNT (*) FROM "+table+" ;", 0)
	return n, common.Fault(storeName, "count", err)
}

// Add a folder |name|, returning its ID.
func (s *Store) Add(name string) (id int64, err error) {
	if s == nil {
		return 0, common.ErrDisabled
	}
	err = sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		if err := common.ExecOnce(db, "INSERT OR REPLACE INTO "+table+" ( name ) VALUES ( ? );", name); err != nil {
			return err
		}
		id = db.LastInsertID()
		return nil
	})
	if err != nil {
		return 0, common.Fault(storeName, "add", err)
	}
	return id, nil
}

// Rename folder |id| to |name|. The "All" folder is never renamed.
func (s *Store) Rename(id int64, name string) error {
	if s == nil {
		return common.ErrDisabled
	} else if id == s.all {
		return nil
	}
	return common.Fault(storeName, "rename", sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		return common.ExecOnce(db, "UPDATE "+table+" SET name = ? WHERE folder_id = ?", name, id)
	}))
}

// IncrementCount increments the bookmark count of folder |id|, and of the
// "All" folder.
func (s *Store) IncrementCount(id int64) error {
	return common.Fault(storeName, "increment count", s.adjustCount(id, 1))
}

// DecrementCount decrements the bookmark count of folder |id|, and of the
// "All" folder. Counts don't go below zero.
func (s *Store) DecrementCount(id int64) error {
	return common.Fault(storeName, "decrement count", s.adjustCount(id, -1))
}

func (s *Store) adjustCount(id int64, delta int) error {
	if s == nil {
		return common.ErrDisabled
	}
	var ids = []int64{id}
	if id != s.all {
		ids = append(ids, s.all)
	}

	return sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		for _, id := range ids {
			var count, err = common.QueryInt(db, "SELECT number FROM "+table+" WHERE folder_id = ?;", 0, id)
			if err != nil {
				return err
			}
			if err = common.ExecOnce(db, "UPDATE "+table+" SET number = ? WHERE folder_id = ?",
				max(count+delta, 0), id); err != nil {
				return errors.WithMessagef(err, "updating count of folder %d", id)
			}
		}
		return nil
	})
}

// Delete folder |id|. The "All" and special folders are never deleted.
func (s *Store) Delete(id int64) error {
	if s == nil {
		return common.ErrDisabled
	} else if id == s.all || id == s.special {
		return nil
	}
	return common.Fault(storeName, "delete", sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		return common.ExecOnce(db, "DELETE FROM "+table+" WHERE folder_id = ?;", id)
	}))
}

// DeleteAll deletes every folder other than "All" and the special folder,
// and resets the counts of those two to zero.
func (s *Store) DeleteAll() error {
	if s == nil {
		return common.ErrDisabled
	}
	return common.Fault(storeName, "delete all", sqldb.WithTransaction(s.db, func(db *sqldb.Database) error {
		if err := common.ExecOnce(db, "DELETE FROM "+table+" WHERE folder_id != ? AND folder_id != ? ;",
			s.all, s.special); err != nil {
			return err
		}
		return common.ExecOnce(db, "UPDATE "+table+" SET number = ? WHERE folder_id = ? OR folder_id = ?",
			0, s.all, s.special)
	}))
}

// Exists is true if a folder |name| exists.
func (s *Store) Exists(name string) (bool, error) {
	if s == nil {
		return false, common.ErrDisabled
	}
	var n, err = common.QueryInt(s.db, "SELECT COUNT (*) FROM "+table+" WHERE name = ?;", 0, name)
	if err != nil {
		return false, common.Fault(storeName, "exists", err)
	}
	return n != 0, nil
}

// ID returns the ID of folder |name|, or zero if there's no such folder.
func (s *Store) ID(name string) (int64, error) {
	if s == nil {
		return 0, common.ErrDisabled
	}
	var q = s.db.Prepare("SELECT folder_id FROM " + table + " WHERE name = ?;")
	defer q.Close()

	if err := common.Exec(q, name); err != nil {
		return 0, common.Fault(storeName, "id", err)
	} else if !q.HasNext() {
		return 0, nil
	}
	return q.Int64(0), nil
}

// Name returns the name of folder |id|, or "" if there's no such folder.
func (s *Store) Name(id int64) (string, error) {
	var f, err = s.Get(id)
	if f == nil {
		return "", err
	}
	return f.Name, nil
}

// Number returns the bookmark count of folder |id|, or zero if there's no
// such folder.
func (s *Store) Number(id int64) (int, error) {
	var f, err = s.Get(id)
	if f == nil {
		return 0, err
	}
	return f.Count, nil
}
