// Package settings persists browser settings as typed key/value entries.
package settings

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.browserstore.dev/core/blob"
	"go.browserstore.dev/core/sqldb"
	"go.browserstore.dev/core/stores/common"
)

const (
	storeName = "settings"
	table     = "SETTINGS"
	ddl       = "CREATE TABLE " + table + " (KEY TEXT PRIMARY KEY, VALUE_INT INTEGER, VALUE_DOUBLE DOUBLE, VALUE_TEXT TEXT)"
)

// Store of settings. A nil *Store is disabled: reads return their defaults
// and all operations return common.ErrDisabled.
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

// Int returns the integer value of |key|, or |def| if it isn't set.
func (s *Store) Int(key string, def int) (int, error) {
	var f, err = s.value(key, "VALUE_INT", "int")
	if err != nil || f.IsNull() {
		return def, err
	}
	return int(f.Int64()), nil
}

// Double returns the floating-point value of |key|, or |def| if it isn't set.
func (s *Store) Double(key string, def float64) (float64, error) {
	var f, err = s.value(key, "VALUE_DOUBLE", "double")
	if err != nil || f.IsNull() {
		return def, err
	}
	if f.Type() == sqldb.FieldInteger {
		return float64(f.Int64()), nil
	}
	return f.Double(), nil
}

// Text returns the string value of |key|, or |def| if it isn't set.
func (s *Store) Text(key string, def string) (string, error) {
	var f, err = s.value(key, "VALUE_TEXT", "text")
	if err != nil || f.IsNull() {
		return def, err
	}
	return f.Text(), nil
}

// Bool returns the boolean value of |key|, stored as an integer, or |def|
// if it isn't set.
func (s *Store) Bool(key string, def bool) (bool, error) {
	var v, err = s.Int(key, -1)
	if err != nil || v < 0 {
		return def, err
	}
	return v != 0, nil
}

// value returns |column| of the entry of |key|, which is NULL if there's no
// such entry.
func (s *Store) value(key, column, op string) (sqldb.Field, error) {
	if s == nil {
		return sqldb.NullField(), common.ErrDisabled
	}
	var q = s.db.Prepare("select " + column + " from " + table + " where KEY=?")
	defer q.Close()

	if err := common.Exec(q, key); err != nil {
		return sqldb.NullField(), common.Fault(storeName, op, err)
	} else if !q.HasNext() {
		return sqldb.NullField(), nil
	}
	var f, err = q.Field(0)
	if err != nil {
		return sqldb.NullField(), common.Fault(storeName, op, err)
	}
	return f, nil
}

// Has is true if an entry of |key| exists.
func (s *Store) Has(key string) (bool, error) {
	if s == nil {
		return false, common.ErrDisabled
	}
	var n, err = common.QueryInt(s.db, "select count(*) from "+table+" where KEY=?", 0, key)
	if err != nil {
		return false, common.Fault(storeName, "has", err)
	}
	return n != 0, nil
}

func (s *Store) SetInt(key string, v int) error {
	return s.SetValue(key, sqldb.IntField(int64(v)))
}

func (s *Store) SetDouble(key string, v float64) error {
	return s.SetValue(key, sqldb.DoubleField(v))
}

func (s *Store) SetText(key string, v string) error {
	return s.SetValue(key, sqldb.TextField(v))
}

func (s *Store) SetBool(key string, v bool) error {
	var i int64
	if v {
		i = 1
	}
	return s.SetValue(key, sqldb.IntField(i))
}

// SetValue upserts the entry of |key| to |f|, replacing any prior value of
// any type. |f| must be an INTEGER, FLOAT, or TEXT Field.
func (s *Store) SetValue(key string, f sqldb.Field) error {
	var column string
	switch f.Value().(type) {
	case int64:
		column = "VALUE_INT"
	case float64:
		column = "VALUE_DOUBLE"
	case string:
		column = "VALUE_TEXT"
	case nil, *blob.Blob:
		panic(fmt.Sprintf("settings: value of %q has unsupported type %s", key, f.Type()))
	}
	if s == nil {
		return common.ErrDisabled
	}

	var err = common.ExecOnce(s.db,
		"insert or replace into "+table+" (KEY, "+column+") values (?,?)", key, f)
	if err != nil {
		return common.Fault(storeName, "set", err)
	}
	log.WithFields(log.Fields{"key": key, "type": f.Type()}).Debug("stored setting")
	return nil
}

// Delete the entry of |key|.
func (s *Store) Delete(key string) error {
	if s == nil {
		return common.ErrDisabled
	}
	return common.Fault(storeName, "delete",
		common.ExecOnce(s.db, "delete from "+table+" where KEY=?", key))
}

// DeleteAll entries.
func (s *Store) DeleteAll() error {
	if s == nil {
		return common.ErrDisabled
	}
	return common.Fault(storeName, "delete all", s.db.Exec("delete from "+table))
}

// Entry is a stored setting. Exactly one of its values is non-NULL.
type Entry struct {
	Key   string
	Value sqldb.Field
}

// List returns all entries, ordered on key.
func (s *Store) List() ([]Entry, error) {
	if s == nil {
		return nil, common.ErrDisabled
	}
	var q = s.db.Prepare("select KEY, VALUE_INT, VALUE_DOUBLE, VALUE_TEXT from " + table + " order by KEY")
	defer q.Close()

	if err := common.Exec(q); err != nil {
		return nil, common.Fault(storeName, "list", err)
	}
	var out []Entry
	for q.HasNext() {
		var entry = Entry{Key: q.String(0)}
		for col := 1; col != 4 && entry.Value.IsNull(); col++ {
			var f, err = q.Field(col)
			if err != nil {
				return nil, common.Fault(storeName, "list", err)
			}
			entry.Value = f
		}
		out = append(out, entry)

		if !q.Next() {
			return nil, common.Fault(storeName, "list", q.Err())
		}
	}
	return out, nil
}
