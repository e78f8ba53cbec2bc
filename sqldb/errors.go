package sqldb

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrNotOpen is returned by operations of a Database which isn't open.
var ErrNotOpen = errors.New("database is not open")

// StorageError is a fault reported by the SQLite engine, carrying its native
// result code and message along with the query which produced it.
type StorageError struct {
	Code         sqlite3.ErrNo
	ExtendedCode sqlite3.ErrNoExtended
	Message      string
	Query        string
}

func (e *StorageError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("sqlite error %d: %s", int(e.Code), e.Message)
	}
	return fmt.Sprintf("sqlite error %d: %s (query: %q)", int(e.Code), e.Message, e.Query)
}

// InitError is returned when a store's schema bootstrap fails. The store is
// unusable and callers typically disable its persistence for the session.
type InitError struct {
	Store string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing %s storage: %s", e.Store, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Code returns the native result code of |err|, or zero if |err| isn't
// (or doesn't wrap) a *StorageError.
func Code(err error) sqlite3.ErrNo {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsBusy is true if |err| is a busy or locked StorageError.
func IsBusy(err error) bool {
	var code = Code(err)
	return code == sqlite3.ErrBusy || code == sqlite3.ErrLocked
}

// storageError maps an error of the native driver into a *StorageError.
func storageError(err error, query string) *StorageError {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se
	}
	var ne sqlite3.Error
	if errors.As(err, &ne) {
		return &StorageError{
			Code:         ne.Code,
			ExtendedCode: ne.ExtendedCode,
			Message:      ne.Error(),
			Query:        query,
		}
	}
	// Faults raised by the driver itself (e.g. use of a closed connection)
	// rather than by the engine map to the generic SQLITE_ERROR.
	return &StorageError{Code: sqlite3.ErrError, Message: err.Error(), Query: query}
}

// isRetryable is true for results which the retry policy re-attempts.
func isRetryable(err error) bool {
	var ne sqlite3.Error
	if errors.As(err, &ne) {
		return ne.Code == sqlite3.ErrBusy || ne.Code == sqlite3.ErrLocked
	}
	return false
}
