// Package sqldb is the embedded SQLite storage core of the browser: a
// Database handle owning one native connection, prepared Queries with typed
// binding and column access, TransactionScope guards, a Registry sharing
// handles per file, and schema bootstrap of tables.
//
// Statements which fail with SQLITE_BUSY or SQLITE_LOCKED, whether during
// prepare or step, are retried with a fixed delay up to a bounded number of
// times (see Options). Faults are surfaced as *StorageError carrying the
// native result code; violations of preconditions, such as reading a column
// without an available row, panic.
package sqldb
