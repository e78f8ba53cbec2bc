package sqldb

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.browserstore.dev/core/metrics"
)

// MemoryPath opens a private, in-memory database.
const MemoryPath = ":memory:"

// Registry shares one Database handle per database file. It's safe for
// concurrent use, though the Databases it returns are not.
type Registry struct {
	opts Options

	mu  sync.RWMutex
	dbs map[string]*Database
}

// NewRegistry returns a Registry which opens Databases with |opts|,
// as overridden by the query of DSNs passed to Get.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts: opts,
		dbs:  make(map[string]*Database),
	}
}

// Get returns the open Database of |dsn|, opening it if required. |dsn| is
// a file path, optionally followed by a query of Options overrides (see
// ParseDSN). Overrides take effect only when Get opens the Database.
func (r *Registry) Get(dsn string) (*Database, error) {
	var path, opts, err = ParseDSN(dsn, r.opts)
	if err != nil {
		return nil, err
	}
	var key = normalizePath(path)

	r.mu.RLock()
	var db, ok = r.dbs[key]
	r.mu.RUnlock()

	if ok && db.IsOpen() {
		return db, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-checked locking: another goroutine may have opened it.
	if db, ok = r.dbs[key]; ok && db.IsOpen() {
		return db, nil
	}

	db = NewDatabase(opts)
	if err = db.Open(key); err != nil {
		return nil, errors.WithMessagef(err, "opening %s", key)
	}
	if !ok {
		metrics.SQLOpenHandles.Inc()
	}
	r.dbs[key] = db

	log.WithFields(log.Fields{"path": key, "retryCount": opts.RetryCount}).
		Info("registered database handle")

	return db, nil
}

// Evict closes and forgets the Database of |path|, if present.
func (r *Registry) Evict(path string) error {
	var key = normalizePath(path)

	r.mu.Lock()
	var db, ok = r.dbs[key]
	delete(r.dbs, key)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	metrics.SQLOpenHandles.Dec()
	return db.Close()
}

// Paths returns the sorted paths of registered Databases.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out = make([]string, 0, len(r.dbs))
	for path := range r.dbs {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Close all registered Databases. The Registry remains usable.
func (r *Registry) Close() error {
	r.mu.Lock()
	var dbs = r.dbs
	r.dbs = make(map[string]*Database)
	r.mu.Unlock()

	var firstErr error
	for path, db := range dbs {
		metrics.SQLOpenHandles.Dec()

		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = errors.WithMessagef(err, "closing %s", path)
		}
	}
	return firstErr
}

// normalizePath maps equivalent spellings of a file path onto one key.
func normalizePath(path string) string {
	if path == MemoryPath {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
