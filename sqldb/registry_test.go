package sqldb

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistrySharesHandlePerPath(t *testing.T) {
	var dir = t.TempDir()
	var reg = NewRegistry(testOptions())
	defer reg.Close()

	var a, err = reg.Get(filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	require.True(t, a.IsOpen())

	// Equivalent spellings resolve to the same handle.
	a2, err := reg.Get(filepath.Join(dir, ".", "sub", "..", "a.db"))
	require.NoError(t, err)
	require.Same(t, a, a2)

	b, err := reg.Get(filepath.Join(dir, "b.db"))
	require.NoError(t, err)
	require.NotSame(t, a, b)

	require.Equal(t, []string{filepath.Join(dir, "a.db"), filepath.Join(dir, "b.db")}, reg.Paths())
}

func TestRegistryConcurrentGetOpensOnce(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "c.db")
	var reg = NewRegistry(testOptions())
	defer reg.Close()

	var wg sync.WaitGroup
	var out = make([]*Database, 16)
	for i := range out {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i], _ = reg.Get(path)
		}(i)
	}
	wg.Wait()

	for _, db := range out {
		require.NotNil(t, db)
		require.Same(t, out[0], db)
	}
	require.Len(t, reg.Paths(), 1)
}

func TestRegistryAppliesDSNOverridesOnOpen(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "d.db")
	var reg = NewRegistry(testOptions())
	defer reg.Close()

	var db, err = reg.Get(path + "?retry_count=3")
	require.NoError(t, err)
	require.Equal(t, 3, db.opts.RetryCount)
	require.Equal(t, 3, db.retry.count)

	// Overrides of a later Get don't alter the open handle.
	db2, err := reg.Get(path + "?retry_count=9")
	require.NoError(t, err)
	require.Same(t, db, db2)
	require.Equal(t, 3, db2.opts.RetryCount)

	_, err = reg.Get(path + "?retry_count=x")
	require.Error(t, err)
}

func TestRegistryEvictAndClose(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "e.db")
	var reg = NewRegistry(testOptions())

	var db, err = reg.Get(path)
	require.NoError(t, err)
	require.NoError(t, reg.Evict(path))
	require.False(t, db.IsOpen())
	require.NoError(t, reg.Evict(path))

	db2, err := reg.Get(path)
	require.NoError(t, err)
	require.NotSame(t, db, db2)

	require.NoError(t, reg.Close())
	require.False(t, db2.IsOpen())
	require.Empty(t, reg.Paths())

	// A closed handle is re-opened on next Get.
	db3, err := reg.Get(MemoryPath)
	require.NoError(t, err)
	require.True(t, db3.IsOpen())
	require.NoError(t, db3.Close())

	db4, err := reg.Get(MemoryPath)
	require.NoError(t, err)
	require.NotSame(t, db3, db4)
	require.True(t, db4.IsOpen())
	require.NoError(t, reg.Close())
}

func TestRegistryRejectsInvalidBaseOptions(t *testing.T) {
	var opts = testOptions()
	opts.RetryCount = -5
	var reg = NewRegistry(opts)
	defer reg.Close()

	var path = filepath.Join(t.TempDir(), "bad.db")
	var _, err = reg.Get(path)
	require.ErrorContains(t, err, "invalid RetryCount (-5; expected >= 0)")
	require.Empty(t, reg.Paths())

	// A DSN override may repair the base Options.
	db, err := reg.Get(path + "?retry_count=2")
	require.NoError(t, err)
	require.Equal(t, 2, db.retry.count)
}
