package libnvmmio

import (
	"os"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestAllocator(t *testing.T) *Allocator {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Setenv("PMEM_PATH", dir))
	t.Cleanup(func() { os.Unsetenv("PMEM_PATH") })

	a := Init()
	t.Cleanup(func() {
		require.NoError(t, a.Teardown())
	})
	return a
}

// withFatalTrap replaces logrus's ExitFunc with one that panics instead
// of calling os.Exit, runs fn, and reports whether a Fatal-level log
// triggered it. This is how a Fatal-then-abort path is exercised without
// actually terminating the test binary.
func withFatalTrap(t *testing.T, fn func()) (exited bool, code int) {
	t.Helper()
	orig := logrus.StandardLogger().ExitFunc
	defer func() { logrus.StandardLogger().ExitFunc = orig }()

	logrus.StandardLogger().ExitFunc = func(c int) {
		exited = true
		code = c
		panic("fatal trap")
	}

	func() {
		defer func() { recover() }()
		fn()
	}()
	return exited, code
}

func TestInitRequiresPMEMPath(t *testing.T) {
	require.NoError(t, os.Unsetenv("PMEM_PATH"))

	exited, code := withFatalTrap(t, func() {
		Init()
	})
	require.True(t, exited, "Init must abort the process when PMEM_PATH is unset, not return an error")
	require.Equal(t, 1, code)
}

func TestInitCreatesPerProcessLogDirectory(t *testing.T) {
	a := newTestAllocator(t)
	info, err := os.Stat(a.dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestAllocFreeUMAAssignsMonotonicIDs(t *testing.T) {
	a := newTestAllocator(t)

	u1 := a.AllocUMA()
	u2 := a.AllocUMA()
	require.NotEqual(t, u1.ID, u2.ID)
	require.Greater(t, u2.ID, u1.ID)

	a.FreeUMA(u1)
	a.FreeUMA(u2)
}

func TestAllocUMAConcurrentIDsAreUnique(t *testing.T) {
	a := newTestAllocator(t)

	const n = 200
	ids := make([]int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := a.AllocUMA()
			ids[i] = u.ID
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for _, id := range ids {
		require.False(t, seen[id], "duplicate UMA id %d", id)
		seen[id] = true
	}
}

func TestEntryAndUMALocksAreLazilyInitializedAndStable(t *testing.T) {
	a := newTestAllocator(t)

	u := a.AllocUMA()
	lock1 := a.UMALock(u)
	lock2 := a.UMALock(u)
	require.Same(t, lock1, lock2, "repeated UMALock calls on the same slot must return the same rwlock")

	h := NewHandle(a)
	e := h.AllocLogEntry(u, Log4K)
	elock1 := a.EntryLock(e)
	elock2 := a.EntryLock(e)
	require.Same(t, elock1, elock2)

	h.FreeLogEntry(e, Log4K, false)
}

func TestBackgroundRefillGrowsTablePoolUnderSustainedDemand(t *testing.T) {
	a := newTestAllocator(t)
	h := NewHandle(a)

	// MaxFreeNodes*10 tables were provisioned at Init; allocating well
	// past that wakes the background refiller, and falls back to a
	// synchronous grow (popTable's refillTables) whenever the refiller has
	// not kept the global pool from running empty.
	for i := 0; i < MaxFreeNodes*20; i++ {
		tbl := h.AllocLogTable(nil, int32(i), TableTypeLeaf)
		require.NotNil(t, tbl)
		require.Equal(t, uint64(0), tbl.Count)
	}
}
