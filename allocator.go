package libnvmmio

import (
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/sirupsen/logrus"
	"github.com/wendowswd/libnvmmio/internal/freelist"
	"github.com/wendowswd/libnvmmio/internal/nodepool"
	"github.com/wendowswd/libnvmmio/internal/refiller"
	"github.com/wendowswd/libnvmmio/internal/region"
)

// Allocator holds every piece of process-wide state: the four pool
// families, their backing regions, the background refiller, and the
// UMA id counter. Exactly one Allocator exists per process; per-goroutine
// state lives in a Handle (see handle.go).
type Allocator struct {
	dir string
	pid int

	tables  tablePool
	entries *fixedPool
	data    [NumLogSizes]*fixedPool
	umas    *fixedPool

	entryLocks *rwlockSlots
	umaLocks   *rwlockSlots

	refiller *refiller.TableRefiller

	umaIDCounter int64
}

// Init is init_env + init_global_freelist fused into one call: it reads
// PMEM_PATH, creates this process's log directory, provisions all four
// pool families, and starts the background table refiller. Any failure
// here is a fatal provisioning error — there is no meaningful fallback
// for a region that can't be mapped or a directory that can't be
// created, so Init reports it and aborts the process via fatalf rather
// than handing an error back to a caller that has no recovery to offer.
func Init() *Allocator {
	pmemPath := readPMEMPath()

	pid := os.Getpid()
	dir := dirName(pmemPath, pid)
	if err := os.Mkdir(dir, 0777); err != nil {
		fatalf(err, "init_mkdir", logrus.Fields{"dir": dir})
	}

	a := &Allocator{dir: dir, pid: pid, umaIDCounter: -1}

	initNodes := &nodepool.Cache{}

	// tables: one anonymous slab of 10 * MaxFreeNodes tables.
	a.tables.global = &freelist.Global{}
	head, tail, n, err := a.growTableSlab(initNodes, MaxFreeNodes*10)
	if err != nil {
		fatalf(err, "init_tables", nil)
	}
	a.tables.global.SpliceFrom(head, tail, n)

	a.refiller = refiller.New(func() {
		rnodes := &nodepool.Cache{}
		slabHead, slabTail, slabN, growErr := a.growTableSlab(rnodes, MaxFreeNodes)
		if growErr != nil {
			fatalf(growErr, "background_table_alloc", nil)
			return
		}
		a.tables.global.SpliceFrom(slabHead, slabTail, slabN)
	})
	a.refiller.Start()

	// entries: one Entry per page in 32 * LogFileSize of file-backed pmem.
	entryCount := uint64((32 * LogFileSize) >> PageShift)
	entryRegion, err := region.Map(entriesPath(dir), int(entryCount)*int(unsafe.Sizeof(Entry{})))
	if err != nil {
		fatalf(err, "init_entries", nil)
	}
	a.entries = newFixedPool(entryRegion, unsafe.Sizeof(Entry{}), entryCount, initNodes)
	a.entryLocks = newRWLockSlots(entryCount)

	// data: one file per size class of 2 * LogFileSize, partitioned into
	// objects of that size class.
	for i := LogSize(0); int(i) < NumLogSizes; i++ {
		fileSize := 2 * LogFileSize
		count := uint64(fileSize >> i.Shift())
		r, err := region.Map(dataPath(dir, i), fileSize)
		if err != nil {
			fatalf(err, "init_data", logrus.Fields{"class": i})
		}
		a.data[i] = newFixedPool(r, uintptr(i.Bytes()), count, initNodes)
	}

	// umas: MaxNrUMAs slots in a pmem file.
	umaRegion, err := region.Map(umasPath(dir), MaxNrUMAs*int(unsafe.Sizeof(UMA{})))
	if err != nil {
		fatalf(err, "init_umas", nil)
	}
	a.umas = newFixedPool(umaRegion, unsafe.Sizeof(UMA{}), MaxNrUMAs, initNodes)
	a.umaLocks = newRWLockSlots(MaxNrUMAs)

	return a
}

// Teardown cancels the background worker and removes this process's log
// directory. Pools are not persisted across runs, so removing the
// backing files is the whole of teardown — there is no free-list state
// worth preserving on top of them.
func (a *Allocator) Teardown() error {
	a.refiller.Stop()
	return region.Cleanup(a.dir)
}

// AllocUMA implements alloc_uma: pop one UMA under the global uma-pool
// mutex (UMAs have no local tier — they are rare and long-lived), lazily
// initialize its rwlock if this slot has never been used, and assign a
// fresh monotonic id via CAS on the process-wide counter.
func (a *Allocator) AllocUMA() *UMA {
	node := a.umas.global.Pop()
	if node == nil {
		panic("libnvmmio: uma pool exhausted")
	}
	u := (*UMA)(node.Payload)
	node.Payload = nil // carrier is discarded, not recycled (no Handle owns it)

	slot := a.umas.slotIndex(unsafe.Pointer(u))
	a.umaLocks.ensure(slot)
	u.ID = atomic.AddInt64(&a.umaIDCounter, 1)
	return u
}

// FreeUMA implements free_uma: push back under the global uma-pool
// mutex. The rwlock storage is retained across reuse — ensure on the
// next AllocUMA will see it already present and skip re-allocating it.
func (a *Allocator) FreeUMA(u *UMA) {
	a.umas.global.Push(&freelist.Node{Payload: unsafe.Pointer(u)})
}

// EntryLock returns the rwlock associated with e's slot, for use by a
// logging subsystem built on top of this allocator that actually orders
// reads/writes through this entry — the allocator itself only owns the
// lock's lifecycle, never its use.
func (a *Allocator) EntryLock(e *Entry) *sync.RWMutex {
	slot := a.entries.slotIndex(unsafe.Pointer(e))
	return a.entryLocks.ensure(slot)
}

// UMALock returns the rwlock associated with u's slot. Unlike entry
// rwlocks, a UMA's rwlock is never destroyed: it is created on the
// slot's first use and the same lock is kept across every later free
// and alloc of that slot.
func (a *Allocator) UMALock(u *UMA) *sync.RWMutex {
	slot := a.umas.slotIndex(unsafe.Pointer(u))
	return a.umaLocks.ensure(slot)
}
