package libnvmmio

import (
	"unsafe"

	"github.com/wendowswd/libnvmmio/internal/freelist"
	"github.com/wendowswd/libnvmmio/internal/nodepool"
)

// Handle is the per-goroutine local state the source kept in
// __thread-qualified globals: a Node Pool reservoir plus one Local tier
// per poolable kind that has one at all (tables, entries, data — UMAs
// have none, since they are rare and long-lived enough that a per-thread
// cache wouldn't pay for itself). This is the explicit-handle translation
// of thread-local storage: callers own a *Handle per goroutine and must
// call ReleaseLocalList before the goroutine exits.
type Handle struct {
	alloc *Allocator

	nodes nodepool.Cache

	tablesLocal  freelist.Local
	entriesLocal freelist.Local
	dataLocal    [NumLogSizes]freelist.Local
}

// NewHandle creates a fresh per-goroutine handle bound to alloc. Callers
// typically create one per worker goroutine and keep it for that
// goroutine's lifetime.
func NewHandle(alloc *Allocator) *Handle {
	return &Handle{alloc: alloc}
}

// AllocLogTable implements alloc_log_table: allocate via the table
// pool's fast path, then zero the user-visible fields and record the
// caller's placement.
func (h *Handle) AllocLogTable(parent *Table, index int32, typ TableType) *Table {
	node := h.popTable()
	t := (*Table)(node.Payload)
	h.nodes.Put(node)

	t.Count = 0
	t.Type = typ
	if parent != nil {
		t.Parent = uintptr(unsafe.Pointer(parent))
	} else {
		t.Parent = 0
	}
	t.Index = index
	t.LogSize = Log4K
	return t
}

// popTable is the table pool's fast path: pop the local head, refilling
// from global first if the local tier is empty.
func (h *Handle) popTable() *freelist.Node {
	if h.tablesLocal.Count() == 0 {
		h.refillTables()
	}
	node := h.tablesLocal.PopFront()
	if node == nil || node.Payload == nil {
		panic("libnvmmio: table pool refill left local tier empty")
	}
	return node
}

// refillTables is fill_local_from_global specialized for tables: under
// the global mutex, synchronously grow if empty, detach up to
// NrFillNodes, adopt them locally, and — in the same critical section —
// signal the background refiller if the post-detach global count has
// fallen below MaxFreeNodes. Doing the synchronous grow while holding
// the lock matches allocator.c's fill_global_tables_list(lock=false)
// being invoked from inside an already-locked fill_local_tables_list;
// it is acceptable here for the same reason it is there — this path is
// the rare fallback, not the steady-state hot path.
func (h *Handle) refillTables() {
	h.alloc.tables.global.Locked(func(l *freelist.List) {
		if l.Count == 0 {
			slabHead, slabTail, slabN, err := h.alloc.growTableSlab(&h.nodes, MaxFreeNodes)
			if err != nil {
				fatalf(err, "alloc_log_table_sync_grow", nil)
			}
			l.SpliceFront(slabHead, slabTail, slabN)
		}
		head, tail, got := l.DetachPrefix(NrFillNodes)
		h.tablesLocal.AdoptFromGlobal(head, tail, got)
		if l.Count < MaxFreeNodes {
			h.alloc.refiller.Signal()
		}
	})
}

// AllocLogEntry implements alloc_log_entry: allocate an Entry via the
// entry pool's fast path, allocate a Data block of the requested size
// class via the global-only data path, wire them together, copy epoch
// and policy from the owning UMA, and initialize the entry's rwlock.
func (h *Handle) AllocLogEntry(uma *UMA, logSize LogSize) *Entry {
	node := h.popEntry()
	e := (*Entry)(node.Payload)
	h.nodes.Put(node)

	e.Epoch = uma.Epoch
	e.Offset = 0
	e.Len = 0
	e.Policy = uma.Policy
	e.Dst = 0
	e.Data = uintptr(h.allocLogData(logSize))
	e.United = 0

	slot := h.alloc.entries.slotIndex(unsafe.Pointer(e))
	h.alloc.entryLocks.ensure(slot)
	return e
}

// popEntry is the entry pool's fast path. Entries are provisioned to
// saturation at init: an empty global pool here is a fatal invariant
// violation, never a growth trigger.
func (h *Handle) popEntry() *freelist.Node {
	if h.entriesLocal.Count() == 0 {
		h.refillEntries()
	}
	node := h.entriesLocal.PopFront()
	if node == nil || node.Payload == nil {
		panic("libnvmmio: entry pool refill left local tier empty")
	}
	return node
}

func (h *Handle) refillEntries() {
	h.alloc.entries.global.Locked(func(l *freelist.List) {
		if l.Count == 0 {
			panic("libnvmmio: global entry pool exhausted")
		}
		head, tail, got := l.DetachPrefix(NrFillNodes)
		h.entriesLocal.AdoptFromGlobal(head, tail, got)
	})
}

// allocLogData implements alloc_log_data: a strictly global-only pop —
// no per-thread data cache exists for allocation, only for free (see
// FreeLogEntry below). An empty global data pool is a fatal invariant
// violation: data pools, like entries, are provisioned to saturation.
func (h *Handle) allocLogData(logSize LogSize) unsafe.Pointer {
	pool := h.alloc.data[logSize]
	node := pool.global.Pop()
	if node == nil {
		panic("libnvmmio: global data pool exhausted for size class")
	}
	ptr := node.Payload
	if ptr == nil {
		panic("libnvmmio: popped data node has nil payload")
	}
	return ptr
}

// FreeLogEntry implements free_log_entry: clear the payload-referencing
// fields, optionally persist the metadata, destroy the rwlock, and push
// both the Data block and the Entry onto their respective local pools
// (spilling to global if a local tier's watermark is exceeded). Data
// blocks are allocated from global directly but freed via the local
// pool — a deliberate asymmetry, because allocation happens once per
// entry alloc while free happens once per entry free, the far hotter
// path worth batching.
func (h *Handle) FreeLogEntry(e *Entry, logSize LogSize, persist bool) {
	e.United = 0
	dataPtr := unsafe.Pointer(e.Data)
	e.Data = 0
	e.Dst = 0

	if persist {
		if err := h.alloc.entries.region.Persist(
			int(h.alloc.entries.slotIndex(unsafe.Pointer(e))*unsafe.Sizeof(Entry{})),
			int(unsafe.Sizeof(Entry{})),
		); err != nil {
			fatalf(err, "free_log_entry_persist", nil)
		}
	}

	slot := h.alloc.entries.slotIndex(unsafe.Pointer(e))
	h.alloc.entryLocks.destroy(slot)

	h.putDataLocal(dataPtr, logSize)
	h.putEntryLocal(e)
}

func (h *Handle) putDataLocal(ptr unsafe.Pointer, logSize LogSize) {
	node := h.nodes.Get()
	node.Payload = ptr
	h.dataLocal[logSize].PushFront(node)

	if h.dataLocal[logSize].Count() > MaxFreeNodes {
		head, tail, n := h.dataLocal[logSize].DetachPrefix(NrFillNodes)
		h.alloc.data[logSize].global.SpliceFrom(head, tail, n)
	}
}

func (h *Handle) putEntryLocal(e *Entry) {
	node := h.nodes.Get()
	node.Payload = unsafe.Pointer(e)
	h.entriesLocal.PushFront(node)

	if h.entriesLocal.Count() > MaxFreeNodes {
		head, tail, n := h.entriesLocal.DetachPrefix(NrFillNodes)
		h.alloc.entries.global.SpliceFrom(head, tail, n)
	}
}

// ReleaseLocalList implements release_local_list: drain this handle's
// entire local entry tier back to the global entry pool. Callers must
// invoke this before their goroutine exits, or the entries sitting in
// its local tier become unreachable until process exit.
func (h *Handle) ReleaseLocalList() {
	n := h.entriesLocal.Count()
	if n == 0 {
		return
	}
	head, tail, got := h.entriesLocal.DetachPrefix(n)
	h.alloc.entries.global.SpliceFrom(head, tail, got)
}
