package libnvmmio

import (
	"sync"
	"unsafe"

	"github.com/wendowswd/libnvmmio/internal/freelist"
	"github.com/wendowswd/libnvmmio/internal/nodepool"
	"github.com/wendowswd/libnvmmio/internal/region"
)

// buildSlab carves count fixed-size objSize objects out of base and
// returns them as a freshly-built freelist chain, one carrier per
// object, all minted from nodes. This is create_list from allocator.c,
// generalized over object kind: the loop always prepends (so head ends
// up as the last-built object and tail as the first), matching the
// source exactly.
func buildSlab(base unsafe.Pointer, objSize uintptr, count uint64, nodes *nodepool.Cache) (head, tail *freelist.Node, n uint64) {
	for i := uint64(0); i < count; i++ {
		ptr := unsafe.Pointer(uintptr(base) + uintptr(i)*objSize)
		node := nodes.Get()
		node.Payload = ptr
		node.Next = head
		head = node
		if tail == nil {
			tail = node
		}
	}
	return head, tail, count
}

// rwlockSlots is the parallel Go-heap storage for the rwlocks that
// conceptually live alongside Entry and UMA records (see types.go for
// why they aren't embedded in the mapped bytes themselves). One slot
// per object slot in the owning region.
type rwlockSlots struct {
	mu    sync.Mutex
	locks []*sync.RWMutex
}

func newRWLockSlots(count uint64) *rwlockSlots {
	return &rwlockSlots{locks: make([]*sync.RWMutex, count)}
}

// ensure returns the rwlock for slot i, lazily allocating it if this is
// the slot's first use (matching alloc_uma's "if uma->rwlockp == NULL"
// check — the lock may already exist from a prior life of this slot).
func (s *rwlockSlots) ensure(i uintptr) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locks[i] == nil {
		s.locks[i] = &sync.RWMutex{}
	}
	return s.locks[i]
}

// destroy drops the rwlock for slot i so a future ensure reinitializes
// it from scratch. Used by free_log_entry; deliberately never called
// for UMAs, whose rwlock is kept for the slot's whole lifetime.
func (s *rwlockSlots) destroy(i uintptr) {
	s.mu.Lock()
	s.locks[i] = nil
	s.mu.Unlock()
}

// tablePool is the table object family: a global pool that grows (both
// synchronously and via the background refiller) instead of being
// provisioned once to saturation.
type tablePool struct {
	global *freelist.Global

	mu     sync.Mutex
	region []*region.Region // one entry per slab ever grown; anonymous
}

func (a *Allocator) growTableSlab(nodes *nodepool.Cache, count uint64) (head, tail *freelist.Node, n uint64, err error) {
	r, err := region.Map("", int(count)*int(unsafe.Sizeof(Table{})))
	if err != nil {
		return nil, nil, 0, err
	}
	a.tables.mu.Lock()
	a.tables.region = append(a.tables.region, r)
	a.tables.mu.Unlock()
	head, tail, n = buildSlab(r.Base(), unsafe.Sizeof(Table{}), count, nodes)
	return head, tail, n, nil
}

// fixedPool is the shape shared by entries, each data size class, and
// UMAs: one region, provisioned to saturation at init, with no async
// growth path — an empty global pop here is a fatal invariant violation,
// never a trigger for synchronous growth.
type fixedPool struct {
	region *region.Region
	global *freelist.Global
	size   uintptr
}

func newFixedPool(r *region.Region, objSize uintptr, count uint64, nodes *nodepool.Cache) *fixedPool {
	p := &fixedPool{region: r, global: &freelist.Global{}, size: objSize}
	head, tail, n := buildSlab(r.Base(), objSize, count, nodes)
	p.global.SpliceFrom(head, tail, n)
	return p
}

func (p *fixedPool) slotIndex(ptr unsafe.Pointer) uintptr {
	return slotIndex(ptr, p.region.Base(), p.size)
}
