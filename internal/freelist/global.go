package freelist

import "sync"

// Global is the process-wide tier of a Pool<K>: a List guarded by a
// mutex, carrying the authoritative Count for its kind. A caller must
// never hold more than one Global's mutex at once — Global itself does
// not enforce that, it is a convention its callers (package libnvmmio)
// follow to avoid deadlock.
type Global struct {
	mu   sync.Mutex
	list List
}

// Count returns the current free count under the mutex.
func (g *Global) Count() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.list.Count
}

// Push returns a single node to the global pool.
func (g *Global) Push(n *Node) {
	g.mu.Lock()
	g.list.PushFront(n)
	g.mu.Unlock()
}

// Pop removes and returns a single node from the global pool, or nil if
// it is currently empty. Callers decide what an empty pop means for
// their kind (fatal for entries/data/umas, a synchronous grow-and-retry
// for tables).
func (g *Global) Pop() *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.list.PopFront()
}

// SpliceFrom prepends an externally-detached chain onto the global list
// under the mutex. Used to seed a pool at provisioning time, by spill
// (local-to-global), by release_local_list's drain, and by the
// background refiller's slab append.
func (g *Global) SpliceFrom(head, tail *Node, n uint64) {
	g.mu.Lock()
	g.list.SpliceFront(head, tail, n)
	g.mu.Unlock()
}

// Locked runs fn with the global mutex held, giving the caller direct
// access to the underlying List for operations that must happen as one
// critical section — most notably fill_local_from_global for tables,
// where an empty-global check, a possible synchronous slab grow, a bulk
// detach, and the refill-trigger signal must all be observed atomically
// by any other goroutine touching this pool.
func (g *Global) Locked(fn func(l *List)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(&g.list)
}
