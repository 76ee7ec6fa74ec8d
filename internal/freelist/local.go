package freelist

// Local is the per-goroutine tier of a Pool<K>: a bare List with no
// mutex, since by construction only its owning Handle ever touches it
// (spec invariant: "per-thread pools are accessed by their owning
// thread only").
type Local struct {
	list List
}

// Count reports how many free objects this local tier currently holds.
func (l *Local) Count() uint64 { return l.list.Count }

// PushFront adds a single node to the local tier (the fast-path free).
func (l *Local) PushFront(n *Node) { l.list.PushFront(n) }

// PopFront removes the head node, or nil if the local tier is empty
// (the fast-path alloc, before any refill is attempted).
func (l *Local) PopFront() *Node { return l.list.PopFront() }

// AdoptFromGlobal installs a chain obtained from a Global's detach as
// this local tier's entire contents (used right after a refill, when
// the local tier was empty).
func (l *Local) AdoptFromGlobal(head, tail *Node, n uint64) {
	l.list.SpliceFront(head, tail, n)
}

// DetachPrefix removes up to n nodes from the front for a spill to
// global, returning the detached chain.
func (l *Local) DetachPrefix(n uint64) (head, tail *Node, got uint64) {
	return l.list.DetachPrefix(n)
}
