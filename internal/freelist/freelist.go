// Package freelist implements the generic two-tier LIFO free list that
// every object pool in libnvmmio (tables, entries, data blocks, UMAs) is
// built from. It is the Go analogue of runtime.fixalloc's list-of-free-
// blocks shape, split into a mutex-guarded Global tier and an
// unsynchronized Local tier the way sync.Pool splits poolLocal from the
// pool's shared backing.
//
// A Node is an intrusive carrier, not the payload itself: payloads live
// in a separately-mapped region (see internal/region) and Nodes merely
// point at them. This mirrors the C source's list_node_t and lets bulk
// transfers move nodes between tiers without ever touching the payload
// memory they describe.
package freelist

import "unsafe"

// Node is one carrier in a free list. Payload points at an object living
// in some Region; Next chains to the next free carrier in the same list.
type Node struct {
	Payload unsafe.Pointer
	Next    *Node
}

// List is a singly-linked LIFO stack of Nodes. It is the shared engine
// behind both Global and Local; callers are responsible for any locking
// List itself does not do.
type List struct {
	Head  *Node
	Count uint64
}

// PushFront prepends a single node.
func (l *List) PushFront(n *Node) {
	n.Next = l.Head
	l.Head = n
	l.Count++
}

// PopFront removes and returns the head node, or nil if the list is empty.
func (l *List) PopFront() *Node {
	n := l.Head
	if n == nil {
		return nil
	}
	l.Head = n.Next
	n.Next = nil
	l.Count--
	return n
}

// DetachPrefix removes up to n nodes from the front of the list and
// returns them as their own (head, tail) chain, along with how many were
// actually detached (fewer than n if the list was shorter). tail.Next is
// always nil on return. Detaching zero nodes returns (nil, nil, 0).
//
// This is the bulk-transfer primitive: fill_local_from_global and
// put_log_global both move a contiguous prefix of one list onto another,
// and this is the O(n) walk-to-the-splice-point step from the source
// (allocator.c's fill_local_tables_list/put_log_global).
func (l *List) DetachPrefix(n uint64) (head, tail *Node, got uint64) {
	if n == 0 || l.Head == nil {
		return nil, nil, 0
	}
	if n > l.Count {
		n = l.Count
	}
	head = l.Head
	tail = head
	for i := uint64(1); i < n; i++ {
		tail = tail.Next
	}
	l.Head = tail.Next
	tail.Next = nil
	l.Count -= n
	return head, tail, n
}

// SpliceFront prepends an externally-detached (head, tail) chain of n
// nodes onto the front of the list in O(1), the mirror image of
// DetachPrefix. A nil head is a no-op.
func (l *List) SpliceFront(head, tail *Node, n uint64) {
	if head == nil {
		return
	}
	tail.Next = l.Head
	l.Head = head
	l.Count += n
}

// Empty reports whether the list currently holds no nodes.
func (l *List) Empty() bool {
	return l.Head == nil
}
