// Package nodepool implements the Node Pool: a per-handle reservoir of
// freelist.Node carriers, grown from the Go heap on demand and never
// returned to it. It is grounded on allocator.c's alloc_list_node/
// free_node pair, translated from a __thread global into an explicit
// per-Handle value.
package nodepool

import "github.com/wendowswd/libnvmmio/internal/freelist"

// Cache is a thread-local (here: per-Handle) LIFO of carrier nodes.
// Carriers never cross Cache instances and are never freed back to the
// Go garbage collector once allocated — only recycled within the Cache
// that owns them.
type Cache struct {
	head *freelist.Node
}

// Get returns a carrier from the reservoir, heap-allocating a fresh one
// if the reservoir is currently empty.
func (c *Cache) Get() *freelist.Node {
	if c.head == nil {
		return &freelist.Node{}
	}
	n := c.head
	c.head = n.Next
	n.Next = nil
	return n
}

// Put resets a carrier's payload and returns it to the reservoir for
// reuse by a future Get on this same Cache.
func (c *Cache) Put(n *freelist.Node) {
	n.Payload = nil
	n.Next = c.head
	c.head = n
}
