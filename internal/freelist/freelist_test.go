package freelist

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func payload(v int) unsafe.Pointer {
	return unsafe.Pointer(&v)
}

func TestListPushPopLIFOOrder(t *testing.T) {
	var l List
	n1 := &Node{Payload: payload(1)}
	n2 := &Node{Payload: payload(2)}
	n3 := &Node{Payload: payload(3)}

	l.PushFront(n1)
	l.PushFront(n2)
	l.PushFront(n3)
	require.Equal(t, uint64(3), l.Count)

	require.Same(t, n3, l.PopFront())
	require.Same(t, n2, l.PopFront())
	require.Same(t, n1, l.PopFront())
	require.Nil(t, l.PopFront())
	require.Equal(t, uint64(0), l.Count)
}

func TestListDetachPrefixPartial(t *testing.T) {
	var l List
	nodes := make([]*Node, 5)
	for i := range nodes {
		nodes[i] = &Node{Payload: payload(i)}
		l.PushFront(nodes[i])
	}

	head, tail, got := l.DetachPrefix(3)
	require.EqualValues(t, 3, got)
	require.Same(t, nodes[4], head)
	require.Nil(t, tail.Next)
	require.Equal(t, uint64(2), l.Count)

	// the detached chain still threads through in LIFO order
	require.Same(t, nodes[3], head.Next)
	require.Same(t, nodes[2], head.Next.Next)
}

func TestListDetachPrefixMoreThanAvailable(t *testing.T) {
	var l List
	n := &Node{Payload: payload(1)}
	l.PushFront(n)

	head, tail, got := l.DetachPrefix(100)
	require.EqualValues(t, 1, got)
	require.Same(t, n, head)
	require.Same(t, n, tail)
	require.True(t, l.Empty())
}

func TestListDetachPrefixZeroOrEmpty(t *testing.T) {
	var l List
	head, tail, got := l.DetachPrefix(0)
	require.Nil(t, head)
	require.Nil(t, tail)
	require.EqualValues(t, 0, got)

	head, tail, got = l.DetachPrefix(5)
	require.Nil(t, head)
	require.Nil(t, tail)
	require.EqualValues(t, 0, got)
}

func TestListSpliceFrontRoundTrip(t *testing.T) {
	var src List
	for i := 0; i < 4; i++ {
		src.PushFront(&Node{Payload: payload(i)})
	}

	head, tail, got := src.DetachPrefix(4)

	var dst List
	dst.PushFront(&Node{Payload: payload(99)})
	dst.SpliceFront(head, tail, got)

	require.Equal(t, uint64(5), dst.Count)
	// spliced chain sits in front of whatever was already there
	require.Same(t, head, dst.Head)
}

func TestListSpliceFrontNilHeadIsNoop(t *testing.T) {
	var l List
	l.PushFront(&Node{Payload: payload(1)})
	l.SpliceFront(nil, nil, 0)
	require.Equal(t, uint64(1), l.Count)
}
