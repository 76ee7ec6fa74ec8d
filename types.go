package libnvmmio

// This file lays out the three metadata object kinds as fixed-size
// records mapped directly onto a Region's bytes, so that a read of the
// entry metadata region after a persisted free reflects the cleared
// fields at the byte level rather than just at the Go-struct level.
//
// Every field here is plain data: pointers into other Regions are kept
// as uintptr, never as typed Go pointers. That is deliberate, not an
// oversight — the Go garbage collector does not scan mmap'd memory for
// roots, so a live *T stored only inside a Region would be invisible to
// the collector and could be freed out from under it. uintptr sidesteps
// that entirely, and happens to match the data model's own description
// of Table.Parent as "a weak back-reference (relation only, never
// ownership)": a uintptr is definitionally weak.
//
// rwlock storage is the one place this module departs from the source's
// layout on purpose: a live *sync.RWMutex has exactly the same
// GC-visibility problem as a typed pointer, so Entry and UMA rwlocks are
// kept in a parallel Go-heap slice on the Allocator, indexed by each
// object's slot number, rather than embedded in the mapped record. The
// lifecycle (lazily initialized, destroyed-on-free for entries, created
// once and never destroyed for UMAs) is preserved exactly;
// only the storage location differs.
import "unsafe"

// Table is a radix-tree node mapping file-offset prefixes to lower
// tables or log entries. Walking the tree itself (resolving a file
// offset to its owning Entry) belongs to the logging subsystem built on
// top of this allocator, not to the allocator — this module's
// responsibility ends at handing out and reclaiming fixed-size records.
type Table struct {
	Count   uint64
	Type    TableType
	Parent  uintptr // weak back-reference to the owning Table, if any
	Index   int32
	LogSize LogSize
}

// Entry is the on-media metadata record for one logged write. Dst and
// Data are addresses into other regions (a mapped UMA's file and a
// data-class pool's region, respectively) rather than typed pointers,
// for the reason given above.
type Entry struct {
	Epoch   uint64
	Offset  uint64
	Len     uint64
	Policy  Policy
	Dst     uintptr
	Data    uintptr
	United  uint32
	_       uint32 // padding to keep the record's size a multiple of 8
}

// UMA is a user-space memory-mapped region descriptor, one per file
// region a client has mapped.
type UMA struct {
	ID     int64
	Epoch  uint64
	Policy Policy
}

// slotIndex computes an object's slot number within a region given its
// address, the region base and the object's fixed size — used to find
// the parallel rwlock-storage slot for an Entry or UMA.
func slotIndex(ptr, base unsafe.Pointer, size uintptr) uintptr {
	return (uintptr(ptr) - uintptr(base)) / size
}
