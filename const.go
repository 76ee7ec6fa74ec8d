package libnvmmio

// Tunables the source reads from a header not available in this
// translation; concrete values are fixed here rather than left to
// guesswork at each call site.
const (
	// PageShift is log2 of the base page size (4 KiB), matching LOG_4K
	// in the data model.
	PageShift = 12

	// NumLogSizes is the number of data-block size classes, s in
	// [0, NumLogSizes).
	NumLogSizes = 4

	// MaxFreeNodes is the local-pool spill/refill high watermark.
	MaxFreeNodes = 128

	// NrFillNodes is the batch size moved in one refill or spill.
	NrFillNodes = 32

	// LogFileSize is the unit the original source multiplies by 32 (for
	// the entries file) and by 2 (for each data-class file) when sizing
	// pmem-backed regions at init.
	LogFileSize = 2 << 20 // 2 MiB

	// MaxNrUMAs is the fixed capacity of the UMA pool.
	MaxNrUMAs = 1024
)

// LogSize is a size-class index: byte size is 1 << s.Shift().
type LogSize int

const (
	Log4K LogSize = iota
	Log8K
	Log16K
	Log32K
)

// Shift returns log2 of this size class's byte size.
func (s LogSize) Shift() uint { return PageShift + uint(s) }

// Bytes returns this size class's byte size.
func (s LogSize) Bytes() int { return 1 << s.Shift() }

// Valid reports whether s is one of the declared size classes.
func (s LogSize) Valid() bool { return s >= 0 && int(s) < NumLogSizes }

// TableType mirrors the source's table_type_t: the radix-tree level a
// given log table occupies. Values are opaque to the allocator itself —
// it only stores and returns them — so the concrete set is whatever the
// logging subsystem built on top of this allocator needs.
type TableType int32

const (
	TableTypeRoot TableType = iota
	TableTypeInternal
	TableTypeLeaf
)

// Policy mirrors the source's write policy recorded per-UMA and copied
// onto every Entry allocated under it. Like TableType, its concrete
// values are opaque to the allocator.
type Policy int32
