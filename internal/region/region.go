// Package region implements the Region Mapper: it maps a contiguous
// block of memory — anonymous, or backed by a persistent-memory file and
// page-populated — and exposes its base address plus a persistence
// primitive for sub-ranges of it.
//
// Grounded on runtime/mmap.go (mmap/munmap as the underlying primitive)
// and original_source/src/allocator.c's map_logfile (the
// anonymous-vs-file branch, O_CREAT|O_TRUNC|O_RDWR mode 0777,
// posix_fallocate pre-sizing, MAP_POPULATE pre-faulting) and rmlogs (the
// non-recursive directory cleanup). Uses golang.org/x/sys/unix for the
// raw syscalls, the same dependency fmstephe/location-system,
// behrlich/go-ublk, moby/moby and rclone/rclone reach for when they need
// mmap/fallocate/msync directly rather than through a higher-level
// wrapper.
package region

import (
	"os"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Region is a single contiguous address range mapped from either
// anonymous memory or a persistent-memory-backed file. Each fixed pool
// (entries, each data size class, UMAs) gets one Region at init; the
// table pool gets a new anonymous Region for every slab it grows.
// Regions live for the process's lifetime.
type Region struct {
	base   unsafe.Pointer
	length int
	data   []byte
	file   *os.File
}

// Base returns the region's starting address. Object slots are carved
// out of this range by the caller via pointer arithmetic.
func (r *Region) Base() unsafe.Pointer { return r.base }

// Len returns the region's length in bytes.
func (r *Region) Len() int { return r.length }

// Map creates a region of length bytes. If path is empty the region is
// anonymous and shared (MAP_ANON|MAP_SHARED); otherwise path is created
// (truncating any existing content), pre-allocated to length bytes on
// disk, and mapped MAP_SHARED|MAP_POPULATE.
//
// Any underlying failure here is a fatal provisioning error — callers
// are expected to log.Fatal rather than attempt recovery, since there is
// no meaningful fallback for a region that can't be mapped.
func Map(path string, length int) (*Region, error) {
	if length <= 0 {
		return nil, errors.Errorf("region: invalid length %d", length)
	}

	var (
		f     *os.File
		flags int
		fd    int = -1
	)

	if path == "" {
		flags = unix.MAP_ANON | unix.MAP_SHARED
	} else {
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0777)
		if err != nil {
			return nil, errors.Wrapf(err, "region: open %s", path)
		}
		if err := unix.Fallocate(int(f.Fd()), 0, 0, int64(length)); err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "region: fallocate %s to %d bytes", path, length)
		}
		flags = unix.MAP_SHARED | unix.MAP_POPULATE
		fd = int(f.Fd())
	}

	data, err := unix.Mmap(fd, 0, length, unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, errors.Wrapf(err, "region: mmap %d bytes (path=%q)", length, path)
	}

	return &Region{
		base:   unsafe.Pointer(&data[0]),
		length: length,
		data:   data,
		file:   f,
	}, nil
}

// Persist flushes the sub-range [offset, offset+length) to persistent
// media. It is a no-op for anonymous regions, since those never survive
// past process exit in the first place.
func (r *Region) Persist(offset, length int) error {
	if r.file == nil {
		return nil
	}
	if offset < 0 || length < 0 || offset+length > r.length {
		return errors.Errorf("region: persist range [%d,%d) out of bounds for length %d", offset, offset+length, r.length)
	}
	if err := unix.Msync(r.data[offset:offset+length], unix.MS_SYNC); err != nil {
		return errors.Wrap(err, "region: msync")
	}
	return nil
}

// Close unmaps the region and closes its backing file, if any. It does
// not unlink the file — directory-level cleanup is Cleanup's job.
func (r *Region) Close() error {
	if err := unix.Munmap(r.data); err != nil {
		return errors.Wrap(err, "region: munmap")
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// Cleanup removes every regular file directly inside dir, then removes
// dir itself. It deliberately does not recurse into subdirectories,
// matching allocator.c's rmlogs exactly — recursing could delete
// unexpected content a caller placed alongside the log files.
func Cleanup(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "region: readdir %s", dir)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := dir + "/" + e.Name()
		if err := os.Remove(p); err != nil {
			return errors.Wrapf(err, "region: unlink %s", p)
		}
	}
	if err := os.Remove(dir); err != nil {
		return errors.Wrapf(err, "region: rmdir %s", dir)
	}
	return nil
}
