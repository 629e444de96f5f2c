//go:build linux

package malloc

import "sync/atomic"

import "golang.org/x/sys/unix"

import "github.com/bnclabs/gomalloc/lib"

// Raw mmap/munmap syscalls instead of unix.Mmap: the x/sys wrappers
// track whole mappings and cannot unmap the misaligned head and tail
// of an over-sized mapping.

func mmap(size int64) (uintptr, error) {
	prot := uintptr(unix.PROT_READ | unix.PROT_WRITE)
	flags := uintptr(unix.MAP_PRIVATE | unix.MAP_ANONYMOUS)
	fd := ^uintptr(0) // -1 for anonymous mappings
	addr, _, errno := unix.Syscall6(
		unix.SYS_MMAP, 0, uintptr(size), prot, flags, fd, 0)
	if errno != 0 {
		return 0, errno
	}
	return addr, nil
}

func munmap(base uintptr, size int64) error {
	if _, _, errno := unix.Syscall(unix.SYS_MUNMAP, base, uintptr(size), 0); errno != 0 {
		return errno
	}
	return nil
}

// Acquire implement api.MemoryProvider{} interface. Maps size +
// Segmentsize bytes and unmaps the misaligned head and tail, the
// remaining region starts on a Segmentsize boundary.
func (p *osProvider) Acquire(size int64) (uintptr, error) {
	size = lib.Alignup(size, Segmentsize)
	total := size + Segmentsize
	base, err := mmap(total)
	if err != nil {
		return 0, err
	}
	aligned := (base + uintptr(Segmentsize-1)) &^ uintptr(Segmentsize-1)
	if head := int64(aligned - base); head > 0 {
		if err := munmap(base, head); err != nil {
			warnf("malloc provider: unmap head: %v", err)
		}
	}
	tail := (int64(base) + total) - (int64(aligned) + size)
	if tail > 0 {
		if err := munmap(aligned+uintptr(size), tail); err != nil {
			warnf("malloc provider: unmap tail: %v", err)
		}
	}
	atomic.AddInt64(&p.mapped, size)
	return aligned, nil
}

// Release implement api.MemoryProvider{} interface.
func (p *osProvider) Release(base uintptr, size int64) error {
	size = lib.Alignup(size, Segmentsize)
	if err := munmap(base, size); err != nil {
		return err
	}
	atomic.AddInt64(&p.mapped, -size)
	return nil
}
