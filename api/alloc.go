package api

import "unsafe"

// Mallocer interface for custom memory management. Implementations
// hand out raw memory chunks that live outside the golang runtime,
// callers own a chunk until they Free it back.
type Mallocer interface {
	// Slabs allocatable slab of sizes.
	Slabs() (sizes []int64)

	// Malloc allocate a chunk of `n` bytes. Allocated memory is
	// always 16-byte aligned. Returns nil if memory is exhausted,
	// n == 0 returns a valid chunk of the smallest slab.
	Malloc(n int64) unsafe.Pointer

	// Zalloc same as Malloc, with the first `n` bytes zeroed.
	Zalloc(n int64) unsafe.Pointer

	// Realloc resize chunk `ptr` to `n` bytes preserving the first
	// min(old, n) bytes. If ptr is nil behaves as Malloc. Returns nil
	// on memory exhaustion, in which case `ptr` is left untouched and
	// still owned by the caller.
	Realloc(ptr unsafe.Pointer, n int64) unsafe.Pointer

	// MallocAligned allocate a chunk of `n` bytes whose address is a
	// multiple of `align`. `align` shall be a power of 2.
	MallocAligned(n, align int64) unsafe.Pointer

	// ZallocAligned same as MallocAligned, zero filled.
	ZallocAligned(n, align int64) unsafe.Pointer

	// ReallocAligned same as Realloc, preserving `align` on the
	// returned chunk.
	ReallocAligned(ptr unsafe.Pointer, n, align int64) unsafe.Pointer

	// Free chunk back to its heap. Free(nil) is a no-op. Double-free
	// and freeing pointers from a different mallocer are caller
	// contract violations.
	Free(ptr unsafe.Pointer)

	// Slabsize return the size of the chunk's slab.
	Slabsize(ptr unsafe.Pointer) int64

	// Chunklen return the length of the chunk usable by application.
	Chunklen(ptr unsafe.Pointer) int64

	// Info of memory accounting for this mallocer.
	Info() (capacity, heap, alloc, overhead int64)

	// Utilization map of slab-size and its utilization.
	Utilization() ([]int, []float64)

	// Release mallocer, all its heaps, segments and resources.
	Release()
}

// MemoryProvider interface to acquire and release large page-aligned
// memory regions, typically backed by OS anonymous mappings. Acquired
// regions shall read as zero, mallocers rely on this to elide
// zero-fill on never touched memory.
type MemoryProvider interface {
	// Acquire a region of `size` bytes aligned to the segment
	// boundary. Failure is reported as an error, never a panic.
	Acquire(size int64) (base uintptr, err error)

	// Release region back to the OS. Errors are reported for logging
	// only, callers are not expected to act on them.
	Release(base uintptr, size int64) error
}
