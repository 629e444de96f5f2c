// Package gomalloc implement a general purpose, thread aware memory
// allocator with a malloc compatible contract.
//
// api:
//
// Interface specification to access gomalloc allocators and memory
// providers.
//
// lib:
//
// Convinience functions that can be used by other packages. Package
// shall not import packages other than golang's standard packages.
//
// malloc:
//
// The allocator engine. Segments of OS memory carved into pages of
// slab sized chunks, per-thread heaps with lock free fast paths and
// remote queues for cross thread frees.
//
// The root package is the process level facade: an Allocator
// multiplexes a fixed set of heaps across calling goroutines, so
// that Malloc/Free can be called from anywhere without the caller
// managing heaps. Programs that want full control over heap placement
// can use malloc.Arena and malloc.Heap directly.
package gomalloc
