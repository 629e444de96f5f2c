// Package malloc supplies thread-aware memory management for
// applications that need a malloc style heap outside the golang
// runtime.
//
// An Arena is the top level allocator. It acquires large segments of
// page-aligned memory from a MemoryProvider, carves segments into
// pages and pages into fixed sized chunks. Chunk sizes are graduated
// into slabs to bound internal fragmentation. Requests larger than
// Hugethreshold bypass slabs and get a dedicated segment.
//
// Allocation and free go through a Heap. Heaps are meant to be owned
// by a single thread of execution, their fast path does not take any
// locks. Chunks can be freed from any heap: when the freeing heap is
// not the owner, the chunk is posted to the owner's remote queue and
// reclaimed by the owner before it asks the arena for more memory.
// Heaps are attached to an arena against a caller supplied context id
// and detached when the context goes away, surviving chunks migrate
// to the arena's orphan heap so that late frees remain valid.
//
// Arenas can be created with following parameters:
//
//   capacity : maximum memory, in bytes, acquirable from the provider.
//   minslab  : chunks smaller than minslab are rounded up to it.
//   maxslab  : largest slabbed chunk, larger requests are huge.
//
// Types and functions exported by this package are not necessarily
// thread safe, see the method documentation.
package malloc
