package malloc

import "unsafe"

import "github.com/bnclabs/gomalloc/lib"

// Heap is per-thread allocator state. The owning thread allocates and
// frees without taking any locks, other threads interact with the
// heap only through its remote queue. Methods on Heap shall be called
// from one thread of execution at a time.
type Heap struct {
	arena    *Arena
	id       int64
	classes  []pagelist
	segments *segment
	remote   remoteq
}

func newheap(arena *Arena, id int64) *Heap {
	return &Heap{
		arena:   arena,
		id:      id,
		classes: make([]pagelist, len(arena.slabs)),
	}
}

// Id under which this heap is attached to its arena.
func (h *Heap) Id() int64 {
	return h.id
}

//---- api.Mallocer{} interface

// Malloc implement api.Mallocer{} interface.
func (h *Heap) Malloc(n int64) unsafe.Pointer {
	ptr, _ := h.alloc(n)
	return ptr
}

// Zalloc implement api.Mallocer{} interface.
func (h *Heap) Zalloc(n int64) unsafe.Pointer {
	ptr, zeroed := h.alloc(n)
	if ptr != nil && zeroed == false && n > 0 {
		lib.Memzero(ptr, int(n))
	}
	return ptr
}

// MallocAligned implement api.Mallocer{} interface.
func (h *Heap) MallocAligned(n, align int64) unsafe.Pointer {
	ptr, _ := h.allocaligned(n, align)
	return ptr
}

// ZallocAligned implement api.Mallocer{} interface.
func (h *Heap) ZallocAligned(n, align int64) unsafe.Pointer {
	ptr, zeroed := h.allocaligned(n, align)
	if ptr != nil && zeroed == false && n > 0 {
		lib.Memzero(ptr, int(n))
	}
	return ptr
}

// Realloc implement api.Mallocer{} interface. Resizes in place when
// the chunk's slab can still hold `n` bytes without wasting more than
// half of it, otherwise allocates afresh and copies.
func (h *Heap) Realloc(ptr unsafe.Pointer, n int64) unsafe.Pointer {
	if ptr == nil {
		return h.Malloc(n)
	}
	usable := h.arena.Chunklen(ptr)
	if n > 0 && n <= usable && n >= usable/2 {
		return ptr
	}
	newptr := h.Malloc(n)
	if newptr == nil {
		return nil // original chunk untouched, still owned by caller
	}
	lib.Memcpy(newptr, ptr, int(min64(usable, n)))
	h.Free(ptr)
	return newptr
}

// ReallocAligned implement api.Mallocer{} interface.
func (h *Heap) ReallocAligned(ptr unsafe.Pointer, n, align int64) unsafe.Pointer {
	if ptr == nil {
		return h.MallocAligned(n, align)
	} else if lib.Ispow2(align) == false {
		panicerr("alignment %v is not a power of 2", align)
	}
	usable := h.arena.Chunklen(ptr)
	aligned := (uintptr(ptr) & uintptr(align-1)) == 0
	if aligned && n > 0 && n <= usable && n >= usable/2 {
		return ptr
	}
	newptr := h.MallocAligned(n, align)
	if newptr == nil {
		return nil
	}
	lib.Memcpy(newptr, ptr, int(min64(usable, n)))
	h.Free(ptr)
	return newptr
}

// Free implement api.Mallocer{} interface. Chunks owned by this heap
// are reclaimed immediately, chunks owned by another heap are posted
// to that heap's remote queue. Free(nil) is a no-op.
func (h *Heap) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	seg := h.arena.index.lookup(uintptr(ptr))
	if seg == nil {
		panicerr("free of foreign pointer %x", ptr)
	}
	pg := seg.pageof(uintptr(ptr))
	if pg == nil {
		panicerr("free of pointer %x outside any page", ptr)
	}
	chunk := pg.chunkof(uintptr(ptr))
	if owner := pg.heap; owner == h {
		h.freechunk(chunk)
	} else {
		owner.remote.push(unsafe.Pointer(chunk))
	}
}

// Slabs implement api.Mallocer{} interface.
func (h *Heap) Slabs() []int64 {
	return h.arena.Slabs()
}

// Slabsize implement api.Mallocer{} interface.
func (h *Heap) Slabsize(ptr unsafe.Pointer) int64 {
	return h.arena.Slabsize(ptr)
}

// Chunklen implement api.Mallocer{} interface.
func (h *Heap) Chunklen(ptr unsafe.Pointer) int64 {
	return h.arena.Chunklen(ptr)
}

// Info implement api.Mallocer{} interface.
func (h *Heap) Info() (capacity, heap, alloc, overhead int64) {
	return h.arena.Info()
}

// Utilization implement api.Mallocer{} interface.
func (h *Heap) Utilization() ([]int, []float64) {
	return h.arena.Utilization()
}

// Release implement api.Mallocer{} interface. Detaches this heap from
// its arena, surviving chunks migrate to the arena's orphan heap and
// remain valid until freed.
func (h *Heap) Release() {
	h.arena.Detach(h.id)
}

// Drain reclaim chunks freed by other threads. Called opportunistically
// on the allocation slow path, so the heap never asks the arena for a
// new page while reclaimable chunks are pending. Owner-only.
func (h *Heap) Drain() (count int) {
	p := h.remote.drain()
	for p != nil {
		next := *(*unsafe.Pointer)(p)
		h.freechunk(uintptr(p))
		p = next
		count++
	}
	return count
}

//---- local functions

func (h *Heap) alloc(n int64) (unsafe.Pointer, bool) {
	arena := h.arena
	if n > arena.maxslab {
		return arena.allochuge(h, n, Alignment)
	}
	if n <= 0 {
		n = 1 // zero sized chunks are still valid, freeable chunks
	}
	slab := SuitableSlab(arena.slabs, n)
	ci := Slabindex(arena.slabs, slab)
	ptr, zeroed, ok := h.allocslab(slab, ci)
	if ok == false {
		return nil, false
	}
	return unsafe.Pointer(ptr), zeroed
}

func (h *Heap) allocaligned(n, align int64) (unsafe.Pointer, bool) {
	arena := h.arena
	if lib.Ispow2(align) == false {
		panicerr("alignment %v is not a power of 2", align)
	}
	if align <= Alignment {
		return h.alloc(n)
	}
	if n <= 0 {
		n = 1 // zero sized chunks shall not alias their neighbour
	}
	padded := n + align - Alignment
	if padded > arena.maxslab {
		return arena.allochuge(h, n, align)
	}
	slab := SuitableSlab(arena.slabs, padded)
	ci := Slabindex(arena.slabs, slab)
	ptr, zeroed, ok := h.allocslab(slab, ci)
	if ok == false {
		return nil, false
	}
	aligned := (ptr + uintptr(align-1)) &^ uintptr(align-1)
	return unsafe.Pointer(aligned), zeroed
}

// allocslab fast path: pop a chunk off the active page for `ci`. On
// miss drain the remote queue, then ask the arena for a fresh page.
func (h *Heap) allocslab(slab int64, ci int) (ptr uintptr, zeroed, ok bool) {
	arena, pl := h.arena, &h.classes[ci]
	for {
		for pg := pl.free; pg != nil; pg = pl.free {
			if ptr, zeroed, ok = pg.allocchunk(); ok {
				arena.account(ci, slab)
				return ptr, zeroed, true
			}
			pl.tofull(pg)
		}
		if h.Drain() > 0 && pl.free != nil {
			continue
		}
		pg := arena.getpage(h, slab, ci)
		if pg == nil {
			return 0, false, false
		}
		pl.tofree(pg)
		pl.npages++
	}
}

// freechunk reclaim a chunk owned by this heap, `chunk` shall be the
// chunk's start address. Owner-only.
func (h *Heap) freechunk(chunk uintptr) {
	arena := h.arena
	seg := arena.index.lookup(chunk)
	if seg == nil {
		panicerr("free of foreign pointer %x", chunk)
	}
	if seg.huge {
		arena.freehuge(h, seg)
		return
	}
	pg := seg.pageof(chunk)
	pg.freechunk(chunk)
	ci := Slabindex(arena.slabs, pg.slab)
	arena.account(ci, -pg.slab)
	pl := &h.classes[ci]
	// freed-into pages bubble to the head of the free list.
	pl.unlink(pg)
	pl.tofree(pg)
	if pg.used == 0 {
		h.retirepage(pl, pg, ci)
	}
}

// retirepage merge an empty page back into its segment, keeping one
// warm page per slab to absorb alloc/free churn. Fully drained
// segments are returned to the provider.
func (h *Heap) retirepage(pl *pagelist, pg *page, ci int) {
	if pl.npages <= 1 {
		return
	}
	pl.unlink(pg)
	pl.npages--
	seg := pg.seg
	seg.evict(pg)
	h.arena.retire(pg, ci)
	if seg.usedspans == 0 {
		h.unlinksegment(seg)
		h.arena.releasesegment(seg)
	}
}

func (h *Heap) linksegment(seg *segment) {
	next := h.segments
	h.segments, seg.next = seg, next
	seg.prev = &h.segments
	if seg.next != nil {
		seg.next.prev = &seg.next
	}
}

func (h *Heap) unlinksegment(seg *segment) {
	if seg.prev != nil {
		*(seg.prev) = seg.next
	}
	if seg.next != nil {
		seg.next.prev = seg.prev
	}
	seg.prev, seg.next = nil, nil
}

func min64(x, y int64) int64 {
	if x < y {
		return x
	}
	return y
}
