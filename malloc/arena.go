package malloc

import "sync"
import "sync/atomic"
import "unsafe"

import s "github.com/bnclabs/gosettings"
import humanize "github.com/dustin/go-humanize"

import "github.com/bnclabs/gomalloc/api"
import "github.com/bnclabs/gomalloc/lib"

// Arena is the top level allocator, owning the memory provider, the
// segment index, attached heaps and the orphan heap. Arena methods
// are thread safe unless noted, the allocation fast path lives on
// Heap.
type Arena struct {
	// 64-bit aligned stats
	heapsz   int64 // bytes acquired from the provider
	alloc    int64 // bytes handed out to the application
	overhead int64 // bytes of bookkeeping structures

	slabs      []int64
	index      segindex
	provider   api.MemoryProvider
	registry   map[int64]*Heap
	regmu      sync.Mutex
	nextid     int64
	orphan     *Heap
	omu        sync.Mutex
	smu        sync.Mutex // serializes provider acquire/release
	classalloc []int64
	classcap   []int64

	// configuration
	capacity int64
	minslab  int64
	maxslab  int64
}

// NewArena create a new memory arena backed by OS mappings.
func NewArena(capacity int64, setts s.Settings) *Arena {
	return NewArenaWith(NewOSProvider(), capacity, setts)
}

// NewArenaWith create a new memory arena over a caller supplied
// memory provider.
func NewArenaWith(
	provider api.MemoryProvider, capacity int64, setts s.Settings) *Arena {

	setts = Defaultsettings().Mixin(setts)
	minslab, maxslab := setts.Int64("minslab"), setts.Int64("maxslab")
	arena := &Arena{
		slabs:    Slabsizes(minslab, maxslab),
		provider: provider,
		registry: make(map[int64]*Heap),
		// configuration
		capacity: capacity,
		minslab:  minslab,
		maxslab:  maxslab,
	}
	if int64(len(arena.slabs)) > Maxslabs {
		panicerr("number of slabs in arena exceeds %v", Maxslabs)
	} else if capacity > Maxarenasize {
		panicerr("arena cannot exceed %v bytes (%v)", Maxarenasize, capacity)
	}
	arena.index.init()
	arena.classalloc = make([]int64, len(arena.slabs))
	arena.classcap = make([]int64, len(arena.slabs))
	arena.orphan = newheap(arena, 0)
	infof("arena created with capacity %v\n", humanize.Bytes(uint64(capacity)))
	return arena
}

//---- page and segment management

// getpage build a page of `slab` sized chunks for `h`, carving from
// the heap's segments, else from a freshly acquired segment. Returns
// nil when memory is exhausted.
func (arena *Arena) getpage(h *Heap, slab int64, ci int) *page {
	arena.reclaimorphan()
	nspans := spansfor(slab)
	for seg := h.segments; seg != nil; seg = seg.next {
		if seg.huge {
			continue
		}
		if off, fresh := seg.carve(nspans); off >= 0 {
			return arena.mkpage(seg, slab, ci, off, nspans, fresh)
		}
	}
	seg := arena.acquiresegment(h, Segmentsize, false)
	if seg == nil {
		return nil
	}
	off, fresh := seg.carve(nspans)
	return arena.mkpage(seg, slab, ci, off, nspans, fresh)
}

func (arena *Arena) mkpage(
	seg *segment, slab int64, ci, off, nspans int, fresh bool) *page {

	pg := newpage(seg, slab, off, nspans, fresh)
	seg.place(pg, off, nspans)
	atomic.AddInt64(&arena.classcap[ci], pg.nblocks*slab)
	atomic.AddInt64(&arena.overhead,
		int64(unsafe.Sizeof(*pg))+int64(cap(pg.freelist))*2)
	return pg
}

// retire accounting counterpart of mkpage.
func (arena *Arena) retire(pg *page, ci int) {
	atomic.AddInt64(&arena.classcap[ci], -pg.nblocks*pg.slab)
	atomic.AddInt64(&arena.overhead,
		-(int64(unsafe.Sizeof(*pg)) + int64(cap(pg.freelist))*2))
}

func (arena *Arena) acquiresegment(h *Heap, size int64, huge bool) *segment {
	if arena.slabs == nil {
		panicerr("arena released")
	}
	size = lib.Alignup(size, Segmentsize)
	arena.smu.Lock()
	defer arena.smu.Unlock()
	if atomic.LoadInt64(&arena.heapsz)+size > arena.capacity {
		errorf("arena capacity %v exhausted: %v\n",
			arena.capacity, ErrorOutofMemory)
		return nil
	}
	base, err := arena.provider.Acquire(size)
	if err != nil {
		errorf("arena acquire %v bytes: %v\n", size, err)
		return nil
	}
	seg := newsegment(base, size, huge)
	seg.heap = h
	h.linksegment(seg)
	arena.index.register(seg)
	atomic.AddInt64(&arena.heapsz, size)
	atomic.AddInt64(&arena.overhead, segoverhead(seg))
	debugf("segment %x (%v) acquired\n", base, humanize.Bytes(uint64(size)))
	return seg
}

// releasesegment return a fully drained segment to the provider.
// Release failures are logged and ignored, no caller waits on them.
func (arena *Arena) releasesegment(seg *segment) {
	arena.index.unregister(seg)
	arena.smu.Lock()
	defer arena.smu.Unlock()
	atomic.AddInt64(&arena.heapsz, -seg.size)
	atomic.AddInt64(&arena.overhead, -segoverhead(seg))
	if err := arena.provider.Release(seg.base, seg.size); err != nil {
		warnf("segment %x release: %v\n", seg.base, err)
	}
	debugf("segment %x (%v) released\n", seg.base, seg.size)
}

// allochuge back a single allocation with a dedicated segment. The
// chunk address is the segment base, padded up when the caller wants
// alignment beyond Segmentsize.
func (arena *Arena) allochuge(
	h *Heap, n, align int64) (unsafe.Pointer, bool) {

	if lib.Ispow2(align) == false {
		panicerr("alignment %v is not a power of 2", align)
	}
	// reclaim pending frees before going to the provider, a remote
	// free may hold the very capacity this request needs.
	h.Drain()
	arena.reclaimorphan()
	pad := int64(0)
	if align > Segmentsize {
		pad = align - Segmentsize
	}
	size := lib.Alignup(n+pad, Segmentsize)
	seg := arena.acquiresegment(h, size, true)
	if seg == nil {
		return nil, false
	}
	pg := newhugepage(seg)
	seg.place(pg, 0, len(seg.spanmap))
	pg.used, pg.fresh = 1, 1
	atomic.AddInt64(&arena.alloc, seg.size)
	chunk := (seg.base + uintptr(align-1)) &^ uintptr(align-1)
	return unsafe.Pointer(chunk), true
}

// freehuge release a huge chunk's segment, owner-only.
func (arena *Arena) freehuge(h *Heap, seg *segment) {
	h.unlinksegment(seg)
	atomic.AddInt64(&arena.alloc, -seg.size)
	arena.releasesegment(seg)
}

// account slab bytes handed out (positive) or reclaimed (negative).
func (arena *Arena) account(ci int, delta int64) {
	atomic.AddInt64(&arena.alloc, delta)
	atomic.AddInt64(&arena.classalloc[ci], delta)
}

//---- statistics and maintenance

// Slabs implement api.Mallocer{} interface.
func (arena *Arena) Slabs() []int64 {
	return arena.slabs
}

// Slabsize implement api.Mallocer{} interface.
func (arena *Arena) Slabsize(ptr unsafe.Pointer) int64 {
	_, pg := arena.lookuppage(ptr)
	return pg.slab
}

// Chunklen implement api.Mallocer{} interface. For over-aligned
// chunks this is the slab size minus the alignment padding.
func (arena *Arena) Chunklen(ptr unsafe.Pointer) int64 {
	_, pg := arena.lookuppage(ptr)
	chunk := pg.chunkof(uintptr(ptr))
	return pg.slab - int64(uintptr(ptr)-chunk)
}

// Info implement api.Mallocer{} interface. Numbers are composed from
// atomic counters and can be transiently inconsistent with each other
// while heaps are mutating.
func (arena *Arena) Info() (capacity, heap, alloc, overhead int64) {
	capacity = arena.capacity
	heap = atomic.LoadInt64(&arena.heapsz)
	alloc = atomic.LoadInt64(&arena.alloc)
	overhead = atomic.LoadInt64(&arena.overhead)
	overhead += int64(unsafe.Sizeof(*arena))
	overhead += int64(cap(arena.slabs)) * int64(unsafe.Sizeof(int64(1)))
	return capacity, heap, alloc, overhead
}

// Utilization implement api.Mallocer{} interface.
func (arena *Arena) Utilization() ([]int, []float64) {
	ss, zs := make([]int, 0), make([]float64, 0)
	for ci, slab := range arena.slabs {
		capacity := float64(atomic.LoadInt64(&arena.classcap[ci]))
		if capacity <= 0 {
			continue
		}
		allocated := float64(atomic.LoadInt64(&arena.classalloc[ci]))
		ss = append(ss, int(slab))
		zs = append(zs, (allocated/capacity)*100)
	}
	return ss, zs
}

// Logarena dump arena statistics via golog.
func (arena *Arena) Logarena() {
	capacity, heap, alloc, overhead := arena.Info()
	infof("arena capacity: %v heap: %v alloc: %v overhead: %v\n",
		humanize.Bytes(uint64(capacity)), humanize.Bytes(uint64(heap)),
		humanize.Bytes(uint64(alloc)), humanize.Bytes(uint64(overhead)))
}

// Release the arena and every segment it holds back to the provider.
// Outstanding chunks become invalid, callers shall free or forget
// them before releasing the arena.
func (arena *Arena) Release() {
	arena.regmu.Lock()
	heaps := make([]*Heap, 0, len(arena.registry)+1)
	for _, h := range arena.registry {
		heaps = append(heaps, h)
	}
	arena.registry = make(map[int64]*Heap)
	arena.regmu.Unlock()

	arena.omu.Lock()
	heaps = append(heaps, arena.orphan)
	for _, h := range heaps {
		for seg := h.segments; seg != nil; seg = h.segments {
			h.unlinksegment(seg)
			arena.releasesegment(seg)
		}
		h.classes = nil
	}
	arena.omu.Unlock()
	arena.slabs = nil
	infof("arena released\n")
}

//---- local functions

func (arena *Arena) lookuppage(ptr unsafe.Pointer) (*segment, *page) {
	seg := arena.index.lookup(uintptr(ptr))
	if seg == nil {
		panicerr("pointer %x not allocated by this arena", ptr)
	}
	pg := seg.pageof(uintptr(ptr))
	if pg == nil {
		panicerr("pointer %x outside any page", ptr)
	}
	return seg, pg
}

func segoverhead(seg *segment) int64 {
	self := int64(unsafe.Sizeof(*seg))
	spans := int64(len(seg.spanmap)) * int64(unsafe.Sizeof(&page{}))
	return self + spans + int64(len(seg.touched))
}
