package gomalloc

import "sync"
import "sync/atomic"
import "unsafe"

import s "github.com/bnclabs/gosettings"

import "github.com/bnclabs/gomalloc/api"
import "github.com/bnclabs/gomalloc/malloc"

// Allocator is the process level facade over a malloc.Arena. A fixed
// shard of heaps is multiplexed across calling goroutines: every call
// picks an uncontended heap via try-lock rotation, so allocation from
// concurrent goroutines does not serialize on one lock. Frees whose
// owning heap is busy travel through that heap's remote queue.
type Allocator struct {
	nops   uint64 // atomic, rotation counter
	arena  *malloc.Arena
	shards []*shard
}

type shard struct {
	mu   sync.Mutex
	heap *malloc.Heap
}

// New create an allocator. Pass nil settings for Defaultsettings().
func New(setts s.Settings) *Allocator {
	setts = Defaultsettings().Mixin(setts)
	capacity := setts.Int64("capacity")
	arena := malloc.NewArena(capacity, setts)
	return newallocator(arena, setts)
}

// NewWith create an allocator over a caller supplied memory provider,
// useful to stub out the OS in tests.
func NewWith(provider api.MemoryProvider, setts s.Settings) *Allocator {
	setts = Defaultsettings().Mixin(setts)
	capacity := setts.Int64("capacity")
	arena := malloc.NewArenaWith(provider, capacity, setts)
	return newallocator(arena, setts)
}

func newallocator(arena *malloc.Arena, setts s.Settings) *Allocator {
	nheaps := setts.Int64("heaps")
	if nheaps <= 0 {
		nheaps = 1
	}
	a := &Allocator{arena: arena, shards: make([]*shard, nheaps)}
	for i := range a.shards {
		a.shards[i] = &shard{heap: arena.NewHeap()}
	}
	return a
}

//---- api.Mallocer{} interface

// Malloc implement api.Mallocer{} interface.
func (a *Allocator) Malloc(n int64) unsafe.Pointer {
	sh := a.acquire()
	ptr := sh.heap.Malloc(n)
	sh.mu.Unlock()
	return ptr
}

// Zalloc implement api.Mallocer{} interface.
func (a *Allocator) Zalloc(n int64) unsafe.Pointer {
	sh := a.acquire()
	ptr := sh.heap.Zalloc(n)
	sh.mu.Unlock()
	return ptr
}

// Realloc implement api.Mallocer{} interface.
func (a *Allocator) Realloc(ptr unsafe.Pointer, n int64) unsafe.Pointer {
	sh := a.acquire()
	newptr := sh.heap.Realloc(ptr, n)
	sh.mu.Unlock()
	return newptr
}

// MallocAligned implement api.Mallocer{} interface.
func (a *Allocator) MallocAligned(n, align int64) unsafe.Pointer {
	sh := a.acquire()
	ptr := sh.heap.MallocAligned(n, align)
	sh.mu.Unlock()
	return ptr
}

// ZallocAligned implement api.Mallocer{} interface.
func (a *Allocator) ZallocAligned(n, align int64) unsafe.Pointer {
	sh := a.acquire()
	ptr := sh.heap.ZallocAligned(n, align)
	sh.mu.Unlock()
	return ptr
}

// ReallocAligned implement api.Mallocer{} interface.
func (a *Allocator) ReallocAligned(
	ptr unsafe.Pointer, n, align int64) unsafe.Pointer {

	sh := a.acquire()
	newptr := sh.heap.ReallocAligned(ptr, n, align)
	sh.mu.Unlock()
	return newptr
}

// Free implement api.Mallocer{} interface. Safe from any goroutine,
// frees on a busy owner heap are posted to its remote queue.
func (a *Allocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	sh := a.acquire()
	sh.heap.Free(ptr)
	sh.mu.Unlock()
}

// Slabs implement api.Mallocer{} interface.
func (a *Allocator) Slabs() []int64 {
	return a.arena.Slabs()
}

// Slabsize implement api.Mallocer{} interface.
func (a *Allocator) Slabsize(ptr unsafe.Pointer) int64 {
	return a.arena.Slabsize(ptr)
}

// Chunklen implement api.Mallocer{} interface.
func (a *Allocator) Chunklen(ptr unsafe.Pointer) int64 {
	return a.arena.Chunklen(ptr)
}

// Info implement api.Mallocer{} interface.
func (a *Allocator) Info() (capacity, heap, alloc, overhead int64) {
	return a.arena.Info()
}

// Utilization implement api.Mallocer{} interface.
func (a *Allocator) Utilization() ([]int, []float64) {
	return a.arena.Utilization()
}

// Release implement api.Mallocer{} interface. Quiesces every heap and
// returns all memory to the OS.
func (a *Allocator) Release() {
	for _, sh := range a.shards {
		sh.mu.Lock()
	}
	a.arena.Release()
	for _, sh := range a.shards {
		sh.mu.Unlock()
	}
}

// Drain reclaim remote frees pending on idle heaps.
func (a *Allocator) Drain() (count int) {
	for _, sh := range a.shards {
		if sh.mu.TryLock() {
			count += sh.heap.Drain()
			sh.mu.Unlock()
		}
	}
	return count
}

//---- local functions

// acquire an uncontended heap, callers shall Unlock the shard.
func (a *Allocator) acquire() *shard {
	start := atomic.AddUint64(&a.nops, 1)
	for i := uint64(0); i < uint64(len(a.shards)); i++ {
		sh := a.shards[(start+i)%uint64(len(a.shards))]
		if sh.mu.TryLock() {
			return sh
		}
	}
	sh := a.shards[start%uint64(len(a.shards))]
	sh.mu.Lock()
	return sh
}

//---- global allocator

var global unsafe.Pointer // *Allocator
var globalmu sync.Mutex

// Default the process wide allocator, created on first use with
// Defaultsettings(). Programs overriding their platform allocator
// route malloc/calloc/realloc/free through these package level calls.
func Default() *Allocator {
	if p := atomic.LoadPointer(&global); p != nil {
		return (*Allocator)(p)
	}
	globalmu.Lock()
	defer globalmu.Unlock()
	if p := atomic.LoadPointer(&global); p != nil {
		return (*Allocator)(p)
	}
	a := New(nil)
	atomic.StorePointer(&global, unsafe.Pointer(a))
	return a
}

// Malloc allocate `n` bytes from the default allocator.
func Malloc(n int64) unsafe.Pointer {
	return Default().Malloc(n)
}

// Zalloc allocate `n` zeroed bytes from the default allocator.
func Zalloc(n int64) unsafe.Pointer {
	return Default().Zalloc(n)
}

// Realloc resize `ptr` to `n` bytes on the default allocator.
func Realloc(ptr unsafe.Pointer, n int64) unsafe.Pointer {
	return Default().Realloc(ptr, n)
}

// MallocAligned allocate `n` bytes aligned to `align`.
func MallocAligned(n, align int64) unsafe.Pointer {
	return Default().MallocAligned(n, align)
}

// ZallocAligned allocate `n` zeroed bytes aligned to `align`.
func ZallocAligned(n, align int64) unsafe.Pointer {
	return Default().ZallocAligned(n, align)
}

// ReallocAligned resize `ptr` to `n` bytes preserving `align`.
func ReallocAligned(ptr unsafe.Pointer, n, align int64) unsafe.Pointer {
	return Default().ReallocAligned(ptr, n, align)
}

// Free release `ptr` back to the default allocator, Free(nil) is a
// no-op.
func Free(ptr unsafe.Pointer) {
	Default().Free(ptr)
}
