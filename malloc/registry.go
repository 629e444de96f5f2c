package malloc

import "sync/atomic"

// Heaps are process wide state keyed by a caller supplied context id,
// typically a thread or worker identity. The registry makes heap
// lifecycle explicit: created on Attach, torn down on Detach, no
// ambient thread-local state. Tests construct heaps directly through
// Attach without a real thread behind them.

// Attach get or create the heap registered under `id`. The returned
// heap shall be mutated by one thread of execution at a time.
func (arena *Arena) Attach(id int64) *Heap {
	if arena.slabs == nil {
		panicerr("arena released")
	}
	arena.regmu.Lock()
	defer arena.regmu.Unlock()
	if h, ok := arena.registry[id]; ok {
		return h
	}
	h := newheap(arena, id)
	arena.registry[id] = h
	debugf("heap %v attached\n", id)
	return h
}

// NewHeap attach a heap under a fresh id.
func (arena *Arena) NewHeap() *Heap {
	return arena.Attach(atomic.AddInt64(&arena.nextid, 1))
}

// Detach tear down the heap registered under `id`. The heap's remote
// queue is drained and surviving pages and segments migrate to the
// arena's orphan heap, so chunks still held by the application remain
// valid and can be freed later from any thread. Callers shall ensure
// no operation is in flight on the heap when detaching.
func (arena *Arena) Detach(id int64) {
	arena.regmu.Lock()
	h, ok := arena.registry[id]
	delete(arena.registry, id)
	arena.regmu.Unlock()
	if ok == false {
		return
	}
	h.Drain()
	arena.omu.Lock()
	orphan := arena.orphan
	for ci := range h.classes {
		pl := &h.classes[ci]
		opl := &orphan.classes[ci]
		for pg := pl.free; pg != nil; pg = pl.free {
			pl.unlink(pg)
			pg.heap = orphan
			opl.tofree(pg)
			opl.npages++
		}
		for pg := pl.full; pg != nil; pg = pl.full {
			pl.unlink(pg)
			pg.heap = orphan
			opl.tofull(pg)
			opl.npages++
		}
		pl.npages = 0
	}
	for seg := h.segments; seg != nil; seg = h.segments {
		h.unlinksegment(seg)
		seg.heap = orphan
		// huge pages live outside the class lists, retarget them here.
		if seg.huge && seg.spanmap[0] != nil {
			seg.spanmap[0].heap = orphan
		}
		orphan.linksegment(seg)
	}
	arena.omu.Unlock()
	debugf("heap %v detached\n", id)
}

// reclaimorphan drain frees posted to the orphan heap, called on the
// allocation slow path so orphaned memory is reclaimed before any
// heap asks the provider for more.
func (arena *Arena) reclaimorphan() {
	if arena.orphan.remote.empty() {
		return
	}
	if arena.omu.TryLock() {
		arena.orphan.Drain()
		arena.omu.Unlock()
	}
}
