package malloc

import "sync"

// segment is a large provider-backed memory region carved into page
// units of Pagesize bytes. While active a segment is owned by exactly
// one heap and mutated only by that heap's thread.
type segment struct {
	base      uintptr
	size      int64
	heap      *Heap
	huge      bool
	spanmap   []*page // page unit -> occupying page, nil when free
	touched   []bool  // page unit handed out at least once
	usedspans int
	prev      **segment
	next      *segment
}

func newsegment(base uintptr, size int64, huge bool) *segment {
	nspans := int(size / Pagesize)
	return &segment{
		base:    base,
		size:    size,
		huge:    huge,
		spanmap: make([]*page, nspans),
		touched: make([]bool, nspans),
	}
}

// carve locate `nspans` contiguous free page units, first fit.
// Returns the unit offset and whether every unit is untouched since
// the segment was mapped, or -1 when the segment has no room.
func (seg *segment) carve(nspans int) (off int, fresh bool) {
	run := 0
	for i := 0; i < len(seg.spanmap); i++ {
		if seg.spanmap[i] != nil {
			run = 0
			continue
		}
		run++
		if run == nspans {
			off = i - nspans + 1
			fresh = true
			for j := off; j <= i; j++ {
				fresh = fresh && (seg.touched[j] == false)
			}
			return off, fresh
		}
	}
	return -1, false
}

// place the page on units [off, off+nspans).
func (seg *segment) place(pg *page, off, nspans int) {
	for i := off; i < off+nspans; i++ {
		if seg.spanmap[i] != nil {
			panicerr("page unit %v already occupied", i)
		}
		seg.spanmap[i] = pg
		seg.touched[i] = true
	}
	seg.usedspans += nspans
}

// evict the page from its units, reverse of place.
func (seg *segment) evict(pg *page) {
	for i := pg.spanoff; i < pg.spanoff+pg.nspans; i++ {
		if seg.spanmap[i] != pg {
			panicerr("page unit %v not owned by evicted page", i)
		}
		seg.spanmap[i] = nil
	}
	seg.usedspans -= pg.nspans
}

// pageof resolve a chunk address within this segment to its page.
func (seg *segment) pageof(ptr uintptr) *page {
	idx := int((ptr - seg.base) / uintptr(Pagesize))
	if idx < 0 || idx >= len(seg.spanmap) {
		return nil
	}
	return seg.spanmap[idx]
}

// segindex maps Segmentsize aligned address slots to live segments,
// so that Free/Realloc can recover a chunk's owner from its raw
// address. Lookups take the read lock only, registration happens on
// the segment acquire/release slow path.
type segindex struct {
	rw    sync.RWMutex
	slots map[uintptr]*segment
}

func (index *segindex) init() {
	index.slots = make(map[uintptr]*segment)
}

func (index *segindex) register(seg *segment) {
	index.rw.Lock()
	for off := int64(0); off < seg.size; off += Segmentsize {
		index.slots[seg.base+uintptr(off)] = seg
	}
	index.rw.Unlock()
}

func (index *segindex) unregister(seg *segment) {
	index.rw.Lock()
	for off := int64(0); off < seg.size; off += Segmentsize {
		delete(index.slots, seg.base+uintptr(off))
	}
	index.rw.Unlock()
}

func (index *segindex) lookup(ptr uintptr) *segment {
	slot := ptr &^ uintptr(Segmentsize-1)
	index.rw.RLock()
	seg := index.slots[slot]
	index.rw.RUnlock()
	return seg
}
