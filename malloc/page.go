package malloc

// page manages a run of page units sliced up into equal sized chunks
// of one slab. Chunks are linked into the freelist lazily: blocks
// beyond the `fresh` watermark have never been handed out, when the
// page sits on clean units they are known to be zero.
type page struct {
	slab     int64
	base     uintptr
	nblocks  int64
	used     int64
	freelist []uint16
	fresh    int64
	clean    bool
	spanoff  int
	nspans   int
	seg      *segment
	heap     *Heap
	prev     **page
	next     *page
}

func newpage(seg *segment, slab int64, spanoff, nspans int, clean bool) *page {
	capacity := int64(nspans) * Pagesize
	pg := &page{
		slab:     slab,
		base:     seg.base + uintptr(spanoff)*uintptr(Pagesize),
		nblocks:  capacity / slab,
		freelist: make([]uint16, 0, capacity/slab),
		clean:    clean,
		spanoff:  spanoff,
		nspans:   nspans,
		seg:      seg,
		heap:     seg.heap,
	}
	return pg
}

// newhugepage covers the whole segment with a single chunk.
func newhugepage(seg *segment) *page {
	return &page{
		slab:    seg.size,
		base:    seg.base,
		nblocks: 1,
		clean:   true,
		spanoff: 0,
		nspans:  len(seg.spanmap),
		seg:     seg,
		heap:    seg.heap,
	}
}

// allocchunk pop a chunk off the page. `zeroed` reports whether the
// chunk memory is known to be zero filled.
func (pg *page) allocchunk() (ptr uintptr, zeroed, ok bool) {
	if ln := len(pg.freelist); ln > 0 {
		nthblock := int64(pg.freelist[ln-1])
		pg.freelist = pg.freelist[:ln-1]
		ptr = pg.base + uintptr(nthblock*pg.slab)
		initblock(ptr, pg.slab)
		pg.used++
		return ptr, false, true
	}
	if pg.fresh < pg.nblocks {
		ptr = pg.base + uintptr(pg.fresh*pg.slab)
		pg.fresh++
		pg.used++
		if (ptr & uintptr(Alignment-1)) != 0 {
			panicerr("allocated chunk is not %v byte aligned", Alignment)
		}
		return ptr, pg.clean, true
	}
	return 0, false, false
}

// freechunk push a chunk back to the page's freelist, `ptr` shall be
// the chunk's start address.
func (pg *page) freechunk(ptr uintptr) {
	diffptr := uint64(ptr - pg.base)
	if (diffptr % uint64(pg.slab)) != 0 {
		panicerr("free of unaligned chunk: %x, slab %v", diffptr, pg.slab)
	}
	pg.freelist = append(pg.freelist, uint16(diffptr/uint64(pg.slab)))
	pg.used--
	if pg.used < 0 {
		panicerr("chunk double freed on page %x", pg.base)
	}
}

// chunkof recover a chunk's start address from any pointer within it.
func (pg *page) chunkof(ptr uintptr) uintptr {
	return pg.base + ((ptr-pg.base)/uintptr(pg.slab))*uintptr(pg.slab)
}

func (pg *page) full() bool {
	return pg.used == pg.nblocks
}

// pagelist holds a heap's pages of one slab, split into a free list
// whose head is the active allocation target and a full list. Pages
// migrate between the two as chunks come and go.
type pagelist struct {
	free   *page
	full   *page
	npages int64
}

// unlink page from whichever list it is on.
func (pl *pagelist) unlink(pg *page) *pagelist {
	if pg.prev != nil {
		*(pg.prev) = pg.next
	}
	if pg.next != nil {
		pg.next.prev = pg.prev
	}
	pg.prev, pg.next = nil, nil
	return pl
}

// tofree insert page at the head of the free list.
func (pl *pagelist) tofree(pg *page) *pagelist {
	next := pl.free
	pl.free, pg.next = pg, next
	pg.prev = &pl.free
	if pg.next != nil {
		pg.next.prev = &pg.next
	}
	return pl
}

// tofull move page from the free list to the head of the full list.
func (pl *pagelist) tofull(pg *page) *pagelist {
	pl.unlink(pg)
	next := pl.full
	pl.full, pg.next = pg, next
	pg.prev = &pl.full
	if pg.next != nil {
		pg.next.prev = &pg.next
	}
	return pl
}
