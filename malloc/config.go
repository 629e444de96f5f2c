package malloc

import "fmt"

import s "github.com/bnclabs/gosettings"

// Alignment every chunk handed out by an arena is aligned to this
// boundary, slab sizes are multiples of Alignment.
const Alignment = int64(16)

// Segmentsize size and address-alignment of memory segments acquired
// from the provider. Chunk addresses are resolved back to their
// segment by masking with Segmentsize - 1.
const Segmentsize = int64(4 * 1024 * 1024)

// Pagesize granularity at which segments are carved into pages. Pages
// for slabs larger than Pagesize/8 span multiple contiguous units.
const Pagesize = int64(64 * 1024)

// Hugethreshold requests larger than this bypass slabs and are backed
// by a dedicated segment.
const Hugethreshold = int64(512 * 1024)

// Minslab smallest slab size, also the smallest chunk an arena hands
// out. Shall not be smaller than Alignment.
const Minslab = int64(16)

// Maxslabs maximum number of slab sizes allowed in an arena.
const Maxslabs = int64(512)

// Maxarenasize maximum size of a memory arena. Can be used as default
// capacity for NewArena().
const Maxarenasize = int64(1024 * 1024 * 1024 * 1024)

// MEMUtilization is the ratio between memory requested by application
// and slab memory allocated from the arena, worst case.
const MEMUtilization = float64(0.875)

// Defaultsettings for arena.
//
// "minslab" (int64, default: Minslab)
//		Minimum size of a chunk.
//
// "maxslab" (int64, default: Hugethreshold)
//		Maximum size of a slabbed chunk, larger chunks are huge.
//
func Defaultsettings() s.Settings {
	return s.Settings{
		"minslab": Minslab,
		"maxslab": Hugethreshold,
	}
}

func validateslabs(minslab, maxslab int64) {
	if minslab > maxslab {
		panic(fmt.Errorf("minslab(%v) > maxslab(%v)", minslab, maxslab))
	} else if (minslab % Alignment) != 0 {
		panic(fmt.Errorf("minslab %v is not multiple of %v", minslab, Alignment))
	} else if (maxslab % Alignment) != 0 {
		panic(fmt.Errorf("maxslab %v is not multiple of %v", maxslab, Alignment))
	} else if maxslab > Hugethreshold {
		panic(fmt.Errorf("maxslab %v exceeds %v", maxslab, Hugethreshold))
	}
}
