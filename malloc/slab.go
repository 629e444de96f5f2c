package malloc

import "sort"

// Slabsizes generate suitable slab sizes between minslab and maxslab,
// to achieve MEMUtilization. Sizes are fine grained near minslab and
// step geometrically towards maxslab.
func Slabsizes(minslab, maxslab int64) []int64 {
	validateslabs(minslab, maxslab)

	nextsize := func(from int64) int64 {
		addby := int64(float64(from) * (1.0 - MEMUtilization))
		if addby <= Alignment {
			addby = Alignment
		} else if mod := addby % Alignment; mod != 0 {
			addby -= mod
		}
		return from + addby
	}

	sizes := make([]int64, 0, 64)
	for size := minslab; size < maxslab; {
		sizes = append(sizes, size)
		size = nextsize(size)
	}
	sizes = append(sizes, maxslab)
	return sizes
}

// SuitableSlab pick the smallest slab size that can hold `size`
// bytes, `slabs` shall be sorted. Callers shall not ask for sizes
// beyond the largest slab.
func SuitableSlab(slabs []int64, size int64) int64 {
	for {
		switch len(slabs) {
		case 1:
			return slabs[0]

		case 2:
			if size <= slabs[0] {
				return slabs[0]
			} else if size <= slabs[1] {
				return slabs[1]
			}
			panicerr("size %v greater than maxslab %v", size, slabs[1])

		default:
			pivot := len(slabs) / 2
			if slabs[pivot] < size {
				slabs = slabs[pivot+1:]
			} else {
				slabs = slabs[0 : pivot+1]
			}
		}
	}
}

// Slabindex return the index of `slab` within `slabs`.
func Slabindex(slabs []int64, slab int64) int {
	return sort.Search(len(slabs), func(i int) bool {
		return slabs[i] >= slab
	})
}

// spansfor number of contiguous page units needed for a page of
// `slab` sized chunks. Small slabs share one unit, larger slabs get
// enough units to hold at least eight chunks.
func spansfor(slab int64) int {
	if slab <= Pagesize/8 {
		return 1
	}
	bytes := slab * 8
	return int((bytes + Pagesize - 1) / Pagesize)
}
