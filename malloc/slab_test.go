package malloc

import "testing"

func TestSlabsizes(t *testing.T) {
	slabs := Slabsizes(Minslab, Hugethreshold)
	if slabs[0] != Minslab {
		t.Errorf("expected %v, got %v", Minslab, slabs[0])
	}
	if x := slabs[len(slabs)-1]; x != Hugethreshold {
		t.Errorf("expected %v, got %v", Hugethreshold, x)
	}
	if int64(len(slabs)) > Maxslabs {
		t.Errorf("%v slabs exceeds %v", len(slabs), Maxslabs)
	}
	for i, slab := range slabs {
		if (slab % Alignment) != 0 {
			t.Errorf("slab %v not multiple of %v", slab, Alignment)
		}
		if i == 0 {
			continue
		}
		if slab <= slabs[i-1] {
			t.Errorf("slabs not monotonic at %v: %v %v", i, slabs[i-1], slab)
		}
		// steps stay within the utilization target, modulo the
		// Alignment floor on small slabs.
		step := slab - slabs[i-1]
		if step > Alignment && float64(step) > float64(slabs[i-1])*(1-MEMUtilization) {
			t.Errorf("slab %v step %v too wide", slab, step)
		}
	}

	// panic cases
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		Slabsizes(1024, 512)
	}()
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		Slabsizes(10, 512)
	}()
}

func TestSuitableSlab(t *testing.T) {
	slabs := Slabsizes(Minslab, Hugethreshold)
	for _, n := range []int64{1, 15, 16, 17, 100, 4096, 65537, Hugethreshold} {
		slab := SuitableSlab(slabs, n)
		if slab < n {
			t.Errorf("slab %v smaller than size %v", slab, n)
		}
		ci := Slabindex(slabs, slab)
		if slabs[ci] != slab {
			t.Errorf("expected %v, got %v", slab, slabs[ci])
		}
		if ci > 0 && slabs[ci-1] >= n {
			t.Errorf("slab %v for %v is not the smallest fit", slab, n)
		}
	}
}

func TestSpansfor(t *testing.T) {
	if x := spansfor(16); x != 1 {
		t.Errorf("expected %v, got %v", 1, x)
	}
	if x := spansfor(Pagesize / 8); x != 1 {
		t.Errorf("expected %v, got %v", 1, x)
	}
	for _, slab := range []int64{Pagesize / 8, 9216, 65536, Hugethreshold} {
		nspans := spansfor(slab)
		capacity := int64(nspans) * Pagesize
		if nblocks := capacity / slab; slab > Pagesize/8 && nblocks < 8 {
			t.Errorf("slab %v yields %v blocks", slab, nblocks)
		}
		if capacity > Segmentsize {
			t.Errorf("slab %v page exceeds segment", slab)
		}
	}
}
