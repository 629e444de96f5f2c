package malloc

import "testing"
import "unsafe"

import s "github.com/bnclabs/gosettings"

func TestNewArena(t *testing.T) {
	arena, _ := testarena()
	if x, y := len(arena.slabs), len(arena.classalloc); x != y {
		t.Errorf("expected %v, got %v", x, y)
	}
	if x := arena.Slabs(); int64(x[len(x)-1]) != Hugethreshold {
		t.Errorf("expected %v, got %v", Hugethreshold, x[len(x)-1])
	}
	arena.Release()

	// panic cases
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		NewArenaWith(newtestprovider(), Maxarenasize+1, Defaultsettings())
	}()
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		NewArenaWith(newtestprovider(), 1024*1024, s.Settings{
			"minslab": int64(10), "maxslab": int64(1024),
		})
	}()
}

func TestArenaReleased(t *testing.T) {
	arena, _ := testarena()
	arena.Release()
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		arena.Attach(10)
	}()
}

func TestArenaLookup(t *testing.T) {
	arena, _ := testarena()
	h := arena.NewHeap()
	ptr := h.Malloc(100)
	slab := SuitableSlab(arena.Slabs(), 100)
	if x := arena.Slabsize(ptr); x != slab {
		t.Errorf("expected %v, got %v", slab, x)
	}
	if x := arena.Chunklen(ptr); x != slab {
		t.Errorf("expected %v, got %v", slab, x)
	}
	// pointers the arena never handed out panic.
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic")
			}
		}()
		var local int64
		arena.Slabsize(unsafe.Pointer(&local))
	}()
	h.Free(ptr)
	arena.Release()
}

func TestOSArena(t *testing.T) {
	// end to end over real OS mappings.
	capacity := int64(64 * 1024 * 1024)
	arena := NewArena(capacity, Defaultsettings())
	h := arena.NewHeap()
	ptrs := make([]unsafe.Pointer, 0)
	for _, size := range []int64{1, 100, 4096, 100000, 600 * 1024} {
		ptr := h.Zalloc(size)
		if ptr == nil {
			t.Fatalf("unexpected allocation failure for %v", size)
		}
		blk := unsafe.Slice((*byte)(ptr), size)
		for i := int64(0); i < size; i += 512 {
			if blk[i] != 0 {
				t.Fatalf("dirty byte at %v", i)
			}
			blk[i] = 0xcc
		}
		ptrs = append(ptrs, ptr)
	}
	for _, ptr := range ptrs {
		h.Free(ptr)
	}
	arena.Logarena()
	arena.Release()
}

func BenchmarkMalloc(b *testing.B) {
	arena, _ := testarena()
	h := arena.NewHeap()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Free(h.Malloc(96))
	}
	arena.Release()
}

func BenchmarkMallocLarge(b *testing.B) {
	arena, _ := testarena()
	h := arena.NewHeap()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Free(h.Malloc(64 * 1024))
	}
	arena.Release()
}
