package lib

import "testing"
import "unsafe"

func TestMemcpy(t *testing.T) {
	src, dst := make([]byte, 100), make([]byte, 100)
	for i := 0; i < len(src); i++ {
		src[i] = byte(i)
	}
	n := Memcpy(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), len(src))
	if n != 100 {
		t.Errorf("expected %v, got %v", 100, n)
	}
	for i := 0; i < len(dst); i++ {
		if dst[i] != byte(i) {
			t.Errorf("expected %v, got %v", byte(i), dst[i])
		}
	}
}

func TestMemzero(t *testing.T) {
	blk := make([]byte, 97)
	for i := 0; i < len(blk); i++ {
		blk[i] = 0xff
	}
	Memzero(unsafe.Pointer(&blk[0]), len(blk))
	for i, b := range blk {
		if b != 0 {
			t.Errorf("expected zero at %v, got %v", i, b)
		}
	}
}

func TestMemset(t *testing.T) {
	blk := make([]byte, 33)
	Memset(unsafe.Pointer(&blk[0]), 0xab, len(blk))
	for i, b := range blk {
		if b != 0xab {
			t.Errorf("expected 0xab at %v, got %v", i, b)
		}
	}
}

func TestAlignup(t *testing.T) {
	if x := Alignup(0, 16); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
	if x := Alignup(1, 16); x != 16 {
		t.Errorf("expected %v, got %v", 16, x)
	}
	if x := Alignup(16, 16); x != 16 {
		t.Errorf("expected %v, got %v", 16, x)
	}
	if x := Alignup(4095, 4096); x != 4096 {
		t.Errorf("expected %v, got %v", 4096, x)
	}
}

func TestIspow2(t *testing.T) {
	for _, n := range []int64{1, 2, 4, 8, 1 << 20} {
		if Ispow2(n) == false {
			t.Errorf("expected %v to be power of 2", n)
		}
	}
	for _, n := range []int64{0, -4, 3, 6, 12, (1 << 20) + 1} {
		if Ispow2(n) == true {
			t.Errorf("expected %v to be non power of 2", n)
		}
	}
}
