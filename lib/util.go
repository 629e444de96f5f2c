package lib

import "unsafe"

// Memcpy copy memory block of length `ln` from `src` to `dst`. This
// function is useful if memory block is obtained outside golang runtime.
func Memcpy(dst, src unsafe.Pointer, ln int) int {
	dstnd := unsafe.Slice((*byte)(dst), ln)
	srcnd := unsafe.Slice((*byte)(src), ln)
	return copy(dstnd, srcnd)
}

// Memzero fill memory block of length `ln` at `ptr` with zeros. This
// function is useful if memory block is obtained outside golang runtime.
func Memzero(ptr unsafe.Pointer, ln int) {
	nd := unsafe.Slice((*byte)(ptr), ln)
	for i := range nd {
		nd[i] = 0
	}
}

// Memset fill memory block of length `ln` at `ptr` with byte `b`.
func Memset(ptr unsafe.Pointer, b byte, ln int) {
	nd := unsafe.Slice((*byte)(ptr), ln)
	for i := range nd {
		nd[i] = b
	}
}

// Alignup round `n` up to the nearest multiple of `align`, `align`
// shall be a power of 2.
func Alignup(n, align int64) int64 {
	return (n + align - 1) &^ (align - 1)
}

// Ispow2 check whether `n` is a power of 2.
func Ispow2(n int64) bool {
	return n > 0 && (n&(n-1)) == 0
}
