//go:build debug

package malloc

import "unsafe"

import "github.com/bnclabs/gomalloc/lib"

// initblock poison recycled chunks so that use-after-free reads stand
// out in debug builds.
func initblock(block uintptr, size int64) {
	lib.Memset(unsafe.Pointer(block), 0xff, int(size))
}
