//go:build !debug

package malloc

// initblock no-op in production, chunks are handed out with whatever
// bytes they held before. Zalloc/ZallocAligned zero-fill explicitly.
func initblock(block uintptr, size int64) {
}
