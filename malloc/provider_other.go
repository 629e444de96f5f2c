//go:build !linux

package malloc

import "sync"
import "sync/atomic"
import "unsafe"

import "github.com/bnclabs/gomalloc/lib"

// Fallback for platforms without anonymous mappings: segments are
// carved out of oversized golang slices. The slices are pinned in
// `pins` so the runtime does not reclaim them while chunks are live.
var pins = struct {
	sync.Mutex
	regions map[uintptr][]byte
}{regions: make(map[uintptr][]byte)}

// Acquire implement api.MemoryProvider{} interface.
func (p *osProvider) Acquire(size int64) (uintptr, error) {
	size = lib.Alignup(size, Segmentsize)
	mem := make([]byte, size+Segmentsize)
	base := uintptr(unsafe.Pointer(&mem[0]))
	aligned := (base + uintptr(Segmentsize-1)) &^ uintptr(Segmentsize-1)
	pins.Lock()
	pins.regions[aligned] = mem
	pins.Unlock()
	atomic.AddInt64(&p.mapped, size)
	return aligned, nil
}

// Release implement api.MemoryProvider{} interface.
func (p *osProvider) Release(base uintptr, size int64) error {
	size = lib.Alignup(size, Segmentsize)
	pins.Lock()
	delete(pins.regions, base)
	pins.Unlock()
	atomic.AddInt64(&p.mapped, -size)
	return nil
}
