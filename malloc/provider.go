package malloc

import "sync/atomic"

import "github.com/bnclabs/gomalloc/api"

// osProvider acquires anonymous memory mappings from the operating
// system, over-mapping by one segment so that the returned base can
// be trimmed to a Segmentsize boundary. Acquired memory reads as
// zero, arenas rely on this to elide zero-fill on fresh pages.
type osProvider struct {
	mapped int64 // atomic, bytes currently mapped
}

// NewOSProvider return the production memory provider backed by OS
// anonymous mappings. Safe for concurrent use.
func NewOSProvider() api.MemoryProvider {
	return &osProvider{}
}

// Mapped return the number of bytes currently mapped from the OS.
func (p *osProvider) Mapped() int64 {
	return atomic.LoadInt64(&p.mapped)
}
