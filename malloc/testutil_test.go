package malloc

import "errors"
import "sync"
import "unsafe"

import "github.com/bnclabs/gomalloc/lib"

// testprovider hands out segments carved from golang slices, counting
// provider calls and optionally failing every acquire. A test double
// for the OS memory map.
type testprovider struct {
	mu       sync.Mutex
	fail     bool
	acquires int
	releases int
	regions  map[uintptr][]byte
}

func newtestprovider() *testprovider {
	return &testprovider{regions: make(map[uintptr][]byte)}
}

func (p *testprovider) failing(fail bool) *testprovider {
	p.mu.Lock()
	p.fail = fail
	p.mu.Unlock()
	return p
}

func (p *testprovider) counts() (acquires, releases int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquires, p.releases
}

func (p *testprovider) Acquire(size int64) (uintptr, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return 0, errors.New("testprovider: out of memory")
	}
	size = lib.Alignup(size, Segmentsize)
	mem := make([]byte, size+Segmentsize)
	base := uintptr(unsafe.Pointer(&mem[0]))
	aligned := (base + uintptr(Segmentsize-1)) &^ uintptr(Segmentsize-1)
	p.regions[aligned] = mem
	p.acquires++
	return aligned, nil
}

func (p *testprovider) Release(base uintptr, size int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.regions[base]; ok == false {
		return errors.New("testprovider: unknown region")
	}
	delete(p.regions, base)
	p.releases++
	return nil
}
