package gomalloc

import "runtime"

import s "github.com/bnclabs/gosettings"
import sigar "github.com/cloudfoundry/gosigar"

import "github.com/bnclabs/gomalloc/malloc"

// Defaultsettings for gomalloc.
//
// "capacity" (int64, default: total system memory)
//		Maximum memory acquirable from the OS.
//
// "minslab" (int64, default: malloc.Minslab)
//		Minimum size of a chunk.
//
// "maxslab" (int64, default: malloc.Hugethreshold)
//		Maximum size of a slabbed chunk, larger chunks are huge.
//
// "heaps" (int64, default: GOMAXPROCS)
//		Number of heaps multiplexed across calling goroutines.
//
func Defaultsettings() s.Settings {
	total, _, _ := getsysmem()
	capacity := int64(total)
	if capacity <= 0 || capacity > malloc.Maxarenasize {
		capacity = malloc.Maxarenasize
	}
	setts := s.Settings{
		"capacity": capacity,
		"heaps":    int64(runtime.GOMAXPROCS(0)),
	}
	return setts.Mixin(malloc.Defaultsettings())
}

func getsysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	mem.Get()
	return mem.Total, mem.Used, mem.Free
}
