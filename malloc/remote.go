package malloc

import "sync/atomic"
import "unsafe"

// remoteq is a heap's mailbox of chunks freed by threads that do not
// own the heap. Push is lock free and safe from any thread, the list
// next pointer is threaded through the first word of the freed chunk
// itself (chunks are never smaller than Minslab). Only the owning
// thread drains the queue.
type remoteq struct {
	head unsafe.Pointer
}

func (q *remoteq) push(ptr unsafe.Pointer) {
	for {
		old := atomic.LoadPointer(&q.head)
		*(*unsafe.Pointer)(ptr) = old
		if atomic.CompareAndSwapPointer(&q.head, old, ptr) {
			return
		}
	}
}

// empty is advisory, pushes can race past it.
func (q *remoteq) empty() bool {
	return atomic.LoadPointer(&q.head) == nil
}

// drain detach the pending list. Owner-only.
func (q *remoteq) drain() unsafe.Pointer {
	if atomic.LoadPointer(&q.head) == nil {
		return nil
	}
	return atomic.SwapPointer(&q.head, nil)
}
