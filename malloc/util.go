package malloc

import "fmt"
import "errors"

// ErrorOutofMemory when arena's capacity is exhausted or the provider
// denies more memory. Allocation calls surface this as a nil chunk,
// never as a panic.
var ErrorOutofMemory = errors.New("malloc.outofmemory")

// ErrorReleased when operating on an arena that is already released.
var ErrorReleased = errors.New("malloc.released")

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
