package assembly

import "sync/atomic"

// ID is a process-unique, monotonically increasing assembly identifier
// (spec.md §3.6). Per spec.md §9.4, the counter backing it is an atomic
// owned directly by this module, rather than threaded through a global
// RunContext — there is exactly one producer of new ids (NewID), and every
// consumer only ever compares ids for equality/ordering.
type ID uint64

var nextID uint64

// NewID allocates the next process-unique assembly id.
func NewID() ID {
	return ID(atomic.AddUint64(&nextID, 1))
}
