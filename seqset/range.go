package seqset

import "github.com/grailbio/biograph/dna"

// Range (also called seqset_range in spec.md) is a half-open [begin,end)
// band of seqset ids all sharing the same length-base prefix, which is
// cached in seq for push/pop to operate on without re-deriving it.
//
// Invariant: every entry in [begin,end) shares seq as a prefix; begin+1 ==
// end iff the represented context is unique.
type Range struct {
	set        *Seqset
	begin, end int
	seq        dna.Seq
}

// Valid reports whether the range matched anything.
func (r Range) Valid() bool { return r.set != nil && r.begin < r.end }

// Begin and End return the underlying seqset-id band.
func (r Range) Begin() int { return r.begin }
func (r Range) End() int   { return r.end }

// Len returns the number of bases in the matched prefix.
func (r Range) Len() int { return len(r.seq) }

// Seq returns the prefix this range represents.
func (r Range) Seq() dna.Seq { return r.seq }

// Size returns the number of seqset entries in the range.
func (r Range) Size() int { return r.end - r.begin }

// Unique reports whether exactly one context matches (begin+1==end).
func (r Range) Unique() bool { return r.Valid() && r.end-r.begin == 1 }

// Front returns the first base of the range's represented context. It
// panics on an empty (zero-length) or invalid range.
func (r Range) Front() dna.Base {
	if len(r.seq) == 0 {
		panic("seqset: Front called on the empty context")
	}
	return r.seq[0]
}

// PopFront consumes the front base of the range, returning the Range for
// the remaining (length-1) suffix. Popping the length-1 context yields the
// empty context (valid, spanning the whole seqset).
func (r Range) PopFront() Range {
	if len(r.seq) == 0 {
		panic("seqset: PopFront called on the empty context")
	}
	return r.set.Find(r.seq[1:])
}

// PushFront looks up the context formed by prepending b to r's represented
// sequence. It returns an invalid Range if no such context exists in the
// seqset — a first-class outcome, never an error (spec.md §4.1).
func (r Range) PushFront(b dna.Base) Range {
	next := make(dna.Seq, 0, len(r.seq)+1)
	next = append(next, b)
	next = append(next, r.seq...)
	return r.set.Find(next)
}

// PushFrontDrop pushes b onto the front of r, then — if that exact context
// doesn't exist — repeatedly drops bases off the *tail* until it finds a
// prefix of the pushed sequence that does, returning that Range. This is
// the walk used to extend a path beyond the longest stored suffix
// (spec.md §3.3, §4.1): it always succeeds (falls back all the way to the
// single-base or empty context) as long as the seqset is non-empty.
func (r Range) PushFrontDrop(b dna.Base) Range {
	next := make(dna.Seq, 0, len(r.seq)+1)
	next = append(next, b)
	next = append(next, r.seq...)
	for n := len(next); n > 0; n-- {
		if found := r.set.Find(next[:n]); found.Valid() {
			return found
		}
	}
	return r.set.ctxBegin()
}

// SharedPrefixLength returns the number of bases a and b's represented
// contexts have in common.
func SharedPrefixLength(a, b Range) int {
	return dna.SharedPrefixLength(a.seq, b.seq)
}
