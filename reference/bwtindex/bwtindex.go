// Package bwtindex implements the consumer side of the reference's
// FM-index-style lookup: bwt_range.Find. Building the index from a FASTA
// file (BWT construction) is explicitly out of scope (spec.md §1
// Non-goals) — Index here is always built from an already-flattened
// reference sequence, standing in for whatever prebuilt artifact the real
// importer produces.
package bwtindex

import (
	"sort"

	"github.com/grailbio/biograph/dna"
)

// MaxPositions bounds how many concrete reference positions Find will
// return for a single query, matching the spec's "up to N concrete
// positions" contract.
const MaxPositions = 64

// Index supports Find(seq) over a single flattened reference sequence. It
// is built with a plain suffix array rather than a BWT/FM-index: the core
// only ever needs the Find contract (§1), and a suffix array satisfies it
// with the same asymptotics for a single build pass, without requiring the
// (out-of-scope) BWT construction machinery.
type Index struct {
	flat dna.Seq
	sa   []int32 // suffix array over flat; sa[i] is a starting offset
}

// Build constructs an Index over flat. This stands in for whatever
// externally-built FM-index artifact the real pipeline loads; it is not
// tuned for genome-scale inputs.
func Build(flat dna.Seq) *Index {
	sa := make([]int32, len(flat))
	for i := range sa {
		sa[i] = int32(i)
	}
	sort.Slice(sa, func(i, j int) bool {
		return dna.Compare(flat[sa[i]:], flat[sa[j]:]) < 0
	})
	return &Index{flat: flat, sa: sa}
}

// Range is a contiguous band of the suffix array whose entries all start
// with the same query sequence.
type Range struct {
	idx      *Index
	lo, hi   int // [lo,hi) into idx.sa
	queryLen int
}

// Valid reports whether the range matched at least one position.
func (r Range) Valid() bool { return r.idx != nil && r.lo < r.hi }

// Count returns the number of matching reference positions, saturating at
// MaxPositions (callers that need the true count beyond that should treat
// the result as "at least MaxPositions").
func (r Range) Count() int {
	n := r.hi - r.lo
	if n > MaxPositions {
		return MaxPositions
	}
	return n
}

// Positions returns up to MaxPositions flat-address positions where the
// query occurs, in ascending order.
func (r Range) Positions() []int64 {
	if !r.Valid() {
		return nil
	}
	n := r.hi - r.lo
	if n > MaxPositions {
		n = MaxPositions
	}
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		out[i] = int64(r.idx.sa[r.lo+i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Find returns the Range of suffix-array entries whose reference suffix
// begins with seq. An invalid (empty) Range means no occurrence.
func (idx *Index) Find(seq dna.Seq) Range {
	lo := sort.Search(len(idx.sa), func(i int) bool {
		return dna.Compare(idx.flat[idx.sa[i]:], seq) >= 0
	})
	hi := sort.Search(len(idx.sa), func(i int) bool {
		s := idx.flat[idx.sa[i]:]
		if len(s) > len(seq) {
			s = s[:len(seq)]
		}
		return dna.Compare(s, seq) > 0
	})
	return Range{idx: idx, lo: lo, hi: hi, queryLen: len(seq)}
}
