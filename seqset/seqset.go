// Package seqset implements the compact, ordered dictionary of every read
// and every suffix of every read in a sample (spec.md §3.3, §4.1).
//
// The on-disk, memory-mappable packed-bit-vector layout that the real
// builder produces is a separate, out-of-scope concern (spec.md §1); this
// package models the seqset as an in-memory sorted table of contexts, which
// gives the same ordering and Range semantics the rest of the pipeline
// relies on without committing to a specific bit-packed wire format. See
// DESIGN.md for the grounding (adapted from fusion/kmer_index.go's sharded
// table idiom).
package seqset

import (
	"sort"

	"github.com/grailbio/biograph/dna"
)

// Seqset is an ordered set of DNA contexts: every context is either some
// read in the sample, a suffix of a read, or the empty sequence.
type Seqset struct {
	// entries holds one Seq per seqset_id, sorted lexicographically by
	// dna.Compare. It always contains the empty context at entries[0].
	entries    []dna.Seq
	maxReadLen int
}

// Build constructs a Seqset containing the empty context, every read in
// reads, and every suffix of every read (per spec.md §3.3). Duplicate
// contexts collapse to a single entry, matching the seqset's role as a
// *set* of contexts, not a multiset.
//
// Correctness property upheld by the caller: for any read present in the
// input, both it and its reverse complement should already appear in
// reads (readmap construction is responsible for this; Build itself does
// not synthesize reverse complements).
func Build(reads []dna.Seq) *Seqset {
	seen := make(map[string]dna.Seq)
	seen[""] = dna.Seq{}
	for _, r := range reads {
		if len(r) > 0 {
			// no-op; kept for symmetry with the suffix loop below
		}
		for i := 0; i <= len(r); i++ {
			suf := r[i:]
			seen[suf.String()] = suf
		}
	}
	entries := make([]dna.Seq, 0, len(seen))
	for _, s := range seen {
		entries = append(entries, s)
	}
	sort.Slice(entries, func(i, j int) bool { return dna.Compare(entries[i], entries[j]) < 0 })

	s := &Seqset{entries: entries}
	for _, r := range reads {
		if len(r) > s.maxReadLen {
			s.maxReadLen = len(r)
		}
	}
	return s
}

// Size returns the number of distinct contexts in the seqset (N in
// spec.md's "seqset_id ∈ [0, N)").
func (s *Seqset) Size() int { return len(s.entries) }

// MaxReadLen returns the length of the longest read used to build the
// seqset.
func (s *Seqset) MaxReadLen() int { return s.maxReadLen }

// EntrySize returns the length of the context stored at id.
func (s *Seqset) EntrySize(id int) int { return len(s.entries[id]) }

// EntryShared returns the length of the shared prefix between ctx_entry(id)
// and ctx_entry(id-1), mirroring the suffix-array-style shared-prefix
// encoding spec.md describes. EntryShared(0) is 0.
func (s *Seqset) EntryShared(id int) int {
	if id == 0 {
		return 0
	}
	return dna.SharedPrefixLength(s.entries[id-1], s.entries[id])
}

// ctxBegin returns the Range covering every context in the seqset: the
// empty-prefix range, analogous to C++'s seqset::ctx_begin().
func (s *Seqset) ctxBegin() Range {
	return Range{set: s, begin: 0, end: len(s.entries), seq: nil}
}

// CtxBegin is the exported form of ctxBegin, the starting point for any
// push_front/push_front_drop walk.
func (s *Seqset) CtxBegin() Range { return s.ctxBegin() }

// find returns the half-open index band [lo,hi) of entries whose first
// len(seq) bases equal seq.
func (s *Seqset) find(seq dna.Seq) (lo, hi int) {
	lo = sort.Search(len(s.entries), func(i int) bool {
		return dna.Compare(prefixOrWhole(s.entries[i], len(seq)), seq) >= 0
	})
	hi = sort.Search(len(s.entries), func(i int) bool {
		return dna.Compare(prefixOrWhole(s.entries[i], len(seq)), seq) > 0
	})
	return lo, hi
}

func prefixOrWhole(s dna.Seq, n int) dna.Seq {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// Find returns the Range of contexts beginning with seq. The returned
// Range is invalid (Valid()==false) if no context has seq as a prefix.
//
// Find handles len(seq) > the stored entry_size transparently: since
// entries hold full suffixes (not truncated to some fixed entry_size), a
// query longer than any matching entry simply fails to match, which is the
// correct "no such context" answer.
func (s *Seqset) Find(seq dna.Seq) Range {
	lo, hi := s.find(seq)
	if lo >= hi {
		return Range{set: s}
	}
	return Range{set: s, begin: lo, end: hi, seq: append(dna.Seq(nil), seq...)}
}

// FindExisting returns the seqset_id of seq, assuming the caller already
// knows seq is present and uniquely placed. It panics otherwise, matching
// the "fast path used when reference code already knows the placement"
// contract in spec.md §4.1 — callers that are not sure should use Find.
func (s *Seqset) FindExisting(seq dna.Seq) int {
	r := s.Find(seq)
	if !r.Valid() || r.end-r.begin != 1 {
		panic("seqset: FindExisting called with a seq that is not uniquely present")
	}
	return r.begin
}

// FindExistingUnique is FindExisting specialized for callers that already
// know a prefix of length uniquePrefixLen is enough to pin down a single
// entry; it still verifies uniqueness of the full seq.
func (s *Seqset) FindExistingUnique(seq dna.Seq, uniquePrefixLen int) int {
	lo, hi := s.find(seq[:uniquePrefixLen])
	if hi-lo != 1 {
		panic("seqset: FindExistingUnique: prefix is not unique")
	}
	if !dna.Equal(prefixOrWhole(s.entries[lo], len(seq)), seq) {
		panic("seqset: FindExistingUnique: seq does not match the unique entry")
	}
	return lo
}
