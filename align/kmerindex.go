// Package align implements the aligner, anchor-dropper, align-splitter,
// normalizer and VCF padder (spec.md §4.6-4.7): turning an assembly with
// both anchors into a list of AlignedVars against the reference.
package align

import (
	farm "github.com/dgryski/go-farm"

	"github.com/grailbio/biograph/dna"
)

// kmerIndex maps a reference window's k-mers to every position they occur
// at, grounded on fusion/kmer_index.go's kmer->position map (here a plain
// Go map rather than a hand-sharded hash table, since the aligner's
// windows are assembly-sized, not genome-sized).
type kmerIndex struct {
	k      int
	byHash map[uint64][]int32
	flat   dna.Seq
}

// buildKmerIndex indexes every k-mer of flat. k must be <= 31 so a k-mer
// fits the farm hash's 64-bit input without truncation concerns in
// practice (spec.md §4.6's "kmer size <= 31").
func buildKmerIndex(flat dna.Seq, k int) *kmerIndex {
	idx := &kmerIndex{k: k, flat: flat, byHash: make(map[uint64][]int32, len(flat))}
	if len(flat) < k {
		return idx
	}
	for i := 0; i+k <= len(flat); i++ {
		h := hashKmer(flat[i : i+k])
		idx.byHash[h] = append(idx.byHash[h], int32(i))
	}
	return idx
}

func hashKmer(s dna.Seq) uint64 {
	buf := make([]byte, len(s))
	for i, b := range s {
		buf[i] = byte(b)
	}
	return farm.Hash64(buf)
}

// positions returns every reference offset where query's first k bases
// (query must have length >= k) occur.
func (idx *kmerIndex) positions(query dna.Seq) []int32 {
	if len(query) < idx.k {
		return nil
	}
	return idx.byHash[hashKmer(query[:idx.k])]
}

// longestMatch finds the longest common substring between query and
// idx.flat starting from some k-mer hit, returning the reference offset,
// the query offset and the match length. It returns ok=false if no k-mer
// of query occurs in the index at all.
func (idx *kmerIndex) longestMatch(query dna.Seq) (refPos, queryPos, length int, ok bool) {
	if len(query) < idx.k {
		return 0, 0, 0, false
	}
	for qi := 0; qi+idx.k <= len(query); qi++ {
		for _, rp := range idx.byHash[hashKmer(query[qi:qi+idx.k])] {
			l := extendMatch(idx.flat, int(rp), query, qi)
			if l > length {
				refPos, queryPos, length, ok = int(rp), qi, l, true
			}
		}
	}
	return
}

// extendMatch extends a k-mer hit in both directions to find the full
// length of agreement between flat[refPos:] and query[queryPos:], and
// backwards from refPos/queryPos.
func extendMatch(flat dna.Seq, refPos int, query dna.Seq, queryPos int) int {
	back := 0
	for back < refPos && back < queryPos && flat[refPos-back-1] == query[queryPos-back-1] {
		back++
	}
	fwd := 0
	for refPos+fwd < len(flat) && queryPos+fwd < len(query) && flat[refPos+fwd] == query[queryPos+fwd] {
		fwd++
	}
	return back + fwd
}
