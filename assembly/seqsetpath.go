package assembly

import (
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/seqset"
)

// SeqsetPath stores, for a path of length L bases, a sorted set of seqset
// ranges at each offset 0..=L that match a suffix of the path starting at
// that offset, plus a set of mate ranges derivable from the reads found at
// those positions (spec.md §3.7). It is the bookkeeping that lets the
// bidirectional graph-discover tracer carry per-assembly read/pair support
// across graph merges.
type SeqsetPath struct {
	// ranges[i] holds the (deduped) candidate ranges matching the path's
	// suffix starting at offset i, for i in [0, L].
	ranges [][]seqset.Range
	// mateRanges[i] holds ranges derived from mates of reads recognized at
	// offset i.
	mateRanges [][]seqset.Range
}

// Len returns L, the number of bases in the path this SeqsetPath covers.
func (p *SeqsetPath) Len() int {
	if p == nil || len(p.ranges) == 0 {
		return 0
	}
	return len(p.ranges) - 1
}

// RangesAt returns the deduped candidate ranges at offset i.
func (p *SeqsetPath) RangesAt(i int) []seqset.Range { return p.ranges[i] }

// MateRangesAt returns the mate-derived ranges at offset i.
func (p *SeqsetPath) MateRangesAt(i int) []seqset.Range { return p.mateRanges[i] }

// MateDeriver supplies the mate-range lookup propagate_from_end needs at
// each offset: given a range recognized at some offset, return any ranges
// derived from the mates of reads anchored there (possibly none). This is
// supplied by the tracer, which owns the readmap.
type MateDeriver func(r seqset.Range) []seqset.Range

// PropagateFromEnd rebuilds every interior offset of a SeqsetPath of length
// len(seq) by repeatedly applying PushFrontDrop starting from newEnds (the
// ranges known to hold at the path's end, offset len(seq)), matching
// spec.md §3.7's propagate_from_end. deriveMates may be nil to skip mate
// range derivation.
func PropagateFromEnd(newEnds []seqset.Range, seq dna.Seq, deriveMates MateDeriver) *SeqsetPath {
	L := len(seq)
	p := &SeqsetPath{
		ranges:     make([][]seqset.Range, L+1),
		mateRanges: make([][]seqset.Range, L+1),
	}
	p.ranges[L] = dedupPrefixes(newEnds)
	if deriveMates != nil {
		p.mateRanges[L] = deriveMatesFor(p.ranges[L], deriveMates)
	}
	for i := L - 1; i >= 0; i-- {
		var next []seqset.Range
		for _, r := range p.ranges[i+1] {
			pushed := r.PushFrontDrop(seq[i])
			if pushed.Valid() {
				next = append(next, pushed)
			}
		}
		p.ranges[i] = dedupPrefixes(next)
		if deriveMates != nil {
			p.mateRanges[i] = deriveMatesFor(p.ranges[i], deriveMates)
		}
	}
	return p
}

func deriveMatesFor(ranges []seqset.Range, deriveMates MateDeriver) []seqset.Range {
	var out []seqset.Range
	for _, r := range ranges {
		out = append(out, deriveMates(r)...)
	}
	return dedupPrefixes(out)
}

// dedupPrefixes removes any range whose matched sequence is a proper
// prefix of another range's matched sequence in the same set: the longer,
// more specific range already implies everything the shorter one does
// (spec.md §3.7: "entries whose range is a prefix subrange of another are
// dropped").
func dedupPrefixes(ranges []seqset.Range) []seqset.Range {
	if len(ranges) <= 1 {
		return ranges
	}
	keep := make([]bool, len(ranges))
	for i := range keep {
		keep[i] = true
	}
	for i, a := range ranges {
		if !keep[i] {
			continue
		}
		for j, b := range ranges {
			if i == j || !keep[j] {
				continue
			}
			if isProperPrefix(a.Seq(), b.Seq()) {
				keep[i] = false
				break
			}
		}
	}
	out := make([]seqset.Range, 0, len(ranges))
	for i, r := range ranges {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out
}

func isProperPrefix(a, b dna.Seq) bool {
	if len(a) >= len(b) {
		return false
	}
	return dna.Equal(a, b[:len(a)])
}
