package align

import (
	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/reference"
)

// AnchorType biases which of several equal-length longest matches the
// aligner prefers, per spec.md §4.6.
type AnchorType int

const (
	AnchorBoth AnchorType = iota
	AnchorLeft
	AnchorRight
)

// Options configures the aligner and anchor-dropper.
type Options struct {
	KmerSize         int
	AnchorType       AnchorType
	MaxRefAlignBases int
	RefAlignFactor   float64
	MinOverlap       int
}

// DefaultOptions matches the original implementation's shipped values.
func DefaultOptions() Options {
	return Options{KmerSize: 21, AnchorType: AnchorBoth, MaxRefAlignBases: 8, RefAlignFactor: 0.5, MinOverlap: 20}
}

// Align computes a's AlignedVariants against sc, the scaffold it was
// discovered in, and attaches them in place. Both of a's anchors must
// already be set; a.MatchesReference assemblies are left untouched (they
// have no variants by definition).
func Align(a *assembly.Assembly, scaffoldFlatOffset int64, sc reference.Scaffold, opts Options) error {
	if a.MatchesReference {
		a.AlignedVariants = nil
		return nil
	}
	refStart := int(a.LeftOffset.Get() - scaffoldFlatOffset)
	refLen := int(a.RightOffset.Get() - a.LeftOffset.Get())
	ref := renderWindow(sc, refStart, refLen)

	vars := alignRegion(a.Seq, ref, a.LeftOffset.Get(), opts)
	a.AlignedVariants = vars
	return assembly.Check(a)
}

// renderWindow pulls out an N-free reference window for alignment,
// stopping early at any gap: the aligner never needs to match across an
// N run, since discovery never anchors one there.
func renderWindow(sc reference.Scaffold, start, length int) dna.Seq {
	sub := sc.Subscaffold(start, length)
	it := sub.Iterator()
	out := make(dna.Seq, 0, length)
	for !it.Done() {
		b, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, b)
	}
	return out
}

// alignRegion recursively partitions query against ref, emitting an
// AlignedVar for every non-matching span, in left-to-right order
// (spec.md §4.6).
func alignRegion(query, ref dna.Seq, refFlatOffset int64, opts Options) []assembly.AlignedVar {
	if len(query) == 0 && len(ref) == 0 {
		return nil
	}
	if len(query) == 0 {
		return []assembly.AlignedVar{{Left: refFlatOffset, Right: refFlatOffset + int64(len(ref))}}
	}
	if len(ref) == 0 {
		return []assembly.AlignedVar{{Left: refFlatOffset, Right: refFlatOffset, Seq: append(dna.Seq(nil), query...)}}
	}

	k := opts.KmerSize
	if k > len(ref) {
		k = len(ref)
	}
	if k > len(query) {
		k = len(query)
	}
	if k < 1 {
		return []assembly.AlignedVar{{Left: refFlatOffset, Right: refFlatOffset + int64(len(ref)), Seq: append(dna.Seq(nil), query...)}}
	}

	idx := buildKmerIndex(ref, k)
	refPos, queryPos, length, ok := idx.bestMatch(query, opts.AnchorType)

	threshold := opts.MaxRefAlignBases
	minLen := len(query)
	if len(ref) < minLen {
		minLen = len(ref)
	}
	if factorThreshold := int(float64(minLen) * opts.RefAlignFactor); factorThreshold > threshold {
		threshold = factorThreshold
	}

	if !ok || length < threshold {
		return []assembly.AlignedVar{{Left: refFlatOffset, Right: refFlatOffset + int64(len(ref)), Seq: append(dna.Seq(nil), query...)}}
	}

	var out []assembly.AlignedVar
	out = append(out, alignRegion(query[:queryPos], ref[:refPos], refFlatOffset, opts)...)
	out = append(out, alignRegion(query[queryPos+length:], ref[refPos+length:], refFlatOffset+int64(refPos+length), opts)...)
	return out
}

// bestMatch finds the longest common substring, biasing ties towards the
// left or right edge of query when AnchorType requests it.
func (idx *kmerIndex) bestMatch(query dna.Seq, at AnchorType) (refPos, queryPos, length int, ok bool) {
	if len(query) < idx.k {
		return 0, 0, 0, false
	}
	qis := make([]int, 0, len(query)-idx.k+1)
	for qi := 0; qi+idx.k <= len(query); qi++ {
		qis = append(qis, qi)
	}
	if at == AnchorRight {
		for i, j := 0, len(qis)-1; i < j; i, j = i+1, j-1 {
			qis[i], qis[j] = qis[j], qis[i]
		}
	}
	for _, qi := range qis {
		for _, rp := range idx.byHash[hashKmer(query[qi:qi+idx.k])] {
			l := extendMatch(idx.flat, int(rp), query, qi)
			better := l > length
			if at == AnchorRight && l == length && l > 0 {
				better = false // keep the rightmost (first found) on ties
			}
			if better {
				// rp/qi is a k-mer hit inside the match; step back to its start.
				back := 0
				for back < int(rp) && back < qi && idx.flat[int(rp)-back-1] == query[qi-back-1] {
					back++
				}
				refPos, queryPos, length, ok = int(rp)-back, qi-back, l, true
			}
		}
	}
	return
}
