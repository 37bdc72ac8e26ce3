package assembly

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/seqset"
)

func build(reads ...string) *seqset.Seqset {
	var seqs []dna.Seq
	for _, r := range reads {
		seqs = append(seqs, dna.FromString(r))
	}
	return seqset.Build(seqs)
}

func TestPropagateFromEndWalksEveryOffset(t *testing.T) {
	ss := build("ACGTACGT", "CGT")
	seq := dna.FromString("ACGT")
	p := PropagateFromEnd([]seqset.Range{ss.CtxBegin()}, seq, nil)

	require.Equal(t, len(seq), p.Len())
	for i := 0; i <= len(seq); i++ {
		for _, r := range p.RangesAt(i) {
			require.Truef(t, r.Valid(), "offset %d holds an invalid range", i)
			want := seq[i:]
			require.Truef(t, dna.Equal(r.Seq(), want), "offset %d: range seq = %s, want suffix %s", i, r.Seq(), want)
		}
	}
	// Offset 0 should recover the full-length context, since "ACGT" is in
	// the seqset (as a suffix of the first read).
	found := false
	for _, r := range p.RangesAt(0) {
		if r.Len() == len(seq) {
			found = true
		}
	}
	require.True(t, found, "expected offset 0 to include the full 4-base match")
}

func TestDedupPrefixesDropsShorterMatches(t *testing.T) {
	ss := build("ACGTACGT")
	full := ss.Find(dna.FromString("ACGT"))
	short := ss.Find(dna.FromString("CGT"))
	require.True(t, full.Valid())
	require.True(t, short.Valid())
	out := dedupPrefixes([]seqset.Range{short, full})
	require.Len(t, out, 1, "dedupPrefixes should keep only the longer one")
	require.Equal(t, full.Len(), out[0].Len())
}

func TestDedupPrefixesKeepsUnrelatedRanges(t *testing.T) {
	ss := build("AAAA", "CCCC")
	a := ss.Find(dna.FromString("AAAA"))
	c := ss.Find(dna.FromString("CCCC"))
	out := dedupPrefixes([]seqset.Range{a, c})
	require.Len(t, out, 2, "unrelated ranges should be preserved")
}

func TestPropagateFromEndEmptySeq(t *testing.T) {
	ss := build("ACGT")
	p := PropagateFromEnd([]seqset.Range{ss.CtxBegin()}, nil, nil)
	require.Equal(t, 0, p.Len())
	require.Len(t, p.RangesAt(0), 1, "expected the single seed range to survive at offset 0")
}
