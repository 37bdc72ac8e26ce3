package coverage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/readmap"
	"github.com/grailbio/biograph/seqset"
)

func TestCalcCoverageCountsFullLengthRead(t *testing.T) {
	seq := dna.FromString("ACGTACGT")
	ss := seqset.Build([]dna.Seq{seq})

	rm := readmap.Build([]readmap.Read{
		{SeqsetID: ss.Find(seq).Begin(), Length: len(seq), IsForward: true, MateReadID: readmap.NoRead, RevCompReadID: readmap.NoRead},
	})

	a := assembly.New()
	a.Seq = seq
	a.SeqsetEntries = assembly.PropagateFromEnd([]seqset.Range{ss.CtxBegin()}, seq, nil)

	require.NoError(t, Calc([]*assembly.Assembly{a}, rm, DefaultOptions()))
	require.Len(t, a.Coverage, len(seq)+1)
	// A single read spanning the whole assembly should contribute 1 to
	// every interbase position.
	for i, c := range a.Coverage {
		require.Equalf(t, 1, c, "Coverage[%d]", i)
	}
	for i, c := range a.PairCoverage {
		require.Equalf(t, 0, c, "PairCoverage[%d], want 0 (read has no mate)", i)
	}
}

func TestCalcCoveragePairedReadCountsPairCoverage(t *testing.T) {
	seq := dna.FromString("ACGTACGT")
	ss := seqset.Build([]dna.Seq{seq})

	rm := readmap.Build([]readmap.Read{
		{SeqsetID: ss.Find(seq).Begin(), Length: len(seq), IsForward: true, MateReadID: 1, RevCompReadID: readmap.NoRead},
		{SeqsetID: ss.Find(seq).Begin(), Length: len(seq), IsForward: false, MateReadID: 0, RevCompReadID: readmap.NoRead},
	})

	a := assembly.New()
	a.Seq = seq
	a.SeqsetEntries = assembly.PropagateFromEnd([]seqset.Range{ss.CtxBegin()}, seq, nil)

	require.NoError(t, Calc([]*assembly.Assembly{a}, rm, DefaultOptions()))
	for i, c := range a.PairCoverage {
		require.Equalf(t, 2, c, "PairCoverage[%d], want 2 (both reads have a mate)", i)
	}
}

func TestCalcCoverageNoSeqsetEntriesIsZero(t *testing.T) {
	a := assembly.New()
	a.Seq = dna.FromString("ACGT")
	rm := readmap.Build(nil)

	require.NoError(t, Calc([]*assembly.Assembly{a}, rm, DefaultOptions()))
	for _, c := range a.Coverage {
		require.Equal(t, 0, c, "expected zero coverage without a SeqsetPath")
	}
}
