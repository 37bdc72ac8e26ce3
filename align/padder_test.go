package align

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
)

func TestPadPrependsLeftBaseForEmptySeq(t *testing.T) {
	sc := gaplessScaffold("ACGTACGT")
	a := assembly.New()
	a.LeftOffset = assembly.Offset(4) // a pure insertion point mid-scaffold
	a.RightOffset = assembly.Offset(4)
	a.Seq = dna.Seq{}

	require.NoError(t, Pad(a, 0, sc))
	require.Len(t, a.Seq, 1)
	require.Equal(t, int64(3), a.LeftOffset.Get())
	require.Equal(t, int64(4), a.RightOffset.Get(), "RightOffset should be unchanged")
}

func TestPadAppendsRightBaseAtScaffoldStart(t *testing.T) {
	sc := gaplessScaffold("ACGTACGT")
	a := assembly.New()
	a.LeftOffset = assembly.Offset(0)
	a.RightOffset = assembly.Offset(0)
	a.Seq = dna.Seq{}

	require.NoError(t, Pad(a, 0, sc))
	require.Len(t, a.Seq, 1)
	require.Equal(t, int64(0), a.LeftOffset.Get(), "LeftOffset should be unchanged")
	require.Equal(t, int64(1), a.RightOffset.Get())
}

func TestPadNoopWhenSeqAndSpanNonEmpty(t *testing.T) {
	sc := gaplessScaffold("ACGTACGT")
	a := assembly.New()
	a.LeftOffset = assembly.Offset(2)
	a.RightOffset = assembly.Offset(5)
	a.Seq = dna.FromString("GTA")

	require.NoError(t, Pad(a, 0, sc))
	require.Lenf(t, a.Seq, 3, "Pad mutated a non-empty assembly: Seq=%q", a.Seq.String())
}

func TestPadAdjustsAlignedVariantBound(t *testing.T) {
	sc := gaplessScaffold("ACGTACGT")
	a := assembly.New()
	a.LeftOffset = assembly.Offset(4)
	a.RightOffset = assembly.Offset(4)
	a.Seq = dna.Seq{}
	a.AlignedVariants = []assembly.AlignedVar{{Left: 4, Right: 4}}

	require.NoError(t, Pad(a, 0, sc))
	require.Equal(t, int64(3), a.AlignedVariants[0].Left)
}
