package align

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
)

func TestAnchorDropFindsUniqueRejoin(t *testing.T) {
	ref := "AAAAAAAAAACCGGTTAAAAAAAAAA" // unique "CCGGTT" at [10,16)
	sc := gaplessScaffold(ref)

	a := assembly.New()
	a.LeftOffset = assembly.Offset(0)
	a.LeftAnchorLen = 0
	a.Seq = dna.FromString("CCGGTT")

	opts := DefaultOptions()
	opts.KmerSize = 6
	ok, err := AnchorDrop(a, 0, sc, len(ref), opts)
	require.NoError(t, err)
	require.True(t, ok, "AnchorDrop did not find the unique rejoin")
	require.True(t, a.RightOffset.Valid())
	require.Equal(t, int64(16), a.RightOffset.Get())
	require.Equal(t, 6, a.RightAnchorLen)
}

func TestAnchorDropFailsWithoutUniqueMatch(t *testing.T) {
	ref := "AAAAAAAAAAAAAAAAAAAAAAAAAA" // every k-mer repeats
	sc := gaplessScaffold(ref)

	a := assembly.New()
	a.LeftOffset = assembly.Offset(0)
	a.Seq = dna.FromString("AAAAAA")

	opts := DefaultOptions()
	opts.KmerSize = 6
	ok, err := AnchorDrop(a, 0, sc, len(ref), opts)
	require.NoError(t, err)
	require.False(t, ok, "AnchorDrop reported success with no unique match available")
	require.False(t, a.RightOffset.Valid(), "RightOffset should be left untouched, got %v", a.RightOffset)
}

func TestAnchorDropBothAnchorsPresentIsNoop(t *testing.T) {
	ref := "ACGTACGTACGTACGT"
	sc := gaplessScaffold(ref)

	a := assembly.New()
	a.LeftOffset = assembly.Offset(0)
	a.RightOffset = assembly.Offset(8)
	a.Seq = dna.FromString("ACGTACGT")

	ok, err := AnchorDrop(a, 0, sc, 10, DefaultOptions())
	require.NoError(t, err)
	require.False(t, ok, "AnchorDrop should no-op when both anchors are present")
}
