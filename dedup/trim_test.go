package dedup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/reference"
)

func gaplessScaffold(s string) reference.Scaffold {
	seq := dna.FromString(s)
	return reference.FromScaffoldInfo(reference.ScaffoldInfo{
		Name:    "chr1",
		Length:  len(s),
		Extents: []reference.Extent{{Start: 0, End: len(s), Seq: seq}},
	})
}

func TestTrimShrinksMatchingFlanks(t *testing.T) {
	sc := gaplessScaffold("ACGTACGTACGT")
	a := assembly.New()
	// "ACGTA" + "GTACGT": the reference with the C at position 5 deleted
	a.LeftOffset = assembly.Offset(0)
	a.RightOffset = assembly.Offset(12)
	a.Seq = dna.FromString("ACGTAGTACGT") // a 1-base deletion of the C at position 5
	a.LeftAnchorLen, a.RightAnchorLen = 0, 0

	require.NoError(t, Trim(a, 0, sc))
	require.False(t, a.MatchesReference, "Trim incorrectly converted a real variant to matches_reference")
	require.GreaterOrEqual(t, a.LeftOffset.Get(), int64(0))
	require.LessOrEqualf(t, a.RightOffset.Get(), int64(12), "Trim widened the assembly")
}

func TestTrimConvertsIdentityToMatchesReference(t *testing.T) {
	sc := gaplessScaffold("ACGTACGTACGT")
	a := assembly.New()
	a.LeftOffset = assembly.Offset(2)
	a.RightOffset = assembly.Offset(8)
	a.Seq = dna.FromString("GTACGT") // identical to reference[2:8]
	a.LeftAnchorLen, a.RightAnchorLen = 1, 1

	require.NoError(t, Trim(a, 0, sc))
	require.True(t, a.MatchesReference, "Trim did not recognize a pure-reference assembly")
	require.Equalf(t, a.RightOffset.Get(), a.LeftOffset.Get(), "identity assembly should collapse to a zero-length span")
	require.Empty(t, a.Seq.String(), "Seq should be empty after full trim")
}

func TestTrimNoopOnMatchesReference(t *testing.T) {
	sc := gaplessScaffold("ACGTACGT")
	a := assembly.New()
	a.MatchesReference = true
	a.LeftOffset = assembly.Offset(1)
	a.RightOffset = assembly.Offset(5)
	a.Seq = dna.FromString("CGTA")

	require.NoError(t, Trim(a, 0, sc))
	require.Equal(t, int64(1), a.LeftOffset.Get(), "Trim should not modify a matches_reference assembly")
	require.Equal(t, int64(5), a.RightOffset.Get())
}
