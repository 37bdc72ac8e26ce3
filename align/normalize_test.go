package align

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
)

func TestNormalizeShiftsDeletionLeft(t *testing.T) {
	// Reference "ACGTTTTTACGT" (a run of T's at [3,8)); an assembly
	// deleting one T anywhere inside the run should normalize to the
	// leftmost equivalent representation.
	sc := gaplessScaffold("ACGTTTTTACGT")

	a := assembly.New()
	// T run occupies reference positions [3,8). Represent a 1-base
	// deletion right-aligned within the run; normalization should shift
	// it to the leftmost equivalent offset, 3.
	a.LeftOffset = assembly.Offset(4)
	a.RightOffset = assembly.Offset(8)
	a.Seq = dna.FromString("TTT")
	a.LeftAnchorLen, a.RightAnchorLen = 0, 0

	require.NoError(t, Normalize(a, 0, sc))
	require.Equal(t, int64(3), a.LeftOffset.Get(), "leftmost equivalent")
	require.Equal(t, int64(7), a.RightOffset.Get(), "span preserved")
}

func TestNormalizeNoOpOnMatchesReference(t *testing.T) {
	a := assembly.New()
	a.MatchesReference = true
	a.LeftOffset = assembly.Offset(5)
	a.RightOffset = assembly.Offset(9)
	a.Seq = dna.FromString("ACGT")

	sc := gaplessScaffold("AAAAACGTAAAA")
	require.NoError(t, Normalize(a, 0, sc))
	require.Equal(t, int64(5), a.LeftOffset.Get(), "Normalize should not move a matches_reference assembly")
	require.Equal(t, int64(9), a.RightOffset.Get())
}

func TestNormalizeStopsAtScaffoldStart(t *testing.T) {
	sc := gaplessScaffold("TTTTACGT") // T run at [0,4)
	a := assembly.New()
	a.LeftOffset = assembly.Offset(2)
	a.RightOffset = assembly.Offset(4) // deletes one of the leading T's
	a.Seq = dna.FromString("T")

	require.NoError(t, Normalize(a, 0, sc))
	require.Equal(t, int64(0), a.LeftOffset.Get(), "shifted to scaffold start")
	require.Equal(t, int64(2), a.RightOffset.Get(), "span preserved")
}
