package align

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/reference"
)

// gaplessScaffold builds a Scaffold with no N runs, for tests that only
// care about substitution/indel alignment mechanics.
func gaplessScaffold(s string) reference.Scaffold {
	seq := dna.FromString(s)
	return reference.FromScaffoldInfo(reference.ScaffoldInfo{
		Name:    "chr1",
		Length:  len(s),
		Extents: []reference.Extent{{Start: 0, End: len(s), Seq: seq}},
	})
}

func TestAlignSubstitution(t *testing.T) {
	// Reference "ACGTACGTACGTACGTACGT", assembly substitutes one base in
	// the middle: "ACGTACGTAXGTACGTACGT" (X standing in for a mismatch).
	ref := "ACGTACGTACGTACGTACGT"
	sc := gaplessScaffold(ref)

	a := assembly.New()
	a.LeftOffset = assembly.Offset(0)
	a.RightOffset = assembly.Offset(int64(len(ref)))
	altSeq := dna.FromString("ACGTACGTATGTACGTACGT") // position 9: C->T
	a.LeftAnchorLen, a.RightAnchorLen = 9, 10
	a.Seq = altSeq

	require.NoError(t, Align(a, 0, sc, DefaultOptions()))
	require.NotEmpty(t, a.AlignedVariants, "expected at least one aligned variant, got none")
	// Reconstruct the sequence from aligned_variants + reference gaps and
	// check it matches a.Seq exactly.
	got := reconstruct(t, a, sc, 0)
	require.Equal(t, altSeq.String(), got.String())
}

func TestAlignIdentityProducesNoVariants(t *testing.T) {
	ref := "ACGTACGTACGT"
	sc := gaplessScaffold(ref)
	a := assembly.New()
	a.LeftOffset = assembly.Offset(0)
	a.RightOffset = assembly.Offset(int64(len(ref)))
	a.LeftAnchorLen, a.RightAnchorLen = 6, 6
	a.Seq = dna.FromString(ref)

	require.NoError(t, Align(a, 0, sc, DefaultOptions()))
	for _, v := range a.AlignedVariants {
		require.Falsef(t, v.Right > v.Left || len(v.Seq) > 0, "identity alignment produced a real variant: %+v", v)
	}
}

func TestAlignMatchesReferenceIsNoop(t *testing.T) {
	a := assembly.New()
	a.MatchesReference = true
	a.LeftOffset = assembly.Offset(0)
	a.RightOffset = assembly.Offset(5)
	a.Seq = dna.FromString("ACGTA")
	a.AlignedVariants = []assembly.AlignedVar{{Left: 1, Right: 2}}

	sc := gaplessScaffold("ACGTACGT")
	require.NoError(t, Align(a, 0, sc, DefaultOptions()))
	require.Nil(t, a.AlignedVariants, "expected AlignedVariants cleared for a reference match")
}

// reconstruct rebuilds a.Seq from a.AlignedVariants plus the reference
// gaps between them, using sc as the source of truth for gap bytes.
func reconstruct(t *testing.T, a *assembly.Assembly, sc reference.Scaffold, scaffoldFlatOffset int64) dna.Seq {
	t.Helper()
	var out dna.Seq
	cursor := a.LeftOffset.Get()
	for _, v := range a.AlignedVariants {
		if v.Left > cursor {
			out = append(out, renderWindow(sc, int(cursor-scaffoldFlatOffset), int(v.Left-cursor))...)
		}
		out = append(out, v.Seq...)
		cursor = v.Right
	}
	if a.RightOffset.Get() > cursor {
		out = append(out, renderWindow(sc, int(cursor-scaffoldFlatOffset), int(a.RightOffset.Get()-cursor))...)
	}
	return out
}
