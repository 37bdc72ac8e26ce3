package align

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
)

type collectingOutput struct {
	got []*assembly.Assembly
}

func (c *collectingOutput) Add(a *assembly.Assembly) error {
	c.got = append(c.got, a)
	return nil
}

func TestSplitPassesThroughReferenceMatches(t *testing.T) {
	a := assembly.New()
	a.MatchesReference = true
	a.LeftOffset = assembly.Offset(0)
	a.RightOffset = assembly.Offset(4)
	a.Seq = dna.FromString("ACGT")

	out := &collectingOutput{}
	require.NoError(t, Split(a, 0, gaplessScaffold("ACGTACGT"), out))
	require.Len(t, out.got, 1)
	require.Same(t, a, out.got[0], "expected the same assembly passed through unchanged")
}

func TestSplitEmitsVariantsAndGaps(t *testing.T) {
	sc := gaplessScaffold("ACGTACGTACGT")
	a := assembly.New()
	a.LeftOffset = assembly.Offset(0)
	a.RightOffset = assembly.Offset(12)
	a.Seq = dna.FromString("ACGTATGTACGT") // a single substitution at offset 5 (C->T)
	a.AlignedVariants = []assembly.AlignedVar{{Left: 5, Right: 6, Seq: dna.FromString("T")}}

	out := &collectingOutput{}
	require.NoError(t, Split(a, 0, sc, out))
	require.Len(t, out.got, 3, "want 3 sub-assemblies (gap, variant, gap)")
	gap1, variant, gap2 := out.got[0], out.got[1], out.got[2]
	require.Truef(t, gap1.MatchesReference && gap1.LeftOffset.Get() == 0 && gap1.RightOffset.Get() == 5,
		"first gap = %+v, want matches_reference [0,5)", gap1)
	require.Falsef(t, variant.MatchesReference, "variant = %+v, want non-reference", variant)
	require.Equal(t, int64(5), variant.LeftOffset.Get())
	require.Equal(t, int64(6), variant.RightOffset.Get())
	require.Equal(t, "T", variant.Seq.String())
	require.Truef(t, gap2.MatchesReference && gap2.LeftOffset.Get() == 6 && gap2.RightOffset.Get() == 12,
		"second gap = %+v, want matches_reference [6,12)", gap2)
}

func TestSplitSkipsEmptyLeadingGap(t *testing.T) {
	sc := gaplessScaffold("ACGT")
	a := assembly.New()
	a.LeftOffset = assembly.Offset(0)
	a.RightOffset = assembly.Offset(1)
	a.Seq = dna.FromString("T")
	a.AlignedVariants = []assembly.AlignedVar{{Left: 0, Right: 1, Seq: dna.FromString("T")}}

	out := &collectingOutput{}
	require.NoError(t, Split(a, 0, sc, out))
	require.Len(t, out.got, 1, "want variant only, no empty gaps")
}
