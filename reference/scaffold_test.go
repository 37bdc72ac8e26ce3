package reference

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/dna"
)

func makeScaffold() ScaffoldInfo {
	// "abcde" + 3 Ns + "fghij"
	return ScaffoldInfo{
		Name:   "chr1",
		Length: 13,
		Extents: []Extent{
			{Start: 0, End: 5, Seq: dna.FromString("ACGTA")},
			{Start: 8, End: 13, Seq: dna.FromString("CCGGT")},
		},
	}
}

func TestScaffoldStringFillsGaps(t *testing.T) {
	s := FromScaffoldInfo(makeScaffold())
	require.Equal(t, "ACGTANNNCCGGT", s.String())
}

func TestSubscaffold(t *testing.T) {
	s := FromScaffoldInfo(makeScaffold())
	require.Equal(t, "TANNNCC", s.SubscaffoldStr(3, 7))
}

func TestRevComp(t *testing.T) {
	s := FromScaffoldInfo(makeScaffold())
	rc := s.RevComp()
	require.Equal(t, s.EndPos(), rc.EndPos(), "RevComp should not change EndPos")
	// Reverse-complementing twice must return the original string.
	require.Equal(t, s.String(), rc.RevComp().String())
}

func TestSplitExtentAt(t *testing.T) {
	s := FromScaffoldInfo(makeScaffold())
	s.SplitExtentAt(2)
	require.Equal(t, "ACGTANNNCCGGT", s.String(), "split should not change rendered string")
	require.Len(t, s.extents, 3, "expected 3 extents after split")
}

func TestIteratorSkipTo(t *testing.T) {
	s := FromScaffoldInfo(makeScaffold())
	it := s.Iterator()
	it.SkipTo(9)
	b, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, byte('C'), b.Char())
}

func TestFlattenRoundTrip(t *testing.T) {
	ref := New([]ScaffoldInfo{makeScaffold(), {Name: "chr2", Length: 20}})
	flat := ref.Flatten(1, 5)
	sc, pos, err := ref.GetSeqPosition(flat)
	require.NoError(t, err)
	require.Equal(t, 1, sc)
	require.Equal(t, 5, pos)
}
