package align

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/dna"
)

func TestBuildKmerIndexFindsExactPosition(t *testing.T) {
	flat := dna.FromString("ACGTACGTTTTTACGT")
	idx := buildKmerIndex(flat, 4)
	positions := idx.positions(dna.FromString("TTTT"))
	want := map[int32]bool{7: true, 8: true}
	require.NotEmpty(t, positions, "positions(TTTT) returned none")
	for _, p := range positions {
		require.Truef(t, want[p], "unexpected position %d", p)
	}
}

func TestLongestMatchExtendsBothDirections(t *testing.T) {
	flat := dna.FromString("GGGGACGTACGTGGGG")
	idx := buildKmerIndex(flat, 4)
	refPos, queryPos, length, ok := idx.longestMatch(dna.FromString("TTACGTACGTCC"))
	require.True(t, ok, "longestMatch: no match found")
	require.Equal(t, 8, length)
	require.Equal(t, 4, refPos)
	require.Equal(t, 2, queryPos)
}

func TestPositionsTooShortQuery(t *testing.T) {
	flat := dna.FromString("ACGTACGT")
	idx := buildKmerIndex(flat, 6)
	require.Nil(t, idx.positions(dna.FromString("AC")), "positions() on a too-short query")
}
