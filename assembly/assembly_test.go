package assembly

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/dna"
)

func TestOptionalOffsetPanicsWhenAbsent(t *testing.T) {
	defer func() {
		require.NotNil(t, recover(), "expected panic on Get() of an absent OptionalOffset")
	}()
	NoOffset.Get()
}

func TestTagsAndPhaseIDsDedup(t *testing.T) {
	a := New()
	a.AddTag(TagPop)
	a.AddTag(TagPop)
	a.AddTag(TagAddRef)
	got := a.Tags()
	require.Equal(t, []string{TagPop, TagAddRef}, got)

	a.AddPhaseID("p1")
	a.AddPhaseID("p1")
	a.AddPhaseID("p2")
	require.Len(t, a.PhaseIDs(), 2, "want 2 distinct ids")
}

func TestSharesPhaseID(t *testing.T) {
	a, b := New(), New()
	a.AddPhaseID("p1")
	b.AddPhaseID("p2")
	require.False(t, a.SharesPhaseID(b), "a and b should not share a phase id yet")
	b.AddPhaseID("p1")
	require.True(t, a.SharesPhaseID(b), "a and b should share p1")
}

func TestRefSpanAndMinMaxOffset(t *testing.T) {
	a := New()
	a.LeftOffset = Offset(100)
	a.RightOffset = Offset(150)
	require.EqualValues(t, 50, a.RefSpan())
	lo, hi := a.MinMaxOffset()
	require.EqualValues(t, 100, lo)
	require.EqualValues(t, 150, hi)
}

func TestCloneIsIndependent(t *testing.T) {
	a := New()
	a.Seq = dna.FromString("ACGT")
	a.AddTag(TagPop)
	a.AddPhaseID("p1")
	a.RCReadIDs[5] = struct{}{}
	a.Coverage = []int{1, 2, 3}

	c := a.Clone()
	c.Seq[0] = dna.T
	c.AddTag(TagAddRef)
	c.RCReadIDs[6] = struct{}{}
	c.Coverage[0] = 99

	require.Equal(t, dna.A, a.Seq[0], "mutating clone's Seq should not mutate the original")
	require.False(t, a.HasTag(TagAddRef), "mutating clone's tags should not mutate the original")
	_, ok := a.RCReadIDs[6]
	require.False(t, ok, "mutating clone's RCReadIDs should not mutate the original")
	require.Equal(t, 1, a.Coverage[0], "mutating clone's Coverage should not mutate the original")
	require.Len(t, c.Tags(), 2)
}

func TestWriteDotProducesValidGraphShape(t *testing.T) {
	a := New()
	a.LeftOffset, a.RightOffset = Offset(0), Offset(10)
	a.Seq = dna.FromString("ACGTACGTAC")
	b := New()
	b.MergedAssemblyIDs = []ID{a.ID}
	b.LeftOffset, b.RightOffset = Offset(0), Offset(10)

	var buf bytes.Buffer
	require.NoError(t, WriteDot(&buf, []*Assembly{a, b}))
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "digraph assemblies {"), "unexpected dot header: %q", out)
	require.Contains(t, out, "->", "expected an edge for the merged assembly")
}
