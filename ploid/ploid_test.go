package ploid

import (
	"testing"

	"github.com/biogo/store/interval"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/pipeline"
)

func refAssembly(left, right int64) *assembly.Assembly {
	a := assembly.New()
	a.MatchesReference = true
	a.LeftOffset = assembly.Offset(left)
	a.RightOffset = assembly.Offset(right)
	return a
}

func varAssembly(left, right int64, seq string, score float64) *assembly.Assembly {
	a := assembly.New()
	a.LeftOffset = assembly.Offset(left)
	a.RightOffset = assembly.Offset(right)
	a.Seq = dna.FromString(seq)
	a.Score = score
	return a
}

func TestLimiterPassesThroughNonOverlappingVariants(t *testing.T) {
	out := &pipeline.Collector{}
	l := NewLimiter(out, DefaultOptions())

	a := varAssembly(0, 1, "T", 5)
	b := varAssembly(10, 11, "A", 5)
	require.NoError(t, l.Add(a))
	require.NoError(t, l.Add(b))
	require.NoError(t, l.Flush())
	require.Len(t, out.Assemblies, 2)
}

func TestLimiterDropsLowerScoringOverlapBeyondMaxPloids(t *testing.T) {
	out := &pipeline.Collector{}
	var discarded []*assembly.Assembly
	opts := Options{MaxPloids: 1, DiscardFunc: func(a *assembly.Assembly, reason string) {
		discarded = append(discarded, a)
	}}
	l := NewLimiter(out, opts)

	hi := varAssembly(5, 6, "T", 10)
	lo := varAssembly(5, 6, "A", 1)
	require.NoError(t, l.Add(hi))
	require.NoError(t, l.Add(lo))
	require.NoError(t, l.Flush())

	require.Lenf(t, out.Assemblies, 1, "discarded=%d", len(discarded))
	require.Equal(t, "T", out.Assemblies[0].Seq.String(), "kept the wrong assembly")
	require.Len(t, discarded, 1)
	require.Equal(t, "A", discarded[0].Seq.String(), "expected the lower-scoring variant discarded")
}

func TestLimiterAbsorbsOverlappingReference(t *testing.T) {
	out := &pipeline.Collector{}
	l := NewLimiter(out, DefaultOptions())

	ref := refAssembly(0, 20)
	v := varAssembly(5, 6, "T", 5)
	require.NoError(t, l.Add(ref))
	require.NoError(t, l.Add(v))
	require.NoError(t, l.Flush())

	require.Len(t, out.Assemblies, 1, "reference should be absorbed into the variant")
	require.False(t, out.Assemblies[0].MatchesReference, "expected the surviving assembly to be the variant, not the reference")
}

func TestMaxOverlapComputesPeakDepth(t *testing.T) {
	ranges := []interval.IntRange{
		{Start: 0, End: 10},
		{Start: 5, End: 15},
		{Start: 8, End: 20},
	}
	require.Equal(t, 3, maxOverlap(ranges))
}

func TestMaxOverlapNonOverlappingRangesIsOne(t *testing.T) {
	ranges := []interval.IntRange{
		{Start: 0, End: 5},
		{Start: 5, End: 10},
	}
	require.Equal(t, 1, maxOverlap(ranges), "half-open ranges touching at an endpoint don't overlap")
}
