package phase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/pipeline"
)

func joinedOf(left, right int64, subs ...*assembly.Assembly) *assembly.Assembly {
	a := assembly.New()
	a.LeftOffset = assembly.Offset(left)
	a.RightOffset = assembly.Offset(right)
	a.SubAssemblies = subs
	return a
}

func TestSplitEmitsEachSubAssemblyOnce(t *testing.T) {
	out := &pipeline.Collector{}
	s := NewSplit(out)

	v1 := variant(0, 1, "A", "p1")
	ref := refAsm(1, 5, "CGTA")
	v2 := variant(5, 6, "T", "p1")
	joined := joinedOf(0, 6, v1, ref, v2)

	require.NoError(t, s.Add(joined))
	require.NoError(t, s.Flush())

	require.Len(t, out.Assemblies, 3, "want one assembly per sub-assembly")
	want := []*assembly.Assembly{v1, ref, v2}
	for i, w := range want {
		require.Samef(t, w, out.Assemblies[i], "out.Assemblies[%d]", i)
	}
}

func TestSplitDeduplicatesASharedReferenceSubAssembly(t *testing.T) {
	out := &pipeline.Collector{}
	s := NewSplit(out)

	v1 := variant(0, 1, "A", "p1")
	sharedRef := refAsm(1, 5, "CGTA")
	v2 := variant(5, 6, "T", "p2")

	joinedA := joinedOf(0, 5, v1, sharedRef)
	joinedB := joinedOf(1, 6, sharedRef, v2)

	require.NoError(t, s.Add(joinedA))
	require.NoError(t, s.Add(joinedB))
	require.NoError(t, s.Flush())

	require.Len(t, out.Assemblies, 3, "want v1, sharedRef once, v2")
	count := 0
	for _, a := range out.Assemblies {
		if a == sharedRef {
			count++
		}
	}
	require.Equal(t, 1, count, "sharedRef should be emitted exactly once")
}

func TestSplitPassesThroughAnAssemblyWithNoSubAssemblies(t *testing.T) {
	out := &pipeline.Collector{}
	s := NewSplit(out)

	a := variant(0, 1, "A")
	require.NoError(t, s.Add(a))
	require.NoError(t, s.Flush())
	require.Len(t, out.Assemblies, 1)
	require.Same(t, a, out.Assemblies[0], "expected the bare assembly to pass straight through")
}
