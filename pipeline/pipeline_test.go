package pipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/assembly"
)

func withOffsets(lo, hi int64) *assembly.Assembly {
	a := assembly.New()
	a.LeftOffset = assembly.Offset(lo)
	a.RightOffset = assembly.Offset(hi)
	return a
}

func TestLeftOffsetLess(t *testing.T) {
	a := withOffsets(10, 20)
	b := withOffsets(15, 25)
	require.True(t, LeftOffsetLess(a, b), "expected a (min 10) < b (min 15)")
	require.False(t, LeftOffsetLess(b, a), "expected b not less than a")
}

func TestCanonAssemblyCompareReferenceFirst(t *testing.T) {
	ref := withOffsets(10, 20)
	ref.MatchesReference = true
	alt := withOffsets(10, 20)
	require.Negative(t, CanonAssemblyCompare(ref, alt), "expected reference-matching assembly to sort before an alt at the same offset")
}

func TestCanonAssemblyCompareFullyAnchoredFirst(t *testing.T) {
	full := withOffsets(10, 20)
	half := assembly.New()
	half.LeftOffset = assembly.Offset(10)
	require.Negative(t, CanonAssemblyCompare(full, half), "expected fully-anchored assembly to sort before half-anchored at the same min offset")
}

func TestOrderAssertingRejectsOutOfOrderInput(t *testing.T) {
	collector := &Collector{}
	s := NewOrderAsserting(collector, LeftOffsetLessThan)
	require.NoError(t, s.Add(withOffsets(10, 20)))
	require.Error(t, s.Add(withOffsets(5, 15)), "expected an order violation error")
}

func TestSortedOutputBuffersUntilWatermark(t *testing.T) {
	collector := &Collector{}
	s := NewSortedOutput(collector, minOffset)

	a3 := withOffsets(30, 40)
	a1 := withOffsets(10, 20)
	a2 := withOffsets(20, 30)

	require.NoError(t, s.Add(a3, 0))
	require.NoError(t, s.Add(a1, 0))
	require.Empty(t, collector.Assemblies, "expected nothing forwarded before the watermark advances")
	require.NoError(t, s.Add(a2, 15))
	require.Len(t, collector.Assemblies, 1, "expected only a1 forwarded at watermark 15")
	require.Same(t, a1, collector.Assemblies[0])
	require.NoError(t, s.Flush())
	require.Len(t, collector.Assemblies, 3, "expected all 3 assemblies forwarded after Flush")
	require.Same(t, a2, collector.Assemblies[1])
	require.Same(t, a3, collector.Assemblies[2])
}

func TestParallelInputSerializesConcurrentAdds(t *testing.T) {
	collector := &Collector{}
	p := NewParallelInput(collector)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = p.Add(withOffsets(int64(i), int64(i+1)))
		}(i)
	}
	wg.Wait()
	require.NoError(t, p.Flush())
	require.Len(t, collector.Assemblies, 50)
}
