package main

import (
	"testing"

	"github.com/grailbio/base/tsv"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/coverage"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/ploid"
	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/vcfio"
)

func testRef() *reference.Reference {
	return reference.New([]reference.ScaffoldInfo{
		{
			Name:   "chr1",
			Length: 20,
			Extents: []reference.Extent{
				{Start: 0, End: 20, Seq: dna.FromString("ACGTACGTACGTACGTACGT")},
			},
		},
	})
}

func newTestAssembly(left, right int64, variantSeq string, pairCov int) *assembly.Assembly {
	a := assembly.New()
	a.LeftOffset = assembly.Offset(left)
	a.RightOffset = assembly.Offset(right)
	a.AlignedVariants = []assembly.AlignedVar{
		{Left: left, Right: left + 1, Seq: dna.FromString(variantSeq)},
	}
	a.PairCoverage = []int{pairCov}
	a.Coverage = []int{pairCov + 1}
	return a
}

func TestVcfStageSkipsReferenceMatchingAssemblies(t *testing.T) {
	var buf recordingWriter
	w := vcfio.NewWriter(&buf, "sample", vcfio.DefaultSVSizeThreshold, nil)
	ref := testRef()
	require.NoError(t, w.WriteHeader(ref))
	s := &vcfStage{w: w, ref: ref, gtOpts: ploid.DefaultSimpleGenotypeFilterOptions()}

	refMatch := assembly.New()
	refMatch.MatchesReference = true
	require.NoError(t, s.Add(refMatch))
	require.Equal(t, 0, s.Recorded, "want 0 for a reference-matching assembly")
}

func TestVcfStageWritesOneRecordPerVariantAndCountsThem(t *testing.T) {
	var buf recordingWriter
	w := vcfio.NewWriter(&buf, "sample", vcfio.DefaultSVSizeThreshold, nil)
	ref := testRef()
	require.NoError(t, w.WriteHeader(ref))
	s := &vcfStage{w: w, ref: ref, gtOpts: ploid.DefaultSimpleGenotypeFilterOptions()}

	a := newTestAssembly(0, 2, "G", 5)
	require.NoError(t, s.Add(a))
	require.Equal(t, 1, s.Recorded)
	require.NotEmpty(t, buf, "expected a VCF data line to have been written")
}

func TestScaffoldBasesFillsGapsWithN(t *testing.T) {
	ref := reference.New([]reference.ScaffoldInfo{
		{
			Name:   "chr1",
			Length: 10,
			Extents: []reference.Extent{
				{Start: 0, End: 4, Seq: dna.FromString("ACGT")},
				{Start: 7, End: 10, Seq: dna.FromString("TTT")},
			},
		},
	})
	got := scaffoldBases(&ref.Scaffolds[0], 2, 6)
	require.Equal(t, "GTNNNT", got)
}

func TestSumInts(t *testing.T) {
	require.Equal(t, 6, sumInts([]int{1, 2, 3}))
	require.Equal(t, 0, sumInts(nil))
}

func TestMinOffsetReturnsLeftOffset(t *testing.T) {
	a := newTestAssembly(5, 10, "A", 1)
	require.EqualValues(t, 5, minOffset(a))
}

// collectStage records every assembly it receives, for testing stages
// that forward to a pipeline.Stage.
type collectStage struct {
	added   []*assembly.Assembly
	flushed bool
}

func (c *collectStage) Add(a *assembly.Assembly) error {
	c.added = append(c.added, a)
	return nil
}

func (c *collectStage) Flush() error {
	c.flushed = true
	return nil
}

func TestAlignedDumpStageTeesAndForwards(t *testing.T) {
	var buf recordingWriter
	ref := testRef()
	aw := vcfio.NewAlignedCSVWriter(tsv.NewWriter(&buf), ref)
	next := &collectStage{}
	s := &alignedDumpStage{w: aw, next: next}

	a := newTestAssembly(0, 2, "G", 3)
	require.NoError(t, s.Add(a))
	require.Len(t, next.added, 1)
	require.Same(t, a, next.added[0], "expected the assembly to be forwarded to next")
	require.NoError(t, s.Flush())
	require.True(t, next.flushed, "expected Flush to propagate to next")
}

func TestDedupCoverageStageSortsByOffsetOnFlush(t *testing.T) {
	next := &collectStage{}
	s := &dedupCoverageStage{coverageOpts: coverage.DefaultOptions(), next: next}

	a1 := newTestAssembly(10, 12, "G", 1)
	a2 := newTestAssembly(0, 2, "A", 1)
	require.NoError(t, s.Add(a1))
	require.NoError(t, s.Add(a2))
	require.NoError(t, s.Flush())
	require.Len(t, next.added, 2)
	require.EqualValues(t, 0, minOffset(next.added[0]), "expected assemblies forwarded in ascending left-offset order")
	require.EqualValues(t, 10, minOffset(next.added[1]))
}

// recordingWriter is an io.Writer that records every byte written, enough
// for tests to assert something was emitted without parsing VCF/TSV text.
type recordingWriter []byte

func (w *recordingWriter) Write(p []byte) (int, error) {
	*w = append(*w, p...)
	return len(p), nil
}
