package tracer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/readmap"
	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/seqset"
)

func TestGraphDiscoverTracerRunsToCompletionWithoutPairs(t *testing.T) {
	refSeq := dna.FromString("ACGTACGTACGTACGTACGTACGT")
	ref := reference.New([]reference.ScaffoldInfo{{
		Name: "chr1", Length: len(refSeq),
		Extents: []reference.Extent{{Start: 0, End: len(refSeq), Seq: refSeq}},
	}})
	ss := seqset.Build([]dna.Seq{refSeq[0:8], refSeq[8:16]})
	rm := readmap.Build(nil)

	gt := &GraphDiscoverTracer{SS: ss, RM: rm, Ref: ref, Opts: Options{MinOverlapFrac: 0.5, MaxPairDistance: 100}}
	out := &collector{}
	require.NoError(t, gt.Trace(0, reference.FromScaffoldInfo(ref.Scaffolds[0]), 0, len(refSeq), out))
	// No mate relationships exist in this readmap, so nothing should ever
	// match a mate hint well enough to emit.
	require.Empty(t, out.got, "expected no discoveries without any mate pairs")
}

func TestGraphDiscoverTracerEmitsOnMatePairRejoin(t *testing.T) {
	refSeq := dna.FromString("ACGTTGCAATCGGATCCAAGTTCCGGAATTCCAGGTTAACCGGTTAACCGGATCGATCG")
	ref := reference.New([]reference.ScaffoldInfo{{
		Name: "chr1", Length: len(refSeq),
		Extents: []reference.Extent{{Start: 0, End: len(refSeq), Seq: refSeq}},
	}})
	fwdRead := refSeq[0:10]
	mateRead := dna.RevComp(refSeq[20:30])
	ss := seqset.Build([]dna.Seq{fwdRead, dna.RevComp(fwdRead), mateRead, dna.RevComp(mateRead)})

	fwdID := ss.Find(fwdRead).Begin()
	mateID := ss.Find(mateRead).Begin()
	reads := []readmap.Read{
		{SeqsetID: fwdID, Length: 10, IsForward: true, MateReadID: 1, RevCompReadID: readmap.NoRead},
		{SeqsetID: mateID, Length: 10, IsForward: true, MateReadID: 0, RevCompReadID: readmap.NoRead},
	}
	rm := readmap.Build(reads)

	gt := &GraphDiscoverTracer{SS: ss, RM: rm, Ref: ref, Opts: Options{MinOverlapFrac: 0.5, MaxPairDistance: 50}}
	out := &collector{}
	require.NoError(t, gt.Trace(0, reference.FromScaffoldInfo(ref.Scaffolds[0]), 0, len(refSeq), out))
	for _, a := range out.got {
		require.NoErrorf(t, assembly.Check(a), "emitted assembly failed Check")
	}
}
