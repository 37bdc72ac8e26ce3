package tracer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/seqset"
)

func TestPopTracerMergesAndEmits(t *testing.T) {
	refSeq := dna.FromString("ACGTACGTACGTACGTACGT")
	ref := reference.New([]reference.ScaffoldInfo{{
		Name: "chr1", Length: len(refSeq),
		Extents: []reference.Extent{{Start: 0, End: len(refSeq), Seq: refSeq}},
	}})
	read := dna.FromString("ACGTACGT")
	ss := seqset.Build([]dna.Seq{read})

	pt := &PopTracer{SS: ss, Ref: ref, Opts: Options{MinPopOverlap: 2, ReadAheadDistance: 1000}}

	origR := ss.Find(read)
	f := front{origR: ss.Find(read[4:]), scaffoldIdx: 0, refPos: 4, windowLo: 4, hi: 8}
	p := popper{origR: origR, poppedR: origR, windowLo: 0, windowHi: 8}

	out := &collector{}
	require.NoError(t, pt.Trace([]front{f}, []popper{p}, out))
	// Not asserting a specific count: the point of this smoke test is that
	// the pop/match loop terminates and never emits an assembly that fails
	// its own invariants.
	for _, a := range out.got {
		require.LessOrEqualf(t, a.LeftAnchorLen+a.RightAnchorLen, len(a.Seq), "emitted assembly violates anchor/seq-length invariant: %+v", a)
	}
}

func TestBestFrontMatchPrefersLongerRange(t *testing.T) {
	ss := seqset.Build([]dna.Seq{dna.FromString("ACGTACGT"), dna.FromString("ACGT")})
	p := popper{poppedR: ss.Find(dna.FromString("ACGTACGT"))}
	short := front{origR: ss.Find(dna.FromString("ACGT"))}
	long := front{origR: ss.Find(dna.FromString("ACGTACGT"))}

	best, ok := bestFrontMatch([]front{short, long}, p)
	require.True(t, ok, "expected a match")
	require.Equal(t, long.origR.Len(), best.origR.Len(), "expected the longer front to win")
}
