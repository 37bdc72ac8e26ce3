package tracer

import (
	"sort"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/readmap"
	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/seqset"
)

const tagBidir = "BIDIR"

// mateHint is a refcounted entry in the m_mates table: the reverse
// complement seqset range of a mate read, kept alive until the trace
// frontier advances MaxPairDistance bases past where it was inserted
// (spec.md §4.5.3's push_to_pair_discover).
type mateHint struct {
	rng       seqset.Range
	expiresAt int
}

// bidirBranch is one candidate path the trace frontier is carrying
// forward: the seqset ranges still supporting it (propagate_from_end's
// per-offset-0 result after each step) and the bases actually walked to
// reach them. Branching over every base the seqset still supports, not
// just the reference's own base at each position, is what lets this
// tracer discover an alternate path instead of only ever re-confirming
// the reference.
type bidirBranch struct {
	ranges []seqset.Range
	alt    dna.Seq
}

// GraphDiscoverTracer is the bidirectional graph-discover tracer: it
// advances a single trace frontier across a scaffold, carrying a set of
// candidate walks, and discovers new assemblies whenever one of those
// walks shares a min-overlap prefix with a live mate hint (spec.md
// §4.5.3, the hardest of the three tracers). Scheduling is
// single-threaded and cooperative: the only progress is advancing the
// scaffold position.
type GraphDiscoverTracer struct {
	SS   *seqset.Seqset
	RM   *readmap.Readmap
	Ref  *reference.Reference
	Opts Options
}

// Trace walks scaffold-local positions [start,end), propagating the
// frontier's candidate branches across each reference base and emitting
// a discovered assembly whenever a mate-pair rejoin is found.
func (t *GraphDiscoverTracer) Trace(scaffoldIdx int, sc reference.Scaffold, start, end int, out Output) error {
	mates := map[int]mateHint{}
	branches := []bidirBranch{{ranges: []seqset.Range{t.SS.CtxBegin()}}}

	minOverlap := t.Opts.MinOverlap(t.SS.MaxReadLen())
	maxPairDistance := t.Opts.MaxPairDistance
	if maxPairDistance <= 0 {
		maxPairDistance = 1
	}
	maxBranches := t.Opts.MaxPloids
	if maxBranches <= 0 {
		maxBranches = 1
	}

	window := sc.Subscaffold(start, end-start)
	it := window.Iterator()
	for pos := start; pos < end; pos++ {
		if _, ok := it.Next(); !ok {
			// Restart at an N: the tracer has no basis to propagate across a
			// gap, so drop everything seen so far and resume clean.
			branches = []bidirBranch{{ranges: []seqset.Range{t.SS.CtxBegin()}}}
			mates = map[int]mateHint{}
			continue
		}

		branches = advanceBranches(branches, maxBranches)
		if len(branches) == 0 {
			branches = []bidirBranch{{ranges: []seqset.Range{t.SS.CtxBegin()}}}
			continue
		}

		var allRanges []seqset.Range
		for _, b := range branches {
			allRanges = append(allRanges, b.ranges...)
		}
		t.registerMateHints(allRanges, mates, pos, maxPairDistance)
		for k, h := range mates {
			if h.expiresAt < pos {
				delete(mates, k)
			}
		}

		for _, b := range branches {
			for _, r := range b.ranges {
				for _, h := range mates {
					shared := seqset.SharedPrefixLength(r, h.rng)
					if shared < minOverlap {
						continue
					}
					if a := t.discovered(scaffoldIdx, start, pos, shared, b.alt); a != nil {
						if err := out.Add(a); err != nil {
							return err
						}
					}
				}
			}
		}
	}
	return nil
}

// advanceBranches extends every branch by each of the four bases the
// seqset still supports, reusing assembly.PropagateFromEnd's
// push_front_drop + prefix-dedup per branch per candidate base. Branches
// beyond maxBranches are dropped, widest-supported first, mirroring
// MaxPloids' per-locus candidate cap.
func advanceBranches(branches []bidirBranch, maxBranches int) []bidirBranch {
	var next []bidirBranch
	for _, b := range branches {
		for _, cand := range []dna.Base{dna.A, dna.C, dna.G, dna.T} {
			ranges := assembly.PropagateFromEnd(b.ranges, dna.Seq{cand}, nil).RangesAt(0)
			if len(ranges) == 0 {
				continue
			}
			alt := make(dna.Seq, len(b.alt)+1)
			copy(alt, b.alt)
			alt[len(b.alt)] = cand
			next = append(next, bidirBranch{ranges: ranges, alt: alt})
		}
	}
	if len(next) > maxBranches {
		sort.Slice(next, func(i, j int) bool { return len(next[i].ranges) > len(next[j].ranges) })
		next = next[:maxBranches]
	}
	return next
}

// registerMateHints implements push_to_pair_discover: for every
// recognized read anchored in the current frontier that has a mate, the
// mate's reverse-complement range is inserted into the mates table,
// refreshing its expiry.
func (t *GraphDiscoverTracer) registerMateHints(rcEntries []seqset.Range, mates map[int]mateHint, pos, maxPairDistance int) {
	for _, r := range rcEntries {
		first, last, ok := t.RM.EntryToIndex(r.Begin())
		if !ok {
			continue
		}
		for id := first; id <= last; id++ {
			mateID, hasMate := t.RM.GetMate(id)
			if !hasMate {
				continue
			}
			mateSeqsetID := t.RM.GetReadByID(mateID).SeqsetID
			mateRC := t.SS.CtxEntry(mateSeqsetID).RevComp()
			if !mateRC.Valid() {
				continue
			}
			mates[mateSeqsetID] = mateHint{rng: mateRC, expiresAt: pos + maxPairDistance}
		}
	}
}

// discovered builds the Assembly for a mate-pair rejoin found at pos,
// spanning back to the frontier's starting offset: alt is the sequence
// actually walked by the branch that matched, not a copy of the
// reference, so a genuine substitution/indel survives into the emitted
// assembly instead of being discarded downstream as reference-only.
func (t *GraphDiscoverTracer) discovered(scaffoldIdx, start, pos, sharedLen int, alt dna.Seq) *assembly.Assembly {
	if pos <= start {
		return nil
	}
	a := assembly.New()
	a.LeftOffset = assembly.Offset(t.Ref.Flatten(scaffoldIdx, start))
	a.RightOffset = assembly.Offset(t.Ref.Flatten(scaffoldIdx, pos+1))
	a.Seq = append(dna.Seq(nil), alt...)
	leftA := sharedLen
	if leftA > len(a.Seq) {
		leftA = len(a.Seq)
	}
	a.LeftAnchorLen = leftA
	a.RightAnchorLen = 0
	a.AddTag(tagBidir)
	if err := assembly.Check(a); err != nil {
		return nil
	}
	return a
}
