package tracer

import (
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/readmap"
	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/seqset"
)

// RunPushWithPopFallback drives push across every start position in
// regions, then — when push.Opts.EnablePopTracer — replays every
// push-tracer walk that fell out of the search without a unique rejoin
// through a PopTracer, seeded with fronts from the three sources spec.md
// §4.5.2 names: (a) each reference base position, (b) each mapped read's
// mate, and (c) the dead-ended push-tracer walks themselves, carried over
// as poppers.
func RunPushWithPopFallback(push *PushTracer, scaffoldIdx int, sc reference.Scaffold, regions [][2]int, out Output) error {
	var poppers []popper
	if push.Opts.EnablePopTracer {
		push.onDeadEnd = func(_, start, _ int, p *nextPath) {
			poppers = append(poppers, popper{
				origR:    p.rng,
				poppedR:  p.rng,
				seq:      append(dna.Seq(nil), p.seq...),
				windowLo: start,
				windowHi: start + push.Opts.ReadAheadDistance,
			})
		}
		defer func() { push.onDeadEnd = nil }()
	}

	for _, r := range regions {
		for start := r[0]; start < r[1]; start++ {
			if err := push.Trace(scaffoldIdx, sc, start, 0, out); err != nil {
				return err
			}
		}
	}

	if !push.Opts.EnablePopTracer || len(poppers) == 0 {
		return nil
	}

	var fronts []front
	fronts = append(fronts, referenceFronts(push.SS, sc, scaffoldIdx, regions, push.Opts.ReadAheadDistance)...)
	fronts = append(fronts, mateFronts(push.SS, push.RM, sc, scaffoldIdx, regions, push.Opts.MaxPairDistance)...)

	pop := &PopTracer{SS: push.SS, Ref: push.Ref, Opts: push.Opts}
	return pop.Trace(fronts, poppers, out)
}

// referenceFronts implements §4.5.2(a): a front anchored at each reference
// base position, whose origR is the seqset context beginning there, so a
// popper whose walked suffix matches that context can rejoin at pos.
func referenceFronts(ss *seqset.Seqset, sc reference.Scaffold, scaffoldIdx int, regions [][2]int, readAhead int) []front {
	ctxLen := ss.MaxReadLen()
	var out []front
	for _, r := range regions {
		for pos := r[0]; pos < r[1]; pos++ {
			seq := subSeq(sc, pos, ctxLen)
			if len(seq) == 0 {
				continue
			}
			rng := ss.Find(seq)
			if !rng.Valid() {
				continue
			}
			out = append(out, front{
				origR:       rng,
				scaffoldIdx: scaffoldIdx,
				refPos:      pos,
				windowLo:    pos,
				hi:          pos + readAhead,
			})
		}
	}
	return out
}

// mateFronts implements §4.5.2(b): a front for every mapped read's mate,
// windowed out to maxPairDistance — the span a popper merging with it
// could plausibly rejoin within — grounded on the same m_mates
// construction graphdiscover.go's registerMateHints uses.
func mateFronts(ss *seqset.Seqset, rm *readmap.Readmap, sc reference.Scaffold, scaffoldIdx int, regions [][2]int, maxPairDistance int) []front {
	ctxLen := ss.MaxReadLen()
	var out []front
	for _, r := range regions {
		for pos := r[0]; pos < r[1]; pos++ {
			seq := subSeq(sc, pos, ctxLen)
			if len(seq) == 0 {
				continue
			}
			rng := ss.Find(seq)
			if !rng.Valid() {
				continue
			}
			first, last, ok := rm.EntryToIndex(rng.Begin())
			if !ok {
				continue
			}
			for id := first; id <= last; id++ {
				mateID, hasMate := rm.GetMate(id)
				if !hasMate {
					continue
				}
				mateSeqsetID := rm.GetReadByID(mateID).SeqsetID
				mateRC := ss.CtxEntry(mateSeqsetID).RevComp()
				if !mateRC.Valid() {
					continue
				}
				out = append(out, front{
					origR:       mateRC,
					scaffoldIdx: scaffoldIdx,
					refPos:      pos,
					windowLo:    pos,
					hi:          pos + maxPairDistance,
				})
			}
		}
	}
	return out
}

// subSeq renders sc's [start,start+length) window as a flat sequence,
// stopping at the first gap (mirrors push.go's sub, but over an
// already-built Scaffold rather than re-deriving one from ScaffoldInfo).
func subSeq(sc reference.Scaffold, start, length int) dna.Seq {
	if start >= sc.EndPos() {
		return nil
	}
	if start+length > sc.EndPos() {
		length = sc.EndPos() - start
	}
	it := sc.Subscaffold(start, length).Iterator()
	out := make(dna.Seq, 0, length)
	for !it.Done() {
		b, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, b)
	}
	return out
}
