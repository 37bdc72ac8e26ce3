package tracer

import (
	"container/heap"

	"github.com/grailbio/base/log"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/readmap"
	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/reference/bwtindex"
	"github.com/grailbio/biograph/seqset"
)

// Output receives the assemblies a tracer discovers. pipeline.Stage
// satisfies this, but tracers don't import pipeline to avoid a cycle.
type Output interface {
	Add(a *assembly.Assembly) error
}

// nextPath is one candidate in the push tracer's priority queue: a partial
// walk away from a reference anchor, together with the seqset range that
// still supports it.
type nextPath struct {
	rng            seqset.Range
	seq            dna.Seq
	cost           float64
	steps          int
	ambiguousSteps int
}

type pathHeap []*nextPath

func (h pathHeap) Len() int            { return len(h) }
func (h pathHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h pathHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *pathHeap) Push(x interface{}) { *h = append(*h, x.(*nextPath)) }
func (h *pathHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// PushTracer walks outward from reference anchors by extending
// base-by-base, expanding a priority queue of candidate paths under a cost
// model, and emits a candidate assembly whenever a path's seqset range
// becomes a unique rejoin back onto the reference (spec.md §4.5.1).
type PushTracer struct {
	SS   *seqset.Seqset
	RM   *readmap.Readmap
	Ref  *reference.Reference
	BWT  *bwtindex.Index
	Opts Options
	Cost CostModel

	// onDeadEnd, when set, is called for every path that falls out of the
	// search without ever reaching a unique rejoin (step limit, lookahead
	// exhausted, or no read support for any extension). RunPushWithPopFallback
	// uses this to collect §4.5.2(c)'s "anchor-drop half-aligned assemblies
	// from a previous tracer pass" as PopTracer poppers.
	onDeadEnd func(scaffoldIdx, start, leftAnchorLen int, p *nextPath)
}

// Trace walks rightward from scaffold-local position start (the left
// anchor), emitting every rejoin candidate it finds as an Assembly with
// LeftAnchorLen bases of left anchor already accounted for by the caller.
func (t *PushTracer) Trace(scaffoldIdx int, sc reference.Scaffold, start, leftAnchorLen int, out Output) error {
	h := &pathHeap{}
	heap.Push(h, &nextPath{rng: t.SS.CtxBegin()})

	minOverlap := t.Opts.MinOverlap(t.SS.MaxReadLen())
	maxLookahead := t.Opts.ReadAheadDistance
	if maxLookahead <= 0 {
		maxLookahead = 1
	}

	for h.Len() > 0 {
		p := heap.Pop(h).(*nextPath)
		if p.steps >= t.Opts.MaxSearchSteps || p.ambiguousSteps >= t.Opts.MaxAmbiguousSearchSteps {
			if t.Opts.ReportLongTraces && p.steps >= t.Opts.MaxSearchSteps {
				log.Printf("push tracer: trace from scaffold %d position %d hit the %d-step search limit", scaffoldIdx, start, t.Opts.MaxSearchSteps)
			}
			t.deadEnd(scaffoldIdx, start, leftAnchorLen, p)
			continue
		}

		emitted := false
		if len(p.seq) >= minOverlap && p.rng.Unique() {
			if a := t.tryRejoin(scaffoldIdx, start, leftAnchorLen, p, maxLookahead); a != nil {
				if err := out.Add(a); err != nil {
					return err
				}
				emitted = true
			}
		}

		if len(p.seq) >= maxLookahead {
			if !emitted {
				t.deadEnd(scaffoldIdx, start, leftAnchorLen, p) // walked past the lookahead window without rejoining
			}
			continue
		}
		if !t.expand(h, p) && !emitted {
			t.deadEnd(scaffoldIdx, start, leftAnchorLen, p) // no read supports any extension
		}
	}
	return nil
}

// deadEnd reports a path that fell out of the search without a unique
// rejoin, for RunPushWithPopFallback's benefit; a no-op when no collector
// is attached.
func (t *PushTracer) deadEnd(scaffoldIdx, start, leftAnchorLen int, p *nextPath) {
	if t.onDeadEnd != nil {
		t.onDeadEnd(scaffoldIdx, start, leftAnchorLen, p)
	}
}

// expand pushes every base-extension of p that the seqset still supports
// back onto the heap, costed per CostModel, and reports whether it found
// any. Once the heap holds MaxNextPaths paths (when positive), the
// remaining extensions are not queued.
func (t *PushTracer) expand(h *pathHeap, p *nextPath) bool {
	type branch struct {
		base dna.Base
		rng  seqset.Range
	}
	var branches []branch
	for _, b := range []dna.Base{dna.A, dna.C, dna.G, dna.T} {
		next := p.rng.PushFront(b)
		if next.Valid() {
			branches = append(branches, branch{base: b, rng: next})
		}
	}
	if len(branches) == 0 {
		return false // dead end: no read supports any extension
	}
	for _, br := range branches {
		if t.Opts.MaxNextPaths > 0 && h.Len() >= t.Opts.MaxNextPaths {
			break
		}
		cost := p.cost + t.Cost.BaseCost
		ambiguous := p.ambiguousSteps
		if len(branches) > 1 {
			cost += t.Cost.AmbiguousBaseCost
			ambiguous++
		}
		if br.rng.Size() < p.rng.Size() {
			// Narrowing support as we extend away from the anchor costs
			// more the faster it narrows.
			cost += t.Cost.DecreaseOverlapCost * float64(p.rng.Size()-br.rng.Size()) / float64(p.rng.Size()+1)
		}
		if first, last, ok := t.RM.EntryToIndex(br.rng.Begin()); ok {
			for id := first; id <= last; id++ {
				if _, hasMate := t.RM.GetMate(id); hasMate {
					cost += t.Cost.PairMatchBonus
					break
				}
			}
		}
		seq := make(dna.Seq, len(p.seq)+1)
		copy(seq, p.seq)
		seq[len(p.seq)] = br.base
		heap.Push(h, &nextPath{rng: br.rng, seq: seq, cost: cost, steps: p.steps + 1, ambiguousSteps: ambiguous})
	}
	return true
}

// tryRejoin checks whether p's walked sequence matches the reference
// uniquely somewhere in (start, start+maxLookahead], and if so returns the
// candidate assembly rejoining there.
func (t *PushTracer) tryRejoin(scaffoldIdx, start, leftAnchorLen int, p *nextPath, maxLookahead int) *assembly.Assembly {
	window := sub(t.Ref.Scaffolds[scaffoldIdx], start+1, maxLookahead)
	rng := bwtindex.Build(window).Find(p.seq)
	if rng.Count() != 1 {
		return nil
	}
	rejoinOffset := start + 1 + int(rng.Positions()[0]) + len(p.seq)

	a := assembly.New()
	a.LeftOffset = assembly.Offset(t.Ref.Flatten(scaffoldIdx, start))
	a.RightOffset = assembly.Offset(t.Ref.Flatten(scaffoldIdx, rejoinOffset))
	leftA := leftAnchorLen
	if leftA > len(p.seq) {
		leftA = len(p.seq)
	}
	rightA := t.Opts.MinOverlap(t.SS.MaxReadLen())
	if rightA > len(p.seq)-leftA {
		rightA = len(p.seq) - leftA
	}
	a.LeftAnchorLen = leftA
	a.RightAnchorLen = rightA
	a.Seq = append(dna.Seq(nil), p.seq...)
	a.AddTag("PUSH")
	if err := assembly.Check(a); err != nil {
		return nil
	}
	return a
}

// sub renders a scaffold's [start,start+length) window as a flat sequence
// for a throwaway local index lookup, stopping at the first gap; since
// FromScaffoldInfo only stores
// N-free extents, a window entirely inside one extent never hits a gap.
func sub(s reference.ScaffoldInfo, start, length int) dna.Seq {
	sc := reference.FromScaffoldInfo(s)
	if start >= sc.EndPos() {
		return nil
	}
	if start+length > sc.EndPos() {
		length = sc.EndPos() - start
	}
	sub := sc.Subscaffold(start, length)
	it := sub.Iterator()
	out := make(dna.Seq, 0, length)
	for !it.Done() {
		b, ok := it.Next()
		if !ok {
			break // stop at the first gap; window is N-free up to here
		}
		out = append(out, b)
	}
	return out
}
