package tracer

import (
	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/seqset"
)

// front is a seqset range that could continue a path, together with a
// reference-location hint and the offset window it is still plausible
// for (spec.md §4.5.2).
type front struct {
	origR        seqset.Range
	scaffoldIdx  int
	refPos       int
	windowLo, hi int
}

// popper is a search head: a range being progressively shortened by
// repeated pop_front, with the accumulated walked sequence and the window
// of plausible reference positions it inherited from its originating
// front.
type popper struct {
	origR    seqset.Range
	poppedR  seqset.Range
	seq      dna.Seq // accumulated bases popped off, in pop order
	windowLo int
	windowHi int
}

// PopTracer is specialized for one-end-anchored / large-insert cases: it
// alternates a pop pass (shrink each popper by one base) with a
// match-and-output pass (look for fronts whose context is a prefix of a
// popper's current range), merging the best match each round until every
// popper is either consumed or promoted to a reference-anchored assembly
// (spec.md §4.5.2).
type PopTracer struct {
	SS   *seqset.Seqset
	Ref  *reference.Reference
	Opts Options
}

// Trace runs the pop tracer to completion for one batch of fronts and
// poppers, emitting any assembly that becomes anchored on both sides.
func (t *PopTracer) Trace(fronts []front, poppers []popper, out Output) error {
	for len(poppers) > 0 {
		var next []popper
		for _, p := range poppers {
			if p.poppedR.Len() == 0 {
				continue // already at the empty context; nothing left to pop
			}
			popped := p.poppedR.PopFront()
			p.seq = append(p.seq, p.poppedR.Front())
			p.poppedR = popped
			if p.poppedR.Len() < t.Opts.MinPopOverlap {
				continue // dropped: popped range too short to keep following
			}
			next = append(next, p)
		}
		poppers = next
		if len(poppers) == 0 {
			break
		}

		var requeue []popper
		for _, p := range poppers {
			best, ok := bestFrontMatch(fronts, p)
			if !ok {
				requeue = append(requeue, p)
				continue
			}
			if a := t.mergeAndMaybeEmit(p, best); a != nil {
				if err := out.Add(a); err != nil {
					return err
				}
				continue // consumed: became a full assembly
			}
			requeue = append(requeue, p)
		}
		poppers = requeue
	}
	return nil
}

// bestFrontMatch finds the front whose origR is a prefix of p's current
// popped range, preferring (in order) longer ranges, closer window
// midpoints, then tighter windows. Reference anchoring and sequence length
// are not compared.
func bestFrontMatch(fronts []front, p popper) (front, bool) {
	var best front
	found := false
	bestSeq := p.poppedR.Seq()
	for _, f := range fronts {
		if !isPrefixOf(f.origR.Seq(), bestSeq) {
			continue
		}
		if !found {
			best, found = f, true
			continue
		}
		if better(f, best, p) {
			best = f
		}
	}
	return best, found
}

func isPrefixOf(prefix, full dna.Seq) bool {
	if len(prefix) > len(full) {
		return false
	}
	return dna.Equal(prefix, full[:len(prefix)])
}

func better(a, b front, p popper) bool {
	if d := a.origR.Len() - b.origR.Len(); d != 0 {
		return d > 0 // longer range wins
	}
	aMid, bMid := (a.windowLo+a.hi)/2, (b.windowLo+b.hi)/2
	pMid := (p.windowLo + p.windowHi) / 2
	if d := abs(aMid-pMid) - abs(bMid-pMid); d != 0 {
		return d < 0 // closer midpoint wins
	}
	aWin, bWin := a.hi-a.windowLo, b.hi-b.windowLo
	return aWin < bWin // tighter window wins
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// mergeAndMaybeEmit merges a popper with its matched front. If the merge
// makes the popper's walk span from one reference anchor to another, it
// returns the completed assembly; otherwise it returns nil (the caller
// requeues).
func (t *PopTracer) mergeAndMaybeEmit(p popper, f front) *assembly.Assembly {
	if f.hi-f.windowLo > t.Opts.ReadAheadDistance {
		return nil // window too wide to call a confident rejoin yet
	}
	a := assembly.New()
	a.LeftOffset = assembly.Offset(t.Ref.Flatten(f.scaffoldIdx, f.windowLo))
	a.RightOffset = assembly.Offset(t.Ref.Flatten(f.scaffoldIdx, f.hi))
	a.Seq = append(dna.Seq(nil), p.seq...)
	leftA := t.Opts.MinPopOverlap
	if leftA > len(a.Seq) {
		leftA = len(a.Seq)
	}
	rightA := t.Opts.MinPopOverlap
	if rightA > len(a.Seq)-leftA {
		rightA = len(a.Seq) - leftA
	}
	a.LeftAnchorLen = leftA
	a.RightAnchorLen = rightA
	a.AddTag(assembly.TagPop)
	if err := assembly.Check(a); err != nil {
		return nil
	}
	return a
}
