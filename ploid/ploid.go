// Package ploid implements ploid_limiter and rvg_exclude (spec.md §4.10):
// capping the number of overlapping alleles reported at any one locus, and
// suppressing small variants that no read pair actually spans.
package ploid

import (
	"container/heap"
	"math"
	"sort"

	"github.com/biogo/store/interval"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/pipeline"
)

// DiscardFunc is report_genotype_discard_func: called for every assembly
// ploid_limiter drops because its locus already carries MaxPloids
// higher-scoring, mutually-incompatible alleles.
type DiscardFunc func(a *assembly.Assembly, reason string)

// Options configures a Limiter.
type Options struct {
	// MaxPloids bounds how many incompatible alleles may overlap a single
	// reference point. The genotyper downstream would ideally see every
	// allele, but this keeps pathological loci (pile-ups of low quality
	// variant calls) from blowing up later stages.
	MaxPloids int
	// DiscardFunc is called for every assembly dropped by the ploid cap.
	// May be nil.
	DiscardFunc DiscardFunc
}

// DefaultOptions returns the limiter's default ploid cap.
func DefaultOptions() Options {
	return Options{MaxPloids: 20}
}

// Limiter implements ploid_limiter: it windows assemblies by right
// offset and, whenever the window empties of non-reference assemblies,
// reconciles every queued assembly highest-score-first, merging
// compatible overlaps and discarding variants once a locus already
// carries MaxPloids incompatible alleles. Input must arrive in
// non-decreasing left-offset order, matching every other Stage in the
// pipeline.
type Limiter struct {
	opts   Options
	sorted *pipeline.SortedOutput

	curOffset int64
	active    rightOffsetHeap
	varActive int
	deploid   []*assembly.Assembly
}

// NewLimiter returns a Limiter that forwards accepted assemblies to next.
func NewLimiter(next pipeline.Stage, opts Options) *Limiter {
	l := &Limiter{opts: opts}
	l.sorted = pipeline.NewSortedOutput(next, func(a *assembly.Assembly) int64 { return a.LeftOffset.Get() })
	return l
}

// Add implements pipeline.Stage.
func (l *Limiter) Add(a *assembly.Assembly) error {
	l.curOffset = a.LeftOffset.Get()

	if err := l.outputActive(); err != nil {
		return err
	}
	if l.varActive == 0 && len(l.deploid) > 0 {
		if err := l.doDeploid(); err != nil {
			return err
		}
	}
	if l.varActive == 0 && len(l.deploid) == 0 {
		if err := l.sorted.FlushTo(l.curOffset); err != nil {
			return err
		}
	}

	if !a.MatchesReference {
		l.varActive++
	}
	heap.Push(&l.active, a)
	return nil
}

// Flush implements pipeline.Stage.
func (l *Limiter) Flush() error {
	l.curOffset = math.MaxInt64
	if err := l.outputActive(); err != nil {
		return err
	}
	if len(l.deploid) > 0 {
		if err := l.doDeploid(); err != nil {
			return err
		}
	}
	if err := l.sorted.FlushTo(l.curOffset); err != nil {
		return err
	}
	return l.sorted.Flush()
}

// outputActive pops every active assembly whose right offset has fallen
// behind curOffset. A reference assembly can be forwarded immediately
// only when no variant is active and nothing is already queued for
// reconciliation; otherwise it's queued alongside the variants it
// overlaps, since ploid_limit needs to see it to decide whether it
// absorbs or conflicts with them.
func (l *Limiter) outputActive() error {
	for l.active.Len() > 0 && l.active[0].RightOffset.Get() <= l.curOffset {
		a := heap.Pop(&l.active).(*assembly.Assembly)
		if !a.MatchesReference {
			l.varActive--
			l.deploid = append(l.deploid, a)
			continue
		}
		if l.varActive > 0 || len(l.deploid) > 0 {
			l.deploid = append(l.deploid, a)
			continue
		}
		if err := l.sorted.Add(a, l.curOffset); err != nil {
			return err
		}
	}
	return nil
}

// doDeploid reconciles every assembly queued for ploid limiting:
// remaining active assemblies (necessarily reference, since varActive is
// 0 here) join the queue, then the whole queue is processed highest-score
// first. Each candidate absorbs any overlapping assembly it's compatible
// with (see mergeAssemblies) and is discarded if it conflicts with
// MaxPloids or more incompatible higher-scoring alleles already
// accepted at its locus.
func (l *Limiter) doDeploid() error {
	for l.active.Len() > 0 {
		l.deploid = append(l.deploid, heap.Pop(&l.active).(*assembly.Assembly))
	}

	sort.SliceStable(l.deploid, func(i, j int) bool { return l.deploid[i].Score > l.deploid[j].Score })

	tree := &interval.IntTree{}
	accepted := map[uintptr]*assembly.Assembly{}
	var nextUID uintptr

	for _, cand := range l.deploid {
		a := cand
		overlapping := tree.Get(allele{a: a})

		var conflicts []interval.IntRange
		for _, o := range overlapping {
			al := o.(allele)
			existing, ok := accepted[al.uid]
			if !ok {
				continue // already merged away by an earlier candidate
			}
			if merged, ok := mergeAssemblies(a, existing); ok {
				delete(accepted, al.uid)
				a = merged
				continue
			}
			conflicts = append(conflicts, interval.IntRange{
				Start: int(existing.LeftOffset.Get()),
				End:   int(existing.RightOffset.Get()),
			})
		}

		if l.opts.MaxPloids > 0 && maxOverlap(conflicts) >= l.opts.MaxPloids {
			if l.opts.DiscardFunc != nil {
				l.opts.DiscardFunc(a, "ploid_limit")
			}
			continue
		}

		uid := nextUID
		nextUID++
		accepted[uid] = a
		if err := tree.Insert(allele{uid: uid, a: a}, true); err != nil {
			return err
		}
		tree.AdjustRanges()
	}

	l.deploid = l.deploid[:0]
	l.varActive = 0
	for _, a := range accepted {
		if !a.MatchesReference || a.RightOffset.Get() <= l.curOffset {
			if err := l.sorted.Add(a, l.curOffset); err != nil {
				return err
			}
			continue
		}
		heap.Push(&l.active, a)
	}
	return nil
}

// mergeAssemblies reports whether b can be folded into a's locus without
// splicing new sequence: two reference assemblies always combine into
// their union span; a variant wholly contained inside a reference
// assembly absorbs that reference and is returned unchanged. A reference
// assembly that lies inside a variant, or only partly overlaps it, is not
// merged. Two overlapping non-reference assemblies are never merged — that's the
// actual ploid-limiting decision, since they represent distinct alleles
// at the same locus.
func mergeAssemblies(a, b *assembly.Assembly) (*assembly.Assembly, bool) {
	aLeft, aRight := a.LeftOffset.Get(), a.RightOffset.Get()
	bLeft, bRight := b.LeftOffset.Get(), b.RightOffset.Get()

	switch {
	case !a.MatchesReference && !b.MatchesReference:
		return nil, false
	case a.MatchesReference && !b.MatchesReference:
		if aLeft <= bLeft && bRight <= aRight {
			return b, true
		}
		return nil, false
	case !a.MatchesReference && b.MatchesReference:
		if bLeft <= aLeft && aRight <= bRight {
			return a, true
		}
		return nil, false
	default:
		m := assembly.New()
		m.MatchesReference = true
		m.LeftOffset = assembly.Offset(min64(aLeft, bLeft))
		m.RightOffset = assembly.Offset(max64(aRight, bRight))
		m.MergedAssemblyIDs = append(m.MergedAssemblyIDs, a.ID, b.ID)
		m.MergedAssemblyIDs = append(m.MergedAssemblyIDs, a.MergedAssemblyIDs...)
		m.MergedAssemblyIDs = append(m.MergedAssemblyIDs, b.MergedAssemblyIDs...)
		return m, true
	}
}

// maxOverlap returns the largest number of ranges that cover any single
// point, via a standard sweep over start/end events. End events are
// ordered before start events at the same coordinate since these ranges
// are half-open.
func maxOverlap(ranges []interval.IntRange) int {
	if len(ranges) == 0 {
		return 0
	}
	type event struct {
		pos, delta int
	}
	events := make([]event, 0, len(ranges)*2)
	for _, r := range ranges {
		events = append(events, event{r.Start, 1}, event{r.End, -1})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].pos != events[j].pos {
			return events[i].pos < events[j].pos
		}
		return events[i].delta < events[j].delta
	})
	cur, max := 0, 0
	for _, e := range events {
		cur += e.delta
		if cur > max {
			max = cur
		}
	}
	return max
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// allele adapts an *assembly.Assembly to interval.IntTree's Interval
// interface, keyed on its reference span.
type allele struct {
	uid uintptr
	a   *assembly.Assembly
}

func (al allele) ID() uintptr { return al.uid }

func (al allele) Range() interval.IntRange {
	return interval.IntRange{Start: int(al.a.LeftOffset.Get()), End: int(al.a.RightOffset.Get())}
}

func (al allele) Overlap(b interval.IntRange) bool {
	lo, hi := int(al.a.LeftOffset.Get()), int(al.a.RightOffset.Get())
	return lo < b.End && b.Start < hi
}

// rightOffsetHeap is a min-heap of assemblies ordered by right offset,
// mirroring ploid_limiter's m_active multimap.
type rightOffsetHeap []*assembly.Assembly

func (h rightOffsetHeap) Len() int { return len(h) }
func (h rightOffsetHeap) Less(i, j int) bool {
	return h[i].RightOffset.Get() < h[j].RightOffset.Get()
}
func (h rightOffsetHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *rightOffsetHeap) Push(x interface{}) {
	*h = append(*h, x.(*assembly.Assembly))
}
func (h *rightOffsetHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
