package phase

import (
	"math"
	"sort"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/pipeline"
)

// Split implements split_phases: the inverse of Join. A joined assembly's
// sub-assemblies are buffered by left offset (deduplicated, since the
// same reference sub-assembly can be shared by more than one joined
// assembly) and emitted once no further joined assembly can still refer
// to them.
type Split struct {
	next   pipeline.Stage
	sorted *pipeline.SortedOutput

	curOffset int64
	active    map[int64][]*assembly.Assembly
	seen      map[*assembly.Assembly]bool
}

// NewSplit returns a Split forwarding sub-assemblies to next.
func NewSplit(next pipeline.Stage) *Split {
	s := &Split{
		active: map[int64][]*assembly.Assembly{},
		seen:   map[*assembly.Assembly]bool{},
	}
	s.sorted = pipeline.NewSortedOutput(next, func(a *assembly.Assembly) int64 { return a.LeftOffset.Get() })
	return s
}

// Add implements pipeline.Stage.
func (s *Split) Add(a *assembly.Assembly) error {
	if err := s.advanceTo(a.LeftOffset.Get()); err != nil {
		return err
	}
	if len(a.SubAssemblies) == 0 {
		return s.sorted.Add(a, s.curOffset)
	}
	for _, sub := range a.SubAssemblies {
		if s.seen[sub] {
			continue
		}
		s.seen[sub] = true
		left := sub.LeftOffset.Get()
		s.active[left] = append(s.active[left], sub)
	}
	return nil
}

// advanceTo emits every buffered sub-assembly whose left offset is
// strictly behind offset: one with left offset == offset might still
// gain a duplicate claim from the assembly currently being added.
func (s *Split) advanceTo(offset int64) error {
	var expiring []int64
	for left := range s.active {
		if left < offset {
			expiring = append(expiring, left)
		}
	}
	sort.Slice(expiring, func(i, j int) bool { return expiring[i] < expiring[j] })
	for _, left := range expiring {
		for _, sub := range s.active[left] {
			delete(s.seen, sub)
			if err := s.sorted.Add(sub, offset); err != nil {
				return err
			}
		}
		delete(s.active, left)
	}
	s.curOffset = offset
	return s.sorted.FlushTo(offset)
}

// Flush implements pipeline.Stage.
func (s *Split) Flush() error {
	if err := s.advanceTo(math.MaxInt64); err != nil {
		return err
	}
	return s.sorted.Flush()
}
