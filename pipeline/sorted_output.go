package pipeline

import (
	"container/heap"

	"github.com/grailbio/biograph/assembly"
)

// SortedOutput is the buffering helper spec.md §4.4 requires of any stage
// that may reorder its output relative to its input (dedup merges, phase
// joins): it holds unfinished work in a min-heap keyed by a caller-chosen
// ordering key and only forwards to the downstream Stage once a "flush
// point" guarantees no future Add could produce a smaller key.
type SortedOutput struct {
	next Stage
	key  func(a *assembly.Assembly) int64
	h    assemblyHeap
}

// NewSortedOutput returns a SortedOutput that orders by key and forwards
// to next.
func NewSortedOutput(next Stage, key func(a *assembly.Assembly) int64) *SortedOutput {
	return &SortedOutput{next: next, key: key}
}

// Add buffers a, then forwards every buffered assembly whose key is <=
// watermark: the caller's guarantee that no future Add will produce a
// smaller key than watermark.
func (s *SortedOutput) Add(a *assembly.Assembly, watermark int64) error {
	heap.Push(&s.h, heapItem{a: a, key: s.key(a)})
	return s.FlushTo(watermark)
}

// FlushTo forwards every buffered assembly whose key is <= watermark,
// without adding a new one. Stages that advance the watermark independent
// of any particular Add (ploid_limiter's deploid passes, for instance)
// use this directly.
func (s *SortedOutput) FlushTo(watermark int64) error {
	for s.h.Len() > 0 && s.h[0].key <= watermark {
		item := heap.Pop(&s.h).(heapItem)
		if err := s.next.Add(item.a); err != nil {
			return err
		}
	}
	return nil
}

// Flush drains every remaining buffered assembly in key order, then
// flushes the downstream stage.
func (s *SortedOutput) Flush() error {
	for s.h.Len() > 0 {
		item := heap.Pop(&s.h).(heapItem)
		if err := s.next.Add(item.a); err != nil {
			return err
		}
	}
	return s.next.Flush()
}

type heapItem struct {
	a   *assembly.Assembly
	key int64
}

type assemblyHeap []heapItem

func (h assemblyHeap) Len() int            { return len(h) }
func (h assemblyHeap) Less(i, j int) bool  { return h[i].key < h[j].key }
func (h assemblyHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *assemblyHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *assemblyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
