package pipeline

import (
	"fmt"

	"github.com/grailbio/biograph/assembly"
)

// OrderAsserting wraps a Stage and checks, in debug/test mode, that every
// Add arrives in the order the wrapped stage declared (spec.md §4.4: "in
// debug/test mode the framework asserts order; in release it assumes").
// Production call sites should only wrap with this under a debug build
// flag; it is always safe to use in tests.
type OrderAsserting struct {
	next Stage
	less func(a, b *assembly.Assembly) bool

	have bool
	prev *assembly.Assembly
}

// NewOrderAsserting returns a Stage that asserts order o before forwarding
// to next.
func NewOrderAsserting(next Stage, o Order) *OrderAsserting {
	return &OrderAsserting{next: next, less: LessFor(o)}
}

func (s *OrderAsserting) Add(a *assembly.Assembly) error {
	if s.have && s.less(a, s.prev) {
		return fmt.Errorf("pipeline: order violation: assembly %d arrived out of order after assembly %d", a.ID, s.prev.ID)
	}
	s.have = true
	s.prev = a
	return s.next.Add(a)
}

func (s *OrderAsserting) Flush() error { return s.next.Flush() }
