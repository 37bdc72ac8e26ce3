package pipeline

import (
	"sync"

	"github.com/grailbio/biograph/assembly"
)

// ParallelInput is the "make_parallel_input" fan-in point from spec.md
// §4.4: the top of the pipeline may be fed from many worker goroutines, a
// single mutex funnels them into the first serial stage.
type ParallelInput struct {
	mu   sync.Mutex
	next Stage
}

// NewParallelInput returns a Stage safe to call concurrently from many
// goroutines, serializing calls into next.
func NewParallelInput(next Stage) *ParallelInput {
	return &ParallelInput{next: next}
}

func (p *ParallelInput) Add(a *assembly.Assembly) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next.Add(a)
}

func (p *ParallelInput) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next.Flush()
}
