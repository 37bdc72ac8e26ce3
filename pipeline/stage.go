// Package pipeline implements the streaming, staged assembly processor
// (spec.md §4.4): a push pipeline where every stage accepts ownership of
// each Assembly via Add and is told "no more input" via Flush.
package pipeline

import "github.com/grailbio/biograph/assembly"

// Stage is the contract every pipeline step obeys. Add accepts ownership
// of a; implementations that forward downstream do so before returning
// (or buffer it, per their declared reordering contract). Flush is an
// end-of-input signal: after Flush returns, no more Adds may occur, and
// failing to call Flush before discarding a Stage is a bug.
type Stage interface {
	Add(a *assembly.Assembly) error
	Flush() error
}

// Func adapts a plain function to the Stage interface for stages that
// never reorder and need no Flush-time work.
type Func struct {
	AddFunc   func(a *assembly.Assembly) error
	FlushFunc func() error
}

func (f Func) Add(a *assembly.Assembly) error { return f.AddFunc(a) }
func (f Func) Flush() error {
	if f.FlushFunc == nil {
		return nil
	}
	return f.FlushFunc()
}

// Collector is a terminal Stage that appends every assembly it receives,
// for use in tests and small command-line tools that want the whole
// output in memory.
type Collector struct {
	Assemblies []*assembly.Assembly
}

func (c *Collector) Add(a *assembly.Assembly) error {
	c.Assemblies = append(c.Assemblies, a)
	return nil
}

func (c *Collector) Flush() error { return nil }
