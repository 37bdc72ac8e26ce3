package seqset

import "github.com/grailbio/biograph/dna"

// Context is a read-only view of one seqset entry, exposing the operations
// spec.md §4.1 asks of ctx_entry(id).
type Context struct {
	set *Seqset
	id  int
}

// CtxEntry returns the Context for the given seqset_id.
func (s *Seqset) CtxEntry(id int) Context { return Context{set: s, id: id} }

// ID returns the seqset_id this context represents.
func (c Context) ID() int { return c.id }

// Sequence returns the full stored sequence for this context.
func (c Context) Sequence() dna.Seq { return c.set.entries[c.id] }

// SequenceLen returns the first n bases of the stored sequence; it panics
// if n exceeds the entry's length.
func (c Context) SequenceLen(n int) dna.Seq {
	return c.set.entries[c.id][:n]
}

// Truncate returns the Range matching just the first n bases of this
// context.
func (c Context) Truncate(n int) Range {
	return c.set.Find(c.SequenceLen(n))
}

// RevComp returns the Range for the reverse complement of this context's
// full sequence (commonly invalid if the reverse complement wasn't part of
// the original read set used to Build the seqset — callers that rely on
// the RC-closure correctness property should verify Valid()).
func (c Context) RevComp() Range {
	return c.set.Find(dna.RevComp(c.Sequence()))
}

// SharedPrefixLength returns how many bases this context and other agree
// on from the start.
func (c Context) SharedPrefixLength(other Context) int {
	return dna.SharedPrefixLength(c.Sequence(), other.Sequence())
}
