// Package dna implements the 2-bit DNA primitives used by the rest of
// biograph: Base, Seq, Slice and the iterators that walk them.
//
// There is no IUPAC ambiguity code support here. 'N' is not a Base; it only
// ever appears as a boundary marker in a reference scaffold (see the
// reference package), never inside a seqset context.
package dna

import (
	"fmt"
	"strings"
)

// Base is one of A, C, G, T, encoded in 2 bits.
type Base uint8

const (
	A Base = 0
	C Base = 1
	G Base = 2
	T Base = 3
)

var baseToChar = [4]byte{'A', 'C', 'G', 'T'}

var charToBase = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	t['A'], t['a'] = int8(A), int8(A)
	t['C'], t['c'] = int8(C), int8(C)
	t['G'], t['g'] = int8(G), int8(G)
	t['T'], t['t'] = int8(T), int8(T)
	return t
}()

// Complement returns the Watson-Crick complement of b.
func (b Base) Complement() Base { return b ^ T }

// Char returns the canonical upper-case ASCII representation of b.
func (b Base) Char() byte { return baseToChar[b&3] }

func (b Base) String() string { return string(b.Char()) }

// ParseBase converts an ASCII character to a Base. ok is false for anything
// that isn't A/C/G/T in either case, including 'N'.
func ParseBase(ch byte) (b Base, ok bool) {
	v := charToBase[ch]
	if v < 0 {
		return 0, false
	}
	return Base(v), true
}

// Seq is an owned, ordered sequence of bases stored one-base-per-byte for
// simplicity (the spec's "2 bits" budget is a storage-format concern of the
// out-of-scope seqset builder; the in-core representation here favors
// straightforward indexing over packing).
type Seq []Base

// FromString parses a canonical "ACGT..." string into a Seq. It panics on
// any byte that is not a Base letter, mirroring the spec's invariant that a
// Seq never contains ambiguity codes.
func FromString(s string) Seq {
	seq := make(Seq, len(s))
	for i := 0; i < len(s); i++ {
		b, ok := ParseBase(s[i])
		if !ok {
			panic(fmt.Sprintf("dna.FromString: invalid base %q at offset %d in %q", s[i], i, s))
		}
		seq[i] = b
	}
	return seq
}

func (s Seq) String() string {
	var b strings.Builder
	b.Grow(len(s))
	for _, base := range s {
		b.WriteByte(base.Char())
	}
	return b.String()
}

// Slice is a borrowed view of a Seq; unlike a Go slice-of-Seq this type
// exists so call sites that only ever want a read-only window can be
// documented as such.
type Slice = Seq

// RevComp returns the reverse complement of seq as a new Seq.
func RevComp(seq Seq) Seq {
	out := make(Seq, len(seq))
	n := len(seq)
	for i, b := range seq {
		out[n-1-i] = b.Complement()
	}
	return out
}

// Equal reports whether two sequences contain the same bases.
func Equal(a, b Seq) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Compare orders two sequences lexicographically by base value, the order
// the seqset relies on for its binary search.
func Compare(a, b Seq) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// SharedPrefixLength returns the number of leading bases a and b have in
// common.
func SharedPrefixLength(a, b Seq) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// DnaIter is a forward iterator over a Seq that additionally knows how to
// compute a shared-prefix length against another iterator's remaining
// sequence, matching the contract used by seqset.Context and
// reference.Scaffold's byte-accurate iterator.
type DnaIter struct {
	seq Seq
	pos int
}

// NewIter returns an iterator positioned at the start of seq.
func NewIter(seq Seq) DnaIter { return DnaIter{seq: seq} }

// Done reports whether the iterator has been exhausted.
func (it DnaIter) Done() bool { return it.pos >= len(it.seq) }

// Base returns the base at the iterator's current position. It panics if
// Done().
func (it DnaIter) Base() Base { return it.seq[it.pos] }

// Advance moves the iterator forward by one base.
func (it DnaIter) Advance() DnaIter { return DnaIter{seq: it.seq, pos: it.pos + 1} }

// Remaining returns the unconsumed suffix of the iterator's sequence.
func (it DnaIter) Remaining() Seq { return it.seq[it.pos:] }

// SharedPrefixLength returns how many bases it and other agree on, starting
// from their respective current positions.
func (it DnaIter) SharedPrefixLength(other DnaIter) int {
	return SharedPrefixLength(it.Remaining(), other.Remaining())
}
