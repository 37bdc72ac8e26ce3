package reference

import (
	"github.com/grailbio/biograph/dna"
)

// scaffoldExtent is one (offset, slice) entry of a mutable Scaffold view.
// Offsets are in the Scaffold's own local coordinate space, which need not
// match the backing ScaffoldInfo's coordinates once subscaffold has been
// applied.
type scaffoldExtent struct {
	Offset int
	Seq    dna.Slice // borrows from the backing reference; never copied
}

func (e scaffoldExtent) End() int { return e.Offset + len(e.Seq) }

// Scaffold is the mutable view of a reference chromosome used while tracing:
// an ordered, non-overlapping list of (offset, slice) extents which, unlike
// ScaffoldInfo, owns nothing — every Seq here borrows from the Reference it
// was built from.
//
// Invariant: extents are sorted by Offset, non-overlapping, and every
// extent lies within [0, EndPos). Gaps between extents (and the lack of any
// extent at all) render as 'N' through the string-producing API.
type Scaffold struct {
	extents []scaffoldExtent
	endPos  int
}

// FromScaffoldInfo builds a Scaffold view spanning the whole of a reference
// scaffold.
func FromScaffoldInfo(s ScaffoldInfo) Scaffold {
	sc := Scaffold{endPos: s.Length}
	for _, e := range s.Extents {
		sc.extents = append(sc.extents, scaffoldExtent{Offset: e.Start, Seq: e.Seq})
	}
	return sc
}

// EndPos is the total length of this scaffold view, including gaps.
func (s Scaffold) EndPos() int { return s.endPos }

// extentIndexContaining returns the index of the extent that contains pos,
// or the index of the first extent starting after pos (== len(extents) if
// none), and whether pos actually fell inside that extent.
func (s Scaffold) extentIndexContaining(pos int) (idx int, inside bool) {
	lo, hi := 0, len(s.extents)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.extents[mid].End() <= pos {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(s.extents) && s.extents[lo].Offset <= pos && pos < s.extents[lo].End() {
		return lo, true
	}
	return lo, false
}

// Subscaffold returns the portion of s spanning [start, start+length),
// truncating/splitting extents at the boundaries as needed. It borrows the
// same backing sequence data as s.
func (s Scaffold) Subscaffold(start, length int) Scaffold {
	end := start + length
	out := Scaffold{endPos: length}
	idx, _ := s.extentIndexContaining(start)
	for ; idx < len(s.extents); idx++ {
		e := s.extents[idx]
		if e.Offset >= end {
			break
		}
		lo := e.Offset
		hi := e.End()
		if lo < start {
			lo = start
		}
		if hi > end {
			hi = end
		}
		if lo >= hi {
			continue
		}
		out.extents = append(out.extents, scaffoldExtent{
			Offset: lo - start,
			Seq:    e.Seq[lo-e.Offset : hi-e.Offset],
		})
	}
	return out
}

// SubscaffoldStr renders Subscaffold(start,length) directly to a string,
// filling gaps with 'N'.
func (s Scaffold) SubscaffoldStr(start, length int) string {
	return s.Subscaffold(start, length).String()
}

// String renders the whole scaffold view, filling every gap with 'N'.
func (s Scaffold) String() string {
	buf := make([]byte, s.endPos)
	for i := range buf {
		buf[i] = 'N'
	}
	for _, e := range s.extents {
		for i, b := range e.Seq {
			buf[e.Offset+i] = b.Char()
		}
	}
	return string(buf)
}

// SplitExtentAt splits whichever extent contains pos into two extents at
// pos, so that a subsequent Subscaffold boundary at pos never has to carve
// a partial extent out of a caller's perspective. It is a no-op if pos is
// not strictly inside an extent.
func (s *Scaffold) SplitExtentAt(pos int) {
	idx, inside := s.extentIndexContaining(pos)
	if !inside || pos == s.extents[idx].Offset {
		return
	}
	e := s.extents[idx]
	left := scaffoldExtent{Offset: e.Offset, Seq: e.Seq[:pos-e.Offset]}
	right := scaffoldExtent{Offset: pos, Seq: e.Seq[pos-e.Offset:]}
	newExtents := make([]scaffoldExtent, 0, len(s.extents)+1)
	newExtents = append(newExtents, s.extents[:idx]...)
	newExtents = append(newExtents, left, right)
	newExtents = append(newExtents, s.extents[idx+1:]...)
	s.extents = newExtents
}

// RevComp returns the reverse-complement of the whole scaffold view as a new
// Scaffold: extent order reverses, each extent's sequence is
// reverse-complemented, and offsets are mirrored around EndPos.
func (s Scaffold) RevComp() Scaffold {
	out := Scaffold{endPos: s.endPos}
	for i := len(s.extents) - 1; i >= 0; i-- {
		e := s.extents[i]
		newOffset := s.endPos - e.End()
		out.extents = append(out.extents, scaffoldExtent{
			Offset: newOffset,
			Seq:    dna.RevComp(e.Seq),
		})
	}
	return out
}

// Iterator is a byte-accurate cursor over a Scaffold view, returning 'N' for
// positions that fall in a gap.
type Iterator struct {
	s   Scaffold
	pos int
}

// Iterator returns a cursor positioned at the start of s.
func (s Scaffold) Iterator() *Iterator { return &Iterator{s: s} }

// Pos returns the iterator's current position.
func (it *Iterator) Pos() int { return it.pos }

// Done reports whether the iterator has reached EndPos.
func (it *Iterator) Done() bool { return it.pos >= it.s.endPos }

// Next returns the base (or 'N', ok==false) at the current position and
// advances by one.
func (it *Iterator) Next() (b dna.Base, ok bool) {
	idx, inside := it.s.extentIndexContaining(it.pos)
	if inside {
		b = it.s.extents[idx].Seq[it.pos-it.s.extents[idx].Offset]
		ok = true
	}
	it.pos++
	return b, ok
}

// SkipTo repositions the iterator at target without reading through the
// intervening bases.
func (it *Iterator) SkipTo(target int) { it.pos = target }
