package align

import (
	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/reference"
)

// AnchorDrop attempts to rejoin a half-anchored assembly (one anchor
// present, the other missing — a path discovery gave up on) onto the
// reference by searching a bounded read-ahead window past the missing
// anchor's side for a unique long match of the assembly's free end
// (spec.md §4.5.1's "anchor drop" fallback, grounded on
// fusion/kmer_index.go's kmer lookup). It reports ok=false, leaving a
// untouched, when no unique rejoin is found within maxLookahead bases;
// the caller then reports a as half-aligned.
func AnchorDrop(a *assembly.Assembly, scaffoldFlatOffset int64, sc reference.Scaffold, maxLookahead int, opts Options) (ok bool, err error) {
	haveLeft := a.LeftOffset.Valid()
	haveRight := a.RightOffset.Valid()
	if haveLeft == haveRight {
		// Both or neither anchor present: nothing for anchor-drop to do.
		return false, nil
	}

	k := opts.KmerSize
	if k > len(a.Seq) {
		k = len(a.Seq)
	}
	if k < 4 {
		return false, nil
	}

	origLeft, origRight := a.LeftOffset, a.RightOffset
	origLeftLen, origRightLen := a.LeftAnchorLen, a.RightAnchorLen

	if haveLeft {
		start := int(a.LeftOffset.Get() - scaffoldFlatOffset)
		window := renderWindow(sc, start, maxLookahead)
		idx := buildKmerIndex(window, k)
		queryPos := len(a.Seq) - k
		positions := idx.positions(a.Seq[queryPos:])
		if len(positions) != 1 {
			return false, nil
		}
		refPos := int(positions[0])
		back := 0
		for back < refPos && back < queryPos && window[refPos-back-1] == a.Seq[queryPos-back-1] {
			back++
		}
		a.RightOffset = assembly.Offset(scaffoldFlatOffset + int64(start+refPos+k))
		a.RightAnchorLen = back + k
		if a.RightAnchorLen > len(a.Seq)-a.LeftAnchorLen {
			a.RightAnchorLen = len(a.Seq) - a.LeftAnchorLen
		}
	} else {
		end := int(a.RightOffset.Get() - scaffoldFlatOffset)
		start := end - maxLookahead
		if start < 0 {
			start = 0
		}
		window := renderWindow(sc, start, end-start)
		idx := buildKmerIndex(window, k)
		positions := idx.positions(a.Seq[:k])
		if len(positions) != 1 {
			return false, nil
		}
		refPos := int(positions[0])
		fwd := 0
		for refPos+fwd < len(window) && fwd < len(a.Seq) && window[refPos+fwd] == a.Seq[fwd] {
			fwd++
		}
		a.LeftOffset = assembly.Offset(scaffoldFlatOffset + int64(start+refPos))
		a.LeftAnchorLen = fwd
		if a.LeftAnchorLen > len(a.Seq)-a.RightAnchorLen {
			a.LeftAnchorLen = len(a.Seq) - a.RightAnchorLen
		}
	}

	if err := assembly.Check(a); err != nil {
		a.LeftOffset, a.RightOffset = origLeft, origRight
		a.LeftAnchorLen, a.RightAnchorLen = origLeftLen, origRightLen
		return false, nil
	}
	return true, nil
}
