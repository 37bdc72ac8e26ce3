package pipeline

import (
	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
)

// Order names which of the two expected-input orders a Stage declares
// (spec.md §4.4).
type Order int

const (
	// LeftOffsetLessThan orders by the lesser of an assembly's two anchor
	// offsets, ascending.
	LeftOffsetLessThan Order = iota
	// CanonAssemblyOrder is the full multi-key order used to cluster
	// identical sequences ahead of dedup; see CanonAssemblyLess.
	CanonAssemblyOrder
)

func minOffset(a *assembly.Assembly) int64 {
	lo, _ := a.MinMaxOffset()
	return lo
}

func maxOffset(a *assembly.Assembly) int64 {
	_, hi := a.MinMaxOffset()
	return hi
}

func anchorCount(a *assembly.Assembly) int {
	n := 0
	if a.LeftOffset.Valid() {
		n++
	}
	if a.RightOffset.Valid() {
		n++
	}
	return n
}

// LeftOffsetLess implements LeftOffsetLessThan.
func LeftOffsetLess(a, b *assembly.Assembly) bool {
	return minOffset(a) < minOffset(b)
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	// false < true
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareStrings(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return compareInt(len(a), len(b))
}

// CanonAssemblyCompare implements the canon_assembly_order key from
// spec.md §4.4: min(left,right) asc; reference-only first;
// fully-anchored before half-anchored; max(left,right) desc; by seq
// ascending (to cluster identical sequences for dedup); then by tags,
// anchor lengths, score, pair-match counts, rc_read_ids size, and
// finally seq descending as a last tie-break.
func CanonAssemblyCompare(a, b *assembly.Assembly) int {
	if c := compareInt64(minOffset(a), minOffset(b)); c != 0 {
		return c
	}
	if c := compareBool(!a.MatchesReference, !b.MatchesReference); c != 0 {
		return c
	}
	if c := compareInt(anchorCount(b), anchorCount(a)); c != 0 {
		return c
	}
	if c := compareInt64(maxOffset(b), maxOffset(a)); c != 0 {
		return c
	}
	if c := dna.Compare(a.Seq, b.Seq); c != 0 {
		return c
	}
	if c := compareStrings(a.Tags(), b.Tags()); c != 0 {
		return c
	}
	aAnchors := a.LeftAnchorLen + a.RightAnchorLen
	bAnchors := b.LeftAnchorLen + b.RightAnchorLen
	if c := compareInt(aAnchors, bAnchors); c != 0 {
		return c
	}
	if c := compareFloat(a.Score, b.Score); c != 0 {
		return c
	}
	aPairs := len(a.LeftPairMatches) + len(a.RightPairMatches)
	bPairs := len(b.LeftPairMatches) + len(b.RightPairMatches)
	if c := compareInt(aPairs, bPairs); c != 0 {
		return c
	}
	if c := compareInt(len(a.RCReadIDs), len(b.RCReadIDs)); c != 0 {
		return c
	}
	return -dna.Compare(a.Seq, b.Seq)
}

// CanonAssemblyLess is the strict-less-than form of CanonAssemblyCompare.
func CanonAssemblyLess(a, b *assembly.Assembly) bool {
	return CanonAssemblyCompare(a, b) < 0
}

// LessFor returns the comparator a Stage declaring order o expects its
// input to already satisfy.
func LessFor(o Order) func(a, b *assembly.Assembly) bool {
	switch o {
	case CanonAssemblyOrder:
		return CanonAssemblyLess
	default:
		return LeftOffsetLess
	}
}
