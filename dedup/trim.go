// Package dedup implements ref_trimmer, deduper and exact_deduper
// (spec.md §4.9): shrinking assemblies down to their minimal non-reference
// content and merging assemblies that turn out to represent the same
// variant.
package dedup

import (
	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/reference"
)

func baseAt(sc reference.Scaffold, pos int) (dna.Base, bool) {
	if pos < 0 || pos >= sc.EndPos() {
		return 0, false
	}
	it := sc.Subscaffold(pos, 1).Iterator()
	if it.Done() {
		return 0, false
	}
	return it.Next()
}

// Trim implements ref_trimmer: it strips leading and trailing bases of a
// that exactly match the reference, shrinking the anchor offsets and
// anchor lengths to match, and converts a to matches_reference if nothing
// non-reference is left over.
func Trim(a *assembly.Assembly, scaffoldFlatOffset int64, sc reference.Scaffold) error {
	if a.MatchesReference || len(a.Seq) == 0 || !a.LeftOffset.Valid() || !a.RightOffset.Valid() {
		return nil
	}

	for len(a.Seq) > 0 && a.RightOffset.Get() > a.LeftOffset.Get() {
		leftLocal := int(a.LeftOffset.Get() - scaffoldFlatOffset)
		b, ok := baseAt(sc, leftLocal)
		if !ok || b != a.Seq[0] {
			break
		}
		a.Seq = a.Seq[1:]
		a.LeftOffset = assembly.Offset(a.LeftOffset.Get() + 1)
		if a.LeftAnchorLen > 0 {
			a.LeftAnchorLen--
		}
	}
	for len(a.Seq) > 0 && a.RightOffset.Get() > a.LeftOffset.Get() {
		rightLocal := int(a.RightOffset.Get()-scaffoldFlatOffset) - 1
		b, ok := baseAt(sc, rightLocal)
		if !ok || b != a.Seq[len(a.Seq)-1] {
			break
		}
		a.Seq = a.Seq[:len(a.Seq)-1]
		a.RightOffset = assembly.Offset(a.RightOffset.Get() - 1)
		if a.RightAnchorLen > 0 {
			a.RightAnchorLen--
		}
	}

	if len(a.Seq) == 0 && a.RightOffset.Get() == a.LeftOffset.Get() {
		a.MatchesReference = true
		a.LeftAnchorLen, a.RightAnchorLen = 0, 0
		a.AlignedVariants = nil
	}

	return assembly.Check(a)
}
