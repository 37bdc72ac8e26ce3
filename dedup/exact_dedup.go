package dedup

import (
	"github.com/grailbio/biograph/assembly"
)

// exactKey identifies byte-identical assemblies: same span, same anchor
// lengths, same sequence, same matches_reference flag. Unlike Merge's
// variantKey, this never merges two assemblies whose anchors differ, even
// if their variant content is otherwise the same — that's the whole
// distinction between deduper and exact_deduper (spec.md §4.9).
type exactKey struct {
	left, right             int64
	leftAnchor, rightAnchor int
	seq                     string
	matchesReference        bool
}

// ExactMerge implements exact_deduper: it merges only assemblies that are
// completely identical, run as the final cleanup pass after normalization
// may have produced duplicate representations.
func ExactMerge(assemblies []*assembly.Assembly) []*assembly.Assembly {
	groups := make(map[exactKey]*assembly.Assembly, len(assemblies))
	var order []*assembly.Assembly
	for _, a := range assemblies {
		if !a.LeftOffset.Valid() || !a.RightOffset.Valid() {
			order = append(order, a)
			continue
		}
		k := exactKey{
			left: a.LeftOffset.Get(), right: a.RightOffset.Get(),
			leftAnchor: a.LeftAnchorLen, rightAnchor: a.RightAnchorLen,
			seq: a.Seq.String(), matchesReference: a.MatchesReference,
		}
		if existing, ok := groups[k]; ok {
			mergeInto(existing, a)
			continue
		}
		groups[k] = a
		order = append(order, a)
	}
	return order
}
