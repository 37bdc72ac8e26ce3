package dedup

import (
	"github.com/grailbio/biograph/assembly"
)

// variantKey identifies assemblies representing the same variant: same
// reference span, same alternate sequence. Anchor lengths and tags are
// allowed to differ — that's exactly what merging reconciles.
type variantKey struct {
	left, right int64
	seq         string
}

// Merge implements deduper: it groups assemblies sharing a variantKey,
// combining their evidence into the first assembly seen in each group.
// Assemblies missing an anchor (half-anchored candidates a tracer gave up
// on) can't be grouped by reference span and pass through unmerged.
// The returned slice preserves the order groups were first seen in.
func Merge(assemblies []*assembly.Assembly) []*assembly.Assembly {
	groups := make(map[variantKey]*assembly.Assembly, len(assemblies))
	var order []*assembly.Assembly
	for _, a := range assemblies {
		if !a.LeftOffset.Valid() || !a.RightOffset.Valid() {
			order = append(order, a)
			continue
		}
		k := variantKey{a.LeftOffset.Get(), a.RightOffset.Get(), a.Seq.String()}
		if existing, ok := groups[k]; ok {
			mergeInto(existing, a)
			continue
		}
		groups[k] = a
		order = append(order, a)
	}
	return order
}

// mergeInto folds src's evidence into dst in place: dst.ID is kept, src's
// ID and any ids it had already absorbed are recorded in
// MergedAssemblyIDs, tags and phase ids union, read-id sets union,
// pair-match lists concatenate, and the stronger of the two scores wins.
func mergeInto(dst, src *assembly.Assembly) {
	dst.MergedAssemblyIDs = append(dst.MergedAssemblyIDs, src.ID)
	dst.MergedAssemblyIDs = append(dst.MergedAssemblyIDs, src.MergedAssemblyIDs...)

	for _, tag := range src.Tags() {
		dst.AddTag(tag)
	}
	for _, id := range src.PhaseIDs() {
		dst.AddPhaseID(id)
	}
	for id := range src.RCReadIDs {
		dst.RCReadIDs[id] = struct{}{}
	}
	dst.LeftPairMatches = append(dst.LeftPairMatches, src.LeftPairMatches...)
	dst.RightPairMatches = append(dst.RightPairMatches, src.RightPairMatches...)

	if src.Score > dst.Score {
		dst.Score = src.Score
	}
	mergeCoverage(&dst.Coverage, src.Coverage)
	mergeCoverage(&dst.PairCoverage, src.PairCoverage)
}

// mergeCoverage takes the elementwise max of two equal-shaped coverage
// vectors; mismatched lengths (merging assemblies that haven't had
// coverage computed yet, or were computed against different windows) are
// left as dst's existing value, since there's no sound way to combine
// them positionally.
func mergeCoverage(dst *[]int, src []int) {
	if len(*dst) != len(src) {
		if len(*dst) == 0 {
			*dst = append([]int(nil), src...)
		}
		return
	}
	for i, v := range src {
		if v > (*dst)[i] {
			(*dst)[i] = v
		}
	}
}
