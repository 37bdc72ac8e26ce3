package align

import (
	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/reference"
)

// baseAt returns the reference base at scaffold-local position pos, or
// false if pos is out of range or falls in a gap.
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

// Normalize shifts a non-reference-matching assembly leftward as far as
// possible while its sequence still agrees with the reference on both
// bounding bases — the standard left-align-indels operation (spec.md
// §4.7). It never crosses a scaffold extent boundary (baseAt returning
// false stops the shift).
func Normalize(a *assembly.Assembly, scaffoldFlatOffset int64, sc reference.Scaffold) error {
	if a.MatchesReference || len(a.Seq) == 0 {
		return nil
	}
	for {
		leftLocal := int(a.LeftOffset.Get() - scaffoldFlatOffset)
		if leftLocal <= 0 {
			break
		}
		prevBase, ok := baseAt(sc, leftLocal-1)
		if !ok {
			break
		}
		if prevBase != a.Seq[len(a.Seq)-1] {
			break
		}
		lastRefBase, ok := baseAt(sc, int(a.RightOffset.Get()-scaffoldFlatOffset)-1)
		if !ok || lastRefBase != a.Seq[len(a.Seq)-1] {
			break
		}
		shifted := make(dna.Seq, len(a.Seq))
		shifted[0] = prevBase
		copy(shifted[1:], a.Seq[:len(a.Seq)-1])
		a.Seq = shifted
		a.LeftOffset = assembly.Offset(a.LeftOffset.Get() - 1)
		a.RightOffset = assembly.Offset(a.RightOffset.Get() - 1)
	}
	return assembly.Check(a)
}
