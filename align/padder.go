package align

import (
	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/reference"
)

// Pad implements the VCF padder (spec.md §4.7): any assembly with an
// empty sequence or empty reference span gets one reference base
// prepended on the left, or — at scaffold position 0, where there is no
// base to borrow from the left — one appended on the right. It only
// operates when that single base is available (not a gap); non-simple
// cases are left untouched.
func Pad(a *assembly.Assembly, scaffoldFlatOffset int64, sc reference.Scaffold) error {
	span := a.RightOffset.Get() - a.LeftOffset.Get()
	if len(a.Seq) != 0 && span != 0 {
		return nil
	}
	leftLocal := int(a.LeftOffset.Get() - scaffoldFlatOffset)
	if leftLocal > 0 {
		b, ok := baseAt(sc, leftLocal-1)
		if !ok {
			return nil
		}
		a.Seq = append(dna.Seq{b}, a.Seq...)
		a.LeftOffset = assembly.Offset(a.LeftOffset.Get() - 1)
		if len(a.AlignedVariants) > 0 {
			a.AlignedVariants[0].Left--
		}
	} else {
		b, ok := baseAt(sc, int(a.RightOffset.Get()-scaffoldFlatOffset))
		if !ok {
			return nil
		}
		a.Seq = append(a.Seq, b)
		a.RightOffset = assembly.Offset(a.RightOffset.Get() + 1)
		if n := len(a.AlignedVariants); n > 0 {
			a.AlignedVariants[n-1].Right++
		}
	}
	return assembly.Check(a)
}
