package align

import (
	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/reference"
)

// Output receives the assemblies Split emits. Defined locally (rather
// than imported from pipeline or tracer) to avoid a dependency cycle;
// pipeline.Stage and tracer.Output both satisfy it structurally.
type Output interface {
	Add(a *assembly.Assembly) error
}

// Split implements align_splitter (spec.md §4.6): it breaks an aligned
// assembly into a sequence of short variant records plus the reference
// gaps between them, using AlignedVariants, and emits each individually.
// Assemblies with no variants (reference matches) are passed through
// unchanged.
func Split(a *assembly.Assembly, scaffoldFlatOffset int64, sc reference.Scaffold, out Output) error {
	if a.MatchesReference || len(a.AlignedVariants) == 0 {
		return out.Add(a)
	}

	cursor := a.LeftOffset.Get()
	emitGap := func(left, right int64) error {
		if right <= left {
			return nil
		}
		gap := assembly.New()
		gap.LeftOffset = assembly.Offset(left)
		gap.RightOffset = assembly.Offset(right)
		gap.MatchesReference = true
		gap.Seq = renderWindow(sc, int(left-scaffoldFlatOffset), int(right-left))
		gap.MergedAssemblyIDs = []assembly.ID{a.ID}
		return out.Add(gap)
	}

	for _, v := range a.AlignedVariants {
		if err := emitGap(cursor, v.Left); err != nil {
			return err
		}
		variant := assembly.New()
		variant.LeftOffset = assembly.Offset(v.Left)
		variant.RightOffset = assembly.Offset(v.Right)
		variant.Seq = append(dna.Seq(nil), v.Seq...)
		variant.MergedAssemblyIDs = []assembly.ID{a.ID}
		if err := out.Add(variant); err != nil {
			return err
		}
		cursor = v.Right
	}
	return emitGap(cursor, a.RightOffset.Get())
}
