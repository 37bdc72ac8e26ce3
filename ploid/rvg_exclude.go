package ploid

import (
	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/pipeline"
)

// RvgExcludeOptions configures an RvgExclude stage.
type RvgExcludeOptions struct {
	// SVSizeThreshold is the reference-span or sequence-length (whichever
	// is larger) at or above which an assembly is always kept, on the
	// theory that pair coverage is a poor signal for structural variants.
	SVSizeThreshold int
}

// RvgExclude implements rvg_exclude (spec.md §4.10): it suppresses small
// non-structural variants that no read pair actually spans (zero pair
// coverage at every base), unless the same assembly has already been
// emitted once as part of a structural variant.
//
// Input must arrive in non-decreasing left-offset order. Output is
// emitted in the same order it's decided in, which may lag the input by
// however long an assembly sits in the backlog waiting to learn whether
// its ID reappears as part of an SV.
type RvgExclude struct {
	opts RvgExcludeOptions
	next pipeline.Stage

	knownInPhase map[assembly.ID]struct{}
	backlog      map[assembly.ID][]*assembly.Assembly
}

// NewRvgExclude returns an RvgExclude forwarding kept assemblies to next.
func NewRvgExclude(next pipeline.Stage, opts RvgExcludeOptions) *RvgExclude {
	return &RvgExclude{
		opts:         opts,
		next:         next,
		knownInPhase: map[assembly.ID]struct{}{},
		backlog:      map[assembly.ID][]*assembly.Assembly{},
	}
}

// Add implements pipeline.Stage.
func (r *RvgExclude) Add(a *assembly.Assembly) error {
	if a.MatchesReference {
		return r.next.Add(a)
	}

	reflen := int(a.RightOffset.Get() - a.LeftOffset.Get())
	seqlen := len(a.Seq)
	if reflen == 0 || seqlen == 0 {
		// Compare as if VCF padded, matching how a zero-length side would
		// actually be written out.
		reflen++
		seqlen++
	}

	if seqlen >= r.opts.SVSizeThreshold || reflen >= r.opts.SVSizeThreshold {
		r.knownInPhase[a.ID] = struct{}{}
		if backlogged, ok := r.backlog[a.ID]; ok {
			for _, old := range backlogged {
				if err := r.next.Add(old); err != nil {
					return err
				}
			}
			delete(r.backlog, a.ID)
		}
		return r.next.Add(a)
	}

	_, known := r.knownInPhase[a.ID]
	output := a.OtherPairDepth > 0 || known
	if !output {
		output = true
		for _, depth := range a.PairCoverage {
			if depth == 0 {
				output = false
				break
			}
		}
	}

	if output {
		return r.next.Add(a)
	}

	r.backlog[a.ID] = append(r.backlog[a.ID], a)
	return nil
}

// Flush implements pipeline.Stage: everything still in the backlog never
// got corroborated by pair coverage or a later SV on the same id, so it's
// dropped for good.
func (r *RvgExclude) Flush() error {
	r.backlog = map[assembly.ID][]*assembly.Assembly{}
	return r.next.Flush()
}
