package phase

import (
	"fmt"

	"github.com/grailbio/biograph/assembly"
)

// ConflictResolver decides what to do about two assemblies that share one
// or more phase ids despite overlapping in the reference: typically it
// drops the phase id from the lower-scoring assembly, or from both if
// neither should continue being tracked together.
type ConflictResolver func(a, b *assembly.Assembly, commonPhaseIDs []string) error

// Resolver implements resolve_phase_conflicts: a pass run ahead of Join
// that finds assemblies sharing a phase id while still overlapping each
// other in the reference (join_phases requires contiguity, so these would
// otherwise surface as an error from Join), and asks a ConflictResolver
// to settle each case.
//
// Input must arrive in non-decreasing left-offset order.
type Resolver struct {
	resolve ConflictResolver
	active  []*assembly.Assembly
}

// NewResolver returns a Resolver that calls resolve for every pair of
// still-active assemblies that share a phase id.
func NewResolver(resolve ConflictResolver) *Resolver {
	return &Resolver{resolve: resolve}
}

// Check examines a against every currently active assembly, resolving any
// shared phase ids, then adds a to the active set. Callers pass the
// assemblies through in order and use the (possibly mutated) assemblies
// afterwards; Check does not forward them anywhere itself.
func (r *Resolver) Check(a *assembly.Assembly) error {
	r.expire(a.LeftOffset.Get())

	for _, b := range r.active {
		for {
			common := commonPhaseIDs(a, b)
			if len(common) == 0 {
				break
			}
			if err := r.resolve(a, b, common); err != nil {
				return err
			}
			if len(commonPhaseIDs(a, b)) == len(common) {
				// The resolver didn't actually clear any of the ids it was
				// handed: it would loop forever, so treat this as a bug in
				// the caller-supplied resolver.
				return fmt.Errorf("phase: ConflictResolver left phase ids %v shared between assemblies %d and %d", common, a.ID, b.ID)
			}
		}
	}
	r.active = append(r.active, a)
	return nil
}

// expire drops assemblies from the active set that end at or before
// offset: they can no longer overlap anything arriving from here on.
func (r *Resolver) expire(offset int64) {
	kept := r.active[:0]
	for _, b := range r.active {
		if b.RightOffset.Get() > offset {
			kept = append(kept, b)
		}
	}
	r.active = kept
}

func commonPhaseIDs(a, b *assembly.Assembly) []string {
	var out []string
	for _, id := range a.PhaseIDs() {
		if b.HasPhaseID(id) {
			out = append(out, id)
		}
	}
	return out
}
