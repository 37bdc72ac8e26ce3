// Package phase implements join_phases, split_phases and
// resolve_phase_conflicts (spec.md §4.11): concatenating assemblies that
// share a phase id into a single joined assembly, the inverse operation,
// and a callback-driven conflict resolver for phase ids that turn out to
// overlap.
package phase

import (
	"fmt"
	"math"
	"sort"

	"github.com/grailbio/biograph/assembly"
	"github.com/grailbio/biograph/pipeline"
)

// active tracks one in-progress joined assembly: the growing joined
// assembly itself (whose RightOffset always reflects only the content
// actually folded in), any reference assemblies seen after the last
// variant but not yet folded in or emitted standalone, and the
// provisional right edge including that pending reference.
type active struct {
	joined         *assembly.Assembly
	referenceAfter []*assembly.Assembly
	rightOffset    int64
}

// Join implements join_phases.
//
// Input must arrive in non-decreasing left-offset order. A reference
// assembly that precedes a phased variant may be needed by more than one
// diverging phase group at once; Join tracks how many groups are still
// holding onto it (refClaims) and only emits it standalone once every
// group holding it has either folded it in or expired without using it.
type Join struct {
	next           pipeline.Stage
	sorted         *pipeline.SortedOutput
	maxPhaseLen    int64
	maxPhaseAsmLen int64

	curOffset int64
	active    map[string]*active
	curRef    []*assembly.Assembly
	abortAt   map[int64][]string
	refClaims map[*assembly.Assembly]int
}

// NewJoin returns a Join forwarding completed joined assemblies to next.
// maxPhaseLen bounds how far behind the current offset a phase's last
// variant may fall before it's force-flushed; maxPhaseAsmLen forces an
// abort for any single assembly whose reference span or sequence is
// larger than that (joining huge assemblies isn't useful and risks
// unbounded joined sequences).
func NewJoin(next pipeline.Stage, maxPhaseLen, maxPhaseAsmLen int) *Join {
	j := &Join{
		maxPhaseLen:    int64(maxPhaseLen),
		maxPhaseAsmLen: int64(maxPhaseAsmLen),
		active:         map[string]*active{},
		abortAt:        map[int64][]string{},
		refClaims:      map[*assembly.Assembly]int{},
	}
	j.sorted = pipeline.NewSortedOutput(next, func(a *assembly.Assembly) int64 { return a.LeftOffset.Get() })
	return j
}

// Add implements pipeline.Stage.
func (j *Join) Add(a *assembly.Assembly) error {
	if err := j.advanceTo(a.LeftOffset.Get()); err != nil {
		return err
	}

	if len(a.PhaseIDs()) == 0 && !a.MatchesReference {
		return j.sorted.Add(a, j.curOffset)
	}
	if a.MatchesReference {
		j.curRef = append(j.curRef, a)
		return nil
	}
	return j.addVarAsm(a)
}

// Flush implements pipeline.Stage.
func (j *Join) Flush() error {
	if err := j.advanceTo(math.MaxInt64); err != nil {
		return err
	}
	return j.sorted.Flush()
}

func (j *Join) advanceTo(target int64) error {
	for j.curOffset < target {
		next, err := j.advanceTowards(target)
		if err != nil {
			return err
		}
		j.curOffset = next
		if err := j.sorted.FlushTo(j.curOffset); err != nil {
			return err
		}
	}
	return nil
}

// advanceTowards processes any buffered reference assemblies, then moves
// curOffset forward as far as it safely can toward target without
// skipping past an active phase's current right edge or a scheduled
// re-abort point, expiring any phase that has fallen behind or grown
// past maxPhaseLen.
func (j *Join) advanceTowards(target int64) (int64, error) {
	refs := j.curRef
	j.curRef = nil
	for _, ref := range refs {
		if err := j.addRefAsm(ref); err != nil {
			return 0, err
		}
	}

	for _, act := range j.distinctActives() {
		if act.rightOffset > j.curOffset && act.rightOffset < target {
			target = act.rightOffset
		}
	}
	for off := range j.abortAt {
		if off >= j.curOffset && off < target {
			target = off
		}
	}
	if target <= j.curOffset {
		target = j.curOffset + 1
	}

	var expiring []*active
	for _, act := range j.distinctActives() {
		if act.rightOffset < target || act.joined.RightOffset.Get()+j.maxPhaseLen < target {
			expiring = append(expiring, act)
		}
	}
	sortActivesByLeftOffset(expiring)
	for _, act := range expiring {
		if err := j.outputActive(act); err != nil {
			return 0, err
		}
		for _, id := range act.joined.PhaseIDs() {
			delete(j.active, id)
		}
	}

	if ids, ok := j.abortAt[target]; ok {
		delete(j.abortAt, target)
		if err := j.abortPhases(ids); err != nil {
			return 0, err
		}
	}

	return target, nil
}

func (j *Join) addRefAsm(ref *assembly.Assembly) error {
	var toExpire []*active
	claims := 0
	for _, act := range j.distinctActives() {
		switch {
		case act.rightOffset > ref.LeftOffset.Get():
			continue
		case act.rightOffset < ref.LeftOffset.Get():
			toExpire = append(toExpire, act)
		default:
			act.referenceAfter = append(act.referenceAfter, ref)
			act.rightOffset = ref.RightOffset.Get()
			claims++
		}
	}
	sortActivesByLeftOffset(toExpire)
	for _, act := range toExpire {
		if err := j.outputActive(act); err != nil {
			return err
		}
		for _, id := range act.joined.PhaseIDs() {
			delete(j.active, id)
		}
	}
	if claims == 0 {
		return j.sorted.Add(ref, j.curOffset)
	}
	j.refClaims[ref] = claims
	return nil
}

func (j *Join) addVarAsm(a *assembly.Assembly) error {
	forceAbort := a.RefSpan() > j.maxPhaseAsmLen || int64(len(a.Seq)) > j.maxPhaseAsmLen

	var abortIDs, newIDs []string
	groups := map[*active][]string{}

	if forceAbort {
		abortIDs = append(abortIDs, a.PhaseIDs()...)
	} else {
		for _, id := range a.PhaseIDs() {
			act, ok := j.active[id]
			if !ok {
				newIDs = append(newIDs, id)
				continue
			}
			if act.rightOffset != a.LeftOffset.Get() {
				return fmt.Errorf("phase: conflict on phase id %q at offset %d (active ends at %d); run ResolveConflicts first", id, a.LeftOffset.Get(), act.rightOffset)
			}
			groups[act] = append(groups[act], id)
		}
	}

	if len(abortIDs) > 0 {
		if err := j.abortPhases(abortIDs); err != nil {
			return err
		}
		if a.RightOffset.Get() > j.curOffset {
			j.abortAt[a.RightOffset.Get()] = append(j.abortAt[a.RightOffset.Get()], abortIDs...)
		}
		newIDs = append(newIDs, abortIDs...)
	}

	for act, ids := range groups {
		if !sameSet(act.joined.PhaseIDs(), ids) {
			remainder := j.splitActive(act, ids)
			for _, id := range remainder.joined.PhaseIDs() {
				j.active[id] = remainder
			}
		}
		j.saveRefAsms(act)
		j.addToActive(act, a)
	}

	if len(newIDs) > 0 {
		na := j.newActive(a.LeftOffset.Get(), newIDs)
		j.addToActive(na, a)
	}

	if len(abortIDs) > 0 {
		return j.abortPhases(abortIDs)
	}
	return nil
}

// abortPhases forcibly ends every phase in ids, splitting off just those
// ids from any active that also carries other, still-continuing ids.
func (j *Join) abortPhases(ids []string) error {
	groups := map[*active][]string{}
	for _, id := range ids {
		act, ok := j.active[id]
		if !ok {
			continue
		}
		groups[act] = append(groups[act], id)
	}
	var actives []*active
	for act := range groups {
		actives = append(actives, act)
	}
	sortActivesByLeftOffset(actives)
	for _, act := range actives {
		idsSubset := groups[act]
		full := act.joined.PhaseIDs()
		target := act
		if !sameSet(full, idsSubset) {
			target = j.splitActive(act, setMinus(full, idsSubset))
		}
		for _, id := range idsSubset {
			delete(j.active, id)
		}
		if err := j.outputActive(target); err != nil {
			return err
		}
	}
	return nil
}

// splitActive separates keepIDs out of act: act is mutated in place to
// carry only keepIDs, and a fresh active carrying the remainder is
// returned (not yet registered in j.active — the caller decides where
// its ids should point).
func (j *Join) splitActive(act *active, keepIDs []string) *active {
	full := act.joined.PhaseIDs()
	remainder := setMinus(full, keepIDs)

	clone := act.joined.Clone()
	clone.ID = assembly.NewID()
	clone.SubAssemblies = append([]*assembly.Assembly(nil), act.joined.SubAssemblies...)
	clone.ResetPhaseIDs(remainder)
	act.joined.ResetPhaseIDs(keepIDs)

	rem := &active{
		joined:         clone,
		referenceAfter: append([]*assembly.Assembly(nil), act.referenceAfter...),
		rightOffset:    act.rightOffset,
	}
	for _, ref := range rem.referenceAfter {
		j.refClaims[ref]++
	}
	return rem
}

func (j *Join) saveRefAsms(act *active) {
	refs := act.referenceAfter
	act.referenceAfter = nil
	for _, ref := range refs {
		j.addToActive(act, ref)
		j.refClaims[ref]--
		if j.refClaims[ref] <= 0 {
			delete(j.refClaims, ref)
		}
	}
}

func (j *Join) addToActive(act *active, a *assembly.Assembly) {
	act.joined.Seq = append(act.joined.Seq, a.Seq...)
	act.joined.RightOffset = a.RightOffset
	act.joined.SubAssemblies = append(act.joined.SubAssemblies, a)
	act.rightOffset = a.RightOffset.Get()
}

func (j *Join) newActive(left int64, ids []string) *active {
	joined := assembly.New()
	joined.LeftOffset = assembly.Offset(left)
	joined.RightOffset = assembly.Offset(left)
	joined.AddTag(assembly.TagJoinPhases)
	joined.ResetPhaseIDs(ids)
	act := &active{joined: joined, rightOffset: left}
	for _, id := range ids {
		j.active[id] = act
	}
	return act
}

// outputActive emits act's joined assembly, then releases every
// reference assembly it was still holding onto.
func (j *Join) outputActive(act *active) error {
	if err := j.sorted.Add(act.joined, j.curOffset); err != nil {
		return err
	}
	refs := act.referenceAfter
	act.referenceAfter = nil
	for _, ref := range refs {
		j.refClaims[ref]--
		if j.refClaims[ref] <= 0 {
			delete(j.refClaims, ref)
			if err := j.sorted.Add(ref, j.curOffset); err != nil {
				return err
			}
		}
	}
	return nil
}

// sortActivesByLeftOffset orders a batch of actives about to be emitted in
// the same advance step by their joined assembly's left offset: several
// can expire in one step (map iteration order is unspecified), but
// pipeline.SortedOutput only reorders across separate Add calls, not
// within one, so callers emitting a batch must already hand it over in
// left-offset order.
func sortActivesByLeftOffset(actives []*active) {
	sort.Slice(actives, func(i, j int) bool {
		return actives[i].joined.LeftOffset.Get() < actives[j].joined.LeftOffset.Get()
	})
}

func (j *Join) distinctActives() []*active {
	seen := map[*active]bool{}
	var out []*active
	for _, act := range j.active {
		if !seen[act] {
			seen[act] = true
			out = append(out, act)
		}
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}

func setMinus(a, b []string) []string {
	excl := make(map[string]bool, len(b))
	for _, s := range b {
		excl[s] = true
	}
	var out []string
	for _, s := range a {
		if !excl[s] {
			out = append(out, s)
		}
	}
	return out
}
