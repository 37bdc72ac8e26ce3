// Package assembly defines the central pipeline record (spec.md §3.6) that
// flows through every stage of the discovery and emission pipeline, plus
// the invariant checker every stage relies on.
package assembly

import (
	"fmt"

	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/readmap"
)

// OptionalOffset carries "anchor present / not present" for a reference
// offset (spec.md §3.6). Arithmetic on an absent offset is a programmer
// error and panics, matching the spec's "arithmetic on an absent offset is
// a programmer error" note.
type OptionalOffset struct {
	set   bool
	value int64
}

// NoOffset is the absent OptionalOffset.
var NoOffset = OptionalOffset{}

// Offset wraps a concrete flat-reference position.
func Offset(v int64) OptionalOffset { return OptionalOffset{set: true, value: v} }

// Valid reports whether an offset is present.
func (o OptionalOffset) Valid() bool { return o.set }

// Get returns the concrete offset. It panics if !Valid().
func (o OptionalOffset) Get() int64 {
	if !o.set {
		panic("assembly: arithmetic on an absent OptionalOffset")
	}
	return o.value
}

func (o OptionalOffset) String() string {
	if !o.set {
		return "<none>"
	}
	return fmt.Sprintf("%d", o.value)
}

// AlignedVar is a pure substitution/indel extracted from an assembly
// relative to the reference, between the assembly's two anchors.
type AlignedVar struct {
	// Left and Right are flat-reference offsets this variant spans
	// (Right==Left for a pure insertion).
	Left, Right int64
	// Seq is the alternate sequence replacing reference[Left:Right].
	Seq dna.Seq
}

// EdgeCoverage counts reads supporting each of the five edge kinds an
// assembly boundary can have (spec.md §3.6).
type EdgeCoverage struct {
	VariantStart, VariantEnd int
	Interior                 int
	RefStart, RefEnd         int
}

// orderedStringSet is an append-only, duplicate-free, insertion-ordered
// set of strings, used for Tags and PhaseIDs.
type orderedStringSet struct {
	order []string
	seen  map[string]bool
}

// Add appends s if it isn't already present.
func (o *orderedStringSet) Add(s string) {
	if o.seen == nil {
		o.seen = map[string]bool{}
	}
	if o.seen[s] {
		return
	}
	o.seen[s] = true
	o.order = append(o.order, s)
}

// Has reports whether s is in the set.
func (o *orderedStringSet) Has(s string) bool { return o.seen[s] }

// Values returns the set in insertion order. The caller must not mutate
// the returned slice.
func (o *orderedStringSet) Values() []string { return o.order }

// Producer tags recorded on an Assembly (spec.md §3.6).
const (
	TagPop        = "POP"
	TagAddRef     = "ADD_REF"
	TagJoinPhases = "JOIN_PHASES"
)

// Assembly is the central pipeline record: a candidate alternate path
// through the reference, from its left anchor to its right anchor,
// together with every piece of evidence and bookkeeping collected along
// the way.
type Assembly struct {
	ID                ID
	MergedAssemblyIDs []ID

	LeftOffset, RightOffset         OptionalOffset
	LeftAnchorLen, RightAnchorLen   int
	Seq                             dna.Seq
	MatchesReference                bool
	AlignedVariants                 []AlignedVar

	tags     orderedStringSet
	phaseIDs orderedStringSet

	RCReadIDs map[readmap.ReadID]struct{}

	Coverage     []int
	PairCoverage []int

	LeftPairMatches, RightPairMatches []readmap.ReadID

	ReadCoverage     map[int][]readmap.ReadID // offset -> supporting reads
	PairReadCoverage map[int][]readmap.ReadID

	EdgeCoverage *EdgeCoverage

	Score            float64
	StrandCount      int
	GenotypeQuality  float64
	OtherDepth       int
	OtherPairDepth   int
	RefDepth         int

	SeqsetEntries   *SeqsetPath
	RCSeqsetEntries *SeqsetPath

	SubAssemblies []*Assembly

	MLFeatures map[string]float64
}

// New returns an Assembly with a fresh ID and empty collections.
func New() *Assembly {
	return &Assembly{
		ID:        NewID(),
		RCReadIDs: map[readmap.ReadID]struct{}{},
	}
}

// AddTag appends a producer tag if not already present.
func (a *Assembly) AddTag(tag string) { a.tags.Add(tag) }

// HasTag reports whether tag has been recorded.
func (a *Assembly) HasTag(tag string) bool { return a.tags.Has(tag) }

// Tags returns the ordered set of producer tags.
func (a *Assembly) Tags() []string { return a.tags.Values() }

// AddPhaseID appends a phase id if not already present.
func (a *Assembly) AddPhaseID(id string) { a.phaseIDs.Add(id) }

// HasPhaseID reports whether id is one of this assembly's phase ids.
func (a *Assembly) HasPhaseID(id string) bool { return a.phaseIDs.Has(id) }

// PhaseIDs returns the ordered set of phase ids.
func (a *Assembly) PhaseIDs() []string { return a.phaseIDs.Values() }

// ResetPhaseIDs replaces a's entire phase id set with ids. Used by
// join_phases when splitting a joined assembly between two diverging
// phase groups.
func (a *Assembly) ResetPhaseIDs(ids []string) {
	a.phaseIDs = orderedStringSet{}
	for _, id := range ids {
		a.phaseIDs.Add(id)
	}
}

// SharesPhaseID reports whether a and b have at least one phase id in
// common.
func (a *Assembly) SharesPhaseID(b *Assembly) bool {
	for _, id := range a.PhaseIDs() {
		if b.HasPhaseID(id) {
			return true
		}
	}
	return false
}

// RefSpan returns RightOffset-LeftOffset. Both anchors must be present.
func (a *Assembly) RefSpan() int64 {
	return a.RightOffset.Get() - a.LeftOffset.Get()
}

// MinMaxOffset returns (min,max) of the two anchor offsets, for use by
// canon_assembly_order and the ploid/phase window trackers. At least one
// offset must be present.
func (a *Assembly) MinMaxOffset() (lo, hi int64) {
	switch {
	case a.LeftOffset.Valid() && a.RightOffset.Valid():
		l, r := a.LeftOffset.Get(), a.RightOffset.Get()
		if l <= r {
			return l, r
		}
		return r, l
	case a.LeftOffset.Valid():
		return a.LeftOffset.Get(), a.LeftOffset.Get()
	case a.RightOffset.Valid():
		return a.RightOffset.Get(), a.RightOffset.Get()
	default:
		panic("assembly: MinMaxOffset called with no anchor present")
	}
}

// Clone makes a shallow-but-independent copy of a, deep-copying the slices
// and sets that downstream stages mutate in place (tags, phase ids,
// coverage, read-id sets) so that merges (dedup, phase join) never alias
// the original's backing arrays.
func (a *Assembly) Clone() *Assembly {
	c := *a
	c.MergedAssemblyIDs = append([]ID(nil), a.MergedAssemblyIDs...)
	c.Seq = append(dna.Seq(nil), a.Seq...)
	c.AlignedVariants = append([]AlignedVar(nil), a.AlignedVariants...)
	c.tags = orderedStringSet{}
	for _, t := range a.tags.order {
		c.tags.Add(t)
	}
	c.phaseIDs = orderedStringSet{}
	for _, p := range a.phaseIDs.order {
		c.phaseIDs.Add(p)
	}
	c.RCReadIDs = make(map[readmap.ReadID]struct{}, len(a.RCReadIDs))
	for k := range a.RCReadIDs {
		c.RCReadIDs[k] = struct{}{}
	}
	c.Coverage = append([]int(nil), a.Coverage...)
	c.PairCoverage = append([]int(nil), a.PairCoverage...)
	c.LeftPairMatches = append([]readmap.ReadID(nil), a.LeftPairMatches...)
	c.RightPairMatches = append([]readmap.ReadID(nil), a.RightPairMatches...)
	return &c
}
