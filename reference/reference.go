// Package reference holds the read-only Reference (scaffolds + extents +
// flat-address mapping) and the mutable Scaffold view the tracers walk.
//
// Reference import (FASTA parsing, BWT construction) is out of scope; this
// package only consumes an already-built Reference value and an already
// built bwtindex.Index (see the bwtindex subpackage).
package reference

import (
	"fmt"
	"sort"

	"github.com/grailbio/biograph/dna"
)

// Extent is a maximal N-free run within a scaffold, given in scaffold-local
// coordinates [Start, End).
type Extent struct {
	Start int
	End   int
	Seq   dna.Seq // bases for [Start,End), len(Seq) == End-Start
}

func (e Extent) Len() int { return e.End - e.Start }

// ScaffoldInfo is the static (read-only) description of one chromosome or
// contig: its name, its length, and its N-free extents.
type ScaffoldInfo struct {
	Name    string
	Length  int
	Extents []Extent // sorted, non-overlapping, each within [0,Length)
}

// Reference is the ordered collection of scaffolds that make up the sample's
// reference genome, plus the flat-address mapping used to give every
// (scaffold, pos) pair a single monotone coordinate.
type Reference struct {
	Scaffolds []ScaffoldInfo
	// flatOffset[i] is the flat_pos of (scaffold i, pos 0).
	flatOffset []int64
}

// New builds a Reference from already-parsed scaffold descriptions.
// Construction from FASTA is out of scope; callers (tests, and whatever
// external importer is used) build ScaffoldInfo values directly.
func New(scaffolds []ScaffoldInfo) *Reference {
	r := &Reference{Scaffolds: scaffolds}
	r.flatOffset = make([]int64, len(scaffolds)+1)
	var total int64
	for i, s := range scaffolds {
		r.flatOffset[i] = total
		total += int64(s.Length)
	}
	r.flatOffset[len(scaffolds)] = total
	return r
}

// ScaffoldIndex returns the index of the scaffold with the given name, or
// (-1,false) if none exists.
func (r *Reference) ScaffoldIndex(name string) (int, bool) {
	for i, s := range r.Scaffolds {
		if s.Name == name {
			return i, true
		}
	}
	return -1, false
}

// TotalLength returns the size of the flat address space.
func (r *Reference) TotalLength() int64 {
	return r.flatOffset[len(r.flatOffset)-1]
}

// Flatten maps a per-scaffold coordinate to the single monotone flat address
// space.
func (r *Reference) Flatten(scaffold int, pos int) int64 {
	return r.flatOffset[scaffold] + int64(pos)
}

// GetSeqPosition is the inverse of Flatten: given a flat address, returns
// the (scaffold, pos) pair it came from.
func (r *Reference) GetSeqPosition(flatPos int64) (scaffold, pos int, err error) {
	if flatPos < 0 || flatPos >= r.TotalLength() {
		return 0, 0, fmt.Errorf("reference: flat position %d out of range [0,%d)", flatPos, r.TotalLength())
	}
	// flatOffset is sorted ascending; find the last offset <= flatPos.
	i := sort.Search(len(r.flatOffset), func(i int) bool { return r.flatOffset[i] > flatPos }) - 1
	return i, int(flatPos - r.flatOffset[i]), nil
}

// At returns the base at the given scaffold-local position, or false if the
// position falls in a gap (N run) or is out of range.
func (s *ScaffoldInfo) At(pos int) (dna.Base, bool) {
	for _, e := range s.Extents {
		if pos < e.Start {
			break
		}
		if pos < e.End {
			return e.Seq[pos-e.Start], true
		}
	}
	return 0, false
}
