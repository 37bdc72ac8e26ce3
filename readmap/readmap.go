// Package readmap implements the mapping from seqset entries to the
// concrete reads that anchor there, including pair (mate) relationships
// and orientation (spec.md §3.4, §4.2).
//
// Readmap *construction* — turning raw input reads into this table — is
// out of scope (spec.md §1): this package only consumes an already-built
// table, the way the core consumes an already-built seqset.
package readmap

import (
	"sort"

	"github.com/grailbio/biograph/seqset"
)

// ReadID is a dense identifier in [0, R).
type ReadID int32

// NoRead is the sentinel for "no mate".
const NoRead ReadID = -1

// Read is one distinct suffix-of-context occurrence.
type Read struct {
	SeqsetID      int
	Length        int
	IsForward     bool
	MateReadID    ReadID
	RevCompReadID ReadID
}

// Readmap is the read-only table of Read records plus the lazily-built
// read-length-limits cache.
type Readmap struct {
	reads []Read

	// bySeqsetOrder holds indices into reads, sorted by SeqsetID, so that
	// EntryToIndex can binary-search a contiguous band of reads anchored at
	// a given seqset_id. This mirrors entry_to_index's "reads whose prefix
	// equals this context" contract (spec.md §3.4).
	bySeqsetOrder []ReadID

	hasMateLoop bool

	minReadLen, maxReadLen int
	lenLimitsComputed      bool
}

// Build constructs a Readmap from already-decided Read records. reads[i]
// must have ReadID(i).
//
// Build checks the mate-loop invariant (mate(mate(a))==a and
// rev_comp(rev_comp(a))==a for every read) but does not fail when it
// doesn't hold: the result is reported by HasMateLoop, and rejecting such a
// table with a MissingCapability-style "upgrade" error (spec.md §4.2) is
// left to the loader that reads it from disk.
func Build(reads []Read) *Readmap {
	rm := &Readmap{reads: reads}
	rm.hasMateLoop = rm.checkMateLoop()

	order := make([]ReadID, len(reads))
	for i := range order {
		order[i] = ReadID(i)
	}
	sort.SliceStable(order, func(i, j int) bool { return reads[order[i]].SeqsetID < reads[order[j]].SeqsetID })
	rm.bySeqsetOrder = order

	for _, r := range reads {
		if r.Length > rm.maxReadLen {
			rm.maxReadLen = r.Length
		}
	}
	return rm
}

func (rm *Readmap) checkMateLoop() bool {
	for id, r := range rm.reads {
		if r.MateReadID != NoRead {
			if int(r.MateReadID) >= len(rm.reads) || rm.reads[r.MateReadID].MateReadID != ReadID(id) {
				return false
			}
		}
		if r.RevCompReadID != NoRead {
			if int(r.RevCompReadID) >= len(rm.reads) || rm.reads[r.RevCompReadID].RevCompReadID != ReadID(id) {
				return false
			}
		}
	}
	return true
}

// HasMateLoop reports whether the mate/rev-comp loop table validated.
// Callers that require pair support MUST check this — a readmap lacking it
// is supposed to be rejected with a "missing mate loop table; upgrade"
// MissingCapability error at open time (spec.md §4.2, §7); Open in the
// spiralfile-backed loader does exactly that.
func (rm *Readmap) HasMateLoop() bool { return rm.hasMateLoop }

// NumReads returns R, the number of distinct reads.
func (rm *Readmap) NumReads() int { return len(rm.reads) }

// MaxReadLen returns the length of the longest read in the map.
func (rm *Readmap) MaxReadLen() int { return rm.maxReadLen }

// GetReadByID returns the Read record for id.
func (rm *Readmap) GetReadByID(id ReadID) Read { return rm.reads[id] }

// GetMate returns the mate of id, or (NoRead, false) if it has none.
func (rm *Readmap) GetMate(id ReadID) (ReadID, bool) {
	m := rm.reads[id].MateReadID
	return m, m != NoRead
}

// GetRevComp returns the reverse-complement read of id.
func (rm *Readmap) GetRevComp(id ReadID) ReadID {
	return rm.reads[id].RevCompReadID
}

// EntryToIndex returns the inclusive [firstReadID, lastReadID] band of
// reads anchored at the given seqset entry, and false if none are.
func (rm *Readmap) EntryToIndex(seqsetID int) (first, last ReadID, ok bool) {
	order := rm.bySeqsetOrder
	lo := sort.Search(len(order), func(i int) bool { return rm.reads[order[i]].SeqsetID >= seqsetID })
	hi := sort.Search(len(order), func(i int) bool { return rm.reads[order[i]].SeqsetID > seqsetID })
	if lo >= hi {
		return 0, 0, false
	}
	return order[lo], order[hi-1], true
}

// calcReadLenLimitsIfNeeded lazily computes min/max read length, matching
// the spec's "additional lazy tables may be built on first use" note
// (spec.md §4.2).
func (rm *Readmap) calcReadLenLimitsIfNeeded() {
	if rm.lenLimitsComputed {
		return
	}
	if len(rm.reads) == 0 {
		rm.lenLimitsComputed = true
		return
	}
	rm.minReadLen = rm.reads[0].Length
	for _, r := range rm.reads {
		if r.Length < rm.minReadLen {
			rm.minReadLen = r.Length
		}
		if r.Length > rm.maxReadLen {
			rm.maxReadLen = r.Length
		}
	}
	rm.lenLimitsComputed = true
}

// ReadLenLimits returns (min,max) read length across the whole map.
func (rm *Readmap) ReadLenLimits() (min, max int) {
	rm.calcReadLenLimitsIfNeeded()
	return rm.minReadLen, rm.maxReadLen
}

// PrefixReadIter is a single-pass, non-restartable iterator over reads
// whose seqset anchor falls inside a seqset.Range and whose length is at
// least minOverlap (spec.md §4.2's get_prefix_reads). Per spec.md §9.5,
// this models a coroutine: once consumed it cannot be replayed, only
// recreated from GetPrefixReads.
type PrefixReadIter struct {
	rm         *Readmap
	order      []ReadID
	lo, hi     int
	pos        int
	minOverlap int
}

// GetPrefixReads returns an iterator over every read whose anchor seqset_id
// falls in rng and whose length is >= minOverlap. Order is unspecified but
// deterministic for a given Readmap (ascending SeqsetID, then ReadID),
// matching spec.md's "order is unspecified but deterministic" contract.
func (rm *Readmap) GetPrefixReads(rng seqset.Range, minOverlap int) *PrefixReadIter {
	order := rm.bySeqsetOrder
	lo := sort.Search(len(order), func(i int) bool { return rm.reads[order[i]].SeqsetID >= rng.Begin() })
	hi := sort.Search(len(order), func(i int) bool { return rm.reads[order[i]].SeqsetID >= rng.End() })
	return &PrefixReadIter{rm: rm, order: order, lo: lo, hi: hi, pos: lo, minOverlap: minOverlap}
}

// Next advances the iterator and returns the next qualifying read, or
// (0,false) once exhausted.
func (it *PrefixReadIter) Next() (ReadID, bool) {
	for it.pos < it.hi {
		id := it.order[it.pos]
		it.pos++
		if it.rm.reads[id].Length >= it.minOverlap {
			return id, true
		}
	}
	return 0, false
}
