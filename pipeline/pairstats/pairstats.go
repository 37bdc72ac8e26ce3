// Package pairstats estimates the insert-size (pair-distance) distribution
// of a sample by sampling uniquely-placed read pairs, a supplemented
// feature grounded on the original implementation's pair_stats.{h,cpp}
// (not part of the distilled spec, but needed by any tracer that wants a
// default search-window size instead of a user-supplied one).
//
// For "paired end" libraries the pair distance is the offset from the
// start of a forward-facing read to the start of its mate; for "mate
// pair" libraries it comes out negative. Either way, if a read faces
// forward in the reference, its mate's reference offset is the read's
// offset plus the pair distance.
package pairstats

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/grailbio/biograph/dna"
	"github.com/grailbio/biograph/readmap"
	"github.com/grailbio/biograph/reference"
	"github.com/grailbio/biograph/reference/bwtindex"
	"github.com/grailbio/biograph/refmap"
	"github.com/grailbio/biograph/seqset"
)

const (
	numSamples   = 1000
	maxAttempts  = numSamples * 20
)

// Stats is the result of a pair-distance sampling pass.
type Stats struct {
	// MedianOffset is the median sampled pair distance. Valid only if Found.
	MedianOffset int64
	// Found is false if no usable pairs were sampled at all.
	Found bool

	TotalAttempts  int
	CrossScaffold  int
	BadDirection   int
	Sampled        int
}

// Estimate samples up to numSamples uniquely-placed read pairs from ss and
// returns their median reference distance. bwt is the index built from the
// reference's flattened sequence; ctx may be used to cancel a long-running
// sample.
func Estimate(ctx context.Context, ss *seqset.Seqset, rm *readmap.Readmap, ref *reference.Reference, rmap *refmap.RefMap, bwt *bwtindex.Index, seed int64) (Stats, error) {
	if ss.Size() == 0 {
		return Stats{}, fmt.Errorf("pairstats: empty seqset")
	}
	rnd := rand.New(rand.NewSource(seed))

	var offsets []int64
	var stats Stats
	for stats.Sampled < numSamples && stats.TotalAttempts < maxAttempts {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}
		stats.TotalAttempts++

		origID := rnd.Intn(ss.Size())
		entry := rmap.Get(origID)
		if entry.Count != 1 {
			continue
		}

		first, last, ok := rm.EntryToIndex(origID)
		if !ok {
			continue
		}
		origReadID := first
		if last > first {
			origReadID = first + readmap.ReadID(rnd.Intn(int(last-first+1)))
		}

		origRead := rm.GetReadByID(origReadID)
		if !origRead.IsForward {
			continue
		}
		mateReadID, hasMate := rm.GetMate(origReadID)
		if !hasMate {
			continue
		}
		mateRead := rm.GetReadByID(mateReadID)
		if !mateRead.IsForward {
			continue
		}
		mateEntry := rmap.Get(mateRead.SeqsetID)
		if mateEntry.Count != 1 {
			continue
		}

		origScaffold, origPos, origRC, err := refLoc(ss, ref, bwt, origID, entry)
		if err != nil {
			continue
		}
		mateScaffold, matePos, mateRC, err := refLoc(ss, ref, bwt, mateRead.SeqsetID, mateEntry)
		if err != nil {
			continue
		}

		if origScaffold != mateScaffold {
			stats.CrossScaffold++
			continue
		}
		if origRC == mateRC {
			stats.BadDirection++
			continue
		}

		distance := int64(matePos) - int64(origPos)
		if origRC {
			distance = -distance
		}
		offsets = append(offsets, distance)
		stats.Sampled++
	}

	if len(offsets) == 0 {
		return stats, nil
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	stats.MedianOffset = offsets[len(offsets)/2]
	stats.Found = true
	return stats, nil
}

// refLoc locates a uniquely-placed seqset entry in the reference,
// returning the scaffold index, the position of the *start* of the
// original read (correcting for orientation), and whether the match was
// reverse-complemented.
func refLoc(ss *seqset.Seqset, ref *reference.Reference, bwt *bwtindex.Index, seqsetID int, entry refmap.Entry) (scaffold, pos int, rc bool, err error) {
	if entry.Count != 1 {
		return 0, 0, false, fmt.Errorf("pairstats: refLoc called on a non-unique entry")
	}
	rc = entry.RevMatch
	seq := ss.CtxEntry(seqsetID).Sequence()
	if rc {
		seq = dna.RevComp(seq)
	}
	rng := bwt.Find(seq)
	if rng.Count() != 1 {
		return 0, 0, false, fmt.Errorf("pairstats: expected a unique reference match for seqset id %d", seqsetID)
	}
	flat := rng.Positions()[0]
	scaffold, scaffoldPos, err := ref.GetSeqPosition(flat)
	if err != nil {
		return 0, 0, false, err
	}
	if rc {
		// Facing backwards; we want the offset of the start of the original
		// (forward-sense) sequence.
		scaffoldPos += len(seq)
	}
	return scaffold, scaffoldPos, rc, nil
}
